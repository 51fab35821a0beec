package database

import (
	"io/fs"
	"strconv"
	"strings"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/qs3c/novel_go_server/config"
	"github.com/qs3c/novel_go_server/internal/model"
)

func TestSQLiteDSN(t *testing.T) {
	assert.Equal(t, "app.db?_foreign_keys=1", SQLiteDSN("app.db"))
	assert.Equal(t, "file::memory:?cache=shared&_foreign_keys=1", SQLiteDSN("file::memory:?cache=shared"))
	assert.Equal(t, "app.db?_fk=1", SQLiteDSN("app.db?_fk=1"))
}

func TestDialector(t *testing.T) {
	for _, driver := range []string{config.DriverMySQL, config.DriverPostgres, config.DriverSQLite} {
		d, err := Dialector(&config.DatabaseConfig{Driver: driver, Database: "test.db"})
		require.NoError(t, err)
		assert.Equal(t, driver, d.Name())
	}

	_, err := Dialector(&config.DatabaseConfig{Driver: "oracle"})
	assert.Error(t, err)
}

func TestPostgresDSN(t *testing.T) {
	dsn := PostgresDSN(&config.DatabaseConfig{
		Host: "db", Port: 5432, Username: "u", Password: "p", Database: "novel",
	})
	assert.Contains(t, dsn, "host=db")
	assert.Contains(t, dsn, "port=5432")
	assert.Contains(t, dsn, "dbname=novel")
}

func TestOpen_SQLiteAutoMigrate(t *testing.T) {
	cfg := &config.DatabaseConfig{
		Driver:       config.DriverSQLite,
		DSN:          "file:database_open_test?mode=memory&cache=shared",
		MaxOpenConns: 1,
		LogLevel:     "silent",
		AutoMigrate:  true,
	}

	db, err := Open(cfg, zap.NewNop())
	require.NoError(t, err)
	defer Close(db)

	for _, m := range Models() {
		assert.True(t, db.Migrator().HasTable(m))
	}
	assert.True(t, db.Migrator().HasIndex(&model.AnalysisTask{}, "idx_chapter_id_created"))
	assert.True(t, db.Migrator().HasIndex(&model.AnalysisTask{}, "idx_status"))
	assert.True(t, db.Migrator().HasIndex(&model.ProjectDefaultStyle{}, "uix_project_default_style"))

	var fk int
	require.NoError(t, db.Raw("PRAGMA foreign_keys").Scan(&fk).Error)
	assert.Equal(t, 1, fk)
}

func TestMigrationsEmbedded(t *testing.T) {
	files, err := fs.Glob(migrationFiles, "migrations/*.sql")
	require.NoError(t, err)
	require.NotEmpty(t, files)

	data, err := fs.ReadFile(migrationFiles, files[0])
	require.NoError(t, err)
	sql := string(data)

	assert.True(t, strings.Contains(sql, "-- +goose Up"))
	assert.Contains(t, sql, "REFERENCES chapters (id) ON DELETE CASCADE")
	assert.Contains(t, sql, "CONSTRAINT uix_project_default_style UNIQUE (project_id)")
	assert.Contains(t, sql, "idx_chapter_id_created ON analysis_tasks (chapter_id, created_at)")
}

func TestNewRedis(t *testing.T) {
	mr, err := miniredis.Run()
	require.NoError(t, err)
	defer mr.Close()

	client, err := NewRedis(&config.RedisConfig{Host: mr.Host(), Port: mustPort(t, mr.Port())})
	require.NoError(t, err)
	defer client.Close()

	mr.Close()
	_, err = NewRedis(&config.RedisConfig{Host: "127.0.0.1", Port: 1})
	assert.Error(t, err)
}

func mustPort(t *testing.T, s string) int {
	t.Helper()
	port, err := strconv.Atoi(s)
	require.NoError(t, err)
	return port
}
