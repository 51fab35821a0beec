package service

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/qs3c/novel_go_server/internal/model"
	"github.com/qs3c/novel_go_server/internal/repository"
	"github.com/qs3c/novel_go_server/internal/testutil"
)

func setupStyleService(t *testing.T) (*ProjectStyleService, *gorm.DB) {
	t.Helper()

	db := testutil.SetupTestDB(t)
	t.Cleanup(func() { testutil.CleanupTestDB(t, db) })

	svc := NewProjectStyleService(
		repository.NewProjectRepository(db),
		repository.NewWritingStyleRepository(db),
		repository.NewProjectDefaultStyleRepository(db),
	)
	return svc, db
}

func TestProjectStyleService_SetDefault(t *testing.T) {
	svc, db := setupStyleService(t)

	project := testutil.TestProject(t, db)
	global := testutil.TestStyle(t, db, "简洁", "")
	own := testutil.TestStyle(t, db, "私有", project.ID)

	detail, err := svc.SetDefault(testutil.DefaultUserID, project.ID, global.ID)
	require.NoError(t, err)
	assert.Equal(t, global.ID, detail.StyleID)
	assert.Equal(t, "简洁", detail.StyleName)

	// 再次选择时替换，不新增记录
	detail, err = svc.SetDefault(testutil.DefaultUserID, project.ID, own.ID)
	require.NoError(t, err)
	assert.Equal(t, own.ID, detail.StyleID)

	var count int64
	db.Model(&model.ProjectDefaultStyle{}).Count(&count)
	assert.Equal(t, int64(1), count)

	got, err := svc.GetDefault(testutil.DefaultUserID, project.ID)
	require.NoError(t, err)
	assert.Equal(t, "私有", got.StyleName)
}

func TestProjectStyleService_SetDefault_Errors(t *testing.T) {
	svc, db := setupStyleService(t)

	project := testutil.TestProject(t, db)
	other := testutil.TestProject(t, db)
	foreign := testutil.TestStyle(t, db, "别人的", other.ID)
	global := testutil.TestStyle(t, db, "全局", "")

	_, err := svc.SetDefault(testutil.DefaultUserID, project.ID, foreign.ID)
	assert.ErrorIs(t, err, ErrStyleNotFound)

	_, err = svc.SetDefault(testutil.DefaultUserID, project.ID, 99999)
	assert.ErrorIs(t, err, ErrStyleNotFound)

	_, err = svc.SetDefault("someone-else", project.ID, global.ID)
	assert.ErrorIs(t, err, ErrPermissionDenied)

	_, err = svc.SetDefault(testutil.DefaultUserID, model.NewID(), global.ID)
	assert.ErrorIs(t, err, ErrProjectNotFound)
}

func TestProjectStyleService_GetDefault_NotSet(t *testing.T) {
	svc, db := setupStyleService(t)

	project := testutil.TestProject(t, db)

	_, err := svc.GetDefault(testutil.DefaultUserID, project.ID)
	assert.ErrorIs(t, err, ErrDefaultStyleNotSet)
}

func TestProjectStyleService_ClearDefault(t *testing.T) {
	svc, db := setupStyleService(t)

	project := testutil.TestProject(t, db)
	style := testutil.TestStyle(t, db, "全局", "")

	_, err := svc.SetDefault(testutil.DefaultUserID, project.ID, style.ID)
	require.NoError(t, err)

	require.NoError(t, svc.ClearDefault(testutil.DefaultUserID, project.ID))

	_, err = svc.GetDefault(testutil.DefaultUserID, project.ID)
	assert.ErrorIs(t, err, ErrDefaultStyleNotSet)

	assert.ErrorIs(t, svc.ClearDefault(testutil.DefaultUserID, project.ID), ErrDefaultStyleNotSet)
}

func TestProjectStyleService_ListStyles(t *testing.T) {
	svc, db := setupStyleService(t)

	project := testutil.TestProject(t, db)
	other := testutil.TestProject(t, db)
	global := testutil.TestStyle(t, db, "全局", "")
	own := testutil.TestStyle(t, db, "私有", project.ID)
	testutil.TestStyle(t, db, "其他项目", other.ID)

	items, err := svc.ListStyles(testutil.DefaultUserID, project.ID)
	require.NoError(t, err)
	require.Len(t, items, 2)
	assert.Equal(t, global.ID, items[0].ID)
	assert.Equal(t, own.ID, items[1].ID)
	assert.False(t, items[0].IsDefault)
	assert.False(t, items[1].IsDefault)

	_, err = svc.SetDefault(testutil.DefaultUserID, project.ID, own.ID)
	require.NoError(t, err)

	items, err = svc.ListStyles(testutil.DefaultUserID, project.ID)
	require.NoError(t, err)
	assert.False(t, items[0].IsDefault)
	assert.True(t, items[1].IsDefault)
}

func TestProjectStyleService_ListStyles_Errors(t *testing.T) {
	svc, db := setupStyleService(t)
	foreign := testutil.TestProject(t, db, testutil.WithOwner("user-2"))

	_, err := svc.ListStyles(testutil.DefaultUserID, "missing")
	assert.ErrorIs(t, err, ErrProjectNotFound)

	_, err = svc.ListStyles(testutil.DefaultUserID, foreign.ID)
	assert.ErrorIs(t, err, ErrPermissionDenied)
}
