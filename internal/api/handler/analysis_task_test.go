package handler

import (
	"fmt"
	"net/http"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/qs3c/novel_go_server/internal/model"
	"github.com/qs3c/novel_go_server/internal/model/dto"
	"github.com/qs3c/novel_go_server/internal/pkg/response"
	"github.com/qs3c/novel_go_server/internal/repository"
	"github.com/qs3c/novel_go_server/internal/service"
	"github.com/qs3c/novel_go_server/internal/testutil"
)

func setupAnalysisTaskRouter(t *testing.T, userID string) (*gin.Engine, *gorm.DB) {
	t.Helper()

	db := testutil.SetupTestDB(t)
	t.Cleanup(func() { testutil.CleanupTestDB(t, db) })

	svc := service.NewAnalysisTaskService(
		repository.NewAnalysisTaskRepository(db),
		repository.NewChapterRepository(db),
		nil,
		nil,
	)
	h := NewAnalysisTaskHandler(svc)

	r := gin.New()
	r.Use(mockAuth(userID))
	r.POST("/chapters/:id/analysis-tasks", h.Submit)
	r.GET("/chapters/:id/analysis-tasks", h.List)
	r.GET("/chapters/:id/analysis-tasks/latest", h.Latest)
	r.GET("/analysis-tasks/stats", h.Stats)
	r.GET("/analysis-tasks/:id", h.Get)
	return r, db
}

func TestAnalysisTaskHandler_Submit(t *testing.T) {
	r, db := setupAnalysisTaskRouter(t, testutil.DefaultUserID)
	project := testutil.TestProject(t, db)
	chapter := testutil.TestChapter(t, db, project.ID)

	w := performRequest(r, "POST", "/chapters/"+chapter.ID+"/analysis-tasks", nil)

	assert.Equal(t, http.StatusOK, w.Code)
	resp := parseResponse(t, w)
	assert.Equal(t, response.CodeSuccess, resp.Code)

	var data dto.SubmitTaskResponse
	decodeData(t, resp, &data)
	assert.NotEmpty(t, data.TaskID)
	assert.Equal(t, "pending", data.Status)
	assert.False(t, data.Queued)

	var task model.AnalysisTask
	require.NoError(t, db.First(&task, "id = ?", data.TaskID).Error)
	assert.Equal(t, chapter.ID, task.ChapterID)
	assert.Equal(t, project.ID, task.ProjectID)
	assert.Equal(t, testutil.DefaultUserID, task.UserID)
}

func TestAnalysisTaskHandler_Submit_Errors(t *testing.T) {
	r, db := setupAnalysisTaskRouter(t, testutil.DefaultUserID)
	own := testutil.TestChapter(t, db, testutil.TestProject(t, db).ID)
	other := testutil.TestChapter(t, db, testutil.TestProject(t, db, testutil.WithOwner("user-2")).ID)
	testutil.TestTask(t, db, own, testutil.WithTaskStatus(model.TaskStatusRunning))

	tests := []struct {
		name      string
		chapterID string
		wantCode  int
	}{
		{"章节不存在", "missing", response.CodeResourceNotFound},
		{"他人章节", other.ID, response.CodePermissionDenied},
		{"已有进行中任务", own.ID, response.CodeConflict},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := performRequest(r, "POST", "/chapters/"+tt.chapterID+"/analysis-tasks", nil)
			resp := parseResponse(t, w)
			assert.Equal(t, tt.wantCode, resp.Code)
		})
	}
}

func TestAnalysisTaskHandler_Unauthorized(t *testing.T) {
	r, _ := setupAnalysisTaskRouter(t, "")

	w := performRequest(r, "POST", "/chapters/any/analysis-tasks", nil)

	resp := parseResponse(t, w)
	assert.Equal(t, response.CodeAuthFailed, resp.Code)
}

func TestAnalysisTaskHandler_List(t *testing.T) {
	r, db := setupAnalysisTaskRouter(t, testutil.DefaultUserID)
	chapter := testutil.TestChapter(t, db, testutil.TestProject(t, db).ID)
	for i := 0; i < 3; i++ {
		testutil.TestTask(t, db, chapter, testutil.WithTaskStatus(model.TaskStatusCompleted))
	}

	w := performRequest(r, "GET", "/chapters/"+chapter.ID+"/analysis-tasks?limit=2", nil)

	resp := parseResponse(t, w)
	require.Equal(t, response.CodeSuccess, resp.Code)

	var data struct {
		Total int                      `json:"total"`
		Limit int                      `json:"limit"`
		Items []dto.AnalysisTaskDetail `json:"items"`
	}
	decodeData(t, resp, &data)
	assert.Equal(t, 2, data.Limit)
	assert.Len(t, data.Items, 2)
	assert.Equal(t, 2, data.Total)
	for _, item := range data.Items {
		assert.Equal(t, "completed", item.Status)
		assert.Equal(t, 100, item.Progress)
	}
}

func TestAnalysisTaskHandler_List_Limit(t *testing.T) {
	r, db := setupAnalysisTaskRouter(t, testutil.DefaultUserID)
	chapter := testutil.TestChapter(t, db, testutil.TestProject(t, db).ID)

	tests := []struct {
		query     string
		wantCode  int
		wantLimit int
	}{
		{"", response.CodeSuccess, service.DefaultListLimit},
		{"?limit=0", response.CodeSuccess, service.DefaultListLimit},
		{"?limit=500", response.CodeSuccess, service.MaxListLimit},
		{"?limit=abc", response.CodeParamError, 0},
	}

	for _, tt := range tests {
		t.Run(fmt.Sprintf("query%q", tt.query), func(t *testing.T) {
			w := performRequest(r, "GET", "/chapters/"+chapter.ID+"/analysis-tasks"+tt.query, nil)
			resp := parseResponse(t, w)
			assert.Equal(t, tt.wantCode, resp.Code)
			if tt.wantCode != response.CodeSuccess {
				return
			}
			var data response.ListData
			decodeData(t, resp, &data)
			assert.Equal(t, tt.wantLimit, data.Limit)
			assert.Equal(t, 0, data.Total)
		})
	}
}

func TestAnalysisTaskHandler_Latest(t *testing.T) {
	r, db := setupAnalysisTaskRouter(t, testutil.DefaultUserID)
	chapter := testutil.TestChapter(t, db, testutil.TestProject(t, db).ID)

	w := performRequest(r, "GET", "/chapters/"+chapter.ID+"/analysis-tasks/latest", nil)
	assert.Equal(t, response.CodeResourceNotFound, parseResponse(t, w).Code)

	task := testutil.TestTask(t, db, chapter)

	w = performRequest(r, "GET", "/chapters/"+chapter.ID+"/analysis-tasks/latest", nil)
	resp := parseResponse(t, w)
	require.Equal(t, response.CodeSuccess, resp.Code)

	var detail dto.AnalysisTaskDetail
	decodeData(t, resp, &detail)
	assert.Equal(t, task.ID, detail.ID)
	assert.Equal(t, "pending", detail.Status)
	assert.Nil(t, detail.StartedAt)
}

func TestAnalysisTaskHandler_Get(t *testing.T) {
	r, db := setupAnalysisTaskRouter(t, testutil.DefaultUserID)
	chapter := testutil.TestChapter(t, db, testutil.TestProject(t, db).ID)
	task := testutil.TestTask(t, db, chapter, testutil.WithTaskStatus(model.TaskStatusFailed))
	foreign := testutil.TestTask(t, db, chapter, testutil.WithTaskUser("user-2"))

	t.Run("成功", func(t *testing.T) {
		w := performRequest(r, "GET", "/analysis-tasks/"+task.ID, nil)
		resp := parseResponse(t, w)
		require.Equal(t, response.CodeSuccess, resp.Code)

		var detail dto.AnalysisTaskDetail
		decodeData(t, resp, &detail)
		assert.Equal(t, "failed", detail.Status)
		require.NotNil(t, detail.ErrorMessage)
		assert.NotEmpty(t, *detail.ErrorMessage)
		assert.NotNil(t, detail.CompletedAt)
	})

	t.Run("不存在", func(t *testing.T) {
		w := performRequest(r, "GET", "/analysis-tasks/missing", nil)
		assert.Equal(t, response.CodeResourceNotFound, parseResponse(t, w).Code)
	})

	t.Run("他人任务", func(t *testing.T) {
		w := performRequest(r, "GET", "/analysis-tasks/"+foreign.ID, nil)
		assert.Equal(t, response.CodePermissionDenied, parseResponse(t, w).Code)
	})
}

func TestAnalysisTaskHandler_Stats(t *testing.T) {
	r, db := setupAnalysisTaskRouter(t, testutil.DefaultUserID)
	chapter := testutil.TestChapter(t, db, testutil.TestProject(t, db).ID)
	testutil.TestTask(t, db, chapter)
	testutil.TestTask(t, db, chapter, testutil.WithTaskStatus(model.TaskStatusCompleted))
	testutil.TestTask(t, db, chapter, testutil.WithTaskStatus(model.TaskStatusCompleted))

	w := performRequest(r, "GET", "/analysis-tasks/stats", nil)

	resp := parseResponse(t, w)
	require.Equal(t, response.CodeSuccess, resp.Code)

	var stats dto.TaskStats
	decodeData(t, resp, &stats)
	assert.Equal(t, int64(1), stats.Pending)
	assert.Equal(t, int64(0), stats.Running)
	assert.Equal(t, int64(2), stats.Completed)
	assert.Equal(t, int64(0), stats.Failed)
	assert.Equal(t, int64(0), stats.QueueLength)
}
