package testutil

import (
	"fmt"
	"testing"
	"time"

	"gorm.io/gorm"

	"github.com/qs3c/novel_go_server/internal/model"
)

const DefaultUserID = "user-1"

// TestProject 创建测试项目
func TestProject(t *testing.T, db *gorm.DB, opts ...func(*model.Project)) *model.Project {
	t.Helper()

	project := &model.Project{
		UserID: DefaultUserID,
		Title:  fmt.Sprintf("Test Project %d", time.Now().UnixNano()%10000),
		Genre:  "fantasy",
	}

	for _, opt := range opts {
		opt(project)
	}

	if err := db.Create(project).Error; err != nil {
		t.Fatalf("Failed to create test project: %v", err)
	}

	return project
}

// WithOwner 设置项目所属用户
func WithOwner(userID string) func(*model.Project) {
	return func(p *model.Project) {
		p.UserID = userID
	}
}

// TestChapter 创建测试章节
func TestChapter(t *testing.T, db *gorm.DB, projectID string, opts ...func(*model.Chapter)) *model.Chapter {
	t.Helper()

	chapter := &model.Chapter{
		ProjectID:     projectID,
		ChapterNumber: 1,
		Title:         fmt.Sprintf("Chapter %d", time.Now().UnixNano()%10000),
		Content:       "第一段。\n\n“你来了。”她说。\n\n第三段。",
	}

	for _, opt := range opts {
		opt(chapter)
	}

	if err := db.Create(chapter).Error; err != nil {
		t.Fatalf("Failed to create test chapter: %v", err)
	}

	return chapter
}

// WithContent 设置章节正文
func WithContent(content string) func(*model.Chapter) {
	return func(c *model.Chapter) {
		c.Content = content
	}
}

// TestStyle 创建测试风格，projectID 为空时为全局预设
func TestStyle(t *testing.T, db *gorm.DB, name string, projectID string) *model.WritingStyle {
	t.Helper()

	style := &model.WritingStyle{
		Name:      name,
		StyleType: "preset",
	}
	if projectID != "" {
		style.ProjectID = &projectID
		style.StyleType = "custom"
	}

	if err := db.Create(style).Error; err != nil {
		t.Fatalf("Failed to create test style: %v", err)
	}

	return style
}

// TestTask 创建测试分析任务
func TestTask(t *testing.T, db *gorm.DB, chapter *model.Chapter, opts ...func(*model.AnalysisTask)) *model.AnalysisTask {
	t.Helper()

	task := &model.AnalysisTask{
		ChapterID: chapter.ID,
		UserID:    DefaultUserID,
		ProjectID: chapter.ProjectID,
		Status:    model.TaskStatusPending,
	}

	for _, opt := range opts {
		opt(task)
	}

	if err := db.Create(task).Error; err != nil {
		t.Fatalf("Failed to create test task: %v", err)
	}

	return task
}

// WithTaskStatus 设置任务状态，running 及之后的状态补齐时间戳
func WithTaskStatus(status model.TaskStatus) func(*model.AnalysisTask) {
	return func(task *model.AnalysisTask) {
		task.Status = status
		now := time.Now()
		if status != model.TaskStatusPending {
			task.StartedAt = &now
		}
		if status.IsTerminal() {
			task.CompletedAt = &now
		}
		if status == model.TaskStatusCompleted {
			task.Progress = 100
		}
		if status == model.TaskStatusFailed {
			msg := "test failure"
			task.ErrorMessage = &msg
		}
	}
}

// WithCreatedAt 设置创建时间
func WithCreatedAt(at time.Time) func(*model.AnalysisTask) {
	return func(task *model.AnalysisTask) {
		task.CreatedAt = at
	}
}

// WithStartedAt 设置开始时间
func WithStartedAt(at time.Time) func(*model.AnalysisTask) {
	return func(task *model.AnalysisTask) {
		task.StartedAt = &at
	}
}

// WithTaskUser 设置任务所属用户
func WithTaskUser(userID string) func(*model.AnalysisTask) {
	return func(task *model.AnalysisTask) {
		task.UserID = userID
	}
}
