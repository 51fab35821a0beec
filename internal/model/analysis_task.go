package model

import (
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"
)

var (
	ErrInvalidStatus     = errors.New("invalid task status")
	ErrInvalidProgress   = errors.New("progress must be between 0 and 100")
	ErrMissingReference  = errors.New("chapter_id, user_id and project_id are required")
	ErrUnexpectedMessage = errors.New("error_message is only allowed on failed tasks")
)

const (
	MinProgress = 0
	MaxProgress = 100
)

// AnalysisTask 章节分析任务
// 状态流转: pending -> running -> completed/failed
type AnalysisTask struct {
	ID           string     `gorm:"primaryKey;type:varchar(36)" json:"id"`
	ChapterID    string     `gorm:"type:varchar(36);not null;index:idx_chapter_id_created,priority:1" json:"chapter_id"`
	UserID       string     `gorm:"type:varchar(50);not null" json:"user_id"`
	ProjectID    string     `gorm:"type:varchar(36);not null" json:"project_id"`
	Status       TaskStatus `gorm:"type:varchar(20);not null;default:pending;index:idx_status;check:chk_analysis_tasks_status,status IN ('pending','running','completed','failed')" json:"status"`
	Progress     int        `gorm:"default:0;check:chk_analysis_tasks_progress,progress >= 0 AND progress <= 100" json:"progress"`
	ErrorMessage *string    `gorm:"type:text" json:"error_message,omitempty"`
	CreatedAt    time.Time  `gorm:"index:idx_chapter_id_created,priority:2" json:"created_at"`
	StartedAt    *time.Time `json:"started_at,omitempty"`
	CompletedAt  *time.Time `json:"completed_at,omitempty"`

	// 关联
	Chapter *Chapter `gorm:"foreignKey:ChapterID;constraint:OnDelete:CASCADE" json:"-"`
}

func (AnalysisTask) TableName() string {
	return "analysis_tasks"
}

// BeforeCreate 分配 ID、默认状态并校验
func (t *AnalysisTask) BeforeCreate(tx *gorm.DB) error {
	if t.ID == "" {
		t.ID = NewID()
	}
	if t.Status == "" {
		t.Status = TaskStatusPending
	}
	return t.Validate()
}

// Validate 校验写入方必须保证的约束
func (t *AnalysisTask) Validate() error {
	if t.ChapterID == "" || t.UserID == "" || t.ProjectID == "" {
		return ErrMissingReference
	}
	if !t.Status.IsValid() {
		return fmt.Errorf("%w: %q", ErrInvalidStatus, string(t.Status))
	}
	if err := ValidateProgress(t.Progress); err != nil {
		return err
	}
	if t.ErrorMessage != nil && t.Status != TaskStatusFailed {
		return ErrUnexpectedMessage
	}
	return nil
}

// Duration 执行耗时，未开始或未结束时返回 0
func (t *AnalysisTask) Duration() time.Duration {
	if t.StartedAt == nil || t.CompletedAt == nil {
		return 0
	}
	return t.CompletedAt.Sub(*t.StartedAt)
}

// ValidateProgress 进度必须在 0-100 之间
func ValidateProgress(progress int) error {
	if progress < MinProgress || progress > MaxProgress {
		return fmt.Errorf("%w: %d", ErrInvalidProgress, progress)
	}
	return nil
}

// ClampProgress 将进度截断到 0-100
func ClampProgress(progress int) int {
	if progress < MinProgress {
		return MinProgress
	}
	if progress > MaxProgress {
		return MaxProgress
	}
	return progress
}
