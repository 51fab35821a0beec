package model

import (
	"time"
)

// WritingStyle 写作风格。ProjectID 为空表示全局预设
type WritingStyle struct {
	ID            int64     `gorm:"primaryKey;autoIncrement" json:"id"`
	ProjectID     *string   `gorm:"type:varchar(36);index" json:"project_id,omitempty"`
	Name          string    `gorm:"size:100;not null" json:"name"`
	StyleType     string    `gorm:"size:20;not null;default:custom" json:"style_type"` // preset, custom
	Description   string    `gorm:"type:text" json:"description,omitempty"`
	PromptContent string    `gorm:"type:text" json:"prompt_content,omitempty"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`

	// 关联
	Project *Project `gorm:"foreignKey:ProjectID;constraint:OnDelete:CASCADE" json:"-"`
}

func (WritingStyle) TableName() string {
	return "writing_styles"
}

// IsAvailableTo 风格是否可被指定项目使用
func (s *WritingStyle) IsAvailableTo(projectID string) bool {
	return s.ProjectID == nil || *s.ProjectID == projectID
}
