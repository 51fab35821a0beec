package model

import (
	"time"
)

// ProjectDefaultStyle 项目默认风格，每个项目至多一条
type ProjectDefaultStyle struct {
	ID        int64     `gorm:"primaryKey;autoIncrement" json:"id"`
	ProjectID string    `gorm:"type:varchar(36);not null;uniqueIndex:uix_project_default_style" json:"project_id"`
	StyleID   int64     `gorm:"not null;index" json:"style_id"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	// 关联
	Project *Project      `gorm:"foreignKey:ProjectID;constraint:OnDelete:CASCADE" json:"-"`
	Style   *WritingStyle `gorm:"foreignKey:StyleID;constraint:OnDelete:CASCADE" json:"style,omitempty"`
}

func (ProjectDefaultStyle) TableName() string {
	return "project_default_styles"
}
