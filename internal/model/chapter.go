package model

import (
	"time"

	"gorm.io/gorm"
)

type Chapter struct {
	ID            string    `gorm:"primaryKey;type:varchar(36)" json:"id"`
	ProjectID     string    `gorm:"type:varchar(36);not null;index" json:"project_id"`
	ChapterNumber int       `gorm:"default:0" json:"chapter_number"`
	Title         string    `gorm:"size:200;not null" json:"title"`
	Content       string    `gorm:"type:text" json:"content,omitempty"`
	WordCount     int       `gorm:"default:0" json:"word_count"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`

	// 关联
	Project *Project `gorm:"foreignKey:ProjectID;constraint:OnDelete:CASCADE" json:"-"`
}

func (Chapter) TableName() string {
	return "chapters"
}

func (c *Chapter) BeforeCreate(tx *gorm.DB) error {
	if c.ID == "" {
		c.ID = NewID()
	}
	return nil
}
