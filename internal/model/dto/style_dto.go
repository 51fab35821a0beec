package dto

// SetDefaultStyleRequest 设置项目默认风格
type SetDefaultStyleRequest struct {
	StyleID int64 `json:"style_id" binding:"required,min=1"`
}

// DefaultStyleDetail 项目默认风格
type DefaultStyleDetail struct {
	ProjectID   string `json:"project_id"`
	StyleID     int64  `json:"style_id"`
	StyleName   string `json:"style_name"`
	StyleType   string `json:"style_type"`
	Description string `json:"description,omitempty"`
	CreatedAt   string `json:"created_at"`
	UpdatedAt   string `json:"updated_at"`
}

// StyleOption 项目可选风格
type StyleOption struct {
	ID          int64  `json:"id"`
	Name        string `json:"name"`
	StyleType   string `json:"style_type"`
	Description string `json:"description,omitempty"`
	IsDefault   bool   `json:"is_default"`
}
