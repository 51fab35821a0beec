package dto

// SubmitTaskResponse 提交分析任务响应
type SubmitTaskResponse struct {
	TaskID string `json:"task_id"`
	Status string `json:"status"`
	Queued bool   `json:"queued"`
}

// AnalysisTaskDetail 分析任务详情
type AnalysisTaskDetail struct {
	ID           string  `json:"id"`
	ChapterID    string  `json:"chapter_id"`
	ProjectID    string  `json:"project_id"`
	Status       string  `json:"status"`
	Progress     int     `json:"progress"`
	ErrorMessage *string `json:"error_message,omitempty"`
	CreatedAt    string  `json:"created_at"`
	StartedAt    *string `json:"started_at,omitempty"`
	CompletedAt  *string `json:"completed_at,omitempty"`
	DurationMs   int64   `json:"duration_ms,omitempty"`
}

// TaskStats 各状态任务数量
type TaskStats struct {
	Pending     int64 `json:"pending"`
	Running     int64 `json:"running"`
	Completed   int64 `json:"completed"`
	Failed      int64 `json:"failed"`
	QueueLength int64 `json:"queue_length"`
}
