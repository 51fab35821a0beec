package service

import "errors"

var (
	ErrTaskNotFound       = errors.New("分析任务不存在")
	ErrChapterNotFound    = errors.New("章节不存在")
	ErrProjectNotFound    = errors.New("项目不存在")
	ErrStyleNotFound      = errors.New("写作风格不存在")
	ErrDefaultStyleNotSet = errors.New("项目未设置默认风格")
	ErrPermissionDenied   = errors.New("无权操作此资源")
	ErrTaskAlreadyActive  = errors.New("该章节已有进行中的分析任务")
)
