package pubsub

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/go-redis/redis/v8"
)

const (
	ChannelTaskProgress = "analysis_task_progress"

	MessageTypeTaskProgress = "task_progress"
)

// ProgressMessage 任务进度消息
type ProgressMessage struct {
	Type      string `json:"type"`
	UserID    string `json:"user_id"`
	TaskID    string `json:"task_id"`
	ChapterID string `json:"chapter_id"`
	Status    string `json:"status"`
	Step      string `json:"step"`
	Progress  int    `json:"progress"`
	Message   string `json:"message,omitempty"`
	Error     string `json:"error,omitempty"`
}

// 进度阶段
const (
	StepStarted   = "started"
	StepAnalyzing = "analyzing"
	StepDone      = "done"
	StepFailed    = "failed"
)

var StepMessages = map[string]string{
	StepStarted:   "开始分析章节",
	StepAnalyzing: "正在分析章节内容",
	StepDone:      "分析完成",
	StepFailed:    "分析失败",
}

// Publisher Redis 发布者
type Publisher struct {
	client  *redis.Client
	channel string
}

func NewPublisher(client *redis.Client) *Publisher {
	return &Publisher{client: client, channel: ChannelTaskProgress}
}

// PublishProgress 发布进度消息
func (p *Publisher) PublishProgress(ctx context.Context, msg *ProgressMessage) error {
	msg.Type = MessageTypeTaskProgress
	if msg.Message == "" && msg.Step != "" {
		msg.Message = StepMessages[msg.Step]
	}

	data, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("failed to marshal progress message: %w", err)
	}

	return p.client.Publish(ctx, p.channel, data).Err()
}

// Subscriber Redis 订阅者
type Subscriber struct {
	client  *redis.Client
	channel string
}

func NewSubscriber(client *redis.Client) *Subscriber {
	return &Subscriber{client: client, channel: ChannelTaskProgress}
}

// Subscribe 阻塞消费进度消息，直到 ctx 结束
func (s *Subscriber) Subscribe(ctx context.Context, handler func(*ProgressMessage)) error {
	ps := s.client.Subscribe(ctx, s.channel)
	defer ps.Close()

	// 等待订阅确认
	if _, err := ps.Receive(ctx); err != nil {
		return fmt.Errorf("failed to subscribe %s: %w", s.channel, err)
	}

	ch := ps.Channel()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case msg, ok := <-ch:
			if !ok {
				return nil
			}

			var progressMsg ProgressMessage
			if err := json.Unmarshal([]byte(msg.Payload), &progressMsg); err != nil {
				continue
			}

			handler(&progressMsg)
		}
	}
}
