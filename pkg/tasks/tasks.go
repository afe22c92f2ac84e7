// Package tasks 定义了发送到 Kafka 的任务结构。
package tasks

// GenerationTask 是一次文档生成请求的任务负载。
// 记录本身已以 pending 状态落库，任务只携带流水线需要的字段。
type GenerationTask struct {
	GenerationID uint   `json:"generation_id"`
	UserID       uint64 `json:"user_id"`
	DocType      string `json:"doc_type"`
	Topic        string `json:"topic"`
	Pages        int    `json:"pages"`
	Design       string `json:"design,omitempty"`
	Language     string `json:"language"`
}
