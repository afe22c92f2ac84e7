// Package kafka 提供了与 Kafka 消息队列交互的功能。
package kafka

import (
	"context"
	"encoding/json"

	"docforge-go/internal/config"
	"docforge-go/pkg/log"
	"docforge-go/pkg/tasks"

	"github.com/segmentio/kafka-go"
)

// TaskProcessor 定义了能处理生成任务的组件接口，
// 用于解耦消费者与具体的流水线实现。
type TaskProcessor interface {
	Process(ctx context.Context, task tasks.GenerationTask) error
}

// Producer 是生成任务生产端的接口，便于在测试中替换。
type Producer interface {
	ProduceGenerationTask(task tasks.GenerationTask) error
}

var producer *kafka.Writer

// InitProducer 初始化 Kafka 生产者。
func InitProducer(cfg config.KafkaConfig) {
	producer = &kafka.Writer{
		Addr:     kafka.TCP(cfg.Brokers),
		Topic:    cfg.Topic,
		Balancer: &kafka.LeastBytes{},
	}
	log.Info("Kafka 生产者初始化成功")
}

// taskProducer 是 Producer 的 Kafka 实现。
type taskProducer struct{}

// NewProducer 返回基于全局 writer 的任务生产者。
func NewProducer() Producer {
	return taskProducer{}
}

// ProduceGenerationTask 发送一个文档生成任务到 Kafka。
func (taskProducer) ProduceGenerationTask(task tasks.GenerationTask) error {
	taskBytes, err := json.Marshal(task)
	if err != nil {
		return err
	}

	return producer.WriteMessages(context.Background(),
		kafka.Message{
			Value: taskBytes,
		},
	)
}

// StartConsumer 启动一个 Kafka 消费者来处理文档生成任务。
// 每条任务在独立的 goroutine 中处理（并发上限由 maxConcurrent 控制），
// 单个用户的长耗时生成不会阻塞其他用户的任务。
// 任务失败属于业务终态（记录已标记 failed 并通知用户），
// 因此 offset 无论成败都提交，不依赖 Kafka 重投。
func StartConsumer(cfg config.KafkaConfig, processor TaskProcessor, maxConcurrent int) {
	r := kafka.NewReader(kafka.ReaderConfig{
		Brokers:  []string{cfg.Brokers},
		Topic:    cfg.Topic,
		GroupID:  "docforge-go-consumer",
		MinBytes: 10e3, // 10KB
		MaxBytes: 10e6, // 10MB
	})

	log.Infof("Kafka 消费者已启动，正在监听主题 '%s'", cfg.Topic)

	sem := make(chan struct{}, maxConcurrent)

	for {
		m, err := r.FetchMessage(context.Background())
		if err != nil {
			log.Error("从 Kafka 读取消息失败", err)
			break
		}

		var task tasks.GenerationTask
		if err := json.Unmarshal(m.Value, &task); err != nil {
			log.Errorf("无法解析 Kafka 消息: %v, value: %s", err, string(m.Value))
			// 消息格式错误，直接提交，避免阻塞队列
			if err := r.CommitMessages(context.Background(), m); err != nil {
				log.Errorf("提交错误消息失败: %v", err)
			}
			continue
		}

		sem <- struct{}{}
		go func(m kafka.Message, task tasks.GenerationTask) {
			defer func() { <-sem }()

			log.Infof("开始处理生成任务: generationID=%d, userID=%d", task.GenerationID, task.UserID)
			if err := processor.Process(context.Background(), task); err != nil {
				log.Errorf("生成任务处理失败: generationID=%d, error: %v", task.GenerationID, err)
			} else {
				log.Infof("生成任务处理成功: generationID=%d", task.GenerationID)
			}
			if err := r.CommitMessages(context.Background(), m); err != nil {
				log.Errorf("提交 Kafka 消息 offset 失败: %v", err)
			}
		}(m, task)
	}

	if err := r.Close(); err != nil {
		log.Fatalf("关闭 Kafka 消费者失败: %v", err)
	}
}
