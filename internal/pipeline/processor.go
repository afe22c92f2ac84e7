// Package pipeline 实现了文档生成任务的异步处理流水线。
// 流程为：内容生成 -> 渲染 -> 上传对象存储 -> 标记完成 -> 计额 -> 索引 -> 通知。
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"time"

	"docforge-go/internal/model"
	"docforge-go/internal/service"
	"docforge-go/pkg/clock"
	"docforge-go/pkg/es"
	"docforge-go/pkg/llm"
	"docforge-go/pkg/log"
	"docforge-go/pkg/render"
	"docforge-go/pkg/storage"
	"docforge-go/pkg/tasks"
)

// Notifier 把流水线结果回推给用户，由对话层实现。
type Notifier interface {
	NotifySuccess(userID uint64, generationID uint, fileURL string) error
	NotifyFailure(userID uint64, generationID uint) error
}

// Processor 是生成任务的处理器，实现 kafka.TaskProcessor。
type Processor struct {
	llmClient     llm.Client
	renderClient  *render.Client
	generationSvc service.GenerationService
	quotaSvc      service.QuotaService
	notifier      Notifier
	clk           clock.Clock

	bucketName    string
	esIndexName   string
	timeout       time.Duration
	presignExpiry time.Duration
}

// NewProcessor 创建一个新的 Processor 实例。
func NewProcessor(
	llmClient llm.Client,
	renderClient *render.Client,
	generationSvc service.GenerationService,
	quotaSvc service.QuotaService,
	notifier Notifier,
	clk clock.Clock,
	bucketName, esIndexName string,
	timeout, presignExpiry time.Duration,
) *Processor {
	return &Processor{
		llmClient:     llmClient,
		renderClient:  renderClient,
		generationSvc: generationSvc,
		quotaSvc:      quotaSvc,
		notifier:      notifier,
		clk:           clk,
		bucketName:    bucketName,
		esIndexName:   esIndexName,
		timeout:       timeout,
		presignExpiry: presignExpiry,
	}
}

// Process 处理一个生成任务。超时同样按失败处理，额度不消耗。
func (p *Processor) Process(ctx context.Context, task tasks.GenerationTask) error {
	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	content, err := p.llmClient.GenerateDocument(ctx, task.Topic, task.Pages, task.DocType, task.Language)
	if err != nil {
		return p.fail(task, fmt.Sprintf("content generation failed: %v", err))
	}

	data, ext, err := p.renderClient.Render(ctx, content, task.DocType, task.Design)
	if err != nil {
		return p.fail(task, fmt.Sprintf("render failed: %v", err))
	}

	objectName := fmt.Sprintf("generations/%d/%d%s", task.UserID, task.GenerationID, ext)
	if err := storage.UploadObject(ctx, p.bucketName, objectName, data, render.ContentType(task.DocType)); err != nil {
		return p.fail(task, fmt.Sprintf("upload failed: %v", err))
	}

	if err := p.generationSvc.MarkCompleted(task.GenerationID, objectName); err != nil {
		if errors.Is(err, service.ErrAlreadyTerminal) {
			// 重复投递的任务：记录已定稿，直接丢弃。
			log.Warnf("生成记录 %d 已处于终态，跳过重复任务", task.GenerationID)
			return nil
		}
		return err
	}

	// 额度在生成成功后才消耗，失败的尝试不占用当日次数。
	if err := p.quotaSvc.Consume(task.UserID); err != nil {
		log.Errorf("用户 %d 额度记账失败: %v", task.UserID, err)
	}

	// 索引是尽力而为的，失败不影响任务成功。
	esDoc := model.EsGeneration{
		GenerationID: task.GenerationID,
		UserID:       task.UserID,
		DocType:      task.DocType,
		Topic:        task.Topic,
		Pages:        task.Pages,
		Language:     task.Language,
		CreatedAt:    p.clk.Now().Format(time.RFC3339),
	}
	if err := es.IndexGeneration(context.Background(), p.esIndexName, esDoc); err != nil {
		log.Errorf("索引生成记录失败: generationID=%d, error: %v", task.GenerationID, err)
	}

	fileURL, err := storage.GetPresignedURL(p.bucketName, objectName, p.presignExpiry)
	if err != nil {
		log.Errorf("生成预签名链接失败: %s, error: %v", objectName, err)
	}

	if err := p.notifier.NotifySuccess(task.UserID, task.GenerationID, fileURL); err != nil {
		log.Warnf("生成结果通知失败: userID=%d, generationID=%d, error: %v", task.UserID, task.GenerationID, err)
	}
	return nil
}

// fail 标记任务失败并通知用户。
func (p *Processor) fail(task tasks.GenerationTask, detail string) error {
	log.Errorf("生成任务失败: generationID=%d, %s", task.GenerationID, detail)
	if err := p.generationSvc.MarkFailed(task.GenerationID, detail); err != nil {
		if errors.Is(err, service.ErrAlreadyTerminal) {
			return nil
		}
		return err
	}
	if err := p.notifier.NotifyFailure(task.UserID, task.GenerationID); err != nil {
		log.Warnf("失败通知发送失败: userID=%d, error: %v", task.UserID, err)
	}
	return errors.New(detail)
}
