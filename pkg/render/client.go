// Package render 提供了一个与外部渲染服务交互的客户端。
// 渲染服务接收结构化文档负载并返回最终的二进制文件
// （presentation 渲染为 pptx，其余类型渲染为 docx）。
package render

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"docforge-go/internal/config"
	"docforge-go/internal/model"
)

// Client 是渲染服务的客户端。
type Client struct {
	serverURL string
	client    *http.Client
}

// NewClient 创建一个新的渲染客户端实例。
func NewClient(cfg config.RenderConfig) *Client {
	return &Client{
		serverURL: cfg.ServerURL,
		client:    &http.Client{},
	}
}

type renderRequest struct {
	DocType string                 `json:"doc_type"`
	Design  string                 `json:"design,omitempty"`
	Content *model.DocumentContent `json:"content"`
}

// Render 调用渲染服务，返回文件字节与文件扩展名。
func (c *Client) Render(ctx context.Context, content *model.DocumentContent, docType, design string) ([]byte, string, error) {
	reqBody := renderRequest{
		DocType: docType,
		Design:  design,
		Content: content,
	}
	reqBytes, err := json.Marshal(reqBody)
	if err != nil {
		return nil, "", fmt.Errorf("序列化渲染请求失败: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, "POST", c.serverURL+"/render", bytes.NewReader(reqBytes))
	if err != nil {
		return nil, "", fmt.Errorf("创建渲染请求失败: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/octet-stream")

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, "", fmt.Errorf("调用渲染服务失败: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return nil, "", fmt.Errorf("渲染服务返回错误 [%d]: %s", resp.StatusCode, string(body))
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, "", fmt.Errorf("读取渲染响应失败: %w", err)
	}

	return data, FileExt(docType), nil
}

// FileExt 返回文档类型对应的文件扩展名。
func FileExt(docType string) string {
	if docType == model.DocTypePresentation {
		return ".pptx"
	}
	return ".docx"
}

// ContentType 返回文档类型对应的 MIME 类型。
func ContentType(docType string) string {
	if docType == model.DocTypePresentation {
		return "application/vnd.openxmlformats-officedocument.presentationml.presentation"
	}
	return "application/vnd.openxmlformats-officedocument.wordprocessingml.document"
}
