// Package llm provides a client for interacting with Large Language Models.
package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"docforge-go/internal/config"
	"docforge-go/internal/model"
)

// Client 定义了内容生成器的接口：根据主题、页数、文档类型和语言
// 返回结构化的文档负载。
type Client interface {
	GenerateDocument(ctx context.Context, topic string, pages int, docType, lang string) (*model.DocumentContent, error)
}

type chatClient struct {
	cfg    config.LLMConfig
	client *http.Client
}

// NewClient 基于配置创建一个新的内容生成客户端。
// 使用 OpenAI 兼容的 chat/completions 协议，BaseURL 可指向任意兼容端点。
func NewClient(cfg config.LLMConfig) Client {
	return &chatClient{
		cfg:    cfg,
		client: &http.Client{},
	}
}

// Message 表示一条角色消息。
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model    string    `json:"model"`
	Messages []Message `json:"messages"`
	Stream   bool      `json:"stream"`
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

var langNames = map[string]string{
	"uz": "uzbek",
	"ru": "russian",
	"en": "english",
}

// GenerateDocument 调用模型生成文档内容并解析为结构化负载。
func (c *chatClient) GenerateDocument(ctx context.Context, topic string, pages int, docType, lang string) (*model.DocumentContent, error) {
	prompt := buildPrompt(topic, pages, docType, lang)

	reqBody := chatRequest{
		Model:    c.cfg.Model,
		Messages: []Message{{Role: "user", Content: prompt}},
		Stream:   false,
	}
	reqBytes, err := json.Marshal(reqBody)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal chat request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, "POST", c.cfg.BaseURL+"/chat/completions", bytes.NewReader(reqBytes))
	if err != nil {
		return nil, fmt.Errorf("failed to create chat request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.cfg.APIKey)

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to call chat api: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		bodyBytes, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("chat api returned non-200 status: %s, body: %s", resp.Status, string(bodyBytes))
	}

	var chat chatResponse
	if err := json.NewDecoder(resp.Body).Decode(&chat); err != nil {
		return nil, fmt.Errorf("failed to decode chat response: %w", err)
	}
	if len(chat.Choices) == 0 {
		return nil, fmt.Errorf("chat api returned no choices")
	}

	content := stripCodeFence(chat.Choices[0].Message.Content)

	var doc model.DocumentContent
	if err := json.Unmarshal([]byte(content), &doc); err != nil {
		return nil, fmt.Errorf("failed to parse generated document: %w", err)
	}
	if doc.Title == "" {
		return nil, fmt.Errorf("generated document has no title")
	}
	return &doc, nil
}

// buildPrompt 按文档类型构建生成提示词。
func buildPrompt(topic string, pages int, docType, lang string) string {
	langFull, ok := langNames[lang]
	if !ok {
		langFull = "uzbek"
	}

	if docType == model.DocTypePresentation {
		return fmt.Sprintf(`Create a detailed presentation content in %s language about "%s".

Generate EXACTLY %d slides. Return ONLY valid JSON (no markdown, no extra text) in this exact format:
{
  "title": "Main presentation title",
  "slides": [
    {"title": "Slide title", "content": ["First point", "Second point", "Third point"]}
  ]
}

Requirements:
- Each slide must have 3-5 bullet points
- Use %s language throughout
- Make it educational and professional
- RETURN ONLY JSON, NO OTHER TEXT`, langFull, topic, pages, langFull)
	}

	kind := "report"
	if docType == model.DocTypeCoursework {
		kind = "coursework"
	}
	return fmt.Sprintf(`Create a detailed %s in %s language about "%s".

Generate content for approximately %d pages. Return ONLY valid JSON (no markdown, no extra text) in this exact format:
{
  "title": "Document title",
  "introduction": "Detailed introduction (2-3 paragraphs)",
  "sections": [
    {"title": "Section title", "content": "Detailed content (3-4 paragraphs)"}
  ],
  "conclusion": "Detailed conclusion (2-3 paragraphs)"
}

Requirements:
- Create enough sections to fill %d pages
- Use %s language throughout
- Make it academic and well-researched
- RETURN ONLY JSON, NO OTHER TEXT`, kind, langFull, topic, pages, pages, langFull)
}

// stripCodeFence 去掉模型偶尔包裹在 JSON 外面的 markdown 代码块。
func stripCodeFence(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	parts := strings.SplitN(s, "```", 3)
	if len(parts) < 2 {
		return s
	}
	body := parts[1]
	body = strings.TrimPrefix(body, "json")
	return strings.TrimSpace(body)
}
