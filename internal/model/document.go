// Package model 定义了与数据库表对应的 Go 结构体。
package model

// Slide 是演示文稿中的一页。
type Slide struct {
	Title   string   `json:"title"`
	Content []string `json:"content"`
}

// Section 是报告/课程作业中的一个章节。
type Section struct {
	Title   string `json:"title"`
	Content string `json:"content"`
}

// DocumentContent 是内容生成器返回的结构化文档负载。
// presentation 类型填充 Slides；report/coursework 类型填充
// Introduction/Sections/Conclusion。
type DocumentContent struct {
	Title        string    `json:"title"`
	Slides       []Slide   `json:"slides,omitempty"`
	Introduction string    `json:"introduction,omitempty"`
	Sections     []Section `json:"sections,omitempty"`
	Conclusion   string    `json:"conclusion,omitempty"`
}

// EsGeneration 定义了存储在 Elasticsearch 中的生成记录索引结构，
// 用于按主题检索历史生成。
type EsGeneration struct {
	GenerationID uint   `json:"generation_id"`
	UserID       uint64 `json:"user_id"`
	DocType      string `json:"doc_type"`
	Topic        string `json:"topic"`
	Pages        int    `json:"pages"`
	Language     string `json:"language"`
	CreatedAt    string `json:"created_at"`
}

// GenerationSearchHit 是返回给前端的主题搜索结果。
type GenerationSearchHit struct {
	GenerationID uint    `json:"generationId"`
	DocType      string  `json:"docType"`
	Topic        string  `json:"topic"`
	Score        float64 `json:"score"`
}
