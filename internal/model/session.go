// Package model 定义了与数据库表对应的 Go 结构体。
package model

// DialogState 表示会话状态机中的一个状态。
type DialogState string

// 会话状态，按流程顺序排列。generating 为瞬态：确认后进入，
// 流水线返回结果后离开。
const (
	StateLangSelect        DialogState = "lang_select"
	StateCheckSubscription DialogState = "check_subscription"
	StateSelectType        DialogState = "select_type"
	StateEnterTopic        DialogState = "enter_topic"
	StateEnterPages        DialogState = "enter_pages"
	StateSelectDesign      DialogState = "select_design"
	StateConfirm           DialogState = "confirm"
	StateGenerating        DialogState = "generating"
)

// DialogSession 是按用户维度存储的会话草稿。只保存当前状态下有效的
// 字段；完成、取消或重新开始时整体丢弃。
type DialogSession struct {
	State        DialogState `json:"state"`
	DocType      string      `json:"docType,omitempty"`
	Topic        string      `json:"topic,omitempty"`
	Pages        int         `json:"pages,omitempty"`
	Design       string      `json:"design,omitempty"`
	GenerationID uint        `json:"generationId,omitempty"`
}

// Option 是发送给用户的一个可点选项（按钮）。
type Option struct {
	ID    string `json:"id"`
	Label string `json:"label"`
}
