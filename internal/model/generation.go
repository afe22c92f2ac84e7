// Package model 定义了与数据库表对应的 Go 结构体。
package model

import "time"

// 文档类型枚举。
const (
	DocTypePresentation = "presentation"
	DocTypeReport       = "report"
	DocTypeCoursework   = "coursework"
)

// 生成记录的状态机：pending 为初始态，completed/failed 为终态，
// 终态记录不可再变更。
const (
	GenerationPending   = "pending"
	GenerationCompleted = "completed"
	GenerationFailed    = "failed"
)

// Generation 定义了 generations 表的 ORM 模型，记录一次文档生成请求的
// 完整生命周期。FilePath 仅在 completed 时存在，ErrorMessage 仅在 failed
// 时存在。
type Generation struct {
	ID           uint       `gorm:"primaryKey;autoIncrement" json:"id"`
	UserID       uint64     `gorm:"index;not null" json:"userId"`
	DocType      string     `gorm:"type:varchar(20);not null" json:"docType"`
	Topic        string     `gorm:"type:text;not null" json:"topic"`
	Pages        int        `gorm:"not null" json:"pages"`
	Design       string     `gorm:"type:varchar(10)" json:"design"`
	Status       string     `gorm:"type:varchar(12);not null;default:'pending'" json:"status"`
	FilePath     string     `gorm:"type:varchar(255)" json:"filePath"`
	ErrorMessage string     `gorm:"type:text" json:"errorMessage"`
	CreatedAt    time.Time  `gorm:"autoCreateTime;index" json:"createdAt"`
	CompletedAt  *time.Time `gorm:"default:null" json:"completedAt"`
}

// TableName 指定了此模型在数据库中对应的表名。
func (Generation) TableName() string {
	return "generations"
}

// ValidDocType 检查给定的文档类型是否合法。
func ValidDocType(t string) bool {
	switch t {
	case DocTypePresentation, DocTypeReport, DocTypeCoursework:
		return true
	}
	return false
}

// 页数的允许区间（两端含）。
const (
	MinPages = 3
	MaxPages = 50
)
