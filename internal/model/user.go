// Package model 定义了与数据库表对应的 Go 结构体。
package model

import "time"

// User 定义了 users 表的 ORM 模型。
// ID 由消息平台分配，不使用自增主键。
// DailyLimit 为基础每日额度加上推荐奖励的累计值，UsedToday 在跨天后
// 由配额逻辑惰性清零（LastReset 记录上次清零的日历日期）。
type User struct {
	ID               uint64    `gorm:"primaryKey;autoIncrement:false" json:"userId"`
	Username         string    `gorm:"type:varchar(64)" json:"username"`
	FirstName        string    `gorm:"type:varchar(128)" json:"firstName"`
	Language         string    `gorm:"type:varchar(8);not null;default:'uz'" json:"language"`
	DailyLimit       int       `gorm:"not null;default:2" json:"dailyLimit"`
	UsedToday        int       `gorm:"not null;default:0" json:"usedToday"`
	LastReset        string    `gorm:"type:varchar(10)" json:"lastReset"` // 格式 2006-01-02
	TotalGenerations int64     `gorm:"not null;default:0" json:"totalGenerations"`
	CreatedAt        time.Time `gorm:"autoCreateTime" json:"createdAt"`
	UpdatedAt        time.Time `gorm:"autoUpdateTime" json:"updatedAt"`
}

// TableName 指定了此模型在数据库中对应的表名。
func (User) TableName() string {
	return "users"
}
