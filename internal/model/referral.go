// Package model 定义了与数据库表对应的 Go 结构体。
package model

import "time"

// Referral 定义了 referrals 表的 ORM 模型，记录一条推荐边。
// (referrer_id, referred_id) 上的联合唯一索引保证同一对用户
// 至多存在一条记录，并发重复插入由数据库层面拒绝。
type Referral struct {
	ID           uint      `gorm:"primaryKey;autoIncrement" json:"id"`
	ReferrerID   uint64    `gorm:"uniqueIndex:uniq_referral_pair;index;not null" json:"referrerId"`
	ReferredID   uint64    `gorm:"uniqueIndex:uniq_referral_pair;not null" json:"referredId"`
	BonusApplied bool      `gorm:"not null;default:false" json:"bonusApplied"`
	CreatedAt    time.Time `gorm:"autoCreateTime" json:"createdAt"`
}

// TableName 指定了此模型在数据库中对应的表名。
func (Referral) TableName() string {
	return "referrals"
}
