package service

import (
	"errors"
	"fmt"
	"sync"

	"docforge-go/internal/model"
	"docforge-go/pkg/log"

	"gorm.io/gorm"
)

// ReferralService 管理推荐关系与推荐奖励。
type ReferralService struct {
	db           *gorm.DB
	linkBase     string
	bonusPerUser int
	mu           sync.Mutex
}

// NewReferralService 创建一个新的 ReferralService 实例。
func NewReferralService(db *gorm.DB, linkBase string, bonusPerUser int) *ReferralService {
	return &ReferralService{
		db:           db,
		linkBase:     linkBase,
		bonusPerUser: bonusPerUser,
	}
}

// RecordReferral 记录一条推荐边并给推荐人发放永久上限奖励。
// 返回值表示本次调用是否真正生效：自荐、重复推荐返回 (false, nil)。
// 同一对用户只会发放一次奖励，唯一索引保证并发下也成立。
func (s *ReferralService) RecordReferral(referrerID, referredID uint64) (bool, error) {
	if referrerID == referredID {
		return false, nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	applied := false
	err := s.db.Transaction(func(tx *gorm.DB) error {
		referral := model.Referral{
			ReferrerID:   referrerID,
			ReferredID:   referredID,
			BonusApplied: true,
		}
		if err := tx.Create(&referral).Error; err != nil {
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				return nil
			}
			return err
		}

		if err := tx.Model(&model.User{}).Where("id = ?", referrerID).
			Update("daily_limit", gorm.Expr("daily_limit + ?", s.bonusPerUser)).Error; err != nil {
			return err
		}
		applied = true
		return nil
	})
	if err != nil {
		return false, err
	}

	if applied {
		log.Infof("推荐生效: referrer=%d referred=%d, 上限 +%d", referrerID, referredID, s.bonusPerUser)
	}
	return applied, nil
}

// ReferralCount 返回用户成功推荐的人数。
func (s *ReferralService) ReferralCount(userID uint64) (int64, error) {
	var count int64
	err := s.db.Model(&model.Referral{}).Where("referrer_id = ?", userID).Count(&count).Error
	return count, err
}

// ReferralLink 返回用户的专属推荐链接。
func (s *ReferralService) ReferralLink(userID uint64) string {
	return fmt.Sprintf("%s?start=%d", s.linkBase, userID)
}
