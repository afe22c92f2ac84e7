package service

import (
	"docforge-go/internal/repository"
	"docforge-go/pkg/clock"
	"docforge-go/pkg/log"
)

// QuotaService 定义了每日配额管理的接口。
// 重置是惰性的：没有定时任务，任何读取额度的入口先对齐日历日期。
type QuotaService interface {
	// Remaining 返回用户今日剩余次数与每日上限。并发生成的窗口期内
	// 用量可能略超上限，此时剩余次数为负，不做截断。
	Remaining(userID uint64) (remaining int, total int, err error)
	// CanGenerate 判断用户今日是否还能发起生成。
	CanGenerate(userID uint64) (bool, error)
	// Consume 在一次生成成功后记一次消耗。
	Consume(userID uint64) error
}

type quotaService struct {
	userRepo repository.UserRepository
	clk      clock.Clock
}

// NewQuotaService 创建一个新的 quotaService 实例。
func NewQuotaService(userRepo repository.UserRepository, clk clock.Clock) QuotaService {
	return &quotaService{userRepo: userRepo, clk: clk}
}

func (s *quotaService) Remaining(userID uint64) (int, int, error) {
	if err := s.userRepo.ResetDailyUsage(userID, s.clk.Today()); err != nil {
		return 0, 0, err
	}
	user, err := s.userRepo.FindByID(userID)
	if err != nil {
		return 0, 0, err
	}

	return user.DailyLimit - user.UsedToday, user.DailyLimit, nil
}

func (s *quotaService) CanGenerate(userID uint64) (bool, error) {
	remaining, _, err := s.Remaining(userID)
	if err != nil {
		return false, err
	}
	return remaining > 0, nil
}

// Consume 不再复查额度：检查发生在确认之前，生成完成与消耗之间
// 的窗口期内并发确认可能导致当日用量略超上限，这是接受的取舍。
func (s *quotaService) Consume(userID uint64) error {
	if err := s.userRepo.ResetDailyUsage(userID, s.clk.Today()); err != nil {
		return err
	}
	if err := s.userRepo.IncrementUsage(userID); err != nil {
		return err
	}
	log.Infof("用户 %d 消耗一次生成额度", userID)
	return nil
}
