package service

import (
	"testing"

	"docforge-go/internal/repository"
)

func TestQuotaConsumeUntilExhausted(t *testing.T) {
	db := newTestDB(t)
	userRepo := repository.NewUserRepository(db)
	clk := newFakeClock("2026-08-29T10:00:00Z")
	quota := NewQuotaService(userRepo, clk)

	if _, err := userRepo.Upsert(100, "alice", "Alice", 2, clk.Today()); err != nil {
		t.Fatalf("upsert: %v", err)
	}

	for i := 0; i < 2; i++ {
		ok, err := quota.CanGenerate(100)
		if err != nil {
			t.Fatalf("can generate: %v", err)
		}
		if !ok {
			t.Fatalf("generation %d blocked, want allowed", i+1)
		}
		if err := quota.Consume(100); err != nil {
			t.Fatalf("consume: %v", err)
		}
	}

	ok, err := quota.CanGenerate(100)
	if err != nil {
		t.Fatalf("can generate: %v", err)
	}
	if ok {
		t.Error("third generation allowed, want blocked")
	}

	remaining, total, err := quota.Remaining(100)
	if err != nil {
		t.Fatalf("remaining: %v", err)
	}
	if remaining != 0 || total != 2 {
		t.Errorf("remaining=%d total=%d, want 0/2", remaining, total)
	}
}

func TestQuotaLazyDailyReset(t *testing.T) {
	db := newTestDB(t)
	userRepo := repository.NewUserRepository(db)
	clk := newFakeClock("2026-08-29T23:00:00Z")
	quota := NewQuotaService(userRepo, clk)

	if _, err := userRepo.Upsert(100, "alice", "Alice", 2, clk.Today()); err != nil {
		t.Fatalf("upsert: %v", err)
	}
	quota.Consume(100)
	quota.Consume(100)

	if ok, _ := quota.CanGenerate(100); ok {
		t.Fatal("exhausted user allowed before day change")
	}

	// 跨天后首次读取即恢复整额，不依赖定时任务
	clk.advanceDays(1)
	remaining, total, err := quota.Remaining(100)
	if err != nil {
		t.Fatalf("remaining: %v", err)
	}
	if remaining != 2 || total != 2 {
		t.Errorf("after day change remaining=%d total=%d, want 2/2", remaining, total)
	}
}

func TestQuotaRemainingMayGoNegative(t *testing.T) {
	db := newTestDB(t)
	userRepo := repository.NewUserRepository(db)
	clk := newFakeClock("2026-08-29T10:00:00Z")
	quota := NewQuotaService(userRepo, clk)

	if _, err := userRepo.Upsert(100, "alice", "Alice", 2, clk.Today()); err != nil {
		t.Fatalf("upsert: %v", err)
	}

	// 并发窗口期内用量可能超出上限，剩余值如实为负
	for i := 0; i < 3; i++ {
		if err := quota.Consume(100); err != nil {
			t.Fatalf("consume: %v", err)
		}
	}

	remaining, total, err := quota.Remaining(100)
	if err != nil {
		t.Fatalf("remaining: %v", err)
	}
	if remaining != -1 || total != 2 {
		t.Errorf("remaining=%d total=%d, want -1/2", remaining, total)
	}
	if ok, _ := quota.CanGenerate(100); ok {
		t.Error("overshot user allowed to generate")
	}
}

func TestQuotaBonusRaisesDailyLimit(t *testing.T) {
	db := newTestDB(t)
	userRepo := repository.NewUserRepository(db)
	clk := newFakeClock("2026-08-29T10:00:00Z")
	quota := NewQuotaService(userRepo, clk)

	if _, err := userRepo.Upsert(100, "alice", "Alice", 2, clk.Today()); err != nil {
		t.Fatalf("upsert: %v", err)
	}
	if err := userRepo.GrantBonus(100, 1); err != nil {
		t.Fatalf("grant bonus: %v", err)
	}

	remaining, total, err := quota.Remaining(100)
	if err != nil {
		t.Fatalf("remaining: %v", err)
	}
	if remaining != 3 || total != 3 {
		t.Errorf("remaining=%d total=%d, want 3/3", remaining, total)
	}

	// 奖励是永久的，跨天后仍然保留
	clk.advanceDays(1)
	remaining, total, _ = quota.Remaining(100)
	if remaining != 3 || total != 3 {
		t.Errorf("next day remaining=%d total=%d, want 3/3", remaining, total)
	}
}
