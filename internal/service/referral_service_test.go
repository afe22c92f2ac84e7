package service

import (
	"strings"
	"sync"
	"testing"

	"docforge-go/internal/repository"
)

func TestRecordReferralGrantsBonusOnce(t *testing.T) {
	db := newTestDB(t)
	userRepo := repository.NewUserRepository(db)
	svc := NewReferralService(db, "https://t.me/docforge_bot", 1)

	userRepo.Upsert(100, "alice", "Alice", 2, "2026-08-29")
	userRepo.Upsert(200, "bob", "Bob", 2, "2026-08-29")

	applied, err := svc.RecordReferral(100, 200)
	if err != nil {
		t.Fatalf("record: %v", err)
	}
	if !applied {
		t.Fatal("first referral not applied")
	}

	// 同一对用户重复推荐不再加奖励
	applied, err = svc.RecordReferral(100, 200)
	if err != nil {
		t.Fatalf("repeat record: %v", err)
	}
	if applied {
		t.Error("duplicate referral applied again")
	}

	referrer, _ := userRepo.FindByID(100)
	if referrer.DailyLimit != 3 {
		t.Errorf("referrer daily limit = %d, want 3", referrer.DailyLimit)
	}

	count, err := svc.ReferralCount(100)
	if err != nil {
		t.Fatalf("count: %v", err)
	}
	if count != 1 {
		t.Errorf("referral count = %d, want 1", count)
	}
}

func TestRecordReferralRejectsSelf(t *testing.T) {
	db := newTestDB(t)
	userRepo := repository.NewUserRepository(db)
	svc := NewReferralService(db, "https://t.me/docforge_bot", 1)

	userRepo.Upsert(100, "alice", "Alice", 2, "2026-08-29")

	applied, err := svc.RecordReferral(100, 100)
	if err != nil {
		t.Fatalf("record: %v", err)
	}
	if applied {
		t.Error("self-referral applied")
	}

	user, _ := userRepo.FindByID(100)
	if user.DailyLimit != 2 {
		t.Errorf("daily limit after self-referral = %d, want 2", user.DailyLimit)
	}
}

func TestRecordReferralConcurrentDuplicates(t *testing.T) {
	db := newTestDB(t)
	userRepo := repository.NewUserRepository(db)
	svc := NewReferralService(db, "https://t.me/docforge_bot", 1)

	userRepo.Upsert(100, "alice", "Alice", 2, "2026-08-29")
	userRepo.Upsert(200, "bob", "Bob", 2, "2026-08-29")

	const workers = 8
	results := make(chan bool, workers)
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			applied, err := svc.RecordReferral(100, 200)
			if err != nil {
				t.Errorf("record: %v", err)
				return
			}
			results <- applied
		}()
	}
	wg.Wait()
	close(results)

	appliedCount := 0
	for applied := range results {
		if applied {
			appliedCount++
		}
	}
	if appliedCount != 1 {
		t.Errorf("applied %d times, want exactly 1", appliedCount)
	}

	referrer, _ := userRepo.FindByID(100)
	if referrer.DailyLimit != 3 {
		t.Errorf("referrer daily limit = %d, want 3", referrer.DailyLimit)
	}
}

func TestReferralLinkFormat(t *testing.T) {
	svc := NewReferralService(nil, "https://t.me/docforge_bot", 1)
	link := svc.ReferralLink(12345)
	if !strings.HasSuffix(link, "?start=12345") {
		t.Errorf("link = %q, want ?start=12345 suffix", link)
	}
}
