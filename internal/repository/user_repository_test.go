package repository

import (
	"fmt"
	"testing"
	"time"

	"docforge-go/internal/model"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		TranslateError: true,
		Logger:         logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	if err := db.AutoMigrate(&model.User{}, &model.Generation{}, &model.Referral{}); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return db
}

func TestUpsertCreatesWithBaseline(t *testing.T) {
	repo := NewUserRepository(newTestDB(t))

	user, err := repo.Upsert(100, "alice", "Alice", 2, "2026-08-29")
	if err != nil {
		t.Fatalf("upsert: %v", err)
	}
	if user.DailyLimit != 2 {
		t.Errorf("daily limit = %d, want 2", user.DailyLimit)
	}
	if user.UsedToday != 0 {
		t.Errorf("used today = %d, want 0", user.UsedToday)
	}
	if user.Language != "uz" {
		t.Errorf("language = %q, want uz", user.Language)
	}
}

func TestUpsertIsIdempotent(t *testing.T) {
	db := newTestDB(t)
	repo := NewUserRepository(db)

	if _, err := repo.Upsert(100, "alice", "Alice", 2, "2026-08-29"); err != nil {
		t.Fatalf("first upsert: %v", err)
	}
	if err := repo.GrantBonus(100, 3); err != nil {
		t.Fatalf("grant bonus: %v", err)
	}

	// 再次 upsert 原样返回已有记录，不覆盖任何字段
	user, err := repo.Upsert(100, "alice_new", "Alicia", 2, "2026-08-30")
	if err != nil {
		t.Fatalf("second upsert: %v", err)
	}
	if user.DailyLimit != 5 {
		t.Errorf("daily limit after re-upsert = %d, want 5", user.DailyLimit)
	}
	if user.Username != "alice" || user.FirstName != "Alice" {
		t.Errorf("display fields overwritten: username=%q firstName=%q", user.Username, user.FirstName)
	}

	var count int64
	db.Model(&model.User{}).Count(&count)
	if count != 1 {
		t.Errorf("user rows = %d, want 1", count)
	}
}

func TestResetDailyUsageIsLazyAndIdempotent(t *testing.T) {
	repo := NewUserRepository(newTestDB(t))

	if _, err := repo.Upsert(100, "alice", "Alice", 2, "2026-08-28"); err != nil {
		t.Fatalf("upsert: %v", err)
	}
	for i := 0; i < 2; i++ {
		if err := repo.IncrementUsage(100); err != nil {
			t.Fatalf("increment: %v", err)
		}
	}

	// 同一天重置不生效
	if err := repo.ResetDailyUsage(100, "2026-08-28"); err != nil {
		t.Fatalf("same-day reset: %v", err)
	}
	user, _ := repo.FindByID(100)
	if user.UsedToday != 2 {
		t.Errorf("used today after same-day reset = %d, want 2", user.UsedToday)
	}

	// 跨天重置清零
	if err := repo.ResetDailyUsage(100, "2026-08-29"); err != nil {
		t.Fatalf("next-day reset: %v", err)
	}
	user, _ = repo.FindByID(100)
	if user.UsedToday != 0 {
		t.Errorf("used today after next-day reset = %d, want 0", user.UsedToday)
	}
	if user.LastReset != "2026-08-29" {
		t.Errorf("last reset = %q, want 2026-08-29", user.LastReset)
	}
	if user.TotalGenerations != 2 {
		t.Errorf("total generations = %d, want 2 (reset must not touch it)", user.TotalGenerations)
	}

	// 重复调用无副作用
	if err := repo.ResetDailyUsage(100, "2026-08-29"); err != nil {
		t.Fatalf("repeat reset: %v", err)
	}
	user, _ = repo.FindByID(100)
	if user.UsedToday != 0 || user.LastReset != "2026-08-29" {
		t.Errorf("repeat reset changed state: used=%d lastReset=%q", user.UsedToday, user.LastReset)
	}
}

func TestMarkCompletedOnlyOnce(t *testing.T) {
	db := newTestDB(t)
	repo := NewGenerationRepository(db)

	gen := &model.Generation{UserID: 100, DocType: model.DocTypeReport, Topic: "dunyo okeanlari", Pages: 10, Status: model.GenerationPending}
	if err := repo.Create(gen); err != nil {
		t.Fatalf("create: %v", err)
	}

	ok, err := repo.MarkCompleted(gen.ID, "generations/100/1.docx", mustParse(t, "2026-08-29T10:00:00Z"))
	if err != nil || !ok {
		t.Fatalf("first mark: ok=%v err=%v", ok, err)
	}

	// 终态记录不可再迁移
	ok, err = repo.MarkFailed(gen.ID, "late failure")
	if err != nil {
		t.Fatalf("second mark: %v", err)
	}
	if ok {
		t.Error("terminal record was modified again")
	}

	got, _ := repo.FindByID(gen.ID)
	if got.Status != model.GenerationCompleted {
		t.Errorf("status = %q, want completed", got.Status)
	}
	if got.FilePath == "" {
		t.Error("file path not recorded")
	}
}

func mustParse(t *testing.T, value string) time.Time {
	t.Helper()
	ts, err := time.Parse(time.RFC3339, value)
	if err != nil {
		t.Fatalf("parse time: %v", err)
	}
	return ts
}
