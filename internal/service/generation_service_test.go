package service

import (
	"errors"
	"testing"

	"docforge-go/internal/model"
	"docforge-go/internal/repository"
)

func TestGenerationLifecycle(t *testing.T) {
	db := newTestDB(t)
	clk := newFakeClock("2026-08-29T10:00:00Z")
	svc := NewGenerationService(repository.NewGenerationRepository(db), clk)

	gen, err := svc.Create(100, model.DocTypePresentation, "quyosh tizimi", 10, "3")
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if gen.Status != model.GenerationPending {
		t.Errorf("status = %q, want pending", gen.Status)
	}

	if err := svc.MarkCompleted(gen.ID, "generations/100/1.pptx"); err != nil {
		t.Fatalf("mark completed: %v", err)
	}

	got, err := svc.Get(gen.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.Status != model.GenerationCompleted {
		t.Errorf("status = %q, want completed", got.Status)
	}
	if got.CompletedAt == nil {
		t.Error("completed at not set")
	}
	if got.FilePath != "generations/100/1.pptx" {
		t.Errorf("file path = %q", got.FilePath)
	}
}

func TestGenerationTerminalIsImmutable(t *testing.T) {
	db := newTestDB(t)
	clk := newFakeClock("2026-08-29T10:00:00Z")
	svc := NewGenerationService(repository.NewGenerationRepository(db), clk)

	gen, err := svc.Create(100, model.DocTypeReport, "iqlim o'zgarishi", 15, "")
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if err := svc.MarkFailed(gen.ID, "render failed"); err != nil {
		t.Fatalf("mark failed: %v", err)
	}

	if err := svc.MarkCompleted(gen.ID, "late.docx"); !errors.Is(err, ErrAlreadyTerminal) {
		t.Errorf("second transition error = %v, want ErrAlreadyTerminal", err)
	}

	got, _ := svc.Get(gen.ID)
	if got.Status != model.GenerationFailed {
		t.Errorf("status = %q, want failed", got.Status)
	}
	if got.ErrorMessage != "render failed" {
		t.Errorf("error message = %q", got.ErrorMessage)
	}
}

func TestGenerationPagesBounds(t *testing.T) {
	db := newTestDB(t)
	clk := newFakeClock("2026-08-29T10:00:00Z")
	svc := NewGenerationService(repository.NewGenerationRepository(db), clk)

	for _, pages := range []int{2, 51, 0, -1} {
		if _, err := svc.Create(100, model.DocTypeReport, "mavzu", pages, ""); !errors.Is(err, ErrInvalidPages) {
			t.Errorf("pages=%d: error = %v, want ErrInvalidPages", pages, err)
		}
	}
	for _, pages := range []int{3, 50} {
		if _, err := svc.Create(100, model.DocTypeReport, "mavzu", pages, ""); err != nil {
			t.Errorf("pages=%d: unexpected error %v", pages, err)
		}
	}
}

func TestGenerationStats(t *testing.T) {
	db := newTestDB(t)
	clk := newFakeClock("2026-08-29T10:00:00Z")
	svc := NewGenerationService(repository.NewGenerationRepository(db), clk)

	g1, _ := svc.Create(100, model.DocTypeReport, "a", 5, "")
	g2, _ := svc.Create(100, model.DocTypeReport, "b", 5, "")
	svc.Create(200, model.DocTypeCoursework, "c", 5, "")

	svc.MarkCompleted(g1.ID, "a.docx")
	svc.MarkFailed(g2.ID, "boom")

	stats, err := svc.Stats()
	if err != nil {
		t.Fatalf("stats: %v", err)
	}
	if stats.Total != 3 || stats.Completed != 1 || stats.Failed != 1 {
		t.Errorf("stats = %+v, want total=3 completed=1 failed=1", stats)
	}

	// 按用户过滤的统计不包含其他用户的记录
	userStats, err := svc.StatsByUser(100)
	if err != nil {
		t.Fatalf("stats by user: %v", err)
	}
	if userStats.Total != 2 || userStats.Completed != 1 || userStats.Failed != 1 {
		t.Errorf("user stats = %+v, want total=2 completed=1 failed=1", userStats)
	}

	otherStats, err := svc.StatsByUser(200)
	if err != nil {
		t.Fatalf("stats by user: %v", err)
	}
	if otherStats.Total != 1 || otherStats.Completed != 0 || otherStats.Failed != 0 {
		t.Errorf("other user stats = %+v, want total=1 completed=0 failed=0", otherStats)
	}
}
