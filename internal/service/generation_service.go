package service

import (
	"docforge-go/internal/model"
	"docforge-go/internal/repository"
	"docforge-go/pkg/clock"
	"docforge-go/pkg/log"
)

// GenerationService 管理生成记录的生命周期。
type GenerationService interface {
	// Create 创建一条 pending 记录。
	Create(userID uint64, docType, topic string, pages int, design string) (*model.Generation, error)
	// MarkCompleted 把记录置为 completed 并写入产物路径。
	// 记录已处于终态时返回 ErrAlreadyTerminal。
	MarkCompleted(id uint, filePath string) error
	// MarkFailed 把记录置为 failed 并写入失败原因，语义同上。
	MarkFailed(id uint, errorMessage string) error
	Get(id uint) (*model.Generation, error)
	ListByUser(userID uint64, limit int) ([]model.Generation, error)
	Stats() (*repository.GenerationStats, error)
	StatsByUser(userID uint64) (*repository.GenerationStats, error)
}

type generationService struct {
	generationRepo repository.GenerationRepository
	clk            clock.Clock
}

// NewGenerationService 创建一个新的 generationService 实例。
func NewGenerationService(generationRepo repository.GenerationRepository, clk clock.Clock) GenerationService {
	return &generationService{generationRepo: generationRepo, clk: clk}
}

func (s *generationService) Create(userID uint64, docType, topic string, pages int, design string) (*model.Generation, error) {
	if pages < model.MinPages || pages > model.MaxPages {
		return nil, ErrInvalidPages
	}
	generation := &model.Generation{
		UserID:  userID,
		DocType: docType,
		Topic:   topic,
		Pages:   pages,
		Design:  design,
		Status:  model.GenerationPending,
	}
	if err := s.generationRepo.Create(generation); err != nil {
		return nil, err
	}
	log.Infof("创建生成记录: id=%d, userID=%d, type=%s", generation.ID, userID, docType)
	return generation, nil
}

func (s *generationService) MarkCompleted(id uint, filePath string) error {
	ok, err := s.generationRepo.MarkCompleted(id, filePath, s.clk.Now())
	if err != nil {
		return err
	}
	if !ok {
		return ErrAlreadyTerminal
	}
	return nil
}

func (s *generationService) MarkFailed(id uint, errorMessage string) error {
	ok, err := s.generationRepo.MarkFailed(id, errorMessage)
	if err != nil {
		return err
	}
	if !ok {
		return ErrAlreadyTerminal
	}
	return nil
}

func (s *generationService) Get(id uint) (*model.Generation, error) {
	return s.generationRepo.FindByID(id)
}

func (s *generationService) ListByUser(userID uint64, limit int) ([]model.Generation, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	return s.generationRepo.FindByUser(userID, limit)
}

func (s *generationService) Stats() (*repository.GenerationStats, error) {
	return s.generationRepo.Stats()
}

func (s *generationService) StatsByUser(userID uint64) (*repository.GenerationStats, error) {
	return s.generationRepo.StatsByUser(userID)
}
