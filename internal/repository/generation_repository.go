package repository

import (
	"time"

	"docforge-go/internal/model"

	"gorm.io/gorm"
)

// GenerationStats 是生成记录的汇总统计。
type GenerationStats struct {
	Total     int64 `json:"total"`
	Completed int64 `json:"completed"`
	Failed    int64 `json:"failed"`
}

// GenerationRepository 定义了生成记录数据操作的接口。
type GenerationRepository interface {
	Create(generation *model.Generation) error
	FindByID(id uint) (*model.Generation, error)
	FindByUser(userID uint64, limit int) ([]model.Generation, error)
	// MarkCompleted 把 pending 记录置为 completed。
	// 记录已处于终态时返回 (false, nil)。
	MarkCompleted(id uint, filePath string, completedAt time.Time) (bool, error)
	// MarkFailed 把 pending 记录置为 failed，语义同上。
	MarkFailed(id uint, errorMessage string) (bool, error)
	Stats() (*GenerationStats, error)
	StatsByUser(userID uint64) (*GenerationStats, error)
}

type generationRepository struct {
	db *gorm.DB
}

// NewGenerationRepository 创建一个新的 generationRepository 实例。
func NewGenerationRepository(db *gorm.DB) GenerationRepository {
	return &generationRepository{db: db}
}

func (r *generationRepository) Create(generation *model.Generation) error {
	return r.db.Create(generation).Error
}

func (r *generationRepository) FindByID(id uint) (*model.Generation, error) {
	var generation model.Generation
	if err := r.db.First(&generation, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &generation, nil
}

func (r *generationRepository) FindByUser(userID uint64, limit int) ([]model.Generation, error) {
	var generations []model.Generation
	err := r.db.Where("user_id = ?", userID).
		Order("created_at DESC").
		Limit(limit).
		Find(&generations).Error
	if err != nil {
		return nil, err
	}
	return generations, nil
}

func (r *generationRepository) MarkCompleted(id uint, filePath string, completedAt time.Time) (bool, error) {
	// 只允许从 pending 迁移，终态记录不可再变。
	result := r.db.Model(&model.Generation{}).
		Where("id = ? AND status = ?", id, model.GenerationPending).
		Updates(map[string]interface{}{
			"status":       model.GenerationCompleted,
			"file_path":    filePath,
			"completed_at": completedAt,
		})
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}

func (r *generationRepository) MarkFailed(id uint, errorMessage string) (bool, error) {
	result := r.db.Model(&model.Generation{}).
		Where("id = ? AND status = ?", id, model.GenerationPending).
		Updates(map[string]interface{}{
			"status":        model.GenerationFailed,
			"error_message": errorMessage,
		})
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}

func (r *generationRepository) Stats() (*GenerationStats, error) {
	return r.countStats(func() *gorm.DB {
		return r.db.Model(&model.Generation{})
	})
}

func (r *generationRepository) StatsByUser(userID uint64) (*GenerationStats, error) {
	return r.countStats(func() *gorm.DB {
		return r.db.Model(&model.Generation{}).Where("user_id = ?", userID)
	})
}

// countStats 在给定范围内统计总数与各终态数量。
// scope 每次调用返回一个全新的查询，避免 gorm 条件累积。
func (r *generationRepository) countStats(scope func() *gorm.DB) (*GenerationStats, error) {
	var stats GenerationStats
	if err := scope().Count(&stats.Total).Error; err != nil {
		return nil, err
	}
	if err := scope().
		Where("status = ?", model.GenerationCompleted).
		Count(&stats.Completed).Error; err != nil {
		return nil, err
	}
	if err := scope().
		Where("status = ?", model.GenerationFailed).
		Count(&stats.Failed).Error; err != nil {
		return nil, err
	}
	return &stats, nil
}
