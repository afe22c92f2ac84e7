// Package repository 定义了数据访问层接口及其实现。
package repository

import (
	"errors"

	"docforge-go/internal/model"

	"gorm.io/gorm"
)

// UserRepository 定义了用户数据操作的接口。
type UserRepository interface {
	// Upsert 确保用户存在并返回记录。首次见到的用户按基线额度创建，
	// 已存在的用户原样返回，展示字段与额度都不会被覆盖。
	Upsert(id uint64, username, firstName string, baselineLimit int, today string) (*model.User, error)
	FindByID(id uint64) (*model.User, error)
	UpdateLanguage(id uint64, language string) error
	// IncrementUsage 把当日已用次数与累计生成数各加一。
	IncrementUsage(id uint64) error
	// ResetDailyUsage 懒惰式日重置：仅当 last_reset 不是 today 时
	// 把 used_today 清零。重复调用是幂等的。
	ResetDailyUsage(id uint64, today string) error
	// GrantBonus 给用户的每日上限永久加上 delta。
	GrantBonus(id uint64, delta int) error
	FindWithPagination(page, size int) ([]model.User, int64, error)
}

type userRepository struct {
	db *gorm.DB
}

// NewUserRepository 创建一个新的 userRepository 实例。
func NewUserRepository(db *gorm.DB) UserRepository {
	return &userRepository{db: db}
}

func (r *userRepository) Upsert(id uint64, username, firstName string, baselineLimit int, today string) (*model.User, error) {
	user := model.User{ID: id}
	err := r.db.Where(model.User{ID: id}).
		Attrs(model.User{
			Username:   username,
			FirstName:  firstName,
			Language:   "uz",
			DailyLimit: baselineLimit,
			UsedToday:  0,
			LastReset:  today,
		}).
		FirstOrCreate(&user).Error
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		// 并发首次 start 时可能撞上唯一键，重读即可。
		err = r.db.First(&user, "id = ?", id).Error
	}
	if err != nil {
		return nil, err
	}
	return &user, nil
}

func (r *userRepository) FindByID(id uint64) (*model.User, error) {
	var user model.User
	if err := r.db.First(&user, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

func (r *userRepository) UpdateLanguage(id uint64, language string) error {
	return r.db.Model(&model.User{}).Where("id = ?", id).Update("language", language).Error
}

func (r *userRepository) IncrementUsage(id uint64) error {
	return r.db.Model(&model.User{}).Where("id = ?", id).Updates(map[string]interface{}{
		"used_today":        gorm.Expr("used_today + 1"),
		"total_generations": gorm.Expr("total_generations + 1"),
	}).Error
}

func (r *userRepository) ResetDailyUsage(id uint64, today string) error {
	return r.db.Model(&model.User{}).
		Where("id = ? AND last_reset <> ?", id, today).
		Updates(map[string]interface{}{
			"used_today": 0,
			"last_reset": today,
		}).Error
}

func (r *userRepository) GrantBonus(id uint64, delta int) error {
	return r.db.Model(&model.User{}).Where("id = ?", id).
		Update("daily_limit", gorm.Expr("daily_limit + ?", delta)).Error
}

func (r *userRepository) FindWithPagination(page, size int) ([]model.User, int64, error) {
	var users []model.User
	var total int64

	if err := r.db.Model(&model.User{}).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	offset := (page - 1) * size
	err := r.db.Order("created_at DESC").Limit(size).Offset(offset).Find(&users).Error
	if err != nil {
		return nil, 0, err
	}
	return users, total, nil
}
