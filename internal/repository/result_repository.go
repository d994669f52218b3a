package repository

import (
	"context"

	"gorm.io/gorm"

	"doodle_web/internal/models"
	"doodle_web/internal/storage"
)

type ResultRepository interface {
	Create(ctx context.Context, result *models.GameResult) error
	FindRecent(ctx context.Context, limit int) ([]models.GameResult, error)
	FindByRoomCode(ctx context.Context, roomCode string) ([]models.GameResult, error)
}

type resultRepository struct {
	db *storage.PostgresDB
}

func NewResultRepository(db *storage.PostgresDB) ResultRepository {
	return &resultRepository{db: db}
}

// Create inserts the result together with its entries.
func (r *resultRepository) Create(ctx context.Context, result *models.GameResult) error {
	return r.db.WithContext(ctx).Create(result).Error
}

func (r *resultRepository) FindRecent(ctx context.Context, limit int) ([]models.GameResult, error) {
	var results []models.GameResult
	err := r.db.WithContext(ctx).
		Preload("Entries", byRank).
		Order("finished_at DESC").
		Limit(limit).
		Find(&results).Error
	return results, err
}

func (r *resultRepository) FindByRoomCode(ctx context.Context, roomCode string) ([]models.GameResult, error) {
	var results []models.GameResult
	err := r.db.WithContext(ctx).
		Preload("Entries", byRank).
		Where("room_code = ?", roomCode).
		Order("finished_at DESC").
		Find(&results).Error
	return results, err
}

func byRank(db *gorm.DB) *gorm.DB {
	return db.Order("rank ASC")
}
