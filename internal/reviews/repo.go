package reviews

import (
	"context"

	"gorm.io/gorm"

	"github.com/smartdine/smartdine-backend/pkg/db/models"
)

// Repository persists reviews.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Insert(ctx context.Context, review *models.Review) error
	OrderContainsDish(ctx context.Context, orderID, dishID int64) (bool, error)
	ListByDish(ctx context.Context, dishID int64, limit, offset int) ([]models.Review, int64, error)
}

type repository struct {
	db *gorm.DB
}

// NewRepository builds a review repository bound to the provided DB.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) Insert(ctx context.Context, review *models.Review) error {
	return r.db.WithContext(ctx).Create(review).Error
}

func (r *repository) OrderContainsDish(ctx context.Context, orderID, dishID int64) (bool, error) {
	var n int64
	err := r.db.WithContext(ctx).
		Model(&models.OrderItem{}).
		Where("order_id = ? AND dish_id = ?", orderID, dishID).
		Count(&n).Error
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

func (r *repository) ListByDish(ctx context.Context, dishID int64, limit, offset int) ([]models.Review, int64, error) {
	var total int64
	err := r.db.WithContext(ctx).
		Model(&models.Review{}).
		Where("dish_id = ?", dishID).
		Count(&total).Error
	if err != nil {
		return nil, 0, err
	}

	var rows []models.Review
	err = r.db.WithContext(ctx).
		Where("dish_id = ?", dishID).
		Order("created_at DESC, id DESC").
		Limit(limit).
		Offset(offset).
		Find(&rows).Error
	if err != nil {
		return nil, 0, err
	}
	return rows, total, nil
}
