package dishes

import (
	"context"

	"gorm.io/gorm"

	"github.com/smartdine/smartdine-backend/pkg/db/models"
	"github.com/smartdine/smartdine-backend/pkg/enums"
)

// ListFilters narrows the dish listing.
type ListFilters struct {
	CategoryID *int64
	Keyword    string
	Status     enums.DishStatus
}

// Repository defines catalog reads plus the two counter writes owned by other
// services (sales by orders, rating by reviews).
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	FindByID(ctx context.Context, id int64) (*models.Dish, error)
	FindByIDs(ctx context.Context, ids []int64) ([]models.Dish, error)
	List(ctx context.Context, filters ListFilters) ([]models.Dish, error)
	ListSellable(ctx context.Context) ([]models.Dish, error)
	SpecsByDishID(ctx context.Context, dishID int64) ([]models.DishSpec, error)
	SpecsByDishIDs(ctx context.Context, dishIDs []int64) (map[int64][]models.DishSpec, error)
	IncrementSales(ctx context.Context, dishID int64, qty int) error
	ApplyRating(ctx context.Context, dishID int64, newAvg float64, expectedCount int64) (bool, error)
}

type repository struct {
	db *gorm.DB
}

// NewRepository builds a dish repository bound to the provided DB.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) FindByID(ctx context.Context, id int64) (*models.Dish, error) {
	var dish models.Dish
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&dish).Error; err != nil {
		return nil, err
	}
	return &dish, nil
}

func (r *repository) FindByIDs(ctx context.Context, ids []int64) ([]models.Dish, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	var rows []models.Dish
	if err := r.db.WithContext(ctx).Where("id IN ?", ids).Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *repository) List(ctx context.Context, filters ListFilters) ([]models.Dish, error) {
	query := r.db.WithContext(ctx).Model(&models.Dish{})
	if filters.Status != "" {
		query = query.Where("status = ?", filters.Status)
	}
	if filters.CategoryID != nil {
		query = query.Where("category_id = ?", *filters.CategoryID)
	}
	if filters.Keyword != "" {
		query = query.Where("name LIKE ?", "%"+filters.Keyword+"%")
	}
	var rows []models.Dish
	if err := query.Order("id ASC").Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *repository) ListSellable(ctx context.Context) ([]models.Dish, error) {
	var rows []models.Dish
	err := r.db.WithContext(ctx).
		Where("status = ?", enums.DishStatusOnSale).
		Order("id ASC").
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *repository) SpecsByDishID(ctx context.Context, dishID int64) ([]models.DishSpec, error) {
	var rows []models.DishSpec
	err := r.db.WithContext(ctx).
		Where("dish_id = ?", dishID).
		Order("id ASC").
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *repository) SpecsByDishIDs(ctx context.Context, dishIDs []int64) (map[int64][]models.DishSpec, error) {
	result := make(map[int64][]models.DishSpec, len(dishIDs))
	if len(dishIDs) == 0 {
		return result, nil
	}
	var rows []models.DishSpec
	err := r.db.WithContext(ctx).
		Where("dish_id IN ?", dishIDs).
		Order("id ASC").
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	for _, row := range rows {
		result[row.DishID] = append(result[row.DishID], row)
	}
	return result, nil
}

// IncrementSales adds qty atomically in SQL; a read-modify-write of the cached
// struct would lose updates under concurrent payments.
func (r *repository) IncrementSales(ctx context.Context, dishID int64, qty int) error {
	if qty <= 0 {
		return nil
	}
	return r.db.WithContext(ctx).
		Model(&models.Dish{}).
		Where("id = ?", dishID).
		Update("sales_count", gorm.Expr("sales_count + ?", qty)).Error
}

// ApplyRating writes the recomputed average guarded by a compare-and-set on
// rating_count. A false return means a concurrent review won; the caller
// re-reads and retries.
func (r *repository) ApplyRating(ctx context.Context, dishID int64, newAvg float64, expectedCount int64) (bool, error) {
	res := r.db.WithContext(ctx).
		Model(&models.Dish{}).
		Where("id = ? AND rating_count = ?", dishID, expectedCount).
		Updates(map[string]any{
			"rating_avg":   newAvg,
			"rating_count": expectedCount + 1,
		})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}
