package reviews

import (
	"context"
	"errors"
	"math"
	"time"

	"gorm.io/gorm"

	"github.com/smartdine/smartdine-backend/internal/dishes"
	"github.com/smartdine/smartdine-backend/internal/events"
	"github.com/smartdine/smartdine-backend/internal/orders"
	"github.com/smartdine/smartdine-backend/pkg/db"
	"github.com/smartdine/smartdine-backend/pkg/db/models"
	"github.com/smartdine/smartdine-backend/pkg/enums"
	pkgerrors "github.com/smartdine/smartdine-backend/pkg/errors"
)

// one loser per concurrent review is expected; more means something is wrong
const ratingRetryLimit = 3

// Service admits one rating per (order, dish) pair for completed orders and
// keeps the dish's running average exact.
type Service interface {
	Create(ctx context.Context, userID int64, input CreateInput) (*ReviewDTO, error)
	ListByDish(ctx context.Context, dishID int64, limit, offset int) (*ReviewListDTO, error)
}

// CreateInput is the validated review payload.
type CreateInput struct {
	OrderID int64
	DishID  int64
	Rating  int
	Comment *string
	Tags    []string
}

// ReviewDTO is the review payload returned to callers.
type ReviewDTO struct {
	ID        int64     `json:"id"`
	OrderID   int64     `json:"order_id"`
	DishID    int64     `json:"dish_id"`
	Rating    int       `json:"rating"`
	Comment   *string   `json:"comment,omitempty"`
	Tags      []string  `json:"tags"`
	CreatedAt time.Time `json:"created_at"`
}

// ReviewListDTO is one page of a dish's reviews.
type ReviewListDTO struct {
	Items []ReviewDTO `json:"items"`
	Total int64       `json:"total"`
}

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type service struct {
	runner   txRunner
	repo     Repository
	orders   orders.Repository
	dishes   dishes.Repository
	recorder events.Recorder
}

// NewService builds the review ledger service.
func NewService(
	runner txRunner,
	repo Repository,
	orderRepo orders.Repository,
	dishRepo dishes.Repository,
	recorder events.Recorder,
) Service {
	return &service{
		runner:   runner,
		repo:     repo,
		orders:   orderRepo,
		dishes:   dishRepo,
		recorder: recorder,
	}
}

func (s *service) Create(ctx context.Context, userID int64, input CreateInput) (*ReviewDTO, error) {
	if input.Rating < 1 || input.Rating > 5 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "rating must be between 1 and 5")
	}

	var created *models.Review
	err := s.runner.WithTx(ctx, func(tx *gorm.DB) error {
		order, err := s.orders.WithTx(tx).FindOwned(ctx, input.OrderID, userID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return pkgerrors.New(pkgerrors.CodeNotFound, "order not found").
					WithDetails(map[string]any{"order_id": input.OrderID})
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load order")
		}
		if order.Status != enums.OrderStatusCompleted {
			return pkgerrors.New(pkgerrors.CodeStateConflict, "only completed orders can be reviewed").
				WithDetails(map[string]any{"status": string(order.Status)})
		}

		repo := s.repo.WithTx(tx)
		contains, err := repo.OrderContainsDish(ctx, input.OrderID, input.DishID)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "check order lines")
		}
		if !contains {
			return pkgerrors.New(pkgerrors.CodeValidation, "dish is not part of the order").
				WithDetails(map[string]any{"dish_id": input.DishID})
		}

		tags := input.Tags
		if tags == nil {
			tags = []string{}
		}
		review := &models.Review{
			UserID:  userID,
			OrderID: input.OrderID,
			DishID:  input.DishID,
			Rating:  input.Rating,
			Comment: input.Comment,
			Tags:    tags,
		}
		// the unique index is the duplicate guard, not a pre-check
		if insertErr := repo.Insert(ctx, review); insertErr != nil {
			if db.IsUniqueViolation(insertErr, "idx_reviews_order_dish") {
				return pkgerrors.New(pkgerrors.CodeConflict, "review already exists for this order and dish").
					WithDetails(map[string]any{"order_id": input.OrderID, "dish_id": input.DishID})
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, insertErr, "insert review")
		}

		if err := s.applyRating(ctx, tx, input.DishID, input.Rating); err != nil {
			return err
		}

		if err := s.recorder.Emit(ctx, tx, events.Event{
			UserID:    userID,
			EventType: enums.EventReview,
			Payload: map[string]any{
				"order_id": input.OrderID,
				"dish_id":  input.DishID,
				"rating":   input.Rating,
				"tags":     tags,
			},
		}); err != nil {
			return err
		}

		created = review
		return nil
	})
	if err != nil {
		return nil, err
	}
	return toReviewDTO(created), nil
}

// applyRating folds one rating into the dish's running average as an exact
// incremental mean rounded to one decimal place. The compare-and-set on
// rating_count resolves concurrent reviews of the same dish.
func (s *service) applyRating(ctx context.Context, tx *gorm.DB, dishID int64, rating int) error {
	dishRepo := s.dishes.WithTx(tx)
	for attempt := 0; attempt < ratingRetryLimit; attempt++ {
		dish, err := dishRepo.FindByID(ctx, dishID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				// the dish vanished after the order completed; the review stands
				return nil
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load dish for rating")
		}

		newAvg := incrementalMean(dish.RatingAvg, dish.RatingCount, rating)
		applied, err := dishRepo.ApplyRating(ctx, dishID, newAvg, dish.RatingCount)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "apply dish rating")
		}
		if applied {
			return nil
		}
	}
	return pkgerrors.New(pkgerrors.CodeDependency, "rating update contention exceeded retry limit")
}

func incrementalMean(oldAvg float64, oldCount int64, rating int) float64 {
	newAvg := (oldAvg*float64(oldCount) + float64(rating)) / float64(oldCount+1)
	return math.Round(newAvg*10) / 10
}

func (s *service) ListByDish(ctx context.Context, dishID int64, limit, offset int) (*ReviewListDTO, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	if offset < 0 {
		offset = 0
	}

	rows, total, err := s.repo.ListByDish(ctx, dishID, limit, offset)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list reviews")
	}
	list := &ReviewListDTO{Items: make([]ReviewDTO, 0, len(rows)), Total: total}
	for i := range rows {
		list.Items = append(list.Items, *toReviewDTO(&rows[i]))
	}
	return list, nil
}

func toReviewDTO(review *models.Review) *ReviewDTO {
	return &ReviewDTO{
		ID:        review.ID,
		OrderID:   review.OrderID,
		DishID:    review.DishID,
		Rating:    review.Rating,
		Comment:   review.Comment,
		Tags:      review.Tags,
		CreatedAt: review.CreatedAt,
	}
}
