package cart

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"github.com/smartdine/smartdine-backend/internal/dishes"
	"github.com/smartdine/smartdine-backend/pkg/db"
	"github.com/smartdine/smartdine-backend/pkg/db/models"
	pkgerrors "github.com/smartdine/smartdine-backend/pkg/errors"
	"github.com/smartdine/smartdine-backend/pkg/money"
	"github.com/smartdine/smartdine-backend/pkg/types"
)

// Service owns the single cart of each user and its mergeable lines.
type Service interface {
	View(ctx context.Context, userID int64) (*CartViewDTO, error)
	AddItem(ctx context.Context, userID int64, input AddItemInput) error
	UpdateItem(ctx context.Context, userID, itemID int64, input UpdateItemInput) error
	RemoveItem(ctx context.Context, userID, itemID int64) error
}

// AddItemInput is the validated add-to-cart payload.
type AddItemInput struct {
	DishID          int64
	Quantity        int
	SelectedOptions types.Selection
}

// UpdateItemInput carries partial updates; nil fields are left unchanged.
type UpdateItemInput struct {
	Quantity        *int
	SelectedOptions *types.Selection
}

// CartItemDTO is one priced cart line in the view.
type CartItemDTO struct {
	ID              int64           `json:"id"`
	DishID          int64           `json:"dish_id"`
	DishName        string          `json:"dish_name"`
	Price           float64         `json:"price"`
	Quantity        int             `json:"quantity"`
	SelectedOptions types.Selection `json:"selected_options"`
}

// CartViewDTO is the priced cart with live dish data joined in.
type CartViewDTO struct {
	CartID int64         `json:"cart_id"`
	Items  []CartItemDTO `json:"items"`
	Total  float64       `json:"total"`
}

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type service struct {
	runner txRunner
	repo   Repository
	dishes dishes.Repository
}

// NewService builds the cart service.
func NewService(runner txRunner, repo Repository, dishRepo dishes.Repository) Service {
	return &service{runner: runner, repo: repo, dishes: dishRepo}
}

var _ txRunner = (*db.Client)(nil)

// getOrCreate returns the caller's single cart, creating it lazily. The unique
// index on user_id decides concurrent first accesses; the losing insert is
// absorbed by ON CONFLICT DO NOTHING and the winner's row is re-read, so the
// race never aborts the enclosing transaction.
func (s *service) getOrCreate(ctx context.Context, repo Repository, userID int64) (*models.Cart, error) {
	cart, err := repo.FindByUser(ctx, userID)
	if err == nil {
		return cart, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load cart")
	}

	fresh := &models.Cart{UserID: userID}
	created, err := repo.CreateIfAbsent(ctx, fresh)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create cart")
	}
	if created {
		return fresh, nil
	}
	existing, err := repo.FindByUser(ctx, userID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "re-read cart after lost insert")
	}
	return existing, nil
}

func (s *service) View(ctx context.Context, userID int64) (*CartViewDTO, error) {
	view := &CartViewDTO{Items: []CartItemDTO{}}

	err := s.runner.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		cart, err := s.getOrCreate(ctx, repo, userID)
		if err != nil {
			return err
		}
		view.CartID = cart.ID

		items, err := repo.Items(ctx, cart.ID)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load cart items")
		}
		if len(items) == 0 {
			return nil
		}

		dishIDs := make([]int64, 0, len(items))
		for _, item := range items {
			dishIDs = append(dishIDs, item.DishID)
		}
		dishRows, err := s.dishes.WithTx(tx).FindByIDs(ctx, dishIDs)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load cart dishes")
		}
		dishByID := make(map[int64]*models.Dish, len(dishRows))
		for i := range dishRows {
			dishByID[dishRows[i].ID] = &dishRows[i]
		}

		var total money.Cents
		for _, item := range items {
			dish, ok := dishByID[item.DishID]
			if !ok {
				// dish removed from the catalog since it was added
				continue
			}
			total += dish.PriceCents * money.Cents(item.Quantity)
			view.Items = append(view.Items, CartItemDTO{
				ID:              item.ID,
				DishID:          item.DishID,
				DishName:        dish.Name,
				Price:           dish.PriceCents.Float(),
				Quantity:        item.Quantity,
				SelectedOptions: item.SelectedOptions,
			})
		}
		view.Total = total.Float()
		return nil
	})
	if err != nil {
		return nil, err
	}
	return view, nil
}

func (s *service) AddItem(ctx context.Context, userID int64, input AddItemInput) error {
	if input.Quantity < 1 {
		return pkgerrors.New(pkgerrors.CodeValidation, "quantity must be at least 1")
	}

	return s.runner.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		cart, err := s.getOrCreate(ctx, repo, userID)
		if err != nil {
			return err
		}

		dish, err := s.dishes.WithTx(tx).FindByID(ctx, input.DishID)
		if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load dish")
		}
		if dish == nil || !dish.Status.Sellable() {
			return pkgerrors.New(pkgerrors.CodeConflict, "dish is not available").
				WithDetails(map[string]any{"dish_id": input.DishID})
		}

		item := &models.CartItem{
			CartID:          cart.ID,
			DishID:          input.DishID,
			Quantity:        input.Quantity,
			SelectedOptions: input.SelectedOptions,
			SpecKey:         input.SelectedOptions.CanonicalKey(),
		}
		if err := repo.UpsertLine(ctx, item); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "upsert cart line")
		}
		return repo.TouchCart(ctx, cart.ID)
	})
}

func (s *service) UpdateItem(ctx context.Context, userID, itemID int64, input UpdateItemInput) error {
	if input.Quantity == nil && input.SelectedOptions == nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "nothing to update")
	}
	if input.Quantity != nil && *input.Quantity < 1 {
		return pkgerrors.New(pkgerrors.CodeValidation, "quantity must be at least 1")
	}

	return s.runner.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		cart, err := s.getOrCreate(ctx, repo, userID)
		if err != nil {
			return err
		}

		item, err := repo.FindItem(ctx, cart.ID, itemID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return pkgerrors.New(pkgerrors.CodeNotFound, "cart item not found").
					WithDetails(map[string]any{"item_id": itemID})
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load cart item")
		}

		if input.Quantity != nil {
			item.Quantity = *input.Quantity
		}
		if input.SelectedOptions != nil {
			item.SelectedOptions = *input.SelectedOptions
			item.SpecKey = input.SelectedOptions.CanonicalKey()
		}

		if updateErr := repo.UpdateItem(ctx, item); updateErr != nil {
			if db.IsUniqueViolation(updateErr, "idx_cart_items_merge") {
				return pkgerrors.New(pkgerrors.CodeConflict, "an identical cart line already exists").
					WithDetails(map[string]any{"item_id": itemID})
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, updateErr, "update cart item")
		}
		return repo.TouchCart(ctx, cart.ID)
	})
}

func (s *service) RemoveItem(ctx context.Context, userID, itemID int64) error {
	return s.runner.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		cart, err := s.getOrCreate(ctx, repo, userID)
		if err != nil {
			return err
		}

		deleted, err := repo.DeleteItem(ctx, cart.ID, itemID)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "delete cart item")
		}
		if !deleted {
			return pkgerrors.New(pkgerrors.CodeNotFound, "cart item not found").
				WithDetails(map[string]any{"item_id": itemID})
		}
		return repo.TouchCart(ctx, cart.ID)
	})
}
