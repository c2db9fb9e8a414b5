package orders

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"

	"github.com/smartdine/smartdine-backend/internal/addresses"
	"github.com/smartdine/smartdine-backend/internal/dishes"
	"github.com/smartdine/smartdine-backend/internal/events"
	"github.com/smartdine/smartdine-backend/pkg/db/models"
	"github.com/smartdine/smartdine-backend/pkg/enums"
	pkgerrors "github.com/smartdine/smartdine-backend/pkg/errors"
	"github.com/smartdine/smartdine-backend/pkg/money"
	"github.com/smartdine/smartdine-backend/pkg/types"
)

// Service converts item lists into persisted, priced, immutable orders and
// advances them through the fixed status lattice.
type Service interface {
	Create(ctx context.Context, userID int64, input CreateInput) (*OrderDTO, error)
	Get(ctx context.Context, userID, orderID int64) (*OrderDTO, error)
	List(ctx context.Context, userID int64, limit, offset int) ([]OrderDTO, error)
	SetStatus(ctx context.Context, userID, orderID int64, target enums.OrderStatus) (*OrderDTO, error)
}

// CreateInput is the normalized checkout payload.
type CreateInput struct {
	AddressID int64
	Items     []LineItem
	Note      *string
}

// OrderItemDTO is one snapshotted order line.
type OrderItemDTO struct {
	ID              int64           `json:"id"`
	DishID          int64           `json:"dish_id"`
	DishName        string          `json:"dish_name"`
	Quantity        int             `json:"quantity"`
	UnitPrice       float64         `json:"unit_price"`
	SelectedOptions types.Selection `json:"selected_options"`
}

// OrderDTO is the order payload returned to callers.
type OrderDTO struct {
	ID          int64              `json:"id"`
	AddressID   int64              `json:"address_id"`
	TotalAmount float64            `json:"total_amount"`
	Status      string             `json:"status"`
	Context     types.OrderContext `json:"context"`
	Note        *string            `json:"note,omitempty"`
	Items       []OrderItemDTO     `json:"items"`
	CreatedAt   time.Time          `json:"created_at"`
}

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type service struct {
	runner    txRunner
	repo      Repository
	dishes    dishes.Repository
	addresses addresses.Repository
	recorder  events.Recorder
	clock     func() time.Time
}

// NewService builds the order state machine service.
func NewService(
	runner txRunner,
	repo Repository,
	dishRepo dishes.Repository,
	addressRepo addresses.Repository,
	recorder events.Recorder,
) Service {
	return &service{
		runner:    runner,
		repo:      repo,
		dishes:    dishRepo,
		addresses: addressRepo,
		recorder:  recorder,
		clock:     time.Now,
	}
}

func (s *service) Create(ctx context.Context, userID int64, input CreateInput) (*OrderDTO, error) {
	if input.AddressID == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "address_id is required")
	}
	if len(input.Items) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "order must contain at least one item")
	}
	for _, item := range input.Items {
		if item.Quantity < 1 {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "quantity must be at least 1").
				WithDetails(map[string]any{"dish_id": item.DishID})
		}
	}

	var created *models.Order
	err := s.runner.WithTx(ctx, func(tx *gorm.DB) error {
		address, err := s.addresses.WithTx(tx).FindOwned(ctx, input.AddressID, userID)
		if err != nil {
			return err
		}

		dishRepo := s.dishes.WithTx(tx)
		resolved, err := s.resolveDishes(ctx, dishRepo, input.Items)
		if err != nil {
			return err
		}

		specsByDish, err := dishRepo.SpecsByDishIDs(ctx, keysOf(resolved))
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load dish specs")
		}

		var total money.Cents
		orderItems := make([]models.OrderItem, 0, len(input.Items))
		for _, item := range input.Items {
			dish := resolved[item.DishID]
			delta, specErr := validateSelection(specsByDish[item.DishID], item.SelectedOptions)
			if specErr != nil {
				return specErr
			}
			unitPrice := dish.PriceCents + delta
			total += unitPrice * money.Cents(item.Quantity)
			orderItems = append(orderItems, models.OrderItem{
				DishID:          dish.ID,
				DishName:        dish.Name,
				Quantity:        item.Quantity,
				UnitPriceCents:  unitPrice,
				SelectedOptions: item.SelectedOptions,
			})
		}

		order := &models.Order{
			UserID:     userID,
			AddressID:  address.ID,
			TotalCents: total,
			Status:     enums.OrderStatusPending,
			Context:    types.NewOrderContext(s.clock()),
			AddressSnapshot: &types.AddressSnapshot{
				ContactName: address.ContactName,
				Phone:       address.Phone,
				AddressLine: address.AddressLine,
			},
			Note:  input.Note,
			Items: orderItems,
		}
		if createErr := s.repo.WithTx(tx).Create(ctx, order); createErr != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, createErr, "persist order")
		}
		created = order
		return nil
	})
	if err != nil {
		return nil, err
	}
	return toOrderDTO(created), nil
}

func (s *service) resolveDishes(ctx context.Context, dishRepo dishes.Repository, items []LineItem) (map[int64]*models.Dish, error) {
	dishIDs := make([]int64, 0, len(items))
	seen := make(map[int64]struct{}, len(items))
	for _, item := range items {
		if _, ok := seen[item.DishID]; ok {
			continue
		}
		seen[item.DishID] = struct{}{}
		dishIDs = append(dishIDs, item.DishID)
	}

	rows, err := dishRepo.FindByIDs(ctx, dishIDs)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "resolve dishes")
	}
	resolved := make(map[int64]*models.Dish, len(rows))
	for i := range rows {
		resolved[rows[i].ID] = &rows[i]
	}

	var missing []int64
	for _, id := range dishIDs {
		if _, ok := resolved[id]; !ok {
			missing = append(missing, id)
		}
	}
	if len(missing) > 0 {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "some dishes do not exist").
			WithDetails(map[string]any{"dish_ids": missing})
	}
	for _, dish := range resolved {
		if !dish.Status.Sellable() {
			return nil, pkgerrors.New(pkgerrors.CodeConflict, "dish is not on sale").
				WithDetails(map[string]any{"dish_id": dish.ID})
		}
	}
	return resolved, nil
}

// validateSelection checks every selected option group and value against the
// dish's spec catalog and returns the summed price delta.
func validateSelection(specs []models.DishSpec, selection types.Selection) (money.Cents, error) {
	if len(selection) == 0 {
		return 0, nil
	}
	specByName := make(map[string]models.DishSpec, len(specs))
	for _, spec := range specs {
		specByName[spec.Name] = spec
	}

	var delta money.Cents
	for name, value := range selection {
		spec, ok := specByName[name]
		if !ok {
			return 0, pkgerrors.New(pkgerrors.CodeValidation, "unknown spec group").
				WithDetails(map[string]any{"spec_name": name})
		}
		option, found := spec.Options.Find(value)
		if !found {
			return 0, pkgerrors.New(pkgerrors.CodeValidation, "unknown spec option").
				WithDetails(map[string]any{"spec_name": name, "value": value})
		}
		delta += option.PriceDelta
	}
	return delta, nil
}

func (s *service) Get(ctx context.Context, userID, orderID int64) (*OrderDTO, error) {
	order, err := s.repo.FindOwned(ctx, orderID, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "order not found").
				WithDetails(map[string]any{"order_id": orderID})
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load order")
	}
	return toOrderDTO(order), nil
}

func (s *service) List(ctx context.Context, userID int64, limit, offset int) ([]OrderDTO, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	if offset < 0 {
		offset = 0
	}
	rows, err := s.repo.ListByUser(ctx, userID, limit, offset)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list orders")
	}
	dtos := make([]OrderDTO, 0, len(rows))
	for i := range rows {
		dtos = append(dtos, *toOrderDTO(&rows[i]))
	}
	return dtos, nil
}

// SetStatus advances the order through the lattice. The status write is a
// compare-and-set scoped inside the transaction, so two concurrent requests
// from the same source state cannot both succeed; side effects ride the same
// transaction and therefore fire exactly once per transition.
func (s *service) SetStatus(ctx context.Context, userID, orderID int64, target enums.OrderStatus) (*OrderDTO, error) {
	if !target.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "unknown order status").
			WithDetails(map[string]any{"status": string(target)})
	}

	var result *models.Order
	err := s.runner.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		order, err := repo.FindOwned(ctx, orderID, userID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return pkgerrors.New(pkgerrors.CodeNotFound, "order not found").
					WithDetails(map[string]any{"order_id": orderID})
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load order")
		}

		if !order.Status.CanTransitionTo(target) {
			return pkgerrors.New(pkgerrors.CodeStateConflict, "status transition not allowed").
				WithDetails(map[string]any{"from": string(order.Status), "to": string(target)})
		}

		moved, err := repo.UpdateStatusCAS(ctx, order.ID, order.Status, target)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update order status")
		}
		if !moved {
			return pkgerrors.New(pkgerrors.CodeStateConflict, "status transition not allowed").
				WithDetails(map[string]any{"from": string(order.Status), "to": string(target)})
		}

		if err := s.applyTransitionEffects(ctx, tx, order, target); err != nil {
			return err
		}

		order.Status = target
		result = order
		return nil
	})
	if err != nil {
		return nil, err
	}
	return toOrderDTO(result), nil
}

func (s *service) applyTransitionEffects(ctx context.Context, tx *gorm.DB, order *models.Order, target enums.OrderStatus) error {
	switch {
	case order.Status == enums.OrderStatusPending && target == enums.OrderStatusPaid:
		// one increment per distinct dish, aggregated across lines
		aggregated := make(map[int64]int, len(order.Items))
		dishIDs := make([]int64, 0, len(order.Items))
		for _, item := range order.Items {
			if _, seen := aggregated[item.DishID]; !seen {
				dishIDs = append(dishIDs, item.DishID)
			}
			aggregated[item.DishID] += item.Quantity
		}
		dishRepo := s.dishes.WithTx(tx)
		for _, dishID := range dishIDs {
			if err := dishRepo.IncrementSales(ctx, dishID, aggregated[dishID]); err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "increment dish sales")
			}
		}
		return s.recorder.Emit(ctx, tx, events.Event{
			UserID:    order.UserID,
			EventType: enums.EventOrderPaid,
			Payload: map[string]any{
				"order_id":     order.ID,
				"total_amount": order.TotalCents.Float(),
			},
		})

	case order.Status == enums.OrderStatusPaid && target == enums.OrderStatusCompleted:
		return s.recorder.Emit(ctx, tx, events.Event{
			UserID:    order.UserID,
			EventType: enums.EventOrderCompleted,
			Payload: map[string]any{
				"order_id":     order.ID,
				"total_amount": order.TotalCents.Float(),
			},
		})

	case order.Status == enums.OrderStatusPending && target == enums.OrderStatusCancelled:
		return s.recorder.Emit(ctx, tx, events.Event{
			UserID:    order.UserID,
			EventType: enums.EventOrderCancelled,
			Payload:   map[string]any{"order_id": order.ID},
		})
	}
	return nil
}

func keysOf(m map[int64]*models.Dish) []int64 {
	keys := make([]int64, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	return keys
}

func toOrderDTO(order *models.Order) *OrderDTO {
	dto := &OrderDTO{
		ID:          order.ID,
		AddressID:   order.AddressID,
		TotalAmount: order.TotalCents.Float(),
		Status:      order.Status.String(),
		Context:     order.Context,
		Note:        order.Note,
		Items:       make([]OrderItemDTO, 0, len(order.Items)),
		CreatedAt:   order.CreatedAt,
	}
	for _, item := range order.Items {
		dto.Items = append(dto.Items, OrderItemDTO{
			ID:              item.ID,
			DishID:          item.DishID,
			DishName:        item.DishName,
			Quantity:        item.Quantity,
			UnitPrice:       item.UnitPriceCents.Float(),
			SelectedOptions: item.SelectedOptions,
		})
	}
	return dto
}
