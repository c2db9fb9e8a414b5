package dishes

import (
	"context"
	"errors"
	"sort"
	"strings"

	"gorm.io/gorm"

	"github.com/smartdine/smartdine-backend/pkg/db/models"
	"github.com/smartdine/smartdine-backend/pkg/enums"
	pkgerrors "github.com/smartdine/smartdine-backend/pkg/errors"
	"github.com/smartdine/smartdine-backend/pkg/types"
)

const homeRankingLimit = 20

// Service exposes catalog reads: menu browsing, dish detail with spec groups,
// and the non-conversational home ranking.
type Service interface {
	List(ctx context.Context, input ListInput) ([]DishDTO, error)
	Detail(ctx context.Context, dishID int64) (*DishDetailDTO, error)
	RecommendHome(ctx context.Context, userTags []string) ([]DishDTO, error)
}

// ListInput narrows the menu listing. Status defaults to on_sale.
type ListInput struct {
	CategoryID *int64
	Keyword    string
	Status     string
}

// DishDTO is the card-level dish payload.
type DishDTO struct {
	ID          int64          `json:"id"`
	CategoryID  *int64         `json:"category_id,omitempty"`
	Name        string         `json:"name"`
	Description *string        `json:"description,omitempty"`
	Price       float64        `json:"price"`
	ImageURL    *string        `json:"image_url,omitempty"`
	Status      string         `json:"status"`
	SalesCount  int64          `json:"sales_count"`
	RatingAvg   float64        `json:"rating_avg"`
	RatingCount int64          `json:"rating_count"`
	Highlights  []string       `json:"highlights"`
	Meta        types.DishMeta `json:"meta"`
}

// SpecGroupDTO is one customization axis with its ordered options.
type SpecGroupDTO struct {
	ID      int64           `json:"id"`
	Name    string          `json:"name"`
	Options []SpecOptionDTO `json:"options"`
}

// SpecOptionDTO is one selectable option value.
type SpecOptionDTO struct {
	Name       string  `json:"name"`
	PriceDelta float64 `json:"price_delta"`
}

// DishDetailDTO is the full dish payload with spec groups.
type DishDetailDTO struct {
	DishDTO
	Specs []SpecGroupDTO `json:"specs"`
}

type service struct {
	repo Repository
}

// NewService builds the catalog read service.
func NewService(repo Repository) Service {
	return &service{repo: repo}
}

func (s *service) List(ctx context.Context, input ListInput) ([]DishDTO, error) {
	filters := ListFilters{
		CategoryID: input.CategoryID,
		Keyword:    strings.TrimSpace(input.Keyword),
		Status:     enums.DishStatusOnSale,
	}
	if input.Status != "" {
		status, err := enums.ParseDishStatus(input.Status)
		if err != nil {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "unknown dish status").
				WithDetails(map[string]any{"status": input.Status})
		}
		filters.Status = status
	}

	rows, err := s.repo.List(ctx, filters)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list dishes")
	}

	dtos := make([]DishDTO, 0, len(rows))
	for i := range rows {
		dtos = append(dtos, toDishDTO(&rows[i]))
	}
	return dtos, nil
}

func (s *service) Detail(ctx context.Context, dishID int64) (*DishDetailDTO, error) {
	dish, err := s.repo.FindByID(ctx, dishID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "dish not found").
				WithDetails(map[string]any{"dish_id": dishID})
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load dish")
	}

	specs, err := s.repo.SpecsByDishID(ctx, dishID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load dish specs")
	}

	detail := &DishDetailDTO{
		DishDTO: toDishDTO(dish),
		Specs:   make([]SpecGroupDTO, 0, len(specs)),
	}
	for _, spec := range specs {
		group := SpecGroupDTO{
			ID:      spec.ID,
			Name:    spec.Name,
			Options: make([]SpecOptionDTO, 0, len(spec.Options)),
		}
		for _, opt := range spec.Options {
			group.Options = append(group.Options, SpecOptionDTO{
				Name:       opt.Name,
				PriceDelta: opt.PriceDelta.Float(),
			})
		}
		detail.Specs = append(detail.Specs, group)
	}
	return detail, nil
}

// RecommendHome ranks sellable dishes by sales and rating with small nudges
// for the caller's light/no_spicy/high_protein tags, and returns the top 20.
func (s *service) RecommendHome(ctx context.Context, userTags []string) ([]DishDTO, error) {
	rows, err := s.repo.ListSellable(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list sellable dishes")
	}

	tags := make(map[string]struct{}, len(userTags))
	for _, t := range userTags {
		tags[strings.ToLower(strings.TrimSpace(t))] = struct{}{}
	}

	type scored struct {
		dish  *models.Dish
		score float64
	}
	ranked := make([]scored, 0, len(rows))
	for i := range rows {
		ranked = append(ranked, scored{dish: &rows[i], score: homeScore(&rows[i], tags)})
	}
	sort.SliceStable(ranked, func(i, j int) bool {
		if ranked[i].score != ranked[j].score {
			return ranked[i].score > ranked[j].score
		}
		return ranked[i].dish.ID < ranked[j].dish.ID
	})
	if len(ranked) > homeRankingLimit {
		ranked = ranked[:homeRankingLimit]
	}

	dtos := make([]DishDTO, 0, len(ranked))
	for _, entry := range ranked {
		dtos = append(dtos, toDishDTO(entry.dish))
	}
	return dtos, nil
}

func homeScore(dish *models.Dish, tags map[string]struct{}) float64 {
	score := float64(dish.SalesCount)*0.0003 + dish.RatingAvg*0.4

	if _, ok := tags["light"]; ok && dish.Meta.Taste.LightOrDefault() >= 3 {
		score += 1.5
	}
	if _, ok := tags["no_spicy"]; ok && dish.Meta.Taste.SpicyOrDefault() <= 1 {
		score += 1.0
	}
	if _, ok := tags["high_protein"]; ok && dish.Meta.Diet.HighProtein {
		score += 1.0
	}
	return score
}

func toDishDTO(dish *models.Dish) DishDTO {
	return DishDTO{
		ID:          dish.ID,
		CategoryID:  dish.CategoryID,
		Name:        dish.Name,
		Description: dish.Description,
		Price:       dish.PriceCents.Float(),
		ImageURL:    dish.ImageURL,
		Status:      dish.Status.String(),
		SalesCount:  dish.SalesCount,
		RatingAvg:   dish.RatingAvg,
		RatingCount: dish.RatingCount,
		Highlights:  ComputeHighlights(dish.Meta),
		Meta:        dish.Meta,
	}
}
