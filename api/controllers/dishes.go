package controllers

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/smartdine/smartdine-backend/api/responses"
	"github.com/smartdine/smartdine-backend/api/validators"
	"github.com/smartdine/smartdine-backend/internal/dishes"
	pkgerrors "github.com/smartdine/smartdine-backend/pkg/errors"
	"github.com/smartdine/smartdine-backend/pkg/logger"
)

// DishList returns the browsable menu, optionally narrowed by category,
// keyword, or status.
func DishList(svc dishes.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		input := dishes.ListInput{
			Keyword: strings.TrimSpace(r.URL.Query().Get("keyword")),
			Status:  strings.TrimSpace(r.URL.Query().Get("status")),
		}

		if raw := strings.TrimSpace(r.URL.Query().Get("category_id")); raw != "" {
			categoryID, err := strconv.ParseInt(raw, 10, 64)
			if err != nil || categoryID <= 0 {
				responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeValidation, "category_id must be a positive integer"))
				return
			}
			input.CategoryID = &categoryID
		}

		items, err := svc.List(ctx, input)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]any{"items": items})
	}
}

// DishDetail returns one dish with its spec groups.
func DishDetail(svc dishes.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		dishID, err := validators.ParsePathID(chi.URLParam(r, "dishId"), "dishId")
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		detail, err := svc.Detail(ctx, dishID)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, detail)
	}
}

// DishHome returns the heuristically ranked home feed. Tags arrive as a
// comma-separated query value.
func DishHome(svc dishes.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		var tags []string
		if raw := strings.TrimSpace(r.URL.Query().Get("tags")); raw != "" {
			for _, tag := range strings.Split(raw, ",") {
				if tag = strings.TrimSpace(tag); tag != "" {
					tags = append(tags, tag)
				}
			}
		}

		items, err := svc.RecommendHome(ctx, tags)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]any{"items": items})
	}
}
