package controllers

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/smartdine/smartdine-backend/api/middleware"
	"github.com/smartdine/smartdine-backend/api/responses"
	"github.com/smartdine/smartdine-backend/api/validators"
	"github.com/smartdine/smartdine-backend/internal/reviews"
	pkgerrors "github.com/smartdine/smartdine-backend/pkg/errors"
	"github.com/smartdine/smartdine-backend/pkg/logger"
)

type createReviewPayload struct {
	OrderID int64    `json:"order_id" validate:"required,gt=0"`
	DishID  int64    `json:"dish_id" validate:"required,gt=0"`
	Rating  int      `json:"rating" validate:"required,gte=1,lte=5"`
	Comment *string  `json:"comment"`
	Tags    []string `json:"tags"`
}

// ReviewCreate records a review against a completed order line.
func ReviewCreate(svc reviews.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		userID := middleware.UserIDFromContext(ctx)
		if userID == 0 {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "missing user context"))
			return
		}

		var payload createReviewPayload
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		review, err := svc.Create(ctx, userID, reviews.CreateInput{
			OrderID: payload.OrderID,
			DishID:  payload.DishID,
			Rating:  payload.Rating,
			Comment: payload.Comment,
			Tags:    payload.Tags,
		})
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, review)
	}
}

// ReviewListByDish returns one page of a dish's reviews.
func ReviewListByDish(svc reviews.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		dishID, err := validators.ParsePathID(chi.URLParam(r, "dishId"), "dishId")
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		limit, err := validators.ParseQueryInt(r, "limit", 20, 1, 100)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		offset, err := validators.ParseQueryInt(r, "offset", 0, 0, 100000)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		page, err := svc.ListByDish(ctx, dishID, limit, offset)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, page)
	}
}
