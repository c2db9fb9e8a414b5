package controllers

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/smartdine/smartdine-backend/api/middleware"
	"github.com/smartdine/smartdine-backend/api/responses"
	"github.com/smartdine/smartdine-backend/api/validators"
	"github.com/smartdine/smartdine-backend/internal/cart"
	pkgerrors "github.com/smartdine/smartdine-backend/pkg/errors"
	"github.com/smartdine/smartdine-backend/pkg/logger"
	"github.com/smartdine/smartdine-backend/pkg/types"
)

type addCartItemPayload struct {
	DishID          int64           `json:"dish_id" validate:"required,gt=0"`
	Quantity        int             `json:"quantity" validate:"required,gte=1"`
	SelectedOptions types.Selection `json:"selected_specs"`
}

type updateCartItemPayload struct {
	Quantity        *int             `json:"quantity" validate:"omitempty,gte=1"`
	SelectedOptions *types.Selection `json:"selected_specs"`
}

// CartView returns the live-priced cart for the authenticated user.
func CartView(svc cart.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		userID := middleware.UserIDFromContext(ctx)
		if userID == 0 {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "missing user context"))
			return
		}

		view, err := svc.View(ctx, userID)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, view)
	}
}

// CartAddItem adds a dish line, merging into an existing identical line.
func CartAddItem(svc cart.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		userID := middleware.UserIDFromContext(ctx)
		if userID == 0 {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "missing user context"))
			return
		}

		var payload addCartItemPayload
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		err := svc.AddItem(ctx, userID, cart.AddItemInput{
			DishID:          payload.DishID,
			Quantity:        payload.Quantity,
			SelectedOptions: payload.SelectedOptions,
		})
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		view, err := svc.View(ctx, userID)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, view)
	}
}

// CartUpdateItem applies a partial update to one cart line.
func CartUpdateItem(svc cart.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		userID := middleware.UserIDFromContext(ctx)
		if userID == 0 {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "missing user context"))
			return
		}

		itemID, err := validators.ParsePathID(chi.URLParam(r, "itemId"), "itemId")
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		var payload updateCartItemPayload
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		err = svc.UpdateItem(ctx, userID, itemID, cart.UpdateItemInput{
			Quantity:        payload.Quantity,
			SelectedOptions: payload.SelectedOptions,
		})
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		view, err := svc.View(ctx, userID)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, view)
	}
}

// CartRemoveItem deletes one cart line owned by the user.
func CartRemoveItem(svc cart.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		userID := middleware.UserIDFromContext(ctx)
		if userID == 0 {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "missing user context"))
			return
		}

		itemID, err := validators.ParsePathID(chi.URLParam(r, "itemId"), "itemId")
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		if err := svc.RemoveItem(ctx, userID, itemID); err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]any{"removed": itemID})
	}
}
