package controllers

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/smartdine/smartdine-backend/api/middleware"
	"github.com/smartdine/smartdine-backend/api/responses"
	"github.com/smartdine/smartdine-backend/api/validators"
	"github.com/smartdine/smartdine-backend/internal/orders"
	"github.com/smartdine/smartdine-backend/pkg/enums"
	pkgerrors "github.com/smartdine/smartdine-backend/pkg/errors"
	"github.com/smartdine/smartdine-backend/pkg/logger"
	"github.com/smartdine/smartdine-backend/pkg/types"
)

type orderItemPayload struct {
	DishID          int64           `json:"dish_id" validate:"required,gt=0"`
	Quantity        int             `json:"quantity" validate:"omitempty,gte=1"`
	SelectedOptions types.Selection `json:"selected_specs"`
}

type createOrderPayload struct {
	AddressID int64              `json:"address_id" validate:"required,gt=0"`
	Items     []orderItemPayload `json:"items" validate:"required,min=1,dive"`
	Note      *string            `json:"note"`
}

type orderStatusPayload struct {
	Status string `json:"status" validate:"required"`
}

func (p orderItemPayload) toLineItem() orders.LineItem {
	qty := p.Quantity
	if qty == 0 {
		qty = 1
	}
	return orders.LineItem{
		DishID:          p.DishID,
		Quantity:        qty,
		SelectedOptions: p.SelectedOptions,
	}
}

// OrderCreate runs checkout from an explicit item list.
func OrderCreate(svc orders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		userID := middleware.UserIDFromContext(ctx)
		if userID == 0 {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "missing user context"))
			return
		}

		var payload createOrderPayload
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		items := make([]orders.LineItem, 0, len(payload.Items))
		for _, item := range payload.Items {
			items = append(items, item.toLineItem())
		}

		order, err := svc.Create(ctx, userID, orders.CreateInput{
			AddressID: payload.AddressID,
			Items:     items,
			Note:      payload.Note,
		})
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, order)
	}
}

// OrderGet returns one order owned by the user.
func OrderGet(svc orders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		userID := middleware.UserIDFromContext(ctx)
		if userID == 0 {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "missing user context"))
			return
		}

		orderID, err := validators.ParsePathID(chi.URLParam(r, "orderId"), "orderId")
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		order, err := svc.Get(ctx, userID, orderID)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, order)
	}
}

// OrderList returns the user's orders, newest first.
func OrderList(svc orders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		userID := middleware.UserIDFromContext(ctx)
		if userID == 0 {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "missing user context"))
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

		items, err := svc.List(ctx, userID, limit, offset)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]any{"items": items})
	}
}

// OrderSetStatus drives the order through one lifecycle transition.
func OrderSetStatus(svc orders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		userID := middleware.UserIDFromContext(ctx)
		if userID == 0 {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "missing user context"))
			return
		}

		orderID, err := validators.ParsePathID(chi.URLParam(r, "orderId"), "orderId")
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		var payload orderStatusPayload
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		target, err := enums.ParseOrderStatus(payload.Status)
		if err != nil {
			responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid status"))
			return
		}

		order, err := svc.SetStatus(ctx, userID, orderID, target)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, order)
	}
}
