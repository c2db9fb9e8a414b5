package controllers

import (
	"net/http"

	"github.com/smartdine/smartdine-backend/api/middleware"
	"github.com/smartdine/smartdine-backend/api/responses"
	"github.com/smartdine/smartdine-backend/api/validators"
	"github.com/smartdine/smartdine-backend/internal/preferences"
	pkgerrors "github.com/smartdine/smartdine-backend/pkg/errors"
	"github.com/smartdine/smartdine-backend/pkg/logger"
)

type updatePreferencesPayload struct {
	ExplicitTags        *[]string `json:"explicit_tags" validate:"omitempty,max=50,dive,min=1,max=50"`
	DietaryRestrictions *[]string `json:"dietary_restrictions" validate:"omitempty,max=50,dive,min=1,max=50"`
}

// PreferencesGet returns the caller's preference profile, creating an empty
// one on first access.
func PreferencesGet(svc preferences.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		userID := middleware.UserIDFromContext(ctx)
		if userID == 0 {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "missing user context"))
			return
		}

		dto, err := svc.Get(ctx, userID)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, dto)
	}
}

// PreferencesUpdate applies explicit tag and dietary edits; omitted fields
// are left untouched.
func PreferencesUpdate(svc preferences.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		userID := middleware.UserIDFromContext(ctx)
		if userID == 0 {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "missing user context"))
			return
		}

		var payload updatePreferencesPayload
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		dto, err := svc.Update(ctx, userID, preferences.UpdateInput{
			ExplicitTags:        payload.ExplicitTags,
			DietaryRestrictions: payload.DietaryRestrictions,
		})
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, dto)
	}
}
