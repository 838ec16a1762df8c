package controllers

import (
	"net/http"

	"github.com/incentraworks/incentra-backend/api/middleware"
	"github.com/incentraworks/incentra-backend/api/responses"
	"github.com/incentraworks/incentra-backend/api/validators"
	"github.com/incentraworks/incentra-backend/internal/users"
	"github.com/incentraworks/incentra-backend/pkg/logger"
)

type redeemPayload struct {
	Reward string `json:"reward" validate:"required,max=120"`
}

// ListRewards returns the static redemption catalog.
func ListRewards() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		responses.WriteSuccess(w, map[string]any{"rewards": users.RewardCatalog})
	}
}

// RedeemReward debits the caller's points for a catalog entry.
func RedeemReward(svc users.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var payload redeemPayload
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		result, err := svc.Redeem(r.Context(), middleware.UserIDFromContext(r.Context()), payload.Reward)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, result)
	}
}
