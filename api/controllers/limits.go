package controllers

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/incentraworks/incentra-backend/api/middleware"
	"github.com/incentraworks/incentra-backend/api/responses"
	"github.com/incentraworks/incentra-backend/api/validators"
	"github.com/incentraworks/incentra-backend/internal/limits"
	pkgerrors "github.com/incentraworks/incentra-backend/pkg/errors"
	"github.com/incentraworks/incentra-backend/pkg/logger"
	"github.com/shopspring/decimal"
)

type setLimitPayload struct {
	TotalLimit decimal.Decimal `json:"total_limit" validate:"required"`
}

// GetMyLimit returns the calling distributor's limit usage.
func GetMyLimit(svc limits.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		limit, err := svc.Get(r.Context(), middleware.UserIDFromContext(r.Context()))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, limit)
	}
}

// SetDistributorLimit lets the company adjust a distributor's total limit.
func SetDistributorLimit(svc limits.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		distributorID, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
		if err != nil || distributorID <= 0 {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "invalid distributor id"))
			return
		}

		var payload setLimitPayload
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		limit, err := svc.SetTotal(r.Context(), distributorID, payload.TotalLimit)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, limit)
	}
}

// ListLimits returns every distributor limit row, company only.
func ListLimits(svc limits.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		list, err := svc.ListAll(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]any{"limits": list})
	}
}
