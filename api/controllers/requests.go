package controllers

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/incentraworks/incentra-backend/api/middleware"
	"github.com/incentraworks/incentra-backend/api/responses"
	"github.com/incentraworks/incentra-backend/api/validators"
	"github.com/incentraworks/incentra-backend/internal/requests"
	"github.com/incentraworks/incentra-backend/pkg/enums"
	pkgerrors "github.com/incentraworks/incentra-backend/pkg/errors"
	"github.com/incentraworks/incentra-backend/pkg/logger"
	"github.com/incentraworks/incentra-backend/pkg/pagination"
	"github.com/shopspring/decimal"
)

type submitRequestPayload struct {
	DealerID       int64           `json:"dealer_id" validate:"required,gt=0"`
	InvoiceNumber  string          `json:"invoice_number" validate:"required,max=64"`
	ProductDetails string          `json:"product_details" validate:"required,max=2000"`
	Amount         decimal.Decimal `json:"amount" validate:"required"`
}

type dealerDecisionPayload struct {
	Decision         string `json:"decision" validate:"required,oneof=approve reject"`
	DistributorID    *int64 `json:"distributor_id,omitempty" validate:"omitempty,gt=0"`
	DistributorPhone string `json:"distributor_phone,omitempty" validate:"omitempty,max=32"`
	Reason           string `json:"reason,omitempty" validate:"omitempty,max=500"`
}

type decisionPayload struct {
	Decision string `json:"decision" validate:"required,oneof=approve reject"`
	Reason   string `json:"reason,omitempty" validate:"omitempty,max=500"`
}

func actorFromRequest(r *http.Request) requests.Actor {
	ctx := r.Context()
	return requests.Actor{
		ID:   middleware.UserIDFromContext(ctx),
		Role: middleware.RoleFromContext(ctx),
		Name: middleware.UserNameFromContext(ctx),
	}
}

func requestIDParam(r *http.Request) (int64, error) {
	raw := chi.URLParam(r, "id")
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, pkgerrors.New(pkgerrors.CodeValidation, "invalid request id")
	}
	return id, nil
}

// SubmitRequest creates a reimbursement request routed to the chosen dealer.
func SubmitRequest(svc requests.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var payload submitRequestPayload
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		req, err := svc.Submit(r.Context(), requests.SubmitInput{
			Actor:          actorFromRequest(r),
			DealerID:       payload.DealerID,
			InvoiceNumber:  payload.InvoiceNumber,
			ProductDetails: payload.ProductDetails,
			Amount:         payload.Amount,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, req)
	}
}

func DealerDecision(svc requests.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := requestIDParam(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload dealerDecisionPayload
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		decision, err := enums.ParseDecision(payload.Decision)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid decision"))
			return
		}

		req, err := svc.DealerDecision(r.Context(), requests.DealerDecisionInput{
			Actor:            actorFromRequest(r),
			RequestID:        id,
			Decision:         decision,
			DistributorID:    payload.DistributorID,
			DistributorPhone: payload.DistributorPhone,
			Reason:           payload.Reason,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, req)
	}
}

func DistributorDecision(svc requests.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := requestIDParam(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload decisionPayload
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		decision, err := enums.ParseDecision(payload.Decision)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid decision"))
			return
		}

		req, err := svc.DistributorDecision(r.Context(), requests.DistributorDecisionInput{
			Actor:     actorFromRequest(r),
			RequestID: id,
			Decision:  decision,
			Reason:    payload.Reason,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, req)
	}
}

func CompanyDecision(svc requests.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := requestIDParam(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload decisionPayload
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		decision, err := enums.ParseDecision(payload.Decision)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid decision"))
			return
		}

		req, err := svc.CompanyDecision(r.Context(), requests.CompanyDecisionInput{
			Actor:     actorFromRequest(r),
			RequestID: id,
			Decision:  decision,
			Reason:    payload.Reason,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, req)
	}
}

func GetRequest(svc requests.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := requestIDParam(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		req, err := svc.Get(r.Context(), actorFromRequest(r), id)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, req)
	}
}

// ListRequests returns the requests visible to the caller, scoped by role.
func ListRequests(svc requests.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		input := requests.ListInput{Actor: actorFromRequest(r)}

		limit, err := validators.ParseQueryInt(r, "limit", pagination.DefaultLimit, 1, pagination.MaxLimit)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		input.Params.Limit = limit
		input.Params.Cursor = strings.TrimSpace(r.URL.Query().Get("cursor"))
		input.Search = strings.TrimSpace(r.URL.Query().Get("search"))

		if raw := strings.TrimSpace(r.URL.Query().Get("status")); raw != "" {
			status, err := enums.ParseRequestStatus(raw)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid status"))
				return
			}
			input.Status = &status
		}

		resp, err := svc.List(r.Context(), input)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, resp)
	}
}
