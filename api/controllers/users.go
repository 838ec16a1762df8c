package controllers

import (
	"net/http"

	"github.com/incentraworks/incentra-backend/api/middleware"
	"github.com/incentraworks/incentra-backend/api/responses"
	"github.com/incentraworks/incentra-backend/api/validators"
	"github.com/incentraworks/incentra-backend/internal/users"
	"github.com/incentraworks/incentra-backend/pkg/enums"
	pkgerrors "github.com/incentraworks/incentra-backend/pkg/errors"
	"github.com/incentraworks/incentra-backend/pkg/logger"
	"github.com/shopspring/decimal"
)

type registerUserPayload struct {
	Name  string `json:"name" validate:"required,max=120"`
	Email string `json:"email" validate:"required,email,max=254"`
	Phone string `json:"phone" validate:"required,max=32"`
	Role  string `json:"role" validate:"required,oneof=fabricator dealer"`
}

type createDistributorPayload struct {
	Name       string          `json:"name" validate:"required,max=120"`
	Email      string          `json:"email" validate:"required,email,max=254"`
	Phone      string          `json:"phone" validate:"required,max=32"`
	TotalLimit decimal.Decimal `json:"total_limit" validate:"required"`
}

type updateProfilePayload struct {
	Name  string `json:"name" validate:"required,max=120"`
	Phone string `json:"phone" validate:"required,max=32"`
}

type assignDealerPayload struct {
	DealerID      int64 `json:"dealer_id" validate:"required,gt=0"`
	DistributorID int64 `json:"distributor_id" validate:"required,gt=0"`
}

// RegisterUser is the public signup endpoint. Fabricator and dealer accounts
// self-register; distributor accounts are provisioned by the company.
func RegisterUser(svc users.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var payload registerUserPayload
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		role, err := enums.ParseRole(payload.Role)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid role"))
			return
		}

		user, err := svc.Create(r.Context(), users.CreateUserInput{
			Name:  payload.Name,
			Email: payload.Email,
			Phone: payload.Phone,
			Role:  role,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, user)
	}
}

// CreateDistributor provisions a distributor account with its approval limit.
func CreateDistributor(svc users.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var payload createDistributorPayload
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		user, err := svc.CreateDistributor(r.Context(), users.CreateUserInput{
			Name:  payload.Name,
			Email: payload.Email,
			Phone: payload.Phone,
			Role:  enums.RoleDistributor,
		}, payload.TotalLimit)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, user)
	}
}

// GetMe returns the caller's own profile.
func GetMe(svc users.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		user, err := svc.Get(r.Context(), middleware.UserIDFromContext(r.Context()))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, user)
	}
}

func UpdateProfile(svc users.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var payload updateProfilePayload
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		user, err := svc.UpdateProfile(r.Context(), middleware.UserIDFromContext(r.Context()), payload.Name, payload.Phone)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, user)
	}
}

// ListUsersByRole lists accounts for one role, company only.
func ListUsersByRole(svc users.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		role, err := enums.ParseRole(r.URL.Query().Get("role"))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid role"))
			return
		}

		list, err := svc.ListByRole(r.Context(), role)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]any{"users": list})
	}
}

// AssignDealer maps a dealer onto its default distributor.
func AssignDealer(svc users.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var payload assignDealerPayload
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		if err := svc.AssignDealerToDistributor(r.Context(), payload.DealerID, payload.DistributorID); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]string{"status": "assigned"})
	}
}
