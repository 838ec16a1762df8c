package limits

import (
	"context"
	"errors"
	"fmt"

	"github.com/incentraworks/incentra-backend/pkg/db/models"
	pkgerrors "github.com/incentraworks/incentra-backend/pkg/errors"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Service exposes distributor limit reads and administrative writes.
// Consumption is deliberately absent: used_limit only grows through the
// company-approval transaction, never through this surface.
type Service interface {
	Get(ctx context.Context, distributorID int64) (*models.DistributorLimit, error)
	Available(ctx context.Context, distributorID int64) (decimal.Decimal, error)
	SetTotal(ctx context.Context, distributorID int64, total decimal.Decimal) (*models.DistributorLimit, error)
	ListAll(ctx context.Context) ([]models.DistributorLimit, error)
}

type service struct {
	repo Repository
}

// NewService wires a limits service with the provided repository.
func NewService(repo Repository) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("limits repository required")
	}
	return &service{repo: repo}, nil
}

func (s *service) Get(ctx context.Context, distributorID int64) (*models.DistributorLimit, error) {
	if distributorID <= 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "distributor id required")
	}
	limit, err := s.repo.Find(ctx, distributorID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			// Unconfigured distributors read as zero limits, so the
			// capacity check can never pass for them.
			return &models.DistributorLimit{
				DistributorID: distributorID,
				TotalLimit:    decimal.Zero,
				UsedLimit:     decimal.Zero,
			}, nil
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load distributor limit")
	}
	return limit, nil
}

func (s *service) Available(ctx context.Context, distributorID int64) (decimal.Decimal, error) {
	limit, err := s.Get(ctx, distributorID)
	if err != nil {
		return decimal.Zero, err
	}
	return limit.Available(), nil
}

func (s *service) SetTotal(ctx context.Context, distributorID int64, total decimal.Decimal) (*models.DistributorLimit, error) {
	if distributorID <= 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "distributor id required")
	}
	if total.IsNegative() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "total limit must not be negative")
	}
	// Overwrites total_limit only; used_limit is never released, so a
	// reduction can leave the record over-committed.
	if err := s.repo.UpsertTotal(ctx, distributorID, total); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "set distributor limit")
	}
	return s.Get(ctx, distributorID)
}

func (s *service) ListAll(ctx context.Context) ([]models.DistributorLimit, error) {
	limitRows, err := s.repo.ListAll(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list distributor limits")
	}
	return limitRows, nil
}
