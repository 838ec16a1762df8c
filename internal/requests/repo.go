package requests

import (
	"context"
	"fmt"
	"strings"

	pkgerrors "github.com/incentraworks/incentra-backend/pkg/errors"

	"github.com/incentraworks/incentra-backend/pkg/db/models"
	"github.com/incentraworks/incentra-backend/pkg/enums"
	"github.com/incentraworks/incentra-backend/pkg/pagination"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Repository abstracts persistence for incentive requests.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Create(ctx context.Context, req *models.IncentiveRequest) error
	FindByID(ctx context.Context, id int64) (*models.IncentiveRequest, error)
	// FindByIDForUpdate locks the request row for the duration of the
	// surrounding transaction.
	FindByIDForUpdate(ctx context.Context, id int64) (*models.IncentiveRequest, error)
	Update(ctx context.Context, req *models.IncentiveRequest) error
	List(ctx context.Context, filter ListFilter) ([]models.IncentiveRequest, error)
}

// ListFilter is the repository-level shape of a listing query. Ownership
// scoping has already been translated from the actor by the service.
type ListFilter struct {
	FabricatorID  *int64
	DealerID      *int64
	DistributorID *int64
	Status        *enums.RequestStatus
	Search        string
	Cursor        *pagination.Cursor
	Limit         int
}

type repository struct {
	db *gorm.DB
}

// NewRepository builds a gorm-backed request repository.
func NewRepository(db *gorm.DB) (Repository, error) {
	if db == nil {
		return nil, fmt.Errorf("requests repository: db is required")
	}
	return &repository{db: db}, nil
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	return &repository{db: tx}
}

func (r *repository) Create(ctx context.Context, req *models.IncentiveRequest) error {
	if err := r.db.WithContext(ctx).Create(req).Error; err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "failed to create incentive request")
	}
	return nil
}

func (r *repository) FindByID(ctx context.Context, id int64) (*models.IncentiveRequest, error) {
	var req models.IncentiveRequest
	err := r.db.WithContext(ctx).First(&req, "id = ?", id).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "incentive request not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "failed to load incentive request")
	}
	return &req, nil
}

func (r *repository) FindByIDForUpdate(ctx context.Context, id int64) (*models.IncentiveRequest, error) {
	var req models.IncentiveRequest
	err := r.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		First(&req, "id = ?", id).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "incentive request not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "failed to load incentive request")
	}
	return &req, nil
}

func (r *repository) Update(ctx context.Context, req *models.IncentiveRequest) error {
	if err := r.db.WithContext(ctx).Save(req).Error; err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "failed to update incentive request")
	}
	return nil
}

func (r *repository) List(ctx context.Context, filter ListFilter) ([]models.IncentiveRequest, error) {
	q := r.db.WithContext(ctx).Model(&models.IncentiveRequest{})

	if filter.FabricatorID != nil {
		q = q.Where("fabricator_id = ?", *filter.FabricatorID)
	}
	if filter.DealerID != nil {
		q = q.Where("dealer_id = ?", *filter.DealerID)
	}
	if filter.DistributorID != nil {
		q = q.Where("distributor_id = ?", *filter.DistributorID)
	}
	if filter.Status != nil {
		q = q.Where("status = ?", *filter.Status)
	}
	if filter.Search != "" {
		like := "%" + strings.ToLower(filter.Search) + "%"
		q = q.Where(
			"LOWER(fabricator_name) LIKE ? OR LOWER(dealer_name) LIKE ? OR CAST(id AS TEXT) LIKE ? OR LOWER(invoice_number) LIKE ?",
			like, like, like, like,
		)
	}
	if filter.Cursor != nil {
		q = q.Where("(created_at, id) < (?, ?)", filter.Cursor.CreatedAt, filter.Cursor.ID)
	}

	var reqs []models.IncentiveRequest
	err := q.Order("created_at DESC, id DESC").
		Limit(filter.Limit).
		Find(&reqs).Error
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "failed to list incentive requests")
	}
	return reqs, nil
}
