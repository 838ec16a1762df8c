package limits

import (
	"context"

	"github.com/incentraworks/incentra-backend/pkg/db/models"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Repository manages persistence for distributor limits.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Find(ctx context.Context, distributorID int64) (*models.DistributorLimit, error)
	// FindForUpdate locks the limit row for the remainder of the enclosing
	// transaction so a concurrent consume cannot interleave between the
	// availability check and the write.
	FindForUpdate(ctx context.Context, distributorID int64) (*models.DistributorLimit, error)
	UpsertTotal(ctx context.Context, distributorID int64, total decimal.Decimal) error
	Consume(ctx context.Context, distributorID int64, amount decimal.Decimal) error
	ListAll(ctx context.Context) ([]models.DistributorLimit, error)
}

type repository struct {
	db *gorm.DB
}

// NewRepository returns a limits repository bound to the provided database.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) Find(ctx context.Context, distributorID int64) (*models.DistributorLimit, error) {
	var limit models.DistributorLimit
	if err := r.db.WithContext(ctx).
		First(&limit, "distributor_id = ?", distributorID).Error; err != nil {
		return nil, err
	}
	return &limit, nil
}

func (r *repository) FindForUpdate(ctx context.Context, distributorID int64) (*models.DistributorLimit, error) {
	var limit models.DistributorLimit
	if err := r.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		First(&limit, "distributor_id = ?", distributorID).Error; err != nil {
		return nil, err
	}
	return &limit, nil
}

func (r *repository) UpsertTotal(ctx context.Context, distributorID int64, total decimal.Decimal) error {
	limit := models.DistributorLimit{
		DistributorID: distributorID,
		TotalLimit:    total,
		UsedLimit:     decimal.Zero,
	}
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "distributor_id"}},
			DoUpdates: clause.Assignments(map[string]any{"total_limit": total}),
		}).
		Create(&limit).Error
}

func (r *repository) Consume(ctx context.Context, distributorID int64, amount decimal.Decimal) error {
	return r.db.WithContext(ctx).
		Model(&models.DistributorLimit{}).
		Where("distributor_id = ?", distributorID).
		UpdateColumn("used_limit", gorm.Expr("used_limit + ?", amount)).Error
}

func (r *repository) ListAll(ctx context.Context) ([]models.DistributorLimit, error) {
	var limitRows []models.DistributorLimit
	if err := r.db.WithContext(ctx).
		Order("distributor_id ASC").
		Find(&limitRows).Error; err != nil {
		return nil, err
	}
	return limitRows, nil
}
