package limits

import (
	"context"
	"testing"

	"github.com/incentraworks/incentra-backend/pkg/db/models"
	pkgerrors "github.com/incentraworks/incentra-backend/pkg/errors"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

type stubLimitsRepo struct {
	rows    map[int64]*models.DistributorLimit
	upserts []int64
}

func newStubLimitsRepo() *stubLimitsRepo {
	return &stubLimitsRepo{rows: map[int64]*models.DistributorLimit{}}
}

func (s *stubLimitsRepo) WithTx(tx *gorm.DB) Repository {
	return s
}

func (s *stubLimitsRepo) Find(ctx context.Context, distributorID int64) (*models.DistributorLimit, error) {
	row, ok := s.rows[distributorID]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	copied := *row
	return &copied, nil
}

func (s *stubLimitsRepo) FindForUpdate(ctx context.Context, distributorID int64) (*models.DistributorLimit, error) {
	return s.Find(ctx, distributorID)
}

func (s *stubLimitsRepo) UpsertTotal(ctx context.Context, distributorID int64, total decimal.Decimal) error {
	s.upserts = append(s.upserts, distributorID)
	if row, ok := s.rows[distributorID]; ok {
		row.TotalLimit = total
		return nil
	}
	s.rows[distributorID] = &models.DistributorLimit{
		DistributorID: distributorID,
		TotalLimit:    total,
		UsedLimit:     decimal.Zero,
	}
	return nil
}

func (s *stubLimitsRepo) Consume(ctx context.Context, distributorID int64, amount decimal.Decimal) error {
	row, ok := s.rows[distributorID]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	row.UsedLimit = row.UsedLimit.Add(amount)
	return nil
}

func (s *stubLimitsRepo) ListAll(ctx context.Context) ([]models.DistributorLimit, error) {
	out := make([]models.DistributorLimit, 0, len(s.rows))
	for _, row := range s.rows {
		out = append(out, *row)
	}
	return out, nil
}

func TestGetDefaultsToZeroLimits(t *testing.T) {
	svc, err := NewService(newStubLimitsRepo())
	require.NoError(t, err)

	limit, err := svc.Get(context.Background(), 3)
	require.NoError(t, err)
	assert.True(t, limit.TotalLimit.IsZero())
	assert.True(t, limit.UsedLimit.IsZero())
	assert.True(t, limit.Available().IsZero())
}

func TestAvailableSubtractsUsed(t *testing.T) {
	repo := newStubLimitsRepo()
	repo.rows[3] = &models.DistributorLimit{
		DistributorID: 3,
		TotalLimit:    decimal.NewFromInt(10_000),
		UsedLimit:     decimal.NewFromInt(2_500),
	}
	svc, err := NewService(repo)
	require.NoError(t, err)

	available, err := svc.Available(context.Background(), 3)
	require.NoError(t, err)
	assert.True(t, available.Equal(decimal.NewFromInt(7_500)))
}

func TestSetTotalPreservesUsed(t *testing.T) {
	repo := newStubLimitsRepo()
	repo.rows[3] = &models.DistributorLimit{
		DistributorID: 3,
		TotalLimit:    decimal.NewFromInt(10_000),
		UsedLimit:     decimal.NewFromInt(9_000),
	}
	svc, err := NewService(repo)
	require.NoError(t, err)

	limit, err := svc.SetTotal(context.Background(), 3, decimal.NewFromInt(5_000))
	require.NoError(t, err)
	assert.True(t, limit.TotalLimit.Equal(decimal.NewFromInt(5_000)))
	assert.True(t, limit.UsedLimit.Equal(decimal.NewFromInt(9_000)))
	// Administrative reductions may leave the record over-committed.
	assert.True(t, limit.Available().IsNegative())
}

func TestSetTotalRejectsNegative(t *testing.T) {
	svc, err := NewService(newStubLimitsRepo())
	require.NoError(t, err)

	_, err = svc.SetTotal(context.Background(), 3, decimal.NewFromInt(-1))
	require.Error(t, err)
	typed := pkgerrors.As(err)
	require.NotNil(t, typed)
	assert.Equal(t, pkgerrors.CodeValidation, typed.Code())
}

func TestGetRejectsMissingID(t *testing.T) {
	svc, err := NewService(newStubLimitsRepo())
	require.NoError(t, err)

	_, err = svc.Get(context.Background(), 0)
	require.Error(t, err)
	typed := pkgerrors.As(err)
	require.NotNil(t, typed)
	assert.Equal(t, pkgerrors.CodeValidation, typed.Code())
}
