package requests

import (
	"context"
	"testing"
	"time"

	"github.com/incentraworks/incentra-backend/internal/limits"
	"github.com/incentraworks/incentra-backend/internal/notifications"
	"github.com/incentraworks/incentra-backend/internal/users"
	"github.com/incentraworks/incentra-backend/pkg/db/models"
	"github.com/incentraworks/incentra-backend/pkg/enums"
	pkgerrors "github.com/incentraworks/incentra-backend/pkg/errors"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

type stubRequestsRepo struct {
	rows       map[int64]*models.IncentiveRequest
	nextID     int64
	lastFilter *ListFilter
}

func newStubRequestsRepo() *stubRequestsRepo {
	return &stubRequestsRepo{rows: map[int64]*models.IncentiveRequest{}, nextID: 1}
}

func (s *stubRequestsRepo) WithTx(tx *gorm.DB) Repository { return s }

func (s *stubRequestsRepo) Create(ctx context.Context, req *models.IncentiveRequest) error {
	req.ID = s.nextID
	s.nextID++
	req.CreatedAt = time.Now()
	copied := *req
	s.rows[req.ID] = &copied
	return nil
}

func (s *stubRequestsRepo) FindByID(ctx context.Context, id int64) (*models.IncentiveRequest, error) {
	row, ok := s.rows[id]
	if !ok {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "incentive request not found")
	}
	copied := *row
	return &copied, nil
}

func (s *stubRequestsRepo) FindByIDForUpdate(ctx context.Context, id int64) (*models.IncentiveRequest, error) {
	return s.FindByID(ctx, id)
}

func (s *stubRequestsRepo) Update(ctx context.Context, req *models.IncentiveRequest) error {
	copied := *req
	s.rows[req.ID] = &copied
	return nil
}

func (s *stubRequestsRepo) List(ctx context.Context, filter ListFilter) ([]models.IncentiveRequest, error) {
	s.lastFilter = &filter
	out := make([]models.IncentiveRequest, 0, len(s.rows))
	for _, row := range s.rows {
		out = append(out, *row)
	}
	return out, nil
}

type stubUsersRepo struct {
	rows   map[int64]*models.User
	points map[int64]int64
}

func newStubUsersRepo(seed ...*models.User) *stubUsersRepo {
	s := &stubUsersRepo{rows: map[int64]*models.User{}, points: map[int64]int64{}}
	for _, u := range seed {
		s.rows[u.ID] = u
	}
	return s
}

func (s *stubUsersRepo) WithTx(tx *gorm.DB) users.Repository { return s }

func (s *stubUsersRepo) Create(ctx context.Context, user *models.User) error {
	s.rows[user.ID] = user
	return nil
}

func (s *stubUsersRepo) FindByID(ctx context.Context, id int64) (*models.User, error) {
	row, ok := s.rows[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	copied := *row
	return &copied, nil
}

func (s *stubUsersRepo) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	for _, row := range s.rows {
		if row.Email == email {
			copied := *row
			return &copied, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (s *stubUsersRepo) FindByPhoneAndRole(ctx context.Context, phone string, role enums.Role) (*models.User, error) {
	for _, row := range s.rows {
		if row.Phone == phone && row.Role == role {
			copied := *row
			return &copied, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (s *stubUsersRepo) FindOneByRole(ctx context.Context, role enums.Role) (*models.User, error) {
	for _, row := range s.rows {
		if row.Role == role {
			copied := *row
			return &copied, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (s *stubUsersRepo) ListByRole(ctx context.Context, role enums.Role) ([]models.User, error) {
	var out []models.User
	for _, row := range s.rows {
		if row.Role == role {
			out = append(out, *row)
		}
	}
	return out, nil
}

func (s *stubUsersRepo) AddPoints(ctx context.Context, id int64, delta int64) error {
	s.points[id] += delta
	if row, ok := s.rows[id]; ok {
		row.Points += delta
	}
	return nil
}

func (s *stubUsersRepo) SetDistributor(ctx context.Context, dealerID, distributorID int64) error {
	if row, ok := s.rows[dealerID]; ok {
		row.DistributorID = &distributorID
	}
	return nil
}

func (s *stubUsersRepo) UpdateProfile(ctx context.Context, id int64, name, phone string) error {
	if row, ok := s.rows[id]; ok {
		row.Name = name
		row.Phone = phone
	}
	return nil
}

type stubLimitsRepo struct {
	rows map[int64]*models.DistributorLimit
}

func newStubLimitsRepo() *stubLimitsRepo {
	return &stubLimitsRepo{rows: map[int64]*models.DistributorLimit{}}
}

func (s *stubLimitsRepo) WithTx(tx *gorm.DB) limits.Repository { return s }

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

type stubNotifier struct {
	notes []notifications.Note
}

func (s *stubNotifier) Record(ctx context.Context, tx *gorm.DB, note notifications.Note) error {
	s.notes = append(s.notes, note)
	return nil
}

func (s *stubNotifier) List(ctx context.Context, input notifications.ListInput) (*notifications.ListResult, error) {
	return &notifications.ListResult{}, nil
}

func (s *stubNotifier) MarkRead(ctx context.Context, userID, notificationID int64) error {
	return nil
}

func (s *stubNotifier) MarkAllRead(ctx context.Context, userID int64) (int64, error) {
	return 0, nil
}

func (s *stubNotifier) sentTo(userID int64) []notifications.Note {
	var out []notifications.Note
	for _, note := range s.notes {
		if note.UserID == userID {
			out = append(out, note)
		}
	}
	return out
}

type stubTx struct{}

func (stubTx) WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error {
	return fn(nil)
}

type fixture struct {
	svc       Service
	repo      *stubRequestsRepo
	usersRepo *stubUsersRepo
	limits    *stubLimitsRepo
	notifier  *stubNotifier

	fabricator  Actor
	dealer      Actor
	distributor Actor
	company     Actor
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	distributorID := int64(3)
	f := &fixture{
		repo:     newStubRequestsRepo(),
		limits:   newStubLimitsRepo(),
		notifier: &stubNotifier{},

		fabricator:  Actor{ID: 1, Role: enums.RoleFabricator, Name: "Asha Patel"},
		dealer:      Actor{ID: 2, Role: enums.RoleDealer, Name: "Marco Reyes"},
		distributor: Actor{ID: 3, Role: enums.RoleDistributor, Name: "Northline Supply"},
		company:     Actor{ID: 4, Role: enums.RoleCompany, Name: "Incentra"},
	}
	f.usersRepo = newStubUsersRepo(
		&models.User{ID: 1, Name: "Asha Patel", Role: enums.RoleFabricator},
		&models.User{ID: 2, Name: "Marco Reyes", Role: enums.RoleDealer, Phone: "555-0102", DistributorID: &distributorID},
		&models.User{ID: 3, Name: "Northline Supply", Role: enums.RoleDistributor, Phone: "555-0103"},
		&models.User{ID: 4, Name: "Incentra", Role: enums.RoleCompany},
	)
	require.NoError(t, f.limits.UpsertTotal(context.Background(), 3, decimal.NewFromInt(10000)))

	svc, err := NewService(f.repo, f.usersRepo, f.limits, f.notifier, stubTx{}, nil)
	require.NoError(t, err)
	f.svc = svc
	return f
}

func (f *fixture) submit(t *testing.T, amount string) *models.IncentiveRequest {
	t.Helper()
	req, err := f.svc.Submit(context.Background(), SubmitInput{
		Actor:          f.fabricator,
		DealerID:       f.dealer.ID,
		InvoiceNumber:  "INV-1001",
		ProductDetails: "50x premium laminate sheets",
		Amount:         decimal.RequireFromString(amount),
	})
	require.NoError(t, err)
	return req
}

func (f *fixture) advanceToCompany(t *testing.T, amount string) *models.IncentiveRequest {
	t.Helper()
	req := f.submit(t, amount)

	req, err := f.svc.DealerDecision(context.Background(), DealerDecisionInput{
		Actor:         f.dealer,
		RequestID:     req.ID,
		Decision:      enums.DecisionApprove,
		DistributorID: &f.distributor.ID,
	})
	require.NoError(t, err)

	req, err = f.svc.DistributorDecision(context.Background(), DistributorDecisionInput{
		Actor:     f.distributor,
		RequestID: req.ID,
		Decision:  enums.DecisionApprove,
	})
	require.NoError(t, err)
	return req
}

func assertCode(t *testing.T, err error, code pkgerrors.Code) {
	t.Helper()
	require.Error(t, err)
	appErr := pkgerrors.As(err)
	require.NotNil(t, appErr, "expected typed error, got %v", err)
	assert.Equal(t, code, appErr.Code())
}

func TestSubmitCreatesPendingDealerRequest(t *testing.T) {
	f := newFixture(t)

	req := f.submit(t, "1500.00")

	assert.Equal(t, enums.RequestStatusPendingDealer, req.Status)
	assert.Equal(t, "Asha Patel", req.FabricatorName)
	assert.Equal(t, "Marco Reyes", req.DealerName)
	assert.Nil(t, req.DistributorID)
	assert.Zero(t, req.Points)

	notes := f.notifier.sentTo(f.dealer.ID)
	require.Len(t, notes, 1)
	assert.Equal(t, enums.NotificationRequestSubmitted, notes[0].Kind)
}

func TestSubmitValidation(t *testing.T) {
	f := newFixture(t)

	_, err := f.svc.Submit(context.Background(), SubmitInput{
		Actor:          f.fabricator,
		DealerID:       f.dealer.ID,
		InvoiceNumber:  "INV-1",
		ProductDetails: "sheets",
		Amount:         decimal.Zero,
	})
	assertCode(t, err, pkgerrors.CodeValidation)

	_, err = f.svc.Submit(context.Background(), SubmitInput{
		Actor:          f.fabricator,
		DealerID:       999,
		InvoiceNumber:  "INV-1",
		ProductDetails: "sheets",
		Amount:         decimal.NewFromInt(100),
	})
	assertCode(t, err, pkgerrors.CodeNotFound)

	_, err = f.svc.Submit(context.Background(), SubmitInput{
		Actor:          f.dealer,
		DealerID:       f.dealer.ID,
		InvoiceNumber:  "INV-1",
		ProductDetails: "sheets",
		Amount:         decimal.NewFromInt(100),
	})
	assertCode(t, err, pkgerrors.CodeForbidden)
}

func TestDealerApproveForwardsToDistributor(t *testing.T) {
	f := newFixture(t)
	req := f.submit(t, "1500.00")

	req, err := f.svc.DealerDecision(context.Background(), DealerDecisionInput{
		Actor:         f.dealer,
		RequestID:     req.ID,
		Decision:      enums.DecisionApprove,
		DistributorID: &f.distributor.ID,
	})
	require.NoError(t, err)

	assert.Equal(t, enums.RequestStatusPendingDistributor, req.Status)
	require.NotNil(t, req.DealerApproval)
	assert.True(t, req.DealerApproval.Approved)
	assert.Equal(t, "Marco Reyes", req.DealerApproval.ApprovedBy)
	require.NotNil(t, req.DistributorID)
	assert.Equal(t, f.distributor.ID, *req.DistributorID)
	require.NotNil(t, req.DistributorName)
	assert.Equal(t, "Northline Supply", *req.DistributorName)

	notes := f.notifier.sentTo(f.distributor.ID)
	require.Len(t, notes, 1)
	assert.Equal(t, enums.NotificationRequestForwarded, notes[0].Kind)
}

func TestDealerApproveResolvesDistributorByPhone(t *testing.T) {
	f := newFixture(t)
	req := f.submit(t, "500.00")

	req, err := f.svc.DealerDecision(context.Background(), DealerDecisionInput{
		Actor:            f.dealer,
		RequestID:        req.ID,
		Decision:         enums.DecisionApprove,
		DistributorPhone: "555-0103",
	})
	require.NoError(t, err)
	require.NotNil(t, req.DistributorID)
	assert.Equal(t, f.distributor.ID, *req.DistributorID)
}

func TestDealerApproveFallsBackToDefaultDistributor(t *testing.T) {
	f := newFixture(t)
	req := f.submit(t, "500.00")

	req, err := f.svc.DealerDecision(context.Background(), DealerDecisionInput{
		Actor:     f.dealer,
		RequestID: req.ID,
		Decision:  enums.DecisionApprove,
	})
	require.NoError(t, err)
	require.NotNil(t, req.DistributorID)
	assert.Equal(t, f.distributor.ID, *req.DistributorID)
}

func TestDealerDecisionWrongOwner(t *testing.T) {
	f := newFixture(t)
	req := f.submit(t, "500.00")

	otherDealer := Actor{ID: 77, Role: enums.RoleDealer, Name: "Someone Else"}
	_, err := f.svc.DealerDecision(context.Background(), DealerDecisionInput{
		Actor:     otherDealer,
		RequestID: req.ID,
		Decision:  enums.DecisionApprove,
	})
	assertCode(t, err, pkgerrors.CodeForbidden)
}

func TestDealerRejectIsTerminal(t *testing.T) {
	f := newFixture(t)
	req := f.submit(t, "500.00")

	req, err := f.svc.DealerDecision(context.Background(), DealerDecisionInput{
		Actor:     f.dealer,
		RequestID: req.ID,
		Decision:  enums.DecisionReject,
		Reason:    "invoice does not match delivery",
	})
	require.NoError(t, err)
	assert.Equal(t, enums.RequestStatusRejected, req.Status)
	require.NotNil(t, req.DealerApproval)
	assert.False(t, req.DealerApproval.Approved)
	assert.Equal(t, "invoice does not match delivery", req.DealerApproval.Reason)

	notes := f.notifier.sentTo(f.fabricator.ID)
	require.Len(t, notes, 1)
	assert.Equal(t, enums.NotificationRequestRejected, notes[0].Kind)

	// A second decision on a terminal request is refused.
	_, err = f.svc.DealerDecision(context.Background(), DealerDecisionInput{
		Actor:     f.dealer,
		RequestID: req.ID,
		Decision:  enums.DecisionApprove,
	})
	assertCode(t, err, pkgerrors.CodeStateConflict)
}

func TestDistributorApproveAtExactLimitBoundary(t *testing.T) {
	f := newFixture(t)
	req := f.submit(t, "10000.00")

	req, err := f.svc.DealerDecision(context.Background(), DealerDecisionInput{
		Actor:         f.dealer,
		RequestID:     req.ID,
		Decision:      enums.DecisionApprove,
		DistributorID: &f.distributor.ID,
	})
	require.NoError(t, err)

	// Amount exactly equal to the available limit passes the check.
	req, err = f.svc.DistributorDecision(context.Background(), DistributorDecisionInput{
		Actor:     f.distributor,
		RequestID: req.ID,
		Decision:  enums.DecisionApprove,
	})
	require.NoError(t, err)
	assert.Equal(t, enums.RequestStatusPendingCompany, req.Status)
}

func TestDistributorApproveAssignsCompany(t *testing.T) {
	f := newFixture(t)

	req := f.advanceToCompany(t, "2500.00")

	require.NotNil(t, req.CompanyID)
	assert.Equal(t, f.company.ID, *req.CompanyID)
	require.NotNil(t, req.CompanyName)
	assert.Equal(t, f.company.Name, *req.CompanyName)

	stored, err := f.repo.FindByID(context.Background(), req.ID)
	require.NoError(t, err)
	require.NotNil(t, stored.CompanyID)
	assert.Equal(t, f.company.ID, *stored.CompanyID)
}

func TestDistributorApproveInsufficientLimit(t *testing.T) {
	f := newFixture(t)
	req := f.submit(t, "10000.01")

	req, err := f.svc.DealerDecision(context.Background(), DealerDecisionInput{
		Actor:         f.dealer,
		RequestID:     req.ID,
		Decision:      enums.DecisionApprove,
		DistributorID: &f.distributor.ID,
	})
	require.NoError(t, err)

	_, err = f.svc.DistributorDecision(context.Background(), DistributorDecisionInput{
		Actor:     f.distributor,
		RequestID: req.ID,
		Decision:  enums.DecisionApprove,
	})
	assertCode(t, err, pkgerrors.CodeInsufficientLimit)

	// The request is left untouched so it can be retried after a limit raise.
	stored, err := f.repo.FindByID(context.Background(), req.ID)
	require.NoError(t, err)
	assert.Equal(t, enums.RequestStatusPendingDistributor, stored.Status)
	assert.Nil(t, stored.DistributorApproval)
}

func TestCompanyApproveAwardsPointsAndConsumesLimit(t *testing.T) {
	f := newFixture(t)
	req := f.advanceToCompany(t, "1599.90")

	req, err := f.svc.CompanyDecision(context.Background(), CompanyDecisionInput{
		Actor:     f.company,
		RequestID: req.ID,
		Decision:  enums.DecisionApprove,
	})
	require.NoError(t, err)

	assert.Equal(t, enums.RequestStatusApproved, req.Status)
	assert.Equal(t, int64(159), req.Points)
	require.NotNil(t, req.CompanyApproval)
	assert.True(t, req.CompanyApproval.Approved)
	require.NotNil(t, req.CompanyName)
	assert.Equal(t, "Incentra", *req.CompanyName)

	assert.Equal(t, int64(159), f.usersRepo.points[f.fabricator.ID])

	limit, err := f.limits.Find(context.Background(), f.distributor.ID)
	require.NoError(t, err)
	assert.True(t, limit.UsedLimit.Equal(decimal.RequireFromString("1599.90")))

	notes := f.notifier.sentTo(f.fabricator.ID)
	require.Len(t, notes, 2)
	assert.Equal(t, enums.NotificationRequestApproved, notes[0].Kind)
	assert.Equal(t, enums.NotificationPointsAwarded, notes[1].Kind)
}

func TestCompanyApproveRechecksLimitUnderLock(t *testing.T) {
	f := newFixture(t)
	req := f.advanceToCompany(t, "6000.00")

	// Another approval consumed the limit after the distributor's advisory
	// check passed.
	require.NoError(t, f.limits.Consume(context.Background(), f.distributor.ID, decimal.NewFromInt(5000)))

	_, err := f.svc.CompanyDecision(context.Background(), CompanyDecisionInput{
		Actor:     f.company,
		RequestID: req.ID,
		Decision:  enums.DecisionApprove,
	})
	assertCode(t, err, pkgerrors.CodeInsufficientLimit)

	stored, err := f.repo.FindByID(context.Background(), req.ID)
	require.NoError(t, err)
	assert.Equal(t, enums.RequestStatusPendingCompany, stored.Status)
	assert.Zero(t, stored.Points)

	limit, err := f.limits.Find(context.Background(), f.distributor.ID)
	require.NoError(t, err)
	assert.True(t, limit.UsedLimit.Equal(decimal.NewFromInt(5000)))
	assert.Zero(t, f.usersRepo.points[f.fabricator.ID])
}

func TestCompanyRejectLeavesLimitAndPointsUntouched(t *testing.T) {
	f := newFixture(t)
	req := f.advanceToCompany(t, "2000.00")

	req, err := f.svc.CompanyDecision(context.Background(), CompanyDecisionInput{
		Actor:     f.company,
		RequestID: req.ID,
		Decision:  enums.DecisionReject,
		Reason:    "budget freeze",
	})
	require.NoError(t, err)

	assert.Equal(t, enums.RequestStatusRejected, req.Status)
	assert.Zero(t, req.Points)
	require.NotNil(t, req.CompanyApproval)
	assert.Equal(t, "budget freeze", req.CompanyApproval.Reason)

	limit, err := f.limits.Find(context.Background(), f.distributor.ID)
	require.NoError(t, err)
	assert.True(t, limit.UsedLimit.IsZero())
	assert.Zero(t, f.usersRepo.points[f.fabricator.ID])
}

func TestCompanyDecisionRequiresCompanyRole(t *testing.T) {
	f := newFixture(t)
	req := f.advanceToCompany(t, "100.00")

	_, err := f.svc.CompanyDecision(context.Background(), CompanyDecisionInput{
		Actor:     f.distributor,
		RequestID: req.ID,
		Decision:  enums.DecisionApprove,
	})
	assertCode(t, err, pkgerrors.CodeForbidden)
}

func TestDecisionOutOfOrder(t *testing.T) {
	f := newFixture(t)
	req := f.submit(t, "100.00")

	_, err := f.svc.DistributorDecision(context.Background(), DistributorDecisionInput{
		Actor:     f.distributor,
		RequestID: req.ID,
		Decision:  enums.DecisionApprove,
	})
	// Still pending the dealer, so the distributor is not assigned yet.
	assertCode(t, err, pkgerrors.CodeForbidden)

	_, err = f.svc.CompanyDecision(context.Background(), CompanyDecisionInput{
		Actor:     f.company,
		RequestID: req.ID,
		Decision:  enums.DecisionApprove,
	})
	assertCode(t, err, pkgerrors.CodeStateConflict)
}

func TestPointsForFloorsToWholePoints(t *testing.T) {
	cases := []struct {
		amount string
		want   int64
	}{
		{"100.00", 10},
		{"99.99", 9},
		{"9.99", 0},
		{"1234.56", 123},
		{"0.01", 0},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, PointsFor(decimal.RequireFromString(tc.amount)), "amount %s", tc.amount)
	}
}

func TestListScopesByRole(t *testing.T) {
	f := newFixture(t)
	f.submit(t, "100.00")

	_, err := f.svc.List(context.Background(), ListInput{Actor: f.fabricator})
	require.NoError(t, err)
	require.NotNil(t, f.repo.lastFilter.FabricatorID)
	assert.Equal(t, f.fabricator.ID, *f.repo.lastFilter.FabricatorID)

	_, err = f.svc.List(context.Background(), ListInput{Actor: f.distributor})
	require.NoError(t, err)
	require.NotNil(t, f.repo.lastFilter.DistributorID)
	assert.Nil(t, f.repo.lastFilter.FabricatorID)

	_, err = f.svc.List(context.Background(), ListInput{Actor: f.company})
	require.NoError(t, err)
	assert.Nil(t, f.repo.lastFilter.FabricatorID)
	assert.Nil(t, f.repo.lastFilter.DealerID)
	assert.Nil(t, f.repo.lastFilter.DistributorID)
}

func TestGetVisibility(t *testing.T) {
	f := newFixture(t)
	req := f.submit(t, "100.00")

	got, err := f.svc.Get(context.Background(), f.fabricator, req.ID)
	require.NoError(t, err)
	assert.Equal(t, req.ID, got.ID)

	_, err = f.svc.Get(context.Background(), f.distributor, req.ID)
	assertCode(t, err, pkgerrors.CodeForbidden)

	_, err = f.svc.Get(context.Background(), f.company, req.ID)
	require.NoError(t, err)
}
