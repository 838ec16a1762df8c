package requests

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	pkgerrors "github.com/incentraworks/incentra-backend/pkg/errors"

	"github.com/incentraworks/incentra-backend/internal/limits"
	"github.com/incentraworks/incentra-backend/internal/notifications"
	"github.com/incentraworks/incentra-backend/internal/users"
	"github.com/incentraworks/incentra-backend/pkg/db/models"
	dbtypes "github.com/incentraworks/incentra-backend/pkg/db/types"
	"github.com/incentraworks/incentra-backend/pkg/enums"
	"github.com/incentraworks/incentra-backend/pkg/metrics"
	"github.com/incentraworks/incentra-backend/pkg/pagination"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// pointsRate is the reward accrual applied once, at final approval.
var pointsRate = decimal.NewFromFloat(0.10)

const (
	stageDealer      = "dealer"
	stageDistributor = "distributor"
	stageCompany     = "company"
)

// Service drives the incentive request lifecycle: submission by a
// fabricator, then approval or rejection at the dealer, distributor, and
// company stages in that order. Points and limit consumption only happen at
// the final stage.
type Service interface {
	Submit(ctx context.Context, input SubmitInput) (*models.IncentiveRequest, error)
	DealerDecision(ctx context.Context, input DealerDecisionInput) (*models.IncentiveRequest, error)
	DistributorDecision(ctx context.Context, input DistributorDecisionInput) (*models.IncentiveRequest, error)
	CompanyDecision(ctx context.Context, input CompanyDecisionInput) (*models.IncentiveRequest, error)
	Get(ctx context.Context, actor Actor, id int64) (*models.IncentiveRequest, error)
	List(ctx context.Context, input ListInput) (*ListResult, error)
}

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type service struct {
	repo       Repository
	usersRepo  users.Repository
	limitsRepo limits.Repository
	notifier   notifications.Service
	tx         txRunner
	metrics    *metrics.DecisionMetrics
	now        func() time.Time
}

// NewService wires the request workflow service. Metrics may be nil.
func NewService(
	repo Repository,
	usersRepo users.Repository,
	limitsRepo limits.Repository,
	notifier notifications.Service,
	tx txRunner,
	m *metrics.DecisionMetrics,
) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("requests service: repository is required")
	}
	if usersRepo == nil {
		return nil, fmt.Errorf("requests service: users repository is required")
	}
	if limitsRepo == nil {
		return nil, fmt.Errorf("requests service: limits repository is required")
	}
	if notifier == nil {
		return nil, fmt.Errorf("requests service: notifier is required")
	}
	if tx == nil {
		return nil, fmt.Errorf("requests service: tx runner is required")
	}
	return &service{
		repo:       repo,
		usersRepo:  usersRepo,
		limitsRepo: limitsRepo,
		notifier:   notifier,
		tx:         tx,
		metrics:    m,
		now:        time.Now,
	}, nil
}

// PointsFor computes the reward for an approved amount: 10% rounded down to
// a whole point.
func PointsFor(amount decimal.Decimal) int64 {
	return amount.Mul(pointsRate).Floor().IntPart()
}

func (s *service) Submit(ctx context.Context, input SubmitInput) (*models.IncentiveRequest, error) {
	if input.Actor.Role != enums.RoleFabricator {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "only fabricators can submit requests")
	}
	if !input.Amount.IsPositive() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "amount must be greater than zero")
	}
	if strings.TrimSpace(input.InvoiceNumber) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invoice number required")
	}
	if strings.TrimSpace(input.ProductDetails) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "product details required")
	}

	dealer, err := s.usersRepo.FindByID(ctx, input.DealerID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "dealer not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load dealer")
	}
	if dealer.Role != enums.RoleDealer {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "dealer not found")
	}

	req := &models.IncentiveRequest{
		FabricatorID:   input.Actor.ID,
		FabricatorName: input.Actor.Name,
		DealerID:       dealer.ID,
		DealerName:     dealer.Name,
		InvoiceNumber:  strings.TrimSpace(input.InvoiceNumber),
		ProductDetails: strings.TrimSpace(input.ProductDetails),
		Amount:         input.Amount,
		Status:         enums.RequestStatusPendingDealer,
	}

	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		if err := s.repo.WithTx(tx).Create(ctx, req); err != nil {
			return err
		}
		return s.notifier.Record(ctx, tx, notifications.Note{
			UserID:    dealer.ID,
			RequestID: &req.ID,
			Kind:      enums.NotificationRequestSubmitted,
			Title:     "New incentive request",
			Body:      fmt.Sprintf("%s submitted invoice %s for review", req.FabricatorName, req.InvoiceNumber),
		})
	})
	if err != nil {
		return nil, err
	}

	s.metrics.IncSubmitted()
	return req, nil
}

func (s *service) DealerDecision(ctx context.Context, input DealerDecisionInput) (*models.IncentiveRequest, error) {
	started := s.now()
	if !input.Decision.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid decision")
	}

	var updated *models.IncentiveRequest
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		req, err := repo.FindByIDForUpdate(ctx, input.RequestID)
		if err != nil {
			return err
		}
		if req.DealerID != input.Actor.ID {
			return pkgerrors.New(pkgerrors.CodeForbidden, "request is not assigned to this dealer")
		}
		if err := requireStatus(req, enums.RequestStatusPendingDealer); err != nil {
			return err
		}

		at := s.now()
		if input.Decision == enums.DecisionReject {
			req.DealerApproval = dbtypes.RejectedBy(input.Actor.Name, at, input.Reason)
			req.Status = enums.RequestStatusRejected
			if err := repo.Update(ctx, req); err != nil {
				return err
			}
			updated = req
			return s.notifyRejection(ctx, tx, req, "dealer", input.Reason)
		}

		distributor, err := s.resolveDistributor(ctx, input)
		if err != nil {
			return err
		}
		req.DealerApproval = dbtypes.ApprovedBy(input.Actor.Name, at)
		req.DistributorID = &distributor.ID
		req.DistributorName = &distributor.Name
		req.Status = enums.RequestStatusPendingDistributor
		if err := repo.Update(ctx, req); err != nil {
			return err
		}
		updated = req
		return s.notifier.Record(ctx, tx, notifications.Note{
			UserID:    distributor.ID,
			RequestID: &req.ID,
			Kind:      enums.NotificationRequestForwarded,
			Title:     "Incentive request forwarded",
			Body:      fmt.Sprintf("%s forwarded invoice %s for your review", input.Actor.Name, req.InvoiceNumber),
		})
	})
	if err != nil {
		return nil, err
	}

	s.metrics.ObserveDuration(stageDealer, s.now().Sub(started))
	s.metrics.IncDecision(stageDealer, input.Decision.String())
	return updated, nil
}

// resolveDistributor picks the next approver: an explicit id wins, then a
// contact phone lookup, then the dealer's default distributor mapping.
func (s *service) resolveDistributor(ctx context.Context, input DealerDecisionInput) (*models.User, error) {
	if input.DistributorID != nil {
		distributor, err := s.usersRepo.FindByID(ctx, *input.DistributorID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, pkgerrors.New(pkgerrors.CodeNotFound, "distributor not found")
			}
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load distributor")
		}
		if distributor.Role != enums.RoleDistributor {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "distributor not found")
		}
		return distributor, nil
	}

	if phone := strings.TrimSpace(input.DistributorPhone); phone != "" {
		distributor, err := s.usersRepo.FindByPhoneAndRole(ctx, phone, enums.RoleDistributor)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, pkgerrors.New(pkgerrors.CodeNotFound, "no distributor with that phone number")
			}
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "lookup distributor by phone")
		}
		return distributor, nil
	}

	dealer, err := s.usersRepo.FindByID(ctx, input.Actor.ID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load dealer")
	}
	if dealer.DistributorID == nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "no distributor specified and dealer has no default distributor")
	}
	distributor, err := s.usersRepo.FindByID(ctx, *dealer.DistributorID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "distributor not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load distributor")
	}
	return distributor, nil
}

func (s *service) DistributorDecision(ctx context.Context, input DistributorDecisionInput) (*models.IncentiveRequest, error) {
	started := s.now()
	if !input.Decision.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid decision")
	}

	var updated *models.IncentiveRequest
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		req, err := repo.FindByIDForUpdate(ctx, input.RequestID)
		if err != nil {
			return err
		}
		if req.DistributorID == nil || *req.DistributorID != input.Actor.ID {
			return pkgerrors.New(pkgerrors.CodeForbidden, "request is not assigned to this distributor")
		}
		if err := requireStatus(req, enums.RequestStatusPendingDistributor); err != nil {
			return err
		}

		at := s.now()
		if input.Decision == enums.DecisionReject {
			req.DistributorApproval = dbtypes.RejectedBy(input.Actor.Name, at, input.Reason)
			req.Status = enums.RequestStatusRejected
			if err := repo.Update(ctx, req); err != nil {
				return err
			}
			updated = req
			return s.notifyRejection(ctx, tx, req, "distributor", input.Reason)
		}

		// Advisory check only. The limit is not reserved here: the final
		// consume happens under a row lock at the company stage.
		limit, err := s.limitsRepo.WithTx(tx).Find(ctx, input.Actor.ID)
		if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load distributor limit")
		}
		available := decimal.Zero
		if limit != nil {
			available = limit.Available()
		}
		if req.Amount.GreaterThan(available) {
			s.metrics.IncLimitShortfall()
			return pkgerrors.New(pkgerrors.CodeInsufficientLimit, "request amount exceeds available limit").
				WithDetails(map[string]string{
					"amount":    req.Amount.StringFixed(2),
					"available": available.StringFixed(2),
				})
		}

		company, err := s.usersRepo.FindOneByRole(ctx, enums.RoleCompany)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return pkgerrors.New(pkgerrors.CodeDependency, "no company account configured")
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load company account")
		}

		req.DistributorApproval = dbtypes.ApprovedBy(input.Actor.Name, at)
		req.CompanyID = &company.ID
		req.CompanyName = &company.Name
		req.Status = enums.RequestStatusPendingCompany
		if err := repo.Update(ctx, req); err != nil {
			return err
		}
		updated = req
		return s.notifier.Record(ctx, tx, notifications.Note{
			UserID:    company.ID,
			RequestID: &req.ID,
			Kind:      enums.NotificationRequestForwarded,
			Title:     "Incentive request awaiting final approval",
			Body:      fmt.Sprintf("%s cleared invoice %s for final approval", input.Actor.Name, req.InvoiceNumber),
		})
	})
	if err != nil {
		return nil, err
	}

	s.metrics.ObserveDuration(stageDistributor, s.now().Sub(started))
	s.metrics.IncDecision(stageDistributor, input.Decision.String())
	return updated, nil
}

func (s *service) CompanyDecision(ctx context.Context, input CompanyDecisionInput) (*models.IncentiveRequest, error) {
	started := s.now()
	if !input.Decision.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid decision")
	}
	if input.Actor.Role != enums.RoleCompany {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "only the company can make the final decision")
	}

	var updated *models.IncentiveRequest
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		req, err := repo.FindByIDForUpdate(ctx, input.RequestID)
		if err != nil {
			return err
		}
		if err := requireStatus(req, enums.RequestStatusPendingCompany); err != nil {
			return err
		}

		at := s.now()
		req.CompanyID = &input.Actor.ID
		req.CompanyName = &input.Actor.Name

		if input.Decision == enums.DecisionReject {
			req.CompanyApproval = dbtypes.RejectedBy(input.Actor.Name, at, input.Reason)
			req.Status = enums.RequestStatusRejected
			if err := repo.Update(ctx, req); err != nil {
				return err
			}
			updated = req
			return s.notifyRejection(ctx, tx, req, "company", input.Reason)
		}

		if req.DistributorID == nil {
			return pkgerrors.New(pkgerrors.CodeStateConflict, "request has no distributor assigned")
		}

		// Lock the limit row and recompute availability before consuming, so
		// concurrent approvals against the same distributor cannot overdraw.
		limit, err := s.limitsRepo.WithTx(tx).FindForUpdate(ctx, *req.DistributorID)
		if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "lock distributor limit")
		}
		available := decimal.Zero
		if limit != nil {
			available = limit.Available()
		}
		if req.Amount.GreaterThan(available) {
			s.metrics.IncLimitShortfall()
			return pkgerrors.New(pkgerrors.CodeInsufficientLimit, "distributor limit exhausted").
				WithDetails(map[string]string{
					"amount":    req.Amount.StringFixed(2),
					"available": available.StringFixed(2),
				})
		}
		if err := s.limitsRepo.WithTx(tx).Consume(ctx, *req.DistributorID, req.Amount); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "consume distributor limit")
		}

		points := PointsFor(req.Amount)
		if points > 0 {
			if err := s.usersRepo.WithTx(tx).AddPoints(ctx, req.FabricatorID, points); err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "award points")
			}
		}

		req.CompanyApproval = dbtypes.ApprovedBy(input.Actor.Name, at)
		req.Status = enums.RequestStatusApproved
		req.Points = points
		if err := repo.Update(ctx, req); err != nil {
			return err
		}
		updated = req

		if err := s.notifier.Record(ctx, tx, notifications.Note{
			UserID:    req.FabricatorID,
			RequestID: &req.ID,
			Kind:      enums.NotificationRequestApproved,
			Title:     "Incentive request approved",
			Body:      fmt.Sprintf("Invoice %s was approved for %s", req.InvoiceNumber, req.Amount.StringFixed(2)),
		}); err != nil {
			return err
		}
		if points > 0 {
			return s.notifier.Record(ctx, tx, notifications.Note{
				UserID:    req.FabricatorID,
				RequestID: &req.ID,
				Kind:      enums.NotificationPointsAwarded,
				Title:     "Points awarded",
				Body:      fmt.Sprintf("You earned %d points for invoice %s", points, req.InvoiceNumber),
			})
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.metrics.ObserveDuration(stageCompany, s.now().Sub(started))
	s.metrics.IncDecision(stageCompany, input.Decision.String())
	return updated, nil
}

func (s *service) Get(ctx context.Context, actor Actor, id int64) (*models.IncentiveRequest, error) {
	req, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !canView(actor, req) {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "request is not visible to this user")
	}
	return req, nil
}

func (s *service) List(ctx context.Context, input ListInput) (*ListResult, error) {
	filter := ListFilter{
		Status: input.Status,
		Search: strings.TrimSpace(input.Search),
		Limit:  pagination.LimitWithBuffer(input.Params.Limit),
	}
	switch input.Actor.Role {
	case enums.RoleFabricator:
		filter.FabricatorID = &input.Actor.ID
	case enums.RoleDealer:
		filter.DealerID = &input.Actor.ID
	case enums.RoleDistributor:
		filter.DistributorID = &input.Actor.ID
	case enums.RoleCompany:
		// Company sees all requests.
	default:
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "unknown role")
	}

	if input.Params.Cursor != "" {
		cursor, err := pagination.ParseCursor(input.Params.Cursor)
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid cursor")
		}
		filter.Cursor = cursor
	}

	reqs, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, err
	}

	result := &ListResult{Requests: reqs}
	pageSize := pagination.NormalizeLimit(input.Params.Limit)
	if len(reqs) > pageSize {
		result.Requests = reqs[:pageSize]
		last := result.Requests[pageSize-1]
		result.NextCursor = pagination.EncodeCursor(pagination.Cursor{
			CreatedAt: last.CreatedAt,
			ID:        last.ID,
		})
	}
	return result, nil
}

// requireStatus enforces the stage precondition. A terminal request gets a
// distinct message since no further decisions are possible at all.
func requireStatus(req *models.IncentiveRequest, want enums.RequestStatus) error {
	if req.Status == want {
		return nil
	}
	if req.Status.IsTerminal() {
		return pkgerrors.New(pkgerrors.CodeStateConflict,
			fmt.Sprintf("request already %s", req.Status))
	}
	return pkgerrors.New(pkgerrors.CodeStateConflict,
		fmt.Sprintf("request is %s, expected %s", req.Status, want))
}

func (s *service) notifyRejection(ctx context.Context, tx *gorm.DB, req *models.IncentiveRequest, stage, reason string) error {
	body := fmt.Sprintf("Invoice %s was rejected at the %s stage", req.InvoiceNumber, stage)
	if reason != "" {
		body += ": " + reason
	}
	return s.notifier.Record(ctx, tx, notifications.Note{
		UserID:    req.FabricatorID,
		RequestID: &req.ID,
		Kind:      enums.NotificationRequestRejected,
		Title:     "Incentive request rejected",
		Body:      body,
	})
}

func canView(actor Actor, req *models.IncentiveRequest) bool {
	switch actor.Role {
	case enums.RoleCompany:
		return true
	case enums.RoleFabricator:
		return req.FabricatorID == actor.ID
	case enums.RoleDealer:
		return req.DealerID == actor.ID
	case enums.RoleDistributor:
		return req.DistributorID != nil && *req.DistributorID == actor.ID
	}
	return false
}
