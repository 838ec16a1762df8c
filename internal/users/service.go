package users

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/incentraworks/incentra-backend/internal/limits"
	"github.com/incentraworks/incentra-backend/pkg/db"
	"github.com/incentraworks/incentra-backend/pkg/db/models"
	"github.com/incentraworks/incentra-backend/pkg/enums"
	pkgerrors "github.com/incentraworks/incentra-backend/pkg/errors"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// Service defines the user directory operations.
type Service interface {
	Create(ctx context.Context, input CreateUserInput) (*models.User, error)
	CreateDistributor(ctx context.Context, input CreateUserInput, totalLimit decimal.Decimal) (*models.User, error)
	Get(ctx context.Context, id int64) (*models.User, error)
	ListByRole(ctx context.Context, role enums.Role) ([]models.User, error)
	AssignDealerToDistributor(ctx context.Context, dealerID, distributorID int64) error
	AwardPoints(ctx context.Context, userID, delta int64) (*models.User, error)
	UpdateProfile(ctx context.Context, userID int64, name, phone string) (*models.User, error)
	Redeem(ctx context.Context, userID int64, rewardName string) (*RedemptionResult, error)
}

type service struct {
	repo       Repository
	limitsRepo limits.Repository
	tx         txRunner
}

// NewService wires the user directory with its dependencies.
func NewService(repo Repository, limitsRepo limits.Repository, tx txRunner) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("users repository required")
	}
	if limitsRepo == nil {
		return nil, fmt.Errorf("limits repository required")
	}
	if tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	return &service{repo: repo, limitsRepo: limitsRepo, tx: tx}, nil
}

func (s *service) Create(ctx context.Context, input CreateUserInput) (*models.User, error) {
	if err := validateCreateInput(input); err != nil {
		return nil, err
	}

	user := input.ToModel()
	if err := s.repo.Create(ctx, user); err != nil {
		if db.IsUniqueViolation(err, "") {
			return nil, pkgerrors.Wrap(pkgerrors.CodeConflict, err, "email already registered")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create user")
	}
	return user, nil
}

// CreateDistributor registers a distributor together with its approval
// ceiling in one transaction, mirroring the company onboarding flow.
func (s *service) CreateDistributor(ctx context.Context, input CreateUserInput, totalLimit decimal.Decimal) (*models.User, error) {
	input.Role = enums.RoleDistributor
	if err := validateCreateInput(input); err != nil {
		return nil, err
	}
	if totalLimit.IsNegative() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "total limit must not be negative")
	}

	user := input.ToModel()
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		if err := s.repo.WithTx(tx).Create(ctx, user); err != nil {
			if db.IsUniqueViolation(err, "") {
				return pkgerrors.Wrap(pkgerrors.CodeConflict, err, "email already registered")
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create distributor")
		}
		if err := s.limitsRepo.WithTx(tx).UpsertTotal(ctx, user.ID, totalLimit); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "set distributor limit")
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return user, nil
}

func (s *service) Get(ctx context.Context, id int64) (*models.User, error) {
	if id <= 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "user id required")
	}
	user, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "user not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load user")
	}
	return user, nil
}

func (s *service) ListByRole(ctx context.Context, role enums.Role) ([]models.User, error) {
	if !role.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid role")
	}
	list, err := s.repo.ListByRole(ctx, role)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list users")
	}
	return list, nil
}

func (s *service) AssignDealerToDistributor(ctx context.Context, dealerID, distributorID int64) error {
	dealer, err := s.Get(ctx, dealerID)
	if err != nil {
		return err
	}
	if dealer.Role != enums.RoleDealer {
		return pkgerrors.New(pkgerrors.CodeNotFound, "dealer not found")
	}

	distributor, err := s.Get(ctx, distributorID)
	if err != nil {
		return err
	}
	if distributor.Role != enums.RoleDistributor {
		return pkgerrors.New(pkgerrors.CodeNotFound, "distributor not found")
	}

	if err := s.repo.SetDistributor(ctx, dealerID, distributorID); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "assign distributor")
	}
	return nil
}

func (s *service) AwardPoints(ctx context.Context, userID, delta int64) (*models.User, error) {
	var updated *models.User
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		user, err := repo.FindByID(ctx, userID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return pkgerrors.New(pkgerrors.CodeNotFound, "user not found")
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load user")
		}
		if user.Points+delta < 0 {
			return pkgerrors.New(pkgerrors.CodeValidation, "points balance cannot go negative")
		}
		if err := repo.AddPoints(ctx, userID, delta); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "award points")
		}
		user.Points += delta
		updated = user
		return nil
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

func (s *service) UpdateProfile(ctx context.Context, userID int64, name, phone string) (*models.User, error) {
	name = strings.TrimSpace(name)
	phone = strings.TrimSpace(phone)
	if name == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "name required")
	}
	if phone == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "phone required")
	}
	if _, err := s.Get(ctx, userID); err != nil {
		return nil, err
	}
	if err := s.repo.UpdateProfile(ctx, userID, name, phone); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update profile")
	}
	return s.Get(ctx, userID)
}

func (s *service) Redeem(ctx context.Context, userID int64, rewardName string) (*RedemptionResult, error) {
	reward, ok := findReward(rewardName)
	if !ok {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "reward not found")
	}

	var result *RedemptionResult
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		user, err := repo.FindByID(ctx, userID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return pkgerrors.New(pkgerrors.CodeNotFound, "user not found")
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load user")
		}
		if user.Role != enums.RoleFabricator {
			return pkgerrors.New(pkgerrors.CodeForbidden, "only fabricators redeem rewards")
		}
		if user.Points < reward.Cost {
			return pkgerrors.New(pkgerrors.CodeValidation, "insufficient points balance").
				WithDetails(map[string]any{"balance": user.Points, "cost": reward.Cost})
		}
		if err := repo.AddPoints(ctx, userID, -reward.Cost); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "debit points")
		}
		result = &RedemptionResult{
			Reward:          reward,
			RemainingPoints: user.Points - reward.Cost,
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

func findReward(name string) (Reward, bool) {
	for _, reward := range RewardCatalog {
		if strings.EqualFold(reward.Name, name) {
			return reward, true
		}
	}
	return Reward{}, false
}

func validateCreateInput(input CreateUserInput) error {
	if strings.TrimSpace(input.Name) == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "name required")
	}
	if strings.TrimSpace(input.Email) == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "email required")
	}
	if strings.TrimSpace(input.Phone) == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "phone required")
	}
	if !input.Role.IsValid() {
		return pkgerrors.New(pkgerrors.CodeValidation, "invalid role")
	}
	return nil
}
