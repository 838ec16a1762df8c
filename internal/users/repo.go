package users

import (
	"context"

	"github.com/incentraworks/incentra-backend/pkg/db/models"
	"github.com/incentraworks/incentra-backend/pkg/enums"
	"gorm.io/gorm"
)

// Repository exposes user-directory persistence operations.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Create(ctx context.Context, user *models.User) error
	FindByID(ctx context.Context, id int64) (*models.User, error)
	FindByEmail(ctx context.Context, email string) (*models.User, error)
	FindByPhoneAndRole(ctx context.Context, phone string, role enums.Role) (*models.User, error)
	FindOneByRole(ctx context.Context, role enums.Role) (*models.User, error)
	ListByRole(ctx context.Context, role enums.Role) ([]models.User, error)
	AddPoints(ctx context.Context, id int64, delta int64) error
	SetDistributor(ctx context.Context, dealerID, distributorID int64) error
	UpdateProfile(ctx context.Context, id int64, name, phone string) error
}

type repository struct {
	db *gorm.DB
}

// NewRepository constructs a users repo bound to the provided GORM DB.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) Create(ctx context.Context, user *models.User) error {
	return r.db.WithContext(ctx).Create(user).Error
}

func (r *repository) FindByID(ctx context.Context, id int64) (*models.User, error) {
	var user models.User
	if err := r.db.WithContext(ctx).First(&user, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

func (r *repository) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	var user models.User
	if err := r.db.WithContext(ctx).Where("email = ?", email).First(&user).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

func (r *repository) FindByPhoneAndRole(ctx context.Context, phone string, role enums.Role) (*models.User, error) {
	var user models.User
	if err := r.db.WithContext(ctx).
		Where("phone = ? AND role = ?", phone, role).
		First(&user).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

func (r *repository) FindOneByRole(ctx context.Context, role enums.Role) (*models.User, error) {
	var user models.User
	if err := r.db.WithContext(ctx).
		Where("role = ?", role).
		Order("id ASC").
		First(&user).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

func (r *repository) ListByRole(ctx context.Context, role enums.Role) ([]models.User, error) {
	var list []models.User
	if err := r.db.WithContext(ctx).
		Where("role = ?", role).
		Order("id ASC").
		Find(&list).Error; err != nil {
		return nil, err
	}
	return list, nil
}

func (r *repository) AddPoints(ctx context.Context, id int64, delta int64) error {
	return r.db.WithContext(ctx).
		Model(&models.User{}).
		Where("id = ?", id).
		UpdateColumn("points", gorm.Expr("points + ?", delta)).Error
}

func (r *repository) SetDistributor(ctx context.Context, dealerID, distributorID int64) error {
	return r.db.WithContext(ctx).
		Model(&models.User{}).
		Where("id = ?", dealerID).
		UpdateColumn("distributor_id", distributorID).Error
}

func (r *repository) UpdateProfile(ctx context.Context, id int64, name, phone string) error {
	return r.db.WithContext(ctx).
		Model(&models.User{}).
		Where("id = ?", id).
		Updates(map[string]any{"name": name, "phone": phone}).Error
}
