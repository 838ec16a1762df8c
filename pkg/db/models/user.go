package models

import (
	"time"

	"github.com/incentraworks/incentra-backend/pkg/enums"
)

// User represents the canonical identity entity for all four workflow roles.
// Points are only meaningful for fabricators; DistributorID is the default
// dealer->distributor mapping and only meaningful for dealers.
type User struct {
	ID            int64      `gorm:"primaryKey;autoIncrement" json:"id"`
	Name          string     `gorm:"type:text;not null" json:"name"`
	Email         string     `gorm:"type:text;not null;uniqueIndex" json:"email"`
	Phone         string     `gorm:"type:text;not null" json:"phone"`
	Role          enums.Role `gorm:"type:text;not null" json:"role"`
	Points        int64      `gorm:"not null;default:0" json:"points"`
	DistributorID *int64     `gorm:"column:distributor_id" json:"distributor_id,omitempty"`
	CreatedAt     time.Time  `gorm:"column:created_at;autoCreateTime" json:"created_at"`
	UpdatedAt     time.Time  `gorm:"column:updated_at;autoUpdateTime" json:"updated_at"`
}

// TableName pins the table name used by migrations.
func (User) TableName() string {
	return "users"
}
