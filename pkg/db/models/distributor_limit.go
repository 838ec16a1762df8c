package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// DistributorLimit tracks a distributor's company-assigned approval ceiling
// and its consumption. UsedLimit only ever grows; administrative edits to
// TotalLimit may leave the record over-committed, which is accepted.
type DistributorLimit struct {
	DistributorID int64           `gorm:"column:distributor_id;primaryKey" json:"distributor_id"`
	TotalLimit    decimal.Decimal `gorm:"type:numeric(14,2);not null;default:0" json:"total_limit"`
	UsedLimit     decimal.Decimal `gorm:"type:numeric(14,2);not null;default:0" json:"used_limit"`
	CreatedAt     time.Time       `gorm:"column:created_at;autoCreateTime" json:"created_at"`
	UpdatedAt     time.Time       `gorm:"column:updated_at;autoUpdateTime" json:"updated_at"`
}

// TableName pins the table name used by migrations.
func (DistributorLimit) TableName() string {
	return "distributor_limits"
}

// Available returns the remaining approvable capacity. It can go negative
// after an administrative total reduction.
func (l DistributorLimit) Available() decimal.Decimal {
	return l.TotalLimit.Sub(l.UsedLimit)
}
