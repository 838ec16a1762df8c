package models

import (
	"time"

	dbtypes "github.com/incentraworks/incentra-backend/pkg/db/types"
	"github.com/incentraworks/incentra-backend/pkg/enums"
	"github.com/shopspring/decimal"
)

// IncentiveRequest is the single source of truth for a reimbursement request
// moving through the dealer -> distributor -> company approval chain.
//
// Actor names are denormalized on purpose: they snapshot the name at the time
// of the action rather than referencing the live user record.
type IncentiveRequest struct {
	ID int64 `gorm:"primaryKey;autoIncrement" json:"id"`

	FabricatorID   int64  `gorm:"column:fabricator_id;not null" json:"fabricator_id"`
	FabricatorName string `gorm:"column:fabricator_name;not null" json:"fabricator_name"`
	DealerID       int64  `gorm:"column:dealer_id;not null" json:"dealer_id"`
	DealerName     string `gorm:"column:dealer_name;not null" json:"dealer_name"`

	DistributorID   *int64  `gorm:"column:distributor_id" json:"distributor_id,omitempty"`
	DistributorName *string `gorm:"column:distributor_name" json:"distributor_name,omitempty"`
	CompanyID       *int64  `gorm:"column:company_id" json:"company_id,omitempty"`
	CompanyName     *string `gorm:"column:company_name" json:"company_name,omitempty"`

	InvoiceNumber  string          `gorm:"column:invoice_number;not null" json:"invoice_number"`
	ProductDetails string          `gorm:"column:product_details;not null" json:"product_details"`
	Amount         decimal.Decimal `gorm:"type:numeric(14,2);not null" json:"amount"`

	Status enums.RequestStatus `gorm:"type:text;not null" json:"status"`
	Points int64               `gorm:"not null;default:0" json:"points"`

	DealerApproval      *dbtypes.Approval `gorm:"column:dealer_approval;type:jsonb" json:"dealer_approval,omitempty"`
	DistributorApproval *dbtypes.Approval `gorm:"column:distributor_approval;type:jsonb" json:"distributor_approval,omitempty"`
	CompanyApproval     *dbtypes.Approval `gorm:"column:company_approval;type:jsonb" json:"company_approval,omitempty"`

	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"column:updated_at;autoUpdateTime" json:"updated_at"`
}

// TableName pins the table name used by migrations.
func (IncentiveRequest) TableName() string {
	return "incentive_requests"
}
