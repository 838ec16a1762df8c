package requests

import (
	"github.com/incentraworks/incentra-backend/pkg/db/models"
	"github.com/incentraworks/incentra-backend/pkg/enums"
	"github.com/incentraworks/incentra-backend/pkg/pagination"
	"github.com/shopspring/decimal"
)

// Actor identifies the caller of a transition. Identity is supplied by the
// upstream auth collaborator; the core only uses it for authorization and
// attribution.
type Actor struct {
	ID   int64
	Role enums.Role
	Name string
}

// SubmitInput carries a fabricator's new reimbursement request.
type SubmitInput struct {
	Actor          Actor
	DealerID       int64
	InvoiceNumber  string
	ProductDetails string
	Amount         decimal.Decimal
}

// DealerDecisionInput resolves the first approval stage. On approve the
// distributor is taken from DistributorID when set, otherwise looked up by
// contact phone, otherwise from the dealer's default mapping.
type DealerDecisionInput struct {
	Actor            Actor
	RequestID        int64
	Decision         enums.Decision
	DistributorID    *int64
	DistributorPhone string
	Reason           string
}

// DistributorDecisionInput resolves the second approval stage.
type DistributorDecisionInput struct {
	Actor     Actor
	RequestID int64
	Decision  enums.Decision
	Reason    string
}

// CompanyDecisionInput resolves the final approval stage.
type CompanyDecisionInput struct {
	Actor     Actor
	RequestID int64
	Decision  enums.Decision
	Reason    string
}

// ListInput scopes and filters a request listing. Ownership is derived from
// the actor's role: fabricators see their submissions, dealers and
// distributors the requests routed to them, and the company sees everything.
type ListInput struct {
	Actor  Actor
	Status *enums.RequestStatus
	Search string
	Params pagination.Params
}

// ListResult carries a page of requests plus the next cursor.
type ListResult struct {
	Requests   []models.IncentiveRequest `json:"requests"`
	NextCursor string                    `json:"next_cursor,omitempty"`
}
