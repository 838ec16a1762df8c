package enums

import "fmt"

// RequestStatus represents the canonical request_status enum in Postgres.
// Statuses advance along pending_dealer -> pending_distributor ->
// pending_company -> approved; rejected is terminal from any pending state.
type RequestStatus string

const (
	RequestStatusPendingDealer      RequestStatus = "pending_dealer"
	RequestStatusPendingDistributor RequestStatus = "pending_distributor"
	RequestStatusPendingCompany     RequestStatus = "pending_company"
	RequestStatusApproved           RequestStatus = "approved"
	RequestStatusRejected           RequestStatus = "rejected"
)

var validRequestStatuses = []RequestStatus{
	RequestStatusPendingDealer,
	RequestStatusPendingDistributor,
	RequestStatusPendingCompany,
	RequestStatusApproved,
	RequestStatusRejected,
}

// String implements fmt.Stringer.
func (s RequestStatus) String() string {
	return string(s)
}

// IsValid reports whether the value is a known RequestStatus.
func (s RequestStatus) IsValid() bool {
	for _, candidate := range validRequestStatuses {
		if candidate == s {
			return true
		}
	}
	return false
}

// IsTerminal reports whether no further transition can leave this status.
func (s RequestStatus) IsTerminal() bool {
	return s == RequestStatusApproved || s == RequestStatusRejected
}

// ParseRequestStatus converts raw input into a RequestStatus.
func ParseRequestStatus(value string) (RequestStatus, error) {
	for _, candidate := range validRequestStatuses {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid request status %q", value)
}
