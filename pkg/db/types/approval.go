package types

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"
)

// Approval is a per-stage decision record persisted as JSONB. A NULL column
// means the stage has not decided yet; once written the record is never
// overwritten.
type Approval struct {
	Approved   bool       `json:"approved"`
	ApprovedBy string     `json:"approved_by,omitempty"`
	ApprovedAt *time.Time `json:"approved_at,omitempty"`
	RejectedBy string     `json:"rejected_by,omitempty"`
	RejectedAt *time.Time `json:"rejected_at,omitempty"`
	Reason     string     `json:"reason,omitempty"`
}

// ApprovedBy builds the approval record for an accepting decision.
func ApprovedBy(name string, at time.Time) *Approval {
	return &Approval{Approved: true, ApprovedBy: name, ApprovedAt: &at}
}

// RejectedBy builds the approval record for a rejecting decision.
func RejectedBy(name string, at time.Time, reason string) *Approval {
	return &Approval{Approved: false, RejectedBy: name, RejectedAt: &at, Reason: reason}
}

// Value marshals the record into JSON for Postgres.
func (a Approval) Value() (driver.Value, error) {
	buf, err := json.Marshal(a)
	if err != nil {
		return nil, err
	}
	return buf, nil
}

// Scan decodes JSONB into the record.
func (a *Approval) Scan(value interface{}) error {
	if value == nil {
		return nil
	}

	var raw []byte
	switch v := value.(type) {
	case string:
		raw = []byte(v)
	case []byte:
		raw = v
	default:
		return fmt.Errorf("approval: unsupported scan type %T", value)
	}

	return json.Unmarshal(raw, a)
}
