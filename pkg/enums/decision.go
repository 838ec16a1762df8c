package enums

import "fmt"

// Decision represents the binary outcome an approver can take on a request.
type Decision string

const (
	// DecisionApprove advances the request to the next stage.
	DecisionApprove Decision = "approve"
	// DecisionReject terminates the request.
	DecisionReject Decision = "reject"
)

var validDecisions = []Decision{
	DecisionApprove,
	DecisionReject,
}

// String implements fmt.Stringer.
func (d Decision) String() string {
	return string(d)
}

// IsValid reports whether the value is a known Decision.
func (d Decision) IsValid() bool {
	for _, candidate := range validDecisions {
		if candidate == d {
			return true
		}
	}
	return false
}

// ParseDecision converts raw input into a Decision.
func ParseDecision(value string) (Decision, error) {
	for _, candidate := range validDecisions {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid decision %q", value)
}
