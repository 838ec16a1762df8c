package enums

import "fmt"

// NotificationKind classifies workflow notifications.
type NotificationKind string

const (
	NotificationRequestSubmitted NotificationKind = "request_submitted"
	NotificationRequestForwarded NotificationKind = "request_forwarded"
	NotificationRequestApproved  NotificationKind = "request_approved"
	NotificationRequestRejected  NotificationKind = "request_rejected"
	NotificationPointsAwarded    NotificationKind = "points_awarded"
)

var validNotificationKinds = []NotificationKind{
	NotificationRequestSubmitted,
	NotificationRequestForwarded,
	NotificationRequestApproved,
	NotificationRequestRejected,
	NotificationPointsAwarded,
}

// String implements fmt.Stringer.
func (k NotificationKind) String() string {
	return string(k)
}

// IsValid reports whether the value is a known NotificationKind.
func (k NotificationKind) IsValid() bool {
	for _, candidate := range validNotificationKinds {
		if candidate == k {
			return true
		}
	}
	return false
}

// ParseNotificationKind converts raw input into a NotificationKind.
func ParseNotificationKind(value string) (NotificationKind, error) {
	for _, candidate := range validNotificationKinds {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid notification kind %q", value)
}
