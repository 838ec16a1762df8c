package models

import (
	"time"

	"github.com/incentraworks/incentra-backend/pkg/enums"
)

// Notification is an in-app message created alongside a workflow transition.
type Notification struct {
	ID        int64                  `gorm:"primaryKey;autoIncrement" json:"id"`
	UserID    int64                  `gorm:"column:user_id;not null;index" json:"user_id"`
	RequestID *int64                 `gorm:"column:request_id" json:"request_id,omitempty"`
	Kind      enums.NotificationKind `gorm:"type:text;not null" json:"kind"`
	Title     string                 `gorm:"type:text;not null" json:"title"`
	Body      string                 `gorm:"type:text;not null" json:"body"`
	ReadAt    *time.Time             `gorm:"column:read_at" json:"read_at,omitempty"`
	CreatedAt time.Time              `gorm:"column:created_at;autoCreateTime" json:"created_at"`
}

// TableName pins the table name used by migrations.
func (Notification) TableName() string {
	return "notifications"
}
