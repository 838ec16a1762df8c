package notifications

import (
	"context"
	"fmt"
	"time"

	"github.com/incentraworks/incentra-backend/pkg/db/models"
	"github.com/incentraworks/incentra-backend/pkg/enums"
	pkgerrors "github.com/incentraworks/incentra-backend/pkg/errors"
	"github.com/incentraworks/incentra-backend/pkg/pagination"
	"gorm.io/gorm"
)

// Note is the payload recorded alongside a workflow transition.
type Note struct {
	UserID    int64
	RequestID *int64
	Kind      enums.NotificationKind
	Title     string
	Body      string
}

// ListInput filters a user's notification feed.
type ListInput struct {
	UserID     int64
	Params     pagination.Params
	UnreadOnly bool
}

// ListResult carries a page of notifications plus the next cursor.
type ListResult struct {
	Notifications []models.Notification `json:"notifications"`
	NextCursor    string                `json:"next_cursor,omitempty"`
}

// Service defines the notification operations.
type Service interface {
	// Record writes a notification inside the caller's transaction so the
	// message commits or rolls back with the transition that produced it.
	Record(ctx context.Context, tx *gorm.DB, note Note) error
	List(ctx context.Context, input ListInput) (*ListResult, error)
	MarkRead(ctx context.Context, userID, notificationID int64) error
	MarkAllRead(ctx context.Context, userID int64) (int64, error)
}

type service struct {
	repo Repository
	now  func() time.Time
}

// NewService wires a notifications service with the provided repository.
func NewService(repo Repository) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("notifications repository required")
	}
	return &service{repo: repo, now: time.Now}, nil
}

func (s *service) Record(ctx context.Context, tx *gorm.DB, note Note) error {
	if note.UserID <= 0 {
		return pkgerrors.New(pkgerrors.CodeValidation, "notification recipient required")
	}
	if !note.Kind.IsValid() {
		return pkgerrors.New(pkgerrors.CodeValidation, "invalid notification kind")
	}
	record := &models.Notification{
		UserID:    note.UserID,
		RequestID: note.RequestID,
		Kind:      note.Kind,
		Title:     note.Title,
		Body:      note.Body,
	}
	if err := s.repo.WithTx(tx).Create(ctx, record); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "record notification")
	}
	return nil
}

func (s *service) List(ctx context.Context, input ListInput) (*ListResult, error) {
	if input.UserID <= 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "user id required")
	}

	cursor, err := pagination.ParseCursor(input.Params.Cursor)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid cursor")
	}

	rows, next, err := s.repo.List(ctx, listParams{
		UserID:     input.UserID,
		Limit:      input.Params.Limit,
		Cursor:     cursor,
		UnreadOnly: input.UnreadOnly,
	})
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list notifications")
	}

	result := &ListResult{Notifications: rows}
	if next != nil {
		result.NextCursor = pagination.EncodeCursor(*next)
	}
	return result, nil
}

func (s *service) MarkRead(ctx context.Context, userID, notificationID int64) error {
	if userID <= 0 || notificationID <= 0 {
		return pkgerrors.New(pkgerrors.CodeValidation, "user and notification ids required")
	}
	res, err := s.repo.MarkRead(ctx, userID, notificationID, s.now().UTC())
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "mark notification read")
	}
	if !res.Found {
		return pkgerrors.New(pkgerrors.CodeNotFound, "notification not found")
	}
	return nil
}

func (s *service) MarkAllRead(ctx context.Context, userID int64) (int64, error) {
	if userID <= 0 {
		return 0, pkgerrors.New(pkgerrors.CodeValidation, "user id required")
	}
	count, err := s.repo.MarkAllRead(ctx, userID, s.now().UTC())
	if err != nil {
		return 0, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "mark all notifications read")
	}
	return count, nil
}
