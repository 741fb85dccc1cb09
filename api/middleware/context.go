package middleware

import (
	"context"

	"github.com/google/uuid"

	"github.com/wholesaledesk/ordering-backend/pkg/db/models"
)

type ctxKey int

const (
	subjectKey ctxKey = iota
	userKey
)

// WithSubject records the user id a verified token names.
func WithSubject(ctx context.Context, userID uuid.UUID) context.Context {
	return context.WithValue(ctx, subjectKey, userID)
}

// SubjectFromContext returns the token subject, if a token was verified.
func SubjectFromContext(ctx context.Context) (uuid.UUID, bool) {
	id, ok := ctx.Value(subjectKey).(uuid.UUID)
	return id, ok && id != uuid.Nil
}

// WithUser stores the caller row for downstream handlers.
func WithUser(ctx context.Context, user *models.User) context.Context {
	return context.WithValue(ctx, userKey, user)
}

// UserFromContext returns the caller row loaded for this request, or nil.
func UserFromContext(ctx context.Context) *models.User {
	user, _ := ctx.Value(userKey).(*models.User)
	return user
}
