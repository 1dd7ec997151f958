package auth

import (
	"context"

	"incidentdesk/core/store"
)

type contextKey string

const sessionContextKey contextKey = "session"

func WithSession(ctx context.Context, rec *store.SessionRecord) context.Context {
	return context.WithValue(ctx, sessionContextKey, rec)
}

func SessionFromContext(ctx context.Context) *store.SessionRecord {
	rec, _ := ctx.Value(sessionContextKey).(*store.SessionRecord)
	return rec
}
