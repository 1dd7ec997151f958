package auth

import (
	"context"
	"time"

	"github.com/gofrs/uuid/v5"

	"incidentdesk/config"
	"incidentdesk/core/store"
)

const SessionCookieName = "incidentdesk_session"

// SessionManager issues and revokes database-backed sessions.
type SessionManager struct {
	sessions store.SessionStore
	ttl      time.Duration
}

func NewSessionManager(sessions store.SessionStore, cfg *config.AppConfig) *SessionManager {
	return &SessionManager{sessions: sessions, ttl: cfg.EffectiveSessionTTL()}
}

func (m *SessionManager) Create(ctx context.Context, user *store.User) (*store.SessionRecord, error) {
	now := time.Now().UTC()
	rec := &store.SessionRecord{
		ID:        uuid.Must(uuid.NewV4()).String(),
		UserID:    user.ID,
		Username:  user.Username,
		Role:      user.Role,
		CreatedAt: now,
		ExpiresAt: now.Add(m.ttl),
	}
	if err := m.sessions.SaveSession(ctx, rec); err != nil {
		return nil, err
	}
	return rec, nil
}

func (m *SessionManager) Get(ctx context.Context, id string) (*store.SessionRecord, error) {
	return m.sessions.GetSession(ctx, id)
}

func (m *SessionManager) Delete(ctx context.Context, id string) error {
	return m.sessions.DeleteSession(ctx, id)
}

func (m *SessionManager) TTL() time.Duration {
	return m.ttl
}
