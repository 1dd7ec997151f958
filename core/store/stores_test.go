package store

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"incidentdesk/config"
	"incidentdesk/core/utils"
)

func setupDB(t *testing.T) *DB {
	t.Helper()
	cfg := &config.AppConfig{
		DBDriver: "sqlite",
		DBPath:   filepath.Join(t.TempDir(), "test.db"),
	}
	logger := utils.NewDiscardLogger()
	db, err := NewDB(cfg, logger)
	if err != nil {
		t.Fatalf("db: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })
	if err := ApplyMigrations(context.Background(), db, cfg.DBDriver, logger); err != nil {
		t.Fatalf("migrations: %v", err)
	}
	return db
}

func TestBindRewritesPlaceholdersForPostgres(t *testing.T) {
	q := `UPDATE incidents SET status=?, priority=? WHERE id=?`
	want := `UPDATE incidents SET status=$1, priority=$2 WHERE id=$3`
	if got := bind(q, true); got != want {
		t.Errorf("bind(rebind) = %q, want %q", got, want)
	}
	if got := bind(q, false); got != q {
		t.Errorf("bind(no rebind) rewrote the query: %q", got)
	}
}

func TestUsersStoreCreateAndFind(t *testing.T) {
	db := setupDB(t)
	users := NewUsersStore(db)
	ctx := context.Background()

	u := &User{Username: "alice", PasswordHash: "h", Email: "alice@example.com"}
	if err := users.Create(ctx, u); err != nil {
		t.Fatalf("create: %v", err)
	}
	if u.ID == "" {
		t.Fatal("id not assigned")
	}
	if u.Role != RoleUser {
		t.Errorf("default role = %q, want %q", u.Role, RoleUser)
	}

	found, err := users.FindByUsername(ctx, "alice")
	if err != nil {
		t.Fatalf("find: %v", err)
	}
	if found == nil || found.ID != u.ID {
		t.Fatalf("find returned %+v", found)
	}

	missing, err := users.FindByUsername(ctx, "nobody")
	if err != nil {
		t.Fatalf("find missing: %v", err)
	}
	if missing != nil {
		t.Error("expected nil for unknown username")
	}
}

func TestSessionStoreExpiry(t *testing.T) {
	db := setupDB(t)
	sessions := NewSessionsStore(db)
	ctx := context.Background()
	now := time.Now().UTC()

	live := &SessionRecord{ID: "live", UserID: "u1", Username: "alice", Role: RoleUser,
		CreatedAt: now, ExpiresAt: now.Add(time.Hour)}
	stale := &SessionRecord{ID: "stale", UserID: "u1", Username: "alice", Role: RoleUser,
		CreatedAt: now.Add(-2 * time.Hour), ExpiresAt: now.Add(-time.Hour)}
	for _, s := range []*SessionRecord{live, stale} {
		if err := sessions.SaveSession(ctx, s); err != nil {
			t.Fatalf("save %s: %v", s.ID, err)
		}
	}

	got, err := sessions.GetSession(ctx, "live")
	if err != nil {
		t.Fatalf("get live: %v", err)
	}
	if got == nil || got.Role != RoleUser {
		t.Fatalf("live session = %+v", got)
	}

	got, err = sessions.GetSession(ctx, "stale")
	if err != nil {
		t.Fatalf("get stale: %v", err)
	}
	if got != nil {
		t.Fatal("expired session should not resolve")
	}

	if err := sessions.DeleteSession(ctx, "live"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	got, _ = sessions.GetSession(ctx, "live")
	if got != nil {
		t.Fatal("deleted session should not resolve")
	}
}
