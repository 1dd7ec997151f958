package notify

import (
	"bytes"
	"context"
	"errors"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"incidentdesk/config"
	"incidentdesk/core/store"
	"incidentdesk/core/utils"
)

type fakeSender struct {
	mu      sync.Mutex
	sent    []Message
	failFor map[string]bool
}

func (f *fakeSender) Send(ctx context.Context, msg Message) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failFor[msg.To] {
		return errors.New("smtp boom")
	}
	f.sent = append(f.sent, msg)
	return nil
}

func setupDispatcherDB(t *testing.T) (*store.DB, store.IncidentsStore) {
	t.Helper()
	cfg := &config.AppConfig{
		DBDriver: "sqlite",
		DBPath:   filepath.Join(t.TempDir(), "test.db"),
	}
	logger := utils.NewDiscardLogger()
	db, err := store.NewDB(cfg, logger)
	if err != nil {
		t.Fatalf("db: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })
	if err := store.ApplyMigrations(context.Background(), db, cfg.DBDriver, logger); err != nil {
		t.Fatalf("migrations: %v", err)
	}
	return db, store.NewIncidentsStore(db)
}

func seedIncident(t *testing.T, st store.IncidentsStore, email string, created time.Time) {
	t.Helper()
	inc := &store.Incident{
		ReporterName:  "r",
		ReporterEmail: email,
		IncidentDate:  "2024-06-01",
		DiscoveryDate: "2024-06-01",
		Description:   "d",
		CreatedAt:     created,
	}
	if err := st.CreateIncident(context.Background(), inc); err != nil {
		t.Fatalf("seed incident: %v", err)
	}
}

func reminderRows(t *testing.T, db *store.DB, year int) map[string]string {
	t.Helper()
	rows, err := db.Query(`SELECT email, status FROM annual_reminders WHERE year = ?`, year)
	if err != nil {
		t.Fatalf("query reminders: %v", err)
	}
	defer rows.Close()
	out := map[string]string{}
	for rows.Next() {
		var email, status string
		if err := rows.Scan(&email, &status); err != nil {
			t.Fatalf("scan: %v", err)
		}
		out[email] = status
	}
	return out
}

func TestSweepDeduplicatesAndSkipsInvalid(t *testing.T) {
	db, st := setupDispatcherDB(t)
	mid := time.Date(2024, 6, 15, 10, 0, 0, 0, time.UTC)
	seedIncident(t, st, "Alice@Example.com", mid)
	seedIncident(t, st, "alice@example.com", mid.Add(time.Hour))
	seedIncident(t, st, "N/A", mid)
	seedIncident(t, st, "", mid)
	seedIncident(t, st, "not-an-email", mid)

	sender := &fakeSender{}
	d := NewDispatcher(sender, st, config.NotifyConfig{}, utils.NewDiscardLogger())

	result, err := d.SendAnnualReminders(context.Background(), 2024)
	if err != nil {
		t.Fatalf("sweep: %v", err)
	}
	if result.Sent != 1 {
		t.Errorf("sent = %d, want 1 (deduplicated)", result.Sent)
	}
	if result.Skipped != 3 {
		t.Errorf("skipped = %d, want 3", result.Skipped)
	}
	if result.Failed != 0 {
		t.Errorf("failed = %d, want 0", result.Failed)
	}
	if result.Total != result.Sent+result.Failed+result.Skipped {
		t.Errorf("total %d is not the sum of the buckets", result.Total)
	}
	if len(sender.sent) != 1 || sender.sent[0].To != "alice@example.com" {
		t.Fatalf("sent messages = %+v, want one to alice@example.com", sender.sent)
	}

	rowsByEmail := reminderRows(t, db, 2024)
	if status := rowsByEmail["alice@example.com"]; status != ReminderSent {
		t.Errorf("audit row status = %q, want %q", status, ReminderSent)
	}
	// Invalid addresses never reach the audit table.
	for _, bad := range []string{"n/a", "", "not-an-email"} {
		if _, ok := rowsByEmail[bad]; ok {
			t.Errorf("unexpected audit row for %q", bad)
		}
	}
}

func TestSweepFailureDoesNotStopOthers(t *testing.T) {
	db, st := setupDispatcherDB(t)
	mid := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	seedIncident(t, st, "bad@example.com", mid)
	seedIncident(t, st, "good@example.com", mid)

	sender := &fakeSender{failFor: map[string]bool{"bad@example.com": true}}
	d := NewDispatcher(sender, st, config.NotifyConfig{}, utils.NewDiscardLogger())

	result, err := d.SendAnnualReminders(context.Background(), 2024)
	if err != nil {
		t.Fatalf("sweep: %v", err)
	}
	if result.Sent != 1 || result.Failed != 1 {
		t.Errorf("sent/failed = %d/%d, want 1/1", result.Sent, result.Failed)
	}
	rowsByEmail := reminderRows(t, db, 2024)
	if rowsByEmail["bad@example.com"] != ReminderFailed {
		t.Errorf("bad address status = %q, want failed", rowsByEmail["bad@example.com"])
	}
	if rowsByEmail["good@example.com"] != ReminderSent {
		t.Errorf("good address status = %q, want sent", rowsByEmail["good@example.com"])
	}
}

func TestSweepWithoutSenderRecordsSkipped(t *testing.T) {
	db, st := setupDispatcherDB(t)
	seedIncident(t, st, "alice@example.com", time.Date(2024, 7, 1, 0, 0, 0, 0, time.UTC))

	d := NewDispatcher(nil, st, config.NotifyConfig{}, utils.NewDiscardLogger())
	result, err := d.SendAnnualReminders(context.Background(), 2024)
	if err != nil {
		t.Fatalf("sweep: %v", err)
	}
	if result.Sent != 0 || result.Skipped != 1 {
		t.Errorf("sent/skipped = %d/%d, want 0/1", result.Sent, result.Skipped)
	}
	rowsByEmail := reminderRows(t, db, 2024)
	if rowsByEmail["alice@example.com"] != ReminderSkipped {
		t.Errorf("status = %q, want skipped", rowsByEmail["alice@example.com"])
	}
}

func TestSweepCountsReporterIncidents(t *testing.T) {
	db, st := setupDispatcherDB(t)
	mid := time.Date(2024, 4, 1, 0, 0, 0, 0, time.UTC)
	seedIncident(t, st, "alice@example.com", mid)
	seedIncident(t, st, "ALICE@example.com", mid.Add(time.Hour))
	seedIncident(t, st, "alice@example.com", time.Date(2023, 4, 1, 0, 0, 0, 0, time.UTC))

	d := NewDispatcher(&fakeSender{}, st, config.NotifyConfig{}, utils.NewDiscardLogger())
	if _, err := d.SendAnnualReminders(context.Background(), 2024); err != nil {
		t.Fatalf("sweep: %v", err)
	}
	var count int
	err := db.QueryRow(`SELECT incident_count FROM annual_reminders WHERE email = ? AND year = ?`,
		"alice@example.com", 2024).Scan(&count)
	if err != nil {
		t.Fatalf("query: %v", err)
	}
	if count != 2 {
		t.Errorf("incident_count = %d, want 2 (same year only, case-insensitive)", count)
	}
}

func TestIncidentCreatedWithoutOfficerLogsAndNoops(t *testing.T) {
	_, st := setupDispatcherDB(t)
	sender := &fakeSender{}
	var logBuf bytes.Buffer
	d := NewDispatcher(sender, st, config.NotifyConfig{}, utils.NewLoggerTo(&logBuf))
	d.IncidentCreated(&store.Incident{ID: "x", Priority: store.PriorityMedium})
	time.Sleep(50 * time.Millisecond)
	sender.mu.Lock()
	defer sender.mu.Unlock()
	if len(sender.sent) != 0 {
		t.Errorf("sent = %d, want 0 without an officer address", len(sender.sent))
	}
	if !strings.Contains(logBuf.String(), "no privacy officer address configured") {
		t.Errorf("missing skip log line, got %q", logBuf.String())
	}
}
