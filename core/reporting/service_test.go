package reporting

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"incidentdesk/config"
	"incidentdesk/core/store"
	"incidentdesk/core/utils"
)

func setupReporting(t *testing.T) (*Service, store.IncidentsStore) {
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
	st := store.NewIncidentsStore(db)
	return NewService(st), st
}

func seed(t *testing.T, st store.IncidentsStore, status, priority string, phi, ocrRequired bool, ocrDate string, created time.Time) {
	t.Helper()
	inc := &store.Incident{
		ReporterName:      "r",
		IncidentDate:      "2024-01-01",
		DiscoveryDate:     "2024-01-01",
		Description:       "d",
		Status:            status,
		Priority:          priority,
		PHIInvolved:       phi,
		OCRReportRequired: ocrRequired,
		OCRReportDate:     ocrDate,
		CreatedAt:         created,
	}
	if err := st.CreateIncident(context.Background(), inc); err != nil {
		t.Fatalf("seed: %v", err)
	}
}

func TestStats(t *testing.T) {
	svc, st := setupReporting(t)
	ts := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)
	seed(t, st, store.StatusReported, store.PriorityMedium, true, false, "", ts)
	seed(t, st, store.StatusReported, store.PriorityCritical, false, true, "", ts)
	seed(t, st, store.StatusInvestigating, store.PriorityHigh, true, true, "2024-06-10", ts)
	seed(t, st, store.StatusResolved, store.PriorityLow, false, false, "", ts)
	seed(t, st, store.StatusReportedToOCR, store.PriorityCritical, true, true, "2024-07-01", ts)

	stats, err := svc.Stats(context.Background())
	if err != nil {
		t.Fatalf("stats: %v", err)
	}
	if stats.TotalIncidents != 5 {
		t.Errorf("total = %d, want 5", stats.TotalIncidents)
	}
	if stats.Reported != 2 || stats.Investigating != 1 || stats.Contained != 0 ||
		stats.Resolved != 1 || stats.ReportedToOCR != 1 {
		t.Errorf("status counts = %+v", stats)
	}
	if stats.Critical != 2 {
		t.Errorf("critical = %d, want 2", stats.Critical)
	}
	if stats.PHIInvolved != 3 {
		t.Errorf("phi = %d, want 3", stats.PHIInvolved)
	}
	// Pending means the OCR report is required and its filing date is still
	// blank; an incident with a filed date stays out of this count no matter
	// what status it carries.
	if stats.PendingOCRReport != 1 {
		t.Errorf("pending ocr = %d, want 1", stats.PendingOCRReport)
	}
}

func TestAnnualReport(t *testing.T) {
	svc, st := setupReporting(t)
	in2024 := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	seed(t, st, store.StatusReported, store.PriorityMedium, true, false, "", in2024)
	seed(t, st, store.StatusResolved, store.PriorityHigh, false, true, "", in2024.Add(time.Hour))
	seed(t, st, store.StatusReportedToOCR, store.PriorityCritical, true, true, "2024-04-01", in2024.Add(2*time.Hour))
	// Filed with OCR while the investigation is still open: counts as
	// reported, not pending.
	seed(t, st, store.StatusInvestigating, store.PriorityMedium, false, true, "2024-05-01", in2024.Add(3*time.Hour))
	seed(t, st, store.StatusReported, store.PriorityLow, false, false, "", time.Date(2025, 1, 2, 0, 0, 0, 0, time.UTC))

	report, err := svc.Annual(context.Background(), 2024)
	if err != nil {
		t.Fatalf("annual: %v", err)
	}
	if report.TotalIncidents != 4 {
		t.Fatalf("total = %d, want 4 (2025 incident excluded)", report.TotalIncidents)
	}
	if report.ByStatus[store.StatusReported] != 1 || report.ByStatus[store.StatusResolved] != 1 ||
		report.ByStatus[store.StatusInvestigating] != 1 {
		t.Errorf("by_status = %v", report.ByStatus)
	}
	if report.ByPriority[store.PriorityCritical] != 1 {
		t.Errorf("by_priority = %v", report.ByPriority)
	}
	if report.PHIInvolved != 2 || report.OCRRequired != 3 || report.OCRReported != 2 {
		t.Errorf("phi/ocr = %d/%d/%d, want 2/3/2", report.PHIInvolved, report.OCRRequired, report.OCRReported)
	}
	for i := 1; i < len(report.Incidents); i++ {
		if report.Incidents[i].CreatedAt.After(report.Incidents[i-1].CreatedAt) {
			t.Fatal("annual report incidents not newest-first")
		}
	}
}
