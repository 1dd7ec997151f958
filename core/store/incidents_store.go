package store

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"github.com/gofrs/uuid/v5"
)

const (
	StatusReported      = "reported"
	StatusInvestigating = "investigating"
	StatusContained     = "contained"
	StatusResolved      = "resolved"
	StatusReportedToOCR = "reported_to_ocr"
)

const (
	PriorityLow      = "low"
	PriorityMedium   = "medium"
	PriorityHigh     = "high"
	PriorityCritical = "critical"
)

func IncidentStatuses() []string {
	return []string{StatusReported, StatusInvestigating, StatusContained, StatusResolved, StatusReportedToOCR}
}

func IncidentPriorities() []string {
	return []string{PriorityLow, PriorityMedium, PriorityHigh, PriorityCritical}
}

type Incident struct {
	ID                    string     `json:"id"`
	ReporterName          string     `json:"reporter_name"`
	ReporterEmail         string     `json:"reporter_email,omitempty"`
	ReporterPhone         string     `json:"reporter_phone,omitempty"`
	ReporterRole          string     `json:"reporter_role,omitempty"`
	IncidentDate          string     `json:"incident_date"`
	DiscoveryDate         string     `json:"discovery_date"`
	Description           string     `json:"description"`
	Location              string     `json:"location,omitempty"`
	PHIInvolved           bool       `json:"phi_involved"`
	PHITypes              string     `json:"phi_types,omitempty"`
	IndividualsAffected   string     `json:"individuals_affected,omitempty"`
	BreachType            string     `json:"breach_type,omitempty"`
	BreachCause           string     `json:"breach_cause,omitempty"`
	Status                string     `json:"status"`
	Priority              string     `json:"priority"`
	ContainmentActions    string     `json:"containment_actions,omitempty"`
	CorrectiveActions     string     `json:"corrective_actions,omitempty"`
	PreventiveMeasures    string     `json:"preventive_measures,omitempty"`
	OCRReportRequired     bool       `json:"ocr_report_required"`
	OCRReportDate         string     `json:"ocr_report_date,omitempty"`
	OCRConfirmationNumber string     `json:"ocr_confirmation_number,omitempty"`
	NotifiedIndividuals   bool       `json:"notified_individuals"`
	NotifiedHHS           bool       `json:"notified_hhs"`
	NotifiedMedia         bool       `json:"notified_media"`
	CreatedAt             time.Time  `json:"created_at"`
	UpdatedAt             time.Time  `json:"updated_at"`
	ResolvedAt            *time.Time `json:"resolved_at,omitempty"`
}

type IncidentNote struct {
	ID         string    `json:"id"`
	IncidentID string    `json:"incident_id"`
	UserID     string    `json:"user_id,omitempty"`
	Note       string    `json:"note"`
	CreatedAt  time.Time `json:"created_at"`
}

type IncidentDocument struct {
	ID         string    `json:"id"`
	IncidentID string    `json:"incident_id"`
	Name       string    `json:"name"`
	FileName   string    `json:"file_name"`
	FileSize   string    `json:"file_size,omitempty"`
	UploadedAt time.Time `json:"uploaded_at"`
}

type AnnualReminder struct {
	ID            string    `json:"id"`
	Email         string    `json:"email"`
	Year          int       `json:"year"`
	Status        string    `json:"status"`
	IncidentCount int       `json:"incident_count"`
	SentAt        time.Time `json:"sent_at"`
}

// IncidentFilter applies optional equality filters; a zero value means no
// constraint on that field.
type IncidentFilter struct {
	Status   string
	Priority string
}

type IncidentsStore interface {
	CreateIncident(ctx context.Context, incident *Incident) error
	GetIncident(ctx context.Context, id string) (*Incident, error)
	UpdateIncident(ctx context.Context, incident *Incident) error
	// DeleteIncident removes the incident and its notes and documents in a
	// single transaction. ErrNotFound when the id is unknown.
	DeleteIncident(ctx context.Context, id string) error
	ListIncidents(ctx context.Context, filter IncidentFilter) ([]Incident, error)
	ListIncidentsByYear(ctx context.Context, year int) ([]Incident, error)

	CreateIncidentNote(ctx context.Context, note *IncidentNote) error
	GetIncidentNote(ctx context.Context, id string) (*IncidentNote, error)
	ListIncidentNotes(ctx context.Context, incidentID string) ([]IncidentNote, error)

	CreateIncidentDocument(ctx context.Context, doc *IncidentDocument) error
	GetIncidentDocument(ctx context.Context, id string) (*IncidentDocument, error)
	ListIncidentDocuments(ctx context.Context, incidentID string) ([]IncidentDocument, error)
	DeleteIncidentDocument(ctx context.Context, id string) error

	CreateAnnualReminder(ctx context.Context, rec *AnnualReminder) error
	ReporterEmailsForYear(ctx context.Context, year int) ([]string, error)
	CountReporterIncidents(ctx context.Context, email string, year int) (int, error)
}

type incidentsStore struct {
	db *DB
}

func NewIncidentsStore(db *DB) IncidentsStore {
	return &incidentsStore{db: db}
}

const incidentColumns = `id, reporter_name, reporter_email, reporter_phone, reporter_role,
	incident_date, discovery_date, description, location,
	phi_involved, phi_types, individuals_affected, breach_type, breach_cause,
	status, priority, containment_actions, corrective_actions, preventive_measures,
	ocr_report_required, ocr_report_date, ocr_confirmation_number,
	notified_individuals, notified_hhs, notified_media,
	created_at, updated_at, resolved_at`

func (s *incidentsStore) CreateIncident(ctx context.Context, incident *Incident) error {
	if strings.TrimSpace(incident.ID) == "" {
		incident.ID = uuid.Must(uuid.NewV4()).String()
	}
	if strings.TrimSpace(incident.Status) == "" {
		incident.Status = StatusReported
	}
	if strings.TrimSpace(incident.Priority) == "" {
		incident.Priority = PriorityMedium
	}
	now := time.Now().UTC()
	if incident.CreatedAt.IsZero() {
		incident.CreatedAt = now
	}
	incident.UpdatedAt = incident.CreatedAt
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO incidents(`+incidentColumns+`)
		VALUES(?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?)`,
		incident.ID, incident.ReporterName, incident.ReporterEmail, incident.ReporterPhone, incident.ReporterRole,
		incident.IncidentDate, incident.DiscoveryDate, incident.Description, incident.Location,
		incident.PHIInvolved, incident.PHITypes, incident.IndividualsAffected, incident.BreachType, incident.BreachCause,
		incident.Status, incident.Priority, incident.ContainmentActions, incident.CorrectiveActions, incident.PreventiveMeasures,
		incident.OCRReportRequired, incident.OCRReportDate, incident.OCRConfirmationNumber,
		incident.NotifiedIndividuals, incident.NotifiedHHS, incident.NotifiedMedia,
		incident.CreatedAt, incident.UpdatedAt, nullableTime(incident.ResolvedAt))
	return err
}

func (s *incidentsStore) GetIncident(ctx context.Context, id string) (*Incident, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+incidentColumns+` FROM incidents WHERE id = ?`, id)
	inc, err := scanIncident(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return inc, nil
}

func (s *incidentsStore) UpdateIncident(ctx context.Context, incident *Incident) error {
	res, err := s.db.ExecContext(ctx, `
		UPDATE incidents SET
			reporter_name=?, reporter_email=?, reporter_phone=?, reporter_role=?,
			incident_date=?, discovery_date=?, description=?, location=?,
			phi_involved=?, phi_types=?, individuals_affected=?, breach_type=?, breach_cause=?,
			status=?, priority=?, containment_actions=?, corrective_actions=?, preventive_measures=?,
			ocr_report_required=?, ocr_report_date=?, ocr_confirmation_number=?,
			notified_individuals=?, notified_hhs=?, notified_media=?,
			updated_at=?, resolved_at=?
		WHERE id=?`,
		incident.ReporterName, incident.ReporterEmail, incident.ReporterPhone, incident.ReporterRole,
		incident.IncidentDate, incident.DiscoveryDate, incident.Description, incident.Location,
		incident.PHIInvolved, incident.PHITypes, incident.IndividualsAffected, incident.BreachType, incident.BreachCause,
		incident.Status, incident.Priority, incident.ContainmentActions, incident.CorrectiveActions, incident.PreventiveMeasures,
		incident.OCRReportRequired, incident.OCRReportDate, incident.OCRConfirmationNumber,
		incident.NotifiedIndividuals, incident.NotifiedHHS, incident.NotifiedMedia,
		incident.UpdatedAt, nullableTime(incident.ResolvedAt),
		incident.ID)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *incidentsStore) DeleteIncident(ctx context.Context, id string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM incident_notes WHERE incident_id = ?`, id); err != nil {
		tx.Rollback()
		return err
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM incident_documents WHERE incident_id = ?`, id); err != nil {
		tx.Rollback()
		return err
	}
	res, err := tx.ExecContext(ctx, `DELETE FROM incidents WHERE id = ?`, id)
	if err != nil {
		tx.Rollback()
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		tx.Rollback()
		return ErrNotFound
	}
	return tx.Commit()
}

func (s *incidentsStore) ListIncidents(ctx context.Context, filter IncidentFilter) ([]Incident, error) {
	query := `SELECT ` + incidentColumns + ` FROM incidents`
	var clauses []string
	var args []any
	if st := strings.TrimSpace(filter.Status); st != "" {
		clauses = append(clauses, "status = ?")
		args = append(args, st)
	}
	if pr := strings.TrimSpace(filter.Priority); pr != "" {
		clauses = append(clauses, "priority = ?")
		args = append(args, pr)
	}
	if len(clauses) > 0 {
		query += " WHERE " + strings.Join(clauses, " AND ")
	}
	query += " ORDER BY created_at DESC"
	return s.queryIncidents(ctx, query, args...)
}

func (s *incidentsStore) ListIncidentsByYear(ctx context.Context, year int) ([]Incident, error) {
	start := time.Date(year, time.January, 1, 0, 0, 0, 0, time.UTC)
	end := start.AddDate(1, 0, 0)
	return s.queryIncidents(ctx, `
		SELECT `+incidentColumns+` FROM incidents
		WHERE created_at >= ? AND created_at < ?
		ORDER BY created_at DESC`, start, end)
}

func (s *incidentsStore) queryIncidents(ctx context.Context, query string, args ...any) ([]Incident, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []Incident
	for rows.Next() {
		inc, err := scanIncident(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, *inc)
	}
	return items, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanIncident(row rowScanner) (*Incident, error) {
	var inc Incident
	var resolvedAt sql.NullTime
	err := row.Scan(
		&inc.ID, &inc.ReporterName, &inc.ReporterEmail, &inc.ReporterPhone, &inc.ReporterRole,
		&inc.IncidentDate, &inc.DiscoveryDate, &inc.Description, &inc.Location,
		&inc.PHIInvolved, &inc.PHITypes, &inc.IndividualsAffected, &inc.BreachType, &inc.BreachCause,
		&inc.Status, &inc.Priority, &inc.ContainmentActions, &inc.CorrectiveActions, &inc.PreventiveMeasures,
		&inc.OCRReportRequired, &inc.OCRReportDate, &inc.OCRConfirmationNumber,
		&inc.NotifiedIndividuals, &inc.NotifiedHHS, &inc.NotifiedMedia,
		&inc.CreatedAt, &inc.UpdatedAt, &resolvedAt)
	if err != nil {
		return nil, err
	}
	if resolvedAt.Valid {
		t := resolvedAt.Time
		inc.ResolvedAt = &t
	}
	return &inc, nil
}

func (s *incidentsStore) CreateIncidentNote(ctx context.Context, note *IncidentNote) error {
	if strings.TrimSpace(note.ID) == "" {
		note.ID = uuid.Must(uuid.NewV4()).String()
	}
	if note.CreatedAt.IsZero() {
		note.CreatedAt = time.Now().UTC()
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO incident_notes(id, incident_id, user_id, note, created_at)
		VALUES(?,?,?,?,?)`,
		note.ID, note.IncidentID, note.UserID, note.Note, note.CreatedAt)
	return err
}

func (s *incidentsStore) GetIncidentNote(ctx context.Context, id string) (*IncidentNote, error) {
	var n IncidentNote
	err := s.db.QueryRowContext(ctx, `
		SELECT id, incident_id, user_id, note, created_at
		FROM incident_notes WHERE id = ?`, id).
		Scan(&n.ID, &n.IncidentID, &n.UserID, &n.Note, &n.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &n, nil
}

func (s *incidentsStore) ListIncidentNotes(ctx context.Context, incidentID string) ([]IncidentNote, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, incident_id, user_id, note, created_at
		FROM incident_notes WHERE incident_id = ?
		ORDER BY created_at DESC`, incidentID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []IncidentNote
	for rows.Next() {
		var n IncidentNote
		if err := rows.Scan(&n.ID, &n.IncidentID, &n.UserID, &n.Note, &n.CreatedAt); err != nil {
			return nil, err
		}
		items = append(items, n)
	}
	return items, rows.Err()
}

func (s *incidentsStore) CreateIncidentDocument(ctx context.Context, doc *IncidentDocument) error {
	if strings.TrimSpace(doc.ID) == "" {
		doc.ID = uuid.Must(uuid.NewV4()).String()
	}
	if doc.UploadedAt.IsZero() {
		doc.UploadedAt = time.Now().UTC()
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO incident_documents(id, incident_id, name, file_name, file_size, uploaded_at)
		VALUES(?,?,?,?,?,?)`,
		doc.ID, doc.IncidentID, doc.Name, doc.FileName, doc.FileSize, doc.UploadedAt)
	return err
}

func (s *incidentsStore) GetIncidentDocument(ctx context.Context, id string) (*IncidentDocument, error) {
	var d IncidentDocument
	err := s.db.QueryRowContext(ctx, `
		SELECT id, incident_id, name, file_name, file_size, uploaded_at
		FROM incident_documents WHERE id = ?`, id).
		Scan(&d.ID, &d.IncidentID, &d.Name, &d.FileName, &d.FileSize, &d.UploadedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &d, nil
}

func (s *incidentsStore) ListIncidentDocuments(ctx context.Context, incidentID string) ([]IncidentDocument, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, incident_id, name, file_name, file_size, uploaded_at
		FROM incident_documents WHERE incident_id = ?
		ORDER BY uploaded_at DESC`, incidentID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []IncidentDocument
	for rows.Next() {
		var d IncidentDocument
		if err := rows.Scan(&d.ID, &d.IncidentID, &d.Name, &d.FileName, &d.FileSize, &d.UploadedAt); err != nil {
			return nil, err
		}
		items = append(items, d)
	}
	return items, rows.Err()
}

func (s *incidentsStore) DeleteIncidentDocument(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM incident_documents WHERE id = ?`, id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *incidentsStore) CreateAnnualReminder(ctx context.Context, rec *AnnualReminder) error {
	if strings.TrimSpace(rec.ID) == "" {
		rec.ID = uuid.Must(uuid.NewV4()).String()
	}
	if rec.SentAt.IsZero() {
		rec.SentAt = time.Now().UTC()
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO annual_reminders(id, email, year, status, incident_count, sent_at)
		VALUES(?,?,?,?,?,?)`,
		rec.ID, rec.Email, rec.Year, rec.Status, rec.IncidentCount, rec.SentAt)
	return err
}

func (s *incidentsStore) ReporterEmailsForYear(ctx context.Context, year int) ([]string, error) {
	start := time.Date(year, time.January, 1, 0, 0, 0, 0, time.UTC)
	end := start.AddDate(1, 0, 0)
	rows, err := s.db.QueryContext(ctx, `
		SELECT DISTINCT reporter_email FROM incidents
		WHERE created_at >= ? AND created_at < ?`, start, end)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var emails []string
	for rows.Next() {
		var email string
		if err := rows.Scan(&email); err != nil {
			return nil, err
		}
		emails = append(emails, email)
	}
	return emails, rows.Err()
}

func (s *incidentsStore) CountReporterIncidents(ctx context.Context, email string, year int) (int, error) {
	start := time.Date(year, time.January, 1, 0, 0, 0, 0, time.UTC)
	end := start.AddDate(1, 0, 0)
	var count int
	err := s.db.QueryRowContext(ctx, `
		SELECT COUNT(*) FROM incidents
		WHERE LOWER(reporter_email) = ? AND created_at >= ? AND created_at < ?`,
		strings.ToLower(strings.TrimSpace(email)), start, end).Scan(&count)
	return count, err
}

func nullableTime(t *time.Time) any {
	if t == nil {
		return nil
	}
	return *t
}
