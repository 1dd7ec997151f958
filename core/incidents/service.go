package incidents

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/go-playground/validator/v10"
	"github.com/gofrs/uuid/v5"

	"incidentdesk/core/files"
	"incidentdesk/core/store"
	"incidentdesk/core/utils"
)

var (
	ErrIncidentNotFound = errors.New("incident not found")
	ErrDocumentNotFound = errors.New("document not found")
	ErrFileTooLarge     = errors.New("file too large")
	ErrFileType         = errors.New("file type not allowed")
	ErrEmptyNote        = errors.New("note text is required")
)

// ValidationError lists the input fields that failed validation.
type ValidationError struct {
	Fields []string
}

func (e *ValidationError) Error() string {
	return "invalid fields: " + strings.Join(e.Fields, ", ")
}

var allowedExtensions = map[string]bool{
	".pdf":  true,
	".doc":  true,
	".docx": true,
	".png":  true,
	".jpg":  true,
	".jpeg": true,
}

type Service struct {
	store    store.IncidentsStore
	files    *files.Storage
	logger   *utils.Logger
	validate *validator.Validate
	maxBytes int64
}

func NewService(st store.IncidentsStore, fs *files.Storage, maxBytes int64, logger *utils.Logger) *Service {
	return &Service{
		store:    st,
		files:    fs,
		logger:   logger,
		validate: validator.New(validator.WithRequiredStructEnabled()),
		maxBytes: maxBytes,
	}
}

type CreateInput struct {
	ReporterName          string `json:"reporter_name" validate:"required"`
	ReporterEmail         string `json:"reporter_email" validate:"omitempty,email"`
	ReporterPhone         string `json:"reporter_phone"`
	ReporterRole          string `json:"reporter_role"`
	IncidentDate          string `json:"incident_date" validate:"required,datetime=2006-01-02"`
	DiscoveryDate         string `json:"discovery_date" validate:"required,datetime=2006-01-02"`
	Description           string `json:"description" validate:"required"`
	Location              string `json:"location"`
	PHIInvolved           bool   `json:"phi_involved"`
	PHITypes              string `json:"phi_types"`
	IndividualsAffected   string `json:"individuals_affected"`
	BreachType            string `json:"breach_type"`
	BreachCause           string `json:"breach_cause"`
	Status                string `json:"status" validate:"omitempty,oneof=reported investigating contained resolved reported_to_ocr"`
	Priority              string `json:"priority" validate:"omitempty,oneof=low medium high critical"`
	ContainmentActions    string `json:"containment_actions"`
	CorrectiveActions     string `json:"corrective_actions"`
	PreventiveMeasures    string `json:"preventive_measures"`
	OCRReportRequired     bool   `json:"ocr_report_required"`
	OCRReportDate         string `json:"ocr_report_date"`
	OCRConfirmationNumber string `json:"ocr_confirmation_number"`
	NotifiedIndividuals   bool   `json:"notified_individuals"`
	NotifiedHHS           bool   `json:"notified_hhs"`
	NotifiedMedia         bool   `json:"notified_media"`
}

// Report files an incident through the self-service path. Whatever status or
// priority the caller supplied is discarded: new reports always start as
// "reported" with medium priority.
func (s *Service) Report(ctx context.Context, input CreateInput) (*store.Incident, error) {
	input.Status = store.StatusReported
	input.Priority = store.PriorityMedium
	return s.Create(ctx, input)
}

// Create files an incident with the caller's status and priority, defaulting
// the blank ones.
func (s *Service) Create(ctx context.Context, input CreateInput) (*store.Incident, error) {
	if err := s.validateInput(input); err != nil {
		return nil, err
	}
	incident := &store.Incident{
		ReporterName:          strings.TrimSpace(input.ReporterName),
		ReporterEmail:         strings.TrimSpace(input.ReporterEmail),
		ReporterPhone:         strings.TrimSpace(input.ReporterPhone),
		ReporterRole:          strings.TrimSpace(input.ReporterRole),
		IncidentDate:          input.IncidentDate,
		DiscoveryDate:         input.DiscoveryDate,
		Description:           strings.TrimSpace(input.Description),
		Location:              strings.TrimSpace(input.Location),
		PHIInvolved:           input.PHIInvolved,
		PHITypes:              input.PHITypes,
		IndividualsAffected:   input.IndividualsAffected,
		BreachType:            input.BreachType,
		BreachCause:           input.BreachCause,
		Status:                input.Status,
		Priority:              input.Priority,
		ContainmentActions:    input.ContainmentActions,
		CorrectiveActions:     input.CorrectiveActions,
		PreventiveMeasures:    input.PreventiveMeasures,
		OCRReportRequired:     input.OCRReportRequired,
		OCRReportDate:         input.OCRReportDate,
		OCRConfirmationNumber: input.OCRConfirmationNumber,
		NotifiedIndividuals:   input.NotifiedIndividuals,
		NotifiedHHS:           input.NotifiedHHS,
		NotifiedMedia:         input.NotifiedMedia,
	}
	if incident.Status == store.StatusResolved {
		now := time.Now().UTC()
		incident.ResolvedAt = &now
	}
	if err := s.store.CreateIncident(ctx, incident); err != nil {
		return nil, fmt.Errorf("create incident: %w", err)
	}
	return incident, nil
}

func (s *Service) validateInput(input CreateInput) error {
	err := s.validate.Struct(input)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) {
		fields := make([]string, 0, len(verrs))
		for _, fe := range verrs {
			fields = append(fields, jsonFieldName(fe.Field()))
		}
		return &ValidationError{Fields: fields}
	}
	return err
}

func jsonFieldName(field string) string {
	t, ok := fieldJSONNames[field]
	if !ok {
		return strings.ToLower(field)
	}
	return t
}

var fieldJSONNames = map[string]string{
	"ReporterName":  "reporter_name",
	"ReporterEmail": "reporter_email",
	"IncidentDate":  "incident_date",
	"DiscoveryDate": "discovery_date",
	"Description":   "description",
	"Status":        "status",
	"Priority":      "priority",
}

type UpdateInput struct {
	ReporterName          *string `json:"reporter_name"`
	ReporterEmail         *string `json:"reporter_email"`
	ReporterPhone         *string `json:"reporter_phone"`
	ReporterRole          *string `json:"reporter_role"`
	IncidentDate          *string `json:"incident_date"`
	DiscoveryDate         *string `json:"discovery_date"`
	Description           *string `json:"description"`
	Location              *string `json:"location"`
	PHIInvolved           *bool   `json:"phi_involved"`
	PHITypes              *string `json:"phi_types"`
	IndividualsAffected   *string `json:"individuals_affected"`
	BreachType            *string `json:"breach_type"`
	BreachCause           *string `json:"breach_cause"`
	Status                *string `json:"status"`
	Priority              *string `json:"priority"`
	ContainmentActions    *string `json:"containment_actions"`
	CorrectiveActions     *string `json:"corrective_actions"`
	PreventiveMeasures    *string `json:"preventive_measures"`
	OCRReportRequired     *bool   `json:"ocr_report_required"`
	OCRReportDate         *string `json:"ocr_report_date"`
	OCRConfirmationNumber *string `json:"ocr_confirmation_number"`
	NotifiedIndividuals   *bool   `json:"notified_individuals"`
	NotifiedHHS           *bool   `json:"notified_hhs"`
	NotifiedMedia         *bool   `json:"notified_media"`
}

// Update merges the provided fields into the stored incident. The first
// transition into "resolved" stamps the resolution time; it is never cleared
// or re-stamped afterwards.
func (s *Service) Update(ctx context.Context, id string, input UpdateInput) (*store.Incident, error) {
	incident, err := s.store.GetIncident(ctx, id)
	if err != nil {
		return nil, err
	}
	if incident == nil {
		return nil, ErrIncidentNotFound
	}

	setString(&incident.ReporterName, input.ReporterName)
	setString(&incident.ReporterEmail, input.ReporterEmail)
	setString(&incident.ReporterPhone, input.ReporterPhone)
	setString(&incident.ReporterRole, input.ReporterRole)
	setString(&incident.IncidentDate, input.IncidentDate)
	setString(&incident.DiscoveryDate, input.DiscoveryDate)
	setString(&incident.Description, input.Description)
	setString(&incident.Location, input.Location)
	setBool(&incident.PHIInvolved, input.PHIInvolved)
	setString(&incident.PHITypes, input.PHITypes)
	setString(&incident.IndividualsAffected, input.IndividualsAffected)
	setString(&incident.BreachType, input.BreachType)
	setString(&incident.BreachCause, input.BreachCause)
	setString(&incident.ContainmentActions, input.ContainmentActions)
	setString(&incident.CorrectiveActions, input.CorrectiveActions)
	setString(&incident.PreventiveMeasures, input.PreventiveMeasures)
	setBool(&incident.OCRReportRequired, input.OCRReportRequired)
	setString(&incident.OCRReportDate, input.OCRReportDate)
	setString(&incident.OCRConfirmationNumber, input.OCRConfirmationNumber)
	setBool(&incident.NotifiedIndividuals, input.NotifiedIndividuals)
	setBool(&incident.NotifiedHHS, input.NotifiedHHS)
	setBool(&incident.NotifiedMedia, input.NotifiedMedia)

	if input.Status != nil {
		st := strings.TrimSpace(*input.Status)
		if !validStatus(st) {
			return nil, &ValidationError{Fields: []string{"status"}}
		}
		incident.Status = st
		if st == store.StatusResolved && incident.ResolvedAt == nil {
			now := time.Now().UTC()
			incident.ResolvedAt = &now
		}
	}
	if input.Priority != nil {
		pr := strings.TrimSpace(*input.Priority)
		if !validPriority(pr) {
			return nil, &ValidationError{Fields: []string{"priority"}}
		}
		incident.Priority = pr
	}

	incident.UpdatedAt = time.Now().UTC()
	if err := s.store.UpdateIncident(ctx, incident); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, ErrIncidentNotFound
		}
		return nil, fmt.Errorf("update incident: %w", err)
	}
	return incident, nil
}

func setString(dst *string, src *string) {
	if src != nil {
		*dst = *src
	}
}

func setBool(dst *bool, src *bool) {
	if src != nil {
		*dst = *src
	}
}

func validStatus(s string) bool {
	for _, v := range store.IncidentStatuses() {
		if s == v {
			return true
		}
	}
	return false
}

func validPriority(p string) bool {
	for _, v := range store.IncidentPriorities() {
		if p == v {
			return true
		}
	}
	return false
}

// Delete removes the incident together with its notes and documents. Stored
// document files are cleaned up first; a failed file removal is logged and
// does not abort the delete.
func (s *Service) Delete(ctx context.Context, id string) error {
	incident, err := s.store.GetIncident(ctx, id)
	if err != nil {
		return err
	}
	if incident == nil {
		return ErrIncidentNotFound
	}
	docs, err := s.store.ListIncidentDocuments(ctx, id)
	if err != nil {
		return err
	}
	for _, doc := range docs {
		if err := s.files.Remove(doc.FileName); err != nil {
			s.logger.Errorf("remove document file %s: %v", doc.FileName, err)
		}
	}
	if err := s.store.DeleteIncident(ctx, id); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return ErrIncidentNotFound
		}
		return err
	}
	return nil
}

func (s *Service) Get(ctx context.Context, id string) (*store.Incident, error) {
	incident, err := s.store.GetIncident(ctx, id)
	if err != nil {
		return nil, err
	}
	if incident == nil {
		return nil, ErrIncidentNotFound
	}
	return incident, nil
}

func (s *Service) List(ctx context.Context, filter store.IncidentFilter) ([]store.Incident, error) {
	return s.store.ListIncidents(ctx, filter)
}

func (s *Service) ListByYear(ctx context.Context, year int) ([]store.Incident, error) {
	return s.store.ListIncidentsByYear(ctx, year)
}

func (s *Service) AddNote(ctx context.Context, incidentID, userID, text string) (*store.IncidentNote, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, ErrEmptyNote
	}
	if _, err := s.Get(ctx, incidentID); err != nil {
		return nil, err
	}
	note := &store.IncidentNote{
		IncidentID: incidentID,
		UserID:     userID,
		Note:       text,
	}
	if err := s.store.CreateIncidentNote(ctx, note); err != nil {
		return nil, err
	}
	return note, nil
}

func (s *Service) ListNotes(ctx context.Context, incidentID string) ([]store.IncidentNote, error) {
	if _, err := s.Get(ctx, incidentID); err != nil {
		return nil, err
	}
	return s.store.ListIncidentNotes(ctx, incidentID)
}

// UploadDocument validates the file against the size cap and extension
// allowlist, writes the blob under a generated name, then records the
// metadata row. The extension check always runs against the uploaded file's
// original filename; displayName is metadata only and may be any label.
func (s *Service) UploadDocument(ctx context.Context, incidentID, displayName, originalName string, size int64, r io.Reader) (*store.IncidentDocument, error) {
	if _, err := s.Get(ctx, incidentID); err != nil {
		return nil, err
	}
	if size > s.maxBytes {
		return nil, ErrFileTooLarge
	}
	ext := strings.ToLower(filepath.Ext(originalName))
	if !allowedExtensions[ext] {
		return nil, ErrFileType
	}
	name := strings.TrimSpace(displayName)
	if name == "" {
		name = filepath.Base(originalName)
	}
	storedName := uuid.Must(uuid.NewV4()).String() + ext
	written, err := s.files.Save(storedName, io.LimitReader(r, s.maxBytes+1))
	if err != nil {
		return nil, fmt.Errorf("store document: %w", err)
	}
	if written > s.maxBytes {
		s.files.Remove(storedName)
		return nil, ErrFileTooLarge
	}
	doc := &store.IncidentDocument{
		IncidentID: incidentID,
		Name:       name,
		FileName:   storedName,
		FileSize:   humanize.Bytes(uint64(written)),
	}
	if err := s.store.CreateIncidentDocument(ctx, doc); err != nil {
		s.files.Remove(storedName)
		return nil, err
	}
	return doc, nil
}

func (s *Service) ListDocuments(ctx context.Context, incidentID string) ([]store.IncidentDocument, error) {
	if _, err := s.Get(ctx, incidentID); err != nil {
		return nil, err
	}
	return s.store.ListIncidentDocuments(ctx, incidentID)
}

func (s *Service) GetDocument(ctx context.Context, id string) (*store.IncidentDocument, error) {
	doc, err := s.store.GetIncidentDocument(ctx, id)
	if err != nil {
		return nil, err
	}
	if doc == nil {
		return nil, ErrDocumentNotFound
	}
	return doc, nil
}

// DeleteDocument removes the stored file first, then the metadata row. A
// missing or stuck file is logged and does not block the delete.
func (s *Service) DeleteDocument(ctx context.Context, id string) error {
	doc, err := s.store.GetIncidentDocument(ctx, id)
	if err != nil {
		return err
	}
	if doc == nil {
		return ErrDocumentNotFound
	}
	if err := s.files.Remove(doc.FileName); err != nil {
		s.logger.Errorf("remove document file %s: %v", doc.FileName, err)
	}
	if err := s.store.DeleteIncidentDocument(ctx, id); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return ErrDocumentNotFound
		}
		return err
	}
	return nil
}

func (s *Service) DocumentPath(doc *store.IncidentDocument) string {
	return s.files.Path(doc.FileName)
}

func (s *Service) MaxUploadBytes() int64 {
	return s.maxBytes
}
