package handlers

import (
	"errors"
	"net/http"
	"strings"

	"incidentdesk/core/auth"
	"incidentdesk/core/incidents"
	"incidentdesk/core/notify"
	"incidentdesk/core/store"
	"incidentdesk/core/utils"
)

type IncidentsHandler struct {
	svc        *incidents.Service
	dispatcher *notify.Dispatcher
	logger     *utils.Logger
}

func NewIncidentsHandler(svc *incidents.Service, dispatcher *notify.Dispatcher, logger *utils.Logger) *IncidentsHandler {
	return &IncidentsHandler{svc: svc, dispatcher: dispatcher, logger: logger}
}

func (h *IncidentsHandler) List(w http.ResponseWriter, r *http.Request) {
	filter := store.IncidentFilter{
		Status:   strings.TrimSpace(r.URL.Query().Get("status")),
		Priority: strings.TrimSpace(r.URL.Query().Get("priority")),
	}
	items, err := h.svc.List(r.Context(), filter)
	if err != nil {
		h.logger.Errorf("list incidents: %v", err)
		errorJSON(w, http.StatusInternalServerError, "server error")
		return
	}
	if items == nil {
		items = []store.Incident{}
	}
	writeJSON(w, http.StatusOK, items)
}

func (h *IncidentsHandler) Get(w http.ResponseWriter, r *http.Request) {
	incident, err := h.svc.Get(r.Context(), urlParam(r, "id"))
	if err != nil {
		h.respondError(w, err, "get incident")
		return
	}
	writeJSON(w, http.StatusOK, incident)
}

// Report is the self-service filing path. Incoming status and priority are
// ignored and the privacy officer gets a notification email.
func (h *IncidentsHandler) Report(w http.ResponseWriter, r *http.Request) {
	var input incidents.CreateInput
	if err := readJSON(r, &input); err != nil {
		errorJSON(w, http.StatusBadRequest, "invalid request body")
		return
	}
	incident, err := h.svc.Report(r.Context(), input)
	if err != nil {
		h.respondError(w, err, "report incident")
		return
	}
	h.dispatcher.IncidentCreated(incident)
	writeJSON(w, http.StatusCreated, map[string]string{
		"message":     "incident reported",
		"incident_id": incident.ID,
		"status":      incident.Status,
	})
}

func (h *IncidentsHandler) Create(w http.ResponseWriter, r *http.Request) {
	var input incidents.CreateInput
	if err := readJSON(r, &input); err != nil {
		errorJSON(w, http.StatusBadRequest, "invalid request body")
		return
	}
	incident, err := h.svc.Create(r.Context(), input)
	if err != nil {
		h.respondError(w, err, "create incident")
		return
	}
	// Administrative creation does not notify; only the report path does.
	writeJSON(w, http.StatusCreated, incident)
}

func (h *IncidentsHandler) Update(w http.ResponseWriter, r *http.Request) {
	var input incidents.UpdateInput
	if err := readJSON(r, &input); err != nil {
		errorJSON(w, http.StatusBadRequest, "invalid request body")
		return
	}
	incident, err := h.svc.Update(r.Context(), urlParam(r, "id"), input)
	if err != nil {
		h.respondError(w, err, "update incident")
		return
	}
	writeJSON(w, http.StatusOK, incident)
}

func (h *IncidentsHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if err := h.svc.Delete(r.Context(), urlParam(r, "id")); err != nil {
		h.respondError(w, err, "delete incident")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "incident deleted"})
}

func (h *IncidentsHandler) ListNotes(w http.ResponseWriter, r *http.Request) {
	notes, err := h.svc.ListNotes(r.Context(), urlParam(r, "id"))
	if err != nil {
		h.respondError(w, err, "list notes")
		return
	}
	if notes == nil {
		notes = []store.IncidentNote{}
	}
	writeJSON(w, http.StatusOK, notes)
}

func (h *IncidentsHandler) AddNote(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Note string `json:"note"`
	}
	if err := readJSON(r, &body); err != nil {
		errorJSON(w, http.StatusBadRequest, "invalid request body")
		return
	}
	var userID string
	if sess := auth.SessionFromContext(r.Context()); sess != nil {
		userID = sess.UserID
	}
	note, err := h.svc.AddNote(r.Context(), urlParam(r, "id"), userID, body.Note)
	if err != nil {
		h.respondError(w, err, "add note")
		return
	}
	writeJSON(w, http.StatusCreated, note)
}

func (h *IncidentsHandler) respondError(w http.ResponseWriter, err error, op string) {
	var verr *incidents.ValidationError
	switch {
	case errors.As(err, &verr):
		errorJSON(w, http.StatusBadRequest, verr.Error())
	case errors.Is(err, incidents.ErrIncidentNotFound):
		errorJSON(w, http.StatusNotFound, "incident not found")
	case errors.Is(err, incidents.ErrEmptyNote):
		errorJSON(w, http.StatusBadRequest, "note text is required")
	default:
		h.logger.Errorf("%s: %v", op, err)
		errorJSON(w, http.StatusInternalServerError, "server error")
	}
}
