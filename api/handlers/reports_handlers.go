package handlers

import (
	"net/http"
	"strconv"
	"time"

	"incidentdesk/core/notify"
	"incidentdesk/core/reporting"
	"incidentdesk/core/utils"
)

type ReportsHandler struct {
	reporting  *reporting.Service
	dispatcher *notify.Dispatcher
	logger     *utils.Logger
}

func NewReportsHandler(rep *reporting.Service, dispatcher *notify.Dispatcher, logger *utils.Logger) *ReportsHandler {
	return &ReportsHandler{reporting: rep, dispatcher: dispatcher, logger: logger}
}

func (h *ReportsHandler) Stats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.reporting.Stats(r.Context())
	if err != nil {
		h.logger.Errorf("incident stats: %v", err)
		errorJSON(w, http.StatusInternalServerError, "server error")
		return
	}
	writeJSON(w, http.StatusOK, stats)
}

func (h *ReportsHandler) Annual(w http.ResponseWriter, r *http.Request) {
	year, err := strconv.Atoi(urlParam(r, "year"))
	if err != nil || year < 1900 || year > 9999 {
		errorJSON(w, http.StatusBadRequest, "invalid year")
		return
	}
	report, err := h.reporting.Annual(r.Context(), year)
	if err != nil {
		h.logger.Errorf("annual report %d: %v", year, err)
		errorJSON(w, http.StatusInternalServerError, "server error")
		return
	}
	writeJSON(w, http.StatusOK, report)
}

// SendReminders triggers a reminder sweep on demand. The body may carry a
// year; it defaults to the previous calendar year.
func (h *ReportsHandler) SendReminders(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Year int `json:"year"`
	}
	_ = readJSON(r, &body)
	year := body.Year
	if year == 0 {
		year = time.Now().UTC().Year() - 1
	}
	if year < 1900 || year > 9999 {
		errorJSON(w, http.StatusBadRequest, "invalid year")
		return
	}
	result, err := h.dispatcher.SendAnnualReminders(r.Context(), year)
	if err != nil {
		h.logger.Errorf("reminder sweep %d: %v", year, err)
		errorJSON(w, http.StatusInternalServerError, "server error")
		return
	}
	writeJSON(w, http.StatusOK, result)
}
