package handlers

import (
	"errors"
	"net/http"
	"strings"

	"incidentdesk/core/incidents"
	"incidentdesk/core/store"
	"incidentdesk/core/utils"
)

type DocumentsHandler struct {
	svc    *incidents.Service
	logger *utils.Logger
}

func NewDocumentsHandler(svc *incidents.Service, logger *utils.Logger) *DocumentsHandler {
	return &DocumentsHandler{svc: svc, logger: logger}
}

func (h *DocumentsHandler) List(w http.ResponseWriter, r *http.Request) {
	docs, err := h.svc.ListDocuments(r.Context(), urlParam(r, "id"))
	if err != nil {
		h.respondError(w, err, "list documents")
		return
	}
	if docs == nil {
		docs = []store.IncidentDocument{}
	}
	writeJSON(w, http.StatusOK, docs)
}

// Upload accepts one multipart file under the "file" field. Requests over
// the size cap are cut off by MaxBytesReader before any blob is written.
func (h *DocumentsHandler) Upload(w http.ResponseWriter, r *http.Request) {
	maxBytes := h.svc.MaxUploadBytes()
	r.Body = http.MaxBytesReader(w, r.Body, maxBytes+4096)
	if err := r.ParseMultipartForm(maxBytes); err != nil {
		errorJSON(w, http.StatusRequestEntityTooLarge, "file too large")
		return
	}
	file, header, err := r.FormFile("file")
	if err != nil {
		errorJSON(w, http.StatusBadRequest, "file field is required")
		return
	}
	defer file.Close()

	if header.Size > maxBytes {
		errorJSON(w, http.StatusRequestEntityTooLarge, "file too large")
		return
	}
	displayName := strings.TrimSpace(r.FormValue("name"))
	doc, err := h.svc.UploadDocument(r.Context(), urlParam(r, "id"), displayName, header.Filename, header.Size, file)
	if err != nil {
		h.respondError(w, err, "upload document")
		return
	}
	writeJSON(w, http.StatusCreated, doc)
}

func (h *DocumentsHandler) Download(w http.ResponseWriter, r *http.Request) {
	doc, err := h.svc.GetDocument(r.Context(), urlParam(r, "doc_id"))
	if err != nil {
		h.respondError(w, err, "download document")
		return
	}
	w.Header().Set("Content-Disposition", `attachment; filename="`+doc.Name+`"`)
	http.ServeFile(w, r, h.svc.DocumentPath(doc))
}

func (h *DocumentsHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if err := h.svc.DeleteDocument(r.Context(), urlParam(r, "doc_id")); err != nil {
		h.respondError(w, err, "delete document")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "document deleted"})
}

func (h *DocumentsHandler) respondError(w http.ResponseWriter, err error, op string) {
	switch {
	case errors.Is(err, incidents.ErrIncidentNotFound):
		errorJSON(w, http.StatusNotFound, "incident not found")
	case errors.Is(err, incidents.ErrDocumentNotFound):
		errorJSON(w, http.StatusNotFound, "document not found")
	case errors.Is(err, incidents.ErrFileTooLarge):
		errorJSON(w, http.StatusRequestEntityTooLarge, "file too large")
	case errors.Is(err, incidents.ErrFileType):
		errorJSON(w, http.StatusBadRequest, "file type not allowed")
	default:
		h.logger.Errorf("%s: %v", op, err)
		errorJSON(w, http.StatusInternalServerError, "server error")
	}
}
