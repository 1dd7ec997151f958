package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"incidentdesk/api/handlers"
	"incidentdesk/core/rbac"
)

func (s *Server) Handler() http.Handler {
	authH := handlers.NewAuthHandler(s.cfg, s.users, s.sessionManager, s.logger)
	incidentsH := handlers.NewIncidentsHandler(s.incidents, s.dispatcher, s.logger)
	documentsH := handlers.NewDocumentsHandler(s.incidents, s.logger)
	reportsH := handlers.NewReportsHandler(s.reporting, s.dispatcher, s.logger)

	r := chi.NewRouter()
	r.Use(s.recoverMiddleware)
	r.Use(s.loggingMiddleware)

	r.Route("/api", func(r chi.Router) {
		r.Post("/auth/signup", s.rateLimited(authH.Signup))
		r.Post("/auth/login", s.rateLimited(authH.Login))
		r.Post("/auth/logout", authH.Logout)
		r.Get("/auth/me", s.withSession(authH.Me))

		r.Get("/incidents", s.guard(rbac.PermIncidentsList, incidentsH.List))
		r.Post("/incidents", s.guard(rbac.PermIncidentsCreate, incidentsH.Create))
		r.Post("/incidents/report", s.guard(rbac.PermIncidentsReport, incidentsH.Report))
		r.Get("/incidents/{id}", s.guard(rbac.PermIncidentsView, incidentsH.Get))
		r.Put("/incidents/{id}", s.guard(rbac.PermIncidentsUpdate, incidentsH.Update))
		r.Patch("/incidents/{id}", s.guard(rbac.PermIncidentsUpdate, incidentsH.Update))
		r.Delete("/incidents/{id}", s.guard(rbac.PermIncidentsDelete, incidentsH.Delete))

		r.Get("/incidents/{id}/notes", s.guard(rbac.PermNotesView, incidentsH.ListNotes))
		r.Post("/incidents/{id}/notes", s.guard(rbac.PermNotesAdd, incidentsH.AddNote))

		r.Get("/incidents/{id}/documents", s.guard(rbac.PermDocumentsView, documentsH.List))
		r.Post("/incidents/{id}/documents", s.guard(rbac.PermDocumentsUpload, documentsH.Upload))
		r.Get("/documents/{doc_id}/download", s.guard(rbac.PermDocumentsView, documentsH.Download))
		r.Delete("/documents/{doc_id}", s.guard(rbac.PermDocumentsDelete, documentsH.Delete))

		r.Get("/stats", s.guard(rbac.PermStatsView, reportsH.Stats))
		r.Get("/reports/annual/{year}", s.guard(rbac.PermReportsAnnual, reportsH.Annual))
		r.Post("/reminders/annual", s.guard(rbac.PermRemindersSend, reportsH.SendReminders))
	})

	return r
}

// guard chains session resolution and a permission check in front of a
// handler. Every non-auth route goes through here.
func (s *Server) guard(perm rbac.Permission, h http.HandlerFunc) http.HandlerFunc {
	return s.withSession(s.require(perm)(h))
}
