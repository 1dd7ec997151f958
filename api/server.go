package api

import (
	"context"
	"net/http"
	"time"

	"incidentdesk/config"
	"incidentdesk/core/auth"
	"incidentdesk/core/incidents"
	"incidentdesk/core/notify"
	"incidentdesk/core/rbac"
	"incidentdesk/core/reporting"
	"incidentdesk/core/store"
	"incidentdesk/core/utils"
)

type Server struct {
	cfg            *config.AppConfig
	users          store.UsersStore
	sessionManager *auth.SessionManager
	policy         *rbac.Policy
	incidents      *incidents.Service
	reporting      *reporting.Service
	dispatcher     *notify.Dispatcher
	logger         *utils.Logger
	loginLimiter   *loginRateLimiter

	http *http.Server
}

type Deps struct {
	Config         *config.AppConfig
	Users          store.UsersStore
	SessionManager *auth.SessionManager
	Policy         *rbac.Policy
	Incidents      *incidents.Service
	Reporting      *reporting.Service
	Dispatcher     *notify.Dispatcher
	Logger         *utils.Logger
}

func NewServer(d Deps) *Server {
	s := &Server{
		cfg:            d.Config,
		users:          d.Users,
		sessionManager: d.SessionManager,
		policy:         d.Policy,
		incidents:      d.Incidents,
		reporting:      d.Reporting,
		dispatcher:     d.Dispatcher,
		logger:         d.Logger,
		loginLimiter:   newLoginRateLimiter(10, time.Minute),
	}
	s.http = &http.Server{
		Addr:              d.Config.ListenAddr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	return s
}

func (s *Server) ListenAndServe() error {
	if s.cfg.TLSEnabled {
		s.logger.Printf("listening on https://%s", s.cfg.ListenAddr)
		return s.http.ListenAndServeTLS(s.cfg.TLSCert, s.cfg.TLSKey)
	}
	s.logger.Printf("listening on http://%s", s.cfg.ListenAddr)
	return s.http.ListenAndServe()
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.http.Shutdown(ctx)
}
