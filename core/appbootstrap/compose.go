package appbootstrap

import (
	"context"
	"fmt"
	"strings"

	"incidentdesk/api"
	"incidentdesk/config"
	"incidentdesk/core/auth"
	"incidentdesk/core/files"
	"incidentdesk/core/incidents"
	"incidentdesk/core/notify"
	"incidentdesk/core/rbac"
	"incidentdesk/core/reporting"
	"incidentdesk/core/store"
	"incidentdesk/core/utils"
)

// App bundles everything main needs to run and shut down.
type App struct {
	Server    *api.Server
	Scheduler *notify.Scheduler
	DB        *store.DB
	Logger    *utils.Logger
}

func Compose(ctx context.Context, cfg *config.AppConfig, logger *utils.Logger) (*App, error) {
	db, err := store.NewDB(cfg, logger)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	if err := store.ApplyMigrations(ctx, db, cfg.DBDriver, logger); err != nil {
		db.Close()
		return nil, fmt.Errorf("apply migrations: %w", err)
	}

	users := store.NewUsersStore(db)
	sessions := store.NewSessionsStore(db)
	incidentsStore := store.NewIncidentsStore(db)

	policy, err := rbac.NewPolicy()
	if err != nil {
		db.Close()
		return nil, err
	}
	fileStorage, err := files.NewStorage(cfg.Uploads.Dir)
	if err != nil {
		db.Close()
		return nil, err
	}

	sessionManager := auth.NewSessionManager(sessions, cfg)
	incidentsSvc := incidents.NewService(incidentsStore, fileStorage, cfg.Uploads.MaxBytes, logger)
	reportingSvc := reporting.NewService(incidentsStore)

	var sender notify.EmailSender
	if strings.TrimSpace(cfg.Notify.SendGridAPIKey) != "" {
		sender = notify.NewSendGridSender(cfg.Notify)
	} else {
		logger.Printf("no sendgrid api key configured, email notifications disabled")
	}
	dispatcher := notify.NewDispatcher(sender, incidentsStore, cfg.Notify, logger)
	scheduler := notify.NewScheduler(cfg.Reminders, dispatcher, logger)

	if err := EnsureDefaultAdmin(ctx, users, cfg, logger); err != nil {
		logger.Errorf("ensure default admin: %v", err)
	}

	server := api.NewServer(api.Deps{
		Config:         cfg,
		Users:          users,
		SessionManager: sessionManager,
		Policy:         policy,
		Incidents:      incidentsSvc,
		Reporting:      reportingSvc,
		Dispatcher:     dispatcher,
		Logger:         logger,
	})
	return &App{Server: server, Scheduler: scheduler, DB: db, Logger: logger}, nil
}
