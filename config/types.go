package config

import "time"

type AppConfig struct {
	DBDriver   string          `yaml:"db_driver" env:"INCIDENTDESK_DB_DRIVER" env-default:"sqlite"`
	DBURL      string          `yaml:"db_url" env:"INCIDENTDESK_DB_URL"`
	DBPath     string          `yaml:"db_path" env:"INCIDENTDESK_DB_PATH" env-default:"data/incidentdesk.db"`
	ListenAddr string          `yaml:"listen_addr" env:"INCIDENTDESK_LISTEN_ADDR" env-default:"0.0.0.0:8080"`
	SessionTTL time.Duration   `yaml:"session_ttl" env:"INCIDENTDESK_SESSION_TTL" env-default:"12h"`
	TLSEnabled bool            `yaml:"tls_enabled" env:"INCIDENTDESK_TLS_ENABLED" env-default:"false"`
	TLSCert    string          `yaml:"tls_cert" env:"INCIDENTDESK_TLS_CERT"`
	TLSKey     string          `yaml:"tls_key" env:"INCIDENTDESK_TLS_KEY"`
	Uploads    UploadsConfig   `yaml:"uploads"`
	Notify     NotifyConfig    `yaml:"notify"`
	Reminders  RemindersConfig `yaml:"reminders"`
}

type UploadsConfig struct {
	Dir      string `yaml:"dir" env:"INCIDENTDESK_UPLOADS_DIR" env-default:"data/uploads"`
	MaxBytes int64  `yaml:"max_bytes" env:"INCIDENTDESK_UPLOADS_MAX_BYTES" env-default:"10485760"`
}

// NotifyConfig carries everything the dispatcher needs. It is built once at
// startup and handed to the dispatcher constructor; nothing else reads these
// values.
type NotifyConfig struct {
	OfficerEmail   string `yaml:"officer_email" env:"INCIDENTDESK_NOTIFY_OFFICER_EMAIL"`
	SendGridAPIKey string `yaml:"sendgrid_api_key" env:"INCIDENTDESK_SENDGRID_API_KEY"`
	FromEmail      string `yaml:"from_email" env:"INCIDENTDESK_NOTIFY_FROM_EMAIL" env-default:"no-reply@incidentdesk.local"`
	FromName       string `yaml:"from_name" env:"INCIDENTDESK_NOTIFY_FROM_NAME" env-default:"Incident Desk"`
	BaseURL        string `yaml:"base_url" env:"INCIDENTDESK_BASE_URL" env-default:"http://localhost:8080"`
}

type RemindersConfig struct {
	Enabled bool   `yaml:"enabled" env:"INCIDENTDESK_REMINDERS_ENABLED" env-default:"false"`
	Cron    string `yaml:"cron" env:"INCIDENTDESK_REMINDERS_CRON" env-default:"0 9 2 1 *"`
}

const maxSessionTTL = 24 * time.Hour

func (c *AppConfig) EffectiveSessionTTL() time.Duration {
	ttl := maxSessionTTL
	if c != nil && c.SessionTTL > 0 {
		ttl = c.SessionTTL
	}
	if ttl > maxSessionTTL {
		return maxSessionTTL
	}
	return ttl
}
