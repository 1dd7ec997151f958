package notify

import (
	"bytes"
	"context"
	"fmt"
	"sort"
	"strings"
	"text/template"
	"time"

	"incidentdesk/config"
	"incidentdesk/core/store"
	"incidentdesk/core/utils"
)

const (
	ReminderSent    = "sent"
	ReminderFailed  = "failed"
	ReminderSkipped = "skipped"
)

var incidentCreatedTmpl = template.Must(template.New("incident_created").Parse(
	`A new security incident has been filed.

Incident ID: {{.ID}}
Reporter:    {{.ReporterName}}
Date:        {{.IncidentDate}}
Priority:    {{.Priority}}
PHI involved: {{if .PHIInvolved}}yes{{else}}no{{end}}

{{.Description}}

Review it at {{.Link}}
`))

var annualReminderTmpl = template.Must(template.New("annual_reminder").Parse(
	`Hello,

This is your annual privacy and security reminder. Our records show you
reported {{.Count}} incident{{if ne .Count 1}}s{{end}} during {{.Year}}.

Please review your reporting obligations and confirm your training is current.

{{if .Link}}Sign in at {{.Link}} for details.{{end}}
`))

// Dispatcher sends outbound notifications. Every send is best effort: a
// notification failure is logged and never propagated to the operation that
// triggered it.
type Dispatcher struct {
	sender EmailSender
	store  store.IncidentsStore
	cfg    config.NotifyConfig
	logger *utils.Logger
}

func NewDispatcher(sender EmailSender, st store.IncidentsStore, cfg config.NotifyConfig, logger *utils.Logger) *Dispatcher {
	return &Dispatcher{sender: sender, store: st, cfg: cfg, logger: logger}
}

// IncidentCreated notifies the privacy officer in the background.
func (d *Dispatcher) IncidentCreated(incident *store.Incident) {
	if d == nil || incident == nil {
		return
	}
	officer := strings.TrimSpace(d.cfg.OfficerEmail)
	if officer == "" {
		d.logger.Printf("no privacy officer address configured, skipping incident notification for %s", incident.ID)
		return
	}
	if d.sender == nil {
		d.logger.Printf("email sender not configured, skipping incident notification for %s", incident.ID)
		return
	}
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		var body bytes.Buffer
		err := incidentCreatedTmpl.Execute(&body, struct {
			*store.Incident
			Link string
		}{incident, d.incidentLink(incident.ID)})
		if err != nil {
			d.logger.Errorf("render incident notification: %v", err)
			return
		}
		msg := Message{
			To:      officer,
			Subject: fmt.Sprintf("New security incident: %s priority", incident.Priority),
			Text:    body.String(),
		}
		if err := d.sender.Send(ctx, msg); err != nil {
			d.logger.Errorf("send incident notification for %s: %v", incident.ID, err)
		}
	}()
}

func (d *Dispatcher) incidentLink(id string) string {
	base := strings.TrimRight(strings.TrimSpace(d.cfg.BaseURL), "/")
	if base == "" {
		return id
	}
	return base + "/incidents/" + id
}

// SweepResult summarizes one annual reminder run.
type SweepResult struct {
	Year    int `json:"year"`
	Sent    int `json:"sent"`
	Failed  int `json:"failed"`
	Skipped int `json:"skipped"`
	Total   int `json:"total"`
}

// SendAnnualReminders emails every distinct reporter from the given year.
// Addresses are lowercased and deduplicated first. Blank, "n/a" and malformed
// addresses are dropped without an audit row; every other address gets an
// annual_reminders row with the outcome. One bad address never stops the rest
// of the sweep.
func (d *Dispatcher) SendAnnualReminders(ctx context.Context, year int) (*SweepResult, error) {
	emails, err := d.store.ReporterEmailsForYear(ctx, year)
	if err != nil {
		return nil, fmt.Errorf("collect reporter emails: %w", err)
	}

	seen := make(map[string]bool)
	var targets []string
	for _, raw := range emails {
		email := strings.ToLower(strings.TrimSpace(raw))
		if seen[email] {
			continue
		}
		seen[email] = true
		targets = append(targets, email)
	}
	sort.Strings(targets)

	result := &SweepResult{Year: year}
	for _, email := range targets {
		result.Total++
		if !deliverable(email) {
			result.Skipped++
			continue
		}
		count, err := d.store.CountReporterIncidents(ctx, email, year)
		if err != nil {
			d.logger.Errorf("count incidents for %s: %v", email, err)
		}
		status := d.sendReminder(ctx, email, year, count)
		switch status {
		case ReminderSent:
			result.Sent++
		case ReminderFailed:
			result.Failed++
		default:
			result.Skipped++
		}
		rec := &store.AnnualReminder{
			Email:         email,
			Year:          year,
			Status:        status,
			IncidentCount: count,
		}
		if err := d.store.CreateAnnualReminder(ctx, rec); err != nil {
			d.logger.Errorf("record annual reminder for %s: %v", email, err)
		}
	}
	d.logger.Printf("annual reminder sweep for %d: sent=%d failed=%d skipped=%d",
		year, result.Sent, result.Failed, result.Skipped)
	return result, nil
}

func (d *Dispatcher) sendReminder(ctx context.Context, email string, year, count int) string {
	if d.sender == nil {
		d.logger.Printf("email sender not configured, skipping reminder to %s", email)
		return ReminderSkipped
	}
	var body bytes.Buffer
	err := annualReminderTmpl.Execute(&body, struct {
		Count int
		Year  int
		Link  string
	}{count, year, strings.TrimSpace(d.cfg.BaseURL)})
	if err != nil {
		d.logger.Errorf("render reminder for %s: %v", email, err)
		return ReminderFailed
	}
	msg := Message{
		To:      email,
		Subject: fmt.Sprintf("Annual security reminder (%d)", year),
		Text:    body.String(),
	}
	if err := d.sender.Send(ctx, msg); err != nil {
		d.logger.Errorf("send reminder to %s: %v", email, err)
		return ReminderFailed
	}
	return ReminderSent
}

func deliverable(email string) bool {
	if email == "" || email == "n/a" {
		return false
	}
	return strings.Contains(email, "@")
}
