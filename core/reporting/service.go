package reporting

import (
	"context"
	"strings"

	"incidentdesk/core/store"
)

// Stats is the dashboard summary over all incidents.
type Stats struct {
	TotalIncidents   int `json:"total_incidents"`
	Reported         int `json:"reported"`
	Investigating    int `json:"investigating"`
	Contained        int `json:"contained"`
	Resolved         int `json:"resolved"`
	ReportedToOCR    int `json:"reported_to_ocr"`
	Critical         int `json:"critical"`
	PHIInvolved      int `json:"phi_involved"`
	PendingOCRReport int `json:"pending_ocr_report"`
}

// AnnualReport aggregates one calendar year of incidents.
type AnnualReport struct {
	Year           int              `json:"year"`
	TotalIncidents int              `json:"total_incidents"`
	ByStatus       map[string]int   `json:"by_status"`
	ByPriority     map[string]int   `json:"by_priority"`
	PHIInvolved    int              `json:"phi_involved"`
	OCRRequired    int              `json:"ocr_required"`
	OCRReported    int              `json:"ocr_reported"`
	Incidents      []store.Incident `json:"incidents"`
}

type Service struct {
	store store.IncidentsStore
}

func NewService(st store.IncidentsStore) *Service {
	return &Service{store: st}
}

func (s *Service) Stats(ctx context.Context) (*Stats, error) {
	incidents, err := s.store.ListIncidents(ctx, store.IncidentFilter{})
	if err != nil {
		return nil, err
	}
	stats := &Stats{TotalIncidents: len(incidents)}
	for _, inc := range incidents {
		switch inc.Status {
		case store.StatusReported:
			stats.Reported++
		case store.StatusInvestigating:
			stats.Investigating++
		case store.StatusContained:
			stats.Contained++
		case store.StatusResolved:
			stats.Resolved++
		case store.StatusReportedToOCR:
			stats.ReportedToOCR++
		}
		if inc.Priority == store.PriorityCritical {
			stats.Critical++
		}
		if inc.PHIInvolved {
			stats.PHIInvolved++
		}
		if inc.OCRReportRequired && strings.TrimSpace(inc.OCRReportDate) == "" {
			stats.PendingOCRReport++
		}
	}
	return stats, nil
}

// Annual builds the yearly report. Incidents stay in newest-first order as
// returned by the store.
func (s *Service) Annual(ctx context.Context, year int) (*AnnualReport, error) {
	incidents, err := s.store.ListIncidentsByYear(ctx, year)
	if err != nil {
		return nil, err
	}
	report := &AnnualReport{
		Year:           year,
		TotalIncidents: len(incidents),
		ByStatus:       make(map[string]int),
		ByPriority:     make(map[string]int),
		Incidents:      incidents,
	}
	for _, inc := range incidents {
		report.ByStatus[inc.Status]++
		report.ByPriority[inc.Priority]++
		if inc.PHIInvolved {
			report.PHIInvolved++
		}
		if inc.OCRReportRequired {
			report.OCRRequired++
		}
		if strings.TrimSpace(inc.OCRReportDate) != "" {
			report.OCRReported++
		}
	}
	return report, nil
}
