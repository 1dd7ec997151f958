package notify

import (
	"context"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"incidentdesk/config"
	"incidentdesk/core/utils"
)

// Scheduler runs the annual reminder sweep on a cron expression. Each firing
// sweeps the previous calendar year.
type Scheduler struct {
	cfg        config.RemindersConfig
	dispatcher *Dispatcher
	logger     *utils.Logger

	mu      sync.Mutex
	cron    *cron.Cron
	running bool
}

func NewScheduler(cfg config.RemindersConfig, dispatcher *Dispatcher, logger *utils.Logger) *Scheduler {
	return &Scheduler{cfg: cfg, dispatcher: dispatcher, logger: logger}
}

func (s *Scheduler) Start() error {
	if s == nil || s.dispatcher == nil || !s.cfg.Enabled {
		return nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.running {
		return nil
	}
	c := cron.New()
	_, err := c.AddFunc(s.cfg.Cron, func() {
		year := time.Now().UTC().Year() - 1
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Minute)
		defer cancel()
		if _, err := s.dispatcher.SendAnnualReminders(ctx, year); err != nil {
			s.logger.Errorf("scheduled reminder sweep for %d: %v", year, err)
		}
	})
	if err != nil {
		return err
	}
	c.Start()
	s.cron = c
	s.running = true
	s.logger.Printf("annual reminder scheduler started (%s)", s.cfg.Cron)
	return nil
}

func (s *Scheduler) Stop(ctx context.Context) error {
	if s == nil {
		return nil
	}
	s.mu.Lock()
	c := s.cron
	s.cron = nil
	wasRunning := s.running
	s.running = false
	s.mu.Unlock()
	if !wasRunning || c == nil {
		return nil
	}
	stopped := c.Stop()
	select {
	case <-stopped.Done():
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
