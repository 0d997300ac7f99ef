package monitoring

import (
	"fmt"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog/log"
)

// Scheduler runs the storage check on a cron schedule.
type Scheduler struct {
	spec    string
	monitor *StorageMonitor
	cron    *cron.Cron
}

// NewScheduler creates a new scheduler instance. An empty spec disables it.
func NewScheduler(spec string, monitor *StorageMonitor) *Scheduler {
	return &Scheduler{spec: spec, monitor: monitor}
}

// Start runs one check immediately, then registers the recurring job.
func (s *Scheduler) Start() error {
	if s.spec == "" {
		log.Info().Msg("Storage monitor disabled")
		return nil
	}

	c := cron.New()
	if _, err := c.AddFunc(s.spec, s.runCheck); err != nil {
		return fmt.Errorf("invalid storage check schedule %q: %w", s.spec, err)
	}

	log.Info().Str("schedule", s.spec).Msg("Starting storage monitor...")
	s.runCheck()
	c.Start()
	s.cron = c
	return nil
}

// Stop halts the scheduler and waits for a running check to finish.
func (s *Scheduler) Stop() {
	if s.cron == nil {
		return
	}
	<-s.cron.Stop().Done()
	log.Info().Msg("Stopped storage monitor.")
}

func (s *Scheduler) runCheck() {
	if _, err := s.monitor.Check(); err != nil {
		log.Error().Err(err).Msg("Storage check failed")
	}
}
