package scheduler

import (
	"context"
	"errors"
	"fmt"

	badger "github.com/dgraph-io/badger/v4"
	"github.com/robfig/cron/v3"
	"github.com/ternarybob/arbor"

	"github.com/eidolon-chat/eidolon/internal/common"
	"github.com/eidolon-chat/eidolon/internal/interfaces"
)

// GCRunner triggers one Badger value log garbage collection cycle
type GCRunner interface {
	RunValueLogGC(discardRatio float64) error
}

// Scheduler runs periodic storage maintenance: Badger value log GC followed
// by a similarity index rebuild, on the configured cron schedule.
type Scheduler struct {
	config *common.MaintenanceConfig
	gc     GCRunner
	index  interfaces.SimilarityIndex
	cron   *cron.Cron
	logger arbor.ILogger
}

// NewScheduler creates a maintenance scheduler. Schedules use the six-field
// cron format with a leading seconds field.
func NewScheduler(config *common.MaintenanceConfig, gc GCRunner, index interfaces.SimilarityIndex, logger arbor.ILogger) *Scheduler {
	return &Scheduler{
		config: config,
		gc:     gc,
		index:  index,
		cron: cron.New(cron.WithParser(cron.NewParser(
			cron.Second | cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow,
		))),
		logger: logger,
	}
}

// Start registers the maintenance job and starts the cron loop. Disabled
// maintenance is a clean no-op.
func (s *Scheduler) Start() error {
	if !s.config.Enabled {
		s.logger.Info().Msg("Maintenance scheduler disabled")
		return nil
	}

	if _, err := s.cron.AddFunc(s.config.Schedule, s.runMaintenance); err != nil {
		return fmt.Errorf("failed to schedule maintenance: %w", err)
	}

	s.cron.Start()
	s.logger.Info().Str("schedule", s.config.Schedule).Msg("Maintenance scheduler started")
	return nil
}

// Stop halts the cron loop and waits for a running job to finish
func (s *Scheduler) Stop() {
	ctx := s.cron.Stop()
	<-ctx.Done()
	s.logger.Info().Msg("Maintenance scheduler stopped")
}

func (s *Scheduler) runMaintenance() {
	s.logger.Debug().Msg("Running storage maintenance")

	// Repeated GC passes reclaim more than one value log file; stop when a
	// pass reports nothing to rewrite
	cycles := 0
	for {
		err := s.gc.RunValueLogGC(0.5)
		if err == nil {
			cycles++
			continue
		}
		if !errors.Is(err, badger.ErrNoRewrite) {
			s.logger.Warn().Err(err).Msg("Badger value log GC failed")
		}
		break
	}

	if err := s.index.Refresh(context.Background()); err != nil {
		s.logger.Warn().Err(err).Msg("Similarity index refresh failed")
	}

	s.logger.Info().Int("gc_cycles", cycles).Msg("Storage maintenance completed")
}
