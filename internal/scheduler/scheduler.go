package scheduler

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/go-co-op/gocron"

	"github.com/altafino/folder-import/internal/importer"
	"github.com/altafino/folder-import/internal/logger"
	"github.com/altafino/folder-import/internal/types"
)

// RunFunc sweeps the pending processes of one configuration
type RunFunc func(ctx context.Context, cfg *types.Config) error

type Scheduler struct {
	scheduler *gocron.Scheduler
	logger    *slog.Logger
	jobs      map[string]*gocron.Job
	run       RunFunc
	mu        sync.RWMutex
}

// NewScheduler creates a scheduler that runs the import service for every job
func NewScheduler(logger *slog.Logger) *Scheduler {
	s := &Scheduler{
		scheduler: gocron.NewScheduler(time.UTC),
		logger:    logger,
		jobs:      make(map[string]*gocron.Job),
	}
	s.run = s.processPending
	// a sweep that is still running is never started twice
	s.scheduler.SingletonModeAll()
	return s
}

// Start starts the scheduler
func (s *Scheduler) Start() {
	s.scheduler.StartAsync()
}

// Stop stops the scheduler
func (s *Scheduler) Stop() {
	s.scheduler.Stop()
}

// HasJob reports whether a job is scheduled for the configuration
func (s *Scheduler) HasJob(configID string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.jobs[configID]
	return ok
}

func (s *Scheduler) processPending(ctx context.Context, cfg *types.Config) error {
	log, closer, err := logger.ForProfile(cfg, s.logger)
	if err != nil {
		s.logger.Warn("failed to setup profile logger", "config_id", cfg.Meta.ID, "error", err)
	}
	defer closer.Close()

	svc, err := importer.NewService(cfg, log)
	if err != nil {
		return err
	}
	defer svc.Close()
	return svc.ProcessPending(ctx)
}

// UpdateJob updates or creates a job for a given configuration
func (s *Scheduler) UpdateJob(cfg *types.Config) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if job, exists := s.jobs[cfg.Meta.ID]; exists {
		s.scheduler.RemoveByReference(job)
		delete(s.jobs, cfg.Meta.ID)
	}

	if !cfg.Meta.Enabled || !cfg.Scheduling.Enabled {
		s.logger.Info("scheduling disabled for configuration", "id", cfg.Meta.ID)
		return nil
	}

	var stopTime time.Time
	if cfg.Scheduling.StopAt != "" {
		t, err := time.Parse(time.RFC3339, cfg.Scheduling.StopAt)
		if err != nil {
			return fmt.Errorf("invalid stop time: %w", err)
		}
		if t.Before(time.Now().UTC()) {
			s.logger.Warn("skipping job schedule - stop time is in the past",
				"id", cfg.Meta.ID,
				"name", cfg.Meta.Name,
				"stop_at", cfg.Scheduling.StopAt,
			)
			return nil
		}
		stopTime = t
	}

	var startTime time.Time
	if cfg.Scheduling.StartAt != "" {
		t, err := time.Parse(time.RFC3339, cfg.Scheduling.StartAt)
		if err != nil {
			return fmt.Errorf("invalid start time: %w", err)
		}
		startTime = t
	}

	switch cfg.Scheduling.FrequencyEvery {
	case "minute", "hour", "day", "week", "month":
	default:
		return fmt.Errorf("invalid frequency: %s", cfg.Scheduling.FrequencyEvery)
	}

	jobFunc := func() {
		if !stopTime.IsZero() && time.Now().UTC().After(stopTime) {
			s.logger.Info("stop time reached, removing job", "config_id", cfg.Meta.ID)
			go s.RemoveJob(cfg.Meta.ID)
			return
		}

		s.logger.Info("executing scheduled import",
			"config_id", cfg.Meta.ID,
			"time", time.Now().UTC(),
		)

		if err := s.run(context.Background(), cfg); err != nil {
			s.logger.Error("failed to process pending imports",
				"error", err,
				"config_id", cfg.Meta.ID,
			)
		}
	}

	job := s.scheduler.Every(cfg.Scheduling.FrequencyAmount)

	switch cfg.Scheduling.FrequencyEvery {
	case "minute":
		job = job.Minutes()
	case "hour":
		job = job.Hours()
	case "day":
		job = job.Days()
	case "week":
		job = job.Weeks()
	case "month":
		// first day of the month
		job = job.Months(1)
	}

	switch {
	case !startTime.IsZero():
		job = job.StartAt(startTime)
	case !cfg.Scheduling.StartNow:
		job = job.WaitForSchedule()
	}

	scheduledJob, err := job.Do(jobFunc)
	if err != nil {
		return fmt.Errorf("failed to schedule job: %w", err)
	}

	s.jobs[cfg.Meta.ID] = scheduledJob

	s.logger.Info("scheduled job updated",
		"id", cfg.Meta.ID,
		"frequency", fmt.Sprintf("every %d %s", cfg.Scheduling.FrequencyAmount, cfg.Scheduling.FrequencyEvery),
		"start_now", cfg.Scheduling.StartNow,
		"start_at", cfg.Scheduling.StartAt,
		"stop_at", cfg.Scheduling.StopAt,
	)

	return nil
}

// RemoveJob removes a job for a given configuration ID
func (s *Scheduler) RemoveJob(configID string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if job, exists := s.jobs[configID]; exists {
		s.scheduler.RemoveByReference(job)
		delete(s.jobs, configID)
		s.logger.Info("removed scheduled job", "id", configID)
	}
}
