package CronJobs

import (
	"fmt"
	"sync"

	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"

	"Workshop/Maintenance"
)

// Generator is the part of the maintenance service the scheduler drives.
type Generator interface {
	AutoGenerateAll(vehicles []string) (*Maintenance.BatchResult, error)
}

// AutoGenerateScheduler periodically turns unused materials into draft job cards
type AutoGenerateScheduler struct {
	cronScheduler *cron.Cron
	generator     Generator
	schedule      string
	jobID         cron.EntryID
	mu            sync.Mutex
}

// NewAutoGenerateScheduler uses a six-field spec with seconds,
// e.g. "0 0 2 * * *" = At 02:00:00 AM every day
func NewAutoGenerateScheduler(generator Generator, schedule string) *AutoGenerateScheduler {
	return &AutoGenerateScheduler{
		cronScheduler: cron.New(cron.WithSeconds()),
		generator:     generator,
		schedule:      schedule,
	}
}

func (s *AutoGenerateScheduler) Start() error {
	var err error
	s.jobID, err = s.cronScheduler.AddFunc(s.schedule, s.run)
	if err != nil {
		return fmt.Errorf("error scheduling auto-generate job: %w", err)
	}

	s.cronScheduler.Start()
	logrus.WithField("schedule", s.schedule).Info("auto-generate scheduler started")
	return nil
}

func (s *AutoGenerateScheduler) Stop() {
	if s.cronScheduler != nil {
		<-s.cronScheduler.Stop().Done()
		logrus.Info("auto-generate scheduler stopped")
	}
}

// UpdateSchedule swaps the cron spec. The old entry is kept if the new one is invalid.
func (s *AutoGenerateScheduler) UpdateSchedule(schedule string) error {
	jobID, err := s.cronScheduler.AddFunc(schedule, s.run)
	if err != nil {
		return fmt.Errorf("error updating auto-generate schedule: %w", err)
	}
	s.cronScheduler.Remove(s.jobID)
	s.jobID = jobID
	s.schedule = schedule
	logrus.WithField("schedule", schedule).Info("auto-generate schedule updated")
	return nil
}

// Schedule returns the active cron spec.
func (s *AutoGenerateScheduler) Schedule() string {
	return s.schedule
}

// run skips a tick while the previous batch is still running.
func (s *AutoGenerateScheduler) run() {
	if !s.mu.TryLock() {
		logrus.Warn("previous auto-generate run still in progress, skipping")
		return
	}
	defer s.mu.Unlock()

	result, err := s.generator.AutoGenerateAll(nil)
	if err != nil {
		logrus.WithError(err).Error("scheduled auto-generate failed")
		return
	}
	logrus.WithFields(logrus.Fields{
		"created": result.Succeeded,
		"failed":  result.Failed,
	}).Info("scheduled auto-generate finished")
}
