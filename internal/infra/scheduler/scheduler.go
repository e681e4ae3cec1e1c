package scheduler

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"schoolbridge/internal/app"
	"schoolbridge/internal/domain/alert"

	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"
)

// ErrScanInProgress is returned by RunNow while another scan is running.
var ErrScanInProgress = errors.New("reminder scan already in progress")

const defaultScanTimeout = 10 * time.Minute

// ReminderRunner performs one scan for due assignments.
type ReminderRunner interface {
	ProcessAssignmentReminders(ctx context.Context, now time.Time) (app.ReminderReport, error)
}

var _ app.ReminderTrigger = (*ReminderScheduler)(nil)

type ReminderScheduler struct {
	cronEngine *cron.Cron
	runner     ReminderRunner
	alerter    alert.Alerter
	logger     *logrus.Entry
	cronSpec   string
	timeout    time.Duration
	now        func() time.Time

	running sync.Mutex

	mu      sync.RWMutex
	lastRun *app.ReminderRun
}

func NewReminderScheduler(
	runner ReminderRunner,
	alerter alert.Alerter,
	logger *logrus.Entry,
	cronSpec string, // e.g. "@every 30m"
	timeout time.Duration,
) *ReminderScheduler {
	if alerter == nil {
		alerter = alert.Nop{}
	}
	if timeout <= 0 {
		timeout = defaultScanTimeout
	}
	cronLogger := cron.PrintfLogger(logger)
	return &ReminderScheduler{
		cronEngine: cron.New(
			cron.WithLocation(time.UTC),
			cron.WithLogger(cronLogger),
			cron.WithChain(cron.Recover(cronLogger), cron.SkipIfStillRunning(cronLogger)),
		),
		runner:   runner,
		alerter:  alerter,
		logger:   logger,
		cronSpec: cronSpec,
		timeout:  timeout,
		now:      time.Now,
	}
}

func (s *ReminderScheduler) Start() error {
	s.logger.WithField("spec", s.cronSpec).Info("Starting reminder scheduler...")

	_, err := s.cronEngine.AddFunc(s.cronSpec, func() {
		s.logger.Info("Cron job triggered for assignment reminders.")
		if _, err := s.RunNow(context.Background()); err != nil && !errors.Is(err, ErrScanInProgress) {
			s.logger.WithError(err).Error("Assignment reminder scan failed")
		}
	})
	if err != nil {
		return fmt.Errorf("could not add reminder cron job %q: %w", s.cronSpec, err)
	}

	s.cronEngine.Start()
	s.logger.Info("Reminder scheduler started.")
	return nil
}

// RunNow performs one scan immediately, bounded by the scheduler timeout.
// Scans never overlap: a call made while one is running returns
// ErrScanInProgress and is only recorded as skipped.
func (s *ReminderScheduler) RunNow(ctx context.Context) (app.ReminderReport, error) {
	if !s.running.TryLock() {
		now := s.now().UTC()
		s.mu.Lock()
		s.lastRun = &app.ReminderRun{Report: app.ReminderReport{StartedAt: now, FinishedAt: now}, Skipped: true}
		s.mu.Unlock()
		s.logger.Warn("Reminder scan skipped, previous scan still running")
		return app.ReminderReport{}, ErrScanInProgress
	}
	defer s.running.Unlock()

	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	report, err := s.runner.ProcessAssignmentReminders(ctx, s.now().UTC())

	s.mu.Lock()
	s.lastRun = &app.ReminderRun{Report: report, Err: err}
	s.mu.Unlock()

	log := s.logger.WithFields(logrus.Fields{
		"found":       report.Found,
		"notified":    report.Notified,
		"no_audience": report.NoAudience,
		"failed":      report.Failed,
	})
	if err != nil {
		log.WithError(err).Error("Reminder scan aborted")
		s.alert(fmt.Sprintf("Assignment reminder scan aborted: %v", err))
		return report, err
	}
	log.Info("Reminder scan finished")
	if report.Failed > 0 {
		s.alert(fmt.Sprintf("Assignment reminder scan finished with %d failed of %d due assignments.", report.Failed, report.Found))
	}
	return report, nil
}

// LastRun returns the outcome of the latest scan, or nil before the first one.
func (s *ReminderScheduler) LastRun() *app.ReminderRun {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.lastRun == nil {
		return nil
	}
	lr := *s.lastRun
	return &lr
}

func (s *ReminderScheduler) alert(text string) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := s.alerter.Alert(ctx, text); err != nil {
		s.logger.WithError(err).Warn("Failed to deliver operator alert")
	}
}

func (s *ReminderScheduler) Stop() {
	s.logger.Info("Stopping reminder scheduler...")
	ctx := s.cronEngine.Stop() // waits for a running job
	<-ctx.Done()
	s.logger.Info("Reminder scheduler gracefully stopped.")
}
