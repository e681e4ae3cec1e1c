package app

import (
	"context"
	"errors"
	"time"
)

var ErrAdminNotAuthorized = errors.New("performing user is not authorized as an admin")

// ReminderRun is the outcome of the latest reminder scan attempt. Skipped
// is set when the attempt found another scan still running.
type ReminderRun struct {
	Report  ReminderReport
	Err     error
	Skipped bool
}

// Duration is the wall time the scan took.
func (r ReminderRun) Duration() time.Duration {
	return r.Report.FinishedAt.Sub(r.Report.StartedAt)
}

// ReminderTrigger runs reminder scans on demand and remembers the latest one.
type ReminderTrigger interface {
	RunNow(ctx context.Context) (ReminderReport, error)
	LastRun() *ReminderRun
}

// AdminService exposes operator actions to the single configured admin.
type AdminService struct {
	reminders       ReminderTrigger
	adminTelegramID int64
}

func NewAdminService(reminders ReminderTrigger, adminID int64) *AdminService {
	return &AdminService{
		reminders:       reminders,
		adminTelegramID: adminID,
	}
}

func (s *AdminService) IsAdmin(telegramID int64) bool {
	return telegramID == s.adminTelegramID
}

// TriggerReminderScan runs a scan right away instead of waiting for the cron.
func (s *AdminService) TriggerReminderScan(ctx context.Context, performingAdminID int64) (ReminderReport, error) {
	if !s.IsAdmin(performingAdminID) {
		return ReminderReport{}, ErrAdminNotAuthorized
	}
	return s.reminders.RunNow(ctx)
}

// ReminderStatus returns the latest scan, or nil if none has completed yet.
func (s *AdminService) ReminderStatus(performingAdminID int64) (*ReminderRun, error) {
	if !s.IsAdmin(performingAdminID) {
		return nil, ErrAdminNotAuthorized
	}
	return s.reminders.LastRun(), nil
}
