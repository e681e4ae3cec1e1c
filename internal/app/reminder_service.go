package app

import (
	"context"
	"fmt"
	"time"

	"schoolbridge/internal/domain/classroom"
	"schoolbridge/internal/domain/notification"

	"github.com/sirupsen/logrus"
)

// ReminderReport summarizes one scan for due assignments.
type ReminderReport struct {
	StartedAt  time.Time
	FinishedAt time.Time
	Found      int
	Notified   int
	NoAudience int
	Failed     int
}

// ReminderService finds assignments that are about to fall due and reminds
// the guardians of their classroom.
type ReminderService struct {
	classrooms classroom.Repository
	notifier   EventNotifier
	window     time.Duration
	logger     *logrus.Entry
}

func NewReminderService(cr classroom.Repository, notifier EventNotifier, window time.Duration, logger *logrus.Entry) *ReminderService {
	if window <= 0 {
		window = 24 * time.Hour
	}
	return &ReminderService{
		classrooms: cr,
		notifier:   notifier,
		window:     window,
		logger:     logger,
	}
}

// ProcessAssignmentReminders notifies once per (classroom, assignment) due
// within the window starting at now. Nothing is remembered between scans:
// an assignment inside the window is reminded on every scan.
func (s *ReminderService) ProcessAssignmentReminders(ctx context.Context, now time.Time) (ReminderReport, error) {
	report := ReminderReport{StartedAt: time.Now()}
	from, to := now, now.Add(s.window)

	due, err := s.classrooms.ListAssignmentsDueBetween(ctx, from, to)
	if err != nil {
		report.FinishedAt = time.Now()
		return report, fmt.Errorf("failed to list assignments due before %s: %w", to.Format(time.RFC3339), err)
	}
	report.Found = len(due)
	s.logger.WithFields(logrus.Fields{
		"from":  from.Format(time.RFC3339),
		"to":    to.Format(time.RFC3339),
		"found": len(due),
	}).Info("Scanning for assignment reminders")

	for _, d := range due {
		if ctx.Err() != nil {
			report.FinishedAt = time.Now()
			return report, fmt.Errorf("reminder scan interrupted: %w", ctx.Err())
		}
		n, err := s.notifier.NotifyClassroomEvent(ctx, Event{
			Type:        notification.TypeAssignmentReminder,
			ClassroomID: d.ClassroomID,
			Title:       d.Assignment.Title,
			DueDate:     d.Assignment.DueDate,
		})
		switch {
		case err != nil:
			report.Failed++
			s.logger.WithError(err).WithFields(logrus.Fields{
				"classroom_id":  d.ClassroomID,
				"assignment_id": d.Assignment.ID,
			}).Error("Failed to send assignment reminder")
		case n == nil:
			report.NoAudience++
		default:
			report.Notified++
		}
	}

	report.FinishedAt = time.Now()
	return report, nil
}
