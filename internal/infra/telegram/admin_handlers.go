package telegram

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"schoolbridge/internal/app"
	"schoolbridge/internal/infra/scheduler"

	"github.com/sirupsen/logrus"
	"gopkg.in/telebot.v3"
)

const (
	unauthorizedReply = "Error: you are not allowed to run this command."
	manualScanTimeout = 10 * time.Minute
	statusTimeLayout  = "2006-01-02 15:04:05 MST"
)

// Router is the part of *telebot.Bot handlers are registered on.
type Router interface {
	Handle(endpoint interface{}, h telebot.HandlerFunc, m ...telebot.MiddlewareFunc)
}

// RegisterAdminHandlers registers the operator commands. Every command checks
// the sender against the admin before doing anything.
func RegisterAdminHandlers(b Router, adminService *app.AdminService, baseLogger *logrus.Entry) {
	b.Handle("/run_reminders", func(c telebot.Context) error {
		handlerLogger := baseLogger.WithFields(logrus.Fields{
			"handler":   "/run_reminders",
			"sender_id": c.Sender().ID,
		})
		handlerLogger.Info("Command received")

		ctx, cancel := context.WithTimeout(context.Background(), manualScanTimeout)
		defer cancel()
		report, err := adminService.TriggerReminderScan(ctx, c.Sender().ID)
		return c.Send(runRemindersReply(report, err, handlerLogger))
	})

	b.Handle("/reminder_status", func(c telebot.Context) error {
		handlerLogger := baseLogger.WithFields(logrus.Fields{
			"handler":   "/reminder_status",
			"sender_id": c.Sender().ID,
		})
		handlerLogger.Info("Command received")

		run, err := adminService.ReminderStatus(c.Sender().ID)
		return c.Send(reminderStatusReply(run, err, handlerLogger))
	})
}

func runRemindersReply(report app.ReminderReport, err error, log *logrus.Entry) string {
	if err != nil {
		logWithError := log.WithError(err)
		switch {
		case errors.Is(err, app.ErrAdminNotAuthorized):
			logWithError.Warn("Unauthorized access attempt")
			return unauthorizedReply
		case errors.Is(err, scheduler.ErrScanInProgress):
			logWithError.Info("Scan already running")
			return "A reminder scan is already running, try again shortly."
		default:
			logWithError.Error("Manual reminder scan failed")
			return fmt.Sprintf("Reminder scan failed: %s", err.Error())
		}
	}
	log.WithField("notified", report.Notified).Info("Manual reminder scan finished")
	return "Reminder scan finished.\n" + formatReport(report)
}

func reminderStatusReply(run *app.ReminderRun, err error, log *logrus.Entry) string {
	if err != nil {
		log.WithError(err).Warn("Unauthorized access attempt")
		return unauthorizedReply
	}
	if run == nil {
		return "No reminder scan has run yet."
	}
	if run.Skipped {
		return fmt.Sprintf("Last reminder scan at %s was skipped: a previous scan was still running.",
			run.Report.StartedAt.UTC().Format(statusTimeLayout))
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Last reminder scan: %s (took %s)\n",
		run.Report.FinishedAt.UTC().Format(statusTimeLayout),
		run.Duration().Round(time.Millisecond))
	if run.Err != nil {
		fmt.Fprintf(&b, "Aborted: %s\n", run.Err.Error())
	}
	b.WriteString(formatReport(run.Report))
	return b.String()
}

func formatReport(r app.ReminderReport) string {
	return fmt.Sprintf("Due assignments: %d\nNotified: %d\nNo audience: %d\nFailed: %d",
		r.Found, r.Notified, r.NoAudience, r.Failed)
}
