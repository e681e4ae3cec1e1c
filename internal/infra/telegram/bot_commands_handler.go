// internal/infra/telegram/bot_commands_handler.go
package telegram

import (
	"fmt"
	"strings"

	"schoolbridge/internal/app"

	"github.com/sirupsen/logrus"
	"gopkg.in/telebot.v3"
)

func RegisterBotCommands(b Router, adminService *app.AdminService, baseLogger *logrus.Entry) {
	startHelpLogger := baseLogger.WithField("handler_group", "start_help")

	b.Handle("/start", func(c telebot.Context) error {
		senderID := c.Sender().ID
		logCtx := startHelpLogger.WithField("command", "/start").WithField("sender_id", senderID)
		logCtx.Info("Processing /start command")
		return c.Send(startReply(adminService.IsAdmin(senderID), c.Sender().FirstName))
	})

	b.Handle("/help", func(c telebot.Context) error {
		senderID := c.Sender().ID
		logCtx := startHelpLogger.WithField("command", "/help").WithField("sender_id", senderID)
		logCtx.Info("Processing /help command")

		if !adminService.IsAdmin(senderID) {
			return c.Send(startReply(false, ""))
		}
		return c.Send(adminHelp(), &telebot.SendOptions{ParseMode: telebot.ModeMarkdown})
	})
}

func startReply(isAdmin bool, firstName string) string {
	if isAdmin {
		return fmt.Sprintf("Hello, %s! Delivery alerts will show up here. Use /help for the list of commands.", firstName)
	}
	return "This bot is for the service operator only. Parents receive notifications in the mobile app."
}

func adminHelp() string {
	var helpText strings.Builder
	helpText.WriteString("Operator commands:\n\n")
	helpText.WriteString("`/run_reminders`\n - Scan for assignments due soon and remind guardians now.\n\n")
	helpText.WriteString("`/reminder_status`\n - Show the outcome of the latest reminder scan.\n\n")
	helpText.WriteString("`/help`\n - Show this message.")
	return helpText.String()
}
