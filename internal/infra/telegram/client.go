// internal/infra/telegram/client.go
package telegram

import (
	"context"
	"fmt"

	"schoolbridge/internal/domain/alert"

	"gopkg.in/telebot.v3"
)

// Sender is the part of *telebot.Bot used to push messages.
type Sender interface {
	Send(to telebot.Recipient, what interface{}, opts ...interface{}) (*telebot.Message, error)
}

// TelebotAdapter sends plain messages through a telebot sender.
type TelebotAdapter struct {
	bot Sender
}

func NewTelebotAdapter(b Sender) *TelebotAdapter {
	return &TelebotAdapter{bot: b}
}

// SendMessage sends a text message to the specified recipient.
func (tba *TelebotAdapter) SendMessage(recipientChatID int64, text string, options *telebot.SendOptions) error {
	if options == nil {
		options = &telebot.SendOptions{}
	}

	recipient := &telebot.User{ID: recipientChatID}
	_, err := tba.bot.Send(recipient, text, options)
	return err
}

// AdminAlerter forwards background failures to the admin chat.
type AdminAlerter struct {
	client  *TelebotAdapter
	adminID int64
}

var _ alert.Alerter = (*AdminAlerter)(nil)

func NewAdminAlerter(client *TelebotAdapter, adminID int64) *AdminAlerter {
	return &AdminAlerter{client: client, adminID: adminID}
}

func (a *AdminAlerter) Alert(ctx context.Context, text string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := a.client.SendMessage(a.adminID, "⚠️ "+text, &telebot.SendOptions{DisableWebPagePreview: true}); err != nil {
		return fmt.Errorf("failed to alert admin %d: %w", a.adminID, err)
	}
	return nil
}
