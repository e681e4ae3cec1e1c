// internal/app/notification_service.go
package app

import (
	"context"
	"errors"
	"fmt"
	"time"

	"schoolbridge/internal/domain/notification"
	"schoolbridge/internal/domain/parent"
	"schoolbridge/internal/domain/push"
	"schoolbridge/internal/domain/translation"

	"github.com/sirupsen/logrus"
)

var ErrUnknownEventType = errors.New("unknown event type")

// EventNotifier is what domain controllers call after committing a change.
type EventNotifier interface {
	NotifyClassroomEvent(ctx context.Context, e Event) (*notification.Notification, error)
}

// NotificationService turns domain events into a persisted notification and
// localized push deliveries, and serves the parents' in-app list.
type NotificationService struct {
	resolver        *RecipientResolver
	notifRepo       notification.Repository
	translator      translation.Translator
	pusher          push.Dispatcher
	defaultLanguage string
	logger          *logrus.Entry
}

var _ EventNotifier = (*NotificationService)(nil)

func NewNotificationService(
	resolver *RecipientResolver,
	nr notification.Repository,
	tr translation.Translator,
	pd push.Dispatcher,
	defaultLanguage string,
	logger *logrus.Entry,
) *NotificationService {
	return &NotificationService{
		resolver:        resolver,
		notifRepo:       nr,
		translator:      tr,
		pusher:          pd,
		defaultLanguage: parent.NormalizeLanguage(defaultLanguage, parent.DefaultLanguage),
		logger:          logger,
	}
}

// NotifyClassroomEvent resolves the event's guardians, stores one
// notification for all of them and pushes a localized copy to each language
// group. It returns (nil, nil) when nobody is entitled to the event.
// Translation and push problems never fail the call; a store error does.
func (s *NotificationService) NotifyClassroomEvent(ctx context.Context, e Event) (*notification.Notification, error) {
	log := s.logger.WithFields(logrus.Fields{
		"classroom_id": e.ClassroomID,
		"event_type":   e.Type,
	})

	if !e.Type.Valid() {
		return nil, fmt.Errorf("%w: %q", ErrUnknownEventType, e.Type)
	}
	tpl, err := templateFor(e.Type)
	if err != nil {
		return nil, err
	}

	recipients, err := s.resolver.Resolve(ctx, Scope{ClassroomID: e.ClassroomID, StudentIDs: e.StudentIDs})
	if err != nil {
		return nil, fmt.Errorf("failed to resolve recipients: %w", err)
	}
	if recipients.Empty() {
		log.Info("No guardians to notify, skipping")
		return nil, nil
	}

	source := tpl.texts(e)
	original := tpl.compose(e, source)

	// The record is written before any delivery so the in-app list stays
	// complete even when push fails entirely.
	record := &notification.Notification{
		Title:       original.Title,
		Message:     original.Body,
		Type:        e.Type,
		ClassroomID: e.ClassroomID,
		Recipients:  recipients.ParentIDs,
		Read:        []notification.ReadReceipt{},
		CreatedAt:   time.Now().UTC(),
	}
	if err := s.notifRepo.Create(ctx, record); err != nil {
		log.WithError(err).Error("Failed to persist notification")
		return nil, fmt.Errorf("failed to persist notification: %w", err)
	}
	log = log.WithField("notification_id", record.ID)
	log.WithFields(logrus.Fields{
		"recipients": len(recipients.ParentIDs),
		"groups":     len(recipients.Groups),
	}).Info("Notification stored, dispatching to language groups")

	data := map[string]string{
		"type":           string(e.Type),
		"classroomId":    e.ClassroomID,
		"notificationId": record.ID,
	}
	for _, group := range recipients.Groups {
		s.deliverToGroup(ctx, log.WithField("language", group.Language), tpl, e, source, original, group, data)
	}
	return record, nil
}

func (s *NotificationService) deliverToGroup(
	ctx context.Context,
	log *logrus.Entry,
	tpl eventTemplate,
	e Event,
	source []string,
	original Message,
	group RecipientGroup,
	data map[string]string,
) {
	msg := original
	if group.Language != s.defaultLanguage {
		res := s.translator.TranslateBatch(ctx, source, s.defaultLanguage, group.Language)
		if outputs, ok := res.Outputs(); ok && len(outputs) == len(source) {
			msg = tpl.compose(e, outputs)
		} else {
			log.Warn("Translation unavailable, sending source-language text")
		}
	}

	tokens := group.PushTokens()
	if len(tokens) == 0 {
		log.Debug("No push tokens in group, skipping dispatch")
		return
	}
	if err := s.pusher.Dispatch(ctx, tokens, msg.Title, msg.Body, data); err != nil {
		log.WithError(err).Error("Push dispatch failed for group, continuing")
		return
	}
	log.WithField("tokens", len(tokens)).Info("Push dispatched to group")
}

const (
	DefaultPageSize = 20
	MaxPageSize     = 100
)

// ListForParent returns a page of parentID's notifications, newest first.
func (s *NotificationService) ListForParent(ctx context.Context, parentID string, limit, skip int) ([]notification.View, error) {
	if limit <= 0 {
		limit = DefaultPageSize
	}
	limit = min(limit, MaxPageSize)
	skip = max(skip, 0)

	views, err := s.notifRepo.ListForParent(ctx, parentID, limit, skip)
	if err != nil {
		return nil, fmt.Errorf("failed to list notifications for parent %s: %w", parentID, err)
	}
	return views, nil
}

// MarkRead records that parentID has read notification id. Repeated calls
// leave the record unchanged.
func (s *NotificationService) MarkRead(ctx context.Context, id, parentID string) (*notification.Notification, error) {
	n, err := s.notifRepo.MarkRead(ctx, id, parentID)
	if err != nil {
		if errors.Is(err, notification.ErrNotificationNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to mark notification %s read: %w", id, err)
	}
	return n, nil
}
