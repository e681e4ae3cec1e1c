package inmem

import (
	"context"
	"sort"
	"sync"
	"time"

	"schoolbridge/internal/domain/notification"
)

type NotificationRepository struct {
	mu      sync.RWMutex
	records map[string]*notification.Notification
}

var _ notification.Repository = (*NotificationRepository)(nil)

func NewNotificationRepository() *NotificationRepository {
	return &NotificationRepository{records: make(map[string]*notification.Notification)}
}

func clone(n *notification.Notification) *notification.Notification {
	c := *n
	c.Recipients = append([]string(nil), n.Recipients...)
	c.Read = append([]notification.ReadReceipt{}, n.Read...)
	return &c
}

func (r *NotificationRepository) Create(_ context.Context, n *notification.Notification) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	n.ID = newID("ntf")
	if n.CreatedAt.IsZero() {
		n.CreatedAt = time.Now().UTC()
	}
	if n.Read == nil {
		n.Read = []notification.ReadReceipt{}
	}
	r.records[n.ID] = clone(n)
	return nil
}

func (r *NotificationRepository) ListForParent(_ context.Context, parentID string, limit, skip int) ([]notification.View, error) {
	r.mu.RLock()
	matching := make([]*notification.Notification, 0)
	for _, n := range r.records {
		if n.IsRecipient(parentID) {
			matching = append(matching, clone(n))
		}
	}
	r.mu.RUnlock()

	sort.SliceStable(matching, func(i, j int) bool {
		if matching[i].CreatedAt.Equal(matching[j].CreatedAt) {
			return matching[i].ID > matching[j].ID
		}
		return matching[i].CreatedAt.After(matching[j].CreatedAt)
	})

	if skip >= len(matching) {
		return []notification.View{}, nil
	}
	matching = matching[skip:]
	if limit > 0 && limit < len(matching) {
		matching = matching[:limit]
	}

	views := make([]notification.View, len(matching))
	for i, n := range matching {
		views[i] = notification.NewView(*n, parentID)
	}
	return views, nil
}

func (r *NotificationRepository) MarkRead(_ context.Context, id, parentID string) (*notification.Notification, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	n, ok := r.records[id]
	if !ok || !n.IsRecipient(parentID) {
		return nil, notification.ErrNotificationNotFound
	}
	if !n.IsReadBy(parentID) {
		n.Read = append(n.Read, notification.ReadReceipt{ParentID: parentID, ReadAt: time.Now().UTC()})
	}
	return clone(n), nil
}

// All returns every stored record, for assertions in tests.
func (r *NotificationRepository) All() []*notification.Notification {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]*notification.Notification, 0, len(r.records))
	for _, n := range r.records {
		out = append(out, clone(n))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out
}
