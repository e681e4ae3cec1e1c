// internal/domain/notification/repository.go
package notification

import "context"

// Repository persists notification records and their read state.
type Repository interface {
	// Create stores n and fills in its ID and CreatedAt.
	Create(ctx context.Context, n *Notification) error
	// ListForParent returns the notifications addressed to parentID, newest first.
	ListForParent(ctx context.Context, parentID string, limit, skip int) ([]View, error)
	// MarkRead appends a read receipt for parentID unless one already exists.
	// It returns ErrNotificationNotFound when id does not resolve to a record
	// that lists parentID as a recipient.
	MarkRead(ctx context.Context, id, parentID string) (*Notification, error)
}
