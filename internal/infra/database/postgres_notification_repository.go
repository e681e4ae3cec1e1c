// internal/infra/database/postgres_notification_repository.go
package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"schoolbridge/internal/domain/notification"

	"github.com/google/uuid"
	"github.com/lib/pq"
)

type PostgresNotificationRepository struct {
	db *sql.DB
}

var _ notification.Repository = (*PostgresNotificationRepository)(nil)

func NewPostgresNotificationRepository(db *sql.DB) *PostgresNotificationRepository {
	return &PostgresNotificationRepository{db: db}
}

func (r *PostgresNotificationRepository) Create(ctx context.Context, n *notification.Notification) error {
	id := uuid.New()
	createdAt := n.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now().UTC()
	}
	query := `INSERT INTO notifications (id, title, message, type, classroom, recipients, created_at)
               VALUES ($1, $2, $3, $4, $5, $6, $7)
               RETURNING created_at`
	err := r.db.QueryRowContext(ctx, query, id, n.Title, n.Message, string(n.Type), n.ClassroomID, pq.Array(n.Recipients), createdAt).
		Scan(&n.CreatedAt)
	if err != nil {
		return fmt.Errorf("error creating notification: %w", err)
	}
	n.ID = id.String()
	n.Read = []notification.ReadReceipt{}
	return nil
}

func (r *PostgresNotificationRepository) ListForParent(ctx context.Context, parentID string, limit, skip int) ([]notification.View, error) {
	query := `SELECT id, title, message, type, classroom, recipients, created_at
               FROM notifications
               WHERE $1 = ANY(recipients)
               ORDER BY created_at DESC, id DESC
               LIMIT $2 OFFSET $3`
	rows, err := r.db.QueryContext(ctx, query, parentID, limit, skip)
	if err != nil {
		return nil, fmt.Errorf("error querying notifications for parent %s: %w", parentID, err)
	}
	defer rows.Close()

	records, err := scanNotifications(rows)
	if err != nil {
		return nil, err
	}
	if err := r.attachReads(ctx, records); err != nil {
		return nil, err
	}

	views := make([]notification.View, len(records))
	for i, n := range records {
		views[i] = notification.NewView(*n, parentID)
	}
	return views, nil
}

// MarkRead inserts the receipt only when parentID is a recipient; the
// primary key on notification_reads keeps the first receipt.
func (r *PostgresNotificationRepository) MarkRead(ctx context.Context, id, parentID string) (*notification.Notification, error) {
	nid, err := uuid.Parse(id)
	if err != nil {
		return nil, notification.ErrNotificationNotFound
	}

	insert := `INSERT INTO notification_reads (notification_id, parent_id, read_at)
               SELECT id, $2, NOW() FROM notifications WHERE id = $1 AND $2 = ANY(recipients)
               ON CONFLICT (notification_id, parent_id) DO NOTHING`
	if _, err := r.db.ExecContext(ctx, insert, nid, parentID); err != nil {
		return nil, fmt.Errorf("error marking notification %s read: %w", id, err)
	}

	query := `SELECT id, title, message, type, classroom, recipients, created_at
               FROM notifications WHERE id = $1 AND $2 = ANY(recipients)`
	n := &notification.Notification{}
	var kind string
	err = r.db.QueryRowContext(ctx, query, nid, parentID).Scan(
		&n.ID, &n.Title, &n.Message, &kind, &n.ClassroomID, pq.Array(&n.Recipients), &n.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, notification.ErrNotificationNotFound
		}
		return nil, fmt.Errorf("error getting notification %s: %w", id, err)
	}
	n.Type = notification.EventType(kind)

	if err := r.attachReads(ctx, []*notification.Notification{n}); err != nil {
		return nil, err
	}
	return n, nil
}

func scanNotifications(rows *sql.Rows) ([]*notification.Notification, error) {
	records := make([]*notification.Notification, 0)
	for rows.Next() {
		n := &notification.Notification{}
		var kind string
		if err := rows.Scan(&n.ID, &n.Title, &n.Message, &kind, &n.ClassroomID, pq.Array(&n.Recipients), &n.CreatedAt); err != nil {
			return nil, fmt.Errorf("error scanning notification row: %w", err)
		}
		n.Type = notification.EventType(kind)
		records = append(records, n)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating notification rows: %w", err)
	}
	return records, nil
}

// attachReads loads the read receipts of records in one query.
func (r *PostgresNotificationRepository) attachReads(ctx context.Context, records []*notification.Notification) error {
	if len(records) == 0 {
		return nil
	}
	byID := make(map[string]*notification.Notification, len(records))
	ids := make([]string, len(records))
	for i, n := range records {
		n.Read = []notification.ReadReceipt{}
		byID[n.ID] = n
		ids[i] = n.ID
	}

	query := `SELECT notification_id, parent_id, read_at
               FROM notification_reads
               WHERE notification_id = ANY($1::uuid[])
               ORDER BY read_at`
	rows, err := r.db.QueryContext(ctx, query, pq.Array(ids))
	if err != nil {
		return fmt.Errorf("error querying read receipts: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var nid string
		var rr notification.ReadReceipt
		if err := rows.Scan(&nid, &rr.ParentID, &rr.ReadAt); err != nil {
			return fmt.Errorf("error scanning read receipt: %w", err)
		}
		if n, ok := byID[nid]; ok {
			n.Read = append(n.Read, rr)
		}
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("error iterating read receipts: %w", err)
	}
	return nil
}
