package mongodb

import (
	"context"
	"errors"
	"fmt"
	"time"

	"schoolbridge/internal/domain/notification"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type readReceiptDoc struct {
	Parent string    `bson:"parent"`
	ReadAt time.Time `bson:"readAt"`
}

type notificationDoc struct {
	ID         primitive.ObjectID `bson:"_id,omitempty"`
	Title      string             `bson:"title"`
	Message    string             `bson:"message"`
	Type       string             `bson:"type"`
	Classroom  string             `bson:"classroom"`
	Recipients []string           `bson:"recipients"`
	Read       []readReceiptDoc   `bson:"read"`
	CreatedAt  time.Time          `bson:"createdAt"`
}

func (d *notificationDoc) toDomain() *notification.Notification {
	n := &notification.Notification{
		ID:          d.ID.Hex(),
		Title:       d.Title,
		Message:     d.Message,
		Type:        notification.EventType(d.Type),
		ClassroomID: d.Classroom,
		Recipients:  d.Recipients,
		Read:        make([]notification.ReadReceipt, len(d.Read)),
		CreatedAt:   d.CreatedAt,
	}
	if n.Recipients == nil {
		n.Recipients = []string{}
	}
	for i, r := range d.Read {
		n.Read[i] = notification.ReadReceipt{ParentID: r.Parent, ReadAt: r.ReadAt}
	}
	return n
}

type NotificationRepository struct {
	collection *mongo.Collection
}

var _ notification.Repository = (*NotificationRepository)(nil)

func NewNotificationRepository(db *mongo.Database) *NotificationRepository {
	return &NotificationRepository{collection: db.Collection(notificationsCollection)}
}

func (r *NotificationRepository) Create(ctx context.Context, n *notification.Notification) error {
	doc := notificationDoc{
		ID:         primitive.NewObjectID(),
		Title:      n.Title,
		Message:    n.Message,
		Type:       string(n.Type),
		Classroom:  n.ClassroomID,
		Recipients: n.Recipients,
		Read:       []readReceiptDoc{},
		CreatedAt:  n.CreatedAt,
	}
	if doc.CreatedAt.IsZero() {
		doc.CreatedAt = time.Now().UTC()
	}
	if _, err := r.collection.InsertOne(ctx, doc); err != nil {
		return fmt.Errorf("error inserting notification: %w", err)
	}
	n.ID = doc.ID.Hex()
	n.CreatedAt = doc.CreatedAt
	n.Read = []notification.ReadReceipt{}
	return nil
}

func (r *NotificationRepository) ListForParent(ctx context.Context, parentID string, limit, skip int) ([]notification.View, error) {
	opts := options.Find().
		SetSort(bson.D{{Key: "createdAt", Value: -1}, {Key: "_id", Value: -1}}).
		SetSkip(int64(skip)).
		SetLimit(int64(limit))

	cursor, err := r.collection.Find(ctx, bson.M{"recipients": parentID}, opts)
	if err != nil {
		return nil, fmt.Errorf("error listing notifications for parent %s: %w", parentID, err)
	}
	var docs []notificationDoc
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("error decoding notifications: %w", err)
	}

	views := make([]notification.View, len(docs))
	for i := range docs {
		views[i] = notification.NewView(*docs[i].toDomain(), parentID)
	}
	return views, nil
}

// MarkRead pushes a receipt only while none exists for parentID, so
// concurrent calls leave exactly one.
func (r *NotificationRepository) MarkRead(ctx context.Context, id, parentID string) (*notification.Notification, error) {
	oid, ok := objectID(id)
	if !ok {
		return nil, notification.ErrNotificationNotFound
	}

	filter := bson.M{
		"_id":         oid,
		"recipients":  parentID,
		"read.parent": bson.M{"$ne": parentID},
	}
	update := bson.M{"$push": bson.M{"read": readReceiptDoc{Parent: parentID, ReadAt: time.Now().UTC()}}}
	if _, err := r.collection.UpdateOne(ctx, filter, update); err != nil {
		return nil, fmt.Errorf("error marking notification %s read: %w", id, err)
	}

	var doc notificationDoc
	err := r.collection.FindOne(ctx, bson.M{"_id": oid, "recipients": parentID}).Decode(&doc)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, notification.ErrNotificationNotFound
		}
		return nil, fmt.Errorf("error loading notification %s: %w", id, err)
	}
	return doc.toDomain(), nil
}
