package mongodb

import (
	"context"
	"errors"
	"fmt"
	"time"

	"schoolbridge/internal/domain/parent"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type parentDoc struct {
	ID        primitive.ObjectID `bson:"_id,omitempty"`
	Name      string             `bson:"name"`
	Email     string             `bson:"email,omitempty"`
	Phone     string             `bson:"phone,omitempty"`
	Language  string             `bson:"language"`
	PushToken string             `bson:"pushToken,omitempty"`
	CreatedAt time.Time          `bson:"createdAt"`
}

func (d *parentDoc) toDomain() *parent.Parent {
	return &parent.Parent{
		ID:        d.ID.Hex(),
		Name:      d.Name,
		Email:     d.Email,
		Phone:     d.Phone,
		Language:  d.Language,
		PushToken: d.PushToken,
		CreatedAt: d.CreatedAt,
	}
}

type ParentRepository struct {
	collection *mongo.Collection
}

var _ parent.Repository = (*ParentRepository)(nil)

func NewParentRepository(db *mongo.Database) *ParentRepository {
	return &ParentRepository{collection: db.Collection(parentsCollection)}
}

func (r *ParentRepository) Create(ctx context.Context, p *parent.Parent) error {
	doc := parentDoc{
		ID:        primitive.NewObjectID(),
		Name:      p.Name,
		Email:     p.Email,
		Phone:     p.Phone,
		Language:  p.Language,
		PushToken: p.PushToken,
		CreatedAt: p.CreatedAt,
	}
	if _, err := r.collection.InsertOne(ctx, doc); err != nil {
		return fmt.Errorf("error inserting parent: %w", err)
	}
	p.ID = doc.ID.Hex()
	return nil
}

func (r *ParentRepository) GetByID(ctx context.Context, id string) (*parent.Parent, error) {
	oid, ok := objectID(id)
	if !ok {
		return nil, parent.ErrParentNotFound
	}
	var doc parentDoc
	if err := r.collection.FindOne(ctx, bson.M{"_id": oid}).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, parent.ErrParentNotFound
		}
		return nil, fmt.Errorf("error getting parent %s: %w", id, err)
	}
	return doc.toDomain(), nil
}

func (r *ParentRepository) ListByIDs(ctx context.Context, ids []string) ([]*parent.Parent, error) {
	oids := objectIDs(ids)
	if len(oids) == 0 {
		return []*parent.Parent{}, nil
	}
	cursor, err := r.collection.Find(ctx, bson.M{"_id": bson.M{"$in": oids}})
	if err != nil {
		return nil, fmt.Errorf("error listing parents: %w", err)
	}
	var docs []parentDoc
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("error decoding parents: %w", err)
	}
	found := make([]*parent.Parent, len(docs))
	for i := range docs {
		found[i] = docs[i].toDomain()
	}
	return orderByIDs(ids, found, func(p *parent.Parent) string { return p.ID }), nil
}

func (r *ParentRepository) UpdatePreferences(ctx context.Context, id string, language, pushToken *string) (*parent.Parent, error) {
	oid, ok := objectID(id)
	if !ok {
		return nil, parent.ErrParentNotFound
	}
	set := bson.M{}
	if language != nil {
		set["language"] = *language
	}
	if pushToken != nil {
		set["pushToken"] = *pushToken
	}
	if len(set) == 0 {
		return r.GetByID(ctx, id)
	}

	var doc parentDoc
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	err := r.collection.FindOneAndUpdate(ctx, bson.M{"_id": oid}, bson.M{"$set": set}, opts).Decode(&doc)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, parent.ErrParentNotFound
		}
		return nil, fmt.Errorf("error updating preferences of parent %s: %w", id, err)
	}
	return doc.toDomain(), nil
}
