package mongodb

import (
	"context"
	"errors"
	"fmt"
	"time"

	"schoolbridge/internal/domain/classroom"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

type assignmentDoc struct {
	ID          primitive.ObjectID `bson:"_id"`
	Title       string             `bson:"title"`
	Description string             `bson:"description"`
	DueDate     time.Time          `bson:"dueDate"`
	CreatedAt   time.Time          `bson:"createdAt"`
}

func (d assignmentDoc) toDomain() classroom.Assignment {
	return classroom.Assignment{
		ID:          d.ID.Hex(),
		Title:       d.Title,
		Description: d.Description,
		DueDate:     d.DueDate,
		CreatedAt:   d.CreatedAt,
	}
}

type announcementDoc struct {
	ID        primitive.ObjectID `bson:"_id"`
	Title     string             `bson:"title"`
	Content   string             `bson:"content"`
	CreatedAt time.Time          `bson:"createdAt"`
}

type classroomDoc struct {
	ID            primitive.ObjectID `bson:"_id,omitempty"`
	Name          string             `bson:"name"`
	Subject       string             `bson:"subject"`
	Teacher       string             `bson:"teacher"`
	Students      []string           `bson:"students"`
	Assignments   []assignmentDoc    `bson:"assignments"`
	Announcements []announcementDoc  `bson:"announcements"`
	CreatedAt     time.Time          `bson:"createdAt"`
}

func (d *classroomDoc) toDomain() *classroom.Classroom {
	c := &classroom.Classroom{
		ID:            d.ID.Hex(),
		Name:          d.Name,
		Subject:       d.Subject,
		TeacherID:     d.Teacher,
		StudentIDs:    append([]string{}, d.Students...),
		Assignments:   make([]classroom.Assignment, len(d.Assignments)),
		Announcements: make([]classroom.Announcement, len(d.Announcements)),
		CreatedAt:     d.CreatedAt,
	}
	for i, a := range d.Assignments {
		c.Assignments[i] = a.toDomain()
	}
	for i, a := range d.Announcements {
		c.Announcements[i] = classroom.Announcement{ID: a.ID.Hex(), Title: a.Title, Content: a.Content, CreatedAt: a.CreatedAt}
	}
	return c
}

type ClassroomRepository struct {
	collection *mongo.Collection
}

var _ classroom.Repository = (*ClassroomRepository)(nil)

func NewClassroomRepository(db *mongo.Database) *ClassroomRepository {
	return &ClassroomRepository{collection: db.Collection(classroomsCollection)}
}

func (r *ClassroomRepository) Create(ctx context.Context, c *classroom.Classroom) error {
	doc := classroomDoc{
		ID:            primitive.NewObjectID(),
		Name:          c.Name,
		Subject:       c.Subject,
		Teacher:       c.TeacherID,
		Students:      append([]string{}, c.StudentIDs...),
		Assignments:   []assignmentDoc{},
		Announcements: []announcementDoc{},
		CreatedAt:     c.CreatedAt,
	}
	if _, err := r.collection.InsertOne(ctx, doc); err != nil {
		return fmt.Errorf("error inserting classroom: %w", err)
	}
	c.ID = doc.ID.Hex()
	return nil
}

func (r *ClassroomRepository) GetByID(ctx context.Context, id string) (*classroom.Classroom, error) {
	oid, ok := objectID(id)
	if !ok {
		return nil, classroom.ErrClassroomNotFound
	}
	var doc classroomDoc
	if err := r.collection.FindOne(ctx, bson.M{"_id": oid}).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, classroom.ErrClassroomNotFound
		}
		return nil, fmt.Errorf("error getting classroom %s: %w", id, err)
	}
	return doc.toDomain(), nil
}

// update applies a single update document to the classroom and maps a miss
// to ErrClassroomNotFound.
func (r *ClassroomRepository) update(ctx context.Context, id string, update bson.M) error {
	oid, ok := objectID(id)
	if !ok {
		return classroom.ErrClassroomNotFound
	}
	res, err := r.collection.UpdateByID(ctx, oid, update)
	if err != nil {
		return fmt.Errorf("error updating classroom %s: %w", id, err)
	}
	if res.MatchedCount == 0 {
		return classroom.ErrClassroomNotFound
	}
	return nil
}

func (r *ClassroomRepository) AddStudent(ctx context.Context, classroomID, studentID string) error {
	return r.update(ctx, classroomID, bson.M{"$addToSet": bson.M{"students": studentID}})
}

func (r *ClassroomRepository) AddAssignment(ctx context.Context, classroomID string, a *classroom.Assignment) error {
	doc := assignmentDoc{
		ID:          primitive.NewObjectID(),
		Title:       a.Title,
		Description: a.Description,
		DueDate:     a.DueDate,
		CreatedAt:   a.CreatedAt,
	}
	if err := r.update(ctx, classroomID, bson.M{"$push": bson.M{"assignments": doc}}); err != nil {
		return err
	}
	a.ID = doc.ID.Hex()
	return nil
}

func (r *ClassroomRepository) AddAnnouncement(ctx context.Context, classroomID string, a *classroom.Announcement) error {
	doc := announcementDoc{
		ID:        primitive.NewObjectID(),
		Title:     a.Title,
		Content:   a.Content,
		CreatedAt: a.CreatedAt,
	}
	if err := r.update(ctx, classroomID, bson.M{"$push": bson.M{"announcements": doc}}); err != nil {
		return err
	}
	a.ID = doc.ID.Hex()
	return nil
}

func (r *ClassroomRepository) ListAssignmentsDueBetween(ctx context.Context, from, to time.Time) ([]classroom.DueAssignment, error) {
	window := bson.M{"$gte": from, "$lte": to}
	pipeline := mongo.Pipeline{
		{{Key: "$match", Value: bson.M{"assignments.dueDate": window}}},
		{{Key: "$unwind", Value: "$assignments"}},
		{{Key: "$match", Value: bson.M{"assignments.dueDate": window}}},
		{{Key: "$sort", Value: bson.M{"assignments.dueDate": 1}}},
		{{Key: "$project", Value: bson.M{"name": 1, "assignments": 1}}},
	}

	cursor, err := r.collection.Aggregate(ctx, pipeline)
	if err != nil {
		return nil, fmt.Errorf("error aggregating due assignments: %w", err)
	}
	var rows []struct {
		ID         primitive.ObjectID `bson:"_id"`
		Name       string             `bson:"name"`
		Assignment assignmentDoc      `bson:"assignments"`
	}
	if err := cursor.All(ctx, &rows); err != nil {
		return nil, fmt.Errorf("error decoding due assignments: %w", err)
	}

	out := make([]classroom.DueAssignment, len(rows))
	for i, row := range rows {
		out[i] = classroom.DueAssignment{
			ClassroomID:   row.ID.Hex(),
			ClassroomName: row.Name,
			Assignment:    row.Assignment.toDomain(),
		}
	}
	return out, nil
}
