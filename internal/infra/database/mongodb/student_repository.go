package mongodb

import (
	"context"
	"errors"
	"fmt"
	"time"

	"schoolbridge/internal/domain/student"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type studentDoc struct {
	ID         primitive.ObjectID `bson:"_id,omitempty"`
	Name       string             `bson:"name"`
	RollNumber string             `bson:"rollNumber,omitempty"`
	Classroom  string             `bson:"classroom"`
	Parents    []string           `bson:"parents"`
	CreatedAt  time.Time          `bson:"createdAt"`
}

func (d *studentDoc) toDomain() *student.Student {
	return &student.Student{
		ID:          d.ID.Hex(),
		Name:        d.Name,
		RollNumber:  d.RollNumber,
		ClassroomID: d.Classroom,
		ParentIDs:   append([]string{}, d.Parents...),
		CreatedAt:   d.CreatedAt,
	}
}

type StudentRepository struct {
	students   *mongo.Collection
	remarks    *mongo.Collection
	attendance *mongo.Collection
	marks      *mongo.Collection
}

var _ student.Repository = (*StudentRepository)(nil)

func NewStudentRepository(db *mongo.Database) *StudentRepository {
	return &StudentRepository{
		students:   db.Collection(studentsCollection),
		remarks:    db.Collection(remarksCollection),
		attendance: db.Collection(attendanceCollection),
		marks:      db.Collection(marksCollection),
	}
}

func (r *StudentRepository) Create(ctx context.Context, s *student.Student) error {
	doc := studentDoc{
		ID:         primitive.NewObjectID(),
		Name:       s.Name,
		RollNumber: s.RollNumber,
		Classroom:  s.ClassroomID,
		Parents:    append([]string{}, s.ParentIDs...),
		CreatedAt:  s.CreatedAt,
	}
	if _, err := r.students.InsertOne(ctx, doc); err != nil {
		return fmt.Errorf("error inserting student: %w", err)
	}
	s.ID = doc.ID.Hex()
	return nil
}

func (r *StudentRepository) GetByID(ctx context.Context, id string) (*student.Student, error) {
	oid, ok := objectID(id)
	if !ok {
		return nil, student.ErrStudentNotFound
	}
	var doc studentDoc
	if err := r.students.FindOne(ctx, bson.M{"_id": oid}).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, student.ErrStudentNotFound
		}
		return nil, fmt.Errorf("error getting student %s: %w", id, err)
	}
	return doc.toDomain(), nil
}

func (r *StudentRepository) ListByIDs(ctx context.Context, ids []string) ([]*student.Student, error) {
	oids := objectIDs(ids)
	if len(oids) == 0 {
		return []*student.Student{}, nil
	}
	cursor, err := r.students.Find(ctx, bson.M{"_id": bson.M{"$in": oids}})
	if err != nil {
		return nil, fmt.Errorf("error listing students: %w", err)
	}
	var docs []studentDoc
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("error decoding students: %w", err)
	}
	found := make([]*student.Student, len(docs))
	for i := range docs {
		found[i] = docs[i].toDomain()
	}
	return orderByIDs(ids, found, func(s *student.Student) string { return s.ID }), nil
}

func (r *StudentRepository) LinkParent(ctx context.Context, studentID, parentID string) error {
	oid, ok := objectID(studentID)
	if !ok {
		return student.ErrStudentNotFound
	}
	res, err := r.students.UpdateByID(ctx, oid, bson.M{"$addToSet": bson.M{"parents": parentID}})
	if err != nil {
		return fmt.Errorf("error linking parent to student %s: %w", studentID, err)
	}
	if res.MatchedCount == 0 {
		return student.ErrStudentNotFound
	}
	return nil
}

func (r *StudentRepository) CreateRemark(ctx context.Context, rm *student.Remark) error {
	id := primitive.NewObjectID()
	doc := bson.M{
		"_id":       id,
		"classroom": rm.ClassroomID,
		"student":   rm.StudentID,
		"teacher":   rm.TeacherID,
		"type":      string(rm.Kind),
		"content":   rm.Content,
		"voiceUrl":  rm.VoiceURL,
		"createdAt": rm.CreatedAt,
	}
	if _, err := r.remarks.InsertOne(ctx, doc); err != nil {
		return fmt.Errorf("error inserting remark: %w", err)
	}
	rm.ID = id.Hex()
	return nil
}

// UpsertAttendance keeps one record per classroom, student and date; a
// second submission for the same day overwrites the status.
func (r *StudentRepository) UpsertAttendance(ctx context.Context, records []*student.AttendanceRecord) error {
	opts := options.FindOneAndUpdate().SetUpsert(true).SetReturnDocument(options.After)
	for _, rec := range records {
		filter := bson.M{"classroom": rec.ClassroomID, "student": rec.StudentID, "date": rec.Date}
		update := bson.M{"$set": bson.M{"status": string(rec.Status)}}

		var saved struct {
			ID primitive.ObjectID `bson:"_id"`
		}
		if err := r.attendance.FindOneAndUpdate(ctx, filter, update, opts).Decode(&saved); err != nil {
			return fmt.Errorf("error upserting attendance for student %s: %w", rec.StudentID, err)
		}
		rec.ID = saved.ID.Hex()
	}
	return nil
}

func (r *StudentRepository) CreateMark(ctx context.Context, m *student.Mark) error {
	id := primitive.NewObjectID()
	doc := bson.M{
		"_id":       id,
		"classroom": m.ClassroomID,
		"student":   m.StudentID,
		"subject":   m.Subject,
		"score":     m.Score,
		"maxScore":  m.MaxScore,
		"term":      m.Term,
		"createdAt": m.CreatedAt,
	}
	if _, err := r.marks.InsertOne(ctx, doc); err != nil {
		return fmt.Errorf("error inserting marks: %w", err)
	}
	m.ID = id.Hex()
	return nil
}
