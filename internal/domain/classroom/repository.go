package classroom

import (
	"context"
	"time"
)

// Repository defines the operations for persisting and retrieving classrooms.
type Repository interface {
	Create(ctx context.Context, c *Classroom) error
	GetByID(ctx context.Context, id string) (*Classroom, error)
	AddStudent(ctx context.Context, classroomID, studentID string) error
	AddAssignment(ctx context.Context, classroomID string, a *Assignment) error
	AddAnnouncement(ctx context.Context, classroomID string, a *Announcement) error
	// ListAssignmentsDueBetween returns every assignment, across all classrooms,
	// whose due date falls in [from, to].
	ListAssignmentsDueBetween(ctx context.Context, from, to time.Time) ([]DueAssignment, error)
}
