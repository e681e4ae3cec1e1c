package classroom

import (
	"errors"
	"time"
)

var ErrClassroomNotFound = errors.New("classroom not found")

// Assignment is homework posted to a classroom.
type Assignment struct {
	ID          string    `json:"id"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	DueDate     time.Time `json:"dueDate"`
	CreatedAt   time.Time `json:"createdAt"`
}

// Announcement is a classroom-wide message from the teacher.
type Announcement struct {
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"createdAt"`
}

// Classroom groups students under one teacher. Assignments and announcements
// are embedded, the same way they live inside the classroom document.
type Classroom struct {
	ID            string         `json:"id"`
	Name          string         `json:"name"`
	Subject       string         `json:"subject,omitempty"`
	TeacherID     string         `json:"teacherId"`
	StudentIDs    []string       `json:"students"`
	Assignments   []Assignment   `json:"assignments"`
	Announcements []Announcement `json:"announcements"`
	CreatedAt     time.Time      `json:"createdAt"`
}

// HasStudent reports whether studentID is enrolled in c.
func (c *Classroom) HasStudent(studentID string) bool {
	for _, id := range c.StudentIDs {
		if id == studentID {
			return true
		}
	}
	return false
}

// DueAssignment pairs an assignment with the classroom it belongs to.
type DueAssignment struct {
	ClassroomID   string
	ClassroomName string
	Assignment    Assignment
}
