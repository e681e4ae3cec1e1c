package student

import (
	"errors"
	"time"
)

var ErrStudentNotFound = errors.New("student not found")

// Student is a child enrolled in one classroom and linked to its guardians.
type Student struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	RollNumber  string    `json:"rollNumber,omitempty"`
	ClassroomID string    `json:"classroom"`
	ParentIDs   []string  `json:"parents"`
	CreatedAt   time.Time `json:"createdAt"`
}

// RemarkKind distinguishes typed remarks from recorded voice notes.
type RemarkKind string

const (
	RemarkText  RemarkKind = "text"
	RemarkVoice RemarkKind = "voice"
)

// Remark is a teacher's note about one student.
type Remark struct {
	ID          string     `json:"id"`
	ClassroomID string     `json:"classroom"`
	StudentID   string     `json:"student"`
	TeacherID   string     `json:"teacher"`
	Kind        RemarkKind `json:"type"`
	Content     string     `json:"content,omitempty"`
	VoiceURL    string     `json:"voiceUrl,omitempty"`
	CreatedAt   time.Time  `json:"createdAt"`
}

type AttendanceStatus string

const (
	Present AttendanceStatus = "present"
	Absent  AttendanceStatus = "absent"
	Late    AttendanceStatus = "late"
)

type AttendanceRecord struct {
	ID          string           `json:"id"`
	ClassroomID string           `json:"classroom"`
	StudentID   string           `json:"student"`
	Date        time.Time        `json:"date"`
	Status      AttendanceStatus `json:"status"`
}

type Mark struct {
	ID          string    `json:"id"`
	ClassroomID string    `json:"classroom"`
	StudentID   string    `json:"student"`
	Subject     string    `json:"subject"`
	Score       float64   `json:"score"`
	MaxScore    float64   `json:"maxScore"`
	Term        string    `json:"term,omitempty"`
	CreatedAt   time.Time `json:"createdAt"`
}
