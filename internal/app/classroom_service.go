package app

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"schoolbridge/internal/domain/classroom"
	"schoolbridge/internal/domain/notification"
	"schoolbridge/internal/domain/parent"
	"schoolbridge/internal/domain/student"

	"github.com/sirupsen/logrus"
)

var (
	ErrNotClassroomOwner     = errors.New("classroom belongs to another teacher")
	ErrStudentNotInClassroom = errors.New("student is not enrolled in this classroom")
	ErrEmptyAttendance       = errors.New("attendance batch is empty")
	ErrRemarkContentRequired = errors.New("text remarks need content and voice remarks need a recording URL")
)

// attendanceHourUTC is the time of day every record of a bulk attendance
// batch is stored at.
const attendanceHourUTC = 9

// ClassroomService holds the teacher and parent facing use cases. Mutations
// that concern guardians end with a best-effort fan-out through notifier.
type ClassroomService struct {
	classrooms classroom.Repository
	students   student.Repository
	parents    parent.Repository
	notifier   EventNotifier
	logger     *logrus.Entry
}

func NewClassroomService(
	cr classroom.Repository,
	sr student.Repository,
	pr parent.Repository,
	notifier EventNotifier,
	logger *logrus.Entry,
) *ClassroomService {
	return &ClassroomService{
		classrooms: cr,
		students:   sr,
		parents:    pr,
		notifier:   notifier,
		logger:     logger,
	}
}

func (s *ClassroomService) CreateClassroom(ctx context.Context, teacherID, name, subject string) (*classroom.Classroom, error) {
	c := &classroom.Classroom{
		Name:          strings.TrimSpace(name),
		Subject:       strings.TrimSpace(subject),
		TeacherID:     teacherID,
		StudentIDs:    []string{},
		Assignments:   []classroom.Assignment{},
		Announcements: []classroom.Announcement{},
		CreatedAt:     time.Now().UTC(),
	}
	if err := s.classrooms.Create(ctx, c); err != nil {
		return nil, fmt.Errorf("failed to create classroom: %w", err)
	}
	return c, nil
}

// GetClassroom returns the classroom if teacherID runs it.
func (s *ClassroomService) GetClassroom(ctx context.Context, teacherID, id string) (*classroom.Classroom, error) {
	return s.ownedClassroom(ctx, teacherID, id)
}

// ownedClassroom loads classroomID and checks that teacherID runs it.
func (s *ClassroomService) ownedClassroom(ctx context.Context, teacherID, classroomID string) (*classroom.Classroom, error) {
	c, err := s.classrooms.GetByID(ctx, classroomID)
	if err != nil {
		return nil, err
	}
	if c.TeacherID != teacherID {
		return nil, ErrNotClassroomOwner
	}
	return c, nil
}

func (s *ClassroomService) enrolledStudent(ctx context.Context, c *classroom.Classroom, studentID string) (*student.Student, error) {
	if !c.HasStudent(studentID) {
		return nil, ErrStudentNotInClassroom
	}
	return s.students.GetByID(ctx, studentID)
}

func (s *ClassroomService) AddStudent(ctx context.Context, teacherID, classroomID, name, rollNumber string) (*student.Student, error) {
	c, err := s.ownedClassroom(ctx, teacherID, classroomID)
	if err != nil {
		return nil, err
	}
	st := &student.Student{
		Name:        strings.TrimSpace(name),
		RollNumber:  strings.TrimSpace(rollNumber),
		ClassroomID: c.ID,
		ParentIDs:   []string{},
		CreatedAt:   time.Now().UTC(),
	}
	if err := s.students.Create(ctx, st); err != nil {
		return nil, fmt.Errorf("failed to create student: %w", err)
	}
	if err := s.classrooms.AddStudent(ctx, c.ID, st.ID); err != nil {
		return nil, fmt.Errorf("failed to enroll student %s: %w", st.ID, err)
	}
	return st, nil
}

func (s *ClassroomService) RegisterParent(ctx context.Context, p *parent.Parent) error {
	p.Language = parent.NormalizeLanguage(p.Language, parent.DefaultLanguage)
	p.CreatedAt = time.Now().UTC()
	if err := s.parents.Create(ctx, p); err != nil {
		return fmt.Errorf("failed to register parent: %w", err)
	}
	return nil
}

// LinkGuardian attaches an existing parent to a student of the teacher's
// classroom.
func (s *ClassroomService) LinkGuardian(ctx context.Context, teacherID, classroomID, studentID, parentID string) (*student.Student, error) {
	c, err := s.ownedClassroom(ctx, teacherID, classroomID)
	if err != nil {
		return nil, err
	}
	st, err := s.enrolledStudent(ctx, c, studentID)
	if err != nil {
		return nil, err
	}
	if _, err := s.parents.GetByID(ctx, parentID); err != nil {
		return nil, err
	}
	if err := s.students.LinkParent(ctx, st.ID, parentID); err != nil {
		return nil, fmt.Errorf("failed to link parent %s to student %s: %w", parentID, st.ID, err)
	}
	return s.students.GetByID(ctx, st.ID)
}

// UpdateParentPreferences sets the language and/or push token the mobile
// client reports. Nil leaves a field unchanged.
func (s *ClassroomService) UpdateParentPreferences(ctx context.Context, parentID string, language, pushToken *string) (*parent.Parent, error) {
	if language != nil {
		l := parent.NormalizeLanguage(*language, parent.DefaultLanguage)
		language = &l
	}
	if pushToken != nil {
		t := strings.TrimSpace(*pushToken)
		pushToken = &t
	}
	return s.parents.UpdatePreferences(ctx, parentID, language, pushToken)
}

type AssignmentInput struct {
	Title       string
	Description string
	DueDate     time.Time
}

func (s *ClassroomService) CreateAssignment(ctx context.Context, teacherID, classroomID string, in AssignmentInput) (*classroom.Assignment, error) {
	c, err := s.ownedClassroom(ctx, teacherID, classroomID)
	if err != nil {
		return nil, err
	}
	a := &classroom.Assignment{
		Title:       strings.TrimSpace(in.Title),
		Description: strings.TrimSpace(in.Description),
		DueDate:     in.DueDate.UTC(),
		CreatedAt:   time.Now().UTC(),
	}
	if err := s.classrooms.AddAssignment(ctx, c.ID, a); err != nil {
		return nil, fmt.Errorf("failed to add assignment: %w", err)
	}

	s.fanOut(ctx, Event{
		Type:        notification.TypeAssignment,
		ClassroomID: c.ID,
		Title:       a.Title,
		Body:        a.Description,
		DueDate:     a.DueDate,
	})
	return a, nil
}

func (s *ClassroomService) CreateAnnouncement(ctx context.Context, teacherID, classroomID, title, content string) (*classroom.Announcement, error) {
	c, err := s.ownedClassroom(ctx, teacherID, classroomID)
	if err != nil {
		return nil, err
	}
	a := &classroom.Announcement{
		Title:     strings.TrimSpace(title),
		Content:   strings.TrimSpace(content),
		CreatedAt: time.Now().UTC(),
	}
	if err := s.classrooms.AddAnnouncement(ctx, c.ID, a); err != nil {
		return nil, fmt.Errorf("failed to add announcement: %w", err)
	}

	s.fanOut(ctx, Event{
		Type:        notification.TypeAnnouncement,
		ClassroomID: c.ID,
		Title:       a.Title,
		Body:        a.Content,
	})
	return a, nil
}

type RemarkInput struct {
	Kind     student.RemarkKind
	Content  string
	VoiceURL string
}

func (s *ClassroomService) AddRemark(ctx context.Context, teacherID, classroomID, studentID string, in RemarkInput) (*student.Remark, error) {
	c, err := s.ownedClassroom(ctx, teacherID, classroomID)
	if err != nil {
		return nil, err
	}
	st, err := s.enrolledStudent(ctx, c, studentID)
	if err != nil {
		return nil, err
	}

	r := &student.Remark{
		ClassroomID: c.ID,
		StudentID:   st.ID,
		TeacherID:   teacherID,
		Kind:        in.Kind,
		Content:     strings.TrimSpace(in.Content),
		VoiceURL:    strings.TrimSpace(in.VoiceURL),
		CreatedAt:   time.Now().UTC(),
	}
	if r.Kind == "" {
		r.Kind = student.RemarkText
	}
	if (r.Kind == student.RemarkText && r.Content == "") || (r.Kind == student.RemarkVoice && r.VoiceURL == "") {
		return nil, ErrRemarkContentRequired
	}
	if err := s.students.CreateRemark(ctx, r); err != nil {
		return nil, fmt.Errorf("failed to save remark: %w", err)
	}

	s.fanOut(ctx, Event{
		Type:        notification.TypeRemark,
		ClassroomID: c.ID,
		StudentIDs:  []string{st.ID},
		Body:        r.Content,
		RemarkKind:  r.Kind,
	})
	return r, nil
}

type AttendanceEntry struct {
	StudentID string
	Date      time.Time
	Status    student.AttendanceStatus
}

// RecordAttendance stores a bulk attendance batch. The date of the first
// entry is taken as the date of the whole batch. Guardians of students
// marked absent or late are notified.
func (s *ClassroomService) RecordAttendance(ctx context.Context, teacherID, classroomID string, entries []AttendanceEntry) ([]*student.AttendanceRecord, error) {
	if len(entries) == 0 {
		return nil, ErrEmptyAttendance
	}
	c, err := s.ownedClassroom(ctx, teacherID, classroomID)
	if err != nil {
		return nil, err
	}
	for _, e := range entries {
		if !c.HasStudent(e.StudentID) {
			return nil, fmt.Errorf("%w: %s", ErrStudentNotInClassroom, e.StudentID)
		}
	}

	first := entries[0].Date.UTC()
	day := time.Date(first.Year(), first.Month(), first.Day(), attendanceHourUTC, 0, 0, 0, time.UTC)

	records := make([]*student.AttendanceRecord, len(entries))
	for i, e := range entries {
		records[i] = &student.AttendanceRecord{
			ClassroomID: c.ID,
			StudentID:   e.StudentID,
			Date:        day,
			Status:      e.Status,
		}
	}
	if err := s.students.UpsertAttendance(ctx, records); err != nil {
		return nil, fmt.Errorf("failed to save attendance: %w", err)
	}

	for _, r := range records {
		if r.Status == student.Present {
			continue
		}
		st, err := s.students.GetByID(ctx, r.StudentID)
		if err != nil {
			s.logger.WithError(err).WithField("student_id", r.StudentID).Error("Failed to load student for attendance notification")
			continue
		}
		s.fanOut(ctx, Event{
			Type:             notification.TypeAttendance,
			ClassroomID:      c.ID,
			StudentIDs:       []string{st.ID},
			StudentName:      st.Name,
			AttendanceStatus: r.Status,
			Date:             r.Date,
		})
	}
	return records, nil
}

type MarkInput struct {
	Subject  string
	Score    float64
	MaxScore float64
	Term     string
}

func (s *ClassroomService) AddMark(ctx context.Context, teacherID, classroomID, studentID string, in MarkInput) (*student.Mark, error) {
	c, err := s.ownedClassroom(ctx, teacherID, classroomID)
	if err != nil {
		return nil, err
	}
	st, err := s.enrolledStudent(ctx, c, studentID)
	if err != nil {
		return nil, err
	}
	m := &student.Mark{
		ClassroomID: c.ID,
		StudentID:   st.ID,
		Subject:     strings.TrimSpace(in.Subject),
		Score:       in.Score,
		MaxScore:    in.MaxScore,
		Term:        strings.TrimSpace(in.Term),
		CreatedAt:   time.Now().UTC(),
	}
	if m.Subject == "" {
		m.Subject = c.Subject
	}
	if err := s.students.CreateMark(ctx, m); err != nil {
		return nil, fmt.Errorf("failed to save marks: %w", err)
	}

	s.fanOut(ctx, Event{
		Type:        notification.TypeMarks,
		ClassroomID: c.ID,
		StudentIDs:  []string{st.ID},
		StudentName: st.Name,
		Subject:     m.Subject,
		Score:       m.Score,
		MaxScore:    m.MaxScore,
	})
	return m, nil
}

// fanOut runs the notification flow for a change that is already committed.
// Failures are logged only; the caller's result does not depend on them.
// The flow is detached from ctx cancellation so a client hanging up does not
// cut delivery short.
func (s *ClassroomService) fanOut(ctx context.Context, e Event) {
	log := s.logger.WithFields(logrus.Fields{
		"classroom_id": e.ClassroomID,
		"event_type":   e.Type,
	})
	n, err := s.notifier.NotifyClassroomEvent(context.WithoutCancel(ctx), e)
	if err != nil {
		log.WithError(err).Error("Notification fan-out failed")
		return
	}
	if n == nil {
		log.Debug("Fan-out found no recipients")
	}
}
