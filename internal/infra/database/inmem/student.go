package inmem

import (
	"context"
	"sync"
	"time"

	"schoolbridge/internal/domain/student"
)

type StudentRepository struct {
	mu         sync.RWMutex
	students   map[string]*student.Student
	remarks    []*student.Remark
	attendance map[string]*student.AttendanceRecord // classroom|student|date
	marks      []*student.Mark
}

var _ student.Repository = (*StudentRepository)(nil)

func NewStudentRepository() *StudentRepository {
	return &StudentRepository{
		students:   make(map[string]*student.Student),
		attendance: make(map[string]*student.AttendanceRecord),
	}
}

func copyStudent(s *student.Student) *student.Student {
	out := *s
	out.ParentIDs = append([]string{}, s.ParentIDs...)
	return &out
}

func (r *StudentRepository) Create(_ context.Context, s *student.Student) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	s.ID = newID("stu")
	if s.CreatedAt.IsZero() {
		s.CreatedAt = time.Now().UTC()
	}
	r.students[s.ID] = copyStudent(s)
	return nil
}

func (r *StudentRepository) GetByID(_ context.Context, id string) (*student.Student, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	s, ok := r.students[id]
	if !ok {
		return nil, student.ErrStudentNotFound
	}
	return copyStudent(s), nil
}

func (r *StudentRepository) ListByIDs(_ context.Context, ids []string) ([]*student.Student, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]*student.Student, 0, len(ids))
	for _, id := range ids {
		if s, ok := r.students[id]; ok {
			out = append(out, copyStudent(s))
		}
	}
	return out, nil
}

func (r *StudentRepository) LinkParent(_ context.Context, studentID, parentID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.students[studentID]
	if !ok {
		return student.ErrStudentNotFound
	}
	for _, id := range s.ParentIDs {
		if id == parentID {
			return nil
		}
	}
	s.ParentIDs = append(s.ParentIDs, parentID)
	return nil
}

func (r *StudentRepository) CreateRemark(_ context.Context, rm *student.Remark) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	rm.ID = newID("rmk")
	c := *rm
	r.remarks = append(r.remarks, &c)
	return nil
}

func (r *StudentRepository) UpsertAttendance(_ context.Context, records []*student.AttendanceRecord) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, rec := range records {
		key := rec.ClassroomID + "|" + rec.StudentID + "|" + rec.Date.Format(time.DateOnly)
		if existing, ok := r.attendance[key]; ok {
			rec.ID = existing.ID
		} else {
			rec.ID = newID("att")
		}
		c := *rec
		r.attendance[key] = &c
	}
	return nil
}

func (r *StudentRepository) CreateMark(_ context.Context, m *student.Mark) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	m.ID = newID("mrk")
	c := *m
	r.marks = append(r.marks, &c)
	return nil
}

// Remarks returns the stored remarks, for tests.
func (r *StudentRepository) Remarks() []student.Remark {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]student.Remark, len(r.remarks))
	for i, rm := range r.remarks {
		out[i] = *rm
	}
	return out
}
