package inmem

import (
	"context"
	"sort"
	"sync"
	"time"

	"schoolbridge/internal/domain/classroom"
)

type ClassroomRepository struct {
	mu    sync.RWMutex
	items map[string]*classroom.Classroom
}

var _ classroom.Repository = (*ClassroomRepository)(nil)

func NewClassroomRepository() *ClassroomRepository {
	return &ClassroomRepository{items: make(map[string]*classroom.Classroom)}
}

func copyClassroom(c *classroom.Classroom) *classroom.Classroom {
	out := *c
	out.StudentIDs = append([]string{}, c.StudentIDs...)
	out.Assignments = append([]classroom.Assignment{}, c.Assignments...)
	out.Announcements = append([]classroom.Announcement{}, c.Announcements...)
	return &out
}

func (r *ClassroomRepository) Create(_ context.Context, c *classroom.Classroom) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	c.ID = newID("cls")
	if c.CreatedAt.IsZero() {
		c.CreatedAt = time.Now().UTC()
	}
	r.items[c.ID] = copyClassroom(c)
	return nil
}

func (r *ClassroomRepository) GetByID(_ context.Context, id string) (*classroom.Classroom, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	c, ok := r.items[id]
	if !ok {
		return nil, classroom.ErrClassroomNotFound
	}
	return copyClassroom(c), nil
}

func (r *ClassroomRepository) AddStudent(_ context.Context, classroomID, studentID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.items[classroomID]
	if !ok {
		return classroom.ErrClassroomNotFound
	}
	if !c.HasStudent(studentID) {
		c.StudentIDs = append(c.StudentIDs, studentID)
	}
	return nil
}

func (r *ClassroomRepository) AddAssignment(_ context.Context, classroomID string, a *classroom.Assignment) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.items[classroomID]
	if !ok {
		return classroom.ErrClassroomNotFound
	}
	a.ID = newID("asg")
	c.Assignments = append(c.Assignments, *a)
	return nil
}

func (r *ClassroomRepository) AddAnnouncement(_ context.Context, classroomID string, a *classroom.Announcement) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.items[classroomID]
	if !ok {
		return classroom.ErrClassroomNotFound
	}
	a.ID = newID("ann")
	c.Announcements = append(c.Announcements, *a)
	return nil
}

func (r *ClassroomRepository) ListAssignmentsDueBetween(_ context.Context, from, to time.Time) ([]classroom.DueAssignment, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []classroom.DueAssignment
	for _, c := range r.items {
		for _, a := range c.Assignments {
			if a.DueDate.Before(from) || a.DueDate.After(to) {
				continue
			}
			out = append(out, classroom.DueAssignment{ClassroomID: c.ID, ClassroomName: c.Name, Assignment: a})
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Assignment.DueDate.Before(out[j].Assignment.DueDate) })
	return out, nil
}
