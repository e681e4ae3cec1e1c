package app

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"

	"schoolbridge/internal/domain/classroom"
	"schoolbridge/internal/domain/notification"
	"schoolbridge/internal/domain/parent"
	"schoolbridge/internal/domain/student"
	"schoolbridge/internal/domain/translation"
	"schoolbridge/internal/infra/database/inmem"
	"schoolbridge/internal/infra/logger"

	"github.com/stretchr/testify/require"
)

type dispatch struct {
	Tokens []string
	Title  string
	Body   string
	Data   map[string]string
}

type recordingPusher struct {
	mu    sync.Mutex
	calls []dispatch
	err   error
}

func (p *recordingPusher) Dispatch(_ context.Context, tokens []string, title, body string, data map[string]string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.calls = append(p.calls, dispatch{Tokens: tokens, Title: title, Body: body, Data: data})
	return p.err
}

// scriptedTranslator upper-cases with a language tag, except for languages
// listed in unavailable.
type scriptedTranslator struct {
	mu          sync.Mutex
	unavailable map[string]bool
	requests    []string
}

func (t *scriptedTranslator) TranslateBatch(_ context.Context, texts []string, _, target string) translation.Result {
	t.mu.Lock()
	t.requests = append(t.requests, target)
	t.mu.Unlock()
	if t.unavailable[target] {
		return translation.Unavailable()
	}
	out := make([]string, len(texts))
	for i, s := range texts {
		out[i] = "[" + target + "] " + strings.ToUpper(s)
	}
	return translation.Translated(out)
}

type failingNotificationRepo struct {
	notification.Repository
}

func (failingNotificationRepo) Create(context.Context, *notification.Notification) error {
	return errors.New("disk full")
}

type recordingNotifier struct {
	mu     sync.Mutex
	events []Event
	result func(Event) (*notification.Notification, error)
}

func (n *recordingNotifier) NotifyClassroomEvent(_ context.Context, e Event) (*notification.Notification, error) {
	n.mu.Lock()
	n.events = append(n.events, e)
	n.mu.Unlock()
	if n.result != nil {
		return n.result(e)
	}
	return &notification.Notification{ID: "n"}, nil
}

type fixture struct {
	classrooms    *inmem.ClassroomRepository
	students      *inmem.StudentRepository
	parents       *inmem.ParentRepository
	notifications *inmem.NotificationRepository
}

func newFixture() *fixture {
	return &fixture{
		classrooms:    inmem.NewClassroomRepository(),
		students:      inmem.NewStudentRepository(),
		parents:       inmem.NewParentRepository(),
		notifications: inmem.NewNotificationRepository(),
	}
}

func (f *fixture) resolver() *RecipientResolver {
	return NewRecipientResolver(f.classrooms, f.students, f.parents, "en", logger.Discard())
}

func (f *fixture) classroom(t *testing.T, teacherID string) *classroom.Classroom {
	t.Helper()
	c := &classroom.Classroom{Name: "Class 5A", Subject: "Maths", TeacherID: teacherID}
	require.NoError(t, f.classrooms.Create(context.Background(), c))
	return c
}

func (f *fixture) parent(t *testing.T, name, language, token string) *parent.Parent {
	t.Helper()
	p := &parent.Parent{Name: name, Language: language, PushToken: token}
	require.NoError(t, f.parents.Create(context.Background(), p))
	return p
}

func (f *fixture) student(t *testing.T, c *classroom.Classroom, name string, guardians ...*parent.Parent) *student.Student {
	t.Helper()
	ctx := context.Background()
	s := &student.Student{Name: name, ClassroomID: c.ID}
	require.NoError(t, f.students.Create(ctx, s))
	require.NoError(t, f.classrooms.AddStudent(ctx, c.ID, s.ID))
	for _, g := range guardians {
		require.NoError(t, f.students.LinkParent(ctx, s.ID, g.ID))
	}
	c.StudentIDs = append(c.StudentIDs, s.ID)
	return s
}
