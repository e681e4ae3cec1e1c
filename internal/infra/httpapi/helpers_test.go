package httpapi

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"schoolbridge/internal/app"
	"schoolbridge/internal/domain/notification"
	"schoolbridge/internal/domain/translation"
	"schoolbridge/internal/infra/database/inmem"
	"schoolbridge/internal/infra/logger"

	"github.com/stretchr/testify/require"
)

var testSecret = []byte("test-secret")

type pushCall struct {
	tokens      []string
	title, body string
	data        map[string]string
}

type fakePusher struct {
	mu    sync.Mutex
	calls []pushCall
}

func (p *fakePusher) Dispatch(_ context.Context, tokens []string, title, body string, data map[string]string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.calls = append(p.calls, pushCall{tokens: tokens, title: title, body: body, data: data})
	return nil
}

type upperTranslator struct{}

func (upperTranslator) TranslateBatch(_ context.Context, texts []string, _, _ string) translation.Result {
	out := make([]string, len(texts))
	for i, t := range texts {
		out[i] = strings.ToUpper(t)
	}
	return translation.Translated(out)
}

type failingNotifier struct{}

func (failingNotifier) NotifyClassroomEvent(context.Context, app.Event) (*notification.Notification, error) {
	return nil, errors.New("notification store unavailable")
}

type testEnv struct {
	server        *Server
	classrooms    *inmem.ClassroomRepository
	students      *inmem.StudentRepository
	parents       *inmem.ParentRepository
	notifications *inmem.NotificationRepository
	pusher        *fakePusher
}

// newTestEnv wires the API over in-memory stores. A non-nil notifier
// replaces the real notification flow for domain endpoints.
func newTestEnv(t *testing.T, notifier app.EventNotifier) *testEnv {
	t.Helper()
	log := logger.Discard()
	env := &testEnv{
		classrooms:    inmem.NewClassroomRepository(),
		students:      inmem.NewStudentRepository(),
		parents:       inmem.NewParentRepository(),
		notifications: inmem.NewNotificationRepository(),
		pusher:        &fakePusher{},
	}

	resolver := app.NewRecipientResolver(env.classrooms, env.students, env.parents, "en", log)
	notifications := app.NewNotificationService(resolver, env.notifications, upperTranslator{}, env.pusher, "en", log)
	if notifier == nil {
		notifier = notifications
	}
	classrooms := app.NewClassroomService(env.classrooms, env.students, env.parents, notifier, log)

	env.server = NewServer(Options{
		JWTSecret:      testSecret,
		DisableReqLogs: true,
		Classrooms:     classrooms,
		Notifications:  notifications,
		Logger:         log,
	})
	return env
}

func token(t *testing.T, subject string, role Role) string {
	t.Helper()
	tok, err := GenerateToken(testSecret, subject, role, time.Hour)
	require.NoError(t, err)
	return tok
}

func (env *testEnv) do(t *testing.T, method, path, tok string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if tok != "" {
		req.Header.Set("Authorization", "Bearer "+tok)
	}
	rec := httptest.NewRecorder()
	env.server.ServeHTTP(rec, req)
	return rec
}

func decode(t *testing.T, rec *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var out map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out), rec.Body.String())
	return out
}

// field walks nested JSON objects by key.
func field(m map[string]interface{}, keys ...string) interface{} {
	var cur interface{} = m
	for _, k := range keys {
		obj, ok := cur.(map[string]interface{})
		if !ok {
			return nil
		}
		cur = obj[k]
	}
	return cur
}

// seedFamily creates a classroom owned by teacherID with one student and
// one guardian, returning their ids.
func (env *testEnv) seedFamily(t *testing.T, teacherID, language, pushToken string) (classroomID, studentID, parentID string) {
	t.Helper()
	tt := token(t, teacherID, RoleTeacher)

	rec := env.do(t, http.MethodPost, "/api/classrooms", tt, map[string]string{"name": "Grade 4", "subject": "Science"})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	classroomID = field(decode(t, rec), "classroom", "id").(string)

	rec = env.do(t, http.MethodPost, "/api/classroom/"+classroomID+"/students", tt, map[string]string{"name": "Ravi"})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	studentID = field(decode(t, rec), "student", "id").(string)

	rec = env.do(t, http.MethodPost, "/api/parents", tt, map[string]string{"name": "Asha", "language": language, "pushToken": pushToken})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	parentID = field(decode(t, rec), "parent", "id").(string)

	rec = env.do(t, http.MethodPost, "/api/classroom/"+classroomID+"/student/"+studentID+"/guardians", tt, map[string]string{"parentId": parentID})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	return classroomID, studentID, parentID
}
