package httpapi

import (
	"net/http"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAnnouncementFanOutAndReadFlow(t *testing.T) {
	env := newTestEnv(t, nil)
	classroomID, _, parentID := env.seedFamily(t, "t1", "hi", "ExponentPushToken[abc]")

	rec := env.do(t, http.MethodPost, "/api/classroom/"+classroomID+"/announcement", token(t, "t1", RoleTeacher),
		map[string]string{"title": "Field trip", "content": "Bring lunch"})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	require.Len(t, env.pusher.calls, 1)
	call := env.pusher.calls[0]
	assert.Equal(t, []string{"ExponentPushToken[abc]"}, call.tokens)
	assert.Equal(t, "ANNOUNCEMENT: FIELD TRIP", call.title)
	assert.Equal(t, "BRING LUNCH", call.body)
	assert.Equal(t, "announcement", call.data["type"])

	pt := token(t, parentID, RoleParent)
	rec = env.do(t, http.MethodGet, "/api/notifications", pt, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	body := decode(t, rec)
	assert.Equal(t, true, body["success"])
	assert.EqualValues(t, 1, body["count"])
	list := body["notifications"].([]interface{})
	first := list[0].(map[string]interface{})
	assert.Equal(t, "Announcement: Field trip", first["title"])
	assert.Equal(t, false, first["isRead"])
	notificationID := first["id"].(string)

	for i := 0; i < 2; i++ {
		rec = env.do(t, http.MethodPost, "/api/notifications/"+notificationID+"/read", pt, nil)
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
		read := field(decode(t, rec), "notification", "read").([]interface{})
		assert.Len(t, read, 1)
	}

	rec = env.do(t, http.MethodGet, "/api/notifications", pt, nil)
	first = decode(t, rec)["notifications"].([]interface{})[0].(map[string]interface{})
	assert.Equal(t, true, first["isRead"])
}

func TestMarkReadUnknownOrForeign(t *testing.T) {
	env := newTestEnv(t, nil)
	classroomID, _, _ := env.seedFamily(t, "t1", "en", "")
	rec := env.do(t, http.MethodPost, "/api/classroom/"+classroomID+"/announcement", token(t, "t1", RoleTeacher),
		map[string]string{"title": "Exam", "content": "Monday"})
	require.Equal(t, http.StatusCreated, rec.Code)
	notificationID := env.notifications.All()[0].ID

	stranger := token(t, "someone-else", RoleParent)
	rec = env.do(t, http.MethodPost, "/api/notifications/"+notificationID+"/read", stranger, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = env.do(t, http.MethodPost, "/api/notifications/does-not-exist/read", stranger, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = env.do(t, http.MethodGet, "/api/notifications", stranger, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.EqualValues(t, 0, decode(t, rec)["count"])
}

func TestListPagination(t *testing.T) {
	env := newTestEnv(t, nil)
	classroomID, _, parentID := env.seedFamily(t, "t1", "en", "")
	tt := token(t, "t1", RoleTeacher)
	for _, title := range []string{"one", "two", "three"} {
		rec := env.do(t, http.MethodPost, "/api/classroom/"+classroomID+"/announcement", tt,
			map[string]string{"title": title, "content": "x"})
		require.Equal(t, http.StatusCreated, rec.Code)
	}
	pt := token(t, parentID, RoleParent)

	rec := env.do(t, http.MethodGet, "/api/notifications?limit=2&skip=1", pt, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.EqualValues(t, 2, decode(t, rec)["count"])

	for _, query := range []string{"limit=abc", "skip=x"} {
		rec = env.do(t, http.MethodGet, "/api/notifications?"+query, pt, nil)
		require.Equal(t, http.StatusBadRequest, rec.Code, query)
		body := decode(t, rec)
		assert.Equal(t, false, body["success"])
		assert.NotEmpty(t, body["error"])
		assert.Contains(t, body["fields"], strings.Split(query, "=")[0])
	}
}

func TestDomainSuccessSurvivesFanOutFailure(t *testing.T) {
	env := newTestEnv(t, failingNotifier{})
	classroomID, studentID, _ := env.seedFamily(t, "t1", "en", "ExponentPushToken[abc]")
	tt := token(t, "t1", RoleTeacher)

	rec := env.do(t, http.MethodPost, "/api/classroom/"+classroomID+"/assignment", tt, map[string]string{
		"title": "Essay", "description": "500 words", "dueDate": "2026-06-01T10:00:00Z",
	})
	assert.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	assert.Equal(t, true, decode(t, rec)["success"])

	rec = env.do(t, http.MethodPost, "/api/classroom/"+classroomID+"/student/"+studentID+"/remark", tt,
		map[string]string{"content": "Great week"})
	assert.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	assert.Empty(t, env.notifications.All())
	assert.Empty(t, env.pusher.calls)
}

func TestAttendanceNotifiesAbsentOnly(t *testing.T) {
	env := newTestEnv(t, nil)
	classroomID, studentID, parentID := env.seedFamily(t, "t1", "en", "ExponentPushToken[abc]")
	tt := token(t, "t1", RoleTeacher)

	rec := env.do(t, http.MethodPost, "/api/classroom/"+classroomID+"/students", tt, map[string]string{"name": "Meena"})
	require.Equal(t, http.StatusCreated, rec.Code)
	presentID := field(decode(t, rec), "student", "id").(string)

	rec = env.do(t, http.MethodPost, "/api/classroom/"+classroomID+"/attendance", tt, map[string]interface{}{
		"attendance": []map[string]string{
			{"student": studentID, "date": "2026-05-04T15:30:00+05:30", "status": "absent"},
			{"student": presentID, "date": "2026-05-05T08:00:00Z", "status": "present"},
		},
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	body := decode(t, rec)
	assert.EqualValues(t, 2, body["count"])
	records := body["attendance"].([]interface{})
	assert.Equal(t, "2026-05-04T09:00:00Z", records[1].(map[string]interface{})["date"])

	all := env.notifications.All()
	require.Len(t, all, 1)
	assert.Equal(t, "attendance", string(all[0].Type))
	assert.Equal(t, []string{parentID}, all[0].Recipients)
	assert.Equal(t, "Ravi was marked absent on 2026-05-04.", all[0].Message)
}

func TestUpdatePreferences(t *testing.T) {
	env := newTestEnv(t, nil)
	_, _, parentID := env.seedFamily(t, "t1", "en", "")
	pt := token(t, parentID, RoleParent)

	rec := env.do(t, http.MethodPut, "/api/parents/me/preferences", pt, map[string]string{"language": " TA ", "pushToken": "ExpoPushToken[x]"})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	body := decode(t, rec)
	assert.Equal(t, "ta", field(body, "parent", "language"))
	assert.Equal(t, "ExpoPushToken[x]", field(body, "parent", "pushToken"))

	rec = env.do(t, http.MethodPut, "/api/parents/me/preferences", pt, map[string]string{})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = env.do(t, http.MethodPut, "/api/parents/me/preferences", token(t, "ghost", RoleParent), map[string]string{"language": "fr"})
	assert.Equal(t, http.StatusNotFound, rec.Code)
}
