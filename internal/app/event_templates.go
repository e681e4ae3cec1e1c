package app

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"schoolbridge/internal/domain/notification"
	"schoolbridge/internal/domain/student"
)

const (
	dueDateLayout    = "Jan 2, 2006"
	attendanceLayout = "2006-01-02"

	voiceRemarkNotice = "Your child's teacher has sent a voice remark. Open the app to listen."
)

// Event is a domain change that should reach guardians.
type Event struct {
	Type        notification.EventType
	ClassroomID string
	// StudentIDs narrows the audience to these students' guardians.
	StudentIDs []string

	// Title and Body carry the teacher's own text: assignment title and
	// description, announcement title and content, remark content.
	Title string
	Body  string

	DueDate    time.Time
	RemarkKind student.RemarkKind

	StudentName      string
	AttendanceStatus student.AttendanceStatus
	Date             time.Time

	Subject  string
	Score    float64
	MaxScore float64
}

// Message is a rendered title/body pair.
type Message struct {
	Title string
	Body  string
}

// eventTemplate describes how an event type is localized. texts returns the
// fixed-order batch sent to the translator; compose assembles the push title
// and body from a batch of the same shape, translated or not.
type eventTemplate struct {
	texts   func(e Event) []string
	compose func(e Event, out []string) Message
}

var eventTemplates = map[notification.EventType]eventTemplate{
	notification.TypeAssignment: {
		texts: func(e Event) []string {
			return []string{e.Title, e.Body, "Assignment: ", "Due Date: "}
		},
		compose: func(e Event, out []string) Message {
			return Message{
				Title: prefix(out[2]) + out[0],
				Body:  fmt.Sprintf("%s %s\n%s", strings.TrimSpace(out[3]), e.DueDate.Format(dueDateLayout), out[1]),
			}
		},
	},
	notification.TypeAnnouncement: {
		texts: func(e Event) []string {
			return []string{e.Title, e.Body, "Announcement: "}
		},
		compose: func(e Event, out []string) Message {
			return Message{Title: prefix(out[2]) + out[0], Body: out[1]}
		},
	},
	notification.TypeRemark: {
		texts: func(e Event) []string {
			body := "Teacher's remark: " + e.Body
			if e.RemarkKind == student.RemarkVoice {
				body = voiceRemarkNotice
			}
			return []string{"New Remark from Teacher", body}
		},
		compose: pair,
	},
	notification.TypeAssignmentReminder: {
		texts: func(e Event) []string {
			return []string{
				"Assignment Reminder:",
				fmt.Sprintf("The assignment \"%s\" is due on %s. Please make sure it is completed on time.", e.Title, e.DueDate.Format(dueDateLayout)),
			}
		},
		compose: func(e Event, out []string) Message {
			return Message{Title: prefix(out[0]) + e.Title, Body: out[1]}
		},
	},
	notification.TypeAttendance: {
		texts: func(e Event) []string {
			return []string{
				"Attendance Update",
				fmt.Sprintf("%s was marked %s on %s.", e.StudentName, e.AttendanceStatus, e.Date.Format(attendanceLayout)),
			}
		},
		compose: pair,
	},
	notification.TypeMarks: {
		texts: func(e Event) []string {
			return []string{
				"New Marks Posted",
				fmt.Sprintf("%s scored %s/%s in %s.", e.StudentName, formatScore(e.Score), formatScore(e.MaxScore), e.Subject),
			}
		},
		compose: pair,
	},
}

func pair(_ Event, out []string) Message {
	return Message{Title: out[0], Body: out[1]}
}

// prefix normalizes a label so exactly one space separates it from what
// follows, whatever the translator did with trailing whitespace.
func prefix(label string) string {
	return strings.TrimSpace(label) + " "
}

func formatScore(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

func templateFor(t notification.EventType) (eventTemplate, error) {
	tpl, ok := eventTemplates[t]
	if !ok {
		return eventTemplate{}, fmt.Errorf("no template for event type %q", t)
	}
	return tpl, nil
}
