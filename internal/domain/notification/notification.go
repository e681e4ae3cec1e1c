// internal/domain/notification/notification.go
package notification

import (
	"errors"
	"time"
)

// EventType identifies the domain event a notification was produced for.
type EventType string

const (
	TypeAnnouncement       EventType = "announcement"
	TypeAssignment         EventType = "assignment"
	TypeAttendance         EventType = "attendance"
	TypeRemark             EventType = "remark"
	TypeMarks              EventType = "marks"
	TypeAssignmentReminder EventType = "assignment_reminder"
)

// Valid reports whether t is one of the known event types.
func (t EventType) Valid() bool {
	switch t {
	case TypeAnnouncement, TypeAssignment, TypeAttendance, TypeRemark, TypeMarks, TypeAssignmentReminder:
		return true
	}
	return false
}

var ErrNotificationNotFound = errors.New("notification not found")

// ReadReceipt records the first time a parent opened a notification.
type ReadReceipt struct {
	ParentID string    `json:"parent"`
	ReadAt   time.Time `json:"readAt"`
}

// Notification is the persisted record of one fan-out. Title and Message are
// stored in the source language; translations only exist in push payloads.
type Notification struct {
	ID          string        `json:"id"`
	Title       string        `json:"title"`
	Message     string        `json:"message"`
	Type        EventType     `json:"type"`
	ClassroomID string        `json:"classroom"`
	Recipients  []string      `json:"recipients"`
	Read        []ReadReceipt `json:"read"`
	CreatedAt   time.Time     `json:"createdAt"`
}

// IsRecipient reports whether parentID is allowed to see n.
func (n *Notification) IsRecipient(parentID string) bool {
	for _, id := range n.Recipients {
		if id == parentID {
			return true
		}
	}
	return false
}

// IsReadBy reports whether parentID already has a read receipt on n.
func (n *Notification) IsReadBy(parentID string) bool {
	for _, r := range n.Read {
		if r.ParentID == parentID {
			return true
		}
	}
	return false
}

// View is a notification as seen by one parent.
type View struct {
	Notification
	IsRead bool `json:"isRead"`
}

// NewView computes the per-parent read flag.
func NewView(n Notification, parentID string) View {
	return View{Notification: n, IsRead: n.IsReadBy(parentID)}
}
