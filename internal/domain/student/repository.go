package student

import "context"

// Repository persists students and the per-student records teachers create.
type Repository interface {
	Create(ctx context.Context, s *Student) error
	GetByID(ctx context.Context, id string) (*Student, error)
	// ListByIDs returns the students that exist among ids, in the order of ids.
	ListByIDs(ctx context.Context, ids []string) ([]*Student, error)
	LinkParent(ctx context.Context, studentID, parentID string) error

	CreateRemark(ctx context.Context, r *Remark) error
	UpsertAttendance(ctx context.Context, records []*AttendanceRecord) error
	CreateMark(ctx context.Context, m *Mark) error
}
