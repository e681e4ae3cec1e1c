package parent

import "context"

type Repository interface {
	Create(ctx context.Context, p *Parent) error
	GetByID(ctx context.Context, id string) (*Parent, error)
	// ListByIDs returns the parents that exist among ids, in the order of ids.
	ListByIDs(ctx context.Context, ids []string) ([]*Parent, error)
	UpdatePreferences(ctx context.Context, id string, language, pushToken *string) (*Parent, error)
}
