package inmem

import (
	"context"
	"sync"
	"time"

	"schoolbridge/internal/domain/parent"
)

type ParentRepository struct {
	mu    sync.RWMutex
	items map[string]*parent.Parent
}

var _ parent.Repository = (*ParentRepository)(nil)

func NewParentRepository() *ParentRepository {
	return &ParentRepository{items: make(map[string]*parent.Parent)}
}

func (r *ParentRepository) Create(_ context.Context, p *parent.Parent) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	p.ID = newID("par")
	if p.CreatedAt.IsZero() {
		p.CreatedAt = time.Now().UTC()
	}
	c := *p
	r.items[p.ID] = &c
	return nil
}

func (r *ParentRepository) GetByID(_ context.Context, id string) (*parent.Parent, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	p, ok := r.items[id]
	if !ok {
		return nil, parent.ErrParentNotFound
	}
	c := *p
	return &c, nil
}

func (r *ParentRepository) ListByIDs(_ context.Context, ids []string) ([]*parent.Parent, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]*parent.Parent, 0, len(ids))
	for _, id := range ids {
		if p, ok := r.items[id]; ok {
			c := *p
			out = append(out, &c)
		}
	}
	return out, nil
}

func (r *ParentRepository) UpdatePreferences(_ context.Context, id string, language, pushToken *string) (*parent.Parent, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.items[id]
	if !ok {
		return nil, parent.ErrParentNotFound
	}
	if language != nil {
		p.Language = *language
	}
	if pushToken != nil {
		p.PushToken = *pushToken
	}
	c := *p
	return &c, nil
}
