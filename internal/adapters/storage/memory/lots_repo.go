package memory

import (
	"context"
	"errors"
	"sort"
	"strings"
	"sync"

	"meliapp/internal/domain/lots"
)

type lotsRepo struct {
	mu   sync.RWMutex
	byID map[string]lots.Lot
}

func NewLotsRepo() lots.Repository {
	return &lotsRepo{
		byID: make(map[string]lots.Lot),
	}
}

func (r *lotsRepo) Create(ctx context.Context, l lots.Lot) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if l.ID == "" {
		return errors.New("lot id required")
	}
	if _, exists := r.byID[l.ID]; exists {
		return errors.New("lot already exists")
	}
	r.byID[l.ID] = l
	return nil
}

func (r *lotsRepo) Update(ctx context.Context, l lots.Lot) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.byID[l.ID]; !exists {
		return lots.ErrNotFound
	}
	r.byID[l.ID] = l
	return nil
}

func (r *lotsRepo) Delete(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.byID[id]; !exists {
		return lots.ErrNotFound
	}
	delete(r.byID, id)
	return nil
}

func (r *lotsRepo) GetByID(ctx context.Context, id string) (lots.Lot, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	l, ok := r.byID[id]
	if !ok {
		return lots.Lot{}, lots.ErrNotFound
	}
	return l, nil
}

func (r *lotsRepo) ListByUser(ctx context.Context, usuarioID string) ([]lots.Lot, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]lots.Lot, 0)
	for _, l := range r.byID {
		if l.UsuarioID == usuarioID {
			out = append(out, l)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].OrdenMiel < out[j].OrdenMiel })
	return out, nil
}

func (r *lotsRepo) SearchByNombre(ctx context.Context, term string, limit int) ([]lots.Lot, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	term = strings.ToLower(term)
	out := make([]lots.Lot, 0)
	for _, l := range r.byID {
		if strings.Contains(strings.ToLower(l.NombreMiel), term) {
			out = append(out, l)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].NombreMiel < out[j].NombreMiel })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (r *lotsRepo) UpdateOrden(ctx context.Context, id string, orden int) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	l, ok := r.byID[id]
	if !ok {
		return lots.ErrNotFound
	}
	l.OrdenMiel = orden
	r.byID[id] = l
	return nil
}
