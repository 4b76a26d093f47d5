package memory

import (
	"context"
	"errors"
	"sort"
	"strings"
	"sync"

	"meliapp/internal/domain/profiles"
)

type profilesRepo struct {
	mu          sync.RWMutex
	users       map[string]profiles.User    // por auth_user_id
	contacts    map[string]profiles.Contact // por auth_user_id
	locations   map[string]profiles.Location
	solicitudes map[string]profiles.Request
}

func NewProfilesRepo() profiles.Repository {
	return &profilesRepo{
		users:       make(map[string]profiles.User),
		contacts:    make(map[string]profiles.Contact),
		locations:   make(map[string]profiles.Location),
		solicitudes: make(map[string]profiles.Request),
	}
}

func (r *profilesRepo) CreateUser(ctx context.Context, u profiles.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if u.AuthUserID == "" {
		return errors.New("auth_user_id required")
	}
	if _, exists := r.users[u.AuthUserID]; exists {
		return errors.New("user already exists")
	}
	r.users[u.AuthUserID] = u
	return nil
}

func (r *profilesRepo) GetUser(ctx context.Context, authUserID string) (profiles.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	u, ok := r.users[authUserID]
	if !ok {
		return profiles.User{}, profiles.ErrNotFound
	}
	return u, nil
}

func (r *profilesRepo) GetUserByUsername(ctx context.Context, username string) (profiles.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, u := range r.users {
		if strings.EqualFold(u.Username, username) {
			return u, nil
		}
	}
	return profiles.User{}, profiles.ErrNotFound
}

func (r *profilesRepo) UpdateUser(ctx context.Context, u profiles.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.users[u.AuthUserID]; !exists {
		return profiles.ErrNotFound
	}
	r.users[u.AuthUserID] = u
	return nil
}

func (r *profilesRepo) FindUserByIDPrefix(ctx context.Context, prefix string) (profiles.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	prefix = strings.ToLower(prefix)
	// Orden determinista: ante prefijos ambiguos gana el id menor.
	ids := make([]string, 0, len(r.users))
	for id := range r.users {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	for _, id := range ids {
		if strings.HasPrefix(strings.ToLower(id), prefix) {
			return r.users[id], nil
		}
	}
	return profiles.User{}, profiles.ErrNotFound
}

func (r *profilesRepo) SearchUsers(ctx context.Context, term string, limit int) ([]profiles.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	term = strings.ToLower(term)
	out := make([]profiles.User, 0)
	for _, u := range r.users {
		if strings.Contains(strings.ToLower(u.Username), term) {
			out = append(out, u)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Username < out[j].Username })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (r *profilesRepo) UpsertContact(ctx context.Context, c profiles.Contact) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if c.AuthUserID == "" {
		return errors.New("auth_user_id required")
	}
	r.contacts[c.AuthUserID] = c
	return nil
}

func (r *profilesRepo) GetContact(ctx context.Context, authUserID string) (profiles.Contact, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	c, ok := r.contacts[authUserID]
	if !ok {
		return profiles.Contact{}, profiles.ErrNotFound
	}
	return c, nil
}

func (r *profilesRepo) SearchContacts(ctx context.Context, term string, limit int) ([]profiles.Contact, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	term = strings.ToLower(term)
	out := make([]profiles.Contact, 0)
	for _, c := range r.contacts {
		if strings.Contains(strings.ToLower(c.NombreCompleto), term) ||
			strings.Contains(strings.ToLower(c.NombreEmpresa), term) {
			out = append(out, c)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].NombreCompleto < out[j].NombreCompleto })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (r *profilesRepo) ListLocations(ctx context.Context, authUserID string) ([]profiles.Location, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]profiles.Location, 0)
	for _, l := range r.locations {
		if l.AuthUserID == authUserID {
			out = append(out, l)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Nombre < out[j].Nombre })
	return out, nil
}

func (r *profilesRepo) UpsertLocation(ctx context.Context, l profiles.Location) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if l.ID == "" {
		return errors.New("location id required")
	}
	r.locations[l.ID] = l
	return nil
}

func (r *profilesRepo) SearchLocations(ctx context.Context, term string, limit int) ([]profiles.Location, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	term = strings.ToLower(term)
	out := make([]profiles.Location, 0)
	for _, l := range r.locations {
		if strings.Contains(strings.ToLower(l.Nombre), term) ||
			strings.Contains(strings.ToLower(l.Descripcion), term) ||
			strings.Contains(strings.ToLower(l.Comuna), term) {
			out = append(out, l)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Nombre < out[j].Nombre })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (r *profilesRepo) SearchRequests(ctx context.Context, term string, limit int) ([]profiles.Request, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	term = strings.ToLower(term)
	out := make([]profiles.Request, 0)
	for _, q := range r.solicitudes {
		if strings.Contains(strings.ToLower(q.NombreCompleto), term) ||
			strings.Contains(strings.ToLower(q.NombreEmpresa), term) ||
			strings.Contains(strings.ToLower(q.Comuna), term) {
			out = append(out, q)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (r *profilesRepo) ListRequests(ctx context.Context, authUserID string) ([]profiles.Request, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]profiles.Request, 0)
	for _, q := range r.solicitudes {
		if q.AuthUserID == authUserID {
			out = append(out, q)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}
