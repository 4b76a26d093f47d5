package profiles

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"

	"meliapp/internal/domain/lots"
)

var (
	ErrInvalidInput = errors.New("invalid input")
	ErrNotFound     = errors.New("user not found")
)

// SegmentLen es el largo del segmento de UUID que viaja en los QR
// (primer bloque del UUID, 8 caracteres).
const SegmentLen = 8

var (
	usernameRe = regexp.MustCompile(`^[a-zA-Z0-9_-]+$`)
	emailRe    = regexp.MustCompile(`^[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}$`)
)

// LotSource expone los lotes para el perfil y el buscador multi-tabla,
// sin acoplar profiles al service completo de lots.
type LotSource interface {
	ListByUser(ctx context.Context, usuarioID string) ([]lots.Lot, error)
	SearchByNombre(ctx context.Context, term string, limit int) ([]lots.Lot, error)
}

// SpeciesSource resuelve las especies melíferas por comuna.
type SpeciesSource interface {
	EspeciesFor(comuna string) ([]string, error)
}

type Service struct {
	repo    Repository
	lots    LotSource
	species SpeciesSource
	now     func() time.Time
}

func NewService(repo Repository, lotSource LotSource, species SpeciesSource) *Service {
	return &Service{
		repo:    repo,
		lots:    lotSource,
		species: species,
		now:     time.Now,
	}
}

// ProfileView es la vista pública agregada de un usuario.
type ProfileView struct {
	User      User
	Contact   Contact
	Locations []Location
	Lots      []lots.Lot
	Requests  []Request

	// ProduccionTotal suma los kg de todos los lotes.
	ProduccionTotal float64
}

// SearchResult es un match de la búsqueda multi-tabla.
type SearchResult struct {
	Table  string         `json:"_table"`
	ID     string         `json:"id"`
	Fields map[string]any `json:"fields"`
}

// EnsureUser crea la fila usuarios espejo si no existe todavía.
// Se llama tras un registro/login exitoso contra el proveedor.
func (s *Service) EnsureUser(ctx context.Context, authUserID, username string) error {
	authUserID = strings.TrimSpace(authUserID)
	if authUserID == "" {
		return ErrInvalidInput
	}

	if _, err := s.repo.GetUser(ctx, authUserID); err == nil {
		return nil
	}

	now := s.now()
	return s.repo.CreateUser(ctx, User{
		AuthUserID:  authUserID,
		Username:    strings.TrimSpace(username),
		TipoUsuario: "Regular",
		Role:        RoleApicultor,
		Status:      "active",
		CreatedAt:   now,
		UpdatedAt:   now,
	})
}

// EnsureContact espeja la fila de contacto del usuario (registro / OAuth).
func (s *Service) EnsureContact(ctx context.Context, authUserID, nombreCompleto, nombreEmpresa, correo string) error {
	authUserID = strings.TrimSpace(authUserID)
	if authUserID == "" {
		return ErrInvalidInput
	}

	if c, err := s.repo.GetContact(ctx, authUserID); err == nil && c.ID != "" {
		return nil
	}

	return s.repo.UpsertContact(ctx, Contact{
		ID:              uuid.NewString(),
		AuthUserID:      authUserID,
		NombreCompleto:  strings.TrimSpace(nombreCompleto),
		NombreEmpresa:   strings.TrimSpace(nombreEmpresa),
		CorreoPrincipal: strings.TrimSpace(correo),
	})
}

// DisplayName devuelve el nombre para mostrar de un usuario:
// el nombre completo de contacto si existe, si no el username.
func (s *Service) DisplayName(ctx context.Context, authUserID string) (string, error) {
	if c, err := s.repo.GetContact(ctx, authUserID); err == nil && strings.TrimSpace(c.NombreCompleto) != "" {
		return c.NombreCompleto, nil
	}
	u, err := s.repo.GetUser(ctx, authUserID)
	if err != nil {
		return "", err
	}
	return u.Username, nil
}

// Profile arma la vista agregada. El identifier puede ser el UUID
// completo, el segmento de 8 caracteres de un QR, o un username.
func (s *Service) Profile(ctx context.Context, identifier string) (ProfileView, error) {
	u, err := s.resolve(ctx, identifier)
	if err != nil {
		return ProfileView{}, err
	}

	view := ProfileView{User: u}

	if c, err := s.repo.GetContact(ctx, u.AuthUserID); err == nil {
		view.Contact = c
	}
	if locs, err := s.repo.ListLocations(ctx, u.AuthUserID); err == nil {
		view.Locations = locs
	}
	if reqs, err := s.repo.ListRequests(ctx, u.AuthUserID); err == nil {
		view.Requests = reqs
	}
	if s.lots != nil {
		if ls, err := s.lots.ListByUser(ctx, u.AuthUserID); err == nil {
			view.Lots = ls
			for _, l := range ls {
				view.ProduccionTotal += l.KgProducidos
			}
		}
	}

	return view, nil
}

// ResolveSegment busca el usuario cuyo UUID empieza con el segmento dado.
func (s *Service) ResolveSegment(ctx context.Context, segment string) (User, error) {
	segment = strings.ToLower(strings.TrimSpace(segment))
	if len(segment) != SegmentLen {
		return User{}, fmt.Errorf("%w: el segmento UUID debe tener %d caracteres", ErrInvalidInput, SegmentLen)
	}
	return s.repo.FindUserByIDPrefix(ctx, segment)
}

// Suggest devuelve sugerencias de autocompletado para el buscador.
// Con término vacío o de un solo carácter no consulta nada.
func (s *Service) Suggest(ctx context.Context, term string, limit int) ([]Suggestion, error) {
	term = strings.TrimSpace(term)
	if len(term) < 2 {
		return []Suggestion{}, nil
	}
	if limit <= 0 {
		limit = 10
	}

	users, err := s.repo.SearchUsers(ctx, term, limit)
	if err != nil {
		return nil, err
	}

	out := make([]Suggestion, 0, len(users))
	for _, u := range users {
		out = append(out, Suggestion{
			ID:           u.AuthUserID,
			Nombre:       u.Username,
			Especialidad: especialidad(u),
		})
	}

	// Fallback: si usuarios no matchea, probamos info_contacto por nombre.
	if len(out) == 0 {
		contacts, err := s.repo.SearchContacts(ctx, term, limit)
		if err != nil {
			return nil, err
		}
		for _, c := range contacts {
			out = append(out, Suggestion{
				ID:           c.AuthUserID,
				Nombre:       c.NombreCompleto,
				Especialidad: "Apicultor",
			})
		}
	}

	return out, nil
}

// Search hace la búsqueda multi-tabla (usuarios, info_contacto,
// ubicaciones, origenes_botanicos, solicitudes_apicultor),
// de-duplicando por auth_user_id.
func (s *Service) Search(ctx context.Context, term string, limit int) ([]SearchResult, error) {
	term = strings.TrimSpace(term)
	if term == "" {
		return []SearchResult{}, nil
	}
	if limit <= 0 {
		limit = 10
	}

	seen := map[string]struct{}{}
	out := make([]SearchResult, 0)

	users, err := s.repo.SearchUsers(ctx, term, limit)
	if err != nil {
		return nil, err
	}
	for _, u := range users {
		if _, ok := seen[u.AuthUserID]; ok {
			continue
		}
		seen[u.AuthUserID] = struct{}{}
		out = append(out, SearchResult{
			Table: "usuarios",
			ID:    u.AuthUserID,
			Fields: map[string]any{
				"username":     u.Username,
				"tipo_usuario": u.TipoUsuario,
				"role":         string(u.Role),
				"status":       u.Status,
			},
		})
	}

	contacts, err := s.repo.SearchContacts(ctx, term, limit)
	if err != nil {
		return nil, err
	}
	for _, c := range contacts {
		if _, ok := seen[c.AuthUserID]; ok {
			continue
		}
		seen[c.AuthUserID] = struct{}{}
		out = append(out, SearchResult{
			Table: "info_contacto",
			ID:    c.AuthUserID,
			Fields: map[string]any{
				"nombre_completo": c.NombreCompleto,
				"nombre_empresa":  c.NombreEmpresa,
				"comuna":          c.Comuna,
			},
		})
	}

	locations, err := s.repo.SearchLocations(ctx, term, limit)
	if err != nil {
		return nil, err
	}
	for _, l := range locations {
		if _, ok := seen[l.AuthUserID]; ok {
			continue
		}
		seen[l.AuthUserID] = struct{}{}
		out = append(out, SearchResult{
			Table: "ubicaciones",
			ID:    l.AuthUserID,
			Fields: map[string]any{
				"nombre":      l.Nombre,
				"descripcion": l.Descripcion,
				"comuna":      l.Comuna,
			},
		})
	}

	if s.lots != nil {
		found, err := s.lots.SearchByNombre(ctx, term, limit)
		if err != nil {
			return nil, err
		}
		for _, l := range found {
			if _, ok := seen[l.UsuarioID]; ok {
				continue
			}
			seen[l.UsuarioID] = struct{}{}
			out = append(out, SearchResult{
				Table: "origenes_botanicos",
				ID:    l.UsuarioID,
				Fields: map[string]any{
					"nombre_miel": l.NombreMiel,
					"orden_miel":  l.OrdenMiel,
					"anio":        l.Anio,
				},
			})
		}
	}

	requests, err := s.repo.SearchRequests(ctx, term, limit)
	if err != nil {
		return nil, err
	}
	for _, q := range requests {
		if _, ok := seen[q.AuthUserID]; ok {
			continue
		}
		seen[q.AuthUserID] = struct{}{}
		out = append(out, SearchResult{
			Table: "solicitudes_apicultor",
			ID:    q.AuthUserID,
			Fields: map[string]any{
				"nombre_completo": q.NombreCompleto,
				"nombre_empresa":  q.NombreEmpresa,
				"comuna":          q.Comuna,
				"status":          q.Status,
			},
		})
	}

	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

type UpdateUserInput struct {
	// Punteros para edición parcial: nil = no tocar.
	Username    *string
	Role        *string
	Descripcion *string
}

// UpdateUser edita los campos editables de la fila usuarios.
// tipo_usuario se fuerza siempre a "Regular".
func (s *Service) UpdateUser(ctx context.Context, authUserID string, in UpdateUserInput) (User, error) {
	u, err := s.repo.GetUser(ctx, authUserID)
	if err != nil {
		return User{}, err
	}

	if in.Username != nil {
		username := strings.TrimSpace(*in.Username)
		if len(username) < 3 || len(username) > 80 {
			return User{}, fmt.Errorf("%w: username debe tener entre 3 y 80 caracteres", ErrInvalidInput)
		}
		if !usernameRe.MatchString(username) {
			return User{}, fmt.Errorf("%w: username solo puede contener letras, números, guiones y underscores", ErrInvalidInput)
		}
		if other, err := s.repo.GetUserByUsername(ctx, username); err == nil && other.AuthUserID != u.AuthUserID {
			return User{}, fmt.Errorf("%w: username ya está en uso", ErrInvalidInput)
		}
		u.Username = username
	}

	if in.Role != nil {
		role := Role(strings.TrimSpace(*in.Role))
		if !role.Valid() {
			return User{}, fmt.Errorf("%w: rol debe ser uno de: APICULTOR, PROVEEDOR, PRESTADOR DE SERVICIOS", ErrInvalidInput)
		}
		u.Role = role
	}

	if in.Descripcion != nil {
		u.Descripcion = strings.TrimSpace(*in.Descripcion)
	}

	u.TipoUsuario = "Regular"
	u.UpdatedAt = s.now()

	if err := s.repo.UpdateUser(ctx, u); err != nil {
		return User{}, err
	}
	return u, nil
}

type UpdateContactInput struct {
	NombreCompleto    *string
	NombreEmpresa     *string
	CorreoPrincipal   *string
	TelefonoPrincipal *string
	Direccion         *string
	Comuna            *string
	Region            *string
}

// UpdateContact edita la fila de contacto del usuario autenticado.
func (s *Service) UpdateContact(ctx context.Context, authUserID string, in UpdateContactInput) (Contact, error) {
	c, err := s.repo.GetContact(ctx, authUserID)
	if err != nil {
		// Sin fila previa creamos una nueva (perfil recién migrado).
		c = Contact{ID: uuid.NewString(), AuthUserID: authUserID}
	}

	if in.CorreoPrincipal != nil {
		correo := strings.TrimSpace(*in.CorreoPrincipal)
		if correo != "" && !emailRe.MatchString(correo) {
			return Contact{}, fmt.Errorf("%w: formato de email inválido", ErrInvalidInput)
		}
		c.CorreoPrincipal = correo
	}
	if in.NombreCompleto != nil {
		c.NombreCompleto = strings.TrimSpace(*in.NombreCompleto)
	}
	if in.NombreEmpresa != nil {
		c.NombreEmpresa = strings.TrimSpace(*in.NombreEmpresa)
	}
	if in.TelefonoPrincipal != nil {
		c.TelefonoPrincipal = strings.TrimSpace(*in.TelefonoPrincipal)
	}
	if in.Direccion != nil {
		c.Direccion = strings.TrimSpace(*in.Direccion)
	}
	if in.Comuna != nil {
		c.Comuna = strings.TrimSpace(*in.Comuna)
	}
	if in.Region != nil {
		c.Region = strings.TrimSpace(*in.Region)
	}

	if err := s.repo.UpsertContact(ctx, c); err != nil {
		return Contact{}, err
	}
	return c, nil
}

type UpsertLocationInput struct {
	ID          string // vacío = crear
	Nombre      string
	Descripcion string
	Comuna      string
	Region      string
}

func (s *Service) UpsertLocation(ctx context.Context, authUserID string, in UpsertLocationInput) (Location, error) {
	authUserID = strings.TrimSpace(authUserID)
	if authUserID == "" || strings.TrimSpace(in.Nombre) == "" {
		return Location{}, ErrInvalidInput
	}

	l := Location{
		ID:          strings.TrimSpace(in.ID),
		AuthUserID:  authUserID,
		Nombre:      strings.TrimSpace(in.Nombre),
		Descripcion: strings.TrimSpace(in.Descripcion),
		Comuna:      strings.TrimSpace(in.Comuna),
		Region:      strings.TrimSpace(in.Region),
	}
	if l.ID == "" {
		l.ID = uuid.NewString()
	}

	if err := s.repo.UpsertLocation(ctx, l); err != nil {
		return Location{}, err
	}
	return l, nil
}

// UserInfo es la respuesta de /api/usuario-info: comuna del usuario
// más las especies melíferas disponibles en esa comuna.
type UserInfo struct {
	UsuarioID string
	Comuna    string
	Especies  []string
}

// EspeciesForUser resuelve la comuna del contacto del usuario y
// las especies de referencia de esa comuna.
func (s *Service) EspeciesForUser(ctx context.Context, authUserID string) (UserInfo, error) {
	c, err := s.repo.GetContact(ctx, authUserID)
	if err != nil {
		return UserInfo{}, ErrNotFound
	}
	if strings.TrimSpace(c.Comuna) == "" {
		return UserInfo{UsuarioID: authUserID}, fmt.Errorf("%w: usuario no tiene comuna registrada", ErrInvalidInput)
	}

	info := UserInfo{UsuarioID: authUserID, Comuna: c.Comuna, Especies: []string{}}
	if s.species != nil {
		if especies, err := s.species.EspeciesFor(c.Comuna); err == nil {
			info.Especies = especies
		}
	}
	return info, nil
}

func (s *Service) resolve(ctx context.Context, identifier string) (User, error) {
	identifier = strings.TrimSpace(identifier)
	if identifier == "" {
		return User{}, ErrInvalidInput
	}

	if u, err := s.repo.GetUser(ctx, identifier); err == nil {
		return u, nil
	}
	if len(identifier) == SegmentLen {
		if u, err := s.repo.FindUserByIDPrefix(ctx, strings.ToLower(identifier)); err == nil {
			return u, nil
		}
	}
	if u, err := s.repo.GetUserByUsername(ctx, identifier); err == nil {
		return u, nil
	}
	return User{}, ErrNotFound
}

func especialidad(u User) string {
	if u.TipoUsuario != "" && u.TipoUsuario != "Regular" {
		return u.TipoUsuario
	}
	if u.Role != "" {
		return string(u.Role)
	}
	return "Apicultor"
}
