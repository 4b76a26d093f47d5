package lots

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"meliapp/internal/platform/logger"
)

var (
	ErrInvalidInput = errors.New("invalid input")
	ErrNotFound     = errors.New("lote not found")
	ErrForbidden    = errors.New("lote belongs to another user")
)

type Config struct {
	// StrictComposition rechaza composiciones cuya suma supere 100%.
	// La composición parcial (suma < 100) siempre es válida.
	StrictComposition bool
}

type Service struct {
	repo Repository
	cfg  Config
	log  logger.Logger
	now  func() time.Time
}

func NewService(repo Repository, cfg Config, log logger.Logger) *Service {
	if log == nil {
		log = logger.Nop()
	}
	return &Service{
		repo: repo,
		cfg:  cfg,
		log:  log,
		now:  time.Now,
	}
}

type CreateInput struct {
	NombreMiel   string
	Temporada    string
	Anio         int
	KgProducidos float64
	Composicion  map[string]float64
}

type UpdateInput struct {
	NombreMiel   string
	Temporada    string
	Anio         int
	KgProducidos float64
	Composicion  map[string]float64
}

func (s *Service) ListByUser(ctx context.Context, usuarioID string) ([]Lot, error) {
	usuarioID = strings.TrimSpace(usuarioID)
	if usuarioID == "" {
		return nil, ErrInvalidInput
	}
	return s.repo.ListByUser(ctx, usuarioID)
}

func (s *Service) GetByID(ctx context.Context, id string) (Lot, error) {
	return s.repo.GetByID(ctx, id)
}

// SearchByNombre busca lotes por nombre de miel, para el buscador
// multi-tabla de perfiles.
func (s *Service) SearchByNombre(ctx context.Context, term string, limit int) ([]Lot, error) {
	term = strings.TrimSpace(term)
	if term == "" {
		return []Lot{}, nil
	}
	if limit <= 0 {
		limit = 10
	}
	return s.repo.SearchByNombre(ctx, term, limit)
}

// Create agrega un lote con el siguiente orden secuencial del usuario.
func (s *Service) Create(ctx context.Context, usuarioID string, in CreateInput) (Lot, error) {
	usuarioID = strings.TrimSpace(usuarioID)
	if usuarioID == "" {
		return Lot{}, ErrInvalidInput
	}
	if err := s.validate(in.NombreMiel, in.Temporada, in.Anio, in.KgProducidos, in.Composicion); err != nil {
		return Lot{}, err
	}

	actuales, err := s.repo.ListByUser(ctx, usuarioID)
	if err != nil {
		return Lot{}, err
	}

	now := s.now()
	l := Lot{
		ID:           uuid.NewString(),
		UsuarioID:    usuarioID,
		NombreMiel:   strings.TrimSpace(in.NombreMiel),
		Temporada:    Temporada(in.Temporada),
		Anio:         in.Anio,
		KgProducidos: in.KgProducidos,
		OrdenMiel:    len(actuales) + 1,
		Composicion:  cloneComposicion(in.Composicion),
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	if err := s.repo.Create(ctx, l); err != nil {
		return Lot{}, err
	}

	s.log.Info("lote creado", map[string]any{
		"lote_id":    l.ID,
		"usuario_id": usuarioID,
		"orden":      l.OrdenMiel,
	})
	return l, nil
}

// Update modifica un lote del usuario manteniendo su orden.
func (s *Service) Update(ctx context.Context, loteID, usuarioID string, in UpdateInput) (Lot, error) {
	current, err := s.owned(ctx, loteID, usuarioID)
	if err != nil {
		return Lot{}, err
	}
	if err := s.validate(in.NombreMiel, in.Temporada, in.Anio, in.KgProducidos, in.Composicion); err != nil {
		return Lot{}, err
	}

	current.NombreMiel = strings.TrimSpace(in.NombreMiel)
	current.Temporada = Temporada(in.Temporada)
	current.Anio = in.Anio
	current.KgProducidos = in.KgProducidos
	current.Composicion = cloneComposicion(in.Composicion)
	current.UpdatedAt = s.now()

	if err := s.repo.Update(ctx, current); err != nil {
		return Lot{}, err
	}
	return current, nil
}

// Delete elimina un lote y cierra el hueco de orden que deja:
// todo lote con orden mayor se decrementa en uno.
func (s *Service) Delete(ctx context.Context, loteID, usuarioID string) (int, error) {
	current, err := s.owned(ctx, loteID, usuarioID)
	if err != nil {
		return 0, err
	}

	if err := s.repo.Delete(ctx, current.ID); err != nil {
		return 0, err
	}

	restantes, err := s.repo.ListByUser(ctx, usuarioID)
	if err != nil {
		return current.OrdenMiel, err
	}
	for _, l := range restantes {
		if l.OrdenMiel > current.OrdenMiel {
			if err := s.repo.UpdateOrden(ctx, l.ID, l.OrdenMiel-1); err != nil {
				return current.OrdenMiel, err
			}
		}
	}

	return current.OrdenMiel, nil
}

// Reorder reasigna los órdenes 1..N según el nuevo orden dado.
// Exige una permutación completa de los lotes del usuario.
func (s *Service) Reorder(ctx context.Context, usuarioID string, nuevoOrden []string) error {
	usuarioID = strings.TrimSpace(usuarioID)
	if usuarioID == "" {
		return ErrInvalidInput
	}

	actuales, err := s.repo.ListByUser(ctx, usuarioID)
	if err != nil {
		return err
	}
	if len(actuales) != len(nuevoOrden) {
		return fmt.Errorf("%w: número de lotes no coincide", ErrInvalidInput)
	}

	propios := map[string]struct{}{}
	for _, l := range actuales {
		propios[l.ID] = struct{}{}
	}
	seen := map[string]struct{}{}
	for _, id := range nuevoOrden {
		if _, ok := propios[id]; !ok {
			return fmt.Errorf("%w: lote %s no pertenece al usuario", ErrInvalidInput, id)
		}
		if _, dup := seen[id]; dup {
			return fmt.Errorf("%w: lote %s repetido", ErrInvalidInput, id)
		}
		seen[id] = struct{}{}
	}

	for i, id := range nuevoOrden {
		if err := s.repo.UpdateOrden(ctx, id, i+1); err != nil {
			return err
		}
	}
	return nil
}

// Click registra (best-effort) la selección de un lote y devuelve los
// datos mínimos para el toast del cliente.
func (s *Service) Click(ctx context.Context, loteID string) (Lot, error) {
	l, err := s.repo.GetByID(ctx, loteID)
	if err != nil {
		return Lot{}, err
	}
	s.log.Info("lote click", map[string]any{
		"lote_id": l.ID,
		"nombre":  l.NombreMiel,
		"orden":   l.OrdenMiel,
	})
	return l, nil
}

// Composicion devuelve la composición serializada "especie:pct,...".
func (s *Service) Composicion(ctx context.Context, loteID string) (string, error) {
	l, err := s.repo.GetByID(ctx, loteID)
	if err != nil {
		return "", err
	}
	return EncodeComposicion(l.Composicion), nil
}

func (s *Service) owned(ctx context.Context, loteID, usuarioID string) (Lot, error) {
	current, err := s.repo.GetByID(ctx, strings.TrimSpace(loteID))
	if err != nil {
		return Lot{}, err
	}
	if current.UsuarioID != strings.TrimSpace(usuarioID) {
		return Lot{}, ErrForbidden
	}
	return current, nil
}

func (s *Service) validate(nombre, temporada string, anio int, kg float64, comp map[string]float64) error {
	if len(strings.TrimSpace(nombre)) < 2 {
		return fmt.Errorf("%w: el nombre de la miel debe tener al menos 2 caracteres", ErrInvalidInput)
	}
	if !Temporada(temporada).Valid() {
		return fmt.Errorf("%w: debe seleccionar una temporada válida", ErrInvalidInput)
	}
	if anio < 2000 || anio > 2100 {
		return fmt.Errorf("%w: debe seleccionar un año válido", ErrInvalidInput)
	}
	if kg < 0 {
		return fmt.Errorf("%w: los kilos producidos deben ser mayores o iguales a 0", ErrInvalidInput)
	}

	total := 0.0
	for especie, pct := range comp {
		if strings.TrimSpace(especie) == "" {
			return fmt.Errorf("%w: especie vacía en composición", ErrInvalidInput)
		}
		if pct < 0 || pct > 100 {
			return fmt.Errorf("%w: porcentaje fuera de rango para %s", ErrInvalidInput, especie)
		}
		total += pct
	}
	if s.cfg.StrictComposition && total > 100 {
		return fmt.Errorf("%w: la suma de porcentajes de polen no puede exceder 100%%", ErrInvalidInput)
	}
	return nil
}

func cloneComposicion(in map[string]float64) map[string]float64 {
	if in == nil {
		return nil
	}
	out := make(map[string]float64, len(in))
	for k, v := range in {
		out[strings.TrimSpace(k)] = v
	}
	return out
}
