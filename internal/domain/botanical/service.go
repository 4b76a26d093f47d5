package botanical

import (
	"errors"
	"sort"
	"strings"
)

var (
	ErrEmptyComuna   = errors.New("comuna required")
	ErrUnknownComuna = errors.New("comuna not registered")
)

type Service struct {
	table *Table
}

func NewService(table *Table) *Service {
	return &Service{table: table}
}

// Comunas devuelve todas las comunas con datos de referencia.
func (s *Service) Comunas() []string {
	return s.table.Comunas()
}

// ClassesFor arma las tarjetas de clases botánicas para una comuna,
// ordenadas por prioridad de categoría (empates en orden de archivo).
func (s *Service) ClassesFor(comuna string) ([]Class, error) {
	comuna = strings.TrimSpace(comuna)
	if comuna == "" {
		return nil, ErrEmptyComuna
	}

	entry, ok := s.table.byComuna[comuna]
	if !ok {
		return nil, ErrUnknownComuna
	}

	out := make([]Class, 0, len(entry.clases))
	for _, clase := range entry.clases {
		meta := metaFor(clase)
		especies := entry.especies[clase]

		out = append(out, Class{
			Clase:       clase,
			Titulo:      meta.Titulo,
			Icono:       meta.Icono,
			Color:       meta.Color,
			Descripcion: meta.Descripcion,
			Categoria:   meta.Categoria,
			Altura:      meta.Altura,
			Especies:    append([]string(nil), especies...),
			Cantidad:    len(especies),
		})
	}

	sort.SliceStable(out, func(i, j int) bool {
		return priorityFor(out[i].Categoria) < priorityFor(out[j].Categoria)
	})

	return out, nil
}

// EspeciesFor aplana todas las especies de una comuna sin duplicados,
// conservando orden. Lo usa el formulario de lotes para sugerir especies.
func (s *Service) EspeciesFor(comuna string) ([]string, error) {
	classes, err := s.ClassesFor(comuna)
	if err != nil {
		return nil, err
	}

	seen := map[string]struct{}{}
	out := make([]string, 0)
	for _, c := range classes {
		for _, e := range c.Especies {
			if _, ok := seen[e]; ok {
				continue
			}
			seen[e] = struct{}{}
			out = append(out, e)
		}
	}
	return out, nil
}
