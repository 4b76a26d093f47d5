package lots

import "time"

// Temporada define las temporadas de cosecha válidas.
// @Enum 1, 2, 3, 4
type Temporada string

const (
	TemporadaPrimavera Temporada = "1"
	TemporadaVerano    Temporada = "2"
	TemporadaOtono     Temporada = "3"
	TemporadaInvierno  Temporada = "4"
)

func (t Temporada) Valid() bool {
	switch t {
	case TemporadaPrimavera, TemporadaVerano, TemporadaOtono, TemporadaInvierno:
		return true
	}
	return false
}

// Lot representa un lote de miel de un apicultor.
//
// OrdenMiel es el orden manual de despliegue, único por usuario y denso
// (1..N). Se mantiene al crear (siguiente secuencial), al eliminar
// (se cierra el hueco) y al reordenar (permutación completa).
type Lot struct {
	ID        string
	UsuarioID string

	NombreMiel   string
	Temporada    Temporada
	Anio         int
	KgProducidos float64
	OrdenMiel    int

	// Composicion mapea especie botánica -> porcentaje de polen (0-100).
	// La suma puede ser menor a 100: composición parcial es válida.
	Composicion map[string]float64

	CreatedAt time.Time
	UpdatedAt time.Time
}
