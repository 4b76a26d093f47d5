package carousel

import (
	"context"
	"sync"

	"meliapp/internal/domain/lots"
	"meliapp/internal/platform/httpclient"
	"meliapp/internal/platform/logger"
)

// Especie es una especie de la tabla de referencia, opcionalmente
// anotada con su porcentaje en la composición del lote seleccionado.
type Especie struct {
	Nombre string
	Pct    *float64
}

// Card es una tarjeta de clase botánica lista para renderizar.
type Card struct {
	Clase       string
	Titulo      string
	Icono       string
	Color       string
	Descripcion string
	Categoria   string
	Altura      string
	Especies    []Especie
	Cantidad    int
}

// Chart es la vista de clases botánicas por comuna. Igual que Carousel,
// cada instancia es independiente y cada actualización reemplaza el
// estado completo anterior.
type Chart struct {
	api *httpclient.Client
	log logger.Logger

	mu      sync.Mutex
	comuna  string
	cards   []Card
	message string
}

func NewChart(api *httpclient.Client, log logger.Logger) *Chart {
	if log == nil {
		log = logger.Nop()
	}
	return &Chart{api: api, log: log}
}

type classResponse struct {
	Clase       string   `json:"clase"`
	Titulo      string   `json:"titulo"`
	Icono       string   `json:"icono"`
	Color       string   `json:"color"`
	Descripcion string   `json:"descripcion"`
	Categoria   string   `json:"categoria"`
	Altura      string   `json:"altura"`
	Especies    []string `json:"especies"`
	Cantidad    int      `json:"cantidad"`
}

type classesResponse struct {
	Success bool            `json:"success"`
	Message string          `json:"message"`
	Classes []classResponse `json:"classes"`
}

// SetMunicipality carga las clases botánicas de la comuna dada.
// Comuna vacía no genera ningún request.
func (ch *Chart) SetMunicipality(ctx context.Context, comuna string) error {
	if comuna == "" {
		ch.mu.Lock()
		defer ch.mu.Unlock()
		ch.comuna = ""
		ch.cards = nil
		ch.message = "Comuna no especificada"
		return nil
	}

	var resp classesResponse
	if err := ch.api.DoJSON(ctx, "GET", "/api/botanical-classes/"+comuna, nil, nil, &resp); err != nil {
		// Mantener el estado anterior ante fallas de red.
		ch.log.Warn("clases botánicas no disponibles", map[string]any{"comuna": comuna, "error": err.Error()})
		return err
	}

	ch.mu.Lock()
	defer ch.mu.Unlock()

	ch.comuna = comuna
	if !resp.Success {
		// Comuna desconocida: el servidor manda el mensaje a mostrar.
		ch.cards = nil
		ch.message = resp.Message
		return nil
	}

	// El servidor ya entrega las clases ordenadas por prioridad de categoría.
	cards := make([]Card, 0, len(resp.Classes))
	for _, c := range resp.Classes {
		especies := make([]Especie, 0, len(c.Especies))
		for _, nombre := range c.Especies {
			especies = append(especies, Especie{Nombre: nombre})
		}
		cards = append(cards, Card{
			Clase:       c.Clase,
			Titulo:      c.Titulo,
			Icono:       c.Icono,
			Color:       c.Color,
			Descripcion: c.Descripcion,
			Categoria:   c.Categoria,
			Altura:      c.Altura,
			Especies:    especies,
			Cantidad:    c.Cantidad,
		})
	}
	ch.cards = cards
	ch.message = ""
	return nil
}

// ApplyComposition anota las especies de las tarjetas con los
// porcentajes de la composición dada. Las especies sin match quedan sin
// anotar; las anotaciones anteriores se reemplazan completas.
func (ch *Chart) ApplyComposition(encoded string) {
	comp := lots.ParseComposicion(encoded)

	ch.mu.Lock()
	defer ch.mu.Unlock()

	for i := range ch.cards {
		for j := range ch.cards[i].Especies {
			if pct, ok := comp[ch.cards[i].Especies[j].Nombre]; ok {
				p := pct
				ch.cards[i].Especies[j].Pct = &p
			} else {
				ch.cards[i].Especies[j].Pct = nil
			}
		}
	}
}

// Cards devuelve una copia de las tarjetas actuales.
func (ch *Chart) Cards() []Card {
	ch.mu.Lock()
	defer ch.mu.Unlock()

	out := make([]Card, len(ch.cards))
	copy(out, ch.cards)
	for i := range out {
		especies := make([]Especie, len(out[i].Especies))
		copy(especies, out[i].Especies)
		out[i].Especies = especies
	}
	return out
}

// Message devuelve el mensaje de estado ("Comuna no especificada",
// "Comuna no registrada: X") o vacío si hay datos.
func (ch *Chart) Message() string {
	ch.mu.Lock()
	defer ch.mu.Unlock()
	return ch.message
}

// Comuna devuelve la comuna actualmente cargada.
func (ch *Chart) Comuna() string {
	ch.mu.Lock()
	defer ch.mu.Unlock()
	return ch.comuna
}
