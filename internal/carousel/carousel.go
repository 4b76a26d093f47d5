// Package carousel implementa el flujo de selección de lotes del perfil
// público como cliente de la API HTTP: selección, aviso de click,
// composición polínica y QR del lote.
package carousel

import (
	"context"
	"fmt"
	"strconv"
	"sync"
	"time"

	"meliapp/internal/domain/lots"
	"meliapp/internal/platform/httpclient"
	"meliapp/internal/platform/logger"
)

// State refleja el estado visible del carrusel.
type State int

const (
	StateUnselected State = iota
	StateSelected
	StateQRDisplayed
)

// View es el snapshot que renderiza la UI.
type View struct {
	State       State
	LoteID      string
	LoteNombre  string
	LoteOrden   int
	Composicion map[string]float64
	QRSrc       string
	Toast       string
}

// Carousel mantiene el lote seleccionado de UNA instancia de UI.
// Cada vista crea la suya; no hay estado compartido a nivel paquete.
type Carousel struct {
	api *httpclient.Client
	log logger.Logger

	mu   sync.Mutex
	seq  uint64 // se incrementa en cada selección
	view View

	now func() time.Time
}

func New(api *httpclient.Client, log logger.Logger) *Carousel {
	if log == nil {
		log = logger.Nop()
	}
	return &Carousel{
		api: api,
		log: log,
		now: time.Now,
	}
}

type clickResponse struct {
	Success    bool   `json:"success"`
	LoteNombre string `json:"lote_nombre"`
	LoteOrden  int    `json:"lote_orden"`
}

type composicionResponse struct {
	Success     bool   `json:"success"`
	Composicion string `json:"composicion"`
}

// Select marca un lote como seleccionado y carga sus datos.
//
// Cada llamada toma un número de secuencia; los resultados de red solo
// se aplican si ninguna selección más nueva ocurrió mientras tanto. Así
// dos selecciones rápidas no pueden dejar en pantalla la composición de
// un lote ya deseleccionado aunque su respuesta llegue última.
func (c *Carousel) Select(ctx context.Context, loteID string) error {
	if loteID == "" {
		return fmt.Errorf("lote id requerido")
	}

	c.mu.Lock()
	c.seq++
	seq := c.seq
	c.view = View{
		State:  StateSelected,
		LoteID: loteID,
	}
	c.mu.Unlock()

	// Aviso de click: best-effort, un fallo no corta la selección.
	var click clickResponse
	if err := c.api.DoJSON(ctx, "POST", "/api/lote/click/"+loteID, nil, nil, &click); err != nil {
		c.log.Warn("aviso de click falló", map[string]any{"lote_id": loteID, "error": err.Error()})
	}

	var comp composicionResponse
	compErr := c.api.DoJSON(ctx, "GET", "/api/lote/composicion/"+loteID, nil, nil, &comp)
	if compErr != nil {
		c.log.Warn("composición no disponible", map[string]any{"lote_id": loteID, "error": compErr.Error()})
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	// Llegó tarde: otra selección ya tomó el carrusel.
	if seq != c.seq {
		return nil
	}

	if click.Success {
		c.view.LoteNombre = click.LoteNombre
		c.view.LoteOrden = click.LoteOrden
		c.view.Toast = "Lote: " + click.LoteNombre
	}
	if compErr == nil && comp.Success {
		c.view.Composicion = lots.ParseComposicion(comp.Composicion)
	}

	c.view.QRSrc = "/api/lote/" + loteID + "/qr"
	c.view.State = StateQRDisplayed
	return nil
}

// Deselect vuelve al estado inicial.
func (c *Carousel) Deselect() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.seq++
	c.view = View{State: StateUnselected}
}

// RegenerateQR agrega un parámetro t= para invalidar el caché de imagen
// del navegador. Devuelve el src nuevo, o vacío si no hay selección.
func (c *Carousel) RegenerateQR() string {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.view.LoteID == "" {
		return ""
	}
	c.view.QRSrc = "/api/lote/" + c.view.LoteID + "/qr?t=" + strconv.FormatInt(c.now().UnixNano(), 10)
	c.view.State = StateQRDisplayed
	return c.view.QRSrc
}

// Snapshot devuelve una copia del estado actual.
func (c *Carousel) Snapshot() View {
	c.mu.Lock()
	defer c.mu.Unlock()

	v := c.view
	if v.Composicion != nil {
		comp := make(map[string]float64, len(v.Composicion))
		for k, pct := range v.Composicion {
			comp[k] = pct
		}
		v.Composicion = comp
	}
	return v
}
