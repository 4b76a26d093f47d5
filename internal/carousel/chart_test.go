package carousel

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
)

func newChartServer(t *testing.T, hits *int64) *httptest.Server {
	t.Helper()
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt64(hits, 1)

		comuna := strings.TrimPrefix(r.URL.Path, "/api/botanical-classes/")
		if comuna != "Chillán" {
			writeTestJSON(w, map[string]any{
				"success": false,
				"message": "Comuna no registrada: " + comuna,
			})
			return
		}

		writeTestJSON(w, map[string]any{
			"success": true,
			"classes": []map[string]any{
				{
					"clase": "Arbol", "titulo": "Árboles", "icono": "🌳",
					"color": "#22c55e", "categoria": "Leñosa", "altura": "Mayor a 5 metros",
					"especies": []string{"Quillay", "Ulmo"}, "cantidad": 2,
				},
				{
					"clase": "Hierba", "titulo": "Hierbas", "icono": "🌱",
					"color": "#65a30d", "categoria": "Herbácea", "altura": "Menor a 1 metro",
					"especies": []string{"Trébol Blanco"}, "cantidad": 1,
				},
			},
		})
	}))
	t.Cleanup(ts.Close)
	return ts
}

func TestChart_ComunaVaciaSinRequest(t *testing.T) {
	var hits int64
	ts := newChartServer(t, &hits)

	ch := NewChart(newAPIClient(t, ts), nil)
	if err := ch.SetMunicipality(context.Background(), ""); err != nil {
		t.Fatalf("set: %v", err)
	}

	if hits != 0 {
		t.Fatalf("hits = %d, comuna vacía no debe consultar", hits)
	}
	if ch.Message() != "Comuna no especificada" {
		t.Fatalf("message = %q", ch.Message())
	}
	if len(ch.Cards()) != 0 {
		t.Fatalf("cards = %v", ch.Cards())
	}
}

func TestChart_ComunaDesconocida(t *testing.T) {
	var hits int64
	ts := newChartServer(t, &hits)

	ch := NewChart(newAPIClient(t, ts), nil)
	if err := ch.SetMunicipality(context.Background(), "Atlantis"); err != nil {
		t.Fatalf("set: %v", err)
	}

	if ch.Message() != "Comuna no registrada: Atlantis" {
		t.Fatalf("message = %q", ch.Message())
	}
	if len(ch.Cards()) != 0 {
		t.Fatalf("cards = %v", ch.Cards())
	}
}

func TestChart_CargaYReemplazo(t *testing.T) {
	var hits int64
	ts := newChartServer(t, &hits)

	ch := NewChart(newAPIClient(t, ts), nil)
	ctx := context.Background()

	if err := ch.SetMunicipality(ctx, "Chillán"); err != nil {
		t.Fatalf("set: %v", err)
	}
	cards := ch.Cards()
	if len(cards) != 2 {
		t.Fatalf("cards = %d", len(cards))
	}
	if cards[0].Clase != "Arbol" || cards[1].Clase != "Hierba" {
		t.Fatalf("clases = %q,%q", cards[0].Clase, cards[1].Clase)
	}
	if ch.Message() != "" {
		t.Fatalf("message = %q", ch.Message())
	}

	// Repetir la misma comuna da el mismo resultado
	if err := ch.SetMunicipality(ctx, "Chillán"); err != nil {
		t.Fatalf("set (2da vez): %v", err)
	}
	if len(ch.Cards()) != 2 {
		t.Fatalf("cards tras repetir = %d", len(ch.Cards()))
	}

	// Pasar a comuna desconocida reemplaza el estado completo
	if err := ch.SetMunicipality(ctx, "Atlantis"); err != nil {
		t.Fatalf("set Atlantis: %v", err)
	}
	if len(ch.Cards()) != 0 || ch.Message() == "" {
		t.Fatalf("el estado anterior no se reemplazó")
	}
}

func TestChart_ApplyComposition(t *testing.T) {
	var hits int64
	ts := newChartServer(t, &hits)

	ch := NewChart(newAPIClient(t, ts), nil)
	if err := ch.SetMunicipality(context.Background(), "Chillán"); err != nil {
		t.Fatalf("set: %v", err)
	}

	ch.ApplyComposition("Quillay:60,Desconocida:30")

	cards := ch.Cards()
	var quillay, ulmo *Especie
	for i := range cards {
		for j := range cards[i].Especies {
			switch cards[i].Especies[j].Nombre {
			case "Quillay":
				quillay = &cards[i].Especies[j]
			case "Ulmo":
				ulmo = &cards[i].Especies[j]
			}
		}
	}

	if quillay == nil || quillay.Pct == nil || *quillay.Pct != 60 {
		t.Fatalf("Quillay sin anotar: %+v", quillay)
	}
	if ulmo == nil || ulmo.Pct != nil {
		t.Fatalf("Ulmo no debería estar anotado: %+v", ulmo)
	}

	// Una segunda composición reemplaza las anotaciones anteriores
	ch.ApplyComposition("Ulmo:40")
	cards = ch.Cards()
	for _, card := range cards {
		for _, e := range card.Especies {
			switch e.Nombre {
			case "Quillay":
				if e.Pct != nil {
					t.Fatalf("Quillay quedó anotado tras reemplazo")
				}
			case "Ulmo":
				if e.Pct == nil || *e.Pct != 40 {
					t.Fatalf("Ulmo = %+v", e)
				}
			}
		}
	}
}
