package carousel

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"meliapp/internal/platform/httpclient"
)

func newAPIClient(t *testing.T, ts *httptest.Server) *httpclient.Client {
	t.Helper()
	c, err := httpclient.NewWithBaseURL(ts.URL, 5*time.Second)
	if err != nil {
		t.Fatalf("client: %v", err)
	}
	return c
}

func writeTestJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(v)
}

// Servidor mínimo que responde click y composición por lote.
func newLotServer(t *testing.T, composiciones map[string]string, nombres map[string]string) *httptest.Server {
	t.Helper()
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch {
		case strings.HasPrefix(r.URL.Path, "/api/lote/click/"):
			id := strings.TrimPrefix(r.URL.Path, "/api/lote/click/")
			writeTestJSON(w, map[string]any{
				"success":     true,
				"lote_nombre": nombres[id],
				"lote_orden":  1,
			})
		case strings.HasPrefix(r.URL.Path, "/api/lote/composicion/"):
			id := strings.TrimPrefix(r.URL.Path, "/api/lote/composicion/")
			writeTestJSON(w, map[string]any{
				"success":     true,
				"composicion": composiciones[id],
			})
		default:
			http.NotFound(w, r)
		}
	}))
	t.Cleanup(ts.Close)
	return ts
}

func TestSelect_ToastYQR(t *testing.T) {
	ts := newLotServer(t,
		map[string]string{"42": "Quillay:60,Ulmo:40"},
		map[string]string{"42": "Lote Primavera"},
	)

	c := New(newAPIClient(t, ts), nil)
	if err := c.Select(context.Background(), "42"); err != nil {
		t.Fatalf("select: %v", err)
	}

	v := c.Snapshot()
	if v.State != StateQRDisplayed {
		t.Fatalf("state = %v, want StateQRDisplayed", v.State)
	}
	if v.Toast != "Lote: Lote Primavera" {
		t.Fatalf("toast = %q", v.Toast)
	}
	if v.QRSrc != "/api/lote/42/qr" {
		t.Fatalf("qr src = %q", v.QRSrc)
	}
	if v.Composicion["Quillay"] != 60 || v.Composicion["Ulmo"] != 40 {
		t.Fatalf("composicion = %v", v.Composicion)
	}
}

func TestSelect_ClickFallidoNoCorta(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if strings.HasPrefix(r.URL.Path, "/api/lote/click/") {
			http.Error(w, "boom", http.StatusInternalServerError)
			return
		}
		writeTestJSON(w, map[string]any{"success": true, "composicion": "Quillay:100"})
	}))
	t.Cleanup(ts.Close)

	c := New(newAPIClient(t, ts), nil)
	if err := c.Select(context.Background(), "7"); err != nil {
		t.Fatalf("select: %v", err)
	}

	v := c.Snapshot()
	if v.State != StateQRDisplayed {
		t.Fatalf("state = %v", v.State)
	}
	if v.Composicion["Quillay"] != 100 {
		t.Fatalf("composicion = %v", v.Composicion)
	}
	if v.Toast != "" {
		t.Fatalf("toast = %q, want vacío cuando el click falla", v.Toast)
	}
}

// Regresión: seleccionar X y luego Y, con la respuesta de X llegando
// última, debe dejar en pantalla la composición de Y.
func TestSelect_RespuestaTardiaDescartada(t *testing.T) {
	xStarted := make(chan struct{})
	xRelease := make(chan struct{})

	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch {
		case strings.HasPrefix(r.URL.Path, "/api/lote/click/"):
			writeTestJSON(w, map[string]any{"success": true, "lote_nombre": "n", "lote_orden": 1})
		case r.URL.Path == "/api/lote/composicion/X":
			close(xStarted)
			<-xRelease // X responde recién cuando Y ya terminó
			writeTestJSON(w, map[string]any{"success": true, "composicion": "Quillay:100"})
		case r.URL.Path == "/api/lote/composicion/Y":
			writeTestJSON(w, map[string]any{"success": true, "composicion": "Ulmo:100"})
		default:
			http.NotFound(w, r)
		}
	}))
	t.Cleanup(ts.Close)

	c := New(newAPIClient(t, ts), nil)

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		_ = c.Select(context.Background(), "X")
	}()

	<-xStarted
	if err := c.Select(context.Background(), "Y"); err != nil {
		t.Fatalf("select Y: %v", err)
	}

	close(xRelease)
	wg.Wait()

	v := c.Snapshot()
	if v.LoteID != "Y" {
		t.Fatalf("lote = %q, want Y", v.LoteID)
	}
	if _, tieneX := v.Composicion["Quillay"]; tieneX {
		t.Fatalf("la composición de X pisó la de Y: %v", v.Composicion)
	}
	if v.Composicion["Ulmo"] != 100 {
		t.Fatalf("composicion = %v, want la de Y", v.Composicion)
	}
	if v.QRSrc != "/api/lote/Y/qr" {
		t.Fatalf("qr src = %q", v.QRSrc)
	}
}

func TestRegenerateQR_CacheBust(t *testing.T) {
	ts := newLotServer(t,
		map[string]string{"42": ""},
		map[string]string{"42": "Lote"},
	)

	c := New(newAPIClient(t, ts), nil)
	fixed := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	c.now = func() time.Time { return fixed }

	// Sin selección no hay QR que regenerar
	if src := c.RegenerateQR(); src != "" {
		t.Fatalf("src sin selección = %q", src)
	}

	if err := c.Select(context.Background(), "42"); err != nil {
		t.Fatalf("select: %v", err)
	}

	src := c.RegenerateQR()
	if !strings.HasPrefix(src, "/api/lote/42/qr?t=") {
		t.Fatalf("src = %q", src)
	}
	if c.Snapshot().QRSrc != src {
		t.Fatalf("snapshot no refleja el src regenerado")
	}
}

func TestDeselect(t *testing.T) {
	ts := newLotServer(t,
		map[string]string{"42": "Quillay:100"},
		map[string]string{"42": "Lote"},
	)

	c := New(newAPIClient(t, ts), nil)
	if err := c.Select(context.Background(), "42"); err != nil {
		t.Fatalf("select: %v", err)
	}

	c.Deselect()
	v := c.Snapshot()
	if v.State != StateUnselected || v.LoteID != "" || v.QRSrc != "" {
		t.Fatalf("view tras deselect = %+v", v)
	}
}
