package router_test

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"meliapp/internal/platform/logger"
	"meliapp/internal/router"
)

func newServer(t *testing.T) *httptest.Server {
	t.Helper()
	ts := httptest.NewServer(router.NewRouter(router.Options{
		AuthVerifier:      nil, // modo dev: X-Debug-User-ID
		StrictComposition: true,
	}))
	t.Cleanup(ts.Close)
	return ts
}

func doReq(t *testing.T, baseURL, method, path, userID string, payload any) (int, []byte) {
	t.Helper()

	var body io.Reader
	if payload != nil {
		b, err := json.Marshal(payload)
		if err != nil {
			t.Fatalf("marshal: %v", err)
		}
		body = bytes.NewReader(b)
	}

	req, err := http.NewRequest(method, baseURL+path, body)
	if err != nil {
		t.Fatalf("new request: %v", err)
	}
	if userID != "" {
		req.Header.Set("X-Debug-User-ID", userID)
	}
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("do: %v", err)
	}
	defer resp.Body.Close()

	b, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("read body: %v", err)
	}
	return resp.StatusCode, b
}

func decode(t *testing.T, b []byte) map[string]any {
	t.Helper()
	var m map[string]any
	if err := json.Unmarshal(b, &m); err != nil {
		t.Fatalf("unmarshal %s: %v", string(b), err)
	}
	return m
}

func createLote(t *testing.T, baseURL, userID, nombre string) string {
	t.Helper()
	st, body := doReq(t, baseURL, "POST", "/api/lotes", userID, map[string]any{
		"nombre_miel":       nombre,
		"temporada":         "1",
		"anio":              2024,
		"kg_producidos":     10.5,
		"composicion_polen": "Quillay:60,Ulmo:40",
	})
	if st != http.StatusCreated {
		t.Fatalf("create lote: status %d body=%s", st, string(body))
	}
	m := decode(t, body)
	lote := m["lote"].(map[string]any)
	return lote["id"].(string)
}

func TestHTTP_EndToEnd_Lotes(t *testing.T) {
	ts := newServer(t)
	userID := "a1b2c3d4-0000-0000-0000-000000000001"

	// Sin auth no se puede crear
	{
		st, _ := doReq(t, ts.URL, "POST", "/api/lotes", "", map[string]any{
			"nombre_miel": "Miel", "temporada": "1", "anio": 2024,
		})
		if st != http.StatusUnauthorized {
			t.Fatalf("create sin auth: status %d, want 401", st)
		}
	}

	a := createLote(t, ts.URL, userID, "Lote Primavera")
	b := createLote(t, ts.URL, userID, "Lote Verano")
	c := createLote(t, ts.URL, userID, "Lote Otoño")

	// Listado público, ordenado 1..N
	{
		st, body := doReq(t, ts.URL, "GET", "/api/lotes/"+userID, "", nil)
		if st != http.StatusOK {
			t.Fatalf("list: status %d body=%s", st, string(body))
		}
		m := decode(t, body)
		lotes := m["lotes"].([]any)
		if len(lotes) != 3 || m["total"].(float64) != 3 {
			t.Fatalf("lotes = %v", m)
		}
		first := lotes[0].(map[string]any)
		if first["nombre_miel"] != "Lote Primavera" || first["orden_miel"].(float64) != 1 {
			t.Fatalf("primer lote = %v", first)
		}
	}

	// Reorder: c, a, b
	{
		st, body := doReq(t, ts.URL, "POST", "/api/lotes/reorder", userID, map[string]any{
			"orden": []string{c, a, b},
		})
		if st != http.StatusOK {
			t.Fatalf("reorder: status %d body=%s", st, string(body))
		}

		_, listBody := doReq(t, ts.URL, "GET", "/api/lotes/"+userID, "", nil)
		lotes := decode(t, listBody)["lotes"].([]any)
		got := lotes[0].(map[string]any)
		if got["id"] != c {
			t.Fatalf("tras reorder el primero es %v, want %s", got["id"], c)
		}
	}

	// Reorder inválido: lote de otro usuario
	{
		ajeno := createLote(t, ts.URL, "a1b2c3d4-0000-0000-0000-000000000002", "Lote Ajeno")
		st, _ := doReq(t, ts.URL, "POST", "/api/lotes/reorder", userID, map[string]any{
			"orden": []string{c, a, ajeno},
		})
		if st != http.StatusBadRequest {
			t.Fatalf("reorder inválido: status %d, want 400", st)
		}
	}

	// Click devuelve nombre y orden para el toast
	{
		st, body := doReq(t, ts.URL, "POST", "/api/lote/click/"+a, "", nil)
		if st != http.StatusOK {
			t.Fatalf("click: status %d body=%s", st, string(body))
		}
		m := decode(t, body)
		if m["lote_nombre"] != "Lote Primavera" {
			t.Fatalf("click = %v", m)
		}
	}

	// Composición serializada
	{
		st, body := doReq(t, ts.URL, "GET", "/api/lote/composicion/"+a, "", nil)
		if st != http.StatusOK {
			t.Fatalf("composicion: status %d body=%s", st, string(body))
		}
		m := decode(t, body)
		if m["composicion"] != "Quillay:60,Ulmo:40" {
			t.Fatalf("composicion = %v", m["composicion"])
		}
	}

	// QR en PNG
	{
		req, _ := http.NewRequest("GET", ts.URL+"/api/lote/"+a+"/qr", nil)
		resp, err := http.DefaultClient.Do(req)
		if err != nil {
			t.Fatalf("qr: %v", err)
		}
		defer resp.Body.Close()
		if resp.StatusCode != http.StatusOK {
			t.Fatalf("qr: status %d", resp.StatusCode)
		}
		if ct := resp.Header.Get("Content-Type"); ct != "image/png" {
			t.Fatalf("qr content-type = %q", ct)
		}
		png, _ := io.ReadAll(resp.Body)
		if len(png) < 8 || png[1] != 'P' || png[2] != 'N' || png[3] != 'G' {
			t.Fatalf("el body no es un PNG")
		}
	}

	// Delete cierra el hueco de orden
	{
		st, body := doReq(t, ts.URL, "DELETE", "/api/lotes/"+a, userID, nil)
		if st != http.StatusOK {
			t.Fatalf("delete: status %d body=%s", st, string(body))
		}

		_, listBody := doReq(t, ts.URL, "GET", "/api/lotes/"+userID, "", nil)
		lotes := decode(t, listBody)["lotes"].([]any)
		if len(lotes) != 2 {
			t.Fatalf("quedan %d lotes", len(lotes))
		}
		for i, raw := range lotes {
			l := raw.(map[string]any)
			if l["orden_miel"].(float64) != float64(i+1) {
				t.Fatalf("orden en posición %d = %v", i, l["orden_miel"])
			}
		}
	}

	// Otro usuario no puede borrar lo que no es suyo
	{
		st, _ := doReq(t, ts.URL, "DELETE", "/api/lotes/"+b, "a1b2c3d4-0000-0000-0000-000000000002", nil)
		if st != http.StatusForbidden {
			t.Fatalf("delete ajeno: status %d, want 403", st)
		}
	}

	// Composición que excede 100% se rechaza en modo estricto
	{
		st, body := doReq(t, ts.URL, "POST", "/api/lotes", userID, map[string]any{
			"nombre_miel":       "Sobrecargada",
			"temporada":         "2",
			"anio":              2024,
			"composicion_polen": "Quillay:80,Ulmo:30",
		})
		if st != http.StatusBadRequest {
			t.Fatalf("composición >100: status %d body=%s", st, string(body))
		}
	}
}

func TestHTTP_EndToEnd_Perfiles(t *testing.T) {
	ts := newServer(t)
	userID := "deadbeef-0000-0000-0000-000000000001"

	// El contacto se crea vía edición (dev mode, sin registro previo)
	{
		st, body := doReq(t, ts.URL, "POST", "/api/edit/info_contacto", userID, map[string]any{
			"nombre_completo":  "Maria Miel",
			"comuna":           "Chillán",
			"correo_principal": "maria@miel.cl",
		})
		if st != http.StatusOK {
			t.Fatalf("edit contacto: status %d body=%s", st, string(body))
		}
	}

	// Especies por comuna del usuario (para el formulario de lotes)
	{
		st, body := doReq(t, ts.URL, "GET", "/api/usuario-info/"+userID, "", nil)
		if st != http.StatusOK {
			t.Fatalf("usuario-info: status %d body=%s", st, string(body))
		}
		m := decode(t, body)
		if m["comuna"] != "Chillán" {
			t.Fatalf("comuna = %v", m["comuna"])
		}
		if especies := m["especies"].([]any); len(especies) == 0 {
			t.Fatalf("sin especies para Chillán")
		}
	}

	// Sugerencias: menos de 2 caracteres no sugiere nada
	{
		st, body := doReq(t, ts.URL, "GET", "/api/sugerir?q=m", "", nil)
		if st != http.StatusOK {
			t.Fatalf("sugerir: status %d", st)
		}
		if suggestions := decode(t, body)["suggestions"].([]any); len(suggestions) != 0 {
			t.Fatalf("suggestions = %v", suggestions)
		}
	}

	// Sugerencia por nombre de contacto (fallback)
	{
		st, body := doReq(t, ts.URL, "GET", "/api/sugerir?q=Maria", "", nil)
		if st != http.StatusOK {
			t.Fatalf("sugerir: status %d", st)
		}
		suggestions := decode(t, body)["suggestions"].([]any)
		if len(suggestions) != 1 {
			t.Fatalf("suggestions = %v", suggestions)
		}
		s := suggestions[0].(map[string]any)
		if s["nombre"] != "Maria Miel" {
			t.Fatalf("sugerencia = %v", s)
		}
	}

	// Búsqueda multi-tabla
	{
		st, body := doReq(t, ts.URL, "GET", "/api/buscar?q=Miel", "", nil)
		if st != http.StatusOK {
			t.Fatalf("buscar: status %d", st)
		}
		results := decode(t, body)["results"].([]any)
		if len(results) != 1 {
			t.Fatalf("results = %v", results)
		}
	}

	// Sin auth no se puede editar
	{
		st, _ := doReq(t, ts.URL, "POST", "/api/edit/info_contacto", "", map[string]any{
			"comuna": "Pinto",
		})
		if st != http.StatusUnauthorized {
			t.Fatalf("edit sin auth: status %d, want 401", st)
		}
	}
}

// recordLogger captura warnings para aserciones.
type recordLogger struct {
	mu    sync.Mutex
	warns []string
}

func (l *recordLogger) With(map[string]any) logger.Logger { return l }
func (l *recordLogger) Debug(string, map[string]any)      {}
func (l *recordLogger) Info(string, map[string]any)       {}
func (l *recordLogger) Error(string, map[string]any)      {}

func (l *recordLogger) Warn(msg string, _ map[string]any) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.warns = append(l.warns, msg)
}

func (l *recordLogger) warnings() []string {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]string(nil), l.warns...)
}

func TestHTTP_DSNInvalidaCaeAMemoriaConWarning(t *testing.T) {
	t.Setenv("DB_DSN", "://esto-no-es-un-dsn")

	log := &recordLogger{}
	ts := httptest.NewServer(router.NewRouter(router.Options{
		StrictComposition: true,
		Logger:            log,
	}))
	t.Cleanup(ts.Close)

	// El fallback a memoria sigue sirviendo requests
	userID := "cafecafe-0000-0000-0000-000000000001"
	id := createLote(t, ts.URL, userID, "Lote Fallback")
	st, body := doReq(t, ts.URL, "GET", "/api/lotes/"+userID, "", nil)
	if st != http.StatusOK {
		t.Fatalf("list: status %d body=%s", st, string(body))
	}
	lotes := decode(t, body)["lotes"].([]any)
	if len(lotes) != 1 || lotes[0].(map[string]any)["id"] != id {
		t.Fatalf("lotes = %v", lotes)
	}

	// La DSN rota no pasa en silencio
	if len(log.warnings()) == 0 {
		t.Fatal("la DSN inválida no quedó logueada")
	}
}

func TestHTTP_Health(t *testing.T) {
	ts := newServer(t)
	st, body := doReq(t, ts.URL, "GET", "/health", "", nil)
	if st != http.StatusOK || string(body) != "ok" {
		t.Fatalf("health: %d %q", st, string(body))
	}
}
