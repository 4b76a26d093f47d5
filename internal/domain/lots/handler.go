package lots

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"meliapp/internal/middleware"
	"meliapp/internal/platform/qr"
)

func RegisterRoutes(r chi.Router, svc *Service, publicBaseURL string) {
	publicBaseURL = strings.TrimRight(publicBaseURL, "/")

	r.Route("/api/lotes", func(lr chi.Router) {
		// Listado público: el perfil de un apicultor muestra sus lotes.
		lr.Get("/{usuarioID}", listLotesHandler(svc))

		// Mutaciones: solo el dueño autenticado.
		lr.Post("/", createLoteHandler(svc))
		lr.Post("/reorder", reorderLotesHandler(svc))
		lr.Put("/{loteID}", updateLoteHandler(svc))
		lr.Delete("/{loteID}", deleteLoteHandler(svc))
	})

	r.Post("/api/lote/click/{loteID}", clickLoteHandler(svc))
	r.Get("/api/lote/composicion/{loteID}", composicionHandler(svc))
	r.Get("/api/lote/{loteID}/qr", loteQRHandler(svc, publicBaseURL))
}

// La composición viaja en el formato delimitado legado
// "especie:porcentaje,..."; los pares malformados se descartan.
type loteRequest struct {
	NombreMiel   string  `json:"nombre_miel"`
	Temporada    string  `json:"temporada"`
	Anio         int     `json:"anio"`
	KgProducidos float64 `json:"kg_producidos"`
	Composicion  string  `json:"composicion_polen"`
}

type reorderRequest struct {
	Orden []string `json:"orden"`
}

type loteResponse struct {
	ID           string    `json:"id"`
	UsuarioID    string    `json:"usuario_id"`
	NombreMiel   string    `json:"nombre_miel"`
	Temporada    string    `json:"temporada"`
	Anio         int       `json:"anio"`
	KgProducidos float64   `json:"kg_producidos"`
	OrdenMiel    int       `json:"orden_miel"`
	Composicion  string    `json:"composicion_polen,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

func listLotesHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		usuarioID := chi.URLParam(r, "usuarioID")

		items, err := svc.ListByUser(r.Context(), usuarioID)
		if err != nil {
			status, msg := mapError(err)
			writeError(w, status, msg)
			return
		}

		out := make([]loteResponse, 0, len(items))
		for _, l := range items {
			out = append(out, toLoteResponse(l))
		}

		// Envelope único y documentado: siempre {success, lotes, total}.
		writeJSON(w, http.StatusOK, map[string]any{
			"success": true,
			"lotes":   out,
			"total":   len(out),
		})
	}
}

func createLoteHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims, ok := middleware.GetClaims(r.Context())
		if !ok || strings.TrimSpace(claims.UserID) == "" {
			writeError(w, http.StatusUnauthorized, "unauthorized")
			return
		}

		var req loteRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid json")
			return
		}

		l, err := svc.Create(r.Context(), claims.UserID, CreateInput{
			NombreMiel:   req.NombreMiel,
			Temporada:    req.Temporada,
			Anio:         req.Anio,
			KgProducidos: req.KgProducidos,
			Composicion:  ParseComposicion(req.Composicion),
		})
		if err != nil {
			status, msg := mapError(err)
			writeError(w, status, msg)
			return
		}

		writeJSON(w, http.StatusCreated, map[string]any{
			"success": true,
			"lote":    toLoteResponse(l),
			"message": "Lote creado exitosamente con orden #" + strconv.Itoa(l.OrdenMiel),
		})
	}
}

func updateLoteHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims, ok := middleware.GetClaims(r.Context())
		if !ok || strings.TrimSpace(claims.UserID) == "" {
			writeError(w, http.StatusUnauthorized, "unauthorized")
			return
		}

		var req loteRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid json")
			return
		}

		l, err := svc.Update(r.Context(), chi.URLParam(r, "loteID"), claims.UserID, UpdateInput{
			NombreMiel:   req.NombreMiel,
			Temporada:    req.Temporada,
			Anio:         req.Anio,
			KgProducidos: req.KgProducidos,
			Composicion:  ParseComposicion(req.Composicion),
		})
		if err != nil {
			status, msg := mapError(err)
			writeError(w, status, msg)
			return
		}

		writeJSON(w, http.StatusOK, map[string]any{
			"success": true,
			"lote":    toLoteResponse(l),
			"message": "Lote actualizado exitosamente",
		})
	}
}

func deleteLoteHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims, ok := middleware.GetClaims(r.Context())
		if !ok || strings.TrimSpace(claims.UserID) == "" {
			writeError(w, http.StatusUnauthorized, "unauthorized")
			return
		}

		orden, err := svc.Delete(r.Context(), chi.URLParam(r, "loteID"), claims.UserID)
		if err != nil {
			status, msg := mapError(err)
			writeError(w, status, msg)
			return
		}

		writeJSON(w, http.StatusOK, map[string]any{
			"success":         true,
			"message":         "Lote eliminado exitosamente",
			"orden_eliminado": orden,
		})
	}
}

func reorderLotesHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims, ok := middleware.GetClaims(r.Context())
		if !ok || strings.TrimSpace(claims.UserID) == "" {
			writeError(w, http.StatusUnauthorized, "unauthorized")
			return
		}

		var req reorderRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid json")
			return
		}

		if err := svc.Reorder(r.Context(), claims.UserID, req.Orden); err != nil {
			status, msg := mapError(err)
			writeError(w, status, msg)
			return
		}

		writeJSON(w, http.StatusOK, map[string]any{
			"success": true,
			"message": "Lotes reordenados exitosamente",
		})
	}
}

func clickLoteHandler(svc *Service) http.HandlerFunc {
	// Analítica best-effort: el cliente no espera nada más que el toast.
	return func(w http.ResponseWriter, r *http.Request) {
		l, err := svc.Click(r.Context(), chi.URLParam(r, "loteID"))
		if err != nil {
			status, msg := mapError(err)
			writeError(w, status, msg)
			return
		}

		writeJSON(w, http.StatusOK, map[string]any{
			"success":     true,
			"lote_nombre": l.NombreMiel,
			"lote_orden":  l.OrdenMiel,
		})
	}
}

func composicionHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		comp, err := svc.Composicion(r.Context(), chi.URLParam(r, "loteID"))
		if err != nil {
			status, msg := mapError(err)
			writeError(w, status, msg)
			return
		}

		writeJSON(w, http.StatusOK, map[string]any{
			"success":     true,
			"composicion": comp,
		})
	}
}

func loteQRHandler(svc *Service, publicBaseURL string) http.HandlerFunc {
	// El QR apunta al perfil público del dueño con el lote preseleccionado.
	// ?t= es solo cache-busting del cliente y se ignora acá.
	return func(w http.ResponseWriter, r *http.Request) {
		l, err := svc.GetByID(r.Context(), chi.URLParam(r, "loteID"))
		if err != nil {
			status, msg := mapError(err)
			writeError(w, status, msg)
			return
		}

		content := publicBaseURL + "/profile/" + l.UsuarioID + "?lote=" + l.ID

		scale := qr.DefaultScale
		if v := r.URL.Query().Get("scale"); v != "" {
			if n, err := strconv.Atoi(v); err == nil {
				scale = n
			}
		}

		switch strings.ToLower(r.URL.Query().Get("format")) {
		case "", "png":
			png, err := qr.PNG(content, scale)
			if err != nil {
				writeError(w, http.StatusInternalServerError, "no se pudo generar el QR")
				return
			}
			w.Header().Set("Content-Type", "image/png")
			w.WriteHeader(http.StatusOK)
			_, _ = w.Write(png)
		case "json":
			dataURL, err := qr.DataURL(content, scale)
			if err != nil {
				writeError(w, http.StatusInternalServerError, "no se pudo generar el QR")
				return
			}
			writeJSON(w, http.StatusOK, map[string]any{
				"success": true,
				"qr_code": dataURL,
				"lote_id": l.ID,
			})
		default:
			writeError(w, http.StatusBadRequest, "formato no soportado (png, json)")
		}
	}
}

func toLoteResponse(l Lot) loteResponse {
	return loteResponse{
		ID:           l.ID,
		UsuarioID:    l.UsuarioID,
		NombreMiel:   l.NombreMiel,
		Temporada:    string(l.Temporada),
		Anio:         l.Anio,
		KgProducidos: l.KgProducidos,
		OrdenMiel:    l.OrdenMiel,
		Composicion:  EncodeComposicion(l.Composicion),
		CreatedAt:    l.CreatedAt,
		UpdatedAt:    l.UpdatedAt,
	}
}

func mapError(err error) (int, string) {
	switch {
	case errors.Is(err, ErrInvalidInput):
		return http.StatusBadRequest, err.Error()
	case errors.Is(err, ErrForbidden):
		return http.StatusForbidden, "forbidden"
	case errors.Is(err, ErrNotFound):
		return http.StatusNotFound, "Lote no encontrado"
	default:
		return http.StatusInternalServerError, "internal error"
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]any{
		"success": false,
		"error":   msg,
	})
}

// writeJSON está duplicado intencionalmente en handlers de distintos módulos
// para evitar crear paquetes/helpers compartidos demasiado pronto.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
