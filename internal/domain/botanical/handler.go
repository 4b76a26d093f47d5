package botanical

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
)

func RegisterRoutes(r chi.Router, svc *Service) {
	r.Get("/api/botanical-classes", listComunasHandler(svc))
	r.Get("/api/botanical-classes/{comuna}", getClassesHandler(svc))
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

func listComunasHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		comunas := svc.Comunas()
		writeJSON(w, http.StatusOK, map[string]any{
			"success":  true,
			"communes": comunas,
			"total":    len(comunas),
		})
	}
}

func getClassesHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		comuna := chi.URLParam(r, "comuna")

		classes, err := svc.ClassesFor(comuna)
		if err != nil {
			switch {
			case errors.Is(err, ErrEmptyComuna):
				writeJSON(w, http.StatusOK, map[string]any{
					"success": false,
					"message": "Comuna no especificada",
				})
			case errors.Is(err, ErrUnknownComuna):
				// El cliente usa available_communes para sugerir correcciones.
				writeJSON(w, http.StatusOK, map[string]any{
					"success":            false,
					"message":            "Comuna no registrada: " + comuna,
					"requested_comuna":   comuna,
					"available_communes": svc.Comunas(),
				})
			default:
				writeJSON(w, http.StatusInternalServerError, map[string]any{
					"success": false,
					"message": "error interno",
				})
			}
			return
		}

		out := make([]classResponse, 0, len(classes))
		for _, c := range classes {
			out = append(out, classResponse{
				Clase:       c.Clase,
				Titulo:      c.Titulo,
				Icono:       c.Icono,
				Color:       c.Color,
				Descripcion: c.Descripcion,
				Categoria:   c.Categoria,
				Altura:      c.Altura,
				Especies:    c.Especies,
				Cantidad:    c.Cantidad,
			})
		}

		writeJSON(w, http.StatusOK, map[string]any{
			"success":       true,
			"classes":       out,
			"comuna":        comuna,
			"total_classes": len(out),
		})
	}
}

// writeJSON está duplicado intencionalmente en handlers de distintos módulos
// para evitar crear paquetes/helpers compartidos demasiado pronto.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
