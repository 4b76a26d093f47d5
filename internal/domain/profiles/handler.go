package profiles

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"meliapp/internal/domain/lots"
	"meliapp/internal/middleware"
	"meliapp/internal/platform/qr"
)

func RegisterRoutes(r chi.Router, svc *Service, publicBaseURL string) {
	publicBaseURL = strings.TrimRight(publicBaseURL, "/")

	// Resolución de QR: segmento corto -> usuario.
	r.Get("/api/usuario/{uuidSegment}", resolveSegmentHandler(svc, publicBaseURL))
	r.Get("/api/usuario/{uuidSegment}/qr", userQRHandler(svc, publicBaseURL))

	// Perfil público agregado y especies por comuna del usuario.
	r.Get("/api/profile/{identifier}", profileHandler(svc))
	r.Get("/api/usuario-info/{usuarioID}", userInfoHandler(svc))

	// Búsqueda y autocompletado.
	r.Get("/api/sugerir", suggestHandler(svc))
	r.Get("/api/buscar", searchHandler(svc))

	// Edición de datos propios.
	r.Post("/api/edit/usuarios", editUserHandler(svc))
	r.Post("/api/edit/info_contacto", editContactHandler(svc))
	r.Post("/api/edit/ubicaciones", editLocationHandler(svc))
}

type userResponse struct {
	AuthUserID  string `json:"auth_user_id"`
	Username    string `json:"username"`
	TipoUsuario string `json:"tipo_usuario"`
	Role        string `json:"role"`
	Status      string `json:"status"`
	Descripcion string `json:"descripcion,omitempty"`
}

type contactResponse struct {
	NombreCompleto    string `json:"nombre_completo"`
	NombreEmpresa     string `json:"nombre_empresa"`
	CorreoPrincipal   string `json:"correo_principal"`
	TelefonoPrincipal string `json:"telefono_principal"`
	Direccion         string `json:"direccion"`
	Comuna            string `json:"comuna"`
	Region            string `json:"region"`
}

type locationResponse struct {
	ID          string `json:"id"`
	Nombre      string `json:"nombre"`
	Descripcion string `json:"descripcion"`
	Comuna      string `json:"comuna"`
	Region      string `json:"region"`
}

type requestResponse struct {
	ID             string    `json:"id"`
	NombreCompleto string    `json:"nombre_completo"`
	NombreEmpresa  string    `json:"nombre_empresa"`
	Region         string    `json:"region"`
	Comuna         string    `json:"comuna"`
	Status         string    `json:"status"`
	CreatedAt      time.Time `json:"created_at"`
}

type lotSummaryResponse struct {
	ID           string  `json:"id"`
	NombreMiel   string  `json:"nombre_miel"`
	OrdenMiel    int     `json:"orden_miel"`
	Temporada    string  `json:"temporada"`
	Anio         int     `json:"anio"`
	KgProducidos float64 `json:"kg_producidos"`
}

func resolveSegmentHandler(svc *Service, publicBaseURL string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		u, err := svc.ResolveSegment(r.Context(), chi.URLParam(r, "uuidSegment"))
		if err != nil {
			status, msg := mapError(err)
			writeError(w, status, msg)
			return
		}

		writeJSON(w, http.StatusOK, map[string]any{
			"success":     true,
			"usuario_id":  u.AuthUserID,
			"username":    u.Username,
			"profile_url": publicBaseURL + "/profile/" + u.AuthUserID,
		})
	}
}

func userQRHandler(svc *Service, publicBaseURL string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		segment := chi.URLParam(r, "uuidSegment")
		u, err := svc.ResolveSegment(r.Context(), segment)
		if err != nil {
			status, msg := mapError(err)
			writeError(w, status, msg)
			return
		}

		content := publicBaseURL + "/profile/" + u.AuthUserID

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
				"success":      true,
				"qr_code":      dataURL,
				"user_id":      u.AuthUserID,
				"uuid_segment": segment,
			})
		default:
			writeError(w, http.StatusBadRequest, "formato no soportado (png, json)")
		}
	}
}

func profileHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		view, err := svc.Profile(r.Context(), chi.URLParam(r, "identifier"))
		if err != nil {
			status, msg := mapError(err)
			writeError(w, status, msg)
			return
		}

		locations := make([]locationResponse, 0, len(view.Locations))
		for _, l := range view.Locations {
			locations = append(locations, locationResponse{
				ID:          l.ID,
				Nombre:      l.Nombre,
				Descripcion: l.Descripcion,
				Comuna:      l.Comuna,
				Region:      l.Region,
			})
		}

		requests := make([]requestResponse, 0, len(view.Requests))
		for _, q := range view.Requests {
			requests = append(requests, requestResponse{
				ID:             q.ID,
				NombreCompleto: q.NombreCompleto,
				NombreEmpresa:  q.NombreEmpresa,
				Region:         q.Region,
				Comuna:         q.Comuna,
				Status:         q.Status,
				CreatedAt:      q.CreatedAt,
			})
		}

		lotes := make([]lotSummaryResponse, 0, len(view.Lots))
		for _, l := range view.Lots {
			lotes = append(lotes, toLotSummary(l))
		}

		writeJSON(w, http.StatusOK, map[string]any{
			"success": true,
			"user":    toUserResponse(view.User),
			"contact_info": contactResponse{
				NombreCompleto:    view.Contact.NombreCompleto,
				NombreEmpresa:     view.Contact.NombreEmpresa,
				CorreoPrincipal:   view.Contact.CorreoPrincipal,
				TelefonoPrincipal: view.Contact.TelefonoPrincipal,
				Direccion:         view.Contact.Direccion,
				Comuna:            view.Contact.Comuna,
				Region:            view.Contact.Region,
			},
			"locations":        locations,
			"lotes":            lotes,
			"requests":         requests,
			"produccion_total": view.ProduccionTotal,
		})
	}
}

func userInfoHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		info, err := svc.EspeciesForUser(r.Context(), chi.URLParam(r, "usuarioID"))
		if err != nil {
			// El cliente del formulario de lotes espera success:false + message,
			// no un error crudo.
			msg := "Usuario no encontrado en sistema"
			if errors.Is(err, ErrInvalidInput) {
				msg = "Usuario no tiene comuna registrada"
			}
			writeJSON(w, http.StatusNotFound, map[string]any{
				"success":  false,
				"message":  msg,
				"especies": []string{},
				"comuna":   info.Comuna,
			})
			return
		}

		writeJSON(w, http.StatusOK, map[string]any{
			"success":        true,
			"usuario_id":     info.UsuarioID,
			"comuna":         info.Comuna,
			"especies":       info.Especies,
			"total_especies": len(info.Especies),
			"message":        "Especies disponibles para " + info.Comuna,
		})
	}
}

func suggestHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		suggestions, err := svc.Suggest(r.Context(), r.URL.Query().Get("q"), 10)
		if err != nil {
			writeError(w, http.StatusInternalServerError, "error al obtener sugerencias")
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{
			"suggestions": suggestions,
		})
	}
}

func searchHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		results, err := svc.Search(r.Context(), r.URL.Query().Get("q"), 10)
		if err != nil {
			writeError(w, http.StatusInternalServerError, "error al buscar")
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{
			"success": true,
			"results": results,
			"total":   len(results),
		})
	}
}

type editUserRequest struct {
	Username    *string `json:"username"`
	Role        *string `json:"role"`
	Descripcion *string `json:"descripcion"`
}

func editUserHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims, ok := middleware.GetClaims(r.Context())
		if !ok || strings.TrimSpace(claims.UserID) == "" {
			writeError(w, http.StatusUnauthorized, "unauthorized")
			return
		}

		var req editUserRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid json")
			return
		}
		if req.Username == nil && req.Role == nil && req.Descripcion == nil {
			writeError(w, http.StatusBadRequest, "no hay campos válidos para actualizar")
			return
		}

		u, err := svc.UpdateUser(r.Context(), claims.UserID, UpdateUserInput{
			Username:    req.Username,
			Role:        req.Role,
			Descripcion: req.Descripcion,
		})
		if err != nil {
			status, msg := mapError(err)
			writeError(w, status, msg)
			return
		}

		writeJSON(w, http.StatusOK, map[string]any{
			"success": true,
			"user":    toUserResponse(u),
		})
	}
}

type editContactRequest struct {
	NombreCompleto    *string `json:"nombre_completo"`
	NombreEmpresa     *string `json:"nombre_empresa"`
	CorreoPrincipal   *string `json:"correo_principal"`
	TelefonoPrincipal *string `json:"telefono_principal"`
	Direccion         *string `json:"direccion"`
	Comuna            *string `json:"comuna"`
	Region            *string `json:"region"`
}

func editContactHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims, ok := middleware.GetClaims(r.Context())
		if !ok || strings.TrimSpace(claims.UserID) == "" {
			writeError(w, http.StatusUnauthorized, "unauthorized")
			return
		}

		var req editContactRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid json")
			return
		}

		c, err := svc.UpdateContact(r.Context(), claims.UserID, UpdateContactInput{
			NombreCompleto:    req.NombreCompleto,
			NombreEmpresa:     req.NombreEmpresa,
			CorreoPrincipal:   req.CorreoPrincipal,
			TelefonoPrincipal: req.TelefonoPrincipal,
			Direccion:         req.Direccion,
			Comuna:            req.Comuna,
			Region:            req.Region,
		})
		if err != nil {
			status, msg := mapError(err)
			writeError(w, status, msg)
			return
		}

		writeJSON(w, http.StatusOK, map[string]any{
			"success": true,
			"contact_info": contactResponse{
				NombreCompleto:    c.NombreCompleto,
				NombreEmpresa:     c.NombreEmpresa,
				CorreoPrincipal:   c.CorreoPrincipal,
				TelefonoPrincipal: c.TelefonoPrincipal,
				Direccion:         c.Direccion,
				Comuna:            c.Comuna,
				Region:            c.Region,
			},
		})
	}
}

type editLocationRequest struct {
	ID          string `json:"id"`
	Nombre      string `json:"nombre"`
	Descripcion string `json:"descripcion"`
	Comuna      string `json:"comuna"`
	Region      string `json:"region"`
}

func editLocationHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims, ok := middleware.GetClaims(r.Context())
		if !ok || strings.TrimSpace(claims.UserID) == "" {
			writeError(w, http.StatusUnauthorized, "unauthorized")
			return
		}

		var req editLocationRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid json")
			return
		}

		l, err := svc.UpsertLocation(r.Context(), claims.UserID, UpsertLocationInput{
			ID:          req.ID,
			Nombre:      req.Nombre,
			Descripcion: req.Descripcion,
			Comuna:      req.Comuna,
			Region:      req.Region,
		})
		if err != nil {
			status, msg := mapError(err)
			writeError(w, status, msg)
			return
		}

		writeJSON(w, http.StatusOK, map[string]any{
			"success": true,
			"location": locationResponse{
				ID:          l.ID,
				Nombre:      l.Nombre,
				Descripcion: l.Descripcion,
				Comuna:      l.Comuna,
				Region:      l.Region,
			},
		})
	}
}

func toUserResponse(u User) userResponse {
	return userResponse{
		AuthUserID:  u.AuthUserID,
		Username:    u.Username,
		TipoUsuario: u.TipoUsuario,
		Role:        string(u.Role),
		Status:      u.Status,
		Descripcion: u.Descripcion,
	}
}

func toLotSummary(l lots.Lot) lotSummaryResponse {
	return lotSummaryResponse{
		ID:           l.ID,
		NombreMiel:   l.NombreMiel,
		OrdenMiel:    l.OrdenMiel,
		Temporada:    string(l.Temporada),
		Anio:         l.Anio,
		KgProducidos: l.KgProducidos,
	}
}

func mapError(err error) (int, string) {
	switch {
	case errors.Is(err, ErrInvalidInput):
		return http.StatusBadRequest, err.Error()
	case errors.Is(err, ErrNotFound):
		return http.StatusNotFound, "Usuario no encontrado"
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
