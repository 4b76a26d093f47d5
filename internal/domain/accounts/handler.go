package accounts

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"meliapp/internal/middleware"
	"meliapp/internal/ports/auth"
)

func RegisterRoutes(r chi.Router, svc *Service) {
	r.Route("/api/auth", func(r chi.Router) {
		r.Post("/register", registerHandler(svc))
		r.Post("/login", loginHandler(svc))
		r.Post("/logout", logoutHandler(svc))
		r.Get("/session", sessionHandler())
		r.Get("/confirm", confirmHandler(svc))
		r.Post("/confirm", confirmHandler(svc))
		r.Post("/resend-confirmation", resendConfirmationHandler(svc))
		r.Post("/forgot-password", forgotPasswordHandler(svc))
		r.Post("/reset-password", resetPasswordHandler(svc))
		r.Post("/change-password", changePasswordHandler(svc))
		r.Get("/google", googleHandler(svc))
		r.Get("/google/callback", googleCallbackHandler(svc))
	})
}

type registerRequest struct {
	Email         string `json:"email"`
	Password      string `json:"password"`
	Nombre        string `json:"nombre"`
	NombreEmpresa string `json:"nombre_empresa"`
}

func registerHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req registerRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid json")
			return
		}

		sess, err := svc.Register(r.Context(), RegisterInput{
			Email:         req.Email,
			Password:      req.Password,
			Nombre:        req.Nombre,
			NombreEmpresa: req.NombreEmpresa,
		})
		if err != nil {
			status, msg := mapError(err)
			writeError(w, status, msg)
			return
		}

		writeJSON(w, http.StatusCreated, map[string]any{
			"success": true,
			"session": toSessionResponse(sess),
		})
	}
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func loginHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req loginRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid json")
			return
		}

		sess, nombre, err := svc.Login(r.Context(), req.Email, req.Password)
		if err != nil {
			status, msg := mapError(err)
			writeError(w, status, msg)
			return
		}

		writeJSON(w, http.StatusOK, map[string]any{
			"success": true,
			"nombre":  nombre,
			"session": toSessionResponse(sess),
		})
	}
}

func logoutHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		token, _ := middleware.GetToken(r.Context())
		if err := svc.Logout(r.Context(), token); err != nil {
			// El token puede estar ya vencido; el logout local sigue valiendo.
			writeJSON(w, http.StatusOK, map[string]any{"success": true})
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"success": true})
	}
}

// sessionHandler reporta el estado de la sesión según los claims del
// middleware; no hay estado de sesión del lado del servidor.
func sessionHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims, ok := middleware.GetClaims(r.Context())
		if !ok || strings.TrimSpace(claims.UserID) == "" {
			writeJSON(w, http.StatusOK, map[string]any{
				"success":       true,
				"authenticated": false,
			})
			return
		}

		writeJSON(w, http.StatusOK, map[string]any{
			"success":       true,
			"authenticated": true,
			"user": map[string]any{
				"id":    claims.UserID,
				"email": claims.Email,
				"role":  claims.Role,
			},
		})
	}
}

type confirmRequest struct {
	TokenHash string `json:"token_hash"`
	Type      string `json:"type"`
}

// confirmHandler acepta GET (link del mail, query params) y POST (JSON).
func confirmHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req confirmRequest
		if r.Method == http.MethodGet {
			req.TokenHash = r.URL.Query().Get("token_hash")
			req.Type = r.URL.Query().Get("type")
		} else {
			if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
				writeError(w, http.StatusBadRequest, "invalid json")
				return
			}
		}

		sess, nombre, err := svc.Confirm(r.Context(), req.TokenHash, req.Type)
		if err != nil {
			status, msg := mapError(err)
			writeError(w, status, msg)
			return
		}

		writeJSON(w, http.StatusOK, map[string]any{
			"success": true,
			"message": "Email confirmado",
			"nombre":  nombre,
			"session": toSessionResponse(sess),
		})
	}
}

type resendConfirmationRequest struct {
	Email string `json:"email"`
}

func resendConfirmationHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req resendConfirmationRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid json")
			return
		}

		// Respuesta constante, exista o no el email.
		if err := svc.ResendConfirmation(r.Context(), req.Email); err != nil {
			status, msg := mapError(err)
			writeError(w, status, msg)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{
			"success": true,
			"message": "Si el email está registrado, recibirás un nuevo correo de confirmación",
		})
	}
}

type forgotPasswordRequest struct {
	Email string `json:"email"`
}

func forgotPasswordHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req forgotPasswordRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid json")
			return
		}

		// Respuesta constante, exista o no el email.
		svc.ForgotPassword(r.Context(), req.Email)
		writeJSON(w, http.StatusOK, map[string]any{
			"success": true,
			"message": "Si el email está registrado, recibirás un enlace de recuperación",
		})
	}
}

type resetPasswordRequest struct {
	AccessToken string `json:"access_token"`
	Password    string `json:"password"`
}

func resetPasswordHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req resetPasswordRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid json")
			return
		}

		if err := svc.ResetPassword(r.Context(), req.AccessToken, req.Password); err != nil {
			status, msg := mapError(err)
			writeError(w, status, msg)
			return
		}

		writeJSON(w, http.StatusOK, map[string]any{
			"success": true,
			"message": "Contraseña actualizada",
		})
	}
}

type changePasswordRequest struct {
	Password string `json:"password"`
}

func changePasswordHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		token, ok := middleware.GetToken(r.Context())
		if !ok || token == "" {
			writeError(w, http.StatusUnauthorized, "unauthorized")
			return
		}

		var req changePasswordRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid json")
			return
		}

		if err := svc.ChangePassword(r.Context(), token, req.Password); err != nil {
			status, msg := mapError(err)
			writeError(w, status, msg)
			return
		}

		writeJSON(w, http.StatusOK, map[string]any{
			"success": true,
			"message": "Contraseña actualizada",
		})
	}
}

func googleHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		url, err := svc.GoogleAuthorizeURL(r.URL.Query().Get("redirect_to"))
		if err != nil {
			writeError(w, http.StatusServiceUnavailable, "proveedor de identidad no disponible")
			return
		}
		http.Redirect(w, r, url, http.StatusFound)
	}
}

func googleCallbackHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sess, nombre, err := svc.GoogleCallback(r.Context(), r.URL.Query().Get("code"))
		if err != nil {
			status, msg := mapError(err)
			writeError(w, status, msg)
			return
		}

		writeJSON(w, http.StatusOK, map[string]any{
			"success": true,
			"nombre":  nombre,
			"session": toSessionResponse(sess),
		})
	}
}

type sessionResponse struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token,omitempty"`
	ExpiresIn    int64  `json:"expires_in,omitempty"`
	UserID       string `json:"user_id"`
	Email        string `json:"email"`
}

func toSessionResponse(sess auth.Session) sessionResponse {
	return sessionResponse{
		AccessToken:  sess.AccessToken,
		RefreshToken: sess.RefreshToken,
		ExpiresIn:    sess.ExpiresIn,
		UserID:       sess.UserID,
		Email:        sess.Email,
	}
}

func mapError(err error) (int, string) {
	switch {
	case errors.Is(err, ErrInvalidInput):
		return http.StatusBadRequest, err.Error()
	case errors.Is(err, auth.ErrInvalidCredentials):
		return http.StatusUnauthorized, "credenciales inválidas"
	case errors.Is(err, auth.ErrUnavailable):
		return http.StatusServiceUnavailable, "proveedor de identidad no disponible"
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
