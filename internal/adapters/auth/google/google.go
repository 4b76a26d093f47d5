// Package google expone el flujo OAuth directo con Google vía goth,
// como alternativa al handshake mediado por el proveedor de identidad.
package google

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/sessions"
	"github.com/markbates/goth"
	"github.com/markbates/goth/gothic"
	"github.com/markbates/goth/providers/google"
)

var ErrNotConfigured = errors.New("google oauth not configured")

// Config de OAuth directo. Key/Secret vienen de GOOGLE_KEY / GOOGLE_SECRET.
type Config struct {
	Key           string
	Secret        string
	CallbackURL   string
	SessionSecret string
}

// User es la identidad mínima que nos interesa del proveedor.
type User struct {
	ID    string
	Email string
	Name  string
}

// OnUser se invoca en el callback con la identidad verificada,
// típicamente para espejar la fila de contacto.
type OnUser func(r *http.Request, u User) error

// Configure registra el provider de Google en goth y el cookie store de gothic.
func Configure(cfg Config) error {
	if strings.TrimSpace(cfg.Key) == "" || strings.TrimSpace(cfg.Secret) == "" {
		return ErrNotConfigured
	}

	secret := cfg.SessionSecret
	if secret == "" {
		secret = cfg.Secret // fallback razonable para dev
	}
	gothic.Store = sessions.NewCookieStore([]byte(secret))

	goth.UseProviders(
		google.New(cfg.Key, cfg.Secret, cfg.CallbackURL, "email", "profile"),
	)
	return nil
}

// BeginHandler inicia el flujo OAuth (redirect 307 a Google).
func BeginHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		gothic.BeginAuthHandler(w, withProvider(r))
	}
}

// CallbackHandler completa el flujo y devuelve la identidad como JSON.
func CallbackHandler(onUser OnUser) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		gothUser, err := gothic.CompleteUserAuth(w, withProvider(r))
		if err != nil {
			writeJSON(w, http.StatusUnauthorized, map[string]any{
				"success": false,
				"error":   "autenticación OAuth fallida",
			})
			return
		}

		u := User{
			ID:    gothUser.UserID,
			Email: gothUser.Email,
			Name:  strings.TrimSpace(gothUser.Name),
		}
		if u.Name == "" {
			u.Name = u.Email
		}

		if onUser != nil {
			if err := onUser(r, u); err != nil {
				writeJSON(w, http.StatusInternalServerError, map[string]any{
					"success": false,
					"error":   "no se pudo registrar la identidad",
				})
				return
			}
		}

		writeJSON(w, http.StatusOK, map[string]any{
			"success": true,
			"user": map[string]string{
				"id":     u.ID,
				"email":  u.Email,
				"nombre": u.Name,
			},
		})
	}
}

// withProvider propaga el {provider} de chi al contexto que gothic espera.
func withProvider(r *http.Request) *http.Request {
	provider := chi.URLParam(r, "provider")
	if provider == "" {
		provider = "google"
	}
	return gothic.GetContextWithProvider(r, provider)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
