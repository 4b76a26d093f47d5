package supabase

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"meliapp/internal/ports/auth"
)

func newGoTrueServer(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	ts := httptest.NewServer(handler)
	t.Cleanup(ts.Close)
	return NewClient(Config{URL: ts.URL, AnonKey: "anon-key"})
}

func TestSignInWithPassword(t *testing.T) {
	var gotAPIKey, gotUA string
	c := newGoTrueServer(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/auth/v1/token" || r.URL.Query().Get("grant_type") != "password" {
			t.Errorf("request inesperado: %s %s", r.Method, r.URL)
		}
		gotAPIKey = r.Header.Get("apikey")
		gotUA = r.Header.Get("User-Agent")

		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"access_token":  "at-123",
			"refresh_token": "rt-456",
			"expires_in":    3600,
			"user": map[string]any{
				"id":    "user-1",
				"email": "maria@miel.cl",
				"user_metadata": map[string]any{
					"nombre": "Maria",
				},
			},
		})
	})

	sess, err := c.SignInWithPassword(context.Background(), "maria@miel.cl", "secret")
	if err != nil {
		t.Fatalf("signin: %v", err)
	}
	if gotAPIKey != "anon-key" {
		t.Fatalf("apikey = %q", gotAPIKey)
	}
	if gotUA != "meliapp/1.0" {
		t.Fatalf("user-agent = %q", gotUA)
	}
	if sess.UserID != "user-1" || sess.AccessToken != "at-123" || sess.ExpiresIn != 3600 {
		t.Fatalf("session = %+v", sess)
	}
	if sess.Metadata["nombre"] != "Maria" {
		t.Fatalf("metadata = %v", sess.Metadata)
	}
}

func TestSignIn_CredencialesInvalidas(t *testing.T) {
	c := newGoTrueServer(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error":"invalid_grant"}`, http.StatusBadRequest)
	})

	_, err := c.SignInWithPassword(context.Background(), "x@y.cl", "mala")
	if !errors.Is(err, auth.ErrInvalidCredentials) {
		t.Fatalf("err = %v, want ErrInvalidCredentials", err)
	}
}

func TestSignIn_ProveedorCaido(t *testing.T) {
	c := newGoTrueServer(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusBadGateway)
	})

	_, err := c.SignInWithPassword(context.Background(), "x@y.cl", "secret")
	if !errors.Is(err, auth.ErrUnavailable) {
		t.Fatalf("err = %v, want ErrUnavailable", err)
	}
}

func TestSignUp_UserANivelRaiz(t *testing.T) {
	// Con confirmación de email pendiente GoTrue devuelve el user a nivel raíz
	// y sin access token.
	c := newGoTrueServer(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/auth/v1/signup" {
			t.Errorf("path = %s", r.URL.Path)
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"id":    "user-2",
			"email": "pedro@miel.cl",
		})
	})

	sess, err := c.SignUp(context.Background(), "pedro@miel.cl", "secret", nil)
	if err != nil {
		t.Fatalf("signup: %v", err)
	}
	if sess.UserID != "user-2" || sess.Email != "pedro@miel.cl" {
		t.Fatalf("session = %+v", sess)
	}
}

func TestConfirm(t *testing.T) {
	var gotBody map[string]string
	c := newGoTrueServer(t, func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/auth/v1/verify" {
			t.Errorf("request inesperado: %s %s", r.Method, r.URL.Path)
		}
		_ = json.NewDecoder(r.Body).Decode(&gotBody)

		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"access_token": "at-789",
			"user": map[string]any{
				"id":    "user-3",
				"email": "ana@miel.cl",
			},
		})
	})

	sess, err := c.Confirm(context.Background(), "hash-123", "")
	if err != nil {
		t.Fatalf("confirm: %v", err)
	}
	// El type por defecto es "email"
	if gotBody["token_hash"] != "hash-123" || gotBody["type"] != "email" {
		t.Fatalf("body = %v", gotBody)
	}
	if sess.UserID != "user-3" || sess.AccessToken != "at-789" {
		t.Fatalf("session = %+v", sess)
	}

	if _, err := c.Confirm(context.Background(), "", "email"); !errors.Is(err, auth.ErrInvalidCredentials) {
		t.Fatalf("token vacío: err = %v", err)
	}
}

func TestResendConfirmation(t *testing.T) {
	var gotBody map[string]string
	c := newGoTrueServer(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/auth/v1/resend" {
			t.Errorf("path = %s", r.URL.Path)
		}
		_ = json.NewDecoder(r.Body).Decode(&gotBody)
		w.WriteHeader(http.StatusOK)
	})

	if err := c.ResendConfirmation(context.Background(), "ana@miel.cl"); err != nil {
		t.Fatalf("resend: %v", err)
	}
	if gotBody["email"] != "ana@miel.cl" || gotBody["type"] != "signup" {
		t.Fatalf("body = %v", gotBody)
	}
}

func TestAuthorizeURL(t *testing.T) {
	c := NewClient(Config{URL: "https://proj.supabase.co", AnonKey: "k"})

	got, err := c.AuthorizeURL("google", "https://app.example/callback")
	if err != nil {
		t.Fatalf("authorize: %v", err)
	}
	want := "https://proj.supabase.co/auth/v1/authorize?provider=google&redirect_to=https%3A%2F%2Fapp.example%2Fcallback"
	if got != want {
		t.Fatalf("url = %q, want %q", got, want)
	}
}

func TestClient_SinConfigurar(t *testing.T) {
	c := NewClient(Config{})
	if _, err := c.SignInWithPassword(context.Background(), "a@b.cl", "x"); !errors.Is(err, ErrNotConfigured) {
		t.Fatalf("err = %v, want ErrNotConfigured", err)
	}
}

func TestVerifier_LocalJWT(t *testing.T) {
	secret := "super-secret"

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub":   "user-1",
		"email": "maria@miel.cl",
		"role":  "authenticated",
		"exp":   time.Now().Add(time.Hour).Unix(),
	})
	signed, err := token.SignedString([]byte(secret))
	if err != nil {
		t.Fatalf("sign: %v", err)
	}

	// El server no debería recibir ningún request: verificación local.
	c := newGoTrueServer(t, func(w http.ResponseWriter, r *http.Request) {
		t.Errorf("request inesperado a %s", r.URL.Path)
	})
	v := NewVerifier(c, secret)

	claims, err := v.Verify(context.Background(), signed)
	if err != nil {
		t.Fatalf("verify: %v", err)
	}
	if claims.UserID != "user-1" || claims.Email != "maria@miel.cl" || claims.Role != "authenticated" {
		t.Fatalf("claims = %+v", claims)
	}
}

func TestVerifier_FallbackRemoto(t *testing.T) {
	// Sin secret local, el verifier consulta /auth/v1/user.
	c := newGoTrueServer(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/auth/v1/user" {
			t.Errorf("path = %s", r.URL.Path)
		}
		if r.Header.Get("Authorization") != "Bearer opaque-token" {
			t.Errorf("authorization = %q", r.Header.Get("Authorization"))
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"id":    "user-9",
			"email": "x@y.cl",
			"role":  "authenticated",
		})
	})
	v := NewVerifier(c, "")

	claims, err := v.Verify(context.Background(), "opaque-token")
	if err != nil {
		t.Fatalf("verify: %v", err)
	}
	if claims.UserID != "user-9" {
		t.Fatalf("claims = %+v", claims)
	}
}

func TestVerifier_TokenVacio(t *testing.T) {
	v := NewVerifier(NewClient(Config{URL: "https://proj.supabase.co", AnonKey: "k"}), "s")
	if _, err := v.Verify(context.Background(), "  "); !errors.Is(err, ErrTokenEmpty) {
		t.Fatalf("err = %v, want ErrTokenEmpty", err)
	}
}
