package supabase

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"meliapp/internal/platform/httpclient"
	"meliapp/internal/ports/auth"
)

var (
	ErrNotConfigured = errors.New("supabase client not configured")
)

// Config del cliente de auth de Supabase (GoTrue).
// URL y AnonKey normalmente vienen de env vars (SUPABASE_URL, SUPABASE_ANON_KEY).
type Config struct {
	URL     string
	AnonKey string

	// Timeout HTTP para llamadas al proveedor.
	Timeout time.Duration
}

// Client implementa auth.IdentityProvider contra la API REST de GoTrue.
type Client struct {
	baseURL string
	anonKey string
	http    *httpclient.Client
}

var _ auth.IdentityProvider = (*Client)(nil)

func NewClient(cfg Config) *Client {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	return &Client{
		baseURL: strings.TrimRight(strings.TrimSpace(cfg.URL), "/"),
		anonKey: strings.TrimSpace(cfg.AnonKey),
		http:    httpclient.New(timeout),
	}
}

// NewClientWithHTTP permite inyectar el httpclient (tests).
func NewClientWithHTTP(cfg Config, hc *httpclient.Client) *Client {
	c := NewClient(cfg)
	if hc != nil {
		c.http = hc
	}
	return c
}

func (c *Client) IsConfigured() bool {
	return c != nil && c.baseURL != "" && c.anonKey != ""
}

// sessionResponse es la forma que GoTrue devuelve en signup/login/exchange.
type sessionResponse struct {
	AccessToken  string       `json:"access_token"`
	RefreshToken string       `json:"refresh_token"`
	ExpiresIn    int64        `json:"expires_in"`
	User         userResponse `json:"user"`

	// signup con confirmación de email devuelve el user a nivel raíz.
	ID           string         `json:"id"`
	Email        string         `json:"email"`
	UserMetadata map[string]any `json:"user_metadata"`
}

type userResponse struct {
	ID           string         `json:"id"`
	Email        string         `json:"email"`
	Role         string         `json:"role"`
	UserMetadata map[string]any `json:"user_metadata"`
}

func (r sessionResponse) toSession() auth.Session {
	s := auth.Session{
		AccessToken:  r.AccessToken,
		RefreshToken: r.RefreshToken,
		ExpiresIn:    r.ExpiresIn,
		UserID:       r.User.ID,
		Email:        r.User.Email,
		Metadata:     r.User.UserMetadata,
	}
	if s.UserID == "" {
		s.UserID = r.ID
		s.Email = r.Email
		s.Metadata = r.UserMetadata
	}
	return s
}

func (c *Client) SignUp(ctx context.Context, email, password string, metadata map[string]any) (auth.Session, error) {
	if !c.IsConfigured() {
		return auth.Session{}, ErrNotConfigured
	}

	body := map[string]any{
		"email":    email,
		"password": password,
	}
	if len(metadata) > 0 {
		body["data"] = metadata
	}

	var out sessionResponse
	if err := c.http.DoJSON(ctx, "POST", c.baseURL+"/auth/v1/signup", c.headers(""), body, &out); err != nil {
		return auth.Session{}, c.mapError(err)
	}

	sess := out.toSession()
	if strings.TrimSpace(sess.UserID) == "" {
		return auth.Session{}, fmt.Errorf("%w: signup response missing user id", auth.ErrUnavailable)
	}
	return sess, nil
}

func (c *Client) SignInWithPassword(ctx context.Context, email, password string) (auth.Session, error) {
	if !c.IsConfigured() {
		return auth.Session{}, ErrNotConfigured
	}

	body := map[string]string{
		"email":    email,
		"password": password,
	}

	var out sessionResponse
	err := c.http.DoJSON(ctx, "POST", c.baseURL+"/auth/v1/token?grant_type=password", c.headers(""), body, &out)
	if err != nil {
		return auth.Session{}, c.mapError(err)
	}

	sess := out.toSession()
	if strings.TrimSpace(sess.UserID) == "" || sess.AccessToken == "" {
		return auth.Session{}, auth.ErrInvalidCredentials
	}
	return sess, nil
}

func (c *Client) SignOut(ctx context.Context, accessToken string) error {
	if !c.IsConfigured() {
		return ErrNotConfigured
	}
	err := c.http.DoJSON(ctx, "POST", c.baseURL+"/auth/v1/logout", c.headers(accessToken), nil, nil)
	if err != nil {
		return c.mapError(err)
	}
	return nil
}

// User trae los claims del dueño del token vía /auth/v1/user.
func (c *Client) User(ctx context.Context, accessToken string) (auth.Claims, error) {
	if !c.IsConfigured() {
		return auth.Claims{}, ErrNotConfigured
	}

	var out userResponse
	if err := c.http.DoJSON(ctx, "GET", c.baseURL+"/auth/v1/user", c.headers(accessToken), nil, &out); err != nil {
		return auth.Claims{}, c.mapError(err)
	}

	out.ID = strings.TrimSpace(out.ID)
	if out.ID == "" {
		return auth.Claims{}, errors.New("supabase: user response missing id")
	}

	return auth.Claims{
		UserID: out.ID,
		Email:  strings.TrimSpace(out.Email),
		Role:   strings.TrimSpace(out.Role),
	}, nil
}

// Confirm verifica el token_hash del mail de confirmación vía
// /auth/v1/verify. GoTrue responde con la sesión del usuario confirmado.
func (c *Client) Confirm(ctx context.Context, tokenHash, verifyType string) (auth.Session, error) {
	if !c.IsConfigured() {
		return auth.Session{}, ErrNotConfigured
	}
	tokenHash = strings.TrimSpace(tokenHash)
	if tokenHash == "" {
		return auth.Session{}, auth.ErrInvalidCredentials
	}
	if strings.TrimSpace(verifyType) == "" {
		verifyType = "email"
	}

	body := map[string]string{
		"type":       verifyType,
		"token_hash": tokenHash,
	}

	var out sessionResponse
	if err := c.http.DoJSON(ctx, "POST", c.baseURL+"/auth/v1/verify", c.headers(""), body, &out); err != nil {
		return auth.Session{}, c.mapError(err)
	}

	sess := out.toSession()
	if strings.TrimSpace(sess.UserID) == "" {
		return auth.Session{}, auth.ErrInvalidCredentials
	}
	return sess, nil
}

// ResendConfirmation reenvía el mail de confirmación de signup.
func (c *Client) ResendConfirmation(ctx context.Context, email string) error {
	if !c.IsConfigured() {
		return ErrNotConfigured
	}
	body := map[string]string{
		"type":  "signup",
		"email": email,
	}
	if err := c.http.DoJSON(ctx, "POST", c.baseURL+"/auth/v1/resend", c.headers(""), body, nil); err != nil {
		return c.mapError(err)
	}
	return nil
}

func (c *Client) Recover(ctx context.Context, email string) error {
	if !c.IsConfigured() {
		return ErrNotConfigured
	}
	body := map[string]string{"email": email}
	if err := c.http.DoJSON(ctx, "POST", c.baseURL+"/auth/v1/recover", c.headers(""), body, nil); err != nil {
		return c.mapError(err)
	}
	return nil
}

func (c *Client) UpdatePassword(ctx context.Context, accessToken, newPassword string) error {
	if !c.IsConfigured() {
		return ErrNotConfigured
	}
	body := map[string]string{"password": newPassword}
	if err := c.http.DoJSON(ctx, "PUT", c.baseURL+"/auth/v1/user", c.headers(accessToken), body, nil); err != nil {
		return c.mapError(err)
	}
	return nil
}

// AuthorizeURL arma la URL de /auth/v1/authorize para el proveedor OAuth.
// El browser navega ahí; Supabase hace el handshake y vuelve al redirect con un code.
func (c *Client) AuthorizeURL(provider, redirectTo string) (string, error) {
	if !c.IsConfigured() {
		return "", ErrNotConfigured
	}
	provider = strings.TrimSpace(provider)
	if provider == "" {
		return "", errors.New("supabase: provider required")
	}

	q := url.Values{}
	q.Set("provider", provider)
	if strings.TrimSpace(redirectTo) != "" {
		q.Set("redirect_to", redirectTo)
	}
	return c.baseURL + "/auth/v1/authorize?" + q.Encode(), nil
}

func (c *Client) ExchangeCode(ctx context.Context, code string) (auth.Session, error) {
	if !c.IsConfigured() {
		return auth.Session{}, ErrNotConfigured
	}
	code = strings.TrimSpace(code)
	if code == "" {
		return auth.Session{}, auth.ErrInvalidCredentials
	}

	body := map[string]string{"auth_code": code}

	var out sessionResponse
	err := c.http.DoJSON(ctx, "POST", c.baseURL+"/auth/v1/token?grant_type=pkce", c.headers(""), body, &out)
	if err != nil {
		return auth.Session{}, c.mapError(err)
	}

	sess := out.toSession()
	if strings.TrimSpace(sess.UserID) == "" {
		return auth.Session{}, auth.ErrInvalidCredentials
	}
	return sess, nil
}

func (c *Client) headers(accessToken string) map[string]string {
	h := map[string]string{
		"apikey": c.anonKey,
	}
	if strings.TrimSpace(accessToken) != "" {
		h["Authorization"] = "Bearer " + accessToken
	}
	return h
}

// mapError normaliza errores HTTP del proveedor a los sentinelas del port.
func (c *Client) mapError(err error) error {
	var httpErr *httpclient.HTTPError
	if errors.As(err, &httpErr) {
		switch httpErr.StatusCode {
		case 400, 401, 403, 422:
			return fmt.Errorf("%w: %s", auth.ErrInvalidCredentials, httpErr.Body)
		}
		return fmt.Errorf("%w: status=%d", auth.ErrUnavailable, httpErr.StatusCode)
	}
	return fmt.Errorf("%w: %v", auth.ErrUnavailable, err)
}
