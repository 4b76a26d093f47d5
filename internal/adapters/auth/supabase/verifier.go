package supabase

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/golang-jwt/jwt/v5"

	"meliapp/internal/ports/auth"
)

var (
	ErrTokenEmpty = errors.New("token is empty")
)

// Verifier implementa auth.AuthVerifier contra Supabase.
// Prefiere verificación local con el JWT secret (sin viaje de red);
// si no hay secret, cae al endpoint /auth/v1/user.
type Verifier struct {
	client    *Client
	jwtSecret string
}

func NewVerifier(client *Client, jwtSecret string) *Verifier {
	return &Verifier{
		client:    client,
		jwtSecret: strings.TrimSpace(jwtSecret),
	}
}

func (v *Verifier) Verify(ctx context.Context, token string) (auth.Claims, error) {
	if v == nil || v.client == nil {
		return auth.Claims{}, ErrNotConfigured
	}
	token = strings.TrimSpace(token)
	if token == "" {
		return auth.Claims{}, ErrTokenEmpty
	}

	if v.jwtSecret != "" {
		if claims, err := v.verifyLocal(token); err == nil {
			return claims, nil
		}
		// Firma inválida o token de otro tenant: probamos contra el proveedor
		// igual, por si el secret configurado quedó viejo tras una rotación.
	}

	claims, err := v.client.User(ctx, token)
	if err != nil {
		return auth.Claims{}, fmt.Errorf("supabase verify failed: %w", err)
	}
	return claims, nil
}

func (v *Verifier) verifyLocal(token string) (auth.Claims, error) {
	mc := jwt.MapClaims{}

	parsed, err := jwt.ParseWithClaims(token, mc, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return []byte(v.jwtSecret), nil
	})
	if err != nil {
		return auth.Claims{}, fmt.Errorf("jwt parse: %w", err)
	}
	if !parsed.Valid {
		return auth.Claims{}, errors.New("jwt invalid")
	}

	claims := auth.Claims{
		UserID: stringClaim(mc, "sub"),
		Email:  stringClaim(mc, "email"),
		Role:   stringClaim(mc, "role"),
	}
	if claims.UserID == "" {
		return auth.Claims{}, errors.New("jwt missing sub")
	}
	return claims, nil
}

func stringClaim(mc jwt.MapClaims, key string) string {
	if v, ok := mc[key].(string); ok {
		return strings.TrimSpace(v)
	}
	return ""
}
