package auth

import (
	"context"
	"errors"
)

var (
	// ErrInvalidCredentials cubre email/password rechazados por el proveedor.
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrUnavailable cubre fallas de red/upstream del proveedor.
	ErrUnavailable = errors.New("identity provider unavailable")
)

// IdentityProvider abstrae el servicio de identidad hosteado.
// La verificación de credenciales, tokens de reset y el handshake OAuth
// viven en el proveedor; esta aplicación nunca almacena passwords.
type IdentityProvider interface {
	SignUp(ctx context.Context, email, password string, metadata map[string]any) (Session, error)
	SignInWithPassword(ctx context.Context, email, password string) (Session, error)
	SignOut(ctx context.Context, accessToken string) error

	// Confirm consume el token_hash del link de confirmación de email
	// y devuelve la sesión del usuario confirmado.
	Confirm(ctx context.Context, tokenHash, verifyType string) (Session, error)
	// ResendConfirmation reenvía el mail de confirmación de signup.
	ResendConfirmation(ctx context.Context, email string) error

	// Recover dispara el mail de recuperación de contraseña.
	Recover(ctx context.Context, email string) error
	// UpdatePassword cambia la contraseña del usuario dueño del token.
	UpdatePassword(ctx context.Context, accessToken, newPassword string) error

	// AuthorizeURL devuelve la URL de autorización OAuth del proveedor externo.
	AuthorizeURL(provider, redirectTo string) (string, error)
	// ExchangeCode intercambia el code del callback OAuth por una sesión.
	ExchangeCode(ctx context.Context, code string) (Session, error)
}
