package accounts

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"

	"meliapp/internal/platform/logger"
	"meliapp/internal/ports/auth"
)

var (
	ErrInvalidInput = errors.New("invalid input")
)

var emailRe = regexp.MustCompile(`^[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}$`)

// ProfileMirror replica los datos de identidad en las tablas de perfil
// locales después de un alta o login externo. Las fallas del espejo
// no deben cortar el flujo de auth.
type ProfileMirror interface {
	EnsureUser(ctx context.Context, authUserID, username string) error
	EnsureContact(ctx context.Context, authUserID, nombreCompleto, nombreEmpresa, correo string) error
}

// ContactNames resuelve el nombre para mostrar de un usuario ya registrado.
type ContactNames interface {
	DisplayName(ctx context.Context, authUserID string) (string, error)
}

type Service struct {
	provider auth.IdentityProvider
	mirror   ProfileMirror
	names    ContactNames
	log      logger.Logger
}

func NewService(provider auth.IdentityProvider, mirror ProfileMirror, names ContactNames, log logger.Logger) *Service {
	if log == nil {
		log = logger.Nop()
	}
	return &Service{provider: provider, mirror: mirror, names: names, log: log}
}

type RegisterInput struct {
	Email         string
	Password      string
	Nombre        string
	NombreEmpresa string
}

// Register da de alta las credenciales en el proveedor de identidad
// y espeja los datos básicos en usuarios/info_contacto.
func (s *Service) Register(ctx context.Context, in RegisterInput) (auth.Session, error) {
	email := strings.TrimSpace(strings.ToLower(in.Email))
	if !emailRe.MatchString(email) {
		return auth.Session{}, fmt.Errorf("%w: formato de email inválido", ErrInvalidInput)
	}
	if len(in.Password) < 6 {
		return auth.Session{}, fmt.Errorf("%w: la contraseña debe tener al menos 6 caracteres", ErrInvalidInput)
	}

	metadata := map[string]any{}
	if n := strings.TrimSpace(in.Nombre); n != "" {
		metadata["nombre"] = n
	}
	if e := strings.TrimSpace(in.NombreEmpresa); e != "" {
		metadata["nombre_empresa"] = e
	}

	sess, err := s.provider.SignUp(ctx, email, in.Password, metadata)
	if err != nil {
		return auth.Session{}, err
	}

	s.mirrorProfile(ctx, sess, strings.TrimSpace(in.Nombre), strings.TrimSpace(in.NombreEmpresa))
	return sess, nil
}

// Login delega la verificación de credenciales al proveedor.
func (s *Service) Login(ctx context.Context, email, password string) (auth.Session, string, error) {
	email = strings.TrimSpace(strings.ToLower(email))
	if email == "" || password == "" {
		return auth.Session{}, "", fmt.Errorf("%w: email y contraseña son requeridos", ErrInvalidInput)
	}

	sess, err := s.provider.SignInWithPassword(ctx, email, password)
	if err != nil {
		return auth.Session{}, "", err
	}

	nombre := s.displayName(ctx, sess)
	return sess, nombre, nil
}

func (s *Service) Logout(ctx context.Context, accessToken string) error {
	if strings.TrimSpace(accessToken) == "" {
		return nil
	}
	return s.provider.SignOut(ctx, accessToken)
}

// Confirm consume el token del link de confirmación de email y espeja
// el perfil: recién aquí el usuario queda operativo en las tablas locales.
func (s *Service) Confirm(ctx context.Context, tokenHash, verifyType string) (auth.Session, string, error) {
	if strings.TrimSpace(tokenHash) == "" {
		return auth.Session{}, "", fmt.Errorf("%w: token de confirmación requerido", ErrInvalidInput)
	}

	sess, err := s.provider.Confirm(ctx, tokenHash, verifyType)
	if err != nil {
		return auth.Session{}, "", err
	}

	s.mirrorProfile(ctx, sess, metadataString(sess.Metadata, "nombre", "full_name", "name"),
		metadataString(sess.Metadata, "nombre_empresa"))
	return sess, s.displayName(ctx, sess), nil
}

// ResendConfirmation reenvía el mail de confirmación. Igual que
// ForgotPassword, el resultado hacia el cliente es constante.
func (s *Service) ResendConfirmation(ctx context.Context, email string) error {
	email = strings.TrimSpace(strings.ToLower(email))
	if email == "" {
		return fmt.Errorf("%w: email es requerido", ErrInvalidInput)
	}
	if err := s.provider.ResendConfirmation(ctx, email); err != nil {
		s.log.Warn("reenvío de confirmación falló", map[string]any{"error": err.Error()})
	}
	return nil
}

// ForgotPassword dispara el mail de recuperación. El resultado hacia el
// cliente es siempre el mismo para no filtrar qué emails existen.
func (s *Service) ForgotPassword(ctx context.Context, email string) {
	email = strings.TrimSpace(strings.ToLower(email))
	if email == "" {
		return
	}
	if err := s.provider.Recover(ctx, email); err != nil {
		s.log.Warn("recover falló", map[string]any{"error": err.Error()})
	}
}

// ResetPassword consume el access token del link de recuperación.
func (s *Service) ResetPassword(ctx context.Context, accessToken, newPassword string) error {
	if strings.TrimSpace(accessToken) == "" {
		return fmt.Errorf("%w: token de recuperación requerido", ErrInvalidInput)
	}
	if len(newPassword) < 6 {
		return fmt.Errorf("%w: la contraseña debe tener al menos 6 caracteres", ErrInvalidInput)
	}
	return s.provider.UpdatePassword(ctx, accessToken, newPassword)
}

// ChangePassword es el caso autenticado: mismo endpoint upstream,
// distinto origen del token.
func (s *Service) ChangePassword(ctx context.Context, accessToken, newPassword string) error {
	if len(newPassword) < 6 {
		return fmt.Errorf("%w: la contraseña debe tener al menos 6 caracteres", ErrInvalidInput)
	}
	return s.provider.UpdatePassword(ctx, accessToken, newPassword)
}

// GoogleAuthorizeURL devuelve la URL de autorización para el flujo
// OAuth manejado por el proveedor de identidad.
func (s *Service) GoogleAuthorizeURL(redirectTo string) (string, error) {
	return s.provider.AuthorizeURL("google", redirectTo)
}

// GoogleCallback intercambia el code del callback por una sesión y
// espeja el perfil si es la primera vez que entra.
func (s *Service) GoogleCallback(ctx context.Context, code string) (auth.Session, string, error) {
	if strings.TrimSpace(code) == "" {
		return auth.Session{}, "", fmt.Errorf("%w: code requerido", ErrInvalidInput)
	}

	sess, err := s.provider.ExchangeCode(ctx, code)
	if err != nil {
		return auth.Session{}, "", err
	}

	s.mirrorProfile(ctx, sess, metadataString(sess.Metadata, "nombre", "full_name", "name"), "")
	return sess, s.displayName(ctx, sess), nil
}

func (s *Service) mirrorProfile(ctx context.Context, sess auth.Session, nombre, empresa string) {
	if s.mirror == nil || sess.UserID == "" {
		return
	}

	username := usernameFromEmail(sess.Email)
	if err := s.mirror.EnsureUser(ctx, sess.UserID, username); err != nil {
		s.log.Warn("no se pudo espejar usuario", map[string]any{"user_id": sess.UserID, "error": err.Error()})
	}
	if err := s.mirror.EnsureContact(ctx, sess.UserID, nombre, empresa, sess.Email); err != nil {
		s.log.Warn("no se pudo espejar contacto", map[string]any{"user_id": sess.UserID, "error": err.Error()})
	}
}

func (s *Service) displayName(ctx context.Context, sess auth.Session) string {
	if s.names != nil {
		if nombre, err := s.names.DisplayName(ctx, sess.UserID); err == nil && nombre != "" {
			return nombre
		}
	}
	if n := metadataString(sess.Metadata, "nombre", "full_name", "name"); n != "" {
		return n
	}
	return usernameFromEmail(sess.Email)
}

func usernameFromEmail(email string) string {
	local, _, _ := strings.Cut(email, "@")
	return local
}

func metadataString(m map[string]any, keys ...string) string {
	for _, k := range keys {
		if v, ok := m[k].(string); ok && strings.TrimSpace(v) != "" {
			return strings.TrimSpace(v)
		}
	}
	return ""
}
