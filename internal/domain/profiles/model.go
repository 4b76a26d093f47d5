package profiles

import "time"

// Role define los roles de perfil público.
// @Enum APICULTOR, PROVEEDOR, PRESTADOR DE SERVICIOS
type Role string

const (
	RoleApicultor Role = "APICULTOR"
	RoleProveedor Role = "PROVEEDOR"
	RolePrestador Role = "PRESTADOR DE SERVICIOS"
)

func (r Role) Valid() bool {
	switch r {
	case RoleApicultor, RoleProveedor, RolePrestador:
		return true
	}
	return false
}

// User es la fila de la tabla usuarios. La PK es el subject id del
// proveedor de identidad; esta aplicación nunca la genera.
type User struct {
	AuthUserID  string
	Username    string
	TipoUsuario string
	Role        Role
	Status      string
	Descripcion string

	CreatedAt time.Time
	UpdatedAt time.Time
}

// Contact es la fila de info_contacto, una por usuario.
type Contact struct {
	ID         string
	AuthUserID string

	NombreCompleto    string
	NombreEmpresa     string
	CorreoPrincipal   string
	TelefonoPrincipal string
	Direccion         string
	Comuna            string
	Region            string
}

// Location es una ubicación de trabajo del apicultor (tabla ubicaciones).
// Comuna es la llave de join con la tabla de clases botánicas.
type Location struct {
	ID         string
	AuthUserID string

	Nombre      string
	Descripcion string
	Comuna      string
	Region      string
}

// Request es una solicitud de registro de apicultor (solicitudes_apicultor).
type Request struct {
	ID         string
	AuthUserID string

	NombreCompleto string
	NombreEmpresa  string
	Region         string
	Comuna         string
	Telefono       string
	Status         string

	CreatedAt time.Time
}

// Suggestion es una entrada de autocompletado.
type Suggestion struct {
	ID           string `json:"id"`
	Nombre       string `json:"nombre"`
	Especialidad string `json:"especialidad"`
}
