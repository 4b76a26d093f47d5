package auth

// Claims representa la información extraída del token de sesión.
type Claims struct {
	UserID string
	Email  string
	Role   string
}

// Session es el resultado de un login/registro exitoso contra el proveedor.
type Session struct {
	AccessToken  string
	RefreshToken string
	ExpiresIn    int64

	UserID   string
	Email    string
	Metadata map[string]any // user_metadata del proveedor (full_name, company, ...)
}
