package profiles

import "context"

type Repository interface {
	CreateUser(ctx context.Context, u User) error
	GetUser(ctx context.Context, authUserID string) (User, error)
	GetUserByUsername(ctx context.Context, username string) (User, error)
	UpdateUser(ctx context.Context, u User) error

	// FindUserByIDPrefix resuelve el segmento corto de un QR
	// al primer usuario cuyo id empiece con ese prefijo.
	FindUserByIDPrefix(ctx context.Context, prefix string) (User, error)

	// SearchUsers busca por username (ILIKE %term%).
	SearchUsers(ctx context.Context, term string, limit int) ([]User, error)

	UpsertContact(ctx context.Context, c Contact) error
	GetContact(ctx context.Context, authUserID string) (Contact, error)

	// SearchContacts busca por nombre_completo o nombre_empresa.
	SearchContacts(ctx context.Context, term string, limit int) ([]Contact, error)

	ListLocations(ctx context.Context, authUserID string) ([]Location, error)
	UpsertLocation(ctx context.Context, l Location) error

	// SearchLocations busca por nombre, descripción o comuna.
	SearchLocations(ctx context.Context, term string, limit int) ([]Location, error)

	ListRequests(ctx context.Context, authUserID string) ([]Request, error)

	// SearchRequests busca por nombre_completo, nombre_empresa o comuna.
	SearchRequests(ctx context.Context, term string, limit int) ([]Request, error)
}
