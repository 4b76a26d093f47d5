package lots

import "context"

type Repository interface {
	Create(ctx context.Context, l Lot) error
	Update(ctx context.Context, l Lot) error
	Delete(ctx context.Context, id string) error
	GetByID(ctx context.Context, id string) (Lot, error)

	// ListByUser devuelve los lotes ordenados por OrdenMiel ascendente.
	ListByUser(ctx context.Context, usuarioID string) ([]Lot, error)

	// SearchByNombre busca lotes por nombre de miel (match parcial).
	SearchByNombre(ctx context.Context, term string, limit int) ([]Lot, error)

	// UpdateOrden cambia solo el orden manual de un lote.
	UpdateOrden(ctx context.Context, id string, orden int) error
}
