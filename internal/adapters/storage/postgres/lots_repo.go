package postgres

import (
	"context"
	"database/sql"
	"strings"

	"meliapp/internal/domain/lots"
)

type LotsRepo struct {
	db *sql.DB
}

func NewLotsRepo(db *sql.DB) *LotsRepo {
	return &LotsRepo{db: db}
}

func (r *LotsRepo) Create(ctx context.Context, l lots.Lot) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO origenes_botanicos (
			id, usuario_id,
			nombre_miel, temporada, anio, kg_producidos,
			orden_miel, composicion_polen,
			created_at, updated_at
		) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10)
	`,
		l.ID,
		l.UsuarioID,
		l.NombreMiel,
		string(l.Temporada),
		l.Anio,
		l.KgProducidos,
		l.OrdenMiel,
		lots.EncodeComposicion(l.Composicion),
		l.CreatedAt,
		l.UpdatedAt,
	)
	return err
}

func (r *LotsRepo) Update(ctx context.Context, l lots.Lot) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE origenes_botanicos
		SET
			nombre_miel = $2,
			temporada = $3,
			anio = $4,
			kg_producidos = $5,
			orden_miel = $6,
			composicion_polen = $7,
			updated_at = $8
		WHERE id = $1
	`,
		l.ID,
		l.NombreMiel,
		string(l.Temporada),
		l.Anio,
		l.KgProducidos,
		l.OrdenMiel,
		lots.EncodeComposicion(l.Composicion),
		l.UpdatedAt,
	)
	if err != nil {
		return err
	}
	n, _ := res.RowsAffected()
	if n == 0 {
		return lots.ErrNotFound
	}
	return nil
}

func (r *LotsRepo) Delete(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM origenes_botanicos WHERE id = $1`, id)
	if err != nil {
		return err
	}
	n, _ := res.RowsAffected()
	if n == 0 {
		return lots.ErrNotFound
	}
	return nil
}

func (r *LotsRepo) GetByID(ctx context.Context, id string) (lots.Lot, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return lots.Lot{}, lots.ErrNotFound
	}

	row := r.db.QueryRowContext(ctx, `
		SELECT
			id, usuario_id,
			nombre_miel, temporada, anio, kg_producidos,
			orden_miel, composicion_polen,
			created_at, updated_at
		FROM origenes_botanicos
		WHERE id = $1
	`, id)

	return scanLot(row)
}

func (r *LotsRepo) ListByUser(ctx context.Context, usuarioID string) ([]lots.Lot, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT
			id, usuario_id,
			nombre_miel, temporada, anio, kg_producidos,
			orden_miel, composicion_polen,
			created_at, updated_at
		FROM origenes_botanicos
		WHERE usuario_id = $1
		ORDER BY orden_miel ASC, created_at ASC
	`, usuarioID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]lots.Lot, 0)
	for rows.Next() {
		l, err := scanLot(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, l)
	}
	return out, rows.Err()
}

func (r *LotsRepo) SearchByNombre(ctx context.Context, term string, limit int) ([]lots.Lot, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT
			id, usuario_id,
			nombre_miel, temporada, anio, kg_producidos,
			orden_miel, composicion_polen,
			created_at, updated_at
		FROM origenes_botanicos
		WHERE nombre_miel ILIKE '%' || $1 || '%'
		ORDER BY nombre_miel ASC
		LIMIT $2
	`, term, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]lots.Lot, 0)
	for rows.Next() {
		l, err := scanLot(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, l)
	}
	return out, rows.Err()
}

func (r *LotsRepo) UpdateOrden(ctx context.Context, id string, orden int) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE origenes_botanicos SET orden_miel = $2 WHERE id = $1
	`, id, orden)
	if err != nil {
		return err
	}
	n, _ := res.RowsAffected()
	if n == 0 {
		return lots.ErrNotFound
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanLot(row rowScanner) (lots.Lot, error) {
	var l lots.Lot
	var temporada string
	var composicion sql.NullString

	if err := row.Scan(
		&l.ID,
		&l.UsuarioID,
		&l.NombreMiel,
		&temporada,
		&l.Anio,
		&l.KgProducidos,
		&l.OrdenMiel,
		&composicion,
		&l.CreatedAt,
		&l.UpdatedAt,
	); err != nil {
		if err == sql.ErrNoRows {
			return lots.Lot{}, lots.ErrNotFound
		}
		return lots.Lot{}, err
	}

	l.Temporada = lots.Temporada(temporada)
	if composicion.Valid {
		l.Composicion = lots.ParseComposicion(composicion.String)
	}
	return l, nil
}
