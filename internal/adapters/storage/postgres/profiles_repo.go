package postgres

import (
	"context"
	"database/sql"
	"strings"

	"meliapp/internal/domain/profiles"
)

type ProfilesRepo struct {
	db *sql.DB
}

func NewProfilesRepo(db *sql.DB) *ProfilesRepo {
	return &ProfilesRepo{db: db}
}

func (r *ProfilesRepo) CreateUser(ctx context.Context, u profiles.User) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO usuarios (
			auth_user_id, username, tipo_usuario, role, status, descripcion,
			created_at, updated_at
		) VALUES ($1,$2,$3,$4,$5,$6,$7,$8)
	`,
		u.AuthUserID,
		u.Username,
		u.TipoUsuario,
		string(u.Role),
		u.Status,
		u.Descripcion,
		u.CreatedAt,
		u.UpdatedAt,
	)
	return err
}

func (r *ProfilesRepo) GetUser(ctx context.Context, authUserID string) (profiles.User, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT auth_user_id, username, tipo_usuario, role, status, descripcion,
		       created_at, updated_at
		FROM usuarios
		WHERE auth_user_id = $1
	`, authUserID)
	return scanUser(row)
}

func (r *ProfilesRepo) GetUserByUsername(ctx context.Context, username string) (profiles.User, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT auth_user_id, username, tipo_usuario, role, status, descripcion,
		       created_at, updated_at
		FROM usuarios
		WHERE LOWER(username) = LOWER($1)
	`, username)
	return scanUser(row)
}

func (r *ProfilesRepo) UpdateUser(ctx context.Context, u profiles.User) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE usuarios
		SET
			username = $2,
			tipo_usuario = $3,
			role = $4,
			status = $5,
			descripcion = $6,
			updated_at = $7
		WHERE auth_user_id = $1
	`,
		u.AuthUserID,
		u.Username,
		u.TipoUsuario,
		string(u.Role),
		u.Status,
		u.Descripcion,
		u.UpdatedAt,
	)
	if err != nil {
		return err
	}
	n, _ := res.RowsAffected()
	if n == 0 {
		return profiles.ErrNotFound
	}
	return nil
}

func (r *ProfilesRepo) FindUserByIDPrefix(ctx context.Context, prefix string) (profiles.User, error) {
	prefix = strings.ToLower(strings.TrimSpace(prefix))
	if prefix == "" {
		return profiles.User{}, profiles.ErrNotFound
	}

	// auth_user_id es uuid; se castea a text para el match de prefijo.
	row := r.db.QueryRowContext(ctx, `
		SELECT auth_user_id, username, tipo_usuario, role, status, descripcion,
		       created_at, updated_at
		FROM usuarios
		WHERE auth_user_id::text LIKE $1 || '%'
		ORDER BY auth_user_id::text ASC
		LIMIT 1
	`, prefix)
	return scanUser(row)
}

func (r *ProfilesRepo) SearchUsers(ctx context.Context, term string, limit int) ([]profiles.User, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT auth_user_id, username, tipo_usuario, role, status, descripcion,
		       created_at, updated_at
		FROM usuarios
		WHERE username ILIKE '%' || $1 || '%'
		ORDER BY username ASC
		LIMIT $2
	`, term, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]profiles.User, 0)
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, u)
	}
	return out, rows.Err()
}

func (r *ProfilesRepo) UpsertContact(ctx context.Context, c profiles.Contact) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO info_contacto (
			id, auth_user_id,
			nombre_completo, nombre_empresa, correo_principal,
			telefono_principal, direccion, comuna, region
		) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)
		ON CONFLICT (auth_user_id) DO UPDATE SET
			nombre_completo = EXCLUDED.nombre_completo,
			nombre_empresa = EXCLUDED.nombre_empresa,
			correo_principal = EXCLUDED.correo_principal,
			telefono_principal = EXCLUDED.telefono_principal,
			direccion = EXCLUDED.direccion,
			comuna = EXCLUDED.comuna,
			region = EXCLUDED.region
	`,
		c.ID,
		c.AuthUserID,
		c.NombreCompleto,
		c.NombreEmpresa,
		c.CorreoPrincipal,
		c.TelefonoPrincipal,
		c.Direccion,
		c.Comuna,
		c.Region,
	)
	return err
}

func (r *ProfilesRepo) GetContact(ctx context.Context, authUserID string) (profiles.Contact, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT id, auth_user_id,
		       nombre_completo, nombre_empresa, correo_principal,
		       telefono_principal, direccion, comuna, region
		FROM info_contacto
		WHERE auth_user_id = $1
	`, authUserID)
	return scanContact(row)
}

func (r *ProfilesRepo) SearchContacts(ctx context.Context, term string, limit int) ([]profiles.Contact, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, auth_user_id,
		       nombre_completo, nombre_empresa, correo_principal,
		       telefono_principal, direccion, comuna, region
		FROM info_contacto
		WHERE nombre_completo ILIKE '%' || $1 || '%'
		   OR nombre_empresa ILIKE '%' || $1 || '%'
		ORDER BY nombre_completo ASC
		LIMIT $2
	`, term, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]profiles.Contact, 0)
	for rows.Next() {
		c, err := scanContact(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

func (r *ProfilesRepo) ListLocations(ctx context.Context, authUserID string) ([]profiles.Location, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, auth_user_id, nombre, descripcion, comuna, region
		FROM ubicaciones
		WHERE auth_user_id = $1
		ORDER BY nombre ASC
	`, authUserID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]profiles.Location, 0)
	for rows.Next() {
		var l profiles.Location
		if err := rows.Scan(&l.ID, &l.AuthUserID, &l.Nombre, &l.Descripcion, &l.Comuna, &l.Region); err != nil {
			return nil, err
		}
		out = append(out, l)
	}
	return out, rows.Err()
}

func (r *ProfilesRepo) UpsertLocation(ctx context.Context, l profiles.Location) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO ubicaciones (id, auth_user_id, nombre, descripcion, comuna, region)
		VALUES ($1,$2,$3,$4,$5,$6)
		ON CONFLICT (id) DO UPDATE SET
			nombre = EXCLUDED.nombre,
			descripcion = EXCLUDED.descripcion,
			comuna = EXCLUDED.comuna,
			region = EXCLUDED.region
	`,
		l.ID,
		l.AuthUserID,
		l.Nombre,
		l.Descripcion,
		l.Comuna,
		l.Region,
	)
	return err
}

func (r *ProfilesRepo) SearchLocations(ctx context.Context, term string, limit int) ([]profiles.Location, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, auth_user_id, nombre, descripcion, comuna, region
		FROM ubicaciones
		WHERE nombre ILIKE '%' || $1 || '%'
		   OR descripcion ILIKE '%' || $1 || '%'
		   OR comuna ILIKE '%' || $1 || '%'
		ORDER BY nombre ASC
		LIMIT $2
	`, term, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]profiles.Location, 0)
	for rows.Next() {
		var l profiles.Location
		if err := rows.Scan(&l.ID, &l.AuthUserID, &l.Nombre, &l.Descripcion, &l.Comuna, &l.Region); err != nil {
			return nil, err
		}
		out = append(out, l)
	}
	return out, rows.Err()
}

func (r *ProfilesRepo) ListRequests(ctx context.Context, authUserID string) ([]profiles.Request, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, auth_user_id,
		       nombre_completo, nombre_empresa, region, comuna, telefono, status,
		       created_at
		FROM solicitudes_apicultor
		WHERE auth_user_id = $1
		ORDER BY created_at ASC
	`, authUserID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]profiles.Request, 0)
	for rows.Next() {
		var q profiles.Request
		if err := rows.Scan(
			&q.ID,
			&q.AuthUserID,
			&q.NombreCompleto,
			&q.NombreEmpresa,
			&q.Region,
			&q.Comuna,
			&q.Telefono,
			&q.Status,
			&q.CreatedAt,
		); err != nil {
			return nil, err
		}
		out = append(out, q)
	}
	return out, rows.Err()
}

func (r *ProfilesRepo) SearchRequests(ctx context.Context, term string, limit int) ([]profiles.Request, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, auth_user_id,
		       nombre_completo, nombre_empresa, region, comuna, telefono, status,
		       created_at
		FROM solicitudes_apicultor
		WHERE nombre_completo ILIKE '%' || $1 || '%'
		   OR nombre_empresa ILIKE '%' || $1 || '%'
		   OR comuna ILIKE '%' || $1 || '%'
		ORDER BY created_at ASC
		LIMIT $2
	`, term, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]profiles.Request, 0)
	for rows.Next() {
		var q profiles.Request
		if err := rows.Scan(
			&q.ID,
			&q.AuthUserID,
			&q.NombreCompleto,
			&q.NombreEmpresa,
			&q.Region,
			&q.Comuna,
			&q.Telefono,
			&q.Status,
			&q.CreatedAt,
		); err != nil {
			return nil, err
		}
		out = append(out, q)
	}
	return out, rows.Err()
}

func scanUser(row rowScanner) (profiles.User, error) {
	var u profiles.User
	var role string
	if err := row.Scan(
		&u.AuthUserID,
		&u.Username,
		&u.TipoUsuario,
		&role,
		&u.Status,
		&u.Descripcion,
		&u.CreatedAt,
		&u.UpdatedAt,
	); err != nil {
		if err == sql.ErrNoRows {
			return profiles.User{}, profiles.ErrNotFound
		}
		return profiles.User{}, err
	}
	u.Role = profiles.Role(role)
	return u, nil
}

func scanContact(row rowScanner) (profiles.Contact, error) {
	var c profiles.Contact
	if err := row.Scan(
		&c.ID,
		&c.AuthUserID,
		&c.NombreCompleto,
		&c.NombreEmpresa,
		&c.CorreoPrincipal,
		&c.TelefonoPrincipal,
		&c.Direccion,
		&c.Comuna,
		&c.Region,
	); err != nil {
		if err == sql.ErrNoRows {
			return profiles.Contact{}, profiles.ErrNotFound
		}
		return profiles.Contact{}, err
	}
	return c, nil
}
