package boiledrepos

import (
	"context"
	"time"

	"github.com/friendsofgo/errors"
	"github.com/lib/pq"
	"github.com/volatiletech/null/v8"
	"github.com/volatiletech/sqlboiler/v4/queries"
	"github.com/volatiletech/sqlboiler/v4/queries/qm"

	"github.com/manitascreativas/escuela/core"
	"github.com/manitascreativas/escuela/core/usuario"
)

var usuarioOrderColumns = map[string]string{
	"id":            "u.id",
	"codigoUsuario": "u.codigo_usuario",
	"nombres":       "u.nombres",
	"apellidos":     "u.apellidos",
	"email":         "u.email",
	"estadoUsuario": "u.estado_usuario",
	"fechaCreacion": "u.fecha_creacion",
	"lastLogin":     "u.last_login",
}

type usuarioRow struct {
	ID                 int         `boil:"id"`
	CodigoUsuario      string      `boil:"codigo_usuario"`
	Nombres            string      `boil:"nombres"`
	Apellidos          string      `boil:"apellidos"`
	Email              string      `boil:"email"`
	Celular            null.String `boil:"celular"`
	PasswordHash       []byte      `boil:"password_hash"`
	EstadoUsuario      string      `boil:"estado_usuario"`
	RolID              int         `boil:"rol_id"`
	RolNombre          string      `boil:"rol_nombre"`
	EsAdmin            bool        `boil:"es_admin"`
	FechaCreacion      time.Time   `boil:"fecha_creacion"`
	FechaActualizacion time.Time   `boil:"fecha_actualizacion"`
	LastLogin          null.Time   `boil:"last_login"`
}

type rolRow struct {
	ID      int    `boil:"id"`
	Nombre  string `boil:"nombre"`
	EsAdmin bool   `boil:"es_admin"`
}

type usuarioRepository struct {
	repository
}

var _ usuario.Repository = (*usuarioRepository)(nil) // interface compliance check

func NewUsuarioRepository(exec core.DBExecutor) usuario.Repository {
	return &usuarioRepository{repository{exec: exec}}
}

func (repo usuarioRepository) unboil(row usuarioRow) usuario.Usuario {
	return usuario.Usuario{
		ID:                 row.ID,
		CodigoUsuario:      row.CodigoUsuario,
		Nombres:            row.Nombres,
		Apellidos:          row.Apellidos,
		Email:              row.Email,
		Celular:            row.Celular,
		PasswordHash:       row.PasswordHash,
		EstadoUsuario:      row.EstadoUsuario,
		RolID:              row.RolID,
		Rol:                row.RolNombre,
		EsAdmin:            row.EsAdmin,
		FechaCreacion:      row.FechaCreacion.UTC(),
		FechaActualizacion: row.FechaActualizacion.UTC(),
		LastLogin:          row.LastLogin,
	}
}

func (repo usuarioRepository) unboilSlice(rows []usuarioRow) []usuario.Usuario {
	usuarios := make([]usuario.Usuario, 0, len(rows))
	for _, row := range rows {
		usuarios = append(usuarios, repo.unboil(row))
	}
	return usuarios
}

func (repo usuarioRepository) selectMods(mods ...qm.QueryMod) []qm.QueryMod {
	return append([]qm.QueryMod{
		qm.Select(
			"u.id", "u.codigo_usuario", "u.nombres", "u.apellidos", "u.email", "u.celular", "u.password_hash",
			"u.estado_usuario", "u.rol_id", "r.nombre AS rol_nombre", "r.es_admin", "u.fecha_creacion",
			"u.fecha_actualizacion", "u.last_login",
		),
		qm.From("usuarios u"),
		qm.InnerJoin("roles r ON r.id = u.rol_id"),
	}, mods...)
}

func (repo usuarioRepository) getOne(ctx context.Context, msg string, mods ...qm.QueryMod) (usuario.Usuario, error) {
	var rows []usuarioRow
	if err := NewQuery(repo.selectMods(append(mods, qm.Limit(1))...)...).Bind(ctx, repo.exec, &rows); err != nil {
		return usuario.Usuario{}, errors.Wrap(err, msg)
	}
	if len(rows) == 0 {
		return usuario.Usuario{}, usuario.ErrNotFound
	}
	return repo.unboil(rows[0]), nil
}

func (repo usuarioRepository) exists(ctx context.Context, mods ...qm.QueryMod) (bool, error) {
	var count int64
	q := NewQuery(append([]qm.QueryMod{qm.Select("COUNT(*)"), qm.From("usuarios")}, mods...)...)
	if err := q.QueryRowContext(ctx, repo.exec).Scan(&count); err != nil {
		return false, err
	}
	return count > 0, nil
}

func (repo usuarioRepository) CheckUniqueness(ctx context.Context, codigo, email string, excludedUsers ...usuario.Usuario) error {
	var mods []qm.QueryMod
	if len(excludedUsers) > 0 {
		ids := make([]int64, 0, len(excludedUsers))
		for _, u := range excludedUsers {
			ids = append(ids, int64(u.ID))
		}
		mods = append(mods, qm.Where("id <> ALL (?)", pq.Array(ids)))
	}

	exists, err := repo.exists(ctx, append(mods, qm.Where("LOWER(codigo_usuario) = LOWER(?)", codigo))...)
	if err != nil {
		return errors.Wrap(err, "checking usuario uniqueness")
	}
	if exists {
		return usuario.ErrCodigoExists
	}
	exists, err = repo.exists(ctx, append(mods, qm.Where("LOWER(email) = LOWER(?)", email))...)
	if err != nil {
		return errors.Wrap(err, "checking usuario uniqueness")
	}
	if exists {
		return usuario.ErrEmailExists
	}
	return nil
}

func (repo usuarioRepository) Create(ctx context.Context, usr usuario.Usuario) (usuario.Usuario, error) {
	err := queries.Raw(`
INSERT INTO usuarios (
	codigo_usuario, nombres, apellidos, email, celular, password_hash, estado_usuario, rol_id,
	fecha_creacion, fecha_actualizacion
) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10) RETURNING id`,
		usr.CodigoUsuario, usr.Nombres, usr.Apellidos, usr.Email, usr.Celular, usr.PasswordHash,
		usr.EstadoUsuario, usr.RolID, usr.FechaCreacion.UTC(), usr.FechaActualizacion.UTC(),
	).QueryRowContext(ctx, repo.exec).Scan(&usr.ID)
	if err != nil {
		return usuario.Usuario{}, errors.Wrap(err, "inserting usuario")
	}
	return repo.GetByID(ctx, usr.ID)
}

func (repo usuarioRepository) QueryAll(ctx context.Context, ordering []core.DBOrdering) ([]usuario.Usuario, error) {
	orderBy := core.OrderByClause(ordering, usuarioOrderColumns, "u.apellidos ASC, u.nombres ASC")

	var rows []usuarioRow
	if err := NewQuery(repo.selectMods(qm.OrderBy(orderBy))...).Bind(ctx, repo.exec, &rows); err != nil {
		return nil, errors.Wrap(err, "querying usuarios")
	}
	return repo.unboilSlice(rows), nil
}

func (repo usuarioRepository) GetByID(ctx context.Context, id int) (usuario.Usuario, error) {
	return repo.getOne(ctx, "getting usuario by ID", qm.Where("u.id = ?", id))
}

func (repo usuarioRepository) GetByCodigo(ctx context.Context, codigo string) (usuario.Usuario, error) {
	return repo.getOne(ctx, "getting usuario by codigo", qm.Where("LOWER(u.codigo_usuario) = LOWER(?)", codigo))
}

func (repo usuarioRepository) GetByEmail(ctx context.Context, email string) (usuario.Usuario, error) {
	return repo.getOne(ctx, "getting usuario by email", qm.Where("LOWER(u.email) = LOWER(?)", email))
}

func (repo usuarioRepository) Update(ctx context.Context, usr usuario.Usuario) (usuario.Usuario, error) {
	res, err := queries.Raw(`
UPDATE usuarios SET
	codigo_usuario = $2, nombres = $3, apellidos = $4, email = $5, celular = $6, password_hash = $7,
	estado_usuario = $8, rol_id = $9, fecha_actualizacion = $10, last_login = $11
WHERE id = $1`,
		usr.ID, usr.CodigoUsuario, usr.Nombres, usr.Apellidos, usr.Email, usr.Celular, usr.PasswordHash,
		usr.EstadoUsuario, usr.RolID, usr.FechaActualizacion.UTC(), usr.LastLogin,
	).ExecContext(ctx, repo.exec)
	if err != nil {
		return usuario.Usuario{}, errors.Wrap(err, "updating usuario")
	}
	if n, err := res.RowsAffected(); err != nil {
		return usuario.Usuario{}, errors.Wrap(err, "updating usuario")
	} else if n == 0 {
		return usuario.Usuario{}, usuario.ErrNotFound
	}
	return repo.GetByID(ctx, usr.ID)
}

func (repo usuarioRepository) SetLastLogin(ctx context.Context, id int, at time.Time) error {
	_, err := queries.Raw("UPDATE usuarios SET last_login = $2 WHERE id = $1", id, at.UTC()).ExecContext(ctx, repo.exec)
	return errors.Wrap(err, "setting usuario last login")
}

func (repo usuarioRepository) Delete(ctx context.Context, id int) error {
	res, err := queries.Raw("DELETE FROM usuarios WHERE id = $1", id).ExecContext(ctx, repo.exec)
	if err != nil {
		return errors.Wrap(err, "deleting usuario")
	}
	if n, err := res.RowsAffected(); err != nil {
		return errors.Wrap(err, "deleting usuario")
	} else if n == 0 {
		return usuario.ErrNotFound
	}
	return nil
}

func (repo usuarioRepository) QueryRoles(ctx context.Context) ([]usuario.Rol, error) {
	var rows []rolRow
	q := NewQuery(qm.Select("id", "nombre", "es_admin"), qm.From("roles"), qm.OrderBy("id"))
	if err := q.Bind(ctx, repo.exec, &rows); err != nil {
		return nil, errors.Wrap(err, "querying roles")
	}
	roles := make([]usuario.Rol, 0, len(rows))
	for _, r := range rows {
		roles = append(roles, usuario.Rol{ID: r.ID, Nombre: r.Nombre, EsAdmin: r.EsAdmin})
	}
	return roles, nil
}

func (repo usuarioRepository) GetRolByNombre(ctx context.Context, nombre string) (usuario.Rol, error) {
	var row rolRow
	q := NewQuery(qm.Select("id", "nombre", "es_admin"), qm.From("roles"), qm.Where("LOWER(nombre) = LOWER(?)", nombre))
	if err := q.Bind(ctx, repo.exec, &row); err != nil {
		return usuario.Rol{}, trapNoRowsErr(err, usuario.ErrRolNotFound, "getting rol")
	}
	return usuario.Rol{ID: row.ID, Nombre: row.Nombre, EsAdmin: row.EsAdmin}, nil
}
