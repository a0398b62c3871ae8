package sqlxrepos

import (
	"context"

	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"

	"github.com/manitascreativas/escuela/core"
	"github.com/manitascreativas/escuela/core/escuela"
)

const gradoSelect = `
SELECT g.id, g.nombre, g.descripcion, g.nivel_educativo_id, n.nombre AS nivel_educativo_nombre
FROM grados g
JOIN niveles_educativos n ON n.id = g.nivel_educativo_id`

type escuelaRepository struct {
	repository
}

var _ escuela.Repository = (*escuelaRepository)(nil) // interface compliance check

func NewEscuelaRepository(db *sqlx.DB) escuela.Repository {
	return &escuelaRepository{repository{db: db}}
}

// Sedes

func (repo *escuelaRepository) QuerySedes(ctx context.Context) ([]escuela.Sede, error) {
	sedes := make([]escuela.Sede, 0)
	if err := sqlx.SelectContext(ctx, repo.db, &sedes, "SELECT id, nombre, direccion FROM sedes ORDER BY nombre"); err != nil {
		return nil, errors.Wrap(err, "querying sedes")
	}
	return sedes, nil
}

func (repo *escuelaRepository) GetSede(ctx context.Context, id int, exec ...core.DBExecutor) (escuela.Sede, error) {
	var sede escuela.Sede
	err := sqlx.GetContext(ctx, repo.getExec(exec), &sede, "SELECT id, nombre, direccion FROM sedes WHERE id = $1", id)
	if err != nil {
		return escuela.Sede{}, trapNoRowsErr(err, escuela.ErrSedeNotFound, "getting sede")
	}
	return sede, nil
}

func (repo *escuelaRepository) CreateSede(ctx context.Context, sede escuela.Sede) (escuela.Sede, error) {
	id, err := insert(ctx, repo.db, "INSERT INTO sedes (nombre, direccion) VALUES (:nombre, :direccion) RETURNING id", sede)
	if err != nil {
		return escuela.Sede{}, errors.Wrap(err, "inserting sede")
	}
	sede.ID = id
	return sede, nil
}

func (repo *escuelaRepository) UpdateSede(ctx context.Context, sede escuela.Sede) (escuela.Sede, error) {
	err := update(ctx, repo.db, "UPDATE sedes SET nombre = :nombre, direccion = :direccion WHERE id = :id", sede, escuela.ErrSedeNotFound)
	if err != nil {
		return escuela.Sede{}, trapNoRowsErr(err, escuela.ErrSedeNotFound, "updating sede")
	}
	return sede, nil
}

func (repo *escuelaRepository) DeleteSede(ctx context.Context, id int) error {
	return deleteByID(ctx, repo.db, "sedes", id, escuela.ErrSedeNotFound)
}

// Niveles educativos

func (repo *escuelaRepository) QueryNiveles(ctx context.Context, onlyActive bool) ([]escuela.NivelEducativo, error) {
	q := "SELECT id, nombre, activo FROM niveles_educativos"
	if onlyActive {
		q += " WHERE activo"
	}
	niveles := make([]escuela.NivelEducativo, 0)
	if err := sqlx.SelectContext(ctx, repo.db, &niveles, q+" ORDER BY id"); err != nil {
		return nil, errors.Wrap(err, "querying niveles educativos")
	}
	return niveles, nil
}

func (repo *escuelaRepository) GetNivel(ctx context.Context, id int, exec ...core.DBExecutor) (escuela.NivelEducativo, error) {
	var nivel escuela.NivelEducativo
	err := sqlx.GetContext(ctx, repo.getExec(exec), &nivel, "SELECT id, nombre, activo FROM niveles_educativos WHERE id = $1", id)
	if err != nil {
		return escuela.NivelEducativo{}, trapNoRowsErr(err, escuela.ErrNivelNotFound, "getting nivel educativo")
	}
	return nivel, nil
}

func (repo *escuelaRepository) CreateNivel(ctx context.Context, nivel escuela.NivelEducativo) (escuela.NivelEducativo, error) {
	id, err := insert(ctx, repo.db, "INSERT INTO niveles_educativos (nombre, activo) VALUES (:nombre, :activo) RETURNING id", nivel)
	if err != nil {
		return escuela.NivelEducativo{}, errors.Wrap(err, "inserting nivel educativo")
	}
	nivel.ID = id
	return nivel, nil
}

func (repo *escuelaRepository) UpdateNivel(ctx context.Context, nivel escuela.NivelEducativo) (escuela.NivelEducativo, error) {
	err := update(ctx, repo.db, "UPDATE niveles_educativos SET nombre = :nombre, activo = :activo WHERE id = :id", nivel, escuela.ErrNivelNotFound)
	if err != nil {
		return escuela.NivelEducativo{}, trapNoRowsErr(err, escuela.ErrNivelNotFound, "updating nivel educativo")
	}
	return nivel, nil
}

func (repo *escuelaRepository) DeleteNivel(ctx context.Context, id int) error {
	return deleteByID(ctx, repo.db, "niveles_educativos", id, escuela.ErrNivelNotFound)
}

// Grados

func (repo *escuelaRepository) QueryGrados(ctx context.Context, nivelID int, onlyActive bool) ([]escuela.Grado, error) {
	q := gradoSelect + " WHERE ($1 = 0 OR g.nivel_educativo_id = $1)"
	if onlyActive {
		q += " AND n.activo"
	}
	grados := make([]escuela.Grado, 0)
	if err := sqlx.SelectContext(ctx, repo.db, &grados, q+" ORDER BY g.nivel_educativo_id, g.id", nivelID); err != nil {
		return nil, errors.Wrap(err, "querying grados")
	}
	return grados, nil
}

func (repo *escuelaRepository) GetGrado(ctx context.Context, id int, exec ...core.DBExecutor) (escuela.Grado, error) {
	var grado escuela.Grado
	if err := sqlx.GetContext(ctx, repo.getExec(exec), &grado, gradoSelect+" WHERE g.id = $1", id); err != nil {
		return escuela.Grado{}, trapNoRowsErr(err, escuela.ErrGradoNotFound, "getting grado")
	}
	return grado, nil
}

func (repo *escuelaRepository) CreateGrado(ctx context.Context, grado escuela.Grado) (escuela.Grado, error) {
	id, err := insert(ctx, repo.db, `
INSERT INTO grados (nombre, descripcion, nivel_educativo_id)
VALUES (:nombre, :descripcion, :nivel_educativo_id) RETURNING id`, grado)
	if err != nil {
		return escuela.Grado{}, errors.Wrap(err, "inserting grado")
	}
	return repo.GetGrado(ctx, id)
}

func (repo *escuelaRepository) UpdateGrado(ctx context.Context, grado escuela.Grado) (escuela.Grado, error) {
	err := update(ctx, repo.db, `
UPDATE grados SET nombre = :nombre, descripcion = :descripcion, nivel_educativo_id = :nivel_educativo_id
WHERE id = :id`, grado, escuela.ErrGradoNotFound)
	if err != nil {
		return escuela.Grado{}, trapNoRowsErr(err, escuela.ErrGradoNotFound, "updating grado")
	}
	return repo.GetGrado(ctx, grado.ID)
}

func (repo *escuelaRepository) DeleteGrado(ctx context.Context, id int) error {
	return deleteByID(ctx, repo.db, "grados", id, escuela.ErrGradoNotFound)
}
