package sqlxrepos

import (
	"context"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/pkg/errors"

	"github.com/manitascreativas/escuela/core"
	"github.com/manitascreativas/escuela/core/ruta"
)

const rutaColumns = "ar.id, ar.alumno_id, ar.rubro_transporte_id, ar.fecha_inicio, ar.fecha_fin"

type rutaRepository struct {
	repository
}

var _ ruta.Repository = (*rutaRepository)(nil) // interface compliance check

func NewRutaRepository(db *sqlx.DB) ruta.Repository {
	return &rutaRepository{repository{db: db}}
}

func (repo *rutaRepository) Get(ctx context.Context, alumnoID, rubroID int) (ruta.AlumnoRuta, error) {
	var ar ruta.AlumnoRuta
	q := "SELECT " + rutaColumns + " FROM alumno_rutas ar WHERE ar.alumno_id = $1 AND ar.rubro_transporte_id = $2"
	if err := sqlx.GetContext(ctx, repo.db, &ar, q, alumnoID, rubroID); err != nil {
		return ruta.AlumnoRuta{}, trapNoRowsErr(err, ruta.ErrNotFound, "getting alumno ruta")
	}
	return ar, nil
}

func (repo *rutaRepository) QueryByAlumno(ctx context.Context, alumnoID int) ([]ruta.AlumnoRuta, error) {
	rutas := make([]ruta.AlumnoRuta, 0)
	q := "SELECT " + rutaColumns + " FROM alumno_rutas ar WHERE ar.alumno_id = $1 ORDER BY ar.fecha_inicio"
	if err := sqlx.SelectContext(ctx, repo.db, &rutas, q, alumnoID); err != nil {
		return nil, errors.Wrap(err, "querying alumno rutas")
	}
	return rutas, nil
}

func (repo *rutaRepository) QueryByRuta(ctx context.Context, rubroID int) ([]ruta.AlumnoRutaDetalle, error) {
	rutas := make([]ruta.AlumnoRutaDetalle, 0)
	q := "SELECT " + rutaColumns + `,
	concat_ws(' ', a.primer_nombre, a.segundo_nombre, a.tercer_nombre) AS alumno_nombre,
	concat_ws(' ', a.primer_apellido, a.segundo_apellido) AS alumno_apellidos,
	g.nombre AS grado, COALESCE(a.seccion, '') AS seccion, s.nombre AS sede
FROM alumno_rutas ar
JOIN alumnos a ON a.id = ar.alumno_id
JOIN grados g ON g.id = a.grado_id
JOIN sedes s ON s.id = a.sede_id
WHERE ar.rubro_transporte_id = $1
ORDER BY a.primer_apellido, a.segundo_apellido, a.primer_nombre`
	if err := sqlx.SelectContext(ctx, repo.db, &rutas, q, rubroID); err != nil {
		return nil, errors.Wrap(err, "querying ruta alumnos")
	}
	return rutas, nil
}

func (repo *rutaRepository) Create(ctx context.Context, ar ruta.AlumnoRuta) (ruta.AlumnoRuta, error) {
	id, err := insert(ctx, repo.db, `
INSERT INTO alumno_rutas (alumno_id, rubro_transporte_id, fecha_inicio, fecha_fin)
VALUES (:alumno_id, :rubro_transporte_id, :fecha_inicio, :fecha_fin) RETURNING id`, ar)
	if pqErr, ok := errors.Cause(err).(*pq.Error); ok && pqErr.Code == pgUniqueViolation {
		return ruta.AlumnoRuta{}, core.NewValidationError(ruta.ErrDuplicate)
	} else if err != nil {
		return ruta.AlumnoRuta{}, errors.Wrap(err, "inserting alumno ruta")
	}
	ar.ID = id
	return ar, nil
}

func (repo *rutaRepository) Update(ctx context.Context, ar ruta.AlumnoRuta) (ruta.AlumnoRuta, error) {
	err := update(ctx, repo.db, `
UPDATE alumno_rutas SET fecha_inicio = :fecha_inicio, fecha_fin = :fecha_fin
WHERE alumno_id = :alumno_id AND rubro_transporte_id = :rubro_transporte_id`, ar, ruta.ErrNotFound)
	if err != nil {
		return ruta.AlumnoRuta{}, trapNoRowsErr(err, ruta.ErrNotFound, "updating alumno ruta")
	}
	return ar, nil
}

func (repo *rutaRepository) Delete(ctx context.Context, alumnoID, rubroID int) error {
	res, err := repo.db.ExecContext(ctx, "DELETE FROM alumno_rutas WHERE alumno_id = $1 AND rubro_transporte_id = $2", alumnoID, rubroID)
	if err != nil {
		return errors.Wrap(err, "deleting alumno ruta")
	}
	if n, err := res.RowsAffected(); err != nil {
		return errors.Wrap(err, "deleting alumno ruta")
	} else if n == 0 {
		return ruta.ErrNotFound
	}
	return nil
}
