package sqlxrepos

import (
	"context"

	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"

	"github.com/manitascreativas/escuela/core"
	"github.com/manitascreativas/escuela/core/alumno"
)

const alumnoColumns = `
a.id, a.codigo, a.primer_nombre, a.segundo_nombre, a.tercer_nombre, a.primer_apellido, a.segundo_apellido,
a.sede_id, a.grado_id, a.seccion, a.becado, a.beca_parcial_porcentaje, a.estado, a.observaciones, a.direccion,
a.fecha_retiro, a.fecha_traslado, a.fecha_creacion, a.fecha_actualizacion, a.usuario_creacion_id,
a.usuario_actualizacion_id`

var alumnoOrderColumns = map[string]string{
	"id":             "id",
	"codigo":         "codigo",
	"primerNombre":   "primer_nombre",
	"primerApellido": "primer_apellido",
	"gradoId":        "grado_id",
	"sedeId":         "sede_id",
	"fechaCreacion":  "fecha_creacion",
}

type alumnoRepository struct {
	repository
}

var _ alumno.Repository = (*alumnoRepository)(nil) // interface compliance check

func NewAlumnoRepository(db *sqlx.DB) alumno.Repository {
	return &alumnoRepository{repository{db: db}}
}

func (repo *alumnoRepository) QueryAll(ctx context.Context, ordering []core.DBOrdering) ([]alumno.Alumno, error) {
	orderBy := core.OrderByClause(ordering, alumnoOrderColumns, "primer_apellido ASC, primer_nombre ASC")
	alumnos := make([]alumno.Alumno, 0)
	q := "SELECT" + alumnoColumns + " FROM alumnos a ORDER BY " + orderBy
	if err := sqlx.SelectContext(ctx, repo.db, &alumnos, q); err != nil {
		return nil, errors.Wrap(err, "querying alumnos")
	}
	return alumnos, nil
}

func (repo *alumnoRepository) QueryFull(ctx context.Context) ([]alumno.AlumnoFull, error) {
	alumnos := make([]alumno.AlumnoFull, 0)
	q := "SELECT" + alumnoColumns + `,
s.nombre AS sede_nombre, g.nombre AS grado_nombre, n.id AS nivel_educativo_id, n.nombre AS nivel_educativo_nombre
FROM alumnos a
JOIN sedes s ON s.id = a.sede_id
JOIN grados g ON g.id = a.grado_id
JOIN niveles_educativos n ON n.id = g.nivel_educativo_id
ORDER BY a.primer_apellido, a.primer_nombre`
	if err := sqlx.SelectContext(ctx, repo.db, &alumnos, q); err != nil {
		return nil, errors.Wrap(err, "querying alumnos full")
	}
	return alumnos, nil
}

func (repo *alumnoRepository) QueryContactos(ctx context.Context) ([]alumno.ContactoResumen, error) {
	contactos := make([]alumno.ContactoResumen, 0)
	q := `
SELECT ac.alumno_id, ac.contacto_id, c.nombre, ac.parentesco, c.celular, c.email, c.nit
FROM alumno_contactos ac
JOIN contactos c ON c.id = ac.contacto_id
ORDER BY ac.alumno_id, c.nombre`
	if err := sqlx.SelectContext(ctx, repo.db, &contactos, q); err != nil {
		return nil, errors.Wrap(err, "querying alumno contactos")
	}
	return contactos, nil
}

func (repo *alumnoRepository) Search(ctx context.Context, filter alumno.SearchFilter) ([]alumno.Alumno, error) {
	var c conditions
	if filter.Nombre != "" {
		c.add("(a.primer_nombre ILIKE ? OR a.segundo_nombre ILIKE ? OR a.tercer_nombre ILIKE ?)", "%"+filter.Nombre+"%")
	}
	if filter.Apellido != "" {
		c.add("(a.primer_apellido ILIKE ? OR a.segundo_apellido ILIKE ?)", "%"+filter.Apellido+"%")
	}
	q := "SELECT" + alumnoColumns + " FROM alumnos a" + c.String()
	alumnos := make([]alumno.Alumno, 0)
	if err := sqlx.SelectContext(ctx, repo.db, &alumnos, q+" ORDER BY a.primer_apellido, a.primer_nombre", c.args...); err != nil {
		return nil, errors.Wrap(err, "searching alumnos")
	}
	return alumnos, nil
}

func (repo *alumnoRepository) GetByID(ctx context.Context, id int, exec ...core.DBExecutor) (alumno.Alumno, error) {
	var a alumno.Alumno
	q := "SELECT" + alumnoColumns + " FROM alumnos a WHERE a.id = $1"
	if err := sqlx.GetContext(ctx, repo.getExec(exec), &a, q, id); err != nil {
		return alumno.Alumno{}, trapNoRowsErr(err, alumno.ErrNotFound, "getting alumno")
	}
	return a, nil
}

func (repo *alumnoRepository) GetByCodigo(ctx context.Context, codigo string) (alumno.Alumno, error) {
	var a alumno.Alumno
	q := "SELECT" + alumnoColumns + " FROM alumnos a WHERE UPPER(a.codigo) = UPPER($1)"
	if err := sqlx.GetContext(ctx, repo.db, &a, q, codigo); err != nil {
		return alumno.Alumno{}, trapNoRowsErr(err, alumno.ErrNotFound, "getting alumno by codigo")
	}
	return a, nil
}

func (repo *alumnoRepository) CodigoExists(ctx context.Context, codigo string, excludedID int) (bool, error) {
	var exists bool
	q := "SELECT EXISTS (SELECT 1 FROM alumnos WHERE UPPER(codigo) = UPPER($1) AND id <> $2)"
	if err := sqlx.GetContext(ctx, repo.db, &exists, q, codigo, excludedID); err != nil {
		return false, errors.Wrap(err, "checking alumno codigo")
	}
	return exists, nil
}

func (repo *alumnoRepository) Create(ctx context.Context, a alumno.Alumno) (alumno.Alumno, error) {
	id, err := insert(ctx, repo.db, `
INSERT INTO alumnos (
	codigo, primer_nombre, segundo_nombre, tercer_nombre, primer_apellido, segundo_apellido, sede_id, grado_id,
	seccion, becado, beca_parcial_porcentaje, estado, observaciones, direccion, fecha_retiro, fecha_traslado,
	fecha_creacion, usuario_creacion_id
) VALUES (
	:codigo, :primer_nombre, :segundo_nombre, :tercer_nombre, :primer_apellido, :segundo_apellido, :sede_id, :grado_id,
	:seccion, :becado, :beca_parcial_porcentaje, :estado, :observaciones, :direccion, :fecha_retiro, :fecha_traslado,
	:fecha_creacion, :usuario_creacion_id
) RETURNING id`, a)
	if err != nil {
		return alumno.Alumno{}, errors.Wrap(err, "inserting alumno")
	}
	a.ID = id
	return a, nil
}

func (repo *alumnoRepository) Update(ctx context.Context, a alumno.Alumno) (alumno.Alumno, error) {
	err := update(ctx, repo.db, `
UPDATE alumnos SET
	codigo = :codigo, primer_nombre = :primer_nombre, segundo_nombre = :segundo_nombre,
	tercer_nombre = :tercer_nombre, primer_apellido = :primer_apellido, segundo_apellido = :segundo_apellido,
	sede_id = :sede_id, grado_id = :grado_id, seccion = :seccion, becado = :becado,
	beca_parcial_porcentaje = :beca_parcial_porcentaje, estado = :estado, observaciones = :observaciones,
	direccion = :direccion, fecha_retiro = :fecha_retiro, fecha_traslado = :fecha_traslado,
	fecha_actualizacion = :fecha_actualizacion, usuario_actualizacion_id = :usuario_actualizacion_id
WHERE id = :id`, a, alumno.ErrNotFound)
	if err != nil {
		return alumno.Alumno{}, trapNoRowsErr(err, alumno.ErrNotFound, "updating alumno")
	}
	return a, nil
}

func (repo *alumnoRepository) Delete(ctx context.Context, id int) error {
	return deleteByID(ctx, repo.db, "alumnos", id, alumno.ErrNotFound)
}
