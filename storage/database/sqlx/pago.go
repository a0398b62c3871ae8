package sqlxrepos

import (
	"context"

	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"

	"github.com/manitascreativas/escuela/core"
	"github.com/manitascreativas/escuela/core/pago"
)

const (
	pagoColumns = `
p.id, p.ciclo_escolar, p.fecha, p.monto, p.medio_pago, p.notas, p.alumno_id, p.rubro_id, p.es_colegiatura,
p.mes_colegiatura, p.anio_colegiatura, p.es_pago_de_carnet, p.estado_carnet, p.es_pago_de_transporte,
p.es_pago_de_uniforme, p.fecha_creacion, p.fecha_actualizacion, p.usuario_creacion_id, p.usuario_actualizacion_id,
p.es_anulado, p.motivo_anulacion, p.fecha_anulacion, p.usuario_anulacion_id`
	pagoReadSelect = "SELECT" + pagoColumns + `,
	a.codigo AS alumno_codigo,
	concat_ws(' ', a.primer_nombre, a.segundo_nombre, a.tercer_nombre, a.primer_apellido, a.segundo_apellido) AS alumno_nombre,
	a.grado_id, g.nombre AS grado_nombre, COALESCE(a.seccion, '') AS seccion, s.nombre AS sede_nombre,
	r.descripcion AS rubro_descripcion, r.tipo AS rubro_tipo,
	COALESCE(concat_ws(' ', u.nombres, u.apellidos), '') AS usuario_nombre
FROM pagos p
JOIN alumnos a ON a.id = p.alumno_id
JOIN grados g ON g.id = a.grado_id
JOIN sedes s ON s.id = a.sede_id
JOIN rubros r ON r.id = p.rubro_id
LEFT JOIN usuarios u ON u.id = p.usuario_creacion_id`
	pagoDetalleSelect = `
SELECT d.id, d.pago_id, d.rubro_uniforme_detalle_id, d.precio_unitario, d.cantidad, d.subtotal,
	rd.prenda_uniforme_id, pr.descripcion AS prenda_descripcion
FROM pago_detalles d
JOIN rubro_uniforme_detalles rd ON rd.id = d.rubro_uniforme_detalle_id
JOIN prendas_uniforme pr ON pr.id = rd.prenda_uniforme_id`
)

type pagoRepository struct {
	repository
}

var _ pago.Repository = (*pagoRepository)(nil) // interface compliance check

func NewPagoRepository(db *sqlx.DB) pago.Repository {
	return &pagoRepository{repository{db: db}}
}

func (repo *pagoRepository) GetByID(ctx context.Context, id int, exec ...core.DBExecutor) (pago.Pago, error) {
	var p pago.Pago
	if err := sqlx.GetContext(ctx, repo.getExec(exec), &p, "SELECT"+pagoColumns+" FROM pagos p WHERE p.id = $1", id); err != nil {
		return pago.Pago{}, trapNoRowsErr(err, pago.ErrNotFound, "getting pago")
	}
	return p, nil
}

func (repo *pagoRepository) Create(ctx context.Context, p pago.Pago, exec ...core.DBExecutor) (pago.Pago, error) {
	id, err := insert(ctx, repo.getExec(exec), `
INSERT INTO pagos (
	ciclo_escolar, fecha, monto, medio_pago, notas, alumno_id, rubro_id, es_colegiatura, mes_colegiatura,
	anio_colegiatura, es_pago_de_carnet, estado_carnet, es_pago_de_transporte, es_pago_de_uniforme,
	fecha_creacion, usuario_creacion_id
) VALUES (
	:ciclo_escolar, :fecha, :monto, :medio_pago, :notas, :alumno_id, :rubro_id, :es_colegiatura, :mes_colegiatura,
	:anio_colegiatura, :es_pago_de_carnet, :estado_carnet, :es_pago_de_transporte, :es_pago_de_uniforme,
	:fecha_creacion, :usuario_creacion_id
) RETURNING id`, p)
	if err != nil {
		return pago.Pago{}, errors.Wrap(err, "inserting pago")
	}
	p.ID = id
	return p, nil
}

func (repo *pagoRepository) Update(ctx context.Context, p pago.Pago, exec ...core.DBExecutor) (pago.Pago, error) {
	err := update(ctx, repo.getExec(exec), `
UPDATE pagos SET
	ciclo_escolar = :ciclo_escolar, fecha = :fecha, monto = :monto, medio_pago = :medio_pago, notas = :notas,
	alumno_id = :alumno_id, rubro_id = :rubro_id, es_colegiatura = :es_colegiatura,
	mes_colegiatura = :mes_colegiatura, anio_colegiatura = :anio_colegiatura,
	es_pago_de_carnet = :es_pago_de_carnet, estado_carnet = :estado_carnet,
	es_pago_de_transporte = :es_pago_de_transporte, es_pago_de_uniforme = :es_pago_de_uniforme,
	fecha_actualizacion = :fecha_actualizacion, usuario_actualizacion_id = :usuario_actualizacion_id,
	es_anulado = :es_anulado, motivo_anulacion = :motivo_anulacion, fecha_anulacion = :fecha_anulacion,
	usuario_anulacion_id = :usuario_anulacion_id
WHERE id = :id AND NOT es_anulado`, p, pago.ErrAnulado)
	if err == pago.ErrAnulado {
		// no row matched: either voided meanwhile or missing
		if _, getErr := repo.GetByID(ctx, p.ID, exec...); getErr != nil {
			return pago.Pago{}, getErr
		}
		return pago.Pago{}, err
	}
	if err != nil {
		return pago.Pago{}, errors.Wrap(err, "updating pago")
	}
	return p, nil
}

func (repo *pagoRepository) GetRead(ctx context.Context, id int) (pago.PagoRead, error) {
	var p pago.PagoRead
	if err := sqlx.GetContext(ctx, repo.db, &p, pagoReadSelect+" WHERE p.id = $1", id); err != nil {
		return pago.PagoRead{}, trapNoRowsErr(err, pago.ErrNotFound, "getting pago")
	}
	return p, nil
}

func (repo *pagoRepository) QueryRead(ctx context.Context, filter pago.ReadFilter) ([]pago.PagoRead, error) {
	var c conditions
	if filter.CicloEscolar > 0 {
		c.add("p.ciclo_escolar = ?", filter.CicloEscolar)
	}
	if filter.GradoID > 0 {
		c.add("a.grado_id = ?", filter.GradoID)
	}
	if filter.AlumnoID > 0 {
		c.add("p.alumno_id = ?", filter.AlumnoID)
	}
	if filter.RubroID > 0 {
		c.add("p.rubro_id = ?", filter.RubroID)
	}

	q := pagoReadSelect + c.String()
	if filter.NewestFirst {
		q += " ORDER BY p.fecha DESC, p.id DESC"
	} else {
		q += " ORDER BY p.fecha, p.id"
	}

	pagos := make([]pago.PagoRead, 0)
	if err := sqlx.SelectContext(ctx, repo.db, &pagos, q, c.args...); err != nil {
		return nil, errors.Wrap(err, "querying pagos")
	}
	return pagos, nil
}

// Imagenes

func (repo *pagoRepository) QueryImagenes(ctx context.Context, pagoIDs []int) ([]pago.PagoImagen, error) {
	imagenes := make([]pago.PagoImagen, 0)
	if len(pagoIDs) == 0 {
		return imagenes, nil
	}
	q := `
SELECT id, pago_id, imagen_url, es_imagen_eliminada FROM pago_imagenes
WHERE pago_id IN (?) AND NOT es_imagen_eliminada ORDER BY id`
	if err := selectIn(ctx, repo.db, &imagenes, q, pagoIDs); err != nil {
		return nil, errors.Wrap(err, "querying pago imagenes")
	}
	return imagenes, nil
}

func (repo *pagoRepository) CreateImagen(ctx context.Context, img pago.PagoImagen, exec ...core.DBExecutor) (pago.PagoImagen, error) {
	id, err := insert(ctx, repo.getExec(exec), `
INSERT INTO pago_imagenes (pago_id, imagen_url, es_imagen_eliminada)
VALUES (:pago_id, :imagen_url, :es_imagen_eliminada) RETURNING id`, img)
	if err != nil {
		return pago.PagoImagen{}, errors.Wrap(err, "inserting pago imagen")
	}
	img.ID = id
	return img, nil
}

func (repo *pagoRepository) MarkImagenesEliminadas(ctx context.Context, ids []int) (int, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	q, args, err := sqlx.In("UPDATE pago_imagenes SET es_imagen_eliminada = TRUE WHERE id IN (?) AND NOT es_imagen_eliminada", ids)
	if err != nil {
		return 0, errors.Wrap(err, "deleting pago imagenes")
	}
	res, err := repo.db.ExecContext(ctx, repo.db.Rebind(q), args...)
	if err != nil {
		return 0, errors.Wrap(err, "deleting pago imagenes")
	}
	n, err := res.RowsAffected()
	return int(n), errors.Wrap(err, "deleting pago imagenes")
}

// Detalles

func (repo *pagoRepository) QueryDetalles(ctx context.Context, pagoIDs []int, exec ...core.DBExecutor) ([]pago.PagoDetalle, error) {
	detalles := make([]pago.PagoDetalle, 0)
	if len(pagoIDs) == 0 {
		return detalles, nil
	}
	if err := selectIn(ctx, repo.getExec(exec), &detalles, pagoDetalleSelect+" WHERE d.pago_id IN (?) ORDER BY d.id", pagoIDs); err != nil {
		return nil, errors.Wrap(err, "querying pago detalles")
	}
	return detalles, nil
}

func (repo *pagoRepository) CreateDetalle(ctx context.Context, d pago.PagoDetalle, exec ...core.DBExecutor) (pago.PagoDetalle, error) {
	id, err := insert(ctx, repo.getExec(exec), `
INSERT INTO pago_detalles (pago_id, rubro_uniforme_detalle_id, precio_unitario, cantidad, subtotal)
VALUES (:pago_id, :rubro_uniforme_detalle_id, :precio_unitario, :cantidad, :subtotal) RETURNING id`, d)
	if err != nil {
		return pago.PagoDetalle{}, errors.Wrap(err, "inserting pago detalle")
	}
	d.ID = id
	return d, nil
}

func (repo *pagoRepository) DeleteDetalles(ctx context.Context, pagoID int, exec ...core.DBExecutor) error {
	_, err := repo.getExec(exec).ExecContext(ctx, "DELETE FROM pago_detalles WHERE pago_id = $1", pagoID)
	return errors.Wrap(err, "deleting pago detalles")
}
