package sqlxrepos

import (
	"context"

	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"

	"github.com/manitascreativas/escuela/core"
	"github.com/manitascreativas/escuela/core/rubro"
)

const rubroColumns = `
id, descripcion, tipo, penalizacion_por_mora_monto, penalizacion_por_mora_porcentaje, fecha_limite_pago_amarillo,
fecha_limite_pago_rojo, es_colegiatura, mes_colegiatura, dia_limite_pago_amarillo, dia_limite_pago_rojo,
mes_limite_pago, nivel_educativo_id, grado_id, monto_preestablecido, fecha_inicio_promocion, fecha_fin_promocion,
notas, activo, orden_visualizacion_grid, es_pago_de_carnet, es_pago_de_transporte, es_pago_de_uniforme,
fecha_creacion, fecha_actualizacion, usuario_creacion_id, usuario_actualizacion_id`

type rubroRepository struct {
	repository
}

var _ rubro.Repository = (*rubroRepository)(nil) // interface compliance check

func NewRubroRepository(db *sqlx.DB) rubro.Repository {
	return &rubroRepository{repository{db: db}}
}

func (repo *rubroRepository) QueryAll(ctx context.Context, onlyActive bool) ([]rubro.Rubro, error) {
	q := "SELECT" + rubroColumns + " FROM rubros"
	if onlyActive {
		q += " WHERE activo"
	}
	rubros := make([]rubro.Rubro, 0)
	if err := sqlx.SelectContext(ctx, repo.db, &rubros, q+" ORDER BY orden_visualizacion_grid NULLS LAST, descripcion"); err != nil {
		return nil, errors.Wrap(err, "querying rubros")
	}
	return rubros, nil
}

func (repo *rubroRepository) GetByID(ctx context.Context, id int, exec ...core.DBExecutor) (rubro.Rubro, error) {
	var r rubro.Rubro
	if err := sqlx.GetContext(ctx, repo.getExec(exec), &r, "SELECT"+rubroColumns+" FROM rubros WHERE id = $1", id); err != nil {
		return rubro.Rubro{}, trapNoRowsErr(err, rubro.ErrNotFound, "getting rubro")
	}
	return r, nil
}

func (repo *rubroRepository) Create(ctx context.Context, r rubro.Rubro) (rubro.Rubro, error) {
	id, err := insert(ctx, repo.db, `
INSERT INTO rubros (
	descripcion, tipo, penalizacion_por_mora_monto, penalizacion_por_mora_porcentaje, fecha_limite_pago_amarillo,
	fecha_limite_pago_rojo, es_colegiatura, mes_colegiatura, dia_limite_pago_amarillo, dia_limite_pago_rojo,
	mes_limite_pago, nivel_educativo_id, grado_id, monto_preestablecido, fecha_inicio_promocion,
	fecha_fin_promocion, notas, activo, orden_visualizacion_grid, es_pago_de_carnet, es_pago_de_transporte,
	es_pago_de_uniforme, fecha_creacion, usuario_creacion_id
) VALUES (
	:descripcion, :tipo, :penalizacion_por_mora_monto, :penalizacion_por_mora_porcentaje, :fecha_limite_pago_amarillo,
	:fecha_limite_pago_rojo, :es_colegiatura, :mes_colegiatura, :dia_limite_pago_amarillo, :dia_limite_pago_rojo,
	:mes_limite_pago, :nivel_educativo_id, :grado_id, :monto_preestablecido, :fecha_inicio_promocion,
	:fecha_fin_promocion, :notas, :activo, :orden_visualizacion_grid, :es_pago_de_carnet, :es_pago_de_transporte,
	:es_pago_de_uniforme, :fecha_creacion, :usuario_creacion_id
) RETURNING id`, r)
	if err != nil {
		return rubro.Rubro{}, errors.Wrap(err, "inserting rubro")
	}
	r.ID = id
	return r, nil
}

func (repo *rubroRepository) Update(ctx context.Context, r rubro.Rubro) (rubro.Rubro, error) {
	err := update(ctx, repo.db, `
UPDATE rubros SET
	descripcion = :descripcion, tipo = :tipo, penalizacion_por_mora_monto = :penalizacion_por_mora_monto,
	penalizacion_por_mora_porcentaje = :penalizacion_por_mora_porcentaje,
	fecha_limite_pago_amarillo = :fecha_limite_pago_amarillo, fecha_limite_pago_rojo = :fecha_limite_pago_rojo,
	es_colegiatura = :es_colegiatura, mes_colegiatura = :mes_colegiatura,
	dia_limite_pago_amarillo = :dia_limite_pago_amarillo, dia_limite_pago_rojo = :dia_limite_pago_rojo,
	mes_limite_pago = :mes_limite_pago, nivel_educativo_id = :nivel_educativo_id, grado_id = :grado_id,
	monto_preestablecido = :monto_preestablecido, fecha_inicio_promocion = :fecha_inicio_promocion,
	fecha_fin_promocion = :fecha_fin_promocion, notas = :notas, activo = :activo,
	orden_visualizacion_grid = :orden_visualizacion_grid, es_pago_de_carnet = :es_pago_de_carnet,
	es_pago_de_transporte = :es_pago_de_transporte, es_pago_de_uniforme = :es_pago_de_uniforme,
	fecha_actualizacion = :fecha_actualizacion, usuario_actualizacion_id = :usuario_actualizacion_id
WHERE id = :id`, r, rubro.ErrNotFound)
	if err != nil {
		return rubro.Rubro{}, trapNoRowsErr(err, rubro.ErrNotFound, "updating rubro")
	}
	return r, nil
}

func (repo *rubroRepository) Delete(ctx context.Context, id int) error {
	return deleteByID(ctx, repo.db, "rubros", id, rubro.ErrNotFound)
}

func (repo *rubroRepository) CountPagos(ctx context.Context, id int) (int, error) {
	var count int
	if err := sqlx.GetContext(ctx, repo.db, &count, "SELECT COUNT(*) FROM pagos WHERE rubro_id = $1", id); err != nil {
		return 0, errors.Wrap(err, "counting rubro pagos")
	}
	return count, nil
}
