package sqlxrepos

import (
	"context"

	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"

	"github.com/manitascreativas/escuela/core"
	"github.com/manitascreativas/escuela/core/uniforme"
)

const (
	auditColumns = `fecha_creacion, fecha_actualizacion, usuario_creacion_id, usuario_actualizacion_id,
	es_eliminado, motivo_eliminacion, fecha_eliminacion, usuario_eliminacion_id`
	prendaColumns = `id, descripcion, sexo, talla, precio, existencia_inicial, entradas, salidas, notas,
	` + auditColumns
	entradaColumns     = "id, fecha_entrada, notas, total,\n\t" + auditColumns
	rubroDetalleSelect = `
SELECT rd.id, rd.rubro_id, rd.prenda_uniforme_id, r.descripcion AS rubro_descripcion,
	p.descripcion AS prenda_descripcion, p.sexo AS prenda_sexo, p.talla AS prenda_talla, p.precio AS prenda_precio,
	rd.fecha_creacion, rd.fecha_actualizacion, rd.usuario_creacion_id, rd.usuario_actualizacion_id,
	rd.es_eliminado, rd.motivo_eliminacion, rd.fecha_eliminacion, rd.usuario_eliminacion_id
FROM rubro_uniforme_detalles rd
JOIN rubros r ON r.id = rd.rubro_id
JOIN prendas_uniforme p ON p.id = rd.prenda_uniforme_id`
)

type uniformeRepository struct {
	repository
}

var _ uniforme.Repository = (*uniformeRepository)(nil) // interface compliance check

func NewUniformeRepository(db *sqlx.DB) uniforme.Repository {
	return &uniformeRepository{repository{db: db}}
}

// Prendas

func (repo *uniformeRepository) QueryPrendas(ctx context.Context, filter uniforme.PrendaFilter) ([]uniforme.PrendaUniforme, error) {
	var c conditions
	if filter.OnlyActive {
		c.raw("NOT es_eliminado")
	}
	if filter.Sexo != "" {
		c.add("LOWER(sexo) = LOWER(?)", filter.Sexo)
	}
	if filter.Talla != "" {
		c.add("LOWER(talla) = LOWER(?)", filter.Talla)
	}
	prendas := make([]uniforme.PrendaUniforme, 0)
	q := "SELECT " + prendaColumns + " FROM prendas_uniforme" + c.String() + " ORDER BY descripcion, talla"
	if err := sqlx.SelectContext(ctx, repo.db, &prendas, q, c.args...); err != nil {
		return nil, errors.Wrap(err, "querying prendas uniforme")
	}
	return prendas, nil
}

func (repo *uniformeRepository) GetPrenda(ctx context.Context, id int, exec ...core.DBExecutor) (uniforme.PrendaUniforme, error) {
	var p uniforme.PrendaUniforme
	q := "SELECT " + prendaColumns + " FROM prendas_uniforme WHERE id = $1"
	if err := sqlx.GetContext(ctx, repo.getExec(exec), &p, q, id); err != nil {
		return uniforme.PrendaUniforme{}, trapNoRowsErr(err, uniforme.ErrPrendaNotFound, "getting prenda uniforme")
	}
	return p, nil
}

func (repo *uniformeRepository) PrendaExists(ctx context.Context, id int) (bool, error) {
	var exists bool
	q := "SELECT EXISTS (SELECT 1 FROM prendas_uniforme WHERE id = $1 AND NOT es_eliminado)"
	if err := sqlx.GetContext(ctx, repo.db, &exists, q, id); err != nil {
		return false, errors.Wrap(err, "checking prenda uniforme")
	}
	return exists, nil
}

func (repo *uniformeRepository) CreatePrenda(ctx context.Context, p uniforme.PrendaUniforme, exec ...core.DBExecutor) (uniforme.PrendaUniforme, error) {
	id, err := insert(ctx, repo.getExec(exec), `
INSERT INTO prendas_uniforme (
	descripcion, sexo, talla, precio, existencia_inicial, entradas, salidas, notas, fecha_creacion, usuario_creacion_id
) VALUES (
	:descripcion, :sexo, :talla, :precio, :existencia_inicial, :entradas, :salidas, :notas, :fecha_creacion,
	:usuario_creacion_id
) RETURNING id`, p)
	if err != nil {
		return uniforme.PrendaUniforme{}, errors.Wrap(err, "inserting prenda uniforme")
	}
	p.ID = id
	return p, nil
}

func (repo *uniformeRepository) UpdatePrenda(ctx context.Context, p uniforme.PrendaUniforme, exec ...core.DBExecutor) (uniforme.PrendaUniforme, error) {
	err := update(ctx, repo.getExec(exec), `
UPDATE prendas_uniforme SET
	descripcion = :descripcion, sexo = :sexo, talla = :talla, precio = :precio,
	existencia_inicial = :existencia_inicial, notas = :notas, fecha_actualizacion = :fecha_actualizacion,
	usuario_actualizacion_id = :usuario_actualizacion_id, es_eliminado = :es_eliminado,
	motivo_eliminacion = :motivo_eliminacion, fecha_eliminacion = :fecha_eliminacion,
	usuario_eliminacion_id = :usuario_eliminacion_id
WHERE id = :id`, p, uniforme.ErrPrendaNotFound)
	if err != nil {
		return uniforme.PrendaUniforme{}, trapNoRowsErr(err, uniforme.ErrPrendaNotFound, "updating prenda uniforme")
	}
	return p, nil
}

func (repo *uniformeRepository) AddStock(ctx context.Context, id, entradas, salidas int, exec ...core.DBExecutor) error {
	res, err := repo.getExec(exec).ExecContext(ctx,
		"UPDATE prendas_uniforme SET entradas = entradas + $2, salidas = salidas + $3 WHERE id = $1",
		id, entradas, salidas)
	if err != nil {
		return errors.Wrap(err, "updating prenda stock")
	}
	if n, err := res.RowsAffected(); err != nil {
		return errors.Wrap(err, "updating prenda stock")
	} else if n == 0 {
		return uniforme.ErrPrendaNotFound
	}
	return nil
}

func (repo *uniformeRepository) QueryPrendaImagenes(ctx context.Context, prendaIDs []int) ([]uniforme.PrendaImagen, error) {
	imagenes := make([]uniforme.PrendaImagen, 0)
	if len(prendaIDs) == 0 {
		return imagenes, nil
	}
	q := "SELECT id, prenda_uniforme_id, imagen FROM prenda_uniforme_imagenes WHERE prenda_uniforme_id IN (?) ORDER BY id"
	if err := selectIn(ctx, repo.db, &imagenes, q, prendaIDs); err != nil {
		return nil, errors.Wrap(err, "querying prenda imagenes")
	}
	return imagenes, nil
}

func (repo *uniformeRepository) CreatePrendaImagen(ctx context.Context, img uniforme.PrendaImagen, exec ...core.DBExecutor) (uniforme.PrendaImagen, error) {
	id, err := insert(ctx, repo.getExec(exec), `
INSERT INTO prenda_uniforme_imagenes (prenda_uniforme_id, imagen)
VALUES (:prenda_uniforme_id, :imagen) RETURNING id`, img)
	if err != nil {
		return uniforme.PrendaImagen{}, errors.Wrap(err, "inserting prenda imagen")
	}
	img.ID = id
	return img, nil
}

// Entradas

func (repo *uniformeRepository) QueryEntradas(ctx context.Context, filter uniforme.EntradaFilter) ([]uniforme.EntradaUniforme, error) {
	var c conditions
	if filter.OnlyActive {
		c.raw("NOT es_eliminado")
	}
	if filter.UsuarioID > 0 {
		c.add("usuario_creacion_id = ?", filter.UsuarioID)
	}
	if !filter.From.IsZero() {
		c.add("fecha_entrada >= ?", filter.From)
	}
	if !filter.To.IsZero() {
		c.add("fecha_entrada <= ?", filter.To)
	}
	entradas := make([]uniforme.EntradaUniforme, 0)
	q := "SELECT " + entradaColumns + " FROM entradas_uniforme" + c.String() + " ORDER BY fecha_entrada DESC, id DESC"
	if err := sqlx.SelectContext(ctx, repo.db, &entradas, q, c.args...); err != nil {
		return nil, errors.Wrap(err, "querying entradas uniforme")
	}
	return entradas, nil
}

func (repo *uniformeRepository) GetEntrada(ctx context.Context, id int, exec ...core.DBExecutor) (uniforme.EntradaUniforme, error) {
	var e uniforme.EntradaUniforme
	q := "SELECT " + entradaColumns + " FROM entradas_uniforme WHERE id = $1"
	if err := sqlx.GetContext(ctx, repo.getExec(exec), &e, q, id); err != nil {
		return uniforme.EntradaUniforme{}, trapNoRowsErr(err, uniforme.ErrEntradaNotFound, "getting entrada uniforme")
	}
	return e, nil
}

func (repo *uniformeRepository) QueryEntradaDetalles(ctx context.Context, entradaIDs []int, exec ...core.DBExecutor) ([]uniforme.EntradaDetalle, error) {
	detalles := make([]uniforme.EntradaDetalle, 0)
	if len(entradaIDs) == 0 {
		return detalles, nil
	}
	q := `
SELECT d.id, d.entrada_uniforme_id, d.prenda_uniforme_id, d.cantidad, d.subtotal,
	p.descripcion AS prenda_descripcion, p.sexo AS prenda_sexo, p.talla AS prenda_talla, p.precio AS prenda_precio
FROM entrada_uniforme_detalles d
JOIN prendas_uniforme p ON p.id = d.prenda_uniforme_id
WHERE d.entrada_uniforme_id IN (?)
ORDER BY d.id`
	if err := selectIn(ctx, repo.getExec(exec), &detalles, q, entradaIDs); err != nil {
		return nil, errors.Wrap(err, "querying entrada detalles")
	}
	return detalles, nil
}

func (repo *uniformeRepository) CreateEntrada(ctx context.Context, e uniforme.EntradaUniforme, exec ...core.DBExecutor) (uniforme.EntradaUniforme, error) {
	id, err := insert(ctx, repo.getExec(exec), `
INSERT INTO entradas_uniforme (fecha_entrada, notas, total, fecha_creacion, usuario_creacion_id)
VALUES (:fecha_entrada, :notas, :total, :fecha_creacion, :usuario_creacion_id) RETURNING id`, e)
	if err != nil {
		return uniforme.EntradaUniforme{}, errors.Wrap(err, "inserting entrada uniforme")
	}
	e.ID = id
	return e, nil
}

func (repo *uniformeRepository) UpdateEntrada(ctx context.Context, e uniforme.EntradaUniforme, exec ...core.DBExecutor) (uniforme.EntradaUniforme, error) {
	err := update(ctx, repo.getExec(exec), `
UPDATE entradas_uniforme SET
	fecha_entrada = :fecha_entrada, notas = :notas, total = :total, fecha_actualizacion = :fecha_actualizacion,
	usuario_actualizacion_id = :usuario_actualizacion_id, es_eliminado = :es_eliminado,
	motivo_eliminacion = :motivo_eliminacion, fecha_eliminacion = :fecha_eliminacion,
	usuario_eliminacion_id = :usuario_eliminacion_id
WHERE id = :id AND NOT es_eliminado`, e, uniforme.ErrEntradaEliminada)
	if err == uniforme.ErrEntradaEliminada {
		if _, getErr := repo.GetEntrada(ctx, e.ID, exec...); getErr != nil {
			return uniforme.EntradaUniforme{}, getErr
		}
		return uniforme.EntradaUniforme{}, err
	}
	if err != nil {
		return uniforme.EntradaUniforme{}, errors.Wrap(err, "updating entrada uniforme")
	}
	return e, nil
}

func (repo *uniformeRepository) CreateEntradaDetalle(ctx context.Context, d uniforme.EntradaDetalle, exec ...core.DBExecutor) (uniforme.EntradaDetalle, error) {
	id, err := insert(ctx, repo.getExec(exec), `
INSERT INTO entrada_uniforme_detalles (entrada_uniforme_id, prenda_uniforme_id, cantidad, subtotal)
VALUES (:entrada_uniforme_id, :prenda_uniforme_id, :cantidad, :subtotal) RETURNING id`, d)
	if err != nil {
		return uniforme.EntradaDetalle{}, errors.Wrap(err, "inserting entrada detalle")
	}
	d.ID = id
	return d, nil
}

func (repo *uniformeRepository) DeleteEntradaDetalles(ctx context.Context, entradaID int, exec ...core.DBExecutor) error {
	_, err := repo.getExec(exec).ExecContext(ctx, "DELETE FROM entrada_uniforme_detalles WHERE entrada_uniforme_id = $1", entradaID)
	return errors.Wrap(err, "deleting entrada detalles")
}

// Rubro uniforme detalles

func (repo *uniformeRepository) QueryRubroDetalles(ctx context.Context, filter uniforme.RubroDetalleFilter) ([]uniforme.RubroUniformeDetalle, error) {
	var c conditions
	if filter.OnlyActive {
		c.raw("NOT rd.es_eliminado")
	}
	if filter.RubroID > 0 {
		c.add("rd.rubro_id = ?", filter.RubroID)
	}
	if filter.PrendaID > 0 {
		c.add("rd.prenda_uniforme_id = ?", filter.PrendaID)
	}
	detalles := make([]uniforme.RubroUniformeDetalle, 0)
	q := rubroDetalleSelect + c.String() + " ORDER BY r.descripcion, p.descripcion, p.talla"
	if err := sqlx.SelectContext(ctx, repo.db, &detalles, q, c.args...); err != nil {
		return nil, errors.Wrap(err, "querying rubro uniforme detalles")
	}
	return detalles, nil
}

func (repo *uniformeRepository) GetRubroDetalle(ctx context.Context, id int, exec ...core.DBExecutor) (uniforme.RubroUniformeDetalle, error) {
	var d uniforme.RubroUniformeDetalle
	if err := sqlx.GetContext(ctx, repo.getExec(exec), &d, rubroDetalleSelect+" WHERE rd.id = $1", id); err != nil {
		return uniforme.RubroUniformeDetalle{}, trapNoRowsErr(err, uniforme.ErrRubroDetalleNotFound, "getting rubro uniforme detalle")
	}
	return d, nil
}

func (repo *uniformeRepository) RubroDetalleExists(ctx context.Context, rubroID, prendaID, excludedID int) (bool, error) {
	var exists bool
	q := `
SELECT EXISTS (
	SELECT 1 FROM rubro_uniforme_detalles
	WHERE rubro_id = $1 AND prenda_uniforme_id = $2 AND id <> $3 AND NOT es_eliminado
)`
	if err := sqlx.GetContext(ctx, repo.db, &exists, q, rubroID, prendaID, excludedID); err != nil {
		return false, errors.Wrap(err, "checking rubro uniforme detalle")
	}
	return exists, nil
}

func (repo *uniformeRepository) CreateRubroDetalle(ctx context.Context, d uniforme.RubroUniformeDetalle) (uniforme.RubroUniformeDetalle, error) {
	id, err := insert(ctx, repo.db, `
INSERT INTO rubro_uniforme_detalles (rubro_id, prenda_uniforme_id, fecha_creacion, usuario_creacion_id)
VALUES (:rubro_id, :prenda_uniforme_id, :fecha_creacion, :usuario_creacion_id) RETURNING id`, d)
	if err != nil {
		return uniforme.RubroUniformeDetalle{}, errors.Wrap(err, "inserting rubro uniforme detalle")
	}
	return repo.GetRubroDetalle(ctx, id)
}

func (repo *uniformeRepository) UpdateRubroDetalle(ctx context.Context, d uniforme.RubroUniformeDetalle) (uniforme.RubroUniformeDetalle, error) {
	err := update(ctx, repo.db, `
UPDATE rubro_uniforme_detalles SET
	rubro_id = :rubro_id, prenda_uniforme_id = :prenda_uniforme_id, fecha_actualizacion = :fecha_actualizacion,
	usuario_actualizacion_id = :usuario_actualizacion_id, es_eliminado = :es_eliminado,
	motivo_eliminacion = :motivo_eliminacion, fecha_eliminacion = :fecha_eliminacion,
	usuario_eliminacion_id = :usuario_eliminacion_id
WHERE id = :id`, d, uniforme.ErrRubroDetalleNotFound)
	if err != nil {
		return uniforme.RubroUniformeDetalle{}, trapNoRowsErr(err, uniforme.ErrRubroDetalleNotFound, "updating rubro uniforme detalle")
	}
	return repo.GetRubroDetalle(ctx, d.ID)
}
