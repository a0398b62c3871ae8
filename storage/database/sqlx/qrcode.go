package sqlxrepos

import (
	"context"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"

	"github.com/manitascreativas/escuela/core/qrcode"
)

const (
	qrColumns    = "q.id, q.token_unico, q.fecha_creacion, q.fecha_expiracion, q.esta_usado, q.pago_id"
	qrInfoSelect = "SELECT " + qrColumns + `,
	concat_ws(' ', a.primer_nombre, a.primer_apellido) AS alumno_nombre, r.descripcion AS rubro_descripcion,
	p.monto AS monto_pago, p.fecha AS fecha_pago, p.ciclo_escolar, p.mes_colegiatura, p.anio_colegiatura,
	p.es_anulado AS pago_anulado
FROM codigos_qr_pagos q
JOIN pagos p ON p.id = q.pago_id
JOIN alumnos a ON a.id = p.alumno_id
JOIN rubros r ON r.id = p.rubro_id`
)

type qrcodeRepository struct {
	repository
}

var _ qrcode.Repository = (*qrcodeRepository)(nil) // interface compliance check

func NewQRCodeRepository(db *sqlx.DB) qrcode.Repository {
	return &qrcodeRepository{repository{db: db}}
}

func (repo *qrcodeRepository) GetByPago(ctx context.Context, pagoID int) (qrcode.CodigoQR, error) {
	var code qrcode.CodigoQR
	if err := sqlx.GetContext(ctx, repo.db, &code, "SELECT "+qrColumns+" FROM codigos_qr_pagos q WHERE q.pago_id = $1", pagoID); err != nil {
		return qrcode.CodigoQR{}, trapNoRowsErr(err, qrcode.ErrNotFound, "getting qr code by pago")
	}
	return code, nil
}

func (repo *qrcodeRepository) GetInfo(ctx context.Context, token string) (qrcode.Info, error) {
	var info qrcode.Info
	if err := sqlx.GetContext(ctx, repo.db, &info, qrInfoSelect+" WHERE q.token_unico = $1", token); err != nil {
		return qrcode.Info{}, trapNoRowsErr(err, qrcode.ErrNotFound, "getting qr code")
	}
	return info, nil
}

func (repo *qrcodeRepository) GetInfoByPago(ctx context.Context, pagoID int) (qrcode.Info, error) {
	var info qrcode.Info
	if err := sqlx.GetContext(ctx, repo.db, &info, qrInfoSelect+" WHERE q.pago_id = $1", pagoID); err != nil {
		return qrcode.Info{}, trapNoRowsErr(err, qrcode.ErrNotFound, "getting qr code by pago")
	}
	return info, nil
}

func (repo *qrcodeRepository) Create(ctx context.Context, code qrcode.CodigoQR) (qrcode.CodigoQR, error) {
	id, err := insert(ctx, repo.db, `
INSERT INTO codigos_qr_pagos (token_unico, fecha_creacion, fecha_expiracion, esta_usado, pago_id)
VALUES (:token_unico, :fecha_creacion, :fecha_expiracion, :esta_usado, :pago_id) RETURNING id`, code)
	if isUniqueViolation(err, "codigos_qr_pagos_pago_id_key") {
		return qrcode.CodigoQR{}, qrcode.ErrPagoHasCode
	}
	if err != nil {
		return qrcode.CodigoQR{}, errors.Wrap(err, "inserting qr code")
	}
	code.ID = id
	return code, nil
}

func (repo *qrcodeRepository) MarkUsed(ctx context.Context, id int) (bool, error) {
	res, err := repo.db.ExecContext(ctx, "UPDATE codigos_qr_pagos SET esta_usado = TRUE WHERE id = $1 AND NOT esta_usado", id)
	if err != nil {
		return false, errors.Wrap(err, "marking qr code as used")
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, errors.Wrap(err, "marking qr code as used")
	}
	return n == 1, nil
}

func (repo *qrcodeRepository) DeleteExpired(ctx context.Context, now time.Time) (int, error) {
	res, err := repo.db.ExecContext(ctx, "DELETE FROM codigos_qr_pagos WHERE fecha_expiracion < $1", now)
	if err != nil {
		return 0, errors.Wrap(err, "deleting expired qr codes")
	}
	n, err := res.RowsAffected()
	return int(n), errors.Wrap(err, "deleting expired qr codes")
}
