package inmemdb

import (
	"context"
	"time"

	"github.com/manitascreativas/escuela/core/qrcode"
)

type qrcodeRepository struct {
	db *DB
}

var _ qrcode.Repository = (*qrcodeRepository)(nil) // interface compliance check

func NewQRCodeRepository(db *DB) qrcode.Repository {
	return &qrcodeRepository{db: db}
}

// find returns the first code accepted by `match`; the caller holds the lock.
func (repo *qrcodeRepository) find(match func(qrcode.CodigoQR) bool) (qrcode.CodigoQR, bool) {
	found := repo.db.qrcodes.filter(match)
	if len(found) == 0 {
		return qrcode.CodigoQR{}, false
	}
	return found[0], true
}

// info joins the payment data; the caller holds the lock.
func (repo *qrcodeRepository) info(code qrcode.CodigoQR) qrcode.Info {
	info := qrcode.Info{CodigoQR: code}
	p, ok := repo.db.pagos.get(code.PagoID)
	if !ok {
		return info
	}
	info.MontoPago = p.Monto
	info.FechaPago = p.Fecha
	info.CicloEscolar = p.CicloEscolar
	info.MesColegiatura = p.MesColegiatura
	info.AnioColegiatura = p.AnioColegiatura
	info.PagoAnulado = p.EsAnulado
	if a, ok := repo.db.alumnos.get(p.AlumnoID); ok {
		info.AlumnoNombre = a.PrimerNombre + " " + a.PrimerApellido
	}
	if r, ok := repo.db.rubros.get(p.RubroID); ok {
		info.RubroDescripcion = r.Descripcion
	}
	return info
}

func (repo *qrcodeRepository) GetByPago(_ context.Context, pagoID int) (qrcode.CodigoQR, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	if code, ok := repo.find(func(c qrcode.CodigoQR) bool { return c.PagoID == pagoID }); ok {
		return code, nil
	}
	return qrcode.CodigoQR{}, qrcode.ErrNotFound
}

func (repo *qrcodeRepository) GetInfo(_ context.Context, token string) (qrcode.Info, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	if code, ok := repo.find(func(c qrcode.CodigoQR) bool { return c.TokenUnico == token }); ok {
		return repo.info(code), nil
	}
	return qrcode.Info{}, qrcode.ErrNotFound
}

func (repo *qrcodeRepository) GetInfoByPago(_ context.Context, pagoID int) (qrcode.Info, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	if code, ok := repo.find(func(c qrcode.CodigoQR) bool { return c.PagoID == pagoID }); ok {
		return repo.info(code), nil
	}
	return qrcode.Info{}, qrcode.ErrNotFound
}

func (repo *qrcodeRepository) Create(_ context.Context, code qrcode.CodigoQR) (qrcode.CodigoQR, error) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	if repo.db.qrcodes.exists(func(c qrcode.CodigoQR) bool { return c.PagoID == code.PagoID }) {
		return qrcode.CodigoQR{}, qrcode.ErrPagoHasCode
	}
	code.ID = repo.db.qrcodes.nextID()
	repo.db.qrcodes.rows[code.ID] = code
	return code, nil
}

func (repo *qrcodeRepository) MarkUsed(_ context.Context, id int) (bool, error) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	code, ok := repo.db.qrcodes.get(id)
	if !ok || code.EstaUsado {
		return false, nil
	}
	code.EstaUsado = true
	repo.db.qrcodes.rows[id] = code
	return true, nil
}

func (repo *qrcodeRepository) DeleteExpired(_ context.Context, now time.Time) (int, error) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	var n int
	for id, code := range repo.db.qrcodes.rows {
		if code.FechaExpiracion.Before(now) {
			delete(repo.db.qrcodes.rows, id)
			n++
		}
	}
	return n, nil
}
