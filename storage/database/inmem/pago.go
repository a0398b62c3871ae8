package inmemdb

import (
	"context"
	"sort"

	"github.com/manitascreativas/escuela/core"
	"github.com/manitascreativas/escuela/core/pago"
)

type pagoRepository struct {
	db *DB
}

var _ pago.Repository = (*pagoRepository)(nil) // interface compliance check

func NewPagoRepository(db *DB) pago.Repository {
	return &pagoRepository{db: db}
}

func (repo *pagoRepository) GetByID(_ context.Context, id int, exec ...core.DBExecutor) (pago.Pago, error) {
	defer repo.db.rlock(exec)()

	if p, ok := repo.db.pagos.get(id); ok {
		return p, nil
	}
	return pago.Pago{}, pago.ErrNotFound
}

func (repo *pagoRepository) Create(_ context.Context, p pago.Pago, exec ...core.DBExecutor) (pago.Pago, error) {
	defer repo.db.lock(exec)()

	p.ID = repo.db.pagos.nextID()
	p.ImagenesPago, p.PagoDetalles = nil, nil
	repo.db.pagos.rows[p.ID] = p
	return p, nil
}

func (repo *pagoRepository) Update(_ context.Context, p pago.Pago, exec ...core.DBExecutor) (pago.Pago, error) {
	defer repo.db.lock(exec)()

	stored, ok := repo.db.pagos.get(p.ID)
	if !ok {
		return pago.Pago{}, pago.ErrNotFound
	}
	if stored.EsAnulado {
		return pago.Pago{}, pago.ErrAnulado
	}
	p.ImagenesPago, p.PagoDetalles = nil, nil
	repo.db.pagos.rows[p.ID] = p
	return p, nil
}

// read joins the names of the payment references; the caller holds the lock.
func (repo *pagoRepository) read(p pago.Pago) pago.PagoRead {
	pr := pago.PagoRead{Pago: p}
	if a, ok := repo.db.alumnos.get(p.AlumnoID); ok {
		pr.AlumnoCodigo = a.Codigo
		pr.AlumnoNombre = a.FullName()
		pr.GradoID = a.GradoID
		pr.Seccion = a.Seccion.String
		if g, ok := repo.db.grados.get(a.GradoID); ok {
			pr.GradoNombre = g.Nombre
		}
		if s, ok := repo.db.sedes.get(a.SedeID); ok {
			pr.SedeNombre = s.Nombre
		}
	}
	if r, ok := repo.db.rubros.get(p.RubroID); ok {
		pr.RubroDescripcion = r.Descripcion
		pr.TipoRubro = r.Tipo
	}
	if u, ok := repo.db.usuarios.get(p.UsuarioCreacionID); ok {
		pr.UsuarioNombre = u.FullName()
	}
	return pr
}

func (repo *pagoRepository) GetRead(_ context.Context, id int) (pago.PagoRead, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	p, ok := repo.db.pagos.get(id)
	if !ok {
		return pago.PagoRead{}, pago.ErrNotFound
	}
	return repo.read(p), nil
}

func (repo *pagoRepository) QueryRead(_ context.Context, filter pago.ReadFilter) ([]pago.PagoRead, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	pagos := make([]pago.PagoRead, 0)
	for _, p := range repo.db.pagos.all() {
		pr := repo.read(p)
		if (filter.CicloEscolar > 0 && p.CicloEscolar != filter.CicloEscolar) ||
			(filter.GradoID > 0 && pr.GradoID != filter.GradoID) ||
			(filter.AlumnoID > 0 && p.AlumnoID != filter.AlumnoID) ||
			(filter.RubroID > 0 && p.RubroID != filter.RubroID) {
			continue
		}
		pagos = append(pagos, pr)
	}
	sort.SliceStable(pagos, func(i, j int) bool {
		if filter.NewestFirst {
			i, j = j, i
		}
		if !pagos[i].Fecha.Equal(pagos[j].Fecha) {
			return pagos[i].Fecha.Before(pagos[j].Fecha)
		}
		return pagos[i].ID < pagos[j].ID
	})
	return pagos, nil
}

func (repo *pagoRepository) QueryImagenes(_ context.Context, pagoIDs []int) ([]pago.PagoImagen, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	ids := intSet(pagoIDs)
	return repo.db.pagoImagenes.filter(func(img pago.PagoImagen) bool {
		return ids[img.PagoID] && !img.EsImagenEliminada
	}), nil
}

func (repo *pagoRepository) CreateImagen(_ context.Context, img pago.PagoImagen, exec ...core.DBExecutor) (pago.PagoImagen, error) {
	defer repo.db.lock(exec)()

	img.ID = repo.db.pagoImagenes.nextID()
	repo.db.pagoImagenes.rows[img.ID] = img
	return img, nil
}

func (repo *pagoRepository) MarkImagenesEliminadas(_ context.Context, ids []int) (int, error) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	var n int
	for _, id := range ids {
		if img, ok := repo.db.pagoImagenes.get(id); ok && !img.EsImagenEliminada {
			img.EsImagenEliminada = true
			repo.db.pagoImagenes.rows[id] = img
			n++
		}
	}
	return n, nil
}

func (repo *pagoRepository) QueryDetalles(_ context.Context, pagoIDs []int, exec ...core.DBExecutor) ([]pago.PagoDetalle, error) {
	defer repo.db.rlock(exec)()

	ids := intSet(pagoIDs)
	detalles := repo.db.pagoDetalles.filter(func(d pago.PagoDetalle) bool { return ids[d.PagoID] })
	for i, d := range detalles {
		if rd, ok := repo.db.rubroDets.get(d.RubroUniformeDetalleID); ok {
			detalles[i].PrendaUniformeID = rd.PrendaUniformeID
			if p, ok := repo.db.prendas.get(rd.PrendaUniformeID); ok {
				detalles[i].PrendaDescripcion = p.Descripcion
			}
		}
	}
	return detalles, nil
}

func (repo *pagoRepository) CreateDetalle(_ context.Context, d pago.PagoDetalle, exec ...core.DBExecutor) (pago.PagoDetalle, error) {
	defer repo.db.lock(exec)()

	d.ID = repo.db.pagoDetalles.nextID()
	repo.db.pagoDetalles.rows[d.ID] = d
	return d, nil
}

func (repo *pagoRepository) DeleteDetalles(_ context.Context, pagoID int, exec ...core.DBExecutor) error {
	defer repo.db.lock(exec)()

	for id, d := range repo.db.pagoDetalles.rows {
		if d.PagoID == pagoID {
			delete(repo.db.pagoDetalles.rows, id)
		}
	}
	return nil
}

func intSet(ids []int) map[int]bool {
	set := make(map[int]bool, len(ids))
	for _, id := range ids {
		set[id] = true
	}
	return set
}
