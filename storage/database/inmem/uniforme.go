package inmemdb

import (
	"context"
	"sort"
	"strings"

	"github.com/manitascreativas/escuela/core"
	"github.com/manitascreativas/escuela/core/uniforme"
)

type uniformeRepository struct {
	db *DB
}

var _ uniforme.Repository = (*uniformeRepository)(nil) // interface compliance check

func NewUniformeRepository(db *DB) uniforme.Repository {
	return &uniformeRepository{db: db}
}

// Prendas

func (repo *uniformeRepository) QueryPrendas(_ context.Context, filter uniforme.PrendaFilter) ([]uniforme.PrendaUniforme, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	prendas := repo.db.prendas.filter(func(p uniforme.PrendaUniforme) bool {
		return (!filter.OnlyActive || !p.EsEliminado) &&
			(filter.Sexo == "" || strings.EqualFold(p.Sexo, filter.Sexo)) &&
			(filter.Talla == "" || strings.EqualFold(p.Talla, filter.Talla))
	})
	sort.SliceStable(prendas, func(i, j int) bool {
		if prendas[i].Descripcion != prendas[j].Descripcion {
			return prendas[i].Descripcion < prendas[j].Descripcion
		}
		return prendas[i].Talla < prendas[j].Talla
	})
	return prendas, nil
}

func (repo *uniformeRepository) GetPrenda(_ context.Context, id int, exec ...core.DBExecutor) (uniforme.PrendaUniforme, error) {
	defer repo.db.rlock(exec)()

	if p, ok := repo.db.prendas.get(id); ok {
		return p, nil
	}
	return uniforme.PrendaUniforme{}, uniforme.ErrPrendaNotFound
}

func (repo *uniformeRepository) PrendaExists(_ context.Context, id int) (bool, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	p, ok := repo.db.prendas.get(id)
	return ok && !p.EsEliminado, nil
}

func (repo *uniformeRepository) CreatePrenda(_ context.Context, p uniforme.PrendaUniforme, exec ...core.DBExecutor) (uniforme.PrendaUniforme, error) {
	defer repo.db.lock(exec)()

	p.ID = repo.db.prendas.nextID()
	p.ImagenesPrenda = nil
	repo.db.prendas.rows[p.ID] = p
	return p, nil
}

func (repo *uniformeRepository) UpdatePrenda(_ context.Context, p uniforme.PrendaUniforme, exec ...core.DBExecutor) (uniforme.PrendaUniforme, error) {
	defer repo.db.lock(exec)()

	stored, ok := repo.db.prendas.get(p.ID)
	if !ok {
		return uniforme.PrendaUniforme{}, uniforme.ErrPrendaNotFound
	}
	// stock counters only move through AddStock
	p.Entradas, p.Salidas = stored.Entradas, stored.Salidas
	p.ImagenesPrenda = nil
	repo.db.prendas.rows[p.ID] = p
	return p, nil
}

func (repo *uniformeRepository) AddStock(_ context.Context, id, entradas, salidas int, exec ...core.DBExecutor) error {
	defer repo.db.lock(exec)()

	p, ok := repo.db.prendas.get(id)
	if !ok {
		return uniforme.ErrPrendaNotFound
	}
	p.Entradas += entradas
	p.Salidas += salidas
	repo.db.prendas.rows[id] = p
	return nil
}

func (repo *uniformeRepository) QueryPrendaImagenes(_ context.Context, prendaIDs []int) ([]uniforme.PrendaImagen, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	ids := intSet(prendaIDs)
	return repo.db.prendaImagenes.filter(func(img uniforme.PrendaImagen) bool { return ids[img.PrendaUniformeID] }), nil
}

func (repo *uniformeRepository) CreatePrendaImagen(_ context.Context, img uniforme.PrendaImagen, exec ...core.DBExecutor) (uniforme.PrendaImagen, error) {
	defer repo.db.lock(exec)()

	img.ID = repo.db.prendaImagenes.nextID()
	repo.db.prendaImagenes.rows[img.ID] = img
	return img, nil
}

// Entradas

func (repo *uniformeRepository) QueryEntradas(_ context.Context, filter uniforme.EntradaFilter) ([]uniforme.EntradaUniforme, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	entradas := repo.db.entradas.filter(func(e uniforme.EntradaUniforme) bool {
		return (!filter.OnlyActive || !e.EsEliminado) &&
			(filter.UsuarioID == 0 || e.UsuarioCreacionID == filter.UsuarioID) &&
			(filter.From.IsZero() || !e.FechaEntrada.Before(filter.From)) &&
			(filter.To.IsZero() || !e.FechaEntrada.After(filter.To))
	})
	sort.SliceStable(entradas, func(i, j int) bool {
		if !entradas[i].FechaEntrada.Equal(entradas[j].FechaEntrada) {
			return entradas[i].FechaEntrada.After(entradas[j].FechaEntrada)
		}
		return entradas[i].ID > entradas[j].ID
	})
	return entradas, nil
}

func (repo *uniformeRepository) GetEntrada(_ context.Context, id int, exec ...core.DBExecutor) (uniforme.EntradaUniforme, error) {
	defer repo.db.rlock(exec)()

	if e, ok := repo.db.entradas.get(id); ok {
		return e, nil
	}
	return uniforme.EntradaUniforme{}, uniforme.ErrEntradaNotFound
}

func (repo *uniformeRepository) QueryEntradaDetalles(_ context.Context, entradaIDs []int, exec ...core.DBExecutor) ([]uniforme.EntradaDetalle, error) {
	defer repo.db.rlock(exec)()

	ids := intSet(entradaIDs)
	detalles := repo.db.entradaDets.filter(func(d uniforme.EntradaDetalle) bool { return ids[d.EntradaUniformeID] })
	for i, d := range detalles {
		if p, ok := repo.db.prendas.get(d.PrendaUniformeID); ok {
			detalles[i].PrendaUniformeDescripcion = p.Descripcion
			detalles[i].PrendaUniformeSexo = p.Sexo
			detalles[i].PrendaUniformeTalla = p.Talla
			detalles[i].PrendaUniformePrecio = p.Precio
		}
	}
	return detalles, nil
}

func (repo *uniformeRepository) CreateEntrada(_ context.Context, e uniforme.EntradaUniforme, exec ...core.DBExecutor) (uniforme.EntradaUniforme, error) {
	defer repo.db.lock(exec)()

	e.ID = repo.db.entradas.nextID()
	e.EntradaUniformeDetalles = nil
	repo.db.entradas.rows[e.ID] = e
	return e, nil
}

func (repo *uniformeRepository) UpdateEntrada(_ context.Context, e uniforme.EntradaUniforme, exec ...core.DBExecutor) (uniforme.EntradaUniforme, error) {
	defer repo.db.lock(exec)()

	stored, ok := repo.db.entradas.get(e.ID)
	if !ok {
		return uniforme.EntradaUniforme{}, uniforme.ErrEntradaNotFound
	}
	if stored.EsEliminado {
		return uniforme.EntradaUniforme{}, uniforme.ErrEntradaEliminada
	}
	e.EntradaUniformeDetalles = nil
	repo.db.entradas.rows[e.ID] = e
	return e, nil
}

func (repo *uniformeRepository) CreateEntradaDetalle(_ context.Context, d uniforme.EntradaDetalle, exec ...core.DBExecutor) (uniforme.EntradaDetalle, error) {
	defer repo.db.lock(exec)()

	d.ID = repo.db.entradaDets.nextID()
	repo.db.entradaDets.rows[d.ID] = d
	return d, nil
}

func (repo *uniformeRepository) DeleteEntradaDetalles(_ context.Context, entradaID int, exec ...core.DBExecutor) error {
	defer repo.db.lock(exec)()

	for id, d := range repo.db.entradaDets.rows {
		if d.EntradaUniformeID == entradaID {
			delete(repo.db.entradaDets.rows, id)
		}
	}
	return nil
}

// Rubro uniforme detalles

// rubroDetalle joins the rubro and garment data; the caller holds the lock.
func (repo *uniformeRepository) rubroDetalle(d uniforme.RubroUniformeDetalle) uniforme.RubroUniformeDetalle {
	if r, ok := repo.db.rubros.get(d.RubroID); ok {
		d.RubroDescripcion = r.Descripcion
	}
	if p, ok := repo.db.prendas.get(d.PrendaUniformeID); ok {
		d.PrendaDescripcion = p.Descripcion
		d.PrendaSexo = p.Sexo
		d.PrendaTalla = p.Talla
		d.PrendaPrecio = p.Precio
	}
	return d
}

func (repo *uniformeRepository) QueryRubroDetalles(_ context.Context, filter uniforme.RubroDetalleFilter) ([]uniforme.RubroUniformeDetalle, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	detalles := make([]uniforme.RubroUniformeDetalle, 0)
	for _, d := range repo.db.rubroDets.filter(func(d uniforme.RubroUniformeDetalle) bool {
		return (!filter.OnlyActive || !d.EsEliminado) &&
			(filter.RubroID == 0 || d.RubroID == filter.RubroID) &&
			(filter.PrendaID == 0 || d.PrendaUniformeID == filter.PrendaID)
	}) {
		detalles = append(detalles, repo.rubroDetalle(d))
	}
	sort.SliceStable(detalles, func(i, j int) bool {
		a, b := detalles[i], detalles[j]
		if a.RubroDescripcion != b.RubroDescripcion {
			return a.RubroDescripcion < b.RubroDescripcion
		}
		if a.PrendaDescripcion != b.PrendaDescripcion {
			return a.PrendaDescripcion < b.PrendaDescripcion
		}
		return a.PrendaTalla < b.PrendaTalla
	})
	return detalles, nil
}

func (repo *uniformeRepository) GetRubroDetalle(_ context.Context, id int, exec ...core.DBExecutor) (uniforme.RubroUniformeDetalle, error) {
	defer repo.db.rlock(exec)()

	if d, ok := repo.db.rubroDets.get(id); ok {
		return repo.rubroDetalle(d), nil
	}
	return uniforme.RubroUniformeDetalle{}, uniforme.ErrRubroDetalleNotFound
}

func (repo *uniformeRepository) RubroDetalleExists(_ context.Context, rubroID, prendaID, excludedID int) (bool, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	return repo.db.rubroDets.exists(func(d uniforme.RubroUniformeDetalle) bool {
		return d.ID != excludedID && !d.EsEliminado && d.RubroID == rubroID && d.PrendaUniformeID == prendaID
	}), nil
}

func (repo *uniformeRepository) CreateRubroDetalle(_ context.Context, d uniforme.RubroUniformeDetalle) (uniforme.RubroUniformeDetalle, error) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	d.ID = repo.db.rubroDets.nextID()
	repo.db.rubroDets.rows[d.ID] = d
	return repo.rubroDetalle(d), nil
}

func (repo *uniformeRepository) UpdateRubroDetalle(_ context.Context, d uniforme.RubroUniformeDetalle) (uniforme.RubroUniformeDetalle, error) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	if _, ok := repo.db.rubroDets.get(d.ID); !ok {
		return uniforme.RubroUniformeDetalle{}, uniforme.ErrRubroDetalleNotFound
	}
	repo.db.rubroDets.rows[d.ID] = d
	return repo.rubroDetalle(d), nil
}
