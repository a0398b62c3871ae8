package inmemdb

import (
	"context"
	"sort"

	"github.com/manitascreativas/escuela/core"
	"github.com/manitascreativas/escuela/core/pago"
	"github.com/manitascreativas/escuela/core/rubro"
)

type rubroRepository struct {
	db *DB
}

var _ rubro.Repository = (*rubroRepository)(nil) // interface compliance check

func NewRubroRepository(db *DB) rubro.Repository {
	return &rubroRepository{db: db}
}

func (repo *rubroRepository) QueryAll(_ context.Context, onlyActive bool) ([]rubro.Rubro, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	rubros := repo.db.rubros.filter(func(r rubro.Rubro) bool { return !onlyActive || r.Activo })
	sort.SliceStable(rubros, func(i, j int) bool {
		a, b := rubros[i].OrdenVisualizacionGrid, rubros[j].OrdenVisualizacionGrid
		switch {
		case a.Valid && b.Valid && a.Int != b.Int:
			return a.Int < b.Int
		case a.Valid != b.Valid:
			return a.Valid
		}
		return rubros[i].Descripcion < rubros[j].Descripcion
	})
	return rubros, nil
}

func (repo *rubroRepository) GetByID(_ context.Context, id int, exec ...core.DBExecutor) (rubro.Rubro, error) {
	defer repo.db.rlock(exec)()

	if r, ok := repo.db.rubros.get(id); ok {
		return r, nil
	}
	return rubro.Rubro{}, rubro.ErrNotFound
}

func (repo *rubroRepository) Create(_ context.Context, r rubro.Rubro) (rubro.Rubro, error) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	r.ID = repo.db.rubros.nextID()
	repo.db.rubros.rows[r.ID] = r
	return r, nil
}

func (repo *rubroRepository) Update(_ context.Context, r rubro.Rubro) (rubro.Rubro, error) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	if _, ok := repo.db.rubros.get(r.ID); !ok {
		return rubro.Rubro{}, rubro.ErrNotFound
	}
	repo.db.rubros.rows[r.ID] = r
	return r, nil
}

func (repo *rubroRepository) Delete(_ context.Context, id int) error {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	if _, ok := repo.db.rubros.get(id); !ok {
		return rubro.ErrNotFound
	}
	if repo.db.pagos.exists(func(p pago.Pago) bool { return p.RubroID == id }) {
		return errInUse
	}
	delete(repo.db.rubros.rows, id)
	return nil
}

func (repo *rubroRepository) CountPagos(_ context.Context, id int) (int, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	return len(repo.db.pagos.filter(func(p pago.Pago) bool { return p.RubroID == id })), nil
}
