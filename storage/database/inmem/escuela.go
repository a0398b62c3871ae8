package inmemdb

import (
	"context"
	"errors"
	"sort"

	"github.com/manitascreativas/escuela/core"
	"github.com/manitascreativas/escuela/core/alumno"
	"github.com/manitascreativas/escuela/core/escuela"
	"github.com/manitascreativas/escuela/core/rubro"
)

var errInUse = core.NewValidationError(errors.New("the record is referenced by other records and cannot be deleted"))

type escuelaRepository struct {
	db *DB
}

var _ escuela.Repository = (*escuelaRepository)(nil) // interface compliance check

func NewEscuelaRepository(db *DB) escuela.Repository {
	return &escuelaRepository{db: db}
}

func (repo *escuelaRepository) QuerySedes(_ context.Context) ([]escuela.Sede, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	sedes := repo.db.sedes.all()
	sort.SliceStable(sedes, func(i, j int) bool { return sedes[i].Nombre < sedes[j].Nombre })
	return sedes, nil
}

func (repo *escuelaRepository) GetSede(_ context.Context, id int, exec ...core.DBExecutor) (escuela.Sede, error) {
	defer repo.db.rlock(exec)()

	if sede, ok := repo.db.sedes.get(id); ok {
		return sede, nil
	}
	return escuela.Sede{}, escuela.ErrSedeNotFound
}

func (repo *escuelaRepository) CreateSede(_ context.Context, sede escuela.Sede) (escuela.Sede, error) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	sede.ID = repo.db.sedes.nextID()
	repo.db.sedes.rows[sede.ID] = sede
	return sede, nil
}

func (repo *escuelaRepository) UpdateSede(_ context.Context, sede escuela.Sede) (escuela.Sede, error) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	if _, ok := repo.db.sedes.get(sede.ID); !ok {
		return escuela.Sede{}, escuela.ErrSedeNotFound
	}
	repo.db.sedes.rows[sede.ID] = sede
	return sede, nil
}

func (repo *escuelaRepository) DeleteSede(_ context.Context, id int) error {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	if _, ok := repo.db.sedes.get(id); !ok {
		return escuela.ErrSedeNotFound
	}
	if repo.db.alumnos.exists(func(a alumno.Alumno) bool { return a.SedeID == id }) {
		return errInUse
	}
	delete(repo.db.sedes.rows, id)
	return nil
}

func (repo *escuelaRepository) QueryNiveles(_ context.Context, onlyActive bool) ([]escuela.NivelEducativo, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	return repo.db.niveles.filter(func(n escuela.NivelEducativo) bool { return !onlyActive || n.Activo }), nil
}

func (repo *escuelaRepository) GetNivel(_ context.Context, id int, exec ...core.DBExecutor) (escuela.NivelEducativo, error) {
	defer repo.db.rlock(exec)()

	if nivel, ok := repo.db.niveles.get(id); ok {
		return nivel, nil
	}
	return escuela.NivelEducativo{}, escuela.ErrNivelNotFound
}

func (repo *escuelaRepository) CreateNivel(_ context.Context, nivel escuela.NivelEducativo) (escuela.NivelEducativo, error) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	nivel.ID = repo.db.niveles.nextID()
	repo.db.niveles.rows[nivel.ID] = nivel
	return nivel, nil
}

func (repo *escuelaRepository) UpdateNivel(_ context.Context, nivel escuela.NivelEducativo) (escuela.NivelEducativo, error) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	if _, ok := repo.db.niveles.get(nivel.ID); !ok {
		return escuela.NivelEducativo{}, escuela.ErrNivelNotFound
	}
	repo.db.niveles.rows[nivel.ID] = nivel
	return nivel, nil
}

func (repo *escuelaRepository) DeleteNivel(_ context.Context, id int) error {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	if _, ok := repo.db.niveles.get(id); !ok {
		return escuela.ErrNivelNotFound
	}
	if repo.db.grados.exists(func(g escuela.Grado) bool { return g.NivelEducativoID == id }) ||
		repo.db.rubros.exists(func(r rubro.Rubro) bool { return r.NivelEducativoID.Valid && r.NivelEducativoID.Int == id }) {
		return errInUse
	}
	delete(repo.db.niveles.rows, id)
	return nil
}

// grado joins the level name; the caller holds the lock.
func (repo *escuelaRepository) grado(g escuela.Grado) escuela.Grado {
	if nivel, ok := repo.db.niveles.get(g.NivelEducativoID); ok {
		g.NivelEducativoNombre = nivel.Nombre
	}
	return g
}

func (repo *escuelaRepository) QueryGrados(_ context.Context, nivelID int, onlyActive bool) ([]escuela.Grado, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	grados := make([]escuela.Grado, 0)
	for _, g := range repo.db.grados.all() {
		if nivelID > 0 && g.NivelEducativoID != nivelID {
			continue
		}
		if nivel, ok := repo.db.niveles.get(g.NivelEducativoID); onlyActive && (!ok || !nivel.Activo) {
			continue
		}
		grados = append(grados, repo.grado(g))
	}
	sort.SliceStable(grados, func(i, j int) bool { return grados[i].NivelEducativoID < grados[j].NivelEducativoID })
	return grados, nil
}

func (repo *escuelaRepository) GetGrado(_ context.Context, id int, exec ...core.DBExecutor) (escuela.Grado, error) {
	defer repo.db.rlock(exec)()

	if g, ok := repo.db.grados.get(id); ok {
		return repo.grado(g), nil
	}
	return escuela.Grado{}, escuela.ErrGradoNotFound
}

func (repo *escuelaRepository) CreateGrado(_ context.Context, grado escuela.Grado) (escuela.Grado, error) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	grado.ID = repo.db.grados.nextID()
	grado.NivelEducativoNombre = ""
	repo.db.grados.rows[grado.ID] = grado
	return repo.grado(grado), nil
}

func (repo *escuelaRepository) UpdateGrado(_ context.Context, grado escuela.Grado) (escuela.Grado, error) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	if _, ok := repo.db.grados.get(grado.ID); !ok {
		return escuela.Grado{}, escuela.ErrGradoNotFound
	}
	grado.NivelEducativoNombre = ""
	repo.db.grados.rows[grado.ID] = grado
	return repo.grado(grado), nil
}

func (repo *escuelaRepository) DeleteGrado(_ context.Context, id int) error {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	if _, ok := repo.db.grados.get(id); !ok {
		return escuela.ErrGradoNotFound
	}
	if repo.db.alumnos.exists(func(a alumno.Alumno) bool { return a.GradoID == id }) ||
		repo.db.rubros.exists(func(r rubro.Rubro) bool { return r.GradoID.Valid && r.GradoID.Int == id }) {
		return errInUse
	}
	delete(repo.db.grados.rows, id)
	return nil
}
