package inmemdb

import (
	"context"
	"sort"

	"github.com/manitascreativas/escuela/core"
	"github.com/manitascreativas/escuela/core/ruta"
)

type rutaRepository struct {
	db *DB
}

var _ ruta.Repository = (*rutaRepository)(nil) // interface compliance check

func NewRutaRepository(db *DB) ruta.Repository {
	return &rutaRepository{db: db}
}

// find returns the assignment of the student to the route; the caller holds the lock.
func (repo *rutaRepository) find(alumnoID, rubroID int) (ruta.AlumnoRuta, bool) {
	for _, ar := range repo.db.rutas.rows {
		if ar.AlumnoID == alumnoID && ar.RubroTransporteID == rubroID {
			return ar, true
		}
	}
	return ruta.AlumnoRuta{}, false
}

func (repo *rutaRepository) Get(_ context.Context, alumnoID, rubroID int) (ruta.AlumnoRuta, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	if ar, ok := repo.find(alumnoID, rubroID); ok {
		return ar, nil
	}
	return ruta.AlumnoRuta{}, ruta.ErrNotFound
}

func (repo *rutaRepository) QueryByAlumno(_ context.Context, alumnoID int) ([]ruta.AlumnoRuta, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	rutas := repo.db.rutas.filter(func(ar ruta.AlumnoRuta) bool { return ar.AlumnoID == alumnoID })
	sort.SliceStable(rutas, func(i, j int) bool { return rutas[i].FechaInicio.Before(rutas[j].FechaInicio) })
	return rutas, nil
}

func (repo *rutaRepository) QueryByRuta(_ context.Context, rubroID int) ([]ruta.AlumnoRutaDetalle, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	type sortable struct {
		detalle           ruta.AlumnoRutaDetalle
		apellido, nombre1 string
	}
	list := make([]sortable, 0)
	for _, ar := range repo.db.rutas.filter(func(ar ruta.AlumnoRuta) bool { return ar.RubroTransporteID == rubroID }) {
		a, ok := repo.db.alumnos.get(ar.AlumnoID)
		if !ok {
			continue
		}
		d := ruta.AlumnoRutaDetalle{
			AlumnoRuta:      ar,
			AlumnoNombre:    core.JoinNonEmpty(a.PrimerNombre, a.SegundoNombre.String, a.TercerNombre.String),
			AlumnoApellidos: core.JoinNonEmpty(a.PrimerApellido, a.SegundoApellido.String),
			Seccion:         a.Seccion.String,
		}
		if g, ok := repo.db.grados.get(a.GradoID); ok {
			d.Grado = g.Nombre
		}
		if s, ok := repo.db.sedes.get(a.SedeID); ok {
			d.Sede = s.Nombre
		}
		list = append(list, sortable{detalle: d, apellido: d.AlumnoApellidos, nombre1: a.PrimerNombre})
	}
	sort.SliceStable(list, func(i, j int) bool {
		if list[i].apellido != list[j].apellido {
			return list[i].apellido < list[j].apellido
		}
		return list[i].nombre1 < list[j].nombre1
	})

	rutas := make([]ruta.AlumnoRutaDetalle, 0, len(list))
	for _, s := range list {
		rutas = append(rutas, s.detalle)
	}
	return rutas, nil
}

func (repo *rutaRepository) Create(_ context.Context, ar ruta.AlumnoRuta) (ruta.AlumnoRuta, error) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	if _, ok := repo.find(ar.AlumnoID, ar.RubroTransporteID); ok {
		return ruta.AlumnoRuta{}, core.NewValidationError(ruta.ErrDuplicate)
	}
	ar.ID = repo.db.rutas.nextID()
	repo.db.rutas.rows[ar.ID] = ar
	return ar, nil
}

func (repo *rutaRepository) Update(_ context.Context, ar ruta.AlumnoRuta) (ruta.AlumnoRuta, error) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	stored, ok := repo.find(ar.AlumnoID, ar.RubroTransporteID)
	if !ok {
		return ruta.AlumnoRuta{}, ruta.ErrNotFound
	}
	stored.FechaInicio = ar.FechaInicio
	stored.FechaFin = ar.FechaFin
	repo.db.rutas.rows[stored.ID] = stored
	return stored, nil
}

func (repo *rutaRepository) Delete(_ context.Context, alumnoID, rubroID int) error {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	ar, ok := repo.find(alumnoID, rubroID)
	if !ok {
		return ruta.ErrNotFound
	}
	delete(repo.db.rutas.rows, ar.ID)
	return nil
}
