package inmemdb

import (
	"context"
	"sort"
	"strings"

	"github.com/manitascreativas/escuela/core"
	"github.com/manitascreativas/escuela/core/alumno"
	"github.com/manitascreativas/escuela/core/pago"
)

var alumnoLess = map[string]func(a, b alumno.Alumno) bool{
	"id":             func(a, b alumno.Alumno) bool { return a.ID < b.ID },
	"codigo":         func(a, b alumno.Alumno) bool { return a.Codigo < b.Codigo },
	"primerNombre":   func(a, b alumno.Alumno) bool { return a.PrimerNombre < b.PrimerNombre },
	"primerApellido": func(a, b alumno.Alumno) bool { return a.PrimerApellido < b.PrimerApellido },
	"gradoId":        func(a, b alumno.Alumno) bool { return a.GradoID < b.GradoID },
	"sedeId":         func(a, b alumno.Alumno) bool { return a.SedeID < b.SedeID },
	"fechaCreacion":  func(a, b alumno.Alumno) bool { return a.FechaCreacion.Before(b.FechaCreacion) },
}

type alumnoRepository struct {
	db *DB
}

var _ alumno.Repository = (*alumnoRepository)(nil) // interface compliance check

func NewAlumnoRepository(db *DB) alumno.Repository {
	return &alumnoRepository{db: db}
}

func sortAlumnos(alumnos []alumno.Alumno) {
	sort.SliceStable(alumnos, func(i, j int) bool {
		if alumnos[i].PrimerApellido != alumnos[j].PrimerApellido {
			return alumnos[i].PrimerApellido < alumnos[j].PrimerApellido
		}
		return alumnos[i].PrimerNombre < alumnos[j].PrimerNombre
	})
}

func (repo *alumnoRepository) QueryAll(_ context.Context, ordering []core.DBOrdering) ([]alumno.Alumno, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	alumnos := repo.db.alumnos.all()
	sortAlumnos(alumnos)
	for i := len(ordering) - 1; i >= 0; i-- {
		ord := ordering[i]
		if less, ok := alumnoLess[ord.Field]; ok {
			sort.SliceStable(alumnos, func(i, j int) bool {
				if ord.Ascending {
					return less(alumnos[i], alumnos[j])
				}
				return less(alumnos[j], alumnos[i])
			})
		}
	}
	return alumnos, nil
}

func (repo *alumnoRepository) QueryFull(_ context.Context) ([]alumno.AlumnoFull, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	alumnos := repo.db.alumnos.all()
	sortAlumnos(alumnos)
	full := make([]alumno.AlumnoFull, 0, len(alumnos))
	for _, a := range alumnos {
		af := alumno.AlumnoFull{Alumno: a}
		if sede, ok := repo.db.sedes.get(a.SedeID); ok {
			af.SedeNombre = sede.Nombre
		}
		if grado, ok := repo.db.grados.get(a.GradoID); ok {
			af.GradoNombre = grado.Nombre
			af.NivelEducativoID = grado.NivelEducativoID
			if nivel, ok := repo.db.niveles.get(grado.NivelEducativoID); ok {
				af.NivelEducativoNombre = nivel.Nombre
			}
		}
		full = append(full, af)
	}
	return full, nil
}

func (repo *alumnoRepository) QueryContactos(_ context.Context) ([]alumno.ContactoResumen, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	contactos := make([]alumno.ContactoResumen, 0)
	for _, link := range repo.db.links.all() {
		c, ok := repo.db.contactos.get(link.ContactoID)
		if !ok {
			continue
		}
		contactos = append(contactos, alumno.ContactoResumen{
			AlumnoID:   link.AlumnoID,
			ContactoID: c.ID,
			Nombre:     c.Nombre,
			Parentesco: link.Parentesco,
			Celular:    c.Celular,
			Email:      c.Email,
			Nit:        c.Nit,
		})
	}
	sort.SliceStable(contactos, func(i, j int) bool {
		if contactos[i].AlumnoID != contactos[j].AlumnoID {
			return contactos[i].AlumnoID < contactos[j].AlumnoID
		}
		return contactos[i].Nombre < contactos[j].Nombre
	})
	return contactos, nil
}

func containsFold(s, substr string) bool {
	return strings.Contains(strings.ToLower(s), strings.ToLower(substr))
}

func (repo *alumnoRepository) Search(_ context.Context, filter alumno.SearchFilter) ([]alumno.Alumno, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	alumnos := repo.db.alumnos.filter(func(a alumno.Alumno) bool {
		if filter.Nombre != "" && !containsFold(a.PrimerNombre, filter.Nombre) &&
			!containsFold(a.SegundoNombre.String, filter.Nombre) && !containsFold(a.TercerNombre.String, filter.Nombre) {
			return false
		}
		if filter.Apellido != "" && !containsFold(a.PrimerApellido, filter.Apellido) &&
			!containsFold(a.SegundoApellido.String, filter.Apellido) {
			return false
		}
		return true
	})
	sortAlumnos(alumnos)
	return alumnos, nil
}

func (repo *alumnoRepository) GetByID(_ context.Context, id int, exec ...core.DBExecutor) (alumno.Alumno, error) {
	defer repo.db.rlock(exec)()

	if a, ok := repo.db.alumnos.get(id); ok {
		return a, nil
	}
	return alumno.Alumno{}, alumno.ErrNotFound
}

func (repo *alumnoRepository) GetByCodigo(_ context.Context, codigo string) (alumno.Alumno, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	found := repo.db.alumnos.filter(func(a alumno.Alumno) bool { return strings.EqualFold(a.Codigo, codigo) })
	if len(found) == 0 {
		return alumno.Alumno{}, alumno.ErrNotFound
	}
	return found[0], nil
}

func (repo *alumnoRepository) CodigoExists(_ context.Context, codigo string, excludedID int) (bool, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	return repo.db.alumnos.exists(func(a alumno.Alumno) bool {
		return a.ID != excludedID && strings.EqualFold(a.Codigo, codigo)
	}), nil
}

func (repo *alumnoRepository) Create(_ context.Context, a alumno.Alumno) (alumno.Alumno, error) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	a.ID = repo.db.alumnos.nextID()
	repo.db.alumnos.rows[a.ID] = a
	return a, nil
}

func (repo *alumnoRepository) Update(_ context.Context, a alumno.Alumno) (alumno.Alumno, error) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	if _, ok := repo.db.alumnos.get(a.ID); !ok {
		return alumno.Alumno{}, alumno.ErrNotFound
	}
	repo.db.alumnos.rows[a.ID] = a
	return a, nil
}

func (repo *alumnoRepository) Delete(_ context.Context, id int) error {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	if _, ok := repo.db.alumnos.get(id); !ok {
		return alumno.ErrNotFound
	}
	if repo.db.pagos.exists(func(p pago.Pago) bool { return p.AlumnoID == id }) {
		return errInUse
	}
	delete(repo.db.alumnos.rows, id)
	// cascades
	for lid, link := range repo.db.links.rows {
		if link.AlumnoID == id {
			delete(repo.db.links.rows, lid)
		}
	}
	for rid, r := range repo.db.rutas.rows {
		if r.AlumnoID == id {
			delete(repo.db.rutas.rows, rid)
		}
	}
	return nil
}
