package alumno

import (
	"context"
	"errors"
	"time"

	"github.com/volatiletech/null/v8"

	"github.com/manitascreativas/escuela/core"
	"github.com/manitascreativas/escuela/core/escuela"
)

var (
	// errors
	ErrNotFound     = core.NewNotFoundError("alumno not found")
	ErrCodigoExists = errors.New("an alumno with this codigo already exists")
	errEmptySearch  = errors.New("nombre or apellido is required")
)

type (
	Repository interface {
		QueryAll(ctx context.Context, ordering []core.DBOrdering) ([]Alumno, error)
		// QueryFull returns the students with their sede, grado and level names, without contacts.
		QueryFull(ctx context.Context) ([]AlumnoFull, error)
		QueryContactos(ctx context.Context) ([]ContactoResumen, error)
		// Search does a case-insensitive match of nombre on the name parts and of apellido on the surname parts.
		Search(ctx context.Context, filter SearchFilter) ([]Alumno, error)
		GetByID(ctx context.Context, id int, exec ...core.DBExecutor) (Alumno, error)
		GetByCodigo(ctx context.Context, codigo string) (Alumno, error)
		CodigoExists(ctx context.Context, codigo string, excludedID int) (bool, error)
		Create(ctx context.Context, a Alumno) (Alumno, error)
		Update(ctx context.Context, a Alumno) (Alumno, error)
		Delete(ctx context.Context, id int) error
	}

	Service struct {
		repo        Repository
		escuelaRepo escuela.Repository
	}
)

func NewService(repo Repository, escuelaRepo escuela.Repository) *Service {
	return &Service{repo: repo, escuelaRepo: escuelaRepo}
}

func (svc *Service) List(ctx context.Context, ordering []core.DBOrdering) ([]Alumno, error) {
	return svc.repo.QueryAll(ctx, ordering)
}

func (svc *Service) ListFull(ctx context.Context) ([]AlumnoFull, error) {
	alumnos, err := svc.repo.QueryFull(ctx)
	if err != nil {
		return nil, err
	}
	contactos, err := svc.repo.QueryContactos(ctx)
	if err != nil {
		return nil, err
	}
	byAlumno := make(map[int][]ContactoResumen)
	for _, c := range contactos {
		byAlumno[c.AlumnoID] = append(byAlumno[c.AlumnoID], c)
	}
	for i := range alumnos {
		alumnos[i].Contactos = byAlumno[alumnos[i].ID]
		if alumnos[i].Contactos == nil {
			alumnos[i].Contactos = []ContactoResumen{}
		}
	}
	return alumnos, nil
}

func (svc *Service) Get(ctx context.Context, id int) (Alumno, error) {
	a, err := svc.repo.GetByID(ctx, id)
	return a, core.NotFoundWithID(err, "Alumno", id)
}

func (svc *Service) GetByCodigo(ctx context.Context, codigo string) (Alumno, error) {
	a, err := svc.repo.GetByCodigo(ctx, core.CleanString(codigo))
	if err == ErrNotFound {
		return Alumno{}, core.NewNotFoundError("Alumno with codigo %s not found.", codigo)
	}
	return a, err
}

func (svc *Service) Search(ctx context.Context, filter SearchFilter) ([]Alumno, error) {
	filter.Clean()
	if filter.IsEmpty() {
		return nil, core.NewValidationError(errEmptySearch)
	}
	return svc.repo.Search(ctx, filter)
}

// checkRelations verifies the uniqueness of the codigo and the existence of the sede and the grado.
func (svc *Service) checkRelations(ctx context.Context, data AlumnoData, excludedID int) error {
	exists, err := svc.repo.CodigoExists(ctx, data.Codigo, excludedID)
	if err != nil {
		return err
	}
	if exists {
		return core.NewValidationError(ErrCodigoExists, core.FieldError{Field: "codigo", Error: ErrCodigoExists.Error()})
	}
	if _, err := svc.escuelaRepo.GetSede(ctx, data.SedeID); err != nil {
		if err == escuela.ErrSedeNotFound {
			return core.NewValidationError(nil, core.FieldError{Field: "sedeId", Error: "Sede not found"})
		}
		return err
	}
	if _, err := svc.escuelaRepo.GetGrado(ctx, data.GradoID); err != nil {
		if err == escuela.ErrGradoNotFound {
			return core.NewValidationError(nil, core.FieldError{Field: "gradoId", Error: "Grado not found"})
		}
		return err
	}
	return nil
}

// applyData copies `data` on `a`, then stamps the exit dates of the new estado.
func applyData(a *Alumno, data AlumnoData, now time.Time) {
	a.Codigo = data.Codigo
	a.PrimerNombre = data.PrimerNombre
	a.SegundoNombre = null.NewString(data.SegundoNombre, data.SegundoNombre != "")
	a.TercerNombre = null.NewString(data.TercerNombre, data.TercerNombre != "")
	a.PrimerApellido = data.PrimerApellido
	a.SegundoApellido = null.NewString(data.SegundoApellido, data.SegundoApellido != "")
	a.SedeID = data.SedeID
	a.GradoID = data.GradoID
	a.Seccion = null.NewString(data.Seccion, data.Seccion != "")
	a.Becado = data.Becado
	a.BecaParcialPorcentaje.Valid = data.Becado && data.BecaParcialPorcentaje != nil
	if a.BecaParcialPorcentaje.Valid {
		a.BecaParcialPorcentaje.Decimal = *data.BecaParcialPorcentaje
	}
	a.Observaciones = null.NewString(data.Observaciones, data.Observaciones != "")
	a.Direccion = null.NewString(data.Direccion, data.Direccion != "")
	if data.Estado != 0 {
		a.Estado = data.Estado
	} else if a.Estado == 0 {
		a.Estado = EstadoActivo
	}

	if data.FechaRetiro != nil {
		a.FechaRetiro = null.TimeFrom(data.FechaRetiro.UTC())
	}
	if data.FechaTraslado != nil {
		a.FechaTraslado = null.TimeFrom(data.FechaTraslado.UTC())
	}
	switch a.Estado {
	case EstadoRetirado:
		if !a.FechaRetiro.Valid {
			a.FechaRetiro = null.TimeFrom(now)
		}
	case EstadoTrasladado:
		if !a.FechaTraslado.Valid {
			a.FechaTraslado = null.TimeFrom(now)
		}
	}
}

func (svc *Service) Create(ctx context.Context, data AlumnoData, usuarioID int) (Alumno, error) {
	if err := svc.checkRelations(ctx, data, 0); err != nil {
		return Alumno{}, err
	}
	now := time.Now().UTC()
	a := Alumno{FechaCreacion: now, UsuarioCreacionID: usuarioID}
	applyData(&a, data, now)
	return svc.repo.Create(ctx, a)
}

func (svc *Service) Update(ctx context.Context, id int, data AlumnoData, usuarioID int) (Alumno, error) {
	a, err := svc.Get(ctx, id)
	if err != nil {
		return Alumno{}, err
	}
	if err := svc.checkRelations(ctx, data, id); err != nil {
		return Alumno{}, err
	}
	now := time.Now().UTC()
	applyData(&a, data, now)
	a.FechaActualizacion = null.TimeFrom(now)
	a.UsuarioActualizacionID = null.IntFrom(usuarioID)
	return svc.repo.Update(ctx, a)
}

func (svc *Service) Delete(ctx context.Context, id int) error {
	if _, err := svc.Get(ctx, id); err != nil {
		return err
	}
	return svc.repo.Delete(ctx, id)
}
