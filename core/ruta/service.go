package ruta

import (
	"context"
	"errors"

	"github.com/manitascreativas/escuela/core"
	"github.com/manitascreativas/escuela/core/alumno"
	"github.com/manitascreativas/escuela/core/rubro"
)

var (
	// errors
	ErrNotFound  = core.NewNotFoundError("alumno ruta not found")
	ErrDuplicate = errors.New("This student is already assigned to this transport route.")
)

type (
	Repository interface {
		Get(ctx context.Context, alumnoID, rubroID int) (AlumnoRuta, error)
		QueryByAlumno(ctx context.Context, alumnoID int) ([]AlumnoRuta, error)
		// QueryByRuta orders the students by surname then name.
		QueryByRuta(ctx context.Context, rubroID int) ([]AlumnoRutaDetalle, error)
		Create(ctx context.Context, ar AlumnoRuta) (AlumnoRuta, error)
		Update(ctx context.Context, ar AlumnoRuta) (AlumnoRuta, error)
		Delete(ctx context.Context, alumnoID, rubroID int) error
	}

	Service struct {
		repo       Repository
		alumnoRepo alumno.Repository
		rubroRepo  rubro.Repository
	}
)

func NewService(repo Repository, alumnoRepo alumno.Repository, rubroRepo rubro.Repository) *Service {
	return &Service{repo: repo, alumnoRepo: alumnoRepo, rubroRepo: rubroRepo}
}

func notFound(alumnoID, rubroID int) error {
	return core.NewNotFoundError("AlumnoRuta with AlumnoId %d and RubroTransporteId %d not found.", alumnoID, rubroID)
}

func (svc *Service) Get(ctx context.Context, alumnoID, rubroID int) (AlumnoRuta, error) {
	ar, err := svc.repo.Get(ctx, alumnoID, rubroID)
	if err == ErrNotFound {
		return AlumnoRuta{}, notFound(alumnoID, rubroID)
	}
	return ar, err
}

func (svc *Service) ListByAlumno(ctx context.Context, alumnoID int) ([]AlumnoRuta, error) {
	return svc.repo.QueryByAlumno(ctx, alumnoID)
}

func (svc *Service) ListByRuta(ctx context.Context, rubroID int) ([]AlumnoRutaDetalle, error) {
	list, err := svc.repo.QueryByRuta(ctx, rubroID)
	if err != nil {
		return nil, err
	}
	for i := range list {
		list[i].AlumnoCompleto = core.JoinNonEmpty(list[i].AlumnoNombre, list[i].AlumnoApellidos)
	}
	return list, nil
}

func (svc *Service) Assign(ctx context.Context, data AlumnoRutaData) (AlumnoRuta, error) {
	if _, err := svc.alumnoRepo.GetByID(ctx, data.AlumnoID); err != nil {
		return AlumnoRuta{}, core.NotFoundWithID(err, "Alumno", data.AlumnoID)
	}
	r, err := svc.rubroRepo.GetByID(ctx, data.RubroTransporteID)
	if err != nil {
		return AlumnoRuta{}, core.NotFoundWithID(err, "Rubro", data.RubroTransporteID)
	}
	if !r.EsPagoDeTransporte {
		return AlumnoRuta{}, core.NewArgumentError("Rubro with ID %d is not a transport rubro", r.ID)
	}

	if _, err := svc.repo.Get(ctx, data.AlumnoID, data.RubroTransporteID); err == nil {
		return AlumnoRuta{}, core.NewValidationError(ErrDuplicate)
	} else if err != ErrNotFound {
		return AlumnoRuta{}, err
	}

	return svc.repo.Create(ctx, AlumnoRuta{
		AlumnoID:          data.AlumnoID,
		RubroTransporteID: data.RubroTransporteID,
		FechaInicio:       data.FechaInicio.UTC(),
		FechaFin:          nullTime(data.FechaFin),
	})
}

// Update only changes the assignment dates.
func (svc *Service) Update(ctx context.Context, alumnoID, rubroID int, data FechasData) (AlumnoRuta, error) {
	ar, err := svc.Get(ctx, alumnoID, rubroID)
	if err != nil {
		return AlumnoRuta{}, err
	}
	ar.FechaInicio = data.FechaInicio.UTC()
	ar.FechaFin = nullTime(data.FechaFin)
	return svc.repo.Update(ctx, ar)
}

func (svc *Service) Remove(ctx context.Context, alumnoID, rubroID int) error {
	if _, err := svc.Get(ctx, alumnoID, rubroID); err != nil {
		return err
	}
	return svc.repo.Delete(ctx, alumnoID, rubroID)
}
