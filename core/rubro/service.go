package rubro

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
	ErrNotFound  = core.NewNotFoundError("rubro not found")
	ErrHasPagos  = errors.New("cannot delete a rubro with registered payments")
	errNivelGone = "NivelEducativo not found"
	errGradoGone = "Grado not found"
)

type (
	Repository interface {
		// QueryAll orders the rubros by ordenVisualizacionGrid (nulls last) then descripcion.
		QueryAll(ctx context.Context, onlyActive bool) ([]Rubro, error)
		GetByID(ctx context.Context, id int, exec ...core.DBExecutor) (Rubro, error)
		Create(ctx context.Context, r Rubro) (Rubro, error)
		Update(ctx context.Context, r Rubro) (Rubro, error)
		Delete(ctx context.Context, id int) error
		// CountPagos counts every payment registered against the rubro, voided ones included.
		CountPagos(ctx context.Context, id int) (int, error)
	}

	Service struct {
		repo        Repository
		escuelaRepo escuela.Repository
	}
)

func NewService(repo Repository, escuelaRepo escuela.Repository) *Service {
	return &Service{repo: repo, escuelaRepo: escuelaRepo}
}

func (svc *Service) List(ctx context.Context) ([]Rubro, error) {
	return svc.repo.QueryAll(ctx, false)
}

func (svc *Service) ListActive(ctx context.Context) ([]Rubro, error) {
	return svc.repo.QueryAll(ctx, true)
}

func (svc *Service) Get(ctx context.Context, id int) (Rubro, error) {
	r, err := svc.repo.GetByID(ctx, id)
	return r, core.NotFoundWithID(err, "Rubro", id)
}

func (svc *Service) checkRelations(ctx context.Context, data RubroData) error {
	if data.NivelEducativoID != nil {
		if _, err := svc.escuelaRepo.GetNivel(ctx, *data.NivelEducativoID); err != nil {
			if err == escuela.ErrNivelNotFound {
				return core.NewValidationError(nil, core.FieldError{Field: "nivelEducativoId", Error: errNivelGone})
			}
			return err
		}
	}
	if data.GradoID != nil {
		if _, err := svc.escuelaRepo.GetGrado(ctx, *data.GradoID); err != nil {
			if err == escuela.ErrGradoNotFound {
				return core.NewValidationError(nil, core.FieldError{Field: "gradoId", Error: errGradoGone})
			}
			return err
		}
	}
	return nil
}

func (svc *Service) Create(ctx context.Context, data RubroData, usuarioID int) (Rubro, error) {
	if err := svc.checkRelations(ctx, data); err != nil {
		return Rubro{}, err
	}
	r := Rubro{FechaCreacion: time.Now().UTC(), UsuarioCreacionID: usuarioID}
	applyData(&r, data)
	return svc.repo.Create(ctx, r)
}

func (svc *Service) Update(ctx context.Context, id int, data RubroData, usuarioID int) (Rubro, error) {
	r, err := svc.Get(ctx, id)
	if err != nil {
		return Rubro{}, err
	}
	if err := svc.checkRelations(ctx, data); err != nil {
		return Rubro{}, err
	}
	applyData(&r, data)
	r.FechaActualizacion = null.TimeFrom(time.Now().UTC())
	r.UsuarioActualizacionID = null.IntFrom(usuarioID)
	return svc.repo.Update(ctx, r)
}

func (svc *Service) PagosCount(ctx context.Context, id int) (int, error) {
	if _, err := svc.Get(ctx, id); err != nil {
		return 0, err
	}
	return svc.repo.CountPagos(ctx, id)
}

// CanDelete reports whether the rubro has no payments.
func (svc *Service) CanDelete(ctx context.Context, id int) (bool, error) {
	count, err := svc.PagosCount(ctx, id)
	if err != nil {
		return false, err
	}
	return count == 0, nil
}

func (svc *Service) Delete(ctx context.Context, id int) error {
	ok, err := svc.CanDelete(ctx, id)
	if err != nil {
		return err
	}
	if !ok {
		return core.NewValidationError(ErrHasPagos)
	}
	return svc.repo.Delete(ctx, id)
}
