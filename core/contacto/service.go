package contacto

import (
	"context"
	"errors"

	"github.com/manitascreativas/escuela/core"
	"github.com/manitascreativas/escuela/core/alumno"
)

var (
	// errors
	ErrNotFound     = core.NewNotFoundError("contacto not found")
	ErrLinkNotFound = core.NewNotFoundError("alumno contacto not found")
	ErrLinkExists   = errors.New("the contacto is already linked to this alumno")
)

type (
	Repository interface {
		QueryAll(ctx context.Context) ([]Contacto, error)
		GetByID(ctx context.Context, id int) (Contacto, error)
		Create(ctx context.Context, c Contacto) (Contacto, error)
		Update(ctx context.Context, c Contacto) (Contacto, error)
		Delete(ctx context.Context, id int) error

		QueryLinks(ctx context.Context, alumnoID int) ([]AlumnoContacto, error)
		GetLink(ctx context.Context, alumnoID, contactoID int) (AlumnoContacto, error)
		CreateLink(ctx context.Context, link AlumnoContacto) error
		UpdateLink(ctx context.Context, link AlumnoContacto) error
		DeleteLink(ctx context.Context, alumnoID, contactoID int) error
	}

	Service struct {
		repo       Repository
		alumnoRepo alumno.Repository
	}
)

func NewService(repo Repository, alumnoRepo alumno.Repository) *Service {
	return &Service{repo: repo, alumnoRepo: alumnoRepo}
}

func (svc *Service) List(ctx context.Context) ([]Contacto, error) {
	return svc.repo.QueryAll(ctx)
}

func (svc *Service) Get(ctx context.Context, id int) (Contacto, error) {
	c, err := svc.repo.GetByID(ctx, id)
	return c, core.NotFoundWithID(err, "Contacto", id)
}

func (svc *Service) Create(ctx context.Context, data ContactoData) (Contacto, error) {
	return svc.repo.Create(ctx, data.toContacto(0))
}

func (svc *Service) Update(ctx context.Context, id int, data ContactoData) (Contacto, error) {
	if _, err := svc.Get(ctx, id); err != nil {
		return Contacto{}, err
	}
	return svc.repo.Update(ctx, data.toContacto(id))
}

func (svc *Service) Delete(ctx context.Context, id int) error {
	if _, err := svc.Get(ctx, id); err != nil {
		return err
	}
	return svc.repo.Delete(ctx, id)
}

// Link attaches an existing contacto to an existing alumno.
func (svc *Service) Link(ctx context.Context, data LinkData) (AlumnoContacto, error) {
	if _, err := svc.alumnoRepo.GetByID(ctx, data.AlumnoID); err != nil {
		return AlumnoContacto{}, core.NotFoundWithID(err, "Alumno", data.AlumnoID)
	}
	c, err := svc.Get(ctx, data.ContactoID)
	if err != nil {
		return AlumnoContacto{}, err
	}

	_, err = svc.repo.GetLink(ctx, data.AlumnoID, data.ContactoID)
	if err == nil {
		return AlumnoContacto{}, core.NewValidationError(ErrLinkExists)
	} else if err != ErrLinkNotFound {
		return AlumnoContacto{}, err
	}

	link := AlumnoContacto{
		AlumnoID:   data.AlumnoID,
		ContactoID: data.ContactoID,
		Parentesco: data.Parentesco,
		Contacto:   c,
	}
	if err := svc.repo.CreateLink(ctx, link); err != nil {
		return AlumnoContacto{}, err
	}
	return link, nil
}

func (svc *Service) ListByAlumno(ctx context.Context, alumnoID int) ([]AlumnoContacto, error) {
	if _, err := svc.alumnoRepo.GetByID(ctx, alumnoID); err != nil {
		return nil, core.NotFoundWithID(err, "Alumno", alumnoID)
	}
	return svc.repo.QueryLinks(ctx, alumnoID)
}

func (svc *Service) getLink(ctx context.Context, alumnoID, contactoID int) (AlumnoContacto, error) {
	link, err := svc.repo.GetLink(ctx, alumnoID, contactoID)
	if err == ErrLinkNotFound {
		return AlumnoContacto{}, core.NewNotFoundError("AlumnoContacto with AlumnoId %d and ContactoId %d not found.", alumnoID, contactoID)
	}
	return link, err
}

func (svc *Service) UpdateParentesco(ctx context.Context, alumnoID, contactoID int, data ParentescoData) (AlumnoContacto, error) {
	link, err := svc.getLink(ctx, alumnoID, contactoID)
	if err != nil {
		return AlumnoContacto{}, err
	}
	link.Parentesco = data.Parentesco
	if err := svc.repo.UpdateLink(ctx, link); err != nil {
		return AlumnoContacto{}, err
	}
	return link, nil
}

func (svc *Service) Unlink(ctx context.Context, alumnoID, contactoID int) error {
	if _, err := svc.getLink(ctx, alumnoID, contactoID); err != nil {
		return err
	}
	return svc.repo.DeleteLink(ctx, alumnoID, contactoID)
}
