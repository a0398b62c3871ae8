package escuela

import (
	"context"

	"github.com/volatiletech/null/v8"

	"github.com/manitascreativas/escuela/core"
)

var (
	// errors
	ErrSedeNotFound  = core.NewNotFoundError("sede not found")
	ErrNivelNotFound = core.NewNotFoundError("nivel educativo not found")
	ErrGradoNotFound = core.NewNotFoundError("grado not found")
)

type (
	Repository interface {
		QuerySedes(ctx context.Context) ([]Sede, error)
		GetSede(ctx context.Context, id int, exec ...core.DBExecutor) (Sede, error)
		CreateSede(ctx context.Context, sede Sede) (Sede, error)
		UpdateSede(ctx context.Context, sede Sede) (Sede, error)
		DeleteSede(ctx context.Context, id int) error

		// QueryNiveles returns every level, or only the active ones.
		QueryNiveles(ctx context.Context, onlyActive bool) ([]NivelEducativo, error)
		GetNivel(ctx context.Context, id int, exec ...core.DBExecutor) (NivelEducativo, error)
		CreateNivel(ctx context.Context, nivel NivelEducativo) (NivelEducativo, error)
		UpdateNivel(ctx context.Context, nivel NivelEducativo) (NivelEducativo, error)
		DeleteNivel(ctx context.Context, id int) error

		// QueryGrados filters on the level when nivelID > 0; onlyActive keeps grades of active levels.
		QueryGrados(ctx context.Context, nivelID int, onlyActive bool) ([]Grado, error)
		GetGrado(ctx context.Context, id int, exec ...core.DBExecutor) (Grado, error)
		CreateGrado(ctx context.Context, grado Grado) (Grado, error)
		UpdateGrado(ctx context.Context, grado Grado) (Grado, error)
		DeleteGrado(ctx context.Context, id int) error
	}

	Service struct {
		repo Repository
	}
)

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// Sedes

func (svc *Service) ListSedes(ctx context.Context) ([]Sede, error) {
	return svc.repo.QuerySedes(ctx)
}

func (svc *Service) GetSede(ctx context.Context, id int) (Sede, error) {
	sede, err := svc.repo.GetSede(ctx, id)
	return sede, core.NotFoundWithID(err, "Sede", id)
}

func (svc *Service) CreateSede(ctx context.Context, data SedeData) (Sede, error) {
	return svc.repo.CreateSede(ctx, Sede{
		Nombre:    data.Nombre,
		Direccion: null.NewString(data.Direccion, data.Direccion != ""),
	})
}

func (svc *Service) UpdateSede(ctx context.Context, id int, data SedeData) (Sede, error) {
	sede, err := svc.GetSede(ctx, id)
	if err != nil {
		return Sede{}, err
	}
	sede.Nombre = data.Nombre
	sede.Direccion = null.NewString(data.Direccion, data.Direccion != "")
	return svc.repo.UpdateSede(ctx, sede)
}

func (svc *Service) DeleteSede(ctx context.Context, id int) error {
	if _, err := svc.GetSede(ctx, id); err != nil {
		return err
	}
	return svc.repo.DeleteSede(ctx, id)
}

// Niveles educativos

func (svc *Service) ListNiveles(ctx context.Context) ([]NivelEducativo, error) {
	return svc.repo.QueryNiveles(ctx, false)
}

func (svc *Service) ListNivelesActivos(ctx context.Context) ([]NivelEducativo, error) {
	return svc.repo.QueryNiveles(ctx, true)
}

func (svc *Service) GetNivel(ctx context.Context, id int) (NivelEducativo, error) {
	nivel, err := svc.repo.GetNivel(ctx, id)
	return nivel, core.NotFoundWithID(err, "NivelEducativo", id)
}

func (svc *Service) CreateNivel(ctx context.Context, data NivelEducativoData) (NivelEducativo, error) {
	nivel := NivelEducativo{Nombre: data.Nombre, Activo: true}
	if data.Activo != nil {
		nivel.Activo = *data.Activo
	}
	return svc.repo.CreateNivel(ctx, nivel)
}

func (svc *Service) UpdateNivel(ctx context.Context, id int, data NivelEducativoData) (NivelEducativo, error) {
	nivel, err := svc.GetNivel(ctx, id)
	if err != nil {
		return NivelEducativo{}, err
	}
	nivel.Nombre = data.Nombre
	if data.Activo != nil {
		nivel.Activo = *data.Activo
	}
	return svc.repo.UpdateNivel(ctx, nivel)
}

func (svc *Service) DeleteNivel(ctx context.Context, id int) error {
	if _, err := svc.GetNivel(ctx, id); err != nil {
		return err
	}
	return svc.repo.DeleteNivel(ctx, id)
}

// Grados

func (svc *Service) ListGrados(ctx context.Context) ([]Grado, error) {
	return svc.repo.QueryGrados(ctx, 0, false)
}

func (svc *Service) ListGradosActivos(ctx context.Context) ([]Grado, error) {
	return svc.repo.QueryGrados(ctx, 0, true)
}

func (svc *Service) ListGradosByNivel(ctx context.Context, nivelID int) ([]Grado, error) {
	if _, err := svc.GetNivel(ctx, nivelID); err != nil {
		return nil, err
	}
	return svc.repo.QueryGrados(ctx, nivelID, false)
}

func (svc *Service) GetGrado(ctx context.Context, id int) (Grado, error) {
	grado, err := svc.repo.GetGrado(ctx, id)
	return grado, core.NotFoundWithID(err, "Grado", id)
}

func (svc *Service) checkNivel(ctx context.Context, nivelID int) error {
	if _, err := svc.repo.GetNivel(ctx, nivelID); err != nil {
		if err == ErrNivelNotFound {
			return core.NewValidationError(nil, core.FieldError{
				Field: "nivelEducativoId",
				Error: "NivelEducativo not found",
			})
		}
		return err
	}
	return nil
}

func (svc *Service) CreateGrado(ctx context.Context, data GradoData) (Grado, error) {
	if err := svc.checkNivel(ctx, data.NivelEducativoID); err != nil {
		return Grado{}, err
	}
	return svc.repo.CreateGrado(ctx, Grado{
		Nombre:           data.Nombre,
		Descripcion:      null.NewString(data.Descripcion, data.Descripcion != ""),
		NivelEducativoID: data.NivelEducativoID,
	})
}

func (svc *Service) UpdateGrado(ctx context.Context, id int, data GradoData) (Grado, error) {
	grado, err := svc.GetGrado(ctx, id)
	if err != nil {
		return Grado{}, err
	}
	if err := svc.checkNivel(ctx, data.NivelEducativoID); err != nil {
		return Grado{}, err
	}
	grado.Nombre = data.Nombre
	grado.Descripcion = null.NewString(data.Descripcion, data.Descripcion != "")
	grado.NivelEducativoID = data.NivelEducativoID
	return svc.repo.UpdateGrado(ctx, grado)
}

func (svc *Service) DeleteGrado(ctx context.Context, id int) error {
	if _, err := svc.GetGrado(ctx, id); err != nil {
		return err
	}
	return svc.repo.DeleteGrado(ctx, id)
}
