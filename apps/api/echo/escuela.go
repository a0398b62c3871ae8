package echoapi

import (
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/manitascreativas/escuela/core/escuela"
)

type escuelaApi struct {
	svc      *escuela.Service
	validate *validator.Validate
}

func registerEscuelaAPI(e *echo.Echo, jwt echo.MiddlewareFunc, deps ServerDeps) {
	api := escuelaApi{svc: deps.EscuelaSvc, validate: deps.Validate}

	sg := e.Group("/sedes", jwt)
	sg.GET("", api.querySedes)
	sg.POST("", api.createSede)
	sg.GET("/:id", api.retrieveSede)
	sg.PUT("/:id", api.updateSede)
	sg.DELETE("/:id", api.destroySede)

	ng := e.Group("/niveleseducativos", jwt)
	ng.GET("", api.queryNiveles)
	ng.GET("/activos", api.queryNivelesActivos)
	ng.POST("", api.createNivel)
	ng.GET("/:id", api.retrieveNivel)
	ng.PUT("/:id", api.updateNivel)
	ng.DELETE("/:id", api.destroyNivel)

	gg := e.Group("/api/grados", jwt)
	gg.GET("", api.queryGrados)
	gg.GET("/activos", api.queryGradosActivos)
	gg.GET("/nivel/:nivelId", api.queryGradosByNivel)
	gg.POST("", api.createGrado)
	gg.GET("/:id", api.retrieveGrado)
	gg.PUT("/:id", api.updateGrado)
	gg.DELETE("/:id", api.destroyGrado)
}

// Sedes

func (api *escuelaApi) querySedes(ctx echo.Context) error {
	sedes, err := api.svc.ListSedes(ctx.Request().Context())
	if err != nil {
		return errors.Wrap(err, "querying sedes")
	}
	return ctx.JSON(http.StatusOK, sedes)
}

func (api *escuelaApi) retrieveSede(ctx echo.Context) error {
	id, err := paramID(ctx, "id")
	if err != nil {
		return err
	}
	sede, err := api.svc.GetSede(ctx.Request().Context(), id)
	if err != nil {
		return errors.Wrap(err, "finding sede by ID")
	}
	return ctx.JSON(http.StatusOK, sede)
}

func (api *escuelaApi) createSede(ctx echo.Context) error {
	var data escuela.SedeData
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to SedeData")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}
	sede, err := api.svc.CreateSede(ctx.Request().Context(), data)
	if err != nil {
		return errors.Wrap(err, "creating sede")
	}
	return ctx.JSON(http.StatusCreated, sede)
}

func (api *escuelaApi) updateSede(ctx echo.Context) error {
	id, err := paramID(ctx, "id")
	if err != nil {
		return err
	}
	var data escuela.SedeData
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to SedeData")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}
	sede, err := api.svc.UpdateSede(ctx.Request().Context(), id, data)
	if err != nil {
		return errors.Wrap(err, "updating sede")
	}
	return ctx.JSON(http.StatusOK, sede)
}

func (api *escuelaApi) destroySede(ctx echo.Context) error {
	id, err := paramID(ctx, "id")
	if err != nil {
		return err
	}
	if err := api.svc.DeleteSede(ctx.Request().Context(), id); err != nil {
		return errors.Wrap(err, "deleting sede")
	}
	return ctx.NoContent(http.StatusNoContent)
}

// Niveles educativos

func (api *escuelaApi) queryNiveles(ctx echo.Context) error {
	niveles, err := api.svc.ListNiveles(ctx.Request().Context())
	if err != nil {
		return errors.Wrap(err, "querying niveles educativos")
	}
	return ctx.JSON(http.StatusOK, niveles)
}

func (api *escuelaApi) queryNivelesActivos(ctx echo.Context) error {
	niveles, err := api.svc.ListNivelesActivos(ctx.Request().Context())
	if err != nil {
		return errors.Wrap(err, "querying active niveles educativos")
	}
	return ctx.JSON(http.StatusOK, niveles)
}

func (api *escuelaApi) retrieveNivel(ctx echo.Context) error {
	id, err := paramID(ctx, "id")
	if err != nil {
		return err
	}
	nivel, err := api.svc.GetNivel(ctx.Request().Context(), id)
	if err != nil {
		return errors.Wrap(err, "finding nivel educativo by ID")
	}
	return ctx.JSON(http.StatusOK, nivel)
}

func (api *escuelaApi) createNivel(ctx echo.Context) error {
	var data escuela.NivelEducativoData
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NivelEducativoData")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}
	nivel, err := api.svc.CreateNivel(ctx.Request().Context(), data)
	if err != nil {
		return errors.Wrap(err, "creating nivel educativo")
	}
	return ctx.JSON(http.StatusCreated, nivel)
}

func (api *escuelaApi) updateNivel(ctx echo.Context) error {
	id, err := paramID(ctx, "id")
	if err != nil {
		return err
	}
	var data escuela.NivelEducativoData
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NivelEducativoData")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}
	nivel, err := api.svc.UpdateNivel(ctx.Request().Context(), id, data)
	if err != nil {
		return errors.Wrap(err, "updating nivel educativo")
	}
	return ctx.JSON(http.StatusOK, nivel)
}

func (api *escuelaApi) destroyNivel(ctx echo.Context) error {
	id, err := paramID(ctx, "id")
	if err != nil {
		return err
	}
	if err := api.svc.DeleteNivel(ctx.Request().Context(), id); err != nil {
		return errors.Wrap(err, "deleting nivel educativo")
	}
	return ctx.NoContent(http.StatusNoContent)
}

// Grados

func (api *escuelaApi) queryGrados(ctx echo.Context) error {
	grados, err := api.svc.ListGrados(ctx.Request().Context())
	if err != nil {
		return errors.Wrap(err, "querying grados")
	}
	return ctx.JSON(http.StatusOK, grados)
}

func (api *escuelaApi) queryGradosActivos(ctx echo.Context) error {
	grados, err := api.svc.ListGradosActivos(ctx.Request().Context())
	if err != nil {
		return errors.Wrap(err, "querying active grados")
	}
	return ctx.JSON(http.StatusOK, grados)
}

func (api *escuelaApi) queryGradosByNivel(ctx echo.Context) error {
	nivelID, err := paramID(ctx, "nivelId")
	if err != nil {
		return err
	}
	grados, err := api.svc.ListGradosByNivel(ctx.Request().Context(), nivelID)
	if err != nil {
		return errors.Wrap(err, "querying grados by nivel")
	}
	return ctx.JSON(http.StatusOK, grados)
}

func (api *escuelaApi) retrieveGrado(ctx echo.Context) error {
	id, err := paramID(ctx, "id")
	if err != nil {
		return err
	}
	grado, err := api.svc.GetGrado(ctx.Request().Context(), id)
	if err != nil {
		return errors.Wrap(err, "finding grado by ID")
	}
	return ctx.JSON(http.StatusOK, grado)
}

func (api *escuelaApi) createGrado(ctx echo.Context) error {
	var data escuela.GradoData
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to GradoData")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}
	grado, err := api.svc.CreateGrado(ctx.Request().Context(), data)
	if err != nil {
		return errors.Wrap(err, "creating grado")
	}
	return ctx.JSON(http.StatusCreated, grado)
}

func (api *escuelaApi) updateGrado(ctx echo.Context) error {
	id, err := paramID(ctx, "id")
	if err != nil {
		return err
	}
	var data escuela.GradoData
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to GradoData")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}
	grado, err := api.svc.UpdateGrado(ctx.Request().Context(), id, data)
	if err != nil {
		return errors.Wrap(err, "updating grado")
	}
	return ctx.JSON(http.StatusOK, grado)
}

func (api *escuelaApi) destroyGrado(ctx echo.Context) error {
	id, err := paramID(ctx, "id")
	if err != nil {
		return err
	}
	if err := api.svc.DeleteGrado(ctx.Request().Context(), id); err != nil {
		return errors.Wrap(err, "deleting grado")
	}
	return ctx.NoContent(http.StatusNoContent)
}
