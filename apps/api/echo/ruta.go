package echoapi

import (
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/manitascreativas/escuela/core/ruta"
)

type rutaApi struct {
	svc      *ruta.Service
	validate *validator.Validate
}

func registerRutaAPI(e *echo.Echo, jwt echo.MiddlewareFunc, deps ServerDeps) {
	api := rutaApi{svc: deps.RutaSvc, validate: deps.Validate}

	// the /alumnos group belongs to alumnoApi; a second group on the same prefix would shadow its routes
	e.POST("/alumnos/rutas", api.assign, jwt)
	e.GET("/alumnos/rutas/by-route/:rubroId", api.queryByRuta, jwt)
	e.GET("/alumnos/:id/rutas", api.queryByAlumno, jwt)
	e.GET("/alumnos/:id/rutas/:rubroId", api.retrieve, jwt)
	e.PUT("/alumnos/:id/rutas/:rubroId", api.update, jwt)
	e.DELETE("/alumnos/:id/rutas/:rubroId", api.remove, jwt)
}

func (api *rutaApi) assign(ctx echo.Context) error {
	var data ruta.AlumnoRutaData
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to AlumnoRutaData")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}
	ar, err := api.svc.Assign(ctx.Request().Context(), data)
	if err != nil {
		return errors.Wrap(err, "assigning ruta")
	}
	return ctx.JSON(http.StatusCreated, ar)
}

func (api *rutaApi) queryByRuta(ctx echo.Context) error {
	rubroID, err := paramID(ctx, "rubroId")
	if err != nil {
		return err
	}
	list, err := api.svc.ListByRuta(ctx.Request().Context(), rubroID)
	if err != nil {
		return errors.Wrap(err, "querying alumnos by ruta")
	}
	return ctx.JSON(http.StatusOK, list)
}

func (api *rutaApi) queryByAlumno(ctx echo.Context) error {
	alumnoID, err := paramID(ctx, "id")
	if err != nil {
		return err
	}
	list, err := api.svc.ListByAlumno(ctx.Request().Context(), alumnoID)
	if err != nil {
		return errors.Wrap(err, "querying rutas by alumno")
	}
	return ctx.JSON(http.StatusOK, list)
}

// keys parses the alumno and rubro ids of an assignment route.
func (api *rutaApi) keys(ctx echo.Context) (int, int, error) {
	alumnoID, err := paramID(ctx, "id")
	if err != nil {
		return 0, 0, err
	}
	rubroID, err := paramID(ctx, "rubroId")
	if err != nil {
		return 0, 0, err
	}
	return alumnoID, rubroID, nil
}

func (api *rutaApi) retrieve(ctx echo.Context) error {
	alumnoID, rubroID, err := api.keys(ctx)
	if err != nil {
		return err
	}
	ar, err := api.svc.Get(ctx.Request().Context(), alumnoID, rubroID)
	if err != nil {
		return errors.Wrap(err, "finding ruta assignment")
	}
	return ctx.JSON(http.StatusOK, ar)
}

func (api *rutaApi) update(ctx echo.Context) error {
	alumnoID, rubroID, err := api.keys(ctx)
	if err != nil {
		return err
	}
	var data ruta.FechasData
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to FechasData")
	}
	if err := data.Validate(); err != nil {
		return err
	}
	ar, err := api.svc.Update(ctx.Request().Context(), alumnoID, rubroID, data)
	if err != nil {
		return errors.Wrap(err, "updating ruta assignment")
	}
	return ctx.JSON(http.StatusOK, ar)
}

func (api *rutaApi) remove(ctx echo.Context) error {
	alumnoID, rubroID, err := api.keys(ctx)
	if err != nil {
		return err
	}
	if err := api.svc.Remove(ctx.Request().Context(), alumnoID, rubroID); err != nil {
		return errors.Wrap(err, "removing ruta assignment")
	}
	return ctx.NoContent(http.StatusNoContent)
}
