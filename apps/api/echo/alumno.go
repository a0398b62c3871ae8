package echoapi

import (
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/manitascreativas/escuela/core/alumno"
	"github.com/manitascreativas/escuela/core/pago"
)

type alumnoApi struct {
	svc      *alumno.Service
	pagoSvc  *pago.Service
	auth     *authenticator
	validate *validator.Validate
}

func registerAlumnoAPI(e *echo.Echo, jwt echo.MiddlewareFunc, auth *authenticator, deps ServerDeps) {
	api := alumnoApi{
		svc:      deps.AlumnoSvc,
		pagoSvc:  deps.PagoSvc,
		auth:     auth,
		validate: deps.Validate,
	}

	g := e.Group("/alumnos", jwt)
	g.GET("", api.query)
	g.POST("", api.create)
	g.GET("/full", api.queryFull)
	g.GET("/search", api.search)
	g.GET("/codigo/:codigo", api.retrieveByCodigo)
	g.GET("/:id", api.retrieve)
	g.PUT("/:id", api.update)
	g.DELETE("/:id", api.destroy)
	g.GET("/:id/pagos", api.queryPagos)
	g.GET("/:id/statement", api.statement)
}

func (api *alumnoApi) query(ctx echo.Context) error {
	ordering := new(Ordering)
	ordering.Bind(ctx)

	alumnos, err := api.svc.List(ctx.Request().Context(), ordering.Orderings)
	if err != nil {
		return errors.Wrap(err, "querying alumnos")
	}
	return ctx.JSON(http.StatusOK, alumnos)
}

func (api *alumnoApi) queryFull(ctx echo.Context) error {
	alumnos, err := api.svc.ListFull(ctx.Request().Context())
	if err != nil {
		return errors.Wrap(err, "querying alumnos with relations")
	}
	return ctx.JSON(http.StatusOK, alumnos)
}

func (api *alumnoApi) search(ctx echo.Context) error {
	filter := alumno.SearchFilter{
		Nombre:   ctx.QueryParam("nombre"),
		Apellido: ctx.QueryParam("apellido"),
	}
	alumnos, err := api.svc.Search(ctx.Request().Context(), filter)
	if err != nil {
		return errors.Wrap(err, "searching alumnos")
	}
	return ctx.JSON(http.StatusOK, alumnos)
}

func (api *alumnoApi) retrieveByCodigo(ctx echo.Context) error {
	a, err := api.svc.GetByCodigo(ctx.Request().Context(), ctx.Param("codigo"))
	if err != nil {
		return errors.Wrap(err, "finding alumno by codigo")
	}
	return ctx.JSON(http.StatusOK, a)
}

func (api *alumnoApi) retrieve(ctx echo.Context) error {
	id, err := paramID(ctx, "id")
	if err != nil {
		return err
	}
	a, err := api.svc.Get(ctx.Request().Context(), id)
	if err != nil {
		return errors.Wrap(err, "finding alumno by ID")
	}
	return ctx.JSON(http.StatusOK, a)
}

func (api *alumnoApi) create(ctx echo.Context) error {
	usuarioID, err := api.auth.contextUsuarioID(ctx)
	if err != nil {
		return err
	}

	var data alumno.AlumnoData
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to AlumnoData")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	a, err := api.svc.Create(ctx.Request().Context(), data, usuarioID)
	if err != nil {
		return errors.Wrap(err, "creating alumno")
	}
	return ctx.JSON(http.StatusCreated, a)
}

func (api *alumnoApi) update(ctx echo.Context) error {
	id, err := paramID(ctx, "id")
	if err != nil {
		return err
	}
	usuarioID, err := api.auth.contextUsuarioID(ctx)
	if err != nil {
		return err
	}

	var data alumno.AlumnoData
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to AlumnoData")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	a, err := api.svc.Update(ctx.Request().Context(), id, data, usuarioID)
	if err != nil {
		return errors.Wrap(err, "updating alumno")
	}
	return ctx.JSON(http.StatusOK, a)
}

func (api *alumnoApi) destroy(ctx echo.Context) error {
	id, err := paramID(ctx, "id")
	if err != nil {
		return err
	}
	if err := api.svc.Delete(ctx.Request().Context(), id); err != nil {
		return errors.Wrap(err, "deleting alumno")
	}
	return ctx.NoContent(http.StatusNoContent)
}

func (api *alumnoApi) queryPagos(ctx echo.Context) error {
	id, err := paramID(ctx, "id")
	if err != nil {
		return err
	}
	reqCtx := ctx.Request().Context()
	if _, err := api.svc.Get(reqCtx, id); err != nil {
		return errors.Wrap(err, "finding alumno by ID")
	}
	pagos, err := api.pagoSvc.ListByAlumno(reqCtx, id)
	if err != nil {
		return errors.Wrap(err, "querying pagos by alumno")
	}
	return ctx.JSON(http.StatusOK, pagos)
}

func (api *alumnoApi) statement(ctx echo.Context) error {
	id, err := paramID(ctx, "id")
	if err != nil {
		return err
	}
	reqCtx := ctx.Request().Context()
	if _, err := api.svc.Get(reqCtx, id); err != nil {
		return errors.Wrap(err, "finding alumno by ID")
	}
	pagos, err := api.pagoSvc.Statement(reqCtx, id)
	if err != nil {
		return errors.Wrap(err, "building alumno statement")
	}
	return ctx.JSON(http.StatusOK, pagos)
}
