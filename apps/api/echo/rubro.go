package echoapi

import (
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/manitascreativas/escuela/core/pago"
	"github.com/manitascreativas/escuela/core/rubro"
)

type rubroApi struct {
	svc      *rubro.Service
	pagoSvc  *pago.Service
	auth     *authenticator
	validate *validator.Validate
}

func registerRubroAPI(e *echo.Echo, jwt echo.MiddlewareFunc, auth *authenticator, deps ServerDeps) {
	api := rubroApi{
		svc:      deps.RubroSvc,
		pagoSvc:  deps.PagoSvc,
		auth:     auth,
		validate: deps.Validate,
	}

	e.GET("/rubrosactivos", api.queryActive, jwt)

	g := e.Group("/rubros", jwt)
	g.GET("", api.query)
	g.POST("", api.create)
	g.GET("/:id", api.retrieve)
	g.PUT("/:id", api.update)
	g.DELETE("/:id", api.destroy)
	g.GET("/:id/pagos", api.queryPagos)
	g.GET("/:id/pagoscount", api.pagosCount)
	g.GET("/:id/candelete", api.canDelete)
}

type (
	CountResponse struct {
		Count int `json:"count"`
	}

	CanDeleteResponse struct {
		CanDelete bool `json:"canDelete"`
	}
)

func (api *rubroApi) query(ctx echo.Context) error {
	rubros, err := api.svc.List(ctx.Request().Context())
	if err != nil {
		return errors.Wrap(err, "querying rubros")
	}
	return ctx.JSON(http.StatusOK, rubros)
}

func (api *rubroApi) queryActive(ctx echo.Context) error {
	rubros, err := api.svc.ListActive(ctx.Request().Context())
	if err != nil {
		return errors.Wrap(err, "querying active rubros")
	}
	return ctx.JSON(http.StatusOK, rubros)
}

func (api *rubroApi) retrieve(ctx echo.Context) error {
	id, err := paramID(ctx, "id")
	if err != nil {
		return err
	}
	r, err := api.svc.Get(ctx.Request().Context(), id)
	if err != nil {
		return errors.Wrap(err, "finding rubro by ID")
	}
	return ctx.JSON(http.StatusOK, r)
}

func (api *rubroApi) create(ctx echo.Context) error {
	usuarioID, err := api.auth.contextUsuarioID(ctx)
	if err != nil {
		return err
	}
	var data rubro.RubroData
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to RubroData")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}
	r, err := api.svc.Create(ctx.Request().Context(), data, usuarioID)
	if err != nil {
		return errors.Wrap(err, "creating rubro")
	}
	return ctx.JSON(http.StatusCreated, r)
}

func (api *rubroApi) update(ctx echo.Context) error {
	id, err := paramID(ctx, "id")
	if err != nil {
		return err
	}
	usuarioID, err := api.auth.contextUsuarioID(ctx)
	if err != nil {
		return err
	}
	var data rubro.RubroData
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to RubroData")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}
	r, err := api.svc.Update(ctx.Request().Context(), id, data, usuarioID)
	if err != nil {
		return errors.Wrap(err, "updating rubro")
	}
	return ctx.JSON(http.StatusOK, r)
}

func (api *rubroApi) destroy(ctx echo.Context) error {
	id, err := paramID(ctx, "id")
	if err != nil {
		return err
	}
	if err := api.svc.Delete(ctx.Request().Context(), id); err != nil {
		return errors.Wrap(err, "deleting rubro")
	}
	return ctx.NoContent(http.StatusNoContent)
}

func (api *rubroApi) queryPagos(ctx echo.Context) error {
	id, err := paramID(ctx, "id")
	if err != nil {
		return err
	}
	reqCtx := ctx.Request().Context()
	if _, err := api.svc.Get(reqCtx, id); err != nil {
		return errors.Wrap(err, "finding rubro by ID")
	}
	pagos, err := api.pagoSvc.ListByRubro(reqCtx, id)
	if err != nil {
		return errors.Wrap(err, "querying pagos by rubro")
	}
	return ctx.JSON(http.StatusOK, pagos)
}

func (api *rubroApi) pagosCount(ctx echo.Context) error {
	id, err := paramID(ctx, "id")
	if err != nil {
		return err
	}
	count, err := api.svc.PagosCount(ctx.Request().Context(), id)
	if err != nil {
		return errors.Wrap(err, "counting pagos of rubro")
	}
	return ctx.JSON(http.StatusOK, CountResponse{Count: count})
}

func (api *rubroApi) canDelete(ctx echo.Context) error {
	id, err := paramID(ctx, "id")
	if err != nil {
		return err
	}
	ok, err := api.svc.CanDelete(ctx.Request().Context(), id)
	if err != nil {
		return errors.Wrap(err, "checking rubro deletion")
	}
	return ctx.JSON(http.StatusOK, CanDeleteResponse{CanDelete: ok})
}
