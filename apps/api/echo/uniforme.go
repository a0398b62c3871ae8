package echoapi

import (
	"net/http"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/manitascreativas/escuela/core"
	"github.com/manitascreativas/escuela/core/uniforme"
)

type uniformeApi struct {
	svc      *uniforme.Service
	auth     *authenticator
	validate *validator.Validate
}

func registerUniformeAPI(e *echo.Echo, jwt echo.MiddlewareFunc, auth *authenticator, deps ServerDeps) {
	api := uniformeApi{svc: deps.UniformeSvc, auth: auth, validate: deps.Validate}

	pg := e.Group("/prendas-uniforme", jwt)
	pg.GET("", api.queryPrendas)
	pg.POST("", api.createPrenda)
	pg.GET("/active", api.queryPrendasActive)
	pg.GET("/simple", api.queryPrendasSimple)
	pg.GET("/by-sexo/:sexo", api.queryPrendas)
	pg.GET("/by-talla/:talla", api.queryPrendas)
	pg.GET("/by-sexo-talla/:sexo/:talla", api.queryPrendas)
	pg.GET("/:id", api.retrievePrenda)
	pg.GET("/:id/exists", api.prendaExists)
	pg.PUT("/:id", api.updatePrenda)
	pg.DELETE("/:id", api.destroyPrenda)

	eg := e.Group("/entradas-uniforme", jwt)
	eg.GET("", api.queryEntradas)
	eg.POST("", api.createEntrada)
	eg.GET("/active", api.queryEntradasActive)
	eg.GET("/by-usuario/:usuarioId", api.queryEntradasByUsuario)
	eg.GET("/by-date-range", api.queryEntradasByDateRange)
	eg.GET("/:id", api.retrieveEntrada)
	eg.PUT("/:id", api.updateEntrada)
	eg.DELETE("/:id", api.destroyEntrada)

	dg := e.Group("/rubro-uniforme-detalles", jwt)
	dg.GET("", api.queryRubroDetalles)
	dg.POST("", api.createRubroDetalle)
	dg.GET("/active", api.queryRubroDetallesActive)
	dg.GET("/by-rubro/:rubroId", api.queryRubroDetalles)
	dg.GET("/by-prenda/:prendaId", api.queryRubroDetalles)
	dg.GET("/by-rubro-prenda/:rubroId/:prendaId", api.queryRubroDetalles)
	dg.GET("/exists/:rubroId/:prendaId", api.rubroDetalleExists)
	dg.GET("/:id", api.retrieveRubroDetalle)
	dg.PUT("/:id", api.updateRubroDetalle)
	dg.DELETE("/:id", api.destroyRubroDetalle)
}

type ExistsResponse struct {
	Exists bool `json:"exists"`
}

// softDeleteArgs returns the id, the required motivoEliminacion and the context usuario id.
func (api *uniformeApi) softDeleteArgs(ctx echo.Context) (int, string, int, error) {
	id, err := paramID(ctx, "id")
	if err != nil {
		return 0, "", 0, err
	}
	motivo := core.CleanString(ctx.QueryParam("motivoEliminacion"))
	if motivo == "" {
		return 0, "", 0, core.NewArgumentError("motivoEliminacion is required")
	}
	usuarioID, err := api.auth.contextUsuarioID(ctx)
	if err != nil {
		return 0, "", 0, err
	}
	return id, motivo, usuarioID, nil
}

// Prendas

func (api *uniformeApi) listPrendas(ctx echo.Context, filter uniforme.PrendaFilter) error {
	prendas, err := api.svc.ListPrendas(ctx.Request().Context(), filter)
	if err != nil {
		return errors.Wrap(err, "querying prendas")
	}
	return ctx.JSON(http.StatusOK, prendas)
}

// queryPrendas serves the plain listing and the by-sexo / by-talla variants.
func (api *uniformeApi) queryPrendas(ctx echo.Context) error {
	return api.listPrendas(ctx, uniforme.PrendaFilter{
		Sexo:  core.CleanString(ctx.Param("sexo")),
		Talla: core.CleanString(ctx.Param("talla")),
	})
}

func (api *uniformeApi) queryPrendasActive(ctx echo.Context) error {
	return api.listPrendas(ctx, uniforme.PrendaFilter{OnlyActive: true})
}

func (api *uniformeApi) queryPrendasSimple(ctx echo.Context) error {
	prendas, err := api.svc.ListPrendasSimple(ctx.Request().Context())
	if err != nil {
		return errors.Wrap(err, "querying prendas")
	}
	return ctx.JSON(http.StatusOK, prendas)
}

func (api *uniformeApi) retrievePrenda(ctx echo.Context) error {
	id, err := paramID(ctx, "id")
	if err != nil {
		return err
	}
	p, err := api.svc.GetPrenda(ctx.Request().Context(), id)
	if err != nil {
		return errors.Wrap(err, "finding prenda by ID")
	}
	return ctx.JSON(http.StatusOK, p)
}

func (api *uniformeApi) prendaExists(ctx echo.Context) error {
	id, err := paramID(ctx, "id")
	if err != nil {
		return err
	}
	exists, err := api.svc.PrendaExists(ctx.Request().Context(), id)
	if err != nil {
		return errors.Wrap(err, "checking prenda existence")
	}
	return ctx.JSON(http.StatusOK, ExistsResponse{Exists: exists})
}

func (api *uniformeApi) createPrenda(ctx echo.Context) error {
	usuarioID, err := api.auth.contextUsuarioID(ctx)
	if err != nil {
		return err
	}
	var data uniforme.PrendaData
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to PrendaData")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}
	p, err := api.svc.CreatePrenda(ctx.Request().Context(), data, usuarioID)
	if err != nil {
		return errors.Wrap(err, "creating prenda")
	}
	return ctx.JSON(http.StatusCreated, p)
}

func (api *uniformeApi) updatePrenda(ctx echo.Context) error {
	id, err := paramID(ctx, "id")
	if err != nil {
		return err
	}
	usuarioID, err := api.auth.contextUsuarioID(ctx)
	if err != nil {
		return err
	}
	var data uniforme.PrendaData
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to PrendaData")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}
	p, err := api.svc.UpdatePrenda(ctx.Request().Context(), id, data, usuarioID)
	if err != nil {
		return errors.Wrap(err, "updating prenda")
	}
	return ctx.JSON(http.StatusOK, p)
}

func (api *uniformeApi) destroyPrenda(ctx echo.Context) error {
	id, motivo, usuarioID, err := api.softDeleteArgs(ctx)
	if err != nil {
		return err
	}
	ok, err := api.svc.SoftDeletePrenda(ctx.Request().Context(), id, motivo, usuarioID)
	if err != nil {
		return errors.Wrap(err, "deleting prenda")
	}
	if !ok {
		return core.NewNotFoundError("PrendaUniforme with ID %d not found.", id)
	}
	return ctx.NoContent(http.StatusNoContent)
}

// Entradas

func (api *uniformeApi) listEntradas(ctx echo.Context, filter uniforme.EntradaFilter) error {
	entradas, err := api.svc.ListEntradas(ctx.Request().Context(), filter)
	if err != nil {
		return errors.Wrap(err, "querying entradas")
	}
	return ctx.JSON(http.StatusOK, entradas)
}

func (api *uniformeApi) queryEntradas(ctx echo.Context) error {
	return api.listEntradas(ctx, uniforme.EntradaFilter{})
}

func (api *uniformeApi) queryEntradasActive(ctx echo.Context) error {
	return api.listEntradas(ctx, uniforme.EntradaFilter{OnlyActive: true})
}

func (api *uniformeApi) queryEntradasByUsuario(ctx echo.Context) error {
	usuarioID, err := paramID(ctx, "usuarioId")
	if err != nil {
		return err
	}
	return api.listEntradas(ctx, uniforme.EntradaFilter{UsuarioID: usuarioID})
}

func (api *uniformeApi) queryEntradasByDateRange(ctx echo.Context) error {
	from, err := queryDate(ctx, "startDate")
	if err != nil {
		return err
	}
	to, err := queryDate(ctx, "endDate")
	if err != nil {
		return err
	}
	// a plain date includes the whole day
	if to.Equal(to.Truncate(24 * time.Hour)) {
		to = to.Add(24*time.Hour - time.Nanosecond)
	}
	return api.listEntradas(ctx, uniforme.EntradaFilter{From: from, To: to})
}

func (api *uniformeApi) retrieveEntrada(ctx echo.Context) error {
	id, err := paramID(ctx, "id")
	if err != nil {
		return err
	}
	entrada, err := api.svc.GetEntrada(ctx.Request().Context(), id)
	if err != nil {
		return errors.Wrap(err, "finding entrada by ID")
	}
	return ctx.JSON(http.StatusOK, entrada)
}

func (api *uniformeApi) createEntrada(ctx echo.Context) error {
	usuarioID, err := api.auth.contextUsuarioID(ctx)
	if err != nil {
		return err
	}
	var data uniforme.EntradaData
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to EntradaData")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}
	entrada, err := api.svc.CreateEntrada(ctx.Request().Context(), data, usuarioID)
	if err != nil {
		return errors.Wrap(err, "creating entrada")
	}
	return ctx.JSON(http.StatusCreated, entrada)
}

func (api *uniformeApi) updateEntrada(ctx echo.Context) error {
	id, err := paramID(ctx, "id")
	if err != nil {
		return err
	}
	usuarioID, err := api.auth.contextUsuarioID(ctx)
	if err != nil {
		return err
	}
	var data uniforme.EntradaData
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to EntradaData")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}
	entrada, err := api.svc.UpdateEntrada(ctx.Request().Context(), id, data, usuarioID)
	if err != nil {
		return errors.Wrap(err, "updating entrada")
	}
	return ctx.JSON(http.StatusOK, entrada)
}

func (api *uniformeApi) destroyEntrada(ctx echo.Context) error {
	id, motivo, usuarioID, err := api.softDeleteArgs(ctx)
	if err != nil {
		return err
	}
	ok, err := api.svc.SoftDeleteEntrada(ctx.Request().Context(), id, motivo, usuarioID)
	if err != nil {
		return errors.Wrap(err, "deleting entrada")
	}
	if !ok {
		return core.NewNotFoundError("EntradaUniforme with ID %d not found.", id)
	}
	return ctx.NoContent(http.StatusNoContent)
}

// Rubro uniforme detalles

func (api *uniformeApi) listRubroDetalles(ctx echo.Context, filter uniforme.RubroDetalleFilter) error {
	detalles, err := api.svc.ListRubroDetalles(ctx.Request().Context(), filter)
	if err != nil {
		return errors.Wrap(err, "querying rubro uniforme detalles")
	}
	return ctx.JSON(http.StatusOK, detalles)
}

// optionalParamID is paramID for routes shared by several path shapes; 0 when absent.
func optionalParamID(ctx echo.Context, name string) (int, error) {
	if ctx.Param(name) == "" {
		return 0, nil
	}
	return paramID(ctx, name)
}

// queryRubroDetalles serves the plain listing and the by-rubro / by-prenda variants.
func (api *uniformeApi) queryRubroDetalles(ctx echo.Context) error {
	rubroID, err := optionalParamID(ctx, "rubroId")
	if err != nil {
		return err
	}
	prendaID, err := optionalParamID(ctx, "prendaId")
	if err != nil {
		return err
	}
	return api.listRubroDetalles(ctx, uniforme.RubroDetalleFilter{RubroID: rubroID, PrendaID: prendaID})
}

func (api *uniformeApi) queryRubroDetallesActive(ctx echo.Context) error {
	return api.listRubroDetalles(ctx, uniforme.RubroDetalleFilter{OnlyActive: true})
}

func (api *uniformeApi) rubroDetalleExists(ctx echo.Context) error {
	rubroID, err := paramID(ctx, "rubroId")
	if err != nil {
		return err
	}
	prendaID, err := paramID(ctx, "prendaId")
	if err != nil {
		return err
	}
	exists, err := api.svc.RubroDetalleExists(ctx.Request().Context(), rubroID, prendaID)
	if err != nil {
		return errors.Wrap(err, "checking rubro uniforme detalle existence")
	}
	return ctx.JSON(http.StatusOK, ExistsResponse{Exists: exists})
}

func (api *uniformeApi) retrieveRubroDetalle(ctx echo.Context) error {
	id, err := paramID(ctx, "id")
	if err != nil {
		return err
	}
	d, err := api.svc.GetRubroDetalle(ctx.Request().Context(), id)
	if err != nil {
		return errors.Wrap(err, "finding rubro uniforme detalle by ID")
	}
	return ctx.JSON(http.StatusOK, d)
}

func (api *uniformeApi) createRubroDetalle(ctx echo.Context) error {
	usuarioID, err := api.auth.contextUsuarioID(ctx)
	if err != nil {
		return err
	}
	var data uniforme.RubroDetalleData
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to RubroDetalleData")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}
	d, err := api.svc.CreateRubroDetalle(ctx.Request().Context(), data, usuarioID)
	if err != nil {
		return errors.Wrap(err, "creating rubro uniforme detalle")
	}
	return ctx.JSON(http.StatusCreated, d)
}

func (api *uniformeApi) updateRubroDetalle(ctx echo.Context) error {
	id, err := paramID(ctx, "id")
	if err != nil {
		return err
	}
	usuarioID, err := api.auth.contextUsuarioID(ctx)
	if err != nil {
		return err
	}
	var data uniforme.RubroDetalleData
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to RubroDetalleData")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}
	d, err := api.svc.UpdateRubroDetalle(ctx.Request().Context(), id, data, usuarioID)
	if err != nil {
		return errors.Wrap(err, "updating rubro uniforme detalle")
	}
	return ctx.JSON(http.StatusOK, d)
}

func (api *uniformeApi) destroyRubroDetalle(ctx echo.Context) error {
	id, motivo, usuarioID, err := api.softDeleteArgs(ctx)
	if err != nil {
		return err
	}
	ok, err := api.svc.SoftDeleteRubroDetalle(ctx.Request().Context(), id, motivo, usuarioID)
	if err != nil {
		return errors.Wrap(err, "deleting rubro uniforme detalle")
	}
	if !ok {
		return core.NewNotFoundError("RubroUniformeDetalle with ID %d not found.", id)
	}
	return ctx.NoContent(http.StatusNoContent)
}
