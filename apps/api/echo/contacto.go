package echoapi

import (
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/manitascreativas/escuela/core/contacto"
)

type contactoApi struct {
	svc      *contacto.Service
	validate *validator.Validate
}

func registerContactoAPI(e *echo.Echo, jwt echo.MiddlewareFunc, deps ServerDeps) {
	api := contactoApi{svc: deps.ContactoSvc, validate: deps.Validate}

	cg := e.Group("/contactos", jwt)
	cg.GET("", api.query)
	cg.POST("", api.create)
	cg.GET("/:id", api.retrieve)
	cg.PUT("/:id", api.update)
	cg.DELETE("/:id", api.destroy)

	lg := e.Group("/alumnocontactos", jwt)
	lg.POST("", api.link)
	lg.GET("/alumno/:alumnoId", api.queryByAlumno)
	lg.PUT("/:alumnoId/:contactoId", api.updateParentesco)
	lg.DELETE("/:alumnoId/:contactoId", api.unlink)
}

func (api *contactoApi) query(ctx echo.Context) error {
	contactos, err := api.svc.List(ctx.Request().Context())
	if err != nil {
		return errors.Wrap(err, "querying contactos")
	}
	return ctx.JSON(http.StatusOK, contactos)
}

func (api *contactoApi) retrieve(ctx echo.Context) error {
	id, err := paramID(ctx, "id")
	if err != nil {
		return err
	}
	c, err := api.svc.Get(ctx.Request().Context(), id)
	if err != nil {
		return errors.Wrap(err, "finding contacto by ID")
	}
	return ctx.JSON(http.StatusOK, c)
}

func (api *contactoApi) create(ctx echo.Context) error {
	var data contacto.ContactoData
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to ContactoData")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}
	c, err := api.svc.Create(ctx.Request().Context(), data)
	if err != nil {
		return errors.Wrap(err, "creating contacto")
	}
	return ctx.JSON(http.StatusCreated, c)
}

func (api *contactoApi) update(ctx echo.Context) error {
	id, err := paramID(ctx, "id")
	if err != nil {
		return err
	}
	var data contacto.ContactoData
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to ContactoData")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}
	c, err := api.svc.Update(ctx.Request().Context(), id, data)
	if err != nil {
		return errors.Wrap(err, "updating contacto")
	}
	return ctx.JSON(http.StatusOK, c)
}

func (api *contactoApi) destroy(ctx echo.Context) error {
	id, err := paramID(ctx, "id")
	if err != nil {
		return err
	}
	if err := api.svc.Delete(ctx.Request().Context(), id); err != nil {
		return errors.Wrap(err, "deleting contacto")
	}
	return ctx.NoContent(http.StatusNoContent)
}

// Alumno <-> Contacto links

func (api *contactoApi) link(ctx echo.Context) error {
	var data contacto.LinkData
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to LinkData")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}
	ac, err := api.svc.Link(ctx.Request().Context(), data)
	if err != nil {
		return errors.Wrap(err, "linking contacto")
	}
	return ctx.JSON(http.StatusCreated, ac)
}

func (api *contactoApi) queryByAlumno(ctx echo.Context) error {
	alumnoID, err := paramID(ctx, "alumnoId")
	if err != nil {
		return err
	}
	links, err := api.svc.ListByAlumno(ctx.Request().Context(), alumnoID)
	if err != nil {
		return errors.Wrap(err, "querying contactos by alumno")
	}
	return ctx.JSON(http.StatusOK, links)
}

func linkKeys(ctx echo.Context) (int, int, error) {
	alumnoID, err := paramID(ctx, "alumnoId")
	if err != nil {
		return 0, 0, err
	}
	contactoID, err := paramID(ctx, "contactoId")
	if err != nil {
		return 0, 0, err
	}
	return alumnoID, contactoID, nil
}

func (api *contactoApi) updateParentesco(ctx echo.Context) error {
	alumnoID, contactoID, err := linkKeys(ctx)
	if err != nil {
		return err
	}
	var data contacto.ParentescoData
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to ParentescoData")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}
	ac, err := api.svc.UpdateParentesco(ctx.Request().Context(), alumnoID, contactoID, data)
	if err != nil {
		return errors.Wrap(err, "updating parentesco")
	}
	return ctx.JSON(http.StatusOK, ac)
}

func (api *contactoApi) unlink(ctx echo.Context) error {
	alumnoID, contactoID, err := linkKeys(ctx)
	if err != nil {
		return err
	}
	if err := api.svc.Unlink(ctx.Request().Context(), alumnoID, contactoID); err != nil {
		return errors.Wrap(err, "unlinking contacto")
	}
	return ctx.NoContent(http.StatusNoContent)
}
