package echoapi

import (
	"encoding/json"
	"mime/multipart"
	"net/http"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/manitascreativas/escuela/core"
	"github.com/manitascreativas/escuela/core/pago"
)

const (
	pagoDataField    = "data"
	pagoImagesField  = "imagenesPago"
	maxMultipartSize = 32 << 20
)

type pagoApi struct {
	svc      *pago.Service
	auth     *authenticator
	validate *validator.Validate
}

func registerPagoAPI(e *echo.Echo, jwt echo.MiddlewareFunc, auth *authenticator, deps ServerDeps) {
	api := pagoApi{svc: deps.PagoSvc, auth: auth, validate: deps.Validate}

	g := e.Group("/pagos", jwt)
	g.POST("", api.create)
	g.GET("/edit", api.queryForEdit)
	g.DELETE("/images", api.removeImages)
	g.DELETE("/images/:id", api.removeImage)
	g.GET("/:id", api.retrieve)
	g.PUT("/:id", api.update)
	g.POST("/:id/void", api.void)
}

type ImageIDsRequest struct {
	IDs []int `json:"ids"`
}

// bindUpload reads a PagoUpload from a JSON body, or from the `data` field of a multipart form
// along with its receipt images. The returned closer releases the opened files.
func (api *pagoApi) bindUpload(ctx echo.Context) (pago.PagoUpload, []pago.ImagenUpload, func(), error) {
	var data pago.PagoUpload
	noop := func() {}

	ct := ctx.Request().Header.Get(echo.HeaderContentType)
	if !strings.HasPrefix(ct, echo.MIMEMultipartForm) {
		if err := ctx.Bind(&data); err != nil {
			return data, nil, noop, errors.Wrap(err, "binding to PagoUpload")
		}
		return data, nil, noop, nil
	}

	if err := ctx.Request().ParseMultipartForm(maxMultipartSize); err != nil {
		return data, nil, noop, core.NewArgumentError("invalid multipart form: %v", err)
	}
	form := ctx.Request().MultipartForm
	raw := form.Value[pagoDataField]
	if len(raw) == 0 || strings.TrimSpace(raw[0]) == "" {
		return data, nil, noop, core.NewArgumentError("%s is required", pagoDataField)
	}
	if err := json.Unmarshal([]byte(raw[0]), &data); err != nil {
		return data, nil, noop, core.NewArgumentError("invalid %s: %v", pagoDataField, err)
	}

	headers := form.File[pagoImagesField]
	imgs := make([]pago.ImagenUpload, 0, len(headers))
	opened := make([]multipart.File, 0, len(headers))
	closer := func() {
		for _, f := range opened {
			f.Close()
		}
	}
	for _, fh := range headers {
		f, err := fh.Open()
		if err != nil {
			closer()
			return data, nil, noop, errors.Wrapf(err, "opening %s", fh.Filename)
		}
		opened = append(opened, f)
		imgs = append(imgs, pago.ImagenUpload{FileName: fh.Filename, Content: f})
	}
	return data, imgs, closer, nil
}

func (api *pagoApi) create(ctx echo.Context) error {
	usuarioID, err := api.auth.contextUsuarioID(ctx)
	if err != nil {
		return err
	}
	data, imgs, closeImgs, err := api.bindUpload(ctx)
	if err != nil {
		return err
	}
	defer closeImgs()
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	p, err := api.svc.Create(ctx.Request().Context(), data, imgs, usuarioID)
	if err != nil {
		return errors.Wrap(err, "creating pago")
	}
	return ctx.JSON(http.StatusCreated, p)
}

func (api *pagoApi) update(ctx echo.Context) error {
	id, err := paramID(ctx, "id")
	if err != nil {
		return err
	}
	usuarioID, err := api.auth.contextUsuarioID(ctx)
	if err != nil {
		return err
	}
	data, imgs, closeImgs, err := api.bindUpload(ctx)
	if err != nil {
		return err
	}
	defer closeImgs()
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	p, err := api.svc.Update(ctx.Request().Context(), id, data, imgs, usuarioID)
	if err != nil {
		return errors.Wrap(err, "updating pago")
	}
	return ctx.JSON(http.StatusOK, p)
}

func (api *pagoApi) retrieve(ctx echo.Context) error {
	id, err := paramID(ctx, "id")
	if err != nil {
		return err
	}
	p, err := api.svc.Get(ctx.Request().Context(), id)
	if err != nil {
		return errors.Wrap(err, "finding pago by ID")
	}
	return ctx.JSON(http.StatusOK, p)
}

func (api *pagoApi) void(ctx echo.Context) error {
	id, err := paramID(ctx, "id")
	if err != nil {
		return err
	}
	usuarioID, err := api.auth.contextUsuarioID(ctx)
	if err != nil {
		return err
	}
	var data pago.VoidData
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to VoidData")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	p, err := api.svc.Void(ctx.Request().Context(), id, data, usuarioID)
	if err != nil {
		return errors.Wrap(err, "voiding pago")
	}
	return ctx.JSON(http.StatusOK, p)
}

func (api *pagoApi) queryForEdit(ctx echo.Context) error {
	ciclo, err := requiredQueryInt(ctx, "cicloEscolar")
	if err != nil {
		return err
	}
	gradoID, err := queryInt(ctx, "gradoId")
	if err != nil {
		return err
	}
	alumnoID, err := queryInt(ctx, "alumnoId")
	if err != nil {
		return err
	}

	pagos, err := api.svc.ListForEdit(ctx.Request().Context(), ciclo, gradoID, alumnoID)
	if err != nil {
		return errors.Wrap(err, "querying pagos for edit")
	}
	return ctx.JSON(http.StatusOK, pagos)
}

func (api *pagoApi) removeImage(ctx echo.Context) error {
	id, err := paramID(ctx, "id")
	if err != nil {
		return err
	}
	if err := api.svc.RemoveImage(ctx.Request().Context(), id); err != nil {
		return errors.Wrap(err, "removing pago image")
	}
	return ctx.NoContent(http.StatusNoContent)
}

func (api *pagoApi) removeImages(ctx echo.Context) error {
	var data ImageIDsRequest
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to ImageIDsRequest")
	}
	count, err := api.svc.RemoveImages(ctx.Request().Context(), data.IDs)
	if err != nil {
		return errors.Wrap(err, "removing pago images")
	}
	return ctx.JSON(http.StatusOK, CountResponse{Count: count})
}
