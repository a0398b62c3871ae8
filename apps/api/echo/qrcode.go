package echoapi

import (
	"fmt"
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/manitascreativas/escuela/core/qrcode"
)

type qrcodeApi struct {
	svc      *qrcode.Service
	validate *validator.Validate
}

func registerQRCodeAPI(e *echo.Echo, jwt, admin echo.MiddlewareFunc, deps ServerDeps) {
	api := qrcodeApi{svc: deps.QRCodeSvc, validate: deps.Validate}

	// scanners have no session
	e.POST("/api/qrcode/validate", api.validateToken)
	e.GET("/api/qrcode/info/:token", api.info)

	e.POST("/api/qrcode/generate", api.generate, jwt)
	e.POST("/api/qrcode/send", api.send, jwt)
	e.GET("/api/qrcode/payment/:pagoId", api.byPago, jwt)
	e.DELETE("/api/qrcode/cleanup", api.cleanup, jwt, admin)
}

type CleanupResponse struct {
	Message string `json:"message"`
	Count   int    `json:"count"`
}

func (api *qrcodeApi) generate(ctx echo.Context) error {
	var data qrcode.GenerateRequest
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to GenerateRequest")
	}
	if err := api.validate.Struct(data); err != nil {
		return err
	}
	resp, err := api.svc.Generate(ctx.Request().Context(), data.PagoID, data.ExpirationMinutes)
	if err != nil {
		return errors.Wrap(err, "generating qr code")
	}
	return ctx.JSON(http.StatusOK, resp)
}

func (api *qrcodeApi) send(ctx echo.Context) error {
	var data qrcode.SendRequest
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to SendRequest")
	}
	if err := api.validate.Struct(data); err != nil {
		return err
	}
	if err := api.svc.SendReceipt(ctx.Request().Context(), data); err != nil {
		return errors.Wrap(err, "sending payment receipt")
	}
	return ctx.JSON(http.StatusOK, MessageResponse{Message: "Comprobante enviado."})
}

func (api *qrcodeApi) validateToken(ctx echo.Context) error {
	var data qrcode.ValidateRequest
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to ValidateRequest")
	}
	resp, err := api.svc.Validate(ctx.Request().Context(), data.Token)
	if err != nil {
		return errors.Wrap(err, "validating qr code")
	}
	status := http.StatusOK
	if !resp.IsValid {
		status = http.StatusBadRequest
	}
	return ctx.JSON(status, resp)
}

func (api *qrcodeApi) info(ctx echo.Context) error {
	info, err := api.svc.Info(ctx.Request().Context(), ctx.Param("token"))
	if err != nil {
		return errors.Wrap(err, "finding qr code by token")
	}
	return ctx.JSON(http.StatusOK, info)
}

func (api *qrcodeApi) byPago(ctx echo.Context) error {
	pagoID, err := paramID(ctx, "pagoId")
	if err != nil {
		return err
	}
	info, err := api.svc.ByPago(ctx.Request().Context(), pagoID)
	if err != nil {
		return errors.Wrap(err, "finding qr code by pago")
	}
	return ctx.JSON(http.StatusOK, info)
}

func (api *qrcodeApi) cleanup(ctx echo.Context) error {
	count, err := api.svc.CleanupExpired(ctx.Request().Context())
	if err != nil {
		return errors.Wrap(err, "cleaning up expired qr codes")
	}
	return ctx.JSON(http.StatusOK, CleanupResponse{
		Message: fmt.Sprintf("Removed %d expired QR codes", count),
		Count:   count,
	})
}
