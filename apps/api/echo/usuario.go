package echoapi

import (
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/manitascreativas/escuela/core"
	"github.com/manitascreativas/escuela/core/usuario"
)

type usuarioApi struct {
	svc      usuario.ServiceInterface
	auth     *authenticator
	validate *validator.Validate
	logger   core.Logger
}

func registerUsuarioAPI(e *echo.Echo, jwt, admin echo.MiddlewareFunc, auth *authenticator, deps ServerDeps) {
	api := usuarioApi{
		svc:      deps.UsuarioSvc,
		auth:     auth,
		validate: deps.Validate,
		logger:   deps.Logger,
	}

	// un-authed endpoints
	e.POST("/usuarios/signin", api.signIn)
	e.POST("/api/auth/forgot-password", api.forgotPassword)
	e.POST("/api/auth/reset-password", api.resetPassword)

	// authed endpoints
	e.POST("/api/auth/token-refresh", api.refreshToken, jwt)
	e.POST("/api/auth/change-password", api.changePassword, jwt)
	e.GET("/roles", api.queryRoles, jwt)

	ug := e.Group("/usuarios", jwt, admin)
	ug.GET("", api.query)
	ug.POST("", api.create)
	ug.GET("/:id", api.retrieve)
	ug.PUT("/:id", api.update)
	ug.DELETE("/:id", api.destroy)
}

type (
	SignInRequest struct {
		CodigoUsuario string `json:"codigoUsuario" validate:"required"`
		Password      string `json:"password" validate:"required"`
	}

	SignInResponse struct {
		usuario.Usuario
		Token string `json:"token"`
	}

	TokenResponse struct {
		Token string `json:"token"`
	}

	ForgotPasswordRequest struct {
		Email string `json:"email" validate:"required,email"`
	}

	MessageResponse struct {
		Message string `json:"message"`
	}
)

func (sr *SignInRequest) Validate(validate *validator.Validate) error {
	sr.CodigoUsuario = core.CleanString(sr.CodigoUsuario, true /* lower */)
	return validate.Struct(sr)
}

func (fr *ForgotPasswordRequest) Validate(validate *validator.Validate) error {
	fr.Email = core.CleanString(fr.Email, true /* lower */)
	return validate.Struct(fr)
}

// Handlers

func (api *usuarioApi) signIn(ctx echo.Context) error {
	var data SignInRequest
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to SignInRequest")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	usr, err := api.svc.Authenticate(ctx.Request().Context(), data.CodigoUsuario, data.Password)
	if err != nil {
		return errors.Wrap(err, "authenticating")
	}
	token, err := api.auth.TokenFor(usr)
	if err != nil {
		return errors.Wrap(err, "generating token")
	}
	return ctx.JSON(http.StatusOK, SignInResponse{Usuario: usr, Token: token})
}

func (api *usuarioApi) refreshToken(ctx echo.Context) error {
	token, err := api.auth.refreshToken(ctx, api.svc)
	if err != nil {
		return errors.Wrap(err, "refreshing token")
	}
	return ctx.JSON(http.StatusOK, TokenResponse{Token: token})
}

func (api *usuarioApi) changePassword(ctx echo.Context) error {
	usr, err := api.auth.contextUsuario(ctx, api.svc)
	if err != nil {
		return errors.Wrap(err, "getting context usuario")
	}

	var data usuario.ChangePassword
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to ChangePassword")
	}
	if err := data.Validate(usr, api.validate); err != nil {
		return err
	}
	if err := api.svc.ChangePassword(ctx.Request().Context(), usr, data); err != nil {
		return errors.Wrap(err, "changing password")
	}
	return ctx.JSON(http.StatusOK, MessageResponse{Message: "Contraseña actualizada exitosamente."})
}

func (api *usuarioApi) forgotPassword(ctx echo.Context) error {
	var data ForgotPasswordRequest
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to ForgotPasswordRequest")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	if err := api.svc.RequestPasswordReset(ctx.Request().Context(), data.Email); !(err == nil || err == usuario.ErrNotFound) {
		// do not return errors to attackers
		api.logger.Error("requesting password reset", errors.Wrap(err, "requesting password reset"))
	}
	return ctx.JSON(http.StatusOK, MessageResponse{
		Message: "Si el email existe, recibirás un enlace de recuperación.",
	})
}

func (api *usuarioApi) resetPassword(ctx echo.Context) error {
	var data usuario.ResetPassword
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to ResetPassword")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}
	if err := api.svc.ResetPassword(ctx.Request().Context(), data); err != nil {
		return errors.Wrap(err, "resetting password")
	}
	return ctx.JSON(http.StatusOK, MessageResponse{Message: "Contraseña restablecida exitosamente."})
}

func (api *usuarioApi) queryRoles(ctx echo.Context) error {
	roles, err := api.svc.QueryRoles(ctx.Request().Context())
	if err != nil {
		return errors.Wrap(err, "querying roles")
	}
	return ctx.JSON(http.StatusOK, roles)
}

func (api *usuarioApi) query(ctx echo.Context) error {
	ordering := new(Ordering)
	ordering.Bind(ctx)

	usuarios, err := api.svc.QueryAll(ctx.Request().Context(), ordering.Orderings)
	if err != nil {
		return errors.Wrap(err, "querying usuarios")
	}
	return ctx.JSON(http.StatusOK, usuarios)
}

func (api *usuarioApi) create(ctx echo.Context) error {
	var data usuario.NewUsuario
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewUsuario")
	}
	reqCtx := ctx.Request().Context()
	if err := data.Validate(reqCtx, api.validate, api.svc); err != nil {
		return err
	}

	usr, err := api.svc.Create(reqCtx, data)
	if err != nil {
		return errors.Wrap(err, "creating usuario")
	}
	return ctx.JSON(http.StatusCreated, usr)
}

func (api *usuarioApi) retrieve(ctx echo.Context) error {
	id, err := paramID(ctx, "id")
	if err != nil {
		return err
	}
	usr, err := api.svc.GetByID(ctx.Request().Context(), id)
	if err != nil {
		return errors.Wrap(core.NotFoundWithID(err, "Usuario", id), "finding usuario by ID")
	}
	return ctx.JSON(http.StatusOK, usr)
}

func (api *usuarioApi) update(ctx echo.Context) error {
	id, err := paramID(ctx, "id")
	if err != nil {
		return err
	}
	reqCtx := ctx.Request().Context()
	usr, err := api.svc.GetByID(reqCtx, id)
	if err != nil {
		return errors.Wrap(core.NotFoundWithID(err, "Usuario", id), "finding usuario by ID")
	}

	var data usuario.UpdateUsuario
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to UpdateUsuario")
	}
	if err := data.Validate(reqCtx, usr, api.validate, api.svc); err != nil {
		return err
	}

	// nobody locks themselves out
	if ctxID, _ := api.auth.contextUsuarioID(ctx); ctxID == id && data.EstadoUsuario != usuario.EstadoActivo {
		return errHttpForbidden
	}

	usr, err = api.svc.Update(reqCtx, id, data)
	if err != nil {
		return errors.Wrap(err, "updating usuario")
	}
	return ctx.JSON(http.StatusOK, usr)
}

func (api *usuarioApi) destroy(ctx echo.Context) error {
	id, err := paramID(ctx, "id")
	if err != nil {
		return err
	}

	// Say No to Suicide! the context usuario cannot delete themselves
	ctxID, err := api.auth.contextUsuarioID(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context usuario")
	}
	if ctxID == id {
		return errHttpForbidden
	}

	if err := api.svc.Delete(ctx.Request().Context(), id); err != nil {
		return errors.Wrap(core.NotFoundWithID(err, "Usuario", id), "deleting usuario")
	}
	return ctx.NoContent(http.StatusNoContent)
}
