package echoapi

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/manitascreativas/escuela/core/featureflag"
)

type featureFlagApi struct {
	svc  *featureflag.Service
	auth *authenticator
}

func registerFeatureFlagAPI(e *echo.Echo, jwt echo.MiddlewareFunc, auth *authenticator, deps ServerDeps) {
	api := featureFlagApi{svc: deps.FeatureFlagSvc, auth: auth}

	g := e.Group("/featureflags", jwt)
	g.GET("", api.query)
	g.GET("/:feature/enabled", api.enabled)
	g.GET("/:feature/available", api.available)
}

type FeatureStatusResponse struct {
	FeatureName string `json:"featureName"`
	Enabled     bool   `json:"enabled"`
}

func (api *featureFlagApi) query(ctx echo.Context) error {
	return ctx.JSON(http.StatusOK, api.svc.Flags())
}

func (api *featureFlagApi) enabled(ctx echo.Context) error {
	name := ctx.Param("feature")
	return ctx.JSON(http.StatusOK, FeatureStatusResponse{FeatureName: name, Enabled: api.svc.IsEnabled(name)})
}

// available answers for the usuario of the token.
func (api *featureFlagApi) available(ctx echo.Context) error {
	claims, err := api.auth.contextClaims(ctx)
	if err != nil {
		return err
	}
	name := ctx.Param("feature")
	return ctx.JSON(http.StatusOK, FeatureStatusResponse{
		FeatureName: name,
		Enabled:     api.svc.IsAvailableFor(name, claims.EsAdmin, claims.Rol),
	})
}
