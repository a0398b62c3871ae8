// Package echoapi exposes the school administration services over HTTP with echo.
package echoapi

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/labstack/gommon/log"

	"github.com/manitascreativas/escuela/core"
	"github.com/manitascreativas/escuela/core/alumno"
	"github.com/manitascreativas/escuela/core/contacto"
	"github.com/manitascreativas/escuela/core/escuela"
	"github.com/manitascreativas/escuela/core/featureflag"
	"github.com/manitascreativas/escuela/core/pago"
	"github.com/manitascreativas/escuela/core/qrcode"
	"github.com/manitascreativas/escuela/core/reporte"
	"github.com/manitascreativas/escuela/core/rubro"
	"github.com/manitascreativas/escuela/core/ruta"
	"github.com/manitascreativas/escuela/core/uniforme"
	"github.com/manitascreativas/escuela/core/usuario"
)

type (
	ServerDeps struct {
		Conf       *core.Config
		Logger     core.Logger
		Validate   *validator.Validate
		Translator ut.Translator

		UsuarioSvc     usuario.ServiceInterface
		EscuelaSvc     *escuela.Service
		AlumnoSvc      *alumno.Service
		ContactoSvc    *contacto.Service
		RubroSvc       *rubro.Service
		PagoSvc        *pago.Service
		QRCodeSvc      *qrcode.Service
		RutaSvc        *ruta.Service
		UniformeSvc    *uniforme.Service
		ReporteSvc     *reporte.Service
		FeatureFlagSvc *featureflag.Service
	}

	Server struct {
		deps     ServerDeps
		app      *echo.Echo
		auth     *authenticator
		errors   chan error
		shutdown chan os.Signal
	}
)

func NewServer(deps ServerDeps) *Server {
	s := &Server{
		deps:     deps,
		app:      echo.New(),
		auth:     newAuthenticator(deps.Conf),
		errors:   make(chan error, 1),
		shutdown: make(chan os.Signal, 1),
	}
	signal.Notify(s.shutdown, os.Interrupt, syscall.SIGTERM)
	s.setup()
	return s
}

func (s *Server) setup() {
	conf := s.deps.Conf

	s.app.HideBanner = true
	s.app.Pre(middleware.RemoveTrailingSlash())
	s.app.Use(middleware.RequestID())
	if !conf.Server.DisableReqLogs {
		s.app.Use(middleware.Logger())
	}
	// do not recover in DEV|TEST mode
	if !(conf.Debug || conf.TestMode) {
		s.app.Use(middleware.RecoverWithConfig(middleware.RecoverConfig{LogLevel: log.ERROR}))
	}
	s.app.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins: []string{conf.FrontendBaseURL},
		AllowHeaders: []string{echo.HeaderOrigin, echo.HeaderContentType, echo.HeaderAccept, echo.HeaderAuthorization},
	}))
	if conf.Storage.Backend == "local" && conf.Storage.LocalDir != "" {
		s.app.Static("/uploads", conf.Storage.LocalDir)
	}

	s.app.HTTPErrorHandler = newAppHTTPErrorHandler(s.deps.Logger, s.deps.Translator, s.auth, s.SignalShutdown)
	s.app.Debug = conf.Debug

	s.app.GET("/", s.home)
	s.app.GET("/health", s.health)

	jwt := middleware.JWTWithConfig(s.auth.jwtConfig)
	admin := adminMiddleware(s.auth)

	registerUsuarioAPI(s.app, jwt, admin, s.auth, s.deps)
	registerEscuelaAPI(s.app, jwt, s.deps)
	registerAlumnoAPI(s.app, jwt, s.auth, s.deps)
	registerRutaAPI(s.app, jwt, s.deps)
	registerContactoAPI(s.app, jwt, s.deps)
	registerRubroAPI(s.app, jwt, s.auth, s.deps)
	registerPagoAPI(s.app, jwt, s.auth, s.deps)
	registerReporteAPI(s.app, jwt, s.deps)
	registerQRCodeAPI(s.app, jwt, admin, s.deps)
	registerUniformeAPI(s.app, jwt, s.auth, s.deps)
	registerFeatureFlagAPI(s.app, jwt, s.auth, s.deps)
}

// Start blocks until the server stops; a listening error is sent to Errors().
func (s *Server) Start() {
	if err := s.app.Start(s.deps.Conf.Server.Address); err != nil && err != http.ErrServerClosed {
		s.errors <- err
	}
}

func (s *Server) Errors() <-chan error {
	return s.errors
}

func (s *Server) ShutdownSignal() <-chan os.Signal {
	return s.shutdown
}

// SignalShutdown asks the main goroutine to stop the server gracefully.
func (s *Server) SignalShutdown() {
	select {
	case s.shutdown <- syscall.SIGTERM:
	default:
	}
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.app.Shutdown(ctx)
}

func (s *Server) Close() error {
	return s.app.Close()
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) { // for tests
	s.app.ServeHTTP(w, r)
}

func (s *Server) home(ctx echo.Context) error {
	return ctx.String(http.StatusOK, "Welcome to "+s.deps.Conf.AppName+" API!")
}

func (s *Server) health(ctx echo.Context) error {
	return ctx.JSON(http.StatusOK, echo.Map{
		"status":  "healthy",
		"version": s.deps.Conf.Build,
		"env":     s.deps.Conf.Env,
	})
}
