package main

import (
	"context"
	"expvar"
	"flag"
	"fmt"
	"log"
	"net/http"
	_ "net/http/pprof"
	"os"

	"github.com/go-playground/validator/v10"

	echoapi "github.com/manitascreativas/escuela/apps/api/echo"
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
	emailsvc "github.com/manitascreativas/escuela/services/email"
	filesvc "github.com/manitascreativas/escuela/services/files"
	logsvc "github.com/manitascreativas/escuela/services/logger"
)

func main() {
	inMem := flag.Bool("inmem", false, "keep the data in memory instead of PostgreSQL (demo mode)")
	adminPwd := flag.String("admin-password", "", "with -inmem, creates the usuario \"admin\" with this password")
	flag.Parse()

	// =========================================================================
	// Set up Dependencies

	conf := core.NewConfig()

	// set up loggers
	logger := logsvc.NewRollbarLogger(
		log.New(os.Stdout, "API : ", log.LstdFlags|log.Lmicroseconds|log.Lshortfile),
		conf,
	)
	logger.Enable(!conf.Debug && conf.RollbarToken != "")
	defer logger.Close()

	dbLogger := logsvc.NewRollbarLogger(
		log.New(os.Stdout, "DB : ", log.LstdFlags|log.Lmicroseconds|log.Lshortfile),
		conf,
	)
	dbLogger.Enable(!conf.Debug && conf.RollbarToken != "")

	// set up storage
	var repos repositories
	var err error
	if *inMem {
		logger.Warn("running with the in-memory store, data is lost on exit")
		repos = newInMemRepositories()
		if *adminPwd != "" {
			if err = seedAdmin(repos.usuario, *adminPwd); err != nil {
				logger.Fatal(fmt.Sprintf("creating admin usuario: %v", err), err)
			}
		}
	} else if repos, err = newSQLRepositories(conf); err != nil {
		logger.Fatal(fmt.Sprintf("setting up database: %v", err), err)
	}
	defer func() {
		if err = repos.close(); err != nil {
			dbLogger.Error("Failed to close", err)
		}
	}()

	fileStore, err := filesvc.NewFileStore(conf)
	if err != nil {
		logger.Fatal(fmt.Sprintf("setting up file storage: %v", err), err)
	}

	var mailSvc core.EmailService
	if conf.Debug || conf.SendgridApiKey == "" {
		mailSvc = emailsvc.NewConsoleService(conf)
	} else {
		mailSvc = emailsvc.NewSendgridService(conf, logger)
	}

	// =========================================================================
	// Initialize App

	logger.Info(fmt.Sprintf("Application initializing : version %q", conf.Build))
	defer logger.Info("Application stopped")

	validate := validator.New()
	translator := core.NewTranslator()
	core.InitValidators(validate, translator)
	usuario.InitValidators(validate, translator)

	core.SetupEmailTemplates(conf)

	deps := echoapi.ServerDeps{
		Conf:           conf,
		Logger:         logger,
		Validate:       validate,
		Translator:     translator,
		UsuarioSvc:     usuario.NewService(repos.usuario, mailSvc, conf),
		EscuelaSvc:     escuela.NewService(repos.escuela),
		AlumnoSvc:      alumno.NewService(repos.alumno, repos.escuela),
		ContactoSvc:    contacto.NewService(repos.contacto, repos.alumno),
		RubroSvc:       rubro.NewService(repos.rubro, repos.escuela),
		PagoSvc:        pago.NewService(repos.pago, repos.alumno, repos.rubro, repos.uniforme, repos.tx, fileStore, logger),
		QRCodeSvc:      qrcode.NewService(repos.qrcode, repos.pago, mailSvc, conf),
		RutaSvc:        ruta.NewService(repos.ruta, repos.alumno, repos.rubro),
		UniformeSvc:    uniforme.NewService(repos.uniforme, repos.rubro, repos.tx, fileStore),
		ReporteSvc:     reporte.NewService(repos.reporte, repos.rubro, repos.escuela, conf),
		FeatureFlagSvc: featureflag.NewService(conf, logger),
	}

	// =========================================================================
	// Start Debug Service
	//
	// /debug/pprof - Added to the default mux by importing the net/http/pprof package.
	// /debug/vars - Added to the default mux by importing the expvar package.

	// Expose important info under /debug/vars.
	expvar.NewString("build").Set(conf.Build)
	expvar.NewString("env").Set(conf.Env)
	expvar.NewString("storage").Set(repos.kind)

	go func() {
		if err := http.ListenAndServe(conf.Server.DebugHost, http.DefaultServeMux); err != nil {
			logger.Error(fmt.Sprintf("debug server closed: %v", err), err)
		}
	}()

	// =========================================================================
	// Start API Service

	server := echoapi.NewServer(deps)

	go func() {
		server.Start()
	}()

	// =========================================================================
	// Shutdown

	select {
	case err = <-server.Errors():
		logger.Error(fmt.Sprintf("server error: %v", err), err)

	case sig := <-server.ShutdownSignal():
		logger.Info(fmt.Sprintf("%v: Start shutdown...", sig))

		// give outstanding requests a deadline for completion
		ctx, cancel := context.WithTimeout(context.Background(), conf.Server.ShutdownTimeout)
		defer cancel()

		// asking listener to shutdown and shed load
		if err = server.Shutdown(ctx); err != nil {
			logger.Error(fmt.Sprintf("could not stop server gracefully: %v", err), err)

			if err = server.Close(); err != nil {
				logger.Error(fmt.Sprintf("could not force stop server: %v", err), err)
			}
		}
	}
}
