// Package testutil wires the services on top of the in-memory repositories and creates test fixtures.
package testutil

import (
	"context"
	"io"
	"log"
	"testing"
	"time"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"
	"github.com/volatiletech/null/v8"

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
	"github.com/manitascreativas/escuela/services/email"
	"github.com/manitascreativas/escuela/services/files"
	"github.com/manitascreativas/escuela/services/logger"
	"github.com/manitascreativas/escuela/storage/database/inmem"
)

// Env holds a fresh in-memory database with every repository and service built on it.
type Env struct {
	Conf       *core.Config
	DB         *inmemdb.DB
	Logger     core.Logger
	Validate   *validator.Validate
	Translator ut.Translator
	Files      core.FileStore
	Mail       core.EmailService

	UsuarioRepo  usuario.Repository
	EscuelaRepo  escuela.Repository
	AlumnoRepo   alumno.Repository
	ContactoRepo contacto.Repository
	RubroRepo    rubro.Repository
	PagoRepo     pago.Repository
	QRCodeRepo   qrcode.Repository
	RutaRepo     ruta.Repository
	UniformeRepo uniforme.Repository
	ReporteRepo  reporte.Repository

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

// NewEnv builds an Env; `configure` may adjust the test config (e.g. feature flags) before the services read it.
func NewEnv(t *testing.T, configure ...func(conf *core.Config)) *Env {
	conf := core.NewTestConfig()
	conf.Storage.LocalDir = t.TempDir()
	for _, fn := range configure {
		fn(conf)
	}
	core.SetupEmailTemplates(conf)
	emailsvc.ResetSentMessages()

	env := &Env{
		Conf:       conf,
		DB:         inmemdb.NewDB(),
		Logger:     logsvc.NewRollbarLogger(log.New(io.Discard, "", 0), conf),
		Validate:   validator.New(),
		Translator: core.NewTranslator(),
	}
	core.InitValidators(env.Validate, env.Translator)
	usuario.InitValidators(env.Validate, env.Translator)

	var err error
	if env.Files, err = filesvc.NewFileStore(conf); err != nil {
		t.Fatalf("NewFileStore() failed: %v", err)
	}
	tx := inmemdb.NewTxRunner(env.DB)

	env.UsuarioRepo = inmemdb.NewUsuarioRepository(env.DB)
	env.EscuelaRepo = inmemdb.NewEscuelaRepository(env.DB)
	env.AlumnoRepo = inmemdb.NewAlumnoRepository(env.DB)
	env.ContactoRepo = inmemdb.NewContactoRepository(env.DB)
	env.RubroRepo = inmemdb.NewRubroRepository(env.DB)
	env.PagoRepo = inmemdb.NewPagoRepository(env.DB)
	env.QRCodeRepo = inmemdb.NewQRCodeRepository(env.DB)
	env.RutaRepo = inmemdb.NewRutaRepository(env.DB)
	env.UniformeRepo = inmemdb.NewUniformeRepository(env.DB)
	env.ReporteRepo = inmemdb.NewReporteRepository(env.DB)

	env.Mail = emailsvc.NewConsoleServiceMock(conf)
	env.UsuarioSvc = usuario.NewService(env.UsuarioRepo, env.Mail, conf)
	env.EscuelaSvc = escuela.NewService(env.EscuelaRepo)
	env.AlumnoSvc = alumno.NewService(env.AlumnoRepo, env.EscuelaRepo)
	env.ContactoSvc = contacto.NewService(env.ContactoRepo, env.AlumnoRepo)
	env.RubroSvc = rubro.NewService(env.RubroRepo, env.EscuelaRepo)
	env.PagoSvc = pago.NewService(env.PagoRepo, env.AlumnoRepo, env.RubroRepo, env.UniformeRepo, tx, env.Files, env.Logger)
	env.QRCodeSvc = qrcode.NewService(env.QRCodeRepo, env.PagoRepo, env.Mail, conf)
	env.RutaSvc = ruta.NewService(env.RutaRepo, env.AlumnoRepo, env.RubroRepo)
	env.UniformeSvc = uniforme.NewService(env.UniformeRepo, env.RubroRepo, tx, env.Files)
	env.ReporteSvc = reporte.NewService(env.ReporteRepo, env.RubroRepo, env.EscuelaRepo, conf)
	env.FeatureFlagSvc = featureflag.NewService(conf, env.Logger)
	return env
}

// Money parses a decimal literal.
func Money(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func Date(year, month, day int) time.Time {
	return time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)
}

func CreateUsuario(t *testing.T, repo usuario.Repository, codigo, email, pwd, rol string, estado ...string) usuario.Usuario {
	ctx := context.Background()
	r, err := repo.GetRolByNombre(ctx, rol)
	if err != nil {
		t.Fatalf("CreateUsuario() failed: %v", err)
	}
	now := time.Now().UTC()
	usr := usuario.Usuario{
		CodigoUsuario:      codigo,
		Nombres:            "Nombre " + codigo,
		Apellidos:          "Apellido",
		Email:              email,
		EstadoUsuario:      usuario.EstadoActivo,
		RolID:              r.ID,
		FechaCreacion:      now,
		FechaActualizacion: now,
	}
	if len(estado) > 0 {
		usr.EstadoUsuario = estado[0]
	}
	if pwd != "" {
		if err := usr.SetPassword(pwd); err != nil {
			t.Fatalf("CreateUsuario() failed: %v", err)
		}
	}
	usr, err = repo.Create(ctx, usr)
	if err != nil {
		t.Fatalf("CreateUsuario() failed: %v", err)
	}
	return usr
}

// School holds a sede, an active level and one of its grades.
type School struct {
	Sede  escuela.Sede
	Nivel escuela.NivelEducativo
	Grado escuela.Grado
}

func CreateSchool(t *testing.T, repo escuela.Repository, gradoNombre string) School {
	ctx := context.Background()
	sede, err := repo.CreateSede(ctx, escuela.Sede{Nombre: "Sede Central"})
	if err != nil {
		t.Fatalf("CreateSchool() failed: %v", err)
	}
	nivel, err := repo.CreateNivel(ctx, escuela.NivelEducativo{Nombre: "Primaria", Activo: true})
	if err != nil {
		t.Fatalf("CreateSchool() failed: %v", err)
	}
	grado, err := repo.CreateGrado(ctx, escuela.Grado{Nombre: gradoNombre, NivelEducativoID: nivel.ID})
	if err != nil {
		t.Fatalf("CreateSchool() failed: %v", err)
	}
	return School{Sede: sede, Nivel: nivel, Grado: grado}
}

func CreateAlumno(t *testing.T, repo alumno.Repository, school School, codigo, nombre, apellido string) alumno.Alumno {
	a, err := repo.Create(context.Background(), alumno.Alumno{
		Codigo:         codigo,
		PrimerNombre:   nombre,
		PrimerApellido: apellido,
		SedeID:         school.Sede.ID,
		GradoID:        school.Grado.ID,
		Seccion:        null.StringFrom("A"),
		Estado:         alumno.EstadoActivo,
		FechaCreacion:  time.Now().UTC(),
	})
	if err != nil {
		t.Fatalf("CreateAlumno() failed: %v", err)
	}
	return a
}

// CreateRubro stores `r` as given, defaulting to an active rubro.
func CreateRubro(t *testing.T, repo rubro.Repository, r rubro.Rubro) rubro.Rubro {
	r.Activo = true
	if r.FechaCreacion.IsZero() {
		r.FechaCreacion = time.Now().UTC()
	}
	switch r.Tipo {
	case rubro.TipoColegiatura:
		r.EsColegiatura = true
	case rubro.TipoTransporte:
		r.EsPagoDeTransporte = true
	case rubro.TipoUniformes:
		r.EsPagoDeUniforme = true
	}
	r, err := repo.Create(context.Background(), r)
	if err != nil {
		t.Fatalf("CreateRubro() failed: %v", err)
	}
	return r
}

// CreatePago stores `p` as given, skipping the service rules.
func CreatePago(t *testing.T, repo pago.Repository, p pago.Pago) pago.Pago {
	if p.FechaCreacion.IsZero() {
		p.FechaCreacion = time.Now().UTC()
	}
	if p.MedioPago == 0 {
		p.MedioPago = pago.MedioEfectivo
	}
	p, err := repo.Create(context.Background(), p)
	if err != nil {
		t.Fatalf("CreatePago() failed: %v", err)
	}
	return p
}
