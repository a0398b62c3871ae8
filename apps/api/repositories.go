package main

import (
	"context"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"

	"github.com/manitascreativas/escuela/core"
	"github.com/manitascreativas/escuela/core/alumno"
	"github.com/manitascreativas/escuela/core/contacto"
	"github.com/manitascreativas/escuela/core/escuela"
	"github.com/manitascreativas/escuela/core/pago"
	"github.com/manitascreativas/escuela/core/qrcode"
	"github.com/manitascreativas/escuela/core/reporte"
	"github.com/manitascreativas/escuela/core/rubro"
	"github.com/manitascreativas/escuela/core/ruta"
	"github.com/manitascreativas/escuela/core/uniforme"
	"github.com/manitascreativas/escuela/core/usuario"
	"github.com/manitascreativas/escuela/storage/database"
	inmemdb "github.com/manitascreativas/escuela/storage/database/inmem"
	boiledrepos "github.com/manitascreativas/escuela/storage/database/sqlboiler"
	sqlxrepos "github.com/manitascreativas/escuela/storage/database/sqlx"
)

// repositories is the storage backend the services run on.
type repositories struct {
	kind  string
	close func() error

	tx       core.TxRunner
	usuario  usuario.Repository
	escuela  escuela.Repository
	alumno   alumno.Repository
	contacto contacto.Repository
	rubro    rubro.Repository
	pago     pago.Repository
	qrcode   qrcode.Repository
	ruta     ruta.Repository
	uniforme uniforme.Repository
	reporte  reporte.Repository
}

// newSQLRepositories creates the database when needed, migrates it and opens the PostgreSQL repositories.
func newSQLRepositories(conf *core.Config) (repositories, error) {
	if err := database.CreateIfNotExist(conf); err != nil {
		return repositories{}, err
	}
	db, err := database.OpenX(conf)
	if err != nil {
		return repositories{}, err
	}
	if err = database.Migrate(db.DB); err != nil {
		_ = db.Close()
		return repositories{}, errors.Wrap(err, "migrating database")
	}
	return sqlRepositories(db), nil
}

func sqlRepositories(db *sqlx.DB) repositories {
	return repositories{
		kind:     "postgres",
		close:    db.Close,
		tx:       database.NewTxRunner(db),
		usuario:  boiledrepos.NewUsuarioRepository(db),
		escuela:  sqlxrepos.NewEscuelaRepository(db),
		alumno:   sqlxrepos.NewAlumnoRepository(db),
		contacto: sqlxrepos.NewContactoRepository(db),
		rubro:    sqlxrepos.NewRubroRepository(db),
		pago:     sqlxrepos.NewPagoRepository(db),
		qrcode:   sqlxrepos.NewQRCodeRepository(db),
		ruta:     sqlxrepos.NewRutaRepository(db),
		uniforme: sqlxrepos.NewUniformeRepository(db),
		reporte:  boiledrepos.NewReporteRepository(db),
	}
}

func newInMemRepositories() repositories {
	db := inmemdb.NewDB()
	return repositories{
		kind:     "inmem",
		close:    func() error { return nil },
		tx:       inmemdb.NewTxRunner(db),
		usuario:  inmemdb.NewUsuarioRepository(db),
		escuela:  inmemdb.NewEscuelaRepository(db),
		alumno:   inmemdb.NewAlumnoRepository(db),
		contacto: inmemdb.NewContactoRepository(db),
		rubro:    inmemdb.NewRubroRepository(db),
		pago:     inmemdb.NewPagoRepository(db),
		qrcode:   inmemdb.NewQRCodeRepository(db),
		ruta:     inmemdb.NewRutaRepository(db),
		uniforme: inmemdb.NewUniformeRepository(db),
		reporte:  inmemdb.NewReporteRepository(db),
	}
}

// seedAdmin creates an active administrator so the in-memory store can be signed in to.
func seedAdmin(repo usuario.Repository, pwd string) error {
	ctx := context.Background()
	rol, err := repo.GetRolByNombre(ctx, usuario.RolAdministrador)
	if err != nil {
		return err
	}
	now := time.Now().UTC()
	usr := usuario.Usuario{
		CodigoUsuario:      "admin",
		Nombres:            "Administrador",
		Apellidos:          "Sistema",
		Email:              "admin@localhost",
		EstadoUsuario:      usuario.EstadoActivo,
		RolID:              rol.ID,
		FechaCreacion:      now,
		FechaActualizacion: now,
	}
	if err = usr.SetPassword(pwd); err != nil {
		return err
	}
	_, err = repo.Create(ctx, usr)
	return err
}
