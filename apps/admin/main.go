package main

import (
	"log"
	"os"

	"github.com/manitascreativas/escuela/core"
	"github.com/manitascreativas/escuela/core/qrcode"
	emailsvc "github.com/manitascreativas/escuela/services/email"
	logsvc "github.com/manitascreativas/escuela/services/logger"
	"github.com/manitascreativas/escuela/storage/database"
	boiledrepos "github.com/manitascreativas/escuela/storage/database/sqlboiler"
	sqlxrepos "github.com/manitascreativas/escuela/storage/database/sqlx"
)

func main() {
	conf := core.NewConfig()
	logger := logsvc.NewRollbarLogger(
		log.New(os.Stdout, "ADMIN : ", log.LstdFlags|log.Lmicroseconds|log.Lshortfile),
		conf,
	)
	logger.Enable(false)

	if err := database.CreateIfNotExist(conf); err != nil {
		logger.Fatal("setting up database", err)
	}
	db, err := database.OpenX(conf)
	if err != nil {
		logger.Fatal("opening database", err)
	}
	defer func() { _ = db.Close() }()

	cli := commandLine{
		db:      db.DB,
		usrRepo: boiledrepos.NewUsuarioRepository(db),
		qrSvc:   qrcode.NewService(sqlxrepos.NewQRCodeRepository(db), sqlxrepos.NewPagoRepository(db), emailsvc.NewConsoleService(conf), conf),
	}
	if err := cli.run(os.Args); err != nil {
		if err != errHelp {
			logger.Error("command failed", err)
		}
		_ = db.Close()
		os.Exit(1)
	}
}
