package main

import (
	"context"
	"database/sql"
	"errors"
	"flag"
	"fmt"
	"syscall"

	"golang.org/x/term"

	"github.com/manitascreativas/escuela/core/usuario"
	"github.com/manitascreativas/escuela/storage/database"
)

// QR codes cleaner; satisfied by *qrcode.Service.
type qrCleaner interface {
	CleanupExpired(ctx context.Context) (int, error)
}

var (
	readPasswordFunc = term.ReadPassword // mockable
	migrateFunc      = database.Run      // mockable

	errHelp = errors.New("help provided")
)

type commandLine struct {
	db      *sql.DB
	usrRepo usuario.Repository
	qrSvc   qrCleaner
}

func (cli *commandLine) printUsage() {
	fmt.Println("Usage:")
	fmt.Println("  migrate COMMAND [ARGS] - run a database migration command (up, down, status, redo, version ...)")
	fmt.Println("  adduser -codigo CODIGO -email EMAIL [-nombres NOMBRES] [-apellidos APELLIDOS] [-admin] - add or update a usuario")
	fmt.Println("  resetpassword -usuario CODIGO|EMAIL - reset a usuario's password")
	fmt.Println("  cleanupqr - remove the expired QR codes")
}

// promptPassword reads the password without echoing it; empty means none was given.
func promptPassword() (string, error) {
	fmt.Print("Enter password:")
	pwd, err := readPasswordFunc(int(syscall.Stdin))
	fmt.Println()
	if err != nil {
		return "", err
	}
	return string(pwd), nil
}

func (cli *commandLine) run(args []string) error {
	if len(args) < 2 {
		cli.printUsage()
		return errHelp
	}

	addUserCmd := flag.NewFlagSet("adduser", flag.ContinueOnError)
	addUserCodigo := addUserCmd.String("codigo", "", "The usuario's codigo (login).")
	addUserEmail := addUserCmd.String("email", "", "The usuario's email.")
	addUserNombres := addUserCmd.String("nombres", "", "The usuario's first names.")
	addUserApellidos := addUserCmd.String("apellidos", "", "The usuario's last names.")
	addUserAdmin := addUserCmd.Bool("admin", false, "Give the usuario the Administrador rol.")

	resetPasswordCmd := flag.NewFlagSet("resetpassword", flag.ContinueOnError)
	resetPasswordUsuario := resetPasswordCmd.String("usuario", "", "The usuario's codigo or email. The password will be prompted next.")

	switch args[1] {
	case "migrate":
		if len(args) < 3 {
			cli.printUsage()
			return errHelp
		}
		return migrateFunc(args[2], cli.db, args[3:]...)

	case "adduser":
		if err := addUserCmd.Parse(args[2:]); err != nil {
			return err
		}
		if *addUserCodigo == "" || *addUserEmail == "" {
			addUserCmd.Usage()
			return errHelp
		}
		pwd, err := promptPassword()
		if err != nil {
			return err
		}
		if pwd == "" {
			addUserCmd.Usage()
			return errHelp
		}
		return cli.addUser(newUserArgs{
			codigo:    *addUserCodigo,
			email:     *addUserEmail,
			nombres:   *addUserNombres,
			apellidos: *addUserApellidos,
			pwd:       pwd,
			isAdmin:   *addUserAdmin,
		})

	case "resetpassword":
		if err := resetPasswordCmd.Parse(args[2:]); err != nil {
			return err
		}
		if *resetPasswordUsuario == "" {
			resetPasswordCmd.Usage()
			return errHelp
		}
		pwd, err := promptPassword()
		if err != nil {
			return err
		}
		if pwd == "" {
			resetPasswordCmd.Usage()
			return errHelp
		}
		return cli.resetPassword(*resetPasswordUsuario, pwd)

	case "cleanupqr":
		count, err := cli.qrSvc.CleanupExpired(context.Background())
		if err != nil {
			return err
		}
		fmt.Printf("Removed %d expired QR codes\n", count)
		return nil

	default:
		cli.printUsage()
		return errHelp
	}
}
