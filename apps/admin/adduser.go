package main

import (
	"context"
	"time"

	"github.com/manitascreativas/escuela/core"
	"github.com/manitascreativas/escuela/core/usuario"
)

type newUserArgs struct {
	codigo, email      string
	nombres, apellidos string
	pwd                string
	isAdmin            bool
}

// addUser updates or creates an active usuario.Usuario
func (cli *commandLine) addUser(args newUserArgs) error {
	ctx := context.Background()
	codigo := core.CleanString(args.codigo, true /* lower */)
	email := core.CleanString(args.email, true /* lower */)

	rolName := usuario.RolOperador
	if args.isAdmin {
		rolName = usuario.RolAdministrador
	}
	rol, err := cli.usrRepo.GetRolByNombre(ctx, rolName)
	if err != nil {
		return err
	}

	now := time.Now().UTC()
	usr, err := cli.usrRepo.GetByCodigo(ctx, codigo)
	exists := err == nil
	if err != nil {
		if err != usuario.ErrNotFound {
			return err
		}
		usr = usuario.Usuario{
			CodigoUsuario: codigo,
			Nombres:       codigo,
			FechaCreacion: now,
		}
	}
	if nombres := core.CleanString(args.nombres); nombres != "" {
		usr.Nombres = nombres
	}
	if apellidos := core.CleanString(args.apellidos); apellidos != "" {
		usr.Apellidos = apellidos
	}
	usr.Email = email
	usr.RolID = rol.ID
	usr.EstadoUsuario = usuario.EstadoActivo
	usr.FechaActualizacion = now
	if err := usr.SetPassword(args.pwd); err != nil {
		return err
	}

	if exists {
		if err := cli.usrRepo.CheckUniqueness(ctx, codigo, email, usr); err != nil {
			return err
		}
		_, err = cli.usrRepo.Update(ctx, usr)
		return err
	}
	if err := cli.usrRepo.CheckUniqueness(ctx, codigo, email); err != nil {
		return err
	}
	_, err = cli.usrRepo.Create(ctx, usr)
	return err
}
