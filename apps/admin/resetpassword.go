package main

import (
	"context"
	"strings"
	"time"

	"github.com/manitascreativas/escuela/core"
	"github.com/manitascreativas/escuela/core/usuario"
)

// resetPassword sets a new password on the usuario found by codigo or email.
func (cli *commandLine) resetPassword(codigoOrEmail, pwd string) error {
	ctx := context.Background()
	key := core.CleanString(codigoOrEmail, true /* lower */)

	var usr usuario.Usuario
	var err error
	if strings.Contains(key, "@") {
		usr, err = cli.usrRepo.GetByEmail(ctx, key)
	} else {
		usr, err = cli.usrRepo.GetByCodigo(ctx, key)
	}
	if err != nil {
		return err
	}
	if err := usr.SetPassword(pwd); err != nil {
		return err
	}
	usr.FechaActualizacion = time.Now().UTC()
	_, err = cli.usrRepo.Update(ctx, usr)
	return err
}
