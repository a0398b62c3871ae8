package main

import (
	"bytes"
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"testing"

	"github.com/manitascreativas/escuela/core/usuario"
	"github.com/manitascreativas/escuela/tests"
)

type qrCleanerMock struct {
	count int
	err   error
	calls int
}

func (m *qrCleanerMock) CleanupExpired(context.Context) (int, error) {
	m.calls++
	return m.count, m.err
}

func setup(t *testing.T) (*commandLine, *testutil.Env) {
	env := testutil.NewEnv(t)
	return &commandLine{
		usrRepo: env.UsuarioRepo,
		qrSvc:   env.QRCodeSvc,
	}, env
}

type cliTest struct {
	name       string
	args       []string // without program name
	wantErr    error
	wantErrStr string
	extra      interface{}
}

func (tt cliTest) check(t *testing.T, err error) {
	t.Helper()
	if err == nil {
		if tt.wantErr != nil || tt.wantErrStr != "" {
			t.Errorf("cli.run() error = nil, wantErr %v%s", tt.wantErr, tt.wantErrStr)
		}
		return
	}
	if tt.wantErr != nil {
		if err != tt.wantErr {
			t.Errorf("cli.run() error = %v, wantErr %v", err, tt.wantErr)
		}
	} else if tt.wantErrStr != "" {
		if err.Error() != tt.wantErrStr {
			t.Errorf("cli.run() error.Error() = %s, wantErrStr %s", err.Error(), tt.wantErrStr)
		}
	} else {
		t.Errorf("cli.run() unexpected error = %v", err)
	}
}

func mockPassword(pwd string) {
	readPasswordFunc = func(fd int) ([]byte, error) {
		return []byte(pwd), nil
	}
}

func Test_commandLine_migrate(t *testing.T) {
	cli, _ := setup(t)

	migrateFunc = func(command string, db *sql.DB, args ...string) error {
		switch command {
		case "up", "up-by-one", "down", "fix", "redo", "reset", "status", "version": // pass
		case "up-to", "down-to":
			if len(args) == 0 {
				return fmt.Errorf("%s must be of form: %s VERSION", command, command)
			}
			if _, err := strconv.ParseInt(args[0], 10, 64); err != nil {
				return fmt.Errorf("version must be a number (got '%s')", args[0])
			}
		default:
			return fmt.Errorf("%q: no such command", command)
		}
		return nil
	}

	tests := []cliTest{
		{name: "no command", wantErr: errHelp},
		{name: "unknown command", args: []string{"lol"}, wantErr: errHelp},
		{name: "no subcommand", args: []string{"migrate"}, wantErr: errHelp},
		{name: "unknown subcommand", args: []string{"migrate", "lol"}, wantErrStr: "\"lol\": no such command"},
		{name: "up-to: no args", args: []string{"migrate", "up-to"}, wantErrStr: "up-to must be of form: up-to VERSION"},
		{name: "up-to: non-int arg", args: []string{"migrate", "up-to", "lol"}, wantErrStr: "version must be a number (got 'lol')"},
		{name: "down-to: no args", args: []string{"migrate", "down-to"}, wantErrStr: "down-to must be of form: down-to VERSION"},
		{name: "up", args: []string{"migrate", "up"}},
		{name: "up-by-one", args: []string{"migrate", "up-by-one"}},
		{name: "up-to", args: []string{"migrate", "up-to", "2"}},
		{name: "down", args: []string{"migrate", "down"}},
		{name: "down-to", args: []string{"migrate", "down-to", "1"}},
		{name: "redo", args: []string{"migrate", "redo"}},
		{name: "status", args: []string{"migrate", "status"}},
		{name: "version", args: []string{"migrate", "version"}},
	}
	for _, tt := range tests {
		args := append([]string{"admin"}, tt.args...)

		t.Run(tt.name, func(t *testing.T) {
			tt.check(t, cli.run(args))
		})
	}
}

func Test_commandLine_addUser(t *testing.T) {
	cli, env := setup(t)
	ctx := context.Background()

	testutil.CreateUsuario(t, env.UsuarioRepo, "otro", "otro@test.gt", "secreto1", usuario.RolOperador)

	tests := []cliTest{
		{name: "no args", args: []string{"adduser"}, wantErr: errHelp},
		{name: "no email", args: []string{"adduser", "-codigo", "dir"}, extra: "secreto1", wantErr: errHelp},
		{name: "no password", args: []string{"adduser", "-codigo", "dir", "-email", "dir@test.gt"}, wantErr: errHelp},
		{
			name:    "email taken",
			args:    []string{"adduser", "-codigo", "dir", "-email", "OTRO@test.gt"},
			extra:   "secreto1",
			wantErr: usuario.ErrEmailExists,
		},
		{
			name:  "create admin",
			args:  []string{"adduser", "-codigo", " Dir ", "-email", "Dir@Test.gt", "-nombres", "Ana", "-apellidos", "López", "-admin"},
			extra: "secreto1",
		},
		{
			name:  "update existing",
			args:  []string{"adduser", "-codigo", "otro", "-email", "otro2@test.gt"},
			extra: "nuevo-secreto",
		},
	}
	for _, tt := range tests {
		args := append([]string{"admin"}, tt.args...)
		pwd, _ := tt.extra.(string)
		mockPassword(pwd)

		t.Run(tt.name, func(t *testing.T) {
			tt.check(t, cli.run(args))
		})
	}

	dir, err := env.UsuarioRepo.GetByCodigo(ctx, "dir")
	if err != nil {
		t.Fatalf("GetByCodigo() failed, %v", err)
	}
	if dir.Email != "dir@test.gt" || dir.Nombres != "Ana" || dir.Apellidos != "López" {
		t.Errorf("unexpected usuario %+v", dir)
	}
	if dir.Rol != usuario.RolAdministrador || !dir.IsActive() || dir.CheckPassword("secreto1") != nil {
		t.Errorf("unexpected admin usuario %+v", dir)
	}

	otro, err := env.UsuarioRepo.GetByCodigo(ctx, "otro")
	if err != nil {
		t.Fatalf("GetByCodigo() failed, %v", err)
	}
	if otro.Email != "otro2@test.gt" || otro.Rol != usuario.RolOperador || otro.CheckPassword("nuevo-secreto") != nil {
		t.Errorf("usuario was not updated: %+v", otro)
	}
}

func Test_commandLine_resetPassword(t *testing.T) {
	cli, env := setup(t)

	usr := testutil.CreateUsuario(t, env.UsuarioRepo, "awe", "awe@test.gt", "mdr12345", usuario.RolOperador)

	tests := []cliTest{
		{name: "no args", args: []string{"resetpassword"}, wantErr: errHelp},
		{name: "usuario but no password", args: []string{"resetpassword", "-usuario", "lol"}, wantErr: errHelp},
		{name: "usuario not found", args: []string{"resetpassword", "-usuario", "lol"}, extra: "lol", wantErr: usuario.ErrNotFound},
		{name: "reset with codigo", args: []string{"resetpassword", "-usuario", "AWE"}, extra: "lol"},
		{name: "reset with email", args: []string{"resetpassword", "-usuario", usr.Email}, extra: "lmao"},
	}
	for _, tt := range tests {
		args := append([]string{"admin"}, tt.args...)
		pwd, _ := tt.extra.(string)
		mockPassword(pwd)

		t.Run(tt.name, func(t *testing.T) {
			err := cli.run(args)
			tt.check(t, err)
			if err != nil {
				return
			}
			refreshed, err := env.UsuarioRepo.GetByCodigo(context.Background(), usr.CodigoUsuario)
			if err != nil {
				t.Fatalf("GetByCodigo() failed, %v", err)
			}
			if bytes.Equal(refreshed.PasswordHash, usr.PasswordHash) || refreshed.CheckPassword(pwd) != nil {
				t.Error("failed to update new password")
			}
			usr = refreshed
		})
	}
}

func Test_commandLine_cleanupQR(t *testing.T) {
	cli, _ := setup(t)

	t.Run("nothing expired", func(t *testing.T) {
		if err := cli.run([]string{"admin", "cleanupqr"}); err != nil {
			t.Errorf("cli.run() unexpected error = %v", err)
		}
	})

	mock := &qrCleanerMock{count: 3}
	cli.qrSvc = mock
	t.Run("removes expired", func(t *testing.T) {
		if err := cli.run([]string{"admin", "cleanupqr"}); err != nil {
			t.Errorf("cli.run() unexpected error = %v", err)
		}
		if mock.calls != 1 {
			t.Errorf("CleanupExpired() calls = %d, want 1", mock.calls)
		}
	})

	failure := errors.New("db is down")
	cli.qrSvc = &qrCleanerMock{err: failure}
	t.Run("failure", func(t *testing.T) {
		if err := cli.run([]string{"admin", "cleanupqr"}); err != failure {
			t.Errorf("cli.run() error = %v, want %v", err, failure)
		}
	})
}
