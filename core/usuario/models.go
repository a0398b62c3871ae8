package usuario

import (
	"context"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/volatiletech/null/v8"
	"golang.org/x/crypto/bcrypt"

	"github.com/manitascreativas/escuela/core"
)

// Estados
const (
	EstadoActivo    = "Activo"
	EstadoInactivo  = "Inactivo"
	EstadoBloqueado = "Bloqueado"
)

// Seeded roles
const (
	RolAdministrador = "Administrador"
	RolOperador      = "Operador"
)

type Rol struct {
	ID      int    `json:"id" db:"id"`
	Nombre  string `json:"nombre" db:"nombre"`
	EsAdmin bool   `json:"esAdmin" db:"es_admin"`
}

type Usuario struct {
	ID                 int         `json:"id" db:"id"`
	CodigoUsuario      string      `json:"codigoUsuario" db:"codigo_usuario"`
	Nombres            string      `json:"nombres" db:"nombres"`
	Apellidos          string      `json:"apellidos" db:"apellidos"`
	Email              string      `json:"email" db:"email"`
	Celular            null.String `json:"celular" db:"celular"`
	PasswordHash       []byte      `json:"-" db:"password_hash"`
	EstadoUsuario      string      `json:"estadoUsuario" db:"estado_usuario"`
	RolID              int         `json:"rolId" db:"rol_id"`
	Rol                string      `json:"rol" db:"rol_nombre"`
	EsAdmin            bool        `json:"esAdmin" db:"es_admin"`
	FechaCreacion      time.Time   `json:"fechaCreacion" db:"fecha_creacion"`           // UTC
	FechaActualizacion time.Time   `json:"fechaActualizacion" db:"fecha_actualizacion"` // UTC
	LastLogin          null.Time   `json:"lastLogin" db:"last_login"`                   // UTC
}

func (u *Usuario) SetPassword(pwd string) error {
	hash, err := bcrypt.GenerateFromPassword([]byte(pwd), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	u.PasswordHash = hash
	return nil
}

func (u *Usuario) CheckPassword(pwd string) error {
	return bcrypt.CompareHashAndPassword(u.PasswordHash, []byte(pwd))
}

func (u *Usuario) IsAdmin() bool { return u.EsAdmin }

func (u *Usuario) IsActive() bool { return u.EstadoUsuario == EstadoActivo }

func (u *Usuario) FullName() string { return core.JoinNonEmpty(u.Nombres, u.Apellidos) }

// NewUsuario contains information needed to create a new Usuario.
type NewUsuario struct {
	CodigoUsuario   string `json:"codigoUsuario" validate:"required,max=50,codigo"`
	Nombres         string `json:"nombres" validate:"required,max=100"`
	Apellidos       string `json:"apellidos" validate:"required,max=100"`
	Email           string `json:"email" validate:"required,email"`
	Celular         string `json:"celular" validate:"omitempty,max=20"`
	Rol             string `json:"rol" validate:"required"`
	Password        string `json:"password" validate:"required"`
	PasswordConfirm string `json:"passwordConfirm" validate:"required,eqfield=Password"`
}

func (nu *NewUsuario) Validate(ctx context.Context, validate *validator.Validate, svc ServiceInterface) error {
	nu.CodigoUsuario = core.CleanString(nu.CodigoUsuario, true /* lower */)
	nu.Nombres = core.CleanString(nu.Nombres)
	nu.Apellidos = core.CleanString(nu.Apellidos)
	nu.Email = core.CleanString(nu.Email, true /* lower */)
	nu.Celular = core.CleanString(nu.Celular)
	nu.Rol = core.CleanString(nu.Rol)

	if err := validate.Struct(nu); err != nil {
		return err
	}
	return svc.CheckUniqueness(ctx, nu.CodigoUsuario, nu.Email)
}

// UpdateUsuario defines what information may be provided to modify an existing Usuario.
type UpdateUsuario struct {
	Nombres         string  `json:"nombres" validate:"max=100"`
	Apellidos       string  `json:"apellidos" validate:"max=100"`
	Email           string  `json:"email" validate:"omitempty,email"`
	Celular         *string `json:"celular" validate:"omitempty,max=20"`
	EstadoUsuario   string  `json:"estadoUsuario" validate:"omitempty,oneof=Activo Inactivo Bloqueado"`
	Rol             string  `json:"rol"`
	Password        string  `json:"password" validate:"omitempty"`
	PasswordConfirm string  `json:"passwordConfirm" validate:"required_with=Password,eqfield=Password"`

	codigoUsuario string // used by the password policy
}

func (uu *UpdateUsuario) Validate(ctx context.Context, orig Usuario, validate *validator.Validate, svc ServiceInterface) error {
	if nombres := core.CleanString(uu.Nombres); nombres != "" {
		uu.Nombres = nombres
	} else {
		uu.Nombres = orig.Nombres
	}
	if apellidos := core.CleanString(uu.Apellidos); apellidos != "" {
		uu.Apellidos = apellidos
	} else {
		uu.Apellidos = orig.Apellidos
	}
	if email := core.CleanString(uu.Email, true /* lower */); email != "" {
		uu.Email = email
	} else {
		uu.Email = orig.Email
	}
	if uu.EstadoUsuario == "" {
		uu.EstadoUsuario = orig.EstadoUsuario
	}
	if uu.Rol = core.CleanString(uu.Rol); uu.Rol == "" {
		uu.Rol = orig.Rol
	}
	uu.codigoUsuario = orig.CodigoUsuario

	if err := validate.Struct(uu); err != nil {
		return err
	}
	return svc.CheckUniqueness(ctx, orig.CodigoUsuario, uu.Email, orig)
}

type ChangePassword struct {
	CurrentPassword    string `json:"currentPassword" validate:"required"`
	NewPassword        string `json:"newPassword" validate:"required"`
	NewPasswordConfirm string `json:"newPasswordConfirm" validate:"required,eqfield=NewPassword"`

	usr Usuario // used by the password policy
}

func (cp *ChangePassword) Validate(usr Usuario, validate *validator.Validate) error {
	cp.usr = usr
	return validate.Struct(cp)
}

type ResetPassword struct {
	Token           string `json:"token,omitempty" validate:"required"`
	UID             string `json:"uid,omitempty" validate:"required"`
	Password        string `json:"password,omitempty" validate:"required"`
	PasswordConfirm string `json:"passwordConfirm,omitempty" validate:"required,eqfield=Password"`
}

func (rp ResetPassword) Validate(validate *validator.Validate) error { return validate.Struct(rp) }

type passwordResetData struct {
	Name          string
	CodigoUsuario string
	UID           string
	Token         string
}
