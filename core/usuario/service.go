package usuario

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"time"

	"github.com/volatiletech/null/v8"

	"github.com/manitascreativas/escuela/core"
)

var (
	// errors
	ErrNotFound           = core.NewNotFoundError("usuario not found")
	ErrRolNotFound        = core.NewNotFoundError("rol not found")
	ErrEmailExists        = errors.New("a user with this email already exists")
	ErrCodigoExists       = errors.New("a user with this codigoUsuario already exists")
	ErrInvalidCredentials = core.NewUnauthorizedError("invalid credentials")
	ErrUsuarioInactivo    = core.NewUnauthorizedError("usuario inactivo")
	ErrUsuarioBloqueado   = core.NewUnauthorizedError("usuario bloqueado")
	errIncorrectPwd       = errors.New("incorrect password")
)

type (
	Repository interface {
		// CheckUniqueness returns ErrCodigoExists or ErrEmailExists when another Usuario already uses them.
		CheckUniqueness(ctx context.Context, codigo, email string, excludedUsers ...Usuario) error
		Create(ctx context.Context, usr Usuario) (Usuario, error)
		QueryAll(ctx context.Context, ordering []core.DBOrdering) ([]Usuario, error)
		GetByID(ctx context.Context, id int) (Usuario, error)
		GetByCodigo(ctx context.Context, codigo string) (Usuario, error)
		GetByEmail(ctx context.Context, email string) (Usuario, error)
		Update(ctx context.Context, usr Usuario) (Usuario, error)
		SetLastLogin(ctx context.Context, id int, at time.Time) error
		Delete(ctx context.Context, id int) error

		QueryRoles(ctx context.Context) ([]Rol, error)
		GetRolByNombre(ctx context.Context, nombre string) (Rol, error)
	}

	ServiceInterface interface {
		CheckUniqueness(ctx context.Context, codigo, email string, excludedUsers ...Usuario) error
		Create(ctx context.Context, nu NewUsuario) (Usuario, error)
		QueryAll(ctx context.Context, ordering []core.DBOrdering) ([]Usuario, error)
		GetByID(ctx context.Context, id int) (Usuario, error)
		GetByCodigo(ctx context.Context, codigo string) (Usuario, error)
		GetByEmail(ctx context.Context, email string) (Usuario, error)
		Update(ctx context.Context, id int, uu UpdateUsuario) (Usuario, error)
		Delete(ctx context.Context, id int) error
		QueryRoles(ctx context.Context) ([]Rol, error)

		// Authenticate checks the credentials and the state of the Usuario, then records the login.
		Authenticate(ctx context.Context, codigo, pwd string) (Usuario, error)
		ChangePassword(ctx context.Context, usr Usuario, cp ChangePassword) error
		RequestPasswordReset(ctx context.Context, email string) error
		ResetPassword(ctx context.Context, rp ResetPassword) error
	}

	service struct {
		repo    Repository
		mailSvc core.EmailService
		conf    *core.Config
	}
)

func NewService(repo Repository, mailSvc core.EmailService, conf *core.Config) ServiceInterface {
	secretKey = []byte(conf.SecretKey)
	if conf.PasswordResetTimeoutDelta > 0 {
		passwordResetTimeoutDelta = conf.PasswordResetTimeoutDelta
	}
	return &service{repo: repo, mailSvc: mailSvc, conf: conf}
}

func (svc *service) CheckUniqueness(ctx context.Context, codigo, email string, exclUsers ...Usuario) error {
	if err := svc.repo.CheckUniqueness(ctx, codigo, email, exclUsers...); err != nil {
		var field string
		switch err {
		case ErrCodigoExists:
			field = "codigoUsuario"
		case ErrEmailExists:
			field = "email"
		default:
			return err
		}
		return core.NewValidationError(err, core.FieldError{Field: field, Error: err.Error()})
	}
	return nil
}

func (svc *service) getRol(ctx context.Context, nombre string) (Rol, error) {
	rol, err := svc.repo.GetRolByNombre(ctx, nombre)
	if err == ErrRolNotFound {
		msg := fmt.Sprintf("Rol '%s' no encontrado", nombre)
		return Rol{}, core.NewValidationError(errors.New(msg), core.FieldError{Field: "rol", Error: msg})
	}
	return rol, err
}

func (svc *service) Create(ctx context.Context, nu NewUsuario) (Usuario, error) {
	rol, err := svc.getRol(ctx, nu.Rol)
	if err != nil {
		return Usuario{}, err
	}

	now := time.Now().UTC()
	usr := Usuario{
		CodigoUsuario:      nu.CodigoUsuario,
		Nombres:            nu.Nombres,
		Apellidos:          nu.Apellidos,
		Email:              nu.Email,
		Celular:            null.NewString(nu.Celular, nu.Celular != ""),
		EstadoUsuario:      EstadoActivo,
		RolID:              rol.ID,
		Rol:                rol.Nombre,
		EsAdmin:            rol.EsAdmin,
		FechaCreacion:      now,
		FechaActualizacion: now,
	}
	if err := usr.SetPassword(nu.Password); err != nil {
		return Usuario{}, err
	}
	return svc.repo.Create(ctx, usr)
}

func (svc *service) QueryAll(ctx context.Context, ordering []core.DBOrdering) ([]Usuario, error) {
	return svc.repo.QueryAll(ctx, ordering)
}

func (svc *service) GetByID(ctx context.Context, id int) (Usuario, error) {
	return svc.repo.GetByID(ctx, id)
}

func (svc *service) GetByCodigo(ctx context.Context, codigo string) (Usuario, error) {
	return svc.repo.GetByCodigo(ctx, core.CleanString(codigo, true /* lower */))
}

func (svc *service) GetByEmail(ctx context.Context, email string) (Usuario, error) {
	return svc.repo.GetByEmail(ctx, core.CleanString(email, true /* lower */))
}

func (svc *service) Update(ctx context.Context, id int, uu UpdateUsuario) (Usuario, error) {
	usr, err := svc.repo.GetByID(ctx, id)
	if err != nil {
		return Usuario{}, err
	}
	if uu.Rol != "" && uu.Rol != usr.Rol {
		rol, err := svc.getRol(ctx, uu.Rol)
		if err != nil {
			return Usuario{}, err
		}
		usr.RolID, usr.Rol, usr.EsAdmin = rol.ID, rol.Nombre, rol.EsAdmin
	}

	usr.Nombres = uu.Nombres
	usr.Apellidos = uu.Apellidos
	usr.Email = uu.Email
	if uu.Celular != nil {
		cel := core.CleanString(*uu.Celular)
		usr.Celular = null.NewString(cel, cel != "")
	}
	if uu.EstadoUsuario != "" {
		usr.EstadoUsuario = uu.EstadoUsuario
	}
	usr.FechaActualizacion = time.Now().UTC()
	if uu.Password != "" {
		if err := usr.SetPassword(uu.Password); err != nil {
			return Usuario{}, err
		}
	}
	return svc.repo.Update(ctx, usr)
}

func (svc *service) Delete(ctx context.Context, id int) error {
	return svc.repo.Delete(ctx, id)
}

func (svc *service) QueryRoles(ctx context.Context) ([]Rol, error) {
	return svc.repo.QueryRoles(ctx)
}

func (svc *service) Authenticate(ctx context.Context, codigo, pwd string) (Usuario, error) {
	codigo = core.CleanString(codigo, true /* lower */)
	usr, err := svc.repo.GetByCodigo(ctx, codigo)
	if err == ErrNotFound {
		usr, err = svc.repo.GetByEmail(ctx, codigo)
	}
	if err != nil {
		if err == ErrNotFound {
			return Usuario{}, ErrInvalidCredentials
		}
		return Usuario{}, err
	}
	if err = usr.CheckPassword(pwd); err != nil {
		return Usuario{}, ErrInvalidCredentials
	}
	switch usr.EstadoUsuario {
	case EstadoInactivo:
		return Usuario{}, ErrUsuarioInactivo
	case EstadoBloqueado:
		return Usuario{}, ErrUsuarioBloqueado
	}

	now := time.Now().UTC()
	if err := svc.repo.SetLastLogin(ctx, usr.ID, now); err != nil {
		return Usuario{}, err
	}
	usr.LastLogin = null.TimeFrom(now)
	return usr, nil
}

func (svc *service) ChangePassword(ctx context.Context, usr Usuario, cp ChangePassword) error {
	if err := usr.CheckPassword(cp.CurrentPassword); err != nil {
		return core.NewValidationError(errIncorrectPwd, core.FieldError{Field: "currentPassword", Error: errIncorrectPwd.Error()})
	}
	if err := usr.SetPassword(cp.NewPassword); err != nil {
		return err
	}
	usr.FechaActualizacion = time.Now().UTC()
	_, err := svc.repo.Update(ctx, usr)
	return err
}

func (svc *service) RequestPasswordReset(ctx context.Context, email string) error {
	usr, err := svc.GetByEmail(ctx, email)
	if err != nil {
		return err
	}
	if !usr.IsActive() {
		return nil
	}
	go svc.sendPasswordResetMail(usr)
	return nil
}

func (svc *service) sendPasswordResetMail(usr Usuario) {
	svc.mailSvc.SendMessages(&core.EmailMessage{
		To:           []mail.Address{{Name: usr.FullName(), Address: usr.Email}},
		Subject:      "Restablecer contraseña",
		TemplateName: "password_reset",
		TemplateData: passwordResetData{
			Name:          usr.FullName(),
			CodigoUsuario: usr.CodigoUsuario,
			UID:           EncodeUID(usr),
			Token:         makeToken(usr),
		},
	})
}

func (svc *service) ResetPassword(ctx context.Context, rp ResetPassword) error {
	id, err := decodeUID(rp.UID)
	if err != nil {
		return core.NewValidationError(errInvalidToken, core.FieldError{Field: "uid", Error: errInvalidToken.Error()})
	}
	usr, err := svc.repo.GetByID(ctx, id)
	if err != nil {
		if err == ErrNotFound {
			return core.NewValidationError(errInvalidToken, core.FieldError{Field: "uid", Error: errInvalidToken.Error()})
		}
		return err
	}
	if err := verifyToken(usr, rp.Token); err != nil {
		return core.NewValidationError(err, core.FieldError{Field: "token", Error: err.Error()})
	}

	if err := usr.SetPassword(rp.Password); err != nil {
		return err
	}
	usr.FechaActualizacion = time.Now().UTC()
	_, err = svc.repo.Update(ctx, usr)
	return err
}
