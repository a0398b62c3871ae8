package contacto

import (
	"github.com/go-playground/validator/v10"
	"github.com/volatiletech/null/v8"

	"github.com/manitascreativas/escuela/core"
)

type Contacto struct {
	ID              int         `json:"id" db:"id"`
	Nombre          string      `json:"nombre" db:"nombre"`
	TelefonoTrabajo null.String `json:"telefonoTrabajo" db:"telefono_trabajo"`
	Celular         null.String `json:"celular" db:"celular"`
	Email           null.String `json:"email" db:"email"`
	Direccion       null.String `json:"direccion" db:"direccion"`
	Nit             null.String `json:"nit" db:"nit"`
}

// AlumnoContacto links a student to one of their contacts.
type AlumnoContacto struct {
	AlumnoID   int      `json:"alumnoId" db:"alumno_id"`
	ContactoID int      `json:"contactoId" db:"contacto_id"`
	Parentesco string   `json:"parentesco" db:"parentesco"`
	Contacto   Contacto `json:"contacto" db:"contacto"`
}

type ContactoData struct {
	Nombre          string `json:"nombre" validate:"required,max=150"`
	TelefonoTrabajo string `json:"telefonoTrabajo" validate:"max=20"`
	Celular         string `json:"celular" validate:"max=20"`
	Email           string `json:"email" validate:"omitempty,email"`
	Direccion       string `json:"direccion" validate:"max=255"`
	Nit             string `json:"nit" validate:"max=20"`
}

func (cd *ContactoData) Validate(validate *validator.Validate) error {
	cd.Nombre = core.CleanString(cd.Nombre)
	cd.TelefonoTrabajo = core.CleanString(cd.TelefonoTrabajo)
	cd.Celular = core.CleanString(cd.Celular)
	cd.Email = core.CleanString(cd.Email, true /* lower */)
	cd.Direccion = core.CleanString(cd.Direccion)
	cd.Nit = core.CleanString(cd.Nit)
	return validate.Struct(cd)
}

func (cd ContactoData) toContacto(id int) Contacto {
	return Contacto{
		ID:              id,
		Nombre:          cd.Nombre,
		TelefonoTrabajo: null.NewString(cd.TelefonoTrabajo, cd.TelefonoTrabajo != ""),
		Celular:         null.NewString(cd.Celular, cd.Celular != ""),
		Email:           null.NewString(cd.Email, cd.Email != ""),
		Direccion:       null.NewString(cd.Direccion, cd.Direccion != ""),
		Nit:             null.NewString(cd.Nit, cd.Nit != ""),
	}
}

type LinkData struct {
	AlumnoID   int    `json:"alumnoId" validate:"required,gt=0"`
	ContactoID int    `json:"contactoId" validate:"required,gt=0"`
	Parentesco string `json:"parentesco" validate:"required,max=50"`
}

func (ld *LinkData) Validate(validate *validator.Validate) error {
	ld.Parentesco = core.CleanString(ld.Parentesco)
	return validate.Struct(ld)
}

type ParentescoData struct {
	Parentesco string `json:"parentesco" validate:"required,max=50"`
}

func (pd *ParentescoData) Validate(validate *validator.Validate) error {
	pd.Parentesco = core.CleanString(pd.Parentesco)
	return validate.Struct(pd)
}
