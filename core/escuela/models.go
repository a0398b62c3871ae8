package escuela

import (
	"github.com/go-playground/validator/v10"
	"github.com/volatiletech/null/v8"

	"github.com/manitascreativas/escuela/core"
)

type Sede struct {
	ID        int         `json:"id" db:"id"`
	Nombre    string      `json:"nombre" db:"nombre"`
	Direccion null.String `json:"direccion" db:"direccion"`
}

type NivelEducativo struct {
	ID     int    `json:"id" db:"id"`
	Nombre string `json:"nombre" db:"nombre"`
	Activo bool   `json:"activo" db:"activo"`
}

type Grado struct {
	ID                   int         `json:"id" db:"id"`
	Nombre               string      `json:"nombre" db:"nombre"`
	Descripcion          null.String `json:"descripcion" db:"descripcion"`
	NivelEducativoID     int         `json:"nivelEducativoId" db:"nivel_educativo_id"`
	NivelEducativoNombre string      `json:"nivelEducativoNombre,omitempty" db:"nivel_educativo_nombre"`
}

type SedeData struct {
	Nombre    string `json:"nombre" validate:"required,max=100"`
	Direccion string `json:"direccion" validate:"max=255"`
}

func (sd *SedeData) Validate(validate *validator.Validate) error {
	sd.Nombre = core.CleanString(sd.Nombre)
	sd.Direccion = core.CleanString(sd.Direccion)
	return validate.Struct(sd)
}

type NivelEducativoData struct {
	Nombre string `json:"nombre" validate:"required,max=100"`
	Activo *bool  `json:"activo"`
}

func (nd *NivelEducativoData) Validate(validate *validator.Validate) error {
	nd.Nombre = core.CleanString(nd.Nombre)
	return validate.Struct(nd)
}

type GradoData struct {
	Nombre           string `json:"nombre" validate:"required,max=100"`
	Descripcion      string `json:"descripcion" validate:"max=255"`
	NivelEducativoID int    `json:"nivelEducativoId" validate:"required,gt=0"`
}

func (gd *GradoData) Validate(validate *validator.Validate) error {
	gd.Nombre = core.CleanString(gd.Nombre)
	gd.Descripcion = core.CleanString(gd.Descripcion)
	return validate.Struct(gd)
}
