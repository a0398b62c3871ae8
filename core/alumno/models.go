package alumno

import (
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"
	"github.com/volatiletech/null/v8"

	"github.com/manitascreativas/escuela/core"
)

// Estados
const (
	EstadoActivo     = 1
	EstadoInactivo   = 2
	EstadoRetirado   = 3
	EstadoTrasladado = 4
)

var estadoNombres = map[int]string{
	EstadoActivo:     "Activo",
	EstadoInactivo:   "Inactivo",
	EstadoRetirado:   "Retirado",
	EstadoTrasladado: "Trasladado",
}

func EstadoNombre(estado int) string { return estadoNombres[estado] }

type Alumno struct {
	ID                     int                 `json:"id" db:"id"`
	Codigo                 string              `json:"codigo" db:"codigo"`
	PrimerNombre           string              `json:"primerNombre" db:"primer_nombre"`
	SegundoNombre          null.String         `json:"segundoNombre" db:"segundo_nombre"`
	TercerNombre           null.String         `json:"tercerNombre" db:"tercer_nombre"`
	PrimerApellido         string              `json:"primerApellido" db:"primer_apellido"`
	SegundoApellido        null.String         `json:"segundoApellido" db:"segundo_apellido"`
	SedeID                 int                 `json:"sedeId" db:"sede_id"`
	GradoID                int                 `json:"gradoId" db:"grado_id"`
	Seccion                null.String         `json:"seccion" db:"seccion"`
	Becado                 bool                `json:"becado" db:"becado"`
	BecaParcialPorcentaje  decimal.NullDecimal `json:"becaParcialPorcentaje" db:"beca_parcial_porcentaje"`
	Estado                 int                 `json:"estado" db:"estado"`
	Observaciones          null.String         `json:"observaciones" db:"observaciones"`
	Direccion              null.String         `json:"direccion" db:"direccion"`
	FechaRetiro            null.Time           `json:"fechaRetiro" db:"fecha_retiro"`
	FechaTraslado          null.Time           `json:"fechaTraslado" db:"fecha_traslado"`
	FechaCreacion          time.Time           `json:"fechaCreacion" db:"fecha_creacion"`
	FechaActualizacion     null.Time           `json:"fechaActualizacion" db:"fecha_actualizacion"`
	UsuarioCreacionID      int                 `json:"usuarioCreacionId" db:"usuario_creacion_id"`
	UsuarioActualizacionID null.Int            `json:"usuarioActualizacionId" db:"usuario_actualizacion_id"`
}

// FullName joins every name part, names first.
func (a Alumno) FullName() string {
	return core.JoinNonEmpty(a.PrimerNombre, a.SegundoNombre.String, a.TercerNombre.String, a.PrimerApellido, a.SegundoApellido.String)
}

// ListName joins every name part, surnames first.
func (a Alumno) ListName() string {
	apellidos := core.JoinNonEmpty(a.PrimerApellido, a.SegundoApellido.String)
	nombres := core.JoinNonEmpty(a.PrimerNombre, a.SegundoNombre.String, a.TercerNombre.String)
	if apellidos == "" {
		return nombres
	}
	return apellidos + ", " + nombres
}

// BecaPorcentaje is the share of the fees waived, from 0 to 100.
func (a Alumno) BecaPorcentaje() decimal.Decimal {
	if !a.Becado {
		return decimal.Zero
	}
	if !a.BecaParcialPorcentaje.Valid || a.BecaParcialPorcentaje.Decimal.GreaterThanOrEqual(decimal.NewFromInt(100)) {
		return decimal.NewFromInt(100)
	}
	return a.BecaParcialPorcentaje.Decimal
}

// ContactoResumen is a contact as listed with its student.
type ContactoResumen struct {
	AlumnoID   int         `json:"-" db:"alumno_id"`
	ContactoID int         `json:"contactoId" db:"contacto_id"`
	Nombre     string      `json:"nombre" db:"nombre"`
	Parentesco string      `json:"parentesco" db:"parentesco"`
	Celular    null.String `json:"celular" db:"celular"`
	Email      null.String `json:"email" db:"email"`
	Nit        null.String `json:"nit" db:"nit"`
}

type AlumnoFull struct {
	Alumno
	SedeNombre           string            `json:"sedeNombre" db:"sede_nombre"`
	GradoNombre          string            `json:"gradoNombre" db:"grado_nombre"`
	NivelEducativoID     int               `json:"nivelEducativoId" db:"nivel_educativo_id"`
	NivelEducativoNombre string            `json:"nivelEducativoNombre" db:"nivel_educativo_nombre"`
	Contactos            []ContactoResumen `json:"contactos" db:"-"`
}

// AlumnoData contains the information needed to create or update an Alumno.
type AlumnoData struct {
	Codigo                string           `json:"codigo" validate:"required,max=20,codigo"`
	PrimerNombre          string           `json:"primerNombre" validate:"required,max=50"`
	SegundoNombre         string           `json:"segundoNombre" validate:"max=50"`
	TercerNombre          string           `json:"tercerNombre" validate:"max=50"`
	PrimerApellido        string           `json:"primerApellido" validate:"required,max=50"`
	SegundoApellido       string           `json:"segundoApellido" validate:"max=50"`
	SedeID                int              `json:"sedeId" validate:"required,gt=0"`
	GradoID               int              `json:"gradoId" validate:"required,gt=0"`
	Seccion               string           `json:"seccion" validate:"max=10"`
	Becado                bool             `json:"becado"`
	BecaParcialPorcentaje *decimal.Decimal `json:"becaParcialPorcentaje"`
	Estado                int              `json:"estado" validate:"omitempty,min=1,max=4"`
	Observaciones         string           `json:"observaciones" validate:"max=500"`
	Direccion             string           `json:"direccion" validate:"max=255"`
	FechaRetiro           *time.Time       `json:"fechaRetiro"`
	FechaTraslado         *time.Time       `json:"fechaTraslado"`
}

func (ad *AlumnoData) Validate(validate *validator.Validate) error {
	ad.Codigo = core.CleanString(ad.Codigo)
	ad.PrimerNombre = core.CleanString(ad.PrimerNombre)
	ad.SegundoNombre = core.CleanString(ad.SegundoNombre)
	ad.TercerNombre = core.CleanString(ad.TercerNombre)
	ad.PrimerApellido = core.CleanString(ad.PrimerApellido)
	ad.SegundoApellido = core.CleanString(ad.SegundoApellido)
	ad.Seccion = core.CleanString(ad.Seccion)
	ad.Observaciones = core.CleanString(ad.Observaciones)
	ad.Direccion = core.CleanString(ad.Direccion)

	if err := validate.Struct(ad); err != nil {
		return err
	}
	if ad.BecaParcialPorcentaje != nil {
		if !ad.Becado {
			return core.NewValidationError(nil, core.FieldError{
				Field: "becaParcialPorcentaje",
				Error: "only a becado alumno can have a partial scholarship",
			})
		}
		pct := *ad.BecaParcialPorcentaje
		if !pct.IsPositive() || pct.GreaterThan(decimal.NewFromInt(100)) {
			return core.NewValidationError(nil, core.FieldError{
				Field: "becaParcialPorcentaje",
				Error: "must be greater than 0 and at most 100",
			})
		}
	}
	return nil
}

type SearchFilter struct {
	Nombre   string `query:"nombre"`
	Apellido string `query:"apellido"`
}

func (sf *SearchFilter) Clean() {
	sf.Nombre = core.CleanString(sf.Nombre)
	sf.Apellido = core.CleanString(sf.Apellido)
}

func (sf *SearchFilter) IsEmpty() bool {
	return sf.Nombre == "" && sf.Apellido == ""
}
