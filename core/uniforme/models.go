package uniforme

import (
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"
	"github.com/volatiletech/null/v8"

	"github.com/manitascreativas/escuela/core"
)

// Eliminacion holds the soft delete fields shared by the uniform tables.
type Eliminacion struct {
	EsEliminado          bool        `json:"esEliminado" db:"es_eliminado"`
	MotivoEliminacion    null.String `json:"motivoEliminacion" db:"motivo_eliminacion"`
	FechaEliminacion     null.Time   `json:"fechaEliminacion" db:"fecha_eliminacion"`
	UsuarioEliminacionID null.Int    `json:"usuarioEliminacionId" db:"usuario_eliminacion_id"`
}

func (e *Eliminacion) markDeleted(motivo string, usuarioID int, at time.Time) {
	e.EsEliminado = true
	e.MotivoEliminacion = null.StringFrom(motivo)
	e.FechaEliminacion = null.TimeFrom(at)
	e.UsuarioEliminacionID = null.IntFrom(usuarioID)
}

// Auditoria holds the creation and update stamps shared by the uniform tables.
type Auditoria struct {
	FechaCreacion          time.Time `json:"fechaCreacion" db:"fecha_creacion"`
	FechaActualizacion     null.Time `json:"fechaActualizacion" db:"fecha_actualizacion"`
	UsuarioCreacionID      int       `json:"usuarioCreacionId" db:"usuario_creacion_id"`
	UsuarioActualizacionID null.Int  `json:"usuarioActualizacionId" db:"usuario_actualizacion_id"`
}

func (a *Auditoria) touch(usuarioID int, at time.Time) {
	a.FechaActualizacion = null.TimeFrom(at)
	a.UsuarioActualizacionID = null.IntFrom(usuarioID)
}

type PrendaUniforme struct {
	ID                int             `json:"id" db:"id"`
	Descripcion       string          `json:"descripcion" db:"descripcion"`
	Sexo              string          `json:"sexo" db:"sexo"`
	Talla             string          `json:"talla" db:"talla"`
	Precio            decimal.Decimal `json:"precio" db:"precio"`
	ExistenciaInicial int             `json:"existenciaInicial" db:"existencia_inicial"`
	Entradas          int             `json:"entradas" db:"entradas"`
	Salidas           int             `json:"salidas" db:"salidas"`
	Notas             null.String     `json:"notas" db:"notas"`
	ImagenesPrenda    []PrendaImagen  `json:"imagenesPrenda" db:"-"`
	Auditoria
	Eliminacion
}

// Stock is the number of garments available.
func (p PrendaUniforme) Stock() int {
	return p.ExistenciaInicial + p.Entradas - p.Salidas
}

type PrendaImagen struct {
	ID               int    `json:"id" db:"id"`
	PrendaUniformeID int    `json:"prendaUniformeId" db:"prenda_uniforme_id"`
	Imagen           string `json:"imagen" db:"imagen"`
}

// PrendaSimple is the short form of a garment used by selection lists.
type PrendaSimple struct {
	ID                int             `json:"id"`
	Descripcion       string          `json:"descripcion"`
	Sexo              string          `json:"sexo"`
	Talla             string          `json:"talla"`
	Precio            decimal.Decimal `json:"precio"`
	ExistenciaInicial int             `json:"existenciaInicial"`
	Entradas          int             `json:"entradas"`
	Salidas           int             `json:"salidas"`
	Stock             int             `json:"stock"`
	EsEliminado       bool            `json:"esEliminado"`
}

func (p PrendaUniforme) Simple() PrendaSimple {
	return PrendaSimple{
		ID:                p.ID,
		Descripcion:       p.Descripcion,
		Sexo:              p.Sexo,
		Talla:             p.Talla,
		Precio:            p.Precio,
		ExistenciaInicial: p.ExistenciaInicial,
		Entradas:          p.Entradas,
		Salidas:           p.Salidas,
		Stock:             p.Stock(),
		EsEliminado:       p.EsEliminado,
	}
}

type PrendaFilter struct {
	OnlyActive bool
	Sexo       string
	Talla      string
}

type ImagenData struct {
	FileName      string `json:"fileName" validate:"max=255"`
	ContentType   string `json:"contentType" validate:"required"`
	Base64Content string `json:"base64Content" validate:"required,base64"`
}

type PrendaData struct {
	Descripcion       string          `json:"descripcion" validate:"required,max=150"`
	Sexo              string          `json:"sexo" validate:"required,max=10"`
	Talla             string          `json:"talla" validate:"required,max=10"`
	Precio            decimal.Decimal `json:"precio"`
	ExistenciaInicial int             `json:"existenciaInicial" validate:"min=0"`
	Notas             string          `json:"notas" validate:"max=500"`
	Imagenes          []ImagenData    `json:"imagenes" validate:"dive"`
}

func (pd *PrendaData) Validate(validate *validator.Validate) error {
	pd.Descripcion = core.CleanString(pd.Descripcion)
	pd.Sexo = core.CleanString(pd.Sexo)
	pd.Talla = core.CleanString(pd.Talla)
	pd.Notas = core.CleanString(pd.Notas)
	if err := validate.Struct(pd); err != nil {
		return err
	}
	if pd.Precio.IsNegative() {
		return core.NewValidationError(nil, core.FieldError{Field: "precio", Error: "must not be negative"})
	}
	return nil
}

type EntradaUniforme struct {
	ID                      int              `json:"id" db:"id"`
	FechaEntrada            time.Time        `json:"fechaEntrada" db:"fecha_entrada"`
	Notas                   null.String      `json:"notas" db:"notas"`
	Total                   decimal.Decimal  `json:"total" db:"total"`
	EntradaUniformeDetalles []EntradaDetalle `json:"entradaUniformeDetalles" db:"-"`
	Auditoria
	Eliminacion
}

type EntradaDetalle struct {
	ID                        int             `json:"id" db:"id"`
	EntradaUniformeID         int             `json:"entradaUniformeId" db:"entrada_uniforme_id"`
	PrendaUniformeID          int             `json:"prendaUniformeId" db:"prenda_uniforme_id"`
	Cantidad                  int             `json:"cantidad" db:"cantidad"`
	Subtotal                  decimal.Decimal `json:"subtotal" db:"subtotal"`
	PrendaUniformeDescripcion string          `json:"prendaUniformeDescripcion" db:"prenda_descripcion"`
	PrendaUniformeSexo        string          `json:"prendaUniformeSexo" db:"prenda_sexo"`
	PrendaUniformeTalla       string          `json:"prendaUniformeTalla" db:"prenda_talla"`
	PrendaUniformePrecio      decimal.Decimal `json:"prendaUniformePrecio" db:"prenda_precio"`
}

type EntradaFilter struct {
	OnlyActive bool
	UsuarioID  int
	From       time.Time
	To         time.Time
}

type EntradaDetalleData struct {
	PrendaUniformeID int             `json:"prendaUniformeId" validate:"required,gt=0"`
	Cantidad         int             `json:"cantidad" validate:"required,gt=0"`
	Subtotal         decimal.Decimal `json:"subtotal"`
}

type EntradaData struct {
	FechaEntrada time.Time            `json:"fechaEntrada" validate:"required"`
	Notas        string               `json:"notas" validate:"max=500"`
	Detalles     []EntradaDetalleData `json:"detalles" validate:"required,min=1,dive"`
}

func (ed *EntradaData) Validate(validate *validator.Validate) error {
	ed.Notas = core.CleanString(ed.Notas)
	if err := validate.Struct(ed); err != nil {
		return err
	}
	for _, d := range ed.Detalles {
		if d.Subtotal.IsNegative() {
			return core.NewValidationError(nil, core.FieldError{Field: "subtotal", Error: "must not be negative"})
		}
	}
	return nil
}

// Total sums the subtotals of the details.
func (ed EntradaData) Total() decimal.Decimal {
	total := decimal.Zero
	for _, d := range ed.Detalles {
		total = total.Add(d.Subtotal)
	}
	return core.RoundMoney(total)
}

// RubroUniformeDetalle maps a uniform rubro to one of the garments it sells.
type RubroUniformeDetalle struct {
	ID                int             `json:"id" db:"id"`
	RubroID           int             `json:"rubroId" db:"rubro_id"`
	PrendaUniformeID  int             `json:"prendaUniformeId" db:"prenda_uniforme_id"`
	RubroDescripcion  string          `json:"rubroDescripcion" db:"rubro_descripcion"`
	PrendaDescripcion string          `json:"prendaUniformeDescripcion" db:"prenda_descripcion"`
	PrendaSexo        string          `json:"prendaUniformeSexo" db:"prenda_sexo"`
	PrendaTalla       string          `json:"prendaUniformeTalla" db:"prenda_talla"`
	PrendaPrecio      decimal.Decimal `json:"prendaUniformePrecio" db:"prenda_precio"`
	Auditoria
	Eliminacion
}

type RubroDetalleFilter struct {
	OnlyActive bool
	RubroID    int
	PrendaID   int
}

type RubroDetalleData struct {
	RubroID          int `json:"rubroId" validate:"required,gt=0"`
	PrendaUniformeID int `json:"prendaUniformeId" validate:"required,gt=0"`
}

func (rd *RubroDetalleData) Validate(validate *validator.Validate) error {
	return validate.Struct(rd)
}

func nullString(s string) null.String { return null.NewString(s, s != "") }
