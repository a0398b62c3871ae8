package pago

import (
	"io"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"
	"github.com/volatiletech/null/v8"

	"github.com/manitascreativas/escuela/core"
)

// Medios de pago
const (
	MedioEfectivo              = 1
	MedioTarjetaCredito        = 2
	MedioTarjetaDebito         = 3
	MedioTransferenciaBancaria = 4
	MedioCheque                = 5
	MedioBoletaDeposito        = 6
	MedioPagoMovil             = 7
)

const EstadoCarnetPagado = "PAGADO"

var medioNombres = map[int]string{
	MedioEfectivo:              "Efectivo",
	MedioTarjetaCredito:        "Tarjeta de Crédito",
	MedioTarjetaDebito:         "Tarjeta de Débito",
	MedioTransferenciaBancaria: "Transferencia Bancaria",
	MedioCheque:                "Cheque",
	MedioBoletaDeposito:        "Boleta de Depósito",
	MedioPagoMovil:             "Pago Móvil",
}

func MedioNombre(medio int) string { return medioNombres[medio] }

type Pago struct {
	ID                     int             `json:"id" db:"id"`
	CicloEscolar           int             `json:"cicloEscolar" db:"ciclo_escolar"`
	Fecha                  time.Time       `json:"fecha" db:"fecha"`
	Monto                  decimal.Decimal `json:"monto" db:"monto"`
	MedioPago              int             `json:"medioPago" db:"medio_pago"`
	Notas                  null.String     `json:"notas" db:"notas"`
	AlumnoID               int             `json:"alumnoId" db:"alumno_id"`
	RubroID                int             `json:"rubroId" db:"rubro_id"`
	EsColegiatura          bool            `json:"esColegiatura" db:"es_colegiatura"`
	MesColegiatura         null.Int        `json:"mesColegiatura" db:"mes_colegiatura"`
	AnioColegiatura        null.Int        `json:"anioColegiatura" db:"anio_colegiatura"`
	EsPagoDeCarnet         bool            `json:"esPagoDeCarnet" db:"es_pago_de_carnet"`
	EstadoCarnet           null.String     `json:"estadoCarnet" db:"estado_carnet"`
	EsPagoDeTransporte     bool            `json:"esPagoDeTransporte" db:"es_pago_de_transporte"`
	EsPagoDeUniforme       bool            `json:"esPagoDeUniforme" db:"es_pago_de_uniforme"`
	FechaCreacion          time.Time       `json:"fechaCreacion" db:"fecha_creacion"`
	FechaActualizacion     null.Time       `json:"fechaActualizacion" db:"fecha_actualizacion"`
	UsuarioCreacionID      int             `json:"usuarioCreacionId" db:"usuario_creacion_id"`
	UsuarioActualizacionID null.Int        `json:"usuarioActualizacionId" db:"usuario_actualizacion_id"`
	EsAnulado              bool            `json:"esAnulado" db:"es_anulado"`
	MotivoAnulacion        null.String     `json:"motivoAnulacion" db:"motivo_anulacion"`
	FechaAnulacion         null.Time       `json:"fechaAnulacion" db:"fecha_anulacion"`
	UsuarioAnulacionID     null.Int        `json:"usuarioAnulacionId" db:"usuario_anulacion_id"`
	ImagenesPago           []PagoImagen    `json:"imagenesPago" db:"-"`
	PagoDetalles           []PagoDetalle   `json:"pagoDetalles" db:"-"`
}

type PagoImagen struct {
	ID                int    `json:"id" db:"id"`
	PagoID            int    `json:"pagoId" db:"pago_id"`
	ImagenURL         string `json:"imagenUrl" db:"imagen_url"`
	EsImagenEliminada bool   `json:"esImagenEliminada" db:"es_imagen_eliminada"`
}

// PagoDetalle is a uniform line item of a payment.
type PagoDetalle struct {
	ID                     int             `json:"id" db:"id"`
	PagoID                 int             `json:"pagoId" db:"pago_id"`
	RubroUniformeDetalleID int             `json:"rubroUniformeDetalleId" db:"rubro_uniforme_detalle_id"`
	PrecioUnitario         decimal.Decimal `json:"precioUnitario" db:"precio_unitario"`
	Cantidad               int             `json:"cantidad" db:"cantidad"`
	Subtotal               decimal.Decimal `json:"subtotal" db:"subtotal"`
	PrendaUniformeID       int             `json:"prendaUniformeId" db:"prenda_uniforme_id"`
	PrendaDescripcion      string          `json:"prendaUniformeDescripcion" db:"prenda_descripcion"`
}

// PagoRead is a payment with the names of everything it references.
type PagoRead struct {
	Pago
	AlumnoCodigo         string `json:"alumnoCodigo" db:"alumno_codigo"`
	AlumnoNombre         string `json:"alumnoNombre" db:"alumno_nombre"`
	GradoID              int    `json:"gradoId" db:"grado_id"`
	GradoNombre          string `json:"gradoNombre" db:"grado_nombre"`
	Seccion              string `json:"seccion" db:"seccion"`
	SedeNombre           string `json:"sedeNombre" db:"sede_nombre"`
	RubroDescripcion     string `json:"rubroDescripcion" db:"rubro_descripcion"`
	TipoRubro            int    `json:"tipoRubro" db:"rubro_tipo"`
	TipoRubroDescripcion string `json:"tipoRubroDescripcion" db:"-"`
	MedioPagoDescripcion string `json:"medioPagoDescripcion" db:"-"`
	UsuarioNombre        string `json:"usuarioNombre" db:"usuario_nombre"`
}

type ReadFilter struct {
	CicloEscolar int
	GradoID      int
	AlumnoID     int
	RubroID      int
	NewestFirst  bool
}

// ImagenUpload is a receipt picture sent along a payment.
type ImagenUpload struct {
	FileName string
	Content  io.Reader
}

type PagoDetalleData struct {
	RubroUniformeDetalleID int             `json:"rubroUniformeDetalleId" validate:"required,gt=0"`
	PrecioUnitario         decimal.Decimal `json:"precioUnitario"`
	Cantidad               int             `json:"cantidad" validate:"required,gt=0"`
}

// Subtotal is precioUnitario x cantidad.
func (dd PagoDetalleData) Subtotal() decimal.Decimal {
	return core.RoundMoney(dd.PrecioUnitario.Mul(decimal.NewFromInt(int64(dd.Cantidad))))
}

// PagoUpload contains the information needed to register or edit a payment.
type PagoUpload struct {
	CicloEscolar       int               `json:"cicloEscolar" validate:"required,min=2000,max=2100"`
	Fecha              time.Time         `json:"fecha" validate:"required"`
	Monto              decimal.Decimal   `json:"monto"`
	MedioPago          int               `json:"medioPago" validate:"required,min=1,max=7"`
	Notas              string            `json:"notas" validate:"max=500"`
	AlumnoID           int               `json:"alumnoId" validate:"required,gt=0"`
	RubroID            int               `json:"rubroId" validate:"required,gt=0"`
	EsColegiatura      bool              `json:"esColegiatura"`
	MesColegiatura     int               `json:"mesColegiatura" validate:"omitempty,min=1,max=12"`
	AnioColegiatura    int               `json:"anioColegiatura" validate:"omitempty,min=2000,max=2100"`
	EsPagoDeCarnet     bool              `json:"esPagoDeCarnet"`
	EstadoCarnet       string            `json:"estadoCarnet" validate:"max=50"`
	EsPagoDeTransporte bool              `json:"esPagoDeTransporte"`
	EsPagoDeUniforme   bool              `json:"esPagoDeUniforme"`
	PagoDetalles       []PagoDetalleData `json:"pagoDetalles" validate:"dive"`
}

func (pu *PagoUpload) Validate(validate *validator.Validate) error {
	pu.Notas = core.CleanString(pu.Notas)
	pu.EstadoCarnet = core.CleanString(pu.EstadoCarnet)
	if err := validate.Struct(pu); err != nil {
		return err
	}
	if !pu.Monto.IsPositive() {
		return core.NewValidationError(nil, core.FieldError{Field: "monto", Error: "must be greater than 0"})
	}
	for _, d := range pu.PagoDetalles {
		if d.PrecioUnitario.IsNegative() {
			return core.NewValidationError(nil, core.FieldError{Field: "precioUnitario", Error: "must not be negative"})
		}
	}
	return nil
}

type VoidData struct {
	MotivoAnulacion string `json:"motivoAnulacion" validate:"required,max=500"`
}

func (vd *VoidData) Validate(validate *validator.Validate) error {
	vd.MotivoAnulacion = core.CleanString(vd.MotivoAnulacion)
	return validate.Struct(vd)
}
