package rubro

import (
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"
	"github.com/volatiletech/null/v8"

	"github.com/manitascreativas/escuela/core"
)

// Tipos de rubro
const (
	TipoColegiatura = 0
	TipoInscripcion = 1
	TipoMaterial    = 2
	TipoUniformes   = 3
	TipoLaboratorio = 4
	TipoCuotaUnica  = 5
	TipoUtiles      = 6
	TipoLibros      = 7
	TipoTransporte  = 8
	TipoOtros       = 9
)

var tipoNombres = [...]string{
	"Colegiatura", "Inscripción", "Material", "Uniformes", "Laboratorio",
	"Cuota Única", "Útiles", "Libros", "Transporte", "Otros",
}

func TipoNombre(tipo int) string {
	if tipo < 0 || tipo >= len(tipoNombres) {
		return ""
	}
	return tipoNombres[tipo]
}

type Rubro struct {
	ID                            int                 `json:"id" db:"id"`
	Descripcion                   string              `json:"descripcion" db:"descripcion"`
	Tipo                          int                 `json:"tipo" db:"tipo"`
	PenalizacionPorMoraMonto      decimal.NullDecimal `json:"penalizacionPorMoraMonto" db:"penalizacion_por_mora_monto"`
	PenalizacionPorMoraPorcentaje decimal.NullDecimal `json:"penalizacionPorMoraPorcentaje" db:"penalizacion_por_mora_porcentaje"`
	FechaLimitePagoAmarillo       null.Time           `json:"fechaLimitePagoAmarillo" db:"fecha_limite_pago_amarillo"`
	FechaLimitePagoRojo           null.Time           `json:"fechaLimitePagoRojo" db:"fecha_limite_pago_rojo"`
	EsColegiatura                 bool                `json:"esColegiatura" db:"es_colegiatura"`
	MesColegiatura                null.Int            `json:"mesColegiatura" db:"mes_colegiatura"`
	DiaLimitePagoAmarillo         null.Int            `json:"diaLimitePagoAmarillo" db:"dia_limite_pago_amarillo"`
	DiaLimitePagoRojo             null.Int            `json:"diaLimitePagoRojo" db:"dia_limite_pago_rojo"`
	MesLimitePago                 null.Int            `json:"mesLimitePago" db:"mes_limite_pago"`
	NivelEducativoID              null.Int            `json:"nivelEducativoId" db:"nivel_educativo_id"`
	GradoID                       null.Int            `json:"gradoId" db:"grado_id"`
	MontoPreestablecido           decimal.NullDecimal `json:"montoPreestablecido" db:"monto_preestablecido"`
	FechaInicioPromocion          null.Time           `json:"fechaInicioPromocion" db:"fecha_inicio_promocion"`
	FechaFinPromocion             null.Time           `json:"fechaFinPromocion" db:"fecha_fin_promocion"`
	Notas                         null.String         `json:"notas" db:"notas"`
	Activo                        bool                `json:"activo" db:"activo"`
	OrdenVisualizacionGrid        null.Int            `json:"ordenVisualizacionGrid" db:"orden_visualizacion_grid"`
	EsPagoDeCarnet                bool                `json:"esPagoDeCarnet" db:"es_pago_de_carnet"`
	EsPagoDeTransporte            bool                `json:"esPagoDeTransporte" db:"es_pago_de_transporte"`
	EsPagoDeUniforme              bool                `json:"esPagoDeUniforme" db:"es_pago_de_uniforme"`
	FechaCreacion                 time.Time           `json:"fechaCreacion" db:"fecha_creacion"`
	FechaActualizacion            null.Time           `json:"fechaActualizacion" db:"fecha_actualizacion"`
	UsuarioCreacionID             int                 `json:"usuarioCreacionId" db:"usuario_creacion_id"`
	UsuarioActualizacionID        null.Int            `json:"usuarioActualizacionId" db:"usuario_actualizacion_id"`
}

func (r Rubro) TipoNombre() string { return TipoNombre(r.Tipo) }

// DueDay is the day of the month a monthly fee is due: the red limit, else the yellow one, else `fallback`.
func (r Rubro) DueDay(fallback int) int {
	if r.DiaLimitePagoRojo.Valid && r.DiaLimitePagoRojo.Int > 0 {
		return r.DiaLimitePagoRojo.Int
	}
	if r.DiaLimitePagoAmarillo.Valid && r.DiaLimitePagoAmarillo.Int > 0 {
		return r.DiaLimitePagoAmarillo.Int
	}
	return fallback
}

// RubroData contains the information needed to create or update a Rubro.
type RubroData struct {
	Descripcion                   string           `json:"descripcion" validate:"required,max=150"`
	Tipo                          *int             `json:"tipo" validate:"required,min=0,max=9"`
	PenalizacionPorMoraMonto      *decimal.Decimal `json:"penalizacionPorMoraMonto"`
	PenalizacionPorMoraPorcentaje *decimal.Decimal `json:"penalizacionPorMoraPorcentaje"`
	FechaLimitePagoAmarillo       *time.Time       `json:"fechaLimitePagoAmarillo"`
	FechaLimitePagoRojo           *time.Time       `json:"fechaLimitePagoRojo"`
	MesColegiatura                *int             `json:"mesColegiatura" validate:"omitempty,min=1,max=12"`
	DiaLimitePagoAmarillo         *int             `json:"diaLimitePagoAmarillo" validate:"omitempty,min=1,max=31"`
	DiaLimitePagoRojo             *int             `json:"diaLimitePagoRojo" validate:"omitempty,min=1,max=31"`
	MesLimitePago                 *int             `json:"mesLimitePago" validate:"omitempty,min=1,max=12"`
	NivelEducativoID              *int             `json:"nivelEducativoId" validate:"omitempty,gt=0"`
	GradoID                       *int             `json:"gradoId" validate:"omitempty,gt=0"`
	MontoPreestablecido           *decimal.Decimal `json:"montoPreestablecido"`
	FechaInicioPromocion          *time.Time       `json:"fechaInicioPromocion"`
	FechaFinPromocion             *time.Time       `json:"fechaFinPromocion"`
	Notas                         string           `json:"notas" validate:"max=500"`
	Activo                        *bool            `json:"activo"`
	OrdenVisualizacionGrid        *int             `json:"ordenVisualizacionGrid"`
	EsPagoDeCarnet                bool             `json:"esPagoDeCarnet"`
	EsPagoDeTransporte            bool             `json:"esPagoDeTransporte"`
	EsPagoDeUniforme              bool             `json:"esPagoDeUniforme"`
}

func (rd *RubroData) Validate(validate *validator.Validate) error {
	rd.Descripcion = core.CleanString(rd.Descripcion)
	rd.Notas = core.CleanString(rd.Notas)
	if err := validate.Struct(rd); err != nil {
		return err
	}

	for field, amount := range map[string]*decimal.Decimal{
		"montoPreestablecido":           rd.MontoPreestablecido,
		"penalizacionPorMoraMonto":      rd.PenalizacionPorMoraMonto,
		"penalizacionPorMoraPorcentaje": rd.PenalizacionPorMoraPorcentaje,
	} {
		if amount != nil && amount.IsNegative() {
			return core.NewValidationError(nil, core.FieldError{Field: field, Error: "must not be negative"})
		}
	}
	if rd.FechaInicioPromocion != nil && rd.FechaFinPromocion != nil && rd.FechaFinPromocion.Before(*rd.FechaInicioPromocion) {
		return core.NewValidationError(nil, core.FieldError{Field: "fechaFinPromocion", Error: "must not precede fechaInicioPromocion"})
	}
	return nil
}

func nullInt(i *int) null.Int { return null.IntFromPtr(i) }

func nullTime(t *time.Time) null.Time {
	if t == nil {
		return null.Time{}
	}
	return null.TimeFrom(t.UTC())
}

func nullDecimal(d *decimal.Decimal) decimal.NullDecimal {
	if d == nil {
		return decimal.NullDecimal{}
	}
	return decimal.NullDecimal{Decimal: core.RoundMoney(*d), Valid: true}
}

// applyData copies `data` on `r`; the flags follow the tipo.
func applyData(r *Rubro, data RubroData) {
	r.Descripcion = data.Descripcion
	r.Tipo = *data.Tipo
	r.PenalizacionPorMoraMonto = nullDecimal(data.PenalizacionPorMoraMonto)
	r.PenalizacionPorMoraPorcentaje = nullDecimal(data.PenalizacionPorMoraPorcentaje)
	r.FechaLimitePagoAmarillo = nullTime(data.FechaLimitePagoAmarillo)
	r.FechaLimitePagoRojo = nullTime(data.FechaLimitePagoRojo)
	r.MesColegiatura = nullInt(data.MesColegiatura)
	r.DiaLimitePagoAmarillo = nullInt(data.DiaLimitePagoAmarillo)
	r.DiaLimitePagoRojo = nullInt(data.DiaLimitePagoRojo)
	r.MesLimitePago = nullInt(data.MesLimitePago)
	r.NivelEducativoID = nullInt(data.NivelEducativoID)
	r.GradoID = nullInt(data.GradoID)
	r.MontoPreestablecido = nullDecimal(data.MontoPreestablecido)
	r.FechaInicioPromocion = nullTime(data.FechaInicioPromocion)
	r.FechaFinPromocion = nullTime(data.FechaFinPromocion)
	r.Notas = null.NewString(data.Notas, data.Notas != "")
	if data.Activo != nil {
		r.Activo = *data.Activo
	} else if r.ID == 0 {
		r.Activo = true
	}
	r.OrdenVisualizacionGrid = nullInt(data.OrdenVisualizacionGrid)

	r.EsColegiatura = r.Tipo == TipoColegiatura
	r.EsPagoDeCarnet = data.EsPagoDeCarnet
	r.EsPagoDeTransporte = data.EsPagoDeTransporte || r.Tipo == TipoTransporte
	r.EsPagoDeUniforme = data.EsPagoDeUniforme || r.Tipo == TipoUniformes
}
