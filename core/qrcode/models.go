package qrcode

import (
	"time"

	"github.com/shopspring/decimal"
	"github.com/volatiletech/null/v8"
)

// CodigoQR is the one-time token printed on a payment receipt.
type CodigoQR struct {
	ID              int       `json:"id" db:"id"`
	TokenUnico      string    `json:"tokenUnico" db:"token_unico"`
	FechaCreacion   time.Time `json:"fechaCreacion" db:"fecha_creacion"`
	FechaExpiracion time.Time `json:"fechaExpiracion" db:"fecha_expiracion"`
	EstaUsado       bool      `json:"estaUsado" db:"esta_usado"`
	PagoID          int       `json:"pagoId" db:"pago_id"`
}

func (qr CodigoQR) expired(now time.Time) bool {
	return now.After(qr.FechaExpiracion)
}

// Info is a QR code with the payment it proves.
type Info struct {
	CodigoQR
	AlumnoNombre     string          `json:"alumnoNombre" db:"alumno_nombre"`
	RubroDescripcion string          `json:"rubroDescripcion" db:"rubro_descripcion"`
	MontoPago        decimal.Decimal `json:"montoPago" db:"monto_pago"`
	FechaPago        time.Time       `json:"fechaPago" db:"fecha_pago"`
	CicloEscolar     int             `json:"cicloEscolar" db:"ciclo_escolar"`
	MesColegiatura   null.Int        `json:"mesColegiatura" db:"mes_colegiatura"`
	AnioColegiatura  null.Int        `json:"anioColegiatura" db:"anio_colegiatura"`
	PagoAnulado      bool            `json:"-" db:"pago_anulado"`
}

type GenerateRequest struct {
	PagoID            int `json:"pagoId" validate:"required,gt=0"`
	ExpirationMinutes int `json:"expirationMinutes"`
}

type GenerateResponse struct {
	TokenUnico        string    `json:"tokenUnico"`
	QRCodeImageBase64 string    `json:"qrCodeImageBase64"`
	FechaExpiracion   time.Time `json:"fechaExpiracion"`
	PagoID            int       `json:"pagoId"`
	PagoInfo          string    `json:"pagoInfo"`
}

// SendRequest asks for the payment receipt, with its QR code attached, to be emailed.
type SendRequest struct {
	PagoID int    `json:"pagoId" validate:"required,gt=0"`
	Email  string `json:"email" validate:"required,email"`
	Nombre string `json:"nombre"`
}

type ValidateRequest struct {
	Token string `json:"token"`
}

// ValidateResponse carries the payment fields only when the token was found.
type ValidateResponse struct {
	IsValid          bool                `json:"isValid"`
	Message          string              `json:"message"`
	PagoID           null.Int            `json:"pagoId"`
	AlumnoNombre     null.String         `json:"alumnoNombre"`
	RubroDescripcion null.String         `json:"rubroDescripcion"`
	MontoPago        decimal.NullDecimal `json:"montoPago"`
	FechaPago        null.Time           `json:"fechaPago"`
	CicloEscolar     null.Int            `json:"cicloEscolar"`
	MesColegiatura   null.Int            `json:"mesColegiatura"`
	AnioColegiatura  null.Int            `json:"anioColegiatura"`
}

func invalid(msg string) ValidateResponse {
	return ValidateResponse{Message: msg}
}

func withPago(valid bool, msg string, info Info) ValidateResponse {
	return ValidateResponse{
		IsValid:          valid,
		Message:          msg,
		PagoID:           null.IntFrom(info.PagoID),
		AlumnoNombre:     null.StringFrom(info.AlumnoNombre),
		RubroDescripcion: null.StringFrom(info.RubroDescripcion),
		MontoPago:        decimal.NewNullDecimal(info.MontoPago),
		FechaPago:        null.TimeFrom(info.FechaPago),
		CicloEscolar:     null.IntFrom(info.CicloEscolar),
		MesColegiatura:   info.MesColegiatura,
		AnioColegiatura:  info.AnioColegiatura,
	}
}
