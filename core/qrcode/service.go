package qrcode

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"net/mail"
	"time"

	"github.com/google/uuid"
	qr "github.com/skip2/go-qrcode"

	"github.com/manitascreativas/escuela/core"
	"github.com/manitascreativas/escuela/core/pago"
)

// validation messages
const (
	MsgInvalidFormat = "Invalid token format."
	MsgNotFound      = "QR Code not found."
	MsgAlreadyUsed   = "QR Code has already been used."
	MsgExpired       = "QR Code has expired."
	MsgPagoAnulado   = "⚠️ PAGO ANULADO - Este pago ha sido cancelado/anulado y ya no es válido."
	MsgValid         = "QR Code validation successful!"
)

var (
	// errors
	ErrNotFound    = core.NewNotFoundError("qr code not found")
	ErrPagoHasCode = errors.New("the payment already has a qr code")
	errPagoAnulado = errors.New("Cannot generate QR code for a voided payment.")

	nowFunc = func() time.Time { return time.Now().UTC() }
)

type (
	Repository interface {
		GetByPago(ctx context.Context, pagoID int) (CodigoQR, error)
		GetInfo(ctx context.Context, token string) (Info, error)
		GetInfoByPago(ctx context.Context, pagoID int) (Info, error)
		// Create returns ErrPagoHasCode when the payment got a code meanwhile.
		Create(ctx context.Context, code CodigoQR) (CodigoQR, error)
		// MarkUsed flags the code only if it is still unused and reports whether it did.
		MarkUsed(ctx context.Context, id int) (bool, error)
		DeleteExpired(ctx context.Context, now time.Time) (int, error)
	}

	Service struct {
		repo              Repository
		pagoRepo          pago.Repository
		mailSvc           core.EmailService
		defaultExpiration int
		imageSize         int
	}
)

func NewService(repo Repository, pagoRepo pago.Repository, mailSvc core.EmailService, conf *core.Config) *Service {
	return &Service{
		repo:              repo,
		pagoRepo:          pagoRepo,
		mailSvc:           mailSvc,
		defaultExpiration: conf.QRCode.ExpirationMinutes,
		imageSize:         conf.QRCode.ImageSize,
	}
}

// pagoInfo renders e.g. "ID de Pago: 12 - Monto: Q1,234.50".
func pagoInfo(p pago.Pago) string {
	return fmt.Sprintf("ID de Pago: %d - Monto: %s", p.ID, core.FormatQuetzales(p.Monto))
}

func (svc *Service) renderPNG(token string) ([]byte, error) {
	return qr.Encode(token, qr.High, svc.imageSize)
}

// Generate returns the QR code of the payment, creating it when there is none.
func (svc *Service) Generate(ctx context.Context, pagoID, expirationMinutes int) (GenerateResponse, error) {
	p, err := svc.pagoRepo.GetByID(ctx, pagoID)
	if err != nil {
		return GenerateResponse{}, core.NotFoundWithID(err, "Payment", pagoID)
	}
	if p.EsAnulado {
		return GenerateResponse{}, core.NewValidationError(errPagoAnulado)
	}

	code, err := svc.repo.GetByPago(ctx, pagoID)
	switch {
	case err == ErrNotFound:
		if expirationMinutes <= 0 {
			expirationMinutes = svc.defaultExpiration
		}
		now := nowFunc()
		code, err = svc.repo.Create(ctx, CodigoQR{
			TokenUnico:      uuid.New().String(),
			FechaCreacion:   now,
			FechaExpiracion: now.Add(time.Duration(expirationMinutes) * time.Minute),
			PagoID:          pagoID,
		})
		if err == ErrPagoHasCode {
			code, err = svc.repo.GetByPago(ctx, pagoID)
		}
		if err != nil {
			return GenerateResponse{}, err
		}
	case err != nil:
		return GenerateResponse{}, err
	}

	png, err := svc.renderPNG(code.TokenUnico)
	if err != nil {
		return GenerateResponse{}, err
	}
	return GenerateResponse{
		TokenUnico:        code.TokenUnico,
		QRCodeImageBase64: "data:image/png;base64," + base64.StdEncoding.EncodeToString(png),
		FechaExpiracion:   code.FechaExpiracion,
		PagoID:            pagoID,
		PagoInfo:          pagoInfo(p),
	}, nil
}

type receiptData struct {
	Nombre           string
	PagoInfo         string
	AlumnoNombre     string
	RubroDescripcion string
	FechaPago        string
	Token            string
	FechaExpiracion  string
}

// SendReceipt emails the payment receipt with its QR code attached as a PNG,
// generating the code first when the payment has none.
func (svc *Service) SendReceipt(ctx context.Context, req SendRequest) error {
	gen, err := svc.Generate(ctx, req.PagoID, 0)
	if err != nil {
		return err
	}
	info, err := svc.repo.GetInfoByPago(ctx, req.PagoID)
	if err != nil {
		return err
	}
	png, err := svc.renderPNG(gen.TokenUnico)
	if err != nil {
		return err
	}

	msg := &core.EmailMessage{
		To:           []mail.Address{{Name: req.Nombre, Address: req.Email}},
		Subject:      fmt.Sprintf("Comprobante de pago No. %d", req.PagoID),
		TemplateName: "pago_recibo",
		TemplateData: receiptData{
			Nombre:           req.Nombre,
			PagoInfo:         gen.PagoInfo,
			AlumnoNombre:     info.AlumnoNombre,
			RubroDescripcion: info.RubroDescripcion,
			FechaPago:        info.FechaPago.Format("02/01/2006"),
			Token:            gen.TokenUnico,
			FechaExpiracion:  gen.FechaExpiracion.Format("02/01/2006 15:04"),
		},
	}
	msg.Attach(png, fmt.Sprintf("pago-%d-qr.png", req.PagoID), "image/png")
	svc.mailSvc.SendMessages(msg)
	return nil
}

// Validate checks the token and consumes it; a token is accepted only once.
func (svc *Service) Validate(ctx context.Context, token string) (ValidateResponse, error) {
	u, err := uuid.Parse(token)
	if err != nil {
		return invalid(MsgInvalidFormat), nil
	}
	info, err := svc.repo.GetInfo(ctx, u.String())
	if err == ErrNotFound {
		return invalid(MsgNotFound), nil
	} else if err != nil {
		return ValidateResponse{}, err
	}

	switch {
	case info.EstaUsado:
		return invalid(MsgAlreadyUsed), nil
	case info.expired(nowFunc()):
		return invalid(MsgExpired), nil
	case info.PagoAnulado:
		return withPago(false, MsgPagoAnulado, info), nil
	}

	marked, err := svc.repo.MarkUsed(ctx, info.ID)
	if err != nil {
		return ValidateResponse{}, err
	}
	if !marked {
		return invalid(MsgAlreadyUsed), nil
	}
	return withPago(true, MsgValid, info), nil
}

func (svc *Service) Info(ctx context.Context, token string) (Info, error) {
	u, err := uuid.Parse(token)
	if err != nil {
		return Info{}, ErrNotFound
	}
	return svc.repo.GetInfo(ctx, u.String())
}

func (svc *Service) ByPago(ctx context.Context, pagoID int) (Info, error) {
	info, err := svc.repo.GetInfoByPago(ctx, pagoID)
	if err == ErrNotFound {
		return Info{}, core.NewNotFoundError("No QR code found for payment with ID %d.", pagoID)
	}
	return info, err
}

// CleanupExpired deletes the expired codes and returns how many were removed.
func (svc *Service) CleanupExpired(ctx context.Context) (int, error) {
	return svc.repo.DeleteExpired(ctx, nowFunc())
}
