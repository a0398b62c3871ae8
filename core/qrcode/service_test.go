package qrcode_test

import (
	"bytes"
	"context"
	"encoding/base64"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/manitascreativas/escuela/core"
	"github.com/manitascreativas/escuela/core/alumno"
	"github.com/manitascreativas/escuela/core/pago"
	"github.com/manitascreativas/escuela/core/qrcode"
	"github.com/manitascreativas/escuela/core/rubro"
	"github.com/manitascreativas/escuela/services/email"
	"github.com/manitascreativas/escuela/tests"
)

type fixture struct {
	env    *testutil.Env
	alumno alumno.Alumno
	rubro  rubro.Rubro
}

func setup(t *testing.T) fixture {
	env := testutil.NewEnv(t)
	school := testutil.CreateSchool(t, env.EscuelaRepo, "Primero")
	return fixture{
		env:    env,
		alumno: testutil.CreateAlumno(t, env.AlumnoRepo, school, "A-001", "Lucía", "Pérez"),
		rubro:  testutil.CreateRubro(t, env.RubroRepo, rubro.Rubro{Descripcion: "Inscripción", Tipo: rubro.TipoInscripcion}),
	}
}

func (f fixture) createPago(t *testing.T, voided bool) pago.Pago {
	return testutil.CreatePago(t, f.env.PagoRepo, pago.Pago{
		CicloEscolar: 2025,
		Fecha:        testutil.Date(2025, 1, 10),
		Monto:        testutil.Money("300"),
		AlumnoID:     f.alumno.ID,
		RubroID:      f.rubro.ID,
		EsAnulado:    voided,
	})
}

func TestService_Generate(t *testing.T) {
	f := setup(t)
	env := f.env
	ctx := context.Background()

	_, err := env.QRCodeSvc.Generate(ctx, 999, 0)
	assert.True(t, core.IsNotFound(err))

	voided := f.createPago(t, true)
	_, err = env.QRCodeSvc.Generate(ctx, voided.ID, 0)
	assert.True(t, core.IsValidation(err))

	p := f.createPago(t, false)
	now := time.Date(2025, 1, 10, 12, 0, 0, 0, time.UTC)
	restore := qrcode.SetNow(now)
	defer restore()

	resp, err := env.QRCodeSvc.Generate(ctx, p.ID, 30)
	require.NoError(t, err)
	assert.Equal(t, now.Add(30*time.Minute), resp.FechaExpiracion)

	again, err := env.QRCodeSvc.Generate(ctx, p.ID, 60)
	require.NoError(t, err)
	assert.Equal(t, resp.TokenUnico, again.TokenUnico)
	assert.Equal(t, resp.FechaExpiracion, again.FechaExpiracion)

	info, err := env.QRCodeSvc.ByPago(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, resp.TokenUnico, info.TokenUnico)
	assert.Equal(t, "Inscripción", info.RubroDescripcion)

	_, err = env.QRCodeSvc.ByPago(ctx, voided.ID)
	assert.True(t, core.IsNotFound(err))
	_, err = env.QRCodeSvc.Info(ctx, "not-a-uuid")
	assert.Equal(t, qrcode.ErrNotFound, err)
}

func TestService_SendReceipt(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	voided := f.createPago(t, true)
	err := f.env.QRCodeSvc.SendReceipt(ctx, qrcode.SendRequest{PagoID: voided.ID, Email: "mama@correo.gt"})
	assert.True(t, core.IsValidation(err))
	assert.Empty(t, emailsvc.SentMessages())

	p := f.createPago(t, false)
	err = f.env.QRCodeSvc.SendReceipt(ctx, qrcode.SendRequest{PagoID: p.ID, Email: "mama@correo.gt", Nombre: "María Pérez"})
	require.NoError(t, err)

	info, err := f.env.QRCodeSvc.ByPago(ctx, p.ID)
	require.NoError(t, err)

	sent := emailsvc.SentMessages()
	require.Len(t, sent, 1)
	msg := sent[0]
	assert.Equal(t, "mama@correo.gt", msg.To[0].Address)
	assert.Contains(t, msg.TextContent, "Estimado(a) María Pérez")
	assert.Contains(t, msg.TextContent, info.TokenUnico)
	assert.Contains(t, msg.TextContent, "Concepto: Inscripción")
	assert.Contains(t, msg.HTMLContent, "<code>"+info.TokenUnico+"</code>")

	require.Len(t, msg.Attachments, 1)
	at := msg.Attachments[0]
	assert.Equal(t, "image/png", at.ContentType)
	assert.Equal(t, fmt.Sprintf("pago-%d-qr.png", p.ID), at.Filename)
	png, err := base64.StdEncoding.DecodeString(at.Content)
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(png, []byte("\x89PNG")), "attachment is a png")
}

// lateRepo misses the code of the payment on the first lookup, as when another request creates it meanwhile.
type lateRepo struct {
	qrcode.Repository
	missed bool
}

func (r *lateRepo) GetByPago(ctx context.Context, pagoID int) (qrcode.CodigoQR, error) {
	if !r.missed {
		r.missed = true
		return qrcode.CodigoQR{}, qrcode.ErrNotFound
	}
	return r.Repository.GetByPago(ctx, pagoID)
}

func TestService_GenerateAfterConcurrentCreate(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	p := f.createPago(t, false)

	first, err := f.env.QRCodeSvc.Generate(ctx, p.ID, 0)
	require.NoError(t, err)

	svc := qrcode.NewService(&lateRepo{Repository: f.env.QRCodeRepo}, f.env.PagoRepo, f.env.Mail, f.env.Conf)
	second, err := svc.Generate(ctx, p.ID, 0)
	require.NoError(t, err)
	assert.Equal(t, first.TokenUnico, second.TokenUnico)

	_, err = f.env.QRCodeRepo.Create(ctx, qrcode.CodigoQR{TokenUnico: "x", PagoID: p.ID})
	assert.Equal(t, qrcode.ErrPagoHasCode, err)
}

func TestService_ValidateExpiredAndCleanup(t *testing.T) {
	f := setup(t)
	env := f.env
	ctx := context.Background()

	p := f.createPago(t, false)
	now := time.Date(2025, 1, 10, 12, 0, 0, 0, time.UTC)
	restore := qrcode.SetNow(now)
	defer restore()

	resp, err := env.QRCodeSvc.Generate(ctx, p.ID, 30)
	require.NoError(t, err)

	// nothing expired yet
	n, err := env.QRCodeSvc.CleanupExpired(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, n)

	qrcode.SetNow(now.Add(31 * time.Minute))
	v, err := env.QRCodeSvc.Validate(ctx, resp.TokenUnico)
	require.NoError(t, err)
	assert.False(t, v.IsValid)
	assert.Equal(t, qrcode.MsgExpired, v.Message)

	n, err = env.QRCodeSvc.CleanupExpired(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	v, err = env.QRCodeSvc.Validate(ctx, resp.TokenUnico)
	require.NoError(t, err)
	assert.Equal(t, qrcode.MsgNotFound, v.Message)
}
