package echoapi_test

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/volatiletech/null/v8"

	. "github.com/manitascreativas/escuela/apps/api/echo"
	"github.com/manitascreativas/escuela/core/pago"
	"github.com/manitascreativas/escuela/core/qrcode"
	"github.com/manitascreativas/escuela/services/email"
	"github.com/manitascreativas/escuela/tests"
)

func validateBody(token string) []byte {
	return []byte(fmt.Sprintf(`{"token": %q}`, token))
}

func decodeValidation(t *testing.T, rec *httptest.ResponseRecorder) qrcode.ValidateResponse {
	var resp qrcode.ValidateResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	return resp
}

func TestQRCodeLifecycle(t *testing.T) {
	f := setupPagos(t)
	p := testutil.CreatePago(t, f.env.PagoRepo, pago.Pago{
		CicloEscolar: 2025, Fecha: testutil.Date(2025, 4, 2), Monto: testutil.Money("1234.5"),
		AlumnoID: f.lucia.ID, RubroID: f.colegiatura.ID, EsColegiatura: true,
		MesColegiatura: null.IntFrom(4), AnioColegiatura: null.IntFrom(2025),
	})

	var generated qrcode.GenerateResponse
	f.do(t, http.MethodPost, "/api/qrcode/generate", f.opToken, []byte(fmt.Sprintf(`{"pagoId": %d}`, p.ID)), http.StatusOK, &generated)
	assert.Equal(t, p.ID, generated.PagoID)
	assert.Equal(t, fmt.Sprintf("ID de Pago: %d - Monto: Q1,234.50", p.ID), generated.PagoInfo)
	assert.True(t, strings.HasPrefix(generated.QRCodeImageBase64, "data:image/png;base64,"))
	assert.WithinDuration(t, time.Now().Add(525600*time.Minute), generated.FechaExpiracion, time.Minute)

	// generating again returns the same token
	var again qrcode.GenerateResponse
	f.do(t, http.MethodPost, "/api/qrcode/generate", f.opToken, []byte(fmt.Sprintf(`{"pagoId": %d}`, p.ID)), http.StatusOK, &again)
	assert.Equal(t, generated.TokenUnico, again.TokenUnico)

	f.run(t, []httpTest{
		{
			name:     "generate needs a session",
			method:   http.MethodPost,
			path:     "/api/qrcode/generate",
			body:     []byte(fmt.Sprintf(`{"pagoId": %d}`, p.ID)),
			wantCode: http.StatusUnauthorized,
		},
		{
			name:     "generate for an unknown pago",
			method:   http.MethodPost,
			path:     "/api/qrcode/generate",
			body:     []byte(`{"pagoId": 999}`),
			token:    f.opToken,
			wantCode: http.StatusNotFound,
			wantData: marshalObj(t, httpErr{Error: "Payment with ID 999 not found."}),
		},
		{
			name:  "info by pago",
			path:  fmt.Sprintf("/api/qrcode/payment/%d", p.ID),
			token: f.opToken,
			check: func(t *testing.T, rec *httptest.ResponseRecorder) {
				var info qrcode.Info
				require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &info))
				assert.Equal(t, generated.TokenUnico, info.TokenUnico)
				assert.Equal(t, "Lucía Pérez", info.AlumnoNombre)
				assert.False(t, info.EstaUsado)
			},
		},
		{
			name:     "info by a pago without code",
			path:     "/api/qrcode/payment/999",
			token:    f.opToken,
			wantCode: http.StatusNotFound,
			wantData: marshalObj(t, httpErr{Error: "No QR code found for payment with ID 999."}),
		},
		{
			name:     "malformed token",
			method:   http.MethodPost,
			path:     "/api/qrcode/validate",
			body:     validateBody("not-a-uuid"),
			wantCode: http.StatusBadRequest,
			check: func(t *testing.T, rec *httptest.ResponseRecorder) {
				resp := decodeValidation(t, rec)
				assert.False(t, resp.IsValid)
				assert.Equal(t, qrcode.MsgInvalidFormat, resp.Message)
				assert.False(t, resp.PagoID.Valid)
			},
		},
		{
			name:     "unknown token",
			method:   http.MethodPost,
			path:     "/api/qrcode/validate",
			body:     validateBody(uuid.New().String()),
			wantCode: http.StatusBadRequest,
			check: func(t *testing.T, rec *httptest.ResponseRecorder) {
				assert.Equal(t, qrcode.MsgNotFound, decodeValidation(t, rec).Message)
			},
		},
		{
			name:   "valid token",
			method: http.MethodPost,
			path:   "/api/qrcode/validate",
			body:   validateBody(strings.ToUpper(generated.TokenUnico)),
			check: func(t *testing.T, rec *httptest.ResponseRecorder) {
				resp := decodeValidation(t, rec)
				assert.True(t, resp.IsValid)
				assert.Equal(t, qrcode.MsgValid, resp.Message)
				assert.Equal(t, p.ID, resp.PagoID.Int)
				assert.Equal(t, "Colegiatura", resp.RubroDescripcion.String)
				assert.Equal(t, "1234.5", resp.MontoPago.Decimal.String())
				assert.Equal(t, 4, resp.MesColegiatura.Int)
			},
		},
		{
			name:     "a token is accepted once",
			method:   http.MethodPost,
			path:     "/api/qrcode/validate",
			body:     validateBody(generated.TokenUnico),
			wantCode: http.StatusBadRequest,
			check: func(t *testing.T, rec *httptest.ResponseRecorder) {
				assert.Equal(t, qrcode.MsgAlreadyUsed, decodeValidation(t, rec).Message)
			},
		},
		{
			name: "public info",
			path: "/api/qrcode/info/" + generated.TokenUnico,
			check: func(t *testing.T, rec *httptest.ResponseRecorder) {
				var info qrcode.Info
				require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &info))
				assert.True(t, info.EstaUsado)
			},
		},
		{
			name:     "info of an unknown token",
			path:     "/api/qrcode/info/nope",
			wantCode: http.StatusNotFound,
		},
	})
}

func TestQRCodeVoidedPago(t *testing.T) {
	f := setupPagos(t)
	p := testutil.CreatePago(t, f.env.PagoRepo, pago.Pago{
		CicloEscolar: 2025, Fecha: testutil.Date(2025, 4, 2), Monto: testutil.Money("350"),
		AlumnoID: f.lucia.ID, RubroID: f.transporte.ID, EsPagoDeTransporte: true,
	})

	var generated qrcode.GenerateResponse
	f.do(t, http.MethodPost, "/api/qrcode/generate", f.opToken, []byte(fmt.Sprintf(`{"pagoId": %d}`, p.ID)), http.StatusOK, &generated)
	f.do(t, http.MethodPost, fmt.Sprintf("/pagos/%d/void", p.ID), f.adminToken, []byte(`{"motivoAnulacion": "error de digitación"}`), http.StatusOK, nil)

	f.run(t, []httpTest{
		{
			name:     "voided payments get no new code",
			method:   http.MethodPost,
			path:     "/api/qrcode/generate",
			body:     []byte(fmt.Sprintf(`{"pagoId": %d}`, p.ID)),
			token:    f.opToken,
			wantCode: http.StatusBadRequest,
			wantData: marshalObj(t, httpErr{Error: "Cannot generate QR code for a voided payment."}),
		},
		{
			name:     "validation reports the void",
			method:   http.MethodPost,
			path:     "/api/qrcode/validate",
			body:     validateBody(generated.TokenUnico),
			wantCode: http.StatusBadRequest,
			check: func(t *testing.T, rec *httptest.ResponseRecorder) {
				resp := decodeValidation(t, rec)
				assert.False(t, resp.IsValid)
				assert.Equal(t, qrcode.MsgPagoAnulado, resp.Message)
				assert.Equal(t, p.ID, resp.PagoID.Int)
			},
		},
	})
}

func TestQRCodeCleanup(t *testing.T) {
	f := setupPagos(t)
	ctx := context.Background()
	now := time.Now().UTC()

	for i, expiresIn := range []time.Duration{-time.Hour, -time.Minute, time.Hour} {
		p := testutil.CreatePago(t, f.env.PagoRepo, pago.Pago{
			CicloEscolar: 2025, Fecha: testutil.Date(2025, 5, i+1), Monto: testutil.Money("100"),
			AlumnoID: f.lucia.ID, RubroID: f.transporte.ID, EsPagoDeTransporte: true,
		})
		_, err := f.env.QRCodeRepo.Create(ctx, qrcode.CodigoQR{
			TokenUnico:      uuid.New().String(),
			FechaCreacion:   now.Add(-2 * time.Hour),
			FechaExpiracion: now.Add(expiresIn),
			PagoID:          p.ID,
		})
		require.NoError(t, err)
	}

	f.run(t, []httpTest{
		{
			name:     "admins only",
			method:   http.MethodDelete,
			path:     "/api/qrcode/cleanup",
			token:    f.opToken,
			wantCode: http.StatusForbidden,
		},
		{
			name:     "cleanup",
			method:   http.MethodDelete,
			path:     "/api/qrcode/cleanup",
			token:    f.adminToken,
			wantData: marshalObj(t, CleanupResponse{Message: "Removed 2 expired QR codes", Count: 2}),
		},
		{
			name:     "nothing left to remove",
			method:   http.MethodDelete,
			path:     "/api/qrcode/cleanup",
			token:    f.adminToken,
			wantData: marshalObj(t, CleanupResponse{Message: "Removed 0 expired QR codes", Count: 0}),
		},
	})
}

func TestQRCodeSendReceipt(t *testing.T) {
	f := setupPagos(t)
	p := testutil.CreatePago(t, f.env.PagoRepo, pago.Pago{
		CicloEscolar: 2025, Fecha: testutil.Date(2025, 4, 2), Monto: testutil.Money("350"),
		AlumnoID: f.lucia.ID, RubroID: f.colegiatura.ID, EsColegiatura: true,
		MesColegiatura: null.IntFrom(4), AnioColegiatura: null.IntFrom(2025),
	})
	body := []byte(fmt.Sprintf(`{"pagoId": %d, "email": "papa@correo.gt", "nombre": "Jorge Pérez"}`, p.ID))

	f.run(t, []httpTest{
		{
			name:     "needs a session",
			method:   http.MethodPost,
			path:     "/api/qrcode/send",
			body:     body,
			wantCode: http.StatusUnauthorized,
		},
		{
			name:     "invalid email",
			method:   http.MethodPost,
			path:     "/api/qrcode/send",
			body:     []byte(fmt.Sprintf(`{"pagoId": %d, "email": "papa"}`, p.ID)),
			token:    f.opToken,
			wantCode: http.StatusBadRequest,
		},
		{
			name:     "unknown pago",
			method:   http.MethodPost,
			path:     "/api/qrcode/send",
			body:     []byte(`{"pagoId": 999, "email": "papa@correo.gt"}`),
			token:    f.opToken,
			wantCode: http.StatusNotFound,
		},
		{
			name:     "send",
			method:   http.MethodPost,
			path:     "/api/qrcode/send",
			body:     body,
			token:    f.opToken,
			wantData: marshalObj(t, MessageResponse{Message: "Comprobante enviado."}),
		},
	})

	sent := emailsvc.SentMessages()
	require.Len(t, sent, 1)
	assert.Equal(t, "Jorge Pérez", sent[0].To[0].Name)
	require.Len(t, sent[0].Attachments, 1)
	assert.Equal(t, fmt.Sprintf("pago-%d-qr.png", p.ID), sent[0].Attachments[0].Filename)

	var info qrcode.Info
	f.do(t, http.MethodGet, fmt.Sprintf("/api/qrcode/payment/%d", p.ID), f.opToken, nil, http.StatusOK, &info)
	assert.Contains(t, sent[0].TextContent, info.TokenUnico)
}
