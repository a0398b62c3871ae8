package echoapi_test

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	. "github.com/manitascreativas/escuela/apps/api/echo"
	"github.com/manitascreativas/escuela/core/pago"
	"github.com/manitascreativas/escuela/core/rubro"
	"github.com/manitascreativas/escuela/tests"
)

func TestRubros(t *testing.T) {
	app := setup(t)
	school := testutil.CreateSchool(t, app.env.EscuelaRepo, "Primero")
	lucia := testutil.CreateAlumno(t, app.env.AlumnoRepo, school, "A-001", "Lucía", "Pérez")

	var colegiatura rubro.Rubro
	app.do(t, http.MethodPost, "/rubros", app.adminToken, []byte(fmt.Sprintf(
		`{"descripcion":" Colegiatura ","tipo":0,"montoPreestablecido":"350","diaLimitePagoRojo":10,"gradoId":%d,"ordenVisualizacionGrid":1}`, school.Grado.ID,
	)), http.StatusCreated, &colegiatura)
	assert.Equal(t, "Colegiatura", colegiatura.Descripcion)
	assert.True(t, colegiatura.EsColegiatura)
	assert.True(t, colegiatura.Activo)
	assert.Equal(t, 10, colegiatura.DueDay(5))
	assert.Equal(t, app.admin.ID, colegiatura.UsuarioCreacionID)

	var bus rubro.Rubro
	app.do(t, http.MethodPost, "/rubros", app.adminToken,
		[]byte(`{"descripcion":"Bus ruta norte","tipo":8,"montoPreestablecido":"150","activo":false}`), http.StatusCreated, &bus)
	assert.True(t, bus.EsPagoDeTransporte)
	assert.False(t, bus.Activo)

	testutil.CreatePago(t, app.env.PagoRepo, pago.Pago{
		CicloEscolar: 2025,
		Fecha:        testutil.Date(2025, 2, 3),
		Monto:        testutil.Money("350"),
		AlumnoID:     lucia.ID,
		RubroID:      colegiatura.ID,
	})

	app.run(t, []httpTest{
		{
			name:     "no token",
			path:     "/rubros",
			wantCode: http.StatusUnauthorized,
			wantData: marshalObj(t, errMissingToken),
		},
		{
			name:     "required fields",
			method:   http.MethodPost,
			path:     "/rubros",
			token:    app.adminToken,
			body:     []byte(`{"descripcion":" "}`),
			wantCode: http.StatusBadRequest,
			wantData: []byte(`{"descripcion":"this field is required","tipo":"this field is required"}`),
		},
		{
			name:     "negative monto",
			method:   http.MethodPost,
			path:     "/rubros",
			token:    app.adminToken,
			body:     []byte(`{"descripcion":"Inscripción","tipo":1,"montoPreestablecido":"-5"}`),
			wantCode: http.StatusBadRequest,
			wantData: []byte(`{"montoPreestablecido":"must not be negative"}`),
		},
		{
			name:     "promotion ends before it starts",
			method:   http.MethodPost,
			path:     "/rubros",
			token:    app.adminToken,
			body:     []byte(`{"descripcion":"Inscripción","tipo":1,"fechaInicioPromocion":"2025-02-01T00:00:00Z","fechaFinPromocion":"2025-01-01T00:00:00Z"}`),
			wantCode: http.StatusBadRequest,
			wantData: []byte(`{"fechaFinPromocion":"must not precede fechaInicioPromocion"}`),
		},
		{
			name:     "unknown grado",
			method:   http.MethodPost,
			path:     "/rubros",
			token:    app.adminToken,
			body:     []byte(`{"descripcion":"Inscripción","tipo":1,"gradoId":999}`),
			wantCode: http.StatusBadRequest,
			wantData: []byte(`{"gradoId":"Grado not found"}`),
		},
		{
			name:  "list",
			path:  "/rubros",
			token: app.opToken,
			check: func(t *testing.T, rec *httptest.ResponseRecorder) {
				var list []rubro.Rubro
				require.NoError(t, decodeJSON(rec, &list))
				require.Len(t, list, 2)
				assert.Equal(t, colegiatura.ID, list[0].ID, "rubros with a grid order go first")
			},
		},
		{
			name:  "active rubros",
			path:  "/rubrosactivos",
			token: app.opToken,
			check: func(t *testing.T, rec *httptest.ResponseRecorder) {
				var list []rubro.Rubro
				require.NoError(t, decodeJSON(rec, &list))
				require.Len(t, list, 1)
				assert.Equal(t, colegiatura.ID, list[0].ID)
			},
		},
		{
			name:     "retrieve unknown",
			path:     "/rubros/999",
			token:    app.opToken,
			wantCode: http.StatusNotFound,
			wantData: marshalObj(t, httpErr{Error: "Rubro with ID 999 not found."}),
		},
		{
			name:  "pagos of the rubro",
			path:  fmt.Sprintf("/rubros/%d/pagos", colegiatura.ID),
			token: app.opToken,
			check: func(t *testing.T, rec *httptest.ResponseRecorder) {
				var list []pago.PagoRead
				require.NoError(t, decodeJSON(rec, &list))
				assert.Len(t, list, 1)
			},
		},
		{
			name:     "pagos count",
			path:     fmt.Sprintf("/rubros/%d/pagoscount", colegiatura.ID),
			token:    app.opToken,
			wantData: marshalObj(t, CountResponse{Count: 1}),
		},
		{
			name:     "pagos count of unknown rubro",
			path:     "/rubros/999/pagoscount",
			token:    app.opToken,
			wantCode: http.StatusNotFound,
		},
		{
			name:     "rubro with pagos cannot be deleted",
			path:     fmt.Sprintf("/rubros/%d/candelete", colegiatura.ID),
			token:    app.opToken,
			wantData: marshalObj(t, CanDeleteResponse{CanDelete: false}),
		},
		{
			name:     "delete rubro with pagos",
			method:   http.MethodDelete,
			path:     fmt.Sprintf("/rubros/%d", colegiatura.ID),
			token:    app.adminToken,
			wantCode: http.StatusBadRequest,
			wantData: marshalObj(t, httpErr{Error: "cannot delete a rubro with registered payments"}),
		},
		{
			name:     "can delete",
			path:     fmt.Sprintf("/rubros/%d/candelete", bus.ID),
			token:    app.opToken,
			wantData: marshalObj(t, CanDeleteResponse{CanDelete: true}),
		},
		{
			name:   "update",
			method: http.MethodPut,
			path:   fmt.Sprintf("/rubros/%d", bus.ID),
			token:  app.adminToken,
			body:   []byte(`{"descripcion":"Bus ruta sur","tipo":8,"activo":true}`),
			check: func(t *testing.T, rec *httptest.ResponseRecorder) {
				var r rubro.Rubro
				require.NoError(t, decodeJSON(rec, &r))
				assert.Equal(t, "Bus ruta sur", r.Descripcion)
				assert.True(t, r.Activo)
				assert.False(t, r.MontoPreestablecido.Valid)
				assert.Equal(t, app.admin.ID, r.UsuarioActualizacionID.Int)
			},
		},
		{
			name:     "delete",
			method:   http.MethodDelete,
			path:     fmt.Sprintf("/rubros/%d", bus.ID),
			token:    app.adminToken,
			wantCode: http.StatusNoContent,
		},
		{
			name:     "delete again",
			method:   http.MethodDelete,
			path:     fmt.Sprintf("/rubros/%d", bus.ID),
			token:    app.adminToken,
			wantCode: http.StatusNotFound,
		},
	})
}
