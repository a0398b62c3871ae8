package echoapi_test

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/volatiletech/null/v8"

	"github.com/manitascreativas/escuela/core/pago"
	"github.com/manitascreativas/escuela/core/reporte"
	"github.com/manitascreativas/escuela/core/rubro"
	"github.com/manitascreativas/escuela/core/ruta"
	"github.com/manitascreativas/escuela/tests"
)

func TestAlumnoRutas(t *testing.T) {
	app := setup(t)
	school := testutil.CreateSchool(t, app.env.EscuelaRepo, "Primero")
	lucia := testutil.CreateAlumno(t, app.env.AlumnoRepo, school, "A-001", "Lucía", "Pérez")
	mateo := testutil.CreateAlumno(t, app.env.AlumnoRepo, school, "A-002", "Mateo", "García")
	bus := testutil.CreateRubro(t, app.env.RubroRepo, rubro.Rubro{
		Descripcion:         "Bus norte",
		Tipo:                rubro.TipoTransporte,
		MontoPreestablecido: decimal.NewNullDecimal(testutil.Money("150")),
	})
	libros := testutil.CreateRubro(t, app.env.RubroRepo, rubro.Rubro{Descripcion: "Libros", Tipo: rubro.TipoLibros})

	assign := func(alumnoID int, inicio string) []byte {
		return []byte(fmt.Sprintf(`{"alumnoId":%d,"rubroTransporteId":%d,"fechaInicio":%q}`, alumnoID, bus.ID, inicio))
	}
	var ar ruta.AlumnoRuta
	app.do(t, http.MethodPost, "/alumnos/rutas", app.opToken, assign(lucia.ID, "2024-01-01T00:00:00Z"), http.StatusCreated, &ar)
	assert.False(t, ar.FechaFin.Valid)
	app.do(t, http.MethodPost, "/alumnos/rutas", app.opToken, assign(mateo.ID, "2024-03-01T00:00:00Z"), http.StatusCreated, nil)

	testutil.CreatePago(t, app.env.PagoRepo, pago.Pago{
		CicloEscolar:       2024,
		Fecha:              testutil.Date(2024, 1, 4),
		Monto:              testutil.Money("150"),
		AlumnoID:           lucia.ID,
		RubroID:            bus.ID,
		EsPagoDeTransporte: true,
		MesColegiatura:     null.IntFrom(1),
		AnioColegiatura:    null.IntFrom(2024),
	})

	rutaPath := fmt.Sprintf("/alumnos/%d/rutas/%d", lucia.ID, bus.ID)
	app.run(t, []httpTest{
		{
			name:     "no token",
			path:     fmt.Sprintf("/alumnos/%d/rutas", lucia.ID),
			wantCode: http.StatusUnauthorized,
			wantData: marshalObj(t, errMissingToken),
		},
		{
			name:     "already assigned",
			method:   http.MethodPost,
			path:     "/alumnos/rutas",
			token:    app.opToken,
			body:     assign(lucia.ID, "2024-05-01T00:00:00Z"),
			wantCode: http.StatusBadRequest,
			wantData: marshalObj(t, httpErr{Error: "This student is already assigned to this transport route."}),
		},
		{
			name:     "not a transport rubro",
			method:   http.MethodPost,
			path:     "/alumnos/rutas",
			token:    app.opToken,
			body:     []byte(fmt.Sprintf(`{"alumnoId":%d,"rubroTransporteId":%d,"fechaInicio":"2024-01-01T00:00:00Z"}`, lucia.ID, libros.ID)),
			wantCode: http.StatusBadRequest,
			wantData: marshalObj(t, httpErr{Error: fmt.Sprintf("Rubro with ID %d is not a transport rubro", libros.ID)}),
		},
		{
			name:     "unknown alumno",
			method:   http.MethodPost,
			path:     "/alumnos/rutas",
			token:    app.opToken,
			body:     assign(999, "2024-01-01T00:00:00Z"),
			wantCode: http.StatusNotFound,
			wantData: marshalObj(t, httpErr{Error: "Alumno with ID 999 not found."}),
		},
		{
			name:     "fechaInicio is required",
			method:   http.MethodPost,
			path:     "/alumnos/rutas",
			token:    app.opToken,
			body:     []byte(fmt.Sprintf(`{"alumnoId":%d,"rubroTransporteId":%d}`, mateo.ID, bus.ID)),
			wantCode: http.StatusBadRequest,
			wantData: []byte(`{"fechaInicio":"fechaInicio is required"}`),
		},
		{
			name:  "by route",
			path:  fmt.Sprintf("/alumnos/rutas/by-route/%d", bus.ID),
			token: app.opToken,
			check: func(t *testing.T, rec *httptest.ResponseRecorder) {
				var list []ruta.AlumnoRutaDetalle
				require.NoError(t, decodeJSON(rec, &list))
				require.Len(t, list, 2)
				names := []string{list[0].AlumnoCompleto, list[1].AlumnoCompleto}
				assert.ElementsMatch(t, []string{"Lucía Pérez", "Mateo García"}, names)
				assert.Equal(t, "Primero", list[0].Grado)
			},
		},
		{
			name:     "retrieve unknown",
			path:     fmt.Sprintf("/alumnos/%d/rutas/%d", lucia.ID, libros.ID),
			token:    app.opToken,
			wantCode: http.StatusNotFound,
			wantData: marshalObj(t, httpErr{Error: fmt.Sprintf("AlumnoRuta with AlumnoId %d and RubroTransporteId %d not found.", lucia.ID, libros.ID)}),
		},
		{
			name:     "fechaFin before fechaInicio",
			method:   http.MethodPut,
			path:     rutaPath,
			token:    app.opToken,
			body:     []byte(`{"fechaInicio":"2024-01-01T00:00:00Z","fechaFin":"2023-12-01T00:00:00Z"}`),
			wantCode: http.StatusBadRequest,
			wantData: []byte(`{"fechaFin":"fechaFin must not precede fechaInicio"}`),
		},
	})

	t.Run("transport debtors", func(t *testing.T) {
		var report reporte.TransportDebtorsReport
		app.do(t, http.MethodGet, "/pagos/transport-debtors-report?year=2024&month=3", app.opToken, nil, http.StatusOK, &report)
		assert.Equal(t, 2, report.TotalStudents)
		require.Len(t, report.Debtors, 2)

		assert.Equal(t, lucia.ID, report.Debtors[0].AlumnoID)
		assert.Equal(t, "300", report.Debtors[0].TotalDebt.String())
		assert.Equal(t, "Bus norte", report.Debtors[0].RubroTransporte)
		require.Len(t, report.Debtors[0].UnpaidTransports, 2)
		assert.Equal(t, 2, report.Debtors[0].UnpaidTransports[0].Month)

		assert.Equal(t, mateo.ID, report.Debtors[1].AlumnoID, "months before the assignment are not owed")
		assert.Equal(t, 1, report.Debtors[1].MonthsBehind)

		assert.Equal(t, 1, report.Summary.CurrentMonthDelinquent)
		assert.Equal(t, 1, report.Summary.TwoMonthsBehind)
		assert.Equal(t, 2, report.Summary.DebtorsByRoute["Bus norte"])
	})

	t.Run("transport report", func(t *testing.T) {
		var report reporte.TransportReport
		app.do(t, http.MethodGet, fmt.Sprintf("/pagos/transport-report?cicloEscolar=2024&rubroId=%d", bus.ID), app.opToken, nil, http.StatusOK, &report)
		assert.Equal(t, "Bus norte", report.RubroDescripcion)
		require.Len(t, report.Alumnos, 2)
		for _, row := range report.Alumnos {
			if row.AlumnoID == lucia.ID {
				assert.Equal(t, "150", row.PagosPorMes[1].Monto.String())
				assert.Equal(t, reporte.EstadoPagado, row.PagosPorMes[1].Estado)
			} else {
				assert.Empty(t, row.PagosPorMes)
			}
		}
	})

	t.Run("end the assignment", func(t *testing.T) {
		var updated ruta.AlumnoRuta
		app.do(t, http.MethodPut, rutaPath, app.opToken,
			[]byte(`{"fechaInicio":"2024-01-01T00:00:00Z","fechaFin":"2024-01-31T00:00:00Z"}`), http.StatusOK, &updated)
		assert.True(t, updated.FechaFin.Valid)

		var report reporte.TransportDebtorsReport
		app.do(t, http.MethodGet, "/pagos/transport-debtors-report?year=2024&month=3", app.opToken, nil, http.StatusOK, &report)
		require.Len(t, report.Debtors, 1)
		assert.Equal(t, mateo.ID, report.Debtors[0].AlumnoID)
	})

	t.Run("remove", func(t *testing.T) {
		app.do(t, http.MethodDelete, rutaPath, app.opToken, nil, http.StatusNoContent, nil)
		app.do(t, http.MethodDelete, rutaPath, app.opToken, nil, http.StatusNotFound, nil)

		var list []ruta.AlumnoRuta
		app.do(t, http.MethodGet, fmt.Sprintf("/alumnos/%d/rutas", lucia.ID), app.opToken, nil, http.StatusOK, &list)
		assert.Empty(t, list)
	})
}
