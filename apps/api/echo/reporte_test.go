package echoapi_test

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/volatiletech/null/v8"

	"github.com/manitascreativas/escuela/core/alumno"
	"github.com/manitascreativas/escuela/core/pago"
	"github.com/manitascreativas/escuela/core/reporte"
	"github.com/manitascreativas/escuela/core/rubro"
	"github.com/manitascreativas/escuela/tests"
)

func tuitionPago(alumnoID, rubroID, mes int, monto string) pago.Pago {
	return pago.Pago{
		CicloEscolar:    2024,
		Fecha:           testutil.Date(2024, mes, 2),
		Monto:           testutil.Money(monto),
		AlumnoID:        alumnoID,
		RubroID:         rubroID,
		EsColegiatura:   true,
		MesColegiatura:  null.IntFrom(mes),
		AnioColegiatura: null.IntFrom(2024),
	}
}

func TestTuitionDebtorsReport(t *testing.T) {
	app := setup(t)
	school := testutil.CreateSchool(t, app.env.EscuelaRepo, "Primero")
	lucia := testutil.CreateAlumno(t, app.env.AlumnoRepo, school, "A-001", "Lucía", "Pérez")
	mateo := testutil.CreateAlumno(t, app.env.AlumnoRepo, school, "A-002", "Mateo", "García")
	colegiatura := testutil.CreateRubro(t, app.env.RubroRepo, rubro.Rubro{
		Descripcion:         "Colegiatura",
		Tipo:                rubro.TipoColegiatura,
		MontoPreestablecido: decimal.NewNullDecimal(testutil.Money("350")),
	})
	testutil.CreatePago(t, app.env.PagoRepo, tuitionPago(lucia.ID, colegiatura.ID, 1, "350"))
	testutil.CreatePago(t, app.env.PagoRepo, tuitionPago(lucia.ID, colegiatura.ID, 2, "200"))

	decode := func(t *testing.T, rec *httptest.ResponseRecorder) reporte.TuitionDebtorsReport {
		var report reporte.TuitionDebtorsReport
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &report))
		return report
	}

	app.run(t, []httpTest{
		{
			name:     "invalid month",
			path:     "/pagos/tuition-debtors-report?year=2024&month=13",
			token:    app.opToken,
			wantCode: http.StatusBadRequest,
			wantData: marshalObj(t, httpErr{Error: "month must be between 1 and 12"}),
		},
		{
			name:     "invalid minDebtAmount",
			path:     "/pagos/tuition-debtors-report?year=2024&month=3&minDebtAmount=mucho",
			token:    app.opToken,
			wantCode: http.StatusBadRequest,
		},
		{
			name:  "as of march",
			path:  "/pagos/tuition-debtors-report?year=2024&month=3",
			token: app.opToken,
			check: func(t *testing.T, rec *httptest.ResponseRecorder) {
				report := decode(t, rec)
				assert.Equal(t, 2, report.TotalStudents)
				assert.Equal(t, 2, report.StudentsInDebt)
				assert.Equal(t, "1550", report.TotalDebtAmount.String())
				require.Len(t, report.Debtors, 2)

				first, second := report.Debtors[0], report.Debtors[1]
				assert.Equal(t, mateo.ID, first.AlumnoID, "the biggest debt goes first")
				assert.Equal(t, 3, first.MonthsBehind)
				assert.False(t, first.LastPaymentDate.Valid)

				assert.Equal(t, lucia.ID, second.AlumnoID)
				assert.Equal(t, "500", second.TotalDebt.String())
				assert.Equal(t, 2, second.MonthsBehind)
				assert.True(t, second.IsCurrentMonthOverdue)
				require.Len(t, second.UnpaidTuitions, 2)
				assert.Equal(t, "Febrero", second.UnpaidTuitions[0].MonthName)
				assert.Equal(t, "150", second.UnpaidTuitions[0].Amount.String())

				assert.Equal(t, 1, report.Summary.TwoMonthsBehind)
				assert.Equal(t, 1, report.Summary.ThreeOrMoreMonthsBehind)
				assert.Equal(t, 2, report.Summary.DebtorsByGrade["Primero"])
			},
		},
		{
			name:  "without the current month",
			path:  "/pagos/tuition-debtors-report?year=2024&month=3&includeCurrentMonth=false",
			token: app.opToken,
			check: func(t *testing.T, rec *httptest.ResponseRecorder) {
				report := decode(t, rec)
				require.Len(t, report.Debtors, 2)
				assert.Equal(t, "150", report.Debtors[1].TotalDebt.String())
				assert.False(t, report.Debtors[1].IsCurrentMonthOverdue)
			},
		},
		{
			name:  "minimum debt",
			path:  "/pagos/tuition-debtors-report?year=2024&month=3&minDebtAmount=600",
			token: app.opToken,
			check: func(t *testing.T, rec *httptest.ResponseRecorder) {
				report := decode(t, rec)
				require.Len(t, report.Debtors, 1)
				assert.Equal(t, mateo.ID, report.Debtors[0].AlumnoID)
			},
		},
	})
}

func TestTuitionDebtorsReport_Scholarships(t *testing.T) {
	app := setup(t)
	school := testutil.CreateSchool(t, app.env.EscuelaRepo, "Segundo")
	becar := func(a alumno.Alumno, pct string) {
		a.Becado = true
		if pct != "" {
			a.BecaParcialPorcentaje = decimal.NewNullDecimal(testutil.Money(pct))
		}
		_, err := app.env.AlumnoRepo.Update(context.Background(), a)
		require.NoError(t, err)
	}
	ana := testutil.CreateAlumno(t, app.env.AlumnoRepo, school, "B-001", "Ana", "López")
	becar(ana, "50")
	becar(testutil.CreateAlumno(t, app.env.AlumnoRepo, school, "B-002", "Beto", "Cruz"), "")
	becar(testutil.CreateAlumno(t, app.env.AlumnoRepo, school, "B-003", "Carla", "Díaz"), "100")
	colegiatura := testutil.CreateRubro(t, app.env.RubroRepo, rubro.Rubro{
		Descripcion:         "Colegiatura",
		Tipo:                rubro.TipoColegiatura,
		MontoPreestablecido: decimal.NewNullDecimal(testutil.Money("350")),
	})
	testutil.CreatePago(t, app.env.PagoRepo, tuitionPago(ana.ID, colegiatura.ID, 1, "175"))

	app.run(t, []httpTest{
		{
			name:  "full scholarships owe nothing",
			path:  "/pagos/tuition-debtors-report?year=2024&month=3",
			token: app.opToken,
			check: func(t *testing.T, rec *httptest.ResponseRecorder) {
				var report reporte.TuitionDebtorsReport
				require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &report))
				assert.Equal(t, 3, report.TotalStudents)
				assert.Equal(t, 1, report.StudentsInDebt)
				require.Len(t, report.Debtors, 1)

				debtor := report.Debtors[0]
				assert.Equal(t, ana.ID, debtor.AlumnoID)
				assert.Equal(t, 2, debtor.MonthsBehind)
				assert.Equal(t, "350", debtor.TotalDebt.String())
				require.Len(t, debtor.UnpaidTuitions, 2)
				for _, u := range debtor.UnpaidTuitions {
					assert.Equal(t, "175", u.Amount.String(), "half of the monthly fee")
				}
			},
		},
	})
}

func TestPaymentGridReport(t *testing.T) {
	app := setup(t)
	school := testutil.CreateSchool(t, app.env.EscuelaRepo, "Primero")
	lucia := testutil.CreateAlumno(t, app.env.AlumnoRepo, school, "A-001", "Lucía", "Pérez")
	colegiatura := testutil.CreateRubro(t, app.env.RubroRepo, rubro.Rubro{
		Descripcion:         "Colegiatura",
		Tipo:                rubro.TipoColegiatura,
		MontoPreestablecido: decimal.NewNullDecimal(testutil.Money("350")),
	})
	testutil.CreatePago(t, app.env.PagoRepo, tuitionPago(lucia.ID, colegiatura.ID, 1, "350"))
	testutil.CreatePago(t, app.env.PagoRepo, tuitionPago(lucia.ID, colegiatura.ID, 2, "100"))
	testutil.CreatePago(t, app.env.PagoRepo, tuitionPago(lucia.ID, colegiatura.ID, 2, "50"))

	app.run(t, []httpTest{
		{
			name:     "gradoId is required",
			path:     "/pagos/report?cicloEscolar=2024",
			token:    app.opToken,
			wantCode: http.StatusBadRequest,
		},
		{
			name:     "unknown grado",
			path:     "/pagos/report?cicloEscolar=2024&gradoId=99",
			token:    app.opToken,
			wantCode: http.StatusNotFound,
		},
		{
			name:     "transport report of a tuition rubro",
			path:     fmt.Sprintf("/pagos/transport-report?cicloEscolar=2024&rubroId=%d", colegiatura.ID),
			token:    app.opToken,
			wantCode: http.StatusBadRequest,
			wantData: marshalObj(t, httpErr{Error: fmt.Sprintf("Rubro with ID %d is not a transport rubro", colegiatura.ID)}),
		},
		{
			name:  "grid",
			path:  fmt.Sprintf("/pagos/report?cicloEscolar=2024&gradoId=%d", school.Grado.ID),
			token: app.opToken,
			check: func(t *testing.T, rec *httptest.ResponseRecorder) {
				var report reporte.GridReport
				require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &report))
				require.Len(t, report.Rubros, 1)
				require.Len(t, report.Alumnos, 1)

				row := report.Alumnos[0]
				assert.Equal(t, "Pérez, Lucía", row.NombreCompleto)
				cells := row.PagosPorRubro[colegiatura.ID]
				require.Len(t, cells, 2)
				assert.Equal(t, "350", cells[1].Monto.String())
				assert.Equal(t, "150", cells[2].Monto.String(), "payments of the same month are summed")
			},
		},
	})
}

func TestMonthlyReport(t *testing.T) {
	app := setup(t)
	school := testutil.CreateSchool(t, app.env.EscuelaRepo, "Primero")
	lucia := testutil.CreateAlumno(t, app.env.AlumnoRepo, school, "A-001", "Lucía", "Pérez")
	colegiatura := testutil.CreateRubro(t, app.env.RubroRepo, rubro.Rubro{Descripcion: "Colegiatura", Tipo: rubro.TipoColegiatura})
	testutil.CreatePago(t, app.env.PagoRepo, tuitionPago(lucia.ID, colegiatura.ID, 2, "350"))
	voided := tuitionPago(lucia.ID, colegiatura.ID, 2, "100")
	voided.EsAnulado = true
	voided.MotivoAnulacion = null.StringFrom("duplicado")
	testutil.CreatePago(t, app.env.PagoRepo, voided)

	app.run(t, []httpTest{
		{
			name:     "month is required",
			path:     "/pagos/monthly-report?year=2024",
			token:    app.opToken,
			wantCode: http.StatusBadRequest,
			wantData: marshalObj(t, httpErr{Error: "month must be between 1 and 12"}),
		},
		{
			name:  "february",
			path:  "/pagos/monthly-report?year=2024&month=2&cicloEscolar=2024",
			token: app.opToken,
			check: func(t *testing.T, rec *httptest.ResponseRecorder) {
				var report reporte.MonthlyReport
				require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &report))
				assert.Equal(t, "Reporte de Pagos - Febrero 2024", report.ReportTitle)
				assert.Equal(t, "01/02/2024 - 29/02/2024", report.ReportPeriod)
				assert.Equal(t, 2, report.Summary.TotalPayments)
				assert.Equal(t, 1, report.Summary.VoidedPayments)
				assert.Equal(t, "350", report.Summary.ActivePaymentsAmount.String())
				assert.Equal(t, "100", report.Summary.VoidedPaymentsAmount.String())
				require.Len(t, report.Payments, 2)
				assert.Equal(t, "Viernes", report.Payments[0].DayOfWeek)
				assert.Equal(t, 1, report.Payments[0].WeekOfMonth)
			},
		},
	})
}
