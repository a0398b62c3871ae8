package reporte

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/volatiletech/null/v8"

	"github.com/manitascreativas/escuela/core"
	"github.com/manitascreativas/escuela/core/rubro"
)

func newTestService(now time.Time) *Service {
	nowFunc = func() time.Time { return now }
	return NewService(nil, nil, nil, core.NewTestConfig())
}

func TestService_period(t *testing.T) {
	now := time.Date(2024, 3, 12, 15, 30, 0, 0, time.UTC)
	svc := newTestService(now)
	defer func() { nowFunc = time.Now }()

	t.Run("defaults to the current month", func(t *testing.T) {
		p, err := svc.period(NewDebtorsFilter())
		require.NoError(t, err)
		assert.Equal(t, 2024, p.year)
		assert.Equal(t, 3, p.month)
		assert.Equal(t, now, p.asOf)
		assert.Equal(t, 1, p.first)
		assert.Equal(t, 3, p.last)
	})

	t.Run("past month ends on its last day", func(t *testing.T) {
		p, err := svc.period(DebtorsFilter{Year: 2023, Month: 2})
		require.NoError(t, err)
		assert.Equal(t, time.Date(2023, 2, 28, 0, 0, 0, 0, time.UTC), p.asOf)
	})

	t.Run("capped to the last tuition month", func(t *testing.T) {
		p, err := svc.period(DebtorsFilter{Year: 2023, Month: 12})
		require.NoError(t, err)
		assert.Equal(t, 10, p.last)
	})

	t.Run("invalid month", func(t *testing.T) {
		_, err := svc.period(DebtorsFilter{Year: 2023, Month: 13})
		assert.True(t, core.IsValidation(err))
	})
}

func TestPeriod_owed(t *testing.T) {
	p := period{year: 2024, month: 3, asOf: time.Date(2024, 3, 10, 9, 0, 0, 0, time.UTC), includeCurrent: true}
	due := func(m, d int) time.Time { return time.Date(2024, time.Month(m), d, 0, 0, 0, 0, time.UTC) }

	assert.True(t, p.owed(2, due(2, 5)))
	assert.True(t, p.owed(3, due(3, 5)))
	assert.False(t, p.owed(3, due(3, 10)), "due today is not owed yet")
	assert.False(t, p.owed(3, due(3, 15)))

	p.includeCurrent = false
	assert.False(t, p.owed(3, due(3, 5)))
	assert.True(t, p.owed(2, due(2, 5)))
}

func TestApplicableTuition(t *testing.T) {
	general := rubro.Rubro{ID: 1, EsColegiatura: true}
	byNivel := rubro.Rubro{ID: 2, EsColegiatura: true, NivelEducativoID: null.IntFrom(7)}
	byGrado := rubro.Rubro{ID: 3, EsColegiatura: true, GradoID: null.IntFrom(70)}
	marchOnly := rubro.Rubro{ID: 4, EsColegiatura: true, GradoID: null.IntFrom(71), MesColegiatura: null.IntFrom(3)}
	rubros := []rubro.Rubro{general, byNivel, byGrado, marchOnly}

	tests := []struct {
		name    string
		student Student
		month   int
		wantID  int
		wantOK  bool
	}{
		{name: "grade first", student: Student{GradoID: 70, NivelEducativoID: 7}, month: 1, wantID: 3, wantOK: true},
		{name: "then level", student: Student{GradoID: 72, NivelEducativoID: 7}, month: 1, wantID: 2, wantOK: true},
		{name: "then general", student: Student{GradoID: 80, NivelEducativoID: 8}, month: 1, wantID: 1, wantOK: true},
		{name: "month specific", student: Student{GradoID: 71, NivelEducativoID: 8}, month: 3, wantID: 4, wantOK: true},
		{name: "month specific skipped", student: Student{GradoID: 71, NivelEducativoID: 8}, month: 4, wantID: 1, wantOK: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := applicableTuition(rubros, tt.student, tt.month)
			assert.Equal(t, tt.wantOK, ok)
			assert.Equal(t, tt.wantID, got.ID)
		})
	}

	_, ok := applicableTuition([]rubro.Rubro{byGrado}, Student{GradoID: 1}, 1)
	assert.False(t, ok)
}

func TestCollectAndSummarize(t *testing.T) {
	money := decimal.RequireFromString
	debtor := func(name, grado string, debt string, months int, current bool) *Debtor {
		return &Debtor{
			NombreCompleto:        name,
			Grado:                 grado,
			Sede:                  "Central",
			TotalDebt:             money(debt),
			MonthsBehind:          months,
			IsCurrentMonthOverdue: current,
		}
	}
	debtors := []*Debtor{
		debtor("Zoe", "Primero", "500", 1, true),
		debtor("Ana", "Primero", "500", 1, false),
		debtor("Luis", "Segundo", "1000", 2, false),
		debtor("Eva", "Segundo", "1500", 3, true),
		debtor("Sin deuda", "Segundo", "0", 0, false),
	}

	list := collect(debtors, DebtorsFilter{})
	require.Len(t, list, 4)
	names := []string{list[0].NombreCompleto, list[1].NombreCompleto, list[2].NombreCompleto, list[3].NombreCompleto}
	assert.Equal(t, []string{"Eva", "Luis", "Ana", "Zoe"}, names)

	sum, total := summarize(list)
	assert.Equal(t, 1, sum.CurrentMonthDelinquent)
	assert.Equal(t, 1, sum.OneMonthBehind)
	assert.Equal(t, 1, sum.TwoMonthsBehind)
	assert.Equal(t, 1, sum.ThreeOrMoreMonthsBehind)
	assert.Equal(t, 2, sum.DebtorsByGrade["Primero"])
	assert.Equal(t, 4, sum.DebtorsBySede["Central"])
	assert.True(t, money("3500").Equal(total))
	assert.True(t, money("875").Equal(sum.AverageDebtPerStudent))

	assert.Len(t, collect(debtors, DebtorsFilter{MinMonthsBehind: 2}), 2)
	assert.Len(t, collect(debtors, DebtorsFilter{MinDebtAmount: money("1000")}), 2)

	empty, total := summarize(nil)
	assert.True(t, empty.AverageDebtPerStudent.IsZero())
	assert.True(t, total.IsZero())
}

func TestAssignment_covers(t *testing.T) {
	d := func(m, day int) time.Time { return time.Date(2024, time.Month(m), day, 0, 0, 0, 0, time.UTC) }
	a := Assignment{FechaInicio: d(3, 15)}
	assert.False(t, a.covers(d(2, 1), d(2, 29)))
	assert.True(t, a.covers(d(3, 1), d(3, 31)))
	assert.True(t, a.covers(d(9, 1), d(9, 30)))

	a.FechaFin = null.TimeFrom(d(5, 1))
	assert.True(t, a.covers(d(5, 1), d(5, 31)))
	assert.False(t, a.covers(d(6, 1), d(6, 30)))
}

func TestStudentNames(t *testing.T) {
	s := Student{PrimerNombre: "Lucía", SegundoNombre: null.StringFrom("Ana"), PrimerApellido: "Pérez", SegundoApellido: null.StringFrom("Gómez")}
	assert.Equal(t, "Lucía Ana Pérez Gómez", s.FullName())
	assert.Equal(t, "Pérez Gómez, Lucía Ana", s.ListName())

	assert.True(t, Student{}.becaPorcentaje().IsZero())
	assert.Equal(t, "100", Student{Becado: true}.becaPorcentaje().String())
	partial := Student{Becado: true, BecaParcialPorcentaje: decimal.NewNullDecimal(decimal.NewFromInt(25))}
	assert.Equal(t, "25", partial.becaPorcentaje().String())
}
