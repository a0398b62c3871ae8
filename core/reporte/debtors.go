package reporte

import (
	"context"
	"sort"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"github.com/volatiletech/null/v8"

	"github.com/manitascreativas/escuela/core"
	"github.com/manitascreativas/escuela/core/rubro"
)

var hundred = decimal.NewFromInt(100)

// period is the span of months a debtors report looks at.
type period struct {
	year           int
	month          int // as-of month
	first, last    int
	asOf           time.Time
	includeCurrent bool
	loc            *time.Location
}

func (svc *Service) period(filter DebtorsFilter) (period, error) {
	now := svc.now()
	p := period{
		year:           filter.Year,
		month:          filter.Month,
		first:          svc.conf.FirstTuitionMonth,
		includeCurrent: filter.IncludeCurrentMonth,
		loc:            svc.conf.Location,
	}
	if p.year == 0 {
		p.year = now.Year()
	}
	if p.month == 0 {
		p.month = int(now.Month())
	}
	if p.month < 1 || p.month > 12 {
		return period{}, core.NewArgumentError("month must be between 1 and 12")
	}

	if p.year == now.Year() && p.month == int(now.Month()) {
		p.asOf = now
	} else {
		p.asOf = date(p.year, p.month, lastDayOfMonth(p.year, p.month), p.loc)
	}
	p.last = p.month
	if p.last > svc.conf.LastTuitionMonth {
		p.last = svc.conf.LastTuitionMonth
	}
	return p, nil
}

// owed reports whether month m, due on `due`, is owed at the as-of date.
func (p period) owed(m int, due time.Time) bool {
	if !truncateDay(p.asOf).After(due) {
		return false
	}
	if m == p.month {
		return p.includeCurrent
	}
	return true
}

func (p period) unpaid(m int, due time.Time, amount decimal.Decimal, r rubro.Rubro) UnpaidMonth {
	return UnpaidMonth{
		Year:        p.year,
		Month:       m,
		MonthName:   MonthName(m),
		Amount:      amount,
		DueDate:     due,
		DaysPastDue: daysBetween(due, p.asOf),
		RubroNombre: r.Descripcion,
	}
}

type paidKey struct {
	alumnoID, rubroID, year, month int
}

func newDebtor(s Student) *Debtor {
	return &Debtor{
		AlumnoID:       s.AlumnoID,
		NombreCompleto: s.FullName(),
		NivelEducativo: s.NivelEducativo,
		Grado:          s.Grado,
		Seccion:        s.Seccion.String,
		Sede:           s.Sede,
		TotalDebt:      decimal.Zero,
	}
}

func (d *Debtor) addUnpaid(u UnpaidMonth, current bool) {
	d.unpaid = append(d.unpaid, u)
	d.TotalDebt = core.RoundMoney(d.TotalDebt.Add(u.Amount))
	d.MonthsBehind++
	if current {
		d.IsCurrentMonthOverdue = true
	}
}

// collect drops the debtors below the filter thresholds and sorts the rest by debt then name.
func collect(debtors []*Debtor, filter DebtorsFilter) []*Debtor {
	list := make([]*Debtor, 0, len(debtors))
	for _, d := range debtors {
		if d.MonthsBehind == 0 || d.MonthsBehind < filter.MinMonthsBehind {
			continue
		}
		if filter.MinDebtAmount.IsPositive() && d.TotalDebt.LessThan(filter.MinDebtAmount) {
			continue
		}
		list = append(list, d)
	}
	sort.SliceStable(list, func(i, j int) bool {
		if !list[i].TotalDebt.Equal(list[j].TotalDebt) {
			return list[i].TotalDebt.GreaterThan(list[j].TotalDebt)
		}
		return list[i].NombreCompleto < list[j].NombreCompleto
	})
	return list
}

// summarize puts every debtor in exactly one months-behind bucket.
func summarize(debtors []*Debtor) (DebtorsSummary, decimal.Decimal) {
	sum := DebtorsSummary{
		AverageDebtPerStudent: decimal.Zero,
		DebtorsByGrade:        make(map[string]int),
		DebtorsBySede:         make(map[string]int),
	}
	total := decimal.Zero
	for _, d := range debtors {
		total = total.Add(d.TotalDebt)
		switch {
		case d.MonthsBehind == 1 && d.IsCurrentMonthOverdue:
			sum.CurrentMonthDelinquent++
		case d.MonthsBehind == 1:
			sum.OneMonthBehind++
		case d.MonthsBehind == 2:
			sum.TwoMonthsBehind++
		default:
			sum.ThreeOrMoreMonthsBehind++
		}
		sum.DebtorsByGrade[d.Grado]++
		sum.DebtorsBySede[d.Sede]++
	}
	if len(debtors) > 0 {
		sum.AverageDebtPerStudent = core.RoundMoney(total.Div(decimal.NewFromInt(int64(len(debtors)))))
	}
	return sum, core.RoundMoney(total)
}

// applicableTuition picks the tuition rubro of the student for month m:
// the grade rubro first, then the level rubro, then a general one.
func applicableTuition(rubros []rubro.Rubro, s Student, m int) (rubro.Rubro, bool) {
	var byNivel, general *rubro.Rubro
	for i := range rubros {
		r := &rubros[i]
		if r.MesColegiatura.Valid && r.MesColegiatura.Int != m {
			continue
		}
		switch {
		case r.GradoID.Valid:
			if r.GradoID.Int == s.GradoID {
				return *r, true
			}
		case r.NivelEducativoID.Valid:
			if r.NivelEducativoID.Int == s.NivelEducativoID && byNivel == nil {
				byNivel = r
			}
		default:
			if general == nil {
				general = r
			}
		}
	}
	if byNivel != nil {
		return *byNivel, true
	}
	if general != nil {
		return *general, true
	}
	return rubro.Rubro{}, false
}

func (svc *Service) studentFilter(filter DebtorsFilter) StudentFilter {
	return StudentFilter{
		SedeID:           filter.SedeID,
		NivelEducativoID: filter.NivelEducativoID,
		GradoID:          filter.GradoID,
		Seccion:          core.CleanString(filter.Seccion),
		OnlyActive:       true,
	}
}

func (svc *Service) activeRubros(ctx context.Context, keep func(r rubro.Rubro) bool) ([]rubro.Rubro, error) {
	all, err := svc.rubroRepo.QueryAll(ctx, true)
	if err != nil {
		return nil, err
	}
	list := make([]rubro.Rubro, 0, len(all))
	for _, r := range all {
		if r.MontoPreestablecido.Valid && keep(r) {
			list = append(list, r)
		}
	}
	return list, nil
}

// TuitionDebtors lists the active students owing tuition months up to the as-of month.
func (svc *Service) TuitionDebtors(ctx context.Context, filter DebtorsFilter) (TuitionDebtorsReport, error) {
	p, err := svc.period(filter)
	if err != nil {
		return TuitionDebtorsReport{}, err
	}
	students, err := svc.repo.QueryStudents(ctx, svc.studentFilter(filter))
	if err != nil {
		return TuitionDebtorsReport{}, err
	}
	rubros, err := svc.activeRubros(ctx, func(r rubro.Rubro) bool { return r.EsColegiatura })
	if err != nil {
		return TuitionDebtorsReport{}, err
	}
	payments, err := svc.repo.QueryPayments(ctx, PaymentFilter{AnioColegiatura: p.year, OnlyColegiatura: true})
	if err != nil {
		return TuitionDebtorsReport{}, err
	}

	paid := make(map[paidKey]decimal.Decimal)
	lastPayment := make(map[int]time.Time)
	for _, pay := range payments {
		k := paidKey{alumnoID: pay.AlumnoID, year: pay.AnioColegiatura.Int, month: pay.MesColegiatura.Int}
		paid[k] = paid[k].Add(pay.Monto)
		if pay.Fecha.After(lastPayment[pay.AlumnoID]) {
			lastPayment[pay.AlumnoID] = pay.Fecha
		}
	}

	debtors := make([]*Debtor, 0)
	for _, s := range students {
		beca := s.becaPorcentaje()
		if beca.GreaterThanOrEqual(hundred) {
			continue
		}
		factor := decimal.NewFromInt(1).Sub(beca.Div(hundred))

		d := newDebtor(s)
		if last, ok := lastPayment[s.AlumnoID]; ok {
			d.LastPaymentDate = null.TimeFrom(last)
		}
		for m := p.first; m <= p.last; m++ {
			r, ok := applicableTuition(rubros, s, m)
			if !ok {
				continue
			}
			due := dueDate(p.year, m, r.DueDay(svc.conf.DefaultDueDay), p.loc)
			if !p.owed(m, due) {
				continue
			}
			expected := core.RoundMoney(r.MontoPreestablecido.Decimal.Mul(factor))
			remainder := expected.Sub(paid[paidKey{alumnoID: s.AlumnoID, year: p.year, month: m}])
			if remainder.IsPositive() {
				d.addUnpaid(p.unpaid(m, due, core.RoundMoney(remainder), r), m == p.month)
			}
		}
		debtors = append(debtors, d)
	}

	list := collect(debtors, filter)
	summary, total := summarize(list)
	report := TuitionDebtorsReport{
		debtorsHeader: debtorsHeader{
			ReportDate:      svc.now(),
			AsOfDate:        p.asOf,
			TotalStudents:   len(students),
			StudentsInDebt:  len(list),
			TotalDebtAmount: total,
		},
		Debtors: make([]TuitionDebtor, 0, len(list)),
		Summary: summary,
	}
	for _, d := range list {
		report.Debtors = append(report.Debtors, TuitionDebtor{Debtor: *d, UnpaidTuitions: d.unpaid})
	}
	return report, nil
}

// TransportDebtors lists the students owing months of the routes they are assigned to.
func (svc *Service) TransportDebtors(ctx context.Context, filter DebtorsFilter) (TransportDebtorsReport, error) {
	p, err := svc.period(filter)
	if err != nil {
		return TransportDebtorsReport{}, err
	}
	rubros, err := svc.activeRubros(ctx, func(r rubro.Rubro) bool {
		return r.EsPagoDeTransporte && (filter.RubroID == 0 || r.ID == filter.RubroID)
	})
	if err != nil {
		return TransportDebtorsReport{}, err
	}
	routes := make(map[int]rubro.Rubro, len(rubros))
	for _, r := range rubros {
		routes[r.ID] = r
	}

	assignments, err := svc.repo.QueryAssignments(ctx, filter.RubroID)
	if err != nil {
		return TransportDebtorsReport{}, err
	}
	byStudent := make(map[int][]Assignment)
	for _, a := range assignments {
		if _, ok := routes[a.RubroTransporteID]; ok {
			byStudent[a.AlumnoID] = append(byStudent[a.AlumnoID], a)
		}
	}

	students, err := svc.repo.QueryStudents(ctx, svc.studentFilter(filter))
	if err != nil {
		return TransportDebtorsReport{}, err
	}
	payments, err := svc.repo.QueryPayments(ctx, PaymentFilter{AnioColegiatura: p.year, RubroID: filter.RubroID, OnlyTransporte: true})
	if err != nil {
		return TransportDebtorsReport{}, err
	}
	paid := make(map[paidKey]decimal.Decimal)
	lastPayment := make(map[int]time.Time)
	for _, pay := range payments {
		k := paidKey{alumnoID: pay.AlumnoID, rubroID: pay.RubroID, year: pay.AnioColegiatura.Int, month: pay.MesColegiatura.Int}
		paid[k] = paid[k].Add(pay.Monto)
		if pay.Fecha.After(lastPayment[pay.AlumnoID]) {
			lastPayment[pay.AlumnoID] = pay.Fecha
		}
	}

	debtors := make([]*Debtor, 0)
	totalStudents := 0
	for _, s := range students {
		assigned := byStudent[s.AlumnoID]
		if len(assigned) == 0 {
			continue
		}
		totalStudents++

		d := newDebtor(s)
		if last, ok := lastPayment[s.AlumnoID]; ok {
			d.LastPaymentDate = null.TimeFrom(last)
		}
		for _, a := range assigned {
			r := routes[a.RubroTransporteID]
			d.routes = append(d.routes, r.Descripcion)
			for m := p.first; m <= p.last; m++ {
				from := date(p.year, m, 1, p.loc)
				to := date(p.year, m, lastDayOfMonth(p.year, m), p.loc)
				if !a.covers(from, to) {
					continue
				}
				due := dueDate(p.year, m, r.DueDay(svc.conf.DefaultDueDay), p.loc)
				if !p.owed(m, due) {
					continue
				}
				expected := core.RoundMoney(r.MontoPreestablecido.Decimal)
				remainder := expected.Sub(paid[paidKey{alumnoID: s.AlumnoID, rubroID: r.ID, year: p.year, month: m}])
				if remainder.IsPositive() {
					d.addUnpaid(p.unpaid(m, due, core.RoundMoney(remainder), r), m == p.month)
				}
			}
		}
		debtors = append(debtors, d)
	}

	list := collect(debtors, filter)
	summary, total := summarize(list)
	report := TransportDebtorsReport{
		debtorsHeader: debtorsHeader{
			ReportDate:      svc.now(),
			AsOfDate:        p.asOf,
			TotalStudents:   totalStudents,
			StudentsInDebt:  len(list),
			TotalDebtAmount: total,
		},
		Debtors: make([]TransportDebtor, 0, len(list)),
		Summary: TransportDebtorsSummary{DebtorsSummary: summary, DebtorsByRoute: make(map[string]int)},
	}
	for _, d := range list {
		seen := make(map[string]bool)
		for _, u := range d.unpaid {
			if !seen[u.RubroNombre] {
				seen[u.RubroNombre] = true
				report.Summary.DebtorsByRoute[u.RubroNombre]++
			}
		}
		report.Debtors = append(report.Debtors, TransportDebtor{
			Debtor:           *d,
			RubroTransporte:  strings.Join(d.routes, ", "),
			UnpaidTransports: d.unpaid,
		})
	}
	return report, nil
}
