package reporte

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/manitascreativas/escuela/core"
	"github.com/manitascreativas/escuela/core/pago"
	"github.com/manitascreativas/escuela/core/rubro"
)

// payment categories
const (
	CategoryActive = "Active"
	CategoryVoided = "Voided"
)

func newMonthlySummary() MonthlySummary {
	return MonthlySummary{
		TotalAmount:          decimal.Zero,
		ActivePaymentsAmount: decimal.Zero,
		VoidedPaymentsAmount: decimal.Zero,
		AmountByGrado:        make(map[string]decimal.Decimal),
		AmountByRubro:        make(map[string]decimal.Decimal),
		AmountByWeek:         make(map[string]decimal.Decimal),
		PaymentCountByGrado:  make(map[string]int),
		PaymentCountByRubro:  make(map[string]int),
		PaymentCountByWeek:   make(map[string]int),
	}
}

// add accounts the payment; the breakdowns only count active payments.
func (sum *MonthlySummary) add(item MonthlyPaymentItem) {
	sum.TotalPayments++
	if item.EsAnulado {
		sum.VoidedPayments++
		sum.VoidedPaymentsAmount = sum.VoidedPaymentsAmount.Add(item.Monto)
		return
	}
	sum.ActivePayments++
	sum.ActivePaymentsAmount = sum.ActivePaymentsAmount.Add(item.Monto)
	sum.TotalAmount = sum.TotalAmount.Add(item.Monto)

	sum.AmountByGrado[item.GradoNombre] = sum.AmountByGrado[item.GradoNombre].Add(item.Monto)
	sum.AmountByRubro[item.RubroDescripcion] = sum.AmountByRubro[item.RubroDescripcion].Add(item.Monto)
	sum.AmountByWeek[item.WeekRange] = sum.AmountByWeek[item.WeekRange].Add(item.Monto)
	sum.PaymentCountByGrado[item.GradoNombre]++
	sum.PaymentCountByRubro[item.RubroDescripcion]++
	sum.PaymentCountByWeek[item.WeekRange]++
}

func (sum *MonthlySummary) round() {
	sum.TotalAmount = core.RoundMoney(sum.TotalAmount)
	sum.ActivePaymentsAmount = core.RoundMoney(sum.ActivePaymentsAmount)
	sum.VoidedPaymentsAmount = core.RoundMoney(sum.VoidedPaymentsAmount)
	for _, m := range []map[string]decimal.Decimal{sum.AmountByGrado, sum.AmountByRubro, sum.AmountByWeek} {
		for k, v := range m {
			m[k] = core.RoundMoney(v)
		}
	}
}

// MonthlyPayments reports every payment dated in the month, split by week.
func (svc *Service) MonthlyPayments(ctx context.Context, filter MonthlyFilter) (MonthlyReport, error) {
	if filter.Month < 1 || filter.Month > 12 {
		return MonthlyReport{}, core.NewArgumentError("month must be between 1 and 12")
	}
	if filter.Year < 2000 || filter.Year > 2100 {
		return MonthlyReport{}, core.NewArgumentError("year must be between 2000 and 2100")
	}
	filter.Seccion = core.CleanString(filter.Seccion)

	loc := svc.conf.Location
	from := date(filter.Year, filter.Month, 1, loc)
	to := from.AddDate(0, 1, 0)
	items, err := svc.repo.QueryMonthlyPayments(ctx, filter, from, to)
	if err != nil {
		return MonthlyReport{}, err
	}

	summary := newMonthlySummary()
	for i := range items {
		it := &items[i]
		fecha := it.Fecha.In(loc)
		it.MedioPago = pago.MedioNombre(it.MedioPagoID)
		it.TipoRubro = rubro.TipoNombre(it.TipoRubroID)
		it.DayOfMonth = fecha.Day()
		it.DayOfWeek = DayName(fecha.Weekday())
		it.WeekOfMonth = weekOfMonth(it.DayOfMonth)
		it.WeekRange = weekRange(it.WeekOfMonth, filter.Year, filter.Month)
		it.PaymentCategory = CategoryActive
		if it.EsAnulado {
			it.PaymentCategory = CategoryVoided
		}
		summary.add(*it)
	}
	summary.round()
	if items == nil {
		items = []MonthlyPaymentItem{}
	}

	lastDay := lastDayOfMonth(filter.Year, filter.Month)
	return MonthlyReport{
		Filter:      filter,
		Summary:     summary,
		Payments:    items,
		GeneratedAt: svc.now(),
		ReportTitle: fmt.Sprintf("Reporte de Pagos - %s %d", MonthName(filter.Month), filter.Year),
		ReportPeriod: fmt.Sprintf("01/%02d/%d - %02d/%02d/%d",
			filter.Month, filter.Year, lastDay, filter.Month, filter.Year),
	}, nil
}
