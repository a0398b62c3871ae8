package echoapi

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"
	"github.com/shopspring/decimal"

	"github.com/manitascreativas/escuela/core"
	"github.com/manitascreativas/escuela/core/reporte"
)

type reporteApi struct {
	svc *reporte.Service
}

func registerReporteAPI(e *echo.Echo, jwt echo.MiddlewareFunc, deps ServerDeps) {
	api := reporteApi{svc: deps.ReporteSvc}

	// same prefix as pagoApi's group, hence no group here
	e.GET("/pagos/report", api.paymentGrid, jwt)
	e.GET("/pagos/transport-report", api.transportPayments, jwt)
	e.GET("/pagos/tuition-debtors-report", api.tuitionDebtors, jwt)
	e.GET("/pagos/transport-debtors-report", api.transportDebtors, jwt)
	e.GET("/pagos/monthly-report", api.monthlyPayments, jwt)
}

func (api *reporteApi) paymentGrid(ctx echo.Context) error {
	ciclo, err := requiredQueryInt(ctx, "cicloEscolar")
	if err != nil {
		return err
	}
	gradoID, err := requiredQueryInt(ctx, "gradoId")
	if err != nil {
		return err
	}
	report, err := api.svc.PaymentGrid(ctx.Request().Context(), ciclo, gradoID)
	if err != nil {
		return errors.Wrap(err, "building payment grid report")
	}
	return ctx.JSON(http.StatusOK, report)
}

func (api *reporteApi) transportPayments(ctx echo.Context) error {
	ciclo, err := requiredQueryInt(ctx, "cicloEscolar")
	if err != nil {
		return err
	}
	rubroID, err := requiredQueryInt(ctx, "rubroId")
	if err != nil {
		return err
	}
	report, err := api.svc.TransportPayments(ctx.Request().Context(), ciclo, rubroID)
	if err != nil {
		return errors.Wrap(err, "building transport payments report")
	}
	return ctx.JSON(http.StatusOK, report)
}

// bindDebtorsFilter reads the debtors filter from the query string.
func bindDebtorsFilter(ctx echo.Context) (reporte.DebtorsFilter, error) {
	filter := reporte.NewDebtorsFilter()
	ints := map[string]*int{
		"year":             &filter.Year,
		"month":            &filter.Month,
		"sedeId":           &filter.SedeID,
		"nivelEducativoId": &filter.NivelEducativoID,
		"gradoId":          &filter.GradoID,
		"rubroId":          &filter.RubroID,
		"minMonthsBehind":  &filter.MinMonthsBehind,
	}
	for name, dst := range ints {
		n, err := queryInt(ctx, name)
		if err != nil {
			return filter, err
		}
		*dst = n
	}

	var err error
	if filter.IncludeCurrentMonth, err = queryBool(ctx, "includeCurrentMonth", true); err != nil {
		return filter, err
	}
	filter.Seccion = core.CleanString(ctx.QueryParam("seccion"))

	if raw := strings.TrimSpace(ctx.QueryParam("minDebtAmount")); raw != "" {
		amount, err := decimal.NewFromString(raw)
		if err != nil {
			return filter, core.NewArgumentError("invalid minDebtAmount: %q", raw)
		}
		filter.MinDebtAmount = amount
	}
	return filter, nil
}

func (api *reporteApi) tuitionDebtors(ctx echo.Context) error {
	filter, err := bindDebtorsFilter(ctx)
	if err != nil {
		return err
	}
	report, err := api.svc.TuitionDebtors(ctx.Request().Context(), filter)
	if err != nil {
		return errors.Wrap(err, "building tuition debtors report")
	}
	return ctx.JSON(http.StatusOK, report)
}

func (api *reporteApi) transportDebtors(ctx echo.Context) error {
	filter, err := bindDebtorsFilter(ctx)
	if err != nil {
		return err
	}
	report, err := api.svc.TransportDebtors(ctx.Request().Context(), filter)
	if err != nil {
		return errors.Wrap(err, "building transport debtors report")
	}
	return ctx.JSON(http.StatusOK, report)
}

func (api *reporteApi) monthlyPayments(ctx echo.Context) error {
	var filter reporte.MonthlyFilter
	ints := map[string]*int{
		"cicloEscolar": &filter.CicloEscolar,
		"month":        &filter.Month,
		"year":         &filter.Year,
		"gradoId":      &filter.GradoID,
		"rubroId":      &filter.RubroID,
	}
	for name, dst := range ints {
		n, err := queryInt(ctx, name)
		if err != nil {
			return err
		}
		*dst = n
	}
	filter.Seccion = ctx.QueryParam("seccion")

	report, err := api.svc.MonthlyPayments(ctx.Request().Context(), filter)
	if err != nil {
		return errors.Wrap(err, "building monthly payments report")
	}
	return ctx.JSON(http.StatusOK, report)
}
