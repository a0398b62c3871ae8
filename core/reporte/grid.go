package reporte

import (
	"context"
	"sort"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/manitascreativas/escuela/core"
	"github.com/manitascreativas/escuela/core/rubro"
)

// payment states of the printed grids
const (
	EstadoPagado  = "Pagado"
	EstadoParcial = "Parcial"
)

// gridMonth is the column of the payment: its tuition month, else 0 for one-time fees.
func gridMonth(p Payment) int {
	if p.EsColegiatura || p.EsPagoDeTransporte {
		if p.MesColegiatura.Valid {
			return p.MesColegiatura.Int
		}
		return int(p.Fecha.Month())
	}
	return 0
}

// merge adds the payment to the cell; several payments of the same cell are summed.
func merge(cell GridItem, exists bool, p Payment, r rubro.Rubro) GridItem {
	if !exists {
		cell = GridItem{Monto: decimal.Zero}
	}
	cell.ID = p.ID
	cell.Monto = core.RoundMoney(cell.Monto.Add(p.Monto))
	cell.MesColegiatura = p.MesColegiatura
	if notas := core.CleanString(p.Notas.String); notas != "" {
		cell.Notas = core.JoinNonEmpty(cell.Notas, notas)
	}
	cell.EsPagoDeCarnet = p.EsPagoDeCarnet
	if p.EstadoCarnet.Valid {
		cell.EstadoCarnet = p.EstadoCarnet.String
	}
	cell.EsPagoDeTransporte = p.EsPagoDeTransporte

	cell.Estado = EstadoPagado
	if r.MontoPreestablecido.Valid && cell.Monto.LessThan(core.RoundMoney(r.MontoPreestablecido.Decimal)) {
		cell.Estado = EstadoParcial
	}
	return cell
}

func firstNit(contacts []Contact) string {
	for _, c := range contacts {
		if nit := strings.TrimSpace(c.Nit.String); nit != "" {
			return nit
		}
	}
	return ""
}

// PaymentGrid builds the payments grid of a grade for a school year.
func (svc *Service) PaymentGrid(ctx context.Context, cicloEscolar, gradoID int) (GridReport, error) {
	if cicloEscolar <= 0 {
		return GridReport{}, core.NewArgumentError("cicloEscolar is required")
	}
	grado, err := svc.escuelaRepo.GetGrado(ctx, gradoID)
	if err != nil {
		return GridReport{}, core.NotFoundWithID(err, "Grado", gradoID)
	}

	students, err := svc.repo.QueryStudents(ctx, StudentFilter{GradoID: gradoID, OnlyActive: true})
	if err != nil {
		return GridReport{}, err
	}
	contacts, err := svc.contactsByStudent(ctx, students)
	if err != nil {
		return GridReport{}, err
	}
	payments, err := svc.repo.QueryPayments(ctx, PaymentFilter{CicloEscolar: cicloEscolar, GradoID: gradoID})
	if err != nil {
		return GridReport{}, err
	}
	allRubros, err := svc.rubroRepo.QueryAll(ctx, false)
	if err != nil {
		return GridReport{}, err
	}
	rubros := make(map[int]rubro.Rubro, len(allRubros))
	for _, r := range allRubros {
		rubros[r.ID] = r
	}

	// the grade's active rubros are shown, plus every rubro it has payments for
	shown := make(map[int]bool)
	for _, r := range allRubros {
		if !r.Activo {
			continue
		}
		if r.GradoID.Valid && r.GradoID.Int != gradoID {
			continue
		}
		if r.NivelEducativoID.Valid && r.NivelEducativoID.Int != grado.NivelEducativoID {
			continue
		}
		shown[r.ID] = true
	}

	byStudent := make(map[int][]Payment)
	for _, p := range payments {
		byStudent[p.AlumnoID] = append(byStudent[p.AlumnoID], p)
	}

	report := GridReport{Alumnos: make([]GridAlumno, 0, len(students))}
	for i, s := range students {
		row := GridAlumno{
			NumeroOrdinal:  i + 1,
			AlumnoID:       s.AlumnoID,
			NombreCompleto: s.ListName(),
			Notas:          s.Observaciones.String,
			Nit:            firstNit(contacts[s.AlumnoID]),
			PagosPorRubro:  make(map[int]map[int]GridItem),
		}
		for _, p := range byStudent[s.AlumnoID] {
			shown[p.RubroID] = true
			cells, ok := row.PagosPorRubro[p.RubroID]
			if !ok {
				cells = make(map[int]GridItem)
				row.PagosPorRubro[p.RubroID] = cells
			}
			mes := gridMonth(p)
			cell, exists := cells[mes]
			cells[mes] = merge(cell, exists, p, rubros[p.RubroID])
		}
		report.Alumnos = append(report.Alumnos, row)
	}

	report.Rubros = make([]GridRubro, 0, len(shown))
	for id := range shown {
		r, ok := rubros[id]
		if !ok {
			continue
		}
		report.Rubros = append(report.Rubros, GridRubro{
			ID:                     r.ID,
			Descripcion:            r.Descripcion,
			OrdenVisualizacionGrid: r.OrdenVisualizacionGrid.Int,
			EsColegiatura:          r.EsColegiatura,
		})
	}
	sort.Slice(report.Rubros, func(i, j int) bool {
		a, b := report.Rubros[i], report.Rubros[j]
		if a.OrdenVisualizacionGrid != b.OrdenVisualizacionGrid {
			// rubros without an order go last
			if a.OrdenVisualizacionGrid == 0 || b.OrdenVisualizacionGrid == 0 {
				return b.OrdenVisualizacionGrid == 0
			}
			return a.OrdenVisualizacionGrid < b.OrdenVisualizacionGrid
		}
		return a.Descripcion < b.Descripcion
	})
	return report, nil
}

// TransportPayments builds the monthly payments grid of a transport route.
func (svc *Service) TransportPayments(ctx context.Context, cicloEscolar, rubroID int) (TransportReport, error) {
	if cicloEscolar <= 0 {
		return TransportReport{}, core.NewArgumentError("cicloEscolar is required")
	}
	r, err := svc.rubroRepo.GetByID(ctx, rubroID)
	if err != nil {
		return TransportReport{}, core.NotFoundWithID(err, "Rubro", rubroID)
	}
	if !r.EsPagoDeTransporte {
		return TransportReport{}, core.NewArgumentError("Rubro with ID %d is not a transport rubro", rubroID)
	}

	report := TransportReport{Alumnos: []TransportAlumno{}, RubroDescripcion: r.Descripcion, CicloEscolar: cicloEscolar}
	assignments, err := svc.repo.QueryAssignments(ctx, rubroID)
	if err != nil {
		return TransportReport{}, err
	}
	if len(assignments) == 0 {
		return report, nil
	}
	ids := make([]int, 0, len(assignments))
	for _, a := range assignments {
		ids = append(ids, a.AlumnoID)
	}
	students, err := svc.repo.QueryStudents(ctx, StudentFilter{IDs: ids})
	if err != nil {
		return TransportReport{}, err
	}
	contacts, err := svc.contactsByStudent(ctx, students)
	if err != nil {
		return TransportReport{}, err
	}
	payments, err := svc.repo.QueryPayments(ctx, PaymentFilter{CicloEscolar: cicloEscolar, RubroID: rubroID})
	if err != nil {
		return TransportReport{}, err
	}
	byStudent := make(map[int][]Payment)
	for _, p := range payments {
		byStudent[p.AlumnoID] = append(byStudent[p.AlumnoID], p)
	}

	for i, s := range students {
		row := TransportAlumno{
			NumeroOrdinal: i + 1,
			AlumnoID:      s.AlumnoID,
			Alumno:        s.ListName(),
			Direccion:     s.Direccion.String,
			Grado:         s.Grado,
			PagosPorMes:   make(map[int]GridItem),
		}
		if cs := contacts[s.AlumnoID]; len(cs) > 0 {
			row.Encargado = cs[0].Nombre
			row.Telefono = cs[0].Celular.String
			if row.Telefono == "" {
				row.Telefono = cs[0].TelefonoTrabajo.String
			}
		}
		for _, p := range byStudent[s.AlumnoID] {
			mes := gridMonth(p)
			cell, exists := row.PagosPorMes[mes]
			row.PagosPorMes[mes] = merge(cell, exists, p, r)
		}
		report.Alumnos = append(report.Alumnos, row)
	}
	return report, nil
}
