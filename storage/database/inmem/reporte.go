package inmemdb

import (
	"context"
	"sort"
	"strings"
	"time"

	"github.com/manitascreativas/escuela/core"
	"github.com/manitascreativas/escuela/core/alumno"
	"github.com/manitascreativas/escuela/core/pago"
	"github.com/manitascreativas/escuela/core/reporte"
)

type reporteRepository struct {
	db *DB
}

var _ reporte.Repository = (*reporteRepository)(nil) // interface compliance check

func NewReporteRepository(db *DB) reporte.Repository {
	return &reporteRepository{db: db}
}

// student joins the sede, grado and level of the student; the caller holds the lock.
func (repo *reporteRepository) student(a alumno.Alumno) reporte.Student {
	s := reporte.Student{
		AlumnoID:              a.ID,
		Codigo:                a.Codigo,
		PrimerNombre:          a.PrimerNombre,
		SegundoNombre:         a.SegundoNombre,
		TercerNombre:          a.TercerNombre,
		PrimerApellido:        a.PrimerApellido,
		SegundoApellido:       a.SegundoApellido,
		Seccion:               a.Seccion,
		Direccion:             a.Direccion,
		Observaciones:         a.Observaciones,
		Estado:                a.Estado,
		Becado:                a.Becado,
		BecaParcialPorcentaje: a.BecaParcialPorcentaje,
		SedeID:                a.SedeID,
		GradoID:               a.GradoID,
	}
	if sede, ok := repo.db.sedes.get(a.SedeID); ok {
		s.Sede = sede.Nombre
	}
	if g, ok := repo.db.grados.get(a.GradoID); ok {
		s.Grado = g.Nombre
		s.NivelEducativoID = g.NivelEducativoID
		if n, ok := repo.db.niveles.get(g.NivelEducativoID); ok {
			s.NivelEducativo = n.Nombre
		}
	}
	return s
}

func (repo *reporteRepository) QueryStudents(_ context.Context, filter reporte.StudentFilter) ([]reporte.Student, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	var ids map[int]bool
	if filter.IDs != nil {
		ids = intSet(filter.IDs)
	}
	students := make([]reporte.Student, 0)
	for _, a := range repo.db.alumnos.all() {
		s := repo.student(a)
		if (ids != nil && !ids[a.ID]) ||
			(filter.SedeID > 0 && s.SedeID != filter.SedeID) ||
			(filter.NivelEducativoID > 0 && s.NivelEducativoID != filter.NivelEducativoID) ||
			(filter.GradoID > 0 && s.GradoID != filter.GradoID) ||
			(filter.Seccion != "" && !strings.EqualFold(s.Seccion.String, filter.Seccion)) ||
			(filter.OnlyActive && s.Estado != alumno.EstadoActivo) {
			continue
		}
		students = append(students, s)
	}
	sort.SliceStable(students, func(i, j int) bool {
		a, b := students[i], students[j]
		if a.PrimerApellido != b.PrimerApellido {
			return a.PrimerApellido < b.PrimerApellido
		}
		if a.SegundoApellido.String != b.SegundoApellido.String {
			return a.SegundoApellido.String < b.SegundoApellido.String
		}
		return a.PrimerNombre < b.PrimerNombre
	})
	return students, nil
}

func sortByFecha(pagos []pago.Pago) {
	sort.SliceStable(pagos, func(i, j int) bool {
		if !pagos[i].Fecha.Equal(pagos[j].Fecha) {
			return pagos[i].Fecha.Before(pagos[j].Fecha)
		}
		return pagos[i].ID < pagos[j].ID
	})
}

func (repo *reporteRepository) QueryPayments(_ context.Context, filter reporte.PaymentFilter) ([]reporte.Payment, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	pagos := repo.db.pagos.filter(func(p pago.Pago) bool {
		if p.EsAnulado ||
			(filter.CicloEscolar > 0 && p.CicloEscolar != filter.CicloEscolar) ||
			(filter.AnioColegiatura > 0 && (!p.AnioColegiatura.Valid || p.AnioColegiatura.Int != filter.AnioColegiatura)) ||
			(filter.RubroID > 0 && p.RubroID != filter.RubroID) ||
			(filter.OnlyColegiatura && !p.EsColegiatura) ||
			(filter.OnlyTransporte && !p.EsPagoDeTransporte) {
			return false
		}
		if filter.GradoID > 0 {
			a, ok := repo.db.alumnos.get(p.AlumnoID)
			return ok && a.GradoID == filter.GradoID
		}
		return true
	})
	sortByFecha(pagos)

	payments := make([]reporte.Payment, 0, len(pagos))
	for _, p := range pagos {
		payments = append(payments, reporte.Payment{
			ID:                 p.ID,
			AlumnoID:           p.AlumnoID,
			RubroID:            p.RubroID,
			CicloEscolar:       p.CicloEscolar,
			Fecha:              p.Fecha,
			Monto:              p.Monto,
			Notas:              p.Notas,
			EsColegiatura:      p.EsColegiatura,
			MesColegiatura:     p.MesColegiatura,
			AnioColegiatura:    p.AnioColegiatura,
			EsPagoDeCarnet:     p.EsPagoDeCarnet,
			EstadoCarnet:       p.EstadoCarnet,
			EsPagoDeTransporte: p.EsPagoDeTransporte,
		})
	}
	return payments, nil
}

func (repo *reporteRepository) QueryAssignments(_ context.Context, rubroID int) ([]reporte.Assignment, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	assignments := make([]reporte.Assignment, 0)
	for _, ar := range repo.db.rutas.all() {
		if rubroID > 0 && ar.RubroTransporteID != rubroID {
			continue
		}
		assignments = append(assignments, reporte.Assignment{
			AlumnoID:          ar.AlumnoID,
			RubroTransporteID: ar.RubroTransporteID,
			FechaInicio:       ar.FechaInicio,
			FechaFin:          ar.FechaFin,
		})
	}
	sort.SliceStable(assignments, func(i, j int) bool {
		if assignments[i].AlumnoID != assignments[j].AlumnoID {
			return assignments[i].AlumnoID < assignments[j].AlumnoID
		}
		return assignments[i].FechaInicio.Before(assignments[j].FechaInicio)
	})
	return assignments, nil
}

func (repo *reporteRepository) QueryMonthlyPayments(_ context.Context, filter reporte.MonthlyFilter, from, to time.Time) ([]reporte.MonthlyPaymentItem, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	pagos := repo.db.pagos.filter(func(p pago.Pago) bool {
		return !p.Fecha.Before(from) && p.Fecha.Before(to) &&
			(filter.CicloEscolar == 0 || p.CicloEscolar == filter.CicloEscolar) &&
			(filter.RubroID == 0 || p.RubroID == filter.RubroID)
	})
	sortByFecha(pagos)

	items := make([]reporte.MonthlyPaymentItem, 0, len(pagos))
	for _, p := range pagos {
		a, ok := repo.db.alumnos.get(p.AlumnoID)
		if !ok ||
			(filter.GradoID > 0 && a.GradoID != filter.GradoID) ||
			(filter.Seccion != "" && !strings.EqualFold(a.Seccion.String, filter.Seccion)) {
			continue
		}
		s := repo.student(a)
		item := reporte.MonthlyPaymentItem{
			ID:              p.ID,
			Monto:           p.Monto,
			Fecha:           p.Fecha,
			CicloEscolar:    p.CicloEscolar,
			MedioPagoID:     p.MedioPago,
			EsColegiatura:   p.EsColegiatura,
			MesColegiatura:  p.MesColegiatura,
			AnioColegiatura: p.AnioColegiatura,
			Notas:           p.Notas.String,
			AlumnoID:        a.ID,
			AlumnoNombre:    a.FullName(),
			GradoNombre:     s.Grado,
			Seccion:         a.Seccion.String,
			NivelEducativo:  s.NivelEducativo,
			EsAnulado:       p.EsAnulado,
			MotivoAnulacion: p.MotivoAnulacion,
			FechaAnulacion:  p.FechaAnulacion,
		}
		if r, ok := repo.db.rubros.get(p.RubroID); ok {
			item.RubroDescripcion = r.Descripcion
			item.TipoRubroID = r.Tipo
		}
		if p.UsuarioAnulacionID.Valid {
			if u, ok := repo.db.usuarios.get(p.UsuarioAnulacionID.Int); ok {
				item.UsuarioAnulacionNombre = core.JoinNonEmpty(u.Nombres, u.Apellidos)
			}
		}
		items = append(items, item)
	}
	return items, nil
}

func (repo *reporteRepository) QueryContacts(_ context.Context, alumnoIDs []int) ([]reporte.Contact, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	ids := intSet(alumnoIDs)
	contacts := make([]reporte.Contact, 0)
	for _, link := range repo.db.links.all() {
		if !ids[link.AlumnoID] {
			continue
		}
		c, ok := repo.db.contactos.get(link.ContactoID)
		if !ok {
			continue
		}
		contacts = append(contacts, reporte.Contact{
			AlumnoID:        link.AlumnoID,
			ContactoID:      c.ID,
			Nombre:          c.Nombre,
			Celular:         c.Celular,
			TelefonoTrabajo: c.TelefonoTrabajo,
			Nit:             c.Nit,
		})
	}
	sort.SliceStable(contacts, func(i, j int) bool {
		if contacts[i].AlumnoID != contacts[j].AlumnoID {
			return contacts[i].AlumnoID < contacts[j].AlumnoID
		}
		return contacts[i].ContactoID < contacts[j].ContactoID
	})
	return contacts, nil
}
