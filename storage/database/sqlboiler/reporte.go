package boiledrepos

import (
	"context"
	"time"

	"github.com/friendsofgo/errors"
	"github.com/shopspring/decimal"
	"github.com/volatiletech/null/v8"
	"github.com/volatiletech/sqlboiler/v4/queries/qm"

	"github.com/manitascreativas/escuela/core"
	"github.com/manitascreativas/escuela/core/alumno"
	"github.com/manitascreativas/escuela/core/reporte"
)

type studentRow struct {
	AlumnoID              int                 `boil:"alumno_id"`
	Codigo                string              `boil:"codigo"`
	PrimerNombre          string              `boil:"primer_nombre"`
	SegundoNombre         null.String         `boil:"segundo_nombre"`
	TercerNombre          null.String         `boil:"tercer_nombre"`
	PrimerApellido        string              `boil:"primer_apellido"`
	SegundoApellido       null.String         `boil:"segundo_apellido"`
	Seccion               null.String         `boil:"seccion"`
	Direccion             null.String         `boil:"direccion"`
	Observaciones         null.String         `boil:"observaciones"`
	Estado                int                 `boil:"estado"`
	Becado                bool                `boil:"becado"`
	BecaParcialPorcentaje decimal.NullDecimal `boil:"beca_parcial_porcentaje"`
	SedeID                int                 `boil:"sede_id"`
	SedeNombre            string              `boil:"sede_nombre"`
	GradoID               int                 `boil:"grado_id"`
	GradoNombre           string              `boil:"grado_nombre"`
	NivelEducativoID      int                 `boil:"nivel_educativo_id"`
	NivelEducativoNombre  string              `boil:"nivel_educativo_nombre"`
}

func (row studentRow) unboil() reporte.Student {
	return reporte.Student{
		AlumnoID:              row.AlumnoID,
		Codigo:                row.Codigo,
		PrimerNombre:          row.PrimerNombre,
		SegundoNombre:         row.SegundoNombre,
		TercerNombre:          row.TercerNombre,
		PrimerApellido:        row.PrimerApellido,
		SegundoApellido:       row.SegundoApellido,
		Seccion:               row.Seccion,
		Direccion:             row.Direccion,
		Observaciones:         row.Observaciones,
		Estado:                row.Estado,
		Becado:                row.Becado,
		BecaParcialPorcentaje: row.BecaParcialPorcentaje,
		SedeID:                row.SedeID,
		Sede:                  row.SedeNombre,
		GradoID:               row.GradoID,
		Grado:                 row.GradoNombre,
		NivelEducativoID:      row.NivelEducativoID,
		NivelEducativo:        row.NivelEducativoNombre,
	}
}

type paymentRow struct {
	ID                 int             `boil:"id"`
	AlumnoID           int             `boil:"alumno_id"`
	RubroID            int             `boil:"rubro_id"`
	CicloEscolar       int             `boil:"ciclo_escolar"`
	Fecha              time.Time       `boil:"fecha"`
	Monto              decimal.Decimal `boil:"monto"`
	Notas              null.String     `boil:"notas"`
	EsColegiatura      bool            `boil:"es_colegiatura"`
	MesColegiatura     null.Int        `boil:"mes_colegiatura"`
	AnioColegiatura    null.Int        `boil:"anio_colegiatura"`
	EsPagoDeCarnet     bool            `boil:"es_pago_de_carnet"`
	EstadoCarnet       null.String     `boil:"estado_carnet"`
	EsPagoDeTransporte bool            `boil:"es_pago_de_transporte"`
}

func (row paymentRow) unboil() reporte.Payment {
	return reporte.Payment{
		ID:                 row.ID,
		AlumnoID:           row.AlumnoID,
		RubroID:            row.RubroID,
		CicloEscolar:       row.CicloEscolar,
		Fecha:              row.Fecha,
		Monto:              row.Monto,
		Notas:              row.Notas,
		EsColegiatura:      row.EsColegiatura,
		MesColegiatura:     row.MesColegiatura,
		AnioColegiatura:    row.AnioColegiatura,
		EsPagoDeCarnet:     row.EsPagoDeCarnet,
		EstadoCarnet:       row.EstadoCarnet,
		EsPagoDeTransporte: row.EsPagoDeTransporte,
	}
}

type assignmentRow struct {
	AlumnoID          int       `boil:"alumno_id"`
	RubroTransporteID int       `boil:"rubro_transporte_id"`
	FechaInicio       time.Time `boil:"fecha_inicio"`
	FechaFin          null.Time `boil:"fecha_fin"`
}

type contactRow struct {
	AlumnoID        int         `boil:"alumno_id"`
	ContactoID      int         `boil:"contacto_id"`
	Nombre          string      `boil:"nombre"`
	Celular         null.String `boil:"celular"`
	TelefonoTrabajo null.String `boil:"telefono_trabajo"`
	Nit             null.String `boil:"nit"`
}

type monthlyRow struct {
	ID                     int             `boil:"id"`
	Monto                  decimal.Decimal `boil:"monto"`
	Fecha                  time.Time       `boil:"fecha"`
	CicloEscolar           int             `boil:"ciclo_escolar"`
	MedioPago              int             `boil:"medio_pago"`
	RubroDescripcion       string          `boil:"rubro_descripcion"`
	RubroTipo              int             `boil:"rubro_tipo"`
	EsColegiatura          bool            `boil:"es_colegiatura"`
	MesColegiatura         null.Int        `boil:"mes_colegiatura"`
	AnioColegiatura        null.Int        `boil:"anio_colegiatura"`
	Notas                  null.String     `boil:"notas"`
	AlumnoID               int             `boil:"alumno_id"`
	AlumnoNombre           string          `boil:"alumno_nombre"`
	GradoNombre            string          `boil:"grado_nombre"`
	Seccion                null.String     `boil:"seccion"`
	NivelEducativo         string          `boil:"nivel_educativo"`
	EsAnulado              bool            `boil:"es_anulado"`
	MotivoAnulacion        null.String     `boil:"motivo_anulacion"`
	FechaAnulacion         null.Time       `boil:"fecha_anulacion"`
	UsuarioAnulacionNombre null.String     `boil:"usuario_anulacion_nombre"`
}

func (row monthlyRow) unboil() reporte.MonthlyPaymentItem {
	return reporte.MonthlyPaymentItem{
		ID:                     row.ID,
		Monto:                  row.Monto,
		Fecha:                  row.Fecha,
		CicloEscolar:           row.CicloEscolar,
		MedioPagoID:            row.MedioPago,
		RubroDescripcion:       row.RubroDescripcion,
		TipoRubroID:            row.RubroTipo,
		EsColegiatura:          row.EsColegiatura,
		MesColegiatura:         row.MesColegiatura,
		AnioColegiatura:        row.AnioColegiatura,
		Notas:                  row.Notas.String,
		AlumnoID:               row.AlumnoID,
		AlumnoNombre:           row.AlumnoNombre,
		GradoNombre:            row.GradoNombre,
		Seccion:                row.Seccion.String,
		NivelEducativo:         row.NivelEducativo,
		EsAnulado:              row.EsAnulado,
		MotivoAnulacion:        row.MotivoAnulacion,
		FechaAnulacion:         row.FechaAnulacion,
		UsuarioAnulacionNombre: row.UsuarioAnulacionNombre.String,
	}
}

type reporteRepository struct {
	repository
}

var _ reporte.Repository = (*reporteRepository)(nil) // interface compliance check

func NewReporteRepository(exec core.DBExecutor) reporte.Repository {
	return &reporteRepository{repository{exec: exec}}
}

func (repo reporteRepository) QueryStudents(ctx context.Context, filter reporte.StudentFilter) ([]reporte.Student, error) {
	if filter.IDs != nil && len(filter.IDs) == 0 {
		return []reporte.Student{}, nil
	}

	mods := []qm.QueryMod{
		qm.Select(
			"a.id AS alumno_id", "a.codigo", "a.primer_nombre", "a.segundo_nombre", "a.tercer_nombre",
			"a.primer_apellido", "a.segundo_apellido", "a.seccion", "a.direccion", "a.observaciones", "a.estado",
			"a.becado", "a.beca_parcial_porcentaje", "a.sede_id", "s.nombre AS sede_nombre", "a.grado_id",
			"g.nombre AS grado_nombre", "g.nivel_educativo_id", "n.nombre AS nivel_educativo_nombre",
		),
		qm.From("alumnos a"),
		qm.InnerJoin("sedes s ON s.id = a.sede_id"),
		qm.InnerJoin("grados g ON g.id = a.grado_id"),
		qm.InnerJoin("niveles_educativos n ON n.id = g.nivel_educativo_id"),
	}
	if filter.SedeID > 0 {
		mods = append(mods, qm.Where("a.sede_id = ?", filter.SedeID))
	}
	if filter.NivelEducativoID > 0 {
		mods = append(mods, qm.Where("g.nivel_educativo_id = ?", filter.NivelEducativoID))
	}
	if filter.GradoID > 0 {
		mods = append(mods, qm.Where("a.grado_id = ?", filter.GradoID))
	}
	if filter.Seccion != "" {
		mods = append(mods, qm.Where("UPPER(a.seccion) = UPPER(?)", filter.Seccion))
	}
	if filter.OnlyActive {
		mods = append(mods, qm.Where("a.estado = ?", alumno.EstadoActivo))
	}
	if len(filter.IDs) > 0 {
		mods = append(mods, qm.WhereIn("a.id IN ?", intArgs(filter.IDs)...))
	}
	mods = append(mods, qm.OrderBy("a.primer_apellido, a.segundo_apellido, a.primer_nombre, a.segundo_nombre"))

	var rows []studentRow
	if err := NewQuery(mods...).Bind(ctx, repo.exec, &rows); err != nil {
		return nil, errors.Wrap(err, "querying report students")
	}
	students := make([]reporte.Student, 0, len(rows))
	for _, row := range rows {
		students = append(students, row.unboil())
	}
	return students, nil
}

func (repo reporteRepository) QueryPayments(ctx context.Context, filter reporte.PaymentFilter) ([]reporte.Payment, error) {
	mods := []qm.QueryMod{
		qm.Select(
			"p.id", "p.alumno_id", "p.rubro_id", "p.ciclo_escolar", "p.fecha", "p.monto", "p.notas",
			"p.es_colegiatura", "p.mes_colegiatura", "p.anio_colegiatura", "p.es_pago_de_carnet", "p.estado_carnet",
			"p.es_pago_de_transporte",
		),
		qm.From("pagos p"),
		qm.Where("NOT p.es_anulado"),
	}
	if filter.CicloEscolar > 0 {
		mods = append(mods, qm.Where("p.ciclo_escolar = ?", filter.CicloEscolar))
	}
	if filter.AnioColegiatura > 0 {
		mods = append(mods, qm.Where("p.anio_colegiatura = ?", filter.AnioColegiatura))
	}
	if filter.RubroID > 0 {
		mods = append(mods, qm.Where("p.rubro_id = ?", filter.RubroID))
	}
	if filter.GradoID > 0 {
		mods = append(mods,
			qm.InnerJoin("alumnos a ON a.id = p.alumno_id"),
			qm.Where("a.grado_id = ?", filter.GradoID))
	}
	if filter.OnlyColegiatura {
		mods = append(mods, qm.Where("p.es_colegiatura"))
	}
	if filter.OnlyTransporte {
		mods = append(mods, qm.Where("p.es_pago_de_transporte"))
	}
	mods = append(mods, qm.OrderBy("p.fecha, p.id"))

	var rows []paymentRow
	if err := NewQuery(mods...).Bind(ctx, repo.exec, &rows); err != nil {
		return nil, errors.Wrap(err, "querying report payments")
	}
	payments := make([]reporte.Payment, 0, len(rows))
	for _, row := range rows {
		payments = append(payments, row.unboil())
	}
	return payments, nil
}

func (repo reporteRepository) QueryAssignments(ctx context.Context, rubroID int) ([]reporte.Assignment, error) {
	mods := []qm.QueryMod{
		qm.Select("alumno_id", "rubro_transporte_id", "fecha_inicio", "fecha_fin"),
		qm.From("alumno_rutas"),
	}
	if rubroID > 0 {
		mods = append(mods, qm.Where("rubro_transporte_id = ?", rubroID))
	}
	mods = append(mods, qm.OrderBy("alumno_id, fecha_inicio"))

	var rows []assignmentRow
	if err := NewQuery(mods...).Bind(ctx, repo.exec, &rows); err != nil {
		return nil, errors.Wrap(err, "querying route assignments")
	}
	assignments := make([]reporte.Assignment, 0, len(rows))
	for _, row := range rows {
		assignments = append(assignments, reporte.Assignment{
			AlumnoID:          row.AlumnoID,
			RubroTransporteID: row.RubroTransporteID,
			FechaInicio:       row.FechaInicio,
			FechaFin:          row.FechaFin,
		})
	}
	return assignments, nil
}

func (repo reporteRepository) QueryMonthlyPayments(ctx context.Context, filter reporte.MonthlyFilter, from, to time.Time) ([]reporte.MonthlyPaymentItem, error) {
	mods := []qm.QueryMod{
		qm.Select(
			"p.id", "p.monto", "p.fecha", "p.ciclo_escolar", "p.medio_pago", "r.descripcion AS rubro_descripcion",
			"r.tipo AS rubro_tipo", "p.es_colegiatura", "p.mes_colegiatura", "p.anio_colegiatura", "p.notas",
			"p.alumno_id",
			"concat_ws(' ', a.primer_nombre, a.segundo_nombre, a.tercer_nombre, a.primer_apellido, a.segundo_apellido) AS alumno_nombre",
			"g.nombre AS grado_nombre", "a.seccion", "n.nombre AS nivel_educativo", "p.es_anulado",
			"p.motivo_anulacion", "p.fecha_anulacion",
			"concat_ws(' ', ua.nombres, ua.apellidos) AS usuario_anulacion_nombre",
		),
		qm.From("pagos p"),
		qm.InnerJoin("alumnos a ON a.id = p.alumno_id"),
		qm.InnerJoin("grados g ON g.id = a.grado_id"),
		qm.InnerJoin("niveles_educativos n ON n.id = g.nivel_educativo_id"),
		qm.InnerJoin("rubros r ON r.id = p.rubro_id"),
		qm.LeftOuterJoin("usuarios ua ON ua.id = p.usuario_anulacion_id"),
		qm.Where("p.fecha >= ?", from.UTC()),
		qm.Where("p.fecha < ?", to.UTC()),
	}
	if filter.CicloEscolar > 0 {
		mods = append(mods, qm.Where("p.ciclo_escolar = ?", filter.CicloEscolar))
	}
	if filter.GradoID > 0 {
		mods = append(mods, qm.Where("a.grado_id = ?", filter.GradoID))
	}
	if filter.Seccion != "" {
		mods = append(mods, qm.Where("UPPER(a.seccion) = UPPER(?)", filter.Seccion))
	}
	if filter.RubroID > 0 {
		mods = append(mods, qm.Where("p.rubro_id = ?", filter.RubroID))
	}
	mods = append(mods, qm.OrderBy("p.fecha, p.id"))

	var rows []monthlyRow
	if err := NewQuery(mods...).Bind(ctx, repo.exec, &rows); err != nil {
		return nil, errors.Wrap(err, "querying monthly payments")
	}
	items := make([]reporte.MonthlyPaymentItem, 0, len(rows))
	for _, row := range rows {
		items = append(items, row.unboil())
	}
	return items, nil
}

func (repo reporteRepository) QueryContacts(ctx context.Context, alumnoIDs []int) ([]reporte.Contact, error) {
	if len(alumnoIDs) == 0 {
		return []reporte.Contact{}, nil
	}
	q := NewQuery(
		qm.Select("ac.alumno_id", "ac.contacto_id", "c.nombre", "c.celular", "c.telefono_trabajo", "c.nit"),
		qm.From("alumno_contactos ac"),
		qm.InnerJoin("contactos c ON c.id = ac.contacto_id"),
		qm.WhereIn("ac.alumno_id IN ?", intArgs(alumnoIDs)...),
		qm.OrderBy("ac.alumno_id, ac.contacto_id"),
	)
	var rows []contactRow
	if err := q.Bind(ctx, repo.exec, &rows); err != nil {
		return nil, errors.Wrap(err, "querying report contacts")
	}
	contacts := make([]reporte.Contact, 0, len(rows))
	for _, row := range rows {
		contacts = append(contacts, reporte.Contact{
			AlumnoID:        row.AlumnoID,
			ContactoID:      row.ContactoID,
			Nombre:          row.Nombre,
			Celular:         row.Celular,
			TelefonoTrabajo: row.TelefonoTrabajo,
			Nit:             row.Nit,
		})
	}
	return contacts, nil
}
