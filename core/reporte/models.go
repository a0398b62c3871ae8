package reporte

import (
	"time"

	"github.com/shopspring/decimal"
	"github.com/volatiletech/null/v8"

	"github.com/manitascreativas/escuela/core"
)

// Read models

// Student is a student row with the names of its sede, grade and level.
type Student struct {
	AlumnoID              int                 `db:"alumno_id"`
	Codigo                string              `db:"codigo"`
	PrimerNombre          string              `db:"primer_nombre"`
	SegundoNombre         null.String         `db:"segundo_nombre"`
	TercerNombre          null.String         `db:"tercer_nombre"`
	PrimerApellido        string              `db:"primer_apellido"`
	SegundoApellido       null.String         `db:"segundo_apellido"`
	Seccion               null.String         `db:"seccion"`
	Direccion             null.String         `db:"direccion"`
	Observaciones         null.String         `db:"observaciones"`
	Estado                int                 `db:"estado"`
	Becado                bool                `db:"becado"`
	BecaParcialPorcentaje decimal.NullDecimal `db:"beca_parcial_porcentaje"`
	SedeID                int                 `db:"sede_id"`
	Sede                  string              `db:"sede_nombre"`
	GradoID               int                 `db:"grado_id"`
	Grado                 string              `db:"grado_nombre"`
	NivelEducativoID      int                 `db:"nivel_educativo_id"`
	NivelEducativo        string              `db:"nivel_educativo_nombre"`
}

func (s Student) FullName() string {
	return core.JoinNonEmpty(s.PrimerNombre, s.SegundoNombre.String, s.TercerNombre.String, s.PrimerApellido, s.SegundoApellido.String)
}

// ListName puts the surnames first, as the class lists do.
func (s Student) ListName() string {
	apellidos := core.JoinNonEmpty(s.PrimerApellido, s.SegundoApellido.String)
	nombres := core.JoinNonEmpty(s.PrimerNombre, s.SegundoNombre.String, s.TercerNombre.String)
	if apellidos == "" {
		return nombres
	}
	return apellidos + ", " + nombres
}

// becaPorcentaje mirrors alumno.Alumno.BecaPorcentaje.
func (s Student) becaPorcentaje() decimal.Decimal {
	hundred := decimal.NewFromInt(100)
	switch {
	case !s.Becado:
		return decimal.Zero
	case !s.BecaParcialPorcentaje.Valid, s.BecaParcialPorcentaje.Decimal.GreaterThanOrEqual(hundred):
		return hundred
	default:
		return s.BecaParcialPorcentaje.Decimal
	}
}

type StudentFilter struct {
	SedeID           int
	NivelEducativoID int
	GradoID          int
	Seccion          string
	OnlyActive       bool
	IDs              []int
}

// Payment is a non-voided payment row.
type Payment struct {
	ID                 int             `db:"id"`
	AlumnoID           int             `db:"alumno_id"`
	RubroID            int             `db:"rubro_id"`
	CicloEscolar       int             `db:"ciclo_escolar"`
	Fecha              time.Time       `db:"fecha"`
	Monto              decimal.Decimal `db:"monto"`
	Notas              null.String     `db:"notas"`
	EsColegiatura      bool            `db:"es_colegiatura"`
	MesColegiatura     null.Int        `db:"mes_colegiatura"`
	AnioColegiatura    null.Int        `db:"anio_colegiatura"`
	EsPagoDeCarnet     bool            `db:"es_pago_de_carnet"`
	EstadoCarnet       null.String     `db:"estado_carnet"`
	EsPagoDeTransporte bool            `db:"es_pago_de_transporte"`
}

type PaymentFilter struct {
	CicloEscolar    int
	AnioColegiatura int
	RubroID         int
	GradoID         int
	OnlyColegiatura bool
	OnlyTransporte  bool
}

// Contact is a contact of a student, as needed by the printed reports.
type Contact struct {
	AlumnoID        int         `db:"alumno_id"`
	ContactoID      int         `db:"contacto_id"`
	Nombre          string      `db:"nombre"`
	Celular         null.String `db:"celular"`
	TelefonoTrabajo null.String `db:"telefono_trabajo"`
	Nit             null.String `db:"nit"`
}

// Assignment is a student assigned to a transport route.
type Assignment struct {
	AlumnoID          int       `db:"alumno_id"`
	RubroTransporteID int       `db:"rubro_transporte_id"`
	FechaInicio       time.Time `db:"fecha_inicio"`
	FechaFin          null.Time `db:"fecha_fin"`
}

// covers reports whether the assignment overlaps the [from, to] period.
func (a Assignment) covers(from, to time.Time) bool {
	if a.FechaInicio.After(to) {
		return false
	}
	return !a.FechaFin.Valid || !a.FechaFin.Time.Before(from)
}

// Debtors

type DebtorsFilter struct {
	Year                int             `json:"year"`
	Month               int             `json:"month"`
	SedeID              int             `json:"sedeId"`
	NivelEducativoID    int             `json:"nivelEducativoId"`
	GradoID             int             `json:"gradoId"`
	Seccion             string          `json:"seccion"`
	RubroID             int             `json:"rubroId"`
	IncludeCurrentMonth bool            `json:"includeCurrentMonth"`
	MinMonthsBehind     int             `json:"minMonthsBehind"`
	MinDebtAmount       decimal.Decimal `json:"minDebtAmount"`
}

// NewDebtorsFilter returns a filter with the defaults applied.
func NewDebtorsFilter() DebtorsFilter {
	return DebtorsFilter{IncludeCurrentMonth: true}
}

type UnpaidMonth struct {
	Year        int             `json:"year"`
	Month       int             `json:"month"`
	MonthName   string          `json:"monthName"`
	Amount      decimal.Decimal `json:"amount"`
	DueDate     time.Time       `json:"dueDate"`
	DaysPastDue int             `json:"daysPastDue"`
	RubroNombre string          `json:"rubroNombre"`
}

type Debtor struct {
	AlumnoID              int             `json:"alumnoId"`
	NombreCompleto        string          `json:"nombreCompleto"`
	NivelEducativo        string          `json:"nivelEducativo"`
	Grado                 string          `json:"grado"`
	Seccion               string          `json:"seccion"`
	Sede                  string          `json:"sede"`
	TotalDebt             decimal.Decimal `json:"totalDebt"`
	MonthsBehind          int             `json:"monthsBehind"`
	LastPaymentDate       null.Time       `json:"lastPaymentDate"`
	IsCurrentMonthOverdue bool            `json:"isCurrentMonthOverdue"`

	unpaid []UnpaidMonth
	routes []string
}

type TuitionDebtor struct {
	Debtor
	UnpaidTuitions []UnpaidMonth `json:"unpaidTuitions"`
}

type TransportDebtor struct {
	Debtor
	RubroTransporte  string        `json:"rubroTransporte"`
	UnpaidTransports []UnpaidMonth `json:"unpaidTransports"`
}

type DebtorsSummary struct {
	CurrentMonthDelinquent  int             `json:"currentMonthDelinquent"`
	OneMonthBehind          int             `json:"oneMonthBehind"`
	TwoMonthsBehind         int             `json:"twoMonthsBehind"`
	ThreeOrMoreMonthsBehind int             `json:"threeOrMoreMonthsBehind"`
	AverageDebtPerStudent   decimal.Decimal `json:"averageDebtPerStudent"`
	DebtorsByGrade          map[string]int  `json:"debtorsByGrade"`
	DebtorsBySede           map[string]int  `json:"debtorsBySede"`
}

type TransportDebtorsSummary struct {
	DebtorsSummary
	DebtorsByRoute map[string]int `json:"debtorsByRoute"`
}

type debtorsHeader struct {
	ReportDate      time.Time       `json:"reportDate"`
	AsOfDate        time.Time       `json:"asOfDate"`
	TotalStudents   int             `json:"totalStudents"`
	StudentsInDebt  int             `json:"studentsInDebt"`
	TotalDebtAmount decimal.Decimal `json:"totalDebtAmount"`
}

type TuitionDebtorsReport struct {
	debtorsHeader
	Debtors []TuitionDebtor `json:"debtors"`
	Summary DebtorsSummary  `json:"summary"`
}

type TransportDebtorsReport struct {
	debtorsHeader
	Debtors []TransportDebtor       `json:"debtors"`
	Summary TransportDebtorsSummary `json:"summary"`
}

// Monthly payment report

type MonthlyFilter struct {
	CicloEscolar int    `json:"cicloEscolar"`
	Month        int    `json:"month"`
	Year         int    `json:"year"`
	GradoID      int    `json:"gradoId,omitempty"`
	Seccion      string `json:"seccion,omitempty"`
	RubroID      int    `json:"rubroId,omitempty"`
}

type MonthlyPaymentItem struct {
	ID                     int             `json:"id" db:"id"`
	Monto                  decimal.Decimal `json:"monto" db:"monto"`
	Fecha                  time.Time       `json:"fecha" db:"fecha"`
	CicloEscolar           int             `json:"cicloEscolar" db:"ciclo_escolar"`
	MedioPagoID            int             `json:"-" db:"medio_pago"`
	MedioPago              string          `json:"medioPago" db:"-"`
	RubroDescripcion       string          `json:"rubroDescripcion" db:"rubro_descripcion"`
	TipoRubroID            int             `json:"-" db:"rubro_tipo"`
	TipoRubro              string          `json:"tipoRubro" db:"-"`
	EsColegiatura          bool            `json:"esColegiatura" db:"es_colegiatura"`
	MesColegiatura         null.Int        `json:"mesColegiatura" db:"mes_colegiatura"`
	AnioColegiatura        null.Int        `json:"anioColegiatura" db:"anio_colegiatura"`
	Notas                  string          `json:"notas" db:"notas"`
	AlumnoID               int             `json:"alumnoId" db:"alumno_id"`
	AlumnoNombre           string          `json:"alumnoNombre" db:"alumno_nombre"`
	GradoNombre            string          `json:"gradoNombre" db:"grado_nombre"`
	Seccion                string          `json:"seccion" db:"seccion"`
	NivelEducativo         string          `json:"nivelEducativo" db:"nivel_educativo"`
	EsAnulado              bool            `json:"esAnulado" db:"es_anulado"`
	MotivoAnulacion        null.String     `json:"motivoAnulacion" db:"motivo_anulacion"`
	FechaAnulacion         null.Time       `json:"fechaAnulacion" db:"fecha_anulacion"`
	UsuarioAnulacionNombre string          `json:"usuarioAnulacionNombre" db:"usuario_anulacion_nombre"`
	WeekOfMonth            int             `json:"weekOfMonth" db:"-"`
	WeekRange              string          `json:"weekRange" db:"-"`
	DayOfWeek              string          `json:"dayOfWeek" db:"-"`
	DayOfMonth             int             `json:"dayOfMonth" db:"-"`
	PaymentCategory        string          `json:"paymentCategory" db:"-"`
}

type MonthlySummary struct {
	TotalAmount          decimal.Decimal            `json:"totalAmount"`
	ActivePaymentsAmount decimal.Decimal            `json:"activePaymentsAmount"`
	VoidedPaymentsAmount decimal.Decimal            `json:"voidedPaymentsAmount"`
	TotalPayments        int                        `json:"totalPayments"`
	ActivePayments       int                        `json:"activePayments"`
	VoidedPayments       int                        `json:"voidedPayments"`
	AmountByGrado        map[string]decimal.Decimal `json:"amountByGrado"`
	AmountByRubro        map[string]decimal.Decimal `json:"amountByRubro"`
	AmountByWeek         map[string]decimal.Decimal `json:"amountByWeek"`
	PaymentCountByGrado  map[string]int             `json:"paymentCountByGrado"`
	PaymentCountByRubro  map[string]int             `json:"paymentCountByRubro"`
	PaymentCountByWeek   map[string]int             `json:"paymentCountByWeek"`
}

type MonthlyReport struct {
	Filter       MonthlyFilter        `json:"filter"`
	Summary      MonthlySummary       `json:"summary"`
	Payments     []MonthlyPaymentItem `json:"payments"`
	GeneratedAt  time.Time            `json:"generatedAt"`
	ReportTitle  string               `json:"reportTitle"`
	ReportPeriod string               `json:"reportPeriod"`
}

// Payment grid and transport reports

type GridItem struct {
	ID                 int             `json:"id"`
	Monto              decimal.Decimal `json:"monto"`
	Estado             string          `json:"estado"`
	MesColegiatura     null.Int        `json:"mesColegiatura"`
	Notas              string          `json:"notas"`
	EsPagoDeCarnet     bool            `json:"esPagoDeCarnet"`
	EstadoCarnet       string          `json:"estadoCarnet"`
	EsPagoDeTransporte bool            `json:"esPagoDeTransporte"`
}

type GridAlumno struct {
	NumeroOrdinal  int                      `json:"numeroOrdinal"`
	AlumnoID       int                      `json:"alumnoId"`
	NombreCompleto string                   `json:"nombreCompleto"`
	Notas          string                   `json:"notas"`
	Nit            string                   `json:"nit"`
	PagosPorRubro  map[int]map[int]GridItem `json:"pagosPorRubro"`
}

type GridRubro struct {
	ID                     int    `json:"id"`
	Descripcion            string `json:"descripcion"`
	OrdenVisualizacionGrid int    `json:"ordenVisualizacionGrid"`
	EsColegiatura          bool   `json:"esColegiatura"`
}

type GridReport struct {
	Alumnos []GridAlumno `json:"alumnos"`
	Rubros  []GridRubro  `json:"rubros"`
}

type TransportAlumno struct {
	NumeroOrdinal int              `json:"numeroOrdinal"`
	AlumnoID      int              `json:"alumnoId"`
	Alumno        string           `json:"alumno"`
	Direccion     string           `json:"direccion"`
	Telefono      string           `json:"telefono"`
	Encargado     string           `json:"encargado"`
	Grado         string           `json:"grado"`
	PagosPorMes   map[int]GridItem `json:"pagosPorMes"`
}

type TransportReport struct {
	Alumnos          []TransportAlumno `json:"alumnos"`
	RubroDescripcion string            `json:"rubroDescripcion"`
	CicloEscolar     int               `json:"cicloEscolar"`
}
