package ruta

import (
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/volatiletech/null/v8"

	"github.com/manitascreativas/escuela/core"
)

// AlumnoRuta assigns a student to a transport route (a transport rubro).
type AlumnoRuta struct {
	ID                int       `json:"id" db:"id"`
	AlumnoID          int       `json:"alumnoId" db:"alumno_id"`
	RubroTransporteID int       `json:"rubroTransporteId" db:"rubro_transporte_id"`
	FechaInicio       time.Time `json:"fechaInicio" db:"fecha_inicio"`
	FechaFin          null.Time `json:"fechaFin" db:"fecha_fin"`
}

// Covers reports whether the assignment overlaps the [from, to] period.
func (ar AlumnoRuta) Covers(from, to time.Time) bool {
	if ar.FechaInicio.After(to) {
		return false
	}
	return !ar.FechaFin.Valid || !ar.FechaFin.Time.Before(from)
}

// AlumnoRutaDetalle is an assignment with the student data shown in the route listing.
type AlumnoRutaDetalle struct {
	AlumnoRuta
	AlumnoNombre    string `json:"alumnoNombre" db:"alumno_nombre"`
	AlumnoApellidos string `json:"alumnoApellidos" db:"alumno_apellidos"`
	AlumnoCompleto  string `json:"alumnoCompleto" db:"-"`
	Grado           string `json:"grado" db:"grado"`
	Seccion         string `json:"seccion" db:"seccion"`
	Sede            string `json:"sede" db:"sede"`
}

type AlumnoRutaData struct {
	AlumnoID          int        `json:"alumnoId" validate:"required,gt=0"`
	RubroTransporteID int        `json:"rubroTransporteId" validate:"required,gt=0"`
	FechaInicio       time.Time  `json:"fechaInicio"`
	FechaFin          *time.Time `json:"fechaFin"`
}

func (ard *AlumnoRutaData) Validate(validate *validator.Validate) error {
	if err := validate.Struct(ard); err != nil {
		return err
	}
	return checkDates(ard.FechaInicio, ard.FechaFin)
}

// FechasData holds the editable fields of an assignment.
type FechasData struct {
	FechaInicio time.Time  `json:"fechaInicio"`
	FechaFin    *time.Time `json:"fechaFin"`
}

func (fd *FechasData) Validate() error {
	return checkDates(fd.FechaInicio, fd.FechaFin)
}

func checkDates(inicio time.Time, fin *time.Time) error {
	if inicio.IsZero() {
		return core.NewValidationError(nil, core.FieldError{Field: "fechaInicio", Error: "fechaInicio is required"})
	}
	if fin != nil && fin.Before(inicio) {
		return core.NewValidationError(nil, core.FieldError{Field: "fechaFin", Error: "fechaFin must not precede fechaInicio"})
	}
	return nil
}

func nullTime(t *time.Time) null.Time {
	if t == nil {
		return null.Time{}
	}
	return null.TimeFrom(t.UTC())
}
