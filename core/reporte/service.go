package reporte

import (
	"context"
	"time"

	"github.com/manitascreativas/escuela/core"
	"github.com/manitascreativas/escuela/core/escuela"
	"github.com/manitascreativas/escuela/core/rubro"
)

var nowFunc = time.Now

type (
	// Repository gives read access to the rows the reports are built from.
	Repository interface {
		// QueryStudents orders the students by surnames then names.
		QueryStudents(ctx context.Context, filter StudentFilter) ([]Student, error)
		// QueryPayments never returns voided payments; rows are ordered by fecha.
		QueryPayments(ctx context.Context, filter PaymentFilter) ([]Payment, error)
		// QueryAssignments returns the route assignments, of every route when rubroID is 0.
		QueryAssignments(ctx context.Context, rubroID int) ([]Assignment, error)
		// QueryMonthlyPayments returns the payments dated in [from, to), voided ones included.
		QueryMonthlyPayments(ctx context.Context, filter MonthlyFilter, from, to time.Time) ([]MonthlyPaymentItem, error)
		// QueryContacts orders the contacts by student then by contact id.
		QueryContacts(ctx context.Context, alumnoIDs []int) ([]Contact, error)
	}

	Service struct {
		repo        Repository
		rubroRepo   rubro.Repository
		escuelaRepo escuela.Repository
		conf        core.ReportsConfig
	}
)

func NewService(repo Repository, rubroRepo rubro.Repository, escuelaRepo escuela.Repository, conf *core.Config) *Service {
	reports := conf.Reports
	if reports.Location == nil {
		reports.Location = time.UTC
	}
	return &Service{repo: repo, rubroRepo: rubroRepo, escuelaRepo: escuelaRepo, conf: reports}
}

func (svc *Service) now() time.Time {
	return nowFunc().In(svc.conf.Location)
}

// contactsByStudent maps every student to its contacts, in contact order.
func (svc *Service) contactsByStudent(ctx context.Context, students []Student) (map[int][]Contact, error) {
	ids := make([]int, 0, len(students))
	for _, s := range students {
		ids = append(ids, s.AlumnoID)
	}
	byStudent := make(map[int][]Contact)
	if len(ids) == 0 {
		return byStudent, nil
	}
	contacts, err := svc.repo.QueryContacts(ctx, ids)
	if err != nil {
		return nil, err
	}
	for _, c := range contacts {
		byStudent[c.AlumnoID] = append(byStudent[c.AlumnoID], c)
	}
	return byStudent, nil
}
