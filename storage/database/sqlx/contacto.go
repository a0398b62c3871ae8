package sqlxrepos

import (
	"context"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/pkg/errors"

	"github.com/manitascreativas/escuela/core"
	"github.com/manitascreativas/escuela/core/contacto"
)

const (
	contactoColumns = "id, nombre, telefono_trabajo, celular, email, direccion, nit"
	linkSelect      = `
SELECT ac.alumno_id, ac.contacto_id, ac.parentesco,
	c.id AS "contacto.id", c.nombre AS "contacto.nombre", c.telefono_trabajo AS "contacto.telefono_trabajo",
	c.celular AS "contacto.celular", c.email AS "contacto.email", c.direccion AS "contacto.direccion",
	c.nit AS "contacto.nit"
FROM alumno_contactos ac
JOIN contactos c ON c.id = ac.contacto_id`
)

type contactoRepository struct {
	repository
}

var _ contacto.Repository = (*contactoRepository)(nil) // interface compliance check

func NewContactoRepository(db *sqlx.DB) contacto.Repository {
	return &contactoRepository{repository{db: db}}
}

func (repo *contactoRepository) QueryAll(ctx context.Context) ([]contacto.Contacto, error) {
	contactos := make([]contacto.Contacto, 0)
	if err := sqlx.SelectContext(ctx, repo.db, &contactos, "SELECT "+contactoColumns+" FROM contactos ORDER BY nombre"); err != nil {
		return nil, errors.Wrap(err, "querying contactos")
	}
	return contactos, nil
}

func (repo *contactoRepository) GetByID(ctx context.Context, id int) (contacto.Contacto, error) {
	var c contacto.Contacto
	if err := sqlx.GetContext(ctx, repo.db, &c, "SELECT "+contactoColumns+" FROM contactos WHERE id = $1", id); err != nil {
		return contacto.Contacto{}, trapNoRowsErr(err, contacto.ErrNotFound, "getting contacto")
	}
	return c, nil
}

func (repo *contactoRepository) Create(ctx context.Context, c contacto.Contacto) (contacto.Contacto, error) {
	id, err := insert(ctx, repo.db, `
INSERT INTO contactos (nombre, telefono_trabajo, celular, email, direccion, nit)
VALUES (:nombre, :telefono_trabajo, :celular, :email, :direccion, :nit) RETURNING id`, c)
	if err != nil {
		return contacto.Contacto{}, errors.Wrap(err, "inserting contacto")
	}
	c.ID = id
	return c, nil
}

func (repo *contactoRepository) Update(ctx context.Context, c contacto.Contacto) (contacto.Contacto, error) {
	err := update(ctx, repo.db, `
UPDATE contactos SET
	nombre = :nombre, telefono_trabajo = :telefono_trabajo, celular = :celular, email = :email,
	direccion = :direccion, nit = :nit
WHERE id = :id`, c, contacto.ErrNotFound)
	if err != nil {
		return contacto.Contacto{}, trapNoRowsErr(err, contacto.ErrNotFound, "updating contacto")
	}
	return c, nil
}

func (repo *contactoRepository) Delete(ctx context.Context, id int) error {
	return deleteByID(ctx, repo.db, "contactos", id, contacto.ErrNotFound)
}

// Links

func (repo *contactoRepository) QueryLinks(ctx context.Context, alumnoID int) ([]contacto.AlumnoContacto, error) {
	links := make([]contacto.AlumnoContacto, 0)
	if err := sqlx.SelectContext(ctx, repo.db, &links, linkSelect+" WHERE ac.alumno_id = $1 ORDER BY c.nombre", alumnoID); err != nil {
		return nil, errors.Wrap(err, "querying alumno contactos")
	}
	return links, nil
}

func (repo *contactoRepository) GetLink(ctx context.Context, alumnoID, contactoID int) (contacto.AlumnoContacto, error) {
	var link contacto.AlumnoContacto
	q := linkSelect + " WHERE ac.alumno_id = $1 AND ac.contacto_id = $2"
	if err := sqlx.GetContext(ctx, repo.db, &link, q, alumnoID, contactoID); err != nil {
		return contacto.AlumnoContacto{}, trapNoRowsErr(err, contacto.ErrLinkNotFound, "getting alumno contacto")
	}
	return link, nil
}

func (repo *contactoRepository) CreateLink(ctx context.Context, link contacto.AlumnoContacto) error {
	_, err := repo.db.ExecContext(ctx,
		"INSERT INTO alumno_contactos (alumno_id, contacto_id, parentesco) VALUES ($1, $2, $3)",
		link.AlumnoID, link.ContactoID, link.Parentesco)
	if pqErr, ok := errors.Cause(err).(*pq.Error); ok && pqErr.Code == pgUniqueViolation {
		return core.NewValidationError(contacto.ErrLinkExists)
	}
	return errors.Wrap(err, "inserting alumno contacto")
}

func (repo *contactoRepository) UpdateLink(ctx context.Context, link contacto.AlumnoContacto) error {
	res, err := repo.db.ExecContext(ctx,
		"UPDATE alumno_contactos SET parentesco = $3 WHERE alumno_id = $1 AND contacto_id = $2",
		link.AlumnoID, link.ContactoID, link.Parentesco)
	if err != nil {
		return errors.Wrap(err, "updating alumno contacto")
	}
	if n, err := res.RowsAffected(); err != nil {
		return errors.Wrap(err, "updating alumno contacto")
	} else if n == 0 {
		return contacto.ErrLinkNotFound
	}
	return nil
}

func (repo *contactoRepository) DeleteLink(ctx context.Context, alumnoID, contactoID int) error {
	res, err := repo.db.ExecContext(ctx, "DELETE FROM alumno_contactos WHERE alumno_id = $1 AND contacto_id = $2", alumnoID, contactoID)
	if err != nil {
		return errors.Wrap(err, "deleting alumno contacto")
	}
	if n, err := res.RowsAffected(); err != nil {
		return errors.Wrap(err, "deleting alumno contacto")
	} else if n == 0 {
		return contacto.ErrLinkNotFound
	}
	return nil
}
