// Package sqlxrepos implements the domain repositories with jmoiron/sqlx on Postgres.
package sqlxrepos

import (
	"context"
	"database/sql"
	"strconv"
	"strings"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/pkg/errors"

	"github.com/manitascreativas/escuela/core"
)

const (
	pgForeignKeyViolation = "23503"
	pgUniqueViolation     = "23505"
)

var errInUse = errors.New("the record is referenced by other records and cannot be deleted")

type repository struct {
	db *sqlx.DB
}

// getExec returns the transaction handed by the service, if any.
func (repo repository) getExec(exec []core.DBExecutor) sqlx.ExtContext {
	if len(exec) > 0 && exec[0] != nil {
		if ext, ok := exec[0].(sqlx.ExtContext); ok {
			return ext
		}
	}
	return repo.db
}

// trapNoRowsErr maps "no rows" to the domain `notFound` error.
func trapNoRowsErr(err, notFound error, msg string) error {
	if cause := errors.Cause(err); cause == sql.ErrNoRows || cause == notFound {
		return notFound
	}
	return errors.Wrap(err, msg)
}

// trapDeleteErr maps foreign key violations to a validation error.
func trapDeleteErr(err error, msg string) error {
	if pqErr, ok := errors.Cause(err).(*pq.Error); ok && pqErr.Code == pgForeignKeyViolation {
		return core.NewValidationError(errInUse)
	}
	return errors.Wrap(err, msg)
}

func isUniqueViolation(err error, constraint string) bool {
	pqErr, ok := errors.Cause(err).(*pq.Error)
	return ok && pqErr.Code == pgUniqueViolation && pqErr.Constraint == constraint
}

// insert runs a named INSERT ... RETURNING id.
func insert(ctx context.Context, ext sqlx.ExtContext, query string, arg interface{}) (int, error) {
	rows, err := sqlx.NamedQueryContext(ctx, ext, query, arg)
	if err != nil {
		return 0, err
	}
	defer func() { _ = rows.Close() }()

	var id int
	if rows.Next() {
		if err = rows.Scan(&id); err != nil {
			return 0, err
		}
	}
	return id, rows.Err()
}

// update runs a named statement and fails with `notFound` when no row was affected.
func update(ctx context.Context, ext sqlx.ExtContext, query string, arg interface{}, notFound error) error {
	res, err := sqlx.NamedExecContext(ctx, ext, query, arg)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return notFound
	}
	return nil
}

// deleteByID deletes the row with the given id from `table`.
func deleteByID(ctx context.Context, ext sqlx.ExtContext, table string, id int, notFound error) error {
	res, err := ext.ExecContext(ctx, "DELETE FROM "+table+" WHERE id = $1", id)
	if err != nil {
		return trapDeleteErr(err, "deleting from "+table)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return errors.Wrap(err, "deleting from "+table)
	}
	if n == 0 {
		return notFound
	}
	return nil
}

// selectIn runs a query holding one "IN (?)" clause bound to `ids`.
func selectIn(ctx context.Context, ext sqlx.ExtContext, dest interface{}, query string, ids []int) error {
	q, args, err := sqlx.In(query, ids)
	if err != nil {
		return err
	}
	return sqlx.SelectContext(ctx, ext, dest, ext.Rebind(q), args...)
}

// conditions accumulates the WHERE clause of a dynamic query.
type conditions struct {
	where []string
	args  []interface{}
}

func (c *conditions) add(cond string, arg interface{}) {
	c.args = append(c.args, arg)
	c.where = append(c.where, strings.Replace(cond, "?", "$"+strconv.Itoa(len(c.args)), -1))
}

func (c *conditions) raw(cond string) {
	c.where = append(c.where, cond)
}

func (c *conditions) String() string {
	if len(c.where) == 0 {
		return ""
	}
	return " WHERE " + strings.Join(c.where, " AND ")
}
