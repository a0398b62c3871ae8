// Package inmemdb keeps every repository in memory; used by tests and by the -inmem api flag.
package inmemdb

import (
	"context"
	"sort"
	"sync"

	"github.com/manitascreativas/escuela/core"
	"github.com/manitascreativas/escuela/core/alumno"
	"github.com/manitascreativas/escuela/core/contacto"
	"github.com/manitascreativas/escuela/core/escuela"
	"github.com/manitascreativas/escuela/core/pago"
	"github.com/manitascreativas/escuela/core/qrcode"
	"github.com/manitascreativas/escuela/core/rubro"
	"github.com/manitascreativas/escuela/core/ruta"
	"github.com/manitascreativas/escuela/core/uniforme"
	"github.com/manitascreativas/escuela/core/usuario"
)

type table[T any] struct {
	pk   int
	rows map[int]T
}

func newTable[T any]() *table[T] {
	return &table[T]{rows: make(map[int]T)}
}

func (t *table[T]) nextID() int {
	t.pk++
	return t.pk
}

func (t *table[T]) get(id int) (T, bool) {
	row, ok := t.rows[id]
	return row, ok
}

// all returns the rows ordered by id.
func (t *table[T]) all() []T {
	return t.filter(nil)
}

// filter returns the rows accepted by `keep`, ordered by id.
func (t *table[T]) filter(keep func(T) bool) []T {
	ids := make([]int, 0, len(t.rows))
	for id := range t.rows {
		ids = append(ids, id)
	}
	sort.Ints(ids)
	rows := make([]T, 0, len(ids))
	for _, id := range ids {
		if keep == nil || keep(t.rows[id]) {
			rows = append(rows, t.rows[id])
		}
	}
	return rows
}

func (t *table[T]) exists(match func(T) bool) bool {
	for _, row := range t.rows {
		if match(row) {
			return true
		}
	}
	return false
}

func (t *table[T]) clone() *table[T] {
	c := &table[T]{pk: t.pk, rows: make(map[int]T, len(t.rows))}
	for id, row := range t.rows {
		c.rows[id] = row
	}
	return c
}

type tables struct {
	sedes          *table[escuela.Sede]
	niveles        *table[escuela.NivelEducativo]
	grados         *table[escuela.Grado]
	roles          *table[usuario.Rol]
	usuarios       *table[usuario.Usuario]
	alumnos        *table[alumno.Alumno]
	contactos      *table[contacto.Contacto]
	links          *table[contacto.AlumnoContacto]
	rubros         *table[rubro.Rubro]
	pagos          *table[pago.Pago]
	pagoImagenes   *table[pago.PagoImagen]
	pagoDetalles   *table[pago.PagoDetalle]
	qrcodes        *table[qrcode.CodigoQR]
	rutas          *table[ruta.AlumnoRuta]
	prendas        *table[uniforme.PrendaUniforme]
	prendaImagenes *table[uniforme.PrendaImagen]
	entradas       *table[uniforme.EntradaUniforme]
	entradaDets    *table[uniforme.EntradaDetalle]
	rubroDets      *table[uniforme.RubroUniformeDetalle]
}

func (t tables) clone() tables {
	return tables{
		sedes:          t.sedes.clone(),
		niveles:        t.niveles.clone(),
		grados:         t.grados.clone(),
		roles:          t.roles.clone(),
		usuarios:       t.usuarios.clone(),
		alumnos:        t.alumnos.clone(),
		contactos:      t.contactos.clone(),
		links:          t.links.clone(),
		rubros:         t.rubros.clone(),
		pagos:          t.pagos.clone(),
		pagoImagenes:   t.pagoImagenes.clone(),
		pagoDetalles:   t.pagoDetalles.clone(),
		qrcodes:        t.qrcodes.clone(),
		rutas:          t.rutas.clone(),
		prendas:        t.prendas.clone(),
		prendaImagenes: t.prendaImagenes.clone(),
		entradas:       t.entradas.clone(),
		entradaDets:    t.entradaDets.clone(),
		rubroDets:      t.rubroDets.clone(),
	}
}

// DB is a single in-memory store shared by all the repositories.
type DB struct {
	mutex sync.RWMutex
	tables
}

func NewDB() *DB {
	db := &DB{tables: tables{
		sedes:          newTable[escuela.Sede](),
		niveles:        newTable[escuela.NivelEducativo](),
		grados:         newTable[escuela.Grado](),
		roles:          newTable[usuario.Rol](),
		usuarios:       newTable[usuario.Usuario](),
		alumnos:        newTable[alumno.Alumno](),
		contactos:      newTable[contacto.Contacto](),
		links:          newTable[contacto.AlumnoContacto](),
		rubros:         newTable[rubro.Rubro](),
		pagos:          newTable[pago.Pago](),
		pagoImagenes:   newTable[pago.PagoImagen](),
		pagoDetalles:   newTable[pago.PagoDetalle](),
		qrcodes:        newTable[qrcode.CodigoQR](),
		rutas:          newTable[ruta.AlumnoRuta](),
		prendas:        newTable[uniforme.PrendaUniforme](),
		prendaImagenes: newTable[uniforme.PrendaImagen](),
		entradas:       newTable[uniforme.EntradaUniforme](),
		entradaDets:    newTable[uniforme.EntradaDetalle](),
		rubroDets:      newTable[uniforme.RubroUniformeDetalle](),
	}}

	// same roles as the seed migration
	for _, r := range []usuario.Rol{
		{Nombre: usuario.RolAdministrador, EsAdmin: true},
		{Nombre: usuario.RolOperador},
	} {
		r.ID = db.roles.nextID()
		db.roles.rows[r.ID] = r
	}
	return db
}

// txExec is the executor handed to the functions run by txRunner.
// The runner holds the write lock while they run, so repositories must not lock again.
type txExec struct {
	core.DBExecutor
}

func inTx(exec []core.DBExecutor) bool {
	if len(exec) == 0 {
		return false
	}
	_, ok := exec[0].(*txExec)
	return ok
}

// lock takes the write lock unless the call runs inside a transaction.
func (db *DB) lock(exec []core.DBExecutor) (unlock func()) {
	if inTx(exec) {
		return func() {}
	}
	db.mutex.Lock()
	return db.mutex.Unlock
}

// rlock takes the read lock unless the call runs inside a transaction.
func (db *DB) rlock(exec []core.DBExecutor) (unlock func()) {
	if inTx(exec) {
		return func() {}
	}
	db.mutex.RLock()
	return db.mutex.RUnlock
}

type txRunner struct {
	db *DB
}

var _ core.TxRunner = (*txRunner)(nil) // interface compliance check

// NewTxRunner returns a runner that serializes transactions on the write lock
// and restores every table when fn fails.
// fn must hand its executor to every repository call, or the call blocks.
func NewTxRunner(db *DB) core.TxRunner {
	return &txRunner{db: db}
}

func (tx *txRunner) RunInTx(_ context.Context, fn func(exec core.DBExecutor) error) (err error) {
	tx.db.mutex.Lock()
	defer tx.db.mutex.Unlock()
	snapshot := tx.db.tables.clone()

	defer func() {
		if p := recover(); p != nil {
			tx.db.tables = snapshot
			panic(p)
		}
		if err != nil {
			tx.db.tables = snapshot
		}
	}()
	return fn(&txExec{})
}
