package inmemdb

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/manitascreativas/escuela/core"
	"github.com/manitascreativas/escuela/core/escuela"
	"github.com/manitascreativas/escuela/core/uniforme"
)

var errFailedTx = errors.New("failed")

func TestTxRunner(t *testing.T) {
	ctx := context.Background()
	db := NewDB()
	repo := NewUniformeRepository(db)
	tx := NewTxRunner(db)

	p, err := repo.CreatePrenda(ctx, uniforme.PrendaUniforme{Descripcion: "Suéter", Sexo: "F", Talla: "8", ExistenciaInicial: 5})
	require.NoError(t, err)

	salidas := func() int {
		got, err := repo.GetPrenda(ctx, p.ID)
		require.NoError(t, err)
		return got.Salidas
	}

	err = tx.RunInTx(ctx, func(exec core.DBExecutor) error {
		if err := repo.AddStock(ctx, p.ID, 0, 2, exec); err != nil {
			return err
		}
		got, err := repo.GetPrenda(ctx, p.ID, exec)
		require.NoError(t, err)
		assert.Equal(t, 2, got.Salidas)
		return errFailedTx
	})
	assert.Equal(t, errFailedTx, err)
	assert.Equal(t, 0, salidas(), "rolled back")

	err = tx.RunInTx(ctx, func(exec core.DBExecutor) error {
		return repo.AddStock(ctx, p.ID, 0, 3, exec)
	})
	require.NoError(t, err)
	assert.Equal(t, 3, salidas(), "committed")

	assert.Panics(t, func() {
		_ = tx.RunInTx(ctx, func(exec core.DBExecutor) error {
			_ = repo.AddStock(ctx, p.ID, 0, 1, exec)
			panic("boom")
		})
	})
	assert.Equal(t, 3, salidas(), "rolled back on panic")
}

func TestTxRunner_RollbackKeepsConcurrentWrites(t *testing.T) {
	ctx := context.Background()
	db := NewDB()
	repo := NewEscuelaRepository(db)
	tx := NewTxRunner(db)

	created := make(chan error, 1)
	err := tx.RunInTx(ctx, func(exec core.DBExecutor) error {
		go func() {
			_, err := repo.CreateSede(ctx, escuela.Sede{Nombre: "Central"})
			created <- err
		}()
		time.Sleep(20 * time.Millisecond)
		return errFailedTx
	})
	assert.Equal(t, errFailedTx, err)
	require.NoError(t, <-created)

	sedes, err := repo.QuerySedes(ctx)
	require.NoError(t, err)
	require.Len(t, sedes, 1)
	assert.Equal(t, "Central", sedes[0].Nombre)
}
