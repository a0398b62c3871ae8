package uniforme_test

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/manitascreativas/escuela/core"
	"github.com/manitascreativas/escuela/core/rubro"
	"github.com/manitascreativas/escuela/core/uniforme"
	"github.com/manitascreativas/escuela/storage/database/inmem"
	"github.com/manitascreativas/escuela/tests"
)

func createPrenda(t *testing.T, env *testutil.Env, descripcion string) uniforme.PrendaUniforme {
	p, err := env.UniformeSvc.CreatePrenda(context.Background(), uniforme.PrendaData{
		Descripcion:       descripcion,
		Sexo:              "F",
		Talla:             "8",
		Precio:            testutil.Money("60"),
		ExistenciaInicial: 5,
	}, 1)
	require.NoError(t, err)
	return p
}

func stock(t *testing.T, env *testutil.Env, id int) (entradas, salidas int) {
	p, err := env.UniformeSvc.GetPrenda(context.Background(), id)
	require.NoError(t, err)
	return p.Entradas, p.Salidas
}

func TestService_EntradaRollsBack(t *testing.T) {
	env := testutil.NewEnv(t)
	ctx := context.Background()
	falda := createPrenda(t, env, "Falda")

	_, err := env.UniformeSvc.CreateEntrada(ctx, uniforme.EntradaData{
		FechaEntrada: testutil.Date(2025, 1, 15),
		Detalles: []uniforme.EntradaDetalleData{
			{PrendaUniformeID: falda.ID, Cantidad: 4, Subtotal: testutil.Money("160")},
			{PrendaUniformeID: 999, Cantidad: 1, Subtotal: testutil.Money("40")},
		},
	}, 1)
	assert.True(t, core.IsValidation(err))

	entradas, _ := stock(t, env, falda.ID)
	assert.Equal(t, 0, entradas)
	list, err := env.UniformeSvc.ListEntradas(ctx, uniforme.EntradaFilter{})
	require.NoError(t, err)
	assert.Empty(t, list)

	e, err := env.UniformeSvc.CreateEntrada(ctx, uniforme.EntradaData{
		FechaEntrada: testutil.Date(2025, 1, 15),
		Detalles:     []uniforme.EntradaDetalleData{{PrendaUniformeID: falda.ID, Cantidad: 4, Subtotal: testutil.Money("160")}},
	}, 1)
	require.NoError(t, err)
	assert.Equal(t, "160", e.Total.String())
	entradas, _ = stock(t, env, falda.ID)
	assert.Equal(t, 4, entradas)

	// a failed update keeps the previous details and stock
	_, err = env.UniformeSvc.UpdateEntrada(ctx, e.ID, uniforme.EntradaData{
		FechaEntrada: testutil.Date(2025, 1, 16),
		Detalles:     []uniforme.EntradaDetalleData{{PrendaUniformeID: 999, Cantidad: 2}},
	}, 1)
	assert.True(t, core.IsValidation(err))
	entradas, _ = stock(t, env, falda.ID)
	assert.Equal(t, 4, entradas)
	got, err := env.UniformeSvc.GetEntrada(ctx, e.ID)
	require.NoError(t, err)
	assert.Len(t, got.EntradaUniformeDetalles, 1)

	ok, err := env.UniformeSvc.SoftDeleteEntrada(ctx, e.ID, "duplicada", 1)
	require.NoError(t, err)
	assert.True(t, ok)
	ok, err = env.UniformeSvc.SoftDeleteEntrada(ctx, e.ID, "otra vez", 1)
	require.NoError(t, err)
	assert.True(t, ok)
	entradas, _ = stock(t, env, falda.ID)
	assert.Equal(t, 0, entradas, "deleting twice reverts once")
}

// lockstepRepo makes the GetEntrada callers wait for each other, so they all see the same batch state.
type lockstepRepo struct {
	uniforme.Repository
	readers sync.WaitGroup
}

func (r *lockstepRepo) GetEntrada(ctx context.Context, id int, exec ...core.DBExecutor) (uniforme.EntradaUniforme, error) {
	e, err := r.Repository.GetEntrada(ctx, id, exec...)
	r.readers.Done()
	r.readers.Wait()
	return e, err
}

func TestService_ConcurrentSoftDeleteEntrada(t *testing.T) {
	env := testutil.NewEnv(t)
	ctx := context.Background()
	falda := createPrenda(t, env, "Falda")

	e, err := env.UniformeSvc.CreateEntrada(ctx, uniforme.EntradaData{
		FechaEntrada: testutil.Date(2025, 1, 15),
		Detalles:     []uniforme.EntradaDetalleData{{PrendaUniformeID: falda.ID, Cantidad: 4, Subtotal: testutil.Money("160")}},
	}, 1)
	require.NoError(t, err)

	repo := &lockstepRepo{Repository: env.UniformeRepo}
	repo.readers.Add(2)
	svc := uniforme.NewService(repo, env.RubroRepo, inmemdb.NewTxRunner(env.DB), env.Files)

	var wg sync.WaitGroup
	results := make([]bool, 2)
	errs := make([]error, 2)
	for i := range results {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i], errs[i] = svc.SoftDeleteEntrada(ctx, e.ID, "duplicada", 1)
		}(i)
	}
	wg.Wait()

	for i := range results {
		require.NoError(t, errs[i])
		assert.True(t, results[i])
	}
	entradas, _ := stock(t, env, falda.ID)
	assert.Equal(t, 0, entradas, "stock is reverted once")
}

func TestService_UpdateStock(t *testing.T) {
	env := testutil.NewEnv(t)
	ctx := context.Background()
	falda := createPrenda(t, env, "Falda")

	require.NoError(t, env.UniformeSvc.UpdateStock(ctx, falda.ID, 3, 1))
	entradas, salidas := stock(t, env, falda.ID)
	assert.Equal(t, 3, entradas)
	assert.Equal(t, 1, salidas)

	p, err := env.UniformeSvc.GetPrenda(ctx, falda.ID)
	require.NoError(t, err)
	assert.Equal(t, 7, p.Stock())

	assert.True(t, core.IsNotFound(env.UniformeSvc.UpdateStock(ctx, 999, 1, 0)))

	_, err = env.UniformeSvc.SoftDeletePrenda(ctx, falda.ID, " ", 1)
	assert.True(t, core.IsValidation(err))
	ok, err := env.UniformeSvc.SoftDeletePrenda(ctx, 999, "no existe", 1)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestService_RubroDetalles(t *testing.T) {
	env := testutil.NewEnv(t)
	ctx := context.Background()
	falda := createPrenda(t, env, "Falda")
	blusa := createPrenda(t, env, "Blusa")
	diario := testutil.CreateRubro(t, env.RubroRepo, rubro.Rubro{Descripcion: "Uniforme diario", Tipo: rubro.TipoUniformes})

	d, err := env.UniformeSvc.CreateRubroDetalle(ctx, uniforme.RubroDetalleData{RubroID: diario.ID, PrendaUniformeID: falda.ID}, 1)
	require.NoError(t, err)
	assert.Equal(t, "Uniforme diario", d.RubroDescripcion)
	assert.Equal(t, "Falda", d.PrendaDescripcion)

	other, err := env.UniformeSvc.CreateRubroDetalle(ctx, uniforme.RubroDetalleData{RubroID: diario.ID, PrendaUniformeID: blusa.ID}, 1)
	require.NoError(t, err)

	// moving onto an existing link is refused, keeping the same link is not
	_, err = env.UniformeSvc.UpdateRubroDetalle(ctx, other.ID, uniforme.RubroDetalleData{RubroID: diario.ID, PrendaUniformeID: falda.ID}, 2)
	assert.True(t, core.IsValidation(err))
	updated, err := env.UniformeSvc.UpdateRubroDetalle(ctx, other.ID, uniforme.RubroDetalleData{RubroID: diario.ID, PrendaUniformeID: blusa.ID}, 2)
	require.NoError(t, err)
	assert.Equal(t, 2, int(updated.UsuarioActualizacionID.Int))

	_, err = env.UniformeSvc.UpdateRubroDetalle(ctx, 999, uniforme.RubroDetalleData{RubroID: diario.ID, PrendaUniformeID: blusa.ID}, 2)
	assert.True(t, core.IsNotFound(err))

	ok, err := env.UniformeSvc.SoftDeleteRubroDetalle(ctx, d.ID, "", 1)
	require.NoError(t, err)
	assert.True(t, ok)
	deleted, err := env.UniformeSvc.GetRubroDetalle(ctx, d.ID)
	require.NoError(t, err)
	assert.Equal(t, "Eliminado", deleted.MotivoEliminacion.String)
}
