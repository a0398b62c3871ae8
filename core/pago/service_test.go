package pago_test

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/manitascreativas/escuela/core"
	"github.com/manitascreativas/escuela/core/alumno"
	"github.com/manitascreativas/escuela/core/pago"
	"github.com/manitascreativas/escuela/core/rubro"
	"github.com/manitascreativas/escuela/core/uniforme"
	"github.com/manitascreativas/escuela/storage/database/inmem"
	"github.com/manitascreativas/escuela/tests"
)

type fixture struct {
	env       *testutil.Env
	alumno    alumno.Alumno
	carnet    rubro.Rubro
	uniformes rubro.Rubro
	otro      rubro.Rubro
	prenda    uniforme.PrendaUniforme
	detalle   uniforme.RubroUniformeDetalle
	ajeno     uniforme.RubroUniformeDetalle
}

func setup(t *testing.T) fixture {
	ctx := context.Background()
	env := testutil.NewEnv(t)
	school := testutil.CreateSchool(t, env.EscuelaRepo, "Primero")
	f := fixture{
		env:       env,
		alumno:    testutil.CreateAlumno(t, env.AlumnoRepo, school, "A-001", "Lucía", "Pérez"),
		carnet:    testutil.CreateRubro(t, env.RubroRepo, rubro.Rubro{Descripcion: "Carnet", Tipo: rubro.TipoOtros, EsPagoDeCarnet: true}),
		uniformes: testutil.CreateRubro(t, env.RubroRepo, rubro.Rubro{Descripcion: "Uniforme diario", Tipo: rubro.TipoUniformes}),
		otro:      testutil.CreateRubro(t, env.RubroRepo, rubro.Rubro{Descripcion: "Uniforme deportivo", Tipo: rubro.TipoUniformes}),
	}

	var err error
	f.prenda, err = env.UniformeRepo.CreatePrenda(ctx, uniforme.PrendaUniforme{
		Descripcion:       "Camisa polo",
		Sexo:              "M",
		Talla:             "10",
		Precio:            testutil.Money("75"),
		ExistenciaInicial: 10,
		Auditoria:         uniforme.Auditoria{FechaCreacion: time.Now().UTC()},
	})
	require.NoError(t, err)
	f.detalle, err = env.UniformeRepo.CreateRubroDetalle(ctx, uniforme.RubroUniformeDetalle{RubroID: f.uniformes.ID, PrendaUniformeID: f.prenda.ID})
	require.NoError(t, err)
	f.ajeno, err = env.UniformeRepo.CreateRubroDetalle(ctx, uniforme.RubroUniformeDetalle{RubroID: f.otro.ID, PrendaUniformeID: f.prenda.ID})
	require.NoError(t, err)
	return f
}

func (f fixture) upload(rubroID int, monto string, detalles ...pago.PagoDetalleData) pago.PagoUpload {
	return pago.PagoUpload{
		CicloEscolar: 2025,
		Fecha:        testutil.Date(2025, 2, 3),
		Monto:        testutil.Money(monto),
		MedioPago:    pago.MedioEfectivo,
		AlumnoID:     f.alumno.ID,
		RubroID:      rubroID,
		PagoDetalles: detalles,
	}
}

func (f fixture) salidas(t *testing.T) int {
	p, err := f.env.UniformeRepo.GetPrenda(context.Background(), f.prenda.ID)
	require.NoError(t, err)
	return p.Salidas
}

func storedFiles(t *testing.T, dir string) []os.DirEntry {
	entries, err := os.ReadDir(filepath.Join(dir, "pagos"))
	if os.IsNotExist(err) {
		return nil
	}
	require.NoError(t, err)
	return entries
}

func TestService_CreateCarnet(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	p, err := f.env.PagoSvc.Create(ctx, f.upload(f.carnet.ID, "25"), nil, 1)
	require.NoError(t, err)
	assert.True(t, p.EsPagoDeCarnet)
	assert.Equal(t, pago.EstadoCarnetPagado, p.EstadoCarnet.String)
	assert.False(t, p.MesColegiatura.Valid)

	data := f.upload(f.carnet.ID, "25")
	data.EstadoCarnet = "ENTREGADO"
	p, err = f.env.PagoSvc.Update(ctx, p.ID, data, nil, 2)
	require.NoError(t, err)
	assert.Equal(t, "ENTREGADO", p.EstadoCarnet.String)
	assert.Equal(t, 2, int(p.UsuarioActualizacionID.Int))
}

func TestService_CreateReferences(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	data := f.upload(999, "25")
	_, err := f.env.PagoSvc.Create(ctx, data, nil, 1)
	assert.True(t, core.IsValidation(err))

	data = f.upload(f.carnet.ID, "25")
	data.AlumnoID = 999
	_, err = f.env.PagoSvc.Create(ctx, data, nil, 1)
	assert.True(t, core.IsValidation(err))
}

func TestService_UniformDetails(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	detalle := func(id, cantidad int) pago.PagoDetalleData {
		return pago.PagoDetalleData{RubroUniformeDetalleID: id, PrecioUnitario: decimal.NewFromInt(75), Cantidad: cantidad}
	}

	t.Run("details are required", func(t *testing.T) {
		_, err := f.env.PagoSvc.Create(ctx, f.upload(f.uniformes.ID, "150"), nil, 1)
		assert.True(t, core.IsValidation(err))
	})

	t.Run("details must add up to monto", func(t *testing.T) {
		_, err := f.env.PagoSvc.Create(ctx, f.upload(f.uniformes.ID, "100", detalle(f.detalle.ID, 2)), nil, 1)
		assert.True(t, core.IsValidation(err))
	})

	t.Run("failure rolls everything back", func(t *testing.T) {
		imgs := []pago.ImagenUpload{{FileName: "recibo.txt", Content: strings.NewReader("recibo")}}
		data := f.upload(f.uniformes.ID, "225", detalle(f.detalle.ID, 2), detalle(f.ajeno.ID, 1))
		_, err := f.env.PagoSvc.Create(ctx, data, imgs, 1)
		require.Error(t, err)
		assert.True(t, core.IsValidation(err))

		pagos, err := f.env.PagoSvc.ListByAlumno(ctx, f.alumno.ID)
		require.NoError(t, err)
		assert.Empty(t, pagos)
		assert.Equal(t, 0, f.salidas(t))
		assert.Empty(t, storedFiles(t, f.env.Conf.Storage.LocalDir))
	})

	t.Run("stock follows the payment", func(t *testing.T) {
		p, err := f.env.PagoSvc.Create(ctx, f.upload(f.uniformes.ID, "150", detalle(f.detalle.ID, 2)), nil, 1)
		require.NoError(t, err)
		assert.Equal(t, 2, f.salidas(t))

		_, err = f.env.PagoSvc.Update(ctx, p.ID, f.upload(f.uniformes.ID, "75", detalle(f.detalle.ID, 1)), nil, 1)
		require.NoError(t, err)
		assert.Equal(t, 1, f.salidas(t))

		voided, err := f.env.PagoSvc.Void(ctx, p.ID, pago.VoidData{MotivoAnulacion: "error de digitación"}, 1)
		require.NoError(t, err)
		assert.True(t, voided.EsAnulado)
		assert.Equal(t, 0, f.salidas(t))

		_, err = f.env.PagoSvc.Void(ctx, p.ID, pago.VoidData{MotivoAnulacion: "otra vez"}, 1)
		assert.True(t, core.IsValidation(err))
		_, err = f.env.PagoSvc.Update(ctx, p.ID, f.upload(f.uniformes.ID, "75", detalle(f.detalle.ID, 1)), nil, 1)
		assert.True(t, core.IsValidation(err))
	})
}

// lockstepRepo makes the GetByID callers wait for each other, so they all see the same payment state.
type lockstepRepo struct {
	pago.Repository
	readers sync.WaitGroup
}

func (r *lockstepRepo) GetByID(ctx context.Context, id int, exec ...core.DBExecutor) (pago.Pago, error) {
	p, err := r.Repository.GetByID(ctx, id, exec...)
	r.readers.Done()
	r.readers.Wait()
	return p, err
}

func TestService_ConcurrentVoid(t *testing.T) {
	ctx := context.Background()
	detalle := pago.PagoDetalleData{RubroUniformeDetalleID: 0, PrecioUnitario: decimal.NewFromInt(75), Cantidad: 2}

	tests := []struct {
		name   string
		second func(svc *pago.Service, f fixture, id int) error
	}{
		{
			name: "void twice",
			second: func(svc *pago.Service, _ fixture, id int) error {
				_, err := svc.Void(ctx, id, pago.VoidData{MotivoAnulacion: "duplicado"}, 2)
				return err
			},
		},
		{
			name: "void and update",
			second: func(svc *pago.Service, f fixture, id int) error {
				d := detalle
				d.RubroUniformeDetalleID = f.detalle.ID
				d.Cantidad = 1
				_, err := svc.Update(ctx, id, f.upload(f.uniformes.ID, "75", d), nil, 2)
				return err
			},
		},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			f := setup(t)
			d := detalle
			d.RubroUniformeDetalleID = f.detalle.ID
			p, err := f.env.PagoSvc.Create(ctx, f.upload(f.uniformes.ID, "150", d), nil, 1)
			require.NoError(t, err)
			require.Equal(t, 2, f.salidas(t))

			repo := &lockstepRepo{Repository: f.env.PagoRepo}
			repo.readers.Add(2)
			svc := pago.NewService(repo, f.env.AlumnoRepo, f.env.RubroRepo, f.env.UniformeRepo, inmemdb.NewTxRunner(f.env.DB), f.env.Files, f.env.Logger)

			var voidErr, secondErr error
			var wg sync.WaitGroup
			wg.Add(2)
			go func() {
				defer wg.Done()
				_, voidErr = svc.Void(ctx, p.ID, pago.VoidData{MotivoAnulacion: "error de digitación"}, 1)
			}()
			go func() {
				defer wg.Done()
				secondErr = tc.second(svc, f, p.ID)
			}()
			wg.Wait()

			if voidErr != nil {
				// the other void won
				assert.True(t, core.IsValidation(voidErr))
				assert.NoError(t, secondErr)
			} else if secondErr != nil {
				assert.True(t, core.IsValidation(secondErr), secondErr)
			}
			stored, err := f.env.PagoRepo.GetByID(ctx, p.ID)
			require.NoError(t, err)
			assert.True(t, stored.EsAnulado)
			assert.Equal(t, 0, f.salidas(t), "stock is returned once")
		})
	}
}

func TestService_Images(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	imgs := []pago.ImagenUpload{
		{FileName: "recibo 1.txt", Content: strings.NewReader("uno")},
		{FileName: "../recibo2.txt", Content: strings.NewReader("dos")},
	}
	p, err := f.env.PagoSvc.Create(ctx, f.upload(f.carnet.ID, "25"), imgs, 1)
	require.NoError(t, err)
	require.Len(t, p.ImagenesPago, 2)
	assert.Len(t, storedFiles(t, f.env.Conf.Storage.LocalDir), 2)

	require.NoError(t, f.env.PagoSvc.RemoveImage(ctx, p.ImagenesPago[0].ID))
	assert.True(t, core.IsNotFound(f.env.PagoSvc.RemoveImage(ctx, p.ImagenesPago[0].ID)))

	n, err := f.env.PagoSvc.RemoveImages(ctx, []int{p.ImagenesPago[0].ID, p.ImagenesPago[1].ID})
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	_, err = f.env.PagoSvc.RemoveImages(ctx, nil)
	assert.True(t, core.IsValidation(err))

	got, err := f.env.PagoSvc.Get(ctx, p.ID)
	require.NoError(t, err)
	assert.Empty(t, got.ImagenesPago)
}
