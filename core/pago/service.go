package pago

import (
	"context"
	"errors"
	"path"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/volatiletech/null/v8"

	"github.com/manitascreativas/escuela/core"
	"github.com/manitascreativas/escuela/core/alumno"
	"github.com/manitascreativas/escuela/core/rubro"
	"github.com/manitascreativas/escuela/core/uniforme"
)

const imagesFolder = "pagos"

var (
	// errors
	ErrNotFound       = core.NewNotFoundError("pago not found")
	ErrImagenNotFound = core.NewNotFoundError("pago imagen not found")
	ErrAnulado        = errors.New("pago is voided")
	errAlreadyVoided  = errors.New("the payment is already voided")
	errDetailsSum     = errors.New("the sum of the uniform details must equal monto")
	errDetailsMissing = errors.New("pagoDetalles are required for uniform payments")
)

type (
	Repository interface {
		GetByID(ctx context.Context, id int, exec ...core.DBExecutor) (Pago, error)
		Create(ctx context.Context, p Pago, exec ...core.DBExecutor) (Pago, error)
		// Update only writes a payment that is not voided yet; ErrAnulado otherwise.
		Update(ctx context.Context, p Pago, exec ...core.DBExecutor) (Pago, error)
		// GetRead and QueryRead join the alumno, grado, sede, rubro and creating user names.
		GetRead(ctx context.Context, id int) (PagoRead, error)
		QueryRead(ctx context.Context, filter ReadFilter) ([]PagoRead, error)
		// QueryImagenes skips the images marked deleted.
		QueryImagenes(ctx context.Context, pagoIDs []int) ([]PagoImagen, error)
		CreateImagen(ctx context.Context, img PagoImagen, exec ...core.DBExecutor) (PagoImagen, error)
		// MarkImagenesEliminadas returns the number of images affected.
		MarkImagenesEliminadas(ctx context.Context, ids []int) (int, error)
		QueryDetalles(ctx context.Context, pagoIDs []int, exec ...core.DBExecutor) ([]PagoDetalle, error)
		CreateDetalle(ctx context.Context, d PagoDetalle, exec ...core.DBExecutor) (PagoDetalle, error)
		DeleteDetalles(ctx context.Context, pagoID int, exec ...core.DBExecutor) error
	}

	Service struct {
		repo         Repository
		alumnoRepo   alumno.Repository
		rubroRepo    rubro.Repository
		uniformeRepo uniforme.Repository
		tx           core.TxRunner
		files        core.FileStore
		logger       core.Logger
	}
)

func NewService(
	repo Repository,
	alumnoRepo alumno.Repository,
	rubroRepo rubro.Repository,
	uniformeRepo uniforme.Repository,
	tx core.TxRunner,
	files core.FileStore,
	logger core.Logger,
) *Service {
	return &Service{
		repo:         repo,
		alumnoRepo:   alumnoRepo,
		rubroRepo:    rubroRepo,
		uniformeRepo: uniformeRepo,
		tx:           tx,
		files:        files,
		logger:       logger,
	}
}

func (svc *Service) withRelations(ctx context.Context, pagos []PagoRead) ([]PagoRead, error) {
	if len(pagos) == 0 {
		return pagos, nil
	}
	ids := make([]int, 0, len(pagos))
	for _, p := range pagos {
		ids = append(ids, p.ID)
	}
	imgs, err := svc.repo.QueryImagenes(ctx, ids)
	if err != nil {
		return nil, err
	}
	detalles, err := svc.repo.QueryDetalles(ctx, ids)
	if err != nil {
		return nil, err
	}
	byPagoImgs := make(map[int][]PagoImagen)
	for _, img := range imgs {
		byPagoImgs[img.PagoID] = append(byPagoImgs[img.PagoID], img)
	}
	byPagoDets := make(map[int][]PagoDetalle)
	for _, d := range detalles {
		byPagoDets[d.PagoID] = append(byPagoDets[d.PagoID], d)
	}

	for i := range pagos {
		p := &pagos[i]
		p.ImagenesPago = byPagoImgs[p.ID]
		if p.ImagenesPago == nil {
			p.ImagenesPago = []PagoImagen{}
		}
		p.PagoDetalles = byPagoDets[p.ID]
		if p.PagoDetalles == nil {
			p.PagoDetalles = []PagoDetalle{}
		}
		p.TipoRubroDescripcion = rubro.TipoNombre(p.TipoRubro)
		p.MedioPagoDescripcion = MedioNombre(p.MedioPago)
	}
	return pagos, nil
}

func (svc *Service) list(ctx context.Context, filter ReadFilter) ([]PagoRead, error) {
	pagos, err := svc.repo.QueryRead(ctx, filter)
	if err != nil {
		return nil, err
	}
	return svc.withRelations(ctx, pagos)
}

func (svc *Service) Get(ctx context.Context, id int) (PagoRead, error) {
	p, err := svc.repo.GetRead(ctx, id)
	if err != nil {
		return PagoRead{}, core.NotFoundWithID(err, "Payment", id)
	}
	withRels, err := svc.withRelations(ctx, []PagoRead{p})
	if err != nil {
		return PagoRead{}, err
	}
	return withRels[0], nil
}

// ListForEdit returns the payments of a school year, narrowed by grade and/or student.
func (svc *Service) ListForEdit(ctx context.Context, cicloEscolar, gradoID, alumnoID int) ([]PagoRead, error) {
	if cicloEscolar <= 0 {
		return nil, core.NewArgumentError("cicloEscolar is required")
	}
	if gradoID <= 0 && alumnoID <= 0 {
		return nil, core.NewArgumentError("gradoId or alumnoId is required")
	}
	return svc.list(ctx, ReadFilter{CicloEscolar: cicloEscolar, GradoID: gradoID, AlumnoID: alumnoID, NewestFirst: true})
}

// ListByAlumno returns the payments of the student, newest first.
func (svc *Service) ListByAlumno(ctx context.Context, alumnoID int) ([]PagoRead, error) {
	if _, err := svc.alumnoRepo.GetByID(ctx, alumnoID); err != nil {
		return nil, core.NotFoundWithID(err, "Alumno", alumnoID)
	}
	return svc.list(ctx, ReadFilter{AlumnoID: alumnoID, NewestFirst: true})
}

// Statement returns the payment history of the student in chronological order.
func (svc *Service) Statement(ctx context.Context, alumnoID int) ([]PagoRead, error) {
	if _, err := svc.alumnoRepo.GetByID(ctx, alumnoID); err != nil {
		return nil, core.NotFoundWithID(err, "Alumno", alumnoID)
	}
	return svc.list(ctx, ReadFilter{AlumnoID: alumnoID})
}

func (svc *Service) ListByRubro(ctx context.Context, rubroID int) ([]PagoRead, error) {
	if _, err := svc.rubroRepo.GetByID(ctx, rubroID); err != nil {
		return nil, core.NotFoundWithID(err, "Rubro", rubroID)
	}
	return svc.list(ctx, ReadFilter{RubroID: rubroID, NewestFirst: true})
}

// prepare checks the references of the upload and fills the payment fields from it.
func (svc *Service) prepare(ctx context.Context, p *Pago, data PagoUpload) (rubro.Rubro, error) {
	if _, err := svc.alumnoRepo.GetByID(ctx, data.AlumnoID); err != nil {
		if err == alumno.ErrNotFound {
			return rubro.Rubro{}, core.NewArgumentError("Alumno with ID %d not found", data.AlumnoID)
		}
		return rubro.Rubro{}, err
	}
	r, err := svc.rubroRepo.GetByID(ctx, data.RubroID)
	if err != nil {
		if err == rubro.ErrNotFound {
			return rubro.Rubro{}, core.NewArgumentError("Rubro with ID %d not found", data.RubroID)
		}
		return rubro.Rubro{}, err
	}

	p.CicloEscolar = data.CicloEscolar
	p.Fecha = data.Fecha.UTC()
	p.Monto = core.RoundMoney(data.Monto)
	p.MedioPago = data.MedioPago
	p.Notas = null.NewString(data.Notas, data.Notas != "")
	p.AlumnoID = data.AlumnoID
	p.RubroID = data.RubroID
	p.EsColegiatura = data.EsColegiatura || r.EsColegiatura
	p.EsPagoDeCarnet = data.EsPagoDeCarnet || r.EsPagoDeCarnet
	p.EsPagoDeTransporte = data.EsPagoDeTransporte || r.EsPagoDeTransporte
	p.EsPagoDeUniforme = data.EsPagoDeUniforme || r.EsPagoDeUniforme
	p.MesColegiatura = null.Int{}
	p.AnioColegiatura = null.Int{}
	p.EstadoCarnet = null.String{}

	switch {
	case p.EsColegiatura:
		if data.MesColegiatura == 0 {
			return r, core.NewValidationError(nil, core.FieldError{Field: "mesColegiatura", Error: "mesColegiatura is required for tuition payments"})
		}
		if data.AnioColegiatura == 0 {
			return r, core.NewValidationError(nil, core.FieldError{Field: "anioColegiatura", Error: "anioColegiatura is required for tuition payments"})
		}
		p.MesColegiatura = null.IntFrom(data.MesColegiatura)
		p.AnioColegiatura = null.IntFrom(data.AnioColegiatura)
	case p.EsPagoDeTransporte:
		// the transport month defaults to the payment date
		mes, anio := data.MesColegiatura, data.AnioColegiatura
		if mes == 0 {
			mes = int(p.Fecha.Month())
		}
		if anio == 0 {
			anio = p.Fecha.Year()
		}
		p.MesColegiatura = null.IntFrom(mes)
		p.AnioColegiatura = null.IntFrom(anio)
	}
	if p.EsPagoDeCarnet {
		estado := data.EstadoCarnet
		if estado == "" {
			estado = EstadoCarnetPagado
		}
		p.EstadoCarnet = null.StringFrom(estado)
	}

	if p.EsPagoDeUniforme {
		if len(data.PagoDetalles) == 0 {
			return r, core.NewValidationError(errDetailsMissing, core.FieldError{Field: "pagoDetalles", Error: errDetailsMissing.Error()})
		}
		sum := decimal.Zero
		for _, d := range data.PagoDetalles {
			sum = sum.Add(d.Subtotal())
		}
		if !core.RoundMoney(sum).Equal(p.Monto) {
			return r, core.NewValidationError(errDetailsSum, core.FieldError{Field: "pagoDetalles", Error: errDetailsSum.Error()})
		}
	}
	return r, nil
}

// applyDetalles stores the uniform details of the payment and takes the garments out of stock.
func (svc *Service) applyDetalles(ctx context.Context, p Pago, detalles []PagoDetalleData, exec core.DBExecutor) error {
	for _, d := range detalles {
		rd, err := svc.uniformeRepo.GetRubroDetalle(ctx, d.RubroUniformeDetalleID, exec)
		if err != nil {
			if err == uniforme.ErrRubroDetalleNotFound {
				return core.NewArgumentError("RubroUniformeDetalle with ID %d not found", d.RubroUniformeDetalleID)
			}
			return err
		}
		if rd.EsEliminado || rd.RubroID != p.RubroID {
			return core.NewArgumentError("RubroUniformeDetalle with ID %d does not belong to rubro %d", rd.ID, p.RubroID)
		}
		_, err = svc.repo.CreateDetalle(ctx, PagoDetalle{
			PagoID:                 p.ID,
			RubroUniformeDetalleID: rd.ID,
			PrecioUnitario:         core.RoundMoney(d.PrecioUnitario),
			Cantidad:               d.Cantidad,
			Subtotal:               d.Subtotal(),
		}, exec)
		if err != nil {
			return err
		}
		if err := svc.uniformeRepo.AddStock(ctx, rd.PrendaUniformeID, 0, d.Cantidad, exec); err != nil {
			return err
		}
	}
	return nil
}

// revertDetalles gives back to stock the garments taken by the payment.
func (svc *Service) revertDetalles(ctx context.Context, pagoID int, exec core.DBExecutor) error {
	detalles, err := svc.repo.QueryDetalles(ctx, []int{pagoID}, exec)
	if err != nil {
		return err
	}
	for _, d := range detalles {
		if err := svc.uniformeRepo.AddStock(ctx, d.PrendaUniformeID, 0, -d.Cantidad, exec); err != nil {
			return err
		}
	}
	return nil
}

// storeImages saves the receipt pictures; the keys are returned to clean up on failure.
func (svc *Service) storeImages(ctx context.Context, imgs []ImagenUpload) ([]core.StoredFile, error) {
	stored := make([]core.StoredFile, 0, len(imgs))
	for _, img := range imgs {
		name := path.Base(img.FileName)
		if name == "." || name == "/" {
			name = uuid.New().String()
		}
		f, err := svc.files.Save(ctx, imagesFolder, name, img.Content)
		if err != nil {
			svc.discardImages(stored)
			return nil, err
		}
		stored = append(stored, f)
	}
	return stored, nil
}

func (svc *Service) discardImages(stored []core.StoredFile) {
	for _, f := range stored {
		if err := svc.files.Delete(context.Background(), f.Key); err != nil {
			svc.logger.Warn("pago: could not delete stored image", err, map[string]interface{}{"key": f.Key})
		}
	}
}

func (svc *Service) saveImagenes(ctx context.Context, pagoID int, stored []core.StoredFile, exec core.DBExecutor) error {
	for _, f := range stored {
		if _, err := svc.repo.CreateImagen(ctx, PagoImagen{PagoID: pagoID, ImagenURL: f.URL}, exec); err != nil {
			return err
		}
	}
	return nil
}

func (svc *Service) Create(ctx context.Context, data PagoUpload, imgs []ImagenUpload, usuarioID int) (PagoRead, error) {
	p := Pago{FechaCreacion: time.Now().UTC(), UsuarioCreacionID: usuarioID}
	if _, err := svc.prepare(ctx, &p, data); err != nil {
		return PagoRead{}, err
	}
	stored, err := svc.storeImages(ctx, imgs)
	if err != nil {
		return PagoRead{}, err
	}

	err = svc.tx.RunInTx(ctx, func(exec core.DBExecutor) error {
		created, err := svc.repo.Create(ctx, p, exec)
		if err != nil {
			return err
		}
		p.ID = created.ID
		if p.EsPagoDeUniforme {
			if err := svc.applyDetalles(ctx, p, data.PagoDetalles, exec); err != nil {
				return err
			}
		}
		return svc.saveImagenes(ctx, p.ID, stored, exec)
	})
	if err != nil {
		svc.discardImages(stored)
		return PagoRead{}, err
	}
	return svc.Get(ctx, p.ID)
}

// Update edits a non-voided payment; the uniform details are replaced and the stock re-applied.
func (svc *Service) Update(ctx context.Context, id int, data PagoUpload, imgs []ImagenUpload, usuarioID int) (PagoRead, error) {
	p, err := svc.repo.GetByID(ctx, id)
	if err != nil {
		return PagoRead{}, core.NotFoundWithID(err, "Payment", id)
	}
	if p.EsAnulado {
		return PagoRead{}, core.NewArgumentError("Payment with ID %d is voided and cannot be edited", id)
	}
	if _, err := svc.prepare(ctx, &p, data); err != nil {
		return PagoRead{}, err
	}
	p.FechaActualizacion = null.TimeFrom(time.Now().UTC())
	p.UsuarioActualizacionID = null.IntFrom(usuarioID)

	stored, err := svc.storeImages(ctx, imgs)
	if err != nil {
		return PagoRead{}, err
	}

	err = svc.tx.RunInTx(ctx, func(exec core.DBExecutor) error {
		if _, err := svc.repo.Update(ctx, p, exec); err != nil {
			if err == ErrAnulado {
				return core.NewArgumentError("Payment with ID %d is voided and cannot be edited", id)
			}
			return err
		}
		if err := svc.revertDetalles(ctx, id, exec); err != nil {
			return err
		}
		if err := svc.repo.DeleteDetalles(ctx, id, exec); err != nil {
			return err
		}
		if p.EsPagoDeUniforme {
			if err := svc.applyDetalles(ctx, p, data.PagoDetalles, exec); err != nil {
				return err
			}
		}
		return svc.saveImagenes(ctx, id, stored, exec)
	})
	if err != nil {
		svc.discardImages(stored)
		return PagoRead{}, err
	}
	return svc.Get(ctx, id)
}

// Void cancels the payment and returns to stock the garments it took.
func (svc *Service) Void(ctx context.Context, id int, data VoidData, usuarioID int) (PagoRead, error) {
	p, err := svc.repo.GetByID(ctx, id)
	if err != nil {
		return PagoRead{}, core.NotFoundWithID(err, "Payment", id)
	}
	if p.EsAnulado {
		return PagoRead{}, core.NewValidationError(errAlreadyVoided)
	}

	now := time.Now().UTC()
	p.EsAnulado = true
	p.MotivoAnulacion = null.StringFrom(data.MotivoAnulacion)
	p.FechaAnulacion = null.TimeFrom(now)
	p.UsuarioAnulacionID = null.IntFrom(usuarioID)
	p.FechaActualizacion = null.TimeFrom(now)
	p.UsuarioActualizacionID = null.IntFrom(usuarioID)

	err = svc.tx.RunInTx(ctx, func(exec core.DBExecutor) error {
		if _, err := svc.repo.Update(ctx, p, exec); err != nil {
			if err == ErrAnulado {
				return core.NewValidationError(errAlreadyVoided)
			}
			return err
		}
		return svc.revertDetalles(ctx, id, exec)
	})
	if err != nil {
		return PagoRead{}, err
	}
	return svc.Get(ctx, id)
}

func (svc *Service) RemoveImage(ctx context.Context, id int) error {
	n, err := svc.repo.MarkImagenesEliminadas(ctx, []int{id})
	if err != nil {
		return err
	}
	if n == 0 {
		return core.NotFoundWithID(ErrImagenNotFound, "PagoImagen", id)
	}
	return nil
}

// RemoveImages marks the images deleted and returns how many were affected.
func (svc *Service) RemoveImages(ctx context.Context, ids []int) (int, error) {
	if len(ids) == 0 {
		return 0, core.NewArgumentError("ids are required")
	}
	return svc.repo.MarkImagenesEliminadas(ctx, ids)
}
