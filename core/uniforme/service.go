package uniforme

import (
	"bytes"
	"context"
	"encoding/base64"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/manitascreativas/escuela/core"
	"github.com/manitascreativas/escuela/core/rubro"
)

const imagesFolder = "prendas"

var (
	// errors
	ErrPrendaNotFound       = core.NewNotFoundError("prenda uniforme not found")
	ErrEntradaNotFound      = core.NewNotFoundError("entrada uniforme not found")
	ErrEntradaEliminada     = errors.New("entrada uniforme is deleted")
	ErrRubroDetalleNotFound = core.NewNotFoundError("rubro uniforme detalle not found")
	ErrRubroDetalleExists   = errors.New("this garment is already linked to the rubro")
	errMotivoRequired       = errors.New("motivoEliminacion is required")
)

type (
	Repository interface {
		QueryPrendas(ctx context.Context, filter PrendaFilter) ([]PrendaUniforme, error)
		GetPrenda(ctx context.Context, id int, exec ...core.DBExecutor) (PrendaUniforme, error)
		PrendaExists(ctx context.Context, id int) (bool, error)
		CreatePrenda(ctx context.Context, p PrendaUniforme, exec ...core.DBExecutor) (PrendaUniforme, error)
		UpdatePrenda(ctx context.Context, p PrendaUniforme, exec ...core.DBExecutor) (PrendaUniforme, error)
		// AddStock increments the entradas and salidas counters of the garment.
		AddStock(ctx context.Context, id, entradas, salidas int, exec ...core.DBExecutor) error
		QueryPrendaImagenes(ctx context.Context, prendaIDs []int) ([]PrendaImagen, error)
		CreatePrendaImagen(ctx context.Context, img PrendaImagen, exec ...core.DBExecutor) (PrendaImagen, error)

		QueryEntradas(ctx context.Context, filter EntradaFilter) ([]EntradaUniforme, error)
		GetEntrada(ctx context.Context, id int, exec ...core.DBExecutor) (EntradaUniforme, error)
		QueryEntradaDetalles(ctx context.Context, entradaIDs []int, exec ...core.DBExecutor) ([]EntradaDetalle, error)
		CreateEntrada(ctx context.Context, e EntradaUniforme, exec ...core.DBExecutor) (EntradaUniforme, error)
		// UpdateEntrada only writes a batch that is not deleted yet; ErrEntradaEliminada otherwise.
		UpdateEntrada(ctx context.Context, e EntradaUniforme, exec ...core.DBExecutor) (EntradaUniforme, error)
		CreateEntradaDetalle(ctx context.Context, d EntradaDetalle, exec ...core.DBExecutor) (EntradaDetalle, error)
		DeleteEntradaDetalles(ctx context.Context, entradaID int, exec ...core.DBExecutor) error

		QueryRubroDetalles(ctx context.Context, filter RubroDetalleFilter) ([]RubroUniformeDetalle, error)
		GetRubroDetalle(ctx context.Context, id int, exec ...core.DBExecutor) (RubroUniformeDetalle, error)
		// RubroDetalleExists only looks at non-deleted rows.
		RubroDetalleExists(ctx context.Context, rubroID, prendaID, excludedID int) (bool, error)
		CreateRubroDetalle(ctx context.Context, d RubroUniformeDetalle) (RubroUniformeDetalle, error)
		UpdateRubroDetalle(ctx context.Context, d RubroUniformeDetalle) (RubroUniformeDetalle, error)
	}

	Service struct {
		repo      Repository
		rubroRepo rubro.Repository
		tx        core.TxRunner
		files     core.FileStore
	}
)

func NewService(repo Repository, rubroRepo rubro.Repository, tx core.TxRunner, files core.FileStore) *Service {
	return &Service{repo: repo, rubroRepo: rubroRepo, tx: tx, files: files}
}

// Prendas

func (svc *Service) withImages(ctx context.Context, prendas []PrendaUniforme) ([]PrendaUniforme, error) {
	if len(prendas) == 0 {
		return prendas, nil
	}
	ids := make([]int, 0, len(prendas))
	for _, p := range prendas {
		ids = append(ids, p.ID)
	}
	imgs, err := svc.repo.QueryPrendaImagenes(ctx, ids)
	if err != nil {
		return nil, err
	}
	byPrenda := make(map[int][]PrendaImagen)
	for _, img := range imgs {
		byPrenda[img.PrendaUniformeID] = append(byPrenda[img.PrendaUniformeID], img)
	}
	for i := range prendas {
		prendas[i].ImagenesPrenda = byPrenda[prendas[i].ID]
		if prendas[i].ImagenesPrenda == nil {
			prendas[i].ImagenesPrenda = []PrendaImagen{}
		}
	}
	return prendas, nil
}

func (svc *Service) ListPrendas(ctx context.Context, filter PrendaFilter) ([]PrendaUniforme, error) {
	prendas, err := svc.repo.QueryPrendas(ctx, filter)
	if err != nil {
		return nil, err
	}
	return svc.withImages(ctx, prendas)
}

func (svc *Service) ListPrendasSimple(ctx context.Context) ([]PrendaSimple, error) {
	prendas, err := svc.repo.QueryPrendas(ctx, PrendaFilter{})
	if err != nil {
		return nil, err
	}
	list := make([]PrendaSimple, 0, len(prendas))
	for _, p := range prendas {
		list = append(list, p.Simple())
	}
	return list, nil
}

func (svc *Service) GetPrenda(ctx context.Context, id int) (PrendaUniforme, error) {
	p, err := svc.repo.GetPrenda(ctx, id)
	if err != nil {
		return PrendaUniforme{}, core.NotFoundWithID(err, "PrendaUniforme", id)
	}
	withImgs, err := svc.withImages(ctx, []PrendaUniforme{p})
	if err != nil {
		return PrendaUniforme{}, err
	}
	return withImgs[0], nil
}

func (svc *Service) PrendaExists(ctx context.Context, id int) (bool, error) {
	return svc.repo.PrendaExists(ctx, id)
}

// storeImages saves the decoded images through the file store and returns their URLs.
func (svc *Service) storeImages(ctx context.Context, imgs []ImagenData) ([]string, error) {
	urls := make([]string, 0, len(imgs))
	for _, img := range imgs {
		content, err := base64.StdEncoding.DecodeString(img.Base64Content)
		if err != nil {
			return nil, core.NewValidationError(nil, core.FieldError{Field: "base64Content", Error: "invalid base64 content"})
		}
		name := img.FileName
		if name == "" {
			name = uuid.New().String()
		}
		stored, err := svc.files.Save(ctx, imagesFolder, name, bytes.NewReader(content))
		if err != nil {
			return nil, err
		}
		urls = append(urls, stored.URL)
	}
	return urls, nil
}

func (svc *Service) CreatePrenda(ctx context.Context, data PrendaData, usuarioID int) (PrendaUniforme, error) {
	urls, err := svc.storeImages(ctx, data.Imagenes)
	if err != nil {
		return PrendaUniforme{}, err
	}

	var created PrendaUniforme
	err = svc.tx.RunInTx(ctx, func(exec core.DBExecutor) error {
		var err error
		created, err = svc.repo.CreatePrenda(ctx, PrendaUniforme{
			Descripcion:       data.Descripcion,
			Sexo:              data.Sexo,
			Talla:             data.Talla,
			Precio:            core.RoundMoney(data.Precio),
			ExistenciaInicial: data.ExistenciaInicial,
			Notas:             nullString(data.Notas),
			Auditoria:         Auditoria{FechaCreacion: time.Now().UTC(), UsuarioCreacionID: usuarioID},
		}, exec)
		if err != nil {
			return err
		}
		for _, url := range urls {
			if _, err := svc.repo.CreatePrendaImagen(ctx, PrendaImagen{PrendaUniformeID: created.ID, Imagen: url}, exec); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return PrendaUniforme{}, err
	}
	return svc.GetPrenda(ctx, created.ID)
}

func (svc *Service) UpdatePrenda(ctx context.Context, id int, data PrendaData, usuarioID int) (PrendaUniforme, error) {
	p, err := svc.GetPrenda(ctx, id)
	if err != nil {
		return PrendaUniforme{}, err
	}
	urls, err := svc.storeImages(ctx, data.Imagenes)
	if err != nil {
		return PrendaUniforme{}, err
	}

	p.Descripcion = data.Descripcion
	p.Sexo = data.Sexo
	p.Talla = data.Talla
	p.Precio = core.RoundMoney(data.Precio)
	p.ExistenciaInicial = data.ExistenciaInicial
	p.Notas = nullString(data.Notas)
	p.touch(usuarioID, time.Now().UTC())

	err = svc.tx.RunInTx(ctx, func(exec core.DBExecutor) error {
		if _, err := svc.repo.UpdatePrenda(ctx, p, exec); err != nil {
			return err
		}
		for _, url := range urls {
			if _, err := svc.repo.CreatePrendaImagen(ctx, PrendaImagen{PrendaUniformeID: id, Imagen: url}, exec); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return PrendaUniforme{}, err
	}
	return svc.GetPrenda(ctx, id)
}

// SoftDeletePrenda marks the garment deleted; false means it does not exist.
func (svc *Service) SoftDeletePrenda(ctx context.Context, id int, motivo string, usuarioID int) (bool, error) {
	if motivo = core.CleanString(motivo); motivo == "" {
		return false, core.NewValidationError(errMotivoRequired, core.FieldError{Field: "motivoEliminacion", Error: errMotivoRequired.Error()})
	}
	p, err := svc.repo.GetPrenda(ctx, id)
	if err == ErrPrendaNotFound {
		return false, nil
	} else if err != nil {
		return false, err
	}
	p.markDeleted(motivo, usuarioID, time.Now().UTC())
	if _, err := svc.repo.UpdatePrenda(ctx, p); err != nil {
		return false, err
	}
	return true, nil
}

// UpdateStock adds the given deltas to the garment counters.
func (svc *Service) UpdateStock(ctx context.Context, id, entradas, salidas int) error {
	if _, err := svc.repo.GetPrenda(ctx, id); err != nil {
		return core.NotFoundWithID(err, "PrendaUniforme", id)
	}
	return svc.repo.AddStock(ctx, id, entradas, salidas)
}

// Entradas

func (svc *Service) withDetalles(ctx context.Context, entradas []EntradaUniforme, exec ...core.DBExecutor) ([]EntradaUniforme, error) {
	if len(entradas) == 0 {
		return entradas, nil
	}
	ids := make([]int, 0, len(entradas))
	for _, e := range entradas {
		ids = append(ids, e.ID)
	}
	detalles, err := svc.repo.QueryEntradaDetalles(ctx, ids, exec...)
	if err != nil {
		return nil, err
	}
	byEntrada := make(map[int][]EntradaDetalle)
	for _, d := range detalles {
		byEntrada[d.EntradaUniformeID] = append(byEntrada[d.EntradaUniformeID], d)
	}
	for i := range entradas {
		entradas[i].EntradaUniformeDetalles = byEntrada[entradas[i].ID]
		if entradas[i].EntradaUniformeDetalles == nil {
			entradas[i].EntradaUniformeDetalles = []EntradaDetalle{}
		}
	}
	return entradas, nil
}

func (svc *Service) ListEntradas(ctx context.Context, filter EntradaFilter) ([]EntradaUniforme, error) {
	if !filter.From.IsZero() && !filter.To.IsZero() && filter.To.Before(filter.From) {
		return nil, core.NewArgumentError("endDate must not precede startDate")
	}
	entradas, err := svc.repo.QueryEntradas(ctx, filter)
	if err != nil {
		return nil, err
	}
	return svc.withDetalles(ctx, entradas)
}

func (svc *Service) GetEntrada(ctx context.Context, id int) (EntradaUniforme, error) {
	e, err := svc.repo.GetEntrada(ctx, id)
	if err != nil {
		return EntradaUniforme{}, core.NotFoundWithID(err, "EntradaUniforme", id)
	}
	withDets, err := svc.withDetalles(ctx, []EntradaUniforme{e})
	if err != nil {
		return EntradaUniforme{}, err
	}
	return withDets[0], nil
}

// applyDetalles stores the details of the batch and adds their quantities to the garments entradas.
func (svc *Service) applyDetalles(ctx context.Context, entradaID int, detalles []EntradaDetalleData, exec core.DBExecutor) error {
	for _, d := range detalles {
		if _, err := svc.repo.GetPrenda(ctx, d.PrendaUniformeID, exec); err != nil {
			if err == ErrPrendaNotFound {
				return core.NewArgumentError("PrendaUniforme with ID %d not found", d.PrendaUniformeID)
			}
			return err
		}
		_, err := svc.repo.CreateEntradaDetalle(ctx, EntradaDetalle{
			EntradaUniformeID: entradaID,
			PrendaUniformeID:  d.PrendaUniformeID,
			Cantidad:          d.Cantidad,
			Subtotal:          core.RoundMoney(d.Subtotal),
		}, exec)
		if err != nil {
			return err
		}
		if err := svc.repo.AddStock(ctx, d.PrendaUniformeID, d.Cantidad, 0, exec); err != nil {
			return err
		}
	}
	return nil
}

// revertDetalles takes the quantities of the current details back from the garments entradas.
func (svc *Service) revertDetalles(ctx context.Context, entradaID int, exec core.DBExecutor) error {
	detalles, err := svc.repo.QueryEntradaDetalles(ctx, []int{entradaID}, exec)
	if err != nil {
		return err
	}
	for _, d := range detalles {
		if err := svc.repo.AddStock(ctx, d.PrendaUniformeID, -d.Cantidad, 0, exec); err != nil {
			return err
		}
	}
	return nil
}

func (svc *Service) CreateEntrada(ctx context.Context, data EntradaData, usuarioID int) (EntradaUniforme, error) {
	var created EntradaUniforme
	err := svc.tx.RunInTx(ctx, func(exec core.DBExecutor) error {
		var err error
		created, err = svc.repo.CreateEntrada(ctx, EntradaUniforme{
			FechaEntrada: data.FechaEntrada.UTC(),
			Notas:        nullString(data.Notas),
			Total:        data.Total(),
			Auditoria:    Auditoria{FechaCreacion: time.Now().UTC(), UsuarioCreacionID: usuarioID},
		}, exec)
		if err != nil {
			return err
		}
		return svc.applyDetalles(ctx, created.ID, data.Detalles, exec)
	})
	if err != nil {
		return EntradaUniforme{}, err
	}
	return svc.GetEntrada(ctx, created.ID)
}

// UpdateEntrada reverts the stock of the current details, replaces them and applies the new ones.
func (svc *Service) UpdateEntrada(ctx context.Context, id int, data EntradaData, usuarioID int) (EntradaUniforme, error) {
	e, err := svc.repo.GetEntrada(ctx, id)
	if err != nil {
		return EntradaUniforme{}, core.NotFoundWithID(err, "EntradaUniforme", id)
	}
	if e.EsEliminado {
		return EntradaUniforme{}, core.NewArgumentError("EntradaUniforme with ID %d is deleted", id)
	}

	e.FechaEntrada = data.FechaEntrada.UTC()
	e.Notas = nullString(data.Notas)
	e.Total = data.Total()
	e.touch(usuarioID, time.Now().UTC())

	err = svc.tx.RunInTx(ctx, func(exec core.DBExecutor) error {
		if _, err := svc.repo.UpdateEntrada(ctx, e, exec); err != nil {
			if err == ErrEntradaEliminada {
				return core.NewArgumentError("EntradaUniforme with ID %d is deleted", id)
			}
			return err
		}
		if err := svc.revertDetalles(ctx, id, exec); err != nil {
			return err
		}
		if err := svc.repo.DeleteEntradaDetalles(ctx, id, exec); err != nil {
			return err
		}
		return svc.applyDetalles(ctx, id, data.Detalles, exec)
	})
	if err != nil {
		return EntradaUniforme{}, err
	}
	return svc.GetEntrada(ctx, id)
}

// SoftDeleteEntrada reverts the stock of the batch and marks it deleted; false means it does not exist.
func (svc *Service) SoftDeleteEntrada(ctx context.Context, id int, motivo string, usuarioID int) (bool, error) {
	if motivo = core.CleanString(motivo); motivo == "" {
		return false, core.NewValidationError(errMotivoRequired, core.FieldError{Field: "motivoEliminacion", Error: errMotivoRequired.Error()})
	}
	e, err := svc.repo.GetEntrada(ctx, id)
	if err == ErrEntradaNotFound {
		return false, nil
	} else if err != nil {
		return false, err
	}
	if e.EsEliminado {
		return true, nil
	}

	e.markDeleted(motivo, usuarioID, time.Now().UTC())
	err = svc.tx.RunInTx(ctx, func(exec core.DBExecutor) error {
		if _, err := svc.repo.UpdateEntrada(ctx, e, exec); err != nil {
			return err
		}
		return svc.revertDetalles(ctx, id, exec)
	})
	if err == ErrEntradaEliminada {
		// deleted by a concurrent request
		return true, nil
	}
	return err == nil, err
}

// Rubro uniforme detalles

func (svc *Service) ListRubroDetalles(ctx context.Context, filter RubroDetalleFilter) ([]RubroUniformeDetalle, error) {
	return svc.repo.QueryRubroDetalles(ctx, filter)
}

func (svc *Service) GetRubroDetalle(ctx context.Context, id int) (RubroUniformeDetalle, error) {
	d, err := svc.repo.GetRubroDetalle(ctx, id)
	return d, core.NotFoundWithID(err, "RubroUniformeDetalle", id)
}

func (svc *Service) RubroDetalleExists(ctx context.Context, rubroID, prendaID int) (bool, error) {
	return svc.repo.RubroDetalleExists(ctx, rubroID, prendaID, 0)
}

func (svc *Service) checkRubroDetalle(ctx context.Context, data RubroDetalleData, excludedID int) error {
	if _, err := svc.rubroRepo.GetByID(ctx, data.RubroID); err != nil {
		if err == rubro.ErrNotFound {
			return core.NewArgumentError("Rubro with ID %d not found", data.RubroID)
		}
		return err
	}
	if _, err := svc.repo.GetPrenda(ctx, data.PrendaUniformeID); err != nil {
		if err == ErrPrendaNotFound {
			return core.NewArgumentError("PrendaUniforme with ID %d not found", data.PrendaUniformeID)
		}
		return err
	}
	exists, err := svc.repo.RubroDetalleExists(ctx, data.RubroID, data.PrendaUniformeID, excludedID)
	if err != nil {
		return err
	}
	if exists {
		return core.NewValidationError(ErrRubroDetalleExists)
	}
	return nil
}

func (svc *Service) CreateRubroDetalle(ctx context.Context, data RubroDetalleData, usuarioID int) (RubroUniformeDetalle, error) {
	if err := svc.checkRubroDetalle(ctx, data, 0); err != nil {
		return RubroUniformeDetalle{}, err
	}
	created, err := svc.repo.CreateRubroDetalle(ctx, RubroUniformeDetalle{
		RubroID:          data.RubroID,
		PrendaUniformeID: data.PrendaUniformeID,
		Auditoria:        Auditoria{FechaCreacion: time.Now().UTC(), UsuarioCreacionID: usuarioID},
	})
	if err != nil {
		return RubroUniformeDetalle{}, err
	}
	return svc.GetRubroDetalle(ctx, created.ID)
}

func (svc *Service) UpdateRubroDetalle(ctx context.Context, id int, data RubroDetalleData, usuarioID int) (RubroUniformeDetalle, error) {
	d, err := svc.GetRubroDetalle(ctx, id)
	if err != nil {
		return RubroUniformeDetalle{}, err
	}
	if err := svc.checkRubroDetalle(ctx, data, id); err != nil {
		return RubroUniformeDetalle{}, err
	}
	d.RubroID = data.RubroID
	d.PrendaUniformeID = data.PrendaUniformeID
	d.touch(usuarioID, time.Now().UTC())
	if _, err := svc.repo.UpdateRubroDetalle(ctx, d); err != nil {
		return RubroUniformeDetalle{}, err
	}
	return svc.GetRubroDetalle(ctx, id)
}

func (svc *Service) SoftDeleteRubroDetalle(ctx context.Context, id int, motivo string, usuarioID int) (bool, error) {
	if motivo = core.CleanString(motivo); motivo == "" {
		motivo = "Eliminado"
	}
	d, err := svc.repo.GetRubroDetalle(ctx, id)
	if err == ErrRubroDetalleNotFound {
		return false, nil
	} else if err != nil {
		return false, err
	}
	d.markDeleted(motivo, usuarioID, time.Now().UTC())
	if _, err := svc.repo.UpdateRubroDetalle(ctx, d); err != nil {
		return false, err
	}
	return true, nil
}
