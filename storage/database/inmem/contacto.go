package inmemdb

import (
	"context"
	"sort"

	"github.com/manitascreativas/escuela/core"
	"github.com/manitascreativas/escuela/core/contacto"
)

type contactoRepository struct {
	db *DB
}

var _ contacto.Repository = (*contactoRepository)(nil) // interface compliance check

func NewContactoRepository(db *DB) contacto.Repository {
	return &contactoRepository{db: db}
}

func (repo *contactoRepository) QueryAll(_ context.Context) ([]contacto.Contacto, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	contactos := repo.db.contactos.all()
	sort.SliceStable(contactos, func(i, j int) bool { return contactos[i].Nombre < contactos[j].Nombre })
	return contactos, nil
}

func (repo *contactoRepository) GetByID(_ context.Context, id int) (contacto.Contacto, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	if c, ok := repo.db.contactos.get(id); ok {
		return c, nil
	}
	return contacto.Contacto{}, contacto.ErrNotFound
}

func (repo *contactoRepository) Create(_ context.Context, c contacto.Contacto) (contacto.Contacto, error) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	c.ID = repo.db.contactos.nextID()
	repo.db.contactos.rows[c.ID] = c
	return c, nil
}

func (repo *contactoRepository) Update(_ context.Context, c contacto.Contacto) (contacto.Contacto, error) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	if _, ok := repo.db.contactos.get(c.ID); !ok {
		return contacto.Contacto{}, contacto.ErrNotFound
	}
	repo.db.contactos.rows[c.ID] = c
	return c, nil
}

func (repo *contactoRepository) Delete(_ context.Context, id int) error {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	if _, ok := repo.db.contactos.get(id); !ok {
		return contacto.ErrNotFound
	}
	delete(repo.db.contactos.rows, id)
	for lid, link := range repo.db.links.rows {
		if link.ContactoID == id {
			delete(repo.db.links.rows, lid)
		}
	}
	return nil
}

// findLink returns the row id of the link; the caller holds the lock.
func (repo *contactoRepository) findLink(alumnoID, contactoID int) (int, bool) {
	for id, link := range repo.db.links.rows {
		if link.AlumnoID == alumnoID && link.ContactoID == contactoID {
			return id, true
		}
	}
	return 0, false
}

// withContacto joins the contact; the caller holds the lock.
func (repo *contactoRepository) withContacto(link contacto.AlumnoContacto) contacto.AlumnoContacto {
	link.Contacto, _ = repo.db.contactos.get(link.ContactoID)
	return link
}

func (repo *contactoRepository) QueryLinks(_ context.Context, alumnoID int) ([]contacto.AlumnoContacto, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	links := make([]contacto.AlumnoContacto, 0)
	for _, link := range repo.db.links.filter(func(l contacto.AlumnoContacto) bool { return l.AlumnoID == alumnoID }) {
		links = append(links, repo.withContacto(link))
	}
	sort.SliceStable(links, func(i, j int) bool { return links[i].Contacto.Nombre < links[j].Contacto.Nombre })
	return links, nil
}

func (repo *contactoRepository) GetLink(_ context.Context, alumnoID, contactoID int) (contacto.AlumnoContacto, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	id, ok := repo.findLink(alumnoID, contactoID)
	if !ok {
		return contacto.AlumnoContacto{}, contacto.ErrLinkNotFound
	}
	return repo.withContacto(repo.db.links.rows[id]), nil
}

func (repo *contactoRepository) CreateLink(_ context.Context, link contacto.AlumnoContacto) error {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	if _, ok := repo.findLink(link.AlumnoID, link.ContactoID); ok {
		return core.NewValidationError(contacto.ErrLinkExists)
	}
	link.Contacto = contacto.Contacto{}
	repo.db.links.rows[repo.db.links.nextID()] = link
	return nil
}

func (repo *contactoRepository) UpdateLink(_ context.Context, link contacto.AlumnoContacto) error {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	id, ok := repo.findLink(link.AlumnoID, link.ContactoID)
	if !ok {
		return contacto.ErrLinkNotFound
	}
	stored := repo.db.links.rows[id]
	stored.Parentesco = link.Parentesco
	repo.db.links.rows[id] = stored
	return nil
}

func (repo *contactoRepository) DeleteLink(_ context.Context, alumnoID, contactoID int) error {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	id, ok := repo.findLink(alumnoID, contactoID)
	if !ok {
		return contacto.ErrLinkNotFound
	}
	delete(repo.db.links.rows, id)
	return nil
}
