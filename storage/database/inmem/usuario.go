package inmemdb

import (
	"context"
	"sort"
	"strings"
	"time"

	"github.com/volatiletech/null/v8"

	"github.com/manitascreativas/escuela/core"
	"github.com/manitascreativas/escuela/core/usuario"
)

type usuarioRepository struct {
	db *DB
}

var _ usuario.Repository = (*usuarioRepository)(nil) // interface compliance check

func NewUsuarioRepository(db *DB) usuario.Repository {
	return &usuarioRepository{db: db}
}

// withRol joins the role name; the caller holds the lock.
func (repo *usuarioRepository) withRol(usr usuario.Usuario) usuario.Usuario {
	if rol, ok := repo.db.roles.get(usr.RolID); ok {
		usr.Rol = rol.Nombre
		usr.EsAdmin = rol.EsAdmin
	}
	return usr
}

func (repo *usuarioRepository) query() []usuario.Usuario {
	usuarios := repo.db.usuarios.all()
	for i := range usuarios {
		usuarios[i] = repo.withRol(usuarios[i])
	}
	return usuarios
}

func isExcluded(usr usuario.Usuario, excludedUsers []usuario.Usuario) bool {
	for _, excl := range excludedUsers {
		if excl.ID == usr.ID {
			return true
		}
	}
	return false
}

func (repo *usuarioRepository) CheckUniqueness(_ context.Context, codigo, email string, excludedUsers ...usuario.Usuario) error {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	for _, usr := range repo.query() {
		if isExcluded(usr, excludedUsers) {
			continue
		}
		if strings.EqualFold(usr.CodigoUsuario, codigo) {
			return usuario.ErrCodigoExists
		}
		if strings.EqualFold(usr.Email, email) {
			return usuario.ErrEmailExists
		}
	}
	return nil
}

func (repo *usuarioRepository) Create(_ context.Context, usr usuario.Usuario) (usuario.Usuario, error) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	usr.ID = repo.db.usuarios.nextID()
	repo.db.usuarios.rows[usr.ID] = usr
	return repo.withRol(usr), nil
}

func (repo *usuarioRepository) QueryAll(_ context.Context, _ []core.DBOrdering) ([]usuario.Usuario, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	usuarios := repo.query()
	sort.SliceStable(usuarios, func(i, j int) bool {
		if usuarios[i].Apellidos != usuarios[j].Apellidos {
			return usuarios[i].Apellidos < usuarios[j].Apellidos
		}
		return usuarios[i].Nombres < usuarios[j].Nombres
	})
	return usuarios, nil
}

func (repo *usuarioRepository) GetByID(_ context.Context, id int) (usuario.Usuario, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	if usr, ok := repo.db.usuarios.get(id); ok {
		return repo.withRol(usr), nil
	}
	return usuario.Usuario{}, usuario.ErrNotFound
}

func (repo *usuarioRepository) find(match func(usuario.Usuario) bool) (usuario.Usuario, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	for _, usr := range repo.query() {
		if match(usr) {
			return usr, nil
		}
	}
	return usuario.Usuario{}, usuario.ErrNotFound
}

func (repo *usuarioRepository) GetByCodigo(_ context.Context, codigo string) (usuario.Usuario, error) {
	return repo.find(func(u usuario.Usuario) bool { return strings.EqualFold(u.CodigoUsuario, codigo) })
}

func (repo *usuarioRepository) GetByEmail(_ context.Context, email string) (usuario.Usuario, error) {
	return repo.find(func(u usuario.Usuario) bool { return strings.EqualFold(u.Email, email) })
}

func (repo *usuarioRepository) Update(_ context.Context, usr usuario.Usuario) (usuario.Usuario, error) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	if _, ok := repo.db.usuarios.get(usr.ID); !ok {
		return usuario.Usuario{}, usuario.ErrNotFound
	}
	repo.db.usuarios.rows[usr.ID] = usr
	return repo.withRol(usr), nil
}

func (repo *usuarioRepository) SetLastLogin(_ context.Context, id int, at time.Time) error {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	usr, ok := repo.db.usuarios.get(id)
	if !ok {
		return usuario.ErrNotFound
	}
	usr.LastLogin = null.TimeFrom(at.UTC())
	repo.db.usuarios.rows[id] = usr
	return nil
}

func (repo *usuarioRepository) Delete(_ context.Context, id int) error {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	if _, ok := repo.db.usuarios.get(id); !ok {
		return usuario.ErrNotFound
	}
	delete(repo.db.usuarios.rows, id)
	return nil
}

func (repo *usuarioRepository) QueryRoles(_ context.Context) ([]usuario.Rol, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()
	return repo.db.roles.all(), nil
}

func (repo *usuarioRepository) GetRolByNombre(_ context.Context, nombre string) (usuario.Rol, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	found := repo.db.roles.filter(func(r usuario.Rol) bool { return strings.EqualFold(r.Nombre, nombre) })
	if len(found) == 0 {
		return usuario.Rol{}, usuario.ErrRolNotFound
	}
	return found[0], nil
}
