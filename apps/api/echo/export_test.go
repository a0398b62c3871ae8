package echoapi

import "github.com/manitascreativas/escuela/core/usuario"

// TokenFor exposes the token generation to the tests.
func (s *Server) TokenFor(usr usuario.Usuario) (string, error) {
	return s.auth.TokenFor(usr)
}

func (s *Server) GenerateToken(claims *Claims) (string, error) {
	return s.auth.GenerateToken(claims)
}
