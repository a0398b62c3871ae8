package core

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestOrderByClause(t *testing.T) {
	allowed := map[string]string{
		"primerApellido": "primer_apellido",
		"codigoUsuario":  "u.codigo_usuario",
	}
	fallback := "id ASC"

	tests := []struct {
		name     string
		ordering []DBOrdering
		want     string
	}{
		{name: "empty", want: fallback},
		{
			name:     "unknown fields are dropped",
			ordering: []DBOrdering{{Field: "password"}, {Field: "primer_apellido", Ascending: true}},
			want:     fallback,
		},
		{
			name:     "mapped and quoted",
			ordering: []DBOrdering{{Field: "primerApellido", Ascending: true}},
			want:     `"primer_apellido" ASC`,
		},
		{
			name:     "qualified columns",
			ordering: []DBOrdering{{Field: "codigoUsuario"}, {Field: "x"}, {Field: "primerApellido", Ascending: true}},
			want:     `"u"."codigo_usuario" DESC, "primer_apellido" ASC`,
		},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, OrderByClause(tc.ordering, allowed, fallback))
		})
	}
}
