package echoapi_test

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/manitascreativas/escuela/core/escuela"
	"github.com/manitascreativas/escuela/tests"
)

func TestSedes(t *testing.T) {
	app := setup(t)
	school := testutil.CreateSchool(t, app.env.EscuelaRepo, "Primero")
	testutil.CreateAlumno(t, app.env.AlumnoRepo, school, "A-001", "Lucía", "Pérez")

	app.run(t, []httpTest{
		{
			name:     "no token",
			path:     "/sedes",
			wantCode: http.StatusUnauthorized,
			wantData: marshalObj(t, errMissingToken),
		},
		{
			name:     "list",
			path:     "/sedes",
			token:    app.opToken,
			wantData: marshalList(t, school.Sede),
		},
		{
			name:     "create without nombre",
			method:   http.MethodPost,
			path:     "/sedes",
			body:     []byte(`{"nombre": "   "}`),
			token:    app.opToken,
			wantCode: http.StatusBadRequest,
			wantData: []byte(`{"nombre": "this field is required"}`),
		},
		{
			name:     "create",
			method:   http.MethodPost,
			path:     "/sedes",
			body:     []byte(`{"nombre": " Sede  Norte ", "direccion": "Zona 18"}`),
			token:    app.opToken,
			wantCode: http.StatusCreated,
			wantData: []byte(`{"id": 2, "nombre": "Sede Norte", "direccion": "Zona 18"}`),
		},
		{
			name:     "update",
			method:   http.MethodPut,
			path:     "/sedes/2",
			body:     []byte(`{"nombre": "Sede Norte II"}`),
			token:    app.opToken,
			wantData: []byte(`{"id": 2, "nombre": "Sede Norte II", "direccion": null}`),
		},
		{
			name:     "retrieve unknown",
			path:     "/sedes/42",
			token:    app.opToken,
			wantCode: http.StatusNotFound,
			wantData: marshalObj(t, httpErr{Error: "Sede with ID 42 not found."}),
		},
		{
			name:     "delete a sede with alumnos",
			method:   http.MethodDelete,
			path:     fmt.Sprintf("/sedes/%d", school.Sede.ID),
			token:    app.opToken,
			wantCode: http.StatusBadRequest,
			wantData: marshalObj(t, httpErr{Error: "the record is referenced by other records and cannot be deleted"}),
		},
		{
			name:     "delete",
			method:   http.MethodDelete,
			path:     "/sedes/2",
			token:    app.opToken,
			wantCode: http.StatusNoContent,
		},
	})
}

func TestNivelesAndGrados(t *testing.T) {
	app := setup(t)
	school := testutil.CreateSchool(t, app.env.EscuelaRepo, "Primero")

	var inactivo escuela.NivelEducativo
	app.do(t, http.MethodPost, "/niveleseducativos", app.opToken,
		[]byte(`{"nombre": "Preprimaria", "activo": false}`), http.StatusCreated, &inactivo)
	assert.False(t, inactivo.Activo)

	app.run(t, []httpTest{
		{
			name:     "all niveles",
			path:     "/niveleseducativos",
			token:    app.opToken,
			wantData: marshalList(t, school.Nivel, inactivo),
		},
		{
			name:     "active niveles",
			path:     "/niveleseducativos/activos",
			token:    app.opToken,
			wantData: marshalList(t, school.Nivel),
		},
		{
			name:     "grado with an unknown nivel",
			method:   http.MethodPost,
			path:     "/api/grados",
			body:     []byte(`{"nombre": "Kinder", "nivelEducativoId": 99}`),
			token:    app.opToken,
			wantCode: http.StatusBadRequest,
			wantData: []byte(`{"nivelEducativoId": "NivelEducativo not found"}`),
		},
		{
			name:     "create grado",
			method:   http.MethodPost,
			path:     "/api/grados",
			body:     []byte(fmt.Sprintf(`{"nombre": "Kinder", "nivelEducativoId": %d}`, inactivo.ID)),
			token:    app.opToken,
			wantCode: http.StatusCreated,
			check: func(t *testing.T, rec *httptest.ResponseRecorder) {
				var grado escuela.Grado
				require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &grado))
				assert.Equal(t, "Kinder", grado.Nombre)
				assert.Equal(t, inactivo.ID, grado.NivelEducativoID)
			},
		},
		{
			name:  "grados of the active niveles",
			path:  "/api/grados/activos",
			token: app.opToken,
			check: func(t *testing.T, rec *httptest.ResponseRecorder) {
				var grados []escuela.Grado
				require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &grados))
				require.Len(t, grados, 1)
				assert.Equal(t, school.Grado.ID, grados[0].ID)
			},
		},
		{
			name:  "grados by nivel",
			path:  fmt.Sprintf("/api/grados/nivel/%d", inactivo.ID),
			token: app.opToken,
			check: func(t *testing.T, rec *httptest.ResponseRecorder) {
				var grados []escuela.Grado
				require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &grados))
				require.Len(t, grados, 1)
				assert.Equal(t, "Kinder", grados[0].Nombre)
			},
		},
		{
			name:     "grados of an unknown nivel",
			path:     "/api/grados/nivel/99",
			token:    app.opToken,
			wantCode: http.StatusNotFound,
			wantData: marshalObj(t, httpErr{Error: "NivelEducativo with ID 99 not found."}),
		},
		{
			name:     "delete a nivel with grados",
			method:   http.MethodDelete,
			path:     fmt.Sprintf("/niveleseducativos/%d", inactivo.ID),
			token:    app.opToken,
			wantCode: http.StatusBadRequest,
		},
	})
}
