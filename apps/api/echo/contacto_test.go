package echoapi_test

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/manitascreativas/escuela/core/contacto"
	"github.com/manitascreativas/escuela/tests"
)

func TestContactos(t *testing.T) {
	app := setup(t)
	school := testutil.CreateSchool(t, app.env.EscuelaRepo, "Primero")
	lucia := testutil.CreateAlumno(t, app.env.AlumnoRepo, school, "A-001", "Lucía", "Pérez")

	var madre contacto.Contacto
	app.do(t, http.MethodPost, "/contactos", app.opToken,
		[]byte(`{"nombre":" Ana Pérez ","celular":"5555-1234","email":"ANA@Correo.com","nit":"1234567-8"}`), http.StatusCreated, &madre)
	assert.Equal(t, "Ana Pérez", madre.Nombre)
	assert.Equal(t, "ana@correo.com", madre.Email.String)
	assert.False(t, madre.Direccion.Valid)

	linkBody := []byte(fmt.Sprintf(`{"alumnoId":%d,"contactoId":%d,"parentesco":"Madre"}`, lucia.ID, madre.ID))
	linkPath := fmt.Sprintf("/alumnocontactos/%d/%d", lucia.ID, madre.ID)

	app.run(t, []httpTest{
		{
			name:     "no token",
			path:     "/contactos",
			wantCode: http.StatusUnauthorized,
			wantData: marshalObj(t, errMissingToken),
		},
		{
			name:     "required nombre",
			method:   http.MethodPost,
			path:     "/contactos",
			token:    app.opToken,
			body:     []byte(`{"celular":"5555"}`),
			wantCode: http.StatusBadRequest,
			wantData: []byte(`{"nombre":"this field is required"}`),
		},
		{
			name:     "invalid email",
			method:   http.MethodPost,
			path:     "/contactos",
			token:    app.opToken,
			body:     []byte(`{"nombre":"Luis","email":"no-es-correo"}`),
			wantCode: http.StatusBadRequest,
		},
		{
			name:     "retrieve unknown",
			path:     "/contactos/999",
			token:    app.opToken,
			wantCode: http.StatusNotFound,
			wantData: marshalObj(t, httpErr{Error: "Contacto with ID 999 not found."}),
		},
		{
			name:     "link",
			method:   http.MethodPost,
			path:     "/alumnocontactos",
			token:    app.opToken,
			body:     linkBody,
			wantCode: http.StatusCreated,
			check: func(t *testing.T, rec *httptest.ResponseRecorder) {
				var link contacto.AlumnoContacto
				require.NoError(t, decodeJSON(rec, &link))
				assert.Equal(t, "Madre", link.Parentesco)
				assert.Equal(t, "Ana Pérez", link.Contacto.Nombre)
			},
		},
		{
			name:     "link twice",
			method:   http.MethodPost,
			path:     "/alumnocontactos",
			token:    app.opToken,
			body:     linkBody,
			wantCode: http.StatusBadRequest,
			wantData: marshalObj(t, httpErr{Error: "the contacto is already linked to this alumno"}),
		},
		{
			name:     "link unknown contacto",
			method:   http.MethodPost,
			path:     "/alumnocontactos",
			token:    app.opToken,
			body:     []byte(fmt.Sprintf(`{"alumnoId":%d,"contactoId":999,"parentesco":"Padre"}`, lucia.ID)),
			wantCode: http.StatusNotFound,
		},
		{
			name:  "contactos of the alumno",
			path:  fmt.Sprintf("/alumnocontactos/alumno/%d", lucia.ID),
			token: app.opToken,
			check: func(t *testing.T, rec *httptest.ResponseRecorder) {
				var links []contacto.AlumnoContacto
				require.NoError(t, decodeJSON(rec, &links))
				require.Len(t, links, 1)
				assert.Equal(t, madre.ID, links[0].Contacto.ID)
			},
		},
		{
			name:     "contactos of unknown alumno",
			path:     "/alumnocontactos/alumno/999",
			token:    app.opToken,
			wantCode: http.StatusNotFound,
			wantData: marshalObj(t, httpErr{Error: "Alumno with ID 999 not found."}),
		},
		{
			name:   "update parentesco",
			method: http.MethodPut,
			path:   linkPath,
			token:  app.opToken,
			body:   []byte(`{"parentesco":"Tutora"}`),
			check: func(t *testing.T, rec *httptest.ResponseRecorder) {
				assert.Contains(t, rec.Body.String(), `"parentesco":"Tutora"`)
			},
		},
		{
			name:     "update unknown link",
			method:   http.MethodPut,
			path:     fmt.Sprintf("/alumnocontactos/%d/999", lucia.ID),
			token:    app.opToken,
			body:     []byte(`{"parentesco":"Tío"}`),
			wantCode: http.StatusNotFound,
			wantData: marshalObj(t, httpErr{Error: fmt.Sprintf("AlumnoContacto with AlumnoId %d and ContactoId 999 not found.", lucia.ID)}),
		},
		{
			name:   "update contacto",
			method: http.MethodPut,
			path:   fmt.Sprintf("/contactos/%d", madre.ID),
			token:  app.opToken,
			body:   []byte(`{"nombre":"Ana Pérez de León","direccion":"Zona 1"}`),
			check: func(t *testing.T, rec *httptest.ResponseRecorder) {
				var c contacto.Contacto
				require.NoError(t, decodeJSON(rec, &c))
				assert.Equal(t, "Zona 1", c.Direccion.String)
				assert.False(t, c.Email.Valid)
			},
		},
		{
			name:     "unlink",
			method:   http.MethodDelete,
			path:     linkPath,
			token:    app.opToken,
			wantCode: http.StatusNoContent,
		},
		{
			name:     "unlink again",
			method:   http.MethodDelete,
			path:     linkPath,
			token:    app.opToken,
			wantCode: http.StatusNotFound,
		},
		{
			name:     "delete",
			method:   http.MethodDelete,
			path:     fmt.Sprintf("/contactos/%d", madre.ID),
			token:    app.adminToken,
			wantCode: http.StatusNoContent,
		},
		{
			name:     "delete again",
			method:   http.MethodDelete,
			path:     fmt.Sprintf("/contactos/%d", madre.ID),
			token:    app.adminToken,
			wantCode: http.StatusNotFound,
		},
	})
}
