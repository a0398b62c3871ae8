package echoapi_test

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	. "github.com/manitascreativas/escuela/apps/api/echo"
	"github.com/manitascreativas/escuela/core"
	"github.com/manitascreativas/escuela/core/usuario"
	"github.com/manitascreativas/escuela/tests"
)

var errMissingToken = httpErr{Error: "missing or malformed jwt"}

const testPassword = "Gu4temala!Pwd"

type httpErr struct {
	Error string `json:"error"`
}

type httpTest struct {
	name     string
	method   string
	path     string
	body     []byte
	token    string
	wantCode int
	wantData []byte
	check    func(t *testing.T, rec *httptest.ResponseRecorder)
}

type testApp struct {
	*Server
	env *testutil.Env

	admin      usuario.Usuario
	operador   usuario.Usuario
	adminToken string
	opToken    string
}

func setup(t *testing.T, configure ...func(conf *core.Config)) *testApp {
	env := testutil.NewEnv(t, configure...)
	srv := NewServer(ServerDeps{
		Conf:           env.Conf,
		Logger:         env.Logger,
		Validate:       env.Validate,
		Translator:     env.Translator,
		UsuarioSvc:     env.UsuarioSvc,
		EscuelaSvc:     env.EscuelaSvc,
		AlumnoSvc:      env.AlumnoSvc,
		ContactoSvc:    env.ContactoSvc,
		RubroSvc:       env.RubroSvc,
		PagoSvc:        env.PagoSvc,
		QRCodeSvc:      env.QRCodeSvc,
		RutaSvc:        env.RutaSvc,
		UniformeSvc:    env.UniformeSvc,
		ReporteSvc:     env.ReporteSvc,
		FeatureFlagSvc: env.FeatureFlagSvc,
	})

	app := &testApp{Server: srv, env: env}
	app.admin = testutil.CreateUsuario(t, env.UsuarioRepo, "admin", "admin@manitas.gt", testPassword, usuario.RolAdministrador)
	app.operador = testutil.CreateUsuario(t, env.UsuarioRepo, "operador", "operador@manitas.gt", testPassword, usuario.RolOperador)
	app.adminToken = app.getToken(t, app.admin)
	app.opToken = app.getToken(t, app.operador)
	return app
}

func (app *testApp) getToken(t *testing.T, usr usuario.Usuario) string {
	token, err := app.TokenFor(usr)
	require.NoError(t, err, "getToken()")
	return token
}

func (app *testApp) run(t *testing.T, tests []httpTest) {
	for _, tt := range tests {
		if tt.method == "" {
			tt.method = http.MethodGet
		}
		if tt.wantCode == 0 {
			tt.wantCode = http.StatusOK
		}

		t.Run(tt.name, func(t *testing.T) {
			req, rec := newAuthRequest(tt.method, tt.path, tt.token, tt.body)
			app.ServeHTTP(rec, req)
			checkCodeAndData(t, tt, rec)
		})
	}
}

// do sends a single request and decodes the JSON response into `dest` (when not nil).
func (app *testApp) do(t *testing.T, method, path, token string, body []byte, wantCode int, dest interface{}) {
	req, rec := newAuthRequest(method, path, token, body)
	app.ServeHTTP(rec, req)
	require.Equal(t, wantCode, rec.Code, "%s %s: %s", method, path, rec.Body.String())
	if dest != nil {
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), dest))
	}
}

func newAuthRequest(method, path, token string, data ...[]byte) (*http.Request, *httptest.ResponseRecorder) {
	var body bytes.Buffer
	if len(data) > 0 {
		body.Write(data[0])
	}
	req := httptest.NewRequest(method, path, &body)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	return req, rec
}

func marshalObj(t *testing.T, obj interface{}) []byte {
	data, err := json.Marshal(obj)
	require.NoError(t, err, "marshalObj()")
	return data
}

func marshalList(t *testing.T, objs ...interface{}) []byte {
	if objs == nil {
		objs = []interface{}{}
	}
	return marshalObj(t, objs)
}

func decodeJSON(rec *httptest.ResponseRecorder, dest interface{}) error {
	return json.Unmarshal(rec.Body.Bytes(), dest)
}

func checkCodeAndData(t *testing.T, tt httpTest, rec *httptest.ResponseRecorder) {
	assert.Equal(t, tt.wantCode, rec.Code, "body: %s", rec.Body.String())
	if tt.wantData != nil {
		assert.JSONEq(t, string(tt.wantData), rec.Body.String())
	}
	if tt.check != nil {
		tt.check(t, rec)
	}
}
