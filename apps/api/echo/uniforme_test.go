package echoapi_test

import (
	"encoding/base64"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	. "github.com/manitascreativas/escuela/apps/api/echo"
	"github.com/manitascreativas/escuela/core/rubro"
	"github.com/manitascreativas/escuela/core/uniforme"
	"github.com/manitascreativas/escuela/tests"
)

func TestPrendasUniforme(t *testing.T) {
	app := setup(t)

	var camisa uniforme.PrendaUniforme
	app.do(t, http.MethodPost, "/prendas-uniforme", app.opToken, marshalObj(t, map[string]interface{}{
		"descripcion":       "  Camisa polo ",
		"sexo":              "M",
		"talla":             "10",
		"precio":            "85.5",
		"existenciaInicial": 12,
		"imagenes": []map[string]string{{
			"fileName":      "camisa.png",
			"contentType":   "image/png",
			"base64Content": base64.StdEncoding.EncodeToString(pngOf(t, 40, 40)),
		}},
	}), http.StatusCreated, &camisa)
	assert.Equal(t, "Camisa polo", camisa.Descripcion)
	assert.Equal(t, app.operador.ID, camisa.UsuarioCreacionID)
	require.Len(t, camisa.ImagenesPrenda, 1)
	assert.Contains(t, camisa.ImagenesPrenda[0].Imagen, "/uploads/")

	var falda uniforme.PrendaUniforme
	app.do(t, http.MethodPost, "/prendas-uniforme", app.opToken, marshalObj(t, map[string]interface{}{
		"descripcion": "Falda", "sexo": "F", "talla": "8", "precio": "120",
	}), http.StatusCreated, &falda)

	app.run(t, []httpTest{
		{
			name:     "no token",
			path:     "/prendas-uniforme",
			wantCode: http.StatusUnauthorized,
			wantData: marshalObj(t, errMissingToken),
		},
		{
			name:     "required descripcion",
			method:   http.MethodPost,
			path:     "/prendas-uniforme",
			token:    app.opToken,
			body:     []byte(`{"sexo":"M","talla":"12","precio":"10"}`),
			wantCode: http.StatusBadRequest,
			wantData: []byte(`{"descripcion":"this field is required"}`),
		},
		{
			name:     "negative precio",
			method:   http.MethodPost,
			path:     "/prendas-uniforme",
			token:    app.opToken,
			body:     []byte(`{"descripcion":"Suéter","sexo":"M","talla":"12","precio":"-1"}`),
			wantCode: http.StatusBadRequest,
			wantData: []byte(`{"precio":"must not be negative"}`),
		},
		{
			name:     "invalid base64 image",
			method:   http.MethodPost,
			path:     "/prendas-uniforme",
			token:    app.opToken,
			body:     []byte(`{"descripcion":"Suéter","sexo":"M","talla":"12","precio":"10","imagenes":[{"contentType":"image/png","base64Content":"%%%"}]}`),
			wantCode: http.StatusBadRequest,
		},
		{
			name:  "by sexo",
			path:  "/prendas-uniforme/by-sexo/f",
			token: app.opToken,
			check: func(t *testing.T, rec *httptest.ResponseRecorder) {
				assert.Contains(t, rec.Body.String(), `"descripcion":"Falda"`)
				assert.NotContains(t, rec.Body.String(), "Camisa")
			},
		},
		{
			name:  "simple listing carries the stock",
			path:  "/prendas-uniforme/simple",
			token: app.opToken,
			check: func(t *testing.T, rec *httptest.ResponseRecorder) {
				assert.Contains(t, rec.Body.String(), fmt.Sprintf(`"id":%d,"descripcion":"Camisa polo","sexo":"M","talla":"10","precio":"85.5","existenciaInicial":12,"entradas":0,"salidas":0,"stock":12`, camisa.ID))
			},
		},
		{
			name:     "exists",
			path:     fmt.Sprintf("/prendas-uniforme/%d/exists", falda.ID),
			token:    app.opToken,
			wantData: marshalObj(t, ExistsResponse{Exists: true}),
		},
		{
			name:     "does not exist",
			path:     "/prendas-uniforme/999/exists",
			token:    app.opToken,
			wantData: marshalObj(t, ExistsResponse{Exists: false}),
		},
		{
			name:     "retrieve unknown",
			path:     "/prendas-uniforme/999",
			token:    app.opToken,
			wantCode: http.StatusNotFound,
			wantData: marshalObj(t, httpErr{Error: "PrendaUniforme with ID 999 not found."}),
		},
		{
			name:   "update",
			method: http.MethodPut,
			path:   fmt.Sprintf("/prendas-uniforme/%d", falda.ID),
			token:  app.adminToken,
			body:   []byte(`{"descripcion":"Falda plisada","sexo":"F","talla":"8","precio":"125"}`),
			check: func(t *testing.T, rec *httptest.ResponseRecorder) {
				assert.Contains(t, rec.Body.String(), `"descripcion":"Falda plisada"`)
				assert.Contains(t, rec.Body.String(), fmt.Sprintf(`"usuarioActualizacionId":%d`, app.admin.ID))
			},
		},
		{
			name:     "delete without motivo",
			method:   http.MethodDelete,
			path:     fmt.Sprintf("/prendas-uniforme/%d", falda.ID),
			token:    app.adminToken,
			wantCode: http.StatusBadRequest,
			wantData: marshalObj(t, httpErr{Error: "motivoEliminacion is required"}),
		},
		{
			name:     "delete",
			method:   http.MethodDelete,
			path:     fmt.Sprintf("/prendas-uniforme/%d?motivoEliminacion=descontinuada", falda.ID),
			token:    app.adminToken,
			wantCode: http.StatusNoContent,
		},
		{
			name:     "delete unknown",
			method:   http.MethodDelete,
			path:     "/prendas-uniforme/999?motivoEliminacion=x",
			token:    app.adminToken,
			wantCode: http.StatusNotFound,
			wantData: marshalObj(t, httpErr{Error: "PrendaUniforme with ID 999 not found."}),
		},
		{
			name:  "active listing skips deleted garments",
			path:  "/prendas-uniforme/active",
			token: app.opToken,
			check: func(t *testing.T, rec *httptest.ResponseRecorder) {
				assert.NotContains(t, rec.Body.String(), "Falda")
				assert.Contains(t, rec.Body.String(), "Camisa polo")
			},
		},
	})
}

func TestEntradasUniforme(t *testing.T) {
	app := setup(t)

	var camisa uniforme.PrendaUniforme
	app.do(t, http.MethodPost, "/prendas-uniforme", app.opToken,
		[]byte(`{"descripcion":"Camisa","sexo":"M","talla":"10","precio":"85","existenciaInicial":5}`), http.StatusCreated, &camisa)

	stock := func(t *testing.T) uniforme.PrendaUniforme {
		var p uniforme.PrendaUniforme
		app.do(t, http.MethodGet, fmt.Sprintf("/prendas-uniforme/%d", camisa.ID), app.opToken, nil, http.StatusOK, &p)
		return p
	}

	var entrada uniforme.EntradaUniforme
	app.do(t, http.MethodPost, "/entradas-uniforme", app.opToken, []byte(fmt.Sprintf(
		`{"fechaEntrada":"2025-02-10T14:00:00Z","notas":"proveedor","detalles":[{"prendaUniformeId":%d,"cantidad":10,"subtotal":"600"}]}`, camisa.ID,
	)), http.StatusCreated, &entrada)
	assert.Equal(t, "600", entrada.Total.String())
	require.Len(t, entrada.EntradaUniformeDetalles, 1)
	assert.Equal(t, "Camisa", entrada.EntradaUniformeDetalles[0].PrendaUniformeDescripcion)
	assert.Equal(t, 10, stock(t).Entradas)

	app.run(t, []httpTest{
		{
			name:     "detalles are required",
			method:   http.MethodPost,
			path:     "/entradas-uniforme",
			token:    app.opToken,
			body:     []byte(`{"fechaEntrada":"2025-02-10T14:00:00Z","detalles":[]}`),
			wantCode: http.StatusBadRequest,
		},
		{
			name:     "unknown prenda",
			method:   http.MethodPost,
			path:     "/entradas-uniforme",
			token:    app.opToken,
			body:     []byte(`{"fechaEntrada":"2025-02-10T14:00:00Z","detalles":[{"prendaUniformeId":999,"cantidad":1,"subtotal":"1"}]}`),
			wantCode: http.StatusBadRequest,
			wantData: marshalObj(t, httpErr{Error: "PrendaUniforme with ID 999 not found"}),
		},
		{
			name:  "date range includes the whole end day",
			path:  "/entradas-uniforme/by-date-range?startDate=2025-02-01&endDate=2025-02-10",
			token: app.opToken,
			check: func(t *testing.T, rec *httptest.ResponseRecorder) {
				assert.Contains(t, rec.Body.String(), fmt.Sprintf(`"id":%d`, entrada.ID))
			},
		},
		{
			name:     "date range outside",
			path:     "/entradas-uniforme/by-date-range?startDate=2025-03-01&endDate=2025-03-31",
			token:    app.opToken,
			wantData: marshalList(t),
		},
		{
			name:     "reversed date range",
			path:     "/entradas-uniforme/by-date-range?startDate=2025-03-01&endDate=2025-02-01",
			token:    app.opToken,
			wantCode: http.StatusBadRequest,
			wantData: marshalObj(t, httpErr{Error: "endDate must not precede startDate"}),
		},
		{
			name:     "missing startDate",
			path:     "/entradas-uniforme/by-date-range?endDate=2025-02-01",
			token:    app.opToken,
			wantCode: http.StatusBadRequest,
			wantData: marshalObj(t, httpErr{Error: "startDate is required"}),
		},
		{
			name:     "by usuario",
			path:     fmt.Sprintf("/entradas-uniforme/by-usuario/%d", app.admin.ID),
			token:    app.opToken,
			wantData: marshalList(t),
		},
	})

	// the update replaces the details and their stock
	app.do(t, http.MethodPut, fmt.Sprintf("/entradas-uniforme/%d", entrada.ID), app.adminToken, []byte(fmt.Sprintf(
		`{"fechaEntrada":"2025-02-10T14:00:00Z","detalles":[{"prendaUniformeId":%d,"cantidad":4,"subtotal":"240"}]}`, camisa.ID,
	)), http.StatusOK, &entrada)
	assert.Equal(t, "240", entrada.Total.String())
	assert.Equal(t, 4, stock(t).Entradas)

	app.do(t, http.MethodDelete, fmt.Sprintf("/entradas-uniforme/%d", entrada.ID), app.adminToken, nil, http.StatusBadRequest, nil)
	app.do(t, http.MethodDelete, fmt.Sprintf("/entradas-uniforme/%d?motivoEliminacion=error", entrada.ID), app.adminToken, nil, http.StatusNoContent, nil)
	assert.Equal(t, 0, stock(t).Entradas)
	assert.Equal(t, 5, stock(t).Stock())

	app.do(t, http.MethodPut, fmt.Sprintf("/entradas-uniforme/%d", entrada.ID), app.adminToken, []byte(fmt.Sprintf(
		`{"fechaEntrada":"2025-02-10T14:00:00Z","detalles":[{"prendaUniformeId":%d,"cantidad":1,"subtotal":"60"}]}`, camisa.ID,
	)), http.StatusBadRequest, nil)

	var active []uniforme.EntradaUniforme
	app.do(t, http.MethodGet, "/entradas-uniforme/active", app.opToken, nil, http.StatusOK, &active)
	assert.Empty(t, active)
}

func TestRubroUniformeDetalles(t *testing.T) {
	app := setup(t)
	uniformes := testutil.CreateRubro(t, app.env.RubroRepo, rubro.Rubro{Descripcion: "Uniformes", Tipo: rubro.TipoUniformes})

	var camisa uniforme.PrendaUniforme
	app.do(t, http.MethodPost, "/prendas-uniforme", app.opToken,
		[]byte(`{"descripcion":"Camisa","sexo":"M","talla":"10","precio":"85"}`), http.StatusCreated, &camisa)

	var detalle uniforme.RubroUniformeDetalle
	body := []byte(fmt.Sprintf(`{"rubroId":%d,"prendaUniformeId":%d}`, uniformes.ID, camisa.ID))
	app.do(t, http.MethodPost, "/rubro-uniforme-detalles", app.opToken, body, http.StatusCreated, &detalle)
	assert.Equal(t, "Uniformes", detalle.RubroDescripcion)
	assert.Equal(t, "Camisa", detalle.PrendaDescripcion)
	assert.Equal(t, "85", detalle.PrendaPrecio.String())

	app.run(t, []httpTest{
		{
			name:     "already linked",
			method:   http.MethodPost,
			path:     "/rubro-uniforme-detalles",
			token:    app.opToken,
			body:     body,
			wantCode: http.StatusBadRequest,
			wantData: marshalObj(t, httpErr{Error: "this garment is already linked to the rubro"}),
		},
		{
			name:     "unknown rubro",
			method:   http.MethodPost,
			path:     "/rubro-uniforme-detalles",
			token:    app.opToken,
			body:     []byte(fmt.Sprintf(`{"rubroId":999,"prendaUniformeId":%d}`, camisa.ID)),
			wantCode: http.StatusBadRequest,
			wantData: marshalObj(t, httpErr{Error: "Rubro with ID 999 not found"}),
		},
		{
			name:     "required ids",
			method:   http.MethodPost,
			path:     "/rubro-uniforme-detalles",
			token:    app.opToken,
			body:     []byte(`{}`),
			wantCode: http.StatusBadRequest,
			wantData: []byte(`{"rubroId":"this field is required","prendaUniformeId":"this field is required"}`),
		},
		{
			name:     "exists",
			path:     fmt.Sprintf("/rubro-uniforme-detalles/exists/%d/%d", uniformes.ID, camisa.ID),
			token:    app.opToken,
			wantData: marshalObj(t, ExistsResponse{Exists: true}),
		},
		{
			name:  "by rubro",
			path:  fmt.Sprintf("/rubro-uniforme-detalles/by-rubro/%d", uniformes.ID),
			token: app.opToken,
			check: func(t *testing.T, rec *httptest.ResponseRecorder) {
				assert.Contains(t, rec.Body.String(), fmt.Sprintf(`"id":%d`, detalle.ID))
			},
		},
		{
			name:     "by another prenda",
			path:     "/rubro-uniforme-detalles/by-prenda/999",
			token:    app.opToken,
			wantData: marshalList(t),
		},
		{
			name:     "delete",
			method:   http.MethodDelete,
			path:     fmt.Sprintf("/rubro-uniforme-detalles/%d?motivoEliminacion=cambio", detalle.ID),
			token:    app.adminToken,
			wantCode: http.StatusNoContent,
		},
		{
			name:     "deleted links do not count",
			path:     fmt.Sprintf("/rubro-uniforme-detalles/exists/%d/%d", uniformes.ID, camisa.ID),
			token:    app.opToken,
			wantData: marshalObj(t, ExistsResponse{Exists: false}),
		},
		{
			name:     "active listing",
			path:     "/rubro-uniforme-detalles/active",
			token:    app.opToken,
			wantData: marshalList(t),
		},
	})
}
