package echoapi_test

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestHomeAndHealth(t *testing.T) {
	app := setup(t)
	app.run(t, []httpTest{
		{
			name: "home",
			path: "/",
			check: func(t *testing.T, rec *httptest.ResponseRecorder) {
				assert.Equal(t, "Welcome to Manitas Creativas API!", rec.Body.String())
			},
		},
		{
			name:     "health",
			path:     "/health",
			wantData: []byte(`{"status":"healthy","version":"test","env":"TEST"}`),
		},
		{
			name:     "unknown route",
			path:     "/nada",
			wantCode: http.StatusNotFound,
		},
	})
}
