package echoapi_test

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	. "github.com/manitascreativas/escuela/apps/api/echo"
	"github.com/manitascreativas/escuela/core"
	"github.com/manitascreativas/escuela/core/featureflag"
)

func withFeatureFlags(conf *core.Config) {
	conf.SetRaw("featureFlags", map[string]interface{}{
		"features": map[string]interface{}{
			"QRCodes": map[string]interface{}{
				"enabled":     true,
				"description": "Códigos QR para los pagos",
			},
			"reportes": map[string]interface{}{
				"enabled":       true,
				"requiresAdmin": true,
			},
			"uniformes": map[string]interface{}{
				"enabled":      true,
				"allowedRoles": []string{"Administrador"},
			},
			"transporte": map[string]interface{}{
				"enabled": false,
			},
		},
	})
}

func TestFeatureFlags(t *testing.T) {
	app := setup(t, withFeatureFlags)

	status := func(name string, enabled bool) []byte {
		return marshalObj(t, FeatureStatusResponse{FeatureName: name, Enabled: enabled})
	}

	app.run(t, []httpTest{
		{
			name:     "no token",
			path:     "/featureflags",
			wantCode: http.StatusUnauthorized,
			wantData: marshalObj(t, errMissingToken),
		},
		{
			name:  "list",
			path:  "/featureflags",
			token: app.opToken,
			check: func(t *testing.T, rec *httptest.ResponseRecorder) {
				var flags featureflag.Flags
				require.NoError(t, decodeJSON(rec, &flags))
				assert.Len(t, flags.Features, 4)
				assert.True(t, flags.Features["qrcodes"].Enabled)
				assert.Equal(t, []string{}, flags.Features["qrcodes"].AllowedRoles)
			},
		},
		{
			name:     "enabled ignores the case",
			path:     "/featureflags/QRCODES/enabled",
			token:    app.opToken,
			wantData: status("QRCODES", true),
		},
		{
			name:     "disabled",
			path:     "/featureflags/transporte/enabled",
			token:    app.opToken,
			wantData: status("transporte", false),
		},
		{
			name:     "unknown",
			path:     "/featureflags/inventario/enabled",
			token:    app.opToken,
			wantData: status("inventario", false),
		},
		{
			name:     "requires admin, operador",
			path:     "/featureflags/reportes/available",
			token:    app.opToken,
			wantData: status("reportes", false),
		},
		{
			name:     "requires admin, admin",
			path:     "/featureflags/reportes/available",
			token:    app.adminToken,
			wantData: status("reportes", true),
		},
		{
			name:     "role not allowed",
			path:     "/featureflags/uniformes/available",
			token:    app.opToken,
			wantData: status("uniformes", false),
		},
		{
			name:     "role allowed",
			path:     "/featureflags/uniformes/available",
			token:    app.adminToken,
			wantData: status("uniformes", true),
		},
	})
}

func TestFeatureFlagsNotConfigured(t *testing.T) {
	app := setup(t)
	app.run(t, []httpTest{
		{
			name:     "every feature is disabled",
			path:     "/featureflags/qrcodes/enabled",
			token:    app.adminToken,
			wantData: marshalObj(t, FeatureStatusResponse{FeatureName: "qrcodes", Enabled: false}),
		},
		{
			name:     "empty list",
			path:     "/featureflags",
			token:    app.adminToken,
			wantData: []byte(`{"features":{}}`),
		},
	})
}
