package echoapi

import (
	"strconv"
	"time"

	"github.com/dgrijalva/jwt-go"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/pkg/errors"

	"github.com/manitascreativas/escuela/core"
	"github.com/manitascreativas/escuela/core/usuario"
)

const (
	contextTokenKey   = "userToken"
	contextUsuarioKey = "usuario"
	jwtAudience       = "Escuela"
)

// Claims represents the authorization claims transmitted via a JWT.
type Claims struct {
	jwt.StandardClaims
	OrigIssuedAt  int64  `json:"oriat,omitempty"`
	CodigoUsuario string `json:"codigoUsuario,omitempty"`
	Email         string `json:"email,omitempty"`
	Rol           string `json:"rol,omitempty"`
	EsAdmin       bool   `json:"esAdmin,omitempty"`
}

// UsuarioID is the id of the authenticated usuario, carried in the subject.
func (c Claims) UsuarioID() int {
	id, _ := strconv.Atoi(c.Subject)
	return id
}

type authenticator struct {
	appName          string
	jwtConfig        middleware.JWTConfig
	expirationDelta  time.Duration
	refreshExpiresIn time.Duration
}

func newAuthenticator(conf *core.Config) *authenticator {
	return &authenticator{
		appName: conf.AppName,
		jwtConfig: middleware.JWTConfig{
			SigningKey:    []byte(conf.SecretKey),
			SigningMethod: middleware.AlgorithmHS256,
			ContextKey:    contextTokenKey,
			Claims:        new(Claims),
		},
		expirationDelta:  conf.Server.JWTExpirationDelta,
		refreshExpiresIn: conf.Server.JWTRefreshExpirationDelta,
	}
}

func (a *authenticator) claimsFor(usr usuario.Usuario, origIat ...int64) *Claims {
	now := time.Now()
	nownix := now.Unix()

	oriat := nownix
	if len(origIat) > 0 {
		oriat = origIat[0]
	}

	return &Claims{
		StandardClaims: jwt.StandardClaims{
			Issuer:    a.appName,
			Subject:   strconv.Itoa(usr.ID),
			Audience:  jwtAudience,
			ExpiresAt: now.Add(a.expirationDelta).Unix(),
			IssuedAt:  nownix,
		},
		OrigIssuedAt:  oriat,
		CodigoUsuario: usr.CodigoUsuario,
		Email:         usr.Email,
		Rol:           usr.Rol,
		EsAdmin:       usr.EsAdmin,
	}
}

// GenerateToken generates a signed JWT token string representing the usuario Claims.
func (a *authenticator) GenerateToken(claims *Claims) (string, error) {
	method := jwt.GetSigningMethod(a.jwtConfig.SigningMethod)
	token := jwt.NewWithClaims(method, claims)

	ss, err := token.SignedString(a.jwtConfig.SigningKey)
	if err != nil {
		return "", errors.Wrap(err, "signing token")
	}
	return ss, nil
}

// TokenFor returns a fresh token for the usuario.
func (a *authenticator) TokenFor(usr usuario.Usuario) (string, error) {
	return a.GenerateToken(a.claimsFor(usr))
}

func (a *authenticator) contextClaims(ctx echo.Context) (Claims, error) {
	if token, ok := ctx.Get(a.jwtConfig.ContextKey).(*jwt.Token); ok {
		if claims, ok := token.Claims.(*Claims); ok {
			return *claims, nil
		}
	}
	return Claims{}, errUnauthorized
}

// contextUsuarioID returns the id of the authenticated usuario, used for the audit fields.
func (a *authenticator) contextUsuarioID(ctx echo.Context) (int, error) {
	claims, err := a.contextClaims(ctx)
	if err != nil {
		return 0, err
	}
	return claims.UsuarioID(), nil
}

func (a *authenticator) contextUsuario(ctx echo.Context, svc usuario.ServiceInterface, clms ...Claims) (usuario.Usuario, error) {
	if usr, ok := ctx.Get(contextUsuarioKey).(usuario.Usuario); ok {
		return usr, nil
	}

	var (
		claims Claims
		err    error
	)
	if len(clms) > 0 {
		claims = clms[0]
	} else {
		claims, err = a.contextClaims(ctx)
		if err != nil {
			return usuario.Usuario{}, errors.Wrap(err, "getting context claims")
		}
	}

	usr, err := svc.GetByID(ctx.Request().Context(), claims.UsuarioID())
	if err != nil {
		if err == usuario.ErrNotFound {
			return usuario.Usuario{}, errUnauthorized
		}
		return usuario.Usuario{}, errors.Wrap(err, "finding usuario by ID")
	}
	ctx.Set(contextUsuarioKey, usr)
	return usr, nil
}

func (a *authenticator) refreshToken(ctx echo.Context, svc usuario.ServiceInterface) (string, error) {
	claims, err := a.contextClaims(ctx)
	if err != nil {
		return "", errors.Wrap(err, "getting context claims")
	}

	usr, err := a.contextUsuario(ctx, svc, claims)
	if err != nil {
		return "", errors.Wrap(err, "getting context usuario")
	}

	if !usr.IsActive() {
		return "", errAccountDeactivated
	}

	expTime := time.Unix(claims.OrigIssuedAt, 0).Add(a.refreshExpiresIn)
	if time.Now().After(expTime) {
		return "", errRefreshExpired
	}

	token, err := a.GenerateToken(a.claimsFor(usr, claims.OrigIssuedAt))
	return token, errors.Wrap(err, "generating token")
}
