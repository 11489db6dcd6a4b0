package users

import (
	"context"

	"github.com/goliatone/go-errors"
	"github.com/goliatone/go-router"
	"github.com/goliatone/go-users/middleware/jwtware"
)

// RouteAuthenticator wires the token middleware into HTTP routes. Tokens are
// bearer only; there is no cookie session to establish or tear down.
type RouteAuthenticator struct {
	auth             Authenticator
	cfg              Config
	validator        TokenValidator
	Logger           Logger
	AuthErrorHandler func(c router.Context, err error) error
}

func NewHTTPAuthenticator(auther Authenticator, cfg Config) (*RouteAuthenticator, error) {
	a := &RouteAuthenticator{
		cfg:    cfg,
		auth:   auther,
		Logger: defLogger{},
	}

	if ts, ok := auther.(interface{ TokenService() TokenService }); ok {
		a.validator = ts.TokenService()
	} else {
		a.validator = NewTokenService(
			[]byte(cfg.GetSigningKey()),
			cfg.GetTokenExpiration(),
			cfg.GetIssuer(),
			cfg.GetAudience(),
			defLogger{},
		)
	}

	a.AuthErrorHandler = a.defaultAuthErrHandler

	return a, nil
}

func (a *RouteAuthenticator) WithLogger(logger Logger) *RouteAuthenticator {
	a.Logger = logger
	return a
}

// ProtectedRoute guards a route group: extract the bearer token, validate it,
// stash claims in locals and the request context.
func (a *RouteAuthenticator) ProtectedRoute(cfg Config, errorHandler func(router.Context, error) error) router.MiddlewareFunc {
	return jwtware.New(jwtware.Config{
		ErrorHandler:   errorHandler,
		AuthScheme:     cfg.GetAuthScheme(),
		ContextKey:     cfg.GetContextKey(),
		TokenLookup:    cfg.GetTokenLookup(),
		TokenValidator: middlewareValidator{svc: a.validator},
		ContextEnricher: func(ctx context.Context, claims jwtware.AuthClaims) context.Context {
			if ac, ok := claims.(AuthClaims); ok {
				return WithClaimsContext(ctx, ac)
			}
			return ctx
		},
	})
}

// MakeAPIAuthErrorHandler answers every token failure with the same 401 body
// so callers cannot distinguish missing, expired, and malformed tokens.
func (a *RouteAuthenticator) MakeAPIAuthErrorHandler() func(router.Context, error) error {
	return func(ctx router.Context, err error) error {
		var richErr *errors.Error

		if IsTokenExpiredError(err) {
			richErr = ErrTokenExpired
		} else if IsMalformedError(err) {
			richErr = ErrTokenMalformed
		} else {
			richErr = errors.Wrap(err, errors.CategoryAuth, "Invalid authentication token").
				WithCode(errors.CodeUnauthorized)
		}

		a.Logger.Info(
			"API auth rejected",
			"error", richErr.Message,
			"text_code", richErr.TextCode,
		)

		return ctx.JSON(router.StatusUnauthorized, map[string]any{
			"message": "Please provide a valid auth token.",
		})
	}
}

func (a *RouteAuthenticator) defaultAuthErrHandler(c router.Context, err error) error {
	return a.MakeAPIAuthErrorHandler()(c, err)
}

// middlewareValidator bridges the package TokenValidator to the middleware's
// local validator interface; Go needs the exact return type to line up.
type middlewareValidator struct {
	svc TokenValidator
}

func (v middlewareValidator) Validate(tokenString string) (jwtware.AuthClaims, error) {
	claims, err := v.svc.Validate(tokenString)
	if err != nil {
		return nil, err
	}
	return claims, nil
}
