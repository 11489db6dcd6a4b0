package jwtware_test

import (
	"context"
	"errors"
	"testing"

	"github.com/goliatone/go-router"
	"github.com/stretchr/testify/mock"

	"github.com/goliatone/go-users/middleware/jwtware"
)

type stubClaims struct {
	subject string
	userID  string
	email   string
}

func (c stubClaims) Subject() string { return c.subject }
func (c stubClaims) UserID() string  { return c.userID }
func (c stubClaims) Email() string   { return c.email }

// stubValidator accepts the tokens it was seeded with and rejects the rest.
type stubValidator struct {
	tokens map[string]jwtware.AuthClaims
}

func (v stubValidator) Validate(tokenString string) (jwtware.AuthClaims, error) {
	if claims, ok := v.tokens[tokenString]; ok {
		return claims, nil
	}
	return nil, errors.New("token is malformed")
}

func validatorFor(token string) stubValidator {
	return stubValidator{
		tokens: map[string]jwtware.AuthClaims{
			token: stubClaims{subject: "ada@example.com", userID: "1", email: "ada@example.com"},
		},
	}
}

func passthrough(ctx router.Context) error {
	return ctx.Next()
}

func TestJWTWare_BasicHeaderExtraction(t *testing.T) {
	const validToken = "token-accepted-by-validator"

	cfg := jwtware.Config{
		TokenValidator: validatorFor(validToken),
		ErrorHandler: func(ctx router.Context, err error) error {
			return err
		},
		// it will look for Authorization: Bearer <token>
	}

	handler := jwtware.New(cfg)(passthrough)

	// Test with valid token
	ctx := router.NewMockContext()
	ctx.HeadersM["Authorization"] = "Bearer " + validToken
	ctx.On("GetString", "Authorization", "").Return("Bearer " + validToken)
	ctx.On("Locals", "user", mock.Anything).Return(nil)

	if err := handler(ctx); err != nil {
		t.Fatalf("unexpected error for valid token: %v", err)
	}
	if !ctx.NextCalled {
		t.Errorf("expected NextCalled to be true, but got false")
	}

	// Test with missing token
	ctx = router.NewMockContext()
	ctx.On("GetString", "Authorization", "").Return("")
	err := handler(ctx)
	if err == nil {
		t.Fatal("expected error for missing token, got nil")
	}
	if !errors.Is(err, jwtware.ErrJWTMissingOrMalformed) {
		t.Errorf("expected missing token error, got: %v", err)
	}

	// Test with a token the validator rejects
	ctx = router.NewMockContext()
	ctx.HeadersM["Authorization"] = "Bearer not-the-valid-token"
	ctx.On("GetString", "Authorization", "").Return("Bearer not-the-valid-token")
	err = handler(ctx)
	if err == nil {
		t.Fatal("expected error for rejected token, got nil")
	}
}

func TestJWTWare_SchemeMismatch(t *testing.T) {
	const validToken = "token-accepted-by-validator"

	cfg := jwtware.Config{
		TokenValidator: validatorFor(validToken),
		ErrorHandler: func(ctx router.Context, err error) error {
			return err
		},
	}
	handler := jwtware.New(cfg)(passthrough)

	ctx := router.NewMockContext()
	ctx.HeadersM["Authorization"] = "Basic " + validToken
	ctx.On("GetString", "Authorization", "").Return("Basic " + validToken)

	err := handler(ctx)
	if !errors.Is(err, jwtware.ErrJWTMissingOrMalformed) {
		t.Errorf("expected scheme mismatch to read as missing token, got: %v", err)
	}
}

func TestJWTWare_StoresClaimsInLocals(t *testing.T) {
	const validToken = "token-accepted-by-validator"

	cfg := jwtware.Config{
		TokenValidator: validatorFor(validToken),
		ErrorHandler: func(ctx router.Context, err error) error {
			return err
		},
	}
	handler := jwtware.New(cfg)(passthrough)

	var stored any
	ctx := router.NewMockContext()
	ctx.HeadersM["Authorization"] = "Bearer " + validToken
	ctx.On("GetString", "Authorization", "").Return("Bearer " + validToken)
	ctx.On("Locals", "user", mock.Anything).Run(func(args mock.Arguments) {
		stored = args.Get(1)
	}).Return(nil)

	if err := handler(ctx); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	claims, ok := stored.(jwtware.AuthClaims)
	if !ok {
		t.Fatalf("expected AuthClaims in locals, got %T", stored)
	}
	if claims.Email() != "ada@example.com" {
		t.Errorf("expected claims email 'ada@example.com', got %s", claims.Email())
	}
}

func TestJWTWare_ContextEnricher(t *testing.T) {
	const validToken = "token-accepted-by-validator"

	type claimsKey struct{}

	cfg := jwtware.Config{
		TokenValidator: validatorFor(validToken),
		ErrorHandler: func(ctx router.Context, err error) error {
			return err
		},
		ContextEnricher: func(c context.Context, claims jwtware.AuthClaims) context.Context {
			return context.WithValue(c, claimsKey{}, claims.UserID())
		},
	}
	handler := jwtware.New(cfg)(passthrough)

	var enriched context.Context
	ctx := router.NewMockContext()
	ctx.HeadersM["Authorization"] = "Bearer " + validToken
	ctx.On("GetString", "Authorization", "").Return("Bearer " + validToken)
	ctx.On("Locals", "user", mock.Anything).Return(nil)
	ctx.On("Context").Return(context.Background())
	ctx.On("SetContext", mock.Anything).Run(func(args mock.Arguments) {
		enriched = args.Get(0).(context.Context)
	}).Return()

	if err := handler(ctx); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if enriched == nil {
		t.Fatal("expected the enriched context to be set")
	}
	if got := enriched.Value(claimsKey{}); got != "1" {
		t.Errorf("expected user id '1' in enriched context, got %v", got)
	}
}

func TestJWTWare_CustomTokenLookup(t *testing.T) {
	const validToken = "token-accepted-by-validator"

	cfg := jwtware.Config{
		TokenValidator: validatorFor(validToken),
		ErrorHandler: func(ctx router.Context, err error) error {
			return err
		},
		TokenLookup: "query:token,param:jwt,cookie:jwt_cookie",
	}
	handler := jwtware.New(cfg)(passthrough)

	// Test query parameter
	ctx := router.NewMockContext()
	ctx.QueriesM["token"] = validToken
	ctx.On("Locals", "user", mock.Anything).Return(nil)

	if err := handler(ctx); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if !ctx.NextCalled {
		t.Errorf("expected Next to be invoked for valid token")
	}

	// Test URL parameter
	ctx = router.NewMockContext()
	ctx.ParamsM["jwt"] = validToken
	ctx.On("Locals", "user", mock.Anything).Return(nil)
	if err := handler(ctx); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	// Test cookie
	ctx = router.NewMockContext()
	ctx.CookiesM["jwt_cookie"] = validToken
	ctx.On("Locals", "user", mock.Anything).Return(nil)
	if err := handler(ctx); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
}

// customPathMock overrides Path() from our base MockContext.
type customPathMock struct {
	*router.MockContext
	pathOverride string
}

func (m *customPathMock) Path() string {
	return m.pathOverride
}

func TestJWTWare_FilterFunction(t *testing.T) {
	cfg := jwtware.Config{
		TokenValidator: validatorFor("unused"),
		Filter: func(ctx router.Context) bool {
			// skip the middleware on "/public"
			return ctx.Path() == "/public"
		},
	}
	handler := jwtware.New(cfg)(passthrough)

	ctx := &customPathMock{
		MockContext:  router.NewMockContext(),
		pathOverride: "/public",
	}

	// because Filter returns true for Path() == "/public",
	// the middleware should skip token checking and call ctx.Next()
	if err := handler(ctx); err != nil {
		t.Fatalf("expected no error because Filter should skip, got %v", err)
	}
	if !ctx.NextCalled {
		t.Errorf("expected Next() to be invoked due to Filter skip")
	}
}

func TestJWTWare_DefaultConfig(t *testing.T) {
	cfg := jwtware.GetDefaultConfig(jwtware.Config{
		TokenValidator: validatorFor("unused"),
	})

	if cfg.ContextKey != "user" {
		t.Errorf("expected default context key 'user', got %s", cfg.ContextKey)
	}
	if cfg.TokenLookup != "header:"+router.HeaderAuthorization {
		t.Errorf("unexpected default token lookup: %s", cfg.TokenLookup)
	}
	if cfg.AuthScheme != "Bearer" {
		t.Errorf("expected default auth scheme 'Bearer', got %s", cfg.AuthScheme)
	}
	if cfg.ErrorHandler == nil {
		t.Error("expected a default error handler")
	}
}

func TestJWTWare_RequiresValidator(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Fatal("expected GetDefaultConfig to panic without a TokenValidator")
		}
	}()

	jwtware.GetDefaultConfig(jwtware.Config{})
}

func TestJWTWare_Extractors(t *testing.T) {
	const validToken = "token-accepted-by-validator"

	cfg := jwtware.GetDefaultConfig(jwtware.Config{
		TokenValidator: validatorFor(validToken),
		ErrorHandler: func(c router.Context, err error) error {
			return err
		},
		// This instructs the middleware to look in multiple places, in order:
		// 1. Authorization header
		// 2. Query param "jwt"
		// 3. URL param "token"
		// 4. Cookie named "jwt_cookie"
		TokenLookup: "header:Authorization,query:jwt,param:token,cookie:jwt_cookie",
	})

	handler := jwtware.New(cfg)(passthrough)

	tests := []struct {
		name      string
		setToken  func(*router.MockContext)
		wantError bool
	}{
		{
			name: "token in header -> success",
			setToken: func(ctx *router.MockContext) {
				ctx.HeadersM["Authorization"] = "Bearer " + validToken
				ctx.On("GetString", "Authorization", "").Return("Bearer " + validToken).Maybe()
				ctx.On("Locals", cfg.ContextKey, mock.Anything).Return(nil).Maybe()
			},
		},
		{
			name: "token in query -> success",
			setToken: func(ctx *router.MockContext) {
				ctx.QueriesM["jwt"] = validToken
				ctx.On("GetString", "Authorization", "").Return("").Maybe()
				ctx.On("Locals", cfg.ContextKey, mock.Anything).Return(nil).Maybe()
			},
		},
		{
			name: "token in param -> success",
			setToken: func(ctx *router.MockContext) {
				ctx.ParamsM["token"] = validToken
				ctx.On("GetString", "Authorization", "").Return("").Maybe()
				ctx.On("Locals", cfg.ContextKey, mock.Anything).Return(nil).Maybe()
			},
		},
		{
			name: "token in cookie -> success",
			setToken: func(ctx *router.MockContext) {
				ctx.CookiesM["jwt_cookie"] = validToken
				ctx.On("GetString", "Authorization", "").Return("").Maybe()
				ctx.On("Locals", cfg.ContextKey, mock.Anything).Return(nil).Maybe()
			},
		},
		{
			name: "no token anywhere -> error",
			setToken: func(ctx *router.MockContext) {
				ctx.On("GetString", "Authorization", "").Return("").Maybe()
			},
			wantError: true,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			ctx := router.NewMockContext()
			tc.setToken(ctx)

			err := handler(ctx)
			if tc.wantError {
				if err == nil {
					t.Errorf("expected an error, but got nil")
				}
				return
			}

			if err != nil {
				t.Fatalf("expected no error, got %v", err)
			}

			if !ctx.NextCalled {
				t.Errorf("middleware did not call Next() on success")
			}
		})
	}
}
