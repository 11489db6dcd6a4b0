package config

import (
	"fmt"
	"time"
)

// AppConfig is the root configuration tree loaded by the config container.
type AppConfig struct {
	Server      Server      `json:"server" koanf:"server"`
	Auth        Auth        `json:"auth" koanf:"auth"`
	Persistence Persistence `json:"persistence" koanf:"persistence"`
}

func (a AppConfig) Validate() error {
	if a.Auth.SigningKey == "" {
		return fmt.Errorf("auth.signing_key is required")
	}

	if expr := a.Persistence.PingTimeoutExpression; expr != "" {
		if _, err := time.ParseDuration(expr); err != nil {
			return fmt.Errorf("persistence.ping_timeout is not a valid duration: %q", expr)
		}
	}

	return nil
}

func (a *AppConfig) GetServer() *Server {
	return &a.Server
}

func (a *AppConfig) GetAuth() *Auth {
	return &a.Auth
}

func (a *AppConfig) GetPersistence() *Persistence {
	return &a.Persistence
}

// Server holds the HTTP listener options
type Server struct {
	Addr  string `json:"addr" koanf:"addr"`
	Debug bool   `json:"debug" koanf:"debug"`
}

func (s Server) GetAddr() string {
	if s.Addr == "" {
		return ":9009"
	}
	return s.Addr
}

func (s Server) GetDebug() bool {
	return s.Debug
}

// Auth holds token options. The signing key is read once at startup and is
// constant for the process lifetime.
type Auth struct {
	SigningKey      string   `json:"signing_key" koanf:"signing_key"`
	SigningMethod   string   `json:"signing_method" koanf:"signing_method"`
	ContextKey      string   `json:"context_key" koanf:"context_key"`
	TokenExpiration int      `json:"token_expiration" koanf:"token_expiration"`
	TokenLookup     string   `json:"token_lookup" koanf:"token_lookup"`
	AuthScheme      string   `json:"auth_scheme" koanf:"auth_scheme"`
	Issuer          string   `json:"issuer" koanf:"issuer"`
	Audience        []string `json:"audience" koanf:"audience"`
}

func (a Auth) GetSigningKey() string {
	return a.SigningKey
}

func (a Auth) GetSigningMethod() string {
	if a.SigningMethod == "" {
		return "HS256"
	}
	return a.SigningMethod
}

func (a Auth) GetContextKey() string {
	if a.ContextKey == "" {
		return "user"
	}
	return a.ContextKey
}

// GetTokenExpiration is expressed in hours; zero issues tokens without an
// expiration claim.
func (a Auth) GetTokenExpiration() int {
	return a.TokenExpiration
}

func (a Auth) GetTokenLookup() string {
	if a.TokenLookup == "" {
		return "header:Authorization"
	}
	return a.TokenLookup
}

func (a Auth) GetAuthScheme() string {
	if a.AuthScheme == "" {
		return "Bearer"
	}
	return a.AuthScheme
}

func (a Auth) GetIssuer() string {
	return a.Issuer
}

func (a Auth) GetAudience() []string {
	return a.Audience
}

const defaultPingTimeout = 5 * time.Second

// Persistence holds database client options
type Persistence struct {
	Driver                string `json:"driver" koanf:"driver"`
	Server                string `json:"server" koanf:"server"`
	Database              string `json:"database" koanf:"database"`
	DSN                   string `json:"dsn" koanf:"dsn"`
	Debug                 bool   `json:"debug" koanf:"debug"`
	PingTimeoutExpression string `json:"ping_timeout" koanf:"ping_timeout"`
}

func (p Persistence) GetDriver() string {
	if p.Driver == "" {
		return "sqlite"
	}
	return p.Driver
}

func (p Persistence) GetServer() string {
	return p.Server
}

func (p Persistence) GetDatabase() string {
	return p.Database
}

func (p Persistence) GetDSN() string {
	if p.DSN == "" {
		return "file:./users.db?cache=shared&_fk=1"
	}
	return p.DSN
}

func (p Persistence) GetDebug() bool {
	return p.Debug
}

func (p Persistence) GetOtelIdentifier() string {
	return ""
}

// GetPingTimeout falls back to the default on a malformed expression;
// Validate reports the malformed value at load time.
func (p Persistence) GetPingTimeout() time.Duration {
	if p.PingTimeoutExpression == "" {
		return defaultPingTimeout
	}
	dur, err := time.ParseDuration(p.PingTimeoutExpression)
	if err != nil {
		return defaultPingTimeout
	}
	return dur
}
