package core

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Auth0Config configures verification of Auth0-issued JWTs (verify-only mode).
// The service never issues tokens; Auth0 owns the credential lifecycle.
type Auth0Config struct {
	// Domain is the Auth0 tenant domain, e.g. "connelaide.us.auth0.com".
	Domain string
	// Audience is the API identifier registered in Auth0.
	Audience string
	// Issuer is the expected iss claim. Defaults to "https://<Domain>/".
	Issuer string
	// Algorithms is the signature algorithm allow-list. Asymmetric only.
	Algorithms []string
	// CacheTTL bounds staleness of the cached JWKS.
	CacheTTL time.Duration
	// Skew is the clock-drift leeway applied to exp/nbf checks.
	Skew time.Duration
	// FetchTimeout bounds a single JWKS network fetch.
	FetchTimeout time.Duration
}

// JWKSURL returns the tenant's well-known JWKS endpoint.
func (c Auth0Config) JWKSURL() string {
	return "https://" + c.Domain + "/.well-known/jwks.json"
}

func (c *Auth0Config) applyDefaults() {
	if c.Issuer == "" && c.Domain != "" {
		c.Issuer = "https://" + c.Domain + "/"
	}
	if len(c.Algorithms) == 0 {
		c.Algorithms = []string{"RS256"}
	}
	if c.CacheTTL <= 0 {
		c.CacheTTL = 10 * time.Minute
	}
	if c.Skew <= 0 {
		c.Skew = 5 * time.Second
	}
	if c.FetchTimeout <= 0 {
		c.FetchTimeout = 5 * time.Second
	}
}

// Validate checks required fields.
func (c Auth0Config) Validate() error {
	if strings.TrimSpace(c.Domain) == "" {
		return fmt.Errorf("auth0: domain is required")
	}
	if strings.TrimSpace(c.Audience) == "" {
		return fmt.Errorf("auth0: audience is required")
	}
	return nil
}

// ManagementConfig configures the optional Auth0 Management API client
// (machine-to-machine client credentials).
type ManagementConfig struct {
	ClientID     string
	ClientSecret string
}

// Enabled reports whether management credentials were provided.
func (c ManagementConfig) Enabled() bool {
	return c.ClientID != "" && c.ClientSecret != ""
}

// Config is the full service configuration, assembled from the environment.
type Config struct {
	Env        string
	ListenAddr string

	// AllowedOrigins for CORS. Defaults to the production frontend.
	AllowedOrigins []string

	Auth0      Auth0Config
	Management ManagementConfig

	// DBSecretName, when set, points at an AWS Secrets Manager secret holding
	// database credentials. DatabaseURL is the local-dev fallback.
	DBSecretName string
	DatabaseURL  string
	AWSRegion    string

	// RedisAddr enables the Redis rate limiter when non-empty.
	RedisAddr     string
	RedisPassword string

	// SyncSchedule is a cron expression for the background transaction sync.
	SyncSchedule string
}

// LoadConfig reads configuration from the environment and applies defaults.
func LoadConfig() (*Config, error) {
	cfg := &Config{
		Env:        getenv("ENVIRONMENT", "development"),
		ListenAddr: getenv("LISTEN_ADDR", ":8000"),
		Auth0: Auth0Config{
			Domain:       os.Getenv("AUTH0_DOMAIN"),
			Audience:     os.Getenv("AUTH0_API_AUDIENCE"),
			CacheTTL:     getenvDuration("JWKS_CACHE_TTL", 10*time.Minute),
			Skew:         getenvDuration("JWT_CLOCK_SKEW", 5*time.Second),
			FetchTimeout: getenvDuration("JWKS_FETCH_TIMEOUT", 5*time.Second),
		},
		Management: ManagementConfig{
			ClientID:     os.Getenv("AUTH0_MGMT_CLIENT_ID"),
			ClientSecret: os.Getenv("AUTH0_MGMT_CLIENT_SECRET"),
		},
		DBSecretName:  os.Getenv("DB_SECRET_NAME"),
		DatabaseURL:   os.Getenv("DATABASE_URL"),
		AWSRegion:     getenv("AWS_REGION", "us-east-1"),
		RedisAddr:     os.Getenv("REDIS_ADDR"),
		RedisPassword: os.Getenv("REDIS_PASSWORD"),
		SyncSchedule:  getenv("SYNC_SCHEDULE", "@every 6h"),
	}
	if v := os.Getenv("ALLOWED_ORIGINS"); v != "" {
		for _, o := range strings.Split(v, ",") {
			if o = strings.TrimSpace(o); o != "" {
				cfg.AllowedOrigins = append(cfg.AllowedOrigins, o)
			}
		}
	} else {
		cfg.AllowedOrigins = []string{"https://connelaide.com"}
	}
	cfg.Auth0.applyDefaults()
	if err := cfg.Auth0.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// IsProd reports whether the service runs in a production environment.
func (c *Config) IsProd() bool {
	env := strings.ToLower(strings.TrimSpace(c.Env))
	return env == "production" || env == "prod"
}

func getenv(key, def string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return def
}

func getenvDuration(key string, def time.Duration) time.Duration {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def
	}
	if d, err := time.ParseDuration(v); err == nil {
		return d
	}
	// Accept bare seconds for parity with the env files used in deployment.
	if secs, err := strconv.Atoi(v); err == nil {
		return time.Duration(secs) * time.Second
	}
	return def
}
