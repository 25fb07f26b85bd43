// Package secrets resolves the database DSN from AWS Secrets Manager, with a
// plain environment-variable fallback for local development.
package secrets

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"sync"

	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/secretsmanager"
)

// dbSecret is the JSON shape stored in Secrets Manager for RDS credentials.
type dbSecret struct {
	Username string `json:"username"`
	Password string `json:"password"`
	Host     string `json:"host"`
	Port     int    `json:"port"`
	DBName   string `json:"dbname"`
}

// Resolver fetches secrets once per process and caches the result.
type Resolver struct {
	region string

	mu    sync.Mutex
	cache map[string]string
}

func NewResolver(region string) *Resolver {
	return &Resolver{region: region, cache: make(map[string]string)}
}

// DatabaseURL builds a Postgres DSN from the named secret. When secretName
// is empty the fallback DSN (DATABASE_URL) is returned instead; requiring
// one of the two keeps misconfigured deployments from starting silently.
func (r *Resolver) DatabaseURL(ctx context.Context, secretName, fallbackDSN string, production bool) (string, error) {
	if secretName == "" {
		if fallbackDSN == "" {
			return "", fmt.Errorf("secrets: neither DB_SECRET_NAME nor DATABASE_URL is set")
		}
		return fallbackDSN, nil
	}

	raw, err := r.secretString(ctx, secretName)
	if err != nil {
		return "", fmt.Errorf("secrets: retrieve %q: %w", secretName, err)
	}
	var s dbSecret
	if err := json.Unmarshal([]byte(raw), &s); err != nil {
		return "", fmt.Errorf("secrets: decode %q: %w", secretName, err)
	}
	if s.Port == 0 {
		s.Port = 5432
	}
	dsn := fmt.Sprintf("postgres://%s:%s@%s:%d/%s",
		url.QueryEscape(s.Username), url.QueryEscape(s.Password), s.Host, s.Port, s.DBName)
	if production {
		dsn += "?sslmode=require"
	}
	return dsn, nil
}

func (r *Resolver) secretString(ctx context.Context, name string) (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if v, ok := r.cache[name]; ok {
		return v, nil
	}

	cfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(r.region))
	if err != nil {
		return "", err
	}
	client := secretsmanager.NewFromConfig(cfg)
	out, err := client.GetSecretValue(ctx, &secretsmanager.GetSecretValueInput{SecretId: &name})
	if err != nil {
		return "", err
	}
	if out.SecretString == nil {
		return "", fmt.Errorf("secret has no string payload")
	}
	r.cache[name] = *out.SecretString
	return *out.SecretString, nil
}
