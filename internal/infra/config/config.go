package config

import (
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/Builder-Lawyers/mail-relay/pkg/env"
)

type ProvisionConfig struct {
	Region string
	// RecordTTL is applied to every planned DNS record.
	RecordTTL   int
	CallTimeout time.Duration
	// PreDelay bounds the random wait before the first registrar call.
	PreDelay       time.Duration
	SweepDelay     time.Duration
	VerifyInterval time.Duration
}

func NewProvisionConfig() *ProvisionConfig {
	return &ProvisionConfig{
		Region:         env.GetEnv("AWS_REGION", "us-east-1"),
		RecordTTL:      env.GetInt("SES_RECORD_TTL", 1800),
		CallTimeout:    env.GetDuration("PROVIDER_CALL_TIMEOUT", 10*time.Second),
		PreDelay:       env.GetDuration("REGISTRAR_PRE_DELAY", 2*time.Second),
		SweepDelay:     env.GetDuration("VERIFY_SWEEP_DELAY", 500*time.Millisecond),
		VerifyInterval: env.GetDuration("VERIFY_INTERVAL", 0),
	}
}

const (
	RegistrarDigitalOcean = "digitalocean"
	RegistrarRoute53      = "route53"
	RegistrarNone         = "none"
)

type RegistrarConfig struct {
	Kind              string
	DigitalOceanToken string
	Retries           int
	BaseDelay         time.Duration
	MaxJitter         time.Duration
}

func NewRegistrarConfig() *RegistrarConfig {
	cfg := &RegistrarConfig{
		Kind:              strings.ToLower(env.GetEnv("REGISTRAR", RegistrarDigitalOcean)),
		DigitalOceanToken: os.Getenv("DIGITALOCEAN_TOKEN"),
		Retries:           env.GetInt("REGISTRAR_RETRIES", 3),
		BaseDelay:         env.GetDuration("REGISTRAR_BASE_DELAY", time.Second),
		MaxJitter:         env.GetDuration("REGISTRAR_MAX_JITTER", time.Second),
	}
	if cfg.Kind == RegistrarDigitalOcean && cfg.DigitalOceanToken == "" {
		slog.Warn("DIGITALOCEAN_TOKEN is not set, dns automation disabled")
		cfg.Kind = RegistrarNone
	}
	return cfg
}

type AuthConfig struct {
	JWTSecret string
	JWKSURL   string
	// MaintenanceRole must be among a token's roles to run fleet-wide jobs.
	MaintenanceRole string
}

func NewAuthConfig() *AuthConfig {
	return &AuthConfig{
		JWTSecret:       os.Getenv("AUTH_JWT_SECRET"),
		JWKSURL:         os.Getenv("AUTH_JWKS_URL"),
		MaintenanceRole: env.GetEnv("AUTH_MAINTENANCE_ROLE", "relay-maintainer"),
	}
}

type HTTPConfig struct {
	Addr        string
	CORSOrigins string
}

func NewHTTPConfig() *HTTPConfig {
	return &HTTPConfig{
		Addr:        env.GetEnv("HTTP_ADDR", ":8080"),
		CORSOrigins: env.GetEnv("CORS_ORIGINS", "*"),
	}
}

// LogLevel parses LOG_LEVEL, falling back to info.
func LogLevel() slog.Level {
	var level slog.Level
	if err := level.UnmarshalText([]byte(env.GetEnv("LOG_LEVEL", "info"))); err != nil {
		return slog.LevelInfo
	}
	return level
}
