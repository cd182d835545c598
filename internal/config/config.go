// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

package config

import (
	"errors"
	"fmt"
	"net"
	"strings"
	"time"

	altsrc "github.com/urfave/cli-altsrc/v3"
	"github.com/urfave/cli-altsrc/v3/toml"
	"github.com/urfave/cli/v3"
	"golang.org/x/crypto/bcrypt"
)

var configFile = altsrc.StringSourcer("config.toml")

// DefaultSecretKey is the placeholder secret shipped in the defaults. It is
// rejected by Validate unless the server runs in development mode.
const DefaultSecretKey = "change-me-in-production"

// Registration modes for POST /api/auth/register.
const (
	RegistrationOpen   = "open"
	RegistrationAdmin  = "admin"
	RegistrationClosed = "closed"
)

type Config struct { //nolint:govet // fieldalignment not critical for config structs
	Env          string
	Server       ServerConfig
	Log          LogConfig
	Database     DatabaseConfig
	Auth         AuthConfig
	API          APIConfig
	Storage      StorageConfig
	Certificates CertificateConfig
	SMTP         SMTPConfig
	Notify       NotifyConfig
}

type ServerConfig struct { //nolint:govet // fieldalignment not critical for config structs
	Host        string
	Port        int
	BaseURL     string
	MaxBodySize int // in MB
	CORSOrigins []string
	TLSMode     string // auto, off, manual, acme
	TLSCertFile string
	TLSKeyFile  string
	TLSCertDir  string // ACME certificate cache
	ACMEEmail   string
}

// TLS modes.
const (
	TLSAuto   = "auto"
	TLSOff    = "off"
	TLSManual = "manual"
	TLSACME   = "acme"
)

// ResolvedTLSMode returns the effective TLS mode. Auto selects manual when a
// certificate pair is configured and plain HTTP otherwise.
func (c ServerConfig) ResolvedTLSMode() string {
	switch mode := strings.ToLower(c.TLSMode); mode {
	case TLSOff, TLSManual, TLSACME:
		return mode
	}
	if c.TLSCertFile != "" && c.TLSKeyFile != "" {
		return TLSManual
	}
	return TLSOff
}

// IsLocalhost checks if the host is a loopback or unspecified address.
func IsLocalhost(host string) bool {
	switch host {
	case "", "localhost", "127.0.0.1", "::1", "0.0.0.0":
		return true
	}
	return false
}

type LogConfig struct {
	Level  string // debug, info, warn, error
	Format string // text, json
}

type DatabaseConfig struct {
	DSN string
}

// AuthConfig holds the token signing material and bootstrap credentials.
// It is built once at startup and never mutated afterwards.
type AuthConfig struct { //nolint:govet // fieldalignment not critical for config structs
	SecretKey         string
	Algorithm         string // HS256, HS384, HS512
	TokenTTL          time.Duration
	BcryptCost        int
	PasswordMinLength int
	AdminEmail        string
	AdminPassword     string
	RegistrationMode  string // open, admin, closed
}

type APIConfig struct {
	DefaultPageSize int
	MaxPageSize     int
}

type StorageConfig struct {
	Driver             string // local, supabase
	LocalDir           string
	SupabaseURL        string
	SupabaseServiceKey string
	SupabaseBucket     string
}

type CertificateConfig struct {
	CodePrefix string
	PublicURL  string // frontend base URL used in verification links
}

type SMTPConfig struct { //nolint:govet // fieldalignment not critical for config structs
	Host     string
	Port     int
	Username string
	Password string
	From     string
	FromName string
	TLS      bool
}

type NotifyConfig struct {
	Enabled bool
}

// IsDevelopment reports whether the server runs in development mode.
func (c *Config) IsDevelopment() bool {
	return c.Env == "development"
}

// Page clamps list parameters: a negative skip becomes 0, a non-positive
// limit the default page size and a limit above the maximum the maximum.
func (c APIConfig) Page(skip, limit int) (int, int) {
	if skip < 0 {
		skip = 0
	}
	if limit <= 0 {
		limit = c.DefaultPageSize
	}
	if c.MaxPageSize > 0 && limit > c.MaxPageSize {
		limit = c.MaxPageSize
	}
	return skip, limit
}

// Enabled reports whether SMTP delivery is configured.
func (c *SMTPConfig) Enabled() bool {
	return c.Host != ""
}

func NewFromCLI(cmd *cli.Command) *Config {
	cfg := &Config{
		Env: cmd.String("env"),
		Server: ServerConfig{
			Host:        cmd.String("host"),
			Port:        int(cmd.Int("port")),
			BaseURL:     cmd.String("base-url"),
			MaxBodySize: int(cmd.Int("max-body-size")),
			CORSOrigins: cmd.StringSlice("cors-origins"),
			TLSMode:     cmd.String("tls-mode"),
			TLSCertFile: cmd.String("tls-cert-file"),
			TLSKeyFile:  cmd.String("tls-key-file"),
			TLSCertDir:  cmd.String("tls-cert-dir"),
			ACMEEmail:   cmd.String("tls-email"),
		},
		Log: LogConfig{
			Level:  cmd.String("log-level"),
			Format: cmd.String("log-format"),
		},
		Database: DatabaseConfig{
			DSN: cmd.String("database-dsn"),
		},
		Auth: AuthConfig{
			SecretKey:         cmd.String("secret-key"),
			Algorithm:         strings.ToUpper(cmd.String("algorithm")),
			TokenTTL:          time.Duration(cmd.Int("token-ttl")) * time.Minute,
			BcryptCost:        int(cmd.Int("bcrypt-cost")),
			PasswordMinLength: int(cmd.Int("password-min-length")),
			AdminEmail:        cmd.String("admin-email"),
			AdminPassword:     cmd.String("admin-password"),
			RegistrationMode:  strings.ToLower(cmd.String("registration-mode")),
		},
		API: APIConfig{
			DefaultPageSize: int(cmd.Int("default-page-size")),
			MaxPageSize:     int(cmd.Int("max-page-size")),
		},
		Storage: StorageConfig{
			Driver:             strings.ToLower(cmd.String("storage-driver")),
			LocalDir:           cmd.String("storage-local-dir"),
			SupabaseURL:        strings.TrimSuffix(cmd.String("supabase-url"), "/"),
			SupabaseServiceKey: cmd.String("supabase-service-key"),
			SupabaseBucket:     cmd.String("supabase-bucket"),
		},
		Certificates: CertificateConfig{
			CodePrefix: strings.ToUpper(cmd.String("code-prefix")),
			PublicURL:  strings.TrimSuffix(cmd.String("public-url"), "/"),
		},
		SMTP: SMTPConfig{
			Host:     cmd.String("smtp-host"),
			Port:     int(cmd.Int("smtp-port")),
			Username: cmd.String("smtp-username"),
			Password: cmd.String("smtp-password"),
			From:     cmd.String("smtp-from"),
			FromName: cmd.String("smtp-from-name"),
			TLS:      cmd.Bool("smtp-tls"),
		},
		Notify: NotifyConfig{
			Enabled: cmd.Bool("notify-recipients"),
		},
	}

	applyDefaults(cfg)

	return cfg
}

// applyDefaults fills values derived from other settings.
func applyDefaults(cfg *Config) {
	if cfg.Server.BaseURL == "" {
		cfg.Server.BaseURL = buildBaseURL(cfg)
	}
	cfg.Server.BaseURL = strings.TrimSuffix(cfg.Server.BaseURL, "/")
	if cfg.Certificates.PublicURL == "" {
		cfg.Certificates.PublicURL = cfg.Server.BaseURL
	}
	if cfg.Auth.TokenTTL <= 0 {
		cfg.Auth.TokenTTL = 30 * time.Minute
	}
	if cfg.Auth.BcryptCost == 0 {
		cfg.Auth.BcryptCost = bcrypt.DefaultCost
	}
	if cfg.API.MaxPageSize <= 0 {
		cfg.API.MaxPageSize = 1000
	}
	if cfg.API.DefaultPageSize <= 0 || cfg.API.DefaultPageSize > cfg.API.MaxPageSize {
		cfg.API.DefaultPageSize = min(100, cfg.API.MaxPageSize)
	}
}

// Validate checks settings that would make the server insecure or unusable.
func (c *Config) Validate() error {
	var errs []error

	if c.Auth.SecretKey == "" {
		errs = append(errs, errors.New("secret key must not be empty"))
	} else if c.Auth.SecretKey == DefaultSecretKey && !c.IsDevelopment() {
		errs = append(errs, errors.New("secret key must be changed outside development"))
	}

	switch c.Auth.Algorithm {
	case "HS256", "HS384", "HS512":
	default:
		errs = append(errs, fmt.Errorf("unsupported signing algorithm %q", c.Auth.Algorithm))
	}

	switch c.Auth.RegistrationMode {
	case RegistrationOpen, RegistrationAdmin, RegistrationClosed:
	default:
		errs = append(errs, fmt.Errorf("unknown registration mode %q", c.Auth.RegistrationMode))
	}

	if c.Auth.BcryptCost < bcrypt.MinCost || c.Auth.BcryptCost > bcrypt.MaxCost {
		errs = append(errs, fmt.Errorf("bcrypt cost must be between %d and %d", bcrypt.MinCost, bcrypt.MaxCost))
	}

	switch c.Storage.Driver {
	case "local":
	case "supabase":
		if c.Storage.SupabaseURL == "" || c.Storage.SupabaseServiceKey == "" {
			errs = append(errs, errors.New("supabase storage requires supabase-url and supabase-service-key"))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown storage driver %q", c.Storage.Driver))
	}

	if (c.Server.TLSCertFile == "") != (c.Server.TLSKeyFile == "") {
		errs = append(errs, errors.New("tls-cert-file and tls-key-file must be set together"))
	}

	switch strings.ToLower(c.Server.TLSMode) {
	case "", TLSAuto, TLSOff:
	case TLSManual:
		if c.Server.TLSCertFile == "" {
			errs = append(errs, errors.New("manual TLS mode requires tls-cert-file and tls-key-file"))
		}
	case TLSACME:
		if c.Server.ACMEEmail == "" {
			errs = append(errs, errors.New("acme TLS mode requires tls-email"))
		}
		if IsLocalhost(c.Server.Host) || net.ParseIP(c.Server.Host) != nil {
			errs = append(errs, errors.New("acme TLS mode requires a public domain name as host"))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown TLS mode %q", c.Server.TLSMode))
	}

	return errors.Join(errs...)
}

func buildBaseURL(cfg *Config) string {
	mode := cfg.Server.ResolvedTLSMode()
	scheme := "http"
	if mode != TLSOff {
		scheme = "https"
	}

	host := cfg.Server.Host
	if host == "" || host == "0.0.0.0" {
		host = "localhost"
	}

	// ACME always serves on 443
	if mode == TLSACME {
		return "https://" + host
	}

	// Hide default ports in URL
	if (scheme == "http" && cfg.Server.Port == 80) || (scheme == "https" && cfg.Server.Port == 443) {
		return fmt.Sprintf("%s://%s", scheme, host)
	}
	return fmt.Sprintf("%s://%s:%d", scheme, host, cfg.Server.Port)
}

func source(env, key string) cli.ValueSourceChain {
	return cli.NewValueSourceChain(cli.EnvVar(env), toml.TOML(key, configFile))
}

func Flags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:    "env",
			Value:   "development",
			Usage:   "Environment (development, production)",
			Sources: source("ENV", "env"),
		},
		&cli.StringFlag{
			Name:    "host",
			Value:   "localhost",
			Usage:   "Host to bind to",
			Sources: source("HOST", "server.host"),
		},
		&cli.IntFlag{
			Name:    "port",
			Value:   8000,
			Usage:   "Port to listen on",
			Sources: source("PORT", "server.port"),
		},
		&cli.StringFlag{
			Name:    "base-url",
			Usage:   "Base URL for the API",
			Sources: source("BASE_URL", "server.base_url"),
		},
		&cli.IntFlag{
			Name:    "max-body-size",
			Value:   11,
			Usage:   "Maximum request body size in MB",
			Sources: source("MAX_BODY_SIZE", "server.max_body_size"),
		},
		&cli.StringSliceFlag{
			Name:    "cors-origins",
			Value:   []string{"http://localhost:5173", "http://localhost:3000"},
			Usage:   "Allowed CORS origins",
			Sources: source("CORS_ORIGINS", "server.cors_origins"),
		},
		&cli.StringFlag{
			Name:    "tls-mode",
			Value:   TLSAuto,
			Usage:   "TLS mode (auto, off, manual, acme)",
			Sources: source("TLS_MODE", "server.tls_mode"),
		},
		&cli.StringFlag{
			Name:    "tls-cert-file",
			Usage:   "Path to TLS certificate file",
			Sources: source("TLS_CERT_FILE", "server.tls_cert_file"),
		},
		&cli.StringFlag{
			Name:    "tls-key-file",
			Usage:   "Path to TLS private key file",
			Sources: source("TLS_KEY_FILE", "server.tls_key_file"),
		},
		&cli.StringFlag{
			Name:    "tls-cert-dir",
			Value:   "./data/certs",
			Usage:   "Directory for ACME certificates",
			Sources: source("TLS_CERT_DIR", "server.tls_cert_dir"),
		},
		&cli.StringFlag{
			Name:    "tls-email",
			Usage:   "Contact email for Let's Encrypt (acme mode)",
			Sources: source("TLS_EMAIL", "server.tls_email"),
		},
		&cli.StringFlag{
			Name:    "log-level",
			Value:   "info",
			Usage:   "Log level (debug, info, warn, error)",
			Sources: source("LOG_LEVEL", "log.level"),
		},
		&cli.StringFlag{
			Name:    "log-format",
			Value:   "text",
			Usage:   "Log format (text, json)",
			Sources: source("LOG_FORMAT", "log.format"),
		},
		&cli.StringFlag{
			Name:    "database-dsn",
			Value:   "./data/certificates.db",
			Usage:   "Database DSN (SQLite path or postgres:// URL)",
			Sources: source("DATABASE_URL", "database.dsn"),
		},
		// Auth flags
		&cli.StringFlag{
			Name:    "secret-key",
			Value:   DefaultSecretKey,
			Usage:   "Secret key for signing access tokens",
			Sources: source("SECRET_KEY", "auth.secret_key"),
		},
		&cli.StringFlag{
			Name:    "algorithm",
			Value:   "HS256",
			Usage:   "Token signing algorithm (HS256, HS384, HS512)",
			Sources: source("ALGORITHM", "auth.algorithm"),
		},
		&cli.IntFlag{
			Name:    "token-ttl",
			Value:   30,
			Usage:   "Access token lifetime in minutes",
			Sources: source("ACCESS_TOKEN_EXPIRE_MINUTES", "auth.token_ttl"),
		},
		&cli.IntFlag{
			Name:    "bcrypt-cost",
			Value:   bcrypt.DefaultCost,
			Usage:   "bcrypt cost factor for password hashes",
			Sources: source("BCRYPT_COST", "auth.bcrypt_cost"),
		},
		&cli.IntFlag{
			Name:    "password-min-length",
			Value:   6,
			Usage:   "Minimum admin password length",
			Sources: source("PASSWORD_MIN_LENGTH", "auth.password_min_length"),
		},
		&cli.StringFlag{
			Name:    "admin-email",
			Value:   "admin@acmclub.com",
			Usage:   "Email of the bootstrap admin",
			Sources: source("ADMIN_EMAIL", "auth.admin_email"),
		},
		&cli.StringFlag{
			Name:    "admin-password",
			Usage:   "Password of the bootstrap admin",
			Sources: source("ADMIN_PASSWORD", "auth.admin_password"),
		},
		&cli.StringFlag{
			Name:    "registration-mode",
			Value:   RegistrationAdmin,
			Usage:   "Admin registration mode (open, admin, closed)",
			Sources: source("REGISTRATION_MODE", "auth.registration_mode"),
		},
		// API flags
		&cli.IntFlag{
			Name:    "default-page-size",
			Value:   100,
			Usage:   "Default number of rows returned by list endpoints",
			Sources: source("DEFAULT_PAGE_SIZE", "api.default_page_size"),
		},
		&cli.IntFlag{
			Name:    "max-page-size",
			Value:   1000,
			Usage:   "Maximum number of rows returned by list endpoints",
			Sources: source("MAX_PAGE_SIZE", "api.max_page_size"),
		},
		// Storage flags
		&cli.StringFlag{
			Name:    "storage-driver",
			Value:   "local",
			Usage:   "Image storage driver (local, supabase)",
			Sources: source("STORAGE_DRIVER", "storage.driver"),
		},
		&cli.StringFlag{
			Name:    "storage-local-dir",
			Value:   "./data/uploads",
			Usage:   "Directory for locally stored images",
			Sources: source("STORAGE_LOCAL_DIR", "storage.local_dir"),
		},
		&cli.StringFlag{
			Name:    "supabase-url",
			Usage:   "Supabase project URL",
			Sources: source("SUPABASE_URL", "storage.supabase_url"),
		},
		&cli.StringFlag{
			Name:    "supabase-service-key",
			Usage:   "Supabase service role key",
			Sources: source("SUPABASE_SERVICE_KEY", "storage.supabase_service_key"),
		},
		&cli.StringFlag{
			Name:    "supabase-bucket",
			Value:   "certificate-images",
			Usage:   "Supabase storage bucket for certificate images",
			Sources: source("SUPABASE_BUCKET", "storage.supabase_bucket"),
		},
		// Certificate flags
		&cli.StringFlag{
			Name:    "code-prefix",
			Value:   "ACM",
			Usage:   "Prefix of generated certificate codes",
			Sources: source("CODE_PREFIX", "certificates.code_prefix"),
		},
		&cli.StringFlag{
			Name:    "public-url",
			Usage:   "Public frontend URL used in verification links (defaults to base_url)",
			Sources: source("PUBLIC_URL", "certificates.public_url"),
		},
		// SMTP flags
		&cli.StringFlag{
			Name:    "smtp-host",
			Usage:   "SMTP server host (empty disables email)",
			Sources: source("SMTP_HOST", "smtp.host"),
		},
		&cli.IntFlag{
			Name:    "smtp-port",
			Value:   587,
			Usage:   "SMTP server port",
			Sources: source("SMTP_PORT", "smtp.port"),
		},
		&cli.StringFlag{
			Name:    "smtp-username",
			Usage:   "SMTP username",
			Sources: source("SMTP_USERNAME", "smtp.username"),
		},
		&cli.StringFlag{
			Name:    "smtp-password",
			Usage:   "SMTP password",
			Sources: source("SMTP_PASSWORD", "smtp.password"),
		},
		&cli.StringFlag{
			Name:    "smtp-from",
			Usage:   "Sender address",
			Sources: source("SMTP_FROM", "smtp.from"),
		},
		&cli.StringFlag{
			Name:    "smtp-from-name",
			Value:   "ACM Certificate System",
			Usage:   "Sender display name",
			Sources: source("SMTP_FROM_NAME", "smtp.from_name"),
		},
		&cli.BoolFlag{
			Name:    "smtp-tls",
			Value:   true,
			Usage:   "Require TLS for SMTP",
			Sources: source("SMTP_TLS", "smtp.tls"),
		},
		&cli.BoolFlag{
			Name:    "notify-recipients",
			Usage:   "Email recipients when a certificate is issued",
			Sources: source("NOTIFY_RECIPIENTS", "notify.enabled"),
		},
	}
}
