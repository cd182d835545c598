// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

package server

import (
	"crypto/sha256"
	"crypto/tls"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"codeberg.org/acmclub/certificates/internal/config"
	"golang.org/x/crypto/acme/autocert"
)

// tlsSetup is the resolved transport security for the listener.
type tlsSetup struct {
	Config *tls.Config
	// ChallengeHandler answers ACME HTTP-01 challenges on :80 and
	// redirects everything else to HTTPS. Only set in acme mode.
	ChallengeHandler http.Handler
	Mode             string
}

func setupTLS(cfg *config.Config) (*tlsSetup, error) {
	mode := cfg.Server.ResolvedTLSMode()

	switch mode {
	case config.TLSOff:
		return &tlsSetup{Mode: mode}, nil
	case config.TLSManual:
		slog.Info("TLS mode: manual", "cert", cfg.Server.TLSCertFile, "key", cfg.Server.TLSKeyFile)
		return setupManual(cfg.Server)
	case config.TLSACME:
		slog.Info("TLS mode: acme", "host", cfg.Server.Host, "email", cfg.Server.ACMEEmail)
		return setupACME(cfg.Server)
	}
	return nil, fmt.Errorf("unknown TLS mode: %s", mode)
}

func setupManual(sc config.ServerConfig) (*tlsSetup, error) {
	if sc.TLSCertFile == "" || sc.TLSKeyFile == "" {
		return nil, fmt.Errorf("manual TLS mode requires both cert-file and key-file")
	}

	cert, err := tls.LoadX509KeyPair(sc.TLSCertFile, sc.TLSKeyFile)
	if err != nil {
		return nil, fmt.Errorf("failed to load certificate: %w", err)
	}
	logCertFingerprint(&cert)

	return &tlsSetup{
		Mode: config.TLSManual,
		Config: &tls.Config{
			Certificates: []tls.Certificate{cert},
			MinVersion:   tls.VersionTLS12,
		},
	}, nil
}

func setupACME(sc config.ServerConfig) (*tlsSetup, error) {
	certDir := filepath.Join(sc.TLSCertDir, "acme")
	if err := os.MkdirAll(certDir, 0o700); err != nil {
		return nil, fmt.Errorf("failed to create ACME cert directory: %w", err)
	}

	manager := &autocert.Manager{
		Prompt:     autocert.AcceptTOS,
		Email:      sc.ACMEEmail,
		Cache:      autocert.DirCache(certDir),
		HostPolicy: autocert.HostWhitelist(sc.Host),
	}

	tlsConfig := manager.TLSConfig()
	tlsConfig.MinVersion = tls.VersionTLS12

	return &tlsSetup{
		Mode:             config.TLSACME,
		Config:           tlsConfig,
		ChallengeHandler: manager.HTTPHandler(nil),
	}, nil
}

func logCertFingerprint(cert *tls.Certificate) {
	if len(cert.Certificate) == 0 {
		return
	}
	sum := sha256.Sum256(cert.Certificate[0])
	parts := make([]string, len(sum))
	for i, b := range sum {
		parts[i] = fmt.Sprintf("%02X", b)
	}
	slog.Info("certificate fingerprint", "sha256", strings.Join(parts, ":"))
}
