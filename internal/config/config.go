package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	CoreDatabaseURL   string
	HTTPListenAddr    string
	MetricsListenAddr string
	LogLevel          string
	ServiceName       string

	// SSH settings used to drive pg_ctlcluster on database servers.
	SSHUser      string
	SSHPort      int
	SSHKeyPath   string
	SSHCAKeyPath string

	// SQL credentials used for version detection and promotion.
	PGUser          string
	PGPassword      string
	PGDatabase      string
	ReplicationUser string

	// Optional TLS material for SQL connections to managed instances.
	PGTLSCert       string
	PGTLSKey        string
	PGTLSCACert     string
	PGTLSServerName string

	// ConnectTimeout bounds dials to managed servers. Zero leaves it to the OS.
	ConnectTimeout time.Duration
	// ActionConcurrency caps how many instances of one batch are worked on at once.
	ActionConcurrency int

	// APIURL and APIKey are read by haasctl.
	APIURL string
	APIKey string
}

func Load() (*Config, error) {
	cfg := &Config{
		CoreDatabaseURL:   getEnv("CORE_DATABASE_URL", ""),
		HTTPListenAddr:    getEnv("HTTP_LISTEN_ADDR", ":8090"),
		MetricsListenAddr: getEnv("METRICS_LISTEN_ADDR", ""),
		LogLevel:          getEnv("LOG_LEVEL", "info"),
		ServiceName:       getEnv("SERVICE_NAME", "haas"),
		SSHUser:           getEnv("SSH_USER", "postgres"),
		SSHKeyPath:        getEnv("SSH_KEY_PATH", ""),
		SSHCAKeyPath:      getEnv("SSH_CA_KEY_PATH", ""),
		PGUser:            getEnv("PG_USER", "postgres"),
		PGPassword:        getEnv("PG_PASSWORD", ""),
		PGDatabase:        getEnv("PG_DATABASE", "postgres"),
		ReplicationUser:   getEnv("REPLICATION_USER", "replicator"),
		PGTLSCert:         getEnv("PG_TLS_CERT", ""),
		PGTLSKey:          getEnv("PG_TLS_KEY", ""),
		PGTLSCACert:       getEnv("PG_TLS_CA_CERT", ""),
		PGTLSServerName:   getEnv("PG_TLS_SERVER_NAME", ""),
		APIURL:            getEnv("HAAS_API_URL", "http://localhost:8090"),
		APIKey:            getEnv("HAAS_API_KEY", ""),
	}

	var err error
	if cfg.SSHPort, err = getEnvInt("SSH_PORT", 22); err != nil {
		return nil, err
	}
	if cfg.ActionConcurrency, err = getEnvInt("ACTION_CONCURRENCY", 8); err != nil {
		return nil, err
	}
	timeout := getEnv("CONNECT_TIMEOUT", "10s")
	if cfg.ConnectTimeout, err = time.ParseDuration(timeout); err != nil {
		return nil, fmt.Errorf("parse CONNECT_TIMEOUT %q: %w", timeout, err)
	}

	return cfg, nil
}

// Validate checks that the settings required by the named component are present.
func (c *Config) Validate(component string) error {
	var missing []string

	switch component {
	case "haas-api":
		if c.CoreDatabaseURL == "" {
			missing = append(missing, "CORE_DATABASE_URL")
		}
		if c.HTTPListenAddr == "" {
			missing = append(missing, "HTTP_LISTEN_ADDR")
		}
		if c.SSHKeyPath == "" && c.SSHCAKeyPath == "" {
			missing = append(missing, "SSH_KEY_PATH or SSH_CA_KEY_PATH")
		}
	case "haasctl":
		if c.APIURL == "" {
			missing = append(missing, "HAAS_API_URL")
		}
		if c.APIKey == "" {
			missing = append(missing, "HAAS_API_KEY")
		}
	}

	if len(missing) > 0 {
		return fmt.Errorf("missing required config for %s: %s", component, strings.Join(missing, ", "))
	}

	if (c.PGTLSCert == "") != (c.PGTLSKey == "") {
		return fmt.Errorf("PG_TLS_CERT and PG_TLS_KEY must both be set")
	}
	if c.ActionConcurrency < 1 {
		return fmt.Errorf("ACTION_CONCURRENCY must be at least 1")
	}

	return nil
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) (int, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("parse %s %q: %w", key, v, err)
	}
	return n, nil
}
