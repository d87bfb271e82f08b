package pgctl

import (
	"context"
	"crypto/tls"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
)

// SQL runs one statement against a managed instance and returns the single
// text value it produced.
type SQL interface {
	QueryString(ctx context.Context, host string, port int, query string) (string, error)
}

// PgxSQL opens a short-lived pgx connection per statement.
type PgxSQL struct {
	User           string
	Password       string
	Database       string
	TLS            *tls.Config
	ConnectTimeout time.Duration
}

func (s *PgxSQL) connConfig(host string, port int) (*pgx.ConnConfig, error) {
	cfg, err := pgx.ParseConfig("")
	if err != nil {
		return nil, fmt.Errorf("parse connection config: %w", err)
	}
	cfg.Host = host
	cfg.Port = uint16(port)
	cfg.User = s.User
	cfg.Password = s.Password
	cfg.Database = s.Database
	cfg.ConnectTimeout = s.ConnectTimeout
	cfg.RuntimeParams["application_name"] = defaultAppName

	if s.TLS != nil {
		tlsCfg := s.TLS.Clone()
		if tlsCfg.ServerName == "" {
			tlsCfg.ServerName = host
		}
		cfg.TLSConfig = tlsCfg
		cfg.Fallbacks = nil
	}
	return cfg, nil
}

func (s *PgxSQL) QueryString(ctx context.Context, host string, port int, query string) (string, error) {
	cfg, err := s.connConfig(host, port)
	if err != nil {
		return "", err
	}
	conn, err := pgx.ConnectConfig(ctx, cfg)
	if err != nil {
		return "", fmt.Errorf("connect to %s:%d: %w", host, port, err)
	}
	defer conn.Close(context.WithoutCancel(ctx))

	var out string
	if err := conn.QueryRow(ctx, query).Scan(&out); err != nil {
		return "", fmt.Errorf("query %s:%d: %w", host, port, err)
	}
	return out, nil
}
