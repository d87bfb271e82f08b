// Package pgctl controls PostgreSQL instances on remote servers. Process
// management goes through pg_ctlcluster over SSH, everything the server can
// answer itself goes through a direct SQL connection.
package pgctl

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/edvin/haas/internal/config"
	"github.com/edvin/haas/internal/model"
)

const (
	versionQuery = "SHOW server_version"
	// pg_promote waits up to 60 seconds for the promotion to finish.
	promoteQuery = "SELECT pg_promote(true, 60)::text"
)

// Controller implements core.Controller.
type Controller struct {
	runner          Runner
	sql             SQL
	replicationUser string
	logger          zerolog.Logger
}

func New(runner Runner, sql SQL, replicationUser string, logger zerolog.Logger) *Controller {
	return &Controller{
		runner:          runner,
		sql:             sql,
		replicationUser: replicationUser,
		logger:          logger.With().Str("component", "pgctl").Logger(),
	}
}

// NewFromConfig builds a Controller that reaches servers with the SSH and
// SQL settings in cfg.
func NewFromConfig(cfg *config.Config, logger zerolog.Logger) (*Controller, error) {
	runner, err := NewSSHRunner(cfg.SSHUser, cfg.SSHPort, cfg.SSHKeyPath, cfg.SSHCAKeyPath, cfg.ConnectTimeout)
	if err != nil {
		return nil, err
	}
	tlsCfg, err := cfg.InstanceTLS()
	if err != nil {
		return nil, err
	}
	sql := &PgxSQL{
		User:           cfg.PGUser,
		Password:       cfg.PGPassword,
		Database:       cfg.PGDatabase,
		TLS:            tlsCfg,
		ConnectTimeout: cfg.ConnectTimeout,
	}
	return New(runner, sql, cfg.ReplicationUser, logger), nil
}

func (c *Controller) Start(ctx context.Context, inst *model.Instance) error {
	return c.cluster(ctx, "start", inst)
}

func (c *Controller) Stop(ctx context.Context, inst *model.Instance) error {
	return c.cluster(ctx, "stop", inst)
}

func (c *Controller) Reload(ctx context.Context, inst *model.Instance) error {
	return c.cluster(ctx, "reload", inst)
}

func (c *Controller) Promote(ctx context.Context, inst *model.Instance) error {
	out, err := c.sql.QueryString(ctx, inst.Hostname, inst.Port, promoteQuery)
	if err != nil {
		return &ControlError{Op: "promote", Instance: inst.Label(), Err: err}
	}
	if out != "true" {
		return &ControlError{Op: "promote", Instance: inst.Label(), Err: errors.New("promotion did not complete within 60s")}
	}
	c.logger.Info().Str("instance_id", inst.ID).Msg("instance promoted")
	return nil
}

// Demote stops the instance, points it at upstream as a standby and starts
// it again.
func (c *Controller) Demote(ctx context.Context, inst, upstream *model.Instance) error {
	version, err := ClusterVersion(inst.Version)
	if err != nil {
		return &ControlError{Op: "demote", Instance: inst.Label(), Err: err}
	}
	pgdata := inst.EffectivePGData()
	if pgdata == "" {
		return &ControlError{Op: "demote", Instance: inst.Label(), Err: errors.New("no data directory configured")}
	}

	err = c.runSteps(ctx, "demote", inst, []step{
		{"stop", clusterCmd(version, inst.HerdName, "stop")},
		{"configure standby", standbyCmd(pgdata, primaryConnInfo(upstream.Hostname, upstream.Port, c.replicationUser))},
		{"start", clusterCmd(version, inst.HerdName, "start")},
	})
	if err != nil {
		return err
	}
	c.logger.Info().Str("instance_id", inst.ID).Str("upstream", upstream.Hostname).Msg("instance demoted")
	return nil
}

// Rebuild throws away the instance's data directory and recreates it as a
// fresh base backup of master.
func (c *Controller) Rebuild(ctx context.Context, inst, master *model.Instance) error {
	version, err := ClusterVersion(inst.Version)
	if err != nil {
		return &ControlError{Op: "rebuild", Instance: inst.Label(), Err: err}
	}
	pgdata := inst.EffectivePGData()
	if pgdata == "" || pgdata == "/" {
		return &ControlError{Op: "rebuild", Instance: inst.Label(), Err: fmt.Errorf("refusing to wipe data directory %q", pgdata)}
	}

	up := upstream{host: master.Hostname, port: master.Port, user: c.replicationUser}
	err = c.runSteps(ctx, "rebuild", inst, []step{
		{"stop", stopIfRunningCmd(version, inst.HerdName)},
		{"wipe", wipeCmd(pgdata)},
		{"base backup", baseBackupCmd(pgdata, up)},
		{"start", clusterCmd(version, inst.HerdName, "start")},
	})
	if err != nil {
		return err
	}
	c.logger.Info().Str("instance_id", inst.ID).Str("upstream", master.Hostname).Msg("instance rebuilt")
	return nil
}

// Version reports the running server version as major.minor.
func (c *Controller) Version(ctx context.Context, inst *model.Instance) (string, error) {
	out, err := c.sql.QueryString(ctx, inst.Hostname, inst.Port, versionQuery)
	if err != nil {
		return "", &ControlError{Op: "version", Instance: inst.Label(), Err: err}
	}
	v, err := NormalizeVersion(out)
	if err != nil {
		return "", &ControlError{Op: "version", Instance: inst.Label(), Err: err}
	}
	return v, nil
}

// InitMissing creates the instance's data directory unless PG_VERSION is
// already there.
func (c *Controller) InitMissing(ctx context.Context, inst, master *model.Instance) error {
	pgdata := inst.EffectivePGData()
	if pgdata == "" {
		return &ControlError{Op: "init", Instance: inst.Label(), Err: errors.New("no data directory configured")}
	}
	version, err := ClusterVersion(inst.Version)
	if err != nil {
		return &ControlError{Op: "init", Instance: inst.Label(), Err: err}
	}

	var up *upstream
	if master != nil {
		up = &upstream{host: master.Hostname, port: master.Port, user: c.replicationUser}
	}
	if _, err := c.runner.Run(ctx, inst.Hostname, initCmd(version, inst.HerdName, pgdata, inst.Port, up)); err != nil {
		return &ControlError{Op: "init", Instance: inst.Label(), Err: err}
	}
	return nil
}

func (c *Controller) cluster(ctx context.Context, action string, inst *model.Instance) error {
	version, err := ClusterVersion(inst.Version)
	if err != nil {
		return &ControlError{Op: action, Instance: inst.Label(), Err: err}
	}
	if _, err := c.runner.Run(ctx, inst.Hostname, clusterCmd(version, inst.HerdName, action)); err != nil {
		return &ControlError{Op: action, Instance: inst.Label(), Err: err}
	}
	c.logger.Debug().Str("instance_id", inst.ID).Str("action", action).Msg("pg_ctlcluster done")
	return nil
}

type step struct {
	name string
	cmd  string
}

// runSteps runs cmds in order on the instance's server and stops at the
// first failure.
func (c *Controller) runSteps(ctx context.Context, op string, inst *model.Instance, steps []step) error {
	for _, s := range steps {
		if _, err := c.runner.Run(ctx, inst.Hostname, s.cmd); err != nil {
			return &ControlError{Op: op, Instance: inst.Label(), Err: fmt.Errorf("%s: %w", s.name, err)}
		}
	}
	return nil
}
