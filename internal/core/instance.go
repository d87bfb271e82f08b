package core

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/edvin/haas/internal/api/request"
	"github.com/edvin/haas/internal/model"
)

// InstanceService is the topology store for instances.
type InstanceService struct {
	db DB
}

func NewInstanceService(db DB) *InstanceService {
	return &InstanceService{db: db}
}

// InstanceFilter narrows instance listings. Role is "primary" or "replica".
type InstanceFilter struct {
	HerdID        string
	ServerID      string
	EnvironmentID string
	Online        *bool
	Role          string
	Version       string
}

const instanceSelect = `SELECT i.id, i.herd_id, i.server_id, i.version, i.local_pgdata, i.position, i.is_online, i.master_id,
	i.created_at, i.updated_at, h.name, e.name, s.hostname, h.port, h.pgdata, m.position, COALESCE(m.version, '')
	FROM instances i
	JOIN herds h ON h.id = i.herd_id
	JOIN servers s ON s.id = i.server_id
	LEFT JOIN environments e ON e.id = h.environment_id
	LEFT JOIN instances m ON m.id = i.master_id`

// instanceCursorFrom is the part of instanceSelect the sort keys are read from.
const instanceCursorFrom = `FROM instances i
	JOIN herds h ON h.id = i.herd_id
	JOIN servers s ON s.id = i.server_id`

func scanInstance(row scanner, i *model.Instance) error {
	return row.Scan(&i.ID, &i.HerdID, &i.ServerID, &i.Version, &i.LocalPGData, &i.Position, &i.IsOnline, &i.MasterID,
		&i.CreatedAt, &i.UpdatedAt, &i.HerdName, &i.EnvironmentName, &i.Hostname, &i.Port, &i.PGData,
		&i.MasterPosition, &i.MasterVersion)
}

func (s *InstanceService) Create(ctx context.Context, inst *model.Instance) error {
	if err := s.checkMaster(ctx, inst); err != nil {
		return err
	}
	_, err := s.db.Exec(ctx,
		`INSERT INTO instances (id, herd_id, server_id, version, local_pgdata, position, is_online, master_id, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
		inst.ID, inst.HerdID, inst.ServerID, inst.Version, inst.LocalPGData, inst.Position, inst.IsOnline,
		inst.MasterID, inst.CreatedAt, inst.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert instance: %w", err)
	}
	return nil
}

func (s *InstanceService) GetByID(ctx context.Context, id string) (*model.Instance, error) {
	var i model.Instance
	if err := scanInstance(s.db.QueryRow(ctx, instanceSelect+` WHERE i.id = $1`, id), &i); err != nil {
		return nil, notFound(err, "get instance %s", id)
	}
	return &i, nil
}

// GetMany loads the given instances. Unknown ids are left out of the result.
func (s *InstanceService) GetMany(ctx context.Context, ids []string) ([]model.Instance, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	rows, err := s.db.Query(ctx, instanceSelect+` WHERE i.id = ANY($1)`, ids)
	if err != nil {
		return nil, fmt.Errorf("get instances: %w", err)
	}
	defer rows.Close()

	var out []model.Instance
	for rows.Next() {
		var i model.Instance
		if err := scanInstance(rows, &i); err != nil {
			return nil, fmt.Errorf("scan instance: %w", err)
		}
		out = append(out, i)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate instances: %w", err)
	}
	return out, nil
}

func (s *InstanceService) List(ctx context.Context, filter InstanceFilter, params request.ListParams) ([]model.Instance, bool, error) {
	query := instanceSelect + ` WHERE true`
	var args []any
	argIdx := 1

	if filter.HerdID != "" {
		query += fmt.Sprintf(` AND i.herd_id = $%d`, argIdx)
		args = append(args, filter.HerdID)
		argIdx++
	}
	if filter.ServerID != "" {
		query += fmt.Sprintf(` AND i.server_id = $%d`, argIdx)
		args = append(args, filter.ServerID)
		argIdx++
	}
	if filter.EnvironmentID != "" {
		query += fmt.Sprintf(` AND h.environment_id = $%d`, argIdx)
		args = append(args, filter.EnvironmentID)
		argIdx++
	}
	if filter.Online != nil {
		query += fmt.Sprintf(` AND i.is_online = $%d`, argIdx)
		args = append(args, *filter.Online)
		argIdx++
	}
	switch filter.Role {
	case "primary":
		query += ` AND i.master_id IS NULL`
	case "replica":
		query += ` AND i.master_id IS NOT NULL`
	}
	if filter.Version != "" {
		query += fmt.Sprintf(` AND i.version = $%d`, argIdx)
		args = append(args, filter.Version)
		argIdx++
	}
	if params.Search != "" {
		query += fmt.Sprintf(` AND (h.name ILIKE $%d OR s.hostname ILIKE $%d OR i.version ILIKE $%d)`, argIdx, argIdx, argIdx)
		args = append(args, "%"+params.Search+"%")
		argIdx++
	}

	sortCol := "h.name"
	switch params.Sort {
	case "hostname":
		sortCol = "s.hostname"
	case "port":
		sortCol = "h.port"
	case "version":
		sortCol = "i.version"
	case "position":
		sortCol = "COALESCE(i.position, 0)"
	case "role":
		sortCol = "(i.master_id IS NOT NULL)"
	case "created_at":
		sortCol = "i.created_at"
	}
	order := sortOrder(params.Order)
	if params.Cursor != "" {
		query += afterCursor(sortCol, "i.id", instanceCursorFrom, order, argIdx)
		args = append(args, params.Cursor)
		argIdx++
	}
	query += fmt.Sprintf(` ORDER BY %s %s, i.id %s`, sortCol, order, order)
	query += fmt.Sprintf(` LIMIT $%d`, argIdx)
	args = append(args, params.Limit+1)

	rows, err := s.db.Query(ctx, query, args...)
	if err != nil {
		return nil, false, fmt.Errorf("list instances: %w", err)
	}
	defer rows.Close()

	var instances []model.Instance
	for rows.Next() {
		var i model.Instance
		if err := scanInstance(rows, &i); err != nil {
			return nil, false, fmt.Errorf("scan instance: %w", err)
		}
		instances = append(instances, i)
	}
	if err := rows.Err(); err != nil {
		return nil, false, fmt.Errorf("iterate instances: %w", err)
	}

	hasMore := len(instances) > params.Limit
	if hasMore {
		instances = instances[:params.Limit]
	}
	return instances, hasMore, nil
}

// ResolvePlacement fills the herd and server fields an unsaved instance
// needs before it can be probed.
func (s *InstanceService) ResolvePlacement(ctx context.Context, inst *model.Instance) error {
	err := s.db.QueryRow(ctx,
		`SELECT h.name, e.name, h.port, h.pgdata, s.hostname
		 FROM herds h
		 LEFT JOIN environments e ON e.id = h.environment_id
		 CROSS JOIN servers s
		 WHERE h.id = $1 AND s.id = $2`, inst.HerdID, inst.ServerID,
	).Scan(&inst.HerdName, &inst.EnvironmentName, &inst.Port, &inst.PGData, &inst.Hostname)
	if err != nil {
		return notFound(err, "resolve herd %s on server %s", inst.HerdID, inst.ServerID)
	}
	return nil
}

func (s *InstanceService) Update(ctx context.Context, inst *model.Instance) error {
	if err := s.checkMaster(ctx, inst); err != nil {
		return err
	}
	_, err := s.db.Exec(ctx,
		`UPDATE instances SET herd_id = $1, server_id = $2, version = $3, local_pgdata = $4, is_online = $5, master_id = $6, updated_at = now()
		 WHERE id = $7`,
		inst.HerdID, inst.ServerID, inst.Version, inst.LocalPGData, inst.IsOnline, inst.MasterID, inst.ID,
	)
	if err != nil {
		return fmt.Errorf("update instance %s: %w", inst.ID, err)
	}
	return nil
}

// Delete removes an instance. Its replicas are detached rather than deleted.
func (s *InstanceService) Delete(ctx context.Context, id string) error {
	err := pgx.BeginFunc(ctx, s.db, func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx, `UPDATE instances SET master_id = NULL, updated_at = now() WHERE master_id = $1`, id); err != nil {
			return fmt.Errorf("detach replicas of %s: %w", id, err)
		}
		if _, err := tx.Exec(ctx, `DELETE FROM instances WHERE id = $1`, id); err != nil {
			return fmt.Errorf("delete row: %w", err)
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("delete instance %s: %w", id, err)
	}
	return nil
}

// HerdPrimary returns the oldest primary of the herd other than excludeID,
// or nil when the herd has none.
func (s *InstanceService) HerdPrimary(ctx context.Context, herdID, excludeID string) (*model.Instance, error) {
	var i model.Instance
	err := scanInstance(s.db.QueryRow(ctx,
		instanceSelect+` WHERE i.herd_id = $1 AND i.master_id IS NULL AND i.id <> $2
		ORDER BY i.created_at, i.id LIMIT 1`, herdID, excludeID,
	), &i)
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get primary of herd %s: %w", herdID, err)
	}
	return &i, nil
}

// CountDependents counts the instances replicating directly from id.
func (s *InstanceService) CountDependents(ctx context.Context, id string) (int, error) {
	var n int
	err := s.db.QueryRow(ctx, `SELECT count(*) FROM instances WHERE master_id = $1`, id).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("count dependents of %s: %w", id, err)
	}
	return n, nil
}

// CountOtherPrimaries counts the primaries of the herd other than excludeID.
func (s *InstanceService) CountOtherPrimaries(ctx context.Context, herdID, excludeID string) (int, error) {
	var n int
	err := s.db.QueryRow(ctx,
		`SELECT count(*) FROM instances WHERE herd_id = $1 AND master_id IS NULL AND id <> $2`, herdID, excludeID,
	).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("count primaries of herd %s: %w", herdID, err)
	}
	return n, nil
}

func (s *InstanceService) SetOnline(ctx context.Context, id string, online bool) error {
	_, err := s.db.Exec(ctx, `UPDATE instances SET is_online = $1, updated_at = now() WHERE id = $2`, online, id)
	if err != nil {
		return fmt.Errorf("set instance %s online=%t: %w", id, online, err)
	}
	return nil
}

// SetMaster repoints an instance. A nil master makes it a primary.
func (s *InstanceService) SetMaster(ctx context.Context, id string, masterID *string) error {
	if masterID != nil {
		var herdID string
		if err := s.db.QueryRow(ctx, `SELECT herd_id FROM instances WHERE id = $1`, id).Scan(&herdID); err != nil {
			return notFound(err, "get herd of instance %s", id)
		}
		if err := CheckMaster(ctx, s.parentOf, id, herdID, *masterID); err != nil {
			return err
		}
	}
	_, err := s.db.Exec(ctx, `UPDATE instances SET master_id = $1, updated_at = now() WHERE id = $2`, masterID, id)
	if err != nil {
		return fmt.Errorf("set master of instance %s: %w", id, err)
	}
	return nil
}

// UpdateStatus records what an external monitor observed.
func (s *InstanceService) UpdateStatus(ctx context.Context, id string, status model.InstanceStatus) error {
	tag, err := s.db.Exec(ctx,
		`UPDATE instances SET is_online = $1, position = COALESCE($2, position), updated_at = now() WHERE id = $3`,
		status.IsOnline, status.Position, id,
	)
	if err != nil {
		return fmt.Errorf("update status of instance %s: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("update status of instance %s: %w", id, ErrNotFound)
	}
	return nil
}

func (s *InstanceService) checkMaster(ctx context.Context, inst *model.Instance) error {
	if inst.MasterID == nil {
		return nil
	}
	return CheckMaster(ctx, s.parentOf, inst.ID, inst.HerdID, *inst.MasterID)
}

func (s *InstanceService) parentOf(ctx context.Context, id string) (string, *string, error) {
	var herdID string
	var masterID *string
	err := s.db.QueryRow(ctx, `SELECT herd_id, master_id FROM instances WHERE id = $1`, id).Scan(&herdID, &masterID)
	if err != nil {
		return "", nil, notFound(err, "get master of instance %s", id)
	}
	return herdID, masterID, nil
}
