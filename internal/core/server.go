package core

import (
	"context"
	"fmt"

	"github.com/edvin/haas/internal/api/request"
	"github.com/edvin/haas/internal/model"
)

type ServerService struct {
	db DB
}

func NewServerService(db DB) *ServerService {
	return &ServerService{db: db}
}

const serverColumns = `s.id, s.environment_id, s.hostname, s.created_at, s.updated_at, e.name`

func scanServer(row scanner, srv *model.Server) error {
	return row.Scan(&srv.ID, &srv.EnvironmentID, &srv.Hostname, &srv.CreatedAt, &srv.UpdatedAt, &srv.EnvironmentName)
}

func (s *ServerService) Create(ctx context.Context, srv *model.Server) error {
	_, err := s.db.Exec(ctx,
		`INSERT INTO servers (id, environment_id, hostname, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5)`,
		srv.ID, srv.EnvironmentID, srv.Hostname, srv.CreatedAt, srv.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert server: %w", err)
	}
	return nil
}

func (s *ServerService) GetByID(ctx context.Context, id string) (*model.Server, error) {
	var srv model.Server
	err := scanServer(s.db.QueryRow(ctx,
		`SELECT `+serverColumns+`
		 FROM servers s LEFT JOIN environments e ON e.id = s.environment_id
		 WHERE s.id = $1`, id,
	), &srv)
	if err != nil {
		return nil, notFound(err, "get server %s", id)
	}
	return &srv, nil
}

func (s *ServerService) List(ctx context.Context, environmentID string, params request.ListParams) ([]model.Server, bool, error) {
	query := `SELECT ` + serverColumns + ` FROM servers s LEFT JOIN environments e ON e.id = s.environment_id WHERE true`
	var args []any
	argIdx := 1

	if environmentID != "" {
		query += fmt.Sprintf(` AND s.environment_id = $%d`, argIdx)
		args = append(args, environmentID)
		argIdx++
	}
	if params.Search != "" {
		query += fmt.Sprintf(` AND s.hostname ILIKE $%d`, argIdx)
		args = append(args, "%"+params.Search+"%")
		argIdx++
	}

	sortCol := "s.hostname"
	if params.Sort == "created_at" {
		sortCol = "s.created_at"
	}
	order := sortOrder(params.Order)
	if params.Cursor != "" {
		query += afterCursor(sortCol, "s.id", "FROM servers s", order, argIdx)
		args = append(args, params.Cursor)
		argIdx++
	}
	query += fmt.Sprintf(` ORDER BY %s %s, s.id %s`, sortCol, order, order)
	query += fmt.Sprintf(` LIMIT $%d`, argIdx)
	args = append(args, params.Limit+1)

	rows, err := s.db.Query(ctx, query, args...)
	if err != nil {
		return nil, false, fmt.Errorf("list servers: %w", err)
	}
	defer rows.Close()

	var servers []model.Server
	for rows.Next() {
		var srv model.Server
		if err := scanServer(rows, &srv); err != nil {
			return nil, false, fmt.Errorf("scan server: %w", err)
		}
		servers = append(servers, srv)
	}
	if err := rows.Err(); err != nil {
		return nil, false, fmt.Errorf("iterate servers: %w", err)
	}

	hasMore := len(servers) > params.Limit
	if hasMore {
		servers = servers[:params.Limit]
	}
	return servers, hasMore, nil
}

func (s *ServerService) Update(ctx context.Context, srv *model.Server) error {
	_, err := s.db.Exec(ctx,
		`UPDATE servers SET environment_id = $1, hostname = $2, updated_at = now() WHERE id = $3`,
		srv.EnvironmentID, srv.Hostname, srv.ID,
	)
	if err != nil {
		return fmt.Errorf("update server %s: %w", srv.ID, err)
	}
	return nil
}

// Delete removes the server together with every instance hosted on it.
func (s *ServerService) Delete(ctx context.Context, id string) error {
	_, err := s.db.Exec(ctx, "DELETE FROM servers WHERE id = $1", id)
	if err != nil {
		return fmt.Errorf("delete server %s: %w", id, err)
	}
	return nil
}
