package core

import (
	"context"
	"fmt"

	"github.com/edvin/haas/internal/api/request"
	"github.com/edvin/haas/internal/model"
)

type HerdService struct {
	db DB
}

func NewHerdService(db DB) *HerdService {
	return &HerdService{db: db}
}

const herdColumns = `h.id, h.environment_id, h.name, h.description, h.port, h.pgdata, h.vhost, h.created_at, h.updated_at, e.name`

func scanHerd(row scanner, h *model.Herd) error {
	return row.Scan(&h.ID, &h.EnvironmentID, &h.Name, &h.Description, &h.Port, &h.PGData, &h.VHost,
		&h.CreatedAt, &h.UpdatedAt, &h.EnvironmentName)
}

func (s *HerdService) Create(ctx context.Context, herd *model.Herd) error {
	if herd.Port == 0 {
		herd.Port = model.DefaultPort
	}
	_, err := s.db.Exec(ctx,
		`INSERT INTO herds (id, environment_id, name, description, port, pgdata, vhost, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		herd.ID, herd.EnvironmentID, herd.Name, herd.Description, herd.Port, herd.PGData, herd.VHost,
		herd.CreatedAt, herd.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert herd: %w", err)
	}
	return nil
}

func (s *HerdService) GetByID(ctx context.Context, id string) (*model.Herd, error) {
	var h model.Herd
	err := scanHerd(s.db.QueryRow(ctx,
		`SELECT `+herdColumns+`
		 FROM herds h LEFT JOIN environments e ON e.id = h.environment_id
		 WHERE h.id = $1`, id,
	), &h)
	if err != nil {
		return nil, notFound(err, "get herd %s", id)
	}
	return &h, nil
}

func (s *HerdService) List(ctx context.Context, environmentID string, params request.ListParams) ([]model.Herd, bool, error) {
	query := `SELECT ` + herdColumns + ` FROM herds h LEFT JOIN environments e ON e.id = h.environment_id WHERE true`
	var args []any
	argIdx := 1

	if environmentID != "" {
		query += fmt.Sprintf(` AND h.environment_id = $%d`, argIdx)
		args = append(args, environmentID)
		argIdx++
	}
	if params.Search != "" {
		query += fmt.Sprintf(` AND h.name ILIKE $%d`, argIdx)
		args = append(args, "%"+params.Search+"%")
		argIdx++
	}

	sortCol := "h.name"
	switch params.Sort {
	case "port":
		sortCol = "h.port"
	case "created_at":
		sortCol = "h.created_at"
	}
	order := sortOrder(params.Order)
	if params.Cursor != "" {
		query += afterCursor(sortCol, "h.id", "FROM herds h", order, argIdx)
		args = append(args, params.Cursor)
		argIdx++
	}
	query += fmt.Sprintf(` ORDER BY %s %s, h.id %s`, sortCol, order, order)
	query += fmt.Sprintf(` LIMIT $%d`, argIdx)
	args = append(args, params.Limit+1)

	rows, err := s.db.Query(ctx, query, args...)
	if err != nil {
		return nil, false, fmt.Errorf("list herds: %w", err)
	}
	defer rows.Close()

	var herds []model.Herd
	for rows.Next() {
		var h model.Herd
		if err := scanHerd(rows, &h); err != nil {
			return nil, false, fmt.Errorf("scan herd: %w", err)
		}
		herds = append(herds, h)
	}
	if err := rows.Err(); err != nil {
		return nil, false, fmt.Errorf("iterate herds: %w", err)
	}

	hasMore := len(herds) > params.Limit
	if hasMore {
		herds = herds[:params.Limit]
	}
	return herds, hasMore, nil
}

func (s *HerdService) Update(ctx context.Context, herd *model.Herd) error {
	_, err := s.db.Exec(ctx,
		`UPDATE herds SET environment_id = $1, name = $2, description = $3, port = $4, pgdata = $5, vhost = $6, updated_at = now()
		 WHERE id = $7`,
		herd.EnvironmentID, herd.Name, herd.Description, herd.Port, herd.PGData, herd.VHost, herd.ID,
	)
	if err != nil {
		return fmt.Errorf("update herd %s: %w", herd.ID, err)
	}
	return nil
}

// Delete removes the herd together with all of its instances.
func (s *HerdService) Delete(ctx context.Context, id string) error {
	_, err := s.db.Exec(ctx, "DELETE FROM herds WHERE id = $1", id)
	if err != nil {
		return fmt.Errorf("delete herd %s: %w", id, err)
	}
	return nil
}
