package core

import (
	"context"
	"fmt"

	"github.com/edvin/haas/internal/api/request"
	"github.com/edvin/haas/internal/model"
)

type EnvironmentService struct {
	db DB
}

func NewEnvironmentService(db DB) *EnvironmentService {
	return &EnvironmentService{db: db}
}

func (s *EnvironmentService) Create(ctx context.Context, env *model.Environment) error {
	_, err := s.db.Exec(ctx,
		`INSERT INTO environments (id, name, description, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5)`,
		env.ID, env.Name, env.Description, env.CreatedAt, env.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert environment: %w", err)
	}
	return nil
}

func (s *EnvironmentService) GetByID(ctx context.Context, id string) (*model.Environment, error) {
	var e model.Environment
	err := s.db.QueryRow(ctx,
		`SELECT id, name, description, created_at, updated_at FROM environments WHERE id = $1`, id,
	).Scan(&e.ID, &e.Name, &e.Description, &e.CreatedAt, &e.UpdatedAt)
	if err != nil {
		return nil, notFound(err, "get environment %s", id)
	}
	return &e, nil
}

func (s *EnvironmentService) List(ctx context.Context, params request.ListParams) ([]model.Environment, bool, error) {
	query := `SELECT id, name, description, created_at, updated_at FROM environments WHERE true`
	var args []any
	argIdx := 1

	if params.Search != "" {
		query += fmt.Sprintf(` AND name ILIKE $%d`, argIdx)
		args = append(args, "%"+params.Search+"%")
		argIdx++
	}

	sortCol := "name"
	if params.Sort == "created_at" {
		sortCol = "created_at"
	}
	order := sortOrder(params.Order)
	if params.Cursor != "" {
		query += afterCursor(sortCol, "id", "FROM environments", order, argIdx)
		args = append(args, params.Cursor)
		argIdx++
	}
	query += fmt.Sprintf(` ORDER BY %s %s, id %s`, sortCol, order, order)
	query += fmt.Sprintf(` LIMIT $%d`, argIdx)
	args = append(args, params.Limit+1)

	rows, err := s.db.Query(ctx, query, args...)
	if err != nil {
		return nil, false, fmt.Errorf("list environments: %w", err)
	}
	defer rows.Close()

	var envs []model.Environment
	for rows.Next() {
		var e model.Environment
		if err := rows.Scan(&e.ID, &e.Name, &e.Description, &e.CreatedAt, &e.UpdatedAt); err != nil {
			return nil, false, fmt.Errorf("scan environment: %w", err)
		}
		envs = append(envs, e)
	}
	if err := rows.Err(); err != nil {
		return nil, false, fmt.Errorf("iterate environments: %w", err)
	}

	hasMore := len(envs) > params.Limit
	if hasMore {
		envs = envs[:params.Limit]
	}
	return envs, hasMore, nil
}

func (s *EnvironmentService) Update(ctx context.Context, env *model.Environment) error {
	_, err := s.db.Exec(ctx,
		`UPDATE environments SET name = $1, description = $2, updated_at = now() WHERE id = $3`,
		env.Name, env.Description, env.ID,
	)
	if err != nil {
		return fmt.Errorf("update environment %s: %w", env.ID, err)
	}
	return nil
}

// Delete removes the environment. Herds and servers keep existing with a
// null environment.
func (s *EnvironmentService) Delete(ctx context.Context, id string) error {
	_, err := s.db.Exec(ctx, "DELETE FROM environments WHERE id = $1", id)
	if err != nil {
		return fmt.Errorf("delete environment %s: %w", id, err)
	}
	return nil
}

// afterCursor restricts a listing to the rows that sort after the row whose
// id is the cursor. The id breaks ties, so the listing must be ordered by
// (sortExpr, idCol) in one direction.
func afterCursor(sortExpr, idCol, from, order string, argIdx int) string {
	op := ">"
	if order == "DESC" {
		op = "<"
	}
	return fmt.Sprintf(` AND (%s, %s) %s (SELECT %s, %s %s WHERE %s = $%d)`,
		sortExpr, idCol, op, sortExpr, idCol, from, idCol, argIdx)
}

func sortOrder(order string) string {
	if order == "desc" {
		return "DESC"
	}
	return "ASC"
}
