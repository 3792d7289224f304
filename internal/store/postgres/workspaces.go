package postgres

import (
	"context"
	"fmt"

	"workplane/internal/store"
)

// ListWorkspaces returns every workspace, oldest first.
func (s *Store) ListWorkspaces(ctx context.Context) ([]*store.Workspace, error) {
	query := `
		SELECT id, name, subdomain, tasks_enabled, pool_api_key, container_config_status, created_at
		FROM workspaces
		ORDER BY created_at ASC
	`

	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list workspaces: %w", err)
	}
	defer rows.Close()

	var workspaces []*store.Workspace
	for rows.Next() {
		var ws store.Workspace
		if err := rows.Scan(
			&ws.ID,
			&ws.Name,
			&ws.Subdomain,
			&ws.TasksEnabled,
			&ws.PoolAPIKey,
			&ws.ContainerConfigStatus,
			&ws.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan workspace: %w", err)
		}
		workspaces = append(workspaces, &ws)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return workspaces, nil
}
