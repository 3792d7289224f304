package postgres

import (
	"context"
	"fmt"
	"time"

	"workplane/internal/store"

	"github.com/google/uuid"
)

// ListPendingRecommendations returns a workspace's PENDING
// recommendations, oldest first.
func (s *Store) ListPendingRecommendations(ctx context.Context, workspaceID uuid.UUID) ([]*store.Recommendation, error) {
	query := `
		SELECT id, workspace_id, title, description, status, priority, run_id, accepted_at, accepted_by, created_at
		FROM recommendations
		WHERE workspace_id = $1 AND status = $2
		ORDER BY created_at ASC
	`

	rows, err := s.db.QueryContext(ctx, query, workspaceID, store.RecommendationPending)
	if err != nil {
		return nil, fmt.Errorf("failed to list recommendations: %w", err)
	}
	defer rows.Close()

	var recs []*store.Recommendation
	for rows.Next() {
		var r store.Recommendation
		if err := rows.Scan(
			&r.ID, &r.WorkspaceID, &r.Title, &r.Description,
			&r.Status, &r.Priority, &r.RunID,
			&r.AcceptedAt, &r.AcceptedBy, &r.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan recommendation: %w", err)
		}
		recs = append(recs, &r)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return recs, nil
}

// CountPendingRecommendations returns the number of PENDING
// recommendations across all workspaces. Used by the pending
// recommendations gauge.
func (s *Store) CountPendingRecommendations(ctx context.Context) (int64, error) {
	query := `SELECT COUNT(*) FROM recommendations WHERE status = $1`

	var count int64
	if err := s.db.QueryRowContext(ctx, query, store.RecommendationPending).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count pending recommendations: %w", err)
	}
	return count, nil
}

// AcceptRecommendation transitions PENDING -> ACCEPTED. The WHERE
// clause on status makes the write conditional: an already accepted
// recommendation is never re-accepted, so retried cron triggers are
// no-ops.
func (s *Store) AcceptRecommendation(ctx context.Context, tx store.DBTransaction, id uuid.UUID, acceptedBy string, acceptedAt time.Time) (bool, error) {
	query := `
		UPDATE recommendations
		SET status = $1, accepted_at = $2, accepted_by = $3
		WHERE id = $4 AND status = $5
	`

	executor := s.getExecutor(tx)
	res, err := executor.ExecContext(ctx, query,
		store.RecommendationAccepted, acceptedAt, acceptedBy, id, store.RecommendationPending)
	if err != nil {
		return false, fmt.Errorf("failed to accept recommendation %s: %w", id, err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return false, err
	}

	return affected == 1, nil
}
