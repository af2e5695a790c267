package records

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
)

// PostgresRecorder appends one row per finished match. The table is owned by
// whoever operates the database; we only require it to exist:
//
//	CREATE TABLE IF NOT EXISTS match_results (
//	    id          BIGSERIAL PRIMARY KEY,
//	    game_id     TEXT        NOT NULL,
//	    winner_id   TEXT        NOT NULL,
//	    scores      JSONB       NOT NULL,
//	    finished_at TIMESTAMPTZ NOT NULL
//	);
type PostgresRecorder struct {
	pool *pgxpool.Pool
}

func NewPostgresRecorder(ctx context.Context, connString string) (*PostgresRecorder, error) {
	pool, err := pgxpool.New(ctx, connString)
	if err != nil {
		return nil, err
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, err
	}
	return &PostgresRecorder{pool: pool}, nil
}

func (r *PostgresRecorder) RecordMatch(ctx context.Context, summary MatchSummary) error {
	scores, err := json.Marshal(summary.Scores)
	if err != nil {
		return fmt.Errorf("marshal scores: %w", err)
	}
	_, err = r.pool.Exec(ctx,
		"INSERT INTO match_results(game_id, winner_id, scores, finished_at) VALUES($1, $2, $3, $4)",
		summary.GameId, summary.WinnerId, scores, summary.FinishedAt)
	if err != nil {
		return fmt.Errorf("insert match result: %w", err)
	}
	return nil
}

func (r *PostgresRecorder) Close() {
	r.pool.Close()
}
