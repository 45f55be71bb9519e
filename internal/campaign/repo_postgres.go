package campaign

import (
	"context"
	"database/sql"
	"fmt"

	"campaign-dialer/pkg/utils"
)

// PostgresRecorder mirrors campaign history into an insert-only Postgres
// table. The table carries no primary key beyond a sequence; rows are never
// updated or deleted.
type PostgresRecorder struct {
	db *sql.DB
}

// NewPostgresRecorder prepares the history table and index.
func NewPostgresRecorder(ctx context.Context, db *sql.DB) (*PostgresRecorder, error) {
	if db == nil {
		return nil, fmt.Errorf("campaign: db is nil")
	}
	err := utils.WithTx(ctx, db, nil, func(ctx context.Context, tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, `
			CREATE TABLE IF NOT EXISTS campaign_history (
				id          BIGSERIAL PRIMARY KEY,
				campaign_id TEXT NOT NULL,
				number      TEXT NOT NULL,
				status      TEXT NOT NULL,
				error       TEXT NOT NULL DEFAULT '',
				observed_at TIMESTAMPTZ NOT NULL
			)`); err != nil {
			return err
		}
		_, err := tx.ExecContext(ctx, `
			CREATE INDEX IF NOT EXISTS campaign_history_campaign_idx
			ON campaign_history (campaign_id, id)`)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("campaign: history schema: %w", err)
	}
	return &PostgresRecorder{db: db}, nil
}

func (r *PostgresRecorder) Append(ctx context.Context, campaignID string, e HistoryEntry) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO campaign_history (campaign_id, number, status, error, observed_at)
		VALUES ($1, $2, $3, $4, $5)`,
		campaignID, e.Number, string(e.Status), e.Error, e.Timestamp,
	)
	if err != nil {
		return fmt.Errorf("campaign: history insert: %w", err)
	}
	return nil
}
