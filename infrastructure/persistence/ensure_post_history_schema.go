package persistence

import (
	"context"
	"database/sql"
	"fmt"
	"time"
)

// EnsurePostHistorySchema creates the post_history table and its lookup index when missing.
func EnsurePostHistorySchema(db *sql.DB) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	stmts := []string{
		`CREATE TABLE IF NOT EXISTS post_history (
  id BIGSERIAL PRIMARY KEY,
  provider VARCHAR(32) NOT NULL,
  actor_id VARCHAR(255) NOT NULL,
  session_id VARCHAR(64) NOT NULL,
  post_id VARCHAR(255) NOT NULL,
  media_kind VARCHAR(16) NOT NULL DEFAULT '',
  text_length INTEGER NOT NULL DEFAULT 0,
  created_at TIMESTAMPTZ NOT NULL
)`,
		`CREATE INDEX IF NOT EXISTS idx_post_history_actor ON post_history (provider, actor_id, created_at DESC)`,
	}
	for _, stmt := range stmts {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("ensure post_history schema: %w", err)
		}
	}
	return nil
}

// EnsurePostHistorySchemaMSSQL is the SQL Server flavour of EnsurePostHistorySchema.
func EnsurePostHistorySchemaMSSQL(db *sql.DB) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	q := `IF OBJECT_ID('dbo.post_history', 'U') IS NULL
BEGIN
  CREATE TABLE dbo.[post_history] (
    id BIGINT IDENTITY(1,1) PRIMARY KEY,
    provider NVARCHAR(32) NOT NULL,
    actor_id NVARCHAR(255) NOT NULL,
    session_id NVARCHAR(64) NOT NULL,
    post_id NVARCHAR(255) NOT NULL,
    media_kind NVARCHAR(16) NOT NULL DEFAULT '',
    text_length INT NOT NULL DEFAULT 0,
    created_at DATETIME2 NOT NULL
  );
  CREATE INDEX idx_post_history_actor ON dbo.[post_history] (provider, actor_id, created_at DESC);
END`
	if _, err := db.ExecContext(ctx, q); err != nil {
		return fmt.Errorf("ensure post_history schema: %w", err)
	}
	return nil
}
