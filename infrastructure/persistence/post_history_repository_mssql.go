package persistence

import (
	"context"
	"database/sql"

	"social-relay/domain/model"
	"social-relay/domain/repository"
)

// PostHistoryRepositoryMSSQL implements post history persistence for SQL Server/Azure SQL using database/sql.
type PostHistoryRepositoryMSSQL struct{ db *sql.DB }

func NewPostHistoryRepositoryMSSQL(db *sql.DB) repository.IPostHistory {
	return &PostHistoryRepositoryMSSQL{db: db}
}

func (r *PostHistoryRepositoryMSSQL) Record(ctx context.Context, rec *model.PostRecord) error {
	q := `INSERT INTO dbo.[post_history] (provider, actor_id, session_id, post_id, media_kind, text_length, created_at)
OUTPUT INSERTED.id
VALUES (@p1, @p2, @p3, @p4, @p5, @p6, @p7)`
	return r.db.QueryRowContext(ctx, q, rec.Provider, rec.ActorID, rec.SessionID, rec.PostID, rec.MediaKind, rec.TextLength, rec.CreatedAt).Scan(&rec.ID)
}

func (r *PostHistoryRepositoryMSSQL) ListByActor(ctx context.Context, provider, actorID string, limit int) ([]*model.PostRecord, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT TOP (@p3) id, provider, actor_id, session_id, post_id, media_kind, text_length, created_at
FROM dbo.[post_history]
WHERE provider=@p1 AND actor_id=@p2
ORDER BY created_at DESC`, provider, actorID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanPostRecords(rows)
}
