package persistence

import (
	"context"
	"database/sql"

	"social-relay/domain/model"
	"social-relay/domain/repository"
)

// PostHistoryRepository implements post history persistence using PostgreSQL (native sql.DB)
type PostHistoryRepository struct {
	db *sql.DB
}

func NewPostHistoryRepository(db *sql.DB) repository.IPostHistory {
	return &PostHistoryRepository{db: db}
}

func (r *PostHistoryRepository) Record(ctx context.Context, rec *model.PostRecord) error {
	q := `INSERT INTO post_history (provider, actor_id, session_id, post_id, media_kind, text_length, created_at)
VALUES ($1,$2,$3,$4,$5,$6,$7) RETURNING id`
	return r.db.QueryRowContext(ctx, q, rec.Provider, rec.ActorID, rec.SessionID, rec.PostID, rec.MediaKind, rec.TextLength, rec.CreatedAt).Scan(&rec.ID)
}

func (r *PostHistoryRepository) ListByActor(ctx context.Context, provider, actorID string, limit int) ([]*model.PostRecord, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT id, provider, actor_id, session_id, post_id, media_kind, text_length, created_at
FROM post_history WHERE provider=$1 AND actor_id=$2 ORDER BY created_at DESC LIMIT $3`, provider, actorID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanPostRecords(rows)
}

func scanPostRecords(rows *sql.Rows) ([]*model.PostRecord, error) {
	list := []*model.PostRecord{}
	for rows.Next() {
		rec := &model.PostRecord{}
		if err := rows.Scan(&rec.ID, &rec.Provider, &rec.ActorID, &rec.SessionID, &rec.PostID, &rec.MediaKind, &rec.TextLength, &rec.CreatedAt); err != nil {
			return nil, err
		}
		list = append(list, rec)
	}
	return list, rows.Err()
}
