package persistence

import (
	"context"

	"social-relay/domain/model"
	"social-relay/domain/repository"

	"gorm.io/gorm"
)

// PostHistoryRepositoryGorm stores post history through gorm (MySQL in production).
type PostHistoryRepositoryGorm struct {
	db *gorm.DB
}

func NewPostHistoryRepositoryGorm(db *gorm.DB) repository.IPostHistory {
	return &PostHistoryRepositoryGorm{db: db}
}

// EnsurePostHistorySchemaGorm migrates the post_history table.
func EnsurePostHistorySchemaGorm(db *gorm.DB) error {
	return db.AutoMigrate(&model.PostRecord{})
}

func (r *PostHistoryRepositoryGorm) Record(ctx context.Context, rec *model.PostRecord) error {
	return r.db.WithContext(ctx).Create(rec).Error
}

func (r *PostHistoryRepositoryGorm) ListByActor(ctx context.Context, provider, actorID string, limit int) ([]*model.PostRecord, error) {
	list := []*model.PostRecord{}
	err := r.db.WithContext(ctx).
		Where("provider = ? AND actor_id = ?", provider, actorID).
		Order("created_at DESC").
		Limit(limit).
		Find(&list).Error
	if err != nil {
		return nil, err
	}
	return list, nil
}
