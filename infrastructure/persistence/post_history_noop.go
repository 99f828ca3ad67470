package persistence

import (
	"context"

	"social-relay/domain/model"
	"social-relay/domain/repository"
)

// NoopPostHistory is used when no database vendor is configured.
type NoopPostHistory struct{}

func NewNoopPostHistory() repository.IPostHistory { return NoopPostHistory{} }

func (NoopPostHistory) Record(context.Context, *model.PostRecord) error { return nil }

func (NoopPostHistory) ListByActor(context.Context, string, string, int) ([]*model.PostRecord, error) {
	return []*model.PostRecord{}, nil
}
