package repository

import (
	"context"

	"social-relay/domain/model"
)

// IPostHistory persists successful publishes per provider actor.
type IPostHistory interface {
	Record(ctx context.Context, rec *model.PostRecord) error
	ListByActor(ctx context.Context, provider, actorID string, limit int) ([]*model.PostRecord, error)
}

// IPostEvents broadcasts publish events to a sink.
type IPostEvents interface {
	Publish(ctx context.Context, evt model.PostEvent) error
}
