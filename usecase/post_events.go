package usecase

import (
	"context"
	"errors"

	"social-relay/domain/model"
	"social-relay/domain/repository"
	"social-relay/infrastructure/logger"
)

type postEventFanout struct {
	sinks []repository.IPostEvents
}

// NewPostEventFanout publishes every event to all sinks; one failing sink does not stop the others.
func NewPostEventFanout(sinks ...repository.IPostEvents) repository.IPostEvents {
	kept := make([]repository.IPostEvents, 0, len(sinks))
	for _, s := range sinks {
		if s != nil {
			kept = append(kept, s)
		}
	}
	return &postEventFanout{sinks: kept}
}

func (f *postEventFanout) Publish(ctx context.Context, evt model.PostEvent) error {
	var errs []error
	for _, sink := range f.sinks {
		if err := sink.Publish(ctx, evt); err != nil {
			logger.GetLogger().WithField("provider", evt.Provider).WithField("error", err).Warn("Post event sink failed")
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
