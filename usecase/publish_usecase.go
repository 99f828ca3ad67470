package usecase

import (
	"context"
	"errors"
	"strings"
	"time"
	"unicode/utf8"

	"social-relay/domain/model"
	"social-relay/domain/repository"
	"social-relay/infrastructure/logger"
	"social-relay/infrastructure/utils"
)

const (
	defaultHistoryLimit = 20
	maxHistoryLimit     = 100
)

type IPublishUsecase interface {
	// Publish posts text, and the optional upload, with the session's credential for provider.
	Publish(ctx context.Context, sessionID, provider, text string, upload *model.Upload) (*model.PostResult, error)
	History(ctx context.Context, sessionID, provider string, limit int) ([]*model.PostRecord, error)
}

type publishUsecase struct {
	registry *ProviderRegistry
	sessions repository.ISessionStore
	stager   repository.IMediaStager
	history  repository.IPostHistory
	events   repository.IPostEvents
	timeout  time.Duration
	// uploadTimeout bounds a whole media transfer, which can far outlast a single API call.
	uploadTimeout time.Duration
}

func NewPublishUsecase(registry *ProviderRegistry, sessions repository.ISessionStore, stager repository.IMediaStager, history repository.IPostHistory, events repository.IPostEvents, timeout, uploadTimeout time.Duration) IPublishUsecase {
	return &publishUsecase{
		registry:      registry,
		sessions:      sessions,
		stager:        stager,
		history:       history,
		events:        events,
		timeout:       timeout,
		uploadTimeout: uploadTimeout,
	}
}

func (u *publishUsecase) Publish(ctx context.Context, sessionID, provider, text string, upload *model.Upload) (*model.PostResult, error) {
	p, err := u.registry.Get(provider)
	if err != nil {
		return nil, err
	}
	ps, err := authenticatedSlot(ctx, u.sessions, sessionID, p.Name())
	if err != nil {
		return nil, err
	}
	cred := *ps.Credential
	if strings.TrimSpace(text) == "" && upload == nil {
		return nil, model.NewRelayError(model.KindInvalidRequest, p.Name(), "text or media required", nil)
	}

	mediaRef, kind := "", model.MediaKindNone
	if upload != nil {
		mediaRef, kind, err = u.uploadMedia(ctx, p, cred, upload)
		if err != nil {
			return nil, err
		}
	}

	payload := p.BuildPayload(cred, text, mediaRef, kind)
	callCtx, cancel := withTimeout(ctx, u.timeout)
	defer cancel()
	postID, err := p.Publish(callCtx, cred, payload)
	if err != nil {
		return nil, model.Classify(err, model.KindPublishFailed, p.Name())
	}

	u.recordPost(ctx, sessionID, p.Name(), cred.ActorID, postID, kind, text)
	return &model.PostResult{Success: true, PostID: postID, Provider: p.Name()}, nil
}

// uploadMedia stages the upload, transfers it and releases the staged copy whatever the outcome.
func (u *publishUsecase) uploadMedia(ctx context.Context, p repository.ISocialProvider, cred model.Credential, upload *model.Upload) (string, model.MediaKind, error) {
	staged, err := u.stager.Stage(ctx, upload.Body, upload.Filename, upload.MimeType)
	if err != nil {
		if errors.Is(err, model.ErrMediaTooLarge) {
			return "", model.MediaKindNone, model.NewRelayError(model.KindInvalidRequest, p.Name(), "media too large", err)
		}
		return "", model.MediaKindNone, model.NewRelayError(model.KindMediaUploadFailed, p.Name(), "stage media", err)
	}
	defer u.release(p.Name(), staged)

	body, err := u.stager.Open(staged)
	if err != nil {
		return "", model.MediaKindNone, model.NewRelayError(model.KindMediaUploadFailed, p.Name(), "open staged media", err)
	}
	defer body.Close()

	callCtx, cancel := withTimeout(ctx, u.uploadTimeout)
	defer cancel()
	ref, err := p.UploadMedia(callCtx, cred, model.MediaContent{
		Filename: staged.Filename,
		MimeType: staged.MimeType,
		Kind:     staged.Kind,
		Size:     staged.Size,
		Body:     body,
	})
	if err != nil {
		return "", model.MediaKindNone, model.Classify(err, model.KindMediaUploadFailed, p.Name())
	}
	if ref == "" {
		return "", model.MediaKindNone, model.NewRelayError(model.KindMediaUploadFailed, p.Name(), "provider returned no media reference", nil)
	}
	return ref, staged.Kind, nil
}

func (u *publishUsecase) release(provider string, staged *model.StagedMedia) {
	if err := u.stager.Release(staged); err != nil {
		logger.GetLogger().
			WithField("provider", provider).
			WithField("path", staged.Path).
			WithField("media_release_failed", true).
			WithField("error", err).
			Error("Failed to release staged media")
	}
}

// recordPost writes history and broadcasts the event. Failures are logged only.
func (u *publishUsecase) recordPost(ctx context.Context, sessionID, provider, actorID, postID string, kind model.MediaKind, text string) {
	lg := logger.GetLogger().WithField("provider", provider).WithField("post_id", postID)
	now := utils.GetCurrentTime()
	if u.history != nil {
		rec := &model.PostRecord{
			Provider:   provider,
			ActorID:    actorID,
			SessionID:  sessionID,
			PostID:     postID,
			MediaKind:  string(kind),
			TextLength: utf8.RuneCountInString(text),
			CreatedAt:  now,
		}
		if err := u.history.Record(ctx, rec); err != nil {
			lg.WithField("error", err).Warn("Failed to record post history")
		}
	}
	if u.events != nil {
		evt := model.PostEvent{
			Type:      model.EventPostPublished,
			Provider:  provider,
			SessionID: sessionID,
			ActorID:   actorID,
			PostID:    postID,
			MediaKind: string(kind),
			CreatedAt: now,
		}
		if err := u.events.Publish(ctx, evt); err != nil {
			lg.WithField("error", err).Warn("Failed to publish post event")
		}
	}
	lg.Info("Post published")
}

func (u *publishUsecase) History(ctx context.Context, sessionID, provider string, limit int) ([]*model.PostRecord, error) {
	p, err := u.registry.Get(provider)
	if err != nil {
		return nil, err
	}
	ps, err := authenticatedSlot(ctx, u.sessions, sessionID, p.Name())
	if err != nil {
		return nil, err
	}
	if u.history == nil {
		return []*model.PostRecord{}, nil
	}
	if limit <= 0 {
		limit = defaultHistoryLimit
	}
	if limit > maxHistoryLimit {
		limit = maxHistoryLimit
	}
	records, err := u.history.ListByActor(ctx, p.Name(), ps.Credential.ActorID, limit)
	if err != nil {
		return nil, model.NewRelayError(model.KindInternal, p.Name(), "list post history", err)
	}
	if records == nil {
		records = []*model.PostRecord{}
	}
	return records, nil
}
