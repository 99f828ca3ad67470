package usecase

import (
	"context"
	"errors"
	"time"

	"social-relay/domain/model"
	"social-relay/domain/repository"
	"social-relay/infrastructure/logger"
)

type IAuthUsecase interface {
	// Begin stores fresh anti-forgery material in the session and returns the authorize URL.
	Begin(ctx context.Context, sessionID, provider string) (string, error)
	// Complete consumes the pending material, exchanges it and stores the credential.
	Complete(ctx context.Context, sessionID, provider string, cb model.Callback) error
	Me(ctx context.Context, sessionID, provider string) (*model.Profile, error)
	Disconnect(ctx context.Context, sessionID, provider string) error
	Status(ctx context.Context, sessionID string) []model.ProviderStatus
}

type authUsecase struct {
	registry *ProviderRegistry
	sessions repository.ISessionStore
	timeout  time.Duration
}

func NewAuthUsecase(registry *ProviderRegistry, sessions repository.ISessionStore, timeout time.Duration) IAuthUsecase {
	return &authUsecase{registry: registry, sessions: sessions, timeout: timeout}
}

func (u *authUsecase) Begin(ctx context.Context, sessionID, provider string) (string, error) {
	p, err := u.registry.Get(provider)
	if err != nil {
		return "", err
	}

	callCtx, cancel := withTimeout(ctx, u.timeout)
	defer cancel()
	req, err := p.BeginAuth(callCtx)
	if err != nil {
		return "", model.Classify(err, model.KindProviderUnavailable, p.Name())
	}

	err = u.sessions.Mutate(ctx, sessionID, func(s *model.Session) error {
		pending := req.Pending
		s.Provider(p.Name()).Pending = &pending
		return nil
	})
	if err != nil {
		return "", model.NewRelayError(model.KindInternal, p.Name(), "store pending state", err)
	}
	logger.GetLogger().WithField("provider", p.Name()).WithField("session_id", sessionID).Info("Authorization started")
	return req.URL, nil
}

func (u *authUsecase) Complete(ctx context.Context, sessionID, provider string, cb model.Callback) error {
	p, err := u.registry.Get(provider)
	if err != nil {
		return err
	}

	// Take the pending material out in the same critical section that checks it,
	// so a replayed or concurrent callback finds nothing.
	var pending *model.PendingState
	err = u.sessions.Mutate(ctx, sessionID, func(s *model.Session) error {
		ps := s.Provider(p.Name())
		pending = ps.Pending
		ps.Pending = nil
		return nil
	})
	if err != nil {
		return model.NewRelayError(model.KindInternal, p.Name(), "consume pending state", err)
	}
	if pending == nil || !pending.Matches(cb) {
		return model.NewRelayError(model.KindStateMismatch, p.Name(), "callback material does not match session", nil)
	}
	if cb.Error != "" || cb.Denied != "" {
		return model.NewRelayError(model.KindExchangeFailed, p.Name(), deniedDetail(cb), model.ErrAuthorizationDenied)
	}

	callCtx, cancel := withTimeout(ctx, u.timeout)
	defer cancel()
	cred, profile, err := p.CompleteAuth(callCtx, *pending, cb)
	if err != nil {
		return model.Classify(err, model.KindExchangeFailed, p.Name())
	}

	err = u.sessions.Mutate(ctx, sessionID, func(s *model.Session) error {
		ps := s.Provider(p.Name())
		ps.Credential = cred
		ps.Profile = profile
		return nil
	})
	if err != nil {
		return model.NewRelayError(model.KindInternal, p.Name(), "store credential", err)
	}
	logger.GetLogger().WithField("provider", p.Name()).WithField("actor_id", cred.ActorID).Info("Authorization completed")
	return nil
}

func (u *authUsecase) Me(ctx context.Context, sessionID, provider string) (*model.Profile, error) {
	p, err := u.registry.Get(provider)
	if err != nil {
		return nil, err
	}
	ps, err := u.slot(ctx, sessionID, p.Name())
	if err != nil {
		return nil, err
	}
	if ps.Profile != nil {
		return ps.Profile, nil
	}
	return &model.Profile{Provider: p.Name(), ID: ps.Credential.ActorID}, nil
}

// Disconnect forgets everything the session holds for provider.
func (u *authUsecase) Disconnect(ctx context.Context, sessionID, provider string) error {
	p, err := u.registry.Get(provider)
	if err != nil {
		return err
	}
	err = u.sessions.Mutate(ctx, sessionID, func(s *model.Session) error {
		delete(s.Providers, p.Name())
		return nil
	})
	if err != nil {
		return model.NewRelayError(model.KindInternal, p.Name(), "clear provider session", err)
	}
	return nil
}

func (u *authUsecase) Status(ctx context.Context, sessionID string) []model.ProviderStatus {
	sess, _ := u.sessions.Get(ctx, sessionID)
	names := u.registry.Names()
	out := make([]model.ProviderStatus, 0, len(names))
	for _, name := range names {
		ps, _ := sess.Lookup(name)
		state := ps.State()
		out = append(out, model.ProviderStatus{
			Name:      name,
			Protocol:  u.registry.Protocol(name),
			State:     state,
			Connected: state == model.AuthStateAuthenticated,
		})
	}
	return out
}

// slot returns the provider slot of an authenticated session or NotAuthenticated.
func (u *authUsecase) slot(ctx context.Context, sessionID, provider string) (*model.ProviderSession, error) {
	return authenticatedSlot(ctx, u.sessions, sessionID, provider)
}

func authenticatedSlot(ctx context.Context, sessions repository.ISessionStore, sessionID, provider string) (*model.ProviderSession, error) {
	sess, err := sessions.Get(ctx, sessionID)
	if err != nil {
		if errors.Is(err, model.ErrSessionNotFound) {
			return nil, model.NewRelayError(model.KindNotAuthenticated, provider, "", err)
		}
		return nil, model.NewRelayError(model.KindInternal, provider, "load session", err)
	}
	ps, ok := sess.Lookup(provider)
	if !ok || ps.Credential == nil {
		return nil, model.NewRelayError(model.KindNotAuthenticated, provider, "", nil)
	}
	return ps, nil
}

func withTimeout(ctx context.Context, d time.Duration) (context.Context, context.CancelFunc) {
	if d <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, d)
}

func deniedDetail(cb model.Callback) string {
	if cb.Error == "" {
		return "denied"
	}
	if cb.ErrorDescription == "" {
		return cb.Error
	}
	return cb.Error + ": " + cb.ErrorDescription
}
