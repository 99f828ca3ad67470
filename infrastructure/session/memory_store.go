package session

import (
	"context"
	"sync"

	"social-relay/domain/model"
	"social-relay/domain/repository"
	"social-relay/infrastructure/utils"

	"github.com/google/uuid"
)

// MemoryStore keeps sessions in process memory. Records live until the process exits.
type MemoryStore struct {
	mu       sync.Mutex
	sessions map[string]*model.Session
	newID    func() string
}

type Option func(*MemoryStore)

// WithIDGenerator replaces the uuid generator, mostly for deterministic tests.
func WithIDGenerator(gen func() string) Option {
	return func(s *MemoryStore) {
		s.newID = gen
	}
}

func NewMemoryStore(opts ...Option) repository.ISessionStore {
	s := &MemoryStore{
		sessions: make(map[string]*model.Session),
		newID:    uuid.NewString,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *MemoryStore) NewID() string {
	return s.newID()
}

func (s *MemoryStore) Get(_ context.Context, id string) (*model.Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, ok := s.sessions[id]
	if !ok {
		return nil, model.ErrSessionNotFound
	}
	return sess.Clone(), nil
}

func (s *MemoryStore) Mutate(ctx context.Context, id string, fn func(*model.Session) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	now := utils.GetCurrentTime()
	current, ok := s.sessions[id]
	if !ok {
		current = model.NewSession(id, now)
	}
	// fn works on a copy so a failed mutation leaves the stored record untouched.
	working := current.Clone()
	if err := fn(working); err != nil {
		return err
	}
	working.UpdatedAt = now
	s.sessions[id] = working
	return nil
}
