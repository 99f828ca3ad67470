package usecase

import (
	"context"
	"io"
	"sync"

	"social-relay/domain/model"
	"social-relay/domain/repository"
	"social-relay/infrastructure/media"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/mock"
)

type mockProvider struct {
	mock.Mock
	name     string
	protocol model.AuthProtocol
}

func newMockProvider(name string, protocol model.AuthProtocol) *mockProvider {
	return &mockProvider{name: name, protocol: protocol}
}

func (m *mockProvider) Name() string                 { return m.name }
func (m *mockProvider) Protocol() model.AuthProtocol { return m.protocol }

func (m *mockProvider) BeginAuth(ctx context.Context) (*model.AuthRequest, error) {
	args := m.Called(ctx)
	req, _ := args.Get(0).(*model.AuthRequest)
	return req, args.Error(1)
}

func (m *mockProvider) CompleteAuth(ctx context.Context, pending model.PendingState, cb model.Callback) (*model.Credential, *model.Profile, error) {
	args := m.Called(ctx, pending, cb)
	cred, _ := args.Get(0).(*model.Credential)
	profile, _ := args.Get(1).(*model.Profile)
	return cred, profile, args.Error(2)
}

func (m *mockProvider) UploadMedia(ctx context.Context, cred model.Credential, content model.MediaContent) (string, error) {
	args := m.Called(ctx, cred, content)
	return args.String(0), args.Error(1)
}

func (m *mockProvider) BuildPayload(cred model.Credential, text, mediaRef string, kind model.MediaKind) model.PostPayload {
	return model.PostPayload{Author: cred.ActorID, Text: text, MediaRef: mediaRef, MediaKind: kind, Visibility: model.VisibilityPublic}
}

func (m *mockProvider) Publish(ctx context.Context, cred model.Credential, payload model.PostPayload) (string, error) {
	args := m.Called(ctx, cred, payload)
	return args.String(0), args.Error(1)
}

// countingStager wraps the afero stager and records every staged path.
type countingStager struct {
	repository.IMediaStager
	fs       afero.Fs
	mu       sync.Mutex
	staged   []*model.StagedMedia
	released int
}

func newCountingStager() *countingStager {
	fs := afero.NewMemMapFs()
	inner, err := media.NewStager(fs, "uploads", 1<<20)
	if err != nil {
		panic(err)
	}
	return &countingStager{IMediaStager: inner, fs: fs}
}

func (s *countingStager) Stage(ctx context.Context, r io.Reader, filename, mimeType string) (*model.StagedMedia, error) {
	m, err := s.IMediaStager.Stage(ctx, r, filename, mimeType)
	if err == nil {
		s.mu.Lock()
		s.staged = append(s.staged, m)
		s.mu.Unlock()
	}
	return m, err
}

func (s *countingStager) Release(m *model.StagedMedia) error {
	s.mu.Lock()
	s.released++
	s.mu.Unlock()
	return s.IMediaStager.Release(m)
}

func (s *countingStager) exists(path string) bool {
	ok, _ := afero.Exists(s.fs, path)
	return ok
}

type mockHistory struct {
	mock.Mock
}

func (m *mockHistory) Record(ctx context.Context, rec *model.PostRecord) error {
	return m.Called(ctx, rec).Error(0)
}

func (m *mockHistory) ListByActor(ctx context.Context, provider, actorID string, limit int) ([]*model.PostRecord, error) {
	args := m.Called(ctx, provider, actorID, limit)
	recs, _ := args.Get(0).([]*model.PostRecord)
	return recs, args.Error(1)
}

type mockEvents struct {
	mock.Mock
}

func (m *mockEvents) Publish(ctx context.Context, evt model.PostEvent) error {
	return m.Called(ctx, evt).Error(0)
}
