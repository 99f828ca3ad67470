package usecase

import (
	"context"
	"errors"
	"io"
	"strings"
	"testing"
	"time"

	"social-relay/domain/model"
	"social-relay/domain/repository"
	"social-relay/infrastructure/session"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type publishFixture struct {
	uc       IPublishUsecase
	provider *mockProvider
	store    repository.ISessionStore
	stager   *countingStager
	history  *mockHistory
	events   *mockEvents
}

func newPublishFixture(t *testing.T, authenticated bool) *publishFixture {
	t.Helper()
	p := newMockProvider("p2", model.ProtocolOAuth2)
	store := session.NewMemoryStore()
	if authenticated {
		require.NoError(t, store.Mutate(context.Background(), "sess", func(s *model.Session) error {
			s.Provider("p2").Credential = &model.Credential{AccessToken: "t1", ActorID: "urn:li:person:u1"}
			return nil
		}))
	}
	f := &publishFixture{
		provider: p,
		store:    store,
		stager:   newCountingStager(),
		history:  &mockHistory{},
		events:   &mockEvents{},
	}
	f.uc = NewPublishUsecase(NewProviderRegistry(p), store, f.stager, f.history, f.events, time.Second, time.Minute)
	return f
}

func (f *publishFixture) expectBookkeeping() {
	f.history.On("Record", mock.Anything, mock.AnythingOfType("*model.PostRecord")).Return(nil)
	f.events.On("Publish", mock.Anything, mock.AnythingOfType("model.PostEvent")).Return(nil)
}

func TestPublish_NotAuthenticated(t *testing.T) {
	f := newPublishFixture(t, false)

	_, err := f.uc.Publish(context.Background(), "sess", "p2", "hello", &model.Upload{Filename: "a.png", MimeType: "image/png", Body: strings.NewReader("x")})

	assert.Equal(t, model.KindNotAuthenticated, model.KindOf(err))
	f.provider.AssertNotCalled(t, "UploadMedia", mock.Anything, mock.Anything, mock.Anything)
	f.provider.AssertNotCalled(t, "Publish", mock.Anything, mock.Anything, mock.Anything)
	assert.Empty(t, f.stager.staged)
}

func TestPublish_TextOnly(t *testing.T) {
	f := newPublishFixture(t, true)
	f.expectBookkeeping()
	f.provider.On("Publish", mock.Anything, mock.Anything, mock.MatchedBy(func(p model.PostPayload) bool {
		return p.Text == "hello" && p.MediaRef == "" && p.Visibility == model.VisibilityPublic
	})).Return("post123", nil)

	res, err := f.uc.Publish(context.Background(), "sess", "p2", "hello", nil)
	require.NoError(t, err)

	assert.Equal(t, &model.PostResult{Success: true, PostID: "post123", Provider: "p2"}, res)
	assert.Empty(t, f.stager.staged)
	assert.Zero(t, f.stager.released)
	f.history.AssertCalled(t, "Record", mock.Anything, mock.MatchedBy(func(r *model.PostRecord) bool {
		return r.PostID == "post123" && r.ActorID == "urn:li:person:u1" && r.TextLength == 5
	}))
	f.events.AssertCalled(t, "Publish", mock.Anything, mock.MatchedBy(func(e model.PostEvent) bool {
		return e.Type == model.EventPostPublished && e.SessionID == "sess"
	}))
}

func TestPublish_WithImage(t *testing.T) {
	f := newPublishFixture(t, true)
	f.expectBookkeeping()
	f.provider.On("UploadMedia", mock.Anything, mock.Anything, mock.MatchedBy(func(m model.MediaContent) bool {
		body, _ := io.ReadAll(m.Body)
		return m.Kind == model.MediaKindImage && m.MimeType == "image/png" && string(body) == "png-bytes"
	})).Return("m1", nil)
	f.provider.On("Publish", mock.Anything, mock.Anything, mock.MatchedBy(func(p model.PostPayload) bool {
		return p.MediaRef == "m1" && p.MediaKind == model.MediaKindImage
	})).Return("post123", nil)

	res, err := f.uc.Publish(context.Background(), "sess", "p2", "with picture", &model.Upload{Filename: "cat.png", MimeType: "image/png", Body: strings.NewReader("png-bytes")})
	require.NoError(t, err)

	assert.Equal(t, "post123", res.PostID)
	require.Len(t, f.stager.staged, 1)
	assert.Equal(t, 1, f.stager.released)
	assert.False(t, f.stager.exists(f.stager.staged[0].Path))
}

func TestPublish_UploadGetsMediaBudget(t *testing.T) {
	f := newPublishFixture(t, true)
	f.expectBookkeeping()
	var uploadDeadline, postDeadline time.Time
	f.provider.On("UploadMedia", mock.Anything, mock.Anything, mock.Anything).
		Run(func(args mock.Arguments) { uploadDeadline, _ = args.Get(0).(context.Context).Deadline() }).
		Return("m1", nil)
	f.provider.On("Publish", mock.Anything, mock.Anything, mock.Anything).
		Run(func(args mock.Arguments) { postDeadline, _ = args.Get(0).(context.Context).Deadline() }).
		Return("post123", nil)
	start := time.Now()

	_, err := f.uc.Publish(context.Background(), "sess", "p2", "clip", &model.Upload{Filename: "clip.mp4", MimeType: "video/mp4", Body: strings.NewReader("frames")})
	require.NoError(t, err)

	require.False(t, uploadDeadline.IsZero())
	require.False(t, postDeadline.IsZero())
	assert.True(t, uploadDeadline.Sub(start) > 30*time.Second, "upload deadline %v", uploadDeadline.Sub(start))
	assert.True(t, postDeadline.Sub(start) <= 2*time.Second, "post deadline %v", postDeadline.Sub(start))
}

func TestPublish_UploadFailureStopsBeforePost(t *testing.T) {
	f := newPublishFixture(t, true)
	f.provider.On("UploadMedia", mock.Anything, mock.Anything, mock.Anything).Return("", &model.UpstreamError{Operation: "upload", StatusCode: 500, Body: "boom"})

	_, err := f.uc.Publish(context.Background(), "sess", "p2", "hi", &model.Upload{Filename: "clip.mp4", MimeType: "video/mp4", Body: strings.NewReader("frames")})

	assert.Equal(t, model.KindMediaUploadFailed, model.KindOf(err))
	f.provider.AssertNotCalled(t, "Publish", mock.Anything, mock.Anything, mock.Anything)
	require.Len(t, f.stager.staged, 1)
	assert.False(t, f.stager.exists(f.stager.staged[0].Path))
	f.history.AssertNotCalled(t, "Record", mock.Anything, mock.Anything)
}

func TestPublish_PostFailureReleasesMedia(t *testing.T) {
	f := newPublishFixture(t, true)
	f.provider.On("UploadMedia", mock.Anything, mock.Anything, mock.Anything).Return("m1", nil)
	f.provider.On("Publish", mock.Anything, mock.Anything, mock.Anything).Return("", &model.UpstreamError{Operation: "post", StatusCode: 422})

	_, err := f.uc.Publish(context.Background(), "sess", "p2", "hi", &model.Upload{Filename: "a.jpg", MimeType: "image/jpeg", Body: strings.NewReader("jpg")})

	var re *model.RelayError
	require.ErrorAs(t, err, &re)
	assert.Equal(t, model.KindPublishFailed, re.Kind)
	assert.True(t, re.Upstream())
	assert.Equal(t, 1, f.stager.released)
	assert.False(t, f.stager.exists(f.stager.staged[0].Path))
}

func TestPublish_TransportFailureIsNotUpstream(t *testing.T) {
	f := newPublishFixture(t, true)
	f.provider.On("Publish", mock.Anything, mock.Anything, mock.Anything).Return("", errors.New("dial tcp: refused"))

	_, err := f.uc.Publish(context.Background(), "sess", "p2", "hi", nil)

	var re *model.RelayError
	require.ErrorAs(t, err, &re)
	assert.Equal(t, model.KindPublishFailed, re.Kind)
	assert.False(t, re.Upstream())
}

func TestPublish_EmptyRequest(t *testing.T) {
	f := newPublishFixture(t, true)

	_, err := f.uc.Publish(context.Background(), "sess", "p2", "   ", nil)
	assert.Equal(t, model.KindInvalidRequest, model.KindOf(err))
}

func TestPublish_BookkeepingFailureDoesNotFailPost(t *testing.T) {
	f := newPublishFixture(t, true)
	f.history.On("Record", mock.Anything, mock.Anything).Return(errors.New("db down"))
	f.events.On("Publish", mock.Anything, mock.Anything).Return(errors.New("bus down"))
	f.provider.On("Publish", mock.Anything, mock.Anything, mock.Anything).Return("post123", nil)

	res, err := f.uc.Publish(context.Background(), "sess", "p2", "hello", nil)
	require.NoError(t, err)
	assert.True(t, res.Success)
}

func TestHistory(t *testing.T) {
	f := newPublishFixture(t, true)
	recs := []*model.PostRecord{{ID: 1, Provider: "p2", PostID: "post123"}}
	f.history.On("ListByActor", mock.Anything, "p2", "urn:li:person:u1", 20).Return(recs, nil)

	got, err := f.uc.History(context.Background(), "sess", "p2", 0)
	require.NoError(t, err)
	assert.Equal(t, recs, got)

	_, err = f.uc.History(context.Background(), "other", "p2", 5)
	assert.Equal(t, model.KindNotAuthenticated, model.KindOf(err))
}

func TestHistory_Disabled(t *testing.T) {
	p := newMockProvider("p2", model.ProtocolOAuth2)
	store := session.NewMemoryStore()
	require.NoError(t, store.Mutate(context.Background(), "sess", func(s *model.Session) error {
		s.Provider("p2").Credential = &model.Credential{ActorID: "a"}
		return nil
	}))
	uc := NewPublishUsecase(NewProviderRegistry(p), store, newCountingStager(), nil, nil, time.Second, time.Minute)

	got, err := uc.History(context.Background(), "sess", "p2", 10)
	require.NoError(t, err)
	assert.Empty(t, got)
}
