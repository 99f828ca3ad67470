package youtube

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"social-relay/domain/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/oauth2"
)

func newFakeYouTube(t *testing.T, calls *int) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/token", func(w http.ResponseWriter, r *http.Request) {
		*calls++
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"access_token":"yt1","token_type":"Bearer","expires_in":3600}`))
	})
	mux.HandleFunc("/youtube/v3/channels", func(w http.ResponseWriter, r *http.Request) {
		*calls++
		assert.Equal(t, "Bearer yt1", r.Header.Get("Authorization"))
		assert.Equal(t, "true", r.URL.Query().Get("mine"))
		_, _ = w.Write([]byte(`{"items":[{"id":"UC42","snippet":{"title":"Relay Channel","customUrl":"@relay"}}]}`))
	})
	mux.HandleFunc("/youtube/v3/videos", func(w http.ResponseWriter, r *http.Request) {
		*calls++
		assert.Equal(t, http.MethodPut, r.Method)
		var video map[string]interface{}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&video))
		assert.Equal(t, "vid1", video["id"])
		assert.Equal(t, "public", video["status"].(map[string]interface{})["privacyStatus"])
		snippet := video["snippet"].(map[string]interface{})
		assert.Equal(t, "Launch day", snippet["title"])
		assert.Equal(t, "22", snippet["categoryId"])
		_, _ = w.Write([]byte(`{"id":"vid1"}`))
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func testClient(srv *httptest.Server) *Client {
	return NewYouTubeClient(Config{
		ClientID:     "yt-client",
		ClientSecret: "yt-secret",
		RedirectURL:  "http://localhost:4000/auth/youtube/callback",
		Endpoint:     &oauth2.Endpoint{AuthURL: srv.URL + "/auth", TokenURL: srv.URL + "/token"},
		APIEndpoint:  srv.URL + "/",
		HTTPClient:   srv.Client(),
	}).(*Client)
}

func TestCompleteAuth_UsesOwnChannelAsProfile(t *testing.T) {
	calls := 0
	srv := newFakeYouTube(t, &calls)

	cred, profile, err := testClient(srv).CompleteAuth(context.Background(), model.PendingState{}, model.Callback{Code: "c1"})
	require.NoError(t, err)

	assert.Equal(t, "yt1", cred.AccessToken)
	assert.Equal(t, "UC42", cred.ActorID)
	assert.Equal(t, "Relay Channel", profile.Name)
	assert.Equal(t, "@relay", profile.Username)
}

func TestPublish_RequiresVideoWithoutNetwork(t *testing.T) {
	calls := 0
	srv := newFakeYouTube(t, &calls)
	c := testClient(srv)

	_, err := c.Publish(context.Background(), model.Credential{AccessToken: "yt1"}, c.BuildPayload(model.Credential{}, "text only", "", model.MediaKindNone))
	require.Error(t, err)
	assert.Equal(t, model.KindInvalidRequest, model.KindOf(err))
	assert.True(t, errors.Is(err, model.ErrMediaRequired))
	assert.Zero(t, calls)
}

func TestUploadMedia_RejectsImages(t *testing.T) {
	calls := 0
	srv := newFakeYouTube(t, &calls)

	_, err := testClient(srv).UploadMedia(context.Background(), model.Credential{AccessToken: "yt1"}, model.MediaContent{
		MimeType: "image/png",
		Kind:     model.MediaKindImage,
		Body:     strings.NewReader("png"),
	})
	assert.Equal(t, model.KindMediaUploadFailed, model.KindOf(err))
	assert.ErrorIs(t, err, model.ErrMediaKind)
	assert.Zero(t, calls)
}

func TestPublish_MakesVideoPublic(t *testing.T) {
	calls := 0
	srv := newFakeYouTube(t, &calls)
	c := testClient(srv)
	cred := model.Credential{AccessToken: "yt1", ActorID: "UC42"}

	id, err := c.Publish(context.Background(), cred, c.BuildPayload(cred, "Launch day\nmore details", "vid1", model.MediaKindVideo))
	require.NoError(t, err)
	assert.Equal(t, "vid1", id)
}

func TestBuildPayload_TitleFromFirstLine(t *testing.T) {
	c := NewYouTubeClient(Config{}).(*Client)

	payload := c.BuildPayload(model.Credential{}, strings.Repeat("a", 150)+"\nbody", "vid1", model.MediaKindVideo)
	assert.Len(t, payload.Title, 100)
	assert.Equal(t, "22", payload.Category)
}
