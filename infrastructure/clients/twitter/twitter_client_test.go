package twitter

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync"
	"testing"
	"time"

	"social-relay/domain/model"

	"github.com/dghubble/oauth1"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeTwitter struct {
	t         *testing.T
	server    *httptest.Server
	mu        sync.Mutex
	commands  []string
	appended  []byte
	tweet     tweetRequest
	meStatus  int
	authHeads []string

	// processing delay FINALIZE asks for
	checkAfter int
}

func newFakeTwitter(t *testing.T) *fakeTwitter {
	t.Helper()
	f := &fakeTwitter{t: t, meStatus: http.StatusOK}
	mux := http.NewServeMux()
	mux.HandleFunc("/oauth/request_token", func(w http.ResponseWriter, r *http.Request) {
		assert.Contains(t, r.Header.Get("Authorization"), `oauth_callback="http%3A%2F%2Flocalhost%3A4000%2Fauth%2Ftwitter%2Fcallback"`)
		_, _ = w.Write([]byte("oauth_token=tt1&oauth_token_secret=ts1&oauth_callback_confirmed=true"))
	})
	mux.HandleFunc("/oauth/access_token", func(w http.ResponseWriter, r *http.Request) {
		auth := r.Header.Get("Authorization")
		assert.Contains(t, auth, `oauth_token="tt1"`)
		assert.Contains(t, auth, `oauth_verifier="v1"`)
		_, _ = w.Write([]byte("oauth_token=at1&oauth_token_secret=as1&user_id=42&screen_name=relay"))
	})
	mux.HandleFunc("/2/users/me", func(w http.ResponseWriter, r *http.Request) {
		assert.Contains(t, r.Header.Get("Authorization"), `oauth_token="at1"`)
		assert.Equal(t, "id,name,username,profile_image_url", r.URL.Query().Get("user.fields"))
		if f.meStatus != http.StatusOK {
			w.WriteHeader(f.meStatus)
			return
		}
		_, _ = w.Write([]byte(`{"data":{"id":"42","name":"Relay Bot","username":"relay"}}`))
	})
	mux.HandleFunc("/1.1/media/upload.json", func(w http.ResponseWriter, r *http.Request) {
		f.mu.Lock()
		defer f.mu.Unlock()
		if r.Method == http.MethodGet {
			f.commands = append(f.commands, r.URL.Query().Get("command"))
			_, _ = w.Write([]byte(`{"media_id_string":"m1","processing_info":{"state":"succeeded"}}`))
			return
		}
		ct := r.Header.Get("Content-Type")
		if strings.HasPrefix(ct, "multipart/form-data") {
			require.NoError(t, r.ParseMultipartForm(1<<20))
			f.commands = append(f.commands, r.FormValue("command"))
			assert.Equal(t, "m1", r.FormValue("media_id"))
			file, _, err := r.FormFile("media")
			require.NoError(t, err)
			chunk, _ := io.ReadAll(file)
			f.appended = append(f.appended, chunk...)
			w.WriteHeader(http.StatusNoContent)
			return
		}
		require.NoError(t, r.ParseForm())
		cmd := r.PostForm.Get("command")
		f.commands = append(f.commands, cmd)
		switch cmd {
		case "INIT":
			assert.Equal(t, "tweet_image", r.PostForm.Get("media_category"))
			assert.Equal(t, "image/png", r.PostForm.Get("media_type"))
			assert.Equal(t, "10", r.PostForm.Get("total_bytes"))
			w.WriteHeader(http.StatusAccepted)
			_, _ = w.Write([]byte(`{"media_id_string":"m1"}`))
		case "FINALIZE":
			_, _ = fmt.Fprintf(w, `{"media_id_string":"m1","processing_info":{"state":"in_progress","check_after_secs":%d}}`, f.checkAfter)
		}
	})
	mux.HandleFunc("/2/tweets", func(w http.ResponseWriter, r *http.Request) {
		f.mu.Lock()
		defer f.mu.Unlock()
		require.NoError(t, json.NewDecoder(r.Body).Decode(&f.tweet))
		f.authHeads = append(f.authHeads, r.Header.Get("Authorization"))
		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte(`{"data":{"id":"1799","text":"hello"}}`))
	})
	f.server = httptest.NewServer(mux)
	t.Cleanup(f.server.Close)
	return f
}

func (f *fakeTwitter) client(chunk int) *Client {
	return f.clientWithTimeout(chunk, 0)
}

func (f *fakeTwitter) clientWithTimeout(chunk int, timeout time.Duration) *Client {
	c := NewTwitterClient(Config{
		ConsumerKey:    "ck",
		ConsumerSecret: "cs",
		CallbackURL:    "http://localhost:4000/auth/twitter/callback",
		Endpoint: &oauth1.Endpoint{
			RequestTokenURL: f.server.URL + "/oauth/request_token",
			AuthorizeURL:    f.server.URL + "/oauth/authorize",
			AccessTokenURL:  f.server.URL + "/oauth/access_token",
		},
		APIBase:    f.server.URL,
		UploadBase: f.server.URL,
		HTTPClient: f.server.Client(),
		ChunkSize:  chunk,
		Timeout:    timeout,
	})
	return c.(*Client)
}

func TestBeginAuth_RequestsTemporaryCredential(t *testing.T) {
	f := newFakeTwitter(t)

	req, err := f.client(0).BeginAuth(context.Background())
	require.NoError(t, err)

	assert.Equal(t, model.ProtocolOAuth1, req.Pending.Protocol)
	assert.Equal(t, "tt1", req.Pending.RequestToken)
	assert.Equal(t, "ts1", req.Pending.RequestSecret)
	u, err := url.Parse(req.URL)
	require.NoError(t, err)
	assert.Equal(t, "tt1", u.Query().Get("oauth_token"))
	assert.NotContains(t, req.URL, "ts1")
}

func TestCompleteAuth_ExchangesVerifier(t *testing.T) {
	f := newFakeTwitter(t)
	pending := model.PendingState{Protocol: model.ProtocolOAuth1, RequestToken: "tt1", RequestSecret: "ts1"}

	cred, profile, err := f.client(0).CompleteAuth(context.Background(), pending, model.Callback{OAuthToken: "tt1", Verifier: "v1"})
	require.NoError(t, err)

	assert.Equal(t, "at1", cred.AccessToken)
	assert.Equal(t, "as1", cred.AccessSecret)
	assert.Equal(t, "42", cred.ActorID)
	assert.Equal(t, "42", profile.ID)
	assert.Equal(t, "relay", profile.Username)
}

func TestCompleteAuth_ProfileFailure(t *testing.T) {
	f := newFakeTwitter(t)
	f.meStatus = http.StatusUnauthorized
	pending := model.PendingState{Protocol: model.ProtocolOAuth1, RequestToken: "tt1", RequestSecret: "ts1"}

	cred, _, err := f.client(0).CompleteAuth(context.Background(), pending, model.Callback{OAuthToken: "tt1", Verifier: "v1"})
	assert.Error(t, err)
	assert.Nil(t, cred)
}

func TestCompleteAuth_Denied(t *testing.T) {
	f := newFakeTwitter(t)

	_, _, err := f.client(0).CompleteAuth(context.Background(), model.PendingState{RequestToken: "tt1"}, model.Callback{Denied: "tt1"})
	assert.ErrorIs(t, err, model.ErrAuthorizationDenied)
}

func TestUploadMedia_Chunked(t *testing.T) {
	f := newFakeTwitter(t)
	cred := model.Credential{AccessToken: "at1", AccessSecret: "as1", ActorID: "42"}

	ref, err := f.client(4).UploadMedia(context.Background(), cred, model.MediaContent{
		Filename: "cat.png",
		MimeType: "image/png",
		Kind:     model.MediaKindImage,
		Size:     10,
		Body:     strings.NewReader("0123456789"),
	})
	require.NoError(t, err)

	assert.Equal(t, "m1", ref)
	assert.Equal(t, "0123456789", string(f.appended))
	assert.Equal(t, []string{"INIT", "APPEND", "APPEND", "APPEND", "FINALIZE", "STATUS"}, f.commands)
}

func TestUploadMedia_ProcessingOutlastsCallTimeout(t *testing.T) {
	f := newFakeTwitter(t)
	f.checkAfter = 1
	cred := model.Credential{AccessToken: "at1", AccessSecret: "as1", ActorID: "42"}

	ref, err := f.clientWithTimeout(4, 300*time.Millisecond).UploadMedia(context.Background(), cred, model.MediaContent{
		Filename: "cat.png",
		MimeType: "image/png",
		Kind:     model.MediaKindImage,
		Size:     10,
		Body:     strings.NewReader("0123456789"),
	})
	require.NoError(t, err)

	assert.Equal(t, "m1", ref)
	assert.Equal(t, []string{"INIT", "APPEND", "APPEND", "APPEND", "FINALIZE", "STATUS"}, f.commands)
}

func TestUploadMedia_StopsAtOverallDeadline(t *testing.T) {
	f := newFakeTwitter(t)
	f.checkAfter = 30
	cred := model.Credential{AccessToken: "at1", AccessSecret: "as1", ActorID: "42"}
	ctx, cancel := context.WithTimeout(context.Background(), 200*time.Millisecond)
	defer cancel()

	ref, err := f.client(0).UploadMedia(ctx, cred, model.MediaContent{
		Filename: "cat.png",
		MimeType: "image/png",
		Kind:     model.MediaKindImage,
		Size:     10,
		Body:     strings.NewReader("0123456789"),
	})

	assert.Empty(t, ref)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestPublish_WithMedia(t *testing.T) {
	f := newFakeTwitter(t)
	c := f.client(0)
	cred := model.Credential{AccessToken: "at1", AccessSecret: "as1", ActorID: "42"}

	id, err := c.Publish(context.Background(), cred, c.BuildPayload(cred, "hello", "m1", model.MediaKindImage))
	require.NoError(t, err)

	assert.Equal(t, "1799", id)
	assert.Equal(t, "hello", f.tweet.Text)
	require.NotNil(t, f.tweet.Media)
	assert.Equal(t, []string{"m1"}, f.tweet.Media.MediaIDs)
	assert.Contains(t, f.authHeads[0], `oauth_consumer_key="ck"`)
}

func TestPublish_TextOnly(t *testing.T) {
	f := newFakeTwitter(t)
	c := f.client(0)
	cred := model.Credential{AccessToken: "at1", AccessSecret: "as1"}

	_, err := c.Publish(context.Background(), cred, c.BuildPayload(cred, "just text", "", model.MediaKindNone))
	require.NoError(t, err)
	assert.Nil(t, f.tweet.Media)
}
