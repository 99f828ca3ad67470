package twitter

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"social-relay/domain/model"
	"social-relay/domain/repository"
	"social-relay/infrastructure/clients/apiclient"
	"social-relay/infrastructure/utils"

	"github.com/dghubble/oauth1"
	twitterauth "github.com/dghubble/oauth1/twitter"
	"github.com/google/go-querystring/query"
)

const (
	ProviderName = "twitter"

	DefaultAPIBase    = "https://api.twitter.com"
	DefaultUploadBase = "https://upload.twitter.com"
)

// Config represents Twitter API configuration. ConsumerKey/ConsumerSecret are the app's API key pair.
type Config struct {
	ConsumerKey    string
	ConsumerSecret string
	CallbackURL    string
	Timeout        time.Duration

	// Endpoint defaults to the Twitter authorize (not authenticate) endpoint.
	Endpoint   *oauth1.Endpoint
	APIBase    string
	UploadBase string
	HTTPClient *http.Client
	// ChunkSize bounds each APPEND segment of a chunked media upload.
	ChunkSize int
}

// Client implements Twitter sign-in via OAuth 1.0a and posting through the v2 tweets API.
type Client struct {
	oauthConfig *oauth1.Config
	httpClient  *http.Client
	apiBase     string
	uploadBase  string
	chunkSize   int
	// callTimeout bounds each request of a chunked upload; the caller's context bounds the whole transfer.
	callTimeout time.Duration
}

func NewTwitterClient(config Config) repository.ISocialProvider {
	if config.Timeout <= 0 {
		config.Timeout = 15 * time.Second
	}
	httpClient := config.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: config.Timeout}
	}
	endpoint := twitterauth.AuthorizeEndpoint
	if config.Endpoint != nil {
		endpoint = *config.Endpoint
	}
	if config.ChunkSize <= 0 {
		config.ChunkSize = defaultChunkSize
	}
	return &Client{
		oauthConfig: &oauth1.Config{
			ConsumerKey:    config.ConsumerKey,
			ConsumerSecret: config.ConsumerSecret,
			CallbackURL:    config.CallbackURL,
			Endpoint:       endpoint,
			HTTPClient:     httpClient,
		},
		httpClient:  httpClient,
		apiBase:     strings.TrimRight(orDefault(config.APIBase, DefaultAPIBase), "/"),
		uploadBase:  strings.TrimRight(orDefault(config.UploadBase, DefaultUploadBase), "/"),
		chunkSize:   config.ChunkSize,
		callTimeout: config.Timeout,
	}
}

func (c *Client) Name() string                 { return ProviderName }
func (c *Client) Protocol() model.AuthProtocol { return model.ProtocolOAuth1 }

// BeginAuth obtains a temporary credential pair. Only the token id travels to the browser.
func (c *Client) BeginAuth(ctx context.Context) (*model.AuthRequest, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	requestToken, requestSecret, err := c.oauthConfig.RequestToken()
	if err != nil {
		return nil, fmt.Errorf("obtain request token: %w", err)
	}
	authURL, err := c.oauthConfig.AuthorizationURL(requestToken)
	if err != nil {
		return nil, fmt.Errorf("build authorization url: %w", err)
	}
	return &model.AuthRequest{
		URL: authURL.String(),
		Pending: model.PendingState{
			Protocol:      model.ProtocolOAuth1,
			RequestToken:  requestToken,
			RequestSecret: requestSecret,
			IssuedAt:      utils.GetCurrentTime(),
		},
	}, nil
}

func (c *Client) CompleteAuth(ctx context.Context, pending model.PendingState, cb model.Callback) (*model.Credential, *model.Profile, error) {
	if cb.Denied != "" {
		return nil, nil, model.ErrAuthorizationDenied
	}
	if err := ctx.Err(); err != nil {
		return nil, nil, err
	}
	accessToken, accessSecret, err := c.oauthConfig.AccessToken(pending.RequestToken, pending.RequestSecret, cb.Verifier)
	if err != nil {
		return nil, nil, fmt.Errorf("exchange request token: %w", err)
	}

	cred := &model.Credential{
		Protocol:     model.ProtocolOAuth1,
		AccessToken:  accessToken,
		AccessSecret: accessSecret,
		ObtainedAt:   utils.GetCurrentTime(),
	}
	user, err := c.me(ctx, *cred)
	if err != nil {
		return nil, nil, err
	}
	cred.ActorID = user.ID
	return cred, &model.Profile{
		Provider: ProviderName,
		ID:       user.ID,
		Name:     user.Name,
		Username: user.Username,
		Picture:  user.ProfileImageURL,
	}, nil
}

type userFields struct {
	UserFields string `url:"user.fields"`
}

type twitterUser struct {
	ID              string `json:"id"`
	Name            string `json:"name"`
	Username        string `json:"username"`
	ProfileImageURL string `json:"profile_image_url"`
}

func (c *Client) me(ctx context.Context, cred model.Credential) (*twitterUser, error) {
	params, err := query.Values(userFields{UserFields: "id,name,username,profile_image_url"})
	if err != nil {
		return nil, err
	}
	var out struct {
		Data twitterUser `json:"data"`
	}
	if _, err := apiclient.DoJSON(ctx, c.userClient(ctx, cred), apiclient.Request{
		Operation: "twitter users/me",
		Method:    http.MethodGet,
		URL:       c.apiBase + "/2/users/me?" + params.Encode(),
	}, &out); err != nil {
		return nil, err
	}
	if out.Data.ID == "" {
		return nil, errors.New("twitter users/me: response missing user id")
	}
	return &out.Data, nil
}

// userClient signs every request with the user's access token pair.
func (c *Client) userClient(ctx context.Context, cred model.Credential) *http.Client {
	ctx = context.WithValue(ctx, oauth1.HTTPClient, c.httpClient)
	return c.oauthConfig.Client(ctx, oauth1.NewToken(cred.AccessToken, cred.AccessSecret))
}

func (c *Client) BuildPayload(cred model.Credential, text, mediaRef string, kind model.MediaKind) model.PostPayload {
	return model.PostPayload{
		Author:     cred.ActorID,
		Text:       text,
		MediaRef:   mediaRef,
		MediaKind:  kind,
		Visibility: model.VisibilityPublic,
	}
}

type tweetRequest struct {
	Text  string      `json:"text"`
	Media *tweetMedia `json:"media,omitempty"`
}

type tweetMedia struct {
	MediaIDs []string `json:"media_ids"`
}

func (c *Client) Publish(ctx context.Context, cred model.Credential, payload model.PostPayload) (string, error) {
	body := tweetRequest{Text: payload.Text}
	if payload.MediaRef != "" {
		body.Media = &tweetMedia{MediaIDs: []string{payload.MediaRef}}
	}
	var out struct {
		Data struct {
			ID string `json:"id"`
		} `json:"data"`
	}
	if _, err := apiclient.DoJSON(ctx, c.userClient(ctx, cred), apiclient.Request{
		Operation: "twitter create tweet",
		Method:    http.MethodPost,
		URL:       c.apiBase + "/2/tweets",
		JSON:      body,
	}, &out); err != nil {
		return "", err
	}
	if out.Data.ID == "" {
		return "", errors.New("twitter create tweet: response missing tweet id")
	}
	return out.Data.ID, nil
}

func orDefault(v, def string) string {
	if v == "" {
		return def
	}
	return v
}
