package youtube

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"social-relay/domain/model"
	"social-relay/domain/repository"
	"social-relay/infrastructure/utils"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"
	"google.golang.org/api/youtube/v3"
)

const (
	ProviderName = "youtube"

	// peopleAndBlogs is the default upload category.
	peopleAndBlogs = "22"
	maxTitleLength = 100
)

// Config represents YouTube API configuration
type Config struct {
	ClientID     string
	ClientSecret string
	RedirectURL  string
	Timeout      time.Duration

	// Endpoint and APIEndpoint override the Google hosts, for tests.
	Endpoint    *oauth2.Endpoint
	APIEndpoint string
	HTTPClient  *http.Client
}

// Client represents YouTube API client. The authorized video stands in for a post.
type Client struct {
	oauthConfig *oauth2.Config
	httpClient  *http.Client
	apiEndpoint string
}

func NewYouTubeClient(config Config) repository.ISocialProvider {
	if config.Timeout <= 0 {
		config.Timeout = 15 * time.Second
	}
	httpClient := config.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: config.Timeout}
	}
	endpoint := google.Endpoint
	if config.Endpoint != nil {
		endpoint = *config.Endpoint
	}
	return &Client{
		oauthConfig: &oauth2.Config{
			ClientID:     config.ClientID,
			ClientSecret: config.ClientSecret,
			RedirectURL:  config.RedirectURL,
			Scopes: []string{
				youtube.YoutubeReadonlyScope,
				youtube.YoutubeUploadScope,
				youtube.YoutubeForceSslScope,
			},
			Endpoint: endpoint,
		},
		httpClient:  httpClient,
		apiEndpoint: config.APIEndpoint,
	}
}

func (c *Client) Name() string                 { return ProviderName }
func (c *Client) Protocol() model.AuthProtocol { return model.ProtocolOAuth2 }

func (c *Client) BeginAuth(_ context.Context) (*model.AuthRequest, error) {
	state, err := utils.RandomState()
	if err != nil {
		return nil, err
	}
	authURL := c.oauthConfig.AuthCodeURL(state, oauth2.AccessTypeOffline, oauth2.SetAuthURLParam("prompt", "consent"))
	return &model.AuthRequest{
		URL: authURL,
		Pending: model.PendingState{
			Protocol: model.ProtocolOAuth2,
			State:    state,
			IssuedAt: utils.GetCurrentTime(),
		},
	}, nil
}

func (c *Client) CompleteAuth(ctx context.Context, _ model.PendingState, cb model.Callback) (*model.Credential, *model.Profile, error) {
	if cb.Code == "" {
		return nil, nil, errors.New("callback carried no authorization code")
	}
	ctx = context.WithValue(ctx, oauth2.HTTPClient, c.httpClient)
	token, err := c.oauthConfig.Exchange(ctx, cb.Code)
	if err != nil {
		return nil, nil, fmt.Errorf("exchange authorization code: %w", err)
	}
	cred := &model.Credential{
		Protocol:    model.ProtocolOAuth2,
		AccessToken: token.AccessToken,
		TokenType:   token.Type(),
		Scopes:      c.oauthConfig.Scopes,
		ObtainedAt:  utils.GetCurrentTime(),
	}
	if !token.Expiry.IsZero() {
		exp := token.Expiry.UTC()
		cred.ExpiresAt = &exp
	}

	profile, err := c.myChannel(ctx, *cred)
	if err != nil {
		return nil, nil, err
	}
	cred.ActorID = profile.ID
	return cred, profile, nil
}

// service builds an authorized API client. It reuses only the transport of c.httpClient, so calls
// (Videos.Insert included) are bounded by ctx rather than by the client timeout.
func (c *Client) service(ctx context.Context, cred model.Credential) (*youtube.Service, error) {
	ctx = context.WithValue(ctx, oauth2.HTTPClient, c.httpClient)
	token := &oauth2.Token{AccessToken: cred.AccessToken, TokenType: "Bearer"}
	opts := []option.ClientOption{option.WithHTTPClient(c.oauthConfig.Client(ctx, token))}
	if c.apiEndpoint != "" {
		opts = append(opts, option.WithEndpoint(c.apiEndpoint))
	}
	svc, err := youtube.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create YouTube service: %w", err)
	}
	return svc, nil
}

// myChannel uses the authorized user's own channel as the profile.
func (c *Client) myChannel(ctx context.Context, cred model.Credential) (*model.Profile, error) {
	svc, err := c.service(ctx, cred)
	if err != nil {
		return nil, err
	}
	resp, err := svc.Channels.List([]string{"id", "snippet"}).Mine(true).Context(ctx).Do()
	if err != nil {
		return nil, upstream("youtube channels.list", err)
	}
	if len(resp.Items) == 0 {
		return nil, errors.New("no channel found for authenticated user")
	}
	ch := resp.Items[0]
	profile := &model.Profile{Provider: ProviderName, ID: ch.Id, Subject: ch.Id}
	if ch.Snippet != nil {
		profile.Name = ch.Snippet.Title
		profile.Username = ch.Snippet.CustomUrl
		if ch.Snippet.Thumbnails != nil && ch.Snippet.Thumbnails.Default != nil {
			profile.Picture = ch.Snippet.Thumbnails.Default.Url
		}
	}
	return profile, nil
}

// UploadMedia inserts the video as private; Publish later flips it public with the post text.
func (c *Client) UploadMedia(ctx context.Context, cred model.Credential, media model.MediaContent) (string, error) {
	if media.Kind != model.MediaKindVideo {
		return "", model.NewRelayError(model.KindMediaUploadFailed, ProviderName, "only video uploads are supported", model.ErrMediaKind)
	}
	svc, err := c.service(ctx, cred)
	if err != nil {
		return "", err
	}
	title := media.Filename
	if title == "" {
		title = "Untitled"
	}
	video := &youtube.Video{
		Snippet: &youtube.VideoSnippet{
			Title:      utils.Truncate(title, maxTitleLength),
			CategoryId: peopleAndBlogs,
		},
		Status: &youtube.VideoStatus{PrivacyStatus: "private"},
	}
	resp, err := svc.Videos.Insert([]string{"snippet", "status"}, video).
		Media(media.Body, googleapi.ContentType(media.MimeType)).
		Context(ctx).
		Do()
	if err != nil {
		return "", upstream("youtube videos.insert", err)
	}
	return resp.Id, nil
}

func (c *Client) BuildPayload(cred model.Credential, text, mediaRef string, kind model.MediaKind) model.PostPayload {
	title, _, _ := strings.Cut(strings.TrimSpace(text), "\n")
	return model.PostPayload{
		Author:     cred.ActorID,
		Text:       text,
		MediaRef:   mediaRef,
		MediaKind:  kind,
		Visibility: model.VisibilityPublic,
		Category:   peopleAndBlogs,
		Title:      utils.Truncate(strings.TrimSpace(title), maxTitleLength),
	}
}

func (c *Client) Publish(ctx context.Context, cred model.Credential, payload model.PostPayload) (string, error) {
	if payload.MediaRef == "" {
		return "", model.NewRelayError(model.KindInvalidRequest, ProviderName, "a video attachment is required", model.ErrMediaRequired)
	}
	svc, err := c.service(ctx, cred)
	if err != nil {
		return "", err
	}
	title := payload.Title
	if title == "" {
		title = "Untitled"
	}
	video := &youtube.Video{
		Id: payload.MediaRef,
		Snippet: &youtube.VideoSnippet{
			Title:       title,
			Description: payload.Text,
			CategoryId:  payload.Category,
		},
		Status: &youtube.VideoStatus{PrivacyStatus: strings.ToLower(payload.Visibility)},
	}
	resp, err := svc.Videos.Update([]string{"snippet", "status"}, video).Context(ctx).Do()
	if err != nil {
		return "", upstream("youtube videos.update", err)
	}
	return resp.Id, nil
}

// upstream converts a googleapi error into the shared upstream error shape.
func upstream(op string, err error) error {
	var gerr *googleapi.Error
	if errors.As(err, &gerr) {
		return fmt.Errorf("%w: %v", &model.UpstreamError{Operation: op, StatusCode: gerr.Code, Body: gerr.Body}, err)
	}
	return fmt.Errorf("%s: %w", op, err)
}
