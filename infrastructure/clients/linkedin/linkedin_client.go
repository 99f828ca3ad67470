package linkedin

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
	"social-relay/infrastructure/logger"
	"social-relay/infrastructure/utils"

	"github.com/coreos/go-oidc/v3/oidc"
	"golang.org/x/oauth2"
)

const (
	ProviderName = "linkedin"

	DefaultAuthURL  = "https://www.linkedin.com/oauth/v2/authorization"
	DefaultTokenURL = "https://www.linkedin.com/oauth/v2/accessToken"
	DefaultAPIBase  = "https://api.linkedin.com"
	DefaultIssuer   = "https://www.linkedin.com/oauth"
	DefaultJWKSURL  = "https://www.linkedin.com/oauth/openid/jwks"

	personURNPrefix = "urn:li:person:"
	restliVersion   = "2.0.0"
)

var Scopes = []string{"openid", "profile", "email", "w_member_social"}

// Config represents LinkedIn API configuration. Empty endpoint fields fall back to the public LinkedIn hosts.
type Config struct {
	ClientID     string
	ClientSecret string
	RedirectURL  string
	Timeout      time.Duration

	AuthURL  string
	TokenURL string
	APIBase  string
	Issuer   string
	JWKSURL  string

	HTTPClient *http.Client
	// UploadHTTPClient carries media bytes. It defaults to a client without its own timeout so large
	// uploads are bounded by the caller's context only.
	UploadHTTPClient *http.Client
	// KeySet replaces the remote JWKS, mainly for tests.
	KeySet oidc.KeySet
}

// Client implements the LinkedIn OpenID Connect sign-in and member share APIs.
type Client struct {
	oauthConfig  *oauth2.Config
	verifier     *oidc.IDTokenVerifier
	httpClient   *http.Client
	uploadClient *http.Client
	apiBase      string
}

func NewLinkedInClient(ctx context.Context, config Config) repository.ISocialProvider {
	if config.Timeout <= 0 {
		config.Timeout = 15 * time.Second
	}
	httpClient := config.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: config.Timeout}
	}
	uploadClient := config.UploadHTTPClient
	if uploadClient == nil {
		uploadClient = &http.Client{}
		if config.HTTPClient != nil {
			uploadClient = config.HTTPClient
		}
	}

	keySet := config.KeySet
	if keySet == nil {
		keySet = oidc.NewRemoteKeySet(oidc.ClientContext(ctx, httpClient), orDefault(config.JWKSURL, DefaultJWKSURL))
	}
	verifier := oidc.NewVerifier(orDefault(config.Issuer, DefaultIssuer), keySet, &oidc.Config{ClientID: config.ClientID})

	return &Client{
		oauthConfig: &oauth2.Config{
			ClientID:     config.ClientID,
			ClientSecret: config.ClientSecret,
			RedirectURL:  config.RedirectURL,
			Scopes:       Scopes,
			Endpoint: oauth2.Endpoint{
				AuthURL:   orDefault(config.AuthURL, DefaultAuthURL),
				TokenURL:  orDefault(config.TokenURL, DefaultTokenURL),
				AuthStyle: oauth2.AuthStyleInParams,
			},
		},
		verifier:     verifier,
		httpClient:   httpClient,
		uploadClient: uploadClient,
		apiBase:      strings.TrimRight(orDefault(config.APIBase, DefaultAPIBase), "/"),
	}
}

func (c *Client) Name() string                 { return ProviderName }
func (c *Client) Protocol() model.AuthProtocol { return model.ProtocolOAuth2 }

func (c *Client) BeginAuth(_ context.Context) (*model.AuthRequest, error) {
	state, err := utils.RandomState()
	if err != nil {
		return nil, err
	}
	return &model.AuthRequest{
		URL: c.oauthConfig.AuthCodeURL(state),
		Pending: model.PendingState{
			Protocol: model.ProtocolOAuth2,
			State:    state,
			IssuedAt: utils.GetCurrentTime(),
		},
	}, nil
}

type idClaims struct {
	Subject       string `json:"sub"`
	Name          string `json:"name"`
	GivenName     string `json:"given_name"`
	FamilyName    string `json:"family_name"`
	Email         string `json:"email"`
	EmailVerified bool   `json:"email_verified"`
	Picture       string `json:"picture"`
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

	var claims idClaims
	if raw, ok := token.Extra("id_token").(string); ok && raw != "" {
		idToken, err := c.verifier.Verify(ctx, raw)
		if err != nil {
			return nil, nil, fmt.Errorf("verify id_token: %w", err)
		}
		if err := idToken.Claims(&claims); err != nil {
			return nil, nil, fmt.Errorf("decode id_token claims: %w", err)
		}
	}

	info, err := c.userInfo(ctx, token.AccessToken)
	if err != nil {
		if claims.Subject == "" {
			return nil, nil, err
		}
		logger.GetLogger().WithField("provider", ProviderName).WithField("error", err).Warn("userinfo unavailable, using id_token claims")
	}

	profile := mergeProfile(claims, info)
	if profile.Subject == "" {
		return nil, nil, errors.New("no member identity in id_token or userinfo")
	}

	cred := &model.Credential{
		Protocol:    model.ProtocolOAuth2,
		AccessToken: token.AccessToken,
		TokenType:   token.Type(),
		ActorID:     personURNPrefix + profile.Subject,
		Scopes:      Scopes,
		ObtainedAt:  utils.GetCurrentTime(),
	}
	if !token.Expiry.IsZero() {
		exp := token.Expiry.UTC()
		cred.ExpiresAt = &exp
	}
	return cred, profile, nil
}

func (c *Client) userInfo(ctx context.Context, accessToken string) (*idClaims, error) {
	var info idClaims
	_, err := apiclient.DoJSON(ctx, c.httpClient, apiclient.Request{
		Operation: "linkedin userinfo",
		Method:    http.MethodGet,
		URL:       c.apiBase + "/v2/userinfo",
		Header:    bearer(accessToken),
	}, &info)
	if err != nil {
		return nil, err
	}
	return &info, nil
}

// mergeProfile lets userinfo fields win over id_token claims.
func mergeProfile(claims idClaims, info *idClaims) *model.Profile {
	p := &model.Profile{
		Provider: ProviderName,
		Subject:  claims.Subject,
		Name:     claims.Name,
		Email:    claims.Email,
		Picture:  claims.Picture,
	}
	if info != nil {
		if p.Subject == "" {
			p.Subject = info.Subject
		}
		p.Name = firstNonEmpty(info.Name, strings.TrimSpace(info.GivenName+" "+info.FamilyName), p.Name)
		p.Email = firstNonEmpty(info.Email, p.Email)
		p.Picture = firstNonEmpty(info.Picture, p.Picture)
	}
	p.ID = p.Subject
	return p
}

func bearer(token string) http.Header {
	return http.Header{"Authorization": {"Bearer " + token}}
}

func orDefault(v, def string) string {
	if v == "" {
		return def
	}
	return v
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
