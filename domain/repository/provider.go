package repository

import (
	"context"

	"social-relay/domain/model"
)

// ISocialProvider is one social network the relay can connect to and publish on.
type ISocialProvider interface {
	Name() string
	Protocol() model.AuthProtocol

	// BeginAuth produces the authorize URL and the anti-forgery material to keep in the session.
	BeginAuth(ctx context.Context) (*model.AuthRequest, error)
	// CompleteAuth exchanges the verified callback for a durable credential and the user's profile.
	CompleteAuth(ctx context.Context, pending model.PendingState, cb model.Callback) (*model.Credential, *model.Profile, error)

	// UploadMedia transfers staged bytes and returns the provider media reference.
	UploadMedia(ctx context.Context, cred model.Credential, media model.MediaContent) (string, error)
	BuildPayload(cred model.Credential, text, mediaRef string, kind model.MediaKind) model.PostPayload
	// Publish submits the payload and returns the provider post id.
	Publish(ctx context.Context, cred model.Credential, payload model.PostPayload) (string, error)
}
