package repository

import (
	"context"
	"io"

	"social-relay/domain/model"
)

// IMediaStager holds uploaded files for the duration of one publish request.
type IMediaStager interface {
	Stage(ctx context.Context, r io.Reader, filename, mimeType string) (*model.StagedMedia, error)
	Open(media *model.StagedMedia) (io.ReadCloser, error)
	// Release deletes the staged bytes. Releasing twice is not an error.
	Release(media *model.StagedMedia) error
}
