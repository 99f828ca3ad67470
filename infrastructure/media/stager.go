package media

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"social-relay/domain/model"
	"social-relay/domain/repository"
	"social-relay/infrastructure/logger"

	"github.com/spf13/afero"
)

// Stager keeps uploads on an afero filesystem until the publish request releases them.
type Stager struct {
	fs       afero.Fs
	dir      string
	maxBytes int64
}

func NewStager(fs afero.Fs, dir string, maxBytes int64) (repository.IMediaStager, error) {
	if err := fs.MkdirAll(dir, 0o750); err != nil {
		return nil, fmt.Errorf("create upload dir %s: %w", dir, err)
	}
	return &Stager{fs: fs, dir: dir, maxBytes: maxBytes}, nil
}

func (s *Stager) Stage(ctx context.Context, r io.Reader, filename, mimeType string) (*model.StagedMedia, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	f, err := afero.TempFile(s.fs, s.dir, "upload-*"+safeExt(filename))
	if err != nil {
		return nil, fmt.Errorf("create staging file: %w", err)
	}
	path := f.Name()

	src := r
	if s.maxBytes > 0 {
		src = io.LimitReader(r, s.maxBytes+1)
	}
	n, copyErr := io.Copy(f, src)
	closeErr := f.Close()
	if copyErr == nil && s.maxBytes > 0 && n > s.maxBytes {
		copyErr = model.ErrMediaTooLarge
	}
	if copyErr == nil {
		copyErr = closeErr
	}
	if copyErr != nil {
		if rmErr := s.fs.Remove(path); rmErr != nil {
			logger.GetLogger().WithField("path", path).WithField("error", rmErr).Error("Failed to remove partial upload")
		}
		return nil, fmt.Errorf("stage %q: %w", filename, copyErr)
	}

	if mimeType == "" {
		mimeType = "application/octet-stream"
	}
	return &model.StagedMedia{
		Path:     path,
		Filename: filepath.Base(filename),
		MimeType: mimeType,
		Kind:     model.MediaKindFor(mimeType),
		Size:     n,
	}, nil
}

func (s *Stager) Open(media *model.StagedMedia) (io.ReadCloser, error) {
	f, err := s.fs.Open(media.Path)
	if err != nil {
		return nil, fmt.Errorf("open staged media: %w", err)
	}
	return f, nil
}

func (s *Stager) Release(media *model.StagedMedia) error {
	if media == nil {
		return nil
	}
	err := s.fs.Remove(media.Path)
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("release staged media: %w", err)
	}
	return nil
}

func safeExt(filename string) string {
	ext := strings.ToLower(filepath.Ext(filename))
	if len(ext) > 10 || strings.ContainsAny(ext, `/\ `) {
		return ""
	}
	return ext
}
