package model

import (
	"io"
	"strings"
)

type MediaKind string

const (
	MediaKindNone  MediaKind = ""
	MediaKindImage MediaKind = "image"
	MediaKindVideo MediaKind = "video"
)

// MediaKindFor classifies a declared MIME type: video/* is video, anything else an image.
func MediaKindFor(mimeType string) MediaKind {
	if strings.HasPrefix(strings.ToLower(strings.TrimSpace(mimeType)), "video/") {
		return MediaKindVideo
	}
	return MediaKindImage
}

// Upload is a file received with a publish request, before staging.
type Upload struct {
	Filename string
	MimeType string
	Size     int64
	Body     io.Reader
}

// StagedMedia is an uploaded file held on local storage for a single publish request.
type StagedMedia struct {
	Path     string    `json:"path"`
	Filename string    `json:"filename"`
	MimeType string    `json:"mime_type"`
	Kind     MediaKind `json:"kind"`
	Size     int64     `json:"size"`
}

// MediaContent is what a provider receives to transfer staged bytes upstream.
type MediaContent struct {
	Filename string
	MimeType string
	Kind     MediaKind
	Size     int64
	Body     io.Reader
}
