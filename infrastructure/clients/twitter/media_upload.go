package twitter

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strconv"
	"strings"
	"time"

	"social-relay/domain/model"
	"social-relay/infrastructure/clients/apiclient"

	"github.com/google/go-querystring/query"
)

const (
	defaultChunkSize = 4 << 20

	categoryImage = "tweet_image"
	categoryVideo = "tweet_video"
)

type initParams struct {
	Command       string `url:"command"`
	TotalBytes    int64  `url:"total_bytes"`
	MediaType     string `url:"media_type"`
	MediaCategory string `url:"media_category"`
}

type commandParams struct {
	Command string `url:"command"`
	MediaID string `url:"media_id"`
}

type mediaResponse struct {
	MediaIDString  string          `json:"media_id_string"`
	ProcessingInfo *processingInfo `json:"processing_info,omitempty"`
}

type processingInfo struct {
	State          string `json:"state"`
	CheckAfterSecs int    `json:"check_after_secs"`
	Error          *struct {
		Message string `json:"message"`
	} `json:"error,omitempty"`
}

// UploadMedia runs the chunked INIT/APPEND/FINALIZE upload and waits for async processing.
func (c *Client) UploadMedia(ctx context.Context, cred model.Credential, media model.MediaContent) (string, error) {
	client := c.userClient(ctx, cred)
	endpoint := c.uploadBase + "/1.1/media/upload.json"

	category := categoryImage
	if media.Kind == model.MediaKindVideo {
		category = categoryVideo
	}
	initForm, err := query.Values(initParams{
		Command:       "INIT",
		TotalBytes:    media.Size,
		MediaType:     media.MimeType,
		MediaCategory: category,
	})
	if err != nil {
		return "", err
	}
	var initResp mediaResponse
	if err := c.mediaCall(ctx, client, apiclient.Request{
		Operation:   "twitter media INIT",
		Method:      http.MethodPost,
		URL:         endpoint,
		Body:        strings.NewReader(initForm.Encode()),
		ContentType: "application/x-www-form-urlencoded",
	}, &initResp); err != nil {
		return "", err
	}
	mediaID := initResp.MediaIDString
	if mediaID == "" {
		return "", errors.New("twitter media INIT: response missing media_id_string")
	}

	if err := c.appendChunks(ctx, client, endpoint, mediaID, media); err != nil {
		return "", err
	}

	finalForm, _ := query.Values(commandParams{Command: "FINALIZE", MediaID: mediaID})
	var finalResp mediaResponse
	if err := c.mediaCall(ctx, client, apiclient.Request{
		Operation:   "twitter media FINALIZE",
		Method:      http.MethodPost,
		URL:         endpoint,
		Body:        strings.NewReader(finalForm.Encode()),
		ContentType: "application/x-www-form-urlencoded",
	}, &finalResp); err != nil {
		return "", err
	}

	if err := c.awaitProcessing(ctx, client, endpoint, mediaID, finalResp.ProcessingInfo); err != nil {
		return "", err
	}
	return mediaID, nil
}

func (c *Client) appendChunks(ctx context.Context, client *http.Client, endpoint, mediaID string, media model.MediaContent) error {
	buf := make([]byte, c.chunkSize)
	for segment := 0; ; segment++ {
		n, readErr := io.ReadFull(media.Body, buf)
		if n > 0 {
			if err := c.appendChunk(ctx, client, endpoint, mediaID, segment, media.Filename, buf[:n]); err != nil {
				return err
			}
		}
		if errors.Is(readErr, io.EOF) || errors.Is(readErr, io.ErrUnexpectedEOF) {
			if segment == 0 && n == 0 {
				return errors.New("twitter media APPEND: empty media")
			}
			return nil
		}
		if readErr != nil {
			return fmt.Errorf("read staged media: %w", readErr)
		}
	}
}

func (c *Client) appendChunk(ctx context.Context, client *http.Client, endpoint, mediaID string, segment int, filename string, chunk []byte) error {
	var body bytes.Buffer
	w := multipart.NewWriter(&body)
	_ = w.WriteField("command", "APPEND")
	_ = w.WriteField("media_id", mediaID)
	_ = w.WriteField("segment_index", strconv.Itoa(segment))
	if filename == "" {
		filename = "media"
	}
	part, err := w.CreateFormFile("media", filename)
	if err != nil {
		return err
	}
	if _, err := part.Write(chunk); err != nil {
		return err
	}
	if err := w.Close(); err != nil {
		return err
	}
	return c.mediaCall(ctx, client, apiclient.Request{
		Operation:   "twitter media APPEND",
		Method:      http.MethodPost,
		URL:         endpoint,
		Body:        &body,
		ContentType: w.FormDataContentType(),
	}, nil)
}

func (c *Client) awaitProcessing(ctx context.Context, client *http.Client, endpoint, mediaID string, info *processingInfo) error {
	for info != nil {
		switch info.State {
		case "succeeded", "":
			return nil
		case "failed":
			msg := "processing failed"
			if info.Error != nil && info.Error.Message != "" {
				msg = info.Error.Message
			}
			return fmt.Errorf("twitter media %s: %s", mediaID, msg)
		}

		wait := time.Duration(info.CheckAfterSecs) * time.Second
		if wait <= 0 {
			wait = time.Second
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(wait):
		}

		params, _ := query.Values(commandParams{Command: "STATUS", MediaID: mediaID})
		var status mediaResponse
		if err := c.mediaCall(ctx, client, apiclient.Request{
			Operation: "twitter media STATUS",
			Method:    http.MethodGet,
			URL:       endpoint + "?" + params.Encode(),
		}, &status); err != nil {
			return err
		}
		info = status.ProcessingInfo
	}
	return nil
}

// mediaCall sends one upload request under its own deadline, nested in ctx.
func (c *Client) mediaCall(ctx context.Context, client *http.Client, req apiclient.Request, out interface{}) error {
	if c.callTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.callTimeout)
		defer cancel()
	}
	_, err := apiclient.DoJSON(ctx, client, req, out)
	return err
}
