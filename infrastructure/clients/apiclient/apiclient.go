// Package apiclient holds the small JSON-over-HTTP helpers shared by provider clients.
package apiclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"social-relay/domain/model"
)

// maxErrorBody bounds how much of an upstream error body is kept for logs.
const maxErrorBody = 4 << 10

type Request struct {
	Operation string
	Method    string
	URL       string
	Header    http.Header
	// Body is sent as-is; JSON is marshalled when set and Body is nil.
	Body        io.Reader
	JSON        interface{}
	ContentType string
}

type Response struct {
	StatusCode int
	Header     http.Header
	Body       []byte
}

// Do sends req and returns a *model.UpstreamError for any non-2xx answer.
func Do(ctx context.Context, client *http.Client, req Request) (*Response, error) {
	body := req.Body
	contentType := req.ContentType
	if body == nil && req.JSON != nil {
		b, err := json.Marshal(req.JSON)
		if err != nil {
			return nil, fmt.Errorf("%s: encode body: %w", req.Operation, err)
		}
		body = bytes.NewReader(b)
		if contentType == "" {
			contentType = "application/json"
		}
	}

	httpReq, err := http.NewRequestWithContext(ctx, req.Method, req.URL, body)
	if err != nil {
		return nil, fmt.Errorf("%s: build request: %w", req.Operation, err)
	}
	for k, vs := range req.Header {
		for _, v := range vs {
			httpReq.Header.Add(k, v)
		}
	}
	if contentType != "" {
		httpReq.Header.Set("Content-Type", contentType)
	}
	if httpReq.Header.Get("Accept") == "" {
		httpReq.Header.Set("Accept", "application/json")
	}

	resp, err := client.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", req.Operation, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return nil, &model.UpstreamError{Operation: req.Operation, StatusCode: resp.StatusCode, Body: string(snippet)}
	}
	payload, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%s: read response: %w", req.Operation, err)
	}
	return &Response{StatusCode: resp.StatusCode, Header: resp.Header, Body: payload}, nil
}

// DoJSON is Do followed by decoding the body into out. An empty body leaves out untouched.
func DoJSON(ctx context.Context, client *http.Client, req Request, out interface{}) (*Response, error) {
	resp, err := Do(ctx, client, req)
	if err != nil {
		return nil, err
	}
	if out != nil && len(bytes.TrimSpace(resp.Body)) > 0 {
		if err := json.Unmarshal(resp.Body, out); err != nil {
			return resp, fmt.Errorf("%s: decode response: %w", req.Operation, err)
		}
	}
	return resp, nil
}
