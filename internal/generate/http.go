package generate

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strconv"
)

// maxResponseBytes caps how much of a generator reply is read.
const maxResponseBytes = 16 << 20

// HTTPBackend posts requests as multipart forms to an external generator
// service and returns its response body verbatim.
type HTTPBackend struct {
	URL    string
	Client *http.Client
}

// NewHTTPBackend creates a backend for the generator endpoint at url.
func NewHTTPBackend(url string) *HTTPBackend {
	return &HTTPBackend{URL: url, Client: &http.Client{}}
}

// Generate implements Backend.
func (b *HTTPBackend) Generate(ctx context.Context, req Request) (Output, error) {
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	for _, f := range req.Files {
		part, err := mw.CreateFormFile("files", f.Name)
		if err != nil {
			return Output{}, fmt.Errorf("build form: %w", err)
		}
		if _, err := part.Write(f.Data); err != nil {
			return Output{}, fmt.Errorf("build form: %w", err)
		}
	}
	fields := map[string]string{
		"quizType":      string(req.QuizType),
		"questionCount": strconv.Itoa(req.QuestionCount),
		"difficulty":    string(req.Difficulty),
	}
	for k, v := range fields {
		if err := mw.WriteField(k, v); err != nil {
			return Output{}, fmt.Errorf("build form: %w", err)
		}
	}
	if err := mw.Close(); err != nil {
		return Output{}, fmt.Errorf("build form: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, b.URL, &body)
	if err != nil {
		return Output{}, fmt.Errorf("create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", mw.FormDataContentType())
	httpReq.Header.Set("Accept", "application/json")

	client := b.Client
	if client == nil {
		client = http.DefaultClient
	}
	resp, err := client.Do(httpReq)
	if err != nil {
		return Output{Debug: map[string]any{"url": b.URL}}, err
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	out := Output{
		Payload: data,
		Debug: map[string]any{
			"url":          b.URL,
			"status":       resp.StatusCode,
			"content_type": resp.Header.Get("Content-Type"),
			"bytes":        len(data),
		},
	}
	if err != nil {
		return out, fmt.Errorf("read response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return out, fmt.Errorf("generator returned %s", resp.Status)
	}
	return out, nil
}
