package server

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
)

// Forwarder relays requests to the research backend.
type Forwarder struct {
	BackendURL string
	HTTP       *http.Client
	Logger     *slog.Logger
}

func NewForwarder(backendURL string) *Forwarder {
	return &Forwarder{
		BackendURL: strings.TrimRight(backendURL, "/"),
		HTTP:       &http.Client{},
		Logger:     slog.Default(),
	}
}

// Forward POSTs body unchanged to path on the backend. Content-Type and
// Authorization are copied from header. The caller owns the response body.
func (f *Forwarder) Forward(ctx context.Context, path string, body []byte, header http.Header) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, f.BackendURL+path, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to build backend request: %w", err)
	}

	contentType := header.Get("Content-Type")
	if contentType == "" {
		contentType = "application/json"
	}
	req.Header.Set("Content-Type", contentType)
	if auth := header.Get("Authorization"); auth != "" {
		req.Header.Set("Authorization", auth)
	}

	resp, err := f.HTTP.Do(req)
	if err != nil {
		return nil, fmt.Errorf("backend %s unreachable: %w", path, err)
	}

	f.Logger.DebugContext(ctx, "Backend responded", "path", path, "status", resp.StatusCode)
	return resp, nil
}
