package clients

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"

	"github.com/mikeboe/uniq-chat/pkg/research"
	"github.com/mikeboe/uniq-chat/pkg/session"
)

// StatusError is returned when the proxy answers with a non-2xx status.
type StatusError struct {
	StatusCode int
	Body       []byte
}

func (e *StatusError) Error() string {
	body := strings.TrimSpace(string(e.Body))
	if body == "" {
		return fmt.Sprintf("request failed with status %d", e.StatusCode)
	}
	return fmt.Sprintf("request failed with status %d: %s", e.StatusCode, body)
}

// ProxyClient talks to the proxy server's /api routes.
type ProxyClient struct {
	BaseURL string
	HTTP    *http.Client
	// Token, when set, supplies a bearer token for each request.
	Token  func() string
	Logger *slog.Logger
}

func NewProxyClient(baseURL string) *ProxyClient {
	return &ProxyClient{
		BaseURL: strings.TrimRight(baseURL, "/"),
		HTTP:    &http.Client{},
		Logger:  slog.Default(),
	}
}

// post sends body as JSON and returns the response when the status is 2xx.
// The caller closes the body.
func (c *ProxyClient) post(ctx context.Context, path string, body any) (*http.Response, error) {
	payload, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request body: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.BaseURL+path, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("failed to create HTTP request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.Token != nil {
		if token := c.Token(); token != "" {
			req.Header.Set("Authorization", "Bearer "+token)
		}
	}

	resp, err := c.HTTP.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to make API request: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		defer resp.Body.Close()
		data, _ := io.ReadAll(resp.Body)
		c.Logger.Debug("Proxy returned error status", "path", path, "status", resp.StatusCode)
		return nil, &StatusError{StatusCode: resp.StatusCode, Body: data}
	}

	return resp, nil
}

func (c *ProxyClient) postJSON(ctx context.Context, path string, body, out any) error {
	resp, err := c.post(ctx, path, body)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}

// Chat asks a document question and returns the streamed answer body.
func (c *ProxyClient) Chat(ctx context.Context, question string) (io.ReadCloser, error) {
	resp, err := c.post(ctx, "/api/chat", map[string]string{"question": question})
	if err != nil {
		return nil, err
	}
	return resp.Body, nil
}

// Plan requests a research plan for query.
func (c *ProxyClient) Plan(ctx context.Context, query string) (session.ResearchPlan, error) {
	var out research.PlanResponse
	if err := c.postJSON(ctx, "/api/research/plan", research.PlanRequest{Query: query}, &out); err != nil {
		return session.ResearchPlan{}, err
	}
	return out.Plan.Normalized(), nil
}

// Execute runs plan and returns the gathered sources.
func (c *ProxyClient) Execute(ctx context.Context, query string, plan session.ResearchPlan) ([]research.Source, error) {
	var out research.ExecuteResponse
	if err := c.postJSON(ctx, "/api/research/execute", research.ExecuteRequest{Query: query, Plan: plan}, &out); err != nil {
		return nil, err
	}
	return out.Sources, nil
}

// Synthesize starts the synthesis stream.
func (c *ProxyClient) Synthesize(ctx context.Context, query string, plan session.ResearchPlan, sources []research.Source) (io.ReadCloser, error) {
	if sources == nil {
		sources = []research.Source{}
	}
	resp, err := c.post(ctx, "/api/research/stream", research.SynthesisRequest{
		Query:         query,
		Plan:          plan,
		SearchResults: sources,
	})
	if err != nil {
		return nil, err
	}
	return resp.Body, nil
}

// LoginRequest carries the credentials posted to /api/auth/login.
type LoginRequest struct {
	RollNo   string `json:"roll_no"`
	Password string `json:"password"`
}

// LoginResponse is the backend's answer to a successful login. Student is
// kept raw so the caller can persist it unchanged.
type LoginResponse struct {
	Token   string          `json:"token"`
	Student json.RawMessage `json:"student"`
}

// Login posts credentials. A non-2xx answer is returned as *StatusError.
func (c *ProxyClient) Login(ctx context.Context, rollNo, password string) (*LoginResponse, error) {
	var out LoginResponse
	if err := c.postJSON(ctx, "/api/auth/login", LoginRequest{RollNo: rollNo, Password: password}, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

var _ research.Backend = (*ProxyClient)(nil)
