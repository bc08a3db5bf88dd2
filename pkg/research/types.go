package research

import (
	"context"
	"io"

	"github.com/mikeboe/uniq-chat/pkg/session"
)

// Source is one search result gathered while executing a plan.
type Source struct {
	Title          string  `json:"title"`
	URL            string  `json:"url"`
	Content        string  `json:"content"`
	RelevanceScore float64 `json:"relevance_score"`
	SourceType     string  `json:"source_type"`
}

// PlanRequest is the body of a plan request.
type PlanRequest struct {
	Query string `json:"query"`
}

// PlanResponse is the backend's answer to a plan request.
type PlanResponse struct {
	Plan   session.ResearchPlan `json:"plan"`
	Query  string               `json:"query,omitempty"`
	Status string               `json:"status,omitempty"`
}

// ExecuteRequest is the body of an execute request.
type ExecuteRequest struct {
	Query string               `json:"query"`
	Plan  session.ResearchPlan `json:"plan"`
}

// ExecuteResponse is the backend's answer to an execute request.
type ExecuteResponse struct {
	Sources []Source `json:"sources"`
	Status  string   `json:"status,omitempty"`
}

// SynthesisRequest is the body of a streaming synthesis request.
type SynthesisRequest struct {
	Query         string               `json:"query"`
	Plan          session.ResearchPlan `json:"plan"`
	SearchResults []Source             `json:"search_results"`
}

// Backend performs the three research calls. Synthesize returns the raw
// streamed body; the caller closes it.
type Backend interface {
	Plan(ctx context.Context, query string) (session.ResearchPlan, error)
	Execute(ctx context.Context, query string, plan session.ResearchPlan) ([]Source, error)
	Synthesize(ctx context.Context, query string, plan session.ResearchPlan, sources []Source) (io.ReadCloser, error)
}
