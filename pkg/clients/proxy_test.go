package clients

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mikeboe/uniq-chat/pkg/research"
	"github.com/mikeboe/uniq-chat/pkg/session"
)

func TestPlanDecodesLoosePlan(t *testing.T) {
	var gotQuery string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/research/plan", r.URL.Path)
		var req research.PlanRequest
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		gotQuery = req.Query
		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, `{"plan":{"objectives":["o"],"sources":"bad"},"status":"success"}`)
	}))
	defer srv.Close()

	c := NewProxyClient(srv.URL)
	plan, err := c.Plan(context.Background(), "AI regulation trends")
	require.NoError(t, err)

	assert.Equal(t, "AI regulation trends", gotQuery)
	assert.Equal(t, []string{"o"}, plan.Objectives)
	assert.Equal(t, []string{}, plan.Sources)
	assert.Equal(t, []string{}, plan.SearchQueries)
}

func TestExecuteSendsQueryAndPlan(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req research.ExecuteRequest
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "q", req.Query)
		assert.Equal(t, []string{"s1"}, req.Plan.SearchQueries)
		_, _ = io.WriteString(w, `{"sources":[{"title":"T","url":"https://u","content":"c","relevance_score":0.5,"source_type":"u"}]}`)
	}))
	defer srv.Close()

	sources, err := NewProxyClient(srv.URL).Execute(context.Background(), "q", session.ResearchPlan{SearchQueries: []string{"s1"}})
	require.NoError(t, err)
	require.Len(t, sources, 1)
	assert.Equal(t, "T", sources[0].Title)
	assert.Equal(t, 0.5, sources[0].RelevanceScore)
}

func TestNonSuccessStatusIsStatusError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = io.WriteString(w, `{"detail":"Invalid roll number or password"}`)
	}))
	defer srv.Close()

	_, err := NewProxyClient(srv.URL).Login(context.Background(), "21CS001", "wrong")
	var statusErr *StatusError
	require.ErrorAs(t, err, &statusErr)
	assert.Equal(t, http.StatusUnauthorized, statusErr.StatusCode)
	assert.JSONEq(t, `{"detail":"Invalid roll number or password"}`, string(statusErr.Body))
}

func TestChatStreamsBodyAndSendsToken(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer tok", r.Header.Get("Authorization"))
		var req map[string]string
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "What is photosynthesis?", req["question"])
		_, _ = io.WriteString(w, "Photosynthesis is...")
	}))
	defer srv.Close()

	c := NewProxyClient(srv.URL)
	c.Token = func() string { return "tok" }

	body, err := c.Chat(context.Background(), "What is photosynthesis?")
	require.NoError(t, err)
	defer body.Close()

	data, err := io.ReadAll(body)
	require.NoError(t, err)
	assert.Equal(t, "Photosynthesis is...", string(data))
}

func TestSynthesizeSendsEmptySourceList(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var raw map[string]json.RawMessage
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&raw))
		assert.JSONEq(t, `[]`, string(raw["search_results"]))
		_, _ = io.WriteString(w, "done")
	}))
	defer srv.Close()

	body, err := NewProxyClient(srv.URL).Synthesize(context.Background(), "q", session.ResearchPlan{}.Normalized(), nil)
	require.NoError(t, err)
	body.Close()
}

func TestStatusErrorMessage(t *testing.T) {
	assert.Equal(t, "request failed with status 500", (&StatusError{StatusCode: 500}).Error())
	assert.Equal(t, "request failed with status 502: bad gateway", (&StatusError{StatusCode: 502, Body: []byte("bad gateway\n")}).Error())
}
