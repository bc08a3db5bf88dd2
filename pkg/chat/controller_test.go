package chat

import (
	"context"
	"errors"
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mikeboe/uniq-chat/pkg/research"
	"github.com/mikeboe/uniq-chat/pkg/session"
	"github.com/mikeboe/uniq-chat/pkg/stream"
)

type fakeAsker struct {
	questions []string
	body      func(ctx context.Context) io.Reader
	err       error
}

func (f *fakeAsker) Chat(ctx context.Context, question string) (io.ReadCloser, error) {
	f.questions = append(f.questions, question)
	if f.err != nil {
		return nil, f.err
	}
	return io.NopCloser(f.body(ctx)), nil
}

type fakeBackend struct {
	queries []string
	plan    session.ResearchPlan
}

func (f *fakeBackend) Plan(ctx context.Context, query string) (session.ResearchPlan, error) {
	f.queries = append(f.queries, query)
	return f.plan, nil
}

func (f *fakeBackend) Execute(ctx context.Context, query string, plan session.ResearchPlan) ([]research.Source, error) {
	return nil, nil
}

func (f *fakeBackend) Synthesize(ctx context.Context, query string, plan session.ResearchPlan, sources []research.Source) (io.ReadCloser, error) {
	return io.NopCloser(strings.NewReader("")), nil
}

// pieces yields one string per Read.
type pieces struct {
	parts []string
	hook  func(i int)
	i     int
}

func (p *pieces) Read(b []byte) (int, error) {
	if p.hook != nil {
		p.hook(p.i)
	}
	if p.i >= len(p.parts) {
		return 0, io.EOF
	}
	n := copy(b, p.parts[p.i])
	p.i++
	return n, nil
}

func TestSendDocumentQuestionStreamsAnswer(t *testing.T) {
	asker := &fakeAsker{body: func(context.Context) io.Reader {
		return &pieces{parts: []string{"Photo", "synthesis is..."}}
	}}
	c := NewController(asker, &fakeBackend{})

	require.NoError(t, c.Send(context.Background(), "  What is photosynthesis?  "))

	assert.Equal(t, []string{"What is photosynthesis?"}, asker.questions)
	msgs := c.Session.Messages()
	require.Len(t, msgs, 2)
	assert.Equal(t, session.RoleUser, msgs[0].Role)
	assert.Equal(t, "What is photosynthesis?", msgs[0].Content)
	assert.Equal(t, session.RoleBot, msgs[1].Role)
	assert.Equal(t, "Photosynthesis is...", msgs[1].Content)
	assert.False(t, c.Session.InFlight())
}

func TestSendRejectsEmptyInput(t *testing.T) {
	c := NewController(&fakeAsker{}, &fakeBackend{})
	assert.ErrorIs(t, c.Send(context.Background(), "   "), ErrEmptyInput)
	assert.Empty(t, c.Session.Messages())
}

func TestSendRejectedWhileBusy(t *testing.T) {
	asker := &fakeAsker{}
	c := NewController(asker, &fakeBackend{})
	require.NoError(t, c.Session.Begin())

	assert.ErrorIs(t, c.Send(context.Background(), "hello"), session.ErrBusy)
	assert.Empty(t, asker.questions)
}

func TestCancelMidStreamShowsMarker(t *testing.T) {
	var c *Controller
	asker := &fakeAsker{body: func(context.Context) io.Reader {
		return &pieces{
			parts: []string{"partial", " answer", " more"},
			hook: func(i int) {
				if i == 2 {
					assert.True(t, c.Cancel())
				}
			},
		}
	}}
	c = NewController(asker, &fakeBackend{})

	err := c.Send(context.Background(), "q")
	assert.ErrorIs(t, err, context.Canceled)

	last, _ := c.Session.Last()
	assert.Equal(t, stream.CancelledMarker, last.Content)
	assert.False(t, c.Cancel(), "nothing left to cancel")
}

func TestRequestFailureShowsFailureMarker(t *testing.T) {
	c := NewController(&fakeAsker{err: errors.New("connection refused")}, &fakeBackend{})

	require.Error(t, c.Send(context.Background(), "q"))
	last, _ := c.Session.Last()
	assert.Equal(t, session.RoleBot, last.Role)
	assert.Equal(t, stream.FailureMarker, last.Content)
	assert.False(t, c.Session.InFlight())
}

func TestResearchModeRequestsPlan(t *testing.T) {
	backend := &fakeBackend{plan: session.ResearchPlan{
		Objectives:        []string{"o"},
		SearchQueries:     []string{"q"},
		Sources:           []string{"s"},
		AnalysisFramework: []string{"a"},
	}}
	asker := &fakeAsker{}
	c := NewController(asker, backend)

	assert.True(t, c.ToggleResearchMode())
	require.NoError(t, c.Send(context.Background(), "AI regulation trends"))

	assert.Equal(t, []string{"AI regulation trends"}, backend.queries)
	assert.Empty(t, asker.questions)

	last, _ := c.Session.Last()
	assert.Equal(t, session.TypeResearchPlan, last.Type)
	require.NotNil(t, last.Plan)
	assert.Equal(t, []string{"o"}, last.Plan.Objectives)
	assert.Equal(t, []string{"q"}, last.Plan.SearchQueries)
	assert.Equal(t, []string{"s"}, last.Plan.Sources)
	assert.Equal(t, []string{"a"}, last.Plan.AnalysisFramework)
}

func TestToggleResearchModeClearsPlan(t *testing.T) {
	c := NewController(&fakeAsker{}, &fakeBackend{plan: session.ResearchPlan{Objectives: []string{"o"}}})
	c.ToggleResearchMode()
	require.NoError(t, c.Send(context.Background(), "topic"))

	assert.False(t, c.ToggleResearchMode())
	_, ok := c.Session.Plan()
	assert.False(t, ok)
	assert.ErrorIs(t, c.ExecutePlan(context.Background()), research.ErrNoPlan)
}
