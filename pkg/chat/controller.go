// Package chat owns a conversation: it dispatches user input to the regular
// document pipeline or the research workflow and keeps the single
// cancellation handle for regular queries.
package chat

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"sync"

	"github.com/mikeboe/uniq-chat/pkg/research"
	"github.com/mikeboe/uniq-chat/pkg/session"
	"github.com/mikeboe/uniq-chat/pkg/stream"
)

// ErrEmptyInput is returned by Send for blank input.
var ErrEmptyInput = errors.New("message is empty")

// Asker streams an answer to a document question.
type Asker interface {
	Chat(ctx context.Context, question string) (io.ReadCloser, error)
}

// Controller is the only writer of its session.
type Controller struct {
	Session  *session.Session
	Asker    Asker
	Workflow *research.Workflow
	Logger   *slog.Logger

	mu           sync.Mutex
	researchMode bool
	cancel       context.CancelFunc
}

func NewController(asker Asker, backend research.Backend) *Controller {
	sess := session.New()
	return &Controller{
		Session:  sess,
		Asker:    asker,
		Workflow: research.NewWorkflow(backend, sess),
		Logger:   slog.Default(),
	}
}

// ResearchMode reports whether new input starts a research workflow.
func (c *Controller) ResearchMode() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.researchMode
}

// ToggleResearchMode flips the mode, dropping any pending plan, and returns
// the new mode.
func (c *Controller) ToggleResearchMode() bool {
	c.mu.Lock()
	c.researchMode = !c.researchMode
	mode := c.researchMode
	c.mu.Unlock()

	c.Session.ClearResearch()
	return mode
}

// Send handles one line of user input. In research mode it requests a plan;
// otherwise it streams an answer into a new bot message.
func (c *Controller) Send(ctx context.Context, input string) error {
	text := strings.TrimSpace(input)
	if text == "" {
		return ErrEmptyInput
	}

	if c.ResearchMode() {
		return c.Workflow.Start(ctx, text)
	}
	return c.ask(ctx, text)
}

func (c *Controller) ask(ctx context.Context, question string) error {
	if err := c.Session.Begin(); err != nil {
		return err
	}
	defer c.Session.End()

	ctx, cancel := context.WithCancel(ctx)
	c.mu.Lock()
	c.cancel = cancel
	c.mu.Unlock()
	defer func() {
		c.mu.Lock()
		c.cancel = nil
		c.mu.Unlock()
		cancel()
	}()

	c.Session.Append(session.Message{Role: session.RoleUser, Content: question})
	c.Session.Append(session.Message{Role: session.RoleBot})

	c.Logger.Info("Asking document question", "question_len", len(question))
	body, err := c.Asker.Chat(ctx, question)
	if err != nil {
		stream.Fail(ctx, c.Session, session.TypePlain, err)
		c.Logger.Error("Chat request failed", "error", err)
		return fmt.Errorf("chat request failed: %w", err)
	}
	defer body.Close()

	if _, err := stream.Reduce(ctx, body, c.Session, session.TypePlain); err != nil {
		c.Logger.Warn("Chat stream ended early", "error", err)
		return err
	}
	return nil
}

// Cancel aborts the in-flight regular query. It reports whether there was
// one to cancel. Research requests are not cancellable.
func (c *Controller) Cancel() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.cancel == nil {
		return false
	}
	c.cancel()
	c.cancel = nil
	return true
}

// EditPlan replaces the pending research plan.
func (c *Controller) EditPlan(plan session.ResearchPlan) error {
	return c.Workflow.Edit(plan)
}

// ExecutePlan runs the pending research plan through synthesis.
func (c *Controller) ExecutePlan(ctx context.Context) error {
	return c.Workflow.Execute(ctx)
}
