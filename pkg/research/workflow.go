package research

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/mikeboe/uniq-chat/pkg/session"
	"github.com/mikeboe/uniq-chat/pkg/stream"
)

// ErrNoPlan is returned when editing or executing without a pending plan.
var ErrNoPlan = errors.New("no research plan to act on")

// PlanIntro is the text of the message that carries a freshly generated plan.
const PlanIntro = "I've created a detailed research plan for your query. Please review it below."

// Workflow drives plan → execute → synthesize against a Backend, recording
// every step in the session.
type Workflow struct {
	Backend Backend
	Session *session.Session
	Logger  *slog.Logger
}

func NewWorkflow(backend Backend, sess *session.Session) *Workflow {
	return &Workflow{
		Backend: backend,
		Session: sess,
		Logger:  slog.Default(),
	}
}

// Start begins a new workflow for query and requests a plan. The plan, or an
// error message, is appended to the session. The phase is back to idle when
// Start returns.
func (w *Workflow) Start(ctx context.Context, query string) error {
	if err := w.Session.Begin(); err != nil {
		return err
	}
	defer w.Session.End()

	w.Session.StartWorkflow(query)
	w.Session.Append(session.Message{Role: session.RoleUser, Content: query})
	w.Session.SetPhase(session.PhasePlanning)
	defer w.Session.SetPhase(session.PhaseNone)

	w.Logger.Info("Requesting research plan", "query", query)
	plan, err := w.Backend.Plan(ctx, query)
	if err != nil {
		w.Logger.Error("Research plan failed", "error", err)
		w.Session.Append(session.Message{
			Role:    session.RoleBot,
			Content: fmt.Sprintf("⚠️ Failed to generate research plan: %v", err),
		})
		return fmt.Errorf("planning failed: %w", err)
	}

	plan = plan.Normalized()
	w.Session.Append(session.Message{
		Role:    session.RoleBot,
		Content: PlanIntro,
		Type:    session.TypeResearchPlan,
		Plan:    &plan,
	})
	w.Session.SetPlan(plan)
	return nil
}

// Edit replaces the pending plan with plan.
func (w *Workflow) Edit(plan session.ResearchPlan) error {
	if _, ok := w.Session.Plan(); !ok {
		return ErrNoPlan
	}
	w.Session.SetPlan(plan)
	return nil
}

// Execute runs the pending plan and streams the synthesis into a new
// synthesis message. Errors are recorded in the session and also returned.
func (w *Workflow) Execute(ctx context.Context) error {
	plan, ok := w.Session.Plan()
	if !ok {
		return ErrNoPlan
	}
	if err := w.Session.Begin(); err != nil {
		return err
	}
	defer w.Session.End()
	defer w.Session.SetPhase(session.PhaseNone)

	query := w.Session.WorkflowQuery()

	w.Session.SetPhase(session.PhaseExecuting)
	w.Logger.Info("Executing research plan", "query", query, "search_queries", len(plan.SearchQueries))
	sources, err := w.Backend.Execute(ctx, query, plan)
	if err != nil {
		w.Logger.Error("Research execution failed", "error", err)
		w.Session.Append(session.Message{
			Role:    session.RoleBot,
			Content: fmt.Sprintf("⚠️ Failed to execute research plan: %v", err),
		})
		return fmt.Errorf("execution failed: %w", err)
	}

	return w.synthesize(ctx, query, plan, sources)
}

func (w *Workflow) synthesize(ctx context.Context, query string, plan session.ResearchPlan, sources []Source) error {
	w.Session.SetPhase(session.PhaseSynthesizing)
	w.Logger.Info("Synthesizing research results", "sources", len(sources))

	body, err := w.Backend.Synthesize(ctx, query, plan, sources)
	if err != nil {
		w.Logger.Error("Research synthesis failed", "error", err)
		w.Session.Append(session.Message{
			Role:    session.RoleBot,
			Content: fmt.Sprintf("⚠️ Failed to synthesize research results: %v", err),
		})
		return fmt.Errorf("synthesis failed: %w", err)
	}
	defer body.Close()

	w.Session.Append(session.Message{Role: session.RoleBot, Type: session.TypeSynthesis})
	text, err := stream.Reduce(ctx, body, w.Session, session.TypeSynthesis)
	if err != nil {
		w.Logger.Error("Synthesis stream failed", "error", err)
		return fmt.Errorf("synthesis stream failed: %w", err)
	}

	w.Logger.Info("Synthesis complete", "length", len(text))
	return nil
}
