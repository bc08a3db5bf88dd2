// Package ui prints a chat session to a terminal as it changes.
package ui

import (
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/charmbracelet/lipgloss"

	"github.com/mikeboe/uniq-chat/pkg/research"
	"github.com/mikeboe/uniq-chat/pkg/session"
	"github.com/mikeboe/uniq-chat/pkg/stream"
)

var (
	botStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#A78BFA")).
			Bold(true)

	statusStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#94A3B8")).
			Italic(true)

	headingStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#22D3EE")).
			Bold(true)

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#F87171"))

	planBoxStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("#22D3EE")).
			Padding(0, 1)
)

// PhaseStatus is the progress line shown while a research phase runs.
func PhaseStatus(p session.Phase) string {
	switch p {
	case session.PhasePlanning:
		return "Creating detailed research plan..."
	case session.PhaseExecuting:
		return "Searching the web for relevant sources..."
	case session.PhaseSynthesizing:
		return "Synthesizing research findings..."
	}
	return ""
}

// FormatPlan lays out the four plan sections as numbered lists.
func FormatPlan(plan session.ResearchPlan) string {
	sections := []struct {
		title string
		items []string
	}{
		{"Objectives", plan.Objectives},
		{"Search Queries", plan.SearchQueries},
		{"Sources", plan.Sources},
		{"Analysis Framework", plan.AnalysisFramework},
	}

	var b strings.Builder
	b.WriteString(headingStyle.Render("Research Plan"))
	for _, s := range sections {
		b.WriteString("\n\n")
		b.WriteString(headingStyle.Render(s.title + ":"))
		if len(s.items) == 0 {
			b.WriteString("\n  " + statusStyle.Render("(none)"))
			continue
		}
		for i, item := range s.items {
			fmt.Fprintf(&b, "\n  %d. %s", i+1, item)
		}
	}
	return planBoxStyle.Render(b.String())
}

// Renderer writes session events to Out. Streamed content is printed as
// deltas; a message whose content is replaced outright (a cancel or failure
// marker) is printed on its own line.
type Renderer struct {
	Out io.Writer

	mu      sync.Mutex
	index   int
	printed string
	open    bool
}

func NewRenderer(out io.Writer) *Renderer {
	return &Renderer{Out: out, index: -1}
}

// Handle is a session observer.
func (r *Renderer) Handle(ev session.Event) {
	r.mu.Lock()
	defer r.mu.Unlock()

	switch ev.Kind {
	case session.EventAppended:
		r.closeLine()
		r.appended(ev.Index, ev.Message)
	case session.EventUpdated:
		r.updated(ev.Index, ev.Message)
	case session.EventPhaseChanged:
		if status := PhaseStatus(ev.Phase); status != "" {
			r.closeLine()
			fmt.Fprintln(r.Out, statusStyle.Render(status))
		}
	case session.EventFlightChanged:
		if !ev.InFlight {
			r.closeLine()
		}
	}
}

func (r *Renderer) appended(idx int, msg session.Message) {
	if msg.Role == session.RoleUser {
		return
	}

	switch msg.Type {
	case session.TypeResearchPlan:
		fmt.Fprintln(r.Out, botStyle.Render("bot>")+" "+research.PlanIntro)
		if msg.Plan != nil {
			fmt.Fprintln(r.Out, FormatPlan(*msg.Plan))
		}
		fmt.Fprintln(r.Out, statusStyle.Render("Use /edit to change the plan or /execute to run it."))
		return
	case session.TypeSynthesis:
		fmt.Fprintln(r.Out, headingStyle.Render("Research Synthesis"))
	}

	if msg.Content != "" && strings.HasPrefix(msg.Content, "⚠️") {
		fmt.Fprintln(r.Out, botStyle.Render("bot>")+" "+errorStyle.Render(msg.Content))
		return
	}

	fmt.Fprint(r.Out, botStyle.Render("bot>")+" "+msg.Content)
	r.index = idx
	r.printed = msg.Content
	r.open = true
}

func (r *Renderer) updated(idx int, msg session.Message) {
	if idx != r.index {
		return
	}

	switch {
	case strings.HasPrefix(msg.Content, r.printed) && !isMarker(msg.Content):
		fmt.Fprint(r.Out, msg.Content[len(r.printed):])
	case msg.Content == stream.CancelledMarker:
		r.closeLine()
		fmt.Fprintln(r.Out, statusStyle.Render(msg.Content))
	default:
		r.closeLine()
		fmt.Fprintln(r.Out, errorStyle.Render(msg.Content))
	}
	r.printed = msg.Content
	r.open = !isMarker(msg.Content)
	if !r.open {
		r.index = -1
	}
}

func (r *Renderer) closeLine() {
	if r.open {
		fmt.Fprintln(r.Out)
		r.open = false
	}
}

func isMarker(content string) bool {
	return content == stream.CancelledMarker || content == stream.FailureMarker
}
