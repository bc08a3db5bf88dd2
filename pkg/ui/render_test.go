package ui

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/mikeboe/uniq-chat/pkg/session"
	"github.com/mikeboe/uniq-chat/pkg/stream"
)

func newObserved() (*session.Session, *bytes.Buffer) {
	var out bytes.Buffer
	s := session.New()
	s.Observe(NewRenderer(&out).Handle)
	return s, &out
}

func TestRendererPrintsStreamDeltas(t *testing.T) {
	s, out := newObserved()

	s.Append(session.Message{Role: session.RoleUser, Content: "What is photosynthesis?"})
	s.Append(session.Message{Role: session.RoleBot})
	s.UpdateLast(session.TypePlain, "Photo")
	s.UpdateLast(session.TypePlain, "Photosynthesis is...")

	assert.NotContains(t, out.String(), "What is photosynthesis?")
	assert.Contains(t, out.String(), "Photosynthesis is...")
	assert.Equal(t, 1, strings.Count(out.String(), "Photo"))
}

func TestRendererPrintsMarkersOnOwnLine(t *testing.T) {
	tests := []struct {
		name   string
		marker string
	}{
		{"cancelled", stream.CancelledMarker},
		{"failed", stream.FailureMarker},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, out := newObserved()
			s.Append(session.Message{Role: session.RoleBot})
			s.UpdateLast(session.TypePlain, "partial")
			s.UpdateLast(session.TypePlain, tt.marker)

			assert.Contains(t, out.String(), "partial\n"+tt.marker)
		})
	}
}

func TestRendererShowsPhasesAndPlan(t *testing.T) {
	s, out := newObserved()

	s.SetPhase(session.PhasePlanning)
	s.Append(session.Message{
		Role: session.RoleBot,
		Type: session.TypeResearchPlan,
		Plan: &session.ResearchPlan{
			Objectives:    []string{"Map AI rules"},
			SearchQueries: []string{"EU AI Act 2024"},
		},
	})
	s.SetPhase(session.PhaseNone)

	got := out.String()
	assert.Contains(t, got, "Creating detailed research plan...")
	assert.Contains(t, got, "I've created a detailed research plan")
	assert.Contains(t, got, "1. Map AI rules")
	assert.Contains(t, got, "1. EU AI Act 2024")
	assert.Contains(t, got, "Analysis Framework:")
	assert.Contains(t, got, "(none)")
}

func TestPhaseStatus(t *testing.T) {
	assert.Equal(t, "Searching the web for relevant sources...", PhaseStatus(session.PhaseExecuting))
	assert.Equal(t, "Synthesizing research findings...", PhaseStatus(session.PhaseSynthesizing))
	assert.Empty(t, PhaseStatus(session.PhaseNone))
}

func TestRendererSynthesisHeading(t *testing.T) {
	s, out := newObserved()
	s.Append(session.Message{Role: session.RoleBot, Type: session.TypeSynthesis})
	s.UpdateLast(session.TypeSynthesis, "## Findings")

	assert.Contains(t, out.String(), "Research Synthesis")
	assert.Contains(t, out.String(), "## Findings")
}
