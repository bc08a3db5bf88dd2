package session

import (
	"encoding/json"
	"fmt"
)

type Role string

const (
	RoleUser Role = "user"
	RoleBot  Role = "bot"
)

type MessageType string

const (
	TypePlain        MessageType = ""
	TypeResearchPlan MessageType = "research_plan"
	TypeSynthesis    MessageType = "synthesis"
)

// Message is one entry of the conversation. Plan is only set on
// research_plan messages.
type Message struct {
	ID      string        `json:"id"`
	Role    Role          `json:"role"`
	Content string        `json:"content"`
	Type    MessageType   `json:"type,omitempty"`
	Plan    *ResearchPlan `json:"plan,omitempty"`
}

// Phase is the active step of a research workflow.
type Phase string

const (
	PhaseNone         Phase = ""
	PhasePlanning     Phase = "planning"
	PhaseExecuting    Phase = "executing"
	PhaseSynthesizing Phase = "synthesizing"
)

func (p Phase) String() string {
	if p == PhaseNone {
		return "idle"
	}
	return string(p)
}

// ResearchPlan describes how a research query will be carried out.
type ResearchPlan struct {
	Objectives        []string `json:"objectives"`
	SearchQueries     []string `json:"search_queries"`
	Sources           []string `json:"sources"`
	AnalysisFramework []string `json:"analysis_framework"`
}

// UnmarshalJSON accepts loosely shaped plans: a field that is missing,
// null or not a list of strings decodes to an empty list.
func (p *ResearchPlan) UnmarshalJSON(data []byte) error {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("research plan must be an object: %w", err)
	}
	*p = ResearchPlan{
		Objectives:        stringList(raw["objectives"]),
		SearchQueries:     stringList(raw["search_queries"]),
		Sources:           stringList(raw["sources"]),
		AnalysisFramework: stringList(raw["analysis_framework"]),
	}
	return nil
}

// Normalized returns a copy with every nil list replaced by an empty one.
func (p ResearchPlan) Normalized() ResearchPlan {
	return ResearchPlan{
		Objectives:        nonNil(p.Objectives),
		SearchQueries:     nonNil(p.SearchQueries),
		Sources:           nonNil(p.Sources),
		AnalysisFramework: nonNil(p.AnalysisFramework),
	}
}

func stringList(raw json.RawMessage) []string {
	if len(raw) == 0 {
		return []string{}
	}
	var items []any
	if err := json.Unmarshal(raw, &items); err != nil {
		return []string{}
	}
	out := make([]string, 0, len(items))
	for _, item := range items {
		switch v := item.(type) {
		case string:
			out = append(out, v)
		case nil:
		default:
			out = append(out, fmt.Sprint(v))
		}
	}
	return out
}

func nonNil(in []string) []string {
	out := make([]string, len(in))
	copy(out, in)
	return out
}
