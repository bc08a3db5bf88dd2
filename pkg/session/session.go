// Package session holds the in-memory state of one chat session and is the
// only place that state is mutated.
package session

import (
	"errors"
	"sync"

	"github.com/google/uuid"
)

// ErrBusy is returned by Begin while another request is in flight.
var ErrBusy = errors.New("a request is already in flight")

// EventKind identifies what changed in the session.
type EventKind int

const (
	EventAppended EventKind = iota
	EventUpdated
	EventPhaseChanged
	EventFlightChanged
)

// Event is published to observers after every mutation. Message is a copy of
// the affected message for EventAppended and EventUpdated.
type Event struct {
	Kind     EventKind
	Index    int
	Message  Message
	Phase    Phase
	InFlight bool
}

// Session is the conversation state. All methods are safe for concurrent use.
type Session struct {
	mu            sync.Mutex
	messages      []Message
	phase         Phase
	plan          *ResearchPlan
	workflowQuery string
	inFlight      bool
	observers     []func(Event)
}

func New() *Session {
	return &Session{}
}

// Observe registers fn to be called after each mutation. Observers run
// synchronously, in mutation order, outside the session lock.
func (s *Session) Observe(fn func(Event)) {
	s.mu.Lock()
	s.observers = append(s.observers, fn)
	s.mu.Unlock()
}

func (s *Session) publish(ev Event) {
	s.mu.Lock()
	observers := append([]func(Event){}, s.observers...)
	s.mu.Unlock()
	for _, fn := range observers {
		fn(ev)
	}
}

// Begin marks a request as in flight, failing with ErrBusy if one already is.
func (s *Session) Begin() error {
	s.mu.Lock()
	if s.inFlight {
		s.mu.Unlock()
		return ErrBusy
	}
	s.inFlight = true
	s.mu.Unlock()

	s.publish(Event{Kind: EventFlightChanged, InFlight: true})
	return nil
}

// End clears the in-flight flag.
func (s *Session) End() {
	s.mu.Lock()
	s.inFlight = false
	s.mu.Unlock()

	s.publish(Event{Kind: EventFlightChanged, InFlight: false})
}

func (s *Session) InFlight() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.inFlight
}

// Append adds msg to the end of the conversation, assigning an ID if it has
// none, and returns the stored copy.
func (s *Session) Append(msg Message) Message {
	if msg.ID == "" {
		msg.ID = uuid.NewString()
	}
	if msg.Plan != nil {
		p := msg.Plan.Normalized()
		msg.Plan = &p
	}

	s.mu.Lock()
	s.messages = append(s.messages, msg)
	idx := len(s.messages) - 1
	s.mu.Unlock()

	s.publish(Event{Kind: EventAppended, Index: idx, Message: msg})
	return msg
}

// UpdateLast sets the content of the last message, but only when it is a bot
// message of the given type. It reports whether an update happened.
func (s *Session) UpdateLast(typ MessageType, content string) bool {
	s.mu.Lock()
	idx := len(s.messages) - 1
	if idx < 0 || s.messages[idx].Role != RoleBot || s.messages[idx].Type != typ {
		s.mu.Unlock()
		return false
	}
	s.messages[idx].Content = content
	msg := s.messages[idx]
	s.mu.Unlock()

	s.publish(Event{Kind: EventUpdated, Index: idx, Message: msg})
	return true
}

// SetPhase changes the active research phase.
func (s *Session) SetPhase(p Phase) {
	s.mu.Lock()
	changed := s.phase != p
	s.phase = p
	s.mu.Unlock()

	if changed {
		s.publish(Event{Kind: EventPhaseChanged, Phase: p})
	}
}

func (s *Session) Phase() Phase {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.phase
}

// StartWorkflow records the query that begins a research workflow and drops
// any plan left over from a previous one.
func (s *Session) StartWorkflow(query string) {
	s.mu.Lock()
	s.workflowQuery = query
	s.plan = nil
	s.mu.Unlock()
}

func (s *Session) WorkflowQuery() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.workflowQuery
}

// SetPlan stores plan as the current plan. The latest research_plan message,
// if any, is given the same plan. The plan is replaced wholesale.
func (s *Session) SetPlan(plan ResearchPlan) {
	p := plan.Normalized()

	s.mu.Lock()
	s.plan = &p
	idx := -1
	for i := len(s.messages) - 1; i >= 0; i-- {
		if s.messages[i].Type == TypeResearchPlan {
			mp := p.Normalized()
			s.messages[i].Plan = &mp
			idx = i
			break
		}
	}
	var msg Message
	if idx >= 0 {
		msg = s.messages[idx]
	}
	s.mu.Unlock()

	if idx >= 0 {
		s.publish(Event{Kind: EventUpdated, Index: idx, Message: msg})
	}
}

// Plan returns a copy of the current plan.
func (s *Session) Plan() (ResearchPlan, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.plan == nil {
		return ResearchPlan{}, false
	}
	return s.plan.Normalized(), true
}

// ClearResearch resets the phase, the pending plan and the workflow query.
func (s *Session) ClearResearch() {
	s.mu.Lock()
	s.plan = nil
	s.workflowQuery = ""
	s.mu.Unlock()
	s.SetPhase(PhaseNone)
}

// Messages returns a copy of the conversation.
func (s *Session) Messages() []Message {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Message, len(s.messages))
	copy(out, s.messages)
	return out
}

// Last returns the last message, if any.
func (s *Session) Last() (Message, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.messages) == 0 {
		return Message{}, false
	}
	return s.messages[len(s.messages)-1], true
}
