package models

import (
	"errors"
	"log/slog"
	"strings"
	"time"
)

// SessionState is the planning conversation state for one day.
type SessionState string

const (
	StateIdle      SessionState = "idle"
	StateQuestions SessionState = "questions"
	StateFeedback  SessionState = "feedback"
	StateDone      SessionState = "done"
)

// Valid reports whether s is one of the known states.
func (s SessionState) Valid() bool {
	switch s {
	case StateIdle, StateQuestions, StateFeedback, StateDone:
		return true
	}
	return false
}

// MessageRole identifies who produced a conversation turn.
type MessageRole string

const (
	RoleSystem    MessageRole = "system"
	RoleUser      MessageRole = "user"
	RoleAssistant MessageRole = "assistant"
)

// Message is one turn in the session's conversation log.
type Message struct {
	Role      MessageRole `json:"role"`
	Content   string      `json:"content"`
	Timestamp time.Time   `json:"timestamp"`
}

// Constraint is a clarifying question with the user's answer.
type Constraint struct {
	Question string `json:"question"`
	Answer   string `json:"answer"`
}

// Session is one planning and execution cycle for a calendar date.
// The date string (YYYY-MM-DD) is its identity; there is at most one
// session per date.
type Session struct {
	Date          string       `json:"date"`
	State         SessionState `json:"state"`
	Goal          string       `json:"goal,omitempty"`
	Constraints   []Constraint `json:"constraints,omitempty"`
	Plan          *Plan        `json:"plan,omitempty"`
	Conversation  []Message    `json:"conversation,omitempty"`
	LLMCalls      int          `json:"llm_calls"`
	Revisions     int          `json:"revisions"`
	RevisionNotes []string     `json:"revision_notes,omitempty"`
	CreatedAt     time.Time    `json:"created_at"`
	LastUpdated   time.Time    `json:"last_updated"`
}

// DateLayout is the session identity key format.
const DateLayout = "2006-01-02"

// NewSession creates a fresh idle session for the given date.
func NewSession(date string) *Session {
	now := time.Now()
	return &Session{
		Date:        date,
		State:       StateIdle,
		CreatedAt:   now,
		LastUpdated: now,
	}
}

// Validate checks required fields and state sanity.
func (s *Session) Validate() error {
	if s.Date == "" {
		return errors.New("session date is required")
	}
	if _, err := time.Parse(DateLayout, s.Date); err != nil {
		return Validationf("invalid session date %q: expected YYYY-MM-DD", s.Date)
	}
	if !s.State.Valid() {
		return Validationf("unknown session state %q", s.State)
	}
	return nil
}

// Touch advances last_updated, never behind created_at.
func (s *Session) Touch() {
	now := time.Now()
	if now.Before(s.CreatedAt) {
		now = s.CreatedAt
	}
	s.LastUpdated = now
}

// RepairTimestamps fixes last_updated < created_at (corrupted clock on a
// previous run). Returns true when a repair was applied.
func (s *Session) RepairTimestamps() bool {
	if s.LastUpdated.Before(s.CreatedAt) {
		slog.Warn("repairing session timestamps",
			"date", s.Date,
			"created_at", s.CreatedAt,
			"last_updated", s.LastUpdated)
		s.LastUpdated = s.CreatedAt
		return true
	}
	return false
}

// SetGoal records the user's objective. The goal is immutable after the
// first non-empty write; later attempts are ignored.
func (s *Session) SetGoal(goal string) bool {
	goal = strings.TrimSpace(goal)
	if goal == "" || s.Goal != "" {
		return false
	}
	s.Goal = goal
	return true
}

// AddMessage appends a turn to the conversation log.
func (s *Session) AddMessage(role MessageRole, content string) {
	s.Conversation = append(s.Conversation, Message{
		Role:      role,
		Content:   content,
		Timestamp: time.Now(),
	})
}

// AddConstraint records an answered clarifying question.
func (s *Session) AddConstraint(question, answer string) {
	s.Constraints = append(s.Constraints, Constraint{Question: question, Answer: answer})
}

// SessionMetadata is the lightweight listing view of a session.
type SessionMetadata struct {
	Date           string       `json:"date"`
	State          SessionState `json:"state"`
	Goal           string       `json:"goal,omitempty"`
	Items          int          `json:"items"`
	Completed      int          `json:"completed"`
	CompletionRate float64      `json:"completion_rate"`
	CreatedAt      time.Time    `json:"created_at"`
	LastUpdated    time.Time    `json:"last_updated"`
}

// Metadata derives the listing view from a full session.
func (s *Session) Metadata() SessionMetadata {
	meta := SessionMetadata{
		Date:        s.Date,
		State:       s.State,
		Goal:        s.Goal,
		CreatedAt:   s.CreatedAt,
		LastUpdated: s.LastUpdated,
	}
	if s.Plan != nil {
		meta.Items = len(s.Plan.Schedule)
		meta.CompletionRate = s.Plan.CompletionRate()
		for _, item := range s.Plan.Schedule {
			if item.Status == StatusCompleted {
				meta.Completed++
			}
		}
	}
	return meta
}
