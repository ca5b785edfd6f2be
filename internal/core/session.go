package core

import "errors"

// ErrNoPendingTurn is returned when an assistant reply is appended without an
// unanswered user turn to attach it to.
var ErrNoPendingTurn = errors.New("session: no pending user turn")

// ErrTurnInFlight is returned when a user turn is appended while the previous
// one is still unanswered. One turn is resolved fully before the next starts.
var ErrTurnInFlight = errors.New("session: previous turn not answered yet")

// Role identifies the author of a turn.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Turn is one message in a conversation.
type Turn struct {
	Role    Role   `json:"role"`
	Content string `json:"content"`
}

// Session is the append-only log of one conversation. It is the single
// source of truth for "does this turn still need an answer": at most one
// unanswered user turn exists at any time. A Session is owned by one client
// interaction and is not safe for concurrent use; the owner serialises
// access.
type Session struct {
	turns []Turn
}

// NewSession returns an empty session.
func NewSession() *Session { return &Session{} }

// AppendUser records a user turn. It fails if the previous user turn has not
// been answered yet.
func (s *Session) AppendUser(text string) error {
	if s.hasPending() {
		return ErrTurnInFlight
	}
	s.turns = append(s.turns, Turn{Role: RoleUser, Content: text})
	return nil
}

// hasPending reports whether the most recent turn is an unanswered user
// turn. Pending-ness follows the role of the last turn, never its content,
// so an empty user message still counts as awaiting an answer.
func (s *Session) hasPending() bool {
	return len(s.turns) > 0 && s.turns[len(s.turns)-1].Role == RoleUser
}

// Pending returns the content of the most recent user turn if it has no
// assistant reply yet, and "" otherwise.
func (s *Session) Pending() string {
	if !s.hasPending() {
		return ""
	}
	return s.turns[len(s.turns)-1].Content
}

// AppendAssistant records the reply to the pending user turn. Calling it
// without a pending turn is a caller error.
func (s *Session) AppendAssistant(text string) error {
	if !s.hasPending() {
		return ErrNoPendingTurn
	}
	s.turns = append(s.turns, Turn{Role: RoleAssistant, Content: text})
	return nil
}

// Turns returns a copy of the conversation log in order.
func (s *Session) Turns() []Turn {
	out := make([]Turn, len(s.turns))
	copy(out, s.turns)
	return out
}
