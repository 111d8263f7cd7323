package domain

import "time"

type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
	RoleError     Role = "error"
)

// Valid reports whether r is one of the three chat roles.
func (r Role) Valid() bool {
	switch r {
	case RoleUser, RoleAssistant, RoleError:
		return true
	}
	return false
}

// Message is one completed chat turn. It is created once and never mutated.
type Message struct {
	ID        string    `json:"id"`
	SessionID string    `json:"sessionId"`
	Role      Role      `json:"role"`
	Content   string    `json:"content"`
	ProfileID string    `json:"profileId,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

// Interpretable is true only for assistant messages; user and error
// entries are always shown verbatim.
func (m Message) Interpretable() bool { return m.Role == RoleAssistant }

// Recommendation is a successful upstream reply.
type Recommendation struct {
	Query     string
	ProfileID string
	Text      string
	Timestamp time.Time
}
