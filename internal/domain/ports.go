package domain

import (
	"context"
	"time"
)

// RecommendationClient talks to the upstream recommender.
type RecommendationClient interface {
	Recommend(ctx context.Context, query, profileID string) (Recommendation, error)
	// UserProfile returns the upstream view of a profile as-is.
	UserProfile(ctx context.Context, profileID string) (map[string]any, error)
	Health(ctx context.Context) bool
}

// SessionStore owns the live chat state of every session.
type SessionStore interface {
	// Message log (append-only until Reset)
	Append(ctx context.Context, m Message) error
	Messages(ctx context.Context, sessionID string) ([]Message, error)
	Reset(ctx context.Context, sessionID string) error

	// In-flight flag; Begin returns false when a request is already running.
	// End releases the flag only while it still holds token.
	Begin(ctx context.Context, sessionID, token string, ttl time.Duration) (bool, error)
	End(ctx context.Context, sessionID, token string) error

	// Active profile
	SetProfile(ctx context.Context, sessionID, profileID string) error
	Profile(ctx context.Context, sessionID string) (string, error)
}

// TranscriptRepository is the durable archive of chat turns.
type TranscriptRepository interface {
	SaveMessage(ctx context.Context, m Message) error
	ListSession(ctx context.Context, sessionID string, limit int) ([]Message, error)
	ListByRole(ctx context.Context, role Role, q ArchiveQuery) (ArchivePage, error)
}

type ArchiveQuery struct {
	Limit    int
	AfterSeq int64
}

type ArchivedMessage struct {
	Seq int64
	Message
}

type ArchivePage struct {
	Items   []ArchivedMessage
	NextSeq *int64
}
