package app

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"travel_genie/internal/domain"
)

// Failure texts stored as error-role messages.
const (
	msgUnavailable = "Unable to connect to the Travel Genie service. Please make sure the API server is running."
	msgTimeout     = "The Travel Genie service took too long to respond. Please try again."
	msgUnexpected  = "An unexpected error occurred"
)

// archiveTimeout bounds one best-effort archive write; Send makes two.
const archiveTimeout = 2 * time.Second

// lockSlack keeps the in-flight flag alive a little past the client timeout
// so a slow reply is never overtaken by a second send.
const lockSlack = 5 * time.Second

type ChatService struct {
	sessions domain.SessionStore
	client   domain.RecommendationClient
	archive  domain.TranscriptRepository // optional
	profiles domain.ProfileTable
	timeout  time.Duration

	now     func() time.Time
	newID   func() string
	observe func(structured bool)
}

type ChatOption func(*ChatService)

// WithArchive copies every completed turn to a transcript repository.
func WithArchive(r domain.TranscriptRepository) ChatOption {
	return func(s *ChatService) { s.archive = r }
}

// WithInterpretHook is called once per interpreted assistant message.
func WithInterpretHook(f func(structured bool)) ChatOption {
	return func(s *ChatService) { s.observe = f }
}

func WithClock(now func() time.Time) ChatOption {
	return func(s *ChatService) { s.now = now }
}

func NewChatService(ss domain.SessionStore, c domain.RecommendationClient, profiles domain.ProfileTable, timeout time.Duration, opts ...ChatOption) *ChatService {
	s := &ChatService{
		sessions: ss,
		client:   c,
		profiles: profiles,
		timeout:  timeout,
		now:      func() time.Time { return time.Now().UTC() },
		newID:    func() string { return uuid.NewString() },
		observe:  func(bool) {},
	}
	for _, o := range opts {
		o(s)
	}
	return s
}

// Turn is the pair of messages one Send appends.
type Turn struct {
	User  MessageView `json:"user"`
	Reply MessageView `json:"reply"`
}

// Send appends the user's query, asks the recommender once, and appends
// either its answer or an error message. Only one Send per session runs at
// a time; a concurrent call gets domain.ErrRequestInFlight. A failed
// upstream call is not an error of Send: it is recorded in the log.
func (s *ChatService) Send(ctx context.Context, sessionID, query string) (Turn, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return Turn{}, domain.ErrEmptyQuery
	}

	token := s.newID()
	ok, err := s.sessions.Begin(ctx, sessionID, token, s.timeout+lockSlack+2*archiveTimeout)
	if err != nil {
		return Turn{}, err
	}
	if !ok {
		return Turn{}, domain.ErrRequestInFlight
	}
	// the request runs to completion even if the caller goes away
	ctx = context.WithoutCancel(ctx)
	defer func() {
		if err := s.sessions.End(ctx, sessionID, token); err != nil {
			log.Warn().Err(err).Str("session", sessionID).Msg("release in-flight flag")
		}
	}()

	profileID, err := s.activeProfileID(ctx, sessionID)
	if err != nil {
		return Turn{}, err
	}

	user := s.message(sessionID, domain.RoleUser, query, profileID)
	if err := s.record(ctx, user); err != nil {
		return Turn{}, err
	}

	cctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()
	start := time.Now()
	rec, err := s.client.Recommend(cctx, query, profileID)

	var reply domain.Message
	if err != nil {
		log.Warn().Err(err).Str("session", sessionID).Str("profile", profileID).
			Dur("took", time.Since(start)).Msg("recommendation failed")
		reply = s.message(sessionID, domain.RoleError, failureText(err), profileID)
	} else {
		reply = s.message(sessionID, domain.RoleAssistant, rec.Text, profileID)
	}
	if err := s.record(ctx, reply); err != nil {
		return Turn{}, err
	}

	return Turn{User: s.view(user), Reply: s.view(reply)}, nil
}

// Clear returns the session to its initial state: no messages and the
// default profile. It is refused while a request is in flight.
func (s *ChatService) Clear(ctx context.Context, sessionID string) error {
	token := s.newID()
	ok, err := s.sessions.Begin(ctx, sessionID, token, lockSlack)
	if err != nil {
		return err
	}
	if !ok {
		return domain.ErrRequestInFlight
	}
	defer func() { _ = s.sessions.End(context.WithoutCancel(ctx), sessionID, token) }()
	return s.sessions.Reset(ctx, sessionID)
}

func (s *ChatService) SetProfile(ctx context.Context, sessionID, profileID string) (domain.Profile, error) {
	p, err := s.profiles.Lookup(profileID)
	if err != nil {
		return domain.Profile{}, fmt.Errorf("profile %q: %w", profileID, err)
	}
	if err := s.sessions.SetProfile(ctx, sessionID, profileID); err != nil {
		return domain.Profile{}, err
	}
	return p, nil
}

func (s *ChatService) ActiveProfile(ctx context.Context, sessionID string) (domain.Profile, error) {
	id, err := s.activeProfileID(ctx, sessionID)
	if err != nil {
		return domain.Profile{}, err
	}
	return s.profiles.Lookup(id)
}

func (s *ChatService) activeProfileID(ctx context.Context, sessionID string) (string, error) {
	id, err := s.sessions.Profile(ctx, sessionID)
	if err != nil {
		return "", err
	}
	if _, ok := s.profiles[id]; !ok {
		return domain.DefaultProfileID, nil
	}
	return id, nil
}

func (s *ChatService) message(sessionID string, role domain.Role, content, profileID string) domain.Message {
	return domain.Message{
		ID:        s.newID(),
		SessionID: sessionID,
		Role:      role,
		Content:   content,
		ProfileID: profileID,
		Timestamp: s.now(),
	}
}

// record appends to the live log; the archive copy is best effort.
func (s *ChatService) record(ctx context.Context, m domain.Message) error {
	if err := s.sessions.Append(ctx, m); err != nil {
		return fmt.Errorf("append %s message: %w", m.Role, err)
	}
	if s.archive != nil {
		actx, cancel := context.WithTimeout(ctx, archiveTimeout)
		defer cancel()
		if err := s.archive.SaveMessage(actx, m); err != nil {
			log.Warn().Err(err).Str("session", m.SessionID).Str("message", m.ID).Msg("archive message")
		}
	}
	return nil
}

func failureText(err error) string {
	var ue *domain.UpstreamError
	switch {
	case errors.As(err, &ue):
		return ue.Message
	case errors.Is(err, domain.ErrUpstreamUnavailable):
		return msgUnavailable
	case errors.Is(err, context.DeadlineExceeded):
		return msgTimeout
	}
	return msgUnexpected
}
