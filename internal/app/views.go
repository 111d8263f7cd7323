package app

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"github.com/rs/zerolog/log"
	"github.com/samber/lo"

	"travel_genie/internal/domain"
	"travel_genie/internal/interpreter"
	"travel_genie/internal/presentation"
)

// MessageView is a stored message plus, for assistant messages only, what
// the interpreter recovered from it and how it renders.
type MessageView struct {
	domain.Message
	Sections *domain.ParsedSections `json:"sections,omitempty"`
	View     *presentation.View     `json:"view,omitempty"`
}

// Rendering is the output of an ad-hoc interpretation.
type Rendering struct {
	Sections domain.ParsedSections `json:"sections"`
	View     presentation.View     `json:"view"`
}

// ProfileDetail is a built-in profile plus the upstream's own view of it
// when the upstream could be reached.
type ProfileDetail struct {
	domain.Profile
	Upstream map[string]any `json:"upstream,omitempty"`
}

// History returns the session log in order. Sections are recomputed on
// every call.
func (s *ChatService) History(ctx context.Context, sessionID string) ([]MessageView, error) {
	msgs, err := s.sessions.Messages(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	return lo.Map(msgs, func(m domain.Message, _ int) MessageView { return s.view(m) }), nil
}

// Interpret renders arbitrary assistant text without touching any session.
func (s *ChatService) Interpret(text string) Rendering {
	ps := interpreter.Interpret(text)
	s.observe(ps.Structured())
	return Rendering{Sections: ps, View: presentation.Render(ps)}
}

func (s *ChatService) view(m domain.Message) MessageView {
	mv := MessageView{Message: m}
	if !m.Interpretable() {
		return mv
	}
	r := s.Interpret(m.Content)
	mv.Sections, mv.View = &r.Sections, &r.View
	return mv
}

// Profiles lists the built-in presets, the default one first.
func (s *ChatService) Profiles() []domain.Profile {
	out := lo.Values(s.profiles)
	sort.Slice(out, func(i, j int) bool {
		if (out[i].ID == domain.DefaultProfileID) != (out[j].ID == domain.DefaultProfileID) {
			return out[i].ID == domain.DefaultProfileID
		}
		return out[i].ID < out[j].ID
	})
	return out
}

func (s *ChatService) Profile(ctx context.Context, id string) (ProfileDetail, error) {
	p, err := s.profiles.Lookup(id)
	if err != nil {
		return ProfileDetail{}, err
	}
	d := ProfileDetail{Profile: p}
	up, err := s.client.UserProfile(ctx, id)
	switch {
	case err == nil:
		d.Upstream = up
	case errors.Is(err, domain.ErrNotFound):
	default:
		log.Warn().Err(err).Str("profile", id).Msg("upstream profile unavailable")
	}
	return d, nil
}

// UpstreamHealthy reports the recommender's health probe.
func (s *ChatService) UpstreamHealthy(ctx context.Context) bool {
	return s.client.Health(ctx)
}

// Transcript reads a session back from the archive, which outlives the
// live log. It fails with domain.ErrNotFound when no archive is configured.
func (s *ChatService) Transcript(ctx context.Context, sessionID string, limit int) ([]MessageView, error) {
	if s.archive == nil {
		return nil, fmt.Errorf("transcript archive: %w", domain.ErrNotFound)
	}
	msgs, err := s.archive.ListSession(ctx, sessionID, limit)
	if err != nil {
		return nil, err
	}
	return lo.Map(msgs, func(m domain.Message, _ int) MessageView { return s.view(m) }), nil
}
