package httpserver

import (
	"crypto/sha1"
	"encoding/hex"
	"encoding/json"
	"errors"
	"net/http"
	"regexp"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/log"

	"travel_genie/internal/app"
	"travel_genie/internal/domain"
)

const (
	maxQueryBody     = 16 << 10
	maxInterpretBody = 1 << 20
)

var sessionIDRe = regexp.MustCompile(`^[A-Za-z0-9_-]{1,64}$`)

type Handlers struct{ Chat *app.ChatService }

type problem struct {
	Type   string `json:"type"`
	Title  string `json:"title"`
	Status int    `json:"status"`
	Detail string `json:"detail,omitempty"`
}

func (s *Server) MountHandlers(h *Handlers) {
	s.mux.Get("/healthz", h.health)

	s.mux.Get("/v1/profiles", h.listProfiles)
	s.mux.Get("/v1/profiles/{id}", h.getProfile)

	s.mux.Get("/v1/sessions/{id}/messages", h.listMessages)
	s.mux.Post("/v1/sessions/{id}/messages", h.sendMessage)
	s.mux.Put("/v1/sessions/{id}/profile", h.setProfile)
	s.mux.Delete("/v1/sessions/{id}", h.clearSession)
	s.mux.Get("/v1/sessions/{id}/transcript", h.transcript)

	s.mux.Post("/v1/interpret", h.interpret)
}

func writeProblem(w http.ResponseWriter, status int, title, detail string) {
	w.Header().Set("Content-Type", problemJSON)
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(problem{Type: "about:blank", Title: title, Status: status, Detail: detail}); err != nil {
		log.Error().Err(err).Msg("write JSON problem response failed")
	}
}

// writeError maps service errors to problem responses.
func writeError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, domain.ErrEmptyQuery):
		writeProblem(w, http.StatusBadRequest, "Invalid query", err.Error())
	case errors.Is(err, domain.ErrUnknownProfile):
		writeProblem(w, http.StatusBadRequest, "Unknown profile", err.Error())
	case errors.Is(err, domain.ErrRequestInFlight):
		writeProblem(w, http.StatusConflict, "Request in flight", err.Error())
	case errors.Is(err, domain.ErrNotFound):
		writeProblem(w, http.StatusNotFound, "Not Found", err.Error())
	default:
		log.Error().Err(err).Msg("request failed")
		writeProblem(w, http.StatusInternalServerError, "Internal Server Error", "")
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Error().Err(err).Msg("write JSON response failed")
	}
}

// calcETagAndBody marshals once and hashes once, returning both ETag and body.
func calcETagAndBody(v any) (string, []byte) {
	body, err := json.Marshal(v)
	if err != nil {
		log.Error().Err(err).Msg("failed to marshal object for ETag/body")
		return "", nil
	}
	sum := sha1.Sum(body)
	etag := `W/"` + hex.EncodeToString(sum[:]) + `"`
	return etag, body
}

func decodeBody(w http.ResponseWriter, r *http.Request, limit int64, dst any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, limit)
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		var mbe *http.MaxBytesError
		if errors.As(err, &mbe) {
			writeProblem(w, http.StatusRequestEntityTooLarge, "Body too large", "")
			return false
		}
		writeProblem(w, http.StatusBadRequest, "Invalid body", err.Error())
		return false
	}
	return true
}

func sessionID(w http.ResponseWriter, r *http.Request) (string, bool) {
	id := chi.URLParam(r, "id")
	if !sessionIDRe.MatchString(id) {
		writeProblem(w, http.StatusBadRequest, "Invalid session id", "session id must be 1-64 characters of [A-Za-z0-9_-]")
		return "", false
	}
	return id, true
}

func (h *Handlers) health(w http.ResponseWriter, r *http.Request) {
	upstream := "unreachable"
	if h.Chat.UpstreamHealthy(r.Context()) {
		upstream = "healthy"
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok", "recommender": upstream})
}

func (h *Handlers) listProfiles(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"default": domain.DefaultProfileID, "items": h.Chat.Profiles()})
}

func (h *Handlers) getProfile(w http.ResponseWriter, r *http.Request) {
	d, err := h.Chat.Profile(r.Context(), chi.URLParam(r, "id"))
	if errors.Is(err, domain.ErrUnknownProfile) {
		writeProblem(w, http.StatusNotFound, "Not Found", "profile not found")
		return
	}
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, d)
}

type historyResponse struct {
	SessionID string            `json:"sessionId"`
	Profile   domain.Profile    `json:"profile"`
	Messages  []app.MessageView `json:"messages"`
}

func (h *Handlers) listMessages(w http.ResponseWriter, r *http.Request) {
	id, ok := sessionID(w, r)
	if !ok {
		return
	}
	msgs, err := h.Chat.History(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}
	p, err := h.Chat.ActiveProfile(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}

	etag, body := calcETagAndBody(historyResponse{SessionID: id, Profile: p, Messages: msgs})
	// If client already has this version, short-circuit.
	if inm := r.Header.Get("If-None-Match"); inm != "" && inm == etag {
		w.Header().Set("ETag", etag)
		w.WriteHeader(http.StatusNotModified)
		return
	}

	w.Header().Set("ETag", etag)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(body); err != nil {
		log.Error().Err(err).Msg("failed to write listMessages body")
	}
}

func (h *Handlers) sendMessage(w http.ResponseWriter, r *http.Request) {
	id, ok := sessionID(w, r)
	if !ok {
		return
	}
	var in struct {
		Query string `json:"query"`
	}
	if !decodeBody(w, r, maxQueryBody, &in) {
		return
	}
	turn, err := h.Chat.Send(r.Context(), id, in.Query)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, turn)
}

func (h *Handlers) setProfile(w http.ResponseWriter, r *http.Request) {
	id, ok := sessionID(w, r)
	if !ok {
		return
	}
	var in struct {
		ProfileID string `json:"profileId"`
	}
	if !decodeBody(w, r, maxQueryBody, &in) {
		return
	}
	p, err := h.Chat.SetProfile(r.Context(), id, in.ProfileID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

func (h *Handlers) clearSession(w http.ResponseWriter, r *http.Request) {
	id, ok := sessionID(w, r)
	if !ok {
		return
	}
	if err := h.Chat.Clear(r.Context(), id); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handlers) interpret(w http.ResponseWriter, r *http.Request) {
	var in struct {
		Text string `json:"text"`
	}
	if !decodeBody(w, r, maxInterpretBody, &in) {
		return
	}
	writeJSON(w, http.StatusOK, h.Chat.Interpret(in.Text))
}

func (h *Handlers) transcript(w http.ResponseWriter, r *http.Request) {
	id, ok := sessionID(w, r)
	if !ok {
		return
	}
	limit := 100
	if ls := r.URL.Query().Get("limit"); ls != "" {
		l, err := strconv.Atoi(ls)
		if err != nil || l <= 0 || l > 1000 {
			writeProblem(w, http.StatusBadRequest, "Invalid limit", "limit must be an integer between 1 and 1000")
			return
		}
		limit = l
	}
	msgs, err := h.Chat.Transcript(r.Context(), id, limit)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"sessionId": id, "messages": msgs})
}
