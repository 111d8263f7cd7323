package httpserver_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	httpserver "travel_genie/internal/adapters/http_server"
	"travel_genie/internal/adapters/recommender"
	redisad "travel_genie/internal/adapters/redis"
	"travel_genie/internal/app"
	"travel_genie/internal/domain"
)

const reply = `✈️ FLIGHT OPTIONS (10 found)
Price range: $382 - $620

📋 Top 3 Flight Options:

1. Hawaiian - $382 ✓ Within budget
   Departure: 2026-02-23 at 23:45
   Return: 2026-03-02 at 14:20
   Duration: 6.0h, Layovers: 0

✨ RECOMMENDED TRAVEL WINDOW`

type env struct {
	mux      http.Handler
	api      *httptest.Server
	upstream *httptest.Server
	redis    *miniredis.Miniredis
}

func setup(t *testing.T, upstream http.HandlerFunc) env {
	t.Helper()
	up := httptest.NewServer(upstream)
	t.Cleanup(up.Close)

	mr := miniredis.RunT(t)
	rc := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rc.Close() })

	cl, err := recommender.New(up.URL, recommender.Options{Timeout: time.Second, RPS: 100})
	require.NoError(t, err)
	chat := app.NewChatService(redisad.NewWithClient(rc, time.Hour), cl, domain.Builtin(), time.Second)

	srv := httpserver.New(5 * time.Second)
	srv.MountHandlers(&httpserver.Handlers{Chat: chat})
	api := httptest.NewServer(srv.Mux())
	t.Cleanup(api.Close)
	return env{mux: srv.Mux(), api: api, upstream: up, redis: mr}
}

func okUpstream(w http.ResponseWriter, r *http.Request) {
	switch r.URL.Path {
	case "/api/recommend":
		var in map[string]string
		_ = json.NewDecoder(r.Body).Decode(&in)
		_ = json.NewEncoder(w).Encode(map[string]any{
			"success": true, "query": in["query"], "userId": in["userId"], "recommendation": reply,
		})
	case "/api/health":
		_, _ = w.Write([]byte(`{"status":"healthy"}`))
	case "/api/user-profile/user_123":
		_, _ = w.Write([]byte(`{"userId":"user_123","comfortLevel":"comfort"}`))
	default:
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte(`{"error":"User not found"}`))
	}
}

func do(t *testing.T, method, url, body string, hdr ...string) *http.Response {
	t.Helper()
	req, err := http.NewRequest(method, url, strings.NewReader(body))
	require.NoError(t, err)
	for i := 0; i+1 < len(hdr); i += 2 {
		req.Header.Set(hdr[i], hdr[i+1])
	}
	res, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	t.Cleanup(func() { _ = res.Body.Close() })
	return res
}

func decode[T any](t *testing.T, res *http.Response) T {
	t.Helper()
	var v T
	require.NoError(t, json.NewDecoder(res.Body).Decode(&v))
	return v
}

type historyBody struct {
	SessionID string            `json:"sessionId"`
	Profile   domain.Profile    `json:"profile"`
	Messages  []app.MessageView `json:"messages"`
}

func TestSendAndHistory(t *testing.T) {
	e := setup(t, okUpstream)

	res := do(t, http.MethodPost, e.api.URL+"/v1/sessions/abc/messages", `{"query":"Maui in March?"}`)
	require.Equal(t, http.StatusCreated, res.StatusCode)
	turn := decode[app.Turn](t, res)
	assert.Equal(t, domain.RoleAssistant, turn.Reply.Role)
	require.NotNil(t, turn.Reply.Sections)
	assert.Len(t, turn.Reply.Sections.TopFlights, 1)

	res = do(t, http.MethodGet, e.api.URL+"/v1/sessions/abc/messages", "")
	require.Equal(t, http.StatusOK, res.StatusCode)
	etag := res.Header.Get("ETag")
	assert.True(t, strings.HasPrefix(etag, `W/"`))
	h := decode[historyBody](t, res)
	require.Len(t, h.Messages, 2)
	assert.Equal(t, "Maui in March?", h.Messages[0].Content)
	assert.Nil(t, h.Messages[0].Sections)
	require.NotNil(t, h.Messages[1].View)
	assert.Equal(t, domain.DefaultProfileID, h.Profile.ID)

	res = do(t, http.MethodGet, e.api.URL+"/v1/sessions/abc/messages", "", "If-None-Match", etag)
	assert.Equal(t, http.StatusNotModified, res.StatusCode)
}

func TestSend_UpstreamFailureIsChatEntry(t *testing.T) {
	e := setup(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	})

	res := do(t, http.MethodPost, e.api.URL+"/v1/sessions/abc/messages", `{"query":"hi"}`)
	require.Equal(t, http.StatusCreated, res.StatusCode)
	turn := decode[app.Turn](t, res)
	assert.Equal(t, domain.RoleError, turn.Reply.Role)
	assert.Equal(t, "Server error: 500", turn.Reply.Content)
}

func TestSend_Rejections(t *testing.T) {
	e := setup(t, okUpstream)

	res := do(t, http.MethodPost, e.api.URL+"/v1/sessions/abc/messages", `{"query":"  "}`)
	assert.Equal(t, http.StatusBadRequest, res.StatusCode)
	assert.Equal(t, "application/problem+json", res.Header.Get("Content-Type"))

	res = do(t, http.MethodPost, e.api.URL+"/v1/sessions/abc/messages", `{"q":"x"}`)
	assert.Equal(t, http.StatusBadRequest, res.StatusCode)

	res = do(t, http.MethodPost, e.api.URL+"/v1/sessions/bad.id/messages", `{"query":"x"}`)
	assert.Equal(t, http.StatusBadRequest, res.StatusCode)

	// simulate another request holding the session
	require.NoError(t, e.redis.Set("chat:abc:inflight", "x"))
	res = do(t, http.MethodPost, e.api.URL+"/v1/sessions/abc/messages", `{"query":"x"}`)
	assert.Equal(t, http.StatusConflict, res.StatusCode)
	res = do(t, http.MethodDelete, e.api.URL+"/v1/sessions/abc", "")
	assert.Equal(t, http.StatusConflict, res.StatusCode)
}

func TestProfileSelectionAndClear(t *testing.T) {
	e := setup(t, okUpstream)

	res := do(t, http.MethodPut, e.api.URL+"/v1/sessions/abc/profile", `{"profileId":"vip"}`)
	assert.Equal(t, http.StatusBadRequest, res.StatusCode)

	res = do(t, http.MethodPut, e.api.URL+"/v1/sessions/abc/profile", `{"profileId":"default"}`)
	require.Equal(t, http.StatusOK, res.StatusCode)
	assert.Equal(t, "Standard Traveler (USA)", decode[domain.Profile](t, res).Label)

	res = do(t, http.MethodPost, e.api.URL+"/v1/sessions/abc/messages", `{"query":"hi"}`)
	require.Equal(t, http.StatusCreated, res.StatusCode)
	assert.Equal(t, "default", decode[app.Turn](t, res).Reply.ProfileID)

	res = do(t, http.MethodDelete, e.api.URL+"/v1/sessions/abc", "")
	require.Equal(t, http.StatusNoContent, res.StatusCode)

	res = do(t, http.MethodGet, e.api.URL+"/v1/sessions/abc/messages", "")
	h := decode[historyBody](t, res)
	assert.Empty(t, h.Messages)
	assert.Equal(t, domain.DefaultProfileID, h.Profile.ID)
}

func TestProfiles(t *testing.T) {
	e := setup(t, okUpstream)

	res := do(t, http.MethodGet, e.api.URL+"/v1/profiles", "")
	require.Equal(t, http.StatusOK, res.StatusCode)
	list := decode[struct {
		Default string           `json:"default"`
		Items   []domain.Profile `json:"items"`
	}](t, res)
	assert.Equal(t, domain.DefaultProfileID, list.Default)
	assert.Len(t, list.Items, 2)

	res = do(t, http.MethodGet, e.api.URL+"/v1/profiles/user_123", "")
	require.Equal(t, http.StatusOK, res.StatusCode)
	d := decode[app.ProfileDetail](t, res)
	assert.Equal(t, "comfort", d.Upstream["comfortLevel"])

	res = do(t, http.MethodGet, e.api.URL+"/v1/profiles/ghost", "")
	assert.Equal(t, http.StatusNotFound, res.StatusCode)
}

func TestInterpretEndpoint(t *testing.T) {
	e := setup(t, okUpstream)

	body, _ := json.Marshal(map[string]string{"text": reply})
	res := do(t, http.MethodPost, e.api.URL+"/v1/interpret", string(body))
	require.Equal(t, http.StatusOK, res.StatusCode)
	r := decode[app.Rendering](t, res)
	assert.Len(t, r.Sections.TopFlights, 1)
	assert.Equal(t, []string{"", "", "", "✨ RECOMMENDED TRAVEL WINDOW"}, r.Sections.NarrativeLines)
	require.Len(t, r.View.Cards, 1)
	assert.Equal(t, "$382 - $620", r.View.Cards[0].Badge)

	big := `{"text":"` + strings.Repeat("a", 2<<20) + `"}`
	rr := httptest.NewRecorder()
	e.mux.ServeHTTP(rr, httptest.NewRequest(http.MethodPost, "/v1/interpret", strings.NewReader(big)))
	assert.Equal(t, http.StatusRequestEntityTooLarge, rr.Code)
}

func TestHealthz(t *testing.T) {
	e := setup(t, okUpstream)

	res := do(t, http.MethodGet, e.api.URL+"/healthz", "")
	require.Equal(t, http.StatusOK, res.StatusCode)
	assert.Equal(t, map[string]string{"status": "ok", "recommender": "healthy"}, decode[map[string]string](t, res))
}

func TestTranscript_NoArchive(t *testing.T) {
	e := setup(t, okUpstream)

	res := do(t, http.MethodGet, e.api.URL+"/v1/sessions/abc/transcript", "")
	assert.Equal(t, http.StatusNotFound, res.StatusCode)

	res = do(t, http.MethodGet, e.api.URL+"/v1/sessions/abc/transcript?limit=0", "")
	assert.Equal(t, http.StatusBadRequest, res.StatusCode)
}
