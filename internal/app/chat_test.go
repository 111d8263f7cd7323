package app_test

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"travel_genie/internal/app"
	"travel_genie/internal/domain"
)

// ---- fakes ----

type fakeSessions struct {
	mu       sync.Mutex
	logs     map[string][]domain.Message
	inflight map[string]string // session -> token
	profile  map[string]string
	ttls     []time.Duration
}

func newFakeSessions() *fakeSessions {
	return &fakeSessions{logs: map[string][]domain.Message{}, inflight: map[string]string{}, profile: map[string]string{}}
}

func (f *fakeSessions) Append(ctx context.Context, m domain.Message) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.logs[m.SessionID] = append(f.logs[m.SessionID], m)
	return nil
}
func (f *fakeSessions) Messages(ctx context.Context, id string) ([]domain.Message, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]domain.Message(nil), f.logs[id]...), nil
}
func (f *fakeSessions) Reset(ctx context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.logs, id)
	delete(f.profile, id)
	return nil
}
func (f *fakeSessions) Begin(ctx context.Context, id, token string, ttl time.Duration) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.ttls = append(f.ttls, ttl)
	if _, held := f.inflight[id]; held {
		return false, nil
	}
	f.inflight[id] = token
	return true, nil
}
func (f *fakeSessions) End(ctx context.Context, id, token string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.inflight[id] == token {
		delete(f.inflight, id)
	}
	return nil
}
func (f *fakeSessions) SetProfile(ctx context.Context, id, p string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.profile[id] = p
	return nil
}
func (f *fakeSessions) Profile(ctx context.Context, id string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.profile[id], nil
}

type fakeClient struct {
	text     string
	err      error
	block    chan struct{} // when set, Recommend waits on it
	started  chan struct{}
	gotQuery string
	gotUser  string
	upstream map[string]any
	upErr    error
}

func (c *fakeClient) Recommend(ctx context.Context, q, user string) (domain.Recommendation, error) {
	c.gotQuery, c.gotUser = q, user
	if c.started != nil {
		close(c.started)
	}
	if c.block != nil {
		<-c.block
	}
	if c.err != nil {
		return domain.Recommendation{}, c.err
	}
	return domain.Recommendation{Query: q, ProfileID: user, Text: c.text}, nil
}
func (c *fakeClient) UserProfile(ctx context.Context, id string) (map[string]any, error) {
	return c.upstream, c.upErr
}
func (c *fakeClient) Health(ctx context.Context) bool { return c.err == nil }

type fakeArchive struct {
	mu    sync.Mutex
	saved []domain.Message
	err   error
}

func (a *fakeArchive) SaveMessage(ctx context.Context, m domain.Message) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.saved = append(a.saved, m)
	return a.err
}
func (a *fakeArchive) ListSession(ctx context.Context, id string, limit int) ([]domain.Message, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	var out []domain.Message
	for _, m := range a.saved {
		if m.SessionID == id {
			out = append(out, m)
		}
	}
	return out, nil
}
func (a *fakeArchive) ListByRole(ctx context.Context, r domain.Role, q domain.ArchiveQuery) (domain.ArchivePage, error) {
	return domain.ArchivePage{}, nil
}

const hawaiian = `📋 Top 3 Flight Options:

1. Hawaiian - $382 ✓ Within budget
   Departure: 2026-02-23 at 23:45
   Return: 2026-03-02 at 14:20
   Duration: 6.0h, Layovers: 0`

func newService(ss *fakeSessions, c *fakeClient, opts ...app.ChatOption) *app.ChatService {
	return app.NewChatService(ss, c, domain.Builtin(), time.Second, opts...)
}

// ---- tests ----

func TestSend_AppendsUserAndAssistant(t *testing.T) {
	ss, cl, ar := newFakeSessions(), &fakeClient{text: hawaiian}, &fakeArchive{}
	var shapes []bool
	svc := newService(ss, cl, app.WithArchive(ar), app.WithInterpretHook(func(s bool) { shapes = append(shapes, s) }))

	turn, err := svc.Send(context.Background(), "s1", "  Maui in March?  ")
	require.NoError(t, err)

	assert.Equal(t, "Maui in March?", cl.gotQuery)
	assert.Equal(t, domain.DefaultProfileID, cl.gotUser)
	assert.Equal(t, domain.RoleUser, turn.User.Role)
	assert.Nil(t, turn.User.Sections)
	assert.Equal(t, domain.RoleAssistant, turn.Reply.Role)
	require.NotNil(t, turn.Reply.Sections)
	require.Len(t, turn.Reply.Sections.TopFlights, 1)
	assert.Equal(t, "Hawaiian", turn.Reply.Sections.TopFlights[0].Carrier)
	require.NotNil(t, turn.Reply.View)
	assert.NotEmpty(t, turn.Reply.View.Cards)
	assert.NotEqual(t, turn.User.ID, turn.Reply.ID)

	msgs, _ := ss.Messages(context.Background(), "s1")
	require.Len(t, msgs, 2)
	assert.Equal(t, hawaiian, msgs[1].Content)
	assert.Len(t, ar.saved, 2)
	assert.Equal(t, []bool{true}, shapes)

	assert.Empty(t, ss.inflight, "flag must be released")
	assert.Equal(t, time.Second+5*time.Second+4*time.Second, ss.ttls[0])
}

func TestSend_FailuresBecomeErrorMessages(t *testing.T) {
	cases := []struct {
		err  error
		want string
	}{
		{&domain.UpstreamError{Status: 500, Message: "Server error: 500"}, "Server error: 500"},
		{&domain.UpstreamError{Status: 400, Message: "Query is required"}, "Query is required"},
		{fmt.Errorf("%w: dial tcp: refused", domain.ErrUpstreamUnavailable), "Unable to connect to the Travel Genie service. Please make sure the API server is running."},
		{fmt.Errorf("recommend: %w", context.DeadlineExceeded), "The Travel Genie service took too long to respond. Please try again."},
		{errors.New("boom"), "An unexpected error occurred"},
	}
	for _, c := range cases {
		ss := newFakeSessions()
		svc := newService(ss, &fakeClient{err: c.err})

		turn, err := svc.Send(context.Background(), "s1", "hi")
		require.NoError(t, err)
		assert.Equal(t, domain.RoleError, turn.Reply.Role)
		assert.Equal(t, c.want, turn.Reply.Content)
		assert.Nil(t, turn.Reply.Sections, "error messages are never interpreted")
		assert.Empty(t, ss.inflight)
	}
}

func TestSend_EmptyQuery(t *testing.T) {
	ss := newFakeSessions()
	_, err := newService(ss, &fakeClient{}).Send(context.Background(), "s1", "   ")
	assert.ErrorIs(t, err, domain.ErrEmptyQuery)
	assert.Empty(t, ss.logs)
}

func TestSend_OneRequestInFlightPerSession(t *testing.T) {
	ss := newFakeSessions()
	cl := &fakeClient{text: "ok", block: make(chan struct{}), started: make(chan struct{})}
	svc := newService(ss, cl)

	done := make(chan error, 1)
	go func() {
		_, err := svc.Send(context.Background(), "s1", "first")
		done <- err
	}()
	<-cl.started

	_, err := svc.Send(context.Background(), "s1", "second")
	assert.ErrorIs(t, err, domain.ErrRequestInFlight)
	assert.ErrorIs(t, svc.Clear(context.Background(), "s1"), domain.ErrRequestInFlight)

	close(cl.block)
	require.NoError(t, <-done)

	msgs, _ := ss.Messages(context.Background(), "s1")
	require.Len(t, msgs, 2)
	assert.Equal(t, "first", msgs[0].Content)
}

func TestSend_KeepsFlagTakenByLaterRequest(t *testing.T) {
	ss := newFakeSessions()
	cl := &fakeClient{text: "ok", block: make(chan struct{}), started: make(chan struct{})}
	svc := newService(ss, cl)

	done := make(chan error, 1)
	go func() {
		_, err := svc.Send(context.Background(), "s1", "first")
		done <- err
	}()
	<-cl.started

	// the first flag expired and another request took the session
	ss.mu.Lock()
	ss.inflight["s1"] = "later"
	ss.mu.Unlock()

	close(cl.block)
	require.NoError(t, <-done)

	assert.Equal(t, map[string]string{"s1": "later"}, ss.inflight)
	_, err := svc.Send(context.Background(), "s1", "third")
	assert.ErrorIs(t, err, domain.ErrRequestInFlight)
}

// deadlineArchive records whether each save ran under a deadline.
type deadlineArchive struct {
	fakeArchive
	bounded []bool
}

func (a *deadlineArchive) SaveMessage(ctx context.Context, m domain.Message) error {
	_, ok := ctx.Deadline()
	a.mu.Lock()
	a.bounded = append(a.bounded, ok)
	a.mu.Unlock()
	return a.fakeArchive.SaveMessage(ctx, m)
}

func TestSend_ArchiveWritesAreBounded(t *testing.T) {
	ar := &deadlineArchive{}
	svc := newService(newFakeSessions(), &fakeClient{text: "ok"}, app.WithArchive(ar))

	_, err := svc.Send(context.Background(), "s1", "hi")
	require.NoError(t, err)
	assert.Equal(t, []bool{true, true}, ar.bounded)
}

func TestSend_UsesSelectedProfile(t *testing.T) {
	ss, cl := newFakeSessions(), &fakeClient{text: "ok"}
	svc := newService(ss, cl)

	p, err := svc.SetProfile(context.Background(), "s1", "default")
	require.NoError(t, err)
	assert.Equal(t, "Standard Traveler (USA)", p.Label)

	turn, err := svc.Send(context.Background(), "s1", "hi")
	require.NoError(t, err)
	assert.Equal(t, "default", cl.gotUser)
	assert.Equal(t, "default", turn.User.ProfileID)
}

func TestSetProfile_Unknown(t *testing.T) {
	_, err := newService(newFakeSessions(), &fakeClient{}).SetProfile(context.Background(), "s1", "vip")
	assert.ErrorIs(t, err, domain.ErrUnknownProfile)
}

func TestClear_ResetsToInitialState(t *testing.T) {
	ss := newFakeSessions()
	svc := newService(ss, &fakeClient{text: "ok"})
	ctx := context.Background()

	_, _ = svc.SetProfile(ctx, "s1", "default")
	_, _ = svc.Send(ctx, "s1", "hi")
	require.NoError(t, svc.Clear(ctx, "s1"))

	h, err := svc.History(ctx, "s1")
	require.NoError(t, err)
	assert.Empty(t, h)
	p, err := svc.ActiveProfile(ctx, "s1")
	require.NoError(t, err)
	assert.Equal(t, domain.DefaultProfileID, p.ID)
}

func TestArchiveFailureDoesNotFailSend(t *testing.T) {
	ss := newFakeSessions()
	svc := newService(ss, &fakeClient{text: "ok"}, app.WithArchive(&fakeArchive{err: errors.New("db down")}))

	_, err := svc.Send(context.Background(), "s1", "hi")
	require.NoError(t, err)
	assert.Len(t, ss.logs["s1"], 2)
}
