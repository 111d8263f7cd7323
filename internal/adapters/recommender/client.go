// Package recommender is the HTTP client of the upstream travel
// recommendation API.
package recommender

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/patrickmn/go-cache"
	"github.com/rs/zerolog/log"
	"golang.org/x/time/rate"

	"travel_genie/internal/adapters/observability"
	"travel_genie/internal/domain"
)

const service = "recommender"

const healthTimeout = 2 * time.Second

type Options struct {
	Timeout    time.Duration
	RPS        int
	ProfileTTL time.Duration
}

type Client struct {
	base     string
	hc       *http.Client
	rl       *rate.Limiter
	profiles *cache.Cache
}

func New(base string, o Options) (*Client, error) {
	if base == "" {
		return nil, fmt.Errorf("recommender base URL is required")
	}
	if _, err := url.Parse(base); err != nil {
		return nil, fmt.Errorf("recommender base URL: %w", err)
	}
	if o.Timeout <= 0 {
		o.Timeout = 60 * time.Second
	}
	if o.RPS <= 0 {
		o.RPS = 5
	}
	if o.ProfileTTL <= 0 {
		o.ProfileTTL = 5 * time.Minute
	}
	return &Client{
		base:     strings.TrimRight(base, "/"),
		hc:       &http.Client{Timeout: o.Timeout},
		rl:       rate.NewLimiter(rate.Limit(o.RPS), o.RPS),
		profiles: cache.New(o.ProfileTTL, 2*o.ProfileTTL),
	}, nil
}

type recommendRequest struct {
	Query  string `json:"query"`
	UserID string `json:"userId"`
}

type recommendResponse struct {
	Success        bool    `json:"success"`
	Query          string  `json:"query"`
	UserID         string  `json:"userId"`
	Recommendation string  `json:"recommendation"`
	Timestamp      *string `json:"timestamp"`
	Error          string  `json:"error"`
}

// Recommend sends one query. It is attempted exactly once.
func (c *Client) Recommend(ctx context.Context, query, profileID string) (domain.Recommendation, error) {
	body, _ := json.Marshal(recommendRequest{Query: query, UserID: profileID})

	var out recommendResponse
	if err := c.do(ctx, http.MethodPost, "/api/recommend", "recommend", body, &out); err != nil {
		return domain.Recommendation{}, err
	}
	if !out.Success {
		msg := out.Error
		if msg == "" {
			msg = "Failed to get recommendation"
		}
		return domain.Recommendation{}, &domain.UpstreamError{Status: http.StatusOK, Message: msg}
	}

	rec := domain.Recommendation{
		Query:     out.Query,
		ProfileID: out.UserID,
		Text:      out.Recommendation,
		Timestamp: time.Now().UTC(),
	}
	if out.Timestamp != nil {
		if ts, err := time.Parse(time.RFC3339, *out.Timestamp); err == nil {
			rec.Timestamp = ts
		}
	}
	if rec.Query == "" {
		rec.Query = query
	}
	if rec.ProfileID == "" {
		rec.ProfileID = profileID
	}
	return rec, nil
}

// UserProfile returns the upstream profile document, cached in process.
func (c *Client) UserProfile(ctx context.Context, profileID string) (map[string]any, error) {
	if v, ok := c.profiles.Get(profileID); ok {
		observability.ObserveCache("profiles", "hit")
		return v.(map[string]any), nil
	}
	observability.ObserveCache("profiles", "miss")

	var out map[string]any
	if err := c.do(ctx, http.MethodGet, "/api/user-profile/"+url.PathEscape(profileID), "user_profile", nil, &out); err != nil {
		var se *domain.UpstreamError
		if errors.As(err, &se) && se.Status == http.StatusNotFound {
			return nil, fmt.Errorf("profile %s: %w", profileID, domain.ErrNotFound)
		}
		return nil, err
	}
	c.profiles.SetDefault(profileID, out)
	observability.ObserveCache("profiles", "set")
	return out, nil
}

// Health reports whether the upstream answers its health probe within
// healthTimeout. Probes bypass the rate limiter.
func (c *Client) Health(ctx context.Context) bool {
	ctx, cancel := context.WithTimeout(ctx, healthTimeout)
	defer cancel()
	var out struct {
		Status string `json:"status"`
	}
	if err := c.send(ctx, http.MethodGet, "/api/health", "health", nil, &out); err != nil {
		return false
	}
	return out.Status == "healthy"
}

// do performs one rate-limited request and decodes a 2xx JSON body into
// out. Transport failures wrap domain.ErrUpstreamUnavailable; error
// statuses become *domain.UpstreamError carrying the upstream message, or
// "Server error: <status>" when it sent none.
func (c *Client) do(ctx context.Context, method, path, endpoint string, body []byte, out any) error {
	if err := c.rl.Wait(ctx); err != nil {
		return err
	}
	return c.send(ctx, method, path, endpoint, body, out)
}

func (c *Client) send(ctx context.Context, method, path, endpoint string, body []byte, out any) error {
	var rd io.Reader
	if body != nil {
		rd = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.base+path, rd)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", "travel-genie/1.0")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	start := time.Now()
	resp, err := c.hc.Do(req)
	if err != nil {
		observability.ObserveExternal(service, endpoint, 0, time.Since(start))
		log.Debug().Err(err).Str("endpoint", endpoint).Str("type", observability.LabelErr(err)).Msg("recommender transport error")
		if ctx.Err() != nil {
			return ctx.Err()
		}
		var ne net.Error
		if errors.As(err, &ne) && ne.Timeout() {
			return fmt.Errorf("%s: %w", endpoint, context.DeadlineExceeded)
		}
		return fmt.Errorf("%w: %v", domain.ErrUpstreamUnavailable, err)
	}
	defer resp.Body.Close()
	observability.ObserveExternal(service, endpoint, resp.StatusCode, time.Since(start))

	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return fmt.Errorf("decode %s response: %w", endpoint, err)
		}
		return nil
	}

	// read a small error body for the upstream's own message
	b, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
	var e struct {
		Error string `json:"error"`
	}
	msg := fmt.Sprintf("Server error: %d", resp.StatusCode)
	if json.Unmarshal(b, &e) == nil && strings.TrimSpace(e.Error) != "" {
		msg = e.Error
	}
	return &domain.UpstreamError{Status: resp.StatusCode, Message: msg}
}
