// Package token holds the per-session anti-forgery token attached to every
// mutating cart request. The token is process-wide, read on every call and
// refreshed in place; singleflight guarantees at most one refresh is ever in
// flight, so last-write-wins needs no versioning.
package token

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sync"

	"golang.org/x/sync/singleflight"
)

type Source struct {
	client   *http.Client
	tokenURL string

	mu      sync.RWMutex
	current string

	sfg singleflight.Group // Collapses concurrent refreshes
}

func NewSource(client *http.Client, tokenURL string) *Source {
	if client == nil {
		client = http.DefaultClient
	}
	return &Source{client: client, tokenURL: tokenURL}
}

// Seed installs an initial token without a network call (e.g. one embedded in
// the page at render time).
func (s *Source) Seed(token string) {
	s.mu.Lock()
	s.current = token
	s.mu.Unlock()
}

// Current returns the last known token, possibly empty before the first
// Seed or Refresh.
func (s *Source) Current() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.current
}

type tokenReply struct {
	Token string `json:"token"`
}

// Refresh fetches a fresh token and stores it. Concurrent callers share one
// HTTP request and all receive the same result.
func (s *Source) Refresh(ctx context.Context) (string, error) {
	v, err, _ := s.sfg.Do("csrf", func() (interface{}, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.tokenURL, nil)
		if err != nil {
			return nil, fmt.Errorf("build token request: %w", err)
		}
		req.Header.Set("Accept", "application/json")

		resp, err := s.client.Do(req)
		if err != nil {
			return nil, fmt.Errorf("fetch token: %w", err)
		}
		defer resp.Body.Close()

		if resp.StatusCode != http.StatusOK {
			return nil, fmt.Errorf("fetch token: unexpected status %d", resp.StatusCode)
		}

		var reply tokenReply
		if err := json.NewDecoder(resp.Body).Decode(&reply); err != nil {
			return nil, fmt.Errorf("decode token reply: %w", err)
		}
		if reply.Token == "" {
			return nil, fmt.Errorf("decode token reply: empty token")
		}

		s.mu.Lock()
		s.current = reply.Token
		s.mu.Unlock()

		return reply.Token, nil
	})
	if err != nil {
		return "", err
	}
	return v.(string), nil
}
