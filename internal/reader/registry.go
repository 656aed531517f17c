package reader

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"log"
	"time"

	gocache "github.com/patrickmn/go-cache"
	"golang.org/x/sync/errgroup"
)

// Registry tracks live reading sessions by opaque token. Sessions whose TTL
// lapses are evicted and closed, which runs full teardown semantics (final
// position write, handle release). Every access refreshes the TTL.
type Registry struct {
	sessions *gocache.Cache
	ttl      time.Duration
}

// NewRegistry creates a registry whose sessions expire after ttl without
// access.
func NewRegistry(ttl time.Duration) *Registry {
	c := gocache.New(ttl, ttl/2)
	c.OnEvicted(func(token string, value interface{}) {
		if session, ok := value.(*Session); ok {
			session.Close()
		}
	})
	return &Registry{sessions: c, ttl: ttl}
}

// Put registers a session and returns its token.
func (r *Registry) Put(session *Session) (string, error) {
	raw := make([]byte, 16)
	if _, err := rand.Read(raw); err != nil {
		return "", fmt.Errorf("failed to generate session token: %w", err)
	}
	token := hex.EncodeToString(raw)
	r.sessions.Set(token, session, gocache.DefaultExpiration)
	return token, nil
}

// Get returns the session for a token and refreshes its TTL.
func (r *Registry) Get(token string) (*Session, bool) {
	value, ok := r.sessions.Get(token)
	if !ok {
		return nil, false
	}
	session := value.(*Session)
	r.sessions.Set(token, session, gocache.DefaultExpiration)
	return session, true
}

// Remove closes and forgets a session. Closing happens via the eviction
// handler; Session.Close is idempotent.
func (r *Registry) Remove(token string) {
	r.sessions.Delete(token)
}

// Len reports the number of live sessions.
func (r *Registry) Len() int {
	return r.sessions.ItemCount()
}

// ReapIdle closes sessions with no reader activity for longer than maxIdle.
// Returns the number of sessions closed.
func (r *Registry) ReapIdle(maxIdle time.Duration) int {
	cutoff := time.Now().Add(-maxIdle)
	reaped := 0
	for token, item := range r.sessions.Items() {
		session, ok := item.Object.(*Session)
		if !ok {
			continue
		}
		if session.IdleSince().Before(cutoff) {
			r.sessions.Delete(token)
			reaped++
		}
	}
	if reaped > 0 {
		log.Printf("reader: reaped %d idle session(s)", reaped)
	}
	return reaped
}

// CloseAll tears down every live session, bounded by ctx. Used at shutdown
// so final position writes are issued before the process exits.
func (r *Registry) CloseAll(ctx context.Context) error {
	eg, _ := errgroup.WithContext(ctx)
	for _, item := range r.sessions.Items() {
		session, ok := item.Object.(*Session)
		if !ok {
			continue
		}
		eg.Go(func() error {
			session.Close()
			return nil
		})
	}
	err := eg.Wait()
	r.sessions.Flush()
	return err
}
