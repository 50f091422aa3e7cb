package proxmox

import (
	"context"
	"net/http"
	"sync"

	"golang.org/x/sync/singleflight"
)

// ticket is one authenticated Proxmox session.
type ticket struct {
	value string
	csrf  string
}

// header returns the auth headers for method. Proxmox only checks the
// CSRF token on writes.
func (t *ticket) header(method string) http.Header {
	h := http.Header{}
	h.Set("Cookie", "PVEAuthCookie="+t.value)
	if method != http.MethodGet {
		h.Set("CSRFPreventionToken", t.csrf)
	}
	return h
}

// session holds the current ticket. Unauthenticated while cur is nil.
// Concurrent callers that find no ticket share one login through sf.
type session struct {
	mu  sync.RWMutex
	cur *ticket
	sf  singleflight.Group
}

func (s *session) current() *ticket {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.cur
}

// get returns the current ticket, logging in first if there is none.
func (s *session) get(ctx context.Context, login func(context.Context) (*ticket, error)) (*ticket, error) {
	if t := s.current(); t != nil {
		return t, nil
	}
	v, err, _ := s.sf.Do("login", func() (any, error) {
		if t := s.current(); t != nil {
			return t, nil
		}
		// Shared by every waiter, so one caller's cancellation must not fail the rest.
		t, err := login(context.WithoutCancel(ctx))
		if err != nil {
			return nil, err
		}
		s.mu.Lock()
		s.cur = t
		s.mu.Unlock()
		return t, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*ticket), nil
}

// invalidate drops t if it is still current. A ticket already replaced by
// a concurrent refresh is left alone.
func (s *session) invalidate(t *ticket) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cur == t {
		s.cur = nil
	}
}

func (s *session) reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cur = nil
}
