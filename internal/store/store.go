// Package store keeps the storefront's in-memory per-shopper state: carts
// and live checkout sessions. Orders themselves are persisted by the
// backend; nothing here survives a restart on purpose.
package store

import (
	"log/slog"
	"sync"
	"time"

	"github.com/evergreenmart/storefront/internal/checkout"
)

type Store struct {
	mu        sync.Mutex
	carts     map[string]*Cart
	checkouts map[string]*checkout.Session
	ttl       time.Duration
	stop      chan struct{}
	stopOnce  sync.Once
}

// NewStore creates the registry and starts the idle-session sweeper.
func NewStore(ttl time.Duration) *Store {
	if ttl <= 0 {
		ttl = 30 * time.Minute
	}
	s := &Store{
		carts:     make(map[string]*Cart),
		checkouts: make(map[string]*checkout.Session),
		ttl:       ttl,
		stop:      make(chan struct{}),
	}
	go s.sweep()
	return s
}

// Cart returns the shopper's cart, creating it on first use.
func (s *Store) Cart(shopperID string) *Cart {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.carts[shopperID]
	if !ok {
		c = newCart()
		s.carts[shopperID] = c
	}
	return c
}

// Checkout returns the shopper's live checkout session, if any.
func (s *Store) Checkout(shopperID string) (*checkout.Session, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess, ok := s.checkouts[shopperID]
	return sess, ok
}

// PutCheckout installs a session, closing any session it replaces.
func (s *Store) PutCheckout(shopperID string, sess *checkout.Session) {
	s.mu.Lock()
	old := s.checkouts[shopperID]
	s.checkouts[shopperID] = sess
	s.mu.Unlock()
	if old != nil {
		old.Close()
	}
}

// DropCheckout ends the shopper's checkout session and releases its
// resources (OTP countdown ticker included).
func (s *Store) DropCheckout(shopperID string) {
	s.mu.Lock()
	sess := s.checkouts[shopperID]
	delete(s.checkouts, shopperID)
	s.mu.Unlock()
	if sess != nil {
		sess.Close()
	}
}

// Close stops the sweeper and releases every live session.
func (s *Store) Close() {
	s.stopOnce.Do(func() { close(s.stop) })
	s.mu.Lock()
	sessions := make([]*checkout.Session, 0, len(s.checkouts))
	for id, sess := range s.checkouts {
		sessions = append(sessions, sess)
		delete(s.checkouts, id)
	}
	s.mu.Unlock()
	for _, sess := range sessions {
		sess.Close()
	}
}

// sweep evicts checkouts and carts idle past the TTL so abandoned
// sessions do not leak tickers and drive-by requests do not leak carts.
func (s *Store) sweep() {
	t := time.NewTicker(time.Minute)
	defer t.Stop()
	for {
		select {
		case <-s.stop:
			return
		case <-t.C:
			s.evictStale(time.Now())
		}
	}
}

func (s *Store) evictStale(now time.Time) {
	var stale []*checkout.Session
	s.mu.Lock()
	for id, sess := range s.checkouts {
		if now.Sub(sess.LastActive()) > s.ttl {
			stale = append(stale, sess)
			delete(s.checkouts, id)
		}
	}
	// A cart referenced by a live checkout stays put; the session holds
	// the pointer and a replacement would orphan it.
	for id, cart := range s.carts {
		if _, live := s.checkouts[id]; live {
			continue
		}
		if now.Sub(cart.LastUsed()) > s.ttl {
			delete(s.carts, id)
		}
	}
	s.mu.Unlock()
	for _, sess := range stale {
		sess.Close()
		slog.Debug("Evicted idle checkout session", "session", sess.ID())
	}
}
