package service

import (
	"context"
	"sync"
	"time"

	"github.com/ArfatChowdhury/nemo-e-commerce-app/internal/domain"
	"github.com/google/uuid"
)

// Catalog is the read side of the product catalog.
type Catalog interface {
	Products(ctx context.Context) ([]domain.Product, error)
	Product(ctx context.Context, id string) (domain.Product, error)
}

// Session is the state owned by one user or guest: cart, wishlist and the
// checkout draft. Every operation on a session holds its mutex for the whole
// operation, so a session is never mutated by two operations at once.
type Session struct {
	mu       sync.Mutex
	userID   string
	cart     *domain.Cart
	wishlist *domain.Wishlist
	checkout checkoutDraft
	lastSeen time.Time
}

type checkoutDraft struct {
	step        domain.CheckoutStep
	address     *domain.Address
	payment     domain.PaymentMethod
	lastOrderID *uuid.UUID
}

// Store owns all sessions, keyed by user id.
type Store struct {
	mu       sync.Mutex
	sessions map[string]*Session
	now      func() time.Time
}

func NewStore(now func() time.Time) *Store {
	if now == nil {
		now = time.Now
	}
	return &Store{
		sessions: make(map[string]*Session),
		now:      now,
	}
}

// Session returns the session for userID, creating an empty one on first use.
func (s *Store) Session(userID string) *Session {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	sess, ok := s.sessions[userID]
	if !ok {
		sess = &Session{
			userID:   userID,
			cart:     domain.NewCart(userID, now),
			wishlist: domain.NewWishlist(),
			checkout: checkoutDraft{step: domain.StepCart},
		}
		s.sessions[userID] = sess
	}
	sess.lastSeen = now
	return sess
}

func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.sessions)
}

// PruneIdle drops sessions not used for longer than maxIdle and returns how
// many were dropped.
func (s *Store) PruneIdle(maxIdle time.Duration) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	cutoff := s.now().Add(-maxIdle)
	pruned := 0
	for id, sess := range s.sessions {
		if sess.lastSeen.Before(cutoff) {
			delete(s.sessions, id)
			pruned++
		}
	}
	return pruned
}

// RunPruner calls PruneIdle every interval until ctx is done.
func (s *Store) RunPruner(ctx context.Context, interval, maxIdle time.Duration, onPrune func(int)) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			if n := s.PruneIdle(maxIdle); n > 0 && onPrune != nil {
				onPrune(n)
			}
		case <-ctx.Done():
			return
		}
	}
}
