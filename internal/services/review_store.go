package services

import (
	"sync"
	"time"
)

// ReviewStore keeps completed reviews in memory so the browser can fetch
// the workbook after reading the stats. Entries expire after the
// configured TTL; expired entries are pruned on every access.
type ReviewStore struct {
	mu      sync.RWMutex
	ttl     time.Duration
	reviews map[string]*Review
	now     func() time.Time
}

// NewReviewStore creates a store with the given TTL. A non-positive TTL
// keeps entries for one hour.
func NewReviewStore(ttl time.Duration) *ReviewStore {
	if ttl <= 0 {
		ttl = time.Hour
	}
	return &ReviewStore{
		ttl:     ttl,
		reviews: make(map[string]*Review),
		now:     time.Now,
	}
}

// Put stores a review under its ID.
func (s *ReviewStore) Put(review *Review) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pruneLocked()
	s.reviews[review.ID] = review
}

// Get returns the review with the given ID, or false when it is unknown
// or expired.
func (s *ReviewStore) Get(id string) (*Review, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pruneLocked()
	review, ok := s.reviews[id]
	return review, ok
}

// Len returns the number of live reviews.
func (s *ReviewStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pruneLocked()
	return len(s.reviews)
}

// pruneLocked drops expired entries. Caller holds the write lock.
func (s *ReviewStore) pruneLocked() {
	cutoff := s.now().Add(-s.ttl)
	for id, review := range s.reviews {
		if review.CreatedAt.Before(cutoff) {
			delete(s.reviews, id)
		}
	}
}
