package iot

import (
	"sync"

	"golang.org/x/time/rate"
)

// RateLimiterStore manages per-node rate limiters: node_id -> rate limiter
type RateLimiterStore struct {
	limiters     map[string]*rate.Limiter
	mu           sync.Mutex
	defaultRate  rate.Limit
	defaultBurst int
}

func NewRateLimiterStore(defaultRate rate.Limit, defaultBurst int) *RateLimiterStore {
	return &RateLimiterStore{
		limiters:     make(map[string]*rate.Limiter),
		defaultRate:  defaultRate,
		defaultBurst: defaultBurst,
	}
}

func (s *RateLimiterStore) GetLimiter(nodeID string) *rate.Limiter {
	s.mu.Lock()
	defer s.mu.Unlock()

	limiter, exists := s.limiters[nodeID]
	if !exists {
		limiter = rate.NewLimiter(s.defaultRate, s.defaultBurst)
		s.limiters[nodeID] = limiter
	}
	return limiter
}

func (s *RateLimiterStore) SetLimiter(nodeID string, nodeRate rate.Limit, nodeBurst int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.limiters[nodeID] = rate.NewLimiter(nodeRate, nodeBurst)
}

// Allow reports whether nodeID may make one more request now.
func (s *RateLimiterStore) Allow(nodeID string) bool {
	return s.GetLimiter(nodeID).Allow()
}

// Len is the number of nodes with a limiter.
func (s *RateLimiterStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.limiters)
}
