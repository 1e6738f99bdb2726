package memory

import (
	"sync"
	"time"

	"medibot-be/internal/session"

	"github.com/patrickmn/go-cache"
)

// SessionRepository hands out one conversation store per user session key.
// Stores idle for an hour are evicted; state is process-lifetime only.
type SessionRepository struct {
	mu    sync.Mutex
	cache *cache.Cache
}

func NewSessionRepository() *SessionRepository {
	// Default expiration of 1 hour, purge sweep every 10 minutes.
	c := cache.New(1*time.Hour, 10*time.Minute)
	return &SessionRepository{cache: c}
}

// GetOrCreate returns the store for a session key, creating it on first use.
// The mutex makes concurrent first requests for the same key agree on one
// store instance.
func (r *SessionRepository) GetOrCreate(sessionKey string) *session.Store {
	r.mu.Lock()
	defer r.mu.Unlock()

	if x, found := r.cache.Get(sessionKey); found {
		store := x.(*session.Store)
		r.cache.Set(sessionKey, store, cache.DefaultExpiration) // slide expiration
		return store
	}
	store := session.NewStore()
	r.cache.Set(sessionKey, store, cache.DefaultExpiration)
	return store
}

func (r *SessionRepository) Get(sessionKey string) (*session.Store, bool) {
	if x, found := r.cache.Get(sessionKey); found {
		return x.(*session.Store), true
	}
	return nil, false
}

func (r *SessionRepository) Delete(sessionKey string) {
	r.cache.Delete(sessionKey)
}
