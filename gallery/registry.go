package gallery

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"catsgallery/utils"
)

// SessionObserver is told about every fetch of every view in a registry.
type SessionObserver func(sessionID string, record FetchRecord)

type session struct {
	id       string
	view     *View
	lastSeen time.Time
}

// Registry keeps one View per visitor session and unmounts views that have
// been idle for longer than the TTL.
type Registry struct {
	fetcher  Fetcher
	ttl      time.Duration
	observer SessionObserver
	now      func() time.Time
	log      zerolog.Logger

	mu       sync.Mutex
	sessions map[string]*session
}

func NewRegistry(fetcher Fetcher, ttl time.Duration, observer SessionObserver) *Registry {
	return &Registry{
		fetcher:  fetcher,
		ttl:      ttl,
		observer: observer,
		now:      time.Now,
		log:      utils.NewLogger("gallery"),
		sessions: make(map[string]*session),
	}
}

// SetClock replaces the time source used for idle tracking.
func (r *Registry) SetClock(now func() time.Time) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.now = now
}

// Open returns the view of the given session. Unknown or empty ids get a new
// session; created reports whether that happened.
func (r *Registry) Open(id string) (sessionID string, view *View, created bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if s, ok := r.sessions[id]; ok {
		s.lastSeen = r.now()
		return s.id, s.view, false
	}

	sessionID = uuid.NewString()
	view = NewView(r.fetcher, WithObserver(r.observe(sessionID)))
	r.sessions[sessionID] = &session{id: sessionID, view: view, lastSeen: r.now()}
	r.log.Debug().Str("session", sessionID).Msg("Gallery view created")
	return sessionID, view, true
}

// Unmount drops the view of the given session and reports whether there was
// one.
func (r *Registry) Unmount(id string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.sessions[id]; !ok {
		return false
	}
	delete(r.sessions, id)
	r.log.Debug().Str("session", id).Msg("Gallery view unmounted")
	return true
}

func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.sessions)
}

// Sweep unmounts every view idle for longer than the TTL and returns how
// many were removed. A zero TTL keeps views forever.
func (r *Registry) Sweep() int {
	if r.ttl <= 0 {
		return 0
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	cutoff := r.now().Add(-r.ttl)
	removed := 0
	for id, s := range r.sessions {
		if s.lastSeen.Before(cutoff) {
			delete(r.sessions, id)
			removed++
		}
	}
	return removed
}

// Run sweeps on every tick until ctx is done. It returns at once when
// interval is not positive.
func (r *Registry) Run(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		r.log.Warn().Dur("interval", interval).Msg("Idle view sweeping disabled")
		return
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n := r.Sweep(); n > 0 {
				r.log.Info().Int("count", n).Msg("Unmounted idle gallery views")
			}
		}
	}
}

func (r *Registry) observe(sessionID string) func(FetchRecord) {
	return func(record FetchRecord) {
		if record.Err != nil {
			r.log.Error().Err(record.Err).
				Str("session", sessionID).
				Uint64("generation", record.Generation).
				Msg("Fetching cats failed")
		} else if !record.Committed {
			r.log.Debug().
				Str("session", sessionID).
				Uint64("generation", record.Generation).
				Msg("Dropped result of a superseded fetch")
		}
		if r.observer != nil {
			r.observer(sessionID, record)
		}
	}
}
