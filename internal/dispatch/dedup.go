package dispatch

import (
	"sync"
	"time"
)

// dedupSet suppresses duplicate webhook deliveries. Entries expire after a TTL
// so the set stays bounded under long uptimes; expired entries are swept
// lazily, at most once per TTL window.
type dedupSet struct {
	mu        sync.Mutex
	seen      map[string]time.Time
	ttl       time.Duration
	lastSweep time.Time
	now       func() time.Time
}

func newDedupSet(ttl time.Duration) *dedupSet {
	if ttl <= 0 {
		ttl = 10 * time.Minute
	}
	return &dedupSet{
		seen: make(map[string]time.Time),
		ttl:  ttl,
		now:  time.Now,
	}
}

// Seen reports whether id was already recorded within the TTL, recording it
// otherwise. The empty id is never deduplicated.
func (d *dedupSet) Seen(id string) bool {
	if id == "" {
		return false
	}
	d.mu.Lock()
	defer d.mu.Unlock()

	now := d.now()
	if now.Sub(d.lastSweep) >= d.ttl {
		for k, t := range d.seen {
			if now.Sub(t) >= d.ttl {
				delete(d.seen, k)
			}
		}
		d.lastSweep = now
	}

	if t, ok := d.seen[id]; ok && now.Sub(t) < d.ttl {
		return true
	}
	d.seen[id] = now
	return false
}
