// Package players resolves the opaque player ids on the wire into
// names and positions. The draft stream only ever says "4362238"; the
// resolver is what lets every downstream consumer say "Justin
// Jefferson".
package players

import (
	"context"
	"fmt"
	"sync"

	"golang.org/x/sync/singleflight"

	"github.com/draftops/draftops/internal/telemetry"
)

// Info is one resolved player.
type Info struct {
	ID       string
	FullName string
	Position string
	ProTeam  string
}

// Fetcher loads player metadata from the upstream API.
type Fetcher interface {
	PlayerByID(ctx context.Context, id string) (Info, error)
}

// Resolver caches player lookups. Concurrent requests for the same id
// collapse into a single upstream fetch.
type Resolver struct {
	fetch Fetcher

	mu     sync.RWMutex
	byID   map[string]Info
	byName map[string]string // Normalize(name) -> id

	sf singleflight.Group
}

func NewResolver(fetch Fetcher) *Resolver {
	return &Resolver{
		fetch:  fetch,
		byID:   make(map[string]Info),
		byName: make(map[string]string),
	}
}

// Prime seeds the cache, typically from a pre-draft bulk export.
func (r *Resolver) Prime(infos []Info) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, info := range infos {
		r.byID[info.ID] = info
		r.byName[Normalize(info.FullName)] = info.ID
	}
}

// Resolve returns the player behind an id, fetching on cache miss.
func (r *Resolver) Resolve(ctx context.Context, id string) (Info, error) {
	r.mu.RLock()
	info, ok := r.byID[id]
	r.mu.RUnlock()
	if ok {
		return info, nil
	}

	v, err, _ := r.sf.Do(id, func() (any, error) {
		// a previous flight may have landed between the cache check
		// and joining this one
		r.mu.RLock()
		info, ok := r.byID[id]
		r.mu.RUnlock()
		if ok {
			return info, nil
		}

		info, err := r.fetch.PlayerByID(ctx, id)
		if err != nil {
			return nil, err
		}

		r.mu.Lock()
		r.byID[id] = info
		r.byName[Normalize(info.FullName)] = id
		r.mu.Unlock()

		telemetry.Metrics.PlayersResolved.Inc()
		return info, nil
	})
	if err != nil {
		return Info{}, fmt.Errorf("resolve player %s: %w", id, err)
	}
	return v.(Info), nil
}

// IDByName looks up a player id by (fuzzy-normalized) name.
func (r *Resolver) IDByName(name string) (string, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	id, ok := r.byName[Normalize(name)]
	return id, ok
}

// Cached reports how many players the resolver currently knows.
func (r *Resolver) Cached() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.byID)
}
