package core

import (
	"fmt"
	"math/rand/v2"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/tkoskin/praisecast/internal/domain"
)

// pinAttempts bounds PIN regeneration before giving up. At real scale a
// collision storm is unreachable, but the outcome must be a defined
// error, not an infinite loop.
const pinAttempts = 32

// Registry is the source of truth for which rooms exist. It owns the
// PIN space, the operator-owner index used by remote screen resolution,
// and the grace-period timers that reap abandoned rooms.
type Registry struct {
	mu     sync.RWMutex
	rooms  map[domain.PIN]*Room
	owners map[string]domain.PIN
	timers map[domain.PIN]*time.Timer

	grace  time.Duration
	newPIN func() domain.PIN
}

func NewRegistry(grace time.Duration) *Registry {
	return &Registry{
		rooms:  make(map[domain.PIN]*Room),
		owners: make(map[string]domain.PIN),
		timers: make(map[domain.PIN]*time.Timer),
		grace:  grace,
		newPIN: randomPIN,
	}
}

func randomPIN() domain.PIN {
	return domain.PIN(fmt.Sprintf("%0*d", domain.PINDigits, rand.IntN(1_000_000)))
}

// Create allocates a fresh unused PIN and registers a new room under it.
func (g *Registry) Create() (*Room, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	for range pinAttempts {
		pin := g.newPIN()
		if _, taken := g.rooms[pin]; taken {
			continue
		}
		room := newRoom(pin)
		g.rooms[pin] = room
		log.Info().Str("module", "core.registry").Str("pin", string(pin)).Msg("room created")
		return room, nil
	}
	return nil, domain.ErrExhaustedPinSpace
}

// GetOrCreate attaches to an existing room by a caller-supplied PIN,
// creating it when absent (operator reattach after a full grace expiry).
func (g *Registry) GetOrCreate(pin domain.PIN) *Room {
	g.mu.RLock()
	room, ok := g.rooms[pin]
	g.mu.RUnlock()
	if ok {
		return room
	}
	g.mu.Lock()
	defer g.mu.Unlock()
	if room, ok = g.rooms[pin]; ok {
		return room
	}
	room = newRoom(pin)
	g.rooms[pin] = room
	log.Info().Str("module", "core.registry").Str("pin", string(pin)).Msg("room created with supplied pin")
	return room
}

func (g *Registry) Get(pin domain.PIN) (*Room, bool) {
	g.mu.RLock()
	defer g.mu.RUnlock()
	room, ok := g.rooms[pin]
	return room, ok
}

// Remove drops a room and any owner index entries pointing at it.
func (g *Registry) Remove(pin domain.PIN) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if t, ok := g.timers[pin]; ok {
		t.Stop()
		delete(g.timers, pin)
	}
	delete(g.rooms, pin)
	for owner, p := range g.owners {
		if p == pin {
			delete(g.owners, owner)
		}
	}
	log.Info().Str("module", "core.registry").Str("pin", string(pin)).Msg("room removed")
}

// SetOwner records which PIN a user is currently presenting under.
// Remote screens resolve through this index.
func (g *Registry) SetOwner(userID string, pin domain.PIN) {
	if userID == "" {
		return
	}
	g.mu.Lock()
	defer g.mu.Unlock()
	g.owners[userID] = pin
}

// OwnerPIN resolves a user to the room they are presenting in, if any.
func (g *Registry) OwnerPIN(userID string) (domain.PIN, bool) {
	g.mu.RLock()
	defer g.mu.RUnlock()
	pin, ok := g.owners[userID]
	return pin, ok
}

// ScheduleClose starts the grace-period timer for a room. When it fires
// the room is removed and expire is called with it first, so the caller
// can broadcast a final close and release external state. Scheduling is
// idempotent; an already pending timer is left running.
func (g *Registry) ScheduleClose(pin domain.PIN, expire func(*Room)) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if _, pending := g.timers[pin]; pending {
		return
	}
	if _, ok := g.rooms[pin]; !ok {
		return
	}
	g.timers[pin] = time.AfterFunc(g.grace, func() {
		g.mu.Lock()
		delete(g.timers, pin)
		room, ok := g.rooms[pin]
		g.mu.Unlock()
		if !ok {
			return
		}
		// Reattachment raced the timer; the room is live again.
		if room.Operator() != nil {
			return
		}
		log.Info().Str("module", "core.registry").Str("pin", string(pin)).Msg("grace period expired")
		if expire != nil {
			expire(room)
		}
		g.Remove(pin)
	})
	log.Info().Str("module", "core.registry").Str("pin", string(pin)).Dur("grace", g.grace).Msg("close scheduled")
}

// CancelClose stops a pending grace timer, if any. Returns whether one
// was pending.
func (g *Registry) CancelClose(pin domain.PIN) bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	t, ok := g.timers[pin]
	if !ok {
		return false
	}
	t.Stop()
	delete(g.timers, pin)
	log.Info().Str("module", "core.registry").Str("pin", string(pin)).Msg("close canceled")
	return true
}

// Len reports the number of active rooms.
func (g *Registry) Len() int {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return len(g.rooms)
}
