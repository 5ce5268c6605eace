package core

import (
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/tkoskin/praisecast/internal/domain"
)

// Room is a threadsafe in-memory live presentation session.
// Every mutation for one room goes through its single mutex, so
// concurrent operator messages apply in arrival order and broadcasts are
// strictly ordered with respect to the state they describe. Rooms share
// no mutable state with each other. A Room never closes adapter-owned
// connections.
type Room struct {
	mu sync.Mutex

	pin          domain.PIN
	slide        domain.SlideRef
	background   string
	themeID      string
	publicRoomID string

	opConn   ConnID
	opSender Sender
	opUserID string
	opSince  time.Time

	viewers map[ConnID]Sender
}

func newRoom(pin domain.PIN) *Room {
	return &Room{
		pin:     pin,
		slide:   domain.BlankSlide(),
		viewers: make(map[ConnID]Sender),
	}
}

func (r *Room) PIN() domain.PIN { return r.pin }

// Snapshot returns a consistent view of the current state, never a
// partially updated one.
func (r *Room) Snapshot() domain.Snapshot {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.snapshotLocked()
}

func (r *Room) snapshotLocked() domain.Snapshot {
	return domain.Snapshot{
		PIN:        r.pin,
		Slide:      r.slide,
		Background: r.background,
		ThemeID:    r.themeID,
	}
}

// AttachOperator makes the given connection the authorized operator,
// displacing any previous one (latest wins). The displaced sender is
// returned so the gateway can notify it; its connection stays open, it
// just stops being authorized to mutate.
func (r *Room) AttachOperator(id ConnID, s Sender, userID string) (displaced Sender) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.opSender != nil && r.opConn != id {
		displaced = r.opSender
	}
	r.opConn = id
	r.opSender = s
	r.opUserID = userID
	r.opSince = time.Now()
	log.Info().Str("module", "core.room").Str("pin", string(r.pin)).Str("conn", string(id)).Str("user", userID).Msg("operator attached")
	return displaced
}

// DetachOperator clears the operator slot if id still holds it.
// A demoted operator leaving returns false and must not trigger cleanup.
func (r *Room) DetachOperator(id ConnID) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.opConn != id {
		return false
	}
	r.opConn = ""
	r.opSender = nil
	log.Info().Str("module", "core.room").Str("pin", string(r.pin)).Str("conn", string(id)).Msg("operator detached")
	return true
}

// Operator returns the current operator sender, nil when the room is in
// its grace period.
func (r *Room) Operator() Sender {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.opSender
}

func (r *Room) OperatorUser() string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.opUserID
}

func (r *Room) SetTheme(themeID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.themeID = themeID
}

func (r *Room) ThemeID() string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.themeID
}

// BindPublicRoom remembers which public room alias this session was
// started under so the gateway can deactivate it on close.
func (r *Room) BindPublicRoom(id string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.publicRoomID = id
}

func (r *Room) PublicRoomID() string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.publicRoomID
}

// AddViewer registers a viewer and enqueues its welcome snapshot while
// still holding the room lock. That ordering is the whole point: the
// snapshot lands in the viewer's send queue before any later delta, so a
// late joiner can never observe a delta for state older than its
// snapshot, and never renders blank while a non-blank state is active.
func (r *Room) AddViewer(id ConnID, s Sender, welcome func(domain.Snapshot) Frame) (count int, operator Sender) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.viewers[id] = s
	if welcome != nil {
		_ = s.TrySend(welcome(r.snapshotLocked()))
	}
	log.Info().Str("module", "core.room").Str("pin", string(r.pin)).Str("conn", string(id)).Int("viewers", len(r.viewers)).Msg("viewer added")
	return len(r.viewers), r.opSender
}

// RemoveViewer drops a viewer from the roster. The returned count is
// computed from the authoritative membership set under the same lock.
func (r *Room) RemoveViewer(id ConnID) (count int, operator Sender, wasMember bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.viewers[id]; !ok {
		return len(r.viewers), r.opSender, false
	}
	delete(r.viewers, id)
	log.Info().Str("module", "core.room").Str("pin", string(r.pin)).Str("conn", string(id)).Int("viewers", len(r.viewers)).Msg("viewer removed")
	return len(r.viewers), r.opSender, true
}

func (r *Room) ViewerCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.viewers)
}

// HasConnections reports whether any operator or viewer is attached.
func (r *Room) HasConnections() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.opSender != nil || len(r.viewers) > 0
}

// UpdateSlide applies an operator slide change and fans it out, both
// under the room lock: no viewer can observe a broadcast the registry
// state does not yet reflect. Only the currently authorized operator
// connection may call this; anyone else gets ErrUnauthorized and nothing
// is broadcast.
func (r *Room) UpdateSlide(from ConnID, slide domain.SlideRef, frame Frame) (PublishResult, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if from != r.opConn {
		return PublishResult{}, domain.ErrUnauthorized
	}
	r.slide = slide
	return r.broadcastLocked(frame), nil
}

// UpdateBackground is the same contract as UpdateSlide for the
// background override.
func (r *Room) UpdateBackground(from ConnID, background string, frame Frame) (PublishResult, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if from != r.opConn {
		return PublishResult{}, domain.ErrUnauthorized
	}
	r.background = background
	return r.broadcastLocked(frame), nil
}

// CloseAll sends a final frame to every viewer and empties the roster.
// Called by the registry when the grace period expires.
func (r *Room) CloseAll(frame Frame) PublishResult {
	r.mu.Lock()
	defer r.mu.Unlock()
	res := r.broadcastLocked(frame)
	r.viewers = make(map[ConnID]Sender)
	return res
}

// broadcastLocked fans out to viewers only, best effort per connection.
// TrySend is non-blocking so holding the lock never waits on I/O; a
// failed delivery to one viewer never blocks the others.
func (r *Room) broadcastLocked(frame Frame) PublishResult {
	res := PublishResult{}
	for id, v := range r.viewers {
		if err := v.TrySend(frame); err != nil {
			res.Dropped = append(res.Dropped, id)
			continue
		}
		res.SentTo++
	}
	log.Debug().Str("module", "core.room").Str("pin", string(r.pin)).Int("sent_to", res.SentTo).Int("dropped", len(res.Dropped)).Msg("broadcast result")
	return res
}
