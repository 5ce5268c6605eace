// Package app wires transport sessions to rooms: joins, role handling,
// state mutation fan-out and presence pushes.
package app

import (
	"sync"

	"github.com/rs/zerolog/log"

	"github.com/tkoskin/praisecast/internal/core"
	"github.com/tkoskin/praisecast/internal/domain"
)

type Role string

const (
	RoleOperator Role = "operator"
	RoleViewer   Role = "viewer"
)

// PublicRoomStore is the slice of the record store the gateway drives
// when an operator presents under a public room alias.
type PublicRoomStore interface {
	Get(ownerID, id string) (domain.PublicRoom, error)
	SetActive(ownerID, id string, pin domain.PIN) error
	ClearActive(ownerID, id string) error
}

type session struct {
	role   Role
	pin    domain.PIN
	userID string
}

// Gateway multiplexes connections onto rooms. It keeps the conn -> room
// association so transport adapters only ever hand it a ConnID.
type Gateway struct {
	mu       sync.Mutex
	sessions map[core.ConnID]session

	rooms  *core.Registry
	public PublicRoomStore

	notifyDisplaced bool
}

func NewGateway(rooms *core.Registry, public PublicRoomStore, notifyDisplaced bool) *Gateway {
	return &Gateway{
		sessions:        make(map[core.ConnID]session),
		rooms:           rooms,
		public:          public,
		notifyDisplaced: notifyDisplaced,
	}
}

// JoinAsOperator attaches a connection as the room's operator. With an
// empty pin a fresh one is allocated; with a supplied pin the room is
// created if absent. A previous operator is displaced, not closed: it
// keeps its connection, loses write authorization, and is told about it
// when the displaced-notification policy is on. When publicRoomID names
// an alias owned by userID, the alias is pointed at the effective PIN.
func (g *Gateway) JoinAsOperator(id core.ConnID, s core.Sender, userID, pin, publicRoomID, themeID string) (domain.PIN, error) {
	var room *core.Room
	if pin == "" {
		var err error
		room, err = g.rooms.Create()
		if err != nil {
			return "", err
		}
	} else {
		room = g.rooms.GetOrCreate(domain.PIN(pin))
	}
	effective := room.PIN()

	// Reattach within the grace period keeps state and viewers intact.
	g.rooms.CancelClose(effective)

	displaced := room.AttachOperator(id, s, userID)
	if themeID != "" {
		room.SetTheme(themeID)
	}
	g.rooms.SetOwner(userID, effective)
	g.setSession(id, session{role: RoleOperator, pin: effective, userID: userID})

	if displaced != nil && g.notifyDisplaced {
		_ = displaced.TrySend(encode(typeOnlyEvent{Type: EvOperatorDisplaced}))
	}

	if publicRoomID != "" && g.public != nil {
		rec, err := g.public.Get(userID, publicRoomID)
		if err != nil {
			log.Warn().Err(err).Str("module", "app.gateway").Str("public_room", publicRoomID).Msg("public room lookup failed, presenting without alias")
		} else if err := g.public.SetActive(rec.OwnerID, rec.ID, effective); err != nil {
			log.Warn().Err(err).Str("module", "app.gateway").Str("public_room", publicRoomID).Msg("public room activation failed")
		} else {
			room.BindPublicRoom(rec.ID)
		}
	}

	log.Info().Str("module", "app.gateway").Str("conn", string(id)).Str("pin", string(effective)).Str("user", userID).Msg("operator joined")
	return effective, nil
}

// JoinAsViewer registers the connection in the room's viewer set. The
// full current snapshot is enqueued to the viewer inside the room's
// writer lock, so its very first observation equals the room state at
// the join instant.
func (g *Gateway) JoinAsViewer(id core.ConnID, s core.Sender, pin string) error {
	room, ok := g.rooms.Get(domain.PIN(pin))
	if !ok {
		return domain.ErrRoomNotFound
	}
	count, operator := room.AddViewer(id, s, snapshotFrame)
	g.setSession(id, session{role: RoleViewer, pin: room.PIN()})
	g.pushViewerCount(operator, count)
	return nil
}

// UpdateSlide applies an operator slide change; mutation and broadcast
// happen atomically inside the room.
func (g *Gateway) UpdateSlide(id core.ConnID, slide domain.SlideRef) error {
	room, err := g.operatorRoom(id)
	if err != nil {
		return err
	}
	res, err := room.UpdateSlide(id, slide, encode(slideEvent{Type: EvSlideUpdate, Slide: slide}))
	if err != nil {
		return err
	}
	g.logDropped(room.PIN(), res)
	return nil
}

// UpdateBackground applies an operator background override change.
func (g *Gateway) UpdateBackground(id core.ConnID, background string) error {
	room, err := g.operatorRoom(id)
	if err != nil {
		return err
	}
	res, err := room.UpdateBackground(id, background, encode(backgroundEvent{Type: EvBackgroundUpdate, Background: background}))
	if err != nil {
		return err
	}
	g.logDropped(room.PIN(), res)
	return nil
}

// Leave releases whatever membership the connection held. Idempotent:
// transport teardown and an explicit leave message may both call it.
// An operator leave starts the room's grace period instead of tearing
// the room down, so a brief network drop does not evict the viewers.
func (g *Gateway) Leave(id core.ConnID) {
	g.mu.Lock()
	sess, ok := g.sessions[id]
	delete(g.sessions, id)
	g.mu.Unlock()
	if !ok {
		return
	}

	room, found := g.rooms.Get(sess.pin)
	if !found {
		return
	}

	switch sess.role {
	case RoleViewer:
		count, operator, wasMember := room.RemoveViewer(id)
		if wasMember {
			g.pushViewerCount(operator, count)
		}
		if !room.HasConnections() {
			g.rooms.ScheduleClose(sess.pin, g.expireRoom)
		}
	case RoleOperator:
		if room.DetachOperator(id) {
			g.rooms.ScheduleClose(sess.pin, g.expireRoom)
		}
	}
	log.Info().Str("module", "app.gateway").Str("conn", string(id)).Str("pin", string(sess.pin)).Str("role", string(sess.role)).Msg("left")
}

// ActiveRoomFor resolves an owner to the room they are presenting in.
// Used by the remote screen resolution endpoint.
func (g *Gateway) ActiveRoomFor(userID string) (domain.Snapshot, bool) {
	pin, ok := g.rooms.OwnerPIN(userID)
	if !ok {
		return domain.Snapshot{}, false
	}
	room, ok := g.rooms.Get(pin)
	if !ok {
		return domain.Snapshot{}, false
	}
	return room.Snapshot(), true
}

// expireRoom runs when a grace period lapses with no reattachment.
// Viewers get a final room:closed so unattended screens fall back to
// waiting instead of hanging on a dead PIN.
func (g *Gateway) expireRoom(room *core.Room) {
	res := room.CloseAll(encode(typeOnlyEvent{Type: EvRoomClosed}))
	log.Info().Str("module", "app.gateway").Str("pin", string(room.PIN())).Int("notified", res.SentTo).Msg("room closed")

	if prID := room.PublicRoomID(); prID != "" && g.public != nil {
		if err := g.public.ClearActive(room.OperatorUser(), prID); err != nil {
			log.Warn().Err(err).Str("module", "app.gateway").Str("public_room", prID).Msg("public room deactivation failed")
		}
	}
}

func (g *Gateway) operatorRoom(id core.ConnID) (*core.Room, error) {
	g.mu.Lock()
	sess, ok := g.sessions[id]
	g.mu.Unlock()
	if !ok || sess.role != RoleOperator {
		return nil, domain.ErrUnauthorized
	}
	room, found := g.rooms.Get(sess.pin)
	if !found {
		return nil, domain.ErrRoomNotFound
	}
	return room, nil
}

func (g *Gateway) setSession(id core.ConnID, sess session) {
	g.mu.Lock()
	g.sessions[id] = sess
	g.mu.Unlock()
}

// pushViewerCount notifies the owning operator only, never the viewers.
// The count always comes from the authoritative roster, so it cannot
// drift under rapid join/leave churn.
func (g *Gateway) pushViewerCount(operator core.Sender, count int) {
	if operator == nil {
		return
	}
	_ = operator.TrySend(encode(viewerCountEvent{Type: EvViewerCount, Count: count}))
}

func (g *Gateway) logDropped(pin domain.PIN, res core.PublishResult) {
	if len(res.Dropped) == 0 {
		return
	}
	log.Warn().Str("module", "app.gateway").Str("pin", string(pin)).Int("dropped", len(res.Dropped)).Msg("slow viewers missed a broadcast")
}
