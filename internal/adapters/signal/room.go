package signal

import (
	"encoding/json"
	"errors"

	"github.com/rs/zerolog/log"

	"github.com/tkoskin/praisecast/internal/core"
	"github.com/tkoskin/praisecast/internal/domain"
)

func (ctl *Controller) handleOperatorJoin(
	id core.ConnID,
	userID string,
	conn *WsConn,
	data []byte,
) {
	if !ctl.limiter.Allow(userID) {
		ctl.sendError(conn, "rate_limited")
		return
	}
	type joinPayload struct {
		Type         string `json:"type"`
		Pin          string `json:"pin,omitempty"`
		PublicRoomID string `json:"publicRoomId,omitempty"`
		Theme        string `json:"theme,omitempty"`
	}
	var p joinPayload
	if err := json.Unmarshal(data, &p); err != nil {
		log.Error().Err(err).Str("module", "signal").Msg("bad operator join payload")
		ctl.sendError(conn, "bad_payload")
		return
	}

	pin, err := ctl.Gateway.JoinAsOperator(id, conn, userID, p.Pin, p.PublicRoomID, p.Theme)
	if errors.Is(err, domain.ErrExhaustedPinSpace) {
		// Distinct from a generic failure: retrying will not help.
		ctl.sendError(conn, "pin_space_exhausted")
		return
	}
	if err != nil {
		log.Error().Err(err).Str("module", "signal").Str("conn", string(id)).Msg("operator join failed")
		ctl.sendError(conn, "join_failed")
		return
	}

	resp := struct {
		Type string     `json:"type"`
		Pin  domain.PIN `json:"pin"`
	}{
		Type: "operator:joined",
		Pin:  pin,
	}
	ctl.sendJSON(conn, resp)
}

func (ctl *Controller) handleViewerJoin(
	id core.ConnID,
	userID string,
	conn *WsConn,
	data []byte,
) {
	if !ctl.limiter.Allow(userID) {
		ctl.sendError(conn, "rate_limited")
		return
	}
	type joinPayload struct {
		Type string `json:"type"`
		Pin  string `json:"pin"`
	}
	var p joinPayload
	if err := json.Unmarshal(data, &p); err != nil {
		log.Error().Err(err).Str("module", "signal").Msg("bad viewer join payload")
		ctl.sendError(conn, "bad_payload")
		return
	}

	// The welcome snapshot is enqueued by the room itself, ahead of any
	// concurrent delta; no reply needed here on success.
	err := ctl.Gateway.JoinAsViewer(id, conn, p.Pin)
	if errors.Is(err, domain.ErrRoomNotFound) {
		log.Warn().Str("module", "signal").Str("pin", p.Pin).Msg("viewer join: no such room")
		ctl.sendError(conn, "room_not_found")
		return
	}
	if err != nil {
		ctl.sendError(conn, "join_failed")
		return
	}
}

// handleLeave releases room membership without dropping the transport;
// the same connection may join again.
func (ctl *Controller) handleLeave(id core.ConnID, conn *WsConn) {
	log.Info().Str("module", "signal").Str("conn", string(id)).Msg("leave")
	ctl.Gateway.Leave(id)
	ctl.sendJSON(conn, map[string]any{
		"type": "left",
	})
}
