package signal

import (
	"encoding/json"
	"errors"

	"github.com/rs/zerolog/log"

	"github.com/tkoskin/praisecast/internal/core"
	"github.com/tkoskin/praisecast/internal/domain"
)

func (ctl *Controller) handleSlideUpdate(
	id core.ConnID,
	conn *WsConn,
	data []byte,
) {
	type slidePayload struct {
		Type  string          `json:"type"`
		Slide domain.SlideRef `json:"slide"`
	}
	var p slidePayload
	if err := json.Unmarshal(data, &p); err != nil {
		log.Error().Err(err).Str("module", "signal").Msg("bad slide payload")
		ctl.sendError(conn, "bad_payload")
		return
	}

	if err := ctl.Gateway.UpdateSlide(id, p.Slide); err != nil {
		ctl.replyUpdateError(id, conn, err)
	}
}

func (ctl *Controller) handleBackgroundUpdate(
	id core.ConnID,
	conn *WsConn,
	data []byte,
) {
	type backgroundPayload struct {
		Type       string `json:"type"`
		Background string `json:"background"`
	}
	var p backgroundPayload
	if err := json.Unmarshal(data, &p); err != nil {
		log.Error().Err(err).Str("module", "signal").Msg("bad background payload")
		ctl.sendError(conn, "bad_payload")
		return
	}

	if err := ctl.Gateway.UpdateBackground(id, p.Background); err != nil {
		ctl.replyUpdateError(id, conn, err)
	}
}

// replyUpdateError maps gateway rejections to wire codes. A demoted
// operator sees unauthorized on every write; that is how it learns it
// was displaced when the notification policy is off.
func (ctl *Controller) replyUpdateError(id core.ConnID, conn *WsConn, err error) {
	switch {
	case errors.Is(err, domain.ErrUnauthorized):
		log.Warn().Str("module", "signal").Str("conn", string(id)).Msg("unauthorized mutation attempt")
		ctl.sendError(conn, "unauthorized")
	case errors.Is(err, domain.ErrRoomNotFound):
		ctl.sendError(conn, "room_not_found")
	default:
		log.Error().Err(err).Str("module", "signal").Str("conn", string(id)).Msg("update failed")
		ctl.sendError(conn, "update_failed")
	}
}

func (ctl *Controller) handlePing(conn *WsConn) {
	resp := struct {
		Type string `json:"type"`
	}{
		Type: "pong",
	}
	ctl.sendJSON(conn, resp)
}
