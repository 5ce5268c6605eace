package app

import (
	"encoding/json"

	"github.com/rs/zerolog/log"

	"github.com/tkoskin/praisecast/internal/core"
	"github.com/tkoskin/praisecast/internal/domain"
)

// Outbound event types pushed over the wire. Inbound control messages
// reuse the same names where a broadcast mirrors the command.
const (
	EvOperatorJoined    = "operator:joined"
	EvViewerJoined      = "viewer:joined"
	EvSlideUpdate       = "slide:update"
	EvBackgroundUpdate  = "background:update"
	EvViewerCount       = "room:viewerCount"
	EvOperatorDisplaced = "operator:displaced"
	EvRoomClosed        = "room:closed"
)

type typeOnlyEvent struct {
	Type string `json:"type"`
}

type snapshotEvent struct {
	Type       string          `json:"type"`
	PIN        domain.PIN      `json:"pin"`
	Slide      domain.SlideRef `json:"slide"`
	Background string          `json:"background,omitempty"`
	Theme      string          `json:"theme,omitempty"`
}

type slideEvent struct {
	Type  string          `json:"type"`
	Slide domain.SlideRef `json:"slide"`
}

type backgroundEvent struct {
	Type       string `json:"type"`
	Background string `json:"background"`
}

type viewerCountEvent struct {
	Type  string `json:"type"`
	Count int    `json:"count"`
}

func encode(v any) core.Frame {
	b, err := json.Marshal(v)
	if err != nil {
		log.Error().Err(err).Str("module", "app.events").Msg("encode event")
		return nil
	}
	return b
}

func snapshotFrame(snap domain.Snapshot) core.Frame {
	return encode(snapshotEvent{
		Type:       EvViewerJoined,
		PIN:        snap.PIN,
		Slide:      snap.Slide,
		Background: snap.Background,
		Theme:      snap.ThemeID,
	})
}
