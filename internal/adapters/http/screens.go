package http

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"github.com/tkoskin/praisecast/internal/app"
	"github.com/tkoskin/praisecast/internal/domain"
	"github.com/tkoskin/praisecast/internal/store"
)

type screenHandlers struct {
	store   *store.Screens
	gateway *app.Gateway
}

type createScreenRequest struct {
	Name        string            `json:"name" binding:"required"`
	DisplayType string            `json:"displayType" binding:"required"`
	Config      map[string]string `json:"config"`
}

func (h *screenHandlers) create(c *gin.Context) {
	owner := c.GetString("client_token")

	var req createScreenRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "missing name or display type"})
		return
	}

	rec, err := h.store.Create(owner, req.Name, domain.DisplayType(req.DisplayType), req.Config)
	switch {
	case errors.Is(err, store.ErrInvalidDisplayType):
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid_display_type"})
	case err != nil:
		log.Error().Err(err).Str("module", "adapters.http").Msg("create screen")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal"})
	default:
		c.JSON(http.StatusCreated, rec)
	}
}

func (h *screenHandlers) list(c *gin.Context) {
	owner := c.GetString("client_token")
	recs, err := h.store.ListByOwner(owner)
	if err != nil {
		log.Error().Err(err).Str("module", "adapters.http").Msg("list screens")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal"})
		return
	}
	c.JSON(http.StatusOK, recs)
}

func (h *screenHandlers) remove(c *gin.Context) {
	owner := c.GetString("client_token")
	if err := h.store.Delete(owner, c.Param("screenId")); err != nil {
		log.Error().Err(err).Str("module", "adapters.http").Msg("delete screen")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal"})
		return
	}
	c.Status(http.StatusNoContent)
}

type screenView struct {
	Name        string             `json:"name"`
	DisplayType domain.DisplayType `json:"displayType"`
	Config      map[string]string  `json:"config,omitempty"`
}

type roomView struct {
	Pin   domain.PIN `json:"pin"`
	Theme string     `json:"theme,omitempty"`
}

type resolveScreenResponse struct {
	Screen screenView `json:"screen"`
	Room   *roomView  `json:"room"`
}

// resolve answers the remote screen poll. An unknown (owner, screen)
// pair is a hard 404; an owner who simply is not presenting yields
// room=null, which clients render as waiting, not as an error.
func (h *screenHandlers) resolve(c *gin.Context) {
	rec, err := h.store.Get(c.Param("ownerId"), c.Param("screenId"))
	if errors.Is(err, domain.ErrScreenNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "screen_not_found"})
		return
	}
	if err != nil {
		log.Error().Err(err).Str("module", "adapters.http").Msg("resolve screen")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal"})
		return
	}

	resp := resolveScreenResponse{
		Screen: screenView{
			Name:        rec.Name,
			DisplayType: rec.DisplayType,
			Config:      rec.Config,
		},
	}

	if snap, ok := h.gateway.ActiveRoomFor(rec.OwnerID); ok {
		theme := snap.ThemeID
		// A screen-level theme override beats the room's theme.
		if t, ok := rec.Config["theme"]; ok && t != "" {
			theme = t
		}
		resp.Room = &roomView{Pin: snap.PIN, Theme: theme}
	}

	c.JSON(http.StatusOK, resp)
}
