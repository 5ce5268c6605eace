package http

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"github.com/tkoskin/praisecast/internal/domain"
	"github.com/tkoskin/praisecast/internal/store"
)

type publicRoomHandlers struct {
	store *store.PublicRooms
}

type createPublicRoomRequest struct {
	Name string `json:"name" binding:"required"`
}

func (h *publicRoomHandlers) create(c *gin.Context) {
	owner := c.GetString("client_token")

	var req createPublicRoomRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "missing or invalid name"})
		return
	}

	rec, err := h.store.Create(owner, req.Name)
	switch {
	case errors.Is(err, domain.ErrEmptySlug):
		c.JSON(http.StatusBadRequest, gin.H{"error": "empty_slug"})
	case errors.Is(err, domain.ErrDuplicateSlug):
		c.JSON(http.StatusConflict, gin.H{"error": "duplicate_slug"})
	case err != nil:
		log.Error().Err(err).Str("module", "adapters.http").Msg("create public room")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal"})
	default:
		c.JSON(http.StatusCreated, rec)
	}
}

func (h *publicRoomHandlers) list(c *gin.Context) {
	owner := c.GetString("client_token")
	recs, err := h.store.ListByOwner(owner)
	if err != nil {
		log.Error().Err(err).Str("module", "adapters.http").Msg("list public rooms")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal"})
		return
	}
	c.JSON(http.StatusOK, recs)
}

func (h *publicRoomHandlers) remove(c *gin.Context) {
	owner := c.GetString("client_token")
	if err := h.store.Delete(owner, c.Param("id")); err != nil {
		log.Error().Err(err).Str("module", "adapters.http").Msg("delete public room")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal"})
		return
	}
	c.Status(http.StatusNoContent)
}

// resolve maps a slug to the active PIN. "Offline" is an expected state
// shown as waiting by clients, distinct from an unknown slug.
func (h *publicRoomHandlers) resolve(c *gin.Context) {
	pin, err := h.store.ResolveBySlug(c.Param("slug"))
	switch {
	case errors.Is(err, domain.ErrPublicRoomNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "not_found"})
	case errors.Is(err, domain.ErrRoomOffline):
		c.JSON(http.StatusOK, gin.H{"offline": true})
	case err != nil:
		log.Error().Err(err).Str("module", "adapters.http").Msg("resolve public room")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal"})
	default:
		c.JSON(http.StatusOK, gin.H{"pin": pin})
	}
}
