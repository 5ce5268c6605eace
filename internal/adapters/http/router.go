package http

import (
	"context"

	"github.com/gin-contrib/sessions"
	"github.com/gin-contrib/sessions/cookie"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/tkoskin/praisecast/internal/adapters/signal"
	"github.com/tkoskin/praisecast/internal/app"
	"github.com/tkoskin/praisecast/internal/config"
	"github.com/tkoskin/praisecast/internal/store"
)

// ClientTokenMiddleware issues a stable per-browser token. It stands in
// for real authentication: public room and screen records are scoped to
// it, and the signal controller tags operator identity with it.
func ClientTokenMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		token, _ := c.Cookie("ct")
		if token == "" {
			token = uuid.NewString()
			c.SetCookie("ct", token, 3600*24*7, "/", "", false, true)
		}
		c.Set("client_token", token)
		c.Next()
	}
}

func SetupRouter(
	ctx context.Context,
	cfg *config.Config,
	gw *app.Gateway,
	publicRooms *store.PublicRooms,
	screens *store.Screens,
) *gin.Engine {
	ctl := signal.NewController(gw, cfg.ReadLimit, cfg.PingPeriod)

	if cfg.Mode == "release" {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	if cfg.Mode == "debug" {
		r.Use(gin.Logger())
	}
	r.Use(gin.Recovery())

	cookieStore := cookie.NewStore([]byte(cfg.Secret))
	r.Use(sessions.Sessions("PraisecastSessions", cookieStore))
	r.Use(ClientTokenMiddleware())

	log.Info().Str("module", "adapters.http").Msg("router setup")

	api := r.Group("/api")

	api.GET("/ws", func(c *gin.Context) {
		log.Info().Str("module", "adapters.http").Str("user", c.GetString("client_token")).Msg("ws endpoint hit")
		ctl.HandleWS(ctx, c)
	})

	pr := &publicRoomHandlers{store: publicRooms}
	api.POST("/public-rooms", pr.create)
	api.GET("/public-rooms", pr.list)
	api.DELETE("/public-rooms/:id", pr.remove)
	// Resolution is public: a viewer joining by name has no account.
	api.GET("/public-rooms/resolve/:slug", pr.resolve)

	sc := &screenHandlers{store: screens, gateway: gw}
	api.POST("/screens", sc.create)
	api.GET("/screens", sc.list)
	api.DELETE("/screens/:screenId", sc.remove)
	// Resolution is public and unauthenticated; remote screens poll it
	// on a fixed interval and only ever learn the owner's current PIN.
	api.GET("/screens/:ownerId/:screenId", sc.resolve)

	return r
}
