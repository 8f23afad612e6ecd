package ws

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"

	"github.com/dkeye/hanamikoji/internal/app"
	"github.com/dkeye/hanamikoji/internal/config"
)

type Controller struct {
	Service *app.Service
	Hub     *app.Hub

	cfg     *config.Config
	limiter *RateLimiter
}

func NewController(cfg *config.Config, svc *app.Service, hub *app.Hub) *Controller {
	return &Controller{
		Service: svc,
		Hub:     hub,
		cfg:     cfg,
		limiter: NewRateLimiter(cfg.IntentRate, time.Second),
	}
}

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

// HandleGame upgrades the request and starts the connection's pumps.
// The client token cookie is the connection id.
func (ctl *Controller) HandleGame(ctx context.Context, c *gin.Context) {
	connID := app.ConnID(c.GetString("client_token"))
	log.Info().Str("module", "ws").Str("conn", string(connID)).Msg("new WS connection")

	sock, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		log.Error().Err(err).Str("module", "ws").Msg("ws upgrade")
		return
	}
	sock.SetReadLimit(ctl.cfg.ReadLimit)

	conn := newGameConn(sock, ctl.cfg.SendBuffer)
	ctx, cancel := context.WithCancel(ctx)
	ctl.Service.Registry.Register(connID, conn, cancel)

	go ctl.writePump(ctx, conn)
	go ctl.readPump(ctx, connID, conn)
}
