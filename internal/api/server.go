package api

import (
	"net/http"
	"time"

	"github.com/isdelr/devserver/internal/config"
	"github.com/isdelr/devserver/internal/services"
	"github.com/isdelr/devserver/internal/websocket"
)

const (
	readHeaderTimeout = 10 * time.Second
	idleTimeout       = 120 * time.Second
)

// NewServer builds an HTTP server from explicit configuration. Nothing is
// process-global, so several servers can coexist in one process.
// Request bodies have no read deadline.
func NewServer(cfg *config.Config, hub *websocket.Hub, backupService services.BackupServiceProvider, eventService services.EventServiceProvider) *http.Server {
	return &http.Server{
		Addr:              cfg.Addr(),
		Handler:           NewRouter(cfg, hub, backupService, eventService),
		ReadHeaderTimeout: readHeaderTimeout,
		IdleTimeout:       idleTimeout,
	}
}
