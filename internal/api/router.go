package api

import (
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/isdelr/devserver/internal/api/handlers"
	"github.com/isdelr/devserver/internal/config"
	"github.com/isdelr/devserver/internal/services"
	"github.com/isdelr/devserver/internal/websocket"
)

// NewRouter creates and configures a new Chi router.
// POST /backup and /api/v1 are handled here; every other GET/HEAD goes to the file server.
func NewRouter(cfg *config.Config, hub *websocket.Hub, backupService services.BackupServiceProvider, eventService services.EventServiceProvider) *chi.Mux {
	r := chi.NewRouter()

	// Basic middleware stack
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	// The browser app may be opened from a different dev origin.
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: cfg.AllowedOrigins,
		AllowedMethods: []string{"GET", "HEAD", "POST", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type"},
		MaxAge:         300,
	}))

	// Initialize handlers
	staticHandler := handlers.NewStaticHandler(cfg.StaticRoot)
	backupHandler := handlers.NewBackupHandler(backupService, cfg.MaxBackupBytes)
	eventHandler := handlers.NewEventHandler(eventService)
	wsHandler := handlers.NewWebSocketHandler(hub)

	r.MethodNotAllowed(staticHandler.Unsupported)

	r.Post("/backup", backupHandler.Create)

	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/health", handlers.Health)
		r.Get("/ws", wsHandler.Serve)
		r.Get("/events", eventHandler.GetRecent)

		r.Route("/backups", func(r chi.Router) {
			r.Get("/", backupHandler.GetAll)
			r.Route("/{backupId}", func(r chi.Router) {
				r.Get("/", backupHandler.Get)
				r.Get("/download", backupHandler.Download)
			})
		})
	})

	r.Get("/*", staticHandler.Serve)
	r.Head("/*", staticHandler.Serve)

	return r
}
