package hosting

import (
	"fmt"
	"log/slog"

	"github.com/contre95/soulwrite/src/features/config"
	"github.com/contre95/soulwrite/src/features/jobs"
	"github.com/contre95/soulwrite/src/features/library"
	"github.com/contre95/soulwrite/src/features/metrics"
	"github.com/contre95/soulwrite/src/features/naming"
	"github.com/contre95/soulwrite/src/features/organizing"
	"github.com/contre95/soulwrite/src/features/readonly"
	"github.com/contre95/soulwrite/src/features/recycling"
	"github.com/contre95/soulwrite/src/features/writeback"
	"github.com/contre95/soulwrite/src/music"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/recover"
)

// Services are the features exposed over HTTP.
type Services struct {
	Library   *library.Service
	Writeback *writeback.Service
	Resolver  *readonly.Resolver
	Recycle   *recycling.Queue
	Catalog   *naming.Catalog
	Engine    *organizing.Engine
	Tracks    music.Library
	Jobs      *jobs.Service
	Metrics   *metrics.Service
}

// Server is the HTTP server for the application.
type Server struct {
	app  *fiber.App
	port uint32
}

// NewServer creates a new HTTP server.
func NewServer(cfg *config.Manager, svc Services) *Server {
	app := fiber.New(fiber.Config{
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			code := fiber.StatusInternalServerError
			if e, ok := err.(*fiber.Error); ok {
				code = e.Code
			}
			if code >= fiber.StatusInternalServerError {
				slog.Error("Internal Server Error", "error", err)
			}
			return c.Status(code).JSON(fiber.Map{"error": err.Error()})
		},
		AppName:               "Soulwrite",
		DisableStartupMessage: true,
		EnablePrintRoutes:     cfg.Get().Server.PrintRoutes,
		BodyLimit:             64 * 1024 * 1024, // artwork uploads travel inside the edit body
	})

	app.Use(recover.New())
	app.Use(LogAllRequestsMiddleware())

	app.Get("/health", func(c *fiber.Ctx) error {
		return c.SendString("OK")
	})

	config.RegisterRoutes(app, cfg)
	library.RegisterRoutes(app, svc.Library)
	naming.RegisterRoutes(app, svc.Catalog, svc.Engine, svc.Tracks, cfg)
	writeback.RegisterRoutes(app, svc.Writeback)
	readonly.RegisterRoutes(app, svc.Resolver)
	recycling.RegisterRoutes(app, svc.Recycle, svc.Jobs)
	jobs.RegisterRoutes(app, svc.Jobs)
	metrics.RegisterRoutes(app, metrics.NewHandler(svc.Metrics))

	return &Server{app: app, port: cfg.Get().Server.Port}
}

// App returns the underlying fiber app.
func (s *Server) App() *fiber.App {
	return s.app
}

// Start starts the HTTP server.
func (s *Server) Start() error {
	return s.app.Listen(":" + fmt.Sprint(s.port))
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown() error {
	return s.app.Shutdown()
}
