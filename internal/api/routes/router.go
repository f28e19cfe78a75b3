package routes

import (
	"github.com/gofiber/contrib/websocket"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"go.uber.org/zap"

	"github.com/calebhsu/swarmdesk/internal/api/handlers"
	"github.com/calebhsu/swarmdesk/internal/api/middleware"
	"github.com/calebhsu/swarmdesk/internal/config"
	"github.com/calebhsu/swarmdesk/internal/gateway"
	"github.com/calebhsu/swarmdesk/internal/knowledge"
	"github.com/calebhsu/swarmdesk/internal/security"
	"github.com/calebhsu/swarmdesk/internal/swarm"
)

// Dependencies holds all the dependencies for the router
type Dependencies struct {
	Config       *config.Config
	Logger       *zap.Logger
	Orchestrator *swarm.Orchestrator
	Store        *knowledge.Store
	Gateway      *gateway.Client
	Tokens       *security.TokenService
}

// Setup sets up the Fiber app with all routes
func Setup(deps *Dependencies) *fiber.App {
	app := fiber.New(fiber.Config{
		ErrorHandler: errorHandler,
	})

	// Middleware
	app.Use(recover.New())
	app.Use(logger.New())
	app.Use(middleware.SecurityHeaders())
	app.Use(cors.New(cors.Config{
		AllowOrigins: deps.Config.CORSAllowedOrigins,
		AllowMethods: "GET,POST,OPTIONS",
		AllowHeaders: "Origin,Content-Type,Accept,Authorization",
	}))

	// Health check
	app.Get("/health", func(c *fiber.Ctx) error {
		documents := 0
		if deps.Store != nil {
			if n, err := deps.Store.Count(c.Context()); err == nil {
				documents = n
			}
		}
		return c.JSON(fiber.Map{
			"status":          "healthy",
			"backend":         deps.Orchestrator.BackendName(),
			"gateway_enabled": deps.Orchestrator.GatewayEnabled(),
			"documents":       documents,
		})
	})

	// API v1
	v1 := app.Group("/api/v1", middleware.RateLimiter(deps.Config.RateLimitRequestsPerMinute))
	auth := middleware.AuthMiddleware(deps.Tokens)

	// Swarm routes
	swarmHandler := handlers.NewSwarmHandler(deps.Orchestrator)
	swarmGroup := v1.Group("/swarm", auth)
	swarmGroup.Post("/run", swarmHandler.RunSwarm)
	swarmGroup.Post("/runs", swarmHandler.StartRun)
	swarmGroup.Get("/runs/:id", swarmHandler.GetRun)

	// Knowledge base routes
	if deps.Store != nil {
		knowledgeHandler := handlers.NewKnowledgeHandler(deps.Store)
		kb := v1.Group("/knowledge", auth)
		kb.Post("/documents", knowledgeHandler.AddDocument)
		kb.Get("/search", knowledgeHandler.Search)
	}

	// Tool gateway passthrough. The route is always registered: an
	// unconfigured gateway answers through the client's unconfigured
	// behavior, never a 404.
	gw := deps.Gateway
	if gw == nil {
		gw = gateway.NewClient("", gateway.TransportHTTP, 0)
	}
	gatewayHandler := handlers.NewGatewayHandler(gw)
	v1.Post("/gateway", auth, gatewayHandler.Invoke)

	// WebSocket run event stream
	v1.Use("/ws", func(c *fiber.Ctx) error {
		if websocket.IsWebSocketUpgrade(c) {
			return c.Next()
		}
		return fiber.ErrUpgradeRequired
	})

	v1.Get("/ws/runs/:id", websocket.New(func(c *websocket.Conn) {
		defer c.Close()

		run, err := deps.Orchestrator.GetRun(c.Params("id"))
		if err != nil {
			_ = c.WriteJSON(fiber.Map{"error": "run not found"})
			return
		}

		// Drain the run's event stream; the channel closes when the run
		// reaches a terminal state
		for event := range run.Events() {
			if err := c.WriteJSON(event); err != nil {
				deps.Logger.Warn("run stream write failed",
					zap.String("run_id", run.ID),
					zap.Error(err))
				return
			}
		}

		if result := run.Result(); result != nil {
			_ = c.WriteJSON(fiber.Map{"type": "result", "result": result})
		}
	}))

	return app
}

// errorHandler handles errors globally
func errorHandler(c *fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError

	if e, ok := err.(*fiber.Error); ok {
		code = e.Code
	}

	return c.Status(code).JSON(fiber.Map{
		"error": err.Error(),
	})
}
