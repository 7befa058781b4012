package routes

import (
	"ubuhinzi360/server/internal/handlers"
	"ubuhinzi360/server/internal/metrics"
	"ubuhinzi360/server/internal/middleware"

	"github.com/gofiber/contrib/websocket"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// SetupRoutes configures all application routes
func SetupRoutes(app *fiber.App, h *handlers.Handler) {
	auth := middleware.Auth(h.JWTSecret, func(userID string) bool {
		_, found := h.State.User(userID)
		return found
	})

	// Prometheus metrics (public)
	app.Get("/metrics", adaptor.HTTPHandler(promhttp.HandlerFor(metrics.Registry, promhttp.HandlerOpts{})))

	// API v1 group
	api := app.Group("/api/v1")

	// Health check (public)
	api.Get("/health", h.Health)

	// Session routes
	session := api.Group("/session")
	session.Post("/", middleware.StrictRateLimiter(), h.CreateSession)
	session.Get("/me", auth, h.GetMe)
	session.Post("/logout", auth, h.Logout)

	// Connection workflow (protected)
	connections := api.Group("/connections", auth, middleware.ModerateRateLimiter())
	connections.Get("/requests", h.GetPendingRequests)
	connections.Get("/history", h.GetRequestHistory)
	connections.Post("/requests", h.SendConnectionRequest)
	connections.Post("/link", h.ConnectWithLink)
	connections.Post("/requests/:fromUserId/accept", h.AcceptConnectionRequest)
	connections.Post("/requests/:fromUserId/reject", h.RejectConnectionRequest)

	// Directory and profile (protected)
	api.Get("/users", auth, h.ListUsers)
	api.Get("/users/:id", auth, h.GetUser)
	profile := api.Group("/profile", auth)
	profile.Put("/", h.UpdateProfile)
	profile.Put("/link", h.UpdateProfileLink)
	profile.Post("/link/rotate", h.RotateProfileLink)
	blocked := api.Group("/blocked", auth)
	blocked.Get("/", h.GetBlockedUsers)
	blocked.Post("/:userId", h.BlockUser)
	blocked.Delete("/:userId", h.UnblockUser)

	// Conversations (protected)
	conversations := api.Group("/conversations", auth)
	conversations.Get("/", h.GetConversations)
	conversations.Post("/direct", h.StartDirect)
	conversations.Post("/group", h.CreateGroup)
	conversations.Get("/:id", h.GetConversation)
	conversations.Post("/:id/messages", middleware.ModerateRateLimiter(), h.SendMessage)

	// Dashboard and preferences (protected)
	api.Get("/activity", auth, h.GetActivity)
	api.Get("/settings", auth, h.GetSettings)
	api.Put("/settings", auth, h.UpdateSettings)

	// Community boards (protected)
	posts := api.Group("/posts", auth)
	posts.Get("/", h.GetPosts)
	posts.Post("/", middleware.ModerateRateLimiter(), h.CreatePost)
	posts.Post("/:id/comments", middleware.ModerateRateLimiter(), h.CommentOnPost)
	posts.Post("/:id/like", h.LikePost)
	plots := api.Group("/plots", auth)
	plots.Get("/", h.GetPlots)
	plots.Post("/", h.CreatePlot)
	plots.Get("/:id", h.GetPlot)
	plots.Put("/:id", h.UpdatePlot)
	api.Get("/products", auth, h.GetProducts)
	api.Post("/products", auth, h.CreateProduct)
	api.Get("/alerts", auth, h.GetAlerts)
	api.Post("/alerts", auth, h.CreateAlert)

	// Assistant (protected)
	assistant := api.Group("/assistant", auth, middleware.AssistantRateLimiter())
	assistant.Post("/tips", h.GetTips)
	assistant.Post("/yield", h.EstimateYield)
	assistant.Post("/directions", h.GetDirections)

	// Upload routes (protected)
	uploads := api.Group("/upload", auth)
	uploads.Post("/file", middleware.UploadRateLimiter(), h.UploadFile)

	// Serve uploaded files (public)
	app.Get("/uploads/:type/:filename", h.GetFile)

	// WebSocket route (protected)
	api.Get("/ws", auth, h.WebSocketUpgrade, websocket.New(h.WebSocketHandler))

	// WebSocket stats (protected, for debugging)
	api.Get("/ws/stats", auth, h.GetWebSocketStats)
}
