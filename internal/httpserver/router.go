package httpserver

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"skillswap/internal/config"
	"skillswap/internal/domain"
	"skillswap/internal/logger"
	"skillswap/internal/metrics"
	"skillswap/internal/security"
	"skillswap/internal/service"
	"skillswap/internal/ws"
)

// Deps are the long-lived objects the router serves. They are built once in
// main and shared by every request.
type Deps struct {
	Log      *zap.Logger
	Metrics  *metrics.Metrics
	Gatherer prometheus.Gatherer

	Tokens   *security.TokenService
	Sessions *Sessions
	Hub      *ws.Hub

	Notifications *service.NotificationService
	Swaps         *service.SwapService
	Messages      *service.MessageService
	Reviews       *service.ReviewService
	Directory     *service.DirectoryService
}

// NewRouter constructs the main HTTP router and wires routes, services, and middleware.
func NewRouter(cfg *config.Config, d Deps) http.Handler {
	log := logger.OrNop(d.Log)
	r := chi.NewRouter()

	// Middlewares
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(RequestLogger(log))
	r.Use(middleware.Recoverer)
	r.Use(Prometheus(d.Metrics))

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.CORSOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-CSRF-Token"},
		ExposedHeaders:   []string{"Link"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	r.Get("/", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"message": cfg.AppName, "version": "1.0.0"})
	})

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "healthy"})
	})

	if d.Gatherer != nil {
		r.Handle("/metrics", promhttp.HandlerFor(d.Gatherer, promhttp.HandlerOpts{}))
	}

	// API routes
	r.Route("/api", func(r chi.Router) {
		r.Use(middleware.Timeout(60 * time.Second))

		// Auth routes (no auth required)
		r.Route("/auth", func(r chi.Router) {
			r.Post("/register", handleRegister(d.Sessions, d.Tokens))
			r.Post("/login", handleLogin(d.Sessions, d.Tokens))
		})

		// Authenticated routes
		r.Group(func(r chi.Router) {
			r.Use(AuthMiddleware(d.Tokens, d.Sessions))

			r.Post("/auth/logout", handleLogout(d.Sessions))
			r.Get("/auth/me", handleMe())
			r.Patch("/auth/me", handleUpdateMe())

			r.Route("/users", func(r chi.Router) {
				r.Get("/", handleListUsers(d.Directory))
				r.Get("/{userID}", handleGetUser(d.Directory))
				r.Get("/{userID}/reviews", handleListUserReviews(d.Reviews))
			})

			r.Route("/notifications", func(r chi.Router) {
				r.Get("/", handleListNotifications(d.Notifications))
				r.Delete("/", handleClearNotifications(d.Notifications))
				r.Post("/read-all", handleMarkAllNotificationsRead(d.Notifications))
				r.Post("/{notificationID}/read", handleMarkNotificationRead(d.Notifications))
				r.Delete("/{notificationID}", handleRemoveNotification(d.Notifications))
			})

			r.Route("/swaps", func(r chi.Router) {
				r.Post("/", handleCreateSwap(d.Swaps))
				r.Get("/", handleListSwaps(d.Swaps.List))
				r.Get("/sent", handleListSwaps(d.Swaps.Sent))
				r.Get("/received", handleListSwaps(d.Swaps.Received))
				r.Get("/{swapID}", handleGetSwap(d.Swaps))
				r.Post("/{swapID}/accept", handleSwapTransition(d.Swaps.Accept))
				r.Post("/{swapID}/reject", handleSwapTransition(d.Swaps.Reject))
				r.Post("/{swapID}/cancel", handleSwapTransition(d.Swaps.Cancel))
				r.Post("/{swapID}/complete", handleSwapTransition(d.Swaps.Complete))
				r.Post("/{swapID}/reviews", handleCreateReview(d.Reviews))
			})

			r.Route("/conversations", func(r chi.Router) {
				r.Post("/", handleCreateConversation(d.Messages))
				r.Get("/", handleListConversations(d.Messages))
				r.Get("/{conversationID}", handleGetConversation(d.Messages))
				r.Post("/{conversationID}/read", handleMarkConversationRead(d.Messages))
				r.Get("/{conversationID}/messages", handleListMessages(d.Messages))
			})
			r.Post("/messages", handleCreateMessage(d.Messages))

			r.Mount("/uploads", UploadRoutes(cfg.UploadDir))
		})
	})

	// WebSocket endpoint
	if d.Hub != nil {
		authenticate := func(ctx context.Context, token string) (*domain.User, error) {
			_, sess, err := d.Sessions.Authenticate(ctx, d.Tokens, token)
			if err != nil {
				return nil, err
			}
			return sess.User(), nil
		}
		r.Get("/ws", ws.MakeHandler(d.Hub, authenticate, d.Messages, cfg.CORSOrigins, log))
	}

	return r
}

// writeJSON is a small helper to send JSON responses.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if v != nil {
		_ = json.NewEncoder(w).Encode(v)
	}
}
