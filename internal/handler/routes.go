package handler

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-chi/httprate"
	"github.com/msomdec/skill-match/internal/service"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Deps are the services and settings the router is built from.
type Deps struct {
	Auth         *service.AuthService
	Verification *service.VerificationService
	Messages     *service.MessageService
	Profiles     *service.ProfileService
	Teams        *service.TeamService
	// LiveChannel serves /ws. It is optional.
	LiveChannel http.Handler

	AllowedOrigins  []string
	LoginRateLimit  int // Per IP per window; 0 disables
	LoginRateWindow time.Duration
	// StatusStreamInterval and StatusStreamTimeout tune the verification
	// status SSE stream. Zero values take defaults.
	StatusStreamInterval time.Duration
	StatusStreamTimeout  time.Duration
}

// NewRouter sets up all HTTP routes.
func NewRouter(d Deps) http.Handler {
	authHandler := NewAuthHandler(d.Auth, d.Verification)
	streamHandler := NewStatusStreamHandler(d.Verification, d.StatusStreamInterval, d.StatusStreamTimeout)
	messageHandler := NewMessageHandler(d.Messages)
	profileHandler := NewProfileHandler(d.Profiles)
	teamHandler := NewTeamHandler(d.Teams)
	requireAuth := RequireAuth(d.Auth)

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(SecurityHeaders)
	r.Use(RequestLogger)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   d.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	r.Get("/healthz", HandleHealthz)
	r.Handle("/metrics", promhttp.Handler())
	if d.LiveChannel != nil {
		r.Handle("/ws", d.LiveChannel)
	}

	r.Route("/api", func(r chi.Router) {
		r.Route("/auth", func(r chi.Router) {
			r.Post("/register", authHandler.HandleRegister)
			r.Post("/verify-email", authHandler.HandleVerifyEmail)
			r.Post("/resend-verification-email", authHandler.HandleResendVerification)
			r.Get("/check-verification-status", authHandler.HandleCheckVerificationStatus)
			r.Get("/verification-status/stream", streamHandler.ServeHTTP)
			r.With(loginLimiter(d.LoginRateLimit, d.LoginRateWindow)).Post("/login", authHandler.HandleLogin)
			r.With(requireAuth).Get("/me", authHandler.HandleMe)
		})

		r.Route("/messages", func(r chi.Router) {
			r.Use(requireAuth)
			r.Post("/getMsg", messageHandler.HandleGetMessages)
			r.Post("/addMsg", messageHandler.HandleAddMessage)
		})

		r.Route("/profiles", func(r chi.Router) {
			r.Get("/", profileHandler.HandleList)
			r.Get("/{id}", profileHandler.HandleGet)
			r.With(requireAuth).Post("/", profileHandler.HandleCreate)
			r.With(requireAuth).Put("/{id}", profileHandler.HandleUpdate)
			r.With(requireAuth).Delete("/{id}", profileHandler.HandleDelete)
		})

		r.Route("/teams", func(r chi.Router) {
			r.Get("/", teamHandler.HandleList)
			r.Get("/{id}", teamHandler.HandleGet)
			r.With(requireAuth).Post("/", teamHandler.HandleCreate)
			r.With(requireAuth).Put("/{id}", teamHandler.HandleUpdate)
			r.With(requireAuth).Delete("/{id}", teamHandler.HandleDelete)
		})
	})

	return r
}

// loginLimiter allows limit login attempts per client IP per window.
func loginLimiter(limit int, window time.Duration) func(http.Handler) http.Handler {
	if limit <= 0 {
		return func(next http.Handler) http.Handler { return next }
	}
	return httprate.Limit(limit, window,
		httprate.WithKeyFuncs(httprate.KeyByIP),
		httprate.WithLimitHandler(func(w http.ResponseWriter, r *http.Request) {
			writeError(w, http.StatusTooManyRequests, "TooManyRequests", "Too many login attempts, try again later.")
		}),
	)
}
