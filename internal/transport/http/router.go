package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"golang.org/x/time/rate"

	"github.com/go-otp-auth/internal/application/auth"
	"github.com/go-otp-auth/internal/application/notify"
	"github.com/go-otp-auth/internal/application/ratelimit"
	"github.com/go-otp-auth/internal/application/session"
	"github.com/go-otp-auth/internal/application/token"
	"github.com/go-otp-auth/internal/application/user"
	"github.com/go-otp-auth/internal/config"
	"github.com/go-otp-auth/internal/pkg/otp"
	"github.com/go-otp-auth/internal/transport/http/handler"
	appmiddleware "github.com/go-otp-auth/internal/transport/http/middleware"
)

// NewRouter builds and returns the application router.
func NewRouter(cfg *config.Config, deps *Deps) http.Handler {
	r := chi.NewRouter()
	r.Use(chimiddleware.Logger)
	r.Use(chimiddleware.Recoverer)
	r.Use(chimiddleware.RequestID)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	limiterSvc := ratelimit.NewService(deps.AttemptRepo, ratelimit.Config{
		Window:      cfg.RateLimitWindow,
		MaxAttempts: cfg.MaxLoginAttempts,
		Retention:   cfg.AttemptRetention,
		FailOpen:    cfg.RateLimitFailOpen,
	})
	tokenSvc := token.NewService(deps.RefreshTokenRepo, cfg.JWTSecret, cfg.AccessTokenTTL, cfg.RefreshTokenTTL)
	userSvc := user.NewService(deps.UserRepo)
	sessionSvc := session.NewService(deps.SessionRepo)
	dispatcher := notify.NewDispatcher(deps.Mailer, deps.SMSSender, cfg.OTPExpiry)
	authSvc := auth.NewService(
		deps.VerificationRepo,
		otp.NewGenerator(cfg.OTPLength),
		dispatcher,
		limiterSvc,
		userSvc,
		tokenSvc,
		sessionSvc,
		cfg.OTPExpiry,
	)

	// 5 requests/second, burst of 10 — applied to code-issuing public endpoints.
	sensitiveRL := appmiddleware.NewRateLimiter(rate.Limit(5), 10)
	authMw := appmiddleware.Auth(tokenSvc)

	healthH := handler.NewHealthHandler()
	emailH := handler.NewEmailAuthHandler(authSvc)
	phoneH := handler.NewPhoneAuthHandler(authSvc)
	tokenH := handler.NewTokenHandler(tokenSvc)
	sessionH := handler.NewSessionHandler(sessionSvc)

	r.Get("/health", healthH.Ping)

	r.Route("/auth", func(r chi.Router) {
		r.With(sensitiveRL.Limit).Post("/email/register", emailH.Register)
		r.Post("/email/verify", emailH.Verify)
		r.With(sensitiveRL.Limit).Post("/phone/register", phoneH.Register)
		r.Post("/phone/verify", phoneH.Verify)
		r.Post("/token/refresh", tokenH.Refresh)
		r.Post("/token/revoke", tokenH.Revoke)

		r.Group(func(r chi.Router) {
			r.Use(authMw)

			r.Get("/sessions", sessionH.List)
			r.Post("/sessions/{id}/end", sessionH.End)
		})
	})

	return r
}
