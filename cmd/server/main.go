package main

import (
	"context"
	"log/slog"
	"net/http"
	"net/url"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gorilla/csrf"
	"github.com/gorilla/sessions"

	"github.com/evergreenmart/storefront/internal/backend"
	"github.com/evergreenmart/storefront/internal/config"
	"github.com/evergreenmart/storefront/internal/handlers"
	"github.com/evergreenmart/storefront/internal/store"
)

func main() {
	// Configure slog to output DEBUG level messages
	// This should be done as early as possible in main
	handlerOpts := &slog.HandlerOptions{
		Level: slog.LevelDebug,
	}
	// Using TextHandler for console readability; for production JSONHandler might be preferred.
	logger := slog.New(slog.NewTextHandler(os.Stdout, handlerOpts))
	slog.SetDefault(logger)

	// 1. Load Configuration
	cfg, err := config.LoadConfig()
	if err != nil {
		slog.Error("Failed to load configuration", "error", err)
		os.Exit(1)
	}

	// 2. Backend API client + in-memory cart/checkout state
	apiClient := backend.New(cfg.StoreAPIURL, cfg.StoreAPITimeout)
	db := store.NewStore(cfg.CheckoutTTL)
	defer db.Close()

	// 3. Session Setup
	sessionStore := sessions.NewCookieStore(cfg.SessionKey)
	sessionStore.Options.HttpOnly = true
	sessionStore.Options.Secure = cfg.CookieSecure // Configurable for production
	sessionStore.Options.SameSite = http.SameSiteLaxMode
	sessionStore.Options.Path = "/"
	if cfg.CookieDomain != "" {
		sessionStore.Options.Domain = cfg.CookieDomain
	}

	// 4. Setup Handlers
	checkoutHandler := &handlers.CheckoutHandler{
		Store:        db,
		Backend:      apiClient,
		SessionStore: sessionStore,
	}
	cartHandler := &handlers.CartHandler{
		Store:        db,
		Backend:      apiClient,
		SessionStore: sessionStore,
	}
	catalogHandler := &handlers.CatalogHandler{
		Backend: apiClient,
	}
	apiHost := ""
	if u, err := url.Parse(cfg.StoreAPIURL); err == nil {
		apiHost = u.Host
	}
	thumbHandler := &handlers.ThumbnailHandler{
		Client:      &http.Client{Timeout: cfg.StoreAPITimeout},
		AllowedHost: apiHost,
	}

	mux := http.NewServeMux()

	// Rate Limiter for OTP sends (1 request per 10 seconds per IP; the
	// per-session resend countdown is enforced separately)
	otpLimiter := handlers.NewRateLimiter(10 * time.Second)

	// Catalog + cart
	mux.HandleFunc("GET /api/products", catalogHandler.List)
	mux.HandleFunc("GET /api/cart", cartHandler.Get)
	mux.HandleFunc("POST /api/cart/items", cartHandler.AddItem)
	mux.HandleFunc("POST /api/cart/items/update", cartHandler.UpdateItem)
	mux.HandleFunc("POST /api/cart/clear", cartHandler.Clear)

	// Checkout flow
	mux.HandleFunc("GET /api/checkout", checkoutHandler.State)
	mux.HandleFunc("POST /api/checkout/start", checkoutHandler.Start)
	mux.HandleFunc("POST /api/checkout/form", checkoutHandler.UpdateForm)
	mux.HandleFunc("POST /api/checkout/step", checkoutHandler.SetStep)
	mux.HandleFunc("POST /api/checkout/otp/send", otpLimiter.Middleware(checkoutHandler.SendOTP))
	mux.HandleFunc("POST /api/checkout/otp/verify", checkoutHandler.VerifyOTP)
	mux.HandleFunc("POST /api/checkout/submit", checkoutHandler.Submit)
	mux.HandleFunc("POST /api/checkout/cancel", checkoutHandler.Cancel)

	// Thumbnails + health
	mux.HandleFunc("GET /img/thumb", thumbHandler.Thumb)
	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	// 5. Middleware Setup
	CSRF := csrf.Protect(
		cfg.CSRFKey,
		csrf.Secure(cfg.CookieSecure), // Configurable for production
		// Trust local development origins
		csrf.TrustedOrigins([]string{"localhost:" + cfg.Port, "127.0.0.1:" + cfg.Port, "localhost", "127.0.0.1"}),
	)

	// Wrap the router with middleware chain
	// Chain: Logger -> Security Headers -> CSRF -> Mux
	handler := handlers.LoggingMiddleware(
		handlers.SecurityHeadersMiddleware(
			CSRF(mux),
		),
	)

	// 6. Start Server with Graceful Shutdown
	server := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: handler,
	}

	// Create a channel to listen for OS signals
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	// Goroutine to start the server
	go func() {
		slog.Info("Server starting", "port", cfg.Port, "backend", cfg.StoreAPIURL)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("Server failed to listen and serve", "error", err)
			os.Exit(1)
		}
	}()

	// Block until a signal is received
	<-stop

	slog.Info("Shutting down server gracefully...")

	// Create a deadline to wait for.
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		slog.Error("Server shutdown failed", "error", err)
		os.Exit(1)
	}

	slog.Info("Server exited gracefully.")
}
