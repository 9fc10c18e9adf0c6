package app

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"net/url"
	"os"
	"os/signal"
	"syscall"

	"github.com/gin-gonic/gin"

	"github.com/adanyl0v/project-manager/internal/config"
	"github.com/adanyl0v/project-manager/internal/delivery/http/web"
	"github.com/adanyl0v/project-manager/internal/services"
)

func MustListenAndServeHTTP() {
	cfg := config.Global()
	if cfg.Env != config.EnvLocal {
		gin.SetMode(gin.ReleaseMode)
	}

	httpCfg := cfg.HTTP

	router := gin.New()
	router.Use(gin.Recovery())
	web.RegisterRoutes(router, newWebHandler())

	server := &http.Server{
		Addr:    net.JoinHostPort(httpCfg.Host, httpCfg.Port),
		Handler: router,
	}

	go func() {
		globalLogger.Info().
			Str("host", httpCfg.Host).
			Str("port", httpCfg.Port).
			Msg("setting up http server")
		err := server.ListenAndServe()
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			globalLogger.Error().
				Err(err).
				Msg("failed to listen and serve http")
			panic(err)
		}
	}()

	// Wait for the interrupt signal to gracefully
	// shut down the server with a timeout.
	quit := make(chan os.Signal, 1)
	// kill (no params) by default sends syscall.SIGTERM
	// kill -2 is syscall.SIGINT
	// kill -9 is syscall.SIGKILL but can't be caught, so don't need to add it
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	globalLogger.Info().
		Msg("shutting down http server")

	ctx, cancel := context.WithTimeout(context.Background(), httpCfg.ShutdownTimeout)
	defer cancel()

	err := server.Shutdown(ctx)
	if err != nil {
		globalLogger.Error().
			Err(err).
			Msg("failed to shutdown http server")
		panic(err)
	}
	globalLogger.Info().Msg("shut down http server")
}

func newWebHandler() web.Handler {
	cfg := config.Global()
	authCfg := cfg.Auth

	userManager := services.NewUserManager(
		globalLogger.With().Str("component", "users").Logger(),
		globalPostgresPool,
		globalRedisClient,
		authCfg.EmailConfirmationTTL,
	)
	signInManager := services.NewSignInManager(
		globalLogger.With().Str("component", "sign_in").Logger(),
		globalPostgresPool,
		userManager,
		services.SignInManagerConfig{
			Issuer:                authCfg.Issuer,
			SigningKey:            []byte(authCfg.SigningKey),
			SessionTTL:            authCfg.SessionTTL,
			RememberMeTTL:         authCfg.RememberMeTTL,
			RequireConfirmedEmail: authCfg.RequireConfirmedEmail,
		},
	)

	return web.New(
		globalLogger.With().Str("component", "web").Logger(),
		services.NewTaskService(globalLogger.With().Str("component", "tasks").Logger(), globalPostgresPool),
		services.NewProjectService(globalLogger.With().Str("component", "projects").Logger(), globalPostgresPool),
		userManager,
		signInManager,
		newEmailSender(),
		mustPublicURL(cfg.HTTP.PublicURL),
		web.CookieConfig{
			Name:   authCfg.CookieName,
			Secure: authCfg.CookieSecure,
		},
	)
}

func mustPublicURL(raw string) string {
	err := validatePublicURL(raw)
	if err != nil {
		globalLogger.Error().
			Err(err).
			Str("public_url", raw).
			Msg("invalid public url")
		panic(err)
	}
	return raw
}

func validatePublicURL(raw string) error {
	u, err := url.Parse(raw)
	if err != nil {
		return fmt.Errorf("failed to parse url: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("unsupported scheme: %q", u.Scheme)
	}
	if u.Host == "" {
		return errors.New("missing host")
	}
	if u.RawQuery != "" || u.Fragment != "" {
		return errors.New("query and fragment are not allowed")
	}
	return nil
}
