package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"runtime/debug"
	"syscall"
	"time"

	"github.com/common-nighthawk/go-figure"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"

	"github.com/screenvault/go-drive-gateway/auth"
	"github.com/screenvault/go-drive-gateway/delegation"
	"github.com/screenvault/go-drive-gateway/delegation/staterepo"
	"github.com/screenvault/go-drive-gateway/drive"
	"github.com/screenvault/go-drive-gateway/internal/config"
	"github.com/screenvault/go-drive-gateway/server"
	"github.com/screenvault/go-drive-gateway/sessions"
	"github.com/screenvault/go-drive-gateway/users"
)

func main() {
	for {
		if err := run(); err != nil {
			log.Fatal().Err(err).Msg("error running server")
			time.Sleep(1 * time.Second)
		} else {
			break
		}
	}
	log.Info().Msg("server stopped")
}

func run() (returnError error) {
	defer func() {
		if r := recover(); r != nil {
			log.Error().Interface("panic", r).Msg("recovered from panic")
			debug.PrintStack()
			returnError = errors.New("panic recovered")
		}
	}()

	c := config.New()
	displayAppname(c.GetAppName())

	logger := zerolog.New(os.Stderr).With().Timestamp().Logger()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	srv, err := buildServer(ctx, c, logger)
	if err != nil {
		return fmt.Errorf("buildServer: %w", err)
	}

	httpServer := &http.Server{Addr: c.GetPort(), Handler: srv}
	go listenAndServe(httpServer, logger)
	waitForStopSignal()
	returnError = shutdown(httpServer)
	return returnError
}

func buildServer(ctx context.Context, c config.Config, logger zerolog.Logger) (*server.Server, error) {
	userRepo := users.NewInMemoryRepo()

	authority, err := sessions.NewAuthority(sessions.NewInMemoryRepo(), c.GetSessionTTL(), logger)
	if err != nil {
		return nil, fmt.Errorf("sessions.NewAuthority: %w", err)
	}
	authority.StartSweeper(ctx, c.GetSessionSweepInterval())

	authService, err := auth.NewService(userRepo, authority)
	if err != nil {
		return nil, fmt.Errorf("auth.NewService: %w", err)
	}

	oauthConfig := &oauth2.Config{
		ClientID:     c.GetGoogleClientID(),
		ClientSecret: c.GetGoogleClientSecret(),
		RedirectURL:  c.GetGoogleRedirectURL(),
		Scopes:       c.GetDriveScopes(),
		Endpoint:     google.Endpoint,
	}

	broker, err := delegation.NewBroker(
		userRepo,
		staterepo.NewInMemoryRepo(),
		oauthConfig,
		c.GetStateSecret(),
		c.GetStateTimeout(),
		c.GetProviderTimeout(),
		logger,
	)
	if err != nil {
		return nil, fmt.Errorf("delegation.NewBroker: %w", err)
	}
	broker.StartSweeper(ctx, c.GetStateTimeout())

	driveClient := drive.NewClient(c.GetDriveBaseURL(), oauthConfig, c.GetProviderTimeout(), c.GetListPageSize(), logger)

	return server.New(c, authService, authority, broker, driveClient, logger)
}

func listenAndServe(server *http.Server, logger zerolog.Logger) {
	logger.Info().Str("addr", server.Addr).Msg("server listening")
	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Error().Err(err).Msg("server.ListenAndServe")
	}
}

func waitForStopSignal() {
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	<-stop
}

func shutdown(server *http.Server) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		return fmt.Errorf("server.Shutdown: %w", err)
	}
	return nil
}

func displayAppname(appname string) {
	myFigure := figure.NewFigure(appname, "cybermedium", true)
	myFigure.Print()
	fmt.Println()
}
