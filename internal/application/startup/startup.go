// Package startup prepares the application server
package startup

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/AtRiskMedia/vibecheck-go/internal/application/container"
	"github.com/AtRiskMedia/vibecheck-go/internal/infrastructure/observability/logging"
	"github.com/AtRiskMedia/vibecheck-go/internal/infrastructure/persistence/database"
	"github.com/AtRiskMedia/vibecheck-go/internal/infrastructure/security"
	"github.com/AtRiskMedia/vibecheck-go/internal/presentation/http/server"
	"github.com/AtRiskMedia/vibecheck-go/pkg/config"
	"github.com/gin-gonic/gin"
)

// Initialize performs the complete startup sequence and blocks until shutdown
func Initialize() error {
	setupGin()

	start := time.Now().UTC()

	ctx, cancelBackgroundTasks := context.WithCancel(context.Background())
	defer cancelBackgroundTasks()

	log.Println("\033[35m" + `
  _   _ _ _         ___ _           _
 | | | (_) |__  ___/ __| |_  ___ __| |__
 | |_| | | '_ \/ -_) (__| ' \/ -_) _| / /
  \___/|_|_.__/\___|\___|_||_\___\__|_\_\
` + "\033[0m")

	// Step 1: Logger
	logger, err := logging.NewChanneledLogger(&logging.LoggerConfig{
		OutputToFile:    config.LogToFile,
		OutputToConsole: true,
		LogDirectory:    config.LogDirectory,
		JSONFormat:      true,
		DefaultLevel:    logging.ParseLevel(config.LogLevel),
	})
	if err != nil {
		return fmt.Errorf("failed to create logger: %w", err)
	}
	defer logger.Close()
	logger.Startup().Info("Channeled logger initialized", "level", config.LogLevel, "toFile", config.LogToFile)

	jwtSecret, aesKey, err := resolveSecrets(logger)
	if err != nil {
		return err
	}

	// Step 2: Database and schema
	phaseStart := time.Now()
	db, err := database.Open(ctx, database.OptionsFromConfig(), logger)
	if err != nil {
		logger.LogStartupPhase("database", time.Since(phaseStart), false)
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer db.Close()

	if err := database.NewTableCreator(logger).CreateSchema(ctx, db); err != nil {
		logger.LogStartupPhase("database", time.Since(phaseStart), false)
		return fmt.Errorf("failed to create schema: %w", err)
	}
	logger.LogStartupPhase("database", time.Since(phaseStart), true)

	// Step 3: Dependency injection container
	phaseStart = time.Now()
	appContainer, err := container.NewContainer(db, logger, container.Options{
		JWTSecret: jwtSecret,
		AESKey:    aesKey,
	})
	if err != nil {
		logger.LogStartupPhase("container", time.Since(phaseStart), false)
		return fmt.Errorf("failed to create container: %w", err)
	}
	logger.LogStartupPhase("container", time.Since(phaseStart), true)

	// Step 4: WebSocket hub and background workers
	hubCtx, stopHub := context.WithCancel(ctx)
	go appContainer.Hub.Run(hubCtx)
	go appContainer.SessionCleanup.Start(ctx)
	logger.Startup().Info("WebSocket hub and session cleanup worker started")

	// Step 5: HTTP server
	httpServer := server.New(config.Port, appContainer)
	httpServer.OnShutdown(stopHub)

	gracefulShutdown := make(chan os.Signal, 1)
	signal.Notify(gracefulShutdown, syscall.SIGINT, syscall.SIGTERM)

	serverErr := make(chan error, 1)
	go func() {
		serverErr <- httpServer.Start()
	}()

	logger.Startup().Info("Application startup complete",
		"totalDuration", time.Since(start),
		"port", config.Port,
		"database", db.Driver,
		"transcription", config.AssemblyAIAPIKey != "")

	// Step 6: Wait for shutdown signal
	select {
	case <-gracefulShutdown:
		logger.Shutdown().Info("Shutdown signal received, starting graceful shutdown...")
	case err := <-serverErr:
		if err != nil {
			logger.Shutdown().Error("HTTP server failed", "error", err.Error())
			return err
		}
	}

	shutdownStart := time.Now()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	logger.Shutdown().Info("Stopping HTTP server...")
	if err := httpServer.Stop(shutdownCtx); err != nil {
		logger.Shutdown().Error("Error during server shutdown", "error", err.Error())
	} else {
		logger.Shutdown().Info("HTTP server stopped successfully")
	}

	logger.Shutdown().Info("Cancelling in-flight instagram connections...")
	if err := appContainer.OAuthService.Shutdown(shutdownCtx); err != nil {
		logger.Shutdown().Error("Error waiting for connect attempts", "error", err.Error())
	}

	// Cancel background tasks
	cancelBackgroundTasks()

	logger.Shutdown().Info("Application shutdown complete",
		"totalUptime", time.Since(start),
		"shutdownDuration", time.Since(shutdownStart))

	return nil
}

// resolveSecrets returns the configured JWT and AES keys, generating
// process-lifetime keys when they are unset.
func resolveSecrets(logger *logging.ChanneledLogger) (string, string, error) {
	jwtSecret := config.JWTSecret
	if jwtSecret == "" {
		generated, err := security.GenerateSecureKey(32)
		if err != nil {
			return "", "", fmt.Errorf("failed to generate JWT secret: %w", err)
		}
		jwtSecret = generated
		logger.Startup().Warn("JWT_SECRET not set, using an ephemeral secret; visitor cookies will not survive a restart")
	}

	aesKey := config.AESKey
	if aesKey == "" {
		generated, err := security.GenerateSecureKey(32)
		if err != nil {
			return "", "", fmt.Errorf("failed to generate AES key: %w", err)
		}
		aesKey = generated
		logger.Startup().Warn("AES_KEY not set, using an ephemeral key; stored instagram sessions will not survive a restart")
	}

	return jwtSecret, aesKey, nil
}

// setupGin configures gin and the standard logger
func setupGin() {
	if os.Getenv("GIN_MODE") == "release" {
		gin.SetMode(gin.ReleaseMode)
	}
	log.SetFlags(log.LstdFlags | log.Lshortfile)
}
