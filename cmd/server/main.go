package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/sof-extractor/backend/internal/api"
	"github.com/sof-extractor/backend/internal/config"
	"github.com/sof-extractor/backend/internal/logging"
	"github.com/sof-extractor/backend/internal/processor"
	"github.com/sof-extractor/backend/internal/web"
)

// Version info (set during build)
var (
	Version   = "dev"
	BuildTime = "unknown"
)

const shutdownTimeout = 15 * time.Second

func main() {
	if err := config.LoadDotEnv(); err != nil {
		fmt.Printf("Failed to load .env: %v\n", err)
		os.Exit(1)
	}

	configPath, err := resolveConfigPath()
	if err != nil {
		fmt.Printf("Failed to resolve config path: %v\n", err)
		os.Exit(1)
	}

	cfg, err := config.LoadConfig(configPath)
	if err != nil {
		fmt.Printf("Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	log := logging.Configure(cfg.Advanced.LogLevel, cfg.Advanced.LogFormat)

	proc, err := processor.NewHTTPProcessor(processor.Options{
		URL:             cfg.Processor.URL,
		Timeout:         cfg.ProcessorTimeout(),
		RetryMax:        cfg.Processor.RetryMax,
		MaxResponseSize: cfg.MaxResponseBytes(),
		Logger:          log,
	})
	if err != nil {
		log.WithError(err).Fatal("failed to create processor client")
	}

	// Check if running in embedded mode (upload page built into binary)
	embeddedMode := web.HasEmbeddedFiles()

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	api.SetupMiddleware(e, api.MiddlewareConfig{
		Logger:               log,
		EnableRequestLogging: cfg.Advanced.EnableRequestLogging,
		BodyLimit:            cfg.Server.BodyLimit,
		EnableCORS:           cfg.Server.EnableCORS,
		AllowOrigins:         cfg.GetAllowOrigins(),
		EnableCompression:    cfg.Server.EnableCompression,
		CompressionLevel:     cfg.Server.CompressionLevel,
	})

	api.RegisterRoutes(e, api.NewHandlers(&api.Dependencies{
		Processor:    proc,
		ProcessorURL: proc.URL(),
		Logger:       log,
		Version:      Version,
	}))

	if embeddedMode {
		if err := web.RegisterStaticRoutes(e); err != nil {
			log.WithError(err).Warn("failed to register static routes")
			embeddedMode = false
		}
	}

	s := &http.Server{
		Addr:         cfg.GetServerAddr(),
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
		IdleTimeout:  time.Duration(cfg.Server.IdleTimeout) * time.Second,
	}

	printBanner(configPath, cfg, embeddedMode)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	go func() {
		if err := e.StartServer(s); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.WithError(err).Fatal("server stopped")
		}
	}()

	<-ctx.Done()
	log.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		log.WithError(err).Error("graceful shutdown failed")
	}
}

// resolveConfigPath prefers SOF_CONFIG and falls back to a file next to
// the executable.
func resolveConfigPath() (string, error) {
	if p := os.Getenv("SOF_CONFIG"); p != "" {
		return p, nil
	}
	exePath, err := os.Executable()
	if err != nil {
		return "", err
	}
	return filepath.Join(filepath.Dir(exePath), "sof-extractor.config"), nil
}

func printBanner(configPath string, cfg *config.AppConfig, embeddedMode bool) {
	mode := "API only"
	if embeddedMode {
		mode = "Embedded upload page"
	}

	fmt.Printf("\n")
	fmt.Printf("╔═══════════════════════════════════════════════════════════╗\n")
	fmt.Printf("║           SoF Extractor Relay                             ║\n")
	fmt.Printf("╠═══════════════════════════════════════════════════════════╣\n")
	fmt.Printf("║  Version:    %-45s║\n", Version)
	fmt.Printf("║  Build Time: %-45s║\n", BuildTime)
	fmt.Printf("║  Mode:       %-45s║\n", mode)
	fmt.Printf("╠═══════════════════════════════════════════════════════════╣\n")
	fmt.Printf("║  Config:    %-46s║\n", configPath)
	fmt.Printf("║  Listen:    http://%-38s║\n", cfg.GetServerAddr())
	fmt.Printf("║  Processor: %-46s║\n", cfg.Processor.URL)
	fmt.Printf("╚═══════════════════════════════════════════════════════════╝\n")
	fmt.Printf("\n")

	if embeddedMode {
		fmt.Printf("Open http://localhost:%d in your browser\n\n", cfg.Server.Port)
	}
}
