package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/esgai/esgsearch/internal/config"
	"github.com/esgai/esgsearch/internal/mcpserver"
	"github.com/esgai/esgsearch/internal/models"
	"github.com/esgai/esgsearch/internal/server"
)

// Version is set via ldflags at build time: -ldflags "-X main.Version=..."
var Version = "v1.0.0-dev"

func main() {
	mcpMode := flag.Bool("mcp", false, "serve the search tools over MCP stdio instead of HTTP")
	showVersion := flag.Bool("version", false, "print version and exit")
	flag.Parse()

	if *showVersion {
		fmt.Println(Version)
		return
	}

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "load config: %v\n", err)
		os.Exit(1)
	}
	setupLogging(cfg)

	if err := cfg.Validate(); err != nil {
		log.Fatal().Err(err).Msg("invalid configuration")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if *mcpMode {
		if err := runMCP(ctx, cfg); err != nil {
			log.Fatal().Err(err).Msg("MCP server stopped")
		}
		return
	}

	startCtx, cancel := context.WithTimeout(ctx, 15*time.Second)
	components := server.BuildComponents(startCtx, cfg)
	cancel()

	srv := server.New(cfg, components)
	if err := srv.Run(ctx); err != nil {
		log.Fatal().Err(err).Msg("server stopped")
	}
	log.Info().Msg("server exited")
}

func runMCP(ctx context.Context, cfg *config.Config) error {
	if cfg.MCPEmail == "" || cfg.MCPPassword == "" {
		return fmt.Errorf("ESG_EMAIL and ESG_PASSWORD are required in MCP mode")
	}

	startCtx, cancel := context.WithTimeout(ctx, 15*time.Second)
	components := server.BuildComponents(startCtx, cfg)
	cancel()
	defer components.Close()

	creds := models.Credentials{Email: cfg.MCPEmail, Password: cfg.MCPPassword}
	s, err := mcpserver.New(components.Factory.ForCredentials(creds), Version)
	if err != nil {
		return err
	}
	return mcpserver.ServeStdio(s)
}

// setupLogging writes to stderr so stdout stays free for the MCP transport
func setupLogging(cfg *config.Config) {
	level, err := zerolog.ParseLevel(strings.ToLower(cfg.LogLevel))
	if err != nil || level == zerolog.NoLevel {
		level = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(level)
	zerolog.TimeFieldFormat = time.RFC3339Nano

	if cfg.IsDevelopment() {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.Kitchen})
	} else {
		log.Logger = zerolog.New(os.Stderr).With().Timestamp().Str("service", "esgsearch").Logger()
	}
}
