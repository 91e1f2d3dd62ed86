package cmd

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/charmbracelet/log"
	"github.com/gamehub/gamehub/internal/api"
	"github.com/gamehub/gamehub/internal/config"
	"github.com/gamehub/gamehub/internal/database"
	"github.com/gamehub/gamehub/internal/engine"
	"github.com/gamehub/gamehub/internal/gravatar"
	"github.com/gamehub/gamehub/internal/notify"
	"github.com/spf13/cobra"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the GameHub web client",
	Long:  `Start the GameHub web client serving the catalog, libraries, notes, reviews and the admin panel.`,
	Example: `gamehub serve --config config.yml
gamehub serve -c /path/to/config.yml --log-level debug
`,
	Run: startServer,
}

func init() {
	rootCmd.AddCommand(serveCmd)
}

func startServer(cmd *cobra.Command, _ []string) {
	cfg, err := config.Load(rootCmdPersistentFlags.ConfigFile)
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	if err := gravatar.Validate(cfg.Gravatar); err != nil {
		log.Fatalf("invalid gravatar config: %v", err)
	}

	db, err := database.New(cfg.Database.Path)
	if err != nil {
		log.Fatalf("failed to initialize database: %v", err)
	}
	defer db.Close() //nolint:errcheck

	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()

	engine, err := engine.New(cfg, db)
	if err != nil {
		log.Fatalf("failed to create engine: %v", err)
	}
	defer engine.Close() //nolint:errcheck

	hub := notify.NewHub(cfg.Notify.MaxPending)
	engine.SetHub(hub)

	server, err := api.New(cfg, engine, hub, log.GetLevel() == log.DebugLevel)
	if err != nil {
		log.Fatalf("failed to create API server: %v", err)
	}

	go func() {
		if err := engine.Run(ctx); err != nil {
			log.Error("engine error", "error", err)
		}
	}()

	go func() {
		log.Info("starting web server", "listen", cfg.Listen, "backend", cfg.Backend.URL)
		if err := server.Run(); err != nil {
			log.Error("web server error", "error", err)
		}
	}()

	// Wait for interrupt signal to gracefully shutdown
	c := make(chan os.Signal, 1)
	signal.Notify(c, os.Interrupt, syscall.SIGTERM)

	log.Info("gamehub started successfully")
	select {
	case <-c:
	case <-ctx.Done():
	}
	log.Info("shutting down gracefully...")

	cancel()
	time.Sleep(2 * time.Second)
}
