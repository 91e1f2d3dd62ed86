package cmd

import (
	"github.com/charmbracelet/log"
	"github.com/gamehub/gamehub/internal/config"
	"github.com/gamehub/gamehub/internal/database"
	"github.com/gamehub/gamehub/internal/engine"
	"github.com/spf13/cobra"
)

var resetCmdFlags struct {
	Preferences bool
	Images      bool
}

var resetCmd = &cobra.Command{
	Use:   "reset",
	Short: "Clear the caches of the web client",
	Long: `This command clears the cached catalog pages and game details. Cached cover images
and the saved gallery filters of every user can be removed as well.`,
	Example: `gamehub reset
gamehub reset --images --preferences`,
	Run: reset,
}

func init() {
	resetCmd.Flags().BoolVar(&resetCmdFlags.Preferences, "preferences", false, "Also remove the saved gallery filters of all users")
	resetCmd.Flags().BoolVar(&resetCmdFlags.Images, "images", false, "Also remove the cached cover images")

	rootCmd.AddCommand(resetCmd)
}

func reset(cmd *cobra.Command, _ []string) {
	ctx := cmd.Context()

	cfg, err := config.Load(rootCmdPersistentFlags.ConfigFile)
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	db, err := database.New(cfg.Database.Path)
	if err != nil {
		log.Fatalf("failed to initialize database: %v", err)
	}
	defer db.Close() //nolint:errcheck

	engine, err := engine.New(cfg, db)
	if err != nil {
		log.Fatalf("failed to create engine: %v", err)
	}
	defer engine.Close() //nolint:errcheck

	log.Info("Clearing response cache...", "type", cfg.Cache.Type)
	engine.GetEngineCache().ClearAll(ctx)

	if resetCmdFlags.Images {
		removed, err := engine.GetImageCache().CleanupOldImages(0)
		if err != nil {
			log.Fatalf("failed to remove cached images: %v", err)
		}
		log.Info("Removed cached images", "count", removed)
	}

	if resetCmdFlags.Preferences {
		removed, err := db.ClearPreferences(ctx)
		if err != nil {
			log.Fatalf("failed to remove preferences: %v", err)
		}
		log.Info("Removed saved filters", "users", removed)
	}

	log.Info("Successfully reset gamehub caches!")
}
