package cmd

import (
	"fmt"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/gamehub/gamehub/internal/cache"
	"github.com/gamehub/gamehub/internal/config"
	"github.com/gamehub/gamehub/internal/database"
	"github.com/gamehub/gamehub/internal/engine"
	"github.com/gamehub/gamehub/internal/scheduler"
	"github.com/spf13/cobra"
)

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show cache, database and job statistics",
	Long:  `Display statistics about the cached cover images, the stored user preferences and the background jobs.`,
	RunE: func(cmd *cobra.Command, _ []string) error {
		cfg, err := config.Load(rootCmdPersistentFlags.ConfigFile)
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}

		db, err := database.New(cfg.Database.Path)
		if err != nil {
			return fmt.Errorf("failed to initialize database: %w", err)
		}
		defer db.Close() //nolint: errcheck

		prefs, err := db.CountPreferences(cmd.Context())
		if err != nil {
			return fmt.Errorf("failed to count preferences: %w", err)
		}

		files, size, err := cache.NewImageCache(cfg.Cache.ImageDir, cfg.Cache.ImageHosts).Usage()
		if err != nil {
			return fmt.Errorf("failed to read image cache: %w", err)
		}

		fmt.Println("Database Statistics:")
		fmt.Printf("Database: %s\n", cfg.Database.Path)
		fmt.Printf("Users with saved filters: %s\n", humanize.Comma(prefs))

		fmt.Println("\nImage Cache:")
		fmt.Printf("Directory: %s\n", cfg.Cache.ImageDir)
		fmt.Printf("Cached Images: %s\n", humanize.Comma(int64(files)))
		fmt.Printf("Size on Disk: %s\n", humanize.Bytes(uint64(size))) //nolint:gosec
		if cfg.Cache.ImageMaxAge > 0 {
			fmt.Printf("Images expire after: %s\n", cfg.Cache.ImageMaxAge)
		}

		fmt.Println("\nResponse Cache:")
		fmt.Printf("Type: %s\n", cfg.Cache.Type)
		fmt.Printf("Catalog TTL: %s\n", cfg.Cache.CatalogTTL.Round(time.Second))
		fmt.Printf("Detail TTL: %s\n", cfg.Cache.DetailTTL.Round(time.Second))

		e, err := engine.New(cfg, db)
		if err != nil {
			return fmt.Errorf("failed to create engine: %w", err)
		}
		defer e.Close() //nolint:errcheck

		fmt.Println("\nBackground Jobs:")
		fmt.Println(jobsTable(e.GetScheduler().GetJobs(), time.Now()))

		return nil
	},
}

func jobsTable(jobs []scheduler.JobInfo, now time.Time) string {
	t := newTable("ID", "Name", "Schedule", "Status", "Next Run")
	for _, job := range jobs {
		next := "unknown"
		if at, err := job.UpcomingRun(now); err == nil {
			next = fmt.Sprintf("%s (%s)", at.Format(time.DateTime), humanize.RelTime(at, now, "ago", "from now"))
		}
		t.Row(job.ID, job.Name, job.Schedule, string(job.Status), next)
	}
	return t.String()
}

func init() {
	rootCmd.AddCommand(statsCmd)
}
