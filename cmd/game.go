package cmd

import (
	"fmt"
	"html"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/gamehub/gamehub/pkg/gamehub"
	"github.com/microcosm-cc/bluemonday"
	"github.com/spf13/cobra"
)

var gameCmdFlags struct {
	Notes   bool
	Reviews bool
}

var gameCmd = &cobra.Command{
	Use:   "game <id>",
	Short: "Show the details of a game",
	Long:  `Show the details of a game together with its average rating. Notes and reviews can be listed as well.`,
	Example: `gamehub game 3498 -u alice
gamehub game 3498 -u alice --notes --reviews`,
	Args: cobra.ExactArgs(1),
	Run:  game,
}

func init() {
	gameCmd.Flags().BoolVar(&gameCmdFlags.Notes, "notes", false, "List your notes of the game")
	gameCmd.Flags().BoolVar(&gameCmdFlags.Reviews, "reviews", false, "List the reviews of the game")
	addClientFlags(gameCmd)

	rootCmd.AddCommand(gameCmd)
}

func game(cmd *cobra.Command, args []string) {
	ctx := cmd.Context()

	s, err := newClientSession(ctx)
	if err != nil {
		log.Fatal(err)
	}
	defer s.Close(ctx)

	info, err := s.engine.GameDetail(ctx, s.session, args[0])
	if err != nil {
		log.Fatalf("failed to fetch game %s: %v", args[0], err)
	}

	fmt.Println(info.Name)
	fmt.Println(strings.Repeat("=", len(info.Name)))
	printField("Released", info.Released)
	printField("Platforms", strings.Join(info.PlatformNames, ", "))
	printField("Genres", info.GenreNames)
	printField("Developers", info.DeveloperNames)
	printField("Publishers", info.PublisherNames)
	if s.user.HasGame(info.GameID()) {
		printField("Library", "in your library")
	}

	if description := plainText(info.Description); description != "" {
		fmt.Printf("\n%s\n", description)
	}

	summary, err := s.engine.GameReviews(ctx, s.session, info.GameID(), s.user.ID)
	if err != nil {
		log.Error("failed to fetch reviews", "error", err)
	} else {
		fmt.Println()
		if len(summary.Reviews) == 0 {
			fmt.Println("No reviews yet")
		} else {
			fmt.Printf("Average rating: %s (%d reviews)\n", summary.AverageLabel(), len(summary.Reviews))
		}
		if gameCmdFlags.Reviews && len(summary.Reviews) > 0 {
			t := newTable("User", "Rating", "Date", "Review")
			for _, r := range summary.Reviews {
				t.Row(r.Username, fmt.Sprintf("%.1f", r.Rating), r.Date, r.Content)
			}
			fmt.Println(t)
		}
	}

	if gameCmdFlags.Notes {
		notes, err := s.engine.GameNotes(ctx, s.session, s.user.ID, info.GameID())
		if err != nil {
			log.Fatalf("failed to fetch notes: %v", err)
		}
		printNotes(notes)
	}
}

func printField(name, value string) {
	if value == "" {
		return
	}
	fmt.Printf("%-11s %s\n", name+":", value)
}

func printNotes(notes []gamehub.Note) {
	if len(notes) == 0 {
		fmt.Println("No notes yet")
		return
	}
	t := newTable("Category", "Title", "Created", "Content")
	for _, n := range notes {
		t.Row(n.Category, n.Title, n.Created.Format("2006-01-02 15:04"), n.Content)
	}
	fmt.Println(t)
}

// plainText strips the markup of a game description.
func plainText(s string) string {
	return strings.TrimSpace(html.UnescapeString(bluemonday.StrictPolicy().Sanitize(s)))
}
