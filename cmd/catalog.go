package cmd

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/dustin/go-humanize"
	"github.com/gamehub/gamehub/internal/engine"
	"github.com/spf13/cobra"
)

var catalogCmdFlags struct {
	Page     int
	Search   string
	Title    string
	Platform string
	Library  bool
}

var catalogCmd = &cobra.Command{
	Use:   "catalog",
	Short: "Browse the game catalog",
	Long: `Fetch a page of the game catalog from the backend. The search is sent to the backend,
the title and platform filters only narrow down the fetched page.`,
	Example: `gamehub catalog -u alice --search zelda
gamehub catalog -u alice --page 3 --platform PC
gamehub catalog -u alice --library`,
	Run: catalog,
}

func init() {
	catalogCmd.Flags().IntVar(&catalogCmdFlags.Page, "page", 1, "Page of the catalog")
	catalogCmd.Flags().StringVar(&catalogCmdFlags.Search, "search", "", "Search sent to the backend")
	catalogCmd.Flags().StringVar(&catalogCmdFlags.Title, "title", "", "Only show games whose title contains this text")
	catalogCmd.Flags().StringVar(&catalogCmdFlags.Platform, "platform", "", "Only show games available on this platform")
	catalogCmd.Flags().BoolVar(&catalogCmdFlags.Library, "library", false, "Show the library of the account instead of the catalog")
	addClientFlags(catalogCmd)

	rootCmd.AddCommand(catalogCmd)
}

func catalog(cmd *cobra.Command, _ []string) {
	ctx := cmd.Context()

	s, err := newClientSession(ctx)
	if err != nil {
		log.Fatal(err)
	}
	defer s.Close(ctx)

	if catalogCmdFlags.Library {
		t := newTable("ID", "Title", "Platforms")
		for _, g := range s.user.GameLibrary {
			t.Row(g.ID, g.Title, strings.Join(g.Platforms, ", "))
		}
		fmt.Println(t)
		fmt.Printf("%s has %s in their library\n", s.user.Username, humanize.Comma(int64(len(s.user.GameLibrary))))
		return
	}

	page, err := s.engine.Catalog(ctx, s.session, engine.CatalogQuery{
		Page:     catalogCmdFlags.Page,
		Search:   catalogCmdFlags.Search,
		Title:    catalogCmdFlags.Title,
		Platform: catalogCmdFlags.Platform,
	})
	if err != nil {
		log.Fatalf("failed to fetch catalog: %v", err)
	}

	t := newTable("ID", "Title", "Platforms", "Released", "Library")
	for _, g := range page.Games {
		owned := ""
		if s.user.HasGame(g.ID) {
			owned = "yes"
		}
		t.Row(g.ID, g.Title, strings.Join(g.Platforms, ", "), g.ReleaseDate, owned)
	}
	fmt.Println(t)

	if page.Total > 0 {
		fmt.Printf("Page %d, %d of %d games shown, %s games in total\n",
			page.Page, len(page.Games), page.FetchedCount, humanize.Comma(int64(page.Total)))
	} else {
		fmt.Printf("Page %d, %d of %d games shown\n", page.Page, len(page.Games), page.FetchedCount)
	}
	if page.HasNext {
		fmt.Printf("Next page: --page %d\n", page.Page+1)
	}
}
