package cmd

import (
	"fmt"

	"github.com/charmbracelet/log"
	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"
)

var usersCmd = &cobra.Command{
	Use:   "users",
	Short: "Manage GameHub accounts",
	Long:  `List and delete GameHub accounts. These commands require an account with the admin role.`,
}

var usersListCmdFlags struct {
	Query string
}

var usersListCmd = &cobra.Command{
	Use:     "list",
	Short:   "List all accounts",
	Example: `gamehub users list -u admin --query ali`,
	Args:    cobra.NoArgs,
	Run:     listUsers,
}

var usersDeleteCmd = &cobra.Command{
	Use:     "delete <id>",
	Short:   "Delete an account",
	Example: `gamehub users delete 64f1c0ffee -u admin`,
	Args:    cobra.ExactArgs(1),
	Run:     deleteUser,
}

func init() {
	usersListCmd.Flags().StringVarP(&usersListCmdFlags.Query, "query", "q", "", "Only list usernames containing this text")
	addClientFlags(usersListCmd)
	addClientFlags(usersDeleteCmd)

	usersCmd.AddCommand(usersListCmd, usersDeleteCmd)
	rootCmd.AddCommand(usersCmd)
}

func listUsers(cmd *cobra.Command, _ []string) {
	ctx := cmd.Context()

	s, err := newClientSession(ctx)
	if err != nil {
		log.Fatal(err)
	}
	defer s.Close(ctx)

	users, err := s.engine.ListUsers(ctx, s.session, s.user, usersListCmdFlags.Query)
	if err != nil {
		log.Fatalf("failed to list users: %v", err)
	}

	t := newTable("ID", "Username", "Role", "GitHub", "Games")
	for _, u := range users {
		t.Row(u.ID, u.Username, u.Role, u.GitHubID, humanize.Comma(int64(len(u.GameLibrary))))
	}
	fmt.Println(t)
}

func deleteUser(cmd *cobra.Command, args []string) {
	ctx := cmd.Context()

	s, err := newClientSession(ctx)
	if err != nil {
		log.Fatal(err)
	}
	defer s.Close(ctx)

	if args[0] == s.user.ID {
		log.Fatal("refusing to delete the account used to log in")
	}

	if err := s.engine.DeleteUser(ctx, s.session, s.user, args[0]); err != nil {
		log.Fatalf("failed to delete user: %v", err)
	}
	log.Info("User deleted successfully", "id", args[0])
}
