package cmd

import (
	"context"
	"fmt"
	"os"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/charmbracelet/log"
	"github.com/gamehub/gamehub/internal/config"
	"github.com/gamehub/gamehub/internal/engine"
	"github.com/gamehub/gamehub/pkg/gamehub"
	"github.com/spf13/cobra"
)

// passwordEnv is read when --password is not set.
const passwordEnv = "GAMEHUB_PASSWORD"

var clientCmdFlags struct {
	Username string
	Password string
}

// addClientFlags adds the account flags to a command talking to the backend.
func addClientFlags(cmd *cobra.Command) {
	cmd.Flags().StringVarP(&clientCmdFlags.Username, "username", "u", "", "Account to log in with")
	cmd.Flags().StringVarP(&clientCmdFlags.Password, "password", "p", "", "Password of the account (default: $"+passwordEnv+")")
	_ = cmd.MarkFlagRequired("username")
}

// clientSession is a logged in backend session used by the commands.
type clientSession struct {
	engine  *engine.Engine
	session string
	user    *gamehub.User
}

func newClientSession(ctx context.Context) (*clientSession, error) {
	cfg, err := config.Load(rootCmdPersistentFlags.ConfigFile)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	// preferences belong to the web client, commands run without the database
	e, err := engine.New(cfg, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create engine: %w", err)
	}

	password := clientCmdFlags.Password
	if password == "" {
		password = os.Getenv(passwordEnv)
	}

	session, err := e.Login(ctx, engine.LoginForm{
		Username: clientCmdFlags.Username,
		Password: password,
	})
	if err != nil {
		_ = e.Close()
		return nil, fmt.Errorf("failed to log in: %w", err)
	}

	user, err := e.LoadUser(ctx, session)
	if err != nil {
		e.Logout(ctx, session)
		_ = e.Close()
		return nil, fmt.Errorf("failed to load account: %w", err)
	}

	return &clientSession{engine: e, session: session, user: user}, nil
}

func (s *clientSession) Close(ctx context.Context) {
	s.engine.Logout(ctx, s.session)
	if err := s.engine.Close(); err != nil {
		log.Debug("failed to stop engine", "error", err)
	}
}

func newTable(headers ...string) *table.Table {
	return table.New().
		Border(lipgloss.RoundedBorder()).
		Headers(headers...)
}
