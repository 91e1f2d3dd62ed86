package engine

import (
	"context"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/gamehub/gamehub/pkg/gamehub"
	"github.com/samber/lo"
)

// ListUsers returns the accounts whose username contains the query, ignoring case.
func (e *Engine) ListUsers(ctx context.Context, session string, actor *gamehub.User, query string) ([]gamehub.User, error) {
	if !actor.IsAdmin() {
		return nil, ErrForbidden
	}
	users, err := e.client(session).ListUsers(ctx)
	if err != nil {
		log.Error("failed to fetch users", "error", err)
		return nil, err
	}

	query = strings.ToLower(strings.TrimSpace(query))
	if query == "" {
		return users, nil
	}
	return lo.Filter(users, func(u gamehub.User, _ int) bool {
		return strings.Contains(strings.ToLower(u.Username), query)
	}), nil
}

// DeleteUser deletes an account and the preferences stored for it.
func (e *Engine) DeleteUser(ctx context.Context, session string, actor *gamehub.User, userID string) error {
	if !actor.IsAdmin() {
		return ErrForbidden
	}
	if err := e.client(session).DeleteUser(ctx, userID); err != nil {
		log.Error("failed to delete user", "user", userID, "error", err)
		return err
	}
	if e.db != nil {
		if err := e.db.DeletePreferences(ctx, userID); err != nil {
			log.Warn("failed to delete preferences of deleted user", "user", userID, "error", err)
		}
	}
	log.Info("user deleted", "user", userID, "by", actor.Username)
	return nil
}
