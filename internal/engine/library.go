package engine

import (
	"context"
	"errors"

	"github.com/charmbracelet/log"
	"github.com/gamehub/gamehub/pkg/gamehub"
)

// AddToLibrary adds a game to the user's library.
// The user is fetched again afterwards whether the mutation succeeded or not, the returned user is never patched locally.
func (e *Engine) AddToLibrary(ctx context.Context, session, userID string, game gamehub.LibraryGame) (*gamehub.User, error) {
	err := e.client(session).AddGameToLibrary(ctx, userID, game)
	if err != nil {
		log.Error("failed to add game to library", "user", userID, "game", game.ID, "error", err)
	}
	return e.refreshAfterMutation(ctx, session, err)
}

// RemoveFromLibrary removes a game from the user's library and fetches the user again.
func (e *Engine) RemoveFromLibrary(ctx context.Context, session, userID string, game gamehub.LibraryGame) (*gamehub.User, error) {
	err := e.client(session).RemoveGameFromLibrary(ctx, userID, game)
	if err != nil {
		log.Error("failed to remove game from library", "user", userID, "game", game.ID, "error", err)
	}
	return e.refreshAfterMutation(ctx, session, err)
}

func (e *Engine) refreshAfterMutation(ctx context.Context, session string, mutationErr error) (*gamehub.User, error) {
	user, err := e.LoadUser(ctx, session)
	if err != nil {
		return nil, errors.Join(mutationErr, err)
	}
	return user, mutationErr
}

// FindLibraryGame looks up the game in the user's library.
func FindLibraryGame(user *gamehub.User, gameID string) (gamehub.LibraryGame, bool) {
	if user == nil {
		return gamehub.LibraryGame{}, false
	}
	for _, g := range user.GameLibrary {
		if g.ID == gameID {
			return g, true
		}
	}
	return gamehub.LibraryGame{}, false
}
