package engine

import (
	"context"

	"github.com/charmbracelet/log"
	"github.com/gamehub/gamehub/pkg/gamehub"
	"golang.org/x/sync/errgroup"
)

// Profile is an account together with everything it wrote.
type Profile struct {
	User    *gamehub.User
	Notes   []gamehub.Note
	Reviews []gamehub.Review
	// Warnings lists the parts that could not be loaded.
	Warnings []string
}

// Profile loads an account, its notes and its reviews concurrently.
// Only a failure to load the account itself is an error, missing notes or reviews are reported as warnings.
func (e *Engine) Profile(ctx context.Context, session, userID string) (*Profile, error) {
	client := e.client(session)
	profile := &Profile{
		Notes:   []gamehub.Note{},
		Reviews: []gamehub.Review{},
	}

	var (
		notesErr   error
		reviewsErr error
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		user, err := client.GetUser(gctx, userID)
		if err != nil {
			return err
		}
		profile.User = user
		return nil
	})
	g.Go(func() error {
		notes, err := client.NotesByUser(gctx, userID)
		if err != nil {
			notesErr = err
			return nil
		}
		profile.Notes = notes
		return nil
	})
	g.Go(func() error {
		reviews, err := client.ReviewsByUser(gctx, userID)
		if err != nil {
			reviewsErr = err
			return nil
		}
		profile.Reviews = reviews
		return nil
	})

	if err := g.Wait(); err != nil {
		log.Error("failed to fetch user", "user", userID, "error", err)
		return nil, err
	}
	if notesErr != nil {
		log.Warn("failed to fetch user notes", "user", userID, "error", notesErr)
		profile.Warnings = append(profile.Warnings, "Failed to fetch Notes")
	}
	if reviewsErr != nil {
		log.Warn("failed to fetch user reviews", "user", userID, "error", reviewsErr)
		profile.Warnings = append(profile.Warnings, "Failed to fetch Reviews")
	}
	return profile, nil
}
