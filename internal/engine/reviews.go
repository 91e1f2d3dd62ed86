package engine

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/gamehub/gamehub/pkg/gamehub"
	"github.com/samber/lo"
)

// ReviewForm is a review as submitted by the user.
type ReviewForm struct {
	Rating  float64 `form:"rating" validate:"gte=0.5,lte=5,halfstep"`
	Content string  `form:"content" validate:"max=10000"`
}

// ReviewSummary holds the reviews of a game.
type ReviewSummary struct {
	Reviews []gamehub.Review
	// Average is 0 when the game has no reviews.
	Average float64
	// Own is the review of the requesting user, nil if there is none.
	Own *gamehub.Review
}

// AverageLabel formats the average rating with one decimal.
func (s *ReviewSummary) AverageLabel() string {
	return fmt.Sprintf("%.1f out of 5", s.Average)
}

func summarize(reviews []gamehub.Review, userID string) *ReviewSummary {
	summary := &ReviewSummary{Reviews: reviews}
	if len(reviews) > 0 {
		summary.Average = lo.SumBy(reviews, func(r gamehub.Review) float64 { return r.Rating }) / float64(len(reviews))
	}
	if own, ok := lo.Find(reviews, func(r gamehub.Review) bool { return r.UserID == userID }); ok && userID != "" {
		summary.Own = &own
	}
	return summary
}

// GameReviews returns the reviews of a game.
// Every review is fetched and filtered here, the same way notes are.
func (e *Engine) GameReviews(ctx context.Context, session, gameID, userID string) (*ReviewSummary, error) {
	reviews, err := e.client(session).ListReviews(ctx)
	if err != nil {
		log.Error("failed to fetch reviews", "error", err)
		return nil, err
	}
	return summarize(lo.Filter(reviews, func(r gamehub.Review, _ int) bool {
		return r.GameID == gameID
	}), userID), nil
}

// UserReviews returns every review written by the user.
func (e *Engine) UserReviews(ctx context.Context, session, userID string) ([]gamehub.Review, error) {
	reviews, err := e.client(session).ReviewsByUser(ctx, userID)
	if err != nil {
		log.Error("failed to fetch user reviews", "user", userID, "error", err)
		return nil, err
	}
	return reviews, nil
}

func (e *Engine) normalizeReview(form *ReviewForm) error {
	if form.Rating == 0 {
		return ErrRatingRequired
	}
	form.Content = strings.TrimSpace(form.Content)
	return e.validateStruct(form)
}

// SubmitReview adds the user's review of a game. A user can review a game only once.
func (e *Engine) SubmitReview(ctx context.Context, session string, user *gamehub.User, game gamehub.LibraryGame, form ReviewForm) (*gamehub.Review, error) {
	if err := e.normalizeReview(&form); err != nil {
		return nil, err
	}

	summary, err := e.GameReviews(ctx, session, game.ID, user.ID)
	if err != nil {
		return nil, err
	}
	if summary.Own != nil {
		return nil, ErrReviewExists
	}

	review, err := e.client(session).CreateReview(ctx, gamehub.ReviewInput{
		GameTitle: game.Title,
		UserID:    user.ID,
		GameID:    game.ID,
		Username:  user.Username,
		Rating:    form.Rating,
		Content:   form.Content,
		Date:      e.now().Format(gamehub.ReviewDateLayout),
	})
	if err != nil {
		log.Error("failed to create review", "user", user.ID, "game", game.ID, "error", err)
		return nil, err
	}
	return review, nil
}

// ownReview finds a review and makes sure it belongs to the user.
func (e *Engine) ownReview(ctx context.Context, session, userID, reviewID string) (*gamehub.Review, error) {
	reviews, err := e.client(session).ListReviews(ctx)
	if err != nil {
		log.Error("failed to fetch reviews", "error", err)
		return nil, err
	}
	review, ok := lo.Find(reviews, func(r gamehub.Review) bool { return r.ID == reviewID })
	if !ok {
		return nil, gamehub.ErrNotFound
	}
	if review.UserID != userID {
		log.Warn("refusing to modify review of another user", "review", reviewID, "user", userID, "owner", review.UserID)
		return nil, ErrNotOwner
	}
	return &review, nil
}

// UpdateReview changes rating and content of the user's own review.
func (e *Engine) UpdateReview(ctx context.Context, session string, user *gamehub.User, reviewID string, form ReviewForm) (*gamehub.Review, error) {
	if err := e.normalizeReview(&form); err != nil {
		return nil, err
	}
	review, err := e.ownReview(ctx, session, user.ID, reviewID)
	if err != nil {
		return nil, err
	}

	updated, err := e.client(session).UpdateReview(ctx, reviewID, gamehub.ReviewInput{
		GameTitle: review.GameTitle,
		UserID:    user.ID,
		GameID:    review.GameID,
		Username:  user.Username,
		Rating:    form.Rating,
		Content:   form.Content,
		Date:      e.now().Format(gamehub.ReviewDateLayout),
	})
	if err != nil {
		log.Error("failed to update review", "review", reviewID, "error", err)
		return nil, err
	}
	return updated, nil
}

// DeleteReview deletes the user's own review and returns it.
func (e *Engine) DeleteReview(ctx context.Context, session string, user *gamehub.User, reviewID string) (*gamehub.Review, error) {
	review, err := e.ownReview(ctx, session, user.ID, reviewID)
	if err != nil {
		return nil, err
	}
	if err := e.client(session).DeleteReview(ctx, reviewID); err != nil {
		log.Error("failed to delete review", "review", reviewID, "error", err)
		return nil, err
	}
	return review, nil
}
