package gamehub

import (
	"context"
	"net/http"
	"net/url"
)

// ListReviews returns the reviews of all games.
func (c *Client) ListReviews(ctx context.Context) ([]Review, error) {
	var reviews []Review
	if err := c.getJSON(ctx, "/api/reviews", nil, &reviews, "reviews"); err != nil {
		return nil, err
	}
	return reviews, nil
}

// ReviewsByGame returns the reviews of a single game.
func (c *Client) ReviewsByGame(ctx context.Context, gameID string) ([]Review, error) {
	var reviews []Review
	if err := c.getJSON(ctx, "/api/reviews/"+url.PathEscape(gameID), nil, &reviews, "game reviews"); err != nil {
		return nil, err
	}
	return reviews, nil
}

// ReviewsByUser returns the reviews written by the given user.
func (c *Client) ReviewsByUser(ctx context.Context, userID string) ([]Review, error) {
	var reviews []Review
	if err := c.getJSON(ctx, "/api/reviews/user/"+url.PathEscape(userID), nil, &reviews, "user reviews"); err != nil {
		return nil, err
	}
	return reviews, nil
}

func (c *Client) CreateReview(ctx context.Context, in ReviewInput) (*Review, error) {
	var review Review
	if err := c.sendJSON(ctx, http.MethodPost, "/api/reviews", nil, in, &review, "create review"); err != nil {
		return nil, err
	}
	return &review, nil
}

func (c *Client) UpdateReview(ctx context.Context, id string, in ReviewInput) (*Review, error) {
	var review Review
	if err := c.sendJSON(ctx, http.MethodPut, "/api/reviews/"+url.PathEscape(id), nil, in, &review, "update review"); err != nil {
		return nil, err
	}
	return &review, nil
}

func (c *Client) DeleteReview(ctx context.Context, id string) error {
	return c.sendJSON(ctx, http.MethodDelete, "/api/reviews/"+url.PathEscape(id), nil, nil, nil, "delete review")
}
