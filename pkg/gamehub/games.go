package gamehub

import (
	"context"
	"net/url"
	"strconv"
)

// FetchGames returns one page of the catalog. Pages start at 1.
func (c *Client) FetchGames(ctx context.Context, page int, search string) (*GameList, error) {
	if page < 1 {
		page = 1
	}
	query := url.Values{}
	query.Set("page", strconv.Itoa(page))
	if search != "" {
		query.Set("search", search)
	}

	var list GameList
	if err := c.getJSON(ctx, "/api/games/fetch", query, &list, "games"); err != nil {
		return nil, err
	}
	if list.Games == nil {
		list.Games = []Game{}
	}
	return &list, nil
}

// FetchGameDetail returns the detail of a single game.
func (c *Client) FetchGameDetail(ctx context.Context, id string) (*GameDetail, error) {
	var detail GameDetail
	if err := c.getJSON(ctx, "/api/games/fetch/"+url.PathEscape(id), nil, &detail, "game detail"); err != nil {
		return nil, err
	}
	return &detail, nil
}
