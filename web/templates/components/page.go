package components

import (
	"github.com/gamehub/gamehub/internal/api/models"
	"github.com/gamehub/gamehub/internal/notify"
)

// Page holds what every page needs besides its content.
type Page struct {
	Title string
	// User is nil on public pages when nobody is logged in.
	User   *models.User
	Toasts []notify.Toast
	// GitHubLogin is the route starting the GitHub login, empty if disabled.
	GitHubLogin  string
	FormLogin    bool
	Registration bool
}

// WithTitle returns a copy of the page with another title.
func (p Page) WithTitle(title string) Page {
	p.Title = title
	return p
}

// DocumentTitle is the content of the title element.
func (p Page) DocumentTitle() string {
	if p.Title == "" {
		return "GameHub"
	}
	return p.Title + " · GameHub"
}
