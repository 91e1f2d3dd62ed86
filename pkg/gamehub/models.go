package gamehub

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// RoleAdmin is the backend role that grants access to the user administration.
const RoleAdmin = "ADMIN"

// User represents a GameHub account together with its game library.
type User struct {
	ID       string `json:"id"`
	Username string `json:"username"`
	// GitHubID also matches the "gitHubId" spelling of older backend versions.
	GitHubID    string        `json:"githubId,omitempty"`
	AvatarURL   string        `json:"avatarUrl,omitempty"`
	Role        string        `json:"role,omitempty"`
	GameLibrary []LibraryGame `json:"gameLibrary"`
}

// IsAdmin reports whether the user has the admin role.
func (u *User) IsAdmin() bool {
	return u != nil && strings.EqualFold(u.Role, RoleAdmin)
}

// HasGame reports whether the game with the given id is in the user's library.
func (u *User) HasGame(gameID string) bool {
	if u == nil {
		return false
	}
	for _, g := range u.GameLibrary {
		if g.ID == gameID {
			return true
		}
	}
	return false
}

// LibraryGame is the game summary stored in a user's library.
type LibraryGame struct {
	ID         string   `json:"id"`
	Title      string   `json:"title"`
	Platforms  []string `json:"platforms"`
	CoverImage string   `json:"coverImage"`
}

// Game is a catalog entry as returned by the paginated game search.
type Game struct {
	ID          string   `json:"id"`
	Title       string   `json:"title"`
	Genre       []string `json:"genre,omitempty"`
	ReleaseDate string   `json:"releaseDate,omitempty"`
	Platforms   []string `json:"platforms"`
	CoverImage  string   `json:"coverImage"`
}

// LibraryEntry converts the catalog game into the shape stored in a library.
func (g Game) LibraryEntry() LibraryGame {
	return LibraryGame{
		ID:         g.ID,
		Title:      g.Title,
		Platforms:  g.Platforms,
		CoverImage: g.CoverImage,
	}
}

// AsGame converts a library entry back into a catalog game.
func (g LibraryGame) AsGame() Game {
	return Game{
		ID:         g.ID,
		Title:      g.Title,
		Platforms:  g.Platforms,
		CoverImage: g.CoverImage,
	}
}

// GameList is one page of the game catalog.
type GameList struct {
	// Count is the total number of games matching the search. Zero if the backend does not report it.
	Count    int    `json:"count"`
	Next     string `json:"next"`
	Previous string `json:"previous"`
	Games    []Game `json:"games"`
}

// NamedRef is a named reference such as a developer, publisher or genre.
type NamedRef struct {
	Name string `json:"name"`
}

// PlatformRef wraps a platform reference of the game detail.
type PlatformRef struct {
	Platform NamedRef `json:"platform"`
}

// GameDetail is the extended description of a single game.
type GameDetail struct {
	ID              int           `json:"id"`
	Name            string        `json:"name"`
	Description     string        `json:"description"`
	Released        string        `json:"released"`
	BackgroundImage string        `json:"background_image"`
	Platforms       []PlatformRef `json:"platforms"`
	Developers      []NamedRef    `json:"developers"`
	Genres          []NamedRef    `json:"genres"`
	Publishers      []NamedRef    `json:"publishers"`
}

// GameID returns the id of the game as used by notes, reviews and libraries.
func (d *GameDetail) GameID() string {
	return fmt.Sprintf("%d", d.ID)
}

// PlatformNames returns the names of all platforms of the game.
func (d *GameDetail) PlatformNames() []string {
	names := make([]string, 0, len(d.Platforms))
	for _, p := range d.Platforms {
		names = append(names, p.Platform.Name)
	}
	return names
}

// JoinNames joins the names of the references with a comma.
func JoinNames(refs []NamedRef) string {
	names := make([]string, 0, len(refs))
	for _, r := range refs {
		names = append(names, r.Name)
	}
	return strings.Join(names, ", ")
}

// Note categories.
const (
	CategoryNote = "Note"
	CategoryGoal = "Goal"
)

// Note is a user authored annotation of a game.
type Note struct {
	ID        string    `json:"id"`
	UserID    string    `json:"userId"`
	GameID    string    `json:"gameId"`
	GameTitle string    `json:"gameTitle,omitempty"`
	Title     string    `json:"title"`
	Content   string    `json:"content"`
	Category  string    `json:"category"`
	Created   LocalTime `json:"created"`
}

// NoteInput is the body used to create or update a note.
type NoteInput struct {
	UserID    string `json:"userId"`
	GameID    string `json:"gameId"`
	GameTitle string `json:"gameTitle"`
	Title     string `json:"title"`
	Content   string `json:"content"`
	Category  string `json:"category"`
}

// Review is a user authored rating of a game.
type Review struct {
	ID        string  `json:"id"`
	GameTitle string  `json:"gameTitle,omitempty"`
	UserID    string  `json:"userId"`
	GameID    string  `json:"gameId"`
	Username  string  `json:"username"`
	Rating    float64 `json:"rating"`
	Content   string  `json:"content"`
	Date      string  `json:"date"`
}

// ReviewInput is the body used to create or update a review.
type ReviewInput struct {
	GameTitle string  `json:"gameTitle"`
	UserID    string  `json:"userId"`
	GameID    string  `json:"gameId"`
	Username  string  `json:"username"`
	Rating    float64 `json:"rating"`
	Content   string  `json:"content"`
	Date      string  `json:"date"`
}

// ReviewDateLayout is the date format of reviews.
const ReviewDateLayout = "2006-01-02"

// Credentials are used to register a new account.
type Credentials struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// libraryAction is the body of the library add and remove endpoints.
type libraryAction struct {
	UserID string      `json:"userId"`
	Game   LibraryGame `json:"game"`
}

// flexString decodes both JSON strings and numbers, the catalog proxies numeric RAWG ids.
type flexString string

func (f *flexString) UnmarshalJSON(data []byte) error {
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*f = flexString(s)
		return nil
	}
	if string(data) == "null" {
		*f = ""
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("invalid id %s: %w", string(data), err)
	}
	*f = flexString(n.String())
	return nil
}

func (g *Game) UnmarshalJSON(data []byte) error {
	type alias Game
	aux := struct {
		*alias
		ID flexString `json:"id"`
	}{alias: (*alias)(g)}
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	g.ID = string(aux.ID)
	return nil
}

func (g *LibraryGame) UnmarshalJSON(data []byte) error {
	type alias LibraryGame
	aux := struct {
		*alias
		ID flexString `json:"id"`
	}{alias: (*alias)(g)}
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	g.ID = string(aux.ID)
	return nil
}

// LocalTime is a timestamp the backend serializes without a zone.
type LocalTime struct {
	time.Time
}

var localTimeLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02T15:04:05",
	"2006-01-02",
}

func (t *LocalTime) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return fmt.Errorf("invalid timestamp %s: %w", string(data), err)
	}
	if s == "" {
		t.Time = time.Time{}
		return nil
	}
	for _, layout := range localTimeLayouts {
		if parsed, err := time.ParseInLocation(layout, s, time.Local); err == nil {
			t.Time = parsed
			return nil
		}
	}
	return fmt.Errorf("invalid timestamp %q", s)
}

func (t LocalTime) MarshalJSON() ([]byte, error) {
	if t.IsZero() {
		return []byte(`""`), nil
	}
	return json.Marshal(t.Format("2006-01-02T15:04:05"))
}
