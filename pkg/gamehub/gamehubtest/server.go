// Package gamehubtest provides an in-memory GameHub backend for tests.
package gamehubtest

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"sync"

	"github.com/gamehub/gamehub/pkg/gamehub"
	"github.com/google/uuid"
)

// SessionCookie is the name of the session cookie issued by the fake backend.
const SessionCookie = "JSESSIONID"

// Server is a fake GameHub backend keeping its state in memory.
type Server struct {
	*httptest.Server

	// PageSize is the number of games per catalog page.
	PageSize int

	mu        sync.Mutex
	users     map[string]*gamehub.User
	passwords map[string]string // username -> password
	sessions  map[string]string // session -> user id
	games     []gamehub.Game
	details   map[string]gamehub.GameDetail
	notes     []gamehub.Note
	reviews   []gamehub.Review
	failures  map[string]int // "METHOD /path" -> status code
	calls     map[string]int
	nextID    int
}

// NewServer starts a fake backend. It is closed when the test ends.
func NewServer(t interface{ Cleanup(func()) }) *Server {
	s := &Server{
		PageSize:  20,
		users:     make(map[string]*gamehub.User),
		passwords: make(map[string]string),
		sessions:  make(map[string]string),
		details:   make(map[string]gamehub.GameDetail),
		failures:  make(map[string]int),
		calls:     make(map[string]int),
	}
	s.Server = httptest.NewServer(s.routes())
	t.Cleanup(s.Close)
	return s
}

func (s *Server) routes() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/auth/me", s.authed(s.handleMe))
	mux.HandleFunc("POST /api/auth/login", s.handleLogin)
	mux.HandleFunc("POST /api/auth/register", s.handleRegister)
	mux.HandleFunc("GET /logout", s.handleLogout)
	mux.HandleFunc("GET /api/games/fetch", s.authed(s.handleGames))
	mux.HandleFunc("GET /api/games/fetch/{id}", s.authed(s.handleGameDetail))
	mux.HandleFunc("GET /api/users", s.admin(s.handleUsers))
	mux.HandleFunc("GET /api/users/{id}", s.authed(s.handleUser))
	mux.HandleFunc("DELETE /api/users/{id}", s.admin(s.handleDeleteUser))
	mux.HandleFunc("PUT /api/users/addGame", s.authed(s.handleLibrary(true)))
	mux.HandleFunc("PUT /api/users/deleteGame", s.authed(s.handleLibrary(false)))
	mux.HandleFunc("GET /api/notes", s.authed(s.handleNotes))
	mux.HandleFunc("GET /api/notes/user/{id}", s.authed(s.handleUserNotes))
	mux.HandleFunc("GET /api/notes/{id}", s.authed(s.handleNote))
	mux.HandleFunc("POST /api/notes", s.authed(s.handleCreateNote))
	mux.HandleFunc("PUT /api/notes/{id}", s.authed(s.handleUpdateNote))
	mux.HandleFunc("DELETE /api/notes/{id}", s.authed(s.handleDeleteNote))
	mux.HandleFunc("GET /api/reviews", s.authed(s.handleReviews))
	mux.HandleFunc("GET /api/reviews/user/{id}", s.authed(s.handleUserReviews))
	mux.HandleFunc("GET /api/reviews/{id}", s.authed(s.handleGameReviews))
	mux.HandleFunc("POST /api/reviews", s.authed(s.handleCreateReview))
	mux.HandleFunc("PUT /api/reviews/{id}", s.authed(s.handleUpdateReview))
	mux.HandleFunc("DELETE /api/reviews/{id}", s.authed(s.handleDeleteReview))

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		key := r.Method + " " + r.URL.Path
		s.mu.Lock()
		s.calls[key]++
		status, fail := s.failures[key]
		s.mu.Unlock()
		if fail {
			writeError(w, status, "forced failure")
			return
		}
		mux.ServeHTTP(w, r)
	})
}

// AddUser stores an account and returns a session for it.
func (s *Server) AddUser(user gamehub.User, password string) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if user.GameLibrary == nil {
		user.GameLibrary = []gamehub.LibraryGame{}
	}
	s.users[user.ID] = &user
	s.passwords[user.Username] = password
	session := uuid.NewString()
	s.sessions[session] = user.ID
	return session
}

// User returns a copy of a stored account.
func (s *Server) User(id string) (gamehub.User, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[id]
	if !ok {
		return gamehub.User{}, false
	}
	return *u, true
}

// AddGames appends games to the catalog.
func (s *Server) AddGames(games ...gamehub.Game) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.games = append(s.games, games...)
}

// AddDetail stores the detail of a game.
func (s *Server) AddDetail(detail gamehub.GameDetail) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.details[detail.GameID()] = detail
}

// AddNote stores a note as is.
func (s *Server) AddNote(note gamehub.Note) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.notes = append(s.notes, note)
}

// AddReview stores a review as is.
func (s *Server) AddReview(review gamehub.Review) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.reviews = append(s.reviews, review)
}

// Notes returns all stored notes.
func (s *Server) Notes() []gamehub.Note {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]gamehub.Note(nil), s.notes...)
}

// Reviews returns all stored reviews.
func (s *Server) Reviews() []gamehub.Review {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]gamehub.Review(nil), s.reviews...)
}

// Fail makes every request to method and path answer with status.
func (s *Server) Fail(method, path string, status int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failures[method+" "+path] = status
}

// Calls returns how often method and path were requested.
func (s *Server) Calls(method, path string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls[method+" "+path]
}

func (s *Server) newID(prefix string) string {
	s.nextID++
	return prefix + strconv.Itoa(s.nextID)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]any{"message": msg, "statusCode": status})
}

type userHandler func(w http.ResponseWriter, r *http.Request, user *gamehub.User)

func (s *Server) currentUser(r *http.Request) *gamehub.User {
	cookie, err := r.Cookie(SessionCookie)
	if err != nil {
		return nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	id, ok := s.sessions[cookie.Value]
	if !ok {
		return nil
	}
	return s.users[id]
}

func (s *Server) authed(next userHandler) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		user := s.currentUser(r)
		if user == nil {
			writeError(w, http.StatusUnauthorized, "Unauthorized")
			return
		}
		next(w, r, user)
	}
}

func (s *Server) admin(next userHandler) http.HandlerFunc {
	return s.authed(func(w http.ResponseWriter, r *http.Request, user *gamehub.User) {
		if !user.IsAdmin() {
			writeError(w, http.StatusForbidden, "Forbidden")
			return
		}
		next(w, r, user)
	})
}

func (s *Server) handleMe(w http.ResponseWriter, _ *http.Request, user *gamehub.User) {
	s.mu.Lock()
	defer s.mu.Unlock()
	writeJSON(w, http.StatusOK, user)
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	username, password, ok := r.BasicAuth()
	s.mu.Lock()
	defer s.mu.Unlock()
	if !ok || s.passwords[username] == "" || s.passwords[username] != password {
		writeError(w, http.StatusUnauthorized, "Bad credentials")
		return
	}
	for id, u := range s.users {
		if u.Username == username {
			session := uuid.NewString()
			s.sessions[session] = id
			http.SetCookie(w, &http.Cookie{Name: SessionCookie, Value: session, Path: "/", HttpOnly: true})
			writeJSON(w, http.StatusOK, u)
			return
		}
	}
	writeError(w, http.StatusUnauthorized, "Bad credentials")
}

func (s *Server) handleRegister(w http.ResponseWriter, r *http.Request) {
	var creds gamehub.Credentials
	if err := json.NewDecoder(r.Body).Decode(&creds); err != nil || creds.Username == "" {
		writeError(w, http.StatusBadRequest, "invalid registration")
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.passwords[creds.Username]; exists {
		writeError(w, http.StatusConflict, "Username already exists")
		return
	}
	user := &gamehub.User{ID: s.newID("user-"), Username: creds.Username, Role: "USER", GameLibrary: []gamehub.LibraryGame{}}
	s.users[user.ID] = user
	s.passwords[creds.Username] = creds.Password
	writeJSON(w, http.StatusOK, user)
}

func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	if cookie, err := r.Cookie(SessionCookie); err == nil {
		s.mu.Lock()
		delete(s.sessions, cookie.Value)
		s.mu.Unlock()
	}
	http.Redirect(w, r, "/", http.StatusFound)
}

func (s *Server) handleGames(w http.ResponseWriter, r *http.Request, _ *gamehub.User) {
	page, err := strconv.Atoi(r.URL.Query().Get("page"))
	if err != nil || page < 1 {
		page = 1
	}
	search := strings.ToLower(r.URL.Query().Get("search"))

	s.mu.Lock()
	defer s.mu.Unlock()
	var matching []gamehub.Game
	for _, g := range s.games {
		if search == "" || strings.Contains(strings.ToLower(g.Title), search) {
			matching = append(matching, g)
		}
	}

	list := gamehub.GameList{Count: len(matching), Games: []gamehub.Game{}}
	start := (page - 1) * s.PageSize
	if start < len(matching) {
		end := min(start+s.PageSize, len(matching))
		list.Games = matching[start:end]
		if end < len(matching) {
			list.Next = fmt.Sprintf("%s/api/games?page=%d", s.URL, page+1)
		}
	}
	if page > 1 {
		list.Previous = fmt.Sprintf("%s/api/games?page=%d", s.URL, page-1)
	}
	writeJSON(w, http.StatusOK, list)
}

func (s *Server) handleGameDetail(w http.ResponseWriter, r *http.Request, _ *gamehub.User) {
	s.mu.Lock()
	defer s.mu.Unlock()
	detail, ok := s.details[r.PathValue("id")]
	if !ok {
		writeError(w, http.StatusNotFound, "Game not found")
		return
	}
	writeJSON(w, http.StatusOK, detail)
}

func (s *Server) handleUsers(w http.ResponseWriter, _ *http.Request, _ *gamehub.User) {
	s.mu.Lock()
	defer s.mu.Unlock()
	users := make([]gamehub.User, 0, len(s.users))
	for _, u := range s.users {
		users = append(users, *u)
	}
	writeJSON(w, http.StatusOK, users)
}

func (s *Server) handleUser(w http.ResponseWriter, r *http.Request, _ *gamehub.User) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[r.PathValue("id")]
	if !ok {
		writeError(w, http.StatusNotFound, "User not found")
		return
	}
	writeJSON(w, http.StatusOK, u)
}

func (s *Server) handleDeleteUser(w http.ResponseWriter, r *http.Request, _ *gamehub.User) {
	s.mu.Lock()
	defer s.mu.Unlock()
	id := r.PathValue("id")
	u, ok := s.users[id]
	if !ok {
		writeError(w, http.StatusNotFound, "User not found")
		return
	}
	delete(s.passwords, u.Username)
	delete(s.users, id)
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleLibrary(add bool) userHandler {
	return func(w http.ResponseWriter, r *http.Request, _ *gamehub.User) {
		var body struct {
			UserID string              `json:"userId"`
			Game   gamehub.LibraryGame `json:"game"`
		}
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			writeError(w, http.StatusBadRequest, "invalid body")
			return
		}
		s.mu.Lock()
		defer s.mu.Unlock()
		u, ok := s.users[body.UserID]
		if !ok {
			writeError(w, http.StatusNotFound, "User not found")
			return
		}
		library := make([]gamehub.LibraryGame, 0, len(u.GameLibrary)+1)
		for _, g := range u.GameLibrary {
			if g.ID != body.Game.ID {
				library = append(library, g)
			}
		}
		if add {
			library = append(library, body.Game)
		}
		u.GameLibrary = library
		writeJSON(w, http.StatusOK, u)
	}
}

func (s *Server) handleNotes(w http.ResponseWriter, _ *http.Request, _ *gamehub.User) {
	s.mu.Lock()
	defer s.mu.Unlock()
	writeJSON(w, http.StatusOK, append([]gamehub.Note{}, s.notes...))
}

func (s *Server) handleUserNotes(w http.ResponseWriter, r *http.Request, _ *gamehub.User) {
	s.mu.Lock()
	defer s.mu.Unlock()
	notes := []gamehub.Note{}
	for _, n := range s.notes {
		if n.UserID == r.PathValue("id") {
			notes = append(notes, n)
		}
	}
	writeJSON(w, http.StatusOK, notes)
}

func (s *Server) findNote(id string) int {
	for i, n := range s.notes {
		if n.ID == id {
			return i
		}
	}
	return -1
}

func (s *Server) handleNote(w http.ResponseWriter, r *http.Request, _ *gamehub.User) {
	s.mu.Lock()
	defer s.mu.Unlock()
	i := s.findNote(r.PathValue("id"))
	if i < 0 {
		writeError(w, http.StatusNotFound, "Note not found")
		return
	}
	writeJSON(w, http.StatusOK, s.notes[i])
}

func (s *Server) handleCreateNote(w http.ResponseWriter, r *http.Request, _ *gamehub.User) {
	var in gamehub.NoteInput
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		writeError(w, http.StatusBadRequest, "invalid body")
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	note := gamehub.Note{
		ID:        s.newID("note-"),
		UserID:    in.UserID,
		GameID:    in.GameID,
		GameTitle: in.GameTitle,
		Title:     in.Title,
		Content:   in.Content,
		Category:  in.Category,
	}
	s.notes = append(s.notes, note)
	writeJSON(w, http.StatusOK, note)
}

func (s *Server) handleUpdateNote(w http.ResponseWriter, r *http.Request, _ *gamehub.User) {
	var in gamehub.NoteInput
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		writeError(w, http.StatusBadRequest, "invalid body")
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	i := s.findNote(r.PathValue("id"))
	if i < 0 {
		writeError(w, http.StatusNotFound, "Note not found")
		return
	}
	s.notes[i].Title = in.Title
	s.notes[i].Content = in.Content
	s.notes[i].Category = in.Category
	writeJSON(w, http.StatusOK, s.notes[i])
}

func (s *Server) handleDeleteNote(w http.ResponseWriter, r *http.Request, _ *gamehub.User) {
	s.mu.Lock()
	defer s.mu.Unlock()
	i := s.findNote(r.PathValue("id"))
	if i < 0 {
		writeError(w, http.StatusNotFound, "Note not found")
		return
	}
	s.notes = append(s.notes[:i], s.notes[i+1:]...)
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleReviews(w http.ResponseWriter, _ *http.Request, _ *gamehub.User) {
	s.mu.Lock()
	defer s.mu.Unlock()
	writeJSON(w, http.StatusOK, append([]gamehub.Review{}, s.reviews...))
}

func (s *Server) handleUserReviews(w http.ResponseWriter, r *http.Request, _ *gamehub.User) {
	s.mu.Lock()
	defer s.mu.Unlock()
	reviews := []gamehub.Review{}
	for _, rv := range s.reviews {
		if rv.UserID == r.PathValue("id") {
			reviews = append(reviews, rv)
		}
	}
	writeJSON(w, http.StatusOK, reviews)
}

func (s *Server) handleGameReviews(w http.ResponseWriter, r *http.Request, _ *gamehub.User) {
	s.mu.Lock()
	defer s.mu.Unlock()
	reviews := []gamehub.Review{}
	for _, rv := range s.reviews {
		if rv.GameID == r.PathValue("id") {
			reviews = append(reviews, rv)
		}
	}
	writeJSON(w, http.StatusOK, reviews)
}

func (s *Server) findReview(id string) int {
	for i, rv := range s.reviews {
		if rv.ID == id {
			return i
		}
	}
	return -1
}

func (s *Server) handleCreateReview(w http.ResponseWriter, r *http.Request, _ *gamehub.User) {
	var in gamehub.ReviewInput
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		writeError(w, http.StatusBadRequest, "invalid body")
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	review := gamehub.Review{
		ID:        s.newID("review-"),
		GameTitle: in.GameTitle,
		UserID:    in.UserID,
		GameID:    in.GameID,
		Username:  in.Username,
		Rating:    in.Rating,
		Content:   in.Content,
		Date:      in.Date,
	}
	s.reviews = append(s.reviews, review)
	writeJSON(w, http.StatusOK, review)
}

func (s *Server) handleUpdateReview(w http.ResponseWriter, r *http.Request, _ *gamehub.User) {
	var in gamehub.ReviewInput
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		writeError(w, http.StatusBadRequest, "invalid body")
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	i := s.findReview(r.PathValue("id"))
	if i < 0 {
		writeError(w, http.StatusNotFound, "Review not found")
		return
	}
	s.reviews[i].Rating = in.Rating
	s.reviews[i].Content = in.Content
	s.reviews[i].Date = in.Date
	writeJSON(w, http.StatusOK, s.reviews[i])
}

func (s *Server) handleDeleteReview(w http.ResponseWriter, r *http.Request, _ *gamehub.User) {
	s.mu.Lock()
	defer s.mu.Unlock()
	i := s.findReview(r.PathValue("id"))
	if i < 0 {
		writeError(w, http.StatusNotFound, "Review not found")
		return
	}
	s.reviews = append(s.reviews[:i], s.reviews[i+1:]...)
	w.WriteHeader(http.StatusNoContent)
}
