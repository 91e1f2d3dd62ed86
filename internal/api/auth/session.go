package auth

import (
	"github.com/charmbracelet/log"
	"github.com/gin-contrib/sessions"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// Session keys.
const (
	sessionClientID       = "client_id"
	sessionBackendSession = "backend_session"
	sessionUsername       = "user_username"
)

// Context keys set by RequireAuth.
const (
	// ContextUser holds the *models.User of the logged in account.
	ContextUser = "user"
	// ContextAccount holds the *gamehub.User as returned by the backend.
	ContextAccount = "account"
	// ContextBackendSession holds the backend session of the request.
	ContextBackendSession = "backend_session"
)

// ClientIDMiddleware makes sure every browser carries a client id in its session.
// The id addresses the browser in the notification hub.
func ClientIDMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		session := sessions.Default(c)
		if getSessionString(session, sessionClientID) == "" {
			session.Set(sessionClientID, uuid.NewString())
			if err := session.Save(); err != nil {
				log.Error("Failed to save session", "error", err)
			}
		}
		c.Next()
	}
}

// ClientID returns the client id of the browser.
func ClientID(c *gin.Context) string {
	return getSessionString(sessions.Default(c), sessionClientID)
}

// BackendSession returns the backend session stored for the browser, empty if the browser is logged out.
func BackendSession(c *gin.Context) string {
	if s := c.GetString(ContextBackendSession); s != "" {
		return s
	}
	return getSessionString(sessions.Default(c), sessionBackendSession)
}

// StoreBackendSession remembers the backend session of a successful login.
func StoreBackendSession(c *gin.Context, backendSession, username string) error {
	session := sessions.Default(c)
	session.Set(sessionBackendSession, backendSession)
	session.Set(sessionUsername, username)
	return session.Save()
}

// ClearBackendSession forgets the login but keeps the client id, so pending toasts still reach the browser.
func ClearBackendSession(c *gin.Context) error {
	session := sessions.Default(c)
	clientID := getSessionString(session, sessionClientID)
	session.Clear()
	if clientID != "" {
		session.Set(sessionClientID, clientID)
	}
	return session.Save()
}

// Helper functions to safely get session values.
func getSessionString(session sessions.Session, key string) string {
	if val := session.Get(key); val != nil {
		if str, ok := val.(string); ok {
			return str
		}
	}
	return ""
}
