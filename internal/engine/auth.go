package engine

import (
	"context"
	"errors"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/gamehub/gamehub/pkg/gamehub"
)

// LoginForm holds the credentials of the login form.
type LoginForm struct {
	Username string `form:"username" validate:"required"`
	Password string `form:"password" validate:"required"`
}

// RegisterForm holds the fields of the registration form.
type RegisterForm struct {
	Username        string `form:"username" validate:"required,max=50"`
	Password        string `form:"password" validate:"required"`
	ConfirmPassword string `form:"confirm_password"`
}

// Login authenticates against the backend and returns the backend session.
func (e *Engine) Login(ctx context.Context, form LoginForm) (string, error) {
	form.Username = strings.TrimSpace(form.Username)
	if err := e.validateStruct(&form); err != nil {
		return "", err
	}
	session, err := e.backend.Login(ctx, form.Username, form.Password)
	if err != nil {
		if !errors.Is(err, gamehub.ErrUnauthorized) {
			log.Error("login failed", "username", form.Username, "error", err)
		}
		return "", err
	}
	log.Info("user logged in", "username", form.Username)
	return session, nil
}

// Register creates a new account. The password confirmation is checked before anything else.
func (e *Engine) Register(ctx context.Context, form RegisterForm) (*gamehub.User, error) {
	if form.Password != form.ConfirmPassword {
		return nil, ErrPasswordMismatch
	}
	form.Username = strings.TrimSpace(form.Username)
	if err := e.validateStruct(&form); err != nil {
		return nil, err
	}
	user, err := e.backend.Register(ctx, gamehub.Credentials{
		Username: form.Username,
		Password: form.Password,
	})
	if err != nil {
		log.Error("registration failed", "username", form.Username, "error", err)
		return nil, err
	}
	log.Info("user registered", "username", form.Username)
	return user, nil
}

// Logout ends the backend session. Failures are logged and otherwise ignored.
func (e *Engine) Logout(ctx context.Context, session string) {
	if err := e.client(session).Logout(ctx); err != nil {
		log.Warn("backend logout failed", "error", err)
	}
}
