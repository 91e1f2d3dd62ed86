package gravatar

import (
	"crypto/sha256"
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"github.com/gamehub/gamehub/internal/config"
)

var (
	validDefaults = map[string]bool{
		"404": true, "mp": true, "identicon": true, "monsterid": true,
		"wavatar": true, "retro": true, "robohash": true, "blank": true,
	}
	validRatings = map[string]bool{"g": true, "pg": true, "r": true, "x": true}
)

// AvatarURL returns the avatar of an account.
// Accounts without an avatar, which is every account created through the registration form,
// get a generated Gravatar image keyed on their username.
func AvatarURL(avatarURL, username string, cfg *config.GravatarConfig) string {
	if avatarURL != "" {
		return avatarURL
	}
	return GenerateURL(username, cfg)
}

// GenerateURL generates a Gravatar URL for the given identity.
// Returns an empty string if Gravatar is disabled or the identity is empty.
func GenerateURL(identity string, cfg *config.GravatarConfig) string {
	identity = strings.TrimSpace(strings.ToLower(identity))
	if cfg == nil || !cfg.Enabled || identity == "" {
		return ""
	}

	hash := sha256.Sum256([]byte(identity))
	avatar := fmt.Sprintf("https://www.gravatar.com/avatar/%x", hash)

	params := url.Values{}
	if cfg.DefaultImage != "" {
		params.Add("d", cfg.DefaultImage)
	}
	if cfg.Rating != "" {
		params.Add("r", cfg.Rating)
	}
	if cfg.Size > 0 {
		params.Add("s", strconv.Itoa(cfg.Size))
	}
	if len(params) > 0 {
		avatar += "?" + params.Encode()
	}
	return avatar
}

// Validate checks the Gravatar settings.
func Validate(cfg *config.GravatarConfig) error {
	if cfg == nil || !cfg.Enabled {
		return nil
	}
	if cfg.DefaultImage != "" && !validDefaults[cfg.DefaultImage] {
		return fmt.Errorf("invalid gravatar default image %q", cfg.DefaultImage)
	}
	if cfg.Rating != "" && !validRatings[cfg.Rating] {
		return fmt.Errorf("invalid gravatar rating %q", cfg.Rating)
	}
	if cfg.Size != 0 && (cfg.Size < 1 || cfg.Size > 2048) {
		return fmt.Errorf("gravatar size must be between 1 and 2048, got %d", cfg.Size)
	}
	return nil
}
