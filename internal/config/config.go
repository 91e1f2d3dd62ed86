package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/spf13/viper"
)

type CacheType string

const (
	CacheTypeMemory CacheType = "memory"
	CacheTypeRedis  CacheType = "redis"
)

// Config holds the configuration for the GameHub web client and its backend connection.
type Config struct {
	// Listen is the address the GameHub web client will listen on.
	Listen string `yaml:"listen" mapstructure:"listen"`
	// ServerURL is the public base URL of the GameHub web client.
	ServerURL string `yaml:"server_url" mapstructure:"server_url"`
	// SessionKey is the key used to sign and encrypt session cookies.
	SessionKey string `yaml:"session_key" mapstructure:"session_key"`
	// SessionMaxAge is the maximum age of a session in seconds.
	SessionMaxAge int `yaml:"session_max_age" mapstructure:"session_max_age"`
	// SecureCookies marks the session cookie as https only.
	SecureCookies bool `yaml:"secure_cookies" mapstructure:"secure_cookies"`
	// Backend holds the connection settings for the GameHub REST backend.
	Backend *BackendConfig `yaml:"backend" mapstructure:"backend"`
	// Catalog holds the game gallery settings.
	Catalog *CatalogConfig `yaml:"catalog" mapstructure:"catalog"`
	// Auth holds the enabled login methods.
	Auth *AuthConfig `yaml:"auth" mapstructure:"auth"`
	// Cache holds the cache engine configuration.
	Cache *CacheConfig `yaml:"cache" mapstructure:"cache"`
	// Database holds the database configuration.
	Database *DatabaseConfig `yaml:"database" mapstructure:"database"`
	// Gravatar holds the configuration for fallback profile pictures.
	Gravatar *GravatarConfig `yaml:"gravatar" mapstructure:"gravatar"`
	// Notify holds the toast relay configuration.
	Notify *NotifyConfig `yaml:"notify" mapstructure:"notify"`
	// Jobs holds the schedules of the background jobs.
	Jobs *JobsConfig `yaml:"jobs" mapstructure:"jobs"`
}

// BackendConfig holds the configuration for the GameHub REST backend.
type BackendConfig struct {
	// URL is the base URL the web client uses to reach the backend.
	URL string `yaml:"url" mapstructure:"url"`
	// PublicURL is the backend URL as seen by browsers. Defaults to URL.
	PublicURL string `yaml:"public_url" mapstructure:"public_url"`
	// SessionCookie is the name of the session cookie issued by the backend.
	SessionCookie string `yaml:"session_cookie" mapstructure:"session_cookie"`
	// Timeout is the timeout of a single backend request.
	Timeout time.Duration `yaml:"timeout" mapstructure:"timeout"`
}

// CatalogConfig holds the game gallery settings.
type CatalogConfig struct {
	// PageSize is the number of games the backend returns per page.
	PageSize int `yaml:"page_size" mapstructure:"page_size"`
	// MaxPlatformChips is the number of platforms shown on a game card before collapsing into "+N more".
	MaxPlatformChips int `yaml:"max_platform_chips" mapstructure:"max_platform_chips"`
}

// AuthConfig holds the enabled login methods.
type AuthConfig struct {
	// Form enables the username/password login against the backend.
	Form *FormAuthConfig `yaml:"form" mapstructure:"form"`
	// GitHub enables the GitHub login handled by the backend.
	GitHub *GitHubAuthConfig `yaml:"github" mapstructure:"github"`
}

// FormAuthConfig holds the username/password login configuration.
type FormAuthConfig struct {
	// Enabled indicates whether the login form is shown.
	Enabled bool `yaml:"enabled" mapstructure:"enabled"`
	// AllowRegistration indicates whether new accounts can be created.
	AllowRegistration bool `yaml:"allow_registration" mapstructure:"allow_registration"`
}

// GitHubAuthConfig holds the GitHub login configuration.
type GitHubAuthConfig struct {
	// Enabled indicates whether the GitHub login button is shown.
	Enabled bool `yaml:"enabled" mapstructure:"enabled"`
	// AuthorizationPath is the backend path starting the GitHub authorization flow.
	AuthorizationPath string `yaml:"authorization_path" mapstructure:"authorization_path"`
	// Proxy routes the backend OAuth endpoints through the web client so the
	// backend session cookie is issued for this origin.
	Proxy bool `yaml:"proxy" mapstructure:"proxy"`
}

// CacheConfig holds the configuration for the cache engine.
type CacheConfig struct {
	// Type is the type of cache engine to use (e.g., "memory", "redis").
	Type CacheType `yaml:"type" mapstructure:"type"`
	// RedisURL is the address of the Redis server if using Redis.
	RedisURL string `yaml:"redis_url" mapstructure:"redis_url"`
	// CatalogTTL is how long a fetched catalog page is reused.
	CatalogTTL time.Duration `yaml:"catalog_ttl" mapstructure:"catalog_ttl"`
	// DetailTTL is how long a fetched game detail is reused.
	DetailTTL time.Duration `yaml:"detail_ttl" mapstructure:"detail_ttl"`
	// ImageDir is the directory holding resized cover images.
	ImageDir string `yaml:"image_dir" mapstructure:"image_dir"`
	// ImageMaxAge is the age after which cached cover images are removed.
	ImageMaxAge time.Duration `yaml:"image_max_age" mapstructure:"image_max_age"`
	// ImageHosts are the hosts the image cache is allowed to download covers from.
	ImageHosts []string `yaml:"image_hosts" mapstructure:"image_hosts"`
}

// DatabaseConfig holds the database configuration.
type DatabaseConfig struct {
	// Path is the path to the database file.
	Path string `yaml:"path" mapstructure:"path"`
}

// GravatarConfig holds the configuration for Gravatar profile pictures.
type GravatarConfig struct {
	// Enabled indicates whether Gravatar support is enabled.
	Enabled bool `yaml:"enabled" mapstructure:"enabled"`
	// DefaultImage is the default image to use when no Gravatar is found.
	// Valid values: "404", "mp", "identicon", "monsterid", "wavatar", "retro", "robohash", "blank"
	DefaultImage string `yaml:"default_image" mapstructure:"default_image"`
	// Rating is the maximum rating for Gravatar images.
	// Valid values: "g", "pg", "r", "x"
	Rating string `yaml:"rating" mapstructure:"rating"`
	// Size is the size of the Gravatar image in pixels (1-2048).
	Size int `yaml:"size" mapstructure:"size"`
}

// NotifyConfig holds the toast relay configuration.
type NotifyConfig struct {
	// MaxPending is the number of undelivered toasts kept per browser.
	MaxPending int `yaml:"max_pending" mapstructure:"max_pending"`
	// PendingTTL is how long undelivered toasts are kept for a browser that does not come back.
	PendingTTL time.Duration `yaml:"pending_ttl" mapstructure:"pending_ttl"`
}

// JobsConfig holds the cron schedules of the background jobs.
type JobsConfig struct {
	// CacheCleanupSchedule clears the catalog and detail caches.
	CacheCleanupSchedule string `yaml:"cache_cleanup_schedule" mapstructure:"cache_cleanup_schedule"`
	// ImageCleanupSchedule removes old cover images.
	ImageCleanupSchedule string `yaml:"image_cleanup_schedule" mapstructure:"image_cleanup_schedule"`
}

// Load reads the configuration from the specified path and returns a Config struct.
// If path is empty, it will use default search paths for config files.
func Load(path string) (*Config, error) {
	v := viper.New()

	// bind some weirdly unsupported nested env vars
	bindNestedEnv(v)

	// Set default values
	setDefaults(v)

	// Configure Viper
	v.SetConfigType("yaml")
	v.SetEnvPrefix("GAMEHUB")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	var configFileFound bool
	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("config")
		v.AddConfigPath(".")
		v.AddConfigPath("$HOME/.gamehub")
		v.AddConfigPath("/etc/gamehub")
	}

	if err := v.ReadInConfig(); err != nil {
		// If no config file is found, use defaults
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	} else {
		configFileFound = true
	}

	if configFileFound {
		log.Debug("Using config file", "file", v.ConfigFileUsed())
		log.Debug("Environment variables with the GAMEHUB_ prefix override config file values")
	}

	var c Config
	if err := v.Unmarshal(&c); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	sanitizeConfig(&c)

	if err := validateConfig(&c); err != nil {
		return nil, err
	}

	return &c, nil
}

// setDefaults sets default values for the configuration.
func setDefaults(v *viper.Viper) {
	v.SetDefault("listen", "0.0.0.0:3003")
	v.SetDefault("server_url", "http://localhost:3003")
	v.SetDefault("session_max_age", 172800) // 48 hour
	v.SetDefault("session_key", "")
	v.SetDefault("secure_cookies", false)

	// Backend defaults
	v.SetDefault("backend.url", "http://localhost:8080")
	v.SetDefault("backend.public_url", "")
	v.SetDefault("backend.session_cookie", "JSESSIONID")
	v.SetDefault("backend.timeout", 30*time.Second)

	// Catalog defaults
	v.SetDefault("catalog.page_size", 20)
	v.SetDefault("catalog.max_platform_chips", 5)

	// Auth defaults
	v.SetDefault("auth.form.enabled", true)
	v.SetDefault("auth.form.allow_registration", true)
	v.SetDefault("auth.github.enabled", true)
	v.SetDefault("auth.github.authorization_path", "/oauth2/authorization/github")
	v.SetDefault("auth.github.proxy", true)

	// Cache defaults
	v.SetDefault("cache.type", CacheTypeMemory)
	v.SetDefault("cache.redis_url", "")
	v.SetDefault("cache.catalog_ttl", 10*time.Minute)
	v.SetDefault("cache.detail_ttl", time.Hour)
	v.SetDefault("cache.image_dir", "./data/cache/images")
	v.SetDefault("cache.image_max_age", 7*24*time.Hour)
	v.SetDefault("cache.image_hosts", []string{"media.rawg.io"})

	// Database defaults
	v.SetDefault("database.path", "./data/gamehub.db")

	// Gravatar defaults
	v.SetDefault("gravatar.enabled", true)
	v.SetDefault("gravatar.default_image", "identicon")
	v.SetDefault("gravatar.rating", "g")
	v.SetDefault("gravatar.size", 120)

	// Notify defaults
	v.SetDefault("notify.max_pending", 20)
	v.SetDefault("notify.pending_ttl", time.Hour)

	// Job defaults
	v.SetDefault("jobs.cache_cleanup_schedule", "0 * * * *")
	v.SetDefault("jobs.image_cleanup_schedule", "0 3 * * *")
}

// the auto env function from viper only works for nested structs, if the struct to which a value binds isn't nil.
// Values without a default have to be bound manually.
func bindNestedEnv(v *viper.Viper) {
	v.MustBindEnv("backend.url", "GAMEHUB_BACKEND_URL")
	v.MustBindEnv("backend.public_url", "GAMEHUB_BACKEND_PUBLIC_URL")
	v.MustBindEnv("cache.redis_url", "GAMEHUB_CACHE_REDIS_URL")
	v.MustBindEnv("session_key", "GAMEHUB_SESSION_KEY")
}

// validateConfig validates the configuration.
func validateConfig(c *Config) error {
	if c == nil {
		return fmt.Errorf("missing gamehub config")
	}

	if c.SessionKey == "" {
		return fmt.Errorf("session key is required")
	}
	if len(c.SessionKey) < 16 {
		return fmt.Errorf("session key must be at least 16 characters long")
	}

	if c.Backend == nil || c.Backend.URL == "" {
		return fmt.Errorf("backend URL is required")
	}
	if c.Backend.SessionCookie == "" {
		return fmt.Errorf("backend session cookie name is required")
	}
	if c.Backend.PublicURL == "" {
		c.Backend.PublicURL = c.Backend.URL
	}

	if c.Catalog == nil {
		c.Catalog = &CatalogConfig{PageSize: 20, MaxPlatformChips: 5}
	}
	if c.Catalog.PageSize <= 0 {
		return fmt.Errorf("catalog page size must be greater than 0")
	}
	if c.Catalog.MaxPlatformChips <= 0 {
		return fmt.Errorf("catalog max platform chips must be greater than 0")
	}

	if c.Auth == nil {
		return fmt.Errorf("missing auth config")
	}
	authEnabled := false
	if c.Auth.Form != nil && c.Auth.Form.Enabled {
		authEnabled = true
	}
	if c.Auth.GitHub != nil && c.Auth.GitHub.Enabled {
		authEnabled = true
		if c.Auth.GitHub.AuthorizationPath == "" {
			return fmt.Errorf("GitHub authorization path is required when GitHub auth is enabled") //nolint:staticcheck
		}
	}
	if !authEnabled {
		return fmt.Errorf("at least one authentication method must be enabled")
	}

	if c.Cache != nil {
		if c.Cache.Type == "" {
			return fmt.Errorf("cache type is required when cache is enabled")
		}
		if c.Cache.Type != CacheTypeMemory && c.Cache.Type != CacheTypeRedis {
			return fmt.Errorf("unknown cache type %q", c.Cache.Type)
		}
		if c.Cache.Type == CacheTypeRedis && c.Cache.RedisURL == "" {
			return fmt.Errorf("Redis URL is required when Redis cache is enabled") //nolint:staticcheck
		}
		for _, host := range c.Cache.ImageHosts {
			if host == "" || strings.ContainsAny(host, "/:?#@ ") {
				return fmt.Errorf("invalid image host %q, expected a bare host name", host)
			}
		}
	} else {
		c.Cache = &CacheConfig{
			Type:        CacheTypeMemory,
			CatalogTTL:  10 * time.Minute,
			DetailTTL:   time.Hour,
			ImageDir:    "./data/cache/images",
			ImageMaxAge: 7 * 24 * time.Hour,
			ImageHosts:  []string{"media.rawg.io"},
		}
	}

	if c.Database == nil || c.Database.Path == "" {
		return fmt.Errorf("database path is required")
	}

	if c.Notify == nil {
		c.Notify = &NotifyConfig{MaxPending: 20, PendingTTL: time.Hour}
	}
	if c.Notify.MaxPending <= 0 {
		return fmt.Errorf("notify max pending must be greater than 0")
	}
	if c.Notify.PendingTTL < 0 {
		return fmt.Errorf("notify pending ttl must not be negative")
	}
	if c.Notify.PendingTTL == 0 {
		c.Notify.PendingTTL = time.Hour
	}

	if c.Jobs != nil {
		for name, schedule := range map[string]string{
			"cache cleanup": c.Jobs.CacheCleanupSchedule,
			"image cleanup": c.Jobs.ImageCleanupSchedule,
		} {
			// Basic validation for cron format (5 fields)
			if len(strings.Fields(schedule)) != 5 {
				return fmt.Errorf("%s schedule must be a valid cron expression with 5 fields (minute hour day month weekday)", name)
			}
		}
	}

	return nil
}

// sanitizeConfig sanitizes the configuration values.
func sanitizeConfig(c *Config) {
	if c == nil {
		return
	}

	c.Listen = urlSanitize(c.Listen)

	if c.Backend != nil {
		c.Backend.URL = urlSanitize(c.Backend.URL)
		c.Backend.PublicURL = urlSanitize(c.Backend.PublicURL)
	}

	if c.ServerURL != "" {
		c.ServerURL = urlSanitize(c.ServerURL)
	}

	if c.Cache != nil {
		for i, host := range c.Cache.ImageHosts {
			c.Cache.ImageHosts[i] = strings.ToLower(strings.TrimSpace(host))
		}
	}
}

func urlSanitize(url string) string {
	return strings.TrimSuffix(strings.TrimSpace(url), "/")
}

// GitHubLoginURL returns the browser facing URL that starts the GitHub login.
func (c *Config) GitHubLoginURL() string {
	if c == nil || c.Auth == nil || c.Auth.GitHub == nil || !c.Auth.GitHub.Enabled {
		return ""
	}
	if c.Auth.GitHub.Proxy {
		return c.Auth.GitHub.AuthorizationPath
	}
	return c.Backend.PublicURL + c.Auth.GitHub.AuthorizationPath
}

// RegistrationEnabled reports whether the register page is available.
func (c *Config) RegistrationEnabled() bool {
	return c != nil && c.Auth != nil && c.Auth.Form != nil && c.Auth.Form.Enabled && c.Auth.Form.AllowRegistration
}
