// Package config loads postsync settings from an optional YAML file.
//
// Every field has a default, so a missing or partial file is fine:
//
//	database: ~/.local/share/postsync/posts.db
//	endpoint: https://jsonplaceholder.typicode.com/posts
//	timeout: 30s
//	rate_limit: 2        # requests per second, 0 disables limiting
//	rate_burst: 1
//	sync_interval: 1m    # used by `postsync watch`
//	listen: 127.0.0.1:8080
//	identity:
//	  id: 1
//	  username: User
//	  avatar_url: https://i.imgur.com/abc123.jpg
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"net/url"
	"os"
	"time"

	"golang.org/x/time/rate"
	"gopkg.in/yaml.v3"

	"github.com/roach88/postsync/internal/post"
	"github.com/roach88/postsync/internal/syncer"
)

// Config holds every setting the CLI consumes.
type Config struct {
	Database     string        `yaml:"database"`
	Endpoint     string        `yaml:"endpoint"`
	Timeout      time.Duration `yaml:"timeout"`
	RateLimit    float64       `yaml:"rate_limit"`
	RateBurst    int           `yaml:"rate_burst"`
	SyncInterval time.Duration `yaml:"sync_interval"`
	Listen       string        `yaml:"listen"`
	Identity     post.Identity `yaml:"identity"`
}

// Default returns the built-in settings.
func Default() Config {
	return Config{
		Database:     "postsync.db",
		Endpoint:     syncer.DefaultEndpoint,
		Timeout:      30 * time.Second,
		RateLimit:    2,
		RateBurst:    1,
		SyncInterval: time.Minute,
		Listen:       "127.0.0.1:8080",
		Identity: post.Identity{
			ID:        post.DefaultOwnerID,
			Username:  post.DefaultAuthorName,
			AvatarURL: post.DefaultAvatarURL,
		},
	}
}

// Load reads the YAML file at path over the defaults. An empty path returns
// the defaults. Unknown keys are rejected so typos surface.
func Load(path string) (Config, error) {
	if path == "" {
		return Default(), nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg, err := Parse(data)
	if err != nil {
		return Config{}, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}

// Parse decodes YAML over the defaults and validates the result.
func Parse(data []byte) (Config, error) {
	cfg := Default()

	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&cfg); err != nil && !errors.Is(err, io.EOF) {
		return Config{}, fmt.Errorf("failed to parse YAML: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

// Validate checks field ranges.
func (c Config) Validate() error {
	if c.Database == "" {
		return fmt.Errorf("database is required")
	}

	u, err := url.Parse(c.Endpoint)
	if err != nil {
		return fmt.Errorf("endpoint: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("endpoint %q: scheme must be http or https", c.Endpoint)
	}
	if u.Host == "" {
		return fmt.Errorf("endpoint %q: host is required", c.Endpoint)
	}

	if c.Timeout < 0 {
		return fmt.Errorf("timeout must not be negative")
	}
	if c.RateLimit < 0 {
		return fmt.Errorf("rate_limit must not be negative")
	}
	if c.RateBurst < 0 {
		return fmt.Errorf("rate_burst must not be negative")
	}
	if c.SyncInterval <= 0 {
		return fmt.Errorf("sync_interval must be positive")
	}
	if c.Identity.Username == "" {
		return fmt.Errorf("identity.username is required")
	}
	return nil
}

// Limit converts RateLimit to a limiter rate; zero means unlimited.
func (c Config) Limit() rate.Limit {
	if c.RateLimit <= 0 {
		return rate.Inf
	}
	return rate.Limit(c.RateLimit)
}

// ClientOptions returns the sync client settings this config describes.
func (c Config) ClientOptions() []syncer.ClientOption {
	opts := []syncer.ClientOption{syncer.WithRateLimit(c.Limit(), c.RateBurst)}
	if c.Timeout > 0 {
		opts = append(opts, syncer.WithTimeout(c.Timeout))
	}
	return opts
}
