package config

import (
	"fmt"
	"net/url"
	"strings"
)

const (
	defaultUploadDir   = "uploads"
	defaultPushWorkers = 4
)

type Config struct {
	ServerAddr     string
	DatabaseDSN    string
	AllowedOrigins []string
	PushURL        string
	PushWorkers    int
	UploadDir      string
	PublicURL      string
}

type Option func(*Config)

// WithPush enables push notifications through the endpoint at pushURL.
func WithPush(pushURL string, workers int) Option {
	return func(c *Config) {
		c.PushURL = pushURL
		c.PushWorkers = workers
	}
}

// WithUploads sets where uploaded audio is stored and the base URL it is
// served under. An empty publicURL means links are built from the request host.
func WithUploads(dir, publicURL string) Option {
	return func(c *Config) {
		c.UploadDir = dir
		c.PublicURL = publicURL
	}
}

func NewConfig(serverAddr, databaseDSN string, allowedOrigins []string, opts ...Option) (*Config, error) {
	if serverAddr == "" {
		return nil, fmt.Errorf("server address cannot be empty")
	}
	if databaseDSN == "" {
		return nil, fmt.Errorf("database DSN cannot be empty")
	}
	if len(allowedOrigins) == 0 {
		return nil, fmt.Errorf("allowed origins cannot be empty")
	}

	cfg := &Config{
		ServerAddr:     serverAddr,
		DatabaseDSN:    databaseDSN,
		AllowedOrigins: allowedOrigins,
		PushWorkers:    defaultPushWorkers,
		UploadDir:      defaultUploadDir,
	}

	for _, opt := range opts {
		opt(cfg)
	}

	if cfg.UploadDir == "" {
		cfg.UploadDir = defaultUploadDir
	}

	if cfg.PushURL != "" {
		if err := validateURL(cfg.PushURL); err != nil {
			return nil, fmt.Errorf("push url: %w", err)
		}
		if cfg.PushWorkers < 1 {
			return nil, fmt.Errorf("push workers must be at least 1, got %d", cfg.PushWorkers)
		}
	}

	if cfg.PublicURL != "" {
		if err := validateURL(cfg.PublicURL); err != nil {
			return nil, fmt.Errorf("public url: %w", err)
		}
		cfg.PublicURL = strings.TrimSuffix(cfg.PublicURL, "/")
	}

	return cfg, nil
}

// ParseOrigins splits a comma separated origin list, dropping blanks.
func ParseOrigins(s string) []string {
	var origins []string
	for _, o := range strings.Split(s, ",") {
		if o = strings.TrimSpace(o); o != "" {
			origins = append(origins, o)
		}
	}

	return origins
}

func validateURL(raw string) error {
	u, err := url.Parse(raw)
	if err != nil {
		return err
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("unsupported scheme %q", u.Scheme)
	}
	if u.Host == "" {
		return fmt.Errorf("missing host")
	}

	return nil
}
