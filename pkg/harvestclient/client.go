package harvestclient

import (
	"errors"
	"fmt"
	"strings"

	"dario.cat/mergo"

	"github.com/fivetwenty-io/harvest-client/internal/client"
	"github.com/fivetwenty-io/harvest-client/pkg/harvest"
)

// ErrConfigRequired is returned by New for a nil config.
var ErrConfigRequired = errors.New("config is required")

// New creates a Harvest API client. Zero config fields take the values of
// harvest.DefaultConfig; the caller's config is not modified.
func New(config *harvest.Config) (harvest.Client, error) {
	if config == nil {
		return nil, ErrConfigRequired
	}

	resolved := *config

	err := mergo.Merge(&resolved, harvest.DefaultConfig())
	if err != nil {
		return nil, fmt.Errorf("applying config defaults: %w", err)
	}

	if resolved.BaseURL != "" {
		resolved.BaseURL = normalizeBaseURL(resolved.BaseURL)
	}

	c, err := client.New(&resolved)
	if err != nil {
		return nil, fmt.Errorf("failed to create new client: %w", err)
	}

	return c, nil
}

// normalizeBaseURL trims a trailing slash and adds "https://" if no scheme is present.
func normalizeBaseURL(baseURL string) string {
	baseURL = strings.TrimSuffix(baseURL, "/")
	if !strings.HasPrefix(baseURL, "http://") && !strings.HasPrefix(baseURL, "https://") {
		baseURL = "https://" + baseURL
	}

	return baseURL
}

// NewWithAPIKey creates a client for the default API version.
func NewWithAPIKey(apiKey string) (harvest.Client, error) {
	return New(&harvest.Config{APIKey: apiKey})
}

// NewWithVersion creates a client for a specific API version.
func NewWithVersion(apiKey, version string) (harvest.Client, error) {
	return New(&harvest.Config{APIKey: apiKey, Version: version})
}
