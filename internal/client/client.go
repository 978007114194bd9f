package client

import (
	"fmt"

	"github.com/fivetwenty-io/harvest-client/internal/http"
	"github.com/fivetwenty-io/harvest-client/pkg/harvest"
)

// Client implements the harvest.Client interface.
type Client struct {
	httpClient *http.Client
	registry   harvest.Registry
	version    string
	api        harvest.APIVersion
	baseURL    string
	apiKey     string
	onBehalfOf string
	logger     harvest.Logger
}

// createHTTPClientOptions builds HTTP client options from config.
func createHTTPClientOptions(config *harvest.Config) []http.Option {
	var httpOpts []http.Option

	if config.Logger != nil {
		httpOpts = append(httpOpts, http.WithLogger(config.Logger))
	}

	if config.Debug {
		httpOpts = append(httpOpts, http.WithDebug(true))
	}

	if config.UserAgent != "" {
		httpOpts = append(httpOpts, http.WithUserAgent(config.UserAgent))
	}

	if config.HTTPClient != nil {
		httpOpts = append(httpOpts, http.WithHTTPClient(config.HTTPClient))
	}

	if config.HTTPTimeout > 0 {
		httpOpts = append(httpOpts, http.WithTimeout(config.HTTPTimeout))
	}

	if config.Metrics != nil {
		httpOpts = append(httpOpts, http.WithMetrics(config.Metrics))
	}

	if config.Interceptors != nil {
		httpOpts = append(httpOpts, http.WithInterceptors(config.Interceptors))
	}

	return httpOpts
}

// New creates a client root for config.Version. The version is validated before
// anything else is built.
func New(config *harvest.Config) (*Client, error) {
	registry := config.Registry
	if registry == nil {
		registry = harvest.DefaultRegistry()
	}

	version := config.Version
	if version == "" {
		version = harvest.DefaultVersion
	}

	api, err := registry.Lookup(version)
	if err != nil {
		return nil, err
	}

	baseURL := api.Base
	if config.BaseURL != "" {
		baseURL = config.BaseURL
	}

	client := &Client{
		httpClient: http.NewClient(config.APIKey, createHTTPClientOptions(config)...),
		registry:   registry,
		version:    version,
		api:        api,
		baseURL:    baseURL,
		apiKey:     config.APIKey,
		onBehalfOf: config.OnBehalfOf,
		logger:     config.Logger,
	}

	if client.logger != nil {
		client.logger.Debug("Harvest client created", map[string]interface{}{
			"version":  version,
			"base_url": baseURL,
			"api_key":  client.APIKey(),
		})
	}

	return client, nil
}

// Resolve implements harvest.Client.Resolve.
func (c *Client) Resolve(name string) (harvest.Resource, error) {
	endpoint, ok := c.api.URIs.Direct[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q is not a %s resource", harvest.ErrEndpointNotFound, name, c.version)
	}

	return newResource(c.httpClient, name, c.baseURL, endpoint.List, endpoint.Retrieve, endpoint.Related, c.onBehalfOf), nil
}

// Versions implements harvest.Client.Versions.
func (c *Client) Versions() []string {
	return c.registry.Versions()
}

// Version implements harvest.Client.Version.
func (c *Client) Version() string {
	return c.version
}

// BaseURL implements harvest.Client.BaseURL.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// Resources implements harvest.Client.Resources.
func (c *Client) Resources() []string {
	return c.api.Resources()
}

// RelatedResources implements harvest.Client.RelatedResources.
func (c *Client) RelatedResources(name string) []string {
	endpoint, ok := c.api.URIs.Direct[name]
	if !ok {
		return nil
	}

	return endpoint.RelatedNames()
}

// APIKey returns the masked API key.
func (c *Client) APIKey() string {
	return harvest.MaskAPIKey(c.apiKey)
}

func (c *Client) String() string {
	return "Harvest API " + c.version
}
