package harvest

import (
	"context"
	"encoding/json"
	"fmt"
	"iter"
	"net/http"
	"time"

	"github.com/fivetwenty-io/harvest-client/internal/constants"
)

// Client is the root of the API: it resolves resource names of one API version into handles.
type Client interface {
	fmt.Stringer

	// Resolve returns a fresh, unconfigured handle for a direct resource.
	Resolve(name string) (Resource, error)

	// Versions lists every version declared in the registry.
	Versions() []string
	Version() string
	BaseURL() string

	// Resources lists the direct resource names of the active version.
	Resources() []string
	// RelatedResources lists the sub-resources of a direct resource, or nil if it is unknown.
	RelatedResources(name string) []string

	// APIKey returns the masked key.
	APIKey() string
}

// Resource is a handle bound to one endpoint. It carries a selected id, accumulated query
// parameters and the pagination cursors of its last request. Handles are not safe for
// concurrent use; resolve one handle per logical query.
type Resource interface {
	fmt.Stringer

	Name() string
	DisplayName() string
	SelectedID() string
	// ListURL and RetrieveURL are the fully qualified templates, empty when the mode is unsupported.
	ListURL() string
	RetrieveURL() string
	// URL is what the next Get without an explicit id would request.
	URL() (string, error)
	Params() Params
	NextURL() string
	LastURL() string
	RecordsRemaining() bool
	RelatedNames() []string

	// Configure selects an object ("" selects list mode) and merges params.
	Configure(id string, params Params) Resource
	Select(id string) Resource
	WithParams(params Params) Resource
	OnBehalfOf(actor string) Resource

	Get(ctx context.Context, id string, params Params) (json.RawMessage, error)
	Pages() PageIterator
	GetNext(ctx context.Context) (json.RawMessage, error)
	GetLast(ctx context.Context) (json.RawMessage, error)

	Post(ctx context.Context, data any, onBehalfOf string) (json.RawMessage, error)
	Patch(ctx context.Context, data any, onBehalfOf string) (json.RawMessage, error)
	Put(ctx context.Context, data any, onBehalfOf string) (json.RawMessage, error)
	Delete(ctx context.Context, onBehalfOf string) (json.RawMessage, error)

	// Related returns a handle for a sub-resource of the selected object.
	Related(name string) (Resource, error)
}

// PageIterator walks a resource page by page following "next" links.
type PageIterator interface {
	// Next returns the next page and true, or false once no cursor is left.
	Next(ctx context.Context) (json.RawMessage, bool, error)
	// All yields every remaining page. Iteration stops after the first error.
	All(ctx context.Context) iter.Seq2[json.RawMessage, error]
	// Page is the number of pages fetched so far.
	Page() int
}

// Logger interface for logging.
type Logger interface {
	Debug(msg string, fields map[string]interface{})
	Info(msg string, fields map[string]interface{})
	Warn(msg string, fields map[string]interface{})
	Error(msg string, fields map[string]interface{})
}

// Config represents client configuration for building a harvest.Client.
//
// Only APIKey is usually needed. Zero fields are filled from DefaultConfig by
// harvestclient.New; an unknown Version fails construction with ErrInvalidAPIVersion.
type Config struct {
	// APIKey is sent as the Basic auth username. Empty means anonymous requests.
	APIKey string
	// Version selects the registry entry, "v1" by default.
	Version string
	// BaseURL overrides the version's base URL, e.g. for a proxy or a test server.
	BaseURL string
	// OnBehalfOf is the default actor of write operations on every handle.
	OnBehalfOf string
	// Registry replaces the built-in endpoint table.
	Registry Registry

	// HTTPClient is the transport used for every request. A pooled client is created when nil.
	HTTPClient *http.Client
	// HTTPTimeout applies to a client created by the library.
	HTTPTimeout time.Duration
	UserAgent   string

	// Debug logs every request and response through Logger.
	Debug  bool
	Logger Logger
	// Metrics records request counts and latencies when set.
	Metrics *MetricsCollector
	// Interceptors run after the built-in ones. Response interceptors see the classified error.
	Interceptors *InterceptorChain
}

// DefaultConfig returns the values used for zero Config fields. A nil Registry
// always means DefaultRegistry and is resolved when the client is built.
func DefaultConfig() *Config {
	return &Config{
		Version:     DefaultVersion,
		HTTPTimeout: constants.DefaultHTTPTimeout,
		UserAgent:   constants.DefaultUserAgent,
	}
}

// MaskAPIKey hides all but the last four characters of a key.
func MaskAPIKey(apiKey string) string {
	if len(apiKey) <= constants.APIKeyVisibleChars {
		return constants.APIKeyMask
	}

	return constants.APIKeyMask + apiKey[len(apiKey)-constants.APIKeyVisibleChars:]
}
