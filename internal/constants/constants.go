package constants

import "time"

// File and directory permissions.
const (
	// ConfigDirPerm is the permission for configuration directories.
	ConfigDirPerm = 0750

	// ConfigFilePerm is the permission for configuration files.
	ConfigFilePerm = 0600
)

// HTTP and network timeouts.
const (
	// DefaultHTTPTimeout is the default timeout for HTTP requests.
	DefaultHTTPTimeout = 30 * time.Second

	// ShortHTTPTimeout is used for quick operations such as connecting to a broker.
	ShortHTTPTimeout = 10 * time.Second
)

// Request headers.
const (
	// HeaderOnBehalfOf attributes a write to a Harvest user.
	HeaderOnBehalfOf = "On-Behalf-Of"

	// HeaderLink carries pagination cursors.
	HeaderLink = "Link"

	// ContentTypeJSON is sent with every request body.
	ContentTypeJSON = "application/json"

	// DefaultUserAgent is sent when no user agent is configured.
	DefaultUserAgent = "harvest-client-go/1.0"
)

// Credentials.
const (
	// APIKeyMask replaces all but the last APIKeyVisibleChars characters of a key.
	APIKeyMask = "********"

	// APIKeyVisibleChars is the number of trailing key characters left visible.
	APIKeyVisibleChars = 4
)

// Export settings.
const (
	// DefaultNATSSubject receives exported pages when no subject is given.
	DefaultNATSSubject = "harvest.pages"

	// DefaultS3Prefix is the key prefix of exported objects.
	DefaultS3Prefix = "harvest"

	// PageKeyFormat names a page object below its run prefix.
	PageKeyFormat = "page-%05d.json"
)

// Metrics.
const (
	// MetricsNamespace prefixes every collector name.
	MetricsNamespace = "harvest"

	// MetricsIDPlaceholder replaces numeric path segments in endpoint labels.
	MetricsIDPlaceholder = ":id"
)

// Display constants.
const (
	// NotAvailable is used when information is not available.
	NotAvailable = "N/A"

	// None is used when no value is present.
	None = "none"

	// JSONIndentSize is the number of spaces for JSON indentation.
	JSONIndentSize = 2

	// StringTruncationLength is the default length for truncating strings.
	StringTruncationLength = 80
)

// Format constants.
const (
	// FormatTable for table output format.
	FormatTable = "table"

	// FormatJSON for JSON output format.
	FormatJSON = "json"

	// FormatYAML for YAML output format.
	FormatYAML = "yaml"
)

// Export sink names.
const (
	// SinkJSONLines writes pages to a file or stdout.
	SinkJSONLines = "jsonl"

	// SinkNATS publishes pages to a NATS subject.
	SinkNATS = "nats"

	// SinkS3 uploads pages to an S3 bucket.
	SinkS3 = "s3"
)
