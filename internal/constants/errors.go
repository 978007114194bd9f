package constants

import "errors"

// Configuration errors.
var (
	ErrNoAPIKey          = errors.New("no API key configured, use 'harvest login' or set HARVEST_API_KEY")
	ErrUnknownConfigKey  = errors.New("unknown configuration key")
	ErrEmptyAPIKey       = errors.New("API key must not be empty")
	ErrUnsupportedFormat = errors.New("unsupported output format")
)

// Command errors.
var (
	ErrInvalidPath      = errors.New("invalid resource path, expected resource[/id[/related[/id]]]")
	ErrNoData           = errors.New("--data is required")
	ErrConflictingFlags = errors.New("--all and --last cannot be combined")
	ErrUnsupportedSink  = errors.New("unsupported export sink")
	ErrBucketRequired   = errors.New("--bucket is required for the s3 sink")
)
