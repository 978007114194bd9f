// Package harvest defines the public surface of the Greenhouse Harvest API client.
//
// A Client resolves symbolic resource names ("candidates", "jobs") into Resource
// handles using a Registry of URL templates per API version. A handle is configured
// with an optional object id and query parameters and then executes requests:
//
//	client, err := harvestclient.NewWithAPIKey(os.Getenv("HARVEST_API_KEY"))
//	if err != nil {
//		return err
//	}
//
//	candidates, err := client.Resolve("candidates")
//	if err != nil {
//		return err
//	}
//
//	pages := candidates.Configure("", harvest.Params{"per_page": 100}).Pages()
//	for page, err := range pages.All(ctx) {
//		if err != nil {
//			return err
//		}
//		// decode page
//	}
//
// Sub-resources are reached from an object-scoped handle:
//
//	feed, err := candidates.Select("42").Related("activity_feed")
//
// # Errors
//
// HTTP failures are returned as *HTTPError and match the sentinels ErrUnauthorized,
// ErrForbidden, ErrNotFound, ErrValidation, ErrRateLimited, ErrServer and ErrHTTP
// through errors.Is. Usage mistakes (ErrInvalidAPICall, ErrEndpointNotFound,
// ErrInvalidAPIVersion, ErrCursorNotSet) are reported before any request is sent.
package harvest
