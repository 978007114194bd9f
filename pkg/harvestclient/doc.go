// Package harvestclient provides the primary entry point for constructing a
// Greenhouse Harvest API client that implements the harvest.Client interface.
//
// It layers configuration defaults and the authenticated HTTP session on top of
// the interfaces and types defined in the harvest package. Most applications
// import harvestclient to build a client and then use the returned
// harvest.Client to resolve resources.
//
// Quick start
//
//	import (
//	  "context"
//	  "log"
//	  "os"
//
//	  "github.com/fivetwenty-io/harvest-client/pkg/harvest"
//	  "github.com/fivetwenty-io/harvest-client/pkg/harvestclient"
//	)
//
//	func example() {
//	  ctx := context.Background()
//
//	  cli, err := harvestclient.NewWithAPIKey(os.Getenv("HARVEST_API_KEY"))
//	  if err != nil { log.Fatal(err) }
//
//	  candidates, err := cli.Resolve("candidates")
//	  if err != nil { log.Fatal(err) }
//
//	  body, err := candidates.Get(ctx, "42", nil)
//	  if err != nil { log.Fatal(err) }
//	  log.Println(string(body))
//
//	  // Writes need the id of the Harvest user they are attributed to.
//	  cli, err = harvestclient.New(&harvest.Config{
//	    APIKey:     os.Getenv("HARVEST_API_KEY"),
//	    OnBehalfOf: "1234",
//	  })
//	}
//
// Configuration notes
//
//   - Version defaults to "v1"; an unknown version fails with harvest.ErrInvalidAPIVersion.
//   - BaseURL replaces the version's base URL. It is normalized by trimming a
//     trailing slash and adding "https://" when no scheme is present.
//   - Registry replaces the built-in endpoint table, see harvest.LoadRegistry.
//   - Debug together with Logger logs every request and response.
//   - Metrics records Prometheus request metrics, see harvest.NewMetricsCollectorWithRegistry.
//
// Requests are never retried. Rate limiting surfaces as harvest.ErrRateLimited.
package harvestclient
