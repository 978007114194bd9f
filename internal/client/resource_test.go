package client_test

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	. "github.com/fivetwenty-io/harvest-client/internal/client"
	"github.com/fivetwenty-io/harvest-client/pkg/harvest"
)

type recordedRequest struct {
	Method     string
	Path       string
	RawQuery   string
	OnBehalfOf string
	Body       string
}

// fakeHarvest records every request and answers from a route table keyed by path.
type fakeHarvest struct {
	*httptest.Server

	mu       sync.Mutex
	requests []recordedRequest
	routes   map[string]fakeRoute
}

type fakeRoute struct {
	status int
	body   string
	link   string
}

func newFakeHarvest(t *testing.T) *fakeHarvest {
	t.Helper()

	fake := &fakeHarvest{routes: make(map[string]fakeRoute)}
	fake.Server = httptest.NewServer(http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
		body, _ := io.ReadAll(request.Body)

		fake.mu.Lock()
		fake.requests = append(fake.requests, recordedRequest{
			Method:     request.Method,
			Path:       request.URL.Path,
			RawQuery:   request.URL.RawQuery,
			OnBehalfOf: request.Header.Get("On-Behalf-Of"),
			Body:       string(body),
		})
		route, ok := fake.routes[request.URL.Path+"?"+request.URL.RawQuery]
		if !ok {
			route, ok = fake.routes[request.URL.Path]
		}
		fake.mu.Unlock()

		if !ok {
			route = fakeRoute{status: http.StatusOK, body: `[]`}
		}

		if route.link != "" {
			writer.Header().Set("Link", fmt.Sprintf(route.link, fake.URL))
		}

		if route.status != 0 {
			writer.WriteHeader(route.status)
		}

		_, _ = writer.Write([]byte(route.body))
	}))
	t.Cleanup(fake.Close)

	return fake
}

func (f *fakeHarvest) route(path string, route fakeRoute) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.routes[path] = route
}

func (f *fakeHarvest) recorded() []recordedRequest {
	f.mu.Lock()
	defer f.mu.Unlock()

	return append([]recordedRequest(nil), f.requests...)
}

func testRegistry() harvest.Registry {
	registry := harvest.DefaultRegistry()
	api := registry["v1"]
	api.URIs.Direct["single"] = harvest.Endpoint{List: "single"}
	api.URIs.Direct["nothing"] = harvest.Endpoint{}
	registry["v1"] = api

	return registry
}

func newTestClient(t *testing.T, fake *fakeHarvest) *Client {
	t.Helper()

	client, err := New(&harvest.Config{APIKey: "key", BaseURL: fake.URL + "/v1", Registry: testRegistry()})
	require.NoError(t, err)

	return client
}

func resolve(t *testing.T, client *Client, name string) harvest.Resource {
	t.Helper()

	resource, err := client.Resolve(name)
	require.NoError(t, err)

	return resource
}

func TestResource_ConfigureMergesParams(t *testing.T) {
	t.Parallel()

	fake := newFakeHarvest(t)
	candidates := resolve(t, newTestClient(t, fake), "candidates")

	same := candidates.Configure("", harvest.Params{"per_page": 100})
	assert.Same(t, candidates, same)

	candidates.Configure("", harvest.Params{"job_id": 5})

	_, err := candidates.Get(context.Background(), "", harvest.Params{"skip_count": true})
	require.NoError(t, err)

	requests := fake.recorded()
	require.Len(t, requests, 1)
	assert.Equal(t, "/v1/candidates", requests[0].Path)
	assert.Equal(t, "job_id=5&per_page=100&skip_count=true", requests[0].RawQuery)
	assert.Equal(t, harvest.Params{"per_page": 100, "job_id": 5, "skip_count": true}, candidates.Params())
}

func TestResource_ConfigureSelectsAndClearsID(t *testing.T) {
	t.Parallel()

	fake := newFakeHarvest(t)
	candidates := resolve(t, newTestClient(t, fake), "candidates")

	candidates.Configure("42", nil)
	assert.Equal(t, "42", candidates.SelectedID())
	assert.Equal(t, "Candidates endpoint (id=42)", candidates.String())

	url, err := candidates.URL()
	require.NoError(t, err)
	assert.Equal(t, fake.URL+"/v1/candidates/42", url)

	candidates.Configure("", nil)
	assert.Empty(t, candidates.SelectedID())

	url, err = candidates.URL()
	require.NoError(t, err)
	assert.Equal(t, fake.URL+"/v1/candidates", url)
}

func TestResource_Get_UsesSelectedID(t *testing.T) {
	t.Parallel()

	fake := newFakeHarvest(t)
	fake.route("/v1/jobs/7", fakeRoute{body: `{"id":7}`})

	jobs := resolve(t, newTestClient(t, fake), "jobs")

	body, err := jobs.Select("7").Get(context.Background(), "", nil)
	require.NoError(t, err)
	assert.JSONEq(t, `{"id":7}`, string(body))
}

func TestResource_Get_ListFallback(t *testing.T) {
	t.Parallel()

	fake := newFakeHarvest(t)
	client := newTestClient(t, fake)

	_, err := resolve(t, client, "single").Get(context.Background(), "99", nil)
	require.NoError(t, err)

	requests := fake.recorded()
	require.Len(t, requests, 1)
	assert.Equal(t, "/v1/single", requests[0].Path)
}

func TestResource_Get_Unsupported(t *testing.T) {
	t.Parallel()

	fake := newFakeHarvest(t)
	client := newTestClient(t, fake)

	_, err := resolve(t, client, "nothing").Get(context.Background(), "1", nil)
	require.ErrorIs(t, err, harvest.ErrInvalidAPICall)

	_, err = resolve(t, client, "tracking_links").Get(context.Background(), "", nil)
	require.ErrorIs(t, err, harvest.ErrInvalidAPICall)

	assert.Empty(t, fake.recorded(), "usage errors must not hit the network")
}

func TestResource_Get_ReplacesCursors(t *testing.T) {
	t.Parallel()

	fake := newFakeHarvest(t)
	fake.route("/v1/candidates?per_page=1", fakeRoute{
		body: `[{"id":1}]`,
		link: `<%[1]s/v1/candidates?page=2&per_page=1>; rel="next", <%[1]s/v1/candidates?page=3&per_page=1>; rel="last"`,
	})
	fake.route("/v1/candidates?per_page=50", fakeRoute{body: `[]`})

	candidates := resolve(t, newTestClient(t, fake), "candidates")

	_, err := candidates.Get(context.Background(), "", harvest.Params{"per_page": 1})
	require.NoError(t, err)
	assert.True(t, candidates.RecordsRemaining())
	assert.Equal(t, fake.URL+"/v1/candidates?page=2&per_page=1", candidates.NextURL())
	assert.Equal(t, fake.URL+"/v1/candidates?page=3&per_page=1", candidates.LastURL())

	_, err = candidates.Get(context.Background(), "", harvest.Params{"per_page": 50})
	require.NoError(t, err)
	assert.False(t, candidates.RecordsRemaining())
	assert.Empty(t, candidates.LastURL())
}

func TestResource_GetNextAndLast(t *testing.T) {
	t.Parallel()

	fake := newFakeHarvest(t)
	fake.route("/v1/candidates?page=1", fakeRoute{
		body: `[1]`,
		link: `<%[1]s/v1/candidates?page=2>; rel="next", <%[1]s/v1/candidates?page=5>; rel="last"`,
	})
	fake.route("/v1/candidates?page=2", fakeRoute{
		body: `[2]`,
		link: `<%[1]s/v1/candidates?page=3>; rel="next", <%[1]s/v1/candidates?page=5>; rel="last"`,
	})
	fake.route("/v1/candidates?page=5", fakeRoute{body: `[5]`})

	candidates := resolve(t, newTestClient(t, fake), "candidates")

	_, err := candidates.GetNext(context.Background())
	require.ErrorIs(t, err, harvest.ErrCursorNotSet)

	_, err = candidates.GetLast(context.Background())
	require.ErrorIs(t, err, harvest.ErrCursorNotSet)

	_, err = candidates.Get(context.Background(), "", harvest.Params{"page": 1})
	require.NoError(t, err)

	body, err := candidates.GetNext(context.Background())
	require.NoError(t, err)
	assert.JSONEq(t, `[2]`, string(body))

	body, err = candidates.GetLast(context.Background())
	require.NoError(t, err)
	assert.JSONEq(t, `[5]`, string(body))
	assert.False(t, candidates.RecordsRemaining())

	requests := fake.recorded()
	require.Len(t, requests, 3)
	assert.Equal(t, "page=2", requests[1].RawQuery)
	assert.Equal(t, "page=5", requests[2].RawQuery)
}

func TestResource_Post(t *testing.T) {
	t.Parallel()

	t.Run("sends JSON with On-Behalf-Of", func(t *testing.T) {
		t.Parallel()

		fake := newFakeHarvest(t)
		fake.route("/v1/candidates", fakeRoute{status: http.StatusCreated, body: `{"id":100}`})

		candidates := resolve(t, newTestClient(t, fake), "candidates")

		body, err := candidates.Post(context.Background(), map[string]string{"first_name": "Ada"}, "1234")
		require.NoError(t, err)
		assert.JSONEq(t, `{"id":100}`, string(body))

		requests := fake.recorded()
		require.Len(t, requests, 1)
		assert.Equal(t, "POST", requests[0].Method)
		assert.Equal(t, "1234", requests[0].OnBehalfOf)
		assert.JSONEq(t, `{"first_name":"Ada"}`, requests[0].Body)
	})

	t.Run("handle-level actor", func(t *testing.T) {
		t.Parallel()

		fake := newFakeHarvest(t)
		candidates := resolve(t, newTestClient(t, fake), "candidates").OnBehalfOf("55")

		_, err := candidates.Post(context.Background(), map[string]string{}, "")
		require.NoError(t, err)
		assert.Equal(t, "55", fake.recorded()[0].OnBehalfOf)
	})

	t.Run("usage errors", func(t *testing.T) {
		t.Parallel()

		fake := newFakeHarvest(t)
		client := newTestClient(t, fake)
		ctx := context.Background()

		_, err := resolve(t, client, "candidates").Post(ctx, nil, "")
		require.ErrorIs(t, err, harvest.ErrInvalidAPICall)

		_, err = resolve(t, client, "candidates").Select("42").Post(ctx, nil, "1234")
		require.ErrorIs(t, err, harvest.ErrInvalidAPICall)

		_, err = resolve(t, client, "candidates").Select("42").Post(ctx, nil, "")
		require.ErrorIs(t, err, harvest.ErrInvalidAPICall)

		_, err = resolve(t, client, "tracking_links").Post(ctx, nil, "1234")
		require.ErrorIs(t, err, harvest.ErrInvalidAPICall)

		assert.Empty(t, fake.recorded())
	})
}

func TestResource_ObjectWrites(t *testing.T) {
	t.Parallel()

	fake := newFakeHarvest(t)
	client := newTestClient(t, fake)
	ctx := context.Background()

	candidates := resolve(t, client, "candidates").Select("42")

	_, err := candidates.Patch(ctx, map[string]string{"title": "CTO"}, "1")
	require.NoError(t, err)

	_, err = candidates.Put(ctx, map[string]string{"title": "CEO"}, "1")
	require.NoError(t, err)

	_, err = candidates.Delete(ctx, "1")
	require.NoError(t, err)

	requests := fake.recorded()
	require.Len(t, requests, 3)

	for i, method := range []string{"PATCH", "PUT", "DELETE"} {
		assert.Equal(t, method, requests[i].Method)
		assert.Equal(t, "/v1/candidates/42", requests[i].Path)
		assert.Equal(t, "1", requests[i].OnBehalfOf)
	}

	_, err = resolve(t, client, "candidates").Delete(ctx, "1")
	require.ErrorIs(t, err, harvest.ErrInvalidAPICall)

	_, err = resolve(t, client, "candidates").Select("42").Patch(ctx, nil, "")
	require.ErrorIs(t, err, harvest.ErrInvalidAPICall)

	assert.Len(t, fake.recorded(), 3)
}

func TestResource_Related(t *testing.T) {
	t.Parallel()

	fake := newFakeHarvest(t)
	fake.route("/v1/candidates/42/activity_feed", fakeRoute{body: `{"notes":[]}`})

	client := newTestClient(t, fake)
	candidates := resolve(t, client, "candidates")

	_, err := candidates.Related("activity_feed")
	require.ErrorIs(t, err, harvest.ErrInvalidAPICall)

	_, err = candidates.Related("bogus")
	require.ErrorIs(t, err, harvest.ErrEndpointNotFound)

	feed, err := candidates.Configure("42", nil).Related("activity_feed")
	require.NoError(t, err)
	assert.Equal(t, fake.URL+"/v1/candidates/42/activity_feed", feed.ListURL())
	assert.Empty(t, feed.SelectedID())
	assert.Empty(t, feed.Params())
	assert.Equal(t, "Activity Feed endpoint", feed.String())

	body, err := feed.Get(context.Background(), "", nil)
	require.NoError(t, err)
	assert.JSONEq(t, `{"notes":[]}`, string(body))

	requests := fake.recorded()
	require.Len(t, requests, 1)
	assert.Contains(t, requests[0].Path, "42")
}

func TestResource_Related_Retrieve(t *testing.T) {
	t.Parallel()

	fake := newFakeHarvest(t)
	jobs := resolve(t, newTestClient(t, fake), "jobs")

	openings, err := jobs.Select("7").Related("openings")
	require.NoError(t, err)
	assert.Equal(t, fake.URL+"/v1/jobs/7/openings/{id}", openings.RetrieveURL())

	_, err = openings.Get(context.Background(), "3", nil)
	require.NoError(t, err)
	assert.Equal(t, "/v1/jobs/7/openings/3", fake.recorded()[0].Path)
}

func TestResource_HTTPErrors(t *testing.T) {
	t.Parallel()

	fake := newFakeHarvest(t)
	fake.route("/v1/candidates/404", fakeRoute{status: http.StatusNotFound, body: `{"message":"nope"}`})
	fake.route("/v1/candidates", fakeRoute{
		status: http.StatusUnprocessableEntity,
		body:   `{"errors":[{"message":"Missing","field":"first_name"}]}`,
	})

	candidates := resolve(t, newTestClient(t, fake), "candidates")

	body, err := candidates.Get(context.Background(), "404", nil)
	require.ErrorIs(t, err, harvest.ErrNotFound)
	assert.Nil(t, body)

	_, err = candidates.Post(context.Background(), json.RawMessage(`{}`), "1")
	require.ErrorIs(t, err, harvest.ErrValidation)
	assert.Equal(t, []harvest.FieldError{{Message: "Missing", Field: "first_name"}}, harvest.ValidationErrors(err))
}
