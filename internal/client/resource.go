package client

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/fivetwenty-io/harvest-client/internal/constants"
	"github.com/fivetwenty-io/harvest-client/internal/http"
	"github.com/fivetwenty-io/harvest-client/pkg/harvest"
)

// Resource implements harvest.Resource. Templates are fully qualified; an empty
// template means the mode is not supported by the endpoint.
type Resource struct {
	httpClient  *http.Client
	name        string
	baseURL     string
	listURL     string
	retrieveURL string
	related     map[string]harvest.RelatedEndpoint

	selectedID string
	params     harvest.Params
	nextURL    string
	lastURL    string
	onBehalfOf string
}

func newResource(
	httpClient *http.Client,
	name, baseURL, listTemplate, retrieveTemplate string,
	related map[string]harvest.RelatedEndpoint,
	onBehalfOf string,
) *Resource {
	return &Resource{
		httpClient:  httpClient,
		name:        name,
		baseURL:     baseURL,
		listURL:     harvest.JoinURL(baseURL, listTemplate),
		retrieveURL: harvest.JoinURL(baseURL, retrieveTemplate),
		related:     related,
		params:      harvest.Params{},
		onBehalfOf:  onBehalfOf,
	}
}

// Name implements harvest.Resource.Name.
func (r *Resource) Name() string {
	return r.name
}

// DisplayName implements harvest.Resource.DisplayName.
func (r *Resource) DisplayName() string {
	return harvest.DisplayName(r.name)
}

// SelectedID implements harvest.Resource.SelectedID.
func (r *Resource) SelectedID() string {
	return r.selectedID
}

// ListURL implements harvest.Resource.ListURL.
func (r *Resource) ListURL() string {
	return r.listURL
}

// RetrieveURL implements harvest.Resource.RetrieveURL.
func (r *Resource) RetrieveURL() string {
	return r.retrieveURL
}

// Params returns a copy of the accumulated query parameters.
func (r *Resource) Params() harvest.Params {
	return r.params.Clone()
}

// NextURL implements harvest.Resource.NextURL.
func (r *Resource) NextURL() string {
	return r.nextURL
}

// LastURL implements harvest.Resource.LastURL.
func (r *Resource) LastURL() string {
	return r.lastURL
}

// RecordsRemaining reports whether the last response pointed at a next page.
func (r *Resource) RecordsRemaining() bool {
	return r.nextURL != ""
}

// RelatedNames implements harvest.Resource.RelatedNames.
func (r *Resource) RelatedNames() []string {
	return harvest.Endpoint{Related: r.related}.RelatedNames()
}

func (r *Resource) String() string {
	if r.selectedID != "" {
		return fmt.Sprintf("%s endpoint (id=%s)", r.DisplayName(), r.selectedID)
	}

	return r.DisplayName() + " endpoint"
}

// Configure implements harvest.Resource.Configure.
func (r *Resource) Configure(id string, params harvest.Params) harvest.Resource {
	r.selectedID = id
	r.params = r.params.Merge(params)

	return r
}

// Select implements harvest.Resource.Select.
func (r *Resource) Select(id string) harvest.Resource {
	r.selectedID = id

	return r
}

// WithParams implements harvest.Resource.WithParams.
func (r *Resource) WithParams(params harvest.Params) harvest.Resource {
	r.params = r.params.Merge(params)

	return r
}

// OnBehalfOf implements harvest.Resource.OnBehalfOf.
func (r *Resource) OnBehalfOf(actor string) harvest.Resource {
	r.onBehalfOf = actor

	return r
}

// URL implements harvest.Resource.URL.
func (r *Resource) URL() (string, error) {
	return r.urlFor(r.selectedID)
}

// urlFor resolves the request URL for id. With an id the retrieve template is
// used, falling back to the list template; without one the list template is required.
func (r *Resource) urlFor(id string) (string, error) {
	if id != "" {
		switch {
		case r.retrieveURL != "":
			return harvest.FormatID(r.retrieveURL, id), nil
		case r.listURL != "":
			return harvest.FormatID(r.listURL, id), nil
		default:
			return "", fmt.Errorf("%w: %s has no retrieve or list URL", harvest.ErrInvalidAPICall, r.name)
		}
	}

	if r.listURL == "" {
		return "", fmt.Errorf("%w: %s cannot be listed, an object id is required", harvest.ErrInvalidAPICall, r.name)
	}

	return r.listURL, nil
}

// Get implements harvest.Resource.Get.
func (r *Resource) Get(ctx context.Context, id string, params harvest.Params) (json.RawMessage, error) {
	if id == "" {
		id = r.selectedID
	}

	target, err := r.urlFor(id)
	if err != nil {
		return nil, err
	}

	r.params = r.params.Merge(params)

	return r.fetch(ctx, target, r.params)
}

// GetNext implements harvest.Resource.GetNext.
func (r *Resource) GetNext(ctx context.Context) (json.RawMessage, error) {
	if r.nextURL == "" {
		return nil, fmt.Errorf("%w: no next page for %s", harvest.ErrCursorNotSet, r.name)
	}

	return r.fetch(ctx, r.nextURL, nil)
}

// GetLast implements harvest.Resource.GetLast.
func (r *Resource) GetLast(ctx context.Context) (json.RawMessage, error) {
	if r.lastURL == "" {
		return nil, fmt.Errorf("%w: no last page for %s", harvest.ErrCursorNotSet, r.name)
	}

	return r.fetch(ctx, r.lastURL, nil)
}

// fetch GETs target and replaces both cursors with the links of the response.
func (r *Resource) fetch(ctx context.Context, target string, params harvest.Params) (json.RawMessage, error) {
	resp, err := r.httpClient.Get(ctx, target, params.Values())
	if err != nil {
		return nil, fmt.Errorf("getting %s: %w", r.name, err)
	}

	links := harvest.ParseLinkHeader(resp.Headers.Get(constants.HeaderLink))
	r.nextURL = links[harvest.RelNext]
	r.lastURL = links[harvest.RelLast]

	return json.RawMessage(resp.Body), nil
}

// Post implements harvest.Resource.Post.
func (r *Resource) Post(ctx context.Context, data any, onBehalfOf string) (json.RawMessage, error) {
	actor, err := r.actor(onBehalfOf)
	if err != nil {
		return nil, err
	}

	if r.selectedID != "" {
		return nil, fmt.Errorf("%w: cannot post to %s with an object selected", harvest.ErrInvalidAPICall, r.name)
	}

	if r.listURL == "" {
		return nil, fmt.Errorf("%w: %s does not accept new objects", harvest.ErrInvalidAPICall, r.name)
	}

	resp, err := r.httpClient.Post(ctx, r.listURL, data, onBehalfOfHeader(actor))
	if err != nil {
		return nil, fmt.Errorf("creating %s: %w", r.name, err)
	}

	return json.RawMessage(resp.Body), nil
}

// Patch implements harvest.Resource.Patch.
func (r *Resource) Patch(ctx context.Context, data any, onBehalfOf string) (json.RawMessage, error) {
	target, actor, err := r.objectWrite(onBehalfOf)
	if err != nil {
		return nil, err
	}

	resp, err := r.httpClient.Patch(ctx, target, data, onBehalfOfHeader(actor))
	if err != nil {
		return nil, fmt.Errorf("updating %s: %w", r.name, err)
	}

	return json.RawMessage(resp.Body), nil
}

// Put implements harvest.Resource.Put.
func (r *Resource) Put(ctx context.Context, data any, onBehalfOf string) (json.RawMessage, error) {
	target, actor, err := r.objectWrite(onBehalfOf)
	if err != nil {
		return nil, err
	}

	resp, err := r.httpClient.Put(ctx, target, data, onBehalfOfHeader(actor))
	if err != nil {
		return nil, fmt.Errorf("replacing %s: %w", r.name, err)
	}

	return json.RawMessage(resp.Body), nil
}

// Delete implements harvest.Resource.Delete.
func (r *Resource) Delete(ctx context.Context, onBehalfOf string) (json.RawMessage, error) {
	target, actor, err := r.objectWrite(onBehalfOf)
	if err != nil {
		return nil, err
	}

	resp, err := r.httpClient.Delete(ctx, target, onBehalfOfHeader(actor))
	if err != nil {
		return nil, fmt.Errorf("deleting %s: %w", r.name, err)
	}

	return json.RawMessage(resp.Body), nil
}

func (r *Resource) actor(onBehalfOf string) (string, error) {
	if onBehalfOf != "" {
		return onBehalfOf, nil
	}

	if r.onBehalfOf != "" {
		return r.onBehalfOf, nil
	}

	return "", fmt.Errorf("%w: writes to %s require an On-Behalf-Of user id", harvest.ErrInvalidAPICall, r.name)
}

func (r *Resource) objectWrite(onBehalfOf string) (string, string, error) {
	actor, err := r.actor(onBehalfOf)
	if err != nil {
		return "", "", err
	}

	if r.selectedID == "" {
		return "", "", fmt.Errorf("%w: select a %s object first", harvest.ErrInvalidAPICall, r.name)
	}

	target, err := r.urlFor(r.selectedID)
	if err != nil {
		return "", "", err
	}

	return target, actor, nil
}

func onBehalfOfHeader(actor string) map[string]string {
	return map[string]string{constants.HeaderOnBehalfOf: actor}
}

// Related implements harvest.Resource.Related.
func (r *Resource) Related(name string) (harvest.Resource, error) {
	related, ok := r.related[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s has no related resource %q", harvest.ErrEndpointNotFound, r.name, name)
	}

	if r.selectedID == "" {
		return nil, fmt.Errorf("%w: select a %s object before accessing %s", harvest.ErrInvalidAPICall, r.name, name)
	}

	return newResource(
		r.httpClient,
		name,
		r.baseURL,
		harvest.FormatRelatedID(related.List, r.selectedID),
		harvest.FormatRelatedID(related.Retrieve, r.selectedID),
		nil,
		r.onBehalfOf,
	), nil
}

// Pages implements harvest.Resource.Pages.
func (r *Resource) Pages() harvest.PageIterator {
	start, err := r.URL()

	return &pageIterator{resource: r, cursor: start, err: err, first: true}
}
