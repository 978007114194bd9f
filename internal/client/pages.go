package client

import (
	"context"
	"encoding/json"
	"iter"
)

// pageIterator follows the "next" links starting from a resource's current URL.
// The first request carries the resource's parameters; later cursors already
// encode them and are requested verbatim.
type pageIterator struct {
	resource *Resource
	cursor   string
	err      error
	first    bool
	page     int
}

// Next implements harvest.PageIterator.Next.
func (p *pageIterator) Next(ctx context.Context) (json.RawMessage, bool, error) {
	if p.err != nil {
		err := p.err
		p.err = nil
		p.cursor = ""

		return nil, false, err
	}

	if p.cursor == "" {
		return nil, false, nil
	}

	params := p.resource.params
	if !p.first {
		params = nil
	}

	body, err := p.resource.fetch(ctx, p.cursor, params)
	if err != nil {
		p.cursor = ""

		return nil, false, err
	}

	p.first = false
	p.page++
	p.cursor = p.resource.nextURL

	return body, true, nil
}

// All implements harvest.PageIterator.All.
func (p *pageIterator) All(ctx context.Context) iter.Seq2[json.RawMessage, error] {
	return func(yield func(json.RawMessage, error) bool) {
		for {
			page, ok, err := p.Next(ctx)
			if err != nil {
				yield(nil, err)

				return
			}

			if !ok || !yield(page, nil) {
				return
			}
		}
	}
}

// Page implements harvest.PageIterator.Page.
func (p *pageIterator) Page() int {
	return p.page
}
