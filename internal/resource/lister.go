package resource

import (
	"context"
	"fmt"
	"math"
	"net/url"

	"github.com/studiowebux/lmscli/internal/apiclient"
	"github.com/studiowebux/lmscli/internal/datatable"
	"github.com/studiowebux/lmscli/internal/filter"
)

// Page is one server page of a resource
type Page struct {
	Items []Record
	Total int
	Raw   any // envelope data as decoded
}

// Lister runs resource queries through the API client
type Lister struct {
	client *apiclient.Client
}

// NewLister creates a lister over client
func NewLister(client *apiclient.Client) *Lister {
	return &Lister{client: client}
}

// List fetches the page of def described by state
func (l *Lister) List(ctx context.Context, def Definition, state datatable.State) (Page, error) {
	var data any
	if err := l.client.Get(ctx, def.Endpoint, Query(state), &data); err != nil {
		return Page{}, err
	}
	return decodePage(def, data)
}

// Get fetches one record of def by id
func (l *Lister) Get(ctx context.Context, def Definition, id string) (Record, error) {
	var rec Record
	if err := l.client.Get(ctx, def.Endpoint+"/"+url.PathEscape(id), nil, &rec); err != nil {
		return nil, err
	}
	return rec, nil
}

// Profile returns the signed-in user
func (l *Lister) Profile(ctx context.Context) (apiclient.Profile, error) {
	return l.client.Me(ctx)
}

func decodePage(def Definition, data any) (Page, error) {
	itemsPath := def.ItemsPath
	if itemsPath == "" {
		itemsPath = DefaultItemsPath
	}
	totalPath := def.TotalPath
	if totalPath == "" {
		totalPath = DefaultTotalPath
	}

	page := Page{Raw: data}

	var rawItems any
	if list, ok := data.([]any); ok {
		// Unpaginated endpoints return a bare array
		rawItems = list
	} else {
		found, err := filter.Search(data, itemsPath)
		if err != nil {
			return Page{}, fmt.Errorf("failed to locate items: %w", err)
		}
		rawItems = found
	}

	switch list := rawItems.(type) {
	case nil:
	case []any:
		page.Items = make([]Record, 0, len(list))
		for _, item := range list {
			if m, ok := item.(map[string]any); ok {
				page.Items = append(page.Items, Record(m))
			} else {
				page.Items = append(page.Items, Record{"value": item})
			}
		}
	default:
		return Page{}, fmt.Errorf("items at %q is %T, not a list", itemsPath, rawItems)
	}

	page.Total = len(page.Items)
	if _, isList := data.([]any); isList {
		return page, nil
	}
	total, err := filter.Search(data, totalPath)
	if err != nil {
		return Page{}, fmt.Errorf("failed to locate total: %w", err)
	}
	if n, ok := total.(float64); ok && n >= 0 && n <= math.MaxInt32 {
		page.Total = int(n)
	}
	return page, nil
}
