// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package ods

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"

	"github.com/pdiddy/ods-harvester/internal/httputil"
	"github.com/pdiddy/ods-harvester/pkg/types"
)

// maxPageBytes bounds a search page body.
const maxPageBytes = 64 << 20

// Client fetches search pages from one remote catalog.
type Client struct {
	HTTP      *http.Client
	UserAgent string
	APIKey    string
}

// NewClient returns a Client using the HTTP settings in cfg.
func NewClient(cfg types.HarvestConfig) *Client {
	return &Client{
		HTTP:      &http.Client{Timeout: cfg.Timeout},
		UserAgent: cfg.UserAgent,
		APIKey:    cfg.APIKey,
	}
}

// Search fetches the page of searchURL starting at start. Unreachable
// endpoints and non-success statuses yield *types.FetchError, bodies that
// are not a search envelope *types.ParseError.
func (c *Client) Search(ctx context.Context, searchURL string, filters url.Values, start, rows int) (Page, error) {
	reqURL := searchURL + "?" + SearchParams(start, rows, filters, c.APIKey).Encode()

	// Errors and logs never carry the API key.
	shownURL := searchURL + "?" + SearchParams(start, rows, filters, "").Encode()

	resp, err := httputil.Get(ctx, c.HTTP, reqURL, c.UserAgent)
	if err != nil {
		var fe *types.FetchError
		if errors.As(err, &fe) {
			fe.URL = shownURL
			var ue *url.Error
			if errors.As(fe.Err, &ue) {
				ue.URL = shownURL
			}
		}
		return Page{}, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxPageBytes))
	if err != nil {
		return Page{}, &types.FetchError{URL: shownURL, Err: fmt.Errorf("reading body: %w", err)}
	}
	return DecodePage(body, shownURL)
}
