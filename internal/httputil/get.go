// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package httputil provides HTTP helpers shared across the harvester.
package httputil

import (
	"context"
	"fmt"
	"io"
	"net/http"

	"github.com/pdiddy/ods-harvester/pkg/types"
)

// maxErrorBody bounds how much of a failed response body is drained.
const maxErrorBody = 64 << 10

// Get issues a GET request for rawURL and returns the response when the
// status is 2xx. Transport failures and non-success statuses are returned
// as *types.FetchError; on error the response body is already closed.
// Retrying is left to the caller.
func Get(ctx context.Context, client *http.Client, rawURL, userAgent string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, &types.FetchError{URL: rawURL, Err: fmt.Errorf("creating request: %w", err)}
	}
	if userAgent != "" {
		req.Header.Set("User-Agent", userAgent)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := client.Do(req)
	if err != nil {
		return nil, &types.FetchError{URL: rawURL, Err: err}
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		io.Copy(io.Discard, io.LimitReader(resp.Body, maxErrorBody))
		resp.Body.Close()
		return nil, &types.FetchError{URL: rawURL, Status: resp.StatusCode}
	}
	return resp, nil
}
