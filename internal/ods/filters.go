// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package ods

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/pdiddy/ods-harvester/pkg/types"
)

// filterKeys maps logical filter keys to remote facet names. Keys not
// listed pass through unchanged.
var filterKeys = map[string]string{
	"tags":      "keyword",
	"publisher": "publisher",
}

// RemoteKey returns the remote facet name for a logical filter key.
func RemoteKey(key string) string {
	if k, ok := filterKeys[key]; ok {
		return k
	}
	return key
}

// CompileFilters translates filter rules into search query parameters.
// Include rules (and rules with no kind) become refine.<key>, exclude
// rules exclude.<key>. Rules that share a parameter accumulate as repeated
// values in input order; no rule's value is dropped.
func CompileFilters(rules []types.FilterRule) url.Values {
	params := url.Values{}
	for _, r := range rules {
		op := "refine"
		if r.Kind == types.FilterExclude {
			op = "exclude"
		}
		params.Add(op+"."+RemoteKey(r.Key), r.Value)
	}
	return params
}

// ValidateFilters rejects rules that cannot be compiled faithfully.
func ValidateFilters(rules []types.FilterRule) error {
	for i, r := range rules {
		field := fmt.Sprintf("filters[%d]", i)
		if strings.TrimSpace(r.Key) == "" {
			return &types.InvalidConfigError{Field: field, Reason: "empty key"}
		}
		if r.Value == "" {
			return &types.InvalidConfigError{Field: field, Reason: fmt.Sprintf("empty value for key %q", r.Key)}
		}
		switch r.Kind {
		case "", types.FilterInclude, types.FilterExclude:
		default:
			return &types.InvalidConfigError{Field: field, Reason: fmt.Sprintf("unknown type %q (want include or exclude)", r.Kind)}
		}
	}
	return nil
}

// SearchParams returns the query parameters of the search page starting
// at start.
func SearchParams(start, rows int, filters url.Values, apiKey string) url.Values {
	params := url.Values{
		"start":        {fmt.Sprintf("%d", start)},
		"rows":         {fmt.Sprintf("%d", rows)},
		"interopmetas": {"true"},
	}
	for k, vs := range filters {
		params[k] = append([]string(nil), vs...)
	}
	if apiKey != "" {
		params.Set("apikey", apiKey)
	}
	return params
}
