// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package preview decides which harvested resources get an inline preview
// and resolves preview routes back to stored datasets.
package preview

import (
	"context"
	"net/url"
	"strings"

	"github.com/pdiddy/ods-harvester/pkg/types"
)

// RoutePrefix is the path under which preview pages are served.
const RoutePrefix = "/ods/preview/"

// Finder looks up a dataset by harvest identity, returning
// types.ErrNotFound when none matches.
type Finder interface {
	FindDatasetByHarvestIdentity(ctx context.Context, domain, remoteID string) (types.StoredDataset, error)
}

// Resolver answers preview questions for harvested datasets.
type Resolver struct {
	finder  Finder
	enabled bool
	baseURL string
}

// NewResolver returns a Resolver configured by cfg.
func NewResolver(finder Finder, cfg types.PreviewConfig) *Resolver {
	return &Resolver{
		finder:  finder,
		enabled: cfg.Enabled,
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
	}
}

// CanPreview reports whether r, owned by ds, gets an inline preview: the
// dataset must carry harvest metadata with an explore URL and the resource
// must be an API export.
func (p *Resolver) CanPreview(ds types.StoredDataset, r types.StoredResource) bool {
	if !p.enabled || ds.Harvest.ODSURL == "" {
		return false
	}
	return r.ODSType == types.KindAPI
}

// PreviewURL returns the preview location for r, or "" when r cannot be
// previewed. Without a base URL the result is a path.
func (p *Resolver) PreviewURL(ds types.StoredDataset, r types.StoredResource) string {
	if !p.CanPreview(ds, r) {
		return ""
	}
	return p.baseURL + Route(ds.Harvest.Domain, ds.Harvest.RemoteID)
}

// Lookup resolves a preview route to its dataset. It returns
// types.ErrPreviewDisabled when previews are off and types.ErrNotFound for
// unknown datasets.
func (p *Resolver) Lookup(ctx context.Context, domain, remoteID string) (types.StoredDataset, error) {
	if !p.enabled {
		return types.StoredDataset{}, types.ErrPreviewDisabled
	}
	if domain == "" || remoteID == "" {
		return types.StoredDataset{}, types.ErrNotFound
	}
	return p.finder.FindDatasetByHarvestIdentity(ctx, domain, remoteID)
}

// Route returns the preview path of a harvested dataset.
func Route(domain, remoteID string) string {
	return RoutePrefix + url.PathEscape(domain) + "/" + url.PathEscape(remoteID)
}

// ParseRoute splits a preview path into domain and remote id.
func ParseRoute(path string) (domain, remoteID string, ok bool) {
	rest, found := strings.CutPrefix(path, RoutePrefix)
	if !found {
		return "", "", false
	}
	d, id, found := strings.Cut(rest, "/")
	if !found || d == "" || id == "" || strings.Contains(id, "/") {
		return "", "", false
	}
	var err error
	if domain, err = url.PathUnescape(d); err != nil {
		return "", "", false
	}
	if remoteID, err = url.PathUnescape(id); err != nil {
		return "", "", false
	}
	return domain, remoteID, true
}
