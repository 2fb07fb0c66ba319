// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package ods talks to the remote catalog's v1 dataset search API: it builds
// every URL the harvester emits, compiles filter rules into query
// parameters, and decodes search pages into typed remote datasets.
package ods

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/pdiddy/ods-harvester/pkg/types"
)

const (
	searchPath  = "/api/datasets/1.0/search/"
	exportPath  = "/api/datasets/1.0/"
	explorePath = "/explore/dataset/"
)

// SourceURL returns the configured base URL with trailing slashes removed,
// so "http://d.com/" and "http://d.com" yield the same result.
func SourceURL(raw string) string {
	return strings.TrimRight(strings.TrimSpace(raw), "/")
}

// ValidateSourceURL checks that raw is an absolute http(s) URL with a host.
func ValidateSourceURL(raw string) error {
	if strings.TrimSpace(raw) == "" {
		return &types.InvalidConfigError{Field: "url", Reason: "empty source URL"}
	}
	u, err := url.Parse(SourceURL(raw))
	if err != nil {
		return &types.InvalidConfigError{Field: "url", Reason: fmt.Sprintf("cannot parse %q", raw), Err: err}
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return &types.InvalidConfigError{Field: "url", Reason: fmt.Sprintf("%q has no http(s) scheme", raw)}
	}
	if u.Hostname() == "" {
		return &types.InvalidConfigError{Field: "url", Reason: fmt.Sprintf("%q has no host", raw)}
	}
	return nil
}

// SearchURL returns the dataset search endpoint for a source.
func SearchURL(source types.SourceConfig) string {
	return SourceURL(source.URL) + searchPath
}

// ExploreURL returns the public page of a dataset.
func ExploreURL(sourceURL, remoteID string) string {
	return SourceURL(sourceURL) + explorePath + remoteID + "/"
}

// DownloadURL returns the per-format export URL of a dataset's records.
// timezone and useLabels change the emitted URL and therefore must stay
// stable across runs for a given deployment.
func DownloadURL(sourceURL, remoteID, format, timezone string, useLabels bool) string {
	return fmt.Sprintf("%sdownload?format=%s&timezone=%s&use_labels_for_header=%t",
		ExploreURL(sourceURL, remoteID), format, timezone, useLabels)
}

// ExportURL returns the base path of a dataset's alternative exports and
// attachments.
func ExportURL(sourceURL, remoteID string) string {
	return SourceURL(sourceURL) + exportPath + remoteID + "/"
}

// AlternativeExportURL returns the URL of one alternative export entry.
func AlternativeExportURL(sourceURL, remoteID, exportID string) string {
	return ExportURL(sourceURL, remoteID) + "alternative_exports/" + exportID
}

// AttachmentURL returns the URL of one attachment entry.
func AttachmentURL(sourceURL, remoteID, attachmentID string) string {
	return ExportURL(sourceURL, remoteID) + "attachments/" + attachmentID
}

// Domain returns the host of a source URL, used as the harvest domain.
func Domain(sourceURL string) string {
	u, err := url.Parse(SourceURL(sourceURL))
	if err != nil {
		return ""
	}
	return u.Hostname()
}

// URLs binds the URL functions to one source and deployment settings.
type URLs struct {
	source    string
	domain    string
	timezone  string
	useLabels bool
}

// NewURLs validates the source URL and returns a bound builder. A malformed
// URL fails here, before any network call.
func NewURLs(source types.SourceConfig, cfg types.HarvestConfig) (*URLs, error) {
	if err := ValidateSourceURL(source.URL); err != nil {
		return nil, err
	}
	return &URLs{
		source:    SourceURL(source.URL),
		domain:    Domain(source.URL),
		timezone:  cfg.Timezone,
		useLabels: cfg.UseLabelsForHeader,
	}, nil
}

// Source returns the canonical source URL.
func (u *URLs) Source() string { return u.source }

// Domain returns the harvest domain.
func (u *URLs) Domain() string { return u.domain }

// Search returns the search endpoint.
func (u *URLs) Search() string { return u.source + searchPath }

// Explore returns the public page of a dataset.
func (u *URLs) Explore(remoteID string) string { return ExploreURL(u.source, remoteID) }

// Download returns the export URL of a dataset's records in format.
func (u *URLs) Download(remoteID, format string) string {
	return DownloadURL(u.source, remoteID, format, u.timezone, u.useLabels)
}

// AlternativeExport returns the URL of an alternative export entry.
func (u *URLs) AlternativeExport(remoteID, exportID string) string {
	return AlternativeExportURL(u.source, remoteID, exportID)
}

// Attachment returns the URL of an attachment entry.
func (u *URLs) Attachment(remoteID, attachmentID string) string {
	return AttachmentURL(u.source, remoteID, attachmentID)
}
