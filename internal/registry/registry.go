// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package registry holds the static lookup tables used to normalize remote
// distributions: export format labels, format codes and MIME types, and
// license labels. A Registry is immutable once built; the harvester builds
// one at startup and injects it into the classifier.
package registry

import (
	"sort"
	"strings"
)

// Format describes one remote export token.
type Format struct {
	// Token is the format name the remote catalog accepts (e.g. "geojson").
	Token string
	// Label is a human label used in resource titles and logs.
	Label string
	// Code is the normalized format stored on the resource.
	Code string
	// MIME is the media type; empty when none applies.
	MIME string
}

var defaultFormats = []Format{
	{Token: "csv", Label: "CSV", Code: "csv", MIME: "text/csv"},
	{Token: "json", Label: "JSON", Code: "json", MIME: "application/json"},
	{Token: "geojson", Label: "GeoJSON", Code: "json", MIME: "application/vnd.geo+json"},
	{Token: "shp", Label: "Shapefile", Code: "shp"},
	{Token: "zip", Label: "ZIP", Code: "zip", MIME: "application/zip"},
	{Token: "pdf", Label: "PDF", Code: "pdf", MIME: "application/pdf"},
	{Token: "xls", Label: "Excel", Code: "xls", MIME: "application/vnd.ms-excel"},
	{Token: "xlsx", Label: "Excel", Code: "xlsx", MIME: "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"},
	{Token: "xml", Label: "XML", Code: "xml", MIME: "application/xml"},
	{Token: "kml", Label: "KML", Code: "kml", MIME: "application/vnd.google-earth.kml+xml"},
}

var defaultLicenses = map[string]string{
	"licence ouverte (etalab)":      "fr-lo",
	"licence ouverte / open licence": "fr-lo",
	"open database license (odbl)":  "odc-odbl",
	"cc by-sa":                      "cc-by-sa",
	"cc by":                         "cc-by",
	"public domain":                 "other-pd",
}

// Registry is a read-only set of format and license tables.
type Registry struct {
	formats  map[string]Format
	byMIME   map[string]Format
	licenses map[string]string
}

// Default returns the built-in registry.
func Default() *Registry {
	r := &Registry{
		formats:  make(map[string]Format, len(defaultFormats)),
		byMIME:   make(map[string]Format, len(defaultFormats)),
		licenses: make(map[string]string, len(defaultLicenses)),
	}
	for _, f := range defaultFormats {
		r.formats[f.Token] = f
		// First declaration wins so json keeps application/json.
		if f.MIME != "" {
			if _, ok := r.byMIME[f.MIME]; !ok {
				r.byMIME[f.MIME] = f
			}
		}
	}
	for label, code := range defaultLicenses {
		r.licenses[label] = code
	}
	return r
}

// Lookup returns the format entry for a remote token.
func (r *Registry) Lookup(token string) (Format, bool) {
	f, ok := r.formats[strings.ToLower(strings.TrimSpace(token))]
	return f, ok
}

// Label returns the human label for token, or the token itself when unknown.
func (r *Registry) Label(token string) string {
	if f, ok := r.Lookup(token); ok {
		return f.Label
	}
	return token
}

// MIME returns the media type for token. Unknown tokens and formats
// without a media type yield "".
func (r *Registry) MIME(token string) string {
	f, _ := r.Lookup(token)
	return f.MIME
}

// FormatForMIME returns the normalized format code declared for a media
// type, or "" when the type is unknown.
func (r *Registry) FormatForMIME(mime string) string {
	mime = strings.ToLower(strings.TrimSpace(mime))
	if i := strings.IndexByte(mime, ';'); i >= 0 {
		mime = strings.TrimSpace(mime[:i])
	}
	return r.byMIME[mime].Code
}

// LicenseCode maps a publisher license label to a canonical license code.
// The second result is false for unmapped labels.
func (r *Registry) LicenseCode(label string) (string, bool) {
	code, ok := r.licenses[strings.ToLower(strings.TrimSpace(label))]
	return code, ok
}

// LicenseCodes returns the distinct canonical license codes, sorted.
func (r *Registry) LicenseCodes() []string {
	seen := make(map[string]bool)
	var codes []string
	for _, code := range r.licenses {
		if !seen[code] {
			seen[code] = true
			codes = append(codes, code)
		}
	}
	sort.Strings(codes)
	return codes
}

// LicenseLabels returns the normalized publisher labels mapped to each
// code, sorted.
func (r *Registry) LicenseLabels() map[string][]string {
	labels := make(map[string][]string)
	for label, code := range r.licenses {
		labels[code] = append(labels[code], label)
	}
	for _, l := range labels {
		sort.Strings(l)
	}
	return labels
}
