// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package types defines shared data structures for the ods-harvester
// pipeline: source configuration, the typed remote dataset decoded from the
// search API, normalized resource descriptors, persisted entities, and the
// job report returned to the runner.
package types

import (
	"fmt"
	"time"
)

// ResourceKind identifies which remote distribution channel produced a resource.
type ResourceKind string

const (
	// KindAPI is a per-format export of the dataset's queryable records.
	KindAPI ResourceKind = "api"

	// KindAlternativeExport is a publisher-declared bulk export.
	KindAlternativeExport ResourceKind = "alternative_export"

	// KindAttachment is a publisher-uploaded file attached to the dataset.
	KindAttachment ResourceKind = "attachment"
)

// Valid reports whether k is one of the known resource kinds.
func (k ResourceKind) Valid() bool {
	switch k {
	case KindAPI, KindAlternativeExport, KindAttachment:
		return true
	}
	return false
}

// NaturalKey matches a resource across harvest runs. For API exports Slug
// is the export format token requested from the remote (csv, json, geojson,
// shp); for alternative exports and attachments it is the entry's own
// remote identifier. Titles never participate.
type NaturalKey struct {
	Kind ResourceKind `json:"kind" yaml:"kind"`
	Slug string       `json:"slug" yaml:"slug"`
}

// String renders the key as "kind:slug".
func (k NaturalKey) String() string {
	return fmt.Sprintf("%s:%s", k.Kind, k.Slug)
}

// IsZero reports whether the key is unset.
func (k NaturalKey) IsZero() bool {
	return k.Kind == "" && k.Slug == ""
}

// RemoteField describes one column of a remote dataset's records.
type RemoteField struct {
	Name        string `json:"name" yaml:"name"`
	Label       string `json:"label" yaml:"label"`
	Type        string `json:"type" yaml:"type"`
	Description string `json:"description,omitempty" yaml:"description,omitempty"`
}

// RemoteFile is one declared alternative export or attachment entry.
type RemoteFile struct {
	// ID is the entry's stable slug on the remote catalog.
	ID string `json:"id" yaml:"id"`

	Title       string `json:"title" yaml:"title"`
	Description string `json:"description,omitempty" yaml:"description,omitempty"`

	// Format is the explicit format token when the remote declares one.
	Format string `json:"format,omitempty" yaml:"format,omitempty"`

	// MIME is the declared mimetype, possibly empty.
	MIME string `json:"mimetype,omitempty" yaml:"mimetype,omitempty"`
}

// RemoteDataset is a search page item decoded and validated once at
// ingestion. Nothing past the classifier sees the raw JSON.
type RemoteDataset struct {
	// RemoteID is the catalog's dataset identifier, unique within a source.
	RemoteID string `json:"remote_id" yaml:"remote_id"`

	Title string `json:"title" yaml:"title"`

	// Description is the raw (HTML) description as published.
	Description string `json:"description" yaml:"description"`

	// Keywords and Themes are the raw tag sources. Themes may hold
	// comma-separated values.
	Keywords []string `json:"keywords,omitempty" yaml:"keywords,omitempty"`
	Themes   []string `json:"themes,omitempty" yaml:"themes,omitempty"`

	// License is the publisher's license label, possibly empty.
	License string `json:"license,omitempty" yaml:"license,omitempty"`

	HasRecords bool `json:"has_records" yaml:"has_records"`
	IsGeo      bool `json:"is_geo" yaml:"is_geo"`

	// IsInspire is set when the record carries INSPIRE interop metadata.
	IsInspire bool `json:"is_inspire" yaml:"is_inspire"`

	// RecordsCount is the number of queryable records.
	RecordsCount int `json:"records_count" yaml:"records_count"`

	// References is an optional URL pointing at the publisher's own page.
	References string `json:"references,omitempty" yaml:"references,omitempty"`

	// Modified is the metadata modification time; zero when absent.
	Modified time.Time `json:"modified" yaml:"modified"`

	// DataProcessed is the last time the records were processed; zero when absent.
	DataProcessed time.Time `json:"data_processed" yaml:"data_processed"`

	Fields             []RemoteField `json:"fields,omitempty" yaml:"fields,omitempty"`
	AlternativeExports []RemoteFile  `json:"alternative_exports,omitempty" yaml:"alternative_exports,omitempty"`
	Attachments        []RemoteFile  `json:"attachments,omitempty" yaml:"attachments,omitempty"`
}

// ResourceDescriptor is a normalized distribution ready to be merged into
// storage. Optional string fields are empty when absent.
type ResourceDescriptor struct {
	Kind        ResourceKind `json:"kind" yaml:"kind"`
	Title       string       `json:"title" yaml:"title"`
	Description string       `json:"description,omitempty" yaml:"description,omitempty"`
	Format      string       `json:"format,omitempty" yaml:"format,omitempty"`
	MIME        string       `json:"mime,omitempty" yaml:"mime,omitempty"`
	URL         string       `json:"url" yaml:"url"`
	Modified    time.Time    `json:"modified" yaml:"modified"`
	Key         NaturalKey   `json:"natural_key" yaml:"natural_key"`
}

// HarvestedDataset is the classifier's output for one remote dataset: the
// normalized dataset fields plus its ordered resources.
type HarvestedDataset struct {
	RemoteID    string    `json:"remote_id" yaml:"remote_id"`
	Title       string    `json:"title" yaml:"title"`
	Description string    `json:"description" yaml:"description"`
	Tags        []string  `json:"tags" yaml:"tags"`
	LicenseCode string    `json:"license_code,omitempty" yaml:"license_code,omitempty"`

	// LicenseLabel is the publisher's raw label, kept for fallback matching
	// when the registry has no code for it.
	LicenseLabel string `json:"license_label,omitempty" yaml:"license_label,omitempty"`
	References  string    `json:"references,omitempty" yaml:"references,omitempty"`
	HasRecords  bool      `json:"has_records" yaml:"has_records"`
	IsGeo       bool      `json:"is_geo" yaml:"is_geo"`
	ODSURL      string    `json:"ods_url" yaml:"ods_url"`
	Modified    time.Time `json:"modified" yaml:"modified"`

	// Resources are ordered: API exports, alternative exports, attachments.
	Resources []ResourceDescriptor `json:"resources" yaml:"resources"`
}
