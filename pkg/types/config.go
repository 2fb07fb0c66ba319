// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import "time"

// FilterKind selects whether a filter rule narrows (include) or removes
// (exclude) datasets from the remote search listing.
type FilterKind string

const (
	FilterInclude FilterKind = "include"
	FilterExclude FilterKind = "exclude"
)

// FilterRule is one user-configured search filter. Key is a logical key
// (e.g. "tags") translated to the remote parameter name by the filter
// compiler; unknown keys pass through verbatim.
type FilterRule struct {
	Key   string     `json:"key" yaml:"key" mapstructure:"key"`
	Value string     `json:"value" yaml:"value" mapstructure:"value"`
	Kind  FilterKind `json:"type" yaml:"type" mapstructure:"type"`
}

// SourceFeatures holds the optional behaviors a source can enable.
type SourceFeatures struct {
	// Inspire admits datasets carrying INSPIRE interop metadata. Off by default.
	Inspire bool `json:"inspire" yaml:"inspire" mapstructure:"inspire"`
}

// SourceConfig describes one harvest source. It is loaded once per run and
// never mutated while the run is in progress.
type SourceConfig struct {
	// Name is a short operator-facing label for the source.
	Name string `json:"name" yaml:"name" mapstructure:"name"`

	// URL is the root of the remote catalog, with or without a trailing slash.
	URL string `json:"url" yaml:"url" mapstructure:"url"`

	// Filters are applied to the search listing in declaration order.
	Filters []FilterRule `json:"filters,omitempty" yaml:"filters,omitempty" mapstructure:"filters"`

	// Features toggles optional behaviors.
	Features SourceFeatures `json:"features" yaml:"features" mapstructure:"features"`
}

// HTTPConfig holds shared HTTP settings used for remote catalog requests.
type HTTPConfig struct {
	// Timeout is the HTTP request timeout.
	Timeout time.Duration `json:"timeout" yaml:"timeout" mapstructure:"timeout"`

	// UserAgent is the User-Agent header sent with HTTP requests
	// (e.g. "ods-harvester/0.1").
	UserAgent string `json:"user_agent" yaml:"user_agent" mapstructure:"user_agent"`
}

// HarvestConfig holds deployment-wide settings for the reconciliation engine.
type HarvestConfig struct {
	HTTPConfig `yaml:",inline" mapstructure:",squash"`

	// PageSize is the number of datasets requested per search page (default 50).
	PageSize int `json:"page_size" yaml:"page_size" mapstructure:"page_size"`

	// Timezone is embedded in generated download URLs (default "Europe/Berlin").
	Timezone string `json:"timezone" yaml:"timezone" mapstructure:"timezone"`

	// UseLabelsForHeader is embedded in generated download URLs (default true).
	UseLabelsForHeader bool `json:"use_labels_for_header" yaml:"use_labels_for_header" mapstructure:"use_labels_for_header"`

	// ShapefileRecordsLimit suppresses the shapefile export for geo datasets
	// with more records than this (default 50000).
	ShapefileRecordsLimit int `json:"shapefile_records_limit" yaml:"shapefile_records_limit" mapstructure:"shapefile_records_limit"`

	// APIKey is sent as the apikey query parameter when set.
	APIKey string `json:"-" yaml:"-" mapstructure:"api_key"`
}

// StoreConfig holds settings for the SQLite dataset store.
type StoreConfig struct {
	// Path is the SQLite database file (default "data/harvest.db").
	Path string `json:"path" yaml:"path" mapstructure:"path"`
}

// PreviewConfig holds settings for the preview subsystem.
type PreviewConfig struct {
	// Enabled gates the preview route. When false every lookup fails.
	Enabled bool `json:"enabled" yaml:"enabled" mapstructure:"enabled"`

	// BaseURL prefixes generated preview URLs. Empty yields a
	// scheme-relative path.
	BaseURL string `json:"base_url" yaml:"base_url" mapstructure:"base_url"`
}

// LogConfig holds settings for structured logging.
type LogConfig struct {
	// Level is the minimum level: debug, info, warn or error.
	Level string `json:"level" yaml:"level" mapstructure:"level"`
}

// Config groups every configuration section of the harvester.
type Config struct {
	Harvest HarvestConfig  `json:"harvest" yaml:"harvest" mapstructure:"harvest"`
	Store   StoreConfig    `json:"store" yaml:"store" mapstructure:"store"`
	Preview PreviewConfig  `json:"preview" yaml:"preview" mapstructure:"preview"`
	Log     LogConfig      `json:"log" yaml:"log" mapstructure:"log"`
	Sources []SourceConfig `json:"sources" yaml:"sources" mapstructure:"sources"`
}

// Source returns the configured source with the given name.
func (c Config) Source(name string) (SourceConfig, bool) {
	for _, s := range c.Sources {
		if s.Name == name {
			return s, true
		}
	}
	return SourceConfig{}, false
}
