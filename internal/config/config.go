// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package config loads harvester settings through viper and validates them
// before any source is contacted.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"
	_ "time/tzdata"

	"github.com/spf13/viper"

	"github.com/pdiddy/ods-harvester/internal/ods"
	"github.com/pdiddy/ods-harvester/pkg/types"
)

// EnvPrefix prefixes environment overrides, e.g. ODS_HARVESTER_STORE_PATH.
const EnvPrefix = "ODS_HARVESTER"

// Defaults.
const (
	DefaultPageSize              = 50
	DefaultTimezone              = "Europe/Berlin"
	DefaultShapefileRecordsLimit = 50000
	DefaultTimeout               = 60 * time.Second
	DefaultUserAgent             = "ods-harvester/0.1"
	DefaultStorePath             = "data/harvest.db"
	DefaultLogLevel              = "info"
)

// SetDefaults registers every default on v. Keys with defaults can be
// overridden from the environment.
func SetDefaults(v *viper.Viper) {
	v.SetDefault("harvest.page_size", DefaultPageSize)
	v.SetDefault("harvest.timezone", DefaultTimezone)
	v.SetDefault("harvest.use_labels_for_header", true)
	v.SetDefault("harvest.shapefile_records_limit", DefaultShapefileRecordsLimit)
	v.SetDefault("harvest.timeout", DefaultTimeout)
	v.SetDefault("harvest.user_agent", DefaultUserAgent)
	v.SetDefault("store.path", DefaultStorePath)
	v.SetDefault("log.level", DefaultLogLevel)
	v.SetDefault("preview.enabled", true)
	v.SetDefault("preview.base_url", "")
}

// BindEnv makes v read ODS_HARVESTER_* variables for known keys.
func BindEnv(v *viper.Viper) {
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
}

// Load decodes v into a Config and validates it.
func Load(v *viper.Viper) (types.Config, error) {
	var cfg types.Config
	if err := v.Unmarshal(&cfg); err != nil {
		return types.Config{}, &types.InvalidConfigError{Field: "config", Reason: "cannot decode", Err: err}
	}
	if err := Validate(cfg); err != nil {
		return types.Config{}, err
	}
	return cfg, nil
}

// Validate checks deployment settings and every source. It returns the
// first problem found as *types.InvalidConfigError.
func Validate(cfg types.Config) error {
	h := cfg.Harvest
	if h.PageSize <= 0 {
		return &types.InvalidConfigError{Field: "harvest.page_size", Reason: fmt.Sprintf("must be positive, got %d", h.PageSize)}
	}
	if h.Timeout < 0 {
		return &types.InvalidConfigError{Field: "harvest.timeout", Reason: "must not be negative"}
	}
	if h.ShapefileRecordsLimit < 0 {
		return &types.InvalidConfigError{Field: "harvest.shapefile_records_limit", Reason: "must not be negative"}
	}
	if strings.TrimSpace(h.Timezone) == "" {
		return &types.InvalidConfigError{Field: "harvest.timezone", Reason: "must not be empty"}
	}
	if _, err := time.LoadLocation(h.Timezone); err != nil {
		return &types.InvalidConfigError{Field: "harvest.timezone", Reason: "unknown zone " + h.Timezone, Err: err}
	}
	if cfg.Store.Path == "" {
		return &types.InvalidConfigError{Field: "store.path", Reason: "must not be empty"}
	}

	seen := make(map[string]bool, len(cfg.Sources))
	for i, src := range cfg.Sources {
		if err := ValidateSource(src); err != nil {
			return wrapSource(i, err)
		}
		if seen[src.Name] {
			return &types.InvalidConfigError{Field: fmt.Sprintf("sources[%d].name", i), Reason: fmt.Sprintf("duplicate source %q", src.Name)}
		}
		seen[src.Name] = true
	}
	return nil
}

// ValidateSource checks one source's name, URL and filters.
func ValidateSource(src types.SourceConfig) error {
	if strings.TrimSpace(src.Name) == "" {
		return &types.InvalidConfigError{Field: "name", Reason: "must not be empty"}
	}
	if err := ods.ValidateSourceURL(src.URL); err != nil {
		return err
	}
	return ods.ValidateFilters(src.Filters)
}

func wrapSource(i int, err error) error {
	var ce *types.InvalidConfigError
	if errors.As(err, &ce) {
		return &types.InvalidConfigError{Field: fmt.Sprintf("sources[%d].%s", i, ce.Field), Reason: ce.Reason, Err: ce.Err}
	}
	return err
}
