// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package config

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/ods-harvester/pkg/types"
)

const sampleYAML = `
harvest:
  page_size: 20
  timeout: 15s
store:
  path: /tmp/harvest.db
preview:
  enabled: false
sources:
  - name: sandbox
    url: http://etalab-sandbox.opendatasoft.com/
    filters:
      - key: tags
        value: transport
        type: include
      - key: publisher
        value: Ville de Paris
        type: exclude
    features:
      inspire: true
  - name: other
    url: https://data.example.com
`

func loadYAML(t *testing.T, content string) (types.Config, error) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "ods-harvester.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	v := viper.New()
	SetDefaults(v)
	v.SetConfigFile(path)
	require.NoError(t, v.ReadInConfig())
	return Load(v)
}

func TestLoad(t *testing.T) {
	cfg, err := loadYAML(t, sampleYAML)
	require.NoError(t, err)

	assert.Equal(t, 20, cfg.Harvest.PageSize)
	assert.Equal(t, 15*time.Second, cfg.Harvest.Timeout)
	assert.Equal(t, DefaultUserAgent, cfg.Harvest.UserAgent)
	assert.Equal(t, DefaultTimezone, cfg.Harvest.Timezone)
	assert.True(t, cfg.Harvest.UseLabelsForHeader)
	assert.Equal(t, DefaultShapefileRecordsLimit, cfg.Harvest.ShapefileRecordsLimit)
	assert.Equal(t, "/tmp/harvest.db", cfg.Store.Path)
	assert.False(t, cfg.Preview.Enabled)
	assert.Equal(t, DefaultLogLevel, cfg.Log.Level)

	require.Len(t, cfg.Sources, 2)
	src, ok := cfg.Source("sandbox")
	require.True(t, ok)
	assert.True(t, src.Features.Inspire)
	assert.Equal(t, []types.FilterRule{
		{Key: "tags", Value: "transport", Kind: types.FilterInclude},
		{Key: "publisher", Value: "Ville de Paris", Kind: types.FilterExclude},
	}, src.Filters)

	other, ok := cfg.Source("other")
	require.True(t, ok)
	assert.False(t, other.Features.Inspire)
	assert.Empty(t, other.Filters)
}

func TestLoadDefaultsOnly(t *testing.T) {
	v := viper.New()
	SetDefaults(v)
	cfg, err := Load(v)
	require.NoError(t, err)
	assert.Equal(t, DefaultPageSize, cfg.Harvest.PageSize)
	assert.Equal(t, DefaultTimeout, cfg.Harvest.Timeout)
	assert.Equal(t, DefaultStorePath, cfg.Store.Path)
	assert.True(t, cfg.Preview.Enabled)
	assert.Empty(t, cfg.Sources)
}

func TestBindEnv(t *testing.T) {
	t.Setenv("ODS_HARVESTER_STORE_PATH", "/var/lib/ods/harvest.db")
	t.Setenv("ODS_HARVESTER_HARVEST_PAGE_SIZE", "10")

	v := viper.New()
	SetDefaults(v)
	BindEnv(v)
	cfg, err := Load(v)
	require.NoError(t, err)
	assert.Equal(t, "/var/lib/ods/harvest.db", cfg.Store.Path)
	assert.Equal(t, 10, cfg.Harvest.PageSize)
}

func TestLoadInvalid(t *testing.T) {
	tests := []struct {
		name      string
		yaml      string
		wantField string
	}{
		{
			"bad url",
			"sources:\n  - name: a\n    url: example.com\n",
			"sources[0].url",
		},
		{
			"unknown filter type",
			"sources:\n  - name: a\n    url: http://a.example.com\n    filters:\n      - {key: tags, value: v, type: maybe}\n",
			"sources[0].filters[0]",
		},
		{
			"empty filter value",
			"sources:\n  - name: a\n    url: http://a.example.com\n    filters:\n      - {key: tags, value: ''}\n",
			"sources[0].filters[0]",
		},
		{
			"duplicate names",
			"sources:\n  - name: a\n    url: http://a.example.com\n  - name: a\n    url: http://b.example.com\n",
			"sources[1].name",
		},
		{
			"missing name",
			"sources:\n  - url: http://a.example.com\n",
			"sources[0].name",
		},
		{
			"zero page size",
			"harvest:\n  page_size: 0\n",
			"harvest.page_size",
		},
		{
			"unknown timezone",
			"harvest:\n  timezone: Mars/Olympus\n",
			"harvest.timezone",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := loadYAML(t, tt.yaml)
			var ce *types.InvalidConfigError
			require.True(t, errors.As(err, &ce), "got %v", err)
			assert.Equal(t, tt.wantField, ce.Field)
			assert.True(t, types.IsRunFatal(err))
			assert.True(t, strings.HasPrefix(err.Error(), "invalid config "))
		})
	}
}
