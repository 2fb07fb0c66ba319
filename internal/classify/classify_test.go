// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package classify

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/ods-harvester/internal/ods"
	"github.com/pdiddy/ods-harvester/internal/registry"
	"github.com/pdiddy/ods-harvester/pkg/types"
)

const testSource = "http://etalab-sandbox.opendatasoft.com"

func testClassifier(t *testing.T, opts Options) *Classifier {
	t.Helper()
	urls, err := ods.NewURLs(types.SourceConfig{URL: testSource}, types.HarvestConfig{
		Timezone:           "Europe/Berlin",
		UseLabelsForHeader: true,
	})
	require.NoError(t, err)
	return New(registry.Default(), urls, opts)
}

func titles(rs []types.ResourceDescriptor) []string {
	out := make([]string, len(rs))
	for i, r := range rs {
		out[i] = r.Title
	}
	return out
}

func TestClassifyAPIOnly(t *testing.T) {
	c := testClassifier(t, Options{})
	modified := time.Date(2016, 11, 28, 7, 41, 19, 0, time.UTC)
	out, err := c.Classify(types.RemoteDataset{
		RemoteID:    "test-a",
		Title:       "test-a",
		Description: "<p>test-a-description</p>",
		Keywords:    []string{"keyword1", "keyword2"},
		Themes:      []string{"Culture, Heritage", "Environment"},
		License:     "Licence Ouverte (Etalab)",
		References:  "http://example.com",
		HasRecords:  true,
		Modified:    modified,
	})
	require.NoError(t, err)

	assert.Equal(t, "test-a-description", out.Description)
	assert.Equal(t, []string{"culture", "environment", "heritage", "keyword1", "keyword2"}, out.Tags)
	assert.Equal(t, "fr-lo", out.LicenseCode)
	assert.Equal(t, testSource+"/explore/dataset/test-a/", out.ODSURL)

	require.Len(t, out.Resources, 2)
	csv := out.Resources[0]
	assert.Equal(t, "CSV format export", csv.Title)
	assert.NotEmpty(t, csv.Description)
	assert.Equal(t, "csv", csv.Format)
	assert.Equal(t, "text/csv", csv.MIME)
	assert.Equal(t, modified, csv.Modified)
	assert.Equal(t, types.KindAPI, csv.Kind)
	assert.Equal(t, testSource+"/explore/dataset/test-a/download?format=csv&timezone=Europe/Berlin&use_labels_for_header=true", csv.URL)
	assert.Equal(t, types.NaturalKey{Kind: types.KindAPI, Slug: "csv"}, csv.Key)

	js := out.Resources[1]
	assert.Equal(t, "JSON format export", js.Title)
	assert.Equal(t, "json", js.Format)
	assert.Equal(t, "application/json", js.MIME)
}

func TestClassifyGeoOrdering(t *testing.T) {
	c := testClassifier(t, Options{ShapefileRecordsLimit: 50000})
	out, err := c.Classify(types.RemoteDataset{
		RemoteID:     "test-b",
		Title:        "test-b",
		HasRecords:   true,
		IsGeo:        true,
		RecordsCount: 300,
		AlternativeExports: []types.RemoteFile{
			{ID: "gtfs_zip", Title: "gtfs.zip", Description: "GTFS 15/01", MIME: "application/zip"},
		},
		Attachments: []types.RemoteFile{
			{ID: "notice_pdf", Title: "notice.pdf", MIME: "application/pdf"},
		},
	})
	require.NoError(t, err)

	assert.Equal(t, []string{
		"CSV format export",
		"JSON format export",
		"GeoJSON format export",
		"Shapefile format export",
		"gtfs.zip",
		"notice.pdf",
	}, titles(out.Resources))

	geo := out.Resources[2]
	assert.Equal(t, "json", geo.Format)
	assert.Equal(t, "application/vnd.geo+json", geo.MIME)
	assert.Contains(t, geo.URL, "format=geojson")
	assert.Equal(t, "geojson", geo.Key.Slug)

	shp := out.Resources[3]
	assert.Equal(t, "shp", shp.Format)
	assert.Empty(t, shp.MIME)

	alt := out.Resources[4]
	assert.Equal(t, types.KindAlternativeExport, alt.Kind)
	assert.Equal(t, "GTFS 15/01", alt.Description)
	assert.Equal(t, "zip", alt.Format)
	assert.Equal(t, "application/zip", alt.MIME)
	assert.Equal(t, testSource+"/api/datasets/1.0/test-b/alternative_exports/gtfs_zip", alt.URL)
	assert.Equal(t, types.NaturalKey{Kind: types.KindAlternativeExport, Slug: "gtfs_zip"}, alt.Key)

	att := out.Resources[5]
	assert.Equal(t, types.KindAttachment, att.Kind)
	assert.Equal(t, "pdf", att.Format)
	assert.Equal(t, testSource+"/api/datasets/1.0/test-b/attachments/notice_pdf", att.URL)
}

func TestClassifyGeoJSONAndJSONKeysDiffer(t *testing.T) {
	c := testClassifier(t, Options{})
	out, err := c.Classify(types.RemoteDataset{RemoteID: "g", Title: "g", HasRecords: true, IsGeo: true})
	require.NoError(t, err)

	keys := make(map[types.NaturalKey]bool)
	for _, r := range out.Resources {
		assert.False(t, keys[r.Key], "duplicate key %s", r.Key)
		keys[r.Key] = true
	}
	assert.Len(t, keys, 4)
}

func TestExportFormats(t *testing.T) {
	c := testClassifier(t, Options{ShapefileRecordsLimit: 100})
	tests := []struct {
		name string
		ds   types.RemoteDataset
		want []string
	}{
		{"no records", types.RemoteDataset{HasRecords: false, IsGeo: true}, nil},
		{"plain", types.RemoteDataset{HasRecords: true}, []string{"csv", "json"}},
		{"geo", types.RemoteDataset{HasRecords: true, IsGeo: true, RecordsCount: 100}, []string{"csv", "json", "geojson", "shp"}},
		{"geo over shp limit", types.RemoteDataset{HasRecords: true, IsGeo: true, RecordsCount: 101}, []string{"csv", "json", "geojson"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, c.ExportFormats(tt.ds))
		})
	}
}

func TestClassifyNoRecordsKeepsFiles(t *testing.T) {
	c := testClassifier(t, Options{})
	out, err := c.Classify(types.RemoteDataset{
		RemoteID:    "files",
		Title:       "files",
		HasRecords:  false,
		IsGeo:       true,
		Attachments: []types.RemoteFile{{ID: "doc", Title: "doc"}},
	})
	require.NoError(t, err)
	require.Len(t, out.Resources, 1)
	assert.Equal(t, types.KindAttachment, out.Resources[0].Kind)
	assert.Empty(t, out.Resources[0].Format)
	assert.Empty(t, out.Resources[0].MIME)
}

func TestClassifyNoDistributions(t *testing.T) {
	c := testClassifier(t, Options{})

	_, err := c.Classify(types.RemoteDataset{RemoteID: "test-c", Title: "test-c"})
	var skip *SkipError
	require.True(t, errors.As(err, &skip))
	assert.Equal(t, "dataset test-c has no record", skip.Reason)

	out, err := c.Classify(types.RemoteDataset{RemoteID: "meta", Title: "meta", Description: "Described but empty"})
	require.NoError(t, err)
	assert.Empty(t, out.Resources)
	assert.Equal(t, "Described but empty", out.Description)
}

func TestClassifyInspireGate(t *testing.T) {
	ds := types.RemoteDataset{RemoteID: "test-d", Title: "test-d", HasRecords: true, IsInspire: true}

	_, err := testClassifier(t, Options{}).Classify(ds)
	var skip *SkipError
	require.True(t, errors.As(err, &skip))
	assert.Contains(t, skip.Reason, "INSPIRE")

	enabled, err := testClassifier(t, Options{Inspire: true}).Classify(ds)
	require.NoError(t, err)

	plain := ds
	plain.IsInspire = false
	baseline, err := testClassifier(t, Options{}).Classify(plain)
	require.NoError(t, err)
	assert.Equal(t, baseline, enabled)
}

func TestClassifyErrors(t *testing.T) {
	c := testClassifier(t, Options{})
	tests := []struct {
		name string
		ds   types.RemoteDataset
	}{
		{"missing title", types.RemoteDataset{RemoteID: "x", HasRecords: true}},
		{"attachment without id", types.RemoteDataset{RemoteID: "x", Title: "x", Attachments: []types.RemoteFile{{Title: "a"}}}},
		{"duplicate export id", types.RemoteDataset{RemoteID: "x", Title: "x", AlternativeExports: []types.RemoteFile{{ID: "a"}, {ID: "a"}}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := c.Classify(tt.ds)
			var ce *types.ClassificationError
			require.True(t, errors.As(err, &ce), "got %v", err)
			assert.Equal(t, "x", ce.RemoteID)
		})
	}
}

func TestClassifyFileTitleFallsBackToID(t *testing.T) {
	c := testClassifier(t, Options{})
	out, err := c.Classify(types.RemoteDataset{
		RemoteID:           "x",
		Title:              "x",
		AlternativeExports: []types.RemoteFile{{ID: "export_1", Format: "xls"}},
	})
	require.NoError(t, err)
	assert.Equal(t, "export_1", out.Resources[0].Title)
	assert.Equal(t, "xls", out.Resources[0].Format)
}

func TestClassifyUnmappedLicense(t *testing.T) {
	c := testClassifier(t, Options{})
	out, err := c.Classify(types.RemoteDataset{RemoteID: "x", Title: "x", HasRecords: true, License: "Bespoke"})
	require.NoError(t, err)
	assert.Empty(t, out.LicenseCode)
	assert.Equal(t, "Bespoke", out.LicenseLabel)
}
