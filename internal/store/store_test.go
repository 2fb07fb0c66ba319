// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package store

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.yaml.in/yaml/v3"

	"github.com/pdiddy/ods-harvester/pkg/types"
)

func testStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(types.StoreConfig{Path: filepath.Join(t.TempDir(), "data", "harvest.db")})
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func sampleDataset() *types.StoredDataset {
	return &types.StoredDataset{
		Title:        "test-a",
		Description:  "test-a-description",
		Tags:         []string{"culture", "keyword1"},
		LastModified: time.Date(2016, 11, 28, 7, 41, 19, 0, time.UTC),
		Harvest: types.HarvestMeta{
			Domain:     "etalab-sandbox.opendatasoft.com",
			RemoteID:   "test-a",
			SourceName: "sandbox",
			ODSURL:     "http://etalab-sandbox.opendatasoft.com/explore/dataset/test-a/",
			References: "http://example.com",
			HasRecords: true,
			LastUpdate: time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC),
		},
	}
}

func sampleResource(datasetID, slug string, pos int) *types.StoredResource {
	return &types.StoredResource{
		DatasetID: datasetID,
		Title:     slug + " format export",
		Format:    slug,
		URL:       "http://etalab-sandbox.opendatasoft.com/explore/dataset/test-a/download?format=" + slug,
		Position:  pos,
		ODSType:   types.KindAPI,
		Key:       types.NaturalKey{Kind: types.KindAPI, Slug: slug},
	}
}

func TestOpenCreatesSchema(t *testing.T) {
	s := testStore(t)

	for _, table := range []string{"datasets", "resources", "licenses"} {
		var count int
		err := s.db.QueryRow(
			`SELECT count(*) FROM sqlite_master WHERE type = 'table' AND name = ?`, table,
		).Scan(&count)
		require.NoError(t, err)
		assert.Equal(t, 1, count, "table %s", table)
	}
}

func TestOpenCreatesDBFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "harvest.db")
	s, err := Open(types.StoreConfig{Path: path})
	require.NoError(t, err)
	defer s.Close()

	_, err = os.Stat(path)
	assert.NoError(t, err)
}

func TestDatasetRoundTrip(t *testing.T) {
	s := testStore(t)
	ctx := context.Background()

	ds := sampleDataset()
	id, err := s.UpsertDataset(ctx, ds)
	require.NoError(t, err)
	require.NotEmpty(t, id)
	assert.Equal(t, id, ds.ID)

	got, err := s.FindDatasetByHarvestIdentity(ctx, "etalab-sandbox.opendatasoft.com", "test-a")
	require.NoError(t, err)
	assert.Equal(t, id, got.ID)
	assert.Equal(t, ds.Title, got.Title)
	assert.Equal(t, ds.Tags, got.Tags)
	assert.Equal(t, ds.Harvest, got.Harvest)
	assert.True(t, ds.LastModified.Equal(got.LastModified))
	assert.False(t, got.CreatedAt.IsZero())
	assert.Empty(t, got.Resources)
}

func TestFindDatasetNotFound(t *testing.T) {
	s := testStore(t)
	_, err := s.FindDatasetByHarvestIdentity(context.Background(), "nowhere", "x")
	assert.ErrorIs(t, err, types.ErrNotFound)
}

func TestUpsertDatasetUpdatesInPlace(t *testing.T) {
	s := testStore(t)
	ctx := context.Background()

	ds := sampleDataset()
	id, err := s.UpsertDataset(ctx, ds)
	require.NoError(t, err)

	ds.Title = "renamed"
	ds.Tags = nil
	again, err := s.UpsertDataset(ctx, ds)
	require.NoError(t, err)
	assert.Equal(t, id, again)

	all, err := s.ListDatasets(ctx, ListOptions{})
	require.NoError(t, err)
	require.Len(t, all, 1)
	assert.Equal(t, "renamed", all[0].Title)
	assert.Equal(t, []string{}, all[0].Tags)
}

func TestHarvestIdentityIsUnique(t *testing.T) {
	s := testStore(t)
	ctx := context.Background()

	_, err := s.UpsertDataset(ctx, sampleDataset())
	require.NoError(t, err)

	_, err = s.UpsertDataset(ctx, sampleDataset())
	var se *types.StorageError
	assert.True(t, errors.As(err, &se), "got %v", err)
}

func TestResourceLifecycle(t *testing.T) {
	s := testStore(t)
	ctx := context.Background()

	dsID, err := s.UpsertDataset(ctx, sampleDataset())
	require.NoError(t, err)

	json1 := sampleResource(dsID, "json", 1)
	csv := sampleResource(dsID, "csv", 0)
	for _, r := range []*types.StoredResource{json1, csv} {
		_, err := s.UpsertResource(ctx, r)
		require.NoError(t, err)
	}

	list, err := s.ListResources(ctx, dsID)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "csv", list[0].Key.Slug)
	assert.Equal(t, "json", list[1].Key.Slug)

	found, err := s.FindResourceByNaturalKey(ctx, dsID, types.NaturalKey{Kind: types.KindAPI, Slug: "json"})
	require.NoError(t, err)
	assert.Equal(t, json1.ID, found.ID)
	assert.Equal(t, types.KindAPI, found.ODSType)

	found.Title = "new"
	id, err := s.UpsertResource(ctx, &found)
	require.NoError(t, err)
	assert.Equal(t, json1.ID, id)

	_, err = s.FindResourceByNaturalKey(ctx, dsID, types.NaturalKey{Kind: types.KindAttachment, Slug: "json"})
	assert.ErrorIs(t, err, types.ErrNotFound)

	require.NoError(t, s.RemoveResource(ctx, dsID, csv.ID))
	assert.ErrorIs(t, s.RemoveResource(ctx, dsID, csv.ID), types.ErrNotFound)

	list, err = s.ListResources(ctx, dsID)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "new", list[0].Title)
}

func TestUpsertResourceRequiresDataset(t *testing.T) {
	s := testStore(t)
	_, err := s.UpsertResource(context.Background(), &types.StoredResource{Title: "x", URL: "u"})
	var se *types.StorageError
	assert.True(t, errors.As(err, &se))
}

func TestNaturalKeyUniquePerDataset(t *testing.T) {
	s := testStore(t)
	ctx := context.Background()

	dsID, err := s.UpsertDataset(ctx, sampleDataset())
	require.NoError(t, err)

	_, err = s.UpsertResource(ctx, sampleResource(dsID, "csv", 0))
	require.NoError(t, err)
	_, err = s.UpsertResource(ctx, sampleResource(dsID, "csv", 1))
	assert.Error(t, err)
}

func TestDeleteDatasetCascades(t *testing.T) {
	s := testStore(t)
	ctx := context.Background()

	dsID, err := s.UpsertDataset(ctx, sampleDataset())
	require.NoError(t, err)
	_, err = s.UpsertResource(ctx, sampleResource(dsID, "csv", 0))
	require.NoError(t, err)

	require.NoError(t, s.DeleteDataset(ctx, dsID))
	assert.ErrorIs(t, s.DeleteDataset(ctx, dsID), types.ErrNotFound)

	list, err := s.ListResources(ctx, dsID)
	require.NoError(t, err)
	assert.Empty(t, list)
}

func TestRunInTxRollsBack(t *testing.T) {
	s := testStore(t)
	ctx := context.Background()
	boom := errors.New("boom")

	err := s.RunInTx(ctx, func(ctx context.Context) error {
		dsID, err := s.UpsertDataset(ctx, sampleDataset())
		if err != nil {
			return err
		}
		if _, err := s.UpsertResource(ctx, sampleResource(dsID, "csv", 0)); err != nil {
			return err
		}
		return boom
	})
	assert.ErrorIs(t, err, boom)

	all, err := s.ListDatasets(ctx, ListOptions{})
	require.NoError(t, err)
	assert.Empty(t, all)
}

func TestRunInTxCommits(t *testing.T) {
	s := testStore(t)
	ctx := context.Background()

	err := s.RunInTx(ctx, func(ctx context.Context) error {
		dsID, err := s.UpsertDataset(ctx, sampleDataset())
		if err != nil {
			return err
		}
		// Nested calls join the outer transaction.
		return s.RunInTx(ctx, func(ctx context.Context) error {
			_, err := s.UpsertResource(ctx, sampleResource(dsID, "csv", 0))
			return err
		})
	})
	require.NoError(t, err)

	got, err := s.FindDatasetByHarvestIdentity(ctx, "etalab-sandbox.opendatasoft.com", "test-a")
	require.NoError(t, err)
	assert.Len(t, got.Resources, 1)
}

func TestListDatasetsFilters(t *testing.T) {
	s := testStore(t)
	ctx := context.Background()

	for _, row := range []struct{ domain, remote, source string }{
		{"b.example.com", "one", "b"},
		{"a.example.com", "two", "a"},
		{"a.example.com", "one", "a"},
	} {
		ds := sampleDataset()
		ds.Harvest.Domain, ds.Harvest.RemoteID, ds.Harvest.SourceName = row.domain, row.remote, row.source
		_, err := s.UpsertDataset(ctx, ds)
		require.NoError(t, err)
	}

	tests := []struct {
		name string
		opts ListOptions
		want []string
	}{
		{"all ordered", ListOptions{}, []string{"a.example.com/one", "a.example.com/two", "b.example.com/one"}},
		{"by domain", ListOptions{Domain: "b.example.com"}, []string{"b.example.com/one"}},
		{"by source", ListOptions{Source: "a"}, []string{"a.example.com/one", "a.example.com/two"}},
		{"no match", ListOptions{Source: "zzz"}, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			all, err := s.ListDatasets(ctx, tt.opts)
			require.NoError(t, err)
			var got []string
			for _, ds := range all {
				got = append(got, ds.Harvest.Domain+"/"+ds.Harvest.RemoteID)
			}
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestSeedAndListLicenses(t *testing.T) {
	s := testStore(t)
	ctx := context.Background()

	added, err := s.SeedLicenses(ctx, []string{"fr-lo", "odc-odbl"})
	require.NoError(t, err)
	assert.Equal(t, 2, added)

	first, err := s.ListLicenses(ctx)
	require.NoError(t, err)
	assert.Len(t, first, 2)

	added, err = s.SeedLicenses(ctx, []string{"fr-lo", "cc-by"})
	require.NoError(t, err)
	assert.Equal(t, 1, added)

	second, err := s.ListLicenses(ctx)
	require.NoError(t, err)
	assert.Len(t, second, 3)
	assert.Equal(t, first["fr-lo"], second["fr-lo"])
}

func TestExport(t *testing.T) {
	s := testStore(t)
	ctx := context.Background()

	_, err := s.SeedLicenses(ctx, []string{"fr-lo"})
	require.NoError(t, err)
	licenses, err := s.ListLicenses(ctx)
	require.NoError(t, err)

	ds := sampleDataset()
	ds.LicenseID = licenses["fr-lo"]
	dsID, err := s.UpsertDataset(ctx, ds)
	require.NoError(t, err)
	_, err = s.UpsertResource(ctx, sampleResource(dsID, "csv", 0))
	require.NoError(t, err)

	var yamlBuf bytes.Buffer
	require.NoError(t, s.ExportYAML(ctx, &yamlBuf, ListOptions{}))
	var fromYAML []ExportEntry
	require.NoError(t, yaml.Unmarshal(yamlBuf.Bytes(), &fromYAML))
	require.Len(t, fromYAML, 1)
	assert.Equal(t, "fr-lo", fromYAML[0].License)
	assert.Equal(t, "test-a", fromYAML[0].RemoteID)
	require.Len(t, fromYAML[0].Resources, 1)
	assert.Equal(t, "api", fromYAML[0].Resources[0].Type)

	var jsonBuf bytes.Buffer
	require.NoError(t, s.ExportJSON(ctx, &jsonBuf, ListOptions{Domain: "other"}))
	var fromJSON []ExportEntry
	require.NoError(t, json.Unmarshal(jsonBuf.Bytes(), &fromJSON))
	assert.Empty(t, fromJSON)
}

func TestCollapseSlashes(t *testing.T) {
	tests := []struct{ in, want string }{
		{"http://example.com//explore/dataset/x/", "http://example.com/explore/dataset/x/"},
		{"http://example.com/explore/dataset/x/", "http://example.com/explore/dataset/x/"},
		{"https://example.com///a//b", "https://example.com/a/b"},
		{"no-scheme//path", "no-scheme/path"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, CollapseSlashes(tt.in), tt.in)
	}
}

func TestRemoveDoubleSlashDuplicates(t *testing.T) {
	s := testStore(t)
	ctx := context.Background()

	dsID, err := s.UpsertDataset(ctx, sampleDataset())
	require.NoError(t, err)

	good := sampleResource(dsID, "csv", 0)
	good.URL = "http://example.com/explore/dataset/test-a/download?format=csv"
	legacy := &types.StoredResource{
		DatasetID: dsID,
		Title:     "CSV format export",
		URL:       "http://example.com//explore/dataset/test-a/download?format=csv",
		Position:  1,
	}
	orphan := &types.StoredResource{
		DatasetID: dsID,
		Title:     "lonely",
		URL:       "http://example.com//explore/dataset/test-a/download?format=json",
		Position:  2,
	}
	for _, r := range []*types.StoredResource{good, legacy, orphan} {
		_, err := s.UpsertResource(ctx, r)
		require.NoError(t, err)
	}

	removed, err := s.RemoveDoubleSlashDuplicates(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, removed)

	list, err := s.ListResources(ctx, dsID)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, good.ID, list[0].ID)
	assert.Equal(t, orphan.ID, list[1].ID)
}
