// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package store

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"time"

	"go.yaml.in/yaml/v3"
)

// ExportEntry is one dataset in an export file.
type ExportEntry struct {
	ID          string           `json:"id" yaml:"id"`
	Domain      string           `json:"domain" yaml:"domain"`
	RemoteID    string           `json:"remote_id" yaml:"remote_id"`
	Source      string           `json:"source,omitempty" yaml:"source,omitempty"`
	Title       string           `json:"title" yaml:"title"`
	Description string           `json:"description,omitempty" yaml:"description,omitempty"`
	Tags        []string         `json:"tags" yaml:"tags"`
	License     string           `json:"license,omitempty" yaml:"license,omitempty"`
	ODSURL      string           `json:"ods_url,omitempty" yaml:"ods_url,omitempty"`
	Modified    string           `json:"modified,omitempty" yaml:"modified,omitempty"`
	Resources   []ExportResource `json:"resources" yaml:"resources"`
}

// ExportResource holds the resource fields included in each export entry.
type ExportResource struct {
	ID     string `json:"id" yaml:"id"`
	Type   string `json:"type,omitempty" yaml:"type,omitempty"`
	Title  string `json:"title" yaml:"title"`
	Format string `json:"format,omitempty" yaml:"format,omitempty"`
	MIME   string `json:"mime,omitempty" yaml:"mime,omitempty"`
	URL    string `json:"url" yaml:"url"`
}

// ExportYAML writes the datasets matching opts to w as YAML.
func (s *Store) ExportYAML(ctx context.Context, w io.Writer, opts ListOptions) error {
	entries, err := s.exportEntries(ctx, opts)
	if err != nil {
		return err
	}

	data, err := yaml.Marshal(entries)
	if err != nil {
		return fmt.Errorf("marshaling YAML: %w", err)
	}
	_, err = w.Write(data)
	return err
}

// ExportJSON writes the datasets matching opts to w as indented JSON.
func (s *Store) ExportJSON(ctx context.Context, w io.Writer, opts ListOptions) error {
	entries, err := s.exportEntries(ctx, opts)
	if err != nil {
		return err
	}

	data, err := json.MarshalIndent(entries, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling JSON: %w", err)
	}
	_, err = fmt.Fprintf(w, "%s\n", data)
	return err
}

func (s *Store) exportEntries(ctx context.Context, opts ListOptions) ([]ExportEntry, error) {
	opts.WithResources = true
	datasets, err := s.ListDatasets(ctx, opts)
	if err != nil {
		return nil, fmt.Errorf("querying for export: %w", err)
	}

	licenses, err := s.Licenses(ctx)
	if err != nil {
		return nil, fmt.Errorf("querying for export: %w", err)
	}
	codes := make(map[string]string, len(licenses))
	for _, l := range licenses {
		codes[l.ID] = l.Code
	}

	entries := make([]ExportEntry, len(datasets))
	for i, ds := range datasets {
		entries[i] = ExportEntry{
			ID:          ds.ID,
			Domain:      ds.Harvest.Domain,
			RemoteID:    ds.Harvest.RemoteID,
			Source:      ds.Harvest.SourceName,
			Title:       ds.Title,
			Description: ds.Description,
			Tags:        ds.Tags,
			License:     codes[ds.LicenseID],
			ODSURL:      ds.Harvest.ODSURL,
			Resources:   make([]ExportResource, len(ds.Resources)),
		}
		if !ds.LastModified.IsZero() {
			entries[i].Modified = ds.LastModified.Format(time.RFC3339)
		}
		for j, r := range ds.Resources {
			entries[i].Resources[j] = ExportResource{
				ID:     r.ID,
				Type:   string(r.ODSType),
				Title:  r.Title,
				Format: r.Format,
				MIME:   r.MIME,
				URL:    r.URL,
			}
		}
	}
	return entries, nil
}
