// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package classify turns a decoded remote dataset into a normalized dataset
// and its ordered resource descriptors, applying the dataset-level
// inclusion policies along the way.
package classify

import (
	"fmt"

	"github.com/pdiddy/ods-harvester/internal/ods"
	"github.com/pdiddy/ods-harvester/internal/registry"
	"github.com/pdiddy/ods-harvester/pkg/types"
)

// apiFormats are always offered for datasets with records; geoFormats are
// added for datasets with the geo feature.
var (
	apiFormats = []string{"csv", "json"}
	geoFormats = []string{"geojson", "shp"}
)

// SkipError excludes a dataset from the run without failing it.
type SkipError struct {
	RemoteID string
	Reason   string
}

func (e *SkipError) Error() string { return e.Reason }

// Classifier builds resource descriptors for one source.
type Classifier struct {
	registry *registry.Registry
	urls     *ods.URLs

	// inspire admits datasets carrying INSPIRE metadata.
	inspire bool

	// shapefileLimit suppresses shp exports above this record count. Zero
	// disables the limit.
	shapefileLimit int
}

// Options configures a Classifier.
type Options struct {
	Inspire               bool
	ShapefileRecordsLimit int
}

// New returns a Classifier using reg for format/license lookups and urls
// for every emitted resource URL.
func New(reg *registry.Registry, urls *ods.URLs, opts Options) *Classifier {
	return &Classifier{
		registry:       reg,
		urls:           urls,
		inspire:        opts.Inspire,
		shapefileLimit: opts.ShapefileRecordsLimit,
	}
}

// Classify applies the inclusion policy to ds and, when it passes, returns
// the normalized dataset with resources ordered API exports first, then
// alternative exports, then attachments. Excluded datasets yield a
// *SkipError; records missing required fields a *types.ClassificationError.
func (c *Classifier) Classify(ds types.RemoteDataset) (types.HarvestedDataset, error) {
	if err := c.admit(ds); err != nil {
		return types.HarvestedDataset{}, err
	}
	if ds.Title == "" {
		return types.HarvestedDataset{}, &types.ClassificationError{RemoteID: ds.RemoteID, Reason: "missing title"}
	}

	out := types.HarvestedDataset{
		RemoteID:     ds.RemoteID,
		Title:        ds.Title,
		Description:  CleanDescription(ds.Description),
		Tags:         NormalizeTags(ds.Keywords, ds.Themes),
		LicenseLabel: ds.License,
		References:   ds.References,
		HasRecords:   ds.HasRecords,
		IsGeo:        ds.IsGeo,
		ODSURL:       c.urls.Explore(ds.RemoteID),
		Modified:     ds.Modified,
	}
	if code, ok := c.registry.LicenseCode(ds.License); ok {
		out.LicenseCode = code
	}

	out.Resources = append(out.Resources, c.apiResources(ds)...)

	files, err := c.fileResources(ds, types.KindAlternativeExport, ds.AlternativeExports)
	if err != nil {
		return types.HarvestedDataset{}, err
	}
	out.Resources = append(out.Resources, files...)

	files, err = c.fileResources(ds, types.KindAttachment, ds.Attachments)
	if err != nil {
		return types.HarvestedDataset{}, err
	}
	out.Resources = append(out.Resources, files...)

	return out, nil
}

// admit applies the dataset-level exclusion rules.
func (c *Classifier) admit(ds types.RemoteDataset) error {
	empty := !ds.HasRecords && len(ds.AlternativeExports) == 0 && len(ds.Attachments) == 0
	if empty && CleanDescription(ds.Description) == "" {
		return &SkipError{RemoteID: ds.RemoteID, Reason: fmt.Sprintf("dataset %s has no record", ds.RemoteID)}
	}
	if ds.IsInspire && !c.inspire {
		return &SkipError{RemoteID: ds.RemoteID, Reason: fmt.Sprintf("dataset %s has INSPIRE metadata", ds.RemoteID)}
	}
	return nil
}

// ExportFormats returns the API export tokens offered for ds, in order.
func (c *Classifier) ExportFormats(ds types.RemoteDataset) []string {
	if !ds.HasRecords {
		return nil
	}
	formats := append([]string(nil), apiFormats...)
	if !ds.IsGeo {
		return formats
	}
	for _, f := range geoFormats {
		if f == "shp" && c.shapefileLimit > 0 && ds.RecordsCount > c.shapefileLimit {
			continue
		}
		formats = append(formats, f)
	}
	return formats
}

func (c *Classifier) apiResources(ds types.RemoteDataset) []types.ResourceDescriptor {
	formats := c.ExportFormats(ds)
	if len(formats) == 0 {
		return nil
	}

	modified := ds.DataProcessed
	if modified.IsZero() {
		modified = ds.Modified
	}

	resources := make([]types.ResourceDescriptor, 0, len(formats))
	for _, token := range formats {
		f, ok := c.registry.Lookup(token)
		if !ok {
			f = registry.Format{Token: token, Label: token, Code: token}
		}
		resources = append(resources, types.ResourceDescriptor{
			Kind:        types.KindAPI,
			Title:       fmt.Sprintf("%s format export", f.Label),
			Description: FieldsDescription(f.Label, ds.Fields),
			Format:      f.Code,
			MIME:        f.MIME,
			URL:         c.urls.Download(ds.RemoteID, token),
			Modified:    modified,
			Key:         types.NaturalKey{Kind: types.KindAPI, Slug: token},
		})
	}
	return resources
}

func (c *Classifier) fileResources(ds types.RemoteDataset, kind types.ResourceKind, entries []types.RemoteFile) ([]types.ResourceDescriptor, error) {
	resources := make([]types.ResourceDescriptor, 0, len(entries))
	seen := make(map[string]bool, len(entries))
	for i, e := range entries {
		if e.ID == "" {
			return nil, &types.ClassificationError{
				RemoteID: ds.RemoteID,
				Reason:   fmt.Sprintf("%s %d has no id", kind, i),
			}
		}
		if seen[e.ID] {
			return nil, &types.ClassificationError{
				RemoteID: ds.RemoteID,
				Reason:   fmt.Sprintf("duplicate %s id %q", kind, e.ID),
			}
		}
		seen[e.ID] = true

		url := c.urls.AlternativeExport(ds.RemoteID, e.ID)
		if kind == types.KindAttachment {
			url = c.urls.Attachment(ds.RemoteID, e.ID)
		}

		title := e.Title
		if title == "" {
			title = e.ID
		}

		format := e.Format
		if format == "" {
			format = c.registry.FormatForMIME(e.MIME)
		}

		resources = append(resources, types.ResourceDescriptor{
			Kind:        kind,
			Title:       title,
			Description: e.Description,
			Format:      format,
			MIME:        e.MIME,
			URL:         url,
			Modified:    ds.Modified,
			Key:         types.NaturalKey{Kind: kind, Slug: e.ID},
		})
	}
	return resources, nil
}
