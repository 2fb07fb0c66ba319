// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import "time"

// HarvestMeta is the harvest provenance stored alongside a dataset. The
// pair (Domain, RemoteID) is the dataset's harvest identity and is unique
// across the store.
type HarvestMeta struct {
	Domain     string    `json:"domain" yaml:"domain"`
	RemoteID   string    `json:"remote_id" yaml:"remote_id"`
	SourceName string    `json:"source_name,omitempty" yaml:"source_name,omitempty"`
	ODSURL     string    `json:"ods_url,omitempty" yaml:"ods_url,omitempty"`
	References string    `json:"references,omitempty" yaml:"references,omitempty"`
	HasRecords bool      `json:"has_records" yaml:"has_records"`
	IsGeo      bool      `json:"is_geo" yaml:"is_geo"`
	LastUpdate time.Time `json:"last_update" yaml:"last_update"`
}

// IsZero reports whether the dataset carries no harvest provenance.
func (m HarvestMeta) IsZero() bool {
	return m.Domain == "" && m.RemoteID == "" && m.ODSURL == ""
}

// StoredDataset is a persisted dataset.
type StoredDataset struct {
	// ID is the store-assigned primary key; empty before first insert.
	ID string `json:"id" yaml:"id"`

	Title        string    `json:"title" yaml:"title"`
	Description  string    `json:"description" yaml:"description"`
	Tags         []string  `json:"tags" yaml:"tags"`
	LicenseID    string    `json:"license_id,omitempty" yaml:"license_id,omitempty"`
	LastModified time.Time `json:"last_modified" yaml:"last_modified"`
	CreatedAt    time.Time `json:"created_at" yaml:"created_at"`

	Harvest HarvestMeta `json:"harvest" yaml:"harvest"`

	// Resources is populated by read paths that load the full dataset.
	Resources []StoredResource `json:"resources,omitempty" yaml:"resources,omitempty"`
}

// StoredResource is a persisted resource owned by one dataset. Key is
// unique within the owning dataset.
type StoredResource struct {
	// ID is the store-assigned primary key. It survives in-place updates.
	ID string `json:"id" yaml:"id"`

	DatasetID   string    `json:"dataset_id" yaml:"dataset_id"`
	Title       string    `json:"title" yaml:"title"`
	Description string    `json:"description,omitempty" yaml:"description,omitempty"`
	Format      string    `json:"format,omitempty" yaml:"format,omitempty"`
	MIME        string    `json:"mime,omitempty" yaml:"mime,omitempty"`
	URL         string    `json:"url" yaml:"url"`
	Modified    time.Time `json:"modified" yaml:"modified"`

	// Position orders resources within their dataset.
	Position int `json:"position" yaml:"position"`

	// ODSType is the classified kind. Empty for resources not created by harvest.
	ODSType ResourceKind `json:"ods_type,omitempty" yaml:"ods_type,omitempty"`

	// Key is the natural key used to match the resource across runs.
	Key NaturalKey `json:"natural_key" yaml:"natural_key"`
}
