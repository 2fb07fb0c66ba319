// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/pdiddy/ods-harvester/pkg/types"
)

const datasetColumns = `id, title, description, tags, license_id, last_modified, created_at,
	harvest_domain, harvest_remote_id, harvest_source_name, harvest_ods_url,
	harvest_references, harvest_has_records, harvest_is_geo, harvest_last_update`

const resourceColumns = `id, dataset_id, title, description, format, mime, url, modified,
	position, ods_type, key_kind, key_slug`

// ListOptions filters ListDatasets.
type ListOptions struct {
	// Domain restricts results to one harvest domain.
	Domain string

	// Source restricts results to one configured source name.
	Source string

	// WithResources loads each dataset's resources.
	WithResources bool
}

// FindDatasetByHarvestIdentity returns the dataset harvested from domain
// with remoteID, including its resources in position order. It returns
// types.ErrNotFound when no dataset matches.
func (s *Store) FindDatasetByHarvestIdentity(ctx context.Context, domain, remoteID string) (types.StoredDataset, error) {
	row := s.conn(ctx).QueryRowContext(ctx,
		`SELECT `+datasetColumns+` FROM datasets
		 WHERE harvest_domain = ? AND harvest_remote_id = ?`,
		domain, remoteID,
	)
	ds, err := scanDataset(row)
	if errors.Is(err, sql.ErrNoRows) {
		return types.StoredDataset{}, types.ErrNotFound
	}
	if err != nil {
		return types.StoredDataset{}, &types.StorageError{Op: "find dataset", Err: err}
	}

	ds.Resources, err = s.ListResources(ctx, ds.ID)
	if err != nil {
		return types.StoredDataset{}, err
	}
	return ds, nil
}

// UpsertDataset inserts ds when it has no ID, assigning one, and updates it
// in place otherwise. Resources are not written. It returns the dataset ID.
func (s *Store) UpsertDataset(ctx context.Context, ds *types.StoredDataset) (string, error) {
	if ds.ID == "" {
		ds.ID = newID()
	}
	if ds.CreatedAt.IsZero() {
		ds.CreatedAt = time.Now().UTC()
	}

	tagsJSON, err := json.Marshal(ds.Tags)
	if err != nil {
		return "", &types.StorageError{Op: "upsert dataset", Err: err}
	}

	_, err = s.conn(ctx).ExecContext(ctx,
		`INSERT INTO datasets (`+datasetColumns+`)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT(id) DO UPDATE SET
			title=excluded.title, description=excluded.description, tags=excluded.tags,
			license_id=excluded.license_id, last_modified=excluded.last_modified,
			harvest_domain=excluded.harvest_domain, harvest_remote_id=excluded.harvest_remote_id,
			harvest_source_name=excluded.harvest_source_name, harvest_ods_url=excluded.harvest_ods_url,
			harvest_references=excluded.harvest_references, harvest_has_records=excluded.harvest_has_records,
			harvest_is_geo=excluded.harvest_is_geo, harvest_last_update=excluded.harvest_last_update`,
		ds.ID, ds.Title, ds.Description, string(tagsJSON), nullString(ds.LicenseID),
		formatTime(ds.LastModified), formatTime(ds.CreatedAt),
		ds.Harvest.Domain, ds.Harvest.RemoteID, ds.Harvest.SourceName, ds.Harvest.ODSURL,
		ds.Harvest.References, boolInt(ds.Harvest.HasRecords), boolInt(ds.Harvest.IsGeo),
		formatTime(ds.Harvest.LastUpdate),
	)
	if err != nil {
		return "", &types.StorageError{Op: "upsert dataset", Err: err}
	}
	return ds.ID, nil
}

// DeleteDataset removes a dataset and its resources.
func (s *Store) DeleteDataset(ctx context.Context, id string) error {
	res, err := s.conn(ctx).ExecContext(ctx, `DELETE FROM datasets WHERE id = ?`, id)
	if err != nil {
		return &types.StorageError{Op: "delete dataset", Err: err}
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return types.ErrNotFound
	}
	return nil
}

// ListDatasets returns datasets ordered by harvest domain and remote id.
func (s *Store) ListDatasets(ctx context.Context, opts ListOptions) ([]types.StoredDataset, error) {
	var (
		qb   strings.Builder
		args []any
	)
	qb.WriteString(`SELECT ` + datasetColumns + ` FROM datasets WHERE 1=1`)
	if opts.Domain != "" {
		qb.WriteString(` AND harvest_domain = ?`)
		args = append(args, opts.Domain)
	}
	if opts.Source != "" {
		qb.WriteString(` AND harvest_source_name = ?`)
		args = append(args, opts.Source)
	}
	qb.WriteString(` ORDER BY harvest_domain, harvest_remote_id, id`)

	rows, err := s.conn(ctx).QueryContext(ctx, qb.String(), args...)
	if err != nil {
		return nil, &types.StorageError{Op: "list datasets", Err: err}
	}

	var datasets []types.StoredDataset
	for rows.Next() {
		ds, err := scanDataset(rows)
		if err != nil {
			rows.Close()
			return nil, &types.StorageError{Op: "list datasets", Err: err}
		}
		datasets = append(datasets, ds)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, &types.StorageError{Op: "list datasets", Err: err}
	}

	if opts.WithResources {
		for i := range datasets {
			if datasets[i].Resources, err = s.ListResources(ctx, datasets[i].ID); err != nil {
				return nil, err
			}
		}
	}
	return datasets, nil
}

// FindResourceByNaturalKey returns the resource of datasetID matching key,
// or types.ErrNotFound.
func (s *Store) FindResourceByNaturalKey(ctx context.Context, datasetID string, key types.NaturalKey) (types.StoredResource, error) {
	row := s.conn(ctx).QueryRowContext(ctx,
		`SELECT `+resourceColumns+` FROM resources
		 WHERE dataset_id = ? AND key_kind = ? AND key_slug = ?`,
		datasetID, string(key.Kind), key.Slug,
	)
	r, err := scanResource(row)
	if errors.Is(err, sql.ErrNoRows) {
		return types.StoredResource{}, types.ErrNotFound
	}
	if err != nil {
		return types.StoredResource{}, &types.StorageError{Op: "find resource", Err: err}
	}
	return r, nil
}

// UpsertResource inserts r when it has no ID, assigning one, and updates it
// in place otherwise. It returns the resource ID.
func (s *Store) UpsertResource(ctx context.Context, r *types.StoredResource) (string, error) {
	if r.DatasetID == "" {
		return "", &types.StorageError{Op: "upsert resource", Err: errors.New("missing dataset id")}
	}
	if r.ID == "" {
		r.ID = newID()
	}

	_, err := s.conn(ctx).ExecContext(ctx,
		`INSERT INTO resources (`+resourceColumns+`)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT(id) DO UPDATE SET
			title=excluded.title, description=excluded.description, format=excluded.format,
			mime=excluded.mime, url=excluded.url, modified=excluded.modified,
			position=excluded.position, ods_type=excluded.ods_type,
			key_kind=excluded.key_kind, key_slug=excluded.key_slug`,
		r.ID, r.DatasetID, r.Title, r.Description, r.Format, r.MIME, r.URL,
		formatTime(r.Modified), r.Position, string(r.ODSType),
		string(r.Key.Kind), r.Key.Slug,
	)
	if err != nil {
		return "", &types.StorageError{Op: "upsert resource", Err: err}
	}
	return r.ID, nil
}

// RemoveResource deletes one resource of datasetID.
func (s *Store) RemoveResource(ctx context.Context, datasetID, id string) error {
	res, err := s.conn(ctx).ExecContext(ctx,
		`DELETE FROM resources WHERE dataset_id = ? AND id = ?`, datasetID, id,
	)
	if err != nil {
		return &types.StorageError{Op: "remove resource", Err: err}
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return types.ErrNotFound
	}
	return nil
}

// ListResources returns the resources of datasetID in position order.
func (s *Store) ListResources(ctx context.Context, datasetID string) ([]types.StoredResource, error) {
	rows, err := s.conn(ctx).QueryContext(ctx,
		`SELECT `+resourceColumns+` FROM resources WHERE dataset_id = ? ORDER BY position, id`,
		datasetID,
	)
	if err != nil {
		return nil, &types.StorageError{Op: "list resources", Err: err}
	}
	defer rows.Close()

	var resources []types.StoredResource
	for rows.Next() {
		r, err := scanResource(rows)
		if err != nil {
			return nil, &types.StorageError{Op: "list resources", Err: err}
		}
		resources = append(resources, r)
	}
	if err := rows.Err(); err != nil {
		return nil, &types.StorageError{Op: "list resources", Err: err}
	}
	return resources, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanDataset(row scanner) (types.StoredDataset, error) {
	var (
		ds           types.StoredDataset
		description  sql.NullString
		tagsJSON     sql.NullString
		licenseID    sql.NullString
		lastModified sql.NullString
		createdAt    sql.NullString
		sourceName   sql.NullString
		odsURL       sql.NullString
		references   sql.NullString
		hasRecords   int
		isGeo        int
		lastUpdate   sql.NullString
	)
	if err := row.Scan(
		&ds.ID, &ds.Title, &description, &tagsJSON, &licenseID, &lastModified, &createdAt,
		&ds.Harvest.Domain, &ds.Harvest.RemoteID, &sourceName, &odsURL,
		&references, &hasRecords, &isGeo, &lastUpdate,
	); err != nil {
		return types.StoredDataset{}, err
	}

	ds.Description = description.String
	ds.Tags = []string{}
	if tagsJSON.Valid {
		if err := json.Unmarshal([]byte(tagsJSON.String), &ds.Tags); err != nil {
			return types.StoredDataset{}, fmt.Errorf("decoding tags of %s: %w", ds.ID, err)
		}
		if ds.Tags == nil {
			ds.Tags = []string{}
		}
	}
	ds.LicenseID = licenseID.String
	ds.LastModified = parseTime(lastModified)
	ds.CreatedAt = parseTime(createdAt)
	ds.Harvest.SourceName = sourceName.String
	ds.Harvest.ODSURL = odsURL.String
	ds.Harvest.References = references.String
	ds.Harvest.HasRecords = hasRecords != 0
	ds.Harvest.IsGeo = isGeo != 0
	ds.Harvest.LastUpdate = parseTime(lastUpdate)
	return ds, nil
}

func scanResource(row scanner) (types.StoredResource, error) {
	var (
		r           types.StoredResource
		description sql.NullString
		format      sql.NullString
		mime        sql.NullString
		modified    sql.NullString
		odsType     sql.NullString
		keyKind     string
	)
	if err := row.Scan(
		&r.ID, &r.DatasetID, &r.Title, &description, &format, &mime, &r.URL, &modified,
		&r.Position, &odsType, &keyKind, &r.Key.Slug,
	); err != nil {
		return types.StoredResource{}, err
	}
	r.Description = description.String
	r.Format = format.String
	r.MIME = mime.String
	r.Modified = parseTime(modified)
	r.ODSType = types.ResourceKind(odsType.String)
	r.Key.Kind = types.ResourceKind(keyKind)
	return r, nil
}
