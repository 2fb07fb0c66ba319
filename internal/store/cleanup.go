// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package store

import (
	"context"
	"strings"

	"github.com/pdiddy/ods-harvester/pkg/types"
)

// RemoveDoubleSlashDuplicates deletes resources whose URL contains a
// doubled slash in its path when the same dataset holds a twin with the
// single-slash URL. Sources configured with a trailing slash once produced
// such twins. It returns the number of resources removed.
func (s *Store) RemoveDoubleSlashDuplicates(ctx context.Context) (int, error) {
	removed := 0
	err := s.RunInTx(ctx, func(ctx context.Context) error {
		rows, err := s.conn(ctx).QueryContext(ctx,
			`SELECT id, dataset_id, url FROM resources ORDER BY dataset_id, position`,
		)
		if err != nil {
			return &types.StorageError{Op: "cleanup", Err: err}
		}

		type entry struct{ id, datasetID, url string }
		var entries []entry
		urls := make(map[string]map[string]bool)
		for rows.Next() {
			var e entry
			if err := rows.Scan(&e.id, &e.datasetID, &e.url); err != nil {
				rows.Close()
				return &types.StorageError{Op: "cleanup", Err: err}
			}
			entries = append(entries, e)
			if urls[e.datasetID] == nil {
				urls[e.datasetID] = make(map[string]bool)
			}
			urls[e.datasetID][e.url] = true
		}
		rows.Close()
		if err := rows.Err(); err != nil {
			return &types.StorageError{Op: "cleanup", Err: err}
		}

		for _, e := range entries {
			fixed := CollapseSlashes(e.url)
			if fixed == e.url || !urls[e.datasetID][fixed] {
				continue
			}
			if err := s.RemoveResource(ctx, e.datasetID, e.id); err != nil {
				return err
			}
			removed++
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return removed, nil
}

// CollapseSlashes squeezes repeated slashes in the path of rawURL, leaving
// the scheme separator intact.
func CollapseSlashes(rawURL string) string {
	prefix := ""
	rest := rawURL
	if i := strings.Index(rawURL, "://"); i >= 0 {
		prefix, rest = rawURL[:i+3], rawURL[i+3:]
	}
	for strings.Contains(rest, "//") {
		rest = strings.ReplaceAll(rest, "//", "/")
	}
	return prefix + rest
}
