// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package store

import (
	"context"

	"github.com/pdiddy/ods-harvester/pkg/types"
)

// License is a row of the license table.
type License struct {
	ID    string `json:"id" yaml:"id"`
	Code  string `json:"code" yaml:"code"`
	Title string `json:"title" yaml:"title"`
}

// SeedLicenses inserts any of codes not already present. Existing rows keep
// their IDs. It returns the number of licenses added.
func (s *Store) SeedLicenses(ctx context.Context, codes []string) (int, error) {
	added := 0
	err := s.RunInTx(ctx, func(ctx context.Context) error {
		for _, code := range codes {
			res, err := s.conn(ctx).ExecContext(ctx,
				`INSERT INTO licenses (id, code, title) VALUES (?, ?, ?)
				 ON CONFLICT(code) DO NOTHING`,
				newID(), code, code,
			)
			if err != nil {
				return &types.StorageError{Op: "seed licenses", Err: err}
			}
			if n, _ := res.RowsAffected(); n > 0 {
				added++
			}
		}
		return nil
	})
	return added, err
}

// ListLicenses returns the license IDs keyed by code.
func (s *Store) ListLicenses(ctx context.Context) (map[string]string, error) {
	licenses, err := s.Licenses(ctx)
	if err != nil {
		return nil, err
	}
	byCode := make(map[string]string, len(licenses))
	for _, l := range licenses {
		byCode[l.Code] = l.ID
	}
	return byCode, nil
}

// Licenses returns the license table ordered by code.
func (s *Store) Licenses(ctx context.Context) ([]License, error) {
	rows, err := s.conn(ctx).QueryContext(ctx,
		`SELECT id, code, COALESCE(title, '') FROM licenses ORDER BY code`,
	)
	if err != nil {
		return nil, &types.StorageError{Op: "list licenses", Err: err}
	}
	defer rows.Close()

	var licenses []License
	for rows.Next() {
		var l License
		if err := rows.Scan(&l.ID, &l.Code, &l.Title); err != nil {
			return nil, &types.StorageError{Op: "list licenses", Err: err}
		}
		licenses = append(licenses, l)
	}
	if err := rows.Err(); err != nil {
		return nil, &types.StorageError{Op: "list licenses", Err: err}
	}
	return licenses, nil
}
