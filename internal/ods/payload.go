// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package ods

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/pdiddy/ods-harvester/pkg/types"
)

// searchResponse is the v1 search payload. Datasets stay raw so one
// malformed item cannot fail the whole page.
type searchResponse struct {
	NHits    *int              `json:"nhits"`
	Datasets []json.RawMessage `json:"datasets"`
}

type rawDataset struct {
	DatasetID          string                     `json:"datasetid"`
	Metas              rawMetas                   `json:"metas"`
	HasRecords         bool                       `json:"has_records"`
	Features           []string                   `json:"features"`
	Fields             []rawField                 `json:"fields"`
	AlternativeExports []rawFile                  `json:"alternative_exports"`
	Attachments        []rawFile                  `json:"attachments"`
	InteropMetas       map[string]json.RawMessage `json:"interop_metas"`
}

type rawMetas struct {
	Title         string     `json:"title"`
	Description   string     `json:"description"`
	Keyword       stringList `json:"keyword"`
	Theme         stringList `json:"theme"`
	License       string     `json:"license"`
	References    string     `json:"references"`
	Modified      string     `json:"modified"`
	DataProcessed string     `json:"data_processed"`
	RecordsCount  int        `json:"records_count"`
}

type rawField struct {
	Name        string `json:"name"`
	Label       string `json:"label"`
	Type        string `json:"type"`
	Description string `json:"description"`
}

type rawFile struct {
	ID          string `json:"id"`
	Title       string `json:"title"`
	Description string `json:"description"`
	Format      string `json:"format"`
	MIMEType    string `json:"mimetype"`
}

// stringList accepts a JSON string, an array of strings, or null.
type stringList []string

func (l *stringList) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*l = nil
		return nil
	}
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*l = stringList{s}
		return nil
	}
	var ss []string
	if err := json.Unmarshal(data, &ss); err != nil {
		return fmt.Errorf("expected string or list of strings: %w", err)
	}
	*l = ss
	return nil
}

// Page is one decoded search page.
type Page struct {
	// NHits is the total number of datasets the remote reports for the query.
	NHits int

	// Items are in remote order. An item that failed to decode carries Err
	// and a possibly empty RemoteID.
	Items []PageItem
}

// PageItem is one decoded dataset or its decode failure.
type PageItem struct {
	RemoteID string
	Dataset  types.RemoteDataset
	Err      error
}

// DecodePage parses a search response body. A body that is not the
// expected envelope yields a *types.ParseError; per-item problems are
// reported on the item.
func DecodePage(body []byte, sourceURL string) (Page, error) {
	var resp searchResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return Page{}, &types.ParseError{URL: sourceURL, Err: err}
	}
	if resp.NHits == nil {
		return Page{}, &types.ParseError{URL: sourceURL, Err: errors.New(`missing "nhits"`)}
	}

	page := Page{NHits: *resp.NHits, Items: make([]PageItem, 0, len(resp.Datasets))}
	for i, raw := range resp.Datasets {
		ds, err := decodeDataset(raw)
		if err != nil {
			page.Items = append(page.Items, PageItem{
				RemoteID: ds.RemoteID,
				Err:      &types.ClassificationError{RemoteID: ds.RemoteID, Reason: fmt.Sprintf("item %d: %v", i, err)},
			})
			continue
		}
		page.Items = append(page.Items, PageItem{RemoteID: ds.RemoteID, Dataset: ds})
	}
	return page, nil
}

func decodeDataset(raw json.RawMessage) (types.RemoteDataset, error) {
	var rd rawDataset
	if err := json.Unmarshal(raw, &rd); err != nil {
		// Salvage the identifier for the report when possible.
		var id struct {
			DatasetID string `json:"datasetid"`
		}
		json.Unmarshal(raw, &id)
		return types.RemoteDataset{RemoteID: id.DatasetID}, fmt.Errorf("malformed dataset: %w", err)
	}
	if strings.TrimSpace(rd.DatasetID) == "" {
		return types.RemoteDataset{}, errors.New(`missing "datasetid"`)
	}

	ds := types.RemoteDataset{
		RemoteID:      rd.DatasetID,
		Title:         strings.TrimSpace(rd.Metas.Title),
		Description:   rd.Metas.Description,
		Keywords:      []string(rd.Metas.Keyword),
		Themes:        []string(rd.Metas.Theme),
		License:       strings.TrimSpace(rd.Metas.License),
		HasRecords:    rd.HasRecords,
		IsGeo:         hasFeature(rd.Features, "geo"),
		RecordsCount:  rd.Metas.RecordsCount,
		References:    strings.TrimSpace(rd.Metas.References),
		Modified:      parseTime(rd.Metas.Modified),
		DataProcessed: parseTime(rd.Metas.DataProcessed),
	}
	if _, ok := rd.InteropMetas["inspire"]; ok {
		ds.IsInspire = true
	}
	for _, f := range rd.Fields {
		ds.Fields = append(ds.Fields, types.RemoteField(f))
	}
	for _, f := range rd.AlternativeExports {
		ds.AlternativeExports = append(ds.AlternativeExports, remoteFile(f))
	}
	for _, f := range rd.Attachments {
		ds.Attachments = append(ds.Attachments, remoteFile(f))
	}
	return ds, nil
}

func remoteFile(f rawFile) types.RemoteFile {
	return types.RemoteFile{
		ID:          strings.TrimSpace(f.ID),
		Title:       strings.TrimSpace(f.Title),
		Description: strings.TrimSpace(f.Description),
		Format:      strings.ToLower(strings.TrimSpace(f.Format)),
		MIME:        strings.TrimSpace(f.MIMEType),
	}
}

func hasFeature(features []string, name string) bool {
	for _, f := range features {
		if f == name {
			return true
		}
	}
	return false
}

// parseTime accepts RFC 3339 timestamps and bare dates. Anything else is
// treated as absent.
func parseTime(s string) time.Time {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}
	}
	for _, layout := range []string{time.RFC3339, "2006-01-02T15:04:05", "2006-01-02"} {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC()
		}
	}
	return time.Time{}
}
