// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package harvest runs one harvest job: it pages through a source's search
// listing, classifies every remote dataset and merges the result into the
// repository so that reruns update in place.
package harvest

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/pdiddy/ods-harvester/internal/classify"
	"github.com/pdiddy/ods-harvester/internal/logger"
	"github.com/pdiddy/ods-harvester/internal/ods"
	"github.com/pdiddy/ods-harvester/internal/registry"
	"github.com/pdiddy/ods-harvester/pkg/types"
)

// DefaultPageSize is the number of datasets requested per search page.
const DefaultPageSize = 50

// defaultWorkers bounds concurrent classification within a page.
const defaultWorkers = 4

// Repository is the dataset storage the engine merges into. Lookups that
// match nothing return types.ErrNotFound.
type Repository interface {
	FindDatasetByHarvestIdentity(ctx context.Context, domain, remoteID string) (types.StoredDataset, error)
	UpsertDataset(ctx context.Context, ds *types.StoredDataset) (string, error)
	FindResourceByNaturalKey(ctx context.Context, datasetID string, key types.NaturalKey) (types.StoredResource, error)
	UpsertResource(ctx context.Context, r *types.StoredResource) (string, error)
	RemoveResource(ctx context.Context, datasetID, id string) error
	ListResources(ctx context.Context, datasetID string) ([]types.StoredResource, error)
	ListLicenses(ctx context.Context) (map[string]string, error)

	// RunInTx runs fn atomically. Calls made with the context given to fn
	// take part in the same transaction.
	RunInTx(ctx context.Context, fn func(ctx context.Context) error) error
}

// Searcher fetches one page of a search listing.
type Searcher interface {
	Search(ctx context.Context, searchURL string, filters url.Values, start, rows int) (ods.Page, error)
}

// Engine reconciles remote listings against a Repository.
type Engine struct {
	repo     Repository
	search   Searcher
	registry *registry.Registry
	cfg      types.HarvestConfig
	log      logger.Logger

	// Workers bounds concurrent classification. Merges are always serial.
	Workers int

	// now is replaced in tests.
	now func() time.Time
}

// NewEngine returns an Engine. A nil registry uses registry.Default and a
// nil log discards output.
func NewEngine(repo Repository, search Searcher, reg *registry.Registry, cfg types.HarvestConfig, log logger.Logger) *Engine {
	if reg == nil {
		reg = registry.Default()
	}
	if log == nil {
		log = logger.NewNop()
	}
	return &Engine{
		repo:     repo,
		search:   search,
		registry: reg,
		cfg:      cfg,
		log:      log,
		Workers:  defaultWorkers,
		now:      func() time.Time { return time.Now().UTC() },
	}
}

// classified is the classification outcome of one page item.
type classified struct {
	remoteID string
	dataset  types.HarvestedDataset
	err      error
}

// runState is shared by the pages of one run.
type runState struct {
	source     types.SourceConfig
	urls       *ods.URLs
	classifier *classify.Classifier
	licenses   map[string]string
	log        logger.Logger
}

// Run harvests src. Per-item failures are recorded in the report and do not
// stop the run. Invalid configuration, an unreachable listing, a malformed
// page or cancellation stop it: the returned report then has status failed
// and holds every item processed so far.
func (e *Engine) Run(ctx context.Context, src types.SourceConfig) (types.HarvestJobReport, error) {
	report := types.HarvestJobReport{
		Source:    src.Name,
		StartedAt: e.now(),
		Items:     []types.HarvestItemResult{},
	}
	fail := func(err error) (types.HarvestJobReport, error) {
		report.Status = types.JobFailed
		report.Error = err.Error()
		report.EndedAt = e.now()
		e.log.Error("harvest failed",
			logger.String("source", src.Name),
			logger.Int("items", len(report.Items)),
			logger.Error(err),
		)
		return report, err
	}

	urls, err := ods.NewURLs(src, e.cfg)
	if err != nil {
		return fail(err)
	}
	report.Domain = urls.Domain()
	if err := ods.ValidateFilters(src.Filters); err != nil {
		return fail(err)
	}
	filters := ods.CompileFilters(src.Filters)
	if err := ctx.Err(); err != nil {
		return fail(err)
	}

	licenses, err := e.repo.ListLicenses(ctx)
	if err != nil {
		return fail(fmt.Errorf("loading licenses: %w", err))
	}

	st := &runState{
		source: src,
		urls:   urls,
		classifier: classify.New(e.registry, urls, classify.Options{
			Inspire:               src.Features.Inspire,
			ShapefileRecordsLimit: e.cfg.ShapefileRecordsLimit,
		}),
		licenses: licenses,
		log:      e.log.With(logger.String("source", src.Name), logger.String("domain", urls.Domain())),
	}

	rows := e.cfg.PageSize
	if rows <= 0 {
		rows = DefaultPageSize
	}

	for start := 0; ; {
		if err := ctx.Err(); err != nil {
			return fail(err)
		}

		page, err := e.search.Search(ctx, urls.Search(), filters, start, rows)
		if err != nil {
			return fail(err)
		}
		st.log.Info("fetched page",
			logger.Int("start", start),
			logger.Int("items", len(page.Items)),
			logger.Int("nhits", page.NHits),
		)

		for _, c := range e.classifyPage(ctx, st, page.Items) {
			if err := ctx.Err(); err != nil {
				return fail(err)
			}
			report.Add(e.merge(ctx, st, c))
		}

		start += rows
		if len(page.Items) == 0 || start >= page.NHits {
			break
		}
	}

	report.Status = types.JobDone
	report.EndedAt = e.now()
	st.log.Info("harvest done",
		logger.Int("created", report.Counts.Created),
		logger.Int("updated", report.Counts.Updated),
		logger.Int("skipped", report.Counts.Skipped),
		logger.Int("errored", report.Counts.Errored),
	)
	return report, nil
}

// classifyPage classifies items concurrently and returns the results in
// page order.
func (e *Engine) classifyPage(ctx context.Context, st *runState, items []ods.PageItem) []classified {
	out := make([]classified, len(items))

	workers := e.Workers
	if workers <= 0 {
		workers = 1
	}
	sem := make(chan struct{}, workers)
	var wg sync.WaitGroup

	for i, item := range items {
		out[i].remoteID = item.RemoteID
		if item.Err != nil {
			out[i].err = item.Err
			continue
		}
		if ctx.Err() != nil {
			break
		}

		wg.Add(1)
		sem <- struct{}{}
		go func(i int, ds types.RemoteDataset) {
			defer wg.Done()
			defer func() { <-sem }()
			out[i].dataset, out[i].err = st.classifier.Classify(ds)
		}(i, item.Dataset)
	}
	wg.Wait()
	return out
}

// merge reconciles one classified item and reports its outcome.
func (e *Engine) merge(ctx context.Context, st *runState, c classified) types.HarvestItemResult {
	result := types.HarvestItemResult{RemoteID: c.remoteID}
	log := st.log.With(logger.String("remote_id", c.remoteID))

	var skip *classify.SkipError
	switch {
	case errors.As(c.err, &skip):
		result.Outcome = types.OutcomeSkipped
		result.Reason = skip.Reason
		log.Info("skipped", logger.String("reason", skip.Reason))
		return result
	case c.err != nil:
		result.Outcome = types.OutcomeErrored
		result.Reason = c.err.Error()
		log.Warn("item failed", logger.Error(c.err))
		return result
	}

	outcome, id, err := e.reconcile(ctx, st, c.dataset)
	if err != nil {
		result.Outcome = types.OutcomeErrored
		result.Reason = err.Error()
		log.Warn("merge failed", logger.Error(err))
		return result
	}
	result.Outcome = outcome
	result.DatasetID = id
	log.Debug(string(outcome),
		logger.String("dataset_id", id),
		logger.Int("resources", len(c.dataset.Resources)),
	)
	return result
}

// reconcile writes hd under its harvest identity in one transaction.
// Resources are matched by natural key so their IDs survive reruns, and
// stored resources absent from hd are removed.
func (e *Engine) reconcile(ctx context.Context, st *runState, hd types.HarvestedDataset) (types.ItemOutcome, string, error) {
	outcome := types.OutcomeUpdated
	var datasetID string

	err := e.repo.RunInTx(ctx, func(ctx context.Context) error {
		ds, err := e.repo.FindDatasetByHarvestIdentity(ctx, st.urls.Domain(), hd.RemoteID)
		switch {
		case errors.Is(err, types.ErrNotFound):
			outcome = types.OutcomeCreated
			ds = types.StoredDataset{}
		case err != nil:
			return err
		}

		ds.Title = hd.Title
		ds.Description = hd.Description
		ds.Tags = hd.Tags
		ds.LicenseID = resolveLicense(st.licenses, hd)
		ds.LastModified = hd.Modified
		ds.Harvest = types.HarvestMeta{
			Domain:     st.urls.Domain(),
			RemoteID:   hd.RemoteID,
			SourceName: st.source.Name,
			ODSURL:     hd.ODSURL,
			References: hd.References,
			HasRecords: hd.HasRecords,
			IsGeo:      hd.IsGeo,
			LastUpdate: e.now(),
		}
		ds.Resources = nil

		if datasetID, err = e.repo.UpsertDataset(ctx, &ds); err != nil {
			return err
		}

		keep := make(map[string]bool, len(hd.Resources))
		for i, rd := range hd.Resources {
			r, err := e.repo.FindResourceByNaturalKey(ctx, datasetID, rd.Key)
			switch {
			case errors.Is(err, types.ErrNotFound):
				r = types.StoredResource{DatasetID: datasetID}
			case err != nil:
				return err
			}

			r.Title = rd.Title
			r.Description = rd.Description
			r.Format = rd.Format
			r.MIME = rd.MIME
			r.URL = rd.URL
			r.Modified = rd.Modified
			r.Position = i
			r.ODSType = rd.Kind
			r.Key = rd.Key

			id, err := e.repo.UpsertResource(ctx, &r)
			if err != nil {
				return err
			}
			keep[id] = true
		}

		current, err := e.repo.ListResources(ctx, datasetID)
		if err != nil {
			return err
		}
		for _, r := range current {
			if keep[r.ID] {
				continue
			}
			if err := e.repo.RemoveResource(ctx, datasetID, r.ID); err != nil && !errors.Is(err, types.ErrNotFound) {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return "", "", err
	}
	return outcome, datasetID, nil
}

// resolveLicense returns the stored license ID for hd. Registry codes are
// tried first, then a case-insensitive match of the publisher label against
// stored codes. An empty result means no license.
func resolveLicense(licenses map[string]string, hd types.HarvestedDataset) string {
	if hd.LicenseCode != "" {
		if id, ok := licenses[hd.LicenseCode]; ok {
			return id
		}
	}
	label := strings.TrimSpace(hd.LicenseLabel)
	if label == "" {
		return ""
	}
	for code, id := range licenses {
		if strings.EqualFold(code, label) {
			return id
		}
	}
	return ""
}
