// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package harvest

import (
	"fmt"
	"io"
	"os"
	"time"

	"go.yaml.in/yaml/v3"

	"github.com/pdiddy/ods-harvester/pkg/types"
)

// timeUnit rounds reported durations.
const timeUnit = time.Millisecond

// WriteReport saves a job report to a YAML file.
func WriteReport(path string, report types.HarvestJobReport) error {
	data, err := yaml.Marshal(&report)
	if err != nil {
		return fmt.Errorf("marshaling report: %w", err)
	}
	return os.WriteFile(path, data, 0o644)
}

// ReadReport loads a previously saved job report.
func ReadReport(path string) (types.HarvestJobReport, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return types.HarvestJobReport{}, fmt.Errorf("reading report: %w", err)
	}
	var report types.HarvestJobReport
	if err := yaml.Unmarshal(data, &report); err != nil {
		return types.HarvestJobReport{}, fmt.Errorf("parsing report: %w", err)
	}
	return report, nil
}

// FormatReport writes a human-readable summary of report, one line per
// item followed by the totals.
func FormatReport(w io.Writer, report types.HarvestJobReport) {
	fmt.Fprintf(w, "source %s (%s): %s\n", report.Source, report.Domain, report.Status)
	if report.Error != "" {
		fmt.Fprintf(w, "error: %s\n", report.Error)
	}
	if len(report.Items) > 0 {
		fmt.Fprintln(w)
	}

	for _, item := range report.Items {
		switch item.Outcome {
		case types.OutcomeCreated, types.OutcomeUpdated:
			fmt.Fprintf(w, "%-8s %s -> %s\n", item.Outcome, item.RemoteID, item.DatasetID)
		default:
			fmt.Fprintf(w, "%-8s %s: %s\n", item.Outcome, item.RemoteID, item.Reason)
		}
	}

	c := report.Counts
	fmt.Fprintf(w, "\ncreated: %d, updated: %d, skipped: %d, errored: %d (total %d)\n",
		c.Created, c.Updated, c.Skipped, c.Errored, c.Total())
	if !report.StartedAt.IsZero() && !report.EndedAt.IsZero() {
		fmt.Fprintf(w, "duration: %s\n", report.EndedAt.Sub(report.StartedAt).Round(timeUnit))
	}
}
