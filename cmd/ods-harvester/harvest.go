// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/pdiddy/ods-harvester/internal/harvest"
	"github.com/pdiddy/ods-harvester/internal/logger"
	"github.com/pdiddy/ods-harvester/internal/ods"
	"github.com/pdiddy/ods-harvester/internal/registry"
	"github.com/pdiddy/ods-harvester/internal/secrets"
	"github.com/pdiddy/ods-harvester/pkg/types"
)

var harvestCmd = &cobra.Command{
	Use:   "harvest",
	Short: "Harvest configured sources into the dataset store",
	Long: `Harvest pages through each source's search listing, classifies every
remote dataset into API exports, alternative exports and attachments, and
merges the result into the store. Datasets already harvested are updated in
place and keep their resource identities.

By default every configured source is harvested. Use --source to pick one or
more by name, and --report to save the job report as YAML.`,
	RunE: runHarvest,
}

func runHarvest(cmd *cobra.Command, args []string) error {
	names, _ := cmd.Flags().GetStringSlice("source")
	reportPath, _ := cmd.Flags().GetString("report")
	jsonOutput, _ := cmd.Flags().GetBool("json")

	sources, err := selectSources(appConfig, names)
	if err != nil {
		return err
	}
	if len(sources) == 0 {
		return fmt.Errorf("no sources configured: add a sources list to ods-harvester.yaml")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	repo, err := openStore()
	if err != nil {
		return err
	}
	defer repo.Close()

	reg := registry.Default()
	if _, err := repo.SeedLicenses(ctx, reg.LicenseCodes()); err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	var reports []types.HarvestJobReport
	failed := 0
	for i, src := range sources {
		cfg := appConfig.Harvest
		cfg.APIKey = secrets.APIKey(loadedSecrets, src.Name)

		engine := harvest.NewEngine(repo, ods.NewClient(cfg), reg, cfg, appLog)
		report, err := engine.Run(ctx, src)
		if err != nil {
			appLog.Error("source failed", logger.String("source", src.Name), logger.Error(err))
			failed++
		}
		reports = append(reports, report)

		if !jsonOutput {
			if i > 0 {
				fmt.Fprintln(out)
			}
			harvest.FormatReport(out, report)
		}

		if reportPath != "" {
			if err := harvest.WriteReport(reportFile(reportPath, src.Name, len(sources)), report); err != nil {
				return err
			}
		}
	}

	if jsonOutput {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		if err := enc.Encode(reports); err != nil {
			return err
		}
	}

	if failed > 0 {
		return fmt.Errorf("%d source(s) failed", failed)
	}
	return nil
}

// selectSources returns the named sources in the given order, or all of
// them when names is empty.
func selectSources(cfg types.Config, names []string) ([]types.SourceConfig, error) {
	if len(names) == 0 {
		return cfg.Sources, nil
	}
	sources := make([]types.SourceConfig, 0, len(names))
	for _, name := range names {
		src, ok := cfg.Source(name)
		if !ok {
			return nil, fmt.Errorf("unknown source %q", name)
		}
		sources = append(sources, src)
	}
	return sources, nil
}

// reportFile returns the report path for one source. With several sources
// the source name is appended before the extension.
func reportFile(path, source string, n int) string {
	if n <= 1 {
		return path
	}
	ext := filepath.Ext(path)
	return strings.TrimSuffix(path, ext) + "-" + source + ext
}

func init() {
	harvestCmd.Flags().StringSlice("source", nil, "source name to harvest (repeatable; default all)")
	harvestCmd.Flags().String("report", "", "write the job report to this YAML file")
	harvestCmd.Flags().Bool("json", false, "print job reports as JSON")
	rootCmd.AddCommand(harvestCmd)
}
