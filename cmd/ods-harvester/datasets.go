// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/pdiddy/ods-harvester/internal/store"
	"github.com/pdiddy/ods-harvester/pkg/types"
)

var datasetsCmd = &cobra.Command{
	Use:   "datasets",
	Short: "Inspect harvested datasets (list, export)",
}

// --- list subcommand ---

var datasetsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List harvested datasets",
	RunE:  runDatasetsList,
}

func runDatasetsList(cmd *cobra.Command, args []string) error {
	showResources, _ := cmd.Flags().GetBool("resources")
	opts := listOptsFromFlags(cmd)
	opts.WithResources = true

	repo, err := openStore()
	if err != nil {
		return err
	}
	defer repo.Close()

	datasets, err := repo.ListDatasets(context.Background(), opts)
	if err != nil {
		return err
	}
	formatDatasets(cmd.OutOrStdout(), datasets, showResources)
	return nil
}

func formatDatasets(w io.Writer, datasets []types.StoredDataset, withResources bool) {
	if len(datasets) == 0 {
		fmt.Fprintln(w, "No datasets found.")
		return
	}

	fmt.Fprintf(w, "%-30s  %-30s  %-40s  %s\n", "Domain", "Remote ID", "Title", "Resources")
	fmt.Fprintln(w, strings.Repeat("-", 115))
	for _, ds := range datasets {
		fmt.Fprintf(w, "%-30s  %-30s  %-40s  %d\n",
			truncate(ds.Harvest.Domain, 30), truncate(ds.Harvest.RemoteID, 30),
			truncate(ds.Title, 40), len(ds.Resources))
		if !withResources {
			continue
		}
		for _, r := range ds.Resources {
			fmt.Fprintf(w, "    %-20s  %-8s  %s\n", r.ODSType, r.Format, r.Title)
		}
	}
	fmt.Fprintf(w, "\n%d datasets\n", len(datasets))
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n-3] + "..."
}

// --- export subcommand ---

var datasetsExportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export harvested datasets to YAML or JSON",
	Long: `Export writes every harvested dataset (or those matching --domain and
--source) with its resources to stdout, or to --output when given.`,
	RunE: runDatasetsExport,
}

func runDatasetsExport(cmd *cobra.Command, args []string) error {
	format, _ := cmd.Flags().GetString("format")
	output, _ := cmd.Flags().GetString("output")
	opts := listOptsFromFlags(cmd)

	repo, err := openStore()
	if err != nil {
		return err
	}
	defer repo.Close()

	w := cmd.OutOrStdout()
	if output != "" {
		f, err := os.Create(output)
		if err != nil {
			return fmt.Errorf("creating %s: %w", output, err)
		}
		defer f.Close()
		w = f
	}

	ctx := context.Background()
	switch format {
	case "yaml", "":
		err = repo.ExportYAML(ctx, w, opts)
	case "json":
		err = repo.ExportJSON(ctx, w, opts)
	default:
		return fmt.Errorf("unsupported format %q: use yaml or json", format)
	}
	if err != nil {
		return err
	}
	if output != "" {
		fmt.Fprintf(cmd.ErrOrStderr(), "Exported to %s\n", output)
	}
	return nil
}

// --- shared helpers ---

func listOptsFromFlags(cmd *cobra.Command) store.ListOptions {
	domain, _ := cmd.Flags().GetString("domain")
	source, _ := cmd.Flags().GetString("source")
	return store.ListOptions{Domain: domain, Source: source}
}

func addListFlags(cmd *cobra.Command) {
	cmd.Flags().String("domain", "", "only datasets harvested from this domain")
	cmd.Flags().String("source", "", "only datasets harvested by this source name")
}

func init() {
	addListFlags(datasetsListCmd)
	datasetsListCmd.Flags().Bool("resources", false, "show each dataset's resources")

	addListFlags(datasetsExportCmd)
	datasetsExportCmd.Flags().String("format", "yaml", "export format: yaml or json")
	datasetsExportCmd.Flags().StringP("output", "o", "", "write to this file instead of stdout")

	datasetsCmd.AddCommand(datasetsListCmd)
	datasetsCmd.AddCommand(datasetsExportCmd)
	rootCmd.AddCommand(datasetsCmd)
}
