// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/pdiddy/ods-harvester/internal/preview"
	"github.com/pdiddy/ods-harvester/pkg/types"
)

var previewCmd = &cobra.Command{
	Use:   "preview <domain> <remote-id> | preview <route>",
	Short: "Resolve a preview route to its harvested dataset",
	Long: `Preview resolves /ods/preview/{domain}/{remote_id} to the stored dataset
and lists which of its resources offer an inline preview, with their preview
URLs. It fails when previews are disabled or the dataset is unknown.`,
	Args: cobra.RangeArgs(1, 2),
	RunE: runPreview,
}

func runPreview(cmd *cobra.Command, args []string) error {
	var domain, remoteID string
	if len(args) == 2 {
		domain, remoteID = args[0], args[1]
	} else {
		var ok bool
		domain, remoteID, ok = preview.ParseRoute(args[0])
		if !ok {
			return fmt.Errorf("not a preview route: %s", args[0])
		}
	}

	repo, err := openStore()
	if err != nil {
		return err
	}
	defer repo.Close()

	resolver := preview.NewResolver(repo, appConfig.Preview)
	ds, err := resolver.Lookup(context.Background(), domain, remoteID)
	switch {
	case errors.Is(err, types.ErrPreviewDisabled):
		return fmt.Errorf("previews are disabled (preview.enabled=false)")
	case errors.Is(err, types.ErrNotFound):
		return fmt.Errorf("no dataset %s harvested from %s", remoteID, domain)
	case err != nil:
		return err
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "%s (%s)\n", ds.Title, ds.Harvest.ODSURL)
	for _, r := range ds.Resources {
		if !resolver.CanPreview(ds, r) {
			fmt.Fprintf(out, "  %-30s  no preview\n", truncate(r.Title, 30))
			continue
		}
		fmt.Fprintf(out, "  %-30s  %s\n", truncate(r.Title, 30), resolver.PreviewURL(ds, r))
	}
	return nil
}

func init() {
	rootCmd.AddCommand(previewCmd)
}
