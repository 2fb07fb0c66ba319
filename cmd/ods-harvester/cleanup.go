// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/pdiddy/ods-harvester/internal/logger"
)

var cleanupCmd = &cobra.Command{
	Use:   "cleanup",
	Short: "Remove resources duplicated by a doubled slash in their URL",
	Long: `Cleanup deletes resources whose URL has a doubled slash in its path
when the same dataset also holds the single-slash version. Such twins were
produced by sources configured with a trailing slash.`,
	RunE: runCleanup,
}

func runCleanup(cmd *cobra.Command, args []string) error {
	repo, err := openStore()
	if err != nil {
		return err
	}
	defer repo.Close()

	removed, err := repo.RemoveDoubleSlashDuplicates(context.Background())
	if err != nil {
		return err
	}
	appLog.Info("cleanup done", logger.Int("removed", removed))
	fmt.Fprintf(cmd.OutOrStdout(), "removed %d duplicate resource(s)\n", removed)
	return nil
}

func init() {
	rootCmd.AddCommand(cleanupCmd)
}
