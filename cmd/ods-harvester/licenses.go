// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/pdiddy/ods-harvester/internal/registry"
)

var licensesCmd = &cobra.Command{
	Use:   "licenses",
	Short: "List stored licenses and the publisher labels mapped to them",
	RunE:  runLicenses,
}

func runLicenses(cmd *cobra.Command, args []string) error {
	seed, _ := cmd.Flags().GetBool("seed")

	repo, err := openStore()
	if err != nil {
		return err
	}
	defer repo.Close()

	ctx := context.Background()
	reg := registry.Default()
	if seed {
		added, err := repo.SeedLicenses(ctx, reg.LicenseCodes())
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.ErrOrStderr(), "seeded %d license(s)\n", added)
	}

	licenses, err := repo.Licenses(ctx)
	if err != nil {
		return err
	}
	labels := reg.LicenseLabels()

	out := cmd.OutOrStdout()
	if len(licenses) == 0 {
		fmt.Fprintln(out, "No licenses stored. Run with --seed.")
		return nil
	}
	fmt.Fprintf(out, "%-12s  %-36s  %s\n", "Code", "ID", "Publisher labels")
	fmt.Fprintln(out, strings.Repeat("-", 90))
	for _, l := range licenses {
		fmt.Fprintf(out, "%-12s  %-36s  %s\n", l.Code, l.ID, strings.Join(labels[l.Code], "; "))
	}
	return nil
}

func init() {
	licensesCmd.Flags().Bool("seed", false, "insert the known license codes first")
	rootCmd.AddCommand(licensesCmd)
}
