package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"faqbot/internal/usecase"
)

var (
	migrateSource    string
	migrateNamespace string
	migrateDryRun    bool
	migrateVerify    bool
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Copy a local snapshot into the remote vector store",
	Long: `Copy every record of a local snapshot into one namespace of the configured
remote backend (qdrant or postgres). Records are de-duplicated by their
first 100 characters and embedded again with the active embedder.

Examples:
  faqbot migrate --dry-run
  faqbot migrate --namespace faqs --verify`,
	RunE: runMigrate,
}

func init() {
	rootCmd.AddCommand(migrateCmd)
	migrateCmd.Flags().StringVar(&migrateSource, "source", "", "snapshot to migrate (default vector_store snapshot path)")
	migrateCmd.Flags().StringVar(&migrateNamespace, "namespace", usecase.DefaultMigrateNamespace, "destination namespace")
	migrateCmd.Flags().BoolVar(&migrateDryRun, "dry-run", false, "count records without writing")
	migrateCmd.Flags().BoolVar(&migrateVerify, "verify", false, "run sample queries after migrating")
}

func runMigrate(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	if isLocal(GetConfig()) {
		return fmt.Errorf("migrate needs a remote vector_store.backend (qdrant or postgres)")
	}

	source := migrateSource
	if source == "" {
		source = GetConfig().SnapshotPath()
	}
	source = resolve(source)

	a, err := buildApp(ctx, buildOptions{})
	if err != nil {
		return err
	}
	defer a.Close()

	fmt.Printf("Migrating %s into namespace %q\n", source, migrateNamespace)

	result, err := usecase.NewMigrateUseCase(a.store).Migrate(ctx, usecase.MigrateOptions{
		Source:    source,
		Namespace: migrateNamespace,
		DryRun:    migrateDryRun,
		Verify:    migrateVerify,
	}, newProgress("Migrating"))
	if err != nil {
		return fmt.Errorf("migration failed: %w", err)
	}

	stats := result.Stats
	fmt.Printf("\nMigration summary:\n")
	fmt.Printf("  Found:    %d\n", stats.Found)
	fmt.Printf("  Migrated: %d\n", stats.Migrated)
	fmt.Printf("  Skipped:  %d (duplicates)\n", stats.Skipped)
	fmt.Printf("  Errors:   %d\n", stats.Errors)
	if !migrateDryRun {
		fmt.Printf("  Success:  %.1f%%\n", stats.SuccessRate())
	}

	if len(result.Verify) > 0 {
		fmt.Printf("\nVerification:\n")
		for _, v := range result.Verify {
			fmt.Printf("  %-30s %d hits (top %.3f) %s\n", v.Query, v.Hits, v.TopScore, v.Preview)
		}
	}
	return nil
}
