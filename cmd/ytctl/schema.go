package main

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/ahmetcoskunkizilkaya/ytpulse/internal/models"
	"github.com/ahmetcoskunkizilkaya/ytpulse/internal/schemafix"
	"github.com/spf13/cobra"
)

var (
	schemaName   string
	tables       string
	format       string
	applyChanges bool
)

var schemaCmd = &cobra.Command{
	Use:   "schema",
	Short: "Inspect and repair the database schema",
}

var schemaInspectCmd = &cobra.Command{
	Use:   "inspect",
	Short: "Print tables and columns from information_schema",
	RunE:  runInspect,
}

var schemaDuplicatesCmd = &cobra.Command{
	Use:   "duplicates",
	Short: "Find legacy copies of yt_* tables and optionally merge them",
	Long: `Legacy copies are unprefixed, suffixed (_old, _backup, _copy, _v2) or
differently cased variants of a canonical table. With --apply each copy's rows
are inserted into the canonical table over the shared columns, skipping
conflicts, and the copy is renamed to <name>_archived_<yyyymmdd>.`,
	RunE: runDuplicates,
}

func init() {
	schemaCmd.PersistentFlags().StringVarP(&schemaName, "schema", "s", "public", "Database schema name")
	schemaInspectCmd.Flags().StringVarP(&tables, "tables", "t", "", "Specific tables (comma-separated, optional)")
	schemaInspectCmd.Flags().StringVarP(&format, "format", "f", "text", "Output format: text or markdown")
	schemaDuplicatesCmd.Flags().BoolVar(&applyChanges, "apply", false, "Merge and archive the duplicates")
	schemaCmd.AddCommand(schemaInspectCmd, schemaDuplicatesCmd)
}

func inspector(ctx context.Context) (*schemafix.Inspector, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return schemafix.Connect(ctx, cfg.URL(), schemaName)
}

func runInspect(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	var tableList []string
	if tables != "" {
		for _, t := range strings.Split(tables, ",") {
			if t = strings.TrimSpace(t); t != "" {
				tableList = append(tableList, t)
			}
		}
	}

	in, err := inspector(ctx)
	if err != nil {
		return err
	}
	defer func() {
		if err := in.Close(ctx); err != nil {
			logger.Warn("failed to close connection", "err", err)
		}
	}()

	result, err := in.Inspect(ctx, tableList)
	if err != nil {
		return err
	}

	switch format {
	case "text":
		return schemafix.WriteText(os.Stdout, result)
	case "markdown":
		return schemafix.WriteMarkdown(os.Stdout, result)
	default:
		return fmt.Errorf("invalid format: %s (must be 'text' or 'markdown')", format)
	}
}

func runDuplicates(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	in, err := inspector(ctx)
	if err != nil {
		return err
	}
	defer func() {
		if err := in.Close(ctx); err != nil {
			logger.Warn("failed to close connection", "err", err)
		}
	}()

	dups, err := in.Duplicates(ctx, models.CanonicalTables)
	if err != nil {
		return err
	}

	fmt.Println(titleStyle.Render("Duplicate tables"))
	if len(dups) == 0 {
		fmt.Println(okStyle.Render("✓ no legacy copies found"))
		return nil
	}
	for _, d := range dups {
		fmt.Printf("%s %s -> %s %s\n",
			warnStyle.Render("!"), d.Legacy, d.Canonical,
			dimStyle.Render(fmt.Sprintf("(%d shared columns)", len(d.Shared))))
	}

	if !applyChanges {
		fmt.Println(dimStyle.Render("\nrun again with --apply to merge and archive"))
		return nil
	}

	now := time.Now()
	failed := 0
	for _, d := range dups {
		n, err := in.Merge(ctx, d, now)
		if err != nil {
			failed++
			logger.Error("merge failed", "legacy", d.Legacy, "err", err)
			continue
		}
		logger.Info("merged", "legacy", d.Legacy, "canonical", d.Canonical,
			"rows", n, "archived_as", schemafix.ArchiveName(d.Legacy, now))
	}
	if failed > 0 {
		return fmt.Errorf("%d of %d merges failed", failed, len(dups))
	}
	return nil
}
