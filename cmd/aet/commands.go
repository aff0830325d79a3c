package main

import (
	"context"
	"fmt"
	"os"
	"text/tabwriter"
	"time"

	"github.com/JonMunkholm/aet/internal/application"
	"github.com/JonMunkholm/aet/internal/catalog"
	"github.com/JonMunkholm/aet/internal/pipeline"
	"github.com/JonMunkholm/aet/internal/refresh"
	"github.com/JonMunkholm/aet/internal/store"
	"github.com/spf13/cobra"
)

// =============================================================================
// REFRESH
// =============================================================================

var refreshCmd = &cobra.Command{
	Use:   "refresh",
	Short: "Run one consolidation and commit the result",
	Args:  cobra.NoArgs,
	RunE:  runRefresh,
}

func runRefresh(cmd *cobra.Command, args []string) error {
	ctx, cancel := context.WithTimeout(cmd.Context(), cfg.Refresh.Timeout)
	defer cancel()

	app, err := application.New(ctx, cfg)
	if err != nil {
		return err
	}
	defer app.Close()

	res, err := app.Refresh.Run(ctx)
	if err != nil {
		fmt.Fprintf(cmd.ErrOrStderr(), "%s: %s\n", res.Status, pipeline.FormatUserError(err))
		return err
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "%s: %s\n", res.Status, res.StartedAt.Format(refresh.UpdateTimeLayout))
	fmt.Fprintf(out, "rows: %d (classified %d)\n", res.Stats.Rows, res.Stats.Classified)
	fmt.Fprintf(out, "sources: %d (%d empty)\n", res.Stats.Sources, res.Stats.SkippedSources)
	fmt.Fprintf(out, "execution time: %d milliseconds\n", res.Duration.Milliseconds())
	return nil
}

// =============================================================================
// SOURCES
// =============================================================================

var sourcesCmd = &cobra.Command{
	Use:   "sources",
	Short: "Print the source catalog in aggregation order",
	Args:  cobra.NoArgs,
	RunE:  runSources,
}

func runSources(cmd *cobra.Command, args []string) error {
	sources, err := catalog.Load(cfg.Sources.CatalogFile)
	if err != nil {
		return err
	}

	tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "#\tPROGRAM\tSOURCE ID")
	for i, src := range sources {
		fmt.Fprintf(tw, "%d\t%s\t%s\n", i+1, src.Program, src.ID)
	}
	return tw.Flush()
}

// =============================================================================
// IMPORT
// =============================================================================

var importCmd = &cobra.Command{
	Use:   "import <sourceID> <file.csv>",
	Short: "Replace a source's tracker rows with a CSV export",
	Long: `Reads a tracker export (header row first) and stores its rows under
sourceID, replacing any rows imported before. The source must be in the
catalog unless --force is given.`,
	Args: cobra.ExactArgs(2),
	RunE: runImport,
}

var importForce bool

func init() {
	importCmd.Flags().BoolVar(&importForce, "force", false, "import even if sourceID is not in the catalog")
	runsCmd.Flags().IntVar(&runsLimit, "limit", 10, "number of runs to print")
}

func runImport(cmd *cobra.Command, args []string) error {
	sourceID, path := args[0], args[1]

	sources, err := catalog.Load(cfg.Sources.CatalogFile)
	if err != nil {
		return err
	}
	if !importForce && !inCatalog(sources, sourceID) {
		return fmt.Errorf("source %q is not in the catalog (use --force to import anyway)", sourceID)
	}

	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()

	rows, err := store.ReadTrackerCSV(f)
	if err != nil {
		return err
	}

	ctx := cmd.Context()
	app, err := application.New(ctx, cfg)
	if err != nil {
		return err
	}
	defer app.Close()

	if err := app.Store.PutSourceRows(ctx, sourceID, rows); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "imported %d rows into %s\n", len(rows), sourceID)
	return nil
}

func inCatalog(sources []pipeline.Source, id string) bool {
	for _, src := range sources {
		if src.ID == id {
			return true
		}
	}
	return false
}

// =============================================================================
// RUNS
// =============================================================================

var runsCmd = &cobra.Command{
	Use:   "runs",
	Short: "Print recent refreshes, newest first",
	Args:  cobra.NoArgs,
	RunE:  runRuns,
}

var runsLimit int

func runRuns(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	app, err := application.New(ctx, cfg)
	if err != nil {
		return err
	}
	defer app.Close()

	runs, err := app.Store.RecentRuns(ctx, runsLimit)
	if err != nil {
		return err
	}

	tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "STARTED\tSTATUS\tDURATION\tROWS\tERROR")
	for _, r := range runs {
		errText := ""
		if r.ErrorCode != "" {
			errText = r.ErrorCode + " " + r.ErrorMessage
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%d\t%s\n",
			r.StartedAt.Local().Format(time.DateTime), r.Status, r.Duration.Round(time.Millisecond), r.Rows, errText)
	}
	return tw.Flush()
}
