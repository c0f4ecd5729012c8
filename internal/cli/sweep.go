package cli

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/lazypower/spacetime/internal/uploads"
)

var (
	sweepDryRun bool
	sweepGrace  time.Duration
)

var sweepCmd = &cobra.Command{
	Use:   "sweep",
	Short: "Remove uploads no memory references",
	Long: "Delete files in the upload directory whose name does not appear as the last segment of any memory's cover URL. " +
		"Files newer than --grace are skipped so uploads awaiting their memory survive a sweep against a running server.",
	RunE:  runSweep,
}

func init() {
	sweepCmd.Flags().BoolVar(&sweepDryRun, "dry-run", false, "List orphaned files without removing them")
	sweepCmd.Flags().DurationVar(&sweepGrace, "grace", time.Hour, "Skip files modified more recently than this")
}

func runSweep(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	db, err := openStore(cfg.Database)
	if err != nil {
		return fmt.Errorf("open db: %w", err)
	}
	defer db.Close()

	files, err := uploads.NewDisk(cfg.Uploads.Dir)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	urls, err := db.CoverURLs(ctx)
	if err != nil {
		return err
	}
	orphans, err := uploads.Sweep(ctx, files, urls, time.Now().Add(-sweepGrace), sweepDryRun)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if len(orphans) == 0 {
		fmt.Fprintln(out, "No orphaned uploads.")
		return nil
	}
	verb := "removed"
	if sweepDryRun {
		verb = "would remove"
	}
	for _, name := range orphans {
		fmt.Fprintf(out, "%s %s\n", verb, name)
	}
	fmt.Fprintf(out, "%d file(s) %s\n", len(orphans), verb)
	return nil
}
