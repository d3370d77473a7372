package cli

import (
	"context"
	"fmt"
	"io"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/hydra/aware/internal/cache"
	"github.com/hydra/aware/internal/config"
	"github.com/hydra/aware/internal/projection"
	"github.com/hydra/aware/internal/reconcile"
)

var tracksWait time.Duration

var tracksCmd = &cobra.Command{
	Use:   "tracks",
	Short: "List the tracks on the world stream",
	Long: `Connects to the world service, waits for the first snapshot and prints
every unexpired track with its status and position.`,
	Args: cobra.NoArgs,
	RunE: runTracks,
}

func init() {
	tracksCmd.Flags().DurationVar(&tracksWait, "wait", 5*time.Second, "how long to wait for the first snapshot")
	rootCmd.AddCommand(tracksCmd)
}

func runTracks(cmd *cobra.Command, _ []string) error {
	a, err := newApp(configDir)
	if err != nil {
		return err
	}
	defer a.close()

	client, err := a.worldClient()
	if err != nil {
		return err
	}
	defer client.Close()

	ctx, cancel := context.WithTimeout(cmd.Context(), tracksWait)
	defer cancel()

	rows, err := collectTracks(ctx, a, client)
	if err != nil {
		return err
	}
	return printTracks(cmd.OutOrStdout(), rows)
}

// collectTracks streams until the first batch lands in the store.
func collectTracks(ctx context.Context, a *app, client reconcile.Watcher) ([]projection.TrackRow, error) {
	rec, err := reconcile.New(client, a.store, config.GetStreamConfig(), reconcile.WithLogger(a.logger))
	if err != nil {
		return nil, err
	}

	flushed := make(chan struct{}, 1)
	unsubscribe := a.store.Subscribe(func(cache.Snapshot) {
		select {
		case flushed <- struct{}{}:
		default:
		}
	})
	defer unsubscribe()

	rec.Start()
	defer rec.Stop()

	select {
	case <-flushed:
	case <-ctx.Done():
		return nil, fmt.Errorf("no snapshot received: %w", ctx.Err())
	}
	return projection.TrackList(a.store.Snapshot(), time.Now()), nil
}

func printTracks(w io.Writer, rows []projection.TrackRow) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tNAME\tSTATUS\tLATITUDE\tLONGITUDE\tALTITUDE")
	for _, r := range rows {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\n", r.ID, r.Name, r.Status, r.Latitude, r.Longitude, r.Altitude)
	}
	return tw.Flush()
}
