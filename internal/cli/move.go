package cli

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/hydra/aware/internal/cache"
	"github.com/hydra/aware/internal/config"
	"github.com/hydra/aware/internal/geo"
	"github.com/hydra/aware/internal/mutation"
	"github.com/hydra/aware/internal/reconcile"
	"github.com/hydra/aware/pkg/core"
)

var moveTimeout time.Duration

var moveCmd = &cobra.Command{
	Use:   "move <id> <coordinates>",
	Short: "Push a new location for an entity",
	Long: `Waits for the entity to appear on the world stream, then pushes it with
the new location. The altitude is kept unless the coordinates carry one.`,
	Example: `  aware move radar-1 "52.5597, 13.2877"`,
	Args:    cobra.MinimumNArgs(2),
	RunE:    runMove,
}

func init() {
	moveCmd.Flags().DurationVar(&moveTimeout, "timeout", 10*time.Second, "how long to wait for the entity")
	rootCmd.AddCommand(moveCmd)
}

func runMove(cmd *cobra.Command, args []string) error {
	id := args[0]
	coords, err := geo.ParseCoordinates(strings.Join(args[1:], " "))
	if err != nil {
		return err
	}

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

	ctx, cancel := context.WithTimeout(cmd.Context(), moveTimeout)
	defer cancel()

	if err := move(ctx, a, client, id, coords); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "moved %s to %s, %s\n", id,
		geo.FormatCoordinate(coords.Latitude, geo.Latitude),
		geo.FormatCoordinate(coords.Longitude, geo.Longitude))
	return nil
}

type watchPusher interface {
	reconcile.Watcher
	mutation.Pusher
}

func move(ctx context.Context, a *app, client watchPusher, id string, coords geo.Coordinates) error {
	rec, err := reconcile.New(client, a.store, config.GetStreamConfig(), reconcile.WithLogger(a.logger))
	if err != nil {
		return err
	}

	seen := make(chan struct{}, 1)
	unsubscribe := a.store.Subscribe(func(s cache.Snapshot) {
		if _, ok := s.Get(id); ok {
			select {
			case seen <- struct{}{}:
			default:
			}
		}
	})
	defer unsubscribe()

	rec.Start()
	defer rec.Stop()

	select {
	case <-seen:
	case <-ctx.Done():
		return fmt.Errorf("entity %s not seen: %w", id, ctx.Err())
	}

	prev, _ := a.store.Get(id)
	target := core.Geo{Latitude: coords.Latitude, Longitude: coords.Longitude}
	if coords.Altitude != nil {
		target.Altitude = *coords.Altitude
	} else if prev.Geo != nil {
		target.Altitude = prev.Geo.Altitude
	}

	return mutation.New(a.store, client, a.logger).UpdateLocation(ctx, id, target)
}
