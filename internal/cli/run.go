package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/hydra/aware/internal/config"
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Stream the world service into the map scene",
	Long: `Connects to the world service, keeps the local snapshot in sync and
renders it onto the map scene until interrupted. With http.addr set the
scene is served as GeoJSON on /scene, the track list on /tracks and the
stream status on /status.`,
	Args: cobra.NoArgs,
	RunE: runAware,
}

func init() {
	rootCmd.AddCommand(runCmd)
}

func runAware(cmd *cobra.Command, _ []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

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

	p, err := a.newPipeline(client)
	if err != nil {
		return err
	}
	if err := p.start(ctx); err != nil {
		p.stop()
		return err
	}
	defer p.stop()

	a.logger.Info("Aware started", "version", Version, "build", BuildDate, "transport", config.GetWorldConfig().Transport)

	if addr := config.GetString("http.addr"); addr != "" {
		if err := serve(ctx, addr, p.handler(), a.logger); err != nil {
			return fmt.Errorf("http: %w", err)
		}
		return nil
	}

	<-ctx.Done()
	a.logger.Info("Shutting down")
	return nil
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
