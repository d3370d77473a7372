package cli

import (
	"github.com/spf13/cobra"
)

// Version and BuildDate are set at build time via ldflags.
var (
	Version   = "dev"
	BuildDate = "unknown"
)

var configDir string

var rootCmd = &cobra.Command{
	Use:   "aware",
	Short: "Live situational awareness map fed by the world service",
	Long: `Aware keeps a local snapshot of the entities streamed by the world
service and renders it onto a tile map scene. The scene can be inspected
as GeoJSON over HTTP.`,
	SilenceUsage: true,
}

func init() {
	rootCmd.Version = Version
	rootCmd.SetVersionTemplate("aware version {{.Version}}\n")
	rootCmd.PersistentFlags().StringVar(&configDir, "config", ".", "directory containing "+configFileName())
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}
