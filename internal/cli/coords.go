package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/hydra/aware/internal/geo"
)

var coordsCmd = &cobra.Command{
	Use:   "parse-coords <text>",
	Short: "Parse and normalise a coordinate string",
	Long: `Accepts "lat, lon[, alt]", whitespace separated decimals or
degree-minute-second text and prints the normalised position.`,
	Example: `  aware parse-coords "52.5597, 13.2877, 40"
  aware parse-coords 34°07'24.4"N 118°27'24.4"W`,
	Args: cobra.MinimumNArgs(1),
	RunE: runParseCoords,
}

func init() {
	rootCmd.AddCommand(coordsCmd)
}

func runParseCoords(cmd *cobra.Command, args []string) error {
	c, err := geo.ParseCoordinates(strings.Join(args, " "))
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "%s, %s", geo.FormatCoordinate(c.Latitude, geo.Latitude), geo.FormatCoordinate(c.Longitude, geo.Longitude))
	if c.Altitude != nil {
		fmt.Fprintf(out, ", %.1fm", *c.Altitude)
	}
	fmt.Fprintln(out)
	return nil
}
