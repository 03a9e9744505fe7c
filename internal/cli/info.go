package cli

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/geonate/geonate/internal/raster"
)

func infoCmd() *cobra.Command {
	var asJSON bool

	c := &cobra.Command{
		Use:   "info <raster.tif>",
		Short: "Print a raster's size, type and georeferencing",
		Args:  cobra.ExactArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			info, err := raster.ReadInfo(args[0])
			if err != nil {
				return err
			}
			if asJSON {
				return printJSON(info)
			}
			fmt.Printf("path:       %s\n", info.Path)
			fmt.Printf("size:       %d x %d, %d band(s)\n", info.Width, info.Height, info.Bands)
			fmt.Printf("dtype:      %s\n", info.DType)
			fmt.Printf("crs:        %s\n", info.CRS)
			fmt.Printf("extent:     %g %g %g %g (l b r t)\n",
				info.Bounds.Left, info.Bounds.Bottom, info.Bounds.Right, info.Bounds.Top)
			fmt.Printf("resolution: %g x %g\n", info.Resolution[0], info.Resolution[1])
			if info.Nodata != nil {
				fmt.Printf("nodata:     %g\n", *info.Nodata)
			}
			return nil
		},
	}

	c.Flags().BoolVar(&asJSON, "json", false, "Output as JSON")
	return c
}

func statsCmd() *cobra.Command {
	var asJSON bool

	c := &cobra.Command{
		Use:   "stats <raster.tif>",
		Short: "Print per-band min/max/mean/std",
		Args:  cobra.ExactArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			r, err := raster.Open(args[0])
			if err != nil {
				return err
			}
			stats := raster.Stats(r)
			if asJSON {
				return printJSON(stats)
			}
			for _, s := range stats {
				fmt.Printf("band %d: min=%g max=%g mean=%g std=%g valid=%d nodata=%d\n",
					s.Band, s.Min, s.Max, s.Mean, s.Std, s.Valid, s.Nodata)
			}
			return nil
		},
	}

	c.Flags().BoolVar(&asJSON, "json", false, "Output as JSON")
	return c
}

func printJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
