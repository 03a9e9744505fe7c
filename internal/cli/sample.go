package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/geonate/geonate/internal/raster"
	"github.com/geonate/geonate/internal/vector"
)

func sampleCmd() *cobra.Command {
	var layerPath string
	var field string
	var keepNA bool
	var labelFirst bool
	var prefix string
	var namesArg string

	c := &cobra.Command{
		Use:   "sample <in.tif> <out.csv>",
		Short: "Export pixel values to CSV, optionally labeled by vector features",
		Long: `Export a raster's pixel values as a CSV table, one column per band.

Without --layer every pixel becomes a row. With --layer and --field the
table holds only the pixels under the layer's points or polygons, each
row labeled with the feature's numeric attribute.`,
		Args: cobra.ExactArgs(2),
		RunE: func(_ *cobra.Command, args []string) error {
			r, err := raster.Open(args[0])
			if err != nil {
				return err
			}

			var names []string
			if namesArg != "" {
				names = strings.Split(namesArg, ",")
			}

			var table *raster.SampleTable
			if layerPath == "" {
				table, err = raster.Values(r, &raster.ValuesOptions{
					KeepNA: keepNA,
					Names:  names,
					Prefix: prefix,
				})
			} else {
				if field == "" {
					return fmt.Errorf("--field is required with --layer")
				}
				var layer *vector.Layer
				layer, err = vector.Read(layerPath)
				if err != nil {
					return err
				}
				table, err = raster.ExtractSamples(r, layer, field, &raster.ExtractOptions{
					KeepNA:     keepNA,
					Names:      names,
					Prefix:     prefix,
					LabelFirst: labelFirst,
				})
			}
			if err != nil {
				return err
			}
			return table.WriteCSV(args[1])
		},
	}

	c.Flags().StringVar(&layerPath, "layer", "", "GeoJSON layer of sample points or polygons")
	c.Flags().StringVar(&field, "field", "", "Numeric attribute used as the label column")
	c.Flags().BoolVar(&keepNA, "keep-na", false, "Keep rows containing nodata")
	c.Flags().BoolVar(&labelFirst, "label-first", false, "Put the label column before the bands")
	c.Flags().StringVar(&prefix, "prefix", "", "Column name prefix")
	c.Flags().StringVar(&namesArg, "names", "", "Column names, comma separated")
	return c
}
