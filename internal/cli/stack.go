package cli

import (
	"github.com/spf13/cobra"

	"github.com/geonate/geonate/internal/raster"
)

func stackCmd(loadCfg configLoader) *cobra.Command {
	var compression string

	c := &cobra.Command{
		Use:   "stack <in1.tif> <in2.tif>... <out.tif>",
		Short: "Stack single-band rasters into one multiband file",
		Args:  cobra.MinimumNArgs(3),
		RunE: func(_ *cobra.Command, args []string) error {
			cfg, err := loadCfg()
			if err != nil {
				return err
			}
			inputs, output := args[:len(args)-1], args[len(args)-1]
			stacked, err := raster.StackFiles(inputs)
			if err != nil {
				return err
			}
			return raster.Write(stacked, output, writeOptions(cfg, compression))
		},
	}

	c.Flags().StringVar(&compression, "compression", "", "deflate or none (default from config)")
	return c
}

func mergeCmd(loadCfg configLoader) *cobra.Command {
	var compression string

	c := &cobra.Command{
		Use:   "merge <in1.tif> <in2.tif>... <out.tif>",
		Short: "Mosaic rasters onto their union extent, averaging overlaps",
		Args:  cobra.MinimumNArgs(3),
		RunE: func(_ *cobra.Command, args []string) error {
			cfg, err := loadCfg()
			if err != nil {
				return err
			}
			inputs, output := args[:len(args)-1], args[len(args)-1]
			return raster.MergeFiles(inputs, output, writeOptions(cfg, compression))
		},
	}

	c.Flags().StringVar(&compression, "compression", "", "deflate or none (default from config)")
	return c
}
