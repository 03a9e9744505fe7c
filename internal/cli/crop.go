package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/geonate/geonate/internal/raster"
	"github.com/geonate/geonate/internal/vector"
)

func cropCmd(loadCfg configLoader) *cobra.Command {
	var box string
	var like string
	var layerPath string
	var invert bool
	var compression string

	c := &cobra.Command{
		Use:   "crop <in.tif> <out.tif>",
		Short: "Clip a raster to a box, a reference raster or a vector layer",
		Args:  cobra.ExactArgs(2),
		RunE: func(_ *cobra.Command, args []string) error {
			cfg, err := loadCfg()
			if err != nil {
				return err
			}
			r, err := raster.Open(args[0])
			if err != nil {
				return err
			}

			var cropped *raster.Raster
			switch {
			case box != "":
				vals, err := parseFloats(box)
				if err != nil {
					return err
				}
				if len(vals) != 4 {
					return fmt.Errorf("--box needs left,bottom,right,top")
				}
				cropped, err = raster.Crop(r, raster.Bounds{
					Left: vals[0], Bottom: vals[1], Right: vals[2], Top: vals[3],
				}, invert)
				if err != nil {
					return err
				}
			case like != "":
				ref, err := raster.Open(like)
				if err != nil {
					return err
				}
				cropped, err = raster.CropToRaster(r, ref, invert)
				if err != nil {
					return err
				}
			case layerPath != "":
				layer, err := vector.Read(layerPath)
				if err != nil {
					return err
				}
				cropped, err = raster.CropToLayer(r, layer, invert)
				if err != nil {
					return err
				}
			default:
				return fmt.Errorf("one of --box, --like or --layer is required")
			}

			return raster.Write(cropped, args[1], writeOptions(cfg, compression))
		},
	}

	c.Flags().StringVar(&box, "box", "", "Extent as left,bottom,right,top")
	c.Flags().StringVar(&like, "like", "", "Reference raster whose extent to clip to")
	c.Flags().StringVar(&layerPath, "layer", "", "GeoJSON layer whose extent to clip to")
	c.Flags().BoolVar(&invert, "invert", false, "Blank the extent instead of keeping it")
	c.Flags().StringVar(&compression, "compression", "", "deflate or none (default from config)")
	return c
}

func maskCmd(loadCfg configLoader) *cobra.Command {
	var layerPath string
	var invert bool
	var nodata float64
	var compression string

	c := &cobra.Command{
		Use:   "mask <in.tif> <out.tif>",
		Short: "Mask a raster by polygon features",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadCfg()
			if err != nil {
				return err
			}
			r, err := raster.Open(args[0])
			if err != nil {
				return err
			}
			layer, err := vector.Read(layerPath)
			if err != nil {
				return err
			}

			opts := &raster.MaskOptions{Invert: invert}
			if cmd.Flags().Changed("nodata") {
				v := nodata
				opts.Nodata = &v
			}
			masked, err := raster.Mask(r, layer, opts)
			if err != nil {
				return err
			}
			return raster.Write(masked, args[1], writeOptions(cfg, compression))
		},
	}

	c.Flags().StringVar(&layerPath, "layer", "", "GeoJSON layer with polygon features (required)")
	c.Flags().BoolVar(&invert, "invert", false, "Keep the outside of the polygons instead")
	c.Flags().Float64Var(&nodata, "nodata", 0, "Nodata value for masked cells (default per dtype)")
	c.Flags().StringVar(&compression, "compression", "", "deflate or none (default from config)")
	_ = c.MarkFlagRequired("layer")
	return c
}
