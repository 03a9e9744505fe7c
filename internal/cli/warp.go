package cli

import (
	"github.com/spf13/cobra"

	"github.com/geonate/geonate/internal/raster"
)

func warpCmd(loadCfg configLoader) *cobra.Command {
	var crsArg string
	var resolution float64
	var methodArg string
	var compression string

	c := &cobra.Command{
		Use:   "warp <in.tif> <out.tif>",
		Short: "Reproject a raster to another EPSG reference system",
		Args:  cobra.ExactArgs(2),
		RunE: func(_ *cobra.Command, args []string) error {
			cfg, err := loadCfg()
			if err != nil {
				return err
			}
			crs, err := raster.ParseCRS(crsArg)
			if err != nil {
				return err
			}
			method, err := raster.ParseMethod(methodArg)
			if err != nil {
				return err
			}
			r, err := raster.Open(args[0])
			if err != nil {
				return err
			}
			warped, err := raster.Reproject(r, raster.ReprojectOptions{
				CRS:        crs,
				Resolution: resolution,
				Method:     method,
			})
			if err != nil {
				return err
			}
			return raster.Write(warped, args[1], writeOptions(cfg, compression))
		},
	}

	c.Flags().StringVar(&crsArg, "crs", "", "Target system, e.g. EPSG:4326 (required)")
	c.Flags().Float64Var(&resolution, "resolution", 0, "Target pixel size in target units (default derived)")
	c.Flags().StringVar(&methodArg, "method", "nearest", "Resampling method")
	c.Flags().StringVar(&compression, "compression", "", "deflate or none (default from config)")
	_ = c.MarkFlagRequired("crs")
	return c
}

func resampleCmd(loadCfg configLoader) *cobra.Command {
	var factor int
	var modeArg string
	var methodArg string
	var compression string

	c := &cobra.Command{
		Use:   "resample <in.tif> <out.tif>",
		Short: "Coarsen or refine a raster's grid by an integer factor",
		Args:  cobra.ExactArgs(2),
		RunE: func(_ *cobra.Command, args []string) error {
			cfg, err := loadCfg()
			if err != nil {
				return err
			}
			mode, err := raster.ParseResampleMode(modeArg)
			if err != nil {
				return err
			}
			method, err := raster.ParseMethod(methodArg)
			if err != nil {
				return err
			}
			r, err := raster.Open(args[0])
			if err != nil {
				return err
			}
			resampled, err := raster.Resample(r, factor, mode, method)
			if err != nil {
				return err
			}
			return raster.Write(resampled, args[1], writeOptions(cfg, compression))
		},
	}

	c.Flags().IntVar(&factor, "factor", 2, "Scale factor")
	c.Flags().StringVar(&modeArg, "mode", "aggregate", "aggregate or disaggregate")
	c.Flags().StringVar(&methodArg, "method", "bilinear", "Resampling method")
	c.Flags().StringVar(&compression, "compression", "", "deflate or none (default from config)")
	return c
}

func matchCmd(loadCfg configLoader) *cobra.Command {
	var refPath string
	var methodArg string
	var compression string

	c := &cobra.Command{
		Use:   "match <in.tif> <out.tif>",
		Short: "Warp a raster onto a reference raster's CRS and resolution",
		Args:  cobra.ExactArgs(2),
		RunE: func(_ *cobra.Command, args []string) error {
			cfg, err := loadCfg()
			if err != nil {
				return err
			}
			method, err := raster.ParseMethod(methodArg)
			if err != nil {
				return err
			}
			r, err := raster.Open(args[0])
			if err != nil {
				return err
			}
			ref, err := raster.Open(refPath)
			if err != nil {
				return err
			}
			matched, err := raster.Match(r, ref, method)
			if err != nil {
				return err
			}
			return raster.Write(matched, args[1], writeOptions(cfg, compression))
		},
	}

	c.Flags().StringVar(&refPath, "reference", "", "Reference raster (required)")
	c.Flags().StringVar(&methodArg, "method", "nearest", "Resampling method")
	c.Flags().StringVar(&compression, "compression", "", "deflate or none (default from config)")
	_ = c.MarkFlagRequired("reference")
	return c
}
