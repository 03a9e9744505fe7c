package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/geonate/geonate/internal/raster"
)

func indexCmd(loadCfg configLoader) *cobra.Command {
	var bandsArg string
	var compression string

	c := &cobra.Command{
		Use:   "index <in.tif> <out.tif>",
		Short: "Compute a normalized difference index (NDVI-style) from two bands",
		Args:  cobra.ExactArgs(2),
		RunE: func(_ *cobra.Command, args []string) error {
			cfg, err := loadCfg()
			if err != nil {
				return err
			}
			bands, err := parseBands(bandsArg)
			if err != nil {
				return err
			}
			if len(bands) != 2 {
				return fmt.Errorf("--bands needs exactly two bands, e.g. 4,3")
			}
			r, err := raster.Open(args[0])
			if err != nil {
				return err
			}
			out, err := raster.NormalizedDifference(r, bands[0], bands[1])
			if err != nil {
				return err
			}
			return raster.Write(out, args[1], writeOptions(cfg, compression))
		},
	}

	c.Flags().StringVar(&bandsArg, "bands", "", "Two 1-based bands, numerator first (required)")
	c.Flags().StringVar(&compression, "compression", "", "deflate or none (default from config)")
	_ = c.MarkFlagRequired("bands")
	return c
}

func normalizeCmd(loadCfg configLoader) *cobra.Command {
	var compression string

	c := &cobra.Command{
		Use:   "normalize <in.tif> <out.tif>",
		Short: "Rescale all bands linearly to [0, 1]",
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
			out, err := raster.Normalize(r)
			if err != nil {
				return err
			}
			return raster.Write(out, args[1], writeOptions(cfg, compression))
		},
	}

	c.Flags().StringVar(&compression, "compression", "", "deflate or none (default from config)")
	return c
}

func reclassifyCmd(loadCfg configLoader) *cobra.Command {
	var breaksArg string
	var classesArg string
	var compression string

	c := &cobra.Command{
		Use:   "reclassify <in.tif> <out.tif>",
		Short: "Map cell values onto classes by value or interval",
		Long: `Map a single-band raster onto class values.

With as many breakpoints as classes, cells equal to a breakpoint take
the matching class. With one extra breakpoint, cells falling in
[break[i], break[i+1]) take class i.`,
		Args: cobra.ExactArgs(2),
		RunE: func(_ *cobra.Command, args []string) error {
			cfg, err := loadCfg()
			if err != nil {
				return err
			}
			breaks, err := parseFloats(breaksArg)
			if err != nil {
				return err
			}
			classes, err := parseFloats(classesArg)
			if err != nil {
				return err
			}
			r, err := raster.Open(args[0])
			if err != nil {
				return err
			}
			out, err := raster.Reclassify(r, breaks, classes)
			if err != nil {
				return err
			}
			return raster.Write(out, args[1], writeOptions(cfg, compression))
		},
	}

	c.Flags().StringVar(&breaksArg, "breaks", "", "Breakpoints, comma separated (required)")
	c.Flags().StringVar(&classesArg, "classes", "", "Class values, comma separated (required)")
	c.Flags().StringVar(&compression, "compression", "", "deflate or none (default from config)")
	_ = c.MarkFlagRequired("breaks")
	_ = c.MarkFlagRequired("classes")
	return c
}

func focalCmd(loadCfg configLoader) *cobra.Command {
	var radius int
	var statArg string
	var compression string

	c := &cobra.Command{
		Use:   "focal <in.tif> <out.tif>",
		Short: "Smooth a raster with a moving-window statistic",
		Args:  cobra.ExactArgs(2),
		RunE: func(_ *cobra.Command, args []string) error {
			cfg, err := loadCfg()
			if err != nil {
				return err
			}
			stat, err := raster.ParseFocalStat(statArg)
			if err != nil {
				return err
			}
			r, err := raster.Open(args[0])
			if err != nil {
				return err
			}
			out, err := raster.Focal(r, radius, stat)
			if err != nil {
				return err
			}
			return raster.Write(out, args[1], writeOptions(cfg, compression))
		},
	}

	c.Flags().IntVar(&radius, "radius", 1, "Window radius in cells (window side = 2r+1)")
	c.Flags().StringVar(&statArg, "stat", "mean", "mean, min, max or median")
	c.Flags().StringVar(&compression, "compression", "", "deflate or none (default from config)")
	return c
}
