package cli

import (
	"github.com/spf13/cobra"

	"github.com/geonate/geonate/internal/raster"
)

func convertCmd(loadCfg configLoader) *cobra.Command {
	var compression string
	var dtype string
	var nodata float64

	c := &cobra.Command{
		Use:   "convert <in.tif> <out.tif>",
		Short: "Rewrite a raster, optionally changing compression, type or nodata",
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
			if dtype != "" {
				dt, err := raster.ParseDType(dtype)
				if err != nil {
					return err
				}
				r.SetDType(dt)
			}
			if cmd.Flags().Changed("nodata") {
				v := nodata
				r.SetNodata(&v)
			}
			return raster.Write(r, args[1], writeOptions(cfg, compression))
		},
	}

	c.Flags().StringVar(&compression, "compression", "", "deflate or none (default from config)")
	c.Flags().StringVar(&dtype, "dtype", "", "Output sample type (uint8..float64)")
	c.Flags().Float64Var(&nodata, "nodata", 0, "Output nodata value")
	return c
}
