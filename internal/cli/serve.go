package cli

import (
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/geonate/geonate/internal/server"
)

func serveCmd(loadCfg configLoader) *cobra.Command {
	var addr string
	var root string

	c := &cobra.Command{
		Use:   "serve",
		Short: "Serve a raster directory as an HTTP catalog",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadCfg()
			if err != nil {
				return err
			}
			if addr != "" {
				cfg.Server.Addr = addr
			}
			if root != "" {
				cfg.Server.Root = root
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()
			return server.New(cfg).Run(ctx)
		},
	}

	c.Flags().StringVar(&addr, "addr", "", "Listen address (default from config)")
	c.Flags().StringVar(&root, "root", "", "Raster directory (default from config)")
	return c
}
