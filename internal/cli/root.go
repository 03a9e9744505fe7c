// Package cli wires the geonate command tree.
package cli

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/geonate/geonate/internal/config"
	"github.com/geonate/geonate/internal/raster"
)

// BuildInfo is set from main's ldflags-provided variables.
type BuildInfo struct {
	Version   string
	BuildTime string
	GitCommit string
}

// Execute runs the command tree and exits non-zero on failure.
func Execute(build BuildInfo) {
	cmd := newRootCmd(build)
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd(build BuildInfo) *cobra.Command {
	var configPath string

	cmd := &cobra.Command{
		Use:           "geonate",
		Short:         "geonate - geospatial raster processing toolkit",
		SilenceUsage:  true,
		SilenceErrors: false,
	}
	cmd.PersistentFlags().StringVar(&configPath, "config", "", "TOML config file (optional)")

	loadCfg := func() (*config.Config, error) {
		cfg := config.Default()
		if configPath != "" {
			var err error
			if cfg, err = config.Load(configPath); err != nil {
				return nil, err
			}
		}
		raster.SetWorkers(cfg.Workers)
		return cfg, nil
	}

	cmd.AddCommand(
		infoCmd(),
		statsCmd(),
		convertCmd(loadCfg),
		stackCmd(loadCfg),
		mergeCmd(loadCfg),
		cropCmd(loadCfg),
		maskCmd(loadCfg),
		warpCmd(loadCfg),
		resampleCmd(loadCfg),
		matchCmd(loadCfg),
		indexCmd(loadCfg),
		normalizeCmd(loadCfg),
		reclassifyCmd(loadCfg),
		focalCmd(loadCfg),
		sampleCmd(),
		renderCmd(loadCfg),
		serveCmd(loadCfg),
		versionCmd(build),
	)
	return cmd
}

// configLoader defers config parsing until a command actually runs.
type configLoader func() (*config.Config, error)

func writeOptions(cfg *config.Config, compression string) *raster.WriteOptions {
	c := compression
	if c == "" {
		c = cfg.Compression
	}
	return &raster.WriteOptions{Compression: c}
}

// parseBands parses a comma-separated list of 1-based band numbers.
func parseBands(s string) ([]int, error) {
	parts := strings.Split(s, ",")
	out := make([]int, 0, len(parts))
	for _, p := range parts {
		var n int
		if _, err := fmt.Sscanf(strings.TrimSpace(p), "%d", &n); err != nil {
			return nil, fmt.Errorf("bad band list %q", s)
		}
		out = append(out, n)
	}
	return out, nil
}

// parseFloats parses a comma-separated list of numbers.
func parseFloats(s string) ([]float64, error) {
	if strings.TrimSpace(s) == "" {
		return nil, nil
	}
	parts := strings.Split(s, ",")
	out := make([]float64, 0, len(parts))
	for _, p := range parts {
		var v float64
		if _, err := fmt.Sscanf(strings.TrimSpace(p), "%g", &v); err != nil {
			return nil, fmt.Errorf("bad number list %q", s)
		}
		out = append(out, v)
	}
	return out, nil
}
