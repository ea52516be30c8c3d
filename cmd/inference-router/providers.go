package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"
	"github.com/upb/inference-router/config"
	"github.com/upb/inference-router/services/providers"
)

func newProvidersCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "providers",
		Short: "List configured providers with their pricing and latency",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.New(cmd.Context())
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}

			enabled := make(map[string]bool)
			for kind, pc := range cfg.Providers.ProviderConfigs() {
				enabled[pc.Descriptor(kind).Name] = true
			}

			writeProviders(cmd.OutOrStdout(), cfg.Providers.Descriptors(), enabled)
			return nil
		},
	}
}

func writeProviders(w io.Writer, descs []providers.Descriptor, enabled map[string]bool) {
	fmt.Fprintf(w, "%-12s %-26s %12s %11s %11s %8s\n",
		"NAME", "MODEL", "$/M UNITS", "LATENCY MS", "RELIABILITY", "ENABLED")
	fmt.Fprintln(w, strings.Repeat("-", 85))
	for _, d := range descs {
		fmt.Fprintf(w, "%-12s %-26s %12.4f %11d %11.2f %8t\n",
			d.Name, d.Model, d.CostPerMillionUnits, d.EstimatedLatencyMs, d.ReliabilityScore, enabled[d.Name])
	}
}
