package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var version = "dev"

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:     "inference-router",
		Short:   "Route completion requests across LLM providers by cost and latency",
		Version: version,
		Long: `inference-router picks a provider for every completion request using the
active strategy, falls back once to another provider on failure and keeps
running cost and usage accounting.

Providers and pricing come from the environment (OPENAI_*, ANTHROPIC_*)
and an optional YAML catalog (PROVIDER_CATALOG_FILE).`,
		SilenceUsage: true,
	}

	root.AddCommand(
		newServeCmd(),
		newProjectCmd(),
		newProvidersCmd(),
	)

	return root
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
