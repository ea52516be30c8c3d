package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"
	"github.com/upb/inference-router/config"
	"github.com/upb/inference-router/services/routing"
)

func newProjectCmd() *cobra.Command {
	var (
		units    int64
		strategy string
	)

	cmd := &cobra.Command{
		Use:   "project",
		Short: "Project monthly cost of a unit volume under every strategy",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.New(cmd.Context())
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}

			if strategy == "" {
				strategy = cfg.Routing.Strategy
			}
			active, err := routing.ParseStrategy(strategy)
			if err != nil {
				return err
			}

			projection, err := routing.Project(cfg.Providers.Descriptors(), active, units)
			if err != nil {
				return err
			}

			writeProjection(cmd.OutOrStdout(), projection)
			return nil
		},
	}

	cmd.Flags().Int64VarP(&units, "units", "u", 10_000_000, "monthly priced units (tokens)")
	cmd.Flags().StringVarP(&strategy, "strategy", "s", "", "strategy to compare against the baseline (default: ROUTING_STRATEGY)")

	return cmd
}

func writeProjection(w io.Writer, p routing.CostProjection) {
	fmt.Fprintf(w, "Monthly units: %d\n\n", p.MonthlyUnits)
	fmt.Fprintf(w, "%-20s %14s\n", "STRATEGY", "EST. COST")
	fmt.Fprintln(w, strings.Repeat("-", 35))
	for _, s := range routing.Strategies() {
		marker := " "
		if s == p.ActiveStrategy {
			marker = "*"
		}
		fmt.Fprintf(w, "%s%-19s $%13.6f\n", marker, s, p.ByStrategy[s])
	}
	fmt.Fprintln(w, strings.Repeat("-", 35))
	fmt.Fprintf(w, "Savings of %s vs. all-premium: $%.6f (%.1f%%)\n", p.ActiveStrategy, p.Savings, p.SavingsPercent)
}
