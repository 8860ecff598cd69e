package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var version = "0.1.0-dev"

func main() {
	rootCmd := &cobra.Command{
		Use:   "roamsim",
		Short: "Wi-Fi handover simulator",
		Long: `roamsim walks a station through a configured radio environment and
drives an AP selection strategy over the resulting telemetry.

It supports strongest-signal (ssf), least-loaded (llf) and entropy-TOPSIS
(mcdm) selection, and can replay the same walk under every strategy to
compare their handover behavior.`,
	}

	rootCmd.PersistentFlags().Bool("json", false, "Output as JSON")
	rootCmd.PersistentFlags().StringP("config", "c", "roamsim.yaml", "Configuration file")

	rootCmd.AddCommand(
		newVersionCmd(),
		newRunCmd(),
		newCompareCmd(),
	)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			jsonOut, _ := cmd.Flags().GetBool("json")
			if jsonOut {
				json.NewEncoder(cmd.OutOrStdout()).Encode(map[string]string{"version": version})
			} else {
				fmt.Fprintf(cmd.OutOrStdout(), "roamsim version %s\n", version)
			}
		},
	}
}
