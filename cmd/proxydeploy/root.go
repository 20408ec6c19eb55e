package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var (
	// Global flags
	cfgFile string
	verbose bool
)

var rootCmd = &cobra.Command{
	Use:   "proxydeploy",
	Short: "Proxy deployment gateway for API proxies",
	Long: `Proxydeploy orchestrates the deployment of generated API proxies.

It fronts the API Manager's proxies API: deployment requests for mule 4
gateways are handled here (proxy generation, CloudHub and hybrid
deployment), everything else passes through to the API Manager unchanged.`,
	Version: Version,
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "config.yaml", "config file path")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")
}
