package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"platform-hq/proxydeploy/pkg/cli"
	"platform-hq/proxydeploy/pkg/config"
)

var validateFlags struct {
	output string
}

var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate a configuration file",
	Long: `Validate a configuration file without starting the server.

Reports every problem found, not just the first one. With --output json
the effective configuration (defaults applied) is printed on success.`,
	RunE: runValidate,
}

func init() {
	rootCmd.AddCommand(validateCmd)
	validateCmd.Flags().StringVarP(&validateFlags.output, "output", "o", "text", "output format (text, json)")
}

func runValidate(cmd *cobra.Command, args []string) error {
	cfg, err := config.LoadConfigWithEnvOverrides(cfgFile)
	if err != nil {
		return cli.NewConfigError(cfgFile, err.Error())
	}

	if cli.OutputFormat(validateFlags.output) == cli.FormatJSON {
		return cli.NewFormatter(cli.FormatJSON).FormatTo(os.Stdout, cfg)
	}
	fmt.Println("configuration valid")
	return nil
}
