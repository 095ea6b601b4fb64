package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var cfgPath string

var rootCmd = &cobra.Command{
	Use:   "dbgmesh",
	Short: "Drive a single-threaded debugging engine safely from the command line",
	Long: `dbgmesh serializes all access to a debugging engine onto one dedicated
thread while accepting commands asynchronously. Every command's output is
captured and classified per channel (normal, error, warning, symbol-trace,
prompt) and printed without interleaving.`,
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgPath, "config", "c", "", "path to YAML configuration")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
