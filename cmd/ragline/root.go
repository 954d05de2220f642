package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// version is set at build time via ldflags.
var version = "dev"

var rootCmd = &cobra.Command{
	Use:   "ragline",
	Short: "ragline is an MCP server for document ingestion tools",
	Long: `ragline exposes document ingestion tools over the Model Context Protocol.
Every tool call runs through a uniform pipeline: batch parallelization,
argument type coercion, correlation-tracked logging, and error normalization.`,
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().String("config", "ragline.yaml", "Path to the configuration file")
}
