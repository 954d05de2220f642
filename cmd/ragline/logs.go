package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/ragline/ragline/internal/config"
	"github.com/ragline/ragline/internal/logging"
	"github.com/ragline/ragline/pkg/logsink"
)

var logsCmd = &cobra.Command{
	Use:   "logs",
	Short: "Query the tool execution log",
	Long: `Queries the configured log destination for tool execution records,
newest first. Records can be filtered by correlation id, tool name, level,
and time range.`,
	Run: func(cmd *cobra.Command, args []string) {
		configPath, _ := cmd.Flags().GetString("config")
		correlationID, _ := cmd.Flags().GetString("correlation-id")
		tool, _ := cmd.Flags().GetString("tool")
		level, _ := cmd.Flags().GetString("level")
		sinceStr, _ := cmd.Flags().GetString("since")
		untilStr, _ := cmd.Flags().GetString("until")
		limit, _ := cmd.Flags().GetInt("limit")

		filter, err := parseLogFilter(correlationID, tool, level, sinceStr, untilStr, limit)
		if err != nil {
			log.Fatalf("Invalid flag: %v", err)
		}

		cfg, err := config.Load(configPath)
		if err != nil {
			log.Fatalf("Error loading config: %v", err)
		}

		sink, err := logsink.New(cfg.Destinations, logging.NewNop())
		if err != nil {
			log.Fatalf("Error opening log destination: %v", err)
		}
		defer sink.Close()

		records, err := sink.Query(context.Background(), filter)
		if err != nil {
			log.Fatalf("Error querying logs: %v", err)
		}

		enc := json.NewEncoder(os.Stdout)
		for _, rec := range records {
			if err := enc.Encode(rec); err != nil {
				log.Fatalf("Error encoding record: %v", err)
			}
		}
		if len(records) == 0 {
			fmt.Fprintln(os.Stderr, "no matching records")
		}
	},
}

// parseLogFilter builds the sink filter from the command flags.
func parseLogFilter(correlationID, tool, level, sinceStr, untilStr string, limit int) (logsink.Filter, error) {
	filter := logsink.Filter{
		CorrelationID: correlationID,
		ToolName:      tool,
		Level:         level,
		Limit:         limit,
	}
	if sinceStr != "" {
		since, err := time.Parse(time.RFC3339, sinceStr)
		if err != nil {
			return logsink.Filter{}, fmt.Errorf("--since must be RFC3339: %w", err)
		}
		filter.Since = since
	}
	if untilStr != "" {
		until, err := time.Parse(time.RFC3339, untilStr)
		if err != nil {
			return logsink.Filter{}, fmt.Errorf("--until must be RFC3339: %w", err)
		}
		filter.Until = until
	}
	return filter, nil
}

func init() {
	rootCmd.AddCommand(logsCmd)

	logsCmd.Flags().String("correlation-id", "", "Only records for this correlation id")
	logsCmd.Flags().String("tool", "", "Only records for this tool")
	logsCmd.Flags().String("level", "", "Only records at this level (debug|info|warning|error)")
	logsCmd.Flags().String("since", "", "Only records at or after this RFC3339 timestamp")
	logsCmd.Flags().String("until", "", "Only records at or before this RFC3339 timestamp")
	logsCmd.Flags().Int("limit", 50, "Maximum number of records")
}
