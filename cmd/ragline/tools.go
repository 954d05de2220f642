package main

import (
	"encoding/json"
	"log"
	"os"

	"github.com/spf13/cobra"

	"github.com/ragline/ragline/internal/logging"
	"github.com/ragline/ragline/internal/tools"
	"github.com/ragline/ragline/pkg/logsink"
	"github.com/ragline/ragline/pkg/pipeline"
	"github.com/ragline/ragline/pkg/schema"
)

type toolInfo struct {
	Name          string           `json:"name"`
	Description   string           `json:"description"`
	Batch         bool             `json:"batch"`
	Published     []publishedParam `json:"published"`
	ItemSignature schema.Signature `json:"item_signature"`
}

type publishedParam struct {
	Name        string `json:"name"`
	Type        string `json:"type"`
	Required    bool   `json:"required"`
	Description string `json:"description,omitempty"`
}

var toolsCmd = &cobra.Command{
	Use:   "tools",
	Short: "List registered tools and their schemas",
	Long: `Prints every registered tool with the schema it publishes to clients.
For batch tools the published schema is the items list, while the item
signature shows the real per-item parameters for documentation purposes.`,
	Run: func(cmd *cobra.Command, args []string) {
		logger := logging.NewNop()
		composer := pipeline.New(pipeline.NewRecorder(logsink.NewSlogSink(logger), logger), logger)

		// Handlers are never invoked here, so no document store is opened.
		if err := tools.RegisterAll(composer, nil); err != nil {
			log.Fatalf("Error registering tools: %v", err)
		}

		var infos []toolInfo
		for _, entry := range composer.Entries() {
			info := toolInfo{
				Name:          entry.Name(),
				Description:   entry.Description(),
				Batch:         entry.Batch(),
				ItemSignature: entry.ItemSignature(),
			}
			for _, p := range entry.Published() {
				info.Published = append(info.Published, publishedParam{
					Name:        p.Name,
					Type:        p.Type.Name(),
					Required:    p.Required,
					Description: p.Description,
				})
			}
			infos = append(infos, info)
		}

		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		if err := enc.Encode(infos); err != nil {
			log.Fatalf("Error encoding tools: %v", err)
		}
	},
}

func init() {
	rootCmd.AddCommand(toolsCmd)
}
