package main

import (
	"fmt"
	"sort"

	"github.com/spf13/cobra"

	"github.com/tendergov/tender-cli/internal/model"
)

var sourcesCmd = &cobra.Command{
	Use:   "sources",
	Short: "Print the configured source priority table",
	RunE: func(cmd *cobra.Command, args []string) error {
		engineCfg, err := cfg.Engine()
		if err != nil {
			return err
		}

		sources := make([]model.Source, 0, len(engineCfg.Priorities))
		for source := range engineCfg.Priorities {
			sources = append(sources, source)
		}
		sort.Slice(sources, func(i, j int) bool {
			return engineCfg.Priorities[sources[i]] < engineCfg.Priorities[sources[j]]
		})

		for _, source := range sources {
			fmt.Printf("%d  %s\n", engineCfg.Priorities[source], source)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(sourcesCmd)
}
