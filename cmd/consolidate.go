package main

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/tendergov/tender-cli/internal/adapter"
	"github.com/tendergov/tender-cli/internal/config"
	"github.com/tendergov/tender-cli/internal/consolidate"
)

var (
	consolidateInputs     []string
	consolidateSource     string
	consolidateDeadline   time.Duration
	consolidateOut        string
	consolidatePriorities string
)

var consolidateCmd = &cobra.Command{
	Use:   "consolidate",
	Short: "Consolidate procurement batches into a deduplicated record set",
	RunE: func(cmd *cobra.Command, args []string) error {
		engineCfg, err := buildEngineConfig()
		if err != nil {
			return err
		}

		pipeline, err := consolidate.NewPipeline(engineCfg)
		if err != nil {
			return err
		}

		registry := adapter.NewRegistry(engineCfg.Priorities)
		raws, err := loadBatches(cmd.Context(), registry, consolidateInputs, consolidateSource)
		if err != nil {
			return err
		}
		if len(raws) == 0 {
			return eris.New("no records loaded")
		}

		result := pipeline.Run(cmd.Context(), raws, consolidateDeadline)
		fmt.Println(result.Summary())

		if consolidateOut != "" {
			data, err := json.MarshalIndent(result, "", "  ")
			if err != nil {
				return eris.Wrap(err, "marshal result")
			}
			if err := os.WriteFile(consolidateOut, data, 0o644); err != nil {
				return eris.Wrapf(err, "write %s", consolidateOut)
			}
			fmt.Printf("result written to %s\n", consolidateOut)
		}

		return nil
	},
}

// buildEngineConfig resolves the engine configuration, applying a YAML
// priority override when one was given.
func buildEngineConfig() (consolidate.Config, error) {
	engineCfg, err := cfg.Engine()
	if err != nil {
		return consolidate.Config{}, err
	}
	if consolidatePriorities != "" {
		priorities, err := config.LoadPriorityOverride(consolidatePriorities)
		if err != nil {
			return consolidate.Config{}, err
		}
		engineCfg.Priorities = priorities
	}
	return engineCfg, nil
}

func init() {
	consolidateCmd.Flags().StringSliceVarP(&consolidateInputs, "input", "i", nil, "batch file (.json envelope, .csv, .xlsx); repeatable")
	consolidateCmd.Flags().StringVar(&consolidateSource, "source", "", "source tag for CSV/XLSX inputs")
	consolidateCmd.Flags().DurationVar(&consolidateDeadline, "deadline", 0, "time budget for the run (0 = unbounded)")
	consolidateCmd.Flags().StringVarP(&consolidateOut, "out", "o", "", "write the full result as JSON to this file")
	consolidateCmd.Flags().StringVar(&consolidatePriorities, "priorities", "", "YAML file overriding the source priority table")
	_ = consolidateCmd.MarkFlagRequired("input")
	rootCmd.AddCommand(consolidateCmd)
}
