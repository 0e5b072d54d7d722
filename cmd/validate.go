package main

import (
	"fmt"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/tendergov/tender-cli/internal/adapter"
	"github.com/tendergov/tender-cli/internal/model"
)

var (
	validateInputs []string
	validateSource string
)

var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Check batch files against the record invariants without merging",
	RunE: func(cmd *cobra.Command, args []string) error {
		engineCfg, err := cfg.Engine()
		if err != nil {
			return err
		}

		registry := adapter.NewRegistry(engineCfg.Priorities)
		raws, err := loadBatches(cmd.Context(), registry, validateInputs, validateSource)
		if err != nil {
			return err
		}

		builder := model.NewBuilder(engineCfg.Derive)
		valid, invalid := 0, 0
		for _, raw := range raws {
			if _, err := builder.Build(raw); err != nil {
				invalid++
				var verr *model.ValidationError
				if eris.As(err, &verr) {
					for _, f := range verr.Fields {
						fmt.Printf("%s/%s  %s: %s\n", verr.Source, verr.SourceID, f.Field, f.Reason)
					}
					continue
				}
				fmt.Printf("%s/%s  %v\n", raw.Source, raw.SourceID, err)
				continue
			}
			valid++
		}

		fmt.Printf("%d valid, %d invalid of %d records\n", valid, invalid, len(raws))
		return nil
	},
}

func init() {
	validateCmd.Flags().StringSliceVarP(&validateInputs, "input", "i", nil, "batch file (.json envelope, .csv, .xlsx); repeatable")
	validateCmd.Flags().StringVar(&validateSource, "source", "", "source tag for CSV/XLSX inputs")
	_ = validateCmd.MarkFlagRequired("input")
	rootCmd.AddCommand(validateCmd)
}
