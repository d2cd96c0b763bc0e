package main

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/mattjoyce/traduttore/internal/doctor"
)

func newDoctorCmd(opts *globalOptions) *cobra.Command {
	var jsonOut bool
	cmd := &cobra.Command{
		Use:   "doctor",
		Short: "Check the configuration and host before serving",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(opts)
			if err != nil {
				return err
			}
			result := doctor.New(cfg).Validate()

			w := cmd.OutOrStdout()
			if jsonOut {
				data, err := json.MarshalIndent(result, "", "  ")
				if err != nil {
					return fmt.Errorf("render doctor JSON: %w", err)
				}
				fmt.Fprintln(w, string(data))
			} else {
				for _, e := range result.Errors {
					printError(w, "[%s] %s: %s", e.Category, e.Field, e.Message)
				}
				for _, warn := range result.Warnings {
					printWarning(w, "[%s] %s: %s", warn.Category, warn.Field, warn.Message)
				}
				if result.Valid {
					printSuccess(w, "Configuration OK (%d warning(s)).", len(result.Warnings))
				}
			}
			if !result.Valid {
				return errReported
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&jsonOut, "json", false, "output the result as JSON")
	return cmd
}
