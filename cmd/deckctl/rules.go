package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

func init() {
	rulesCmd := &cobra.Command{Use: "rules", Short: "Rule and catalog inspection"}

	activeCmd := &cobra.Command{
		Use:   "active",
		Short: "Show the active ruleset",
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := doGet(apiFlag + "/api/rulesets/active")
			if err != nil {
				return err
			}
			_, _ = fmt.Fprintln(os.Stdout, string(data))
			return nil
		},
	}
	rulesCmd.AddCommand(activeCmd)

	stylesCmd := &cobra.Command{
		Use:   "styles",
		Short: "List the style catalog",
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := doGet(apiFlag + "/api/styles")
			if err != nil {
				return err
			}
			_, _ = fmt.Fprintln(os.Stdout, string(data))
			return nil
		},
	}
	rulesCmd.AddCommand(stylesCmd)

	rootCmd.AddCommand(rulesCmd)
}
