package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

func init() {
	curatorCmd := &cobra.Command{Use: "curator", Short: "Curator rotation operations"}

	currentCmd := &cobra.Command{
		Use:   "current",
		Short: "Show the active curator assignment",
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := doGet(apiFlag + "/api/curator/current")
			if err != nil {
				return err
			}
			_, _ = fmt.Fprintln(os.Stdout, string(data))
			return nil
		},
	}
	curatorCmd.AddCommand(currentCmd)

	historyCmd := &cobra.Command{
		Use:   "history",
		Short: "List recent curator assignments",
		RunE: func(cmd *cobra.Command, args []string) error {
			limit, _ := cmd.Flags().GetInt("limit")
			url := fmt.Sprintf("%s/api/curator/history?limit=%d", apiFlag, limit)
			data, err := doGet(url)
			if err != nil {
				return err
			}
			_, _ = fmt.Fprintln(os.Stdout, string(data))
			return nil
		},
	}
	historyCmd.Flags().IntP("limit", "l", 10, "Number of assignments to list")
	curatorCmd.AddCommand(historyCmd)

	var assignedBy string
	rotateCmd := &cobra.Command{
		Use:   "rotate",
		Short: "Pick the next curator and schedule their period",
		RunE: func(cmd *cobra.Command, args []string) error {
			payload := map[string]interface{}{"manual": true}
			if assignedBy != "" {
				payload["assignedBy"] = assignedBy
			}
			data, err := doPostJSON(apiFlag+"/api/curator/rotate", payload)
			if err != nil {
				return err
			}
			_, _ = fmt.Fprintln(os.Stdout, string(data))
			return nil
		},
	}
	rotateCmd.Flags().StringVarP(&assignedBy, "by", "b", "", "Who requested the rotation")
	curatorCmd.AddCommand(rotateCmd)

	rootCmd.AddCommand(curatorCmd)
}
