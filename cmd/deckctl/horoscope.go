package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

func init() {
	horoscopeCmd := &cobra.Command{Use: "horoscope", Short: "Daily horoscope operations"}

	// get
	getCmd := &cobra.Command{
		Use:   "get USER_ID",
		Short: "Fetch today's horoscope for a user (generates when missing)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			url := fmt.Sprintf("%s/api/users/%s/horoscope", apiFlag, args[0])
			data, err := doGet(url)
			if err != nil {
				return err
			}
			_, _ = fmt.Fprintln(os.Stdout, string(data))
			return nil
		},
	}
	horoscopeCmd.AddCommand(getCmd)

	// trigger: same operation via POST, useful from scripts
	triggerCmd := &cobra.Command{
		Use:   "trigger USER_ID",
		Short: "Trigger generation of today's horoscope for a user",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			url := fmt.Sprintf("%s/api/users/%s/horoscope", apiFlag, args[0])
			data, err := doPostJSON(url, map[string]interface{}{})
			if err != nil {
				return err
			}
			_, _ = fmt.Fprintln(os.Stdout, string(data))
			return nil
		},
	}
	horoscopeCmd.AddCommand(triggerCmd)

	datesCmd := &cobra.Command{
		Use:   "dates USER_ID",
		Short: "List dates with a stored horoscope for a user",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			limit, _ := cmd.Flags().GetInt("limit")
			url := fmt.Sprintf("%s/api/users/%s/horoscope/dates?limit=%d", apiFlag, args[0], limit)
			data, err := doGet(url)
			if err != nil {
				return err
			}
			_, _ = fmt.Fprintln(os.Stdout, string(data))
			return nil
		},
	}
	datesCmd.Flags().IntP("limit", "l", 30, "Number of dates to list")
	horoscopeCmd.AddCommand(datesCmd)

	rootCmd.AddCommand(horoscopeCmd)
}
