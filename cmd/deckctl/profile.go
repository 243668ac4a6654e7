package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
)

func init() {
	profileCmd := &cobra.Command{Use: "profile", Short: "User profile operations"}

	getCmd := &cobra.Command{
		Use:   "get USER_ID",
		Short: "Get a user's profile",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			url := fmt.Sprintf("%s/api/users/%s/profile", apiFlag, args[0])
			data, err := doGet(url)
			if err != nil {
				return err
			}
			_, _ = fmt.Fprintln(os.Stdout, string(data))
			return nil
		},
	}
	profileCmd.AddCommand(getCmd)

	var name, birthday, hobbies string
	setCmd := &cobra.Command{
		Use:   "set USER_ID",
		Short: "Create or update a user's profile",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if name == "" || birthday == "" {
				return fmt.Errorf("--name and --birthday required")
			}
			payload := map[string]interface{}{
				"name":     name,
				"birthday": birthday,
			}
			if hobbies != "" {
				var list []string
				for _, h := range strings.Split(hobbies, ",") {
					if h = strings.TrimSpace(h); h != "" {
						list = append(list, h)
					}
				}
				payload["hobbies"] = list
			}
			url := fmt.Sprintf("%s/api/users/%s/profile", apiFlag, args[0])
			data, err := doPutJSON(url, payload)
			if err != nil {
				return err
			}
			_, _ = fmt.Fprintln(os.Stdout, string(data))
			return nil
		},
	}
	setCmd.Flags().StringVarP(&name, "name", "n", "", "Display name (required)")
	setCmd.Flags().StringVarP(&birthday, "birthday", "d", "", "Birthday as MM/DD (required)")
	setCmd.Flags().StringVar(&hobbies, "hobbies", "", "Comma separated hobbies")
	profileCmd.AddCommand(setCmd)

	rootCmd.AddCommand(profileCmd)
}
