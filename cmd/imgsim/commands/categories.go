package commands

import (
	"fmt"

	"github.com/spf13/cobra"
)

var categoriesCmd = &cobra.Command{
	Use:   "categories <image-name>",
	Short: "Show the categories detected in a stored image",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := loadApp()
		if err != nil {
			return err
		}
		defer a.Close()
		result, err := a.search.Categories(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		printCategories(cmd.OutOrStdout(), args[0], result)
		return nil
	},
}

var removeCmd = &cobra.Command{
	Use:   "remove <image-name>",
	Short: "Remove an image from the dataset",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := loadApp()
		if err != nil {
			return err
		}
		defer a.Close()
		if err := a.store.Remove(cmd.Context(), args[0]); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "%s %s\n", boldGreen("removed"), args[0])
		return nil
	},
}
