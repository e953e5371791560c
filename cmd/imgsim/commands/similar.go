package commands

import (
	"github.com/spf13/cobra"
)

var neighbors int

var similarCmd = &cobra.Command{
	Use:   "similar <image-name>",
	Short: "Show the stored images most similar to a stored image",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := loadApp()
		if err != nil {
			return err
		}
		defer a.Close()
		result, err := a.search.Similar(cmd.Context(), args[0], neighbors)
		if err != nil {
			return err
		}
		printNeighbors(cmd.OutOrStdout(), args[0], result)
		return nil
	},
}

var searchCmd = &cobra.Command{
	Use:   "search <image-file>",
	Short: "Add an image file to the dataset and show its most similar images",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := loadApp()
		if err != nil {
			return err
		}
		defer a.Close()
		v, result, err := a.search.SearchImage(cmd.Context(), args[0], neighbors)
		if err != nil {
			return err
		}
		printNeighbors(cmd.OutOrStdout(), v.Owner, result)
		return nil
	},
}

func init() {
	for _, cmd := range []*cobra.Command{similarCmd, searchCmd} {
		cmd.Flags().IntVarP(&neighbors, "top", "k", 5, "number of similar images")
	}
}
