package commands

import (
	"fmt"

	"github.com/spf13/cobra"
)

var (
	rebuild bool
	collect bool
)

var indexCmd = &cobra.Command{
	Use:   "index",
	Short: "Populate the dataset from its cache or source directory",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		a, err := loadApp()
		if err != nil {
			return err
		}
		defer a.Close()
		ctx := cmd.Context()
		switch {
		case collect:
			err = a.store.Consolidate(ctx)
		case rebuild:
			err = a.store.Rebuild(ctx)
		default:
			err = a.store.EnsurePopulated(ctx)
		}
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "%s %s: %d images, dimension %d\n",
			boldGreen("indexed"), a.cfg.Dataset, a.store.Len(), a.store.Dimension())
		return nil
	},
}

func init() {
	indexCmd.Flags().BoolVar(&rebuild, "rebuild", false, "ignore the cache and extract every image again")
	indexCmd.Flags().BoolVar(&collect, "collect", false, "consolidate checkpoint shards into the cache")
	indexCmd.MarkFlagsMutuallyExclusive("rebuild", "collect")
}
