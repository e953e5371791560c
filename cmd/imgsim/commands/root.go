package commands

import (
	"context"

	"github.com/spf13/cobra"
)

var (
	configPath string
	dataset    string
)

var rootCmd = &cobra.Command{
	Use:   "imgsim",
	Short: "Image similarity search over extracted feature vectors",
	Long: `imgsim - find similar images by feature-vector distance.

Features are extracted once per dataset and cached in the configured backend
(file, sqlite, postgres, mysql, badger or minio). Later runs load the cache.

Examples:
  imgsim -c imgsim.yaml index
  imgsim -c imgsim.yaml similar beach.jpg -k 5
  imgsim -c imgsim.yaml search ~/Downloads/upload.png
  imgsim -c imgsim.yaml categories street.png`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.ExecuteContext(context.Background())
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "YAML configuration file")
	rootCmd.PersistentFlags().StringVarP(&dataset, "dataset", "d", "", "dataset name (overrides config)")

	rootCmd.AddCommand(indexCmd, listCmd, similarCmd, searchCmd, categoriesCmd, removeCmd)
}
