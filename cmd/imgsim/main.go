// Command imgsim indexes an image directory and answers similarity queries.
//
// Usage:
//
//	imgsim [--config imgsim.yaml] <command> [args]
//
// Commands:
//
//	index       - populate (or --rebuild) the dataset
//	list        - list indexed image names
//	similar     - show the images most similar to a stored image
//	search      - add an image file and show its most similar images
//	categories  - show the categories detected in a stored image
//	remove      - evict an image from the dataset
package main

import (
	"fmt"
	"os"

	"github.com/viant/imgsim/cmd/imgsim/commands"
)

func main() {
	if err := commands.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
