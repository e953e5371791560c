package commands

import (
	"fmt"
	"io"

	"github.com/fatih/color"
	"github.com/viant/imgsim/category"
	"github.com/viant/imgsim/index"
)

var (
	boldGreen = color.New(color.FgGreen, color.Bold).SprintFunc()
	boldCyan  = color.New(color.FgCyan, color.Bold).SprintFunc()
	faint     = color.New(color.Faint).SprintFunc()
)

func printNeighbors(w io.Writer, query string, neighbors []index.Neighbor) {
	fmt.Fprintf(w, "%s %s\n", boldCyan("similar to"), query)
	if len(neighbors) == 0 {
		fmt.Fprintln(w, faint("  no results"))
		return
	}
	for i, n := range neighbors {
		fmt.Fprintf(w, "%3d. %s %s\n", i+1, boldGreen(n.Name), faint(fmt.Sprintf("%.6f", n.Distance)))
	}
}

func printCategories(w io.Writer, name string, categories []category.Category) {
	fmt.Fprintf(w, "%s %s\n", boldCyan("categories on"), name)
	if len(categories) == 0 {
		fmt.Fprintln(w, faint("  none detected"))
		return
	}
	for _, c := range categories {
		fmt.Fprintf(w, "  %-20s %s\n", boldGreen(c.Label), faint(fmt.Sprintf("%.4f", c.Score)))
	}
}
