package main

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/hupe1980/vecflat"
)

var (
	searchK      int
	searchRadius float64
	searchQuery  string
)

var searchCmd = &cobra.Command{
	Use:   "search NAME",
	Short: "Query a saved snapshot",
	Long: `Loads snapshot NAME and runs one query against it.

Examples:
  vecflat search idx.vfs --query 0.1,0.2,0.3 --k 5
  vecflat search idx.vfs --query 0.1,0.2,0.3 --radius 0.5`,
	Args: cobra.ExactArgs(1),
	RunE: runSearch,
}

func init() {
	f := searchCmd.Flags()
	f.IntVarP(&searchK, "k", "k", 10, "neighbors to return")
	f.Float64Var(&searchRadius, "radius", 0, "run a range search with this radius instead")
	f.StringVarP(&searchQuery, "query", "q", "", "comma separated query vector")
	_ = searchCmd.MarkFlagRequired("query")
}

func runSearch(cmd *cobra.Command, args []string) error {
	q, err := parseVector(searchQuery)
	if err != nil {
		return err
	}
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	idx, err := loadIndex(cmd, cfg, args[0])
	if err != nil {
		return err
	}

	var res [][]vecflat.Neighbor
	if cmd.Flags().Changed("radius") {
		res, err = idx.RangeSearchContext(cmd.Context(), [][]float32{q}, float32(searchRadius))
	} else {
		res, err = idx.SearchContext(cmd.Context(), [][]float32{q}, searchK)
	}
	if err != nil {
		return err
	}
	for _, n := range res[0] {
		fmt.Fprintf(cmd.OutOrStdout(), "%d\t%g\n", n.Label, n.Distance)
	}
	return nil
}

func parseVector(s string) ([]float32, error) {
	fields := strings.Split(s, ",")
	v := make([]float32, 0, len(fields))
	for _, f := range fields {
		x, err := strconv.ParseFloat(strings.TrimSpace(f), 32)
		if err != nil {
			return nil, fmt.Errorf("query component %q: %w", f, err)
		}
		v = append(v, float32(x))
	}
	return v, nil
}
