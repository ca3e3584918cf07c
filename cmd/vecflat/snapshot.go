package main

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/hupe1980/vecflat/testutil"
)

var snapshotCmd = &cobra.Command{
	Use:   "snapshot",
	Short: "Create, inspect and list index snapshots",
	Long: `Manage index snapshots in the configured blob store.

Subcommands:
  create   - Build a random index and save it
  inspect  - Load a snapshot, validate it and print its state
  list     - List snapshots
  delete   - Delete a snapshot`,
}

var (
	createN    int
	createSeed int64
)

var snapshotCreateCmd = &cobra.Command{
	Use:   "create NAME",
	Short: "Build an index of random vectors and save it as NAME",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		idx, err := newIndex(cfg)
		if err != nil {
			return err
		}
		if _, err := idx.Add(testutil.NewRNG(createSeed).UniformVectors(createN, cfg.Dimension)); err != nil {
			return err
		}
		store, err := cfg.OpenStore(cmd.Context())
		if err != nil {
			return err
		}
		if err := idx.SaveSnapshot(cmd.Context(), store, args[0]); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "saved %d vectors to %s\n", idx.Len(), args[0])
		return nil
	},
}

var snapshotInspectCmd = &cobra.Command{
	Use:   "inspect NAME",
	Short: "Load snapshot NAME and print its state",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		idx, err := loadIndex(cmd, cfg, args[0])
		if err != nil {
			return err
		}
		if err := idx.Validate(); err != nil {
			return err
		}

		st := idx.Stats()
		w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
		fmt.Fprintf(w, "dimension\t%d\n", st.Dimension)
		fmt.Fprintf(w, "metric\t%s\n", st.Metric)
		fmt.Fprintf(w, "encoder\t%s (%d bytes)\n", st.Encoder, st.CodeSize)
		fmt.Fprintf(w, "slots\t%d\n", st.SlotCount)
		fmt.Fprintf(w, "live\t%d\n", st.LiveCount)
		fmt.Fprintf(w, "free\t%d\n", st.FreeCount)
		fmt.Fprintf(w, "next label\t%d\n", st.NextLabel)
		fmt.Fprintf(w, "memory\t%d bytes\n", st.MemoryBytes)
		return w.Flush()
	},
}

var snapshotListCmd = &cobra.Command{
	Use:   "list [PREFIX]",
	Short: "List snapshots",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		store, err := cfg.OpenStore(cmd.Context())
		if err != nil {
			return err
		}
		prefix := ""
		if len(args) == 1 {
			prefix = args[0]
		}
		names, err := store.List(cmd.Context(), prefix)
		if err != nil {
			return err
		}
		for _, name := range names {
			fmt.Fprintln(cmd.OutOrStdout(), name)
		}
		return nil
	},
}

var snapshotDeleteCmd = &cobra.Command{
	Use:   "delete NAME",
	Short: "Delete snapshot NAME",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		store, err := cfg.OpenStore(cmd.Context())
		if err != nil {
			return err
		}
		return store.Delete(cmd.Context(), args[0])
	},
}

func init() {
	f := snapshotCreateCmd.Flags()
	f.IntVarP(&createN, "n", "n", 10000, "number of random vectors")
	f.Int64Var(&createSeed, "seed", 42, "random seed")
	f.Int("dim", 0, "vector dimension (overrides config)")
	f.String("metric", "", "metric (overrides config)")

	snapshotCmd.AddCommand(snapshotCreateCmd, snapshotInspectCmd, snapshotListCmd, snapshotDeleteCmd)
}
