package main

import (
	"fmt"
	"os"

	"github.com/hupe1980/hitaccum/blobstore"
	"github.com/hupe1980/hitaccum/npy"
	"github.com/hupe1980/hitaccum/workload"
	"github.com/spf13/cobra"
)

func NewSynthCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "synth",
		Short: "Generate a seeded synthetic workload",
		Long: `Writes scores.npy, indices.npy, query_offsets.npy and target_offsets.npy.

Scores are uniform in [0,1), target indices uniform over all target
embeddings and sequence lengths uniform in [min-len, max-len).`,
		Args: cobra.NoArgs,
		RunE: runSynth,
	}

	addWorkloadFlags(cmd)
	cmd.Flags().String("out-dir", ".", "Directory for the generated arrays")
	cmd.Flags().String("compress", "", "Compression suffix for the arrays (gz|zst|lz4)")

	return cmd
}

func addWorkloadFlags(cmd *cobra.Command) {
	d := workload.DefaultConfig()
	f := cmd.Flags()
	f.Int("queries", d.Queries, "Number of query sequences")
	f.Int("targets", d.Targets, "Number of target sequences")
	f.Int("min-len", d.MinLen, "Minimum sequence length (inclusive)")
	f.Int("max-len", d.MaxLen, "Maximum sequence length (exclusive)")
	f.Int("hits", d.K, "Hits per query embedding (k)")
	f.Int64("seed", d.Seed, "Random seed")
	f.Int("padding-every", 0, "Replace every n-th hit with a padding slot")
}

func workloadConfig(cmd *cobra.Command) workload.Config {
	f := cmd.Flags()
	var cfg workload.Config
	cfg.Queries, _ = f.GetInt("queries")
	cfg.Targets, _ = f.GetInt("targets")
	cfg.MinLen, _ = f.GetInt("min-len")
	cfg.MaxLen, _ = f.GetInt("max-len")
	cfg.K, _ = f.GetInt("hits")
	cfg.Seed, _ = f.GetInt64("seed")
	cfg.PaddingEvery, _ = f.GetInt("padding-every")
	return cfg
}

func runSynth(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()
	dir, _ := cmd.Flags().GetString("out-dir")
	suffix, _ := cmd.Flags().GetString("compress")
	if suffix != "" {
		suffix = "." + suffix
	}

	w, err := workload.Generate(workloadConfig(cmd))
	if err != nil {
		return err
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}

	store := blobstore.NewLocalStore(dir)
	shape := []int{w.Hits.Rows, w.Hits.K}
	arrays := []struct {
		name  string
		shape []int
		data  any
	}{
		{"scores.npy", shape, w.Hits.Scores},
		{"indices.npy", shape, w.Hits.Indices},
		{"query_offsets.npy", []int{len(w.QueryStarts)}, w.QueryStarts},
		{"target_offsets.npy", []int{len(w.TargetStarts)}, w.TargetStarts},
	}
	for _, a := range arrays {
		name := a.name + suffix
		if err := npy.Save(ctx, store, name, a.shape, a.data); err != nil {
			return fmt.Errorf("write %s: %w", name, err)
		}
		fmt.Fprintln(cmd.OutOrStdout(), store.URI(name))
	}
	return nil
}
