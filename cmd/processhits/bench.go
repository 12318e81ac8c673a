package main

import (
	"errors"
	"fmt"
	"text/tabwriter"
	"time"

	"github.com/cespare/xxhash/v2"
	"github.com/hupe1980/hitaccum"
	"github.com/hupe1980/hitaccum/accum"
	"github.com/hupe1980/hitaccum/blobstore"
	"github.com/hupe1980/hitaccum/workload"
	"github.com/spf13/cobra"
)

// ErrOutputMismatch is returned by bench when thread counts disagree.
var ErrOutputMismatch = errors.New("outputs differ between thread counts")

func NewBenchCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "bench",
		Short: "Run a synthetic workload at several thread counts",
		Long: `Generates a workload in memory, processes it once per --threads value and
prints durations and an xxhash64 digest of each output. Fails if any two
digests differ.`,
		Args: cobra.NoArgs,
		RunE: runBench,
	}

	addWorkloadFlags(cmd)
	f := cmd.Flags()
	f.IntSlice("threads", []int{1, 2, 4, 8}, "Thread counts to compare")
	f.Float32("bias", 0.45, "Bias subtracted from every score")
	f.String("mode", "all", "Contribution mode (all|best-per-row)")
	f.String("format", "tsv", "Output format (tsv|jsonl)")

	return cmd
}

func runBench(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()
	f := cmd.Flags()
	threads, _ := f.GetIntSlice("threads")
	bias, _ := f.GetFloat32("bias")
	modeName, _ := f.GetString("mode")
	format, _ := f.GetString("format")

	mode, err := accum.ParseMode(modeName)
	if err != nil {
		return err
	}
	if len(threads) == 0 {
		return errors.New("at least one thread count is required")
	}
	logger, err := newLogger(cmd, "", "")
	if err != nil {
		return err
	}

	w, err := workload.Generate(workloadConfig(cmd))
	if err != nil {
		return err
	}

	tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
	fmt.Fprintf(tw, "threads\trecords\taccumulate\tmerge\twrite\ttotal\tdigest\n")

	var first uint64
	mismatch := false
	for i, n := range threads {
		store := blobstore.NewMemoryStore()
		s, err := hitaccum.ProcessHitsToStore(ctx, w.Hits, w.Query, w.Target, store, "bench."+format,
			hitaccum.WithNumThreads(n),
			hitaccum.WithBias(bias),
			hitaccum.WithMode(mode),
			hitaccum.WithFormat(format),
			hitaccum.WithLogger(logger),
		)
		if err != nil {
			return fmt.Errorf("threads=%d: %w", n, err)
		}
		data, err := blobstore.ReadAll(ctx, store, "bench."+format)
		if err != nil {
			return err
		}
		digest := xxhash.Sum64(data)
		if i == 0 {
			first = digest
		} else if digest != first {
			mismatch = true
		}
		fmt.Fprintf(tw, "%d\t%d\t%s\t%s\t%s\t%s\t%016x\n",
			n, s.Records,
			s.AccumulateDuration.Round(time.Microsecond),
			s.MergeDuration.Round(time.Microsecond),
			s.WriteDuration.Round(time.Microsecond),
			s.TotalDuration.Round(time.Microsecond),
			digest,
		)
	}
	if err := tw.Flush(); err != nil {
		return err
	}
	if mismatch {
		return ErrOutputMismatch
	}
	return nil
}
