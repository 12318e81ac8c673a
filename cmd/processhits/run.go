package main

import (
	"fmt"
	"os"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/hupe1980/hitaccum"
	"github.com/hupe1980/hitaccum/accum"
	"github.com/hupe1980/hitaccum/blobstore"
	"github.com/hupe1980/hitaccum/blobstore/s3"
	"github.com/hupe1980/hitaccum/codec"
	"github.com/hupe1980/hitaccum/internal/config"
	"github.com/spf13/cobra"
)

func NewRunCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Aggregate a hit matrix into pair scores",
		Long: `Reads scores and indices (.npy, optionally .gz/.zst/.lz4 compressed) plus the
query and target boundary tables and writes the aggregated pair table.

Values from --config are used unless the corresponding flag is set.`,
		Example: `  processhits run --scores s.npy --indices i.npy \
    --query-boundary q.npy --target-boundary t.npy \
    --bias 0.45 --threads 8 --output pairs.tsv.zst`,
		Args: cobra.NoArgs,
		RunE: runProcess,
	}

	d := config.DefaultConfig()
	f := cmd.Flags()
	f.String("config", "", "YAML run configuration")
	f.String("scores", "", "Score matrix (.npy, float32, rows x k)")
	f.String("indices", "", "Index matrix (.npy, int64 or int32, rows x k)")
	f.String("query-boundary", "", "Query boundary table (.npy)")
	f.String("target-boundary", "", "Target boundary table (.npy)")
	f.String("query-kind", d.Input.QueryKind, "Query boundary representation (offsets|ids)")
	f.String("target-kind", d.Input.TargetKind, "Target boundary representation (offsets|ids)")
	f.Int64("query-total", 0, "Total query embeddings if the offsets table omits it")
	f.Int64("target-total", 0, "Total target embeddings if the offsets table omits it")
	f.Float32("bias", d.Bias, "Value subtracted from every score; only positive results count")
	f.Int("threads", d.Threads, "Number of accumulation workers")
	f.String("mode", d.Mode, "Contribution mode (all|best-per-row)")
	f.StringP("output", "o", "", "Output path, s3://bucket/key or minio://bucket/key")
	f.String("format", d.Output.Format, "Output format (tsv|jsonl)")
	f.Int("precision", d.Output.Precision, "Decimals of sum and max in TSV output")
	f.Int64("id-base", 0, "Offset added to emitted sequence ids")
	f.Bool("header", false, "Write a header line (TSV)")
	f.String("memory-limit", "", "Memory limit for aggregate maps, e.g. 8GiB")
	f.String("io-limit", "", "Output throughput limit per second, e.g. 50MB")
	f.String("summary", "", "Write a JSON run summary to this path (- for stdout)")
	f.String("ledger-table", "", "DynamoDB table for completion records of s3:// outputs")
	f.String("region", "", "AWS or MinIO region")
	f.String("minio-endpoint", "", "MinIO endpoint host:port")
	f.String("minio-access-key", "", "MinIO access key")
	f.String("minio-secret-key", "", "MinIO secret key")
	f.Bool("minio-secure", false, "Use TLS for MinIO")

	return cmd
}

// loadRunConfig reads --config and applies every flag the user set.
func loadRunConfig(cmd *cobra.Command) (*config.Config, error) {
	f := cmd.Flags()
	path, _ := f.GetString("config")
	cfg, err := config.Load(path)
	if err != nil {
		return nil, err
	}

	str := func(name string, dst *string) {
		if f.Changed(name) {
			*dst, _ = f.GetString(name)
		}
	}
	str("scores", &cfg.Input.Scores)
	str("indices", &cfg.Input.Indices)
	str("query-boundary", &cfg.Input.QueryBoundary)
	str("target-boundary", &cfg.Input.TargetBoundary)
	str("query-kind", &cfg.Input.QueryKind)
	str("target-kind", &cfg.Input.TargetKind)
	str("mode", &cfg.Mode)
	str("output", &cfg.Output.Path)
	str("format", &cfg.Output.Format)
	str("summary", &cfg.Output.Summary)
	str("ledger-table", &cfg.Output.LedgerTable)
	str("region", &cfg.Output.Region)
	str("memory-limit", &cfg.Limits.Memory)
	str("io-limit", &cfg.Limits.IO)
	str("minio-endpoint", &cfg.MinIO.Endpoint)
	str("minio-access-key", &cfg.MinIO.AccessKey)
	str("minio-secret-key", &cfg.MinIO.SecretKey)

	if f.Changed("bias") {
		cfg.Bias, _ = f.GetFloat32("bias")
	}
	if f.Changed("threads") {
		cfg.Threads, _ = f.GetInt("threads")
	}
	if f.Changed("precision") {
		cfg.Output.Precision, _ = f.GetInt("precision")
	}
	if f.Changed("id-base") {
		cfg.Output.IDBase, _ = f.GetInt64("id-base")
	}
	if f.Changed("header") {
		cfg.Output.Header, _ = f.GetBool("header")
	}
	if f.Changed("minio-secure") {
		cfg.MinIO.Secure, _ = f.GetBool("minio-secure")
	}

	return cfg, cfg.Validate()
}

func runProcess(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()

	cfg, err := loadRunConfig(cmd)
	if err != nil {
		return err
	}
	logger, err := newLogger(cmd, cfg.Log.Level, cfg.Log.Format)
	if err != nil {
		return err
	}
	mode, err := accum.ParseMode(cfg.Mode)
	if err != nil {
		return err
	}
	memLimit, _ := cfg.MemoryLimit()
	ioLimit, _ := cfg.IOLimit()

	queryTotal, _ := cmd.Flags().GetInt64("query-total")
	targetTotal, _ := cmd.Flags().GetInt64("target-total")
	in, err := loadInputs(ctx, blobstore.NewLocalStore(""), cfg.Input, queryTotal, targetTotal)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := openSink(ctx, cfg.Output, cfg.MinIO)
	if err != nil {
		return err
	}
	store := newDigestStore(out.store)

	summary, err := hitaccum.ProcessHitsToStore(ctx, in.hits, in.query, in.target, store, out.name,
		hitaccum.WithNumThreads(cfg.Threads),
		hitaccum.WithBias(cfg.Bias),
		hitaccum.WithMode(mode),
		hitaccum.WithFormat(cfg.Output.Format),
		hitaccum.WithPrecision(cfg.Output.Precision),
		hitaccum.WithIDBase(cfg.Output.IDBase),
		hitaccum.WithMemoryLimit(memLimit),
		hitaccum.WithIOLimit(ioLimit),
		hitaccum.WithLogger(logger),
		withHeader(cfg.Output.Header),
	)
	if err != nil {
		return err
	}

	if cfg.Output.LedgerTable != "" {
		if !out.s3 {
			logger.WarnContext(ctx, "ledger table ignored for non-s3 output", "output", summary.Output)
		} else if err := commitLedger(cmd, cfg.Output, summary, store.Digest()); err != nil {
			return err
		}
	}

	if cfg.Output.Summary != "" {
		if err := writeSummary(cmd, cfg.Output.Summary, summary); err != nil {
			return err
		}
	}

	fmt.Fprintf(cmd.OutOrStdout(), "wrote %s records (%s) to %s in %s\n",
		humanize.Comma(summary.Records),
		humanize.IBytes(uint64(summary.Bytes)),
		summary.Output,
		summary.TotalDuration.Round(time.Millisecond),
	)
	return nil
}

func withHeader(on bool) hitaccum.Option {
	if on {
		return hitaccum.WithHeader()
	}
	return nil
}

func commitLedger(cmd *cobra.Command, out config.OutputConfig, s *hitaccum.Summary, digest string) error {
	ledger, err := s3.NewLedgerFromConfig(cmd.Context(), out.LedgerTable, out.Region)
	if err != nil {
		return fmt.Errorf("ledger: %w", err)
	}
	return ledger.Commit(cmd.Context(), s3.Record{
		URI:         s.Output,
		Records:     s.Records,
		Bytes:       s.Bytes,
		Format:      s.Format,
		Digest:      digest,
		CompletedAt: time.Now(),
	})
}

func writeSummary(cmd *cobra.Command, path string, s *hitaccum.Summary) error {
	data, err := s.Marshal(codec.Default)
	if err != nil {
		return fmt.Errorf("summary: %w", err)
	}
	data = append(data, '\n')
	if path == "-" {
		_, err = cmd.OutOrStdout().Write(data)
		return err
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("summary: %w", err)
	}
	return nil
}
