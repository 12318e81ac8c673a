package accum

import (
	"cmp"
	"context"
	"fmt"
	"log/slog"
	"slices"
	"strings"
	"time"

	"github.com/hupe1980/hitaccum/boundary"
	"github.com/hupe1980/hitaccum/resource"
	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"
)

// checkEvery is the number of rows between cancellation checks.
const checkEvery = 1024

// Mode selects how hits of one query row contribute.
type Mode uint8

const (
	// ModeAllHits folds every accepted hit into its pair.
	ModeAllHits Mode = iota
	// ModeBestPerRow folds, per query row, only the best accepted hit of
	// each target sequence. Count then counts rows rather than hits.
	ModeBestPerRow
)

// String returns the flag/config name of the mode.
func (m Mode) String() string {
	switch m {
	case ModeAllHits:
		return "all"
	case ModeBestPerRow:
		return "best-per-row"
	default:
		return fmt.Sprintf("mode(%d)", uint8(m))
	}
}

// ParseMode parses "all" or "best-per-row".
func ParseMode(s string) (Mode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "all", "all-hits":
		return ModeAllHits, nil
	case "best-per-row", "best":
		return ModeBestPerRow, nil
	default:
		return 0, fmt.Errorf("accum: unknown mode %q (want all or best-per-row)", s)
	}
}

// Config controls Accumulate.
type Config struct {
	// Workers is the number of parallel workers (>= 1).
	Workers int

	// Filter holds the call-wide bias.
	Filter Filter

	// Mode selects per-row contribution semantics.
	Mode Mode

	// Budget charges aggregate memory. Nil means unlimited.
	Budget *resource.Controller

	// Logger receives throttled per-worker progress at debug level.
	// Nil disables progress logging.
	Logger *slog.Logger

	// ProgressInterval is the minimum time between progress lines of one
	// worker. Defaults to 10s.
	ProgressInterval time.Duration
}

// Accumulate runs one worker per partition and returns the worker-local
// maps, in partition order. Precondition violations are reported before any
// worker starts; any worker error cancels the others and is returned.
//
// On error all maps are released.
func Accumulate(ctx context.Context, hits Hits, query, target boundary.Index, cfg Config) ([]*PairMap, error) {
	if err := validateCall(hits, query, target, cfg.Workers); err != nil {
		return nil, err
	}
	if cfg.ProgressInterval <= 0 {
		cfg.ProgressInterval = 10 * time.Second
	}

	ranges := Partition(hits.Rows, cfg.Workers)
	maps := make([]*PairMap, len(ranges))
	for i := range maps {
		maps[i] = NewPairMap(cfg.Budget)
	}

	g, gctx := errgroup.WithContext(ctx)
	for i, r := range ranges {
		w := &worker{
			id:     i,
			hits:   hits,
			query:  query,
			target: target,
			cfg:    &cfg,
			out:    maps[i],
		}
		g.Go(func() error {
			return w.run(gctx, r)
		})
	}

	if err := g.Wait(); err != nil {
		for _, m := range maps {
			m.Release()
		}
		return nil, err
	}
	return maps, nil
}

// rowHit is an accepted hit buffered for ModeBestPerRow.
type rowHit struct {
	target int64
	score  float32
	q      uint64
}

type worker struct {
	id     int
	hits   Hits
	query  boundary.Index
	target boundary.Index
	cfg    *Config
	out    *PairMap

	scratch []rowHit
}

func (w *worker) run(ctx context.Context, r Range) error {
	progress := rate.Sometimes{Interval: w.cfg.ProgressInterval}
	logger := w.cfg.Logger

	for row := r.Start; row < r.End; row++ {
		if (row-r.Start)%checkEvery == 0 {
			if err := ctx.Err(); err != nil {
				return err
			}
			if logger != nil {
				progress.Do(func() {
					logger.DebugContext(ctx, "accumulate progress",
						"worker", w.id,
						"row", row-r.Start,
						"rows", r.Len(),
						"pairs", w.out.Len(),
					)
				})
			}
		}

		if err := w.processRow(row); err != nil {
			return err
		}
	}
	return nil
}

func (w *worker) processRow(row int) error {
	qseq, ok := w.query.Resolve(int64(row))
	if !ok {
		return &OutOfRangeError{Side: "query", Row: row, Index: int64(row), Limit: w.query.Len()}
	}

	scores, indices := w.hits.Row(row)
	stats := &w.out.Stats
	stats.Rows++
	w.scratch = w.scratch[:0]

	for col, idx := range indices {
		if idx < 0 {
			if idx == PaddingIndex {
				stats.Padding++
				continue
			}
			return &OutOfRangeError{Side: "target", Row: row, Col: col, Index: idx, Limit: w.target.Len()}
		}
		tseq, ok := w.target.Resolve(idx)
		if !ok {
			return &OutOfRangeError{Side: "target", Row: row, Col: col, Index: idx, Limit: w.target.Len()}
		}

		adjusted, accepted := w.cfg.Filter.Apply(scores[col])
		if !accepted {
			stats.Dropped++
			continue
		}
		q, ok := Quantize(adjusted)
		if !ok {
			return &ScoreError{Row: row, Col: col, Score: adjusted}
		}
		stats.Accepted++

		if w.cfg.Mode == ModeBestPerRow {
			w.scratch = append(w.scratch, rowHit{target: tseq, score: adjusted, q: q})
			continue
		}
		if err := w.out.Add(PairKey{Query: qseq, Target: tseq}, q, adjusted); err != nil {
			return err
		}
		stats.Contributed++
	}

	if w.cfg.Mode == ModeBestPerRow && len(w.scratch) > 0 {
		return w.flushBest(qseq)
	}
	return nil
}

// flushBest folds the best buffered hit of each target sequence.
func (w *worker) flushBest(qseq int64) error {
	slices.SortFunc(w.scratch, func(a, b rowHit) int {
		if c := cmp.Compare(a.target, b.target); c != 0 {
			return c
		}
		return cmp.Compare(b.score, a.score)
	})

	prev := int64(-1)
	for _, h := range w.scratch {
		if h.target == prev {
			continue
		}
		prev = h.target
		if err := w.out.Add(PairKey{Query: qseq, Target: h.target}, h.q, h.score); err != nil {
			return err
		}
		w.out.Stats.Contributed++
	}
	return nil
}
