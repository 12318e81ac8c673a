package workload

import (
	"errors"
	"fmt"

	"github.com/hupe1980/hitaccum/accum"
	"github.com/hupe1980/hitaccum/boundary"
)

// ErrInvalidConfig is returned for unusable generator settings.
var ErrInvalidConfig = errors.New("workload: invalid config")

// Config describes a synthetic workload.
type Config struct {
	Queries int   // number of query sequences
	Targets int   // number of target sequences
	MinLen  int   // minimum sequence length (inclusive)
	MaxLen  int   // maximum sequence length (exclusive)
	K       int   // hits per query embedding
	Seed    int64 // RNG seed

	// PaddingEvery, when > 0, replaces every n-th hit with a padding slot.
	PaddingEvery int
}

// DefaultConfig returns a small workload suitable for tests.
func DefaultConfig() Config {
	return Config{
		Queries: 20,
		Targets: 50,
		MinLen:  5,
		MaxLen:  40,
		K:       10,
		Seed:    42,
	}
}

func (c Config) validate() error {
	switch {
	case c.Queries < 1 || c.Targets < 1:
		return fmt.Errorf("%w: need at least one query and one target sequence", ErrInvalidConfig)
	case c.MinLen < 1:
		return fmt.Errorf("%w: min length must be positive", ErrInvalidConfig)
	case c.K < 1:
		return fmt.Errorf("%w: k must be positive", ErrInvalidConfig)
	case c.PaddingEvery < 0:
		return fmt.Errorf("%w: padding interval must be non-negative", ErrInvalidConfig)
	}
	return nil
}

// Workload is a generated hit matrix plus its boundary tables.
type Workload struct {
	Hits accum.Hits

	// QueryStarts and TargetStarts are full offset tables, including the
	// terminal total.
	QueryStarts  []int64
	TargetStarts []int64

	Query  boundary.Index
	Target boundary.Index
}

// Generate builds a workload from cfg.
func Generate(cfg Config) (*Workload, error) {
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	rng := NewRNG(cfg.Seed)

	queryStarts := offsets(rng.Lengths(cfg.Queries, cfg.MinLen, cfg.MaxLen))
	targetStarts := offsets(rng.Lengths(cfg.Targets, cfg.MinLen, cfg.MaxLen))

	rows := int(queryStarts[len(queryStarts)-1])
	totalTargets := targetStarts[len(targetStarts)-1]

	scores := make([]float32, rows*cfg.K)
	indices := make([]int64, rows*cfg.K)
	rng.FillUniform(scores)
	rng.FillIndices(indices, totalTargets)

	if cfg.PaddingEvery > 0 {
		for i := cfg.PaddingEvery - 1; i < len(indices); i += cfg.PaddingEvery {
			indices[i] = accum.PaddingIndex
		}
	}

	hits, err := accum.NewHits(scores, indices, rows)
	if err != nil {
		return nil, err
	}
	query, err := boundary.NewOffsets(queryStarts)
	if err != nil {
		return nil, err
	}
	target, err := boundary.NewOffsets(targetStarts)
	if err != nil {
		return nil, err
	}

	return &Workload{
		Hits:         hits,
		QueryStarts:  queryStarts,
		TargetStarts: targetStarts,
		Query:        query,
		Target:       target,
	}, nil
}

func offsets(lengths []int) []int64 {
	starts := make([]int64, len(lengths)+1)
	for i, n := range lengths {
		starts[i+1] = starts[i] + int64(n)
	}
	return starts
}

// ExplicitIDs expands an offsets table into one sequence id per embedding.
func ExplicitIDs(starts []int64) []int64 {
	if len(starts) == 0 {
		return nil
	}
	ids := make([]int64, 0, starts[len(starts)-1])
	for seq := 0; seq+1 < len(starts); seq++ {
		for range starts[seq+1] - starts[seq] {
			ids = append(ids, int64(seq))
		}
	}
	return ids
}
