package main

import (
	"context"
	"errors"
	"fmt"

	"github.com/hupe1980/hitaccum/accum"
	"github.com/hupe1980/hitaccum/blobstore"
	"github.com/hupe1980/hitaccum/boundary"
	"github.com/hupe1980/hitaccum/internal/config"
	"github.com/hupe1980/hitaccum/npy"
)

// inputs are the decoded arrays of one run. Hits may alias memory-mapped
// files and are valid until Close.
type inputs struct {
	ctx    context.Context
	store  blobstore.BlobStore
	hits   accum.Hits
	query  boundary.Index
	target boundary.Index
	files  []*npy.File
}

func (in *inputs) Close() error {
	var errs []error
	for _, f := range in.files {
		errs = append(errs, f.Close())
	}
	return errors.Join(errs...)
}

func (in *inputs) open(path string) (*npy.File, error) {
	f, err := npy.Open(in.ctx, in.store, path)
	if err != nil {
		return nil, err
	}
	in.files = append(in.files, f)
	return f, nil
}

// loadInputs opens the four arrays named by cfg from store. queryTotal and
// targetTotal, when positive, mark offsets tables that omit their terminal
// total.
func loadInputs(ctx context.Context, store blobstore.BlobStore, cfg config.InputConfig, queryTotal, targetTotal int64) (_ *inputs, err error) {
	in := &inputs{ctx: ctx, store: store}
	defer func() {
		if err != nil {
			_ = in.Close()
		}
	}()

	sf, err := in.open(cfg.Scores)
	if err != nil {
		return nil, err
	}
	xf, err := in.open(cfg.Indices)
	if err != nil {
		return nil, err
	}
	if len(sf.Shape) != 2 {
		return nil, fmt.Errorf("%s: want a 2-d array, have shape %v", cfg.Scores, sf.Shape)
	}
	if len(xf.Shape) != 2 || xf.Shape[0] != sf.Shape[0] || xf.Shape[1] != sf.Shape[1] {
		return nil, fmt.Errorf("%s: shape %v does not match scores shape %v", cfg.Indices, xf.Shape, sf.Shape)
	}

	scores, err := sf.Float32s()
	if err != nil {
		return nil, fmt.Errorf("%s: %w", cfg.Scores, err)
	}
	indices, err := xf.Int64s()
	if err != nil {
		return nil, fmt.Errorf("%s: %w", cfg.Indices, err)
	}
	in.hits, err = accum.NewHits(scores, indices, sf.Shape[0])
	if err != nil {
		return nil, err
	}

	in.query, err = in.boundary(cfg.QueryBoundary, cfg.QueryKind, queryTotal)
	if err != nil {
		return nil, err
	}
	in.target, err = in.boundary(cfg.TargetBoundary, cfg.TargetKind, targetTotal)
	if err != nil {
		return nil, err
	}
	return in, nil
}

func (in *inputs) boundary(path, kind string, total int64) (boundary.Index, error) {
	f, err := in.open(path)
	if err != nil {
		return nil, err
	}
	values, err := f.Int64s()
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}

	k, err := boundary.ParseKind(kind)
	if err != nil {
		return nil, err
	}
	if k == boundary.KindOffsets && total > 0 {
		idx, err := boundary.FromStarts(values, total)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", path, err)
		}
		return idx, nil
	}
	idx, err := boundary.New(k, values)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return idx, nil
}
