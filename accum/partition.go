package accum

// Range is a half-open range of query rows [Start, End).
type Range struct {
	Start, End int
}

// Len returns the number of rows in the range.
func (r Range) Len() int { return r.End - r.Start }

// Partition splits rows into at most workers contiguous ranges whose sizes
// differ by at most one; the first rows%workers ranges get the extra row.
// The worker count is clamped to rows so no range is empty, except that a
// single empty range is returned when rows is 0.
func Partition(rows, workers int) []Range {
	if workers < 1 {
		workers = 1
	}
	if rows <= 0 {
		return []Range{{0, 0}}
	}
	if workers > rows {
		workers = rows
	}

	base, extra := rows/workers, rows%workers
	ranges := make([]Range, workers)
	start := 0
	for i := range ranges {
		n := base
		if i < extra {
			n++
		}
		ranges[i] = Range{Start: start, End: start + n}
		start += n
	}
	return ranges
}
