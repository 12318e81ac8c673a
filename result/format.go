package result

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/hupe1980/hitaccum/codec"
)

// DefaultPrecision is the number of decimals of sum and max in TSV output.
const DefaultPrecision = 7

// Format serializes records line by line.
type Format interface {
	// Name returns the format name ("tsv", "jsonl").
	Name() string
	// AppendHeader appends the optional header line.
	AppendHeader(dst []byte) []byte
	// AppendRecord appends one line, including the trailing newline.
	AppendRecord(dst []byte, r Record) ([]byte, error)
}

// TSV writes "query\ttarget\tsum\tmax\tcount" lines.
type TSV struct {
	// Precision is the number of decimals; negative means DefaultPrecision.
	Precision int
	// IDBase is added to emitted sequence ids.
	IDBase int64
	// Header enables a leading "# query target sum max count" line.
	Header bool
}

// Name implements Format.
func (TSV) Name() string { return "tsv" }

// AppendHeader implements Format.
func (f TSV) AppendHeader(dst []byte) []byte {
	if !f.Header {
		return dst
	}
	return append(dst, "# query\ttarget\tsum\tmax\tcount\n"...)
}

// AppendRecord implements Format.
func (f TSV) AppendRecord(dst []byte, r Record) ([]byte, error) {
	prec := f.Precision
	if prec < 0 {
		prec = DefaultPrecision
	}
	dst = strconv.AppendInt(dst, r.Query+f.IDBase, 10)
	dst = append(dst, '\t')
	dst = strconv.AppendInt(dst, r.Target+f.IDBase, 10)
	dst = append(dst, '\t')
	dst = strconv.AppendFloat(dst, r.Sum, 'f', prec, 64)
	dst = append(dst, '\t')
	dst = strconv.AppendFloat(dst, float64(r.Max), 'f', prec, 64)
	dst = append(dst, '\t')
	dst = strconv.AppendUint(dst, r.Count, 10)
	return append(dst, '\n'), nil
}

// JSONL writes one JSON object per line.
type JSONL struct {
	// Codec encodes the objects; nil means codec.Default.
	Codec  codec.Codec
	IDBase int64
}

type jsonRecord struct {
	Query  int64   `json:"query"`
	Target int64   `json:"target"`
	Sum    float64 `json:"sum"`
	Max    float32 `json:"max"`
	Count  uint64  `json:"count"`
}

// Name implements Format.
func (JSONL) Name() string { return "jsonl" }

// AppendHeader implements Format. JSONL has no header.
func (JSONL) AppendHeader(dst []byte) []byte { return dst }

// AppendRecord implements Format.
func (f JSONL) AppendRecord(dst []byte, r Record) ([]byte, error) {
	dst, err := codec.Append(f.Codec, dst, jsonRecord{
		Query:  r.Query + f.IDBase,
		Target: r.Target + f.IDBase,
		Sum:    r.Sum,
		Max:    r.Max,
		Count:  r.Count,
	})
	if err != nil {
		return nil, err
	}
	return append(dst, '\n'), nil
}

// FormatOptions parameterizes FormatByName.
type FormatOptions struct {
	Precision int
	IDBase    int64
	Header    bool
	Codec     codec.Codec
}

// FormatByName returns the named format ("tsv" or "jsonl").
func FormatByName(name string, opts FormatOptions) (Format, error) {
	switch strings.ToLower(name) {
	case "", "tsv":
		return TSV{Precision: opts.Precision, IDBase: opts.IDBase, Header: opts.Header}, nil
	case "jsonl", "ndjson":
		return JSONL{Codec: opts.Codec, IDBase: opts.IDBase}, nil
	default:
		return nil, fmt.Errorf("result: unknown format %q (want tsv or jsonl)", name)
	}
}
