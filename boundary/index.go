package boundary

import (
	"fmt"
	"strings"
)

// Kind identifies the representation backing an Index.
type Kind uint8

const (
	// KindOffsets is the sorted start-offset representation.
	KindOffsets Kind = iota
	// KindExplicit is the one-id-per-embedding representation.
	KindExplicit
)

// String returns the flag/config name of the kind.
func (k Kind) String() string {
	switch k {
	case KindOffsets:
		return "offsets"
	case KindExplicit:
		return "ids"
	default:
		return fmt.Sprintf("kind(%d)", uint8(k))
	}
}

// ParseKind parses a kind name ("offsets" or "ids").
func ParseKind(s string) (Kind, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "offsets", "starts", "":
		return KindOffsets, nil
	case "ids", "explicit":
		return KindExplicit, nil
	default:
		return 0, fmt.Errorf("boundary: unknown kind %q (want offsets or ids)", s)
	}
}

// Index resolves an embedding ordinal to its owning sequence id.
type Index interface {
	// Resolve returns the sequence owning ordinal. ok is false if ordinal is
	// outside [0, Len()).
	Resolve(ordinal int64) (seq int64, ok bool)

	// Len returns the total number of embeddings covered by the table.
	Len() int64

	// NumSequences returns the number of sequence ids the table can yield
	// (max id + 1).
	NumSequences() int64

	// Kind reports the representation chosen at construction.
	Kind() Kind
}

// New builds an Index of the given kind from raw values.
func New(kind Kind, values []int64) (Index, error) {
	switch kind {
	case KindOffsets:
		return NewOffsets(values)
	case KindExplicit:
		return NewExplicit(values)
	default:
		return nil, &ValidationError{Kind: kind, Position: -1, Reason: "unknown representation"}
	}
}

// Parse is New with a textual kind, as used by the CLI and config files.
func Parse(kind string, values []int64) (Index, error) {
	k, err := ParseKind(kind)
	if err != nil {
		return nil, err
	}
	return New(k, values)
}
