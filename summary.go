package hitaccum

import (
	"time"

	"github.com/hupe1980/hitaccum/codec"
)

// Summary describes a completed call.
type Summary struct {
	Output      string `json:"output"`
	Format      string `json:"format"`
	Compression string `json:"compression"`
	Records     int64  `json:"records"`
	Bytes       int64  `json:"bytes"`

	Rows        uint64 `json:"rows"`
	Accepted    uint64 `json:"accepted_hits"`
	Contributed uint64 `json:"contributed_hits"`
	Dropped     uint64 `json:"dropped_hits"`
	Padding     uint64 `json:"padding_slots"`

	// QuerySequences and TargetSequences count the distinct sequences that
	// appear in at least one record.
	QuerySequences  uint64 `json:"query_sequences"`
	TargetSequences uint64 `json:"target_sequences"`

	Workers         int     `json:"workers"`
	Mode            string  `json:"mode"`
	Bias            float32 `json:"bias"`
	PeakMemoryBytes int64   `json:"peak_memory_bytes"`

	AccumulateDuration time.Duration `json:"accumulate_ns"`
	MergeDuration      time.Duration `json:"merge_ns"`
	SortDuration       time.Duration `json:"sort_ns"`
	WriteDuration      time.Duration `json:"write_ns"`
	TotalDuration      time.Duration `json:"total_ns"`
}

// Marshal encodes the summary with c (codec.Default if nil).
func (s *Summary) Marshal(c codec.Codec) ([]byte, error) {
	if c == nil {
		c = codec.Default
	}
	return c.Marshal(s)
}
