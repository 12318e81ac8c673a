package compression

import (
	"bytes"
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFromName(t *testing.T) {
	tests := []struct {
		name string
		want Type
	}{
		{"out.tsv", None},
		{"out.tsv.gz", Gzip},
		{"out.TSV.ZST", Zstd},
		{"s3://bucket/run/out.jsonl.lz4", LZ4},
		{"scores.npy.zstd", Zstd},
		{"noext", None},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, FromName(tt.name), tt.name)
	}

	assert.Equal(t, "out.tsv", TrimExt("out.tsv.gz"))
	assert.Equal(t, "out.tsv", TrimExt("out.tsv"))
}

func TestRoundTrip(t *testing.T) {
	payload := strings.Repeat("0\t1\t0.4000000\t0.4000000\t1\n", 500)

	for _, typ := range []Type{None, Gzip, Zstd, LZ4} {
		t.Run(typ.String(), func(t *testing.T) {
			var buf bytes.Buffer
			w, err := NewWriter(&buf, typ)
			require.NoError(t, err)
			_, err = io.WriteString(w, payload)
			require.NoError(t, err)
			require.NoError(t, w.Close())

			if typ != None {
				assert.Less(t, buf.Len(), len(payload))
			}

			r, err := NewReader(&buf, typ)
			require.NoError(t, err)
			got, err := io.ReadAll(r)
			require.NoError(t, err)
			require.NoError(t, r.Close())
			assert.Equal(t, payload, string(got))
		})
	}
}

func TestUnknownType(t *testing.T) {
	_, err := NewWriter(io.Discard, Type(99))
	require.ErrorIs(t, err, ErrUnknownType)

	_, err = NewReader(strings.NewReader(""), Type(99))
	require.ErrorIs(t, err, ErrUnknownType)
}
