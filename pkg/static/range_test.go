package static_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/relay/pkg/static"
)

func TestParseRange(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name      string
		header    string
		size      int64
		wantStart int64
		wantEnd   int64
		wantErr   bool
	}{
		{"full range", "bytes=0-99", 100, 0, 99, false},
		{"open end", "bytes=10-", 100, 10, 99, false},
		{"suffix", "bytes=-20", 100, 80, 99, false},
		{"suffix larger than file", "bytes=-500", 100, 0, 99, false},
		{"end clamped", "bytes=0-1000", 100, 0, 99, false},
		{"single byte", "bytes=5-5", 100, 5, 5, false},
		{"first half then second half", "bytes=0-49", 100, 0, 49, false},
		{"unit ignored", "items=0-9", 100, 0, 9, false},
		{"multiple ranges collapse to first", "bytes=0-9,20-29", 100, 0, 9, false},
		{"start past eof", "bytes=100-", 100, 0, 0, true},
		{"inverted", "bytes=30-10", 100, 0, 0, true},
		{"no equals", "bytes 0-9", 100, 0, 0, true},
		{"no dash", "bytes=42", 100, 0, 0, true},
		{"empty spec", "bytes=-", 100, 0, 0, true},
		{"garbage", "bytes=a-b", 100, 0, 0, true},
		{"negative start", "bytes=--5-10", 100, 0, 0, true},
		{"zero size suffix", "bytes=-5", 0, 0, 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			rng, err := static.ParseRange(tt.header, tt.size)
			if tt.wantErr {
				require.ErrorIs(t, err, static.ErrRange)
				return
			}
			require.NoError(t, err)
			require.Equal(t, tt.wantStart, rng.Start)
			require.Equal(t, tt.wantEnd, rng.End)
		})
	}
}

func TestRange_RoundTrip(t *testing.T) {
	t.Parallel()

	// Two adjacent ranges cover the whole file exactly once.
	const size = 137
	first, err := static.ParseRange("bytes=0-68", size)
	require.NoError(t, err)
	second, err := static.ParseRange("bytes=69-", size)
	require.NoError(t, err)

	require.EqualValues(t, 0, first.Start)
	require.Equal(t, first.End+1, second.Start)
	require.EqualValues(t, size-1, second.End)
	require.EqualValues(t, size, first.Length()+second.Length())
}
