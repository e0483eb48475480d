package trace_test

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"github.com/rill-lang/rill/runtime/trace"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWriterInlineOutput(t *testing.T) {
	var buf bytes.Buffer
	w := trace.NewWriter(&buf)

	rec, err := w.Record("Fs", "read_file", trace.ModeBorrow, []string{"/etc/hosts"}, []byte("hello"), 5*time.Microsecond)
	require.NoError(t, err)
	assert.Equal(t, 1, rec.Seq)
	assert.Equal(t, "hello", rec.Output)
	assert.True(t, rec.Inline())
	assert.Empty(t, rec.Sha256)
}

func TestWriterLargeOutputIsDigested(t *testing.T) {
	var buf bytes.Buffer
	w := trace.NewWriter(&buf)

	big := bytes.Repeat([]byte("x"), trace.InlineOutputLimit+1)
	rec, err := w.Record("Net", "fetch", trace.ModeBorrow, nil, big, time.Millisecond)
	require.NoError(t, err)
	assert.False(t, rec.Inline())
	assert.Empty(t, rec.Output)
	assert.Len(t, rec.Sha256, 64)
	assert.Equal(t, len(big), rec.Size)
}

func TestWriterSequenceIncrements(t *testing.T) {
	var buf bytes.Buffer
	w := trace.NewWriter(&buf)

	for i := 1; i <= 3; i++ {
		rec, err := w.Record("Time", "now", trace.ModeBorrow, nil, nil, 0)
		require.NoError(t, err)
		assert.Equal(t, i, rec.Seq)
	}
}

func TestRoundTripThroughReplayer(t *testing.T) {
	var buf bytes.Buffer
	w := trace.NewWriter(&buf)
	first, err := w.Record("Fs", "read_file", trace.ModeBorrow, []string{"a.txt"}, []byte("contents"), 3*time.Microsecond)
	require.NoError(t, err)
	_, err = w.Record("Fs", "close", trace.ModeConsume, []string{"a.txt"}, nil, time.Microsecond)
	require.NoError(t, err)

	rp, err := trace.NewReplayer(&buf)
	require.NoError(t, err)
	require.Equal(t, 2, rp.Len())

	got, err := rp.Next("Fs", "read_file", []string{"a.txt"})
	require.NoError(t, err)
	// Time survives JSON at reduced precision; everything else must
	// come back exactly.
	if diff := cmp.Diff(first, got, cmpopts.EquateApproxTime(time.Second)); diff != "" {
		t.Errorf("record changed across round trip (-want +got):\n%s", diff)
	}

	_, err = rp.Next("Fs", "close", []string{"a.txt"})
	require.NoError(t, err)
	assert.Equal(t, 0, rp.Remaining())
}

func TestReplayDivergence(t *testing.T) {
	cases := map[string]struct {
		effect string
		op     string
		args   []string
	}{
		"wrong effect": {"Net", "read_file", []string{"a.txt"}},
		"wrong op":     {"Fs", "delete", []string{"a.txt"}},
		"wrong args":   {"Fs", "read_file", []string{"b.txt"}},
	}
	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			var buf bytes.Buffer
			w := trace.NewWriter(&buf)
			_, err := w.Record("Fs", "read_file", trace.ModeBorrow, []string{"a.txt"}, nil, 0)
			require.NoError(t, err)

			rp, err := trace.NewReplayer(&buf)
			require.NoError(t, err)
			_, err = rp.Next(tc.effect, tc.op, tc.args)
			assert.Error(t, err)
			assert.Equal(t, 1, rp.Remaining(), "a diverged request must not consume the record")
		})
	}
}

func TestReplayExhausted(t *testing.T) {
	rp, err := trace.NewReplayer(strings.NewReader(""))
	require.NoError(t, err)
	_, err = rp.Next("Fs", "read_file", nil)
	assert.ErrorContains(t, err, "exhausted")
}

func TestReplayerRejectsOutOfOrderSeq(t *testing.T) {
	in := `{"seq":1,"effect":"Fs","op":"a","mode":"borrow","elapsed_us":0}
{"seq":3,"effect":"Fs","op":"b","mode":"borrow","elapsed_us":0}
`
	_, err := trace.NewReplayer(strings.NewReader(in))
	assert.ErrorContains(t, err, "out of order")
}

func TestReplayerSkipsBlankLines(t *testing.T) {
	in := `{"seq":1,"effect":"Fs","op":"a","mode":"borrow","elapsed_us":0}

{"seq":2,"effect":"Fs","op":"b","mode":"borrow","elapsed_us":0}
`
	rp, err := trace.NewReplayer(strings.NewReader(in))
	require.NoError(t, err)
	assert.Equal(t, 2, rp.Len())
}

func TestReplayerRejectsMalformedLine(t *testing.T) {
	_, err := trace.NewReplayer(strings.NewReader("not json\n"))
	assert.Error(t, err)
}
