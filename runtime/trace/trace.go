// Package trace records and replays the host-boundary operations of a
// program run. Every capability operation appends one JSON line; a
// recorded trace can later stand in for the host, so a run can be
// reproduced without touching the outside world.
package trace

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"io"
	"sync"
	"time"
)

// Mode says how the operation used its capability.
type Mode string

const (
	ModeBorrow  Mode = "borrow"
	ModeConsume Mode = "consume"
)

// InlineOutputLimit is the largest output stored verbatim in a record.
// Bigger outputs are replaced by their digest and size.
const InlineOutputLimit = 4096

// Record is one host-boundary operation.
type Record struct {
	Seq     int       `json:"seq"`
	Time    time.Time `json:"time"`
	Effect  string    `json:"effect"`
	Op      string    `json:"op"`
	Mode    Mode      `json:"mode"`
	Args    []string  `json:"args,omitempty"`
	Output  string    `json:"output,omitempty"`
	Sha256  string    `json:"sha256,omitempty"`
	Size    int       `json:"size,omitempty"`
	Elapsed int64     `json:"elapsed_us"`
}

// Inline reports whether the record carries its output verbatim.
func (r Record) Inline() bool { return r.Sha256 == "" }

// Writer appends records to a JSON-lines stream. Safe for concurrent
// use.
type Writer struct {
	mu  sync.Mutex
	enc *json.Encoder
	seq int
}

func NewWriter(w io.Writer) *Writer {
	return &Writer{enc: json.NewEncoder(w)}
}

// Record appends one operation and returns the record as written.
func (w *Writer) Record(effect, op string, mode Mode, args []string, output []byte, elapsed time.Duration) (Record, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.seq++
	rec := Record{
		Seq:     w.seq,
		Time:    time.Now().UTC(),
		Effect:  effect,
		Op:      op,
		Mode:    mode,
		Args:    args,
		Elapsed: elapsed.Microseconds(),
	}
	if len(output) <= InlineOutputLimit {
		rec.Output = string(output)
	} else {
		sum := sha256.Sum256(output)
		rec.Sha256 = hex.EncodeToString(sum[:])
		rec.Size = len(output)
	}
	return rec, w.enc.Encode(rec)
}
