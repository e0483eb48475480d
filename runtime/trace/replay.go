package trace

import (
	"bufio"
	"encoding/json"
	"io"

	"github.com/pkg/errors"
)

// Replayer feeds a recorded trace back, one record per host operation.
// Each request must match the recorded effect, operation and arguments
// in order; any divergence means the program or its inputs changed
// since recording.
type Replayer struct {
	records []Record
	next    int
}

// NewReplayer decodes a JSON-lines trace. Sequence numbers must be
// contiguous starting at 1.
func NewReplayer(r io.Reader) (*Replayer, error) {
	rp := &Replayer{}
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)
	line := 0
	for sc.Scan() {
		line++
		if len(sc.Bytes()) == 0 {
			continue
		}
		var rec Record
		if err := json.Unmarshal(sc.Bytes(), &rec); err != nil {
			return nil, errors.Wrapf(err, "trace line %d", line)
		}
		if rec.Seq != len(rp.records)+1 {
			return nil, errors.Errorf("trace line %d: sequence %d out of order, want %d", line, rec.Seq, len(rp.records)+1)
		}
		rp.records = append(rp.records, rec)
	}
	if err := sc.Err(); err != nil {
		return nil, errors.Wrap(err, "read trace")
	}
	return rp, nil
}

// Len returns the number of records in the trace.
func (rp *Replayer) Len() int { return len(rp.records) }

// Records exposes the decoded records in order.
func (rp *Replayer) Records() []Record { return rp.records }

// Next matches the next recorded operation against the requested one
// and returns it. The caller substitutes the record's output for the
// real host call.
func (rp *Replayer) Next(effect, op string, args []string) (Record, error) {
	if rp.next >= len(rp.records) {
		return Record{}, errors.Errorf("trace exhausted: no record for %s.%s", effect, op)
	}
	rec := rp.records[rp.next]
	if rec.Effect != effect || rec.Op != op {
		return Record{}, errors.Errorf("trace diverged at seq %d: recorded %s.%s, got %s.%s",
			rec.Seq, rec.Effect, rec.Op, effect, op)
	}
	if !sameArgs(rec.Args, args) {
		return Record{}, errors.Errorf("trace diverged at seq %d: %s.%s called with different arguments",
			rec.Seq, effect, op)
	}
	rp.next++
	return rec, nil
}

// Remaining returns how many records were never consumed; a nonzero
// value after the program finishes means the run diverged by doing
// less than the recording.
func (rp *Replayer) Remaining() int { return len(rp.records) - rp.next }

func sameArgs(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
