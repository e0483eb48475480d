package types

import (
	"sort"
	"strings"

	"github.com/xtgo/set"
)

// NoTail marks a closed effect row.
const NoTail = -1

// Row is an effect row: a canonical (sorted, duplicate-free) set of
// effect tags plus an optional tail variable standing for an unknown
// remainder. A closed row (Tail == NoTail) is fully known; an open row
// is resolved by unification.
type Row struct {
	Tags []string
	Tail int
}

// EmptyRow is the closed row of a pure expression.
func EmptyRow() Row { return Row{Tail: NoTail} }

// ClosedRow builds a canonical closed row from the given tags.
func ClosedRow(tags ...string) Row {
	return Row{Tags: canonTags(tags), Tail: NoTail}
}

// OpenRow builds a row with the given tags and tail variable.
func OpenRow(tail int, tags ...string) Row {
	return Row{Tags: canonTags(tags), Tail: tail}
}

func canonTags(tags []string) []string {
	if len(tags) == 0 {
		return nil
	}
	data := append([]string(nil), tags...)
	sort.Strings(data)
	n := set.Uniq(sort.StringSlice(data))
	return data[:n]
}

// Open reports whether the row has an unresolved tail.
func (r Row) Open() bool { return r.Tail != NoTail }

// Empty reports whether the row is closed with no tags.
func (r Row) Empty() bool { return len(r.Tags) == 0 && !r.Open() }

// Has reports whether the concrete part contains tag.
func (r Row) Has(tag string) bool {
	i := sort.SearchStrings(r.Tags, tag)
	return i < len(r.Tags) && r.Tags[i] == tag
}

func (r Row) String() string {
	var parts []string
	parts = append(parts, r.Tags...)
	if r.Open() {
		parts = append(parts, "..")
	}
	return "{" + strings.Join(parts, ", ") + "}"
}

// RowEqual is structural equality on rows: same concrete set, same
// tail variable (or both closed).
func RowEqual(a, b Row) bool {
	if a.Tail != b.Tail || len(a.Tags) != len(b.Tags) {
		return false
	}
	for i := range a.Tags {
		if a.Tags[i] != b.Tags[i] {
			return false
		}
	}
	return true
}

// UnionTags returns the canonical union of two concrete tag sets.
// Union on the concrete part is commutative and idempotent.
func UnionTags(a, b []string) []string {
	if len(a) == 0 {
		return append([]string(nil), b...)
	}
	if len(b) == 0 {
		return append([]string(nil), a...)
	}
	data := make([]string, 0, len(a)+len(b))
	data = append(data, a...)
	pivot := len(data)
	data = append(data, b...)
	n := set.Union(sort.StringSlice(data), pivot)
	return data[:n]
}

// DiffTags returns the canonical set a \ b.
func DiffTags(a, b []string) []string {
	if len(a) == 0 || len(b) == 0 {
		return append([]string(nil), a...)
	}
	data := make([]string, 0, len(a)+len(b))
	data = append(data, a...)
	pivot := len(data)
	data = append(data, b...)
	n := set.Diff(sort.StringSlice(data), pivot)
	return data[:n]
}

// SubsetTags reports whether every tag of a is present in b.
func SubsetTags(a, b []string) bool {
	return len(DiffTags(a, b)) == 0
}

// TagsEqual reports whether two canonical tag sets are identical.
func TagsEqual(a, b []string) bool {
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
