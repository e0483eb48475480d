package types_test

import (
	"testing"

	"github.com/rill-lang/rill/frontend/types"
	"github.com/stretchr/testify/assert"
)

func TestClosedRowCanonicalises(t *testing.T) {
	r := types.ClosedRow("Net", "Fs", "Net", "Fs")
	assert.Equal(t, []string{"Fs", "Net"}, r.Tags)
	assert.False(t, r.Open())
}

func TestEmptyRow(t *testing.T) {
	r := types.EmptyRow()
	assert.True(t, r.Empty())
	assert.False(t, r.Open())
	assert.Equal(t, "{}", r.String())

	open := types.OpenRow(0)
	assert.False(t, open.Empty(), "an open row may still grow tags")
}

func TestRowHas(t *testing.T) {
	r := types.ClosedRow("Fs", "Time")
	assert.True(t, r.Has("Fs"))
	assert.False(t, r.Has("Net"))
}

func TestUnionTags(t *testing.T) {
	got := types.UnionTags([]string{"Fs", "Net"}, []string{"Net", "Time"})
	assert.Equal(t, []string{"Fs", "Net", "Time"}, got)
}

func TestUnionTagsEmptySides(t *testing.T) {
	assert.Equal(t, []string{"Fs"}, types.UnionTags(nil, []string{"Fs"}))
	assert.Equal(t, []string{"Fs"}, types.UnionTags([]string{"Fs"}, nil))
	assert.Empty(t, types.UnionTags(nil, nil))
}

func TestDiffTags(t *testing.T) {
	got := types.DiffTags([]string{"Fs", "Net", "Time"}, []string{"Net"})
	assert.Equal(t, []string{"Fs", "Time"}, got)

	assert.Empty(t, types.DiffTags([]string{"Fs"}, []string{"Fs", "Net"}))
}

func TestSubsetTags(t *testing.T) {
	assert.True(t, types.SubsetTags([]string{"Fs"}, []string{"Fs", "Net"}))
	assert.True(t, types.SubsetTags(nil, nil))
	assert.False(t, types.SubsetTags([]string{"Time"}, []string{"Fs", "Net"}))
}

func TestRowEqual(t *testing.T) {
	assert.True(t, types.RowEqual(types.ClosedRow("Fs", "Net"), types.ClosedRow("Net", "Fs")))
	assert.False(t, types.RowEqual(types.ClosedRow("Fs"), types.OpenRow(1, "Fs")))
	assert.True(t, types.RowEqual(types.OpenRow(1, "Fs"), types.OpenRow(1, "Fs")))
	assert.False(t, types.RowEqual(types.OpenRow(1, "Fs"), types.OpenRow(2, "Fs")))
}
