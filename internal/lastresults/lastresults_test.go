package lastresults

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseNumbers(t *testing.T) {
	tests := []struct {
		in   string
		want []int
	}{
		{"1", []int{1}},
		{"1,3,5", []int{1, 3, 5}},
		{"2-4", []int{2, 3, 4}},
		{"1,3-5,7", []int{1, 3, 4, 5, 7}},
		{"3 1 3", []int{3, 1}},
	}
	for _, tt := range tests {
		got, err := ParseNumbers(tt.in)
		require.NoError(t, err, tt.in)
		assert.Equal(t, tt.want, got, tt.in)
	}

	for _, bad := range []string{"", "0", "a", "5-2", "0-3", "1-x", "1-5000", ","} {
		_, err := ParseNumbers(bad)
		assert.ErrorIs(t, err, ErrInvalidNumber, bad)
	}
}

func TestParseRef(t *testing.T) {
	assert.True(t, IsRef("@2"))
	assert.False(t, IsRef("pdf-tools"))

	nums, err := ParseRef(" @1-2 ")
	require.NoError(t, err)
	assert.Equal(t, []int{1, 2}, nums)

	_, err = ParseRef("2")
	assert.ErrorIs(t, err, ErrInvalidNumber)
}

func TestWriteReadAndLookup(t *testing.T) {
	state := filepath.Join(t.TempDir(), "state", "state.json")
	path := Path(state)
	assert.Equal(t, filepath.Join(filepath.Dir(state), "last-results.json"), path)

	_, err := Read(path)
	assert.ErrorIs(t, err, ErrNoLastResults)

	lr := &LastResults{
		Source:    "list",
		Timestamp: time.Date(2026, 5, 1, 10, 0, 0, 0, time.UTC),
		Results: []Entry{
			{Num: 1, ID: "id-a", SkillKey: "alpha"},
			{Num: 2, ID: "id-b", SkillKey: "beta"},
		},
	}
	require.NoError(t, Write(path, lr))

	got, err := Read(path)
	require.NoError(t, err)
	assert.Equal(t, lr, got)

	entries, err := got.GetByNumbers([]int{2, 1})
	require.NoError(t, err)
	assert.Equal(t, "beta", entries[0].SkillKey)
	assert.Equal(t, "alpha", entries[1].SkillKey)

	_, err = got.GetByNumbers([]int{3})
	assert.ErrorIs(t, err, ErrNumberOutOfRange)
}
