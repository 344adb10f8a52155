package progress

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPercentage(t *testing.T) {
	cases := []struct {
		done, total, want int
	}{
		{0, 0, 0},
		{3, 0, 0},
		{0, 4, 0},
		{1, 3, 33},
		{2, 3, 67},
		{1, 8, 13},
		{4, 4, 100},
		{5, 4, 100},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, Percentage(tc.done, tc.total), "done=%d total=%d", tc.done, tc.total)
	}
}

func TestSummarize(t *testing.T) {
	s := Summarize(4, 4)
	assert.True(t, s.Completed)
	assert.Equal(t, 100, s.Percentage)

	s = Summarize(0, 0)
	assert.False(t, s.Completed)
	assert.Equal(t, 0, s.Percentage)

	s = Summarize(-1, 2)
	assert.Equal(t, 0, s.Done)
	assert.False(t, s.Completed)
}
