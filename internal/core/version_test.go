package core

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"opkg/internal/types"
)

func TestCompare(t *testing.T) {
	tests := []struct {
		name   string
		a, b   string
		expect int
	}{
		{name: "equal", a: "1.0-1", b: "1.0-1", expect: 0},
		{name: "upstream greater", a: "1.1-1", b: "1.0-1", expect: 1},
		{name: "revision breaks tie", a: "1.0-2", b: "1.0-1", expect: 1},
		{name: "epoch dominates upstream", a: "1:0.1-1", b: "2.0-1", expect: 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cmp, err := Compare(tt.a, tt.b)
			require.NoError(t, err)
			if tt.expect > 0 {
				assert.Greater(t, cmp, 0)
			} else if tt.expect < 0 {
				assert.Less(t, cmp, 0)
			} else {
				assert.Equal(t, 0, cmp)
			}
		})
	}
}

func TestSatisfiesOp(t *testing.T) {
	cache := newVersionCache()
	ok, err := satisfiesOp(cache, "1.2-1", types.ConstraintOpGte, "1.0-1")
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = satisfiesOp(cache, "1.0-1", types.ConstraintOpGt, "1.0-1")
	require.NoError(t, err)
	assert.False(t, ok)

	ok, err = satisfiesOp(cache, "anything", types.ConstraintOpNone, "")
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestSortVersionsDescending(t *testing.T) {
	ordered := SortVersionsDescending([]string{"1.0-1", "2.0-1", "1.5-1"})
	assert.Equal(t, []string{"2.0-1", "1.5-1", "1.0-1"}, ordered)
}
