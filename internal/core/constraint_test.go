package core

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"opkg/internal/types"
)

func TestParseAtom(t *testing.T) {
	tests := []struct {
		name   string
		input  string
		expect types.Constraint
	}{
		{
			name:   "bare name",
			input:  "libfoo",
			expect: types.Constraint{Name: "libfoo"},
		},
		{
			name:   "gte constraint",
			input:  "libfoo (>= 1.2.0)",
			expect: types.Constraint{Name: "libfoo", Op: types.ConstraintOpGte, Version: "1.2.0"},
		},
		{
			name:   "strictly less",
			input:  "libfoo (<< 2.0.0)",
			expect: types.Constraint{Name: "libfoo", Op: types.ConstraintOpLt, Version: "2.0.0"},
		},
		{
			name:   "strictly greater",
			input:  "libfoo (>> 1.0)",
			expect: types.Constraint{Name: "libfoo", Op: types.ConstraintOpGt, Version: "1.0"},
		},
		{
			name:   "equal",
			input:  "libfoo (= 1.2.3-1)",
			expect: types.Constraint{Name: "libfoo", Op: types.ConstraintOpEq, Version: "1.2.3-1"},
		},
		{
			name:   "multiarch suffix stripped",
			input:  "libfoo:amd64",
			expect: types.Constraint{Name: "libfoo"},
		},
		{
			name:   "arch qualifier stripped",
			input:  "libfoo (>= 1.0) [amd64]",
			expect: types.Constraint{Name: "libfoo", Op: types.ConstraintOpGte, Version: "1.0"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expect, ParseAtom(tt.input))
		})
	}
}

func TestParseAlternation(t *testing.T) {
	alt := ParseAlternation("libfoo | libbar (>= 2.0)")
	assert.Equal(t, []types.Constraint{
		{Name: "libfoo"},
		{Name: "libbar", Op: types.ConstraintOpGte, Version: "2.0"},
	}, alt.Options)
}

func TestParseAlternations(t *testing.T) {
	alts := ParseAlternations("libfoo, libbar (>= 2.0) | libbaz")
	assert := assert.New(t)
	assert.Len(alts, 2)
	assert.Equal("libfoo", alts[0].Options[0].Name)
	assert.Len(alts[1].Options, 2)
}

func TestParseAtoms(t *testing.T) {
	atoms := ParseAtoms("libfoo, libbar (= 1.0)")
	assert.Equal(t, []types.Constraint{
		{Name: "libfoo"},
		{Name: "libbar", Op: types.ConstraintOpEq, Version: "1.0"},
	}, atoms)
}
