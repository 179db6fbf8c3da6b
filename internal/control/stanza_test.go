package control

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReaderParsesMultipleStanzas(t *testing.T) {
	input := "Package: foo\nVersion: 1.0-1\n\nPackage: bar\nVersion: 2.0-1\n"
	stanzas, err := NewReader(strings.NewReader(input)).All()
	require.NoError(t, err)
	require.Len(t, stanzas, 2)
	assert.Equal(t, "foo", stanzas[0].Get("Package"))
	assert.Equal(t, "bar", stanzas[1].Get("Package"))
}

func TestReaderFoldsContinuationLines(t *testing.T) {
	input := "Package: foo\nDescription: short\n longer line one\n .\n longer line two\n\n"
	stanzas, err := NewReader(strings.NewReader(input)).All()
	require.NoError(t, err)
	require.Len(t, stanzas, 1)
	desc := stanzas[0].Get("Description")
	assert.Contains(t, desc, "short")
	assert.Contains(t, desc, "longer line one")
	assert.Contains(t, desc, "longer line two")
}

func TestReaderSkipsCommentsAndBlankRuns(t *testing.T) {
	input := "# comment\n\n\nPackage: foo\n\n"
	stanzas, err := NewReader(strings.NewReader(input)).All()
	require.NoError(t, err)
	require.Len(t, stanzas, 1)
	assert.Equal(t, "foo", stanzas[0].Get("Package"))
}

func TestWriteRoundTrips(t *testing.T) {
	s := NewStanza()
	s.Set("Package", "foo")
	s.Set("Version", "1.0-1")

	var buf strings.Builder
	require.NoError(t, Write(&buf, s))

	stanzas, err := NewReader(strings.NewReader(buf.String())).All()
	require.NoError(t, err)
	require.Len(t, stanzas, 1)
	assert.Equal(t, "foo", stanzas[0].Get("Package"))
	assert.Equal(t, "1.0-1", stanzas[0].Get("Version"))
}
