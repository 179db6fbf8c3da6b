// Package control reads and writes deb822-style control stanzas: the
// concatenated RFC822-ish paragraphs used by Packages indexes, Release
// manifests, and per-destination status files.
package control

import (
	"bufio"
	"io"
	"strings"
	"unicode"

	"github.com/ZanzyTHEbar/errbuilder-go"
)

// Stanza is a single ordered set of fields. Order is preserved because
// a status-file rewrite must reproduce the field order the original
// writer used, and because some callers print fields in stanza order
// for diagnostics.
type Stanza struct {
	Order  []string
	Values map[string]string
}

// NewStanza returns an empty stanza ready for Set calls.
func NewStanza() *Stanza {
	return &Stanza{Values: map[string]string{}}
}

// Get returns a field's value, or "" if absent.
func (s *Stanza) Get(key string) string {
	return s.Values[key]
}

// Has reports whether key is present, distinguishing an absent field
// from one explicitly set to an empty value.
func (s *Stanza) Has(key string) bool {
	_, ok := s.Values[key]
	return ok
}

// Set assigns a field's value, appending it to Order on first use.
func (s *Stanza) Set(key, value string) {
	if s.Values == nil {
		s.Values = map[string]string{}
	}
	if _, ok := s.Values[key]; !ok {
		s.Order = append(s.Order, key)
	}
	s.Values[key] = value
}

// Reader parses a stream of stanzas separated by blank lines. Lines
// starting with "#" are treated as comments and skipped; continuation
// lines (starting with a space or tab) are folded into the previous
// field, joined by newlines, matching the deb822 multi-line field
// convention where a lone "." marks an empty continuation line.
type Reader struct {
	r *bufio.Reader
}

// NewReader wraps r for stanza-at-a-time parsing.
func NewReader(r io.Reader) *Reader {
	return &Reader{r: bufio.NewReader(r)}
}

// Next returns the next parsed stanza, or io.EOF once the stream is
// exhausted with no partial stanza pending.
func (r *Reader) Next() (*Stanza, error) {
	stanza := NewStanza()
	lastKey := ""

	for {
		line, err := r.r.ReadString('\n')
		if err == io.EOF && line != "" {
			err = nil
		}
		if err == io.EOF {
			if len(stanza.Order) > 0 {
				return stanza, nil
			}
			return nil, io.EOF
		}
		if err != nil {
			return nil, err
		}

		trimmed := strings.TrimRight(line, "\r\n")
		if strings.TrimSpace(trimmed) == "" {
			if len(stanza.Order) == 0 {
				continue
			}
			return stanza, nil
		}
		if strings.HasPrefix(trimmed, "#") {
			continue
		}
		if strings.HasPrefix(trimmed, " ") || strings.HasPrefix(trimmed, "\t") {
			if lastKey == "" {
				return nil, errbuilder.New().
					WithCode(errbuilder.CodeInvalidArgument).
					WithMsg("continuation line with no preceding field")
			}
			cont := strings.TrimRightFunc(trimmed[1:], unicode.IsSpace)
			if cont == "." {
				cont = ""
			}
			existing := stanza.Values[lastKey]
			if existing != "" && !strings.HasSuffix(existing, "\n") {
				existing += "\n"
			}
			stanza.Values[lastKey] = existing + cont + "\n"
			continue
		}

		key, value, ok := strings.Cut(trimmed, ":")
		if !ok {
			return nil, errbuilder.New().
				WithCode(errbuilder.CodeInvalidArgument).
				WithMsg("malformed control line: " + trimmed)
		}
		lastKey = strings.TrimSpace(key)
		stanza.Set(lastKey, strings.TrimSpace(value))
	}
}

// All consumes the remainder of the stream into a slice of stanzas.
func (r *Reader) All() ([]*Stanza, error) {
	var out []*Stanza
	for {
		s, err := r.Next()
		if err == io.EOF {
			return out, nil
		}
		if err != nil {
			return nil, err
		}
		out = append(out, s)
	}
}

// Write renders stanza in field order, one "Key: Value" line per
// field, folding embedded newlines into deb822 continuation lines.
func Write(w io.Writer, s *Stanza) error {
	bw := bufio.NewWriter(w)
	for _, key := range s.Order {
		value := s.Values[key]
		lines := strings.Split(value, "\n")
		if _, err := bw.WriteString(key + ": " + lines[0] + "\n"); err != nil {
			return err
		}
		for _, cont := range lines[1:] {
			if cont == "" {
				continue
			}
			if _, err := bw.WriteString(" " + cont + "\n"); err != nil {
				return err
			}
		}
	}
	if _, err := bw.WriteString("\n"); err != nil {
		return err
	}
	return bw.Flush()
}
