// Package streaming reassembles complete JSON objects from a model's streamed
// output so each one can be delivered as soon as it closes.
package streaming

import (
	"strings"
	"unicode"
)

// Segmenter tracks brace depth over a character stream. Text outside an
// object is dropped and an unterminated object is never emitted. A Segmenter
// belongs to one stream and is not safe for concurrent use.
type Segmenter struct {
	depth int
	buf   strings.Builder
}

func NewSegmenter() *Segmenter {
	return &Segmenter{}
}

// Feed consumes one fragment and returns the objects it completed, in order.
// Whitespace is removed before scanning.
func (s *Segmenter) Feed(fragment string) []string {
	var out []string
	for _, c := range fragment {
		if unicode.IsSpace(c) {
			continue
		}
		if c == '{' {
			s.depth++
			s.buf.WriteRune(c)
		} else if s.depth > 0 {
			s.buf.WriteRune(c)
		}
		if c == '}' && s.depth > 0 {
			s.depth--
			if s.depth == 0 {
				out = append(out, s.buf.String())
				s.buf.Reset()
			}
		}
	}
	return out
}

// Pending reports whether a partial object is buffered.
func (s *Segmenter) Pending() bool {
	return s.depth > 0
}
