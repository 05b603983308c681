package streaming

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
)

func feedAll(fragments []string) ([]string, *Segmenter) {
	seg := NewSegmenter()
	var out []string
	for _, f := range fragments {
		out = append(out, seg.Feed(f)...)
	}
	return out, seg
}

func chars(s string) []string {
	out := make([]string, 0, len(s))
	for _, c := range s {
		out = append(out, string(c))
	}
	return out
}

func randomSplit(r *rand.Rand, s string) []string {
	var out []string
	for len(s) > 0 {
		n := 1 + r.Intn(len(s))
		out = append(out, s[:n])
		s = s[n:]
	}
	return out
}

func TestSegmenter_FragmentationIndependent(t *testing.T) {
	const input = "{a:1}{b:{c:2}}"
	want := []string{"{a:1}", "{b:{c:2}}"}

	got, _ := feedAll([]string{input})
	assert.Equal(t, want, got, "whole string")

	got, _ = feedAll(chars(input))
	assert.Equal(t, want, got, "one character per fragment")

	r := rand.New(rand.NewSource(7))
	for i := 0; i < 200; i++ {
		parts := randomSplit(r, input)
		got, _ = feedAll(parts)
		assert.Equal(t, want, got, "split %q", parts)
	}
}

func TestSegmenter_DiscardsTruncatedTail(t *testing.T) {
	got, seg := feedAll([]string{"junk{x:1}moretrailing{"})
	assert.Equal(t, []string{"{x:1}"}, got)
	assert.True(t, seg.Pending())
}

func TestSegmenter_Cases(t *testing.T) {
	tests := []struct {
		name      string
		fragments []string
		want      []string
	}{
		{
			name:      "whitespace stripped inside and between objects",
			fragments: []string{"[ {\"title\": \"Q 1\",\n", "\t\"options\": [ ] } ,", " {\"title\":\"Q2\"}]"},
			want:      []string{`{"title":"Q1","options":[]}`, `{"title":"Q2"}`},
		},
		{
			name:      "deep nesting",
			fragments: []string{"{a:{b:{c:{}}}}"},
			want:      []string{"{a:{b:{c:{}}}}"},
		},
		{
			name:      "stray closing brace outside an object is filler",
			fragments: []string{"} ok {x:1}"},
			want:      []string{"{x:1}"},
		},
		{
			name:      "no objects",
			fragments: []string{"just text", ""},
			want:      nil,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, _ := feedAll(tt.fragments)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestSegmenter_InstancesAreIndependent(t *testing.T) {
	a, b := NewSegmenter(), NewSegmenter()

	assert.Empty(t, a.Feed("{a:"))
	assert.Equal(t, []string{"{b:2}"}, b.Feed("{b:2}"))
	assert.Equal(t, []string{"{a:1}"}, a.Feed("1}"))
	assert.False(t, a.Pending())
	assert.False(t, b.Pending())
}
