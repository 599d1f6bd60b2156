package engine

import (
	"errors"
	"strings"
	"unicode"
	"unicode/utf8"
)

// errRepeatedNGram stops generation when the stream would repeat a word n-gram.
var errRepeatedNGram = errors.New("repeated n-gram")

// ngramGuard watches streamed fragments and stops at the first word n-gram
// already produced earlier in the same generation. The accepted text ends
// before the word that completed the repeat.
type ngramGuard struct {
	n      int
	text   strings.Builder
	starts []int // byte offset of each word seen so far
	words  int   // complete words already checked
	seen   map[string]struct{}
	cut    int // -1 until a repeat is found
}

func newNgramGuard(n int) *ngramGuard {
	return &ngramGuard{n: n, seen: make(map[string]struct{}), cut: -1}
}

// observe appends tok and returns errRepeatedNGram once a complete word
// closes a repeated n-gram. A word is complete when whitespace follows it.
// Fragments observed after a repeat are ignored.
func (g *ngramGuard) observe(tok string) error {
	if g.cut >= 0 {
		return errRepeatedNGram
	}
	off := g.text.Len()
	prevSpace := off == 0 || endsWithSpace(g.text.String())
	g.text.WriteString(tok)
	if g.n <= 0 {
		return nil
	}
	for i, r := range tok {
		space := unicode.IsSpace(r)
		if !space && prevSpace {
			g.starts = append(g.starts, off+i)
		}
		prevSpace = space
	}
	complete := len(g.starts)
	if complete > 0 && !prevSpace {
		complete--
	}
	return g.check(complete)
}

// finish treats a trailing partial word as complete. Call it when the stream ends.
func (g *ngramGuard) finish() error {
	if g.cut >= 0 {
		return errRepeatedNGram
	}
	if g.n <= 0 {
		return nil
	}
	return g.check(len(g.starts))
}

// String returns the accepted text.
func (g *ngramGuard) String() string {
	s := g.text.String()
	if g.cut >= 0 {
		return s[:g.cut]
	}
	return s
}

// check records the n-grams ending at words [g.words, complete).
func (g *ngramGuard) check(complete int) error {
	for ; g.words < complete; g.words++ {
		i := g.words
		if i+1 < g.n {
			continue
		}
		key := strings.Join(g.wordsIn(i+1-g.n, i+1), " ")
		if _, dup := g.seen[key]; dup {
			g.cut = g.starts[i]
			return errRepeatedNGram
		}
		g.seen[key] = struct{}{}
	}
	return nil
}

// wordsIn returns words [from, to) of the accepted text.
func (g *ngramGuard) wordsIn(from, to int) []string {
	s := g.text.String()
	out := make([]string, 0, to-from)
	for i := from; i < to; i++ {
		end := len(s)
		if i+1 < len(g.starts) {
			end = g.starts[i+1]
		}
		out = append(out, strings.TrimRightFunc(s[g.starts[i]:end], unicode.IsSpace))
	}
	return out
}

func endsWithSpace(s string) bool {
	r, size := utf8.DecodeLastRuneInString(s)
	return size > 0 && unicode.IsSpace(r)
}
