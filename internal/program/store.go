package program

import (
	"fmt"
	"unicode/utf8"

	"github.com/google/btree"
)

// Defaults for Store limits.
const (
	DefaultMaxLines  = 64
	DefaultLineWidth = 63
)

// Line is a single numbered line of program source text.
type Line struct {
	Number int
	Text   string
}

func (ln Line) String() string { return fmt.Sprintf("%d %s", ln.Number, ln.Text) }

// Outcome reports what a Put did to the Store.
type Outcome int

// Put outcomes.
const (
	Inserted Outcome = iota
	Replaced
	Full
)

func (o Outcome) String() string {
	switch o {
	case Inserted:
		return "inserted"
	case Replaced:
		return "replaced"
	case Full:
		return "full"
	}
	return fmt.Sprintf("Outcome(%d)", int(o))
}

// Store holds program lines ordered by line number, with at most one line per
// number and a bounded number of lines.
//
// The zero value is usable, with default limits.
type Store struct {
	// MaxLines limits how many distinct lines may be stored.
	MaxLines int

	// LineWidth limits how many bytes of text are kept for each line.
	LineWidth int

	tree *btree.BTreeG[Line]
}

func lineLess(a, b Line) bool { return a.Number < b.Number }

func (st *Store) init() {
	if st.tree == nil {
		st.tree = btree.NewG(4, lineLess)
	}
}

// Cap returns the maximum number of lines.
func (st *Store) Cap() int {
	if st.MaxLines > 0 {
		return st.MaxLines
	}
	return DefaultMaxLines
}

func (st *Store) width() int {
	if st.LineWidth > 0 {
		return st.LineWidth
	}
	return DefaultLineWidth
}

// Len returns the number of stored lines.
func (st *Store) Len() int {
	if st.tree == nil {
		return 0
	}
	return st.tree.Len()
}

// Put stores text under number, replacing any prior text for that number.
// Text is truncated to at most LineWidth bytes, without splitting a rune.
// A new number is silently dropped once the store holds Cap lines; the Full
// outcome is informational, not an error.
func (st *Store) Put(number int, text string) Outcome {
	st.init()
	if w := st.width(); len(text) > w {
		for w > 0 && !utf8.RuneStart(text[w]) {
			w--
		}
		text = text[:w]
	}
	ln := Line{Number: number, Text: text}
	if st.tree.Has(ln) {
		st.tree.ReplaceOrInsert(ln)
		return Replaced
	}
	if st.tree.Len() >= st.Cap() {
		return Full
	}
	st.tree.ReplaceOrInsert(ln)
	return Inserted
}

// Lines returns a copy of all lines in ascending line number order.
func (st *Store) Lines() Program {
	if st.tree == nil {
		return nil
	}
	lines := make(Program, 0, st.tree.Len())
	st.tree.Ascend(func(ln Line) bool {
		lines = append(lines, ln)
		return true
	})
	return lines
}

// Clear removes all lines.
func (st *Store) Clear() {
	if st.tree != nil {
		st.tree.Clear(false)
	}
}

// Program is an ordered snapshot of Store lines, as returned by Lines.
type Program []Line

// Find returns the index of the line with the given number.
func (prog Program) Find(number int) (int, bool) {
	for i, ln := range prog {
		if ln.Number == number {
			return i, true
		}
	}
	return -1, false
}
