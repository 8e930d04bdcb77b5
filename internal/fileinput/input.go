package fileinput

import (
	"bufio"
	"fmt"
	"io"
)

// Location names a line in an Input source.
type Location struct {
	Name string
	Line int
}

func (loc Location) String() string { return fmt.Sprintf("%v:%v", loc.Name, loc.Line) }

// Input implements sequential rune reading through a Queue of one or more
// input streams, tracking the location of the last rune read. Sources are
// closed once exhausted if they implement io.Closer.
type Input struct {
	Queue []io.Reader

	src     io.Reader
	rr      io.RuneReader
	loc     Location
	newline bool
}

// Source returns the stream that the last rune was read from.
func (in *Input) Source() io.Reader { return in.src }

// Location returns the location of the last rune read.
func (in *Input) Location() Location { return in.loc }

// ReadRune reads one rune from the current stream, moving on to the next
// queued stream at EOF; io.EOF is only returned once the Queue is exhausted.
func (in *Input) ReadRune() (rune, int, error) {
	for {
		if in.rr == nil && !in.nextIn() {
			return 0, 0, io.EOF
		}
		r, n, err := in.rr.ReadRune()
		if n > 0 {
			if in.newline {
				in.loc.Line++
				in.newline = false
			}
			in.newline = r == '\n'
			return r, n, nil
		}
		if err == io.EOF {
			in.closeIn()
			continue
		}
		if err == nil {
			err = io.ErrNoProgress
		}
		return 0, 0, err
	}
}

func (in *Input) closeIn() {
	if cl, ok := in.src.(io.Closer); ok {
		cl.Close()
	}
	in.rr = nil
}

func (in *Input) nextIn() bool {
	if len(in.Queue) == 0 {
		return false
	}
	r := in.Queue[0]
	in.Queue = in.Queue[1:]
	in.src = r
	in.rr = runeReader(r)
	in.loc = Location{Name: nameOf(r), Line: 1}
	in.newline = false
	return true
}

func runeReader(r io.Reader) io.RuneReader {
	if rr, ok := r.(io.RuneReader); ok {
		return rr
	}
	return bufio.NewReader(r)
}

func nameOf(obj interface{}) string {
	if nom, ok := obj.(interface{ Name() string }); ok {
		return nom.Name()
	}
	return fmt.Sprintf("<unnamed %T>", obj)
}

// NamedReader attaches a Name to a reader, for use in Location.
func NamedReader(name string, r io.Reader) io.Reader { return namedReader{r, name} }

type namedReader struct {
	io.Reader
	name string
}

func (nr namedReader) Name() string { return nr.name }
