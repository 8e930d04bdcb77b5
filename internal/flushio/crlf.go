package flushio

import (
	"bytes"
	"io"
)

// CRLF returns a writer that expands every "\n" into "\r\n", as needed by a
// terminal in raw mode.
func CRLF(w io.Writer) io.Writer { return crlfWriter{w} }

type crlfWriter struct{ io.Writer }

var crlf = []byte{'\r', '\n'}

func (cw crlfWriter) Write(p []byte) (n int, err error) {
	for len(p) > 0 {
		i := bytes.IndexByte(p, '\n')
		if i < 0 {
			m, err := cw.Writer.Write(p)
			return n + m, err
		}
		if i > 0 {
			m, err := cw.Writer.Write(p[:i])
			n += m
			if err != nil {
				return n, err
			}
		}
		if _, err := cw.Writer.Write(crlf); err != nil {
			return n, err
		}
		n++
		p = p[i+1:]
	}
	return n, nil
}
