package logio

import (
	"bytes"
	"sync"
)

// Writer is an io.Writer that logs each line written to it through Logf,
// after Prefix. A trailing partial line is held until it is completed by a
// later Write, or until Close.
type Writer struct {
	Logf   func(mess string, args ...interface{})
	Prefix string

	mu      sync.Mutex
	partial []byte
}

// Write logs every line that p completes; it never fails.
func (lw *Writer) Write(p []byte) (int, error) {
	lw.mu.Lock()
	defer lw.mu.Unlock()
	n := len(p)
	for {
		i := bytes.IndexByte(p, '\n')
		if i < 0 {
			break
		}
		lw.logLine(p[:i])
		p = p[i+1:]
	}
	lw.partial = append(lw.partial, p...)
	return n, nil
}

func (lw *Writer) logLine(line []byte) {
	if len(lw.partial) > 0 {
		line = append(lw.partial, line...)
		lw.partial = lw.partial[:0]
	}
	lw.Logf("%s%s", lw.Prefix, line)
}

// Close logs any held partial line.
func (lw *Writer) Close() error {
	lw.mu.Lock()
	defer lw.mu.Unlock()
	if len(lw.partial) > 0 {
		lw.Logf("%s%s", lw.Prefix, lw.partial)
		lw.partial = lw.partial[:0]
	}
	return nil
}
