package main

import (
	"io"
	"unicode/utf8"

	"github.com/jcorbin/egbasic/internal/fileinput"
	"github.com/jcorbin/egbasic/internal/flushio"
)

const (
	maxNumberDigits = 15
	maxLineLength   = 127
)

// keyboard is the single reader of shell input. It supplies command lines to
// the shell, numbers to the in instruction, and cancel key presses to a
// running VM.
//
// Script runes and live runes, normally from a terminal, are read on separate
// pump goroutines. Lines and numbers come from the scripts until they run out,
// then from the live source. PollCancel only ever looks at the live source,
// so a cancel key press is seen even while script input is still queued.
type keyboard struct {
	out       flushio.WriteFlusher
	cancelKey rune

	scriptKeys chan key
	liveKeys   chan key
	done       chan struct{}
	liveErr    *key
	lastCR     bool
}

type key struct {
	r   rune
	loc fileinput.Location
	err error
}

func newKeyboard(in *fileinput.Input, out flushio.WriteFlusher, cancelKey rune, live io.Reader) *keyboard {
	kb := &keyboard{
		out:        out,
		cancelKey:  cancelKey,
		scriptKeys: make(chan key),
		done:       make(chan struct{}),
	}
	go kb.pump(in, kb.scriptKeys, false)
	if live != nil {
		kb.liveKeys = make(chan key)
		go kb.pump(&fileinput.Input{Queue: []io.Reader{live}}, kb.liveKeys, true)
	}
	return kb
}

// pump sends runes from in until it fails. Script input ends silently at EOF,
// handing over to the live source; live input sends its final error.
func (kb *keyboard) pump(in *fileinput.Input, keys chan<- key, live bool) {
	defer close(keys)
	for {
		r, _, err := in.ReadRune()
		if err == io.EOF && !live {
			return
		}
		select {
		case keys <- key{r: r, loc: in.Location(), err: err}:
		case <-kb.done:
			return
		}
		if err != nil {
			return
		}
	}
}

// Close stops the pump goroutines once they next read or are blocked on
// delivering a key.
func (kb *keyboard) Close() error {
	select {
	case <-kb.done:
	default:
		close(kb.done)
	}
	return nil
}

func (kb *keyboard) next() key {
	for {
		k := kb.receive()
		if kb.lastCR && k.err == nil && k.r == '\n' {
			kb.lastCR = false
			continue
		}
		kb.lastCR = k.err == nil && k.r == '\r'
		return k
	}
}

func (kb *keyboard) receive() key {
	if kb.scriptKeys != nil {
		if k, ok := <-kb.scriptKeys; ok {
			return k
		}
		kb.scriptKeys = nil
	}
	if kb.liveErr != nil {
		return *kb.liveErr
	}
	if kb.liveKeys != nil {
		if k, ok := <-kb.liveKeys; ok {
			return k
		}
	}
	return key{err: io.EOF}
}

// CancelKey returns the key that PollCancel looks for.
func (kb *keyboard) CancelKey() rune { return kb.cancelKey }

// PollCancel consumes any key pressed on the live source, returning true if it
// was the cancel key; other live key presses are discarded.
func (kb *keyboard) PollCancel() bool {
	if kb.liveKeys == nil || kb.liveErr != nil {
		return false
	}
	select {
	case k, ok := <-kb.liveKeys:
		if !ok {
			return false
		}
		if k.err != nil {
			kb.liveErr = &k
			return false
		}
		return k.r == kb.cancelKey
	default:
		return false
	}
}

func (kb *keyboard) write(s string) error {
	_, err := io.WriteString(kb.out, s)
	return err
}

func (kb *keyboard) writeRune(r rune) error {
	var buf [utf8.UTFMax]byte
	_, err := kb.out.Write(buf[:utf8.EncodeRune(buf[:], r)])
	return err
}

// ReadNumber prompts for and reads a decimal number: digits are echoed,
// anything else but enter is ignored, and input stops after enter or
// maxNumberDigits digits. No digits reads as 0.
func (kb *keyboard) ReadNumber() (int, error) {
	n := 0
	if err := kb.write("Enter number: "); err != nil {
		return 0, err
	}
	if err := kb.out.Flush(); err != nil {
		return 0, err
	}
	for digits := 0; digits < maxNumberDigits; {
		k := kb.next()
		if k.err != nil {
			return n, k.err
		}
		if k.r == '\n' || k.r == '\r' {
			break
		}
		if k.r >= '0' && k.r <= '9' {
			n = n*10 + int(k.r-'0')
			digits++
			if err := kb.writeRune(k.r); err != nil {
				return n, err
			}
		}
	}
	if err := kb.write("\n"); err != nil {
		return n, err
	}
	return n, kb.out.Flush()
}

// ReadLine reads one line of shell input, echoing it. Backspace and delete
// erase the last rune, ^C abandons the line, and ^D on an empty line reads as
// io.EOF. Lines stop at maxLineLength runes.
func (kb *keyboard) ReadLine() (string, fileinput.Location, error) {
	if err := kb.out.Flush(); err != nil {
		return "", fileinput.Location{}, err
	}
	var line []rune
	var loc fileinput.Location
	for len(line) < maxLineLength {
		k := kb.next()
		if len(line) == 0 {
			loc = k.loc
		}
		if k.err != nil {
			if len(line) > 0 && k.err == io.EOF {
				break
			}
			return "", loc, k.err
		}

		switch k.r {
		case '\n', '\r':
			return string(line), loc, kb.endLine()
		case '\b', 0x7f:
			if len(line) > 0 {
				line = line[:len(line)-1]
				if err := kb.write("\b \b"); err != nil {
					return "", loc, err
				}
			}
			continue
		case 0x03:
			if err := kb.write("^C"); err != nil {
				return "", loc, err
			}
			return "", loc, kb.endLine()
		case 0x04:
			if len(line) == 0 {
				return "", loc, io.EOF
			}
			continue
		}
		if k.r < 0x20 {
			continue
		}
		line = append(line, k.r)
		if err := kb.writeRune(k.r); err != nil {
			return "", loc, err
		}
	}
	return string(line), loc, kb.endLine()
}

func (kb *keyboard) endLine() error {
	if err := kb.write("\n"); err != nil {
		return err
	}
	return kb.out.Flush()
}
