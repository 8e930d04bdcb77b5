package main

import (
	"context"
	"fmt"
	"io"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/jcorbin/egbasic/internal/config"
	"github.com/jcorbin/egbasic/internal/fileinput"
	"github.com/jcorbin/egbasic/internal/flushio"
	"github.com/jcorbin/egbasic/internal/panicerr"
	"github.com/jcorbin/egbasic/internal/program"
	"github.com/jcorbin/egbasic/internal/runeio"
)

const banner = "Welcome to EG-Basic REPL!\nType 'help' for a list of commands.\n"

// shell is the interactive front end: it edits the VM's program line by line
// and runs it on request.
type shell struct {
	vm     *VM
	kb     *keyboard
	out    flushio.WriteFlusher
	logger *zap.Logger

	prompt string
	banner bool
}

// newShell builds a shell reading from in and writing to out. A non-nil live
// source is read once in runs out, and is the only input that can cancel a run.
func newShell(cfg config.Config, in *fileinput.Input, out io.Writer, live io.Reader, logger *zap.Logger) *shell {
	if logger == nil {
		logger = zap.NewNop()
	}
	wf := flushio.NewWriteFlusher(out)
	kb := newKeyboard(in, wf, cfg.CancelKey, live)
	vm := New(
		WithOutput(wf),
		WithNumbers(kb),
		WithCancel(kb),
		WithLogger(logger),
		WithStackDepth(cfg.StackDepth),
		WithProgram(&program.Store{
			MaxLines:  cfg.MaxLines,
			LineWidth: cfg.LineWidth,
		}),
	)
	return &shell{
		vm:     vm,
		kb:     kb,
		out:    wf,
		logger: logger.Named("shell"),
		prompt: cfg.Prompt,
		banner: cfg.Banner,
	}
}

func (sh *shell) write(parts ...string) error {
	for _, part := range parts {
		if _, err := io.WriteString(sh.out, part); err != nil {
			return err
		}
	}
	return nil
}

// repl reads and executes commands until exit or the end of input.
func (sh *shell) repl(ctx context.Context) (rerr error) {
	defer func() {
		if ferr := sh.out.Flush(); rerr == nil {
			rerr = ferr
		}
	}()
	defer sh.kb.Close()

	if sh.banner {
		if err := sh.write(banner); err != nil {
			return err
		}
	}

	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := sh.write(sh.prompt); err != nil {
			return err
		}
		line, loc, err := sh.kb.ReadLine()
		if err == io.EOF {
			sh.logger.Debug("end of input", zap.Stringer("at", loc))
			return nil
		} else if err != nil {
			return err
		}
		sh.logger.Debug("command", zap.Stringer("at", loc), zap.String("line", line))

		if exit, err := sh.exec(ctx, line); err != nil || exit {
			return err
		}
	}
}

func (sh *shell) exec(ctx context.Context, line string) (exit bool, err error) {
	switch cmd := strings.TrimSpace(line); {
	case cmd == "":
		return false, nil
	case cmd == "exit":
		return true, nil
	case cmd == "list":
		return false, sh.list()
	case cmd == "run":
		return false, sh.run(ctx)
	case cmd == "new":
		sh.vm.Program().Clear()
		return false, nil
	case cmd == "help":
		return false, sh.help()
	case cmd[0] >= '0' && cmd[0] <= '9':
		return false, sh.enter(strings.TrimLeft(line, " "))
	default:
		return false, sh.write("Unknown Command\n")
	}
}

// enter stores a "<number><spaces><text>" line, with text kept verbatim.
func (sh *shell) enter(line string) error {
	i := 0
	for i < len(line) && line[i] >= '0' && line[i] <= '9' {
		i++
	}
	number, err := strconv.Atoi(line[:i])
	if err != nil {
		return sh.write("Line number out of range\n")
	}
	for i < len(line) && line[i] == ' ' {
		i++
	}
	text := line[i:]

	outcome := sh.vm.Program().Put(number, text)
	sh.logger.Debug("edit",
		zap.Int("line", number),
		zap.String("text", text),
		zap.Stringer("outcome", outcome))
	if outcome == program.Replaced {
		return sh.write("Replacing line ", strconv.Itoa(number), "\n")
	}
	return nil
}

func (sh *shell) list() error {
	for _, ln := range sh.vm.Program().Lines() {
		if err := sh.write(ln.String(), "\n"); err != nil {
			return err
		}
	}
	return nil
}

func (sh *shell) run(ctx context.Context) error {
	err := sh.vm.Run(ctx)
	switch {
	case err == nil:
		return nil
	case IsFault(err):
		sh.logger.Debug("run fault", zap.Error(err))
		return nil
	case ctx.Err() != nil:
		return err
	}
	switch {
	case panicerr.IsPanic(err):
		sh.logger.Error("run panicked", zap.Error(err), zap.String("stack", panicerr.Stack(err)))
	case panicerr.IsExit(err):
		sh.logger.Error("run exited", zap.Error(err))
	default:
		sh.logger.Warn("run failed", zap.Error(err))
	}
	return sh.write("Error: ", err.Error(), "\n")
}

func (sh *shell) help() error {
	st := sh.vm.Program()
	return sh.write(fmt.Sprintf(`Commands:
  <N> <instruction>  add or replace line N (at most %d lines)
  list               show the program
  run                run the program; press %v to interrupt
  new                erase the program
  help               show this help
  exit               leave EG-Basic
Instructions:
  printt "text"  printv  push N  pop  dup  add  sub
  biz N  binz N  jmp N  in  end
`, st.Cap(), runeio.KeyName(sh.kb.CancelKey())))
}
