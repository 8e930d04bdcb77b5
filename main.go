package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"golang.org/x/term"

	"github.com/jcorbin/egbasic/internal/config"
	"github.com/jcorbin/egbasic/internal/fileinput"
	"github.com/jcorbin/egbasic/internal/flushio"
	"github.com/jcorbin/egbasic/internal/logio"
	"github.com/jcorbin/egbasic/internal/panicerr"
)

func main() {
	var log logio.Logger
	log.SetOutput(os.Stderr)
	log.ErrorIf(rootCommand().ExecuteContext(context.Background()))
	os.Exit(log.ExitCode())
}

type flags struct {
	configs    []string
	trace      bool
	timeout    time.Duration
	transcript string
}

func rootCommand() *cobra.Command {
	var fl flags
	cmd := &cobra.Command{
		Use:   "egbasic [script...]",
		Short: "EG-Basic line-numbered stack machine shell",
		Long: `egbasic runs the EG-Basic shell. Any script files are read as shell
input, in order, before standard input.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return fl.run(cmd.Context(), args)
		},
	}
	cmd.Flags().StringArrayVar(&fl.configs, "config", nil, "load a CUE config file; may be repeated, later files override")
	cmd.Flags().BoolVar(&fl.trace, "trace", false, "enable trace logging to stderr")
	cmd.Flags().DurationVar(&fl.timeout, "timeout", 0, "specify a time limit for the whole session")
	cmd.Flags().StringVar(&fl.transcript, "transcript", "", "also write shell output to this file")
	return cmd
}

func (fl flags) run(ctx context.Context, scripts []string) (rerr error) {
	cfg, err := config.Load(fl.configs...)
	if err != nil {
		return err
	}

	var in fileinput.Input
	for _, name := range scripts {
		f, err := os.Open(name)
		if err != nil {
			return err
		}
		in.Queue = append(in.Queue, f)
	}

	var (
		out    io.Writer = os.Stdout
		errOut io.Writer = os.Stderr
		live   io.Reader
	)
	if fd := int(os.Stdin.Fd()); term.IsTerminal(fd) {
		state, err := term.MakeRaw(fd)
		if err != nil {
			return fmt.Errorf("unable to enter raw mode: %w", err)
		}
		defer func() {
			if terr := term.Restore(fd, state); rerr == nil {
				rerr = terr
			}
		}()
		out = flushio.CRLF(out)
		errOut = flushio.CRLF(errOut)
		live = os.Stdin
	} else {
		in.Queue = append(in.Queue, os.Stdin)
	}

	if fl.transcript != "" {
		f, err := os.Create(fl.transcript)
		if err != nil {
			return err
		}
		defer func() {
			if cerr := f.Close(); rerr == nil {
				rerr = cerr
			}
		}()
		out = flushio.Tee(flushio.NewWriteFlusher(out), flushio.NewWriteFlusher(f))
	}

	logger := zap.NewNop()
	if fl.trace {
		logger = traceLogger(errOut)
		defer logger.Sync()
	}

	if fl.timeout != 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, fl.timeout)
		defer cancel()
	}

	sh := newShell(cfg, &in, out, live, logger)
	return panicerr.Recover("shell", func() error {
		return sh.repl(ctx)
	})
}

func traceLogger(w io.Writer) *zap.Logger {
	enc := zap.NewDevelopmentEncoderConfig()
	enc.TimeKey = ""
	core := zapcore.NewCore(
		zapcore.NewConsoleEncoder(enc),
		zapcore.Lock(zapcore.AddSync(w)),
		zap.DebugLevel,
	)
	return zap.New(core)
}
