// Command gen_vm_expects writes free function wrappers for the vmTestCase
// builder methods, so that expectations can be shared between test cases
// through vmTestCase.apply.
//
// Usage: go run scripts/gen_vm_expects.go -- [input.go [output.go]]
package main

import (
	"bufio"
	"bytes"
	"context"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"os/exec"
	"regexp"
	"time"

	"golang.org/x/sync/errgroup"
)

var builderMethod = regexp.MustCompile(`func \(vmt vmTestCase\) (expect|with)(.+?)\((.+?)\) vmTestCase`)

type generator struct {
	in      io.ReadCloser
	inName  string
	out     io.WriteCloser
	genArgs []string
}

func main() {
	flag.Parse()

	gen := generator{
		in:     os.Stdin,
		inName: os.Stdin.Name(),
		out:    os.Stdout,
	}
	if err := gen.open(flag.Args()); err != nil {
		log.Fatalln(err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := gen.run(ctx); err != nil {
		log.Fatalln(err)
	}
}

func (gen *generator) open(args []string) error {
	if len(args) > 0 {
		f, err := os.Open(args[0])
		if err != nil {
			return fmt.Errorf("failed to open %v: %w", args[0], err)
		}
		gen.in, gen.inName = f, args[0]
	}
	if len(args) > 1 {
		f, err := os.Create(args[1])
		if err != nil {
			return fmt.Errorf("failed to create %v: %w", args[1], err)
		}
		gen.out = f
		gen.genArgs = args
	}
	return nil
}

// run pipes generated code through goimports on its way to gen.out.
func (gen *generator) run(ctx context.Context) error {
	eg, ctx := errgroup.WithContext(ctx)

	goimports := exec.CommandContext(ctx, "goimports")
	pipe, err := goimports.StdinPipe()
	if err != nil {
		return err
	}
	goimports.Stdout = gen.out
	goimports.Stderr = os.Stderr

	eg.Go(func() error {
		defer gen.out.Close()
		if err := goimports.Run(); err != nil {
			return fmt.Errorf("goimports failed: %w", err)
		}
		return nil
	})

	eg.Go(func() (rerr error) {
		defer func() {
			if cerr := pipe.Close(); rerr == nil {
				rerr = cerr
			}
			if cerr := gen.in.Close(); rerr == nil {
				rerr = cerr
			}
		}()
		return gen.generate(ctx, pipe)
	})

	return eg.Wait()
}

func (gen *generator) generate(ctx context.Context, w io.Writer) error {
	var buf bytes.Buffer
	buf.WriteString("package main\n\n")
	fmt.Fprintf(&buf, "// @generated from %v\n\n", gen.inName)
	if len(gen.genArgs) > 0 {
		buf.WriteString("//go:generate go run scripts/gen_vm_expects.go --")
		for _, arg := range gen.genArgs {
			buf.WriteByte(' ')
			buf.WriteString(arg)
		}
		buf.WriteString("\n\n")
	}

	sc := bufio.NewScanner(gen.in)
	for sc.Scan() {
		if match := builderMethod.FindSubmatch(sc.Bytes()); len(match) > 0 {
			writeWrapper(&buf, match[1], match[2], match[3])
		}
		if buf.Len() > 0 {
			if _, err := buf.WriteTo(w); err != nil {
				return err
			}
		}
		if err := ctx.Err(); err != nil {
			return err
		}
	}
	return sc.Err()
}

// writeWrapper writes a function like
//
//	func expectVMStack(values ...int) func(vmTestCase) vmTestCase
//
// for the builder method named by base and what.
func writeWrapper(buf *bytes.Buffer, base, what, params []byte) {
	fmt.Fprintf(buf, "func %sVM%s(%s) func(vmTestCase) vmTestCase {\n", base, what, params)
	buf.WriteString("\treturn func(vmt vmTestCase) vmTestCase {\n")
	fmt.Fprintf(buf, "\t\treturn vmt.%s%s(", base, what)
	for i, param := range bytes.Split(params, []byte(",")) {
		if i > 0 {
			buf.WriteString(", ")
		}
		fields := bytes.Fields(param)
		buf.Write(fields[0])
		if len(fields) > 1 && bytes.HasPrefix(fields[1], []byte("...")) {
			buf.WriteString("...")
		}
	}
	buf.WriteString(")\n")
	buf.WriteString("\t}\n")
	buf.WriteString("}\n\n")
}
