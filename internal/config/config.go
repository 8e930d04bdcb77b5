// Package config loads interpreter and shell settings from CUE files.
package config

import (
	"fmt"
	"os"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"

	"github.com/jcorbin/egbasic/internal/program"
	"github.com/jcorbin/egbasic/internal/runeio"
	"github.com/jcorbin/egbasic/internal/stack"
)

// Schema constrains config files; unknown fields are rejected.
const Schema = `
max_lines?:   int & >0
line_width?:  int & >0
stack_depth?: int & >0
cancel_key?:  string
prompt?:      string
banner?:      bool
`

// Config holds shell and interpreter settings.
type Config struct {
	MaxLines   int
	LineWidth  int
	StackDepth int
	CancelKey  rune
	Prompt     string
	Banner     bool
}

// Default returns the built-in settings.
func Default() Config {
	return Config{
		MaxLines:   program.DefaultMaxLines,
		LineWidth:  program.DefaultLineWidth,
		StackDepth: stack.DefaultDepth,
		CancelKey:  'c',
		Prompt:     "basic> ",
		Banner:     true,
	}
}

type file struct {
	MaxLines   *int    `json:"max_lines"`
	LineWidth  *int    `json:"line_width"`
	StackDepth *int    `json:"stack_depth"`
	CancelKey  *string `json:"cancel_key"`
	Prompt     *string `json:"prompt"`
	Banner     *bool   `json:"banner"`
}

// Load reads each named file in order on top of Default; later files override
// earlier ones field by field.
func Load(paths ...string) (Config, error) {
	cfg := Default()
	for _, path := range paths {
		src, err := os.ReadFile(path)
		if err != nil {
			return cfg, err
		}
		if cfg, err = cfg.Parse(path, src); err != nil {
			return cfg, err
		}
	}
	return cfg, nil
}

// Parse applies CUE source, validated against Schema, on top of cfg.
func (cfg Config) Parse(name string, src []byte) (Config, error) {
	ctx := cuecontext.New()

	schema := ctx.CompileString("close({"+Schema+"})", cue.Filename("schema.cue"))
	if err := schema.Err(); err != nil {
		return cfg, fmt.Errorf("config schema: %w", err)
	}

	value := ctx.CompileBytes(src, cue.Filename(name))
	if err := value.Err(); err != nil {
		return cfg, err
	}
	value = schema.Unify(value)
	if err := value.Validate(cue.Concrete(true)); err != nil {
		return cfg, err
	}

	var f file
	if err := value.Decode(&f); err != nil {
		return cfg, err
	}

	if f.MaxLines != nil {
		cfg.MaxLines = *f.MaxLines
	}
	if f.LineWidth != nil {
		cfg.LineWidth = *f.LineWidth
	}
	if f.StackDepth != nil {
		cfg.StackDepth = *f.StackDepth
	}
	if f.CancelKey != nil {
		r, err := runeio.UnquoteRune(*f.CancelKey)
		if err != nil {
			return cfg, fmt.Errorf("%v: cancel_key %q: %w", name, *f.CancelKey, err)
		}
		cfg.CancelKey = r
	}
	if f.Prompt != nil {
		cfg.Prompt = *f.Prompt
	}
	if f.Banner != nil {
		cfg.Banner = *f.Banner
	}
	return cfg, nil
}
