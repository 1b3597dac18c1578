// Package engine evaluates Lisp settings scripts. It wraps zygomys in a
// sandboxed environment and produces a config.Config from user source code.
package engine

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"sync"

	zygo "github.com/glycerine/zygomys/zygo"

	"github.com/chazu/brickify/pkg/config"
)

// EvalError represents a non-fatal error encountered during evaluation,
// such as a parse error, a runtime error in user code, or a setting the
// script left invalid.
type EvalError struct {
	Line    int
	Col     int
	Message string
}

func (e EvalError) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("line %d: %s", e.Line, e.Message)
	}
	return e.Message
}

// EvalResult bundles the full output of an evaluation.
type EvalResult struct {
	Config   *config.Config
	Errors   []EvalError
	Warnings []config.ValidationError
}

// Engine wraps the zygomys interpreter for settings evaluation.
// It is safe for concurrent use; each call to Evaluate creates a fresh
// sandboxed environment for determinism.
type Engine struct {
	mu         sync.Mutex
	generation uint64
}

// NewEngine creates a new Engine instance.
func NewEngine() *Engine {
	return &Engine{}
}

// Evaluate runs source against a copy of base and returns the resulting
// settings. A nil base starts from config.Default(). base is never modified.
//
// Return semantics:
//   - On success: returns config + nil errors + nil error
//   - On parse/eval/validation failure: returns nil config + eval errors + nil error
//   - On fatal failure (timeout, panic): returns nil + nil + error
func (e *Engine) Evaluate(source string, base *config.Config) (*config.Config, []EvalError, error) {
	res, err := e.Run(source, base)
	if err != nil {
		return nil, nil, err
	}
	return res.Config, res.Errors, nil
}

// Run is Evaluate with validation warnings included.
func (e *Engine) Run(source string, base *config.Config) (EvalResult, error) {
	e.mu.Lock()
	e.generation++
	gen := e.generation
	e.mu.Unlock()

	if base == nil {
		base = config.Default()
	}
	cfg := base.Clone()

	ch := make(chan evalResult, 1)

	go func() {
		defer func() {
			if r := recover(); r != nil {
				ch <- evalResult{err: fmt.Errorf("panic during evaluation: %v", r)}
			}
		}()

		evalErrs, err := e.evaluate(source, cfg)
		ch <- evalResult{errors: evalErrs, err: err}
	}()

	res, err := waitWithTimeout(ch, gen, &e.mu, &e.generation)
	if err != nil {
		return EvalResult{}, err
	}
	if len(res.errors) > 0 {
		return EvalResult{Errors: res.errors}, nil
	}

	check := cfg.Check()
	if !check.OK() {
		out := EvalResult{Warnings: check.Warnings}
		for _, ve := range check.Errors {
			out.Errors = append(out.Errors, EvalError{Message: ve.Error()})
		}
		return out, nil
	}
	return EvalResult{Config: cfg, Warnings: check.Warnings}, nil
}

// evaluate performs the actual zygomys evaluation in a fresh sandbox,
// applying settings builtins to cfg.
func (e *Engine) evaluate(source string, cfg *config.Config) ([]EvalError, error) {
	// Empty source leaves the settings untouched.
	if strings.TrimSpace(source) == "" {
		return nil, nil
	}

	// Sandbox mode prevents user code from accessing the filesystem or syscalls.
	env := zygo.NewZlispSandbox()
	defer env.Stop()

	registerBuiltins(env, cfg)

	if err := env.LoadString(preprocessSource(source)); err != nil {
		return parseZygomysError(err), nil
	}

	if _, err := env.Run(); err != nil {
		return parseZygomysError(err), nil
	}
	return nil, nil
}

// linePattern matches zygomys error messages that include "Error on line N: ..."
var linePattern = regexp.MustCompile(`(?i)(?:error )?on line (\d+):\s*(.*)`)

// linePatternShort matches simpler "line N: ..." patterns.
var linePatternShort = regexp.MustCompile(`(?i)^line (\d+):\s*(.*)`)

// parseZygomysError converts a zygomys error into one or more EvalError values.
// It attempts to extract line number information from the error message.
func parseZygomysError(err error) []EvalError {
	msg := err.Error()

	// zygomys formats parse errors as "Error on line N: <details>\n"
	for _, p := range []*regexp.Regexp{linePattern, linePatternShort} {
		if m := p.FindStringSubmatch(msg); m != nil {
			line, _ := strconv.Atoi(m[1])
			return []EvalError{{
				Line:    line,
				Message: strings.TrimSpace(m[2]),
			}}
		}
	}

	return []EvalError{{Message: strings.TrimSpace(msg)}}
}
