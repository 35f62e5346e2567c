// Package script evaluates Lisp programs that create and modify design
// nodes. It wraps zygomys in a sandboxed environment whose builtins drive
// a shape engine.
package script

import (
	"context"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"sync"
	"time"

	zygo "github.com/glycerine/zygomys/zygo"
	"github.com/google/uuid"
	"github.com/labstack/gommon/log"
	"github.com/samber/lo"

	"github.com/chazu/figforge/pkg/logging"
	"github.com/chazu/figforge/pkg/shape"
)

// Shapes is the subset of *shape.Engine the builtins call.
type Shapes interface {
	Create(ctx context.Context, kind shape.ShapeKind, props shape.Properties) (shape.Summary, error)
	Modify(ctx context.Context, id string, props shape.Properties) error
	Read(ctx context.Context, id string) (shape.Summary, error)
}

// EvalError represents a non-fatal error encountered during evaluation,
// such as a parse error or a failed builtin call.
type EvalError struct {
	Line    int    `json:"line"`
	Col     int    `json:"col"`
	Message string `json:"message"`
}

func (e EvalError) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("line %d: %s", e.Line, e.Message)
	}
	return e.Message
}

// Op names the kind of change a builtin made.
type Op string

const (
	OpCreated  Op = "created"
	OpModified Op = "modified"
)

// Change is one node mutation made by a script, in program order.
type Change struct {
	Op      Op            `json:"op"`
	Summary shape.Summary `json:"summary"`
}

// Result is the output of a completed evaluation. Changes made before a
// failing expression are kept; the document is not rolled back.
type Result struct {
	RunID   string   `json:"runId"`
	Changes []Change `json:"changes"`
}

// Summaries returns the summary of every change, in order.
func (r *Result) Summaries() []shape.Summary {
	return lo.Map(r.Changes, func(c Change, _ int) shape.Summary { return c.Summary })
}

// Options configure an Engine. Zero values select the defaults.
type Options struct {
	Timeout  time.Duration // defaults to EvalTimeout
	Logger   *log.Logger
	OnChange func(Change) // called synchronously after each mutation
}

// Engine evaluates scripts. It is safe for concurrent use; each call to
// Evaluate creates a fresh sandboxed environment.
type Engine struct {
	shapes   Shapes
	timeout  time.Duration
	log      *log.Logger
	onChange func(Change)

	mu         sync.Mutex
	generation uint64
}

// New creates an Engine that builds nodes through shapes.
func New(shapes Shapes, opts Options) *Engine {
	e := &Engine{
		shapes:   shapes,
		timeout:  opts.Timeout,
		log:      opts.Logger,
		onChange: opts.OnChange,
	}
	if e.timeout <= 0 {
		e.timeout = EvalTimeout
	}
	if e.log == nil {
		e.log = logging.Discard()
	}
	return e
}

// Evaluate runs source and reports the node changes it made.
//
// Return semantics:
//   - On success: returns result + nil errors + nil error
//   - On parse/eval failure: returns partial result + eval errors + nil error
//   - On fatal failure (timeout, panic, superseded): returns nil + nil + error
func (e *Engine) Evaluate(ctx context.Context, source string) (*Result, []EvalError, error) {
	e.mu.Lock()
	e.generation++
	gen := e.generation
	e.mu.Unlock()

	runCtx, cancel := context.WithCancel(ctx)
	r := &run{
		ctx:      runCtx,
		shapes:   e.shapes,
		onChange: e.onChange,
		result:   &Result{RunID: uuid.NewString(), Changes: []Change{}},
	}

	ch := make(chan evalResult, 1)
	go func() {
		defer func() {
			if rec := recover(); rec != nil {
				ch <- evalResult{err: fmt.Errorf("panic during evaluation: %v", rec)}
			}
		}()
		evalErrs, err := e.evaluate(r, source)
		ch <- evalResult{result: r.result, errors: evalErrs, err: err}
	}()

	res, evalErrs, err := waitWithTimeout(ctx, ch, e.timeout, gen, &e.mu, &e.generation)
	// Builtins of an abandoned run see a cancelled context and stop.
	cancel()
	if err != nil {
		e.log.Warnf("script %s: %v", r.result.RunID, err)
		return nil, nil, err
	}
	e.log.Debugf("script %s: %d changes, %d errors", res.RunID, len(res.Changes), len(evalErrs))
	return res, evalErrs, nil
}

// evaluate performs the actual zygomys evaluation in a fresh sandbox.
func (e *Engine) evaluate(r *run, source string) ([]EvalError, error) {
	if strings.TrimSpace(source) == "" {
		return nil, nil
	}

	// Sandbox mode keeps user code away from the filesystem and syscalls.
	env := zygo.NewZlispSandbox()
	defer env.Stop()

	registerBuiltins(env, r)

	if err := env.LoadString(preprocessSource(source)); err != nil {
		return parseZygomysError(err), nil
	}
	if _, err := env.Run(); err != nil {
		return parseZygomysError(err), nil
	}
	return nil, nil
}

// A builtin failure such as a shape.Error surfaces from Run as
// "Error on line N: <builtin>: <message>"; parse failures from
// LoadString use the same prefix.
var linePattern = regexp.MustCompile(`(?i)(?:error )?on line (\d+):\s*(.*)`)

// Some lexer errors carry a bare "line N:" prefix.
var linePatternShort = regexp.MustCompile(`(?i)^line (\d+):\s*(.*)`)

// parseZygomysError splits a line number off the zygomys message. The
// rest of the message, including the builtin's own error text, is kept.
func parseZygomysError(err error) []EvalError {
	msg := err.Error()

	for _, re := range []*regexp.Regexp{linePattern, linePatternShort} {
		if m := re.FindStringSubmatch(msg); m != nil {
			line, _ := strconv.Atoi(m[1])
			return []EvalError{{Line: line, Message: strings.TrimSpace(m[2])}}
		}
	}
	return []EvalError{{Message: strings.TrimSpace(msg)}}
}
