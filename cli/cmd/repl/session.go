package repl

import (
	"context"
	"fmt"
	"go/token"
	"maps"
	"slices"
	"strings"
	"sync"

	"github.com/expr-lang/expr"

	"github.com/ardnew/clonelist/lang"
)

// Session holds the variables of one playground and the options invocations
// are expanded and evaluated with. It is safe for concurrent use.
type Session struct {
	mu    sync.RWMutex
	vars  map[string]any
	macro string
	opts  []lang.Option
}

// NewSession returns an empty session recognizing invocations of macro.
func NewSession(macro string, opts ...lang.Option) *Session {
	if macro == "" {
		macro = lang.DefaultMacro
	}

	return &Session{
		vars:  map[string]any{},
		macro: macro,
		opts:  append([]lang.Option{lang.WithMacro(macro)}, opts...),
	}
}

// Outcome is the result of one input line. An input may expand to Go
// without evaluating, or the reverse, since the two dialects differ.
type Outcome struct {
	Expansion string
	ExpandErr error
	Value     any
	EvalErr   error
}

// Eval expands input to Go and evaluates it against the session variables.
// input is a complete invocation, the argument text of one, or a bare
// expression.
func (s *Session) Eval(ctx context.Context, input string) Outcome {
	var out Outcome

	req, err := s.parse(ctx, input, lang.DialectGo)
	if err == nil {
		var res *lang.Result

		res, err = lang.Expand(req, s.opts...)
		if err == nil {
			out.Expansion = res.String()
		}
	}

	out.ExpandErr = err

	req, err = s.parse(ctx, input, lang.DialectExpr)
	if err == nil {
		out.Value, err = lang.Evaluate(ctx, req, s.Snapshot(), s.opts...)
	}

	out.EvalErr = err

	return out
}

func (s *Session) parse(ctx context.Context, input string, d lang.Dialect) (*lang.Request, error) {
	opts := append(slices.Clone(s.opts), lang.WithDialect(d))

	if strings.HasPrefix(strings.TrimSpace(input), s.macro+"!") {
		return lang.ParseInvocation(ctx, input, opts...)
	}

	return lang.Parse(ctx, input, opts...)
}

// Set evaluates source against the current variables and stores the result
// under name.
func (s *Session) Set(name, source string) error {
	if err := checkVarName(name); err != nil {
		return err
	}

	env := s.Snapshot()

	prog, err := lang.Compile(source, env, s.opts...)
	if err != nil {
		return err
	}

	val, err := expr.Run(prog, env)
	if err != nil {
		return lang.ErrEvaluate.Wrap(err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.vars[name] = val

	return nil
}

// Unset removes name and reports whether it was defined.
func (s *Session) Unset(name string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, ok := s.vars[name]
	delete(s.vars, name)

	return ok
}

// Replace discards every variable and defines vars instead.
func (s *Session) Replace(vars map[string]any) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.vars = maps.Clone(vars)
	if s.vars == nil {
		s.vars = map[string]any{}
	}
}

// Names returns the defined variable names in order.
func (s *Session) Names() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return slices.Sorted(maps.Keys(s.vars))
}

// Snapshot returns a copy of the variables.
func (s *Session) Snapshot() map[string]any {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return maps.Clone(s.vars)
}

func checkVarName(name string) error {
	if !token.IsIdentifier(name) || name == "mut" || name == "as" {
		return fmt.Errorf("%w: invalid variable name %q", ErrUsage, name)
	}

	return nil
}
