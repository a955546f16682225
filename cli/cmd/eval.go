package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/ardnew/clonelist/cli/cmd/repl"
)

// Eval evaluates one invocation in the expr dialect and prints its value.
type Eval struct {
	Vars []string `help:"Define a variable NAME=EXPR before evaluating; repeatable." name:"var" placeholder:"NAME=EXPR" short:"v"`
	Go   bool     `help:"Also print the Go expansion of the invocation."`

	Args string `arg:"" help:"Invocation, such as 'clone!([a], a + 1)', or its arguments '[a], a + 1'." name:"args"`
}

// Run executes the eval command.
func (e *Eval) Run(ctx context.Context) (err error) {
	ctx, cancel := context.WithCancelCause(ctx)

	defer func(err *error) { cancel(*err) }(&err)

	session := repl.NewSession(macroFrom(ctx), optionsFrom(ctx)...)

	if err := defineVars(session, e.Vars); err != nil {
		return err
	}

	out := session.Eval(ctx, e.Args)

	w := stdoutFrom(ctx)

	if e.Go {
		if out.ExpandErr != nil {
			return out.ExpandErr
		}

		fmt.Fprintln(w, out.Expansion)
	}

	if out.EvalErr != nil {
		return out.EvalErr
	}

	fmt.Fprintln(w, formatResult(out.Value))

	return nil
}

// defineVars sets each NAME=EXPR definition in order, so a definition may
// refer to those before it.
func defineVars(session *repl.Session, defs []string) error {
	for _, def := range defs {
		name, src, ok := strings.Cut(def, "=")
		if !ok {
			return ErrVariable.
				With(slog.String("var", def)).
				Wrap(fmt.Errorf("expected NAME=EXPR, got %q", def))
		}

		if err := session.Set(strings.TrimSpace(name), src); err != nil {
			return ErrVariable.
				With(slog.String("var", name)).
				Wrap(err)
		}
	}

	return nil
}

func formatResult(v any) string {
	switch x := v.(type) {
	case nil:
		return "nil"
	case string:
		return fmt.Sprintf("%q", x)
	default:
		return fmt.Sprintf("%v", x)
	}
}
