package lang

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"maps"

	"github.com/expr-lang/expr"
	"github.com/expr-lang/expr/vm"

	"github.com/ardnew/clonelist/dup"
)

// Evaluate interprets req with the expr-lang engine instead of expanding it
// to Go. Each binding is evaluated in order against env and the bindings
// before it, and its value duplicated, so nothing the trailing expression
// does can reach env. The trailing expression's value is returned.
//
// env is never modified. Every expression may call dup(x) to duplicate a
// value explicitly.
func Evaluate(ctx context.Context, req *Request, env map[string]any, opts ...Option) (any, error) {
	cfg := makeConfig(opts...)

	if req == nil {
		return nil, ErrEvaluate.Wrap(errors.New("nil request"))
	}

	scope := maps.Clone(env)
	if scope == nil {
		scope = map[string]any{}
	}

	for _, b := range req.Bindings {
		if err := ctx.Err(); err != nil {
			return nil, ErrEvaluate.Wrap(err)
		}

		id := b.Ident()

		var val any

		switch src := b.Source.(type) {
		case Name:
			v, ok := scope[id]
			if !ok {
				return nil, req.errorAt(ErrEvaluate.
					Wrap(fmt.Errorf("undefined: %s", id)).
					With(slog.String("ident", id)), b.off)
			}

			val = v

		case Alias:
			v, err := run(cfg, scope, src.Expr.Text)
			if err != nil {
				return nil, req.errorAt(ErrEvaluate.Wrap(err).With(slog.String("ident", id)), src.Expr.off)
			}

			val = v

		default:
			return nil, ErrEvaluate.Wrap(errors.New("binding has no source"))
		}

		scope[id] = dup.Value(val)

		cfg.logger.TraceContext(ctx, "bound",
			slog.String("ident", id),
			slog.Bool("mutable", b.Mutable),
			slog.String("type", fmt.Sprintf("%T", val)))
	}

	if err := ctx.Err(); err != nil {
		return nil, ErrEvaluate.Wrap(err)
	}

	out, err := run(cfg, scope, req.Trailing.Text)
	if err != nil {
		return nil, req.errorAt(ErrEvaluate.Wrap(err), req.Trailing.off)
	}

	cfg.logger.DebugContext(ctx, "evaluated",
		slog.Int("bindings", len(req.Bindings)),
		slog.Any("result", out))

	return out, nil
}

// EvaluateString parses args in the expr dialect and evaluates the request
// against env.
func EvaluateString(ctx context.Context, args string, env map[string]any, opts ...Option) (any, error) {
	opts = append([]Option{WithDialect(DialectExpr)}, opts...)

	req, err := Parse(ctx, args, opts...)
	if err != nil {
		return nil, err
	}

	return Evaluate(ctx, req, env, opts...)
}

// Compile checks that input compiles against the names in env, returning
// the program so callers can run it repeatedly.
func Compile(input string, env map[string]any, opts ...Option) (*vm.Program, error) {
	cfg := makeConfig(opts...)

	prog, err := expr.Compile(input, exprOptions(cfg, env)...)
	if err != nil {
		return nil, ErrEvaluate.Wrap(err)
	}

	return prog, nil
}

func run(cfg config, scope map[string]any, input string) (any, error) {
	prog, err := expr.Compile(input, exprOptions(cfg, scope)...)
	if err != nil {
		return nil, err
	}

	return expr.Run(prog, scope)
}

func exprOptions(cfg config, env map[string]any) []expr.Option {
	opts := make([]expr.Option, 0, len(cfg.exprOptions)+2)
	opts = append(opts,
		expr.Env(env),
		expr.Function("dup", func(params ...any) (any, error) {
			if len(params) != 1 {
				return nil, fmt.Errorf("dup: expected 1 argument, got %d", len(params))
			}

			return dup.Value(params[0]), nil
		}),
	)

	return append(opts, cfg.exprOptions...)
}
