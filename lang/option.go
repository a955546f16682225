package lang

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/expr-lang/expr"

	"github.com/ardnew/clonelist/log"
	"github.com/ardnew/clonelist/pkg"
)

// Dialect is the expression language of an invocation's expressions.
type Dialect int

const (
	// DialectGo accepts Go expressions. Only Go requests can be expanded.
	DialectGo Dialect = iota
	// DialectExpr accepts expr-lang expressions. Requests in this dialect
	// can be evaluated with [Evaluate] but not expanded to Go.
	DialectExpr
)

func (d Dialect) String() string {
	switch d {
	case DialectGo:
		return "go"
	case DialectExpr:
		return "expr"
	default:
		return "Dialect(" + strconv.Itoa(int(d)) + ")"
	}
}

// ParseDialect returns the dialect named by s.
func ParseDialect(s string) (Dialect, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "go", "":
		return DialectGo, nil
	case "expr":
		return DialectExpr, nil
	default:
		return DialectGo, fmt.Errorf("unknown dialect %q", s)
	}
}

const (
	// DefaultMacro is the name invocations are written with: clone!(...).
	DefaultMacro = pkg.Macro
	// DefaultDupFunc is called on every duplicated value.
	DefaultDupFunc = pkg.DupFunc
	// DefaultDupImport provides [DefaultDupFunc].
	DefaultDupImport = pkg.DupImport
	// DefaultFallbackType is the result type used when none can be inferred.
	DefaultFallbackType = "any"
)

type config struct {
	logger       log.Logger
	macro        string
	dupFunc      string
	dupImport    string
	resultType   string
	fallbackType string
	checkMutable bool
	filename     string
	dialect      Dialect
	exprOptions  []expr.Option
}

func makeConfig(opts ...Option) config {
	c := config{
		macro:        DefaultMacro,
		dupFunc:      DefaultDupFunc,
		dupImport:    DefaultDupImport,
		fallbackType: DefaultFallbackType,
		checkMutable: true,
	}

	for _, opt := range opts {
		if opt != nil {
			opt(&c)
		}
	}

	return c
}

// Option configures parsing, expansion, rewriting, and evaluation.
type Option func(*config)

// WithLogger traces parse, expansion, and rewrite events to logger.
func WithLogger(logger log.Logger) Option {
	return func(c *config) { c.logger = logger }
}

// WithMacro sets the macro name recognized by [Rewrite]. Empty restores the
// default.
func WithMacro(name string) Option {
	return func(c *config) {
		if name == "" {
			name = DefaultMacro
		}

		c.macro = name
	}
}

// WithDupFunc sets the function called on each duplicated value, such as
// "dup.Of" or "clone.Deep". An empty name emits a plain Go value copy.
func WithDupFunc(name string) Option {
	return func(c *config) { c.dupFunc = name }
}

// WithDupImport sets the import path providing the duplication function.
// An empty path adds no import.
func WithDupImport(path string) Option {
	return func(c *config) { c.dupImport = path }
}

// WithResultType forces the result type of every expansion with bindings.
// An explicit clone![T](...) still takes precedence.
func WithResultType(typ string) Option {
	return func(c *config) { c.resultType = typ }
}

// WithFallbackType sets the result type used when the trailing expression's
// type cannot be inferred. Empty restores the default.
func WithFallbackType(typ string) Option {
	return func(c *config) {
		if typ == "" {
			typ = DefaultFallbackType
		}

		c.fallbackType = typ
	}
}

// WithMutabilityCheck enables or disables rejecting assignments to
// bindings not marked mut.
func WithMutabilityCheck(enable bool) Option {
	return func(c *config) { c.checkMutable = enable }
}

// WithFilename names the source in error positions.
func WithFilename(name string) Option {
	return func(c *config) { c.filename = name }
}

// WithDialect selects the expression language item and trailing
// expressions are validated against.
func WithDialect(d Dialect) Option {
	return func(c *config) { c.dialect = d }
}

// WithExprOptions passes options to the expression compiler used by
// [Evaluate].
func WithExprOptions(opts ...expr.Option) Option {
	return func(c *config) { c.exprOptions = append(c.exprOptions, opts...) }
}
