package cmd

import (
	"context"

	"github.com/ardnew/clonelist/cli/cmd/repl"
)

// Repl starts the interactive playground.
type Repl struct {
	Vars      []string `help:"Define a variable NAME=EXPR at startup; repeatable." name:"var" placeholder:"NAME=EXPR" short:"v"`
	NoHistory bool     `help:"Keep history in memory only."`
}

// Run executes the repl command.
func (r *Repl) Run(ctx context.Context) (err error) {
	ctx, cancel := context.WithCancelCause(ctx)

	defer func(err *error) { cancel(*err) }(&err)

	session := repl.NewSession(macroFrom(ctx), optionsFrom(ctx)...)

	if err := defineVars(session, r.Vars); err != nil {
		return err
	}

	var cacheDir string
	if ktx := kongContextFrom(ctx); ktx != nil && !r.NoHistory {
		cacheDir = ktx.Model.Vars()[CacheIdentifier]
	}

	return repl.Run(ctx, session, cacheDir, loggerFrom(ctx))
}
