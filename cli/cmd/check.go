package cmd

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/ardnew/clonelist/lang"
)

// Check parses and expands every invocation in Go source files without
// writing anything, reporting the first error in each file.
type Check struct {
	Files []string `arg:"" help:"Go source files, or '-' for stdin." optional:""`
}

// Run executes the check command.
func (c *Check) Run(ctx context.Context) (err error) {
	ctx, cancel := context.WithCancelCause(ctx)

	defer func(err *error) { cancel(*err) }(&err)

	srcs, err := readSources(c.Files)
	if err != nil {
		return err
	}

	opts := optionsFrom(ctx)
	logger := loggerFrom(ctx)
	out := stdoutFrom(ctx)

	failed := 0

	for _, src := range srcs {
		invs, err := lang.Scan(ctx, src.Name, src.Data, opts...)
		if err != nil {
			failed++

			fmt.Fprintln(out, err)
			logger.DebugContext(ctx, "check failed",
				slog.String("file", src.Name),
				slog.Any("error", err))

			continue
		}

		fmt.Fprintf(out, "%s: %d invocation(s)\n", src.Name, len(invs))
	}

	if failed > 0 {
		return ErrCheck.
			With(slog.Int("failed", failed)).
			Wrap(fmt.Errorf("%d of %d file(s) failed", failed, len(srcs)))
	}

	return nil
}
