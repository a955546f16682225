package cmd

import (
	"context"
	"log/slog"
	"os"
	"strings"

	"github.com/ardnew/clonelist/lang"
)

// Expand rewrites Go source files, replacing every invocation with its
// expansion.
type Expand struct {
	Write bool   `help:"Write results to files instead of stdout."                                     short:"w"`
	Ext   string `default:".clone" help:"Template suffix stripped from file names written with --write."`

	Files []string `arg:"" help:"Go source files, or '-' for stdin." optional:""`
}

// Run executes the expand command.
func (e *Expand) Run(ctx context.Context) (err error) {
	ctx, cancel := context.WithCancelCause(ctx)

	defer func(err *error) { cancel(*err) }(&err)

	srcs, err := readSources(e.Files)
	if err != nil {
		return err
	}

	opts := optionsFrom(ctx)
	logger := loggerFrom(ctx)
	out := stdoutFrom(ctx)

	for _, src := range srcs {
		f, err := lang.Rewrite(ctx, src.Name, src.Data, opts...)
		if err != nil {
			return err
		}

		if !e.Write || src.isStdin() {
			if _, err := out.Write(f.Source); err != nil {
				return ErrWriteOutput.Wrap(err)
			}

			continue
		}

		dst := e.target(src.Path)
		if dst == src.Path && len(f.Invocations) == 0 {
			logger.DebugContext(ctx, "unchanged", slog.String("file", src.Path))

			continue
		}

		if err := os.WriteFile(dst, f.Source, src.Mode); err != nil {
			return ErrWriteOutput.
				With(slog.String("file", dst)).
				Wrap(err)
		}

		logger.InfoContext(ctx, "expanded",
			slog.String("file", src.Path),
			slog.String("output", dst),
			slog.Int("invocations", len(f.Invocations)))
	}

	return nil
}

// target returns the file the expansion of path is written to: path without
// the template suffix, or path itself.
func (e *Expand) target(path string) string {
	if e.Ext != "" && strings.HasSuffix(path, e.Ext) && len(path) > len(e.Ext) {
		return strings.TrimSuffix(path, e.Ext)
	}

	return path
}
