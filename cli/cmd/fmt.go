package cmd

import (
	"context"
	"log/slog"
	"slices"
	"strings"

	"github.com/ardnew/clonelist/lang"
)

// Fmt scans a Go source for invocations and prints their requests in the
// chosen format.
type Fmt struct {
	Native Native `cmd:"" default:"withargs" help:"Format as invocation syntax (default)."`
	JSON   JSON   `cmd:""                    help:"Format as JSON."`
	YAML   YAML   `cmd:""                    help:"Format as YAML."`
	AST    AST    `cmd:""                    help:"Format as a request tree."`
}

// scanDocument reads source and collects its invocations. A source holding
// only invocation arguments, such as "[a], a + 1", is parsed as one request.
func scanDocument(ctx context.Context, source, format string) (*lang.Document, error) {
	srcs, err := readSources([]string{source})
	if err != nil {
		return nil, err
	}

	if len(srcs) == 0 {
		return lang.NewDocument(source, nil), nil
	}

	src := srcs[0]
	opts := optionsFrom(ctx)

	invs, err := lang.Scan(ctx, src.Name, src.Data, opts...)
	if err != nil {
		loggerFrom(ctx).DebugContext(ctx, "scan failed", slog.String("format", format))

		return nil, err
	}

	if len(invs) == 0 && strings.HasPrefix(strings.TrimSpace(string(src.Data)), "[") {
		req, err := lang.Parse(ctx, string(src.Data), append(slices.Clip(opts), lang.WithFilename(src.Name))...)
		if err != nil {
			loggerFrom(ctx).DebugContext(ctx, "parse failed", slog.String("format", format))

			return nil, err
		}

		invs = []*lang.Invocation{{Request: req, Text: string(src.Data)}}
	}

	return lang.NewDocument(src.Name, invs), nil
}

// Native formats requests in invocation syntax.
type Native struct {
	Indent int `default:"0" help:"Indent width for bindings, 0 for one line per request" short:"i"`

	Source string `arg:"" default:"-" help:"Source input file or '-' for default stdin." name:"source"`
}

// Run executes the fmt command.
func (f *Native) Run(ctx context.Context) (err error) {
	ctx, cancel := context.WithCancelCause(ctx)

	defer func(err *error) { cancel(*err) }(&err)

	doc, err := scanDocument(ctx, f.Source, "native")
	if err != nil {
		return err
	}

	return doc.Format(ctx, stdoutFrom(ctx), macroFrom(ctx), f.Indent)
}

// JSON formats requests as JSON.
type JSON struct {
	Indent int `default:"2" help:"Indent width for JSON output" short:"i"`

	Source string `arg:"" default:"-" help:"Source input file or '-' for default stdin." name:"source"`
}

// Run executes the json command.
func (j *JSON) Run(ctx context.Context) (err error) {
	ctx, cancel := context.WithCancelCause(ctx)

	defer func(err *error) { cancel(*err) }(&err)

	doc, err := scanDocument(ctx, j.Source, "json")
	if err != nil {
		return err
	}

	return doc.FormatJSON(ctx, stdoutFrom(ctx), j.Indent)
}

// YAML formats requests as YAML.
type YAML struct {
	Indent int `default:"2" help:"Indent width for YAML output" short:"i"`

	Source string `arg:"" default:"-" help:"Source input file or '-' for default stdin." name:"source"`
}

// Run executes the yaml command.
func (y *YAML) Run(ctx context.Context) (err error) {
	ctx, cancel := context.WithCancelCause(ctx)

	defer func(err *error) { cancel(*err) }(&err)

	doc, err := scanDocument(ctx, y.Source, "yaml")
	if err != nil {
		return err
	}

	return doc.FormatYAML(ctx, stdoutFrom(ctx), y.Indent)
}

// AST prints requests as an indented tree.
type AST struct {
	Source string `arg:"" default:"-" help:"Source input file or '-' for default stdin." name:"source"`
}

// Run executes the ast command.
func (a *AST) Run(ctx context.Context) (err error) {
	ctx, cancel := context.WithCancelCause(ctx)

	defer func(err *error) { cancel(*err) }(&err)

	doc, err := scanDocument(ctx, a.Source, "ast")
	if err != nil {
		return err
	}

	doc.Print(stdoutFrom(ctx))

	return nil
}
