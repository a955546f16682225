package cmd

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"syscall"

	"github.com/alecthomas/kong"

	"github.com/ardnew/clonelist/lang"
	"github.com/ardnew/clonelist/log"
)

type (
	contextKey struct{}
	optionsKey struct{}
	macroKey   struct{}
	loggerKey  struct{}
)

// WithContext returns a new context.Context containing the given kong.Context.
func WithContext(ctx context.Context, ktx *kong.Context) context.Context {
	return context.WithValue(ctx, contextKey{}, ktx)
}

func kongContextFrom(ctx context.Context) *kong.Context {
	ktx, ok := ctx.Value(contextKey{}).(*kong.Context)
	if !ok || ktx == nil {
		return nil
	}

	return ktx
}

// WithOptions returns a new context.Context carrying the lang options every
// command parses and expands with.
func WithOptions(ctx context.Context, opts ...lang.Option) context.Context {
	return context.WithValue(ctx, optionsKey{}, opts)
}

func optionsFrom(ctx context.Context) []lang.Option {
	opts, _ := ctx.Value(optionsKey{}).([]lang.Option)

	return opts
}

// WithMacro returns a new context.Context carrying the macro name commands
// recognize and format invocations with.
func WithMacro(ctx context.Context, name string) context.Context {
	return context.WithValue(ctx, macroKey{}, name)
}

func macroFrom(ctx context.Context) string {
	if name, ok := ctx.Value(macroKey{}).(string); ok && name != "" {
		return name
	}

	return lang.DefaultMacro
}

// WithLogger returns a new context.Context carrying the logger commands
// report progress to.
func WithLogger(ctx context.Context, logger log.Logger) context.Context {
	return context.WithValue(ctx, loggerKey{}, logger)
}

func loggerFrom(ctx context.Context) log.Logger {
	if logger, ok := ctx.Value(loggerKey{}).(log.Logger); ok {
		return logger
	}

	return log.Default()
}

// stdoutFrom returns the writer Kong was configured with, or os.Stdout.
func stdoutFrom(ctx context.Context) io.Writer {
	if ktx := kongContextFrom(ctx); ktx != nil && ktx.Stdout != nil {
		return ktx.Stdout
	}

	return os.Stdout
}

// stdin is read when a command is given "-" or no files at all. Tests
// replace it.
var stdin io.Reader = os.Stdin

// stdinSource is the special source indicator for reading from stdin.
const stdinSource = "-"

// stdinName names standard input in positions and messages.
const stdinName = "<stdin>"

// source is one input file.
type source struct {
	// Name identifies the source in messages: its path as given, or
	// [stdinName].
	Name string
	// Path is the file the source was read from, empty for stdin.
	Path string
	Data []byte
	Mode os.FileMode
}

func (s *source) isStdin() bool { return s.Path == "" }

// fileKey uniquely identifies a file by its device and inode numbers.
// This handles deduplication across symlinks, absolute/relative paths, and
// special device files.
type fileKey struct {
	dev uint64
	ino uint64
}

// readSources reads every file named in paths, in order, skipping repeats
// of a file already read under another name. All occurrences of "-" are
// read once, after the regular files. No paths at all means stdin.
func readSources(paths []string) ([]*source, error) {
	if len(paths) == 0 {
		paths = []string{stdinSource}
	}

	var (
		srcs     []*source
		hasStdin bool
	)

	seen := make(map[fileKey]struct{})

	if info, err := os.Stdin.Stat(); err == nil {
		if key, ok := makeFileKey(info); ok && info.Mode().IsRegular() {
			seen[key] = struct{}{}
		}
	}

	for _, path := range paths {
		if path == stdinSource {
			hasStdin = true

			continue
		}

		src, err := readUniqueFile(path, seen)
		if err != nil {
			return nil, err
		}

		if src != nil {
			srcs = append(srcs, src)
		}
	}

	if hasStdin {
		data, err := io.ReadAll(stdin)
		if err != nil {
			return nil, lang.ErrReadInput.Wrap(err)
		}

		srcs = append(srcs, &source{Name: stdinName, Data: data})
	}

	return srcs, nil
}

// readUniqueFile reads the file at path unless a file with the same device
// and inode was already read, in which case it returns nil.
func readUniqueFile(path string, seen map[fileKey]struct{}) (*source, error) {
	resolved, err := filepath.EvalSymlinks(path)
	if err != nil {
		return nil, lang.ErrReadInput.Wrap(err)
	}

	info, err := os.Stat(resolved)
	if err != nil {
		return nil, lang.ErrReadInput.Wrap(err)
	}

	if info.IsDir() {
		return nil, lang.ErrReadInput.Wrap(fmt.Errorf("%s is a directory", path))
	}

	if key, ok := makeFileKey(info); ok {
		if _, exists := seen[key]; exists {
			return nil, nil
		}

		seen[key] = struct{}{}
	}

	data, err := os.ReadFile(resolved)
	if err != nil {
		return nil, lang.ErrReadInput.Wrap(err)
	}

	return &source{Name: path, Path: path, Data: data, Mode: info.Mode().Perm()}, nil
}

// makeFileKey creates a fileKey from os.FileInfo.
// Returns false if the underlying Sys() data is not of type *syscall.Stat_t.
func makeFileKey(info os.FileInfo) (key fileKey, ok bool) {
	stat, ok := info.Sys().(*syscall.Stat_t)
	if !ok {
		return key, false
	}

	return fileKey{dev: uint64(stat.Dev), ino: stat.Ino}, true //nolint:unconvert
}
