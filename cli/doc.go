// Package cli contains the command line interface for clonelist.
//
// # Usage
//
// The default command expands every invocation in the Go files given and
// prints the result:
//
//	clonelist main.go.clone
//	clonelist expand --write ./*.go.clone
//
// With --write, a file ending in the template suffix (--ext, ".clone" by
// default) is expanded into the same path without it; any other file is
// rewritten in place.
//
// Other commands:
//
//	clonelist check FILE...             # report malformed invocations
//	clonelist fmt [json|yaml|ast] FILE  # print the requests found
//	clonelist eval -v a=1 '[a], a + 1'  # evaluate with expr-lang
//	clonelist repl                      # interactive playground
//	clonelist init                      # write current flags to config.yaml
//
// # Configuration
//
// Flag defaults are read, in increasing precedence, from config.json and
// config.yaml in the user configuration directory, then from the nearest
// .clonelist.toml found walking up from the working directory. Keys name
// flags; nested tables are joined with hyphens:
//
//	[log]
//	level = "debug"
//
//	dup_func = "clone.Deep"
//	dup_import = "example.com/clone"
//
// Unknown keys are an error.
//
// # Expansion Options
//
//   - --macro: Name of the pseudo-macro (default clone)
//   - --dup-func: Function duplicating each value, empty for a plain copy
//   - --dup-import: Import path added for the duplication function
//   - --result-type: Force the result type of every expansion
//   - --fallback-type: Result type when none can be inferred (default any)
//   - --[no-]mutability-check: Reject assignments to bindings not marked mut
//
// # Logging Options
//
//   - --log-level: Set minimum log level (trace, debug, info, warn, error)
//   - --log-format: Set log output format (json, text)
//   - --log-time-layout: Set timestamp format (RFC3339, RFC3339Nano, etc.)
//   - --log-caller: Include caller information in log output
//
// # Profiling Options
//
// Profiling is only available when built with the pprof build tag:
//
//	go build -tags pprof -o clonelist .
//
//   - --pprof-mode: Enable profiling (allocs, block, clock, cpu, goroutine,
//     heap, mem, mutex, thread, trace)
//   - --pprof-dir: Set profile output directory (default
//     ~/.cache/clonelist/pprof)
package cli
