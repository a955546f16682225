// Package log wraps [log/slog] with the small set of knobs clonelist exposes
// on its command line: level, format, timestamp layout, caller info, and
// colorized output.
//
// A [Logger] is a value. Options are applied when it is created with [Make]
// or derived with [Logger.Wrap], and the result never changes afterwards, so
// a Logger may be copied and shared between goroutines freely.
//
//	logger := log.Make(os.Stderr,
//		log.WithLevel(log.LevelDebug),
//		log.WithFormat(log.FormatText),
//		log.WithTimeLayout("kitchen"))
//
//	logger.Debug("expanded", slog.Int("bindings", 3))
//
// # Levels
//
// Besides the four [slog] levels there is [LevelTrace], used by the expander
// for per-item parse events.
//
// # Package logger
//
// The package-level functions ([Info], [Debug], ...) write through a default
// logger that the command line replaces with [Config].
//
// Calls without a context use [DefaultContextProvider].
package log
