// Package cmd implements the clonelist subcommands: expand, check, fmt,
// eval, repl, and init.
package cmd

var (
	// CacheIdentifier is the kong variable identifier containing the path to
	// the runtime cache directory.
	CacheIdentifier = "cache"

	// ConfigIdentifier is the kong variable identifier containing the path to
	// the user configuration file that init writes.
	ConfigIdentifier = "config"
)
