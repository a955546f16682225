// Package profile starts an optional [github.com/pkg/profile] session around
// a clonelist run.
//
// Profiling is compiled in only with the "pprof" build tag:
//
//	go build -tags pprof ./
//	clonelist --pprof-mode cpu --pprof-dir ./prof expand ./...
//
// Without the tag [Modes] is empty and [Config.Start] always returns a no-op
// stopper, so callers never need to check how the binary was built.
package profile
