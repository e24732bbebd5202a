// Package build turns a derived version and a set of discovered targets into
// go tool invocations and runs them.
//
// ComposeLdflags produces the link-time -X directives that stamp every binary
// with its version and provenance. A Plan couples those flags with the targets
// and the main target; Plan.Commands renders one command per target for the
// requested Action. The Executor runs build commands with a bounded worker
// pool and propagates the exit status of the first failing compile.
package build
