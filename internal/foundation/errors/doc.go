// Package errors provides foundational, type-safe error primitives used across buildstamp.
//
// Key features:
//   - ErrorCategory: Broad error classification (config, git, build, image, etc.)
//   - ErrorSeverity: Impact level (fatal, error, warning, info)
//   - RetryStrategy: Retry behavior (never, immediate, backoff, user action)
//   - ClassifiedError: Structured error with category, severity, and context
//   - ErrorBuilder: Fluent API for creating classified errors
//   - CLIErrorAdapter: exit codes and terminal presentation
//
// Subprocess failures record the child's exit status with WithExitCode so the
// CLI exits with the same status the failing command did:
//
//	err := errors.BuildError("compile failed").
//		WithCause(runErr).
//		WithContext("target", name).
//		WithExitCode(2).
//		Build()
package errors
