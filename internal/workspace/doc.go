// Package workspace manages the directories buildstamp writes binaries to,
// supporting both persistent (fixed-path) and ephemeral (timestamped) modes.
//
// Persistent mode owns the project's bin dir: build creates it and clean
// removes it.
//
// Ephemeral mode creates timestamped scratch directories (e.g.
// buildstamp-run-20251214-122336-0421) that are removed after use; watch-run
// compiles the main target into one so it can restart the binary directly.
package workspace
