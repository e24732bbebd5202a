// Package git inspects the repository buildstamp runs in.
//
// Query is the raw data source with one method per field. CLIQuery shells out
// to the git binary and GoGitQuery reads the repository with go-git. Inspector
// runs every query exactly once per invocation, unshallowing first when the
// clone is shallow, and returns an immutable State. Query failures never
// escape the Inspector: each field degrades to its zero value.
package git
