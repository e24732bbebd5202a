// Package shell runs external programs (git, go, docker) on behalf of the
// derivation engine and the build collaborators.
//
// Runner is the seam: production code uses ExecRunner, tests use the scripted
// runner in shelltest.
package shell
