// Package targets discovers the compilable entry points of a project and picks
// the main one.
//
// A target is a directory holding a main.go matched by the discovery pattern
// (cmd/*/main.go by default). Its name is the directory's base name and its
// source path the "./dir/..." package pattern handed to the go tool.
package targets
