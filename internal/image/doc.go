// Package image packages the project's binaries into a container image with
// the docker CLI and pushes it to the configured registries.
//
// The Dockerfile is rendered from the build plan and fed to docker build on
// stdin, so nothing is written to the project tree. Registry entries are
// either "github" (the GitHub package registry, authenticated from the
// GITHUB_* environment of an Actions run) or a plain host/namespace prefix.
package image
