// Package versioning derives a semver version string from repository state.
//
// The derived version of an untagged or modified tree is a pre-release of the
// next patch version, so it always sorts strictly after the tag it descends
// from and strictly before the next patch tag:
//
//	v0.6.0                          tag on main
//	v0.6.1-rc.3.g6ede8cd            three commits later on main
//	v0.6.1-cleanup.1.g6ede8cd       one commit later on branch cleanup
//	v0.6.1-rc.0.g6ede8cd.m65a1b2c3  the tag with local modifications
package versioning
