// Package main hosts the authmon CLI entrypoint and command graph.
//
// The Cobra command tree runs the monitor in the foreground, scaffolds and
// validates configuration, prints the failure history and performs preflight
// checks. Configuration resolution lives here; everything else is delegated to
// the internal packages.
package main
