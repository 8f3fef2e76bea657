// Package daemonrun wires configuration, logging, history, metrics and the
// monitor into the long-running `authmon run` process.
package daemonrun
