// Package preflight provides readiness checks for the watched file, the
// configured action and the state directory that authmon depends on.
//
// The CLI "authmon check" command runs RunAll and renders each Result. Checks
// never modify state: the lock probe releases the lock immediately and the
// history probe only reads.
package preflight
