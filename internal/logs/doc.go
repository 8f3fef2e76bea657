// Package logs reads authmon's own log file for the `authmon logs` command.
//
// Last returns the final lines of a file with bounded memory. Follow then
// streams new lines through the same tailer the monitor uses, so rotating the
// log with logrotate does not interrupt a follow session.
package logs
