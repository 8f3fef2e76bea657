// Package tailer follows a single append-only log file by polling.
//
// A Tailer is driven by its owner: every call to Poll performs one bounded
// unit of work that notices whether the file at the watched path was
// replaced, removed or truncated, reads whatever bytes were appended since the
// previous call and hands each complete line (terminator included) to the
// caller's consumer in file order. Unterminated trailing bytes are held until
// a later tick completes them.
//
// File identity is a device/inode pair on unix platforms, which is what lets
// the tailer tell a rotated or recreated file apart from the one it was
// reading even though the path never changes. The tailer starts no
// goroutines and never sleeps; scheduling belongs to the caller.
package tailer
