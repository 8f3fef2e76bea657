package tailer

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"strings"
	"syscall"

	"authmon/internal/logging"
)

// ErrIO marks failures that will not clear up by themselves, such as missing
// permissions or a path that names a directory. Everything else tied to the
// file coming and going is absorbed by Poll.
var ErrIO = errors.New("tail i/o error")

var errIsDirectory = errors.New("is a directory")

// readChunk bounds a single read; larger backlogs are consumed in several
// reads within the same Poll.
const readChunk = 64 * 1024

// ResetReason describes why the tailer went back to the start of the file.
type ResetReason string

const (
	ResetAppeared  ResetReason = "appeared"
	ResetReplaced  ResetReason = "replaced"
	ResetTruncated ResetReason = "truncated"
	ResetVanished  ResetReason = "vanished"
)

// Option customizes a Tailer.
type Option func(*Tailer)

// WithLogger routes reset and transient error diagnostics to logger.
func WithLogger(logger *slog.Logger) Option {
	return func(t *Tailer) {
		if logger != nil {
			t.logger = logger
		}
	}
}

// WithResetHook registers fn to be called whenever the read position is reset.
func WithResetHook(fn func(ResetReason)) Option {
	return func(t *Tailer) {
		t.onReset = fn
	}
}

type fileState struct {
	id      fileID
	size    int64
	removed bool
	dir     bool
}

// Tailer tracks one path. It is not safe for concurrent use.
type Tailer struct {
	path    string
	file    *os.File
	id      fileID
	hasID   bool
	offset  int64
	pending []byte

	logger  *slog.Logger
	onReset func(ResetReason)
}

// New prepares a tailer for path. The file does not have to exist yet. When it
// does, reading starts at its current end so existing content is not replayed.
func New(path string, opts ...Option) (*Tailer, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("%w: path is required", ErrIO)
	}
	t := &Tailer{path: path, logger: logging.NewNop()}
	for _, opt := range opts {
		opt(t)
	}

	file, state, err := t.open()
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			t.logger.Debug("watched file absent at start", logging.String("path", path))
			return t, nil
		}
		return nil, fmt.Errorf("%w: open %s: %w", ErrIO, path, err)
	}
	t.file = file
	t.id = state.id
	t.hasID = true
	t.offset = state.size
	return t, nil
}

// Path returns the watched path.
func (t *Tailer) Path() string {
	return t.path
}

// Offset returns the byte position consumed so far in the current file,
// including any buffered partial line.
func (t *Tailer) Offset() int64 {
	return t.offset
}

// Poll delivers every complete line appended since the previous call to
// consume, in order and with the trailing newline. A missing file is not an
// error. If consume panics the position stays just after the last line whose
// call returned, so the failed line is offered again on the next Poll.
func (t *Tailer) Poll(consume func(line string)) error {
	size, ok, err := t.sync()
	if err != nil || !ok {
		return err
	}

	buf := make([]byte, min(readChunk, max(size-t.offset, 0)))
	for t.offset < size {
		want := min(int64(len(buf)), size-t.offset)
		n, err := t.file.ReadAt(buf[:want], t.offset)
		if n > 0 {
			t.deliver(buf[:n], consume)
		}
		if err != nil {
			if errors.Is(err, io.EOF) {
				// Shrunk between stat and read; the next tick sees the truncation.
				return nil
			}
			return t.classify("read", err)
		}
	}
	return nil
}

// Close releases the file handle. A closed tailer treats the next file it
// finds as new and reads it from the beginning.
func (t *Tailer) Close() error {
	err := t.release()
	t.hasID = false
	t.offset = 0
	t.pending = nil
	return err
}

// sync reconciles the held handle with whatever currently lives at the path
// and reports the size to read up to. ok is false when there is nothing to
// read this tick.
func (t *Tailer) sync() (int64, bool, error) {
	current, err := statPath(t.path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			t.forget()
			return 0, false, nil
		}
		return 0, false, t.classify("stat", err)
	}
	if current.dir {
		return 0, false, fmt.Errorf("%w: %s: %w", ErrIO, t.path, errIsDirectory)
	}

	if t.file != nil && t.hasID && current.id.equal(t.id) {
		held, err := statHandle(t.file)
		if err != nil {
			return 0, false, t.classify("fstat", err)
		}
		// A zero link count means the inode number was recycled for a new file.
		if !held.removed {
			if held.size < t.offset {
				t.reset(ResetTruncated)
			}
			return held.size, true, nil
		}
	}

	reason := ResetAppeared
	if t.hasID {
		reason = ResetReplaced
	}
	file, state, err := t.open()
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			t.forget()
			return 0, false, nil
		}
		return 0, false, t.classify("open", err)
	}
	_ = t.release()
	t.file = file
	t.id = state.id
	t.hasID = true
	t.reset(reason)
	return state.size, true, nil
}

func (t *Tailer) open() (*os.File, fileState, error) {
	file, err := os.Open(t.path)
	if err != nil {
		return nil, fileState{}, err
	}
	state, err := statHandle(file)
	if err != nil {
		_ = file.Close()
		return nil, fileState{}, err
	}
	if state.dir {
		_ = file.Close()
		return nil, fileState{}, &os.PathError{Op: "open", Path: t.path, Err: errIsDirectory}
	}
	return file, state, nil
}

// deliver splits chunk, prefixed by any pending fragment, into lines. The
// position is committed after every line so a panicking consumer never causes
// a line to be delivered twice once it has returned.
func (t *Tailer) deliver(chunk []byte, consume func(string)) {
	data := chunk
	if len(t.pending) > 0 {
		data = make([]byte, 0, len(t.pending)+len(chunk))
		data = append(data, t.pending...)
		data = append(data, chunk...)
	}
	start := t.offset - int64(len(t.pending))
	for {
		idx := bytes.IndexByte(data, '\n')
		if idx < 0 {
			break
		}
		line := string(data[:idx+1])
		data = data[idx+1:]
		consume(line)
		start += int64(idx + 1)
		t.offset = start
		t.pending = nil
	}
	t.offset = start + int64(len(data))
	if len(data) > 0 {
		t.pending = append([]byte(nil), data...)
	} else {
		t.pending = nil
	}
}

func (t *Tailer) reset(reason ResetReason) {
	t.offset = 0
	t.pending = nil
	t.logger.Debug("tail position reset",
		logging.String("path", t.path),
		logging.String("reason", string(reason)),
	)
	if t.onReset != nil {
		t.onReset(reason)
	}
}

// forget drops all state for a file that is no longer at the path.
func (t *Tailer) forget() {
	if !t.hasID && t.file == nil {
		return
	}
	_ = t.release()
	t.hasID = false
	t.reset(ResetVanished)
}

func (t *Tailer) release() error {
	if t.file == nil {
		return nil
	}
	err := t.file.Close()
	t.file = nil
	return err
}

// classify turns err into a returned ErrIO when it cannot heal by itself and
// swallows it otherwise.
func (t *Tailer) classify(op string, err error) error {
	if isFatal(err) {
		return fmt.Errorf("%w: %s %s: %w", ErrIO, op, t.path, err)
	}
	t.logger.Debug("transient tail error, retrying next poll",
		logging.String("path", t.path),
		logging.String("op", op),
		logging.Error(err),
	)
	return nil
}

func isFatal(err error) bool {
	return errors.Is(err, fs.ErrPermission) ||
		errors.Is(err, errIsDirectory) ||
		errors.Is(err, syscall.ENAMETOOLONG) ||
		errors.Is(err, syscall.ELOOP) ||
		errors.Is(err, syscall.ENOTDIR)
}
