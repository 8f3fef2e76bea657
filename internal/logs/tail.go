package logs

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"authmon/internal/tailer"
)

const maxLineBytes = 1024 * 1024

// Last returns up to limit final lines of path without their newlines. A
// missing file yields no lines. A non-positive limit returns nothing.
func Last(path string, limit int) ([]string, error) {
	if limit <= 0 {
		return nil, nil
	}
	file, err := os.Open(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("open log file: %w", err)
	}
	defer file.Close()

	scanner := bufio.NewScanner(file)
	scanner.Buffer(make([]byte, 0, 64*1024), maxLineBytes)

	ring := make([]string, limit)
	count := 0
	idx := 0
	for scanner.Scan() {
		ring[idx] = scanner.Text()
		idx = (idx + 1) % limit
		if count < limit {
			count++
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read log file: %w", err)
	}

	lines := make([]string, count)
	if count == limit {
		for i := range count {
			lines[i] = ring[(idx+i)%limit]
		}
	} else {
		copy(lines, ring[:count])
	}
	return lines, nil
}

// Follow emits every line appended to path after the call until ctx ends.
// Lines are passed without their trailing newline.
func Follow(ctx context.Context, path string, interval time.Duration, emit func(string)) error {
	if interval <= 0 {
		interval = 250 * time.Millisecond
	}
	t, err := tailer.New(path)
	if err != nil {
		return fmt.Errorf("follow %s: %w", path, err)
	}
	defer t.Close()

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		err := t.Poll(func(line string) {
			emit(strings.TrimRight(line, "\r\n"))
		})
		if err != nil {
			return fmt.Errorf("follow %s: %w", path, err)
		}
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
		}
	}
}
