package frame

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
)

// maxMessageSize bounds one request line; maps travel inside init messages.
const maxMessageSize = 32 << 20

// scannedLine is one request line, or the error that ended the input.
type scannedLine struct {
	data []byte
	err  error
}

// Serve reads one JSON message per line from r and writes one JSON reply per
// line to w until r is exhausted or ctx is done. Stale frames get no reply.
// A cancelled ctx returns at once even while r blocks; the reading goroutine
// then exits when r next returns.
func (s *Service) Serve(ctx context.Context, r io.Reader, w io.Writer) error {
	lines := make(chan scannedLine)
	done := make(chan struct{})
	defer close(done)
	go readLines(r, lines, done)

	out := bufio.NewWriter(w)
	enc := json.NewEncoder(out)
	enc.SetEscapeHTML(false)

	for {
		var next scannedLine
		var ok bool
		select {
		case <-ctx.Done():
			return ctx.Err()
		case next, ok = <-lines:
		}
		if !ok {
			return nil
		}
		if next.err != nil {
			return next.err
		}

		reply, err := s.HandleMessage(ctx, next.data)
		if errors.Is(err, ErrStaleFrame) {
			continue
		}
		if err != nil {
			return err
		}
		if err := enc.Encode(reply); err != nil {
			return err
		}
		if err := out.Flush(); err != nil {
			return err
		}
	}
}

// readLines feeds non-empty lines of r into lines until r ends or done
// closes. Each line is copied since the scanner reuses its buffer.
func readLines(r io.Reader, lines chan<- scannedLine, done <-chan struct{}) {
	defer close(lines)

	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), maxMessageSize)
	for scanner.Scan() {
		line := bytes.TrimSpace(scanner.Bytes())
		if len(line) == 0 {
			continue
		}
		select {
		case lines <- scannedLine{data: bytes.Clone(line)}:
		case <-done:
			return
		}
	}
	if err := scanner.Err(); err != nil {
		select {
		case lines <- scannedLine{err: err}:
		case <-done:
		}
	}
}
