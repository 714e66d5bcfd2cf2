package frame

import (
	"errors"
	"fmt"
	"sync/atomic"
)

// ErrStaleFrame is returned for a frame older than one already admitted. The
// caller drops it without replying.
var ErrStaleFrame = errors.New("stale frame")

// Sequencer admits frames in non-decreasing id order. Several requests may
// share an id when a frame is split into ray ranges.
type Sequencer struct {
	latest atomic.Int64
}

// NewSequencer creates a sequencer that admits any non-negative id first.
func NewSequencer() *Sequencer {
	s := &Sequencer{}
	s.latest.Store(-1)
	return s
}

// Admit records id as the newest frame, or returns ErrStaleFrame when a newer
// frame has already been admitted.
func (s *Sequencer) Admit(id int) error {
	for {
		latest := s.latest.Load()
		if int64(id) < latest {
			return fmt.Errorf("%w: frame %d is older than %d", ErrStaleFrame, id, latest)
		}
		if s.latest.CompareAndSwap(latest, int64(id)) {
			return nil
		}
	}
}

// Latest returns the newest admitted frame id, -1 before the first.
func (s *Sequencer) Latest() int {
	return int(s.latest.Load())
}

// Reset forgets every admitted frame.
func (s *Sequencer) Reset() {
	s.latest.Store(-1)
}
