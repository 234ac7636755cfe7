package bakeoff

import "github.com/finshield/mlengine/internal/domain"

// ChannelSink is a buffered, non-blocking domain.ProgressSink: a full
// channel drops its oldest event to make room for the newest rather than
// blocking the training loop. The core never waits on a slow orchestrator.
type ChannelSink struct {
	ch chan domain.Progress
}

// NewChannelSink returns a ChannelSink buffering up to capacity events.
func NewChannelSink(capacity int) *ChannelSink {
	if capacity <= 0 {
		capacity = 1
	}
	return &ChannelSink{ch: make(chan domain.Progress, capacity)}
}

// Report implements domain.ProgressSink.
func (s *ChannelSink) Report(p domain.Progress) {
	select {
	case s.ch <- p:
		return
	default:
	}
	select {
	case <-s.ch:
	default:
	}
	select {
	case s.ch <- p:
	default:
	}
}

// Events exposes the underlying channel for the orchestrator to drain.
func (s *ChannelSink) Events() <-chan domain.Progress {
	return s.ch
}
