package delivery

import (
	"sync"

	"github.com/jimezsa/ghostcli/internal/models"
)

const streamBuffer = 16

// Stream is a surface that forwards results to a channel reader, such as
// a server-sent events connection.
type Stream struct {
	mu     sync.Mutex
	ch     chan models.AnalysisResult
	closed bool
	done   chan struct{}
}

func NewStream() *Stream {
	return &Stream{
		ch:   make(chan models.AnalysisResult, streamBuffer),
		done: make(chan struct{}),
	}
}

// Results yields shown results until the stream is closed.
func (s *Stream) Results() <-chan models.AnalysisResult {
	return s.ch
}

// Done is closed when the stream is detached.
func (s *Stream) Done() <-chan struct{} {
	return s.done
}

// Show never blocks; when the reader lags the oldest pending result is
// dropped.
func (s *Stream) Show(result models.AnalysisResult) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	for {
		select {
		case s.ch <- result:
			return
		default:
		}
		select {
		case <-s.ch:
		default:
		}
	}
}

func (s *Stream) Clear(string) {}

func (s *Stream) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	s.closed = true
	close(s.done)
	close(s.ch)
}
