package jsonsmith

import "sync"

// TextStream is a lazy, single-pass sequence of cumulative text snapshots.
// Each snapshot is the full text so far, not a delta.
//
// Oracles return one per call (snapshots of the model response), and
// [Session.Run] returns one for the whole run (snapshots of the output
// buffer). Consumers that stop early must call Close so producers can
// release resources.
type TextStream interface {
	// Snapshots returns the channel of cumulative snapshots. It is closed
	// when the producer completes or the stream is closed.
	Snapshots() <-chan string

	// Close abandons the stream. Subsequent sends are discarded.
	// It is safe to call multiple times.
	Close()
}

// RunStream is the TextStream returned by [Session.Run]. In addition to the
// buffer snapshots it carries the final result of the run.
type RunStream interface {
	TextStream

	// Result blocks until the run finishes and returns the final buffer and
	// the run error, if any. Cooperative cancellation is not an error: the
	// buffer as of the last snapshot is returned with a nil error.
	Result() (string, error)
}

// StreamBuffer implements TextStream (and RunStream) with an unbounded
// internal queue. Send never blocks, even with no listener or a slow one:
// snapshots are queued under a mutex and a background goroutine drains the
// queue to the output channel.
//
// Oracle implementations use it to bridge callback-style streaming APIs to
// the pull-based TextStream contract:
//
//	stream := jsonsmith.NewStreamBuffer()
//	go func() {
//	    // accumulate model deltas into cumulative text, then:
//	    stream.Send(cumulative)
//	    ...
//	    stream.Complete(finalText, err)
//	}()
//	return stream, nil
type StreamBuffer struct {
	out  chan string
	done chan struct{}

	mu         sync.Mutex
	queue      []string
	cond       *sync.Cond
	closed     bool
	doneClosed bool

	resultMu     sync.Mutex
	result       string
	resultErr    error
	resultDone   chan struct{}
	resultClosed bool
}

// NewStreamBuffer creates a stream buffer ready to receive snapshots.
func NewStreamBuffer() *StreamBuffer {
	s := &StreamBuffer{
		out:        make(chan string, 1),
		done:       make(chan struct{}),
		queue:      make([]string, 0, 64),
		resultDone: make(chan struct{}),
	}
	s.cond = sync.NewCond(&s.mu)
	go s.drainLoop()
	return s
}

// drainLoop moves snapshots from the internal queue to the output channel
// until the stream is closed and the queue is drained.
func (s *StreamBuffer) drainLoop() {
	for {
		snapshot, ok := s.dequeue()
		if !ok {
			close(s.out)
			return
		}
		// The consumer abandons mid-stream as a matter of course (the first
		// stopping-pattern match wins), so a blocked delivery must yield to
		// Close rather than hold this goroutine forever.
		select {
		case s.out <- snapshot:
		case <-s.done:
			close(s.out)
			return
		}
	}
}

// dequeue blocks until a snapshot is available or the stream is closed.
// Returns ("", false) once closed and empty.
func (s *StreamBuffer) dequeue() (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for len(s.queue) == 0 && !s.closed {
		s.cond.Wait()
	}
	if len(s.queue) == 0 {
		return "", false
	}

	snapshot := s.queue[0]
	s.queue = s.queue[1:]
	return snapshot, true
}

// Send queues a snapshot. It never blocks and is safe to call from any
// goroutine. Snapshots sent after Close or Complete are discarded.
func (s *StreamBuffer) Send(snapshot string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return
	}
	s.queue = append(s.queue, snapshot)
	s.cond.Signal()
}

// Complete closes the stream and records the final result for Result.
// Queued snapshots are still delivered before the channel closes.
func (s *StreamBuffer) Complete(result string, err error) {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.closed = true
	s.cond.Signal()
	s.mu.Unlock()

	// Close may race this from the consumer side; whichever gets here first
	// settles the result.
	s.resultMu.Lock()
	if !s.resultClosed {
		s.resultClosed = true
		s.result = result
		s.resultErr = err
		close(s.resultDone)
	}
	s.resultMu.Unlock()
}

// Snapshots implements TextStream.
func (s *StreamBuffer) Snapshots() <-chan string {
	return s.out
}

// Close implements TextStream. Closing a stream that was never completed
// makes Result return ("", nil).
func (s *StreamBuffer) Close() {
	s.mu.Lock()
	s.closed = true
	if !s.doneClosed {
		s.doneClosed = true
		close(s.done)
	}
	s.cond.Signal()
	s.mu.Unlock()

	s.resultMu.Lock()
	if !s.resultClosed {
		s.resultClosed = true
		close(s.resultDone)
	}
	s.resultMu.Unlock()
}

// Result implements RunStream. It blocks until Complete or Close is called.
func (s *StreamBuffer) Result() (string, error) {
	<-s.resultDone
	s.resultMu.Lock()
	defer s.resultMu.Unlock()
	return s.result, s.resultErr
}

// Compile-time checks.
var (
	_ TextStream = (*StreamBuffer)(nil)
	_ RunStream  = (*StreamBuffer)(nil)
)
