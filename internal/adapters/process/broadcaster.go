package process

import (
	"io"
	"sync"

	"colab/internal/logging"
)

// broadcaster fans a single output stream out to any number of
// attached readers. Each reader observes everything written after its
// attachment; detaching a reader never affects the source or the
// other readers. A reader that stops draining is dropped rather than
// allowed to stall the process pump.
type broadcaster struct {
	mu     sync.Mutex
	closed bool
	subs   map[*subscriber]struct{}
}

type subscriber struct {
	b  *broadcaster
	ch chan []byte
	pr *io.PipeReader
	pw *io.PipeWriter
}

const subscriberBuffer = 256

func newBroadcaster() *broadcaster {
	return &broadcaster{subs: make(map[*subscriber]struct{})}
}

// Write implements io.Writer for the process pump
func (b *broadcaster) Write(p []byte) (int, error) {
	// Copy: the pump reuses its buffer between reads
	data := make([]byte, len(p))
	copy(data, p)

	b.mu.Lock()
	for sub := range b.subs {
		select {
		case sub.ch <- data:
		default:
			// Reader stopped draining, cut it loose
			logging.Logger.Warn("Dropping lagging log stream reader")
			delete(b.subs, sub)
			close(sub.ch)
		}
	}
	b.mu.Unlock()

	return len(p), nil
}

// Attach returns a reader observing all output from this point onward
func (b *broadcaster) Attach() io.ReadCloser {
	pr, pw := io.Pipe()
	sub := &subscriber{
		b:  b,
		ch: make(chan []byte, subscriberBuffer),
		pr: pr,
		pw: pw,
	}

	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		pw.Close()
		return pr
	}
	b.subs[sub] = struct{}{}
	b.mu.Unlock()

	go sub.pump()
	return sub
}

// Close marks the end of the stream and releases all readers
func (b *broadcaster) Close() {
	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		return
	}
	b.closed = true
	for sub := range b.subs {
		delete(b.subs, sub)
		close(sub.ch)
	}
	b.mu.Unlock()
}

func (s *subscriber) pump() {
	for data := range s.ch {
		if _, err := s.pw.Write(data); err != nil {
			// Reader side closed
			s.detach()
			return
		}
	}
	s.pw.Close()
}

func (s *subscriber) detach() {
	s.b.mu.Lock()
	if _, ok := s.b.subs[s]; ok {
		delete(s.b.subs, s)
		close(s.ch)
	}
	s.b.mu.Unlock()
}

// Read implements io.ReadCloser by delegating to the pipe
func (s *subscriber) Read(p []byte) (int, error) {
	return s.pr.Read(p)
}

// Close detaches the reader from the stream
func (s *subscriber) Close() error {
	s.detach()
	return s.pr.Close()
}
