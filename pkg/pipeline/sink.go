package pipeline

import (
	"io"
	"sync"

	"github.com/openvt/openvt/internal/fifo"
	log "github.com/sirupsen/logrus"
)

// WriterSink forwards every message straight to an io.Writer.
type WriterSink struct {
	W io.Writer
}

func (s *WriterSink) SendMessage(data []byte) {
	if _, err := s.W.Write(data); err != nil {
		log.Warnf("[PIPELINE] sink write failed : %v", err)
	}
}

// BufferedSink stores whole messages in a bounded fifo and writes them out
// when Flush is called. When the buffer cannot hold a complete message the
// message is dropped, a saturated transport is never allowed to stall the
// frame processing context.
type BufferedSink struct {
	mu   sync.Mutex
	fifo *fifo.Fifo
	w    io.Writer
	out  []byte
}

func NewBufferedSink(w io.Writer, size uint16) *BufferedSink {
	return &BufferedSink{
		fifo: fifo.NewFifo(size),
		w:    w,
		out:  make([]byte, 512),
	}
}

// SendMessage implements Sink. Never blocks.
func (s *BufferedSink) SendMessage(data []byte) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.fifo.GetSpace() < len(data) {
		log.Debugf("[PIPELINE] sink buffer full, dropping %v bytes", len(data))
		return
	}
	s.fifo.Write(data)
}

// Flush drains the buffered messages to the underlying writer. Should be
// called periodically from the transport context.
func (s *BufferedSink) Flush() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for {
		n := s.fifo.Read(s.out)
		if n == 0 {
			return nil
		}
		if _, err := s.w.Write(s.out[:n]); err != nil {
			return err
		}
	}
}
