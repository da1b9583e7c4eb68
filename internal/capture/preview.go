package capture

import (
	"fmt"
	"sync"

	"gocv.io/x/gocv"
)

// Preview holds the most recent frame as JPEG. The frame cycle publishes
// into it and any number of stream clients read from it, so the camera is
// only ever read by one goroutine.
type Preview struct {
	mu     sync.RWMutex
	jpeg   []byte
	seq    uint64
	notify chan struct{}
}

// NewPreview returns an empty Preview.
func NewPreview() *Preview {
	return &Preview{notify: make(chan struct{})}
}

// Publish encodes frame and makes it the latest preview frame.
func (p *Preview) Publish(frame *gocv.Mat) error {
	if frame == nil || frame.Empty() {
		return ErrNoFrame
	}
	buf, err := gocv.IMEncode(".jpg", *frame)
	if err != nil {
		return fmt.Errorf("encode preview: %w", err)
	}
	defer buf.Close()

	data := make([]byte, buf.Len())
	copy(data, buf.GetBytes())
	p.Store(data)
	return nil
}

// Store replaces the latest frame with already encoded JPEG bytes.
func (p *Preview) Store(jpeg []byte) {
	p.mu.Lock()
	p.jpeg = jpeg
	p.seq++
	close(p.notify)
	p.notify = make(chan struct{})
	p.mu.Unlock()
}

// Latest returns the latest frame and its sequence number. The slice must
// not be modified.
func (p *Preview) Latest() ([]byte, uint64) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.jpeg, p.seq
}

// Updated returns a channel closed on the next Store.
func (p *Preview) Updated() <-chan struct{} {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.notify
}
