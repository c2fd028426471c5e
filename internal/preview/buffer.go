package preview

import (
	"fmt"
	"sync"
	"time"

	"gocv.io/x/gocv"
)

// Buffer holds the most recent preview frame, JPEG encoded.
type Buffer struct {
	mu      sync.RWMutex
	jpeg    []byte
	updated time.Time
	seq     uint64
}

// NewBuffer creates an empty Buffer.
func NewBuffer() *Buffer {
	return &Buffer{}
}

// Update encodes frame and makes it the latest preview.
func (b *Buffer) Update(frame *gocv.Mat) error {
	if frame == nil || frame.Empty() {
		return nil
	}

	buf, err := gocv.IMEncode(gocv.JPEGFileExt, *frame)
	if err != nil {
		return fmt.Errorf("encode preview: %w", err)
	}
	defer buf.Close()

	b.Set(buf.GetBytes())
	return nil
}

// Set stores already encoded JPEG bytes. The slice is copied.
func (b *Buffer) Set(data []byte) {
	jpeg := make([]byte, len(data))
	copy(jpeg, data)

	b.mu.Lock()
	b.jpeg = jpeg
	b.updated = time.Now()
	b.seq++
	b.mu.Unlock()
}

// Latest returns the latest JPEG and its sequence number. The sequence
// increases with every update so streamers can skip frames already sent.
// A nil slice means no frame has been captured yet.
func (b *Buffer) Latest() ([]byte, uint64) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.jpeg, b.seq
}

// Updated returns when the latest frame was stored.
func (b *Buffer) Updated() time.Time {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.updated
}
