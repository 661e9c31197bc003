package osc

import (
	"encoding/binary"
	"fmt"
)

// bundleMagic is the 8-byte header identifying a bundle on the wire.
var bundleMagic = [8]byte{'#', 'b', 'u', 'n', 'd', 'l', 'e', 0}

// Bundle accumulates serialized messages (and optionally other bundles)
// behind a "#bundle" header and timetag, each element preceded by a 4-byte
// big-endian size. The zero value is an empty bundle with the zero timetag.
type Bundle struct {
	buf [MaxBundleSize]byte
	n   int
}

// Reset discards all elements, rewrites the header and zeroes the timetag.
func (b *Bundle) Reset() {
	copy(b.buf[:8], bundleMagic[:])
	Timetag{}.put(b.buf[8:])
	b.n = 16
}

// init lazily writes the header so the zero value works.
func (b *Bundle) init() {
	if b.n == 0 {
		b.Reset()
	}
}

// SetTimetag overwrites the bundle's timetag. It may be called at any
// point before transmission.
func (b *Bundle) SetTimetag(t Timetag) {
	b.init()
	t.put(b.buf[8:])
}

// AddMessage serializes the message and appends it as an element. The
// message builder is not consumed and can keep being modified or reused.
func (b *Bundle) AddMessage(m *Message) error {
	var tmp [MaxMessageSize]byte
	size, err := m.Build(tmp[:])
	if err != nil {
		return fmt.Errorf("bundle element: %w", err)
	}
	return b.appendElement(tmp[:size])
}

// AddBundle appends a previously built bundle as a nested element.
func (b *Bundle) AddBundle(nested *Bundle) error {
	if nested == b {
		return fmt.Errorf("bundle cannot contain itself: %w", ErrCapacity)
	}
	return b.appendElement(nested.Bytes())
}

func (b *Bundle) appendElement(elem []byte) error {
	b.init()
	if b.n+4+len(elem) > MaxBundleSize {
		return fmt.Errorf("bundle element %d bytes with %d used: %w", len(elem), b.n, ErrCapacity)
	}
	binary.BigEndian.PutUint32(b.buf[b.n:], uint32(len(elem)))
	b.n += 4
	b.n += copy(b.buf[b.n:], elem)
	return nil
}

// Bytes returns the accumulated wire bytes, ready for transmission. The
// slice aliases the bundle's internal storage and is invalidated by the
// next Reset or append.
func (b *Bundle) Bytes() []byte {
	b.init()
	return b.buf[:b.n]
}

// Len returns the current size in bytes, including the 16-byte header.
func (b *Bundle) Len() int {
	b.init()
	return b.n
}
