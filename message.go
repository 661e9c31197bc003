package osc

import (
	"encoding/binary"
	"fmt"
)

// Message accumulates one OSC message into fixed internal storage: the
// address, the type tag for each argument, and the encoded argument
// payload. The zero value is an empty message, ready to use; Reset returns
// a used one to that state. A Message is exclusively owned by one producer
// at a time.
//
//	var m osc.Message
//	m.SetAddress("/synth/freq")
//	m.AddFloat32(440.0)
//	n, err := m.Build(buf)
type Message struct {
	addr    [MaxAddressSize]byte
	addrLen int

	tags    [MaxTypeTags]byte
	numTags int

	args   [MaxArgBytes]byte
	argLen int
}

// Reset clears the message for reuse.
func (m *Message) Reset() {
	m.addrLen = 0
	m.numTags = 0
	m.argLen = 0
}

// SetAddress sets the address pattern, e.g. "/synth/freq". It must be
// called before Build. The stored form is NUL-terminated and zero-padded to
// a 4-byte boundary.
func (m *Message) SetAddress(address string) error {
	if len(address)+1 > MaxAddressSize {
		return fmt.Errorf("address %d bytes: %w", len(address), ErrCapacity)
	}
	n := copy(m.addr[:], address)
	for end := align4(n + 1); n < end; n++ {
		m.addr[n] = 0
	}
	m.addrLen = n
	return nil
}

// grow records the type tag and reserves n argument bytes, or reports
// ErrCapacity leaving the message untouched.
func (m *Message) grow(tag byte, n int) error {
	if m.numTags >= MaxTypeTags-1 || m.argLen+n > MaxArgBytes {
		return fmt.Errorf("argument %c (%d bytes): %w", tag, n, ErrCapacity)
	}
	m.tags[m.numTags] = tag
	m.numTags++
	return nil
}

// AddInt32 appends a 32-bit integer argument.
func (m *Message) AddInt32(v int32) error {
	if err := m.grow('i', 4); err != nil {
		return err
	}
	binary.BigEndian.PutUint32(m.args[m.argLen:], uint32(v))
	m.argLen += 4
	return nil
}

// AddFloat32 appends a 32-bit float argument.
func (m *Message) AddFloat32(v float32) error {
	if err := m.grow('f', 4); err != nil {
		return err
	}
	putFloat32(m.args[m.argLen:], v)
	m.argLen += 4
	return nil
}

// AddString appends a string argument, NUL-terminated and padded to a
// 4-byte boundary on the wire.
func (m *Message) AddString(s string) error {
	return m.addPadded('s', s)
}

// AddSymbol appends a symbol argument ('S'), encoded exactly like a string.
func (m *Message) AddSymbol(s string) error {
	return m.addPadded('S', s)
}

func (m *Message) addPadded(tag byte, s string) error {
	padded := align4(len(s) + 1)
	if err := m.grow(tag, padded); err != nil {
		return err
	}
	n := copy(m.args[m.argLen:], s)
	for ; n < padded; n++ {
		m.args[m.argLen+n] = 0
	}
	m.argLen += padded
	return nil
}

// AddBlob appends a binary blob argument: a 4-byte big-endian length
// followed by the raw bytes, padded to a 4-byte boundary.
func (m *Message) AddBlob(p []byte) error {
	padded := align4(len(p))
	if err := m.grow('b', 4+padded); err != nil {
		return err
	}
	binary.BigEndian.PutUint32(m.args[m.argLen:], uint32(len(p)))
	n := copy(m.args[m.argLen+4:], p)
	for ; n < padded; n++ {
		m.args[m.argLen+4+n] = 0
	}
	m.argLen += 4 + padded
	return nil
}

// AddInt64 appends a 64-bit integer argument ('h').
func (m *Message) AddInt64(v int64) error {
	if err := m.grow('h', 8); err != nil {
		return err
	}
	binary.BigEndian.PutUint64(m.args[m.argLen:], uint64(v))
	m.argLen += 8
	return nil
}

// AddFloat64 appends a 64-bit float argument ('d').
func (m *Message) AddFloat64(v float64) error {
	if err := m.grow('d', 8); err != nil {
		return err
	}
	putFloat64(m.args[m.argLen:], v)
	m.argLen += 8
	return nil
}

// AddTimetag appends a timetag argument.
func (m *Message) AddTimetag(t Timetag) error {
	if err := m.grow('t', 8); err != nil {
		return err
	}
	t.put(m.args[m.argLen:])
	m.argLen += 8
	return nil
}

// AddTrue appends a boolean true argument. It carries no payload, only the
// type tag.
func (m *Message) AddTrue() error { return m.grow('T', 0) }

// AddFalse appends a boolean false argument.
func (m *Message) AddFalse() error { return m.grow('F', 0) }

// AddNil appends a nil argument.
func (m *Message) AddNil() error { return m.grow('N', 0) }

// AddImpulse appends an impulse ("bang", or "Infinitum" in OSC 1.0)
// argument.
func (m *Message) AddImpulse() error { return m.grow('I', 0) }

// AddMIDI appends a 4-byte MIDI message argument: port id, status byte and
// two data bytes, in that order, with no byte-order conversion.
func (m *Message) AddMIDI(port, status, data1, data2 byte) error {
	if err := m.grow('m', 4); err != nil {
		return err
	}
	m.args[m.argLen] = port
	m.args[m.argLen+1] = status
	m.args[m.argLen+2] = data1
	m.args[m.argLen+3] = data2
	m.argLen += 4
	return nil
}

// AddChar appends a character argument, stored in the low byte of a
// big-endian 32-bit word.
func (m *Message) AddChar(c byte) error {
	if err := m.grow('c', 4); err != nil {
		return err
	}
	m.args[m.argLen] = 0
	m.args[m.argLen+1] = 0
	m.args[m.argLen+2] = 0
	m.args[m.argLen+3] = c
	m.argLen += 4
	return nil
}

// AddColor appends a 4-byte RGBA color argument.
func (m *Message) AddColor(r, g, b, a byte) error {
	if err := m.grow('r', 4); err != nil {
		return err
	}
	m.args[m.argLen] = r
	m.args[m.argLen+1] = g
	m.args[m.argLen+2] = b
	m.args[m.argLen+3] = a
	m.argLen += 4
	return nil
}

// Size returns the number of bytes Build will produce, or 0 if the address
// is unset.
func (m *Message) Size() int {
	if m.addrLen == 0 {
		return 0
	}
	return m.addrLen + align4(1+m.numTags+1) + m.argLen
}

// Build serializes the message into dst and returns the number of bytes
// written: address, then "," + tags + NUL padded to 4 bytes, then the
// argument payload. It fails without writing anything if the address is
// unset or dst is too small.
func (m *Message) Build(dst []byte) (int, error) {
	if m.addrLen == 0 {
		return 0, ErrNoAddress
	}
	total := m.Size()
	if total > len(dst) {
		return 0, fmt.Errorf("message is %d bytes, buffer %d: %w", total, len(dst), ErrCapacity)
	}

	pos := copy(dst, m.addr[:m.addrLen])

	dst[pos] = ','
	pos++
	pos += copy(dst[pos:], m.tags[:m.numTags])
	dst[pos] = 0
	pos++
	for pos%4 != 0 {
		dst[pos] = 0
		pos++
	}

	pos += copy(dst[pos:], m.args[:m.argLen])
	return pos, nil
}
