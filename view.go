package osc

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"math"
)

// arg is one decoded argument: a tag plus the payload slot for its kind.
// Fixed-width numeric kinds keep their raw big-endian bits in num;
// variable-length kinds keep a borrowed slice of the source buffer in data.
type arg struct {
	tag  byte
	num  uint64  // i, f, h, d, c
	data []byte  // s, S, b
	tt   Timetag // t
	raw  [4]byte // m, r
}

// View is a zero-copy decode of a single OSC message. The address,
// type-tag and string/blob accessors return slices of the buffer passed to
// Parse: a View is only valid while the caller holds that buffer, and must
// not be retained once the buffer is reused or released.
//
// All typed accessors are soft: an out-of-range index or a tag mismatch
// yields the kind's zero value, never an error.
type View struct {
	addr []byte
	tags []byte
	args [MaxArgs]arg
	n    int
}

// Parse decodes buf into the view. On failure the view is cleared and must
// not be read. Parse never copies: buf must stay alive and unmodified for
// as long as the view is used.
func (v *View) Parse(buf []byte) error {
	*v = View{}
	if len(buf) < 4 || buf[0] != '/' {
		return fmt.Errorf("not a message: %w", ErrMalformed)
	}

	end := bytes.IndexByte(buf, 0)
	if end < 0 {
		return v.fail("unterminated address")
	}
	v.addr = buf[:end]
	pos := alignPos(end+1, len(buf))

	// A missing type tag string means zero arguments, which is valid.
	if pos >= len(buf) || buf[pos] != ',' {
		return nil
	}
	rel := bytes.IndexByte(buf[pos:], 0)
	if rel < 0 {
		return v.fail("unterminated type tags")
	}
	v.tags = buf[pos+1 : pos+rel]
	pos = alignPos(pos+rel+1, len(buf))

	for _, tag := range v.tags {
		if v.n >= MaxArgs {
			break
		}
		a := &v.args[v.n]
		a.tag = tag
		switch tag {
		case 'i', 'f':
			if pos+4 > len(buf) {
				return v.fail("truncated %c argument", tag)
			}
			a.num = uint64(binary.BigEndian.Uint32(buf[pos:]))
			pos += 4
		case 's', 'S':
			rel := bytes.IndexByte(buf[pos:], 0)
			if rel < 0 {
				return v.fail("unterminated %c argument", tag)
			}
			a.data = buf[pos : pos+rel]
			pos = alignPos(pos+rel+1, len(buf))
		case 'b':
			if pos+4 > len(buf) {
				return v.fail("truncated blob size")
			}
			size := int(int32(binary.BigEndian.Uint32(buf[pos:])))
			pos += 4
			if size < 0 || pos+size > len(buf) {
				return v.fail("blob of %d bytes overruns buffer", size)
			}
			a.data = buf[pos : pos+size]
			pos = alignPos(pos+size, len(buf))
		case 'h', 'd':
			if pos+8 > len(buf) {
				return v.fail("truncated %c argument", tag)
			}
			a.num = binary.BigEndian.Uint64(buf[pos:])
			pos += 8
		case 't':
			if pos+8 > len(buf) {
				return v.fail("truncated timetag argument")
			}
			a.tt = getTimetag(buf[pos:])
			pos += 8
		case 'm', 'r':
			if pos+4 > len(buf) {
				return v.fail("truncated %c argument", tag)
			}
			copy(a.raw[:], buf[pos:pos+4])
			pos += 4
		case 'c':
			if pos+4 > len(buf) {
				return v.fail("truncated char argument")
			}
			a.num = uint64(buf[pos+3])
			pos += 4
		case 'T', 'F', 'N', 'I':
			// Tag only, no payload.
		default:
			// An unknown tag has an unknowable width, so every
			// argument after it would decode at the wrong offset.
			return v.fail("unknown type tag %c", tag)
		}
		v.n++
	}
	return nil
}

// alignPos rounds pos up to the next 4-byte boundary, clamped to size so
// slicing past a padded final element stays in bounds.
func alignPos(pos, size int) int {
	if pos = align4(pos); pos > size {
		pos = size
	}
	return pos
}

func (v *View) fail(format string, args ...any) error {
	*v = View{}
	return fmt.Errorf(format+": %w", append(args, ErrMalformed)...)
}

// Address returns the address pattern as a borrowed slice.
func (v *View) Address() []byte {
	return v.addr
}

// TypeTags returns the type tag characters, without the leading comma, as
// a borrowed slice.
func (v *View) TypeTags() []byte {
	return v.tags
}

// NumArgs returns the number of decoded arguments.
func (v *View) NumArgs() int {
	return v.n
}

// Tag returns the type tag of argument i, or 0 if i is out of range.
func (v *View) Tag(i int) byte {
	if i < 0 || i >= v.n {
		return 0
	}
	return v.args[i].tag
}

func (v *View) at(i int, tags ...byte) *arg {
	if i < 0 || i >= v.n {
		return nil
	}
	a := &v.args[i]
	for _, t := range tags {
		if a.tag == t {
			return a
		}
	}
	return nil
}

// Int returns argument i as an int32, or 0 if it is not one.
func (v *View) Int(i int) int32 {
	a := v.at(i, 'i')
	if a == nil {
		return 0
	}
	return int32(uint32(a.num))
}

// Float returns argument i as a float32, or 0 if it is not one.
func (v *View) Float(i int) float32 {
	a := v.at(i, 'f')
	if a == nil {
		return 0
	}
	return math.Float32frombits(uint32(a.num))
}

// Int64 returns argument i as an int64, or 0 if it is not one.
func (v *View) Int64(i int) int64 {
	a := v.at(i, 'h')
	if a == nil {
		return 0
	}
	return int64(a.num)
}

// Double returns argument i as a float64, or 0 if it is not one.
func (v *View) Double(i int) float64 {
	a := v.at(i, 'd')
	if a == nil {
		return 0
	}
	return math.Float64frombits(a.num)
}

// String returns argument i as a string if it is a string or symbol, or ""
// otherwise. The returned string is a copy; use Bytes for the borrowed
// form.
func (v *View) String(i int) string {
	return string(v.Bytes(i))
}

// Bytes returns the borrowed bytes of argument i if it is a string or
// symbol, or nil.
func (v *View) Bytes(i int) []byte {
	a := v.at(i, 's', 'S')
	if a == nil {
		return nil
	}
	return a.data
}

// Blob returns the borrowed payload of argument i if it is a blob, or nil.
func (v *View) Blob(i int) []byte {
	a := v.at(i, 'b')
	if a == nil {
		return nil
	}
	return a.data
}

// Timetag returns argument i as a Timetag, or the zero tag if it is not
// one.
func (v *View) Timetag(i int) Timetag {
	a := v.at(i, 't')
	if a == nil {
		return Timetag{}
	}
	return a.tt
}

// Bool returns true for a 'T' argument and false for 'F', anything else,
// or an out-of-range index.
func (v *View) Bool(i int) bool {
	return v.at(i, 'T') != nil
}

// Char returns argument i as a character, or 0 if it is not one.
func (v *View) Char(i int) byte {
	a := v.at(i, 'c')
	if a == nil {
		return 0
	}
	return byte(a.num)
}

// MIDI returns the four raw bytes (port, status, data1, data2) of a MIDI
// argument, or zeroes.
func (v *View) MIDI(i int) [4]byte {
	a := v.at(i, 'm')
	if a == nil {
		return [4]byte{}
	}
	return a.raw
}

// Color returns the four raw bytes (r, g, b, a) of an RGBA color argument,
// or zeroes.
func (v *View) Color(i int) [4]byte {
	a := v.at(i, 'r')
	if a == nil {
		return [4]byte{}
	}
	return a.raw
}

// Match reports whether the view's address matches the compiled pattern.
func (v *View) Match(p Pattern) bool {
	return p.Match(v.addr)
}

// MatchAddress reports whether the view's address matches the pattern,
// compiling it first. Invalid patterns match nothing; compile once with
// ParsePattern when matching repeatedly.
func (v *View) MatchAddress(pattern string) bool {
	p, err := ParsePattern(pattern)
	if err != nil {
		return false
	}
	return p.Match(v.addr)
}
