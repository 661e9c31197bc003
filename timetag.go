package osc

import (
	"encoding/binary"
	"fmt"
	"time"
)

// Timetag is an OSC timetag: a 64-bit fixed-point timestamp with the same
// encoding used by NTP, 32 bits of seconds since 1 January 1900 and 32 bits
// of fractional seconds.
type Timetag struct {
	Seconds  uint32
	Fraction uint32
}

// Immediate returns the sentinel timetag meaning "execute immediately".
func Immediate() Timetag {
	return Timetag{Seconds: 1}
}

// IsImmediate reports whether t is the immediate sentinel.
func (t Timetag) IsImmediate() bool {
	return t == Immediate()
}

// epoch is the starting point for Timetags. Everything is assumed to be in
// UTC.
var epoch = time.Date(1900, time.January, 1, 0, 0, 0, 0, time.UTC)

// TimetagAt converts a time.Time into a Timetag. Times at or before the
// 1900 epoch collapse to the zero tag.
func TimetagAt(at time.Time) Timetag {
	d := at.Sub(epoch)
	if d <= 0 {
		return Timetag{}
	}
	secs := d / time.Second
	rem := d - secs*time.Second
	frac := (uint64(rem) << 32) / uint64(time.Second)
	return Timetag{Seconds: uint32(secs), Fraction: uint32(frac)}
}

// Time converts the tag back into a time.Time.
func (t Timetag) Time() time.Time {
	d := time.Duration(t.Seconds) * time.Second
	d += time.Duration((uint64(t.Fraction) * uint64(time.Second)) >> 32)
	return epoch.Add(d)
}

func (t Timetag) put(b []byte) {
	binary.BigEndian.PutUint32(b, t.Seconds)
	binary.BigEndian.PutUint32(b[4:], t.Fraction)
}

func getTimetag(b []byte) Timetag {
	return Timetag{
		Seconds:  binary.BigEndian.Uint32(b),
		Fraction: binary.BigEndian.Uint32(b[4:]),
	}
}

func (t Timetag) String() string {
	if t.IsImmediate() {
		return "Timetag(immediate)"
	}
	return fmt.Sprintf("Timetag(%v)", t.Time())
}
