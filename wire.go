package osc

import (
	"encoding/binary"
	"math"

	"golang.org/x/exp/constraints"
)

// Everything in OSC is big-endian and aligned to 4 bytes. Integer byte
// order goes through encoding/binary; floats are reinterpreted as the
// unsigned integer of the same width and swapped as bits, never as
// floating-point values.

// align4 rounds n up to the next multiple of 4.
func align4[T constraints.Integer](n T) T {
	return (n + 3) &^ 3
}

func putFloat32(b []byte, f float32) {
	binary.BigEndian.PutUint32(b, math.Float32bits(f))
}

func getFloat32(b []byte) float32 {
	return math.Float32frombits(binary.BigEndian.Uint32(b))
}

func putFloat64(b []byte, f float64) {
	binary.BigEndian.PutUint64(b, math.Float64bits(f))
}

func getFloat64(b []byte) float64 {
	return math.Float64frombits(binary.BigEndian.Uint64(b))
}
