package osc

import (
	"bytes"
	"encoding/binary"
	"fmt"
)

// IsBundle reports whether buf begins with the 8-byte "#bundle" magic.
func IsBundle(buf []byte) bool {
	return len(buf) >= 8 && bytes.Equal(buf[:8], bundleMagic[:])
}

// Dispatch decodes one received datagram and invokes fn synchronously for
// every message in it, in wire order. A bare message produces a single
// call; a bundle is walked depth-first, recursing fully into nested
// bundles before moving to the next sibling element.
//
// The view passed to fn borrows the datagram buffer and must not be
// retained after fn returns. Inside a bundle, delivery is best-effort: a
// truncated element stops the walk and an element that fails to parse is
// skipped, but messages already dispatched stand. Bundles nested deeper
// than MaxBundleDepth are rejected with ErrTooDeep.
func Dispatch(buf []byte, fn func(*View)) error {
	if IsBundle(buf) {
		return dispatchBundle(buf, fn, 0)
	}
	var v View
	if err := v.Parse(buf); err != nil {
		return err
	}
	fn(&v)
	return nil
}

func dispatchBundle(buf []byte, fn func(*View), depth int) error {
	if depth >= MaxBundleDepth {
		return fmt.Errorf("%d bundles deep: %w", depth+1, ErrTooDeep)
	}
	// Skip the magic and the timetag. A bundle shorter than its header
	// has no elements to deliver.
	pos := 16
	for pos+4 <= len(buf) {
		size := int(int32(binary.BigEndian.Uint32(buf[pos:])))
		pos += 4
		if size <= 0 || size > len(buf)-pos {
			// Truncated or lying size field: drop the rest.
			return nil
		}
		elem := buf[pos : pos+size]
		if IsBundle(elem) {
			if err := dispatchBundle(elem, fn, depth+1); err != nil {
				return err
			}
		} else {
			var v View
			if err := v.Parse(elem); err == nil {
				fn(&v)
			}
		}
		pos += size
	}
	return nil
}
