package osc

import (
	"bytes"
	"encoding/binary"
	"errors"
	"testing"
)

func testMessage(t *testing.T, addr string, n int32) *Message {
	t.Helper()
	var m Message
	if err := m.SetAddress(addr); err != nil {
		t.Fatalf("SetAddress(%q): %v", addr, err)
	}
	if err := m.AddInt32(n); err != nil {
		t.Fatalf("AddInt32: %v", err)
	}
	return &m
}

// received collects dispatched messages as (address, first int arg) pairs.
type received struct {
	addrs []string
	ints  []int32
}

func (r *received) collect(v *View) {
	r.addrs = append(r.addrs, string(v.Address()))
	r.ints = append(r.ints, v.Int(0))
}

func TestBundleHeader(t *testing.T) {
	var b Bundle
	b.SetTimetag(Timetag{Seconds: 0x01020304, Fraction: 0x05060708})
	got := b.Bytes()
	want := []byte("#bundle\x00\x01\x02\x03\x04\x05\x06\x07\x08")
	if !bytes.Equal(got, want) {
		t.Errorf("Bytes:\n got: % x\nwant: % x", got, want)
	}
	if !IsBundle(got) {
		t.Errorf("IsBundle = false for a built bundle")
	}

	b.Reset()
	if b.Len() != 16 {
		t.Errorf("Len after Reset = %d, want 16", b.Len())
	}
	if !bytes.Equal(b.Bytes()[8:16], make([]byte, 8)) {
		t.Errorf("Reset left a timetag behind: % x", b.Bytes()[8:16])
	}
}

func TestBundleCardinality(t *testing.T) {
	for n := 0; n <= 5; n++ {
		var b Bundle
		b.SetTimetag(Immediate())
		for i := 0; i < n; i++ {
			if err := b.AddMessage(testMessage(t, "/seq", int32(i))); err != nil {
				t.Fatalf("AddMessage %d: %v", i, err)
			}
		}
		var r received
		if err := Dispatch(b.Bytes(), r.collect); err != nil {
			t.Fatalf("Dispatch: %v", err)
		}
		if len(r.addrs) != n {
			t.Fatalf("dispatched %d messages from a bundle of %d", len(r.addrs), n)
		}
		for i, got := range r.ints {
			if got != int32(i) {
				t.Errorf("message %d carried %d, want %d (out of order?)", i, got, i)
			}
		}
	}
}

func TestBundleTwoMessages(t *testing.T) {
	var b Bundle
	b.SetTimetag(Timetag{Seconds: 99, Fraction: 7}) // must not affect delivery
	var m1 Message
	if err := m1.SetAddress("/synth/freq"); err != nil {
		t.Fatal(err)
	}
	if err := m1.AddFloat32(440.0); err != nil {
		t.Fatal(err)
	}
	var m2 Message
	if err := m2.SetAddress("/synth/amp"); err != nil {
		t.Fatal(err)
	}
	if err := m2.AddFloat32(0.5); err != nil {
		t.Fatal(err)
	}
	if err := b.AddMessage(&m1); err != nil {
		t.Fatal(err)
	}
	if err := b.AddMessage(&m2); err != nil {
		t.Fatal(err)
	}

	var addrs []string
	var floats []float32
	if err := Dispatch(b.Bytes(), func(v *View) {
		addrs = append(addrs, string(v.Address()))
		floats = append(floats, v.Float(0))
	}); err != nil {
		t.Fatalf("Dispatch: %v", err)
	}
	if len(addrs) != 2 || addrs[0] != "/synth/freq" || addrs[1] != "/synth/amp" {
		t.Errorf("addresses = %q", addrs)
	}
	if len(floats) != 2 || floats[0] != 440.0 || floats[1] != 0.5 {
		t.Errorf("floats = %v", floats)
	}
}

func TestBundleNested(t *testing.T) {
	var inner Bundle
	inner.SetTimetag(Immediate())
	if err := inner.AddMessage(testMessage(t, "/in", 1)); err != nil {
		t.Fatal(err)
	}

	var outer Bundle
	if err := outer.AddMessage(testMessage(t, "/before", 0)); err != nil {
		t.Fatal(err)
	}
	if err := outer.AddBundle(&inner); err != nil {
		t.Fatal(err)
	}
	if err := outer.AddMessage(testMessage(t, "/after", 2)); err != nil {
		t.Fatal(err)
	}

	var r received
	if err := Dispatch(outer.Bytes(), r.collect); err != nil {
		t.Fatalf("Dispatch: %v", err)
	}
	// Depth first: the nested bundle is fully delivered between its
	// siblings.
	want := []string{"/before", "/in", "/after"}
	if len(r.addrs) != 3 || r.addrs[0] != want[0] || r.addrs[1] != want[1] || r.addrs[2] != want[2] {
		t.Errorf("addresses = %q, want %q", r.addrs, want)
	}
}

func TestBundleSelfEmbed(t *testing.T) {
	var b Bundle
	if err := b.AddBundle(&b); err == nil {
		t.Error("AddBundle(self) succeeded")
	}
}

func TestBundleDepthLimit(t *testing.T) {
	nest := func(levels int) []byte {
		var b Bundle
		if err := b.AddMessage(testMessage(t, "/deep", 0)); err != nil {
			t.Fatal(err)
		}
		for i := 1; i < levels; i++ {
			var outer Bundle
			if err := outer.AddBundle(&b); err != nil {
				t.Fatalf("wrap %d: %v", i, err)
			}
			b = outer
		}
		return b.Bytes()
	}

	var r received
	if err := Dispatch(nest(MaxBundleDepth), r.collect); err != nil {
		t.Fatalf("Dispatch at the depth limit: %v", err)
	}
	if len(r.addrs) != 1 {
		t.Fatalf("dispatched %d messages, want 1", len(r.addrs))
	}

	if err := Dispatch(nest(MaxBundleDepth+1), r.collect); !errors.Is(err, ErrTooDeep) {
		t.Fatalf("Dispatch past the depth limit = %v, want ErrTooDeep", err)
	}
}

func TestBundleTruncation(t *testing.T) {
	var b Bundle
	if err := b.AddMessage(testMessage(t, "/ok", 1)); err != nil {
		t.Fatal(err)
	}
	if err := b.AddMessage(testMessage(t, "/lost", 2)); err != nil {
		t.Fatal(err)
	}

	// Chop the second element in half: the first must still be
	// delivered, silently.
	buf := b.Bytes()
	buf = buf[:len(buf)-8]
	var r received
	if err := Dispatch(buf, r.collect); err != nil {
		t.Fatalf("Dispatch: %v", err)
	}
	if len(r.addrs) != 1 || r.addrs[0] != "/ok" {
		t.Errorf("addresses = %q, want [/ok]", r.addrs)
	}
}

func TestBundleSkipsBadElement(t *testing.T) {
	var b Bundle
	if err := b.AddMessage(testMessage(t, "/good", 1)); err != nil {
		t.Fatal(err)
	}
	// Splice in an element that is sized correctly but is not a valid
	// message, then a trailing good one.
	bad := []byte{'x', 'x', 'x', 'x'}
	raw := append([]byte{}, b.Bytes()...)
	raw = binary.BigEndian.AppendUint32(raw, uint32(len(bad)))
	raw = append(raw, bad...)

	var tail Bundle
	if err := tail.AddMessage(testMessage(t, "/also-good", 2)); err != nil {
		t.Fatal(err)
	}
	elem := tail.Bytes()[16:] // size prefix + message, reuse as-is
	raw = append(raw, elem...)

	var r received
	if err := Dispatch(raw, r.collect); err != nil {
		t.Fatalf("Dispatch: %v", err)
	}
	if len(r.addrs) != 2 || r.addrs[0] != "/good" || r.addrs[1] != "/also-good" {
		t.Errorf("addresses = %q, want [/good /also-good]", r.addrs)
	}
}

func TestBundleCapacity(t *testing.T) {
	var m Message
	if err := m.SetAddress("/big"); err != nil {
		t.Fatal(err)
	}
	if err := m.AddBlob(make([]byte, 700)); err != nil {
		t.Fatal(err)
	}

	var b Bundle
	var added int
	for {
		if err := b.AddMessage(&m); err != nil {
			if !errors.Is(err, ErrCapacity) {
				t.Fatalf("AddMessage = %v, want ErrCapacity", err)
			}
			break
		}
		added++
		if added > 10 {
			t.Fatal("bundle never filled up")
		}
	}
	if added == 0 {
		t.Fatal("no message fit at all")
	}
	before := b.Len()
	if err := b.AddMessage(&m); !errors.Is(err, ErrCapacity) {
		t.Fatalf("AddMessage = %v, want ErrCapacity", err)
	}
	if b.Len() != before {
		t.Errorf("failed add changed Len: %d -> %d", before, b.Len())
	}

	// Everything that did fit still parses.
	var r received
	if err := Dispatch(b.Bytes(), r.collect); err != nil {
		t.Fatalf("Dispatch: %v", err)
	}
	if len(r.addrs) != added {
		t.Errorf("dispatched %d, want %d", len(r.addrs), added)
	}
}

func TestDispatchBareMessage(t *testing.T) {
	var buf [64]byte
	n, err := testMessage(t, "/solo", 9).Build(buf[:])
	if err != nil {
		t.Fatal(err)
	}
	var r received
	if err := Dispatch(buf[:n], r.collect); err != nil {
		t.Fatalf("Dispatch: %v", err)
	}
	if len(r.addrs) != 1 || r.addrs[0] != "/solo" || r.ints[0] != 9 {
		t.Errorf("got %q %v", r.addrs, r.ints)
	}
}

func TestDispatchBadMessage(t *testing.T) {
	var r received
	if err := Dispatch([]byte("garbage"), r.collect); !errors.Is(err, ErrMalformed) {
		t.Fatalf("Dispatch = %v, want ErrMalformed", err)
	}
	if len(r.addrs) != 0 {
		t.Errorf("callback ran %d times for a bad datagram", len(r.addrs))
	}
}
