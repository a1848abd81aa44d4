package rle

import (
	"math/rand"
	"reflect"
	"testing"

	"github.com/muralkit/mural/pixel"
)

func checkIntegrity(t *testing.T, b *Buffer) {
	t.Helper()
	if err := b.Integrity(); err != nil {
		t.Fatalf("integrity check failed: %v", err)
	}
}

func TestFill(t *testing.T) {
	b := NewBuffer(128, 4, 45)
	checkIntegrity(t, b)

	b.Fill(255)
	checkIntegrity(t, b)
	want := []Run{{255, 512}}
	if got := b.Runs(); !reflect.DeepEqual(got, want) {
		t.Fatalf("expected runs %v, got %v", want, got)
	}
}

func TestSetAtSplitsRun(t *testing.T) {
	b := NewBuffer(4, 4, 30)
	checkIntegrity(t, b)

	b.SetAt(2, 52)
	checkIntegrity(t, b)
	want := []Run{{30, 2}, {52, 1}, {30, 13}}
	if got := b.Runs(); !reflect.DeepEqual(got, want) {
		t.Fatalf("expected runs %v, got %v", want, got)
	}
}

func TestSetAtMergesWithPrevious(t *testing.T) {
	b := NewBuffer(4, 4, 30)
	b.SetAt(2, 52)
	b.SetAt(3, 52)
	checkIntegrity(t, b)
	want := []Run{{30, 2}, {52, 2}, {30, 12}}
	if got := b.Runs(); !reflect.DeepEqual(got, want) {
		t.Fatalf("expected runs %v, got %v", want, got)
	}
}

func TestSetAtMergesWithNext(t *testing.T) {
	b := NewBuffer(4, 4, 30)
	b.SetAt(2, 52)
	b.SetAt(1, 52)
	checkIntegrity(t, b)
	want := []Run{{30, 1}, {52, 2}, {30, 13}}
	if got := b.Runs(); !reflect.DeepEqual(got, want) {
		t.Fatalf("expected runs %v, got %v", want, got)
	}
}

func TestSetAtMergesBothSides(t *testing.T) {
	b := NewBuffer(128, 2, 0)

	b.SetAt(0, 27)
	want := []Run{{27, 1}, {0, 255}}
	if got := b.Runs(); !reflect.DeepEqual(got, want) {
		t.Fatalf("expected runs %v, got %v", want, got)
	}

	b.SetAt(2, 27)
	want = []Run{{27, 1}, {0, 1}, {27, 1}, {0, 253}}
	if got := b.Runs(); !reflect.DeepEqual(got, want) {
		t.Fatalf("expected runs %v, got %v", want, got)
	}

	// Filling the hole collapses all three runs into one.
	b.SetAt(1, 27)
	checkIntegrity(t, b)
	want = []Run{{27, 3}, {0, 253}}
	if got := b.Runs(); !reflect.DeepEqual(got, want) {
		t.Fatalf("expected runs %v, got %v", want, got)
	}
}

func TestSetAtSameColorIsNoop(t *testing.T) {
	b := NewBuffer(8, 8, 7)
	b.SetAt(10, 7)
	want := []Run{{7, 64}}
	if got := b.Runs(); !reflect.DeepEqual(got, want) {
		t.Fatalf("expected runs %v, got %v", want, got)
	}
}

func TestAt(t *testing.T) {
	b := NewBuffer(4, 2, 3)
	b.Set(2, 1, 9)
	if got := b.At(6); got != 9 {
		t.Fatalf("expected 9 at index 6, got %d", got)
	}
	if got := b.At(5); got != 3 {
		t.Fatalf("expected 3 at index 5, got %d", got)
	}
}

func TestDecodeRange(t *testing.T) {
	b := NewBuffer(4, 4, 1)
	b.SetAt(5, 2)
	b.SetAt(6, 2)
	b.SetAt(15, 4)

	dst := make([]pixel.Color, 8)
	b.DecodeRange(4, 8, dst)
	want := []pixel.Color{1, 2, 2, 1, 1, 1, 1, 1}
	if !reflect.DeepEqual(dst, want) {
		t.Fatalf("expected %v, got %v", want, dst)
	}

	one := make([]pixel.Color, 1)
	b.DecodeRange(15, 1, one)
	if one[0] != 4 {
		t.Fatalf("expected 4 at tail, got %d", one[0])
	}
}

func TestRandomWritesMatchReference(t *testing.T) {
	const w, h = 37, 11
	rng := rand.New(rand.NewSource(1))
	b := NewBuffer(w, h, 0)
	ref := make([]pixel.Color, w*h)

	for i := 0; i < 5000; i++ {
		idx := rng.Intn(w * h)
		c := pixel.Color(rng.Intn(5))
		b.SetAt(idx, c)
		ref[idx] = c
	}
	checkIntegrity(t, b)

	got := make([]pixel.Color, w*h)
	b.DecodeRange(0, w*h, got)
	if !reflect.DeepEqual(got, ref) {
		t.Fatalf("decoded buffer diverged from reference")
	}
}
