package arena

import "testing"

func TestInsertGet(t *testing.T) {
	a := New[string]()

	h1 := a.Insert("first")
	h2 := a.Insert("second")

	if a.Len() != 2 {
		t.Fatalf("expected len 2, got %d", a.Len())
	}

	v, ok := a.Get(h1)
	if !ok || *v != "first" {
		t.Errorf("Get(h1) = %v, %v", v, ok)
	}
	v, ok = a.Get(h2)
	if !ok || *v != "second" {
		t.Errorf("Get(h2) = %v, %v", v, ok)
	}
}

func TestRemoveInvalidatesHandle(t *testing.T) {
	a := New[int]()
	h := a.Insert(42)

	v, ok := a.Remove(h)
	if !ok || v != 42 {
		t.Fatalf("Remove = %d, %v", v, ok)
	}
	if a.Len() != 0 {
		t.Errorf("expected len 0, got %d", a.Len())
	}

	if _, ok := a.Get(h); ok {
		t.Error("stale handle resolved after removal")
	}
	if _, ok := a.Remove(h); ok {
		t.Error("double removal succeeded")
	}
	if a.Contains(h) {
		t.Error("Contains true for removed handle")
	}
}

func TestGenerationBumpOnReuse(t *testing.T) {
	a := New[int]()
	h1 := a.Insert(1)
	a.Remove(h1)

	h2 := a.Insert(2)

	s1, g1 := h1.RawParts()
	s2, g2 := h2.RawParts()
	if s1 != s2 {
		t.Fatalf("expected slot reuse, got slots %d and %d", s1, s2)
	}
	if g2 <= g1 {
		t.Errorf("generation did not increase: %d -> %d", g1, g2)
	}

	// The old handle must not alias the new payload.
	if _, ok := a.Get(h1); ok {
		t.Error("stale handle aliases reused slot")
	}
	v, ok := a.Get(h2)
	if !ok || *v != 2 {
		t.Errorf("fresh handle failed: %v, %v", v, ok)
	}
}

func TestGenerationStrictlyIncreases(t *testing.T) {
	a := New[int]()
	var lastGen uint32
	for i := 0; i < 10; i++ {
		h := a.Insert(i)
		_, gen := h.RawParts()
		if i > 0 && gen <= lastGen {
			t.Fatalf("iteration %d: generation %d not above %d", i, gen, lastGen)
		}
		lastGen = gen
		a.Remove(h)
	}
}

func TestInvalidHandleNeverResolves(t *testing.T) {
	a := New[int]()
	a.Insert(1)
	a.Insert(2)

	if _, ok := a.Get(Invalid()); ok {
		t.Error("invalid handle resolved")
	}
	if a.Contains(Invalid()) {
		t.Error("Contains(Invalid()) = true")
	}
}

func TestForEachSlotOrder(t *testing.T) {
	a := New[int]()
	h0 := a.Insert(10)
	a.Insert(20)
	a.Insert(30)
	a.Remove(h0)

	var got []int
	a.ForEach(func(_ Handle, v *int) { got = append(got, *v) })

	want := []int{20, 30}
	if len(got) != len(want) {
		t.Fatalf("visited %d values, want %d", len(got), len(want))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("position %d: got %d, want %d", i, got[i], want[i])
		}
	}
}

func TestGetUnknownGen(t *testing.T) {
	a := New[int]()
	h := a.Insert(7)
	slot, _ := h.RawParts()

	v, full, ok := a.GetUnknownGen(slot)
	if !ok || *v != 7 || full != h {
		t.Fatalf("GetUnknownGen = %v, %v, %v", v, full, ok)
	}

	// After reuse the same slot returns the new payload and handle:
	// the documented ABA hazard.
	a.Remove(h)
	h2 := a.Insert(8)
	v, full, ok = a.GetUnknownGen(slot)
	if !ok || *v != 8 || full != h2 {
		t.Errorf("after reuse: got %v, %v, %v", v, full, ok)
	}

	if _, _, ok := a.GetUnknownGen(999); ok {
		t.Error("out-of-range slot resolved")
	}
}

func TestFreeListReuseOrder(t *testing.T) {
	a := New[int]()
	handles := make([]Handle, 5)
	for i := range handles {
		handles[i] = a.Insert(i)
	}
	a.Remove(handles[1])
	a.Remove(handles[3])

	// Last freed slot is reused first.
	h := a.Insert(100)
	slot, _ := h.RawParts()
	want, _ := handles[3].RawParts()
	if slot != want {
		t.Errorf("expected slot %d reused, got %d", want, slot)
	}
	if a.Len() != 4 {
		t.Errorf("expected len 4, got %d", a.Len())
	}
}
