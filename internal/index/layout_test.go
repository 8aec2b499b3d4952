package index

import "testing"

func TestPackUnpackBijection(t *testing.T) {
	layouts := []Layout{
		New(1, 1, 1, 1),
		New(2, 2, 2, 2),
		New(2, 4, 3, 5),
		New(3, 7, 1, 2),
	}

	for _, l := range layouts {
		seen := make(map[int]bool, l.Len())
		for s := 0; s < l.Ns; s++ {
			for p := 0; p < l.Np; p++ {
				for m := 0; m < l.Nm; m++ {
					for n := 0; n < l.Nn; n++ {
						idx := l.Pack(s, n, m, p)
						if idx < 0 || idx >= l.Len() {
							t.Fatalf("%+v: Pack(%d,%d,%d,%d)=%d out of range", l, s, n, m, p, idx)
						}
						if seen[idx] {
							t.Fatalf("%+v: index %d produced twice", l, idx)
						}
						seen[idx] = true

						got := l.Unpack(idx)
						want := Mode{S: s, N: n, M: m, P: p}
						if got != want {
							t.Errorf("%+v: Unpack(%d) = %v, want %v", l, idx, got, want)
						}
					}
				}
			}
		}

		for idx := 0; idx < l.Len(); idx++ {
			if back := l.PackMode(l.Unpack(idx)); back != idx {
				t.Errorf("%+v: round trip of %d gave %d", l, idx, back)
			}
		}
	}
}

func TestPackOrder(t *testing.T) {
	l := New(2, 2, 3, 4)

	if got := l.Pack(0, 1, 0, 0); got != 1 {
		t.Errorf("n stride: got %d, want 1", got)
	}
	if got := l.Pack(0, 0, 1, 0); got != 2 {
		t.Errorf("m stride: got %d, want 2", got)
	}
	if got := l.Pack(0, 0, 0, 1); got != 6 {
		t.Errorf("p stride: got %d, want 6", got)
	}
	if got := l.Pack(1, 0, 0, 0); got != 24 {
		t.Errorf("species stride: got %d, want 24", got)
	}
}

func TestLookup(t *testing.T) {
	l := New(2, 3, 3, 3)

	tests := []struct {
		name string
		md   Mode
		ok   bool
	}{
		{"origin", Mode{0, 0, 0, 0}, true},
		{"last", Mode{1, 2, 2, 2}, true},
		{"n below", Mode{0, -1, 0, 0}, false},
		{"m below", Mode{0, 0, -1, 0}, false},
		{"p below", Mode{1, 0, 0, -1}, false},
		{"n above", Mode{0, 3, 0, 0}, false},
		{"m above", Mode{0, 0, 3, 0}, false},
		{"p above", Mode{0, 0, 0, 3}, false},
		{"species above", Mode{2, 0, 0, 0}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			idx, ok := l.Lookup(tt.md)
			if ok != tt.ok {
				t.Fatalf("Lookup(%v) ok = %v, want %v", tt.md, ok, tt.ok)
			}
			if !ok && idx != -1 {
				t.Errorf("Lookup(%v) returned %d for an invalid mode", tt.md, idx)
			}
		})
	}
}

func TestModesOrder(t *testing.T) {
	l := New(2, 2, 2, 1)
	modes := l.Modes()
	if len(modes) != l.Len() {
		t.Fatalf("expected %d modes, got %d", l.Len(), len(modes))
	}
	for i, md := range modes {
		if l.PackMode(md) != i {
			t.Errorf("mode %v at position %d", md, i)
		}
	}
}

func TestCheck(t *testing.T) {
	if err := New(2, 4, 1, 1).Check(); err != nil {
		t.Errorf("unexpected error: %v", err)
	}
	for _, l := range []Layout{New(0, 1, 1, 1), New(1, 0, 1, 1), New(1, 1, -1, 1), New(1, 1, 1, 0)} {
		if err := l.Check(); err == nil {
			t.Errorf("expected error for %+v", l)
		}
	}
}
