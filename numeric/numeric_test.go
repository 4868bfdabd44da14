package numeric

import "testing"

func TestRoundTrip(t *testing.T) {
	for base := 2; base <= 36; base++ {
		for _, n := range []uint64{0, 1, 7, 35, 36, 1000, 1 << 20} {
			for _, w := range []int{0, 1, 4, 10} {
				s := Format(n, base, w)
				got, err := Parse(s, base)
				if err != nil {
					t.Fatalf("base=%d n=%d w=%d: Parse(%q) error: %v", base, n, w, s, err)
				}
				if got != n {
					t.Fatalf("base=%d n=%d w=%d: round trip got %d want %d (s=%q)", base, n, w, got, n, s)
				}
			}
		}
	}
}

func TestFormatZero(t *testing.T) {
	for _, w := range []int{0, 1, 3, 8} {
		s := Format(0, 10, w)
		want := w
		if want < 1 {
			want = 1
		}
		if len(s) != want {
			t.Fatalf("Format(0, 10, %d) = %q, want length %d", w, s, want)
		}
		for _, r := range s {
			if r != '0' {
				t.Fatalf("Format(0, 10, %d) = %q, want all zeros", w, s)
			}
		}
	}
}

func TestParseErrors(t *testing.T) {
	if _, err := Parse("", 10); err == nil {
		t.Fatal("expected error on empty input")
	}
	if _, err := Parse("12g", 16); err == nil {
		t.Fatal("expected error on out-of-range digit")
	}
	if _, err := Parse("ff", 16); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestBaseCollapsesOutsideRange(t *testing.T) {
	s := Format(42, 1, 0) // invalid base collapses to 10
	got, err := Parse(s, 10)
	if err != nil {
		t.Fatal(err)
	}
	if got != 42 {
		t.Fatalf("got %d, want 42", got)
	}
}

func TestCaseInsensitive(t *testing.T) {
	n, err := Parse("FF", 16)
	if err != nil {
		t.Fatal(err)
	}
	if n != 255 {
		t.Fatalf("got %d, want 255", n)
	}
}
